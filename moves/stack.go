package moves

// Turn is one atomic unit of state change: every move recorded between one
// Begin and the next. Undo and redo operate on whole turns.
type Turn struct {
	Label string
	moves []Move
}

func (t *Turn) Moves() []Move { return t.moves }

// Stack is the per-session record of applied moves. Rounds call Begin at
// the start of each accepted action; every mutation the action performs is
// recorded on the open turn. A rejected action never reaches Begin, so it
// records nothing.
type Stack struct {
	turns   []*Turn
	current *Turn
	redo    []*Turn
}

func NewStack() *Stack {
	return &Stack{}
}

// Begin closes the open turn, if any, and opens a new one. Opening a turn
// discards the redo history.
func (s *Stack) Begin(label string) {
	s.closeCurrent()
	s.current = &Turn{Label: label}
	s.redo = nil
}

// Add applies the move and records it on the open turn. Moves added with
// no open turn are applied but not recorded; callers are expected to have
// called Begin first.
func (s *Stack) Add(m Move) {
	m.Do()
	if s.current != nil {
		s.current.moves = append(s.current.moves, m)
	}
}

func (s *Stack) closeCurrent() {
	if s.current != nil && len(s.current.moves) > 0 {
		s.turns = append(s.turns, s.current)
	}
	s.current = nil
}

// Depth reports the number of committed turns.
func (s *Stack) Depth() int {
	n := len(s.turns)
	if s.current != nil && len(s.current.moves) > 0 {
		n++
	}
	return n
}

// UndoTurn rolls back the most recent turn in reverse move order.
func (s *Stack) UndoTurn() bool {
	s.closeCurrent()
	if len(s.turns) == 0 {
		return false
	}
	turn := s.turns[len(s.turns)-1]
	s.turns = s.turns[:len(s.turns)-1]

	for i := len(turn.moves) - 1; i >= 0; i-- {
		turn.moves[i].Undo()
	}
	s.redo = append(s.redo, turn)
	return true
}

// RedoTurn reapplies the most recently undone turn.
func (s *Stack) RedoTurn() bool {
	if len(s.redo) == 0 {
		return false
	}
	turn := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]

	for _, m := range turn.moves {
		m.Do()
	}
	s.turns = append(s.turns, turn)
	return true
}
