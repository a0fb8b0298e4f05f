package phase

import (
	"trunkline/board"
)

// Phase is one entry of the game's phase schedule.
type Phase struct {
	Name string
	// TileColours a company may lay or upgrade to in this phase.
	TileColours []board.Colour
	// TileLays is the per-colour lay allowance per company turn.
	TileLays map[board.Colour]int
	// TrainLimit is the maximum trains a company may hold.
	TrainLimit int
	// NumORs is the number of operating rounds per stock round.
	NumORs int
	// OffBoardStep selects the off-board revenue value row.
	OffBoardStep int
	// ClosesPrivates folds all private companies on entry.
	ClosesPrivates bool
	// TriggeredBy names the train rank whose first purchase enters this
	// phase; empty for the opening phase.
	TriggeredBy string
}

// AllowsColour reports whether the phase permits laying the colour.
func (p *Phase) AllowsColour(c board.Colour) bool {
	for _, allowed := range p.TileColours {
		if allowed == c {
			return true
		}
	}
	return false
}

// Manager walks the phase schedule. Phases only ever advance.
type Manager struct {
	phases []*Phase
	index  int
}

func NewManager(phases []*Phase) *Manager {
	return &Manager{phases: phases}
}

func (m *Manager) Current() *Phase {
	if len(m.phases) == 0 {
		return &Phase{Name: "none", TrainLimit: 99, NumORs: 1}
	}
	return m.phases[m.index]
}

// TrainBought advances the schedule if the bought rank triggers a later
// phase. Returns the new phase, or nil if nothing changed.
func (m *Manager) TrainBought(rankName string) *Phase {
	for i := m.index + 1; i < len(m.phases); i++ {
		if m.phases[i].TriggeredBy == rankName {
			m.index = i
			return m.phases[i]
		}
	}
	return nil
}

// Index returns the current position in the schedule.
func (m *Manager) Index() int { return m.index }

// SetIndex repositions the schedule; used when a recorded phase change is
// undone.
func (m *Manager) SetIndex(i int) {
	if i >= 0 && i < len(m.phases) {
		m.index = i
	}
}

// Phases returns the full schedule.
func (m *Manager) Phases() []*Phase {
	return append([]*Phase(nil), m.phases...)
}
