package moves

import "fmt"

// Move is a single recorded state delta. Do applies it, Undo restores the
// previous state exactly. Moves are only ever constructed with both the old
// and the new value in hand, so Undo never has to guess.
type Move interface {
	Do()
	Undo()
	String() string
}

// CashHolder is anything that owns spendable cash: a player, a company
// treasury or the bank.
type CashHolder interface {
	Cash() int
	AddCash(amount int)
	Name() string
}

// Cash moves an amount between two cash holders.
type Cash struct {
	From   CashHolder
	To     CashHolder
	Amount int
}

func (m *Cash) Do() {
	m.From.AddCash(-m.Amount)
	m.To.AddCash(m.Amount)
}

func (m *Cash) Undo() {
	m.To.AddCash(-m.Amount)
	m.From.AddCash(m.Amount)
}

func (m *Cash) String() string {
	return fmt.Sprintf("%s pays %d to %s", m.From.Name(), m.Amount, m.To.Name())
}

// Int records an integer field change.
type Int struct {
	Target   *int
	Old, New int
	Label    string
}

// NewInt captures the current value of target as the old value.
func NewInt(target *int, value int, label string) *Int {
	return &Int{Target: target, Old: *target, New: value, Label: label}
}

func (m *Int) Do()            { *m.Target = m.New }
func (m *Int) Undo()          { *m.Target = m.Old }
func (m *Int) String() string { return fmt.Sprintf("%s: %d -> %d", m.Label, m.Old, m.New) }

// Bool records a boolean field change.
type Bool struct {
	Target   *bool
	Old, New bool
	Label    string
}

func NewBool(target *bool, value bool, label string) *Bool {
	return &Bool{Target: target, Old: *target, New: value, Label: label}
}

func (m *Bool) Do()            { *m.Target = m.New }
func (m *Bool) Undo()          { *m.Target = m.Old }
func (m *Bool) String() string { return fmt.Sprintf("%s: %v -> %v", m.Label, m.Old, m.New) }

// String records a string field change.
type Str struct {
	Target   *string
	Old, New string
	Label    string
}

func NewStr(target *string, value string, label string) *Str {
	return &Str{Target: target, Old: *target, New: value, Label: label}
}

func (m *Str) Do()            { *m.Target = m.New }
func (m *Str) Undo()          { *m.Target = m.Old }
func (m *Str) String() string { return fmt.Sprintf("%s: %q -> %q", m.Label, m.Old, m.New) }

// Func wraps an explicit do/undo pair. The two functions must be exact
// inverses; use it only where a field delta cannot express the change
// (tile upgrades, supply counters).
type Func struct {
	DoFn   func()
	UndoFn func()
	Label  string
}

func (m *Func) Do()            { m.DoFn() }
func (m *Func) Undo()          { m.UndoFn() }
func (m *Func) String() string { return m.Label }
