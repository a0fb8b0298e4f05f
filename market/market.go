package market

import (
	"errors"
	"fmt"
)

var (
	ErrNoSuchSpace = errors.New("no such market space")
)

// Space is one cell of the 2-D stock price grid. Row 0 is the top of the
// grid; prices rise upwards and to the right.
type Space struct {
	Row, Col int
	Price    int
	// ParSlot marks a space on which a company may be started.
	ParSlot bool
	// NoHoldLimit marks the discount zone where certificates do not count
	// against the per-player certificate limit.
	NoHoldLimit bool
	// Closes marks a space that closes any company whose token reaches it.
	Closes bool
}

func (s *Space) String() string {
	return fmt.Sprintf("%d (%c%d)", s.Price, 'A'+rune(s.Row), s.Col+1)
}

// Market is the stock market grid. Cells may be nil (the grid is ragged in
// most 18xx games).
type Market struct {
	grid [][]*Space
}

func New(grid [][]*Space) *Market {
	for r, row := range grid {
		for c, sp := range row {
			if sp != nil {
				sp.Row, sp.Col = r, c
			}
		}
	}
	return &Market{grid: grid}
}

// NewFromPrices builds a market from a price grid; zero means no cell.
func NewFromPrices(prices [][]int, parSlots [][2]int) *Market {
	grid := make([][]*Space, len(prices))
	for r, row := range prices {
		grid[r] = make([]*Space, len(row))
		for c, p := range row {
			if p == 0 {
				continue
			}
			grid[r][c] = &Space{Price: p}
		}
	}
	m := New(grid)
	for _, rc := range parSlots {
		if sp := m.Space(rc[0], rc[1]); sp != nil {
			sp.ParSlot = true
		}
	}
	return m
}

// Space returns the cell at row/col, or nil if out of range or empty.
func (m *Market) Space(row, col int) *Space {
	if row < 0 || row >= len(m.grid) {
		return nil
	}
	if col < 0 || col >= len(m.grid[row]) {
		return nil
	}
	return m.grid[row][col]
}

// ParSpaces returns every space a company may start on, top to bottom.
func (m *Market) ParSpaces() []*Space {
	var out []*Space
	for _, row := range m.grid {
		for _, sp := range row {
			if sp != nil && sp.ParSlot {
				out = append(out, sp)
			}
		}
	}
	return out
}

// SpaceAtPrice returns the first par space with the given price.
func (m *Market) SpaceAtPrice(price int) (*Space, error) {
	for _, sp := range m.ParSpaces() {
		if sp.Price == price {
			return sp, nil
		}
	}
	return nil, fmt.Errorf("par price %d: %w", price, ErrNoSuchSpace)
}

// Up is the sold-out movement: one row up, or one column right when the
// token is already on the top row.
func (m *Market) Up(from *Space) *Space {
	if next := m.Space(from.Row-1, from.Col); next != nil {
		return next
	}
	if next := m.Space(from.Row, from.Col+1); next != nil {
		return next
	}
	return from
}

// Down moves the token n rows down, stopping at the bottom ledge.
func (m *Market) Down(from *Space, n int) *Space {
	cur := from
	for i := 0; i < n; i++ {
		next := m.Space(cur.Row+1, cur.Col)
		if next == nil {
			break
		}
		cur = next
	}
	return cur
}

// Left is the withhold movement: one column left, falling one row down when
// already on the leftmost column.
func (m *Market) Left(from *Space) *Space {
	if next := m.Space(from.Row, from.Col-1); next != nil {
		return next
	}
	if next := m.Space(from.Row+1, from.Col); next != nil {
		return next
	}
	return from
}

// Right is the payout movement: one column right, rising one row up when at
// the right edge.
func (m *Market) Right(from *Space) *Space {
	if next := m.Space(from.Row, from.Col+1); next != nil {
		return next
	}
	if next := m.Space(from.Row-1, from.Col); next != nil {
		return next
	}
	return from
}
