package board

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTile = errors.New("unknown tile")
	ErrNoTilesLeft = errors.New("no tiles of that design left")
)

// Colour is a tile colour in upgrade order.
type Colour string

const (
	NoColour Colour = "none" // preprinted base hexes
	Yellow   Colour = "yellow"
	Green    Colour = "green"
	Brown    Colour = "brown"
	Grey     Colour = "grey"
)

// Track endpoints 0..5 are hex sides, counted clockwise. Stations are
// encoded as negative endpoints: station i is -1-i.
func StationEndpoint(station int) int { return -1 - station }

// IsSide reports whether a track endpoint is a hex side.
func IsSide(endpoint int) bool { return endpoint >= 0 && endpoint <= 5 }

// StationIndex converts a negative endpoint back to a station index.
func StationIndex(endpoint int) int { return -1 - endpoint }

// Track is one track segment on a tile, joining two endpoints.
type Track struct {
	From, To int
}

// StationDef is a city printed on a tile design: its token slots and its
// run-through revenue value.
type StationDef struct {
	Slots int
	Value int
}

// Tile is one tile design from the catalog. Instances on the map are
// represented by (tile ID, rotation) pairs held by MapHex.
type Tile struct {
	ID       int
	Colour   Colour
	Stations []StationDef
	Tracks   []Track
	// Upgrades lists the tile IDs this design may be replaced with.
	Upgrades []int
	// Fixed marks preprinted designs that can never be replaced.
	Fixed bool
}

func (t *Tile) String() string {
	return fmt.Sprintf("tile #%d (%s)", t.ID, t.Colour)
}

func (t *Tile) HasStations() bool { return len(t.Stations) > 0 }

// SidesWithTrack returns the hex sides the tile exits through, after
// applying the given rotation.
func (t *Tile) SidesWithTrack(rotation int) map[int]bool {
	sides := map[int]bool{}
	for _, tr := range t.Tracks {
		for _, e := range []int{tr.From, tr.To} {
			if IsSide(e) {
				sides[rotate(e, rotation)] = true
			}
		}
	}
	return sides
}

// StationSides returns the rotated hex sides directly connected to the
// given station index.
func (t *Tile) StationSides(station, rotation int) map[int]bool {
	sides := map[int]bool{}
	want := StationEndpoint(station)
	for _, tr := range t.Tracks {
		if tr.From == want && IsSide(tr.To) {
			sides[rotate(tr.To, rotation)] = true
		}
		if tr.To == want && IsSide(tr.From) {
			sides[rotate(tr.From, rotation)] = true
		}
	}
	return sides
}

func rotate(side, rotation int) int {
	return (side + rotation) % 6
}

// PreservesTrack reports whether every side exit of the current placement
// survives on the proposed replacement. Track may be added by an upgrade,
// never removed.
func PreservesTrack(cur *Tile, curRotation int, next *Tile, nextRotation int) bool {
	have := next.SidesWithTrack(nextRotation)
	for side := range cur.SidesWithTrack(curRotation) {
		if !have[side] {
			return false
		}
	}
	return true
}

// TileSet is the tile catalog plus the physical supply of each design.
type TileSet struct {
	tiles  map[int]*Tile
	supply map[int]int // -1 means unlimited
}

func NewTileSet(designs []*Tile, counts map[int]int) *TileSet {
	ts := &TileSet{tiles: map[int]*Tile{}, supply: map[int]int{}}
	for _, t := range designs {
		ts.tiles[t.ID] = t
		if n, ok := counts[t.ID]; ok {
			ts.supply[t.ID] = n
		} else {
			ts.supply[t.ID] = -1
		}
	}
	return ts
}

func (ts *TileSet) Tile(id int) (*Tile, bool) {
	t, ok := ts.tiles[id]
	return t, ok
}

// Remaining reports how many copies of a design are left; -1 is unlimited.
func (ts *TileSet) Remaining(id int) int {
	if _, ok := ts.tiles[id]; !ok {
		return 0
	}
	return ts.supply[id]
}

// Take removes one copy of a design from the supply.
func (ts *TileSet) Take(id int) error {
	n := ts.Remaining(id)
	if _, ok := ts.tiles[id]; !ok {
		return fmt.Errorf("tile #%d: %w", id, ErrUnknownTile)
	}
	if n == 0 {
		return fmt.Errorf("tile #%d: %w", id, ErrNoTilesLeft)
	}
	if n > 0 {
		ts.supply[id] = n - 1
	}
	return nil
}

// Return puts one copy of a design back (the replaced tile on an upgrade).
func (ts *TileSet) Return(id int) {
	if n, ok := ts.supply[id]; ok && n >= 0 {
		ts.supply[id] = n + 1
	}
}

// UpgradesFor returns the available upgrade designs for a tile, filtered
// to the allowed colours.
func (ts *TileSet) UpgradesFor(t *Tile, colours []Colour) []*Tile {
	allowed := map[Colour]bool{}
	for _, c := range colours {
		allowed[c] = true
	}
	var out []*Tile
	for _, id := range t.Upgrades {
		next, ok := ts.tiles[id]
		if !ok || !allowed[next.Colour] || ts.Remaining(id) == 0 {
			continue
		}
		out = append(out, next)
	}
	return out
}
