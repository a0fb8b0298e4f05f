package board

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrWrongCurrentTile = errors.New("replacement does not match current tile")
	ErrBadCoordinate    = errors.New("malformed hex coordinate")
)

// Reservation marks a hex (and optionally a specific city on it) as the
// home of a company that has not laid its home token yet. CityNumber 0
// means any city on the hex will do.
type Reservation struct {
	CompanyID  string
	CityNumber int
}

// MapHex is one hex of the map. Tile and city state mutates over the game;
// coordinates and side metadata are fixed at setup.
type MapHex struct {
	Name     string
	Row, Col int

	TileID   int
	Rotation int
	Cities   []*City

	// Impassable sides (rivers, map edges drawn as borders).
	Impassable map[int]bool
	// OffBoard hexes hold fixed preprinted tiles and never accept lays.
	OffBoard bool
	// Preprinted marks a fixed tile that cannot be replaced.
	Preprinted bool
	// Cost is the terrain cost of laying a tile here.
	Cost int
	// BlockedForTile marks hexes reserved by an unclosed private company.
	BlockedForTile bool

	homes        []Reservation
	destinations []string
}

// NewMapHex builds a hex from a coordinate such as "E11".
func NewMapHex(name string) (*MapHex, error) {
	row, col, err := ParseCoordinate(name)
	if err != nil {
		return nil, err
	}
	return &MapHex{
		Name:       name,
		Row:        row,
		Col:        col,
		Impassable: map[int]bool{},
	}, nil
}

// ParseCoordinate splits a hex name into its letter row and number column.
func ParseCoordinate(name string) (row, col int, err error) {
	if len(name) < 2 || name[0] < 'A' || name[0] > 'Z' {
		return 0, 0, fmt.Errorf("%q: %w", name, ErrBadCoordinate)
	}
	col, err = strconv.Atoi(name[1:])
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", name, ErrBadCoordinate)
	}
	return int(name[0] - 'A'), col, nil
}

func (h *MapHex) String() string { return h.Name }

// City returns the city with the given number, or nil.
func (h *MapHex) City(number int) *City {
	for _, c := range h.Cities {
		if c.Number == number {
			return c
		}
	}
	return nil
}

// HasTokenOf reports whether the company has a base token anywhere on the
// hex. A company holds at most one token per hex.
func (h *MapHex) HasTokenOf(companyID string) bool {
	for _, c := range h.Cities {
		if c.HasToken(companyID) {
			return true
		}
	}
	return false
}

func (h *MapHex) AddHomeReservation(companyID string, cityNumber int) {
	h.homes = append(h.homes, Reservation{CompanyID: companyID, CityNumber: cityNumber})
}

// ReleaseHomeReservation drops a company's reservation once its home token
// is laid.
func (h *MapHex) ReleaseHomeReservation(companyID string) bool {
	for i, r := range h.homes {
		if r.CompanyID == companyID {
			h.homes = append(h.homes[:i], h.homes[i+1:]...)
			return true
		}
	}
	return false
}

func (h *MapHex) HomeReservation(companyID string) (Reservation, bool) {
	for _, r := range h.homes {
		if r.CompanyID == companyID {
			return r, true
		}
	}
	return Reservation{}, false
}

func (h *MapHex) HomeReservations() []Reservation {
	return append([]Reservation(nil), h.homes...)
}

func (h *MapHex) AddDestination(companyID string) {
	h.destinations = append(h.destinations, companyID)
}

func (h *MapHex) IsDestinationOf(companyID string) bool {
	for _, id := range h.destinations {
		if id == companyID {
			return true
		}
	}
	return false
}

// BlockedForTokenLays implements the home reservation rule: a company
// laying on its own reserved home hex is never blocked; any other lay is
// blocked if taking one more slot could leave an outstanding home
// reservation without a slot to go to.
func (h *MapHex) BlockedForTokenLays(companyID string, cityNumber int) bool {
	if _, ok := h.HomeReservation(companyID); ok {
		return false
	}
	city := h.City(cityNumber)
	if city == nil || !city.HasFreeSlot() {
		return true
	}

	// Slots promised to other companies in this specific city, and
	// anywhere on the hex.
	cityReserved, foreign := 0, 0
	for _, r := range h.homes {
		if r.CompanyID == companyID {
			continue
		}
		foreign++
		if r.CityNumber == cityNumber {
			cityReserved++
		}
	}
	if city.FreeSlots()-cityReserved < 1 {
		return true
	}

	totalFree := 0
	for _, c := range h.Cities {
		totalFree += c.FreeSlots()
	}
	return totalFree-foreign < 1
}

// hexState is the mutable-by-upgrade portion of a MapHex, captured so that
// a recorded move can restore it on undo.
type hexState struct {
	TileID   int
	Rotation int
	Cities   []*City
}

// SnapshotTileState captures the current tile, rotation and cities.
func (h *MapHex) SnapshotTileState() interface{} {
	st := hexState{TileID: h.TileID, Rotation: h.Rotation}
	for _, c := range h.Cities {
		st.Cities = append(st.Cities, c.copy())
	}
	return st
}

// RestoreTileState reinstates a snapshot taken with SnapshotTileState.
func (h *MapHex) RestoreTileState(snapshot interface{}) {
	st := snapshot.(hexState)
	h.TileID = st.TileID
	h.Rotation = st.Rotation
	h.Cities = nil
	for _, c := range st.Cities {
		h.Cities = append(h.Cities, c.copy())
	}
}

// Upgrade replaces the current tile with next at the given rotation.
//
// When the station count is unchanged, existing cities are re-mapped to
// the new tile's stations by matching track endpoints, falling back to
// first-available. When the count changes, cities are rebuilt and tokens
// migrated by tracing old connectivity into the new stations; tokens that
// end up duplicated in a merged city are discarded and reported in the
// returned notes. relaid overrides the tracing for specific companies.
func (h *MapHex) Upgrade(cur, next *Tile, rotation int, relaid map[string]int) ([]string, error) {
	if cur == nil || cur.ID != h.TileID {
		return nil, fmt.Errorf("hex %s has tile #%d: %w", h.Name, h.TileID, ErrWrongCurrentTile)
	}

	var notes []string
	if len(next.Stations) == len(h.Cities) && len(h.Cities) > 0 {
		h.remapCities(cur, next, rotation)
	} else {
		notes = h.rebuildCities(cur, next, rotation, relaid)
	}

	h.TileID = next.ID
	h.Rotation = rotation
	return notes, nil
}

// LayInitial places the first tile on a hex with no tile. Any tokens on
// preconfigured cities carry over by position.
func (h *MapHex) LayInitial(next *Tile, rotation int) error {
	if h.TileID != 0 {
		return fmt.Errorf("hex %s has tile #%d: %w", h.Name, h.TileID, ErrWrongCurrentTile)
	}
	laid := make([]*City, len(next.Stations))
	for si, st := range next.Stations {
		laid[si] = &City{Number: si + 1, Slots: st.Slots, Value: st.Value}
	}
	for i, city := range h.Cities {
		target := 0
		if i < len(laid) {
			target = i
		}
		for _, companyID := range city.Tokens {
			if len(laid) > 0 && !laid[target].HasToken(companyID) {
				laid[target].AddToken(companyID)
			}
		}
	}
	h.Cities = laid
	h.TileID = next.ID
	h.Rotation = rotation
	return nil
}

func (h *MapHex) remapCities(cur, next *Tile, rotation int) {
	assigned := make([]bool, len(next.Stations))
	target := make([]int, len(h.Cities))
	for i := range target {
		target[i] = -1
	}

	// geometric match first
	for ci, city := range h.Cities {
		oldSides := cur.StationSides(city.Number-1, h.Rotation)
		for si := range next.Stations {
			if assigned[si] {
				continue
			}
			if intersects(oldSides, next.StationSides(si, rotation)) {
				target[ci] = si
				assigned[si] = true
				break
			}
		}
	}
	// fall back to first available
	for ci := range h.Cities {
		if target[ci] != -1 {
			continue
		}
		for si := range next.Stations {
			if !assigned[si] {
				target[ci] = si
				assigned[si] = true
				break
			}
		}
	}

	for ci, city := range h.Cities {
		si := target[ci]
		city.Number = si + 1
		city.Slots = next.Stations[si].Slots
		city.Value = next.Stations[si].Value
	}
	sort.Slice(h.Cities, func(i, j int) bool { return h.Cities[i].Number < h.Cities[j].Number })
}

func (h *MapHex) rebuildCities(cur, next *Tile, rotation int, relaid map[string]int) []string {
	var notes []string

	rebuilt := make([]*City, len(next.Stations))
	for si, st := range next.Stations {
		rebuilt[si] = &City{Number: si + 1, Slots: st.Slots, Value: st.Value}
	}

	for _, city := range h.Cities {
		for _, companyID := range city.Tokens {
			si := -1
			if n, ok := relaid[companyID]; ok && n >= 1 && n <= len(rebuilt) {
				si = n - 1
			}
			if si == -1 {
				oldSides := cur.StationSides(city.Number-1, h.Rotation)
				for i := range next.Stations {
					if intersects(oldSides, next.StationSides(i, rotation)) {
						si = i
						break
					}
				}
			}
			if si == -1 && len(rebuilt) > 0 {
				si = 0 // merged into the surviving city
			}
			if si == -1 {
				notes = append(notes, fmt.Sprintf("token of %s on %s had no station to move to", companyID, h.Name))
				continue
			}
			if rebuilt[si].HasToken(companyID) {
				notes = append(notes, fmt.Sprintf("duplicate token of %s on %s discarded", companyID, h.Name))
				continue
			}
			rebuilt[si].AddToken(companyID)
		}
	}

	h.Cities = rebuilt
	return notes
}

func intersects(a, b map[int]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}
