package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	utils "trunkline/internal"
)

// a small catalog: a yellow single-city tile, its green upgrade, a yellow
// double-city tile and the brown tile that merges the two cities.
func testTiles() *TileSet {
	designs := []*Tile{
		{
			ID: 57, Colour: Yellow,
			Stations: []StationDef{{Slots: 1, Value: 20}},
			Tracks:   []Track{{0, StationEndpoint(0)}, {3, StationEndpoint(0)}},
			Upgrades: []int{14},
		},
		{
			ID: 14, Colour: Green,
			Stations: []StationDef{{Slots: 2, Value: 30}},
			Tracks: []Track{
				{0, StationEndpoint(0)}, {1, StationEndpoint(0)},
				{3, StationEndpoint(0)}, {4, StationEndpoint(0)},
			},
			Upgrades: []int{},
		},
		{
			ID: 1, Colour: Yellow,
			Stations: []StationDef{{Slots: 1, Value: 20}, {Slots: 1, Value: 20}},
			Tracks: []Track{
				{0, StationEndpoint(0)}, {3, StationEndpoint(0)},
				{1, StationEndpoint(1)}, {4, StationEndpoint(1)},
			},
			Upgrades: []int{42},
		},
		{
			ID: 42, Colour: Brown,
			Stations: []StationDef{{Slots: 2, Value: 40}},
			Tracks: []Track{
				{0, StationEndpoint(0)}, {1, StationEndpoint(0)},
				{3, StationEndpoint(0)}, {4, StationEndpoint(0)},
			},
		},
	}
	return NewTileSet(designs, map[int]int{57: 2, 14: 1, 1: 1, 42: 1})
}

func cityHex(t *testing.T, name string, tileID int, cities ...*City) *MapHex {
	t.Helper()
	h, err := NewMapHex(name)
	require.NoError(t, err)
	h.TileID = tileID
	h.Cities = cities
	return h
}

func TestParseCoordinate(t *testing.T) {
	row, col, err := ParseCoordinate("E11")
	utils.AssertNoError(t, err)
	utils.AssertEqual(t, row, 4)
	utils.AssertEqual(t, col, 11)

	for _, bad := range []string{"", "11", "e11", "Exx"} {
		_, _, err := ParseCoordinate(bad)
		utils.AssertErrorIs(t, err, ErrBadCoordinate)
	}
}

func TestUpgrade(t *testing.T) {
	tiles := testTiles()

	t.Run("same station count keeps tokens on the re-mapped city", func(t *testing.T) {
		t.Log("Given a yellow city with a PRR token")
		h := cityHex(t, "E11", 57, &City{Number: 1, Slots: 1, Value: 20, Tokens: []string{"PRR"}})

		cur, _ := tiles.Tile(57)
		next, _ := tiles.Tile(14)

		t.Log("When the green upgrade is laid")
		notes, err := h.Upgrade(cur, next, 0, nil)
		utils.AssertNoError(t, err)
		utils.AssertEqual(t, len(notes), 0)

		utils.AssertEqual(t, h.TileID, 14)
		require.Len(t, h.Cities, 1)
		assert.Equal(t, []string{"PRR"}, h.Cities[0].Tokens)
		assert.Equal(t, 2, h.Cities[0].Slots)
		assert.Equal(t, 30, h.Cities[0].Value)
	})

	t.Run("wrong current tile is rejected", func(t *testing.T) {
		h := cityHex(t, "E11", 57, &City{Number: 1, Slots: 1})
		wrong, _ := tiles.Tile(14)
		next, _ := tiles.Tile(57)

		_, err := h.Upgrade(wrong, next, 0, nil)
		utils.AssertErrorIs(t, err, ErrWrongCurrentTile)
	})

	t.Run("merging cities keeps one token per company", func(t *testing.T) {
		t.Log("Given a double city with B&O in both stations and NYC in one")
		h := cityHex(t, "G7", 1,
			&City{Number: 1, Slots: 1, Tokens: []string{"B&O"}},
			&City{Number: 2, Slots: 1, Tokens: []string{"B&O", "NYC"}},
		)

		cur, _ := tiles.Tile(1)
		next, _ := tiles.Tile(42)

		t.Log("When the brown merge tile is laid")
		notes, err := h.Upgrade(cur, next, 0, nil)
		utils.AssertNoError(t, err)

		t.Log("Then the duplicate token is discarded and reported")
		require.Len(t, h.Cities, 1)
		assert.ElementsMatch(t, []string{"B&O", "NYC"}, h.Cities[0].Tokens)
		require.Len(t, notes, 1)
		assert.Contains(t, notes[0], "duplicate")
	})

	t.Run("snapshot and restore round-trips token assignments", func(t *testing.T) {
		h := cityHex(t, "E11", 57, &City{Number: 1, Slots: 1, Tokens: []string{"PRR"}})
		before := h.SnapshotTileState()

		cur, _ := tiles.Tile(57)
		next, _ := tiles.Tile(14)
		_, err := h.Upgrade(cur, next, 0, nil)
		utils.AssertNoError(t, err)

		h.RestoreTileState(before)
		utils.AssertEqual(t, h.TileID, 57)
		require.Len(t, h.Cities, 1)
		assert.Equal(t, []string{"PRR"}, h.Cities[0].Tokens)
		assert.Equal(t, 1, h.Cities[0].Slots)
	})
}

func TestBlockedForTokenLays(t *testing.T) {
	t.Run("home company is never blocked on its own hex", func(t *testing.T) {
		h := cityHex(t, "E11", 57, &City{Number: 1, Slots: 1})
		h.AddHomeReservation("NYC", 1)

		utils.AssertEqual(t, h.BlockedForTokenLays("NYC", 1), false)
	})

	t.Run("a foreign reservation holds the last slot", func(t *testing.T) {
		t.Log("Given a single-slot city reserved as NYC's home")
		h := cityHex(t, "E11", 57, &City{Number: 1, Slots: 1})
		h.AddHomeReservation("NYC", 1)

		t.Log("Then another company may not take the slot")
		utils.AssertTrue(t, h.BlockedForTokenLays("PRR", 1))

		t.Log("And once the reservation is released the lay is allowed")
		h.ReleaseHomeReservation("NYC")
		utils.AssertEqual(t, h.BlockedForTokenLays("PRR", 1), false)
	})

	t.Run("an anywhere-on-hex reservation blocks only the last free slot", func(t *testing.T) {
		h := cityHex(t, "G7", 1,
			&City{Number: 1, Slots: 1},
			&City{Number: 2, Slots: 1},
		)
		h.AddHomeReservation("ERIE", 0)

		t.Log("Two free slots, one floating reservation: a lay is allowed")
		utils.AssertEqual(t, h.BlockedForTokenLays("PRR", 1), false)

		t.Log("After it, the remaining slot is held for the reservation")
		h.City(1).AddToken("PRR")
		utils.AssertTrue(t, h.BlockedForTokenLays("NYC", 2))
	})

	t.Run("a full city blocks regardless of reservations", func(t *testing.T) {
		h := cityHex(t, "E11", 57, &City{Number: 1, Slots: 1, Tokens: []string{"PRR"}})
		utils.AssertTrue(t, h.BlockedForTokenLays("NYC", 1))
	})
}
