package round

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"trunkline/board"
	"trunkline/corp"
	"trunkline/market"
	"trunkline/phase"
)

// pars at 82, 90 and 100 on the top row
func testMarket() *market.Market {
	return market.NewFromPrices([][]int{
		{60, 70, 82, 90, 100, 112},
		{50, 60, 70, 82, 90, 100},
		{40, 50, 60, 70, 82, 90},
		{30, 40, 50, 60, 70, 82},
	}, [][2]int{{0, 2}, {0, 3}, {0, 4}})
}

func testTiles() *board.TileSet {
	designs := []*board.Tile{
		{
			ID: 8, Colour: board.Yellow,
			Tracks: []board.Track{{From: 0, To: 3}},
		},
		{
			ID: 57, Colour: board.Yellow,
			Stations: []board.StationDef{{Slots: 1, Value: 20}},
			Tracks: []board.Track{
				{From: 0, To: board.StationEndpoint(0)},
				{From: 3, To: board.StationEndpoint(0)},
			},
			Upgrades: []int{14},
		},
		{
			ID: 14, Colour: board.Green,
			Stations: []board.StationDef{{Slots: 2, Value: 30}},
			Tracks: []board.Track{
				{From: 0, To: board.StationEndpoint(0)},
				{From: 1, To: board.StationEndpoint(0)},
				{From: 3, To: board.StationEndpoint(0)},
				{From: 4, To: board.StationEndpoint(0)},
			},
		},
	}
	return board.NewTileSet(designs, map[int]int{8: 3, 57: 3, 14: 2})
}

// three hexes in a row: the PRR home city, an empty hex, the NYC home city
func testMap(t *testing.T) *board.MapManager {
	t.Helper()
	d10, err := board.NewMapHex("D10")
	require.NoError(t, err)
	d10.Cities = []*board.City{{Number: 1, Slots: 2}}
	d10.AddHomeReservation("PRR", 1)

	e11, err := board.NewMapHex("E11")
	require.NoError(t, err)

	f12, err := board.NewMapHex("F12")
	require.NoError(t, err)
	f12.Cities = []*board.City{{Number: 1, Slots: 2}}
	f12.AddHomeReservation("NYC", 1)

	return board.NewMapManager(testTiles(), []*board.MapHex{d10, e11, f12})
}

func testPhases() []*phase.Phase {
	return []*phase.Phase{
		{
			Name:        "2",
			TileColours: []board.Colour{board.Yellow},
			TileLays:    map[board.Colour]int{board.Yellow: 2},
			TrainLimit:  4,
			NumORs:      1,
		},
		{
			Name:        "3",
			TileColours: []board.Colour{board.Yellow, board.Green},
			TileLays:    map[board.Colour]int{board.Yellow: 2},
			TrainLimit:  4,
			NumORs:      2,
			TriggeredBy: "3",
		},
		{
			Name:           "4",
			TileColours:    []board.Colour{board.Yellow, board.Green},
			TileLays:       map[board.Colour]int{board.Yellow: 2},
			TrainLimit:     2,
			NumORs:         2,
			TriggeredBy:    "4",
			ClosesPrivates: true,
		},
	}
}

// ten-share company with a 20% president certificate and eight singles
func newTestCompany(t *testing.T, bank *corp.Bank, id, name, home string) *corp.PublicCompany {
	t.Helper()
	c := corp.NewPublicCompany(id, name, 10)
	c.TokensTotal = 2
	c.TokenCosts = []int{0, 40}
	c.HomeHex = home
	c.HomeCity = 1

	certs := []*corp.Certificate{
		{ID: id + "-pres", CompanyID: id, Shares: 2, President: true},
	}
	for i := 1; i <= 8; i++ {
		certs = append(certs, &corp.Certificate{ID: fmt.Sprintf("%s-%d", id, i), CompanyID: id, Shares: 1})
	}
	require.NoError(t, c.SetCertificates(certs, bank.IPO))
	return c
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	bank := corp.NewBank(12000)
	players := []*corp.Player{
		corp.NewPlayer("alice", "Alice", 0, 600),
		corp.NewPlayer("bob", "Bob", 1, 600),
		corp.NewPlayer("carol", "Carol", 2, 600),
	}

	prr := newTestCompany(t, bank, "PRR", "Pennsylvania", "D10")
	nyc := newTestCompany(t, bank, "NYC", "New York Central", "F12")

	privates := map[string]*corp.PrivateCompany{
		"SV": {ID: "SV", Name: "Schuylkill Valley", BasePrice: 20, Revenue: 5},
		"CS": {ID: "CS", Name: "Champlain & St.Lawrence", BasePrice: 40, Revenue: 10},
		"BO": {ID: "BO", Name: "Baltimore & Ohio", BasePrice: 110, Revenue: 0},
	}
	for _, p := range privates {
		p.PlaceIn(bank.IPO)
	}

	trains := corp.BuildTrains(bank, []*corp.TrainType{
		{Name: "2", Rank: 2, Cost: 80, Count: 4, RustsOn: "4"},
		{Name: "3", Rank: 3, Cost: 180, Count: 3, TriggersPhase: "3"},
		{Name: "4", Rank: 4, Cost: 300, Count: 2, TriggersPhase: "4"},
	})

	s := &Session{
		Players:      players,
		Bank:         bank,
		Companies:    map[string]*corp.PublicCompany{"PRR": prr, "NYC": nyc},
		CompanyOrder: []string{"PRR", "NYC"},
		Privates:     privates,
		PrivateOrder: []string{"SV", "CS", "BO"},
		Trains:       trains,
		Market:       testMarket(),
		Map:          testMap(t),
		Phases:       phase.NewManager(testPhases()),
	}
	s.Normalise()
	return s
}

// packet: two plain privates plus one bundled with the PRR presidency
func withTestPacket(s *Session) *Session {
	prr := s.Companies["PRR"]
	s.Packet = NewStartPacket(
		&StartItem{Private: s.Privates["SV"], BasePrice: 20},
		&StartItem{Private: s.Privates["CS"], BasePrice: 40},
		&StartItem{Private: s.Privates["BO"], BasePrice: 110, Certificate: prr.PresidentCert()},
	)
	return s
}

// forceStart starts and floats a company outside any round: president at
// 60%, treasury funded with full capitalization.
func forceStart(t *testing.T, s *Session, c *corp.PublicCompany, parPrice int, president *corp.Player) {
	t.Helper()
	sp, err := parSpaceAt(s.Market, parPrice)
	require.NoError(t, err)
	s.Moves.Begin("fixture: start " + c.ID)
	c.Start(s.Moves, sp)
	corp.MoveCert(s.Moves, c.PresidentCert(), president.Portfolio)
	for president.Portfolio.UnitsOf(c.ID) < 6 {
		corp.MoveCert(s.Moves, cheapestCert(s.Bank.IPO, c), president.Portfolio)
	}
	c.Floated = true
	s.Transfer(s.Bank, c, sp.Price*c.NumShares())
}

func giveTrain(t *testing.T, s *Session, c *corp.PublicCompany, rank string) *corp.Train {
	t.Helper()
	for _, tr := range s.Bank.IPO.TrainsOfType(rank) {
		corp.MoveTrain(s.Moves, tr, c.Portfolio)
		return tr
	}
	t.Fatalf("no %s-train left in the bank", rank)
	return nil
}

func giveCerts(t *testing.T, s *Session, c *corp.PublicCompany, p *corp.Player, units int) {
	t.Helper()
	for p.Portfolio.UnitsOf(c.ID) < units {
		cert := cheapestCert(s.Bank.IPO, c)
		require.NotNil(t, cert, "IPO out of certificates")
		corp.MoveCert(s.Moves, cert, p.Portfolio)
	}
}

// drain empties a cash holder into the bank.
func drain(s *Session, h interface {
	Cash() int
	AddCash(int)
	Name() string
}) {
	if h.Cash() > 0 {
		s.Transfer(h, s.Bank, h.Cash())
	}
}

// checkShareInvariant asserts every company's certificates sum to 100%
// and sit in exactly one portfolio.
func checkShareInvariant(t *testing.T, s *Session) {
	t.Helper()
	for _, c := range s.CompaniesInOrder() {
		units := 0
		for _, cert := range c.Certificates() {
			units += cert.Shares
			require.NotNil(t, cert.Holder, "certificate %s has no holder", cert.ID)
			require.True(t, cert.Holder.Contains(cert), "certificate %s not in its holder", cert.ID)
		}
		require.Equal(t, 100, units*c.ShareUnit, "%s shares do not sum to 100%%", c.ID)
	}
}
