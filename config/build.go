package config

import (
	"fmt"

	"trunkline/board"
	"trunkline/corp"
	"trunkline/market"
	"trunkline/phase"
	"trunkline/round"
)

// Seat is one player joining the game, in seating order.
type Seat struct {
	ID   string
	Name string
}

// Build assembles a playable session from the definition and the seated
// players.
func (def *Definition) Build(seats []Seat) (*round.Session, error) {
	cash, ok := def.StartingCash[len(seats)]
	if !ok {
		return nil, fmt.Errorf("%s: no starting cash for %d players", def.Title, len(seats))
	}

	bank := corp.NewBank(def.BankCash)

	players := make([]*corp.Player, 0, len(seats))
	for i, seat := range seats {
		players = append(players, corp.NewPlayer(seat.ID, seat.Name, i, cash))
	}

	companies := map[string]*corp.PublicCompany{}
	companyOrder := make([]string, 0, len(def.Companies))
	for _, cd := range def.Companies {
		c, err := buildCompany(cd, bank)
		if err != nil {
			return nil, err
		}
		companies[c.ID] = c
		companyOrder = append(companyOrder, c.ID)
	}

	privates := map[string]*corp.PrivateCompany{}
	privateOrder := make([]string, 0, len(def.Privates))
	for _, pd := range def.Privates {
		p := &corp.PrivateCompany{
			ID:                pd.ID,
			Name:              pd.Name,
			BasePrice:         pd.Price,
			Revenue:           pd.Revenue,
			ClosesInPhase:     pd.ClosesInPhase,
			BlocksHex:         pd.BlocksHex,
			ExtraTileLayHexes: pd.ExtraTileLayHexes,
		}
		p.PlaceIn(bank.IPO)
		privates[p.ID] = p
		privateOrder = append(privateOrder, p.ID)
	}

	gameMap, err := def.buildMap(privates)
	if err != nil {
		return nil, err
	}

	phases, err := def.buildPhases()
	if err != nil {
		return nil, err
	}

	s := &round.Session{
		Players:           players,
		Bank:              bank,
		Companies:         companies,
		CompanyOrder:      companyOrder,
		Privates:          privates,
		PrivateOrder:      privateOrder,
		Trains:            corp.BuildTrains(bank, def.buildTrainTypes()),
		Market:            def.buildMarket(),
		Map:               gameMap,
		Phases:            phase.NewManager(phases),
		CertLimit:         def.CertLimit,
		PoolShareLimit:    def.PoolShareLimit,
		MaxPlayerShare:    def.MaxPlayerShare,
		SequenceRule:      round.SequenceRule(def.SequenceRule),
		DividendThreshold: def.DividendThreshold,
	}

	if len(def.StartPacket) > 0 {
		packet, err := def.buildPacket(s)
		if err != nil {
			return nil, err
		}
		s.Packet = packet
	}

	s.Normalise()
	return s, nil
}

func buildCompany(cd CompanyDef, bank *corp.Bank) (*corp.PublicCompany, error) {
	unit := cd.ShareUnit
	if unit == 0 {
		unit = 10
	}
	if unit <= 0 || 100%unit != 0 {
		return nil, fmt.Errorf("company %s: share unit %d does not divide 100", cd.ID, unit)
	}

	c := corp.NewPublicCompany(cd.ID, cd.Name, unit)
	if cd.FloatPercent > 0 {
		c.FloatPercent = cd.FloatPercent
	}
	if cd.TokensTotal > 0 {
		c.TokensTotal = cd.TokensTotal
	}
	if len(cd.TokenCosts) > 0 {
		c.TokenCosts = cd.TokenCosts
	}
	c.HomeHex = cd.HomeHex
	c.HomeCity = cd.HomeCity
	c.MaxLoans = cd.MaxLoans
	c.LoanValue = cd.LoanValue
	c.CanHoldOwnShares = cd.CanHoldOwnShares
	if cd.MaxOwnShare > 0 {
		c.MaxOwnShare = cd.MaxOwnShare
	}
	c.ForcedAllocation = cd.ForcedAllocation
	c.PoolPaysToCompany = cd.PoolPaysToCompany
	c.ExtraTileLays = cd.ExtraTileLays

	// standard certificate split: a double-unit president certificate and
	// single-unit commons for the rest
	numShares := 100 / unit
	certs := []*corp.Certificate{
		{ID: cd.ID + "-pres", CompanyID: cd.ID, Shares: 2, President: true},
	}
	for i := 1; i <= numShares-2; i++ {
		certs = append(certs, &corp.Certificate{
			ID: fmt.Sprintf("%s-%d", cd.ID, i), CompanyID: cd.ID, Shares: 1,
		})
	}
	if err := c.SetCertificates(certs, bank.IPO); err != nil {
		return nil, fmt.Errorf("company %s: %w", cd.ID, err)
	}
	return c, nil
}

func (def *Definition) buildMarket() *market.Market {
	slots := make([][2]int, 0, len(def.Market.ParSlots))
	for _, rc := range def.Market.ParSlots {
		if len(rc) == 2 {
			slots = append(slots, [2]int{rc[0], rc[1]})
		}
	}
	return market.NewFromPrices(def.Market.Prices, slots)
}

func (def *Definition) buildTiles() *board.TileSet {
	designs := make([]*board.Tile, 0, len(def.Tiles))
	counts := map[int]int{}
	for _, td := range def.Tiles {
		tile := &board.Tile{
			ID:       td.ID,
			Colour:   td.Colour,
			Upgrades: td.Upgrades,
		}
		for _, sd := range td.Stations {
			tile.Stations = append(tile.Stations, board.StationDef{Slots: sd.Slots, Value: sd.Value})
		}
		for _, tr := range td.Tracks {
			tile.Tracks = append(tile.Tracks, board.Track{From: int(tr.From), To: int(tr.To)})
		}
		designs = append(designs, tile)
		if td.Count > 0 {
			counts[td.ID] = td.Count
		}
	}
	return board.NewTileSet(designs, counts)
}

func (def *Definition) buildMap(privates map[string]*corp.PrivateCompany) (*board.MapManager, error) {
	hexes := make([]*board.MapHex, 0, len(def.Hexes))
	for _, hd := range def.Hexes {
		hex, err := board.NewMapHex(hd.Name)
		if err != nil {
			return nil, fmt.Errorf("hex %s: %w", hd.Name, err)
		}
		hex.Cost = hd.Cost
		hex.OffBoard = hd.OffBoard
		hex.Preprinted = hd.Preprinted
		for _, side := range hd.Impassable {
			hex.Impassable[side] = true
		}
		for _, cd := range hd.Cities {
			hex.Cities = append(hex.Cities, &board.City{
				Number: cd.Number, Slots: cd.Slots, Value: cd.Value,
			})
		}
		for _, home := range hd.Homes {
			hex.AddHomeReservation(home.Company, home.City)
		}
		for _, p := range privates {
			if p.BlocksHex == hex.Name {
				hex.BlockedForTile = true
			}
		}
		hexes = append(hexes, hex)
	}
	return board.NewMapManager(def.buildTiles(), hexes), nil
}

func (def *Definition) buildTrainTypes() []*corp.TrainType {
	types := make([]*corp.TrainType, 0, len(def.Trains))
	for _, td := range def.Trains {
		types = append(types, &corp.TrainType{
			Name:          td.Name,
			Rank:          td.Rank,
			Cost:          td.Cost,
			Count:         td.Count,
			RustsOn:       td.RustsOn,
			TriggersPhase: td.TriggersPhase,
		})
	}
	return types
}

func (def *Definition) buildPhases() ([]*phase.Phase, error) {
	phases := make([]*phase.Phase, 0, len(def.Phases))
	for _, pd := range def.Phases {
		p := &phase.Phase{
			Name:           pd.Name,
			TileColours:    pd.TileColours,
			TileLays:       map[board.Colour]int{},
			TrainLimit:     pd.TrainLimit,
			NumORs:         pd.NumORs,
			OffBoardStep:   pd.OffBoardStep,
			ClosesPrivates: pd.ClosesPrivates,
			TriggeredBy:    pd.TriggeredBy,
		}
		for colour, n := range pd.TileLays {
			p.TileLays[board.Colour(colour)] = n
		}
		phases = append(phases, p)
	}
	if len(phases) == 0 {
		return nil, fmt.Errorf("%s: no phases defined", def.Title)
	}
	return phases, nil
}

func (def *Definition) buildPacket(s *round.Session) (*round.StartPacket, error) {
	items := make([]*round.StartItem, 0, len(def.StartPacket))
	for _, id := range def.StartPacket {
		p, ok := s.Privates[id.Private]
		if !ok {
			return nil, fmt.Errorf("start packet names unknown private %q", id.Private)
		}
		item := &round.StartItem{Private: p, BasePrice: id.Price}
		if id.Certificate != "" {
			c, ok := s.Companies[id.Certificate]
			if !ok {
				return nil, fmt.Errorf("start packet names unknown company %q", id.Certificate)
			}
			item.Certificate = c.PresidentCert()
		}
		items = append(items, item)
	}
	return round.NewStartPacket(items...), nil
}
