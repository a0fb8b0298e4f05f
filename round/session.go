package round

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"trunkline/board"
	"trunkline/corp"
	"trunkline/market"
	"trunkline/moves"
	"trunkline/phase"
)

var (
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrUnknownCompany = errors.New("unknown company")
	ErrUnknownTrain   = errors.New("unknown train")
	ErrUnknownHex     = errors.New("unknown hex")
)

// SequenceRule is the stock round buy/sell ordering rule.
type SequenceRule string

const (
	SellBuySell      SequenceRule = "sell_buy_sell"
	SellBuy          SequenceRule = "sell_buy"
	SellBuyOrBuySell SequenceRule = "sell_buy_or_buy_sell"
)

// Session is the game-session context passed to every round: the players,
// bank, companies, market, map and the recorded move stack. It replaces
// any notion of process-wide game state; everything a round touches hangs
// off its session.
type Session struct {
	Players []*corp.Player
	Bank    *corp.Bank

	Companies    map[string]*corp.PublicCompany
	CompanyOrder []string
	Privates     map[string]*corp.PrivateCompany
	PrivateOrder []string
	Trains       map[string]*corp.Train

	Market *market.Market
	Map    *board.MapManager
	Phases *phase.Manager
	Packet *StartPacket

	Moves  *moves.Stack
	Report *Report
	Log    *zap.Logger

	// PriorityIndex is the player who leads the next stock round.
	PriorityIndex int

	CertLimit      int
	PoolShareLimit int // percent of one company the pool may hold
	MaxPlayerShare int // percent of one company a player may hold
	SequenceRule   SequenceRule
	// DividendThreshold is the per-share dividend at which the market
	// token moves right.
	DividendThreshold int
}

// Normalise fills zero-valued limits with the standard rules and attaches
// a no-op logger if none was configured.
func (s *Session) Normalise() {
	if s.Moves == nil {
		s.Moves = moves.NewStack()
	}
	if s.Report == nil {
		s.Report = NewReport()
	}
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.PoolShareLimit == 0 {
		s.PoolShareLimit = 50
	}
	if s.MaxPlayerShare == 0 {
		s.MaxPlayerShare = 60
	}
	if s.CertLimit == 0 {
		s.CertLimit = certLimitFor(len(s.Players))
	}
	if s.SequenceRule == "" {
		s.SequenceRule = SellBuySell
	}
	if s.DividendThreshold == 0 {
		s.DividendThreshold = 1
	}
}

// standard 1830 certificate limits by player count
func certLimitFor(players int) int {
	switch {
	case players <= 2:
		return 28
	case players == 3:
		return 20
	case players == 4:
		return 16
	case players == 5:
		return 13
	default:
		return 11
	}
}

func (s *Session) NumPlayers() int { return len(s.Players) }

func (s *Session) Player(id string) (*corp.Player, error) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", id, ErrUnknownPlayer)
}

func (s *Session) PlayerByIndex(i int) *corp.Player {
	return s.Players[((i%len(s.Players))+len(s.Players))%len(s.Players)]
}

func (s *Session) Company(id string) (*corp.PublicCompany, error) {
	if c, ok := s.Companies[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%q: %w", id, ErrUnknownCompany)
}

// CompaniesInOrder returns the public companies in configuration order.
func (s *Session) CompaniesInOrder() []*corp.PublicCompany {
	out := make([]*corp.PublicCompany, 0, len(s.CompanyOrder))
	for _, id := range s.CompanyOrder {
		out = append(out, s.Companies[id])
	}
	return out
}

func (s *Session) PrivatesInOrder() []*corp.PrivateCompany {
	out := make([]*corp.PrivateCompany, 0, len(s.PrivateOrder))
	for _, id := range s.PrivateOrder {
		out = append(out, s.Privates[id])
	}
	return out
}

func (s *Session) Train(id string) (*corp.Train, error) {
	if t, ok := s.Trains[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%q: %w", id, ErrUnknownTrain)
}

func (s *Session) Hex(name string) (*board.MapHex, error) {
	if h, ok := s.Map.Hex(name); ok {
		return h, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownHex)
}

// Transfer records a cash movement on the open move turn.
func (s *Session) Transfer(from, to moves.CashHolder, amount int) {
	if amount == 0 {
		return
	}
	s.Moves.Add(&moves.Cash{From: from, To: to, Amount: amount})
}

// HolderFor resolves a portfolio to the cash holder behind it: the owning
// player, the owning company's treasury, or the bank.
func (s *Session) HolderFor(p *corp.Portfolio) moves.CashHolder {
	switch p.OwnerKind {
	case corp.PlayerOwner:
		if pl, err := s.Player(p.OwnerID); err == nil {
			return pl
		}
	case corp.CompanyOwner:
		if c, ok := s.Companies[p.OwnerID]; ok {
			return c
		}
	}
	return s.Bank
}

// PoolPercent is the share of a company currently in the open market pool.
func (s *Session) PoolPercent(c *corp.PublicCompany) int {
	return s.Bank.Pool.UnitsOf(c.ID) * c.ShareUnit
}

// OperatingOrder returns the floated, unclosed companies in operating
// order: highest share price first, then configuration order.
func (s *Session) OperatingOrder() []*corp.PublicCompany {
	var out []*corp.PublicCompany
	pos := map[string]int{}
	for i, id := range s.CompanyOrder {
		pos[id] = i
	}
	for _, c := range s.CompaniesInOrder() {
		if c.Floated && !c.Closed {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := 0, 0
		if out[i].Price != nil {
			pi = out[i].Price.Price
		}
		if out[j].Price != nil {
			pj = out[j].Price.Price
		}
		if pi != pj {
			return pi > pj
		}
		return pos[out[i].ID] < pos[out[j].ID]
	})
	return out
}

// CertCount is the number of certificates a player holds against the
// certificate limit. Certificates of companies priced in the no-limit
// zone are exempt.
func (s *Session) CertCount(p *corp.Player) int {
	n := 0
	for _, cert := range p.Portfolio.Certificates() {
		c, ok := s.Companies[cert.CompanyID]
		if ok && c.Price != nil && c.Price.NoHoldLimit {
			continue
		}
		n++
	}
	n += len(p.Portfolio.Privates())
	return n
}

// PlayerWorth is a player's final score: cash plus share value plus the
// base price of held privates.
func (s *Session) PlayerWorth(p *corp.Player) int {
	worth := p.Cash()
	for _, cert := range p.Portfolio.Certificates() {
		c, ok := s.Companies[cert.CompanyID]
		if !ok || c.Price == nil {
			continue
		}
		worth += cert.Shares * c.Price.Price
	}
	for _, pc := range p.Portfolio.Privates() {
		if !pc.Closed {
			worth += pc.BasePrice
		}
	}
	return worth
}
