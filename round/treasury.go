package round

import (
	"fmt"

	"trunkline/action"
	"trunkline/corp"
)

// TreasuryShareRound lets a company trade its own stock against the pool:
// at most one buy and one sell, bounded by the configured maximum
// treasury holding.
type TreasuryShareRound struct {
	base

	company *corp.PublicCompany
	bought  bool
	sold    bool
}

func NewTreasuryShareRound(s *Session, gm *GameManager, c *corp.PublicCompany) *TreasuryShareRound {
	r := &TreasuryShareRound{base: base{s: s, gm: gm}, company: c}
	s.Report.Printf("%s may trade its own shares", c.Name())
	return r
}

// maxTreasuryBuy returns how many pool units the company can absorb.
func (r *TreasuryShareRound) maxTreasuryBuy() int {
	c := r.company
	room := (c.MaxOwnShare - c.Portfolio.UnitsOf(c.ID)*c.ShareUnit) / c.ShareUnit
	pool := r.s.Bank.Pool.UnitsOf(c.ID)
	if pool < room {
		room = pool
	}
	afford := c.Cash() / c.Price.Price
	if afford < room {
		room = afford
	}
	if room < 0 {
		room = 0
	}
	return room
}

// maxTreasurySell returns how many held units the pool can take back.
func (r *TreasuryShareRound) maxTreasurySell() int {
	c := r.company
	held := c.Portfolio.UnitsOf(c.ID)
	poolRoom := (r.s.PoolShareLimit - r.s.PoolPercent(c)) / c.ShareUnit
	if poolRoom < held {
		held = poolRoom
	}
	if held < 0 {
		held = 0
	}
	return held
}

func (r *TreasuryShareRound) SetPossibleActions() *action.Set {
	set := action.NewSet()
	if !r.finished {
		c := r.company
		if !r.bought {
			if units := r.maxTreasuryBuy(); units > 0 {
				set.Add(action.BuyTreasuryShares{CompanyID: c.ID, Units: units})
			}
		}
		if !r.sold {
			if units := r.maxTreasurySell(); units > 0 {
				set.Add(action.SellTreasuryShares{CompanyID: c.ID, Units: units})
			}
		}
		set.Add(action.Done{ActorID: c.ID})
	}
	r.menu = set
	return set
}

func (r *TreasuryShareRound) Process(a action.Action) error {
	if r.finished {
		return r.reject(a, ErrGameOver)
	}
	switch v := a.(type) {
	case action.BuyTreasuryShares:
		return r.processBuy(v)
	case action.SellTreasuryShares:
		return r.processSell(v)
	case action.Done:
		if v.ActorID != r.company.ID {
			return r.reject(a, ErrNotYourTurn)
		}
		r.s.Moves.Begin(a.String())
		r.finished = true
		return nil
	default:
		return r.reject(a, ErrUnexpectedAction)
	}
}

func (r *TreasuryShareRound) processBuy(a action.BuyTreasuryShares) error {
	c := r.company
	if a.CompanyID != c.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if !c.CanHoldOwnShares {
		return r.reject(a, ErrUnexpectedAction)
	}
	if r.bought {
		return r.reject(a, ErrAlreadyBought)
	}
	if a.Units <= 0 || a.Units > r.maxTreasuryBuy() {
		return r.reject(a, fmt.Errorf("%w: at most %d units", ErrHoldLimit, r.maxTreasuryBuy()))
	}

	r.s.Moves.Begin(a.String())
	cost := a.Units * c.Price.Price
	taken := 0
	for _, cert := range r.s.Bank.Pool.CertificatesOf(c.ID) {
		if taken >= a.Units {
			break
		}
		corp.MoveCert(r.s.Moves, cert, c.Portfolio)
		taken += cert.Shares
	}
	r.s.Transfer(c, r.s.Bank, cost)
	r.bought = true
	r.s.Report.Printf("%s buys %d%% of its own stock for %d", c.Name(), a.Units*c.ShareUnit, cost)
	r.maybeFinish()
	return nil
}

func (r *TreasuryShareRound) processSell(a action.SellTreasuryShares) error {
	c := r.company
	if a.CompanyID != c.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if r.sold {
		return r.reject(a, ErrUnexpectedAction)
	}
	if a.Units <= 0 || a.Units > r.maxTreasurySell() {
		return r.reject(a, fmt.Errorf("%w: at most %d units", ErrPoolLimit, r.maxTreasurySell()))
	}

	r.s.Moves.Begin(a.String())
	proceeds := a.Units * c.Price.Price
	moved := 0
	for _, cert := range c.Portfolio.CertificatesOf(c.ID) {
		if moved >= a.Units {
			break
		}
		corp.MoveCert(r.s.Moves, cert, r.s.Bank.Pool)
		moved += cert.Shares
	}
	r.s.Transfer(r.s.Bank, c, proceeds)
	c.MovePrice(r.s.Moves, r.s.Market.Down(c.Price, a.Units))
	r.sold = true
	r.s.Report.Printf("%s sells %d%% of its own stock for %d", c.Name(), a.Units*c.ShareUnit, proceeds)
	r.checkClosure(c)
	r.maybeFinish()
	return nil
}

func (r *TreasuryShareRound) maybeFinish() {
	if r.company.Closed {
		r.finished = true
		return
	}
	if (r.bought || r.maxTreasuryBuy() == 0) && (r.sold || r.maxTreasurySell() == 0) {
		r.finished = true
	}
}
