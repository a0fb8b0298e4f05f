package round

import (
	"fmt"

	"trunkline/action"
	"trunkline/corp"
	"trunkline/moves"
)

// StockRound rotates through the players, each turn allowing share sales
// and at most one purchase, ordered by the session's sequence rule. The
// round ends once every player passes in succession.
type StockRound struct {
	base

	turn   int
	passes int

	// per-turn state, reset when the turn advances
	acted         bool
	bought        bool
	soldBeforeBuy bool
	lastToAct     int
	anybodyActed  bool
}

func NewStockRound(s *Session, gm *GameManager) *StockRound {
	r := &StockRound{base: base{s: s, gm: gm}, turn: s.PriorityIndex}
	r.skipBankrupt()
	s.Report.Printf("stock round begins; %s has priority", r.current().Name())
	return r
}

func (r *StockRound) current() *corp.Player { return r.s.PlayerByIndex(r.turn) }

func (r *StockRound) skipBankrupt() {
	for i := 0; i < r.s.NumPlayers() && r.current().Bankrupt; i++ {
		r.turn = r.s.PlayerByIndex(r.turn + 1).Index
	}
}

func (r *StockRound) sellAllowed() bool {
	switch r.s.SequenceRule {
	case SellBuy:
		return !r.bought
	case SellBuyOrBuySell:
		return !(r.bought && r.soldBeforeBuy)
	default: // SellBuySell
		return true
	}
}

// mayGainCert reports whether the player may take one more certificate of
// the company without breaking the certificate or holding limits.
func (r *StockRound) mayGainCert(p *corp.Player, c *corp.PublicCompany, cert *corp.Certificate) error {
	exempt := c.Price != nil && c.Price.NoHoldLimit
	if exempt {
		return nil
	}
	if r.s.CertCount(p) >= r.s.CertLimit {
		return ErrCertLimit
	}
	if (p.Portfolio.UnitsOf(c.ID)+cert.Shares)*c.ShareUnit > r.s.MaxPlayerShare {
		return ErrHoldLimit
	}
	return nil
}

func (r *StockRound) SetPossibleActions() *action.Set {
	set := action.NewSet()
	if r.finished {
		r.menu = set
		return set
	}
	p := r.current()

	if r.sellAllowed() {
		for _, c := range r.s.CompaniesInOrder() {
			if units, _ := r.maxSellable(p, c); units > 0 {
				set.Add(action.SellShares{PlayerID: p.ID, CompanyID: c.ID, Units: units})
			}
		}
	}

	if !r.bought {
		for _, c := range r.s.CompaniesInOrder() {
			if c.Closed {
				continue
			}
			if !c.Started {
				pres := c.PresidentCert()
				if pres == nil || pres.Holder != r.s.Bank.IPO {
					continue
				}
				for _, sp := range r.s.Market.ParSpaces() {
					cost := pres.Shares * sp.Price
					if p.FreeCash() >= cost && r.mayGainCert(p, c, pres) == nil {
						set.Add(action.StartCompany{PlayerID: p.ID, CompanyID: c.ID, Price: sp.Price})
					}
				}
				continue
			}
			if cert := cheapestCert(r.s.Bank.IPO, c); cert != nil {
				cost := cert.Shares * c.Par.Price
				if p.FreeCash() >= cost && r.mayGainCert(p, c, cert) == nil {
					set.Add(action.BuyCertificate{PlayerID: p.ID, CompanyID: c.ID, Source: action.FromIPO})
				}
			}
			if cert := cheapestCert(r.s.Bank.Pool, c); cert != nil {
				cost := cert.Shares * c.Price.Price
				if p.FreeCash() >= cost && r.mayGainCert(p, c, cert) == nil {
					set.Add(action.BuyCertificate{PlayerID: p.ID, CompanyID: c.ID, Source: action.FromPool})
				}
			}
		}
	}

	set.Add(action.Pass{ActorID: p.ID})
	if r.acted {
		set.Add(action.Done{ActorID: p.ID})
	}
	r.menu = set
	return set
}

// cheapestCert picks a non-president certificate of the company out of
// the portfolio, smallest first.
func cheapestCert(from *corp.Portfolio, c *corp.PublicCompany) *corp.Certificate {
	var best *corp.Certificate
	for _, cert := range from.CertificatesOf(c.ID) {
		if cert.President {
			continue
		}
		if best == nil || cert.Shares < best.Shares {
			best = cert
		}
	}
	return best
}

func (r *StockRound) Process(a action.Action) error {
	if r.finished {
		return r.reject(a, ErrGameOver)
	}
	switch v := a.(type) {
	case action.StartCompany:
		return r.processStart(v)
	case action.BuyCertificate:
		return r.processBuy(v)
	case action.SellShares:
		return r.processSell(v)
	case action.Pass:
		return r.processPass(v.ActorID)
	case action.Done:
		return r.processPass(v.ActorID)
	default:
		return r.reject(a, ErrUnexpectedAction)
	}
}

func (r *StockRound) processStart(a action.StartCompany) error {
	p := r.current()
	if a.PlayerID != p.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if r.bought {
		return r.reject(a, ErrAlreadyBought)
	}
	c, err := r.s.Company(a.CompanyID)
	if err != nil {
		return r.reject(a, err)
	}
	if c.Started {
		return r.reject(a, ErrCompanyStarted)
	}
	if c.Closed {
		return r.reject(a, ErrCompanyClosed)
	}
	space, err := parSpaceAt(r.s.Market, a.Price)
	if err != nil {
		return r.reject(a, err)
	}
	pres := c.PresidentCert()
	if pres == nil || pres.Holder != r.s.Bank.IPO {
		return r.reject(a, ErrNoSuchCert)
	}
	cost := pres.Shares * space.Price
	if p.FreeCash() < cost {
		return r.reject(a, ErrNotEnoughMoney)
	}
	if err := r.mayGainCert(p, c, pres); err != nil {
		return r.reject(a, err)
	}

	r.s.Moves.Begin(a.String())
	c.Start(r.s.Moves, space)
	corp.MoveCert(r.s.Moves, pres, p.Portfolio)
	r.s.Transfer(p, r.s.Bank, cost)
	r.s.Report.Printf("%s starts %s at %d and becomes president", p.Name(), c.Name(), space.Price)
	r.afterBuy(p, c)
	return nil
}

func (r *StockRound) processBuy(a action.BuyCertificate) error {
	p := r.current()
	if a.PlayerID != p.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if r.bought {
		return r.reject(a, ErrAlreadyBought)
	}
	c, err := r.s.Company(a.CompanyID)
	if err != nil {
		return r.reject(a, err)
	}
	if !c.Started || c.Closed {
		return r.reject(a, ErrNoSuchCert)
	}

	var from *corp.Portfolio
	var price int
	switch a.Source {
	case action.FromIPO:
		from, price = r.s.Bank.IPO, c.Par.Price
	case action.FromPool:
		from, price = r.s.Bank.Pool, c.Price.Price
	default:
		return r.reject(a, fmt.Errorf("%w: source %q", ErrNoSuchCert, a.Source))
	}
	cert := cheapestCert(from, c)
	if cert == nil {
		return r.reject(a, ErrNoSuchCert)
	}
	cost := cert.Shares * price
	if p.FreeCash() < cost {
		return r.reject(a, ErrNotEnoughMoney)
	}
	if err := r.mayGainCert(p, c, cert); err != nil {
		return r.reject(a, err)
	}

	r.s.Moves.Begin(a.String())
	corp.MoveCert(r.s.Moves, cert, p.Portfolio)
	r.s.Transfer(p, r.s.Bank, cost)
	r.s.Report.Printf("%s buys %d%% of %s from the %s for %d",
		p.Name(), cert.Shares*c.ShareUnit, c.Name(), from.Label, cost)
	r.afterBuy(p, c)
	return nil
}

// afterBuy runs the shared post-purchase bookkeeping: floatation,
// presidency, and turn state.
func (r *StockRound) afterBuy(p *corp.Player, c *corp.PublicCompany) {
	r.checkFloat(c)
	r.checkPresidency(c)
	r.bought = true
	r.acted = true
	r.anybodyActed = true
	r.lastToAct = p.Index
}

// checkFloat capitalizes a company once enough of its shares have left
// the initial offering.
func (r *StockRound) checkFloat(c *corp.PublicCompany) {
	if c.Floated || !c.ShouldFloat(r.s.Bank.IPO) {
		return
	}
	r.s.Moves.Add(moves.NewBool(&c.Floated, true, c.ID+" floats"))
	capital := c.Par.Price * c.NumShares()
	r.s.Transfer(r.s.Bank, c, capital)
	r.s.Report.Printf("%s floats and receives %d", c.Name(), capital)
}

func (r *StockRound) processSell(a action.SellShares) error {
	p := r.current()
	if a.PlayerID != p.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if !r.sellAllowed() {
		return r.reject(a, ErrSellBeforeBuy)
	}
	c, err := r.s.Company(a.CompanyID)
	if err != nil {
		return r.reject(a, err)
	}
	max, _ := r.maxSellable(p, c)
	if a.Units <= 0 || a.Units > max {
		if a.Units > 0 && p.Portfolio.UnitsOf(c.ID) >= a.Units && r.s.PoolPercent(c)+a.Units*c.ShareUnit > r.s.PoolShareLimit {
			return r.reject(a, ErrPoolLimit)
		}
		if pres := p.Portfolio.PresidentCertOf(c.ID); pres != nil && a.Units > max {
			return r.reject(a, ErrCannotDump)
		}
		return r.reject(a, fmt.Errorf("%w: at most %d units of %s", ErrNoSuchCert, max, c.Name()))
	}

	r.s.Moves.Begin(a.String())
	r.executeSale(p, c, a.Units)
	r.checkPresidency(c)
	if !r.bought {
		r.soldBeforeBuy = true
	}
	r.acted = true
	r.anybodyActed = true
	r.lastToAct = p.Index
	return nil
}

func (r *StockRound) processPass(actorID string) error {
	a := action.Pass{ActorID: actorID}
	p := r.current()
	if actorID != p.ID {
		return r.reject(a, ErrNotYourTurn)
	}

	r.s.Moves.Begin(a.String())
	if r.acted {
		r.passes = 0
		r.s.Report.Printf("%s ends the turn", p.Name())
	} else {
		r.passes++
		r.s.Report.Printf("%s passes", p.Name())
	}
	r.acted, r.bought, r.soldBeforeBuy = false, false, false
	r.turn = r.s.PlayerByIndex(r.turn + 1).Index
	r.skipBankrupt()

	if r.passes >= r.s.NumPlayers() {
		r.finish()
	}
	return nil
}

func (r *StockRound) finish() {
	r.finished = true
	for _, c := range r.s.CompaniesInOrder() {
		if !c.Started || c.Closed {
			continue
		}
		if soldOut(r.s, c) {
			c.MovePrice(r.s.Moves, r.s.Market.Up(c.Price))
			r.s.Report.Printf("%s is sold out; price rises to %d", c.Name(), c.Price.Price)
		}
	}
	if r.anybodyActed {
		r.s.PriorityIndex = r.s.PlayerByIndex(r.lastToAct + 1).Index
	}
	r.s.Report.Printf("stock round over; %s has priority", r.s.PlayerByIndex(r.s.PriorityIndex).Name())
}

// soldOut reports whether no share of the company remains with the bank.
func soldOut(s *Session, c *corp.PublicCompany) bool {
	for _, cert := range c.Certificates() {
		if cert.Holder == s.Bank.IPO || cert.Holder == s.Bank.Pool || cert.Holder == s.Bank.Unavailable {
			return false
		}
	}
	return true
}
