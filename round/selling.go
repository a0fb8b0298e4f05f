package round

import (
	"trunkline/action"
	"trunkline/corp"
)

// ShareSellingRound is the forced emergency sale: one player must raise a
// cash target and may only sell. It ends the moment the target is met,
// or in bankruptcy once the player has nothing left worth selling.
type ShareSellingRound struct {
	base

	seller      *corp.Player
	cashToRaise int
	raised      int
	bankrupt    bool
}

func NewShareSellingRound(s *Session, gm *GameManager, seller *corp.Player, cashToRaise int) *ShareSellingRound {
	r := &ShareSellingRound{base: base{s: s, gm: gm}, seller: seller, cashToRaise: cashToRaise}
	s.Report.Printf("%s must raise %d by selling shares", seller.Name(), cashToRaise)
	r.checkOutcome()
	return r
}

func (r *ShareSellingRound) Seller() *corp.Player { return r.seller }

func (r *ShareSellingRound) Remaining() int { return r.cashToRaise - r.raised }

func (r *ShareSellingRound) Bankrupt() bool { return r.bankrupt }

func (r *ShareSellingRound) SetPossibleActions() *action.Set {
	set := action.NewSet()
	if !r.finished {
		for _, c := range r.s.CompaniesInOrder() {
			if units, _ := r.maxSellable(r.seller, c); units > 0 {
				set.Add(action.SellShares{PlayerID: r.seller.ID, CompanyID: c.ID, Units: units})
			}
		}
	}
	r.menu = set
	return set
}

func (r *ShareSellingRound) Process(a action.Action) error {
	if r.finished {
		return r.reject(a, ErrGameOver)
	}
	v, ok := a.(action.SellShares)
	if !ok {
		return r.reject(a, ErrUnexpectedAction)
	}
	if v.PlayerID != r.seller.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	c, err := r.s.Company(v.CompanyID)
	if err != nil {
		return r.reject(a, err)
	}
	max, _ := r.maxSellable(r.seller, c)
	if v.Units <= 0 || v.Units > max {
		return r.reject(a, ErrNoSuchCert)
	}

	r.s.Moves.Begin(a.String())
	r.raised += r.executeSale(r.seller, c, v.Units)
	r.checkPresidency(c)
	r.checkOutcome()
	return nil
}

// checkOutcome finishes the round when the target is met, or declares
// bankruptcy when nothing sellable remains short of it.
func (r *ShareSellingRound) checkOutcome() {
	if r.raised >= r.cashToRaise {
		r.finished = true
		r.s.Report.Printf("%s has raised the required %d", r.seller.Name(), r.cashToRaise)
		return
	}
	for _, c := range r.s.CompaniesInOrder() {
		if units, _ := r.maxSellable(r.seller, c); units > 0 {
			return
		}
	}
	r.bankrupt = true
	r.finished = true
	r.seller.Bankrupt = true
	r.s.Report.Printf("%s cannot raise %d and is bankrupt", r.seller.Name(), r.cashToRaise)
	if r.gm != nil {
		r.gm.declareBankruptcy(r.seller)
	}
}
