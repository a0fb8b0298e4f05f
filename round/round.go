package round

import (
	"errors"
	"fmt"

	"trunkline/action"
	"trunkline/corp"
	"trunkline/moves"
)

var (
	ErrGameOver         = errors.New("game is over")
	ErrNotYourTurn      = errors.New("not this actor's turn")
	ErrWrongStep        = errors.New("action does not match the current step")
	ErrUnexpectedAction = errors.New("action not available in this round")
	ErrNotEnoughMoney   = errors.New("not enough money")
	ErrNotMultipleOfTen = errors.New("amount must be a non-negative multiple of 10")
	ErrBidTooLow        = errors.New("bid too low")
	ErrItemUnavailable  = errors.New("start item not available")
	ErrPriceNotPar      = errors.New("price is not a valid par price")
	ErrCompanyStarted   = errors.New("company already started")
	ErrCompanyClosed    = errors.New("company is closed")
	ErrCertLimit        = errors.New("certificate limit reached")
	ErrHoldLimit        = errors.New("holding limit reached")
	ErrPoolLimit        = errors.New("pool cannot absorb that many shares")
	ErrNoSuchCert       = errors.New("certificate not available from that source")
	ErrCannotDump       = errors.New("cannot dump presidency: no shareholder can take the president certificate")
	ErrSellBeforeBuy    = errors.New("selling is not allowed after buying under the current sequence rule")
	ErrAlreadyBought    = errors.New("only one purchase per turn")
	ErrColourNotAllowed = errors.New("tile colour not allowed in this phase")
	ErrTileQuota        = errors.New("tile lay allowance exhausted for this turn")
	ErrNotAnUpgrade     = errors.New("tile is not an upgrade of the current tile")
	ErrTrackLost        = errors.New("replacement tile does not preserve existing track")
	ErrHexBlocked       = errors.New("hex is blocked")
	ErrNoFreeToken      = errors.New("company has no free base token")
	ErrNoFreeSlot       = errors.New("no free token slot in that city")
	ErrTokenTwice       = errors.New("company already has a token on this hex")
	ErrBadAllocation    = errors.New("allocation not allowed for this company")
	ErrTrainLimit       = errors.New("train limit reached")
	ErrWrongPrice       = errors.New("train price must match the fixed cost")
	ErrLoanLimit        = errors.New("loan limit reached")
	ErrNoLoans          = errors.New("company has no loans to repay")
)

// Round is the live rules-engine instance. Process applies one submitted
// action: a nil return means the action was validated and executed; a
// non-nil return means it was rejected and no state changed apart from a
// report line. SetPossibleActions recomputes the menu of legal actions and
// must be called before every decision point; with no intervening Process
// it always yields the same menu.
//
// A round that delegates to a nested round is suspended, flagged as
// interrupted, and receives Resume once the nested round completes.
type Round interface {
	Process(a action.Action) error
	SetPossibleActions() *action.Set
	PossibleActions() *action.Set
	Finished() bool
	Resume()
	WasInterrupted() bool
}

// base carries the state shared by every round implementation.
type base struct {
	s  *Session
	gm *GameManager

	finished       bool
	wasInterrupted bool
	menu           *action.Set
}

func (b *base) Finished() bool { return b.finished }

func (b *base) WasInterrupted() bool { return b.wasInterrupted }

func (b *base) Resume() {}

func (b *base) PossibleActions() *action.Set {
	if b.menu == nil {
		return action.NewSet()
	}
	return b.menu
}

// reject surfaces a validation failure on the report buffer and returns
// it. Nothing has been mutated when reject is called.
func (b *base) reject(a action.Action, err error) error {
	b.s.Report.Printf("rejected %s: %v", a, err)
	return err
}

// maxSellable returns the number of share units of a company the seller
// may sell right now, honouring the pool limit and the presidency rules,
// along with the dump target if selling past the president certificate
// requires one.
func (b *base) maxSellable(seller *corp.Player, c *corp.PublicCompany) (units int, dump *corp.Player) {
	if !c.Started || c.Closed || c.Price == nil {
		return 0, nil
	}
	held := seller.Portfolio.UnitsOf(c.ID)
	if held == 0 {
		return 0, nil
	}

	poolRoom := (b.s.PoolShareLimit - b.s.PoolPercent(c)) / c.ShareUnit
	if poolRoom <= 0 {
		return 0, nil
	}

	max := held
	presCert := seller.Portfolio.PresidentCertOf(c.ID)
	if presCert != nil {
		dump = b.dumpCandidate(seller, c, presCert)
		if dump == nil {
			// the president certificate cannot leave this player
			max = held - presCert.Shares
		}
	}
	if max > poolRoom {
		max = poolRoom
	}
	if max < 0 {
		max = 0
	}
	return max, dump
}

// dumpCandidate finds the shareholder best placed to take over the
// presidency: any other player holding at least the president
// certificate's share size, preferring the largest holding.
func (b *base) dumpCandidate(seller *corp.Player, c *corp.PublicCompany, presCert *corp.Certificate) *corp.Player {
	var best *corp.Player
	bestUnits := 0
	for offset := 1; offset < b.s.NumPlayers(); offset++ {
		p := b.s.PlayerByIndex(seller.Index + offset)
		if p.Bankrupt {
			continue
		}
		units := p.Portfolio.UnitsOf(c.ID)
		if units >= presCert.Shares && units > bestUnits {
			best, bestUnits = p, units
		}
	}
	return best
}

// executeSale moves units of a company from the seller to the pool and
// pays the seller from the bank, handling the presidency swap when the
// sale digs into the president certificate. Validation must already have
// passed; executeSale records moves on the open turn.
func (b *base) executeSale(seller *corp.Player, c *corp.PublicCompany, units int) int {
	price := c.Price.Price
	proceeds := units * price

	presCert := seller.Portfolio.PresidentCertOf(c.ID)
	common := 0
	for _, cert := range seller.Portfolio.CertificatesOf(c.ID) {
		if !cert.President {
			common += cert.Shares
		}
	}

	if presCert != nil && common < units {
		// The sale digs into the president certificate: swap it for an
		// equivalent holding of the dump target, atomically with the sale.
		target := b.dumpCandidate(seller, c, presCert)
		corp.MoveCert(b.s.Moves, presCert, target.Portfolio)
		swapped := 0
		for _, cert := range target.Portfolio.CertificatesOf(c.ID) {
			if cert.President || swapped >= presCert.Shares {
				continue
			}
			corp.MoveCert(b.s.Moves, cert, seller.Portfolio)
			swapped += cert.Shares
		}
		b.s.Report.Printf("%s takes over the presidency of %s", target.Name(), c.Name())
	}

	sold := 0
	for _, cert := range seller.Portfolio.CertificatesOf(c.ID) {
		if cert.President || sold+cert.Shares > units {
			continue
		}
		corp.MoveCert(b.s.Moves, cert, b.s.Bank.Pool)
		sold += cert.Shares
	}

	b.s.Transfer(b.s.Bank, seller, proceeds)
	c.MovePrice(b.s.Moves, b.s.Market.Down(c.Price, units))
	b.s.Report.Printf("%s sells %d%% of %s for %d", seller.Name(), units*c.ShareUnit, c.Name(), proceeds)
	b.checkClosure(c)
	return proceeds
}

// checkPresidency hands the president certificate to whichever player
// holds strictly more share units than the current president, swapping it
// for an equivalent holding of common certificates.
func (b *base) checkPresidency(c *corp.PublicCompany) {
	presCert := c.PresidentCert()
	if presCert == nil {
		return
	}
	holder, ok := presCert.Holder.OwnerID, presCert.Holder.OwnerKind == corp.PlayerOwner
	if !ok {
		return
	}
	president, err := b.s.Player(holder)
	if err != nil {
		return
	}
	presUnits := president.Portfolio.UnitsOf(c.ID)

	var best *corp.Player
	bestUnits := presUnits
	for offset := 1; offset < b.s.NumPlayers(); offset++ {
		p := b.s.PlayerByIndex(president.Index + offset)
		if p.Bankrupt {
			continue
		}
		if units := p.Portfolio.UnitsOf(c.ID); units > bestUnits {
			best, bestUnits = p, units
		}
	}
	if best == nil {
		return
	}

	corp.MoveCert(b.s.Moves, presCert, best.Portfolio)
	swapped := 0
	for _, cert := range best.Portfolio.CertificatesOf(c.ID) {
		if cert.President || swapped >= presCert.Shares {
			continue
		}
		corp.MoveCert(b.s.Moves, cert, president.Portfolio)
		swapped += cert.Shares
	}
	b.s.Report.Printf("%s takes over the presidency of %s", best.Name(), c.Name())
}

// checkClosure closes a company whose market token reached a closing
// space.
func (b *base) checkClosure(c *corp.PublicCompany) {
	if c.Price != nil && c.Price.Closes && !c.Closed {
		b.closeCompany(c)
	}
}

// closeCompany is terminal: certificates go to the scrap heap and the
// treasury returns to the bank.
func (b *base) closeCompany(c *corp.PublicCompany) {
	for _, cert := range c.Certificates() {
		if cert.Holder != b.s.Bank.ScrapHeap {
			corp.MoveCert(b.s.Moves, cert, b.s.Bank.ScrapHeap)
		}
	}
	for _, tr := range c.Portfolio.Trains() {
		corp.MoveTrain(b.s.Moves, tr, b.s.Bank.Pool)
	}
	if c.Cash() > 0 {
		b.s.Transfer(c, b.s.Bank, c.Cash())
	}
	b.s.Moves.Add(moves.NewBool(&c.Closed, true, c.ID+" closed"))
	b.s.Report.Printf("%s closes", c.Name())
}

func fmtCash(n int) string { return fmt.Sprintf("$%d", n) }
