package round

import (
	"fmt"

	"go.uber.org/zap"

	"trunkline/action"
	"trunkline/board"
	"trunkline/corp"
	"trunkline/moves"
)

// Step is one stage of a company's operating turn.
type Step int

const (
	StepInitial Step = iota
	StepLayTrack
	StepLayToken
	StepCalcRevenue
	StepPayout
	StepBuyTrain
	StepTradeShares
	StepFinal
)

func (s Step) String() string {
	switch s {
	case StepInitial:
		return "initial"
	case StepLayTrack:
		return "lay track"
	case StepLayToken:
		return "lay token"
	case StepCalcRevenue:
		return "calculate revenue"
	case StepPayout:
		return "payout"
	case StepBuyTrain:
		return "buy train"
	case StepTradeShares:
		return "trade shares"
	case StepFinal:
		return "final"
	}
	return "unknown"
}

// Deductions adjusts a company's declared revenue before it is
// distributed. Games without such a rule leave the hook unset.
type Deductions interface {
	Deduct(c *corp.PublicCompany, revenue int) int
}

// OperatingRound walks every floated company through its turn: track,
// token, revenue, trains, treasury shares. A company that cannot pay for
// a mandatory purchase suspends the round behind a forced share sale and
// resumes with the saved action once the cash is there.
type OperatingRound struct {
	base

	// Deductions, when set, is applied to every declared revenue.
	Deductions Deductions

	order   []*corp.PublicCompany
	orIndex int
	step    Step

	quota     map[board.Colour]int
	committed bool // a colour has been chosen this turn

	// pending is the action replayed after a forced share sale.
	pending       action.Action
	pendingSeller *corp.Player

	discardQueue []*corp.PublicCompany
}

func NewOperatingRound(s *Session, gm *GameManager) *OperatingRound {
	r := &OperatingRound{base: base{s: s, gm: gm}, order: s.OperatingOrder()}
	s.Moves.Begin("operating round begins")
	s.Report.Printf("operating round begins")
	r.payPrivateRevenue()
	if len(r.order) == 0 {
		r.finished = true
		s.Report.Printf("no company is ready to operate")
		return r
	}
	r.startTurn()
	return r
}

func (r *OperatingRound) Current() *corp.PublicCompany {
	if r.orIndex >= len(r.order) {
		return nil
	}
	return r.order[r.orIndex]
}

func (r *OperatingRound) CurrentStep() Step { return r.step }

func (r *OperatingRound) payPrivateRevenue() {
	for _, p := range r.s.PrivatesInOrder() {
		if p.Closed || p.Revenue == 0 || p.Holder == nil {
			continue
		}
		owner := r.s.HolderFor(p.Holder)
		r.s.Transfer(r.s.Bank, owner, p.Revenue)
		r.s.Report.Printf("%s pays %d to %s", p.Name, p.Revenue, owner.Name())
	}
}

func (r *OperatingRound) startTurn() {
	c := r.Current()
	r.s.Report.Printf("%s operates (price %d, treasury %d)", c.Name(), priceOf(c), c.Cash())

	r.layHomeToken(c)

	r.quota = map[board.Colour]int{}
	for colour, n := range r.s.Phases.Current().TileLays {
		if n > 0 {
			r.quota[colour] = n
		}
	}
	for name, n := range c.ExtraTileLays {
		r.quota[board.Colour(name)] += n
	}
	r.committed = false
	r.step = StepInitial
	r.advance()
}

func priceOf(c *corp.PublicCompany) int {
	if c.Price == nil {
		return 0
	}
	return c.Price.Price
}

// layHomeToken places the company's free home token on its first turn.
func (r *OperatingRound) layHomeToken(c *corp.PublicCompany) {
	if c.TokensUsed > 0 || c.HomeHex == "" || r.s.Map == nil {
		return
	}
	hex, err := r.s.Hex(c.HomeHex)
	if err != nil || hex.HasTokenOf(c.ID) {
		return
	}
	city := hex.City(c.HomeCity)
	if city == nil {
		for _, cand := range hex.Cities {
			if cand.HasFreeSlot() {
				city = cand
				break
			}
		}
	}
	if city == nil {
		r.s.Log.Warn("home city unavailable", zap.String("company", c.ID), zap.String("hex", hex.Name))
		return
	}
	r.placeToken(c, hex, city)
	r.s.Report.Printf("%s lays its home token on %s", c.Name(), hex.Name)
}

// placeToken records the token lay and the reservation release as moves.
func (r *OperatingRound) placeToken(c *corp.PublicCompany, hex *board.MapHex, city *board.City) {
	r.s.Moves.Add(&moves.Func{
		DoFn:   func() { city.AddToken(c.ID) },
		UndoFn: func() { city.RemoveToken(c.ID) },
		Label:  fmt.Sprintf("%s token on %s city %d", c.ID, hex.Name, city.Number),
	})
	r.s.Moves.Add(moves.NewInt(&c.TokensUsed, c.TokensUsed+1, c.ID+" tokens used"))
	if res, ok := hex.HomeReservation(c.ID); ok {
		r.s.Moves.Add(&moves.Func{
			DoFn:   func() { hex.ReleaseHomeReservation(c.ID) },
			UndoFn: func() { hex.AddHomeReservation(c.ID, res.CityNumber) },
			Label:  c.ID + " home reservation released",
		})
	}
}

// advance runs the step machine forward from the current step, executing
// the automatic steps, until a step needs player input or the turn ends.
func (r *OperatingRound) advance() {
	c := r.Current()
	for r.step < StepFinal {
		r.step++
		switch r.step {
		case StepLayTrack:
			if r.s.Map != nil && len(r.quota) > 0 {
				return
			}
		case StepLayToken:
			if r.s.Map != nil && c.FreeTokens() > 0 {
				return
			}
		case StepCalcRevenue:
			if c.HasTrains() {
				return
			}
			// no trains: zero revenue, withheld, no input requested
			r.s.Report.Printf("%s has no train and earns nothing", c.Name())
			r.payDividends(c, 0, action.Withhold)
		case StepPayout:
			// folded into the revenue step
		case StepBuyTrain:
			if r.mayBuyTrains(c) || c.MaxLoans > 0 {
				return
			}
		case StepTradeShares:
			if c.CanHoldOwnShares && !c.Closed {
				nested := NewTreasuryShareRound(r.s, r.gm, c)
				if !nested.Finished() {
					r.wasInterrupted = true
					r.gm.interrupt(r, nested)
					return
				}
			}
		}
	}
	r.finishTurn()
}

// mayBuyTrains reports whether any train could conceivably be bought.
func (r *OperatingRound) mayBuyTrains(c *corp.PublicCompany) bool {
	if c.Closed {
		return false
	}
	limit := r.s.Phases.Current().TrainLimit
	if c.Portfolio.TrainCount() >= limit {
		return false
	}
	for _, t := range r.s.Trains {
		if t.Holder == r.s.Bank.IPO || t.Holder == r.s.Bank.Pool {
			return true
		}
		if t.Holder != nil && t.Holder.OwnerKind == corp.CompanyOwner && t.Holder.OwnerID != c.ID {
			return true
		}
	}
	return false
}

func (r *OperatingRound) finishTurn() {
	c := r.Current()
	if !c.Operated {
		r.s.Moves.Add(moves.NewBool(&c.Operated, true, c.ID+" operated"))
	}
	r.closePhasePrivates()
	r.orIndex++
	if r.orIndex >= len(r.order) {
		r.finished = true
		r.s.Report.Printf("operating round over")
		return
	}
	r.startTurn()
}

// president returns the player holding the company's president
// certificate.
func (r *OperatingRound) president(c *corp.PublicCompany) *corp.Player {
	p, err := r.s.Player(c.President())
	if err != nil {
		return nil
	}
	return p
}

func (r *OperatingRound) Resume() {
	r.wasInterrupted = false
	if r.step == StepTradeShares {
		r.advance()
		return
	}
	pending, seller := r.pending, r.pendingSeller
	r.pending, r.pendingSeller = nil, nil
	if pending == nil {
		r.advance()
		return
	}
	if seller != nil && seller.Bankrupt {
		r.s.Report.Printf("forced sale failed; %s cannot complete %s", r.Current().Name(), pending)
		r.finishTurn()
		return
	}
	if err := r.Process(pending); err != nil {
		r.s.Report.Printf("could not complete %s after the forced sale: %v", pending, err)
		r.advance()
	}
}

// escalate suspends the turn behind a forced share sale by the president,
// saving the action to replay once the cash has been raised.
func (r *OperatingRound) escalate(a action.Action, president *corp.Player, shortfall int) {
	r.pending = a
	r.pendingSeller = president
	r.wasInterrupted = true
	r.gm.interrupt(r, NewShareSellingRound(r.s, r.gm, president, shortfall))
}

func (r *OperatingRound) SetPossibleActions() *action.Set {
	set := action.NewSet()
	if r.finished {
		r.menu = set
		return set
	}

	if len(r.discardQueue) > 0 {
		over := r.discardQueue[0]
		for _, t := range over.Portfolio.Trains() {
			set.Add(action.DiscardTrain{CompanyID: over.ID, TrainID: t.ID})
		}
		r.menu = set
		return set
	}

	c := r.Current()
	switch r.step {
	case StepLayTrack:
		// open-ended: hex, tile and rotation are validated on submission
		set.Add(action.LayTile{CompanyID: c.ID})
		set.Add(action.Done{ActorID: c.ID})
	case StepLayToken:
		for _, hex := range r.s.Map.Hexes() {
			for _, city := range hex.Cities {
				if r.validateTokenLay(c, hex, city.Number) == nil {
					set.Add(action.LayBaseToken{CompanyID: c.ID, HexName: hex.Name, CityNumber: city.Number})
				}
			}
		}
		set.Add(action.Done{ActorID: c.ID})
	case StepCalcRevenue:
		for _, alloc := range r.allowedAllocations(c) {
			set.Add(action.SetRevenue{CompanyID: c.ID, Allocation: alloc})
		}
	case StepBuyTrain:
		r.addTrainActions(set, c)
		if c.MaxLoans > 0 {
			if c.Loans < c.MaxLoans {
				set.Add(action.TakeLoans{CompanyID: c.ID, Number: 1})
			}
			if c.Loans > 0 {
				set.Add(action.RepayLoans{CompanyID: c.ID, Number: 1})
			}
		}
		set.Add(action.Done{ActorID: c.ID})
	}
	r.menu = set
	return set
}

func (r *OperatingRound) addTrainActions(set *action.Set, c *corp.PublicCompany) {
	if !r.mayBuyTrains(c) {
		return
	}
	offered := map[string]bool{}
	for _, t := range r.s.Trains {
		switch {
		case t.Holder == r.s.Bank.IPO || t.Holder == r.s.Bank.Pool:
			if offered[t.Type.Name] {
				continue
			}
			offered[t.Type.Name] = true
			set.Add(action.BuyTrain{CompanyID: c.ID, TrainID: t.ID, Price: t.Type.Cost})
		case t.Holder != nil && t.Holder.OwnerKind == corp.CompanyOwner && t.Holder.OwnerID != c.ID:
			set.Add(action.BuyTrain{CompanyID: c.ID, TrainID: t.ID, FromCompanyID: t.Holder.OwnerID})
		}
	}
}

func (r *OperatingRound) allowedAllocations(c *corp.PublicCompany) []action.Allocation {
	switch c.ForcedAllocation {
	case string(action.Split):
		return []action.Allocation{action.Split}
	case string(action.Withhold):
		return []action.Allocation{action.Withhold}
	}
	return []action.Allocation{action.Payout, action.Split, action.Withhold}
}

func (r *OperatingRound) Process(a action.Action) error {
	if r.finished {
		return r.reject(a, ErrGameOver)
	}
	if len(r.discardQueue) > 0 {
		v, ok := a.(action.DiscardTrain)
		if !ok {
			return r.reject(a, ErrWrongStep)
		}
		return r.processDiscard(v)
	}
	switch v := a.(type) {
	case action.LayTile:
		return r.processLayTile(v)
	case action.LayBaseToken:
		return r.processLayToken(v)
	case action.SetRevenue:
		return r.processSetRevenue(v)
	case action.BuyTrain:
		return r.processBuyTrain(v)
	case action.TakeLoans:
		return r.processTakeLoans(v)
	case action.RepayLoans:
		return r.processRepayLoans(v)
	case action.Done:
		return r.processDone(v.ActorID, a)
	case action.Skip:
		return r.processDone(v.ActorID, a)
	default:
		return r.reject(a, ErrUnexpectedAction)
	}
}

func (r *OperatingRound) processDone(actorID string, a action.Action) error {
	c := r.Current()
	if actorID != c.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	switch r.step {
	case StepLayTrack, StepLayToken, StepBuyTrain:
	default:
		return r.reject(a, ErrWrongStep)
	}
	r.s.Moves.Begin(a.String())
	r.advance()
	return nil
}

// blockingPrivate finds the open private reserving a hex, if any.
func (r *OperatingRound) blockingPrivate(hexName string) *corp.PrivateCompany {
	for _, p := range r.s.PrivatesInOrder() {
		if !p.Closed && p.BlocksHex == hexName {
			return p
		}
	}
	return nil
}

// specialLayAllowed reports whether a special property of a private held
// by the company or its president covers the hex.
func (r *OperatingRound) specialLayAllowed(c *corp.PublicCompany, hexName string) bool {
	holders := []*corp.Portfolio{c.Portfolio}
	if pres := r.president(c); pres != nil {
		holders = append(holders, pres.Portfolio)
	}
	for _, h := range holders {
		for _, p := range h.Privates() {
			if p.GrantsExtraLayOn(hexName) {
				return true
			}
		}
	}
	return false
}

func (r *OperatingRound) processLayTile(a action.LayTile) error {
	c := r.Current()
	if a.CompanyID != c.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if r.step != StepLayTrack && !(a.Special && r.specialLayAllowed(c, a.HexName)) {
		return r.reject(a, ErrWrongStep)
	}
	if a.Special && !r.specialLayAllowed(c, a.HexName) {
		return r.reject(a, fmt.Errorf("%w: no special property covers %s", ErrHexBlocked, a.HexName))
	}
	hex, err := r.s.Hex(a.HexName)
	if err != nil {
		return r.reject(a, err)
	}
	if hex.OffBoard || hex.Preprinted {
		return r.reject(a, fmt.Errorf("%w: %s cannot be relaid", ErrHexBlocked, hex.Name))
	}
	if hex.BlockedForTile {
		if p := r.blockingPrivate(hex.Name); p != nil && !r.specialLayAllowed(c, hex.Name) &&
			p.Holder != c.Portfolio && (r.president(c) == nil || p.Holder != r.president(c).Portfolio) {
			return r.reject(a, fmt.Errorf("%w: reserved by %s", ErrHexBlocked, p.Name))
		}
	}

	tiles := r.s.Map.Tiles()
	next, ok := tiles.Tile(a.TileID)
	if !ok {
		return r.reject(a, board.ErrUnknownTile)
	}
	if tiles.Remaining(a.TileID) == 0 {
		return r.reject(a, board.ErrNoTilesLeft)
	}
	if !r.s.Phases.Current().AllowsColour(next.Colour) {
		return r.reject(a, fmt.Errorf("%w: %s", ErrColourNotAllowed, next.Colour))
	}
	if !a.Special && r.quota[next.Colour] <= 0 {
		return r.reject(a, ErrTileQuota)
	}

	var cur *board.Tile
	cost := 0
	if hex.TileID == 0 {
		if next.Colour != board.Yellow {
			return r.reject(a, fmt.Errorf("%w: empty hex takes yellow", ErrColourNotAllowed))
		}
		cost = hex.Cost
	} else {
		cur, _ = tiles.Tile(hex.TileID)
		if cur == nil || !upgradesTo(cur, next.ID) {
			return r.reject(a, fmt.Errorf("#%d on #%d: %w", next.ID, hex.TileID, ErrNotAnUpgrade))
		}
		if !board.PreservesTrack(cur, hex.Rotation, next, a.Rotation) {
			return r.reject(a, ErrTrackLost)
		}
	}
	if cost < 0 || cost%10 != 0 {
		return r.reject(a, ErrNotMultipleOfTen)
	}
	if c.Cash() < cost {
		return r.reject(a, ErrNotEnoughMoney)
	}

	r.s.Moves.Begin(a.String())
	before := hex.SnapshotTileState()
	var notes []string
	if cur == nil {
		if err := hex.LayInitial(next, a.Rotation); err != nil {
			panic(err) // validated above
		}
	} else {
		if notes, err = hex.Upgrade(cur, next, a.Rotation, nil); err != nil {
			panic(err) // validated above
		}
	}
	after := hex.SnapshotTileState()
	r.s.Moves.Add(&moves.Func{
		DoFn:   func() { hex.RestoreTileState(after) },
		UndoFn: func() { hex.RestoreTileState(before) },
		Label:  a.String(),
	})
	r.s.Moves.Add(&moves.Func{
		DoFn: func() {
			tiles.Take(next.ID)
			if cur != nil {
				tiles.Return(cur.ID)
			}
		},
		UndoFn: func() {
			tiles.Return(next.ID)
			if cur != nil {
				tiles.Take(cur.ID)
			}
		},
		Label: fmt.Sprintf("tile #%d supply", next.ID),
	})
	r.s.Transfer(c, r.s.Bank, cost)

	if !a.Special {
		if !r.committed {
			for colour := range r.quota {
				if colour != next.Colour {
					delete(r.quota, colour)
				}
			}
			r.committed = true
		}
		r.quota[next.Colour]--
		if r.quota[next.Colour] <= 0 {
			delete(r.quota, next.Colour)
		}
	}

	r.s.Report.Printf("%s lays tile #%d on %s", c.Name(), next.ID, hex.Name)
	for _, n := range notes {
		r.s.Report.Printf("%s", n)
	}
	if cost > 0 {
		r.s.Report.Printf("%s pays %d for terrain", c.Name(), cost)
	}
	if !a.Special && len(r.quota) == 0 {
		r.advance()
	}
	return nil
}

func upgradesTo(cur *board.Tile, nextID int) bool {
	for _, id := range cur.Upgrades {
		if id == nextID {
			return true
		}
	}
	return false
}

func (r *OperatingRound) validateTokenLay(c *corp.PublicCompany, hex *board.MapHex, cityNumber int) error {
	if c.FreeTokens() <= 0 {
		return ErrNoFreeToken
	}
	city := hex.City(cityNumber)
	if city == nil || !city.HasFreeSlot() {
		return ErrNoFreeSlot
	}
	if hex.HasTokenOf(c.ID) {
		return ErrTokenTwice
	}
	if hex.BlockedForTokenLays(c.ID, cityNumber) {
		return ErrHexBlocked
	}
	if c.Cash() < c.NextTokenCost() {
		return ErrNotEnoughMoney
	}
	return nil
}

func (r *OperatingRound) processLayToken(a action.LayBaseToken) error {
	c := r.Current()
	if a.CompanyID != c.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if r.step != StepLayToken {
		return r.reject(a, ErrWrongStep)
	}
	hex, err := r.s.Hex(a.HexName)
	if err != nil {
		return r.reject(a, err)
	}
	if err := r.validateTokenLay(c, hex, a.CityNumber); err != nil {
		return r.reject(a, err)
	}

	cost := c.NextTokenCost()
	r.s.Moves.Begin(a.String())
	r.placeToken(c, hex, hex.City(a.CityNumber))
	r.s.Transfer(c, r.s.Bank, cost)
	r.s.Report.Printf("%s lays a token on %s for %d", c.Name(), hex.Name, cost)
	r.advance()
	return nil
}

func (r *OperatingRound) processSetRevenue(a action.SetRevenue) error {
	c := r.Current()
	if a.CompanyID != c.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if r.step != StepCalcRevenue {
		return r.reject(a, ErrWrongStep)
	}
	if a.Amount < 0 || a.Amount%10 != 0 {
		return r.reject(a, ErrNotMultipleOfTen)
	}
	allowed := false
	for _, alloc := range r.allowedAllocations(c) {
		if alloc == a.Allocation {
			allowed = true
		}
	}
	if !allowed {
		return r.reject(a, fmt.Errorf("%w: %s", ErrBadAllocation, a.Allocation))
	}

	amount := a.Amount
	if r.Deductions != nil {
		amount = r.Deductions.Deduct(c, amount)
	}

	r.s.Moves.Begin(a.String())
	r.payDividends(c, amount, a.Allocation)
	r.advance()
	return nil
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// payDividends executes the chosen allocation and moves the market token.
func (r *OperatingRound) payDividends(c *corp.PublicCompany, amount int, alloc action.Allocation) {
	switch alloc {
	case action.Withhold:
		if amount > 0 {
			r.s.Transfer(r.s.Bank, c, amount)
		}
		r.s.Report.Printf("%s withholds %d", c.Name(), amount)
	case action.Split:
		retained := amount / (2 * c.NumShares()) * c.NumShares()
		if retained > 0 {
			r.s.Transfer(r.s.Bank, c, retained)
		}
		r.payPerShare(c, amount-retained)
		r.s.Report.Printf("%s splits %d: retains %d", c.Name(), amount, retained)
	case action.Payout:
		r.payPerShare(c, amount)
		r.s.Report.Printf("%s pays out %d", c.Name(), amount)
	}

	if c.Price == nil {
		return
	}
	perShare := amount * c.ShareUnit / 100
	switch {
	case alloc == action.Withhold || amount == 0:
		c.MovePrice(r.s.Moves, r.s.Market.Left(c.Price))
	case alloc != action.Withhold && perShare >= r.s.DividendThreshold:
		c.MovePrice(r.s.Moves, r.s.Market.Right(c.Price))
	}
	r.checkClosure(c)
}

// payPerShare pays every certificate holder, each rounded up.
func (r *OperatingRound) payPerShare(c *corp.PublicCompany, amount int) {
	if amount == 0 {
		return
	}
	for _, cert := range c.Certificates() {
		holder := cert.Holder
		if holder == nil || holder == r.s.Bank.Unavailable || holder == r.s.Bank.ScrapHeap {
			continue
		}
		due := ceilDiv(amount*cert.Shares*c.ShareUnit, 100)
		if due == 0 {
			continue
		}
		if holder == r.s.Bank.IPO || holder == r.s.Bank.Pool {
			if !c.PoolPaysToCompany {
				continue
			}
			r.s.Transfer(r.s.Bank, c, due)
			continue
		}
		r.s.Transfer(r.s.Bank, r.s.HolderFor(holder), due)
	}
}

func (r *OperatingRound) processBuyTrain(a action.BuyTrain) error {
	c := r.Current()
	if a.CompanyID != c.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if r.step != StepBuyTrain {
		return r.reject(a, ErrWrongStep)
	}
	t, err := r.s.Train(a.TrainID)
	if err != nil {
		return r.reject(a, err)
	}

	fromBank := a.FromCompanyID == ""
	var seller moves.CashHolder
	if fromBank {
		if t.Holder != r.s.Bank.IPO && t.Holder != r.s.Bank.Pool {
			return r.reject(a, fmt.Errorf("train %s is not for sale: %w", t.ID, ErrUnknownTrain))
		}
		if a.Price != t.Type.Cost {
			return r.reject(a, fmt.Errorf("%w: %s costs %d", ErrWrongPrice, t.Type.Name, t.Type.Cost))
		}
		seller = r.s.Bank
	} else {
		from, err := r.s.Company(a.FromCompanyID)
		if err != nil {
			return r.reject(a, err)
		}
		if t.Holder != from.Portfolio {
			return r.reject(a, fmt.Errorf("%s does not own train %s: %w", from.Name(), t.ID, ErrUnknownTrain))
		}
		if a.Price <= 0 {
			return r.reject(a, ErrWrongPrice)
		}
		seller = from
	}

	limit := r.s.Phases.Current().TrainLimit
	if !a.Exchange && c.Portfolio.TrainCount() >= limit {
		return r.reject(a, ErrTrainLimit)
	}
	if a.Exchange && c.Portfolio.TrainCount() == 0 {
		return r.reject(a, fmt.Errorf("%w: nothing to exchange", ErrUnknownTrain))
	}

	shortfall := a.Price - c.Cash()
	var president *corp.Player
	if shortfall > 0 {
		if c.HasTrains() {
			// not a forced buy: the treasury must pay on its own
			return r.reject(a, ErrNotEnoughMoney)
		}
		president = r.president(c)
		if president == nil {
			return r.reject(a, ErrNotEnoughMoney)
		}
		if president.FreeCash() < shortfall {
			need := shortfall - president.FreeCash()
			r.s.Report.Printf("%s is short %d for the %s-train", c.Name(), need, t.Type.Name)
			r.escalate(a, president, need)
			return nil
		}
	}

	r.s.Moves.Begin(a.String())
	if shortfall > 0 {
		r.s.Transfer(president, c, shortfall)
		r.s.Report.Printf("%s covers %d from personal cash", president.Name(), shortfall)
	}
	if a.Exchange {
		old := oldestTrain(c.Portfolio)
		corp.MoveTrain(r.s.Moves, old, r.s.Bank.Pool)
		r.s.Report.Printf("%s trades in its %s-train", c.Name(), old.Type.Name)
	}
	corp.MoveTrain(r.s.Moves, t, c.Portfolio)
	r.s.Transfer(c, seller, a.Price)
	r.s.Report.Printf("%s buys a %s-train for %d", c.Name(), t.Type.Name, a.Price)

	if fromBank {
		r.rustTrains(t.Type.Name)
		r.triggerPhase(t.Type.Name)
	}
	return nil
}

func oldestTrain(p *corp.Portfolio) *corp.Train {
	var oldest *corp.Train
	for _, t := range p.Trains() {
		if oldest == nil || t.Type.Rank < oldest.Type.Rank {
			oldest = t
		}
	}
	return oldest
}

// rustTrains scraps every train whose rank rusts on the one just bought.
func (r *OperatingRound) rustTrains(rankName string) {
	for _, t := range r.s.Trains {
		if t.Type.RustsOn != rankName || t.Holder == r.s.Bank.ScrapHeap {
			continue
		}
		if t.Holder == r.s.Bank.IPO || t.Holder == r.s.Bank.Pool {
			corp.MoveTrain(r.s.Moves, t, r.s.Bank.ScrapHeap)
			continue
		}
		owner := t.Holder
		corp.MoveTrain(r.s.Moves, t, r.s.Bank.ScrapHeap)
		r.s.Report.Printf("%s-train of %s rusts", t.Type.Name, owner.Label)
	}
}

// triggerPhase advances the schedule if the bought rank opens a new
// phase, then applies its consequences.
func (r *OperatingRound) triggerPhase(rankName string) {
	old := r.s.Phases.Index()
	next := r.s.Phases.TrainBought(rankName)
	if next == nil {
		return
	}
	now := r.s.Phases.Index()
	r.s.Moves.Add(&moves.Func{
		DoFn:   func() { r.s.Phases.SetIndex(now) },
		UndoFn: func() { r.s.Phases.SetIndex(old) },
		Label:  "phase " + next.Name,
	})
	r.s.Report.Printf("phase %s begins", next.Name)

	if next.ClosesPrivates {
		for _, p := range r.s.PrivatesInOrder() {
			r.closePrivate(p)
		}
	} else {
		for _, p := range r.s.PrivatesInOrder() {
			if p.ClosesInPhase == next.Name {
				r.closePrivate(p)
			}
		}
	}

	for _, over := range r.s.OperatingOrder() {
		if over.Portfolio.TrainCount() > next.TrainLimit {
			r.discardQueue = append(r.discardQueue, over)
			r.s.Report.Printf("%s is over the train limit and must discard", over.Name())
		}
	}
}

func (r *OperatingRound) closePrivate(p *corp.PrivateCompany) {
	if p.Closed {
		return
	}
	r.s.Moves.Add(moves.NewBool(&p.Closed, true, p.ID+" closes"))
	if p.BlocksHex != "" {
		if hex, err := r.s.Hex(p.BlocksHex); err == nil && hex.BlockedForTile {
			r.s.Moves.Add(moves.NewBool(&hex.BlockedForTile, false, p.BlocksHex+" unblocked"))
		}
	}
	r.s.Report.Printf("%s closes", p.Name)
}

// closePhasePrivates folds privates whose closing phase has been reached,
// checked at the end of each company turn as well in case the phase
// changed mid-turn.
func (r *OperatingRound) closePhasePrivates() {
	cur := r.s.Phases.Current()
	if !cur.ClosesPrivates {
		return
	}
	for _, p := range r.s.PrivatesInOrder() {
		r.closePrivate(p)
	}
}

func (r *OperatingRound) processDiscard(a action.DiscardTrain) error {
	over := r.discardQueue[0]
	if a.CompanyID != over.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	t, err := r.s.Train(a.TrainID)
	if err != nil {
		return r.reject(a, err)
	}
	if t.Holder != over.Portfolio {
		return r.reject(a, fmt.Errorf("%s does not own train %s: %w", over.Name(), t.ID, ErrUnknownTrain))
	}

	r.s.Moves.Begin(a.String())
	corp.MoveTrain(r.s.Moves, t, r.s.Bank.Pool)
	r.s.Report.Printf("%s discards its %s-train to the pool", over.Name(), t.Type.Name)
	if over.Portfolio.TrainCount() <= r.s.Phases.Current().TrainLimit {
		r.discardQueue = r.discardQueue[1:]
	}
	return nil
}

func (r *OperatingRound) processTakeLoans(a action.TakeLoans) error {
	c := r.Current()
	if a.CompanyID != c.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if r.step != StepBuyTrain {
		return r.reject(a, ErrWrongStep)
	}
	if c.MaxLoans == 0 || a.Number <= 0 || c.Loans+a.Number > c.MaxLoans {
		return r.reject(a, ErrLoanLimit)
	}

	r.s.Moves.Begin(a.String())
	r.s.Moves.Add(moves.NewInt(&c.Loans, c.Loans+a.Number, c.ID+" loans"))
	r.s.Transfer(r.s.Bank, c, a.Number*c.LoanValue)
	r.s.Report.Printf("%s takes %d loan(s) for %d", c.Name(), a.Number, a.Number*c.LoanValue)
	return nil
}

func (r *OperatingRound) processRepayLoans(a action.RepayLoans) error {
	c := r.Current()
	if a.CompanyID != c.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	if r.step != StepBuyTrain {
		return r.reject(a, ErrWrongStep)
	}
	if a.Number <= 0 || a.Number > c.Loans {
		return r.reject(a, ErrNoLoans)
	}

	cost := a.Number * c.LoanValue
	shortfall := cost - c.Cash()
	var president *corp.Player
	if shortfall > 0 {
		president = r.president(c)
		if president == nil {
			return r.reject(a, ErrNotEnoughMoney)
		}
		if president.FreeCash() < shortfall {
			need := shortfall - president.FreeCash()
			r.s.Report.Printf("%s is short %d to repay its loans", c.Name(), need)
			r.escalate(a, president, need)
			return nil
		}
	}

	r.s.Moves.Begin(a.String())
	if shortfall > 0 {
		r.s.Transfer(president, c, shortfall)
		r.s.Report.Printf("%s covers %d from personal cash", president.Name(), shortfall)
	}
	r.s.Moves.Add(moves.NewInt(&c.Loans, c.Loans-a.Number, c.ID+" loans"))
	r.s.Transfer(c, r.s.Bank, cost)
	r.s.Report.Printf("%s repays %d loan(s) for %d", c.Name(), a.Number, cost)
	return nil
}
