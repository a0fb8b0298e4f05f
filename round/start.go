package round

import (
	"fmt"

	"trunkline/action"
	"trunkline/corp"
	"trunkline/market"
	"trunkline/moves"
)

// ItemStatus tracks where a start item is in its auction lifecycle.
type ItemStatus int

const (
	ItemUnavailable ItemStatus = iota
	ItemBiddable
	ItemBuyable
	ItemAuctioned
	ItemNeedsSharePrice
	ItemSold
)

func (s ItemStatus) String() string {
	switch s {
	case ItemUnavailable:
		return "unavailable"
	case ItemBiddable:
		return "biddable"
	case ItemBuyable:
		return "buyable"
	case ItemAuctioned:
		return "auctioned"
	case ItemNeedsSharePrice:
		return "needs share price"
	case ItemSold:
		return "sold"
	}
	return "unknown"
}

// StartItem is one lot in the initial auction: a private company,
// optionally bundled with a certificate out of the IPO.
type StartItem struct {
	Index       int
	Private     *corp.PrivateCompany
	Certificate *corp.Certificate

	BasePrice int
	Price     int // current asking price, decremented on all-pass
	Status    ItemStatus

	Bids   map[string]int // playerID -> standing bid
	Passed map[string]bool
}

func (it *StartItem) Name() string {
	if it.Private != nil {
		return it.Private.Name
	}
	if it.Certificate != nil {
		return it.Certificate.CompanyID
	}
	return fmt.Sprintf("item %d", it.Index)
}

func (it *StartItem) highBid() (string, int) {
	who, high := "", 0
	for id, amount := range it.Bids {
		if amount > high || (amount == high && id < who) {
			who, high = id, amount
		}
	}
	return who, high
}

// minBid is the lowest acceptable next bid on this item.
func (it *StartItem) minBid() int {
	if _, high := it.highBid(); high > 0 {
		return high + bidIncrement
	}
	return it.Price + bidIncrement
}

type itemState struct {
	price  int
	status ItemStatus
	bids   map[string]int
	passed map[string]bool
}

func (it *StartItem) snapshot() itemState {
	st := itemState{price: it.Price, status: it.Status, bids: map[string]int{}, passed: map[string]bool{}}
	for k, v := range it.Bids {
		st.bids[k] = v
	}
	for k, v := range it.Passed {
		st.passed[k] = v
	}
	return st
}

func (it *StartItem) restore(st itemState) {
	it.Price, it.Status = st.price, st.status
	it.Bids, it.Passed = map[string]int{}, map[string]bool{}
	for k, v := range st.bids {
		it.Bids[k] = v
	}
	for k, v := range st.passed {
		it.Passed[k] = v
	}
}

// StartPacket is the ordered row of items sold before the first stock
// round.
type StartPacket struct {
	Items []*StartItem
}

func NewStartPacket(items ...*StartItem) *StartPacket {
	for i, it := range items {
		it.Index = i
		it.Price = it.BasePrice
		it.Status = ItemBiddable
		if it.Bids == nil {
			it.Bids = map[string]int{}
		}
		if it.Passed == nil {
			it.Passed = map[string]bool{}
		}
	}
	return &StartPacket{Items: items}
}

func (p *StartPacket) FirstUnsold() *StartItem {
	for _, it := range p.Items {
		if it.Status != ItemSold {
			return it
		}
	}
	return nil
}

const (
	bidIncrement   = 5
	priceDecrement = 5
)

// StartRound runs the packet auction. The first unsold item may be
// bought outright; later items take blind bids. An item with a single
// bid converts straight to the bidder once reached; two or more bids
// open a live auction among the bidders until only one has not passed.
// A full table of passes knocks the asking price of the first unsold
// item down, to the point of a forced free assignment.
type StartRound struct {
	base
	packet *StartPacket

	turn   int // index of the player to act
	passes int // consecutive passes on the main loop

	auction      *StartItem // non-nil while a live auction runs
	auctionTurn  int        // index of the bidder to act in the auction
	pending      *StartItem // awaiting SetSharePrice
	pendingBuyer *corp.Player
}

func NewStartRound(s *Session, gm *GameManager) *StartRound {
	r := &StartRound{base: base{s: s, gm: gm}, packet: s.Packet, turn: s.PriorityIndex}
	r.resolveItems()
	s.Report.Printf("start round begins; %s has priority", s.PlayerByIndex(r.turn).Name())
	return r
}

func (r *StartRound) current() *corp.Player { return r.s.PlayerByIndex(r.turn) }

// resolveItems settles everything that needs no player decision: sold-out
// packets, single-bid conversions, and multi-bid auctions, left to right.
func (r *StartRound) resolveItems() {
	for !r.finished && r.auction == nil && r.pending == nil {
		first := r.packet.FirstUnsold()
		if first == nil {
			r.finish()
			return
		}
		switch len(first.Bids) {
		case 0:
			first.Status = ItemBuyable
			return
		case 1:
			who, amount := first.highBid()
			buyer, _ := r.s.Player(who)
			buyer.UnblockCash(amount)
			r.assign(buyer, first, amount)
		default:
			first.Status = ItemAuctioned
			who, _ := first.highBid()
			high, _ := r.s.Player(who)
			r.auction = first
			r.auctionTurn = r.nextBidder(high.Index)
			r.s.Report.Printf("auction opens for %s", first.Name())
			r.settleAuction()
		}
	}
}

// nextBidder finds the seat after from among the auction's live bidders.
func (r *StartRound) nextBidder(from int) int {
	for offset := 1; offset <= r.s.NumPlayers(); offset++ {
		p := r.s.PlayerByIndex(from + offset)
		if _, ok := r.auction.Bids[p.ID]; ok && !r.auction.Passed[p.ID] {
			return p.Index
		}
	}
	return from
}

// settleAuction resolves the running auction once a single live bidder
// remains.
func (r *StartRound) settleAuction() {
	it := r.auction
	live := 0
	for id := range it.Bids {
		if !it.Passed[id] {
			live++
		}
	}
	if live > 1 {
		return
	}
	who, amount := "", 0
	for id, bid := range it.Bids {
		if !it.Passed[id] {
			who, amount = id, bid
		}
	}
	winner, _ := r.s.Player(who)
	for id, bid := range it.Bids {
		p, _ := r.s.Player(id)
		p.UnblockCash(bid)
	}
	r.auction = nil
	r.assign(winner, it, amount)
}

// assign hands an item to its buyer at the given price and advances the
// packet. Called only after all validation and refunds are done.
func (r *StartRound) assign(buyer *corp.Player, it *StartItem, price int) {
	r.s.Moves.Begin(fmt.Sprintf("%s wins %s for %d", buyer.Name(), it.Name(), price))
	before := it.snapshot()

	if price > 0 {
		r.s.Transfer(buyer, r.s.Bank, price)
	}
	if it.Private != nil {
		corp.MovePrivate(r.s.Moves, it.Private, buyer.Portfolio)
	}
	deferred := false
	if cert := it.Certificate; cert != nil {
		corp.MoveCert(r.s.Moves, cert, buyer.Portfolio)
		if cert.President {
			if c, err := r.s.Company(cert.CompanyID); err == nil && !c.Started {
				deferred = true
			}
		}
	}

	it.Bids = map[string]int{}
	it.Passed = map[string]bool{}
	if deferred {
		it.Status = ItemNeedsSharePrice
		r.pending = it
		r.pendingBuyer = buyer
		r.s.Report.Printf("%s buys %s for %d and must set a share price for %s",
			buyer.Name(), it.Name(), price, it.Certificate.CompanyID)
	} else {
		it.Status = ItemSold
		r.s.Report.Printf("%s buys %s for %d", buyer.Name(), it.Name(), price)
	}

	after := it.snapshot()
	r.s.Moves.Add(&moves.Func{
		DoFn:   func() { it.restore(after) },
		UndoFn: func() { it.restore(before) },
		Label:  it.Name() + " assigned",
	})
	r.passes = 0
}

func (r *StartRound) finish() {
	r.finished = true
	r.s.PriorityIndex = r.turn
	r.s.Report.Printf("start round over; %s has priority", r.current().Name())
}

func (r *StartRound) SetPossibleActions() *action.Set {
	set := action.NewSet()
	switch {
	case r.finished:
	case r.pending != nil:
		companyID := r.pending.Certificate.CompanyID
		for _, sp := range r.s.Market.ParSpaces() {
			set.Add(action.SetSharePrice{PlayerID: r.pendingBuyer.ID, CompanyID: companyID, Price: sp.Price})
		}
	case r.auction != nil:
		p := r.s.PlayerByIndex(r.auctionTurn)
		if min := r.auction.minBid(); p.FreeCash()+r.auction.Bids[p.ID] >= min {
			set.Add(action.Bid{PlayerID: p.ID, ItemIndex: r.auction.Index, Amount: min})
		}
		set.Add(action.Pass{ActorID: p.ID})
	default:
		p := r.current()
		for _, it := range r.packet.Items {
			switch it.Status {
			case ItemBuyable:
				if p.FreeCash() >= it.Price {
					set.Add(action.BuyStartItem{PlayerID: p.ID, ItemIndex: it.Index, Price: it.Price})
				}
			case ItemBiddable:
				if min := it.minBid(); p.FreeCash()+it.Bids[p.ID] >= min {
					set.Add(action.Bid{PlayerID: p.ID, ItemIndex: it.Index, Amount: min})
				}
			}
		}
		set.Add(action.Pass{ActorID: p.ID})
	}
	r.menu = set
	return set
}

func (r *StartRound) Process(a action.Action) error {
	if r.finished {
		return r.reject(a, ErrGameOver)
	}
	switch v := a.(type) {
	case action.SetSharePrice:
		return r.processSetSharePrice(v)
	case action.Bid:
		return r.processBid(v)
	case action.BuyStartItem:
		return r.processBuy(v)
	case action.Pass:
		return r.processPass(v)
	default:
		return r.reject(a, ErrUnexpectedAction)
	}
}

func (r *StartRound) item(index int) (*StartItem, error) {
	if index < 0 || index >= len(r.packet.Items) {
		return nil, ErrItemUnavailable
	}
	return r.packet.Items[index], nil
}

func (r *StartRound) processBuy(a action.BuyStartItem) error {
	if r.pending != nil || r.auction != nil {
		return r.reject(a, ErrWrongStep)
	}
	p := r.current()
	if a.PlayerID != p.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	it, err := r.item(a.ItemIndex)
	if err != nil {
		return r.reject(a, err)
	}
	if it.Status != ItemBuyable {
		return r.reject(a, ErrItemUnavailable)
	}
	if a.Price != it.Price {
		return r.reject(a, fmt.Errorf("%w: asking price is %d", ErrItemUnavailable, it.Price))
	}
	if p.FreeCash() < it.Price {
		return r.reject(a, ErrNotEnoughMoney)
	}

	r.assign(p, it, it.Price)
	r.advanceTurn()
	r.resolveItems()
	return nil
}

func (r *StartRound) processBid(a action.Bid) error {
	if r.pending != nil {
		return r.reject(a, ErrWrongStep)
	}

	var p *corp.Player
	var it *StartItem
	if r.auction != nil {
		p = r.s.PlayerByIndex(r.auctionTurn)
		if a.PlayerID != p.ID {
			return r.reject(a, ErrNotYourTurn)
		}
		if a.ItemIndex != r.auction.Index {
			return r.reject(a, ErrItemUnavailable)
		}
		it = r.auction
	} else {
		p = r.current()
		if a.PlayerID != p.ID {
			return r.reject(a, ErrNotYourTurn)
		}
		var err error
		if it, err = r.item(a.ItemIndex); err != nil {
			return r.reject(a, err)
		}
		if it.Status != ItemBiddable {
			return r.reject(a, ErrItemUnavailable)
		}
	}
	if min := it.minBid(); a.Amount < min {
		return r.reject(a, fmt.Errorf("%w: minimum is %d", ErrBidTooLow, min))
	}
	prev := it.Bids[p.ID]
	if p.FreeCash()+prev < a.Amount {
		return r.reject(a, ErrNotEnoughMoney)
	}

	r.s.Moves.Begin(a.String())
	before := it.snapshot()
	p.UnblockCash(prev)
	if err := p.BlockCash(a.Amount); err != nil {
		// validation above guarantees this cannot happen
		panic(err)
	}
	it.Bids[p.ID] = a.Amount
	delete(it.Passed, p.ID)
	after := it.snapshot()
	r.s.Moves.Add(&moves.Func{
		DoFn:   func() { it.restore(after) },
		UndoFn: func() { it.restore(before) },
		Label:  a.String(),
	})
	r.s.Report.Printf("%s bids %d on %s", p.Name(), a.Amount, it.Name())

	if r.auction != nil {
		r.auctionTurn = r.nextBidder(p.Index)
	} else {
		r.passes = 0
		r.advanceTurn()
	}
	r.resolveItems()
	return nil
}

func (r *StartRound) processPass(a action.Pass) error {
	if r.pending != nil {
		return r.reject(a, ErrWrongStep)
	}

	if it := r.auction; it != nil {
		p := r.s.PlayerByIndex(r.auctionTurn)
		if a.ActorID != p.ID {
			return r.reject(a, ErrNotYourTurn)
		}
		r.s.Moves.Begin(a.String())
		before := it.snapshot()
		it.Passed[p.ID] = true
		p.UnblockCash(it.Bids[p.ID])
		after := it.snapshot()
		r.s.Moves.Add(&moves.Func{
			DoFn:   func() { it.restore(after) },
			UndoFn: func() { it.restore(before) },
			Label:  a.String(),
		})
		r.s.Report.Printf("%s drops out of the auction for %s", p.Name(), it.Name())
		r.auctionTurn = r.nextBidder(p.Index)
		r.settleAuction()
		r.resolveItems()
		return nil
	}

	p := r.current()
	if a.ActorID != p.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	r.s.Moves.Begin(a.String())
	r.passes++
	r.s.Report.Printf("%s passes", p.Name())
	r.advanceTurn()

	if r.passes >= r.s.NumPlayers() {
		r.passes = 0
		it := r.packet.FirstUnsold()
		if len(it.Bids) == 0 {
			before := it.snapshot()
			it.Price -= priceDecrement
			if it.Price < 0 {
				it.Price = 0
			}
			after := it.snapshot()
			r.s.Moves.Add(&moves.Func{
				DoFn:   func() { it.restore(after) },
				UndoFn: func() { it.restore(before) },
				Label:  it.Name() + " price cut",
			})
			r.s.Report.Printf("all players pass; %s drops to %d", it.Name(), it.Price)
			if it.Price == 0 {
				r.assign(r.current(), it, 0)
				r.advanceTurn()
			}
		}
	}
	r.resolveItems()
	return nil
}

func (r *StartRound) processSetSharePrice(a action.SetSharePrice) error {
	if r.pending == nil {
		return r.reject(a, ErrWrongStep)
	}
	if a.PlayerID != r.pendingBuyer.ID {
		return r.reject(a, ErrNotYourTurn)
	}
	companyID := r.pending.Certificate.CompanyID
	if a.CompanyID != companyID {
		return r.reject(a, ErrUnknownCompany)
	}
	c, err := r.s.Company(companyID)
	if err != nil {
		return r.reject(a, err)
	}
	space, err := parSpaceAt(r.s.Market, a.Price)
	if err != nil {
		return r.reject(a, err)
	}

	r.s.Moves.Begin(a.String())
	c.Start(r.s.Moves, space)
	it := r.pending
	before := it.snapshot()
	it.Status = ItemSold
	after := it.snapshot()
	r.s.Moves.Add(&moves.Func{
		DoFn:   func() { it.restore(after) },
		UndoFn: func() { it.restore(before) },
		Label:  it.Name() + " sold",
	})
	r.pending, r.pendingBuyer = nil, nil
	r.s.Report.Printf("%s starts at a par price of %d", c.Name(), space.Price)
	r.resolveItems()
	return nil
}

func (r *StartRound) advanceTurn() {
	r.turn = r.s.PlayerByIndex(r.turn + 1).Index
}

// parSpaceAt resolves a price to a par space on the market.
func parSpaceAt(m *market.Market, price int) (*market.Space, error) {
	for _, sp := range m.ParSpaces() {
		if sp.Price == price {
			return sp, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrPriceNotPar, price)
}
