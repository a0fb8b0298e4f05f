package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline/action"
	utils "trunkline/internal"
)

func TestStartRoundBuyFirstItem(t *testing.T) {
	s := withTestPacket(newTestSession(t))
	r := NewStartRound(s, nil)

	t.Log("Given a fresh packet, every private sits in the bank IPO")
	for _, p := range s.Privates {
		require.True(t, s.Bank.IPO.ContainsPrivate(p), "%s not in the IPO", p.ID)
	}

	t.Log("The priority player may buy the first item or bid on the rest")
	menu := r.SetPossibleActions()
	assert.True(t, menu.Contains(action.BuyStartItem{PlayerID: "alice", ItemIndex: 0, Price: 20}))
	assert.True(t, menu.HasKind(action.KindBid))
	assert.True(t, menu.Contains(action.Pass{ActorID: "alice"}))

	t.Log("When Alice buys the Schuylkill Valley")
	utils.AssertNoError(t, r.Process(action.BuyStartItem{PlayerID: "alice", ItemIndex: 0, Price: 20}))

	alice, _ := s.Player("alice")
	utils.AssertEqual(t, alice.Cash(), 580)
	assert.True(t, alice.Portfolio.ContainsPrivate(s.Privates["SV"]))
	assert.False(t, s.Bank.IPO.ContainsPrivate(s.Privates["SV"]))
	utils.AssertEqual(t, s.Packet.Items[0].Status, ItemSold)

	t.Log("Then the turn passes to Bob")
	err := r.Process(action.BuyStartItem{PlayerID: "carol", ItemIndex: 1, Price: 40})
	utils.AssertErrorIs(t, err, ErrNotYourTurn)
}

func TestStartRoundRejectsWithoutMutating(t *testing.T) {
	s := withTestPacket(newTestSession(t))
	r := NewStartRound(s, nil)

	alice, _ := s.Player("alice")
	before := alice.Cash()
	depth := s.Moves.Depth()

	t.Log("A bid below the minimum is rejected and changes nothing")
	err := r.Process(action.Bid{PlayerID: "alice", ItemIndex: 1, Amount: 40})
	utils.AssertErrorIs(t, err, ErrBidTooLow)
	utils.AssertEqual(t, alice.Cash(), before)
	utils.AssertEqual(t, alice.BlockedCash(), 0)
	utils.AssertEqual(t, s.Moves.Depth(), depth)
}

func TestStartRoundSingleBidConverts(t *testing.T) {
	s := withTestPacket(newTestSession(t))
	r := NewStartRound(s, nil)

	t.Log("Alice bids on the second item; her cash is blocked")
	utils.AssertNoError(t, r.Process(action.Bid{PlayerID: "alice", ItemIndex: 1, Amount: 45}))
	alice, _ := s.Player("alice")
	utils.AssertEqual(t, alice.BlockedCash(), 45)

	t.Log("When Bob buys the first item, the lone bid converts without an auction")
	utils.AssertNoError(t, r.Process(action.BuyStartItem{PlayerID: "bob", ItemIndex: 0, Price: 20}))

	assert.True(t, alice.Portfolio.ContainsPrivate(s.Privates["CS"]))
	utils.AssertEqual(t, alice.Cash(), 555)
	utils.AssertEqual(t, alice.BlockedCash(), 0)
	utils.AssertEqual(t, s.Packet.Items[1].Status, ItemSold)
}

func TestStartRoundAuction(t *testing.T) {
	s := withTestPacket(newTestSession(t))
	r := NewStartRound(s, nil)

	t.Log("Alice and Bob both bid on the second item")
	utils.AssertNoError(t, r.Process(action.Bid{PlayerID: "alice", ItemIndex: 1, Amount: 45}))
	utils.AssertNoError(t, r.Process(action.Bid{PlayerID: "bob", ItemIndex: 1, Amount: 50}))

	t.Log("When Carol buys the first item, the contested item goes to auction")
	utils.AssertNoError(t, r.Process(action.BuyStartItem{PlayerID: "carol", ItemIndex: 0, Price: 20}))
	utils.AssertEqual(t, s.Packet.Items[1].Status, ItemAuctioned)

	t.Log("The under-bidder passes and the high bidder wins at their bid")
	utils.AssertNoError(t, r.Process(action.Pass{ActorID: "alice"}))

	bob, _ := s.Player("bob")
	alice, _ := s.Player("alice")
	assert.True(t, bob.Portfolio.ContainsPrivate(s.Privates["CS"]))
	utils.AssertEqual(t, bob.Cash(), 550)
	utils.AssertEqual(t, bob.BlockedCash(), 0)
	utils.AssertEqual(t, alice.BlockedCash(), 0)
}

func TestStartRoundAllPassCutsPrice(t *testing.T) {
	s := withTestPacket(newTestSession(t))
	r := NewStartRound(s, nil)

	pass := func(id string) {
		utils.AssertNoError(t, r.Process(action.Pass{ActorID: id}))
	}

	t.Log("A full table of passes knocks 5 off the first item")
	pass("alice")
	pass("bob")
	pass("carol")
	utils.AssertEqual(t, s.Packet.Items[0].Price, 15)

	t.Log("Repeated passing drives the price to zero and forces a free assignment")
	for i := 0; i < 3; i++ {
		pass("alice")
		pass("bob")
		pass("carol")
	}
	alice, _ := s.Player("alice")
	utils.AssertEqual(t, s.Packet.Items[0].Status, ItemSold)
	assert.True(t, alice.Portfolio.ContainsPrivate(s.Privates["SV"]))
	utils.AssertEqual(t, alice.Cash(), 600)
}

func TestStartRoundNeedsSharePrice(t *testing.T) {
	s := withTestPacket(newTestSession(t))
	r := NewStartRound(s, nil)

	t.Log("Alice bids on the item that bundles the PRR presidency")
	utils.AssertNoError(t, r.Process(action.Bid{PlayerID: "alice", ItemIndex: 2, Amount: 115}))
	utils.AssertNoError(t, r.Process(action.BuyStartItem{PlayerID: "bob", ItemIndex: 0, Price: 20}))
	utils.AssertNoError(t, r.Process(action.BuyStartItem{PlayerID: "carol", ItemIndex: 1, Price: 40}))

	t.Log("Her lone bid converts, but the sale waits on a par price")
	utils.AssertEqual(t, s.Packet.Items[2].Status, ItemNeedsSharePrice)
	menu := r.SetPossibleActions()
	require.False(t, menu.Empty())
	for _, a := range menu.Actions() {
		utils.AssertEqual(t, a.Kind(), action.KindSetSharePrice)
	}

	t.Log("Nobody else may set it")
	err := r.Process(action.SetSharePrice{PlayerID: "bob", CompanyID: "PRR", Price: 82})
	utils.AssertErrorIs(t, err, ErrNotYourTurn)

	t.Log("A non-par price is rejected")
	err = r.Process(action.SetSharePrice{PlayerID: "alice", CompanyID: "PRR", Price: 70})
	utils.AssertErrorIs(t, err, ErrPriceNotPar)

	t.Log("Setting the price starts the company and ends the round")
	utils.AssertNoError(t, r.Process(action.SetSharePrice{PlayerID: "alice", CompanyID: "PRR", Price: 82}))

	prr := s.Companies["PRR"]
	alice, _ := s.Player("alice")
	assert.True(t, prr.Started)
	utils.AssertEqual(t, prr.Par.Price, 82)
	utils.AssertEqual(t, prr.President(), "alice")
	utils.AssertEqual(t, alice.Cash(), 485)
	assert.True(t, r.Finished())
	checkShareInvariant(t, s)
}

func TestStartRoundMenuIsIdempotent(t *testing.T) {
	s := withTestPacket(newTestSession(t))
	r := NewStartRound(s, nil)

	first := r.SetPossibleActions()
	second := r.SetPossibleActions()
	assert.True(t, first.Equal(second))
}
