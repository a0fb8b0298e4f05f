package round

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline/action"
	"trunkline/corp"
	utils "trunkline/internal"
)

func TestStockRoundStartCompany(t *testing.T) {
	s := newTestSession(t)
	r := NewStockRound(s, nil)

	t.Log("Given an unstarted company, the menu offers every par price")
	menu := r.SetPossibleActions()
	assert.True(t, menu.Contains(action.StartCompany{PlayerID: "alice", CompanyID: "PRR", Price: 82}))
	assert.True(t, menu.Contains(action.StartCompany{PlayerID: "alice", CompanyID: "PRR", Price: 100}))

	t.Log("When Alice starts the PRR at 82")
	utils.AssertNoError(t, r.Process(action.StartCompany{PlayerID: "alice", CompanyID: "PRR", Price: 82}))

	prr := s.Companies["PRR"]
	alice, _ := s.Player("alice")
	assert.True(t, prr.Started)
	utils.AssertEqual(t, prr.Par.Price, 82)
	utils.AssertEqual(t, prr.President(), "alice")
	utils.AssertEqual(t, alice.Cash(), 600-2*82)

	t.Log("Starting it again is rejected")
	utils.AssertNoError(t, r.Process(action.Done{ActorID: "alice"}))
	err := r.Process(action.StartCompany{PlayerID: "bob", CompanyID: "PRR", Price: 82})
	utils.AssertErrorIs(t, err, ErrCompanyStarted)
}

func TestStockRoundFloatAndCapitalize(t *testing.T) {
	s := newTestSession(t)
	r := NewStockRound(s, nil)

	t.Log("Shares sell round the table until 60% has left the IPO")
	utils.AssertNoError(t, r.Process(action.StartCompany{PlayerID: "alice", CompanyID: "PRR", Price: 82}))
	utils.AssertNoError(t, r.Process(action.Done{ActorID: "alice"}))
	buy := func(id string) {
		utils.AssertNoError(t, r.Process(action.BuyCertificate{PlayerID: id, CompanyID: "PRR", Source: action.FromIPO}))
		utils.AssertNoError(t, r.Process(action.Done{ActorID: id}))
	}
	buy("bob")
	buy("carol")
	buy("alice")
	prr := s.Companies["PRR"]
	assert.False(t, prr.Floated, "50%% sold should not float a 60%% company")

	buy("bob")

	t.Log("Then the company floats with full capitalization")
	assert.True(t, prr.Floated)
	utils.AssertEqual(t, prr.Cash(), 82*10)
	checkShareInvariant(t, s)
}

func TestStockRoundHoldLimit(t *testing.T) {
	s := newTestSession(t)
	alice, _ := s.Player("alice")
	prr := s.Companies["PRR"]
	forceStart(t, s, prr, 82, alice) // 60% held

	r := NewStockRound(s, nil)
	err := r.Process(action.BuyCertificate{PlayerID: "alice", CompanyID: "PRR", Source: action.FromIPO})
	utils.AssertErrorIs(t, err, ErrHoldLimit)
	assert.False(t, r.SetPossibleActions().Contains(
		action.BuyCertificate{PlayerID: "alice", CompanyID: "PRR", Source: action.FromIPO}))
}

func TestStockRoundSellMovesPriceDown(t *testing.T) {
	s := newTestSession(t)
	alice, _ := s.Player("alice")
	bob, _ := s.Player("bob")
	prr := s.Companies["PRR"]
	forceStart(t, s, prr, 82, alice)
	giveCerts(t, s, prr, bob, 2)

	r := NewStockRound(s, nil)
	utils.AssertNoError(t, r.Process(action.Pass{ActorID: "alice"}))

	t.Log("Bob sells both his shares into the pool")
	cash := bob.Cash()
	utils.AssertNoError(t, r.Process(action.SellShares{PlayerID: "bob", CompanyID: "PRR", Units: 2}))

	utils.AssertEqual(t, bob.Cash(), cash+2*82)
	utils.AssertEqual(t, s.Bank.Pool.UnitsOf("PRR"), 2)
	t.Log("The price drops one row per share sold")
	utils.AssertEqual(t, prr.Price.Price, 60) // two rows below 82
	checkShareInvariant(t, s)
}

func TestStockRoundPresidencyDump(t *testing.T) {
	s := newTestSession(t)
	alice, _ := s.Player("alice")
	bob, _ := s.Player("bob")
	prr := s.Companies["PRR"]

	sp, _ := parSpaceAt(s.Market, 82)
	s.Moves.Begin("fixture")
	prr.Start(s.Moves, sp)
	prr.Floated = true
	// Alice: president certificate plus three commons (50%); Bob: 30%
	corp.MoveCert(s.Moves, prr.PresidentCert(), alice.Portfolio)
	giveCerts(t, s, prr, alice, 5)
	giveCerts(t, s, prr, bob, 3)

	r := NewStockRound(s, nil)

	t.Log("Selling past the president certificate swaps it to the biggest holder")
	utils.AssertNoError(t, r.Process(action.SellShares{PlayerID: "alice", CompanyID: "PRR", Units: 5}))

	assert.NotNil(t, bob.Portfolio.PresidentCertOf("PRR"))
	assert.Nil(t, alice.Portfolio.PresidentCertOf("PRR"))
	utils.AssertEqual(t, prr.President(), "bob")
	utils.AssertEqual(t, s.Bank.Pool.UnitsOf("PRR"), 5)
	utils.AssertEqual(t, alice.Portfolio.UnitsOf("PRR"), 0)
	checkShareInvariant(t, s)
}

func TestStockRoundCannotDump(t *testing.T) {
	s := newTestSession(t)
	alice, _ := s.Player("alice")
	prr := s.Companies["PRR"]

	sp, _ := parSpaceAt(s.Market, 82)
	s.Moves.Begin("fixture")
	prr.Start(s.Moves, sp)
	prr.Floated = true
	corp.MoveCert(s.Moves, prr.PresidentCert(), alice.Portfolio)
	giveCerts(t, s, prr, alice, 3)
	// nobody else holds 20%, so the president certificate is stuck

	r := NewStockRound(s, nil)
	err := r.Process(action.SellShares{PlayerID: "alice", CompanyID: "PRR", Units: 3})
	utils.AssertErrorIs(t, err, ErrCannotDump)

	t.Log("The common share above the president certificate still sells")
	utils.AssertNoError(t, r.Process(action.SellShares{PlayerID: "alice", CompanyID: "PRR", Units: 1}))
	utils.AssertEqual(t, alice.Portfolio.UnitsOf("PRR"), 2)
}

func TestStockRoundSaleMatchesRequestedUnits(t *testing.T) {
	s := newTestSession(t)
	alice, _ := s.Player("alice")

	// a company whose certificate set includes a double-unit common
	bnd := corp.NewPublicCompany("BND", "Bandon & Western", 10)
	certs := []*corp.Certificate{
		{ID: "BND-pres", CompanyID: "BND", Shares: 2, President: true},
		{ID: "BND-d", CompanyID: "BND", Shares: 2},
	}
	for i := 1; i <= 6; i++ {
		certs = append(certs, &corp.Certificate{ID: fmt.Sprintf("BND-%d", i), CompanyID: "BND", Shares: 1})
	}
	require.NoError(t, bnd.SetCertificates(certs, s.Bank.IPO))
	s.Companies["BND"] = bnd
	s.CompanyOrder = append(s.CompanyOrder, "BND")

	var double, single *corp.Certificate
	for _, cert := range s.Bank.IPO.CertificatesOf("BND") {
		switch {
		case cert.President:
		case cert.Shares == 2:
			double = cert
		case single == nil:
			single = cert
		}
	}

	sp, _ := parSpaceAt(s.Market, 82)
	s.Moves.Begin("fixture")
	bnd.Start(s.Moves, sp)
	bnd.Floated = true
	corp.MoveCert(s.Moves, bnd.PresidentCert(), alice.Portfolio)
	corp.MoveCert(s.Moves, double, alice.Portfolio)
	corp.MoveCert(s.Moves, single, alice.Portfolio)

	r := NewStockRound(s, nil)

	t.Log("Selling one unit must not sweep the double certificate into the pool")
	utils.AssertNoError(t, r.Process(action.SellShares{PlayerID: "alice", CompanyID: "BND", Units: 1}))

	utils.AssertEqual(t, s.Bank.Pool.UnitsOf("BND"), 1)
	utils.AssertEqual(t, alice.Portfolio.UnitsOf("BND"), 4)
	assert.True(t, alice.Portfolio.Contains(double))
	utils.AssertEqual(t, alice.Cash(), 682)
	checkShareInvariant(t, s)
}

func TestStockRoundSequenceRuleSellBuy(t *testing.T) {
	s := newTestSession(t)
	s.SequenceRule = SellBuy
	alice, _ := s.Player("alice")
	prr := s.Companies["PRR"]
	forceStart(t, s, prr, 82, alice)

	r := NewStockRound(s, nil)
	utils.AssertNoError(t, r.Process(action.StartCompany{PlayerID: "alice", CompanyID: "NYC", Price: 82}))

	t.Log("Under sell-buy, selling after the purchase is rejected")
	err := r.Process(action.SellShares{PlayerID: "alice", CompanyID: "PRR", Units: 1})
	utils.AssertErrorIs(t, err, ErrSellBeforeBuy)
}

func TestStockRoundSequenceRuleSellBuyOrBuySell(t *testing.T) {
	t.Run("selling before the buy commits to sell-then-buy", func(t *testing.T) {
		s := newTestSession(t)
		s.SequenceRule = SellBuyOrBuySell
		alice, _ := s.Player("alice")
		prr := s.Companies["PRR"]
		forceStart(t, s, prr, 82, alice)

		r := NewStockRound(s, nil)
		utils.AssertNoError(t, r.Process(action.SellShares{PlayerID: "alice", CompanyID: "PRR", Units: 1}))
		utils.AssertNoError(t, r.Process(action.StartCompany{PlayerID: "alice", CompanyID: "NYC", Price: 82}))

		err := r.Process(action.SellShares{PlayerID: "alice", CompanyID: "PRR", Units: 1})
		utils.AssertErrorIs(t, err, ErrSellBeforeBuy)
	})

	t.Run("buying first leaves the whole sell block open", func(t *testing.T) {
		s := newTestSession(t)
		s.SequenceRule = SellBuyOrBuySell
		alice, _ := s.Player("alice")
		prr := s.Companies["PRR"]
		forceStart(t, s, prr, 82, alice)

		r := NewStockRound(s, nil)
		utils.AssertNoError(t, r.Process(action.StartCompany{PlayerID: "alice", CompanyID: "NYC", Price: 82}))
		utils.AssertNoError(t, r.Process(action.SellShares{PlayerID: "alice", CompanyID: "PRR", Units: 1}))
		utils.AssertNoError(t, r.Process(action.SellShares{PlayerID: "alice", CompanyID: "PRR", Units: 1}))

		utils.AssertEqual(t, alice.Portfolio.UnitsOf("PRR"), 4)
	})
}

func TestStockRoundSoldOutPriceRises(t *testing.T) {
	s := newTestSession(t)
	alice, _ := s.Player("alice")
	bob, _ := s.Player("bob")
	prr := s.Companies["PRR"]
	forceStart(t, s, prr, 82, alice)
	giveCerts(t, s, prr, bob, 4) // all ten units now player-held

	r := NewStockRound(s, nil)
	utils.AssertNoError(t, r.Process(action.Pass{ActorID: "alice"}))
	utils.AssertNoError(t, r.Process(action.Pass{ActorID: "bob"}))
	utils.AssertNoError(t, r.Process(action.Pass{ActorID: "carol"}))

	assert.True(t, r.Finished())
	t.Log("A sold-out company's price rises at the end of the round")
	utils.AssertEqual(t, prr.Price.Price, 90)
}

func TestStockRoundEndsAfterFullTableOfPasses(t *testing.T) {
	s := newTestSession(t)
	r := NewStockRound(s, nil)

	for _, id := range []string{"alice", "bob", "carol"} {
		assert.False(t, r.Finished())
		utils.AssertNoError(t, r.Process(action.Pass{ActorID: id}))
	}
	assert.True(t, r.Finished())
}

func TestStockRoundMenuIsIdempotent(t *testing.T) {
	s := newTestSession(t)
	alice, _ := s.Player("alice")
	forceStart(t, s, s.Companies["PRR"], 82, alice)

	r := NewStockRound(s, nil)
	assert.True(t, r.SetPossibleActions().Equal(r.SetPossibleActions()))
}
