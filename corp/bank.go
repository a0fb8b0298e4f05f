package corp

// Bank holds the game's cash reserve and the four special portfolios:
// IPO (unissued shares and new trains), Pool (publicly resellable shares
// and used trains), Unavailable (not yet tradeable) and ScrapHeap
// (discarded certificates and rusted trains).
type Bank struct {
	cash int

	IPO         *Portfolio
	Pool        *Portfolio
	Unavailable *Portfolio
	ScrapHeap   *Portfolio
}

func NewBank(cash int) *Bank {
	return &Bank{
		cash:        cash,
		IPO:         NewPortfolio(BankOwner, "ipo", "IPO"),
		Pool:        NewPortfolio(BankOwner, "pool", "Pool"),
		Unavailable: NewPortfolio(BankOwner, "unavailable", "Unavailable"),
		ScrapHeap:   NewPortfolio(BankOwner, "scrap", "Scrap Heap"),
	}
}

func (b *Bank) Name() string { return "Bank" }

func (b *Bank) Cash() int { return b.cash }

// AddCash may take the bank negative; a broken bank ends the game but
// never refuses to pay.
func (b *Bank) AddCash(amount int) { b.cash += amount }

// Broken reports whether the bank has run out of cash.
func (b *Bank) Broken() bool { return b.cash <= 0 }

// Pools returns the bank portfolios that represent the open market side
// of share trades.
func (b *Bank) Pools() []*Portfolio {
	return []*Portfolio{b.IPO, b.Pool, b.Unavailable, b.ScrapHeap}
}

// IsPool reports whether a portfolio is one of the bank pools.
func (b *Bank) IsPool(p *Portfolio) bool {
	return p == b.IPO || p == b.Pool || p == b.Unavailable || p == b.ScrapHeap
}
