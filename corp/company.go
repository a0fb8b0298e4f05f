package corp

import (
	"errors"
	"fmt"

	"trunkline/market"
	"trunkline/moves"
)

var (
	ErrShareSum        = errors.New("certificate shares do not sum to 100%")
	ErrNoPresidentCert = errors.New("company has no president certificate")
)

// PublicCompany is a share company: capitalization, treasury, base tokens,
// trains and loans. Stock state lives on the market as space references.
type PublicCompany struct {
	ID   string
	name string

	ShareUnit    int // percent per share unit
	FloatPercent int // percent sold from IPO required to float

	treasury int

	Par   *market.Space
	Price *market.Space

	Started  bool
	Floated  bool
	Operated bool
	Closed   bool

	HomeHex  string
	HomeCity int // 0 = any city on the home hex
	DestHex  string

	TokensTotal int
	TokensUsed  int
	// TokenCosts is indexed by the number of tokens already laid; the last
	// entry repeats. The home token is entry zero.
	TokenCosts []int

	Loans     int
	LoanValue int
	MaxLoans  int

	// CanHoldOwnShares enables treasury share trading, bounded by
	// MaxOwnShare percent.
	CanHoldOwnShares bool
	MaxOwnShare      int

	// ForcedAllocation forces every dividend to one allocation ("split" or
	// "withhold"); empty means the president chooses.
	ForcedAllocation string
	// PoolPaysToCompany redirects the dividend on pool-held shares into
	// the treasury instead of skipping them.
	PoolPaysToCompany bool

	// ExtraTileLays adds to the phase's per-colour lay allowance, keyed by
	// colour name.
	ExtraTileLays map[string]int

	Portfolio *Portfolio
	certs     []*Certificate
}

func NewPublicCompany(id, name string, shareUnit int) *PublicCompany {
	c := &PublicCompany{
		ID:           id,
		name:         name,
		ShareUnit:    shareUnit,
		FloatPercent: 60,
		TokensTotal:  1,
		TokenCosts:   []int{0},
		MaxOwnShare:  50,
	}
	c.Portfolio = NewPortfolio(CompanyOwner, id, name+" treasury")
	return c
}

func (c *PublicCompany) Name() string { return c.name }

func (c *PublicCompany) Cash() int { return c.treasury }

func (c *PublicCompany) AddCash(amount int) { c.treasury += amount }

// SetCertificates registers the company's full certificate set and places
// it in the given portfolio (normally the bank IPO). Certificate shares
// must sum to exactly 100% and include exactly one president certificate.
func (c *PublicCompany) SetCertificates(certs []*Certificate, into *Portfolio) error {
	units, presidents := 0, 0
	for _, cert := range certs {
		if cert.CompanyID != c.ID {
			return fmt.Errorf("certificate %s does not belong to %s", cert.ID, c.ID)
		}
		units += cert.Shares
		if cert.President {
			presidents++
		}
	}
	if units*c.ShareUnit != 100 {
		return fmt.Errorf("%s: %d units of %d%%: %w", c.ID, units, c.ShareUnit, ErrShareSum)
	}
	if presidents != 1 {
		return fmt.Errorf("%s has %d president certificates: %w", c.ID, presidents, ErrNoPresidentCert)
	}
	c.certs = certs
	for _, cert := range certs {
		into.addCert(cert)
	}
	return nil
}

// Certificates returns every certificate of the company, wherever held.
func (c *PublicCompany) Certificates() []*Certificate {
	return append([]*Certificate(nil), c.certs...)
}

func (c *PublicCompany) NumShares() int {
	if c.ShareUnit == 0 {
		return 0
	}
	return 100 / c.ShareUnit
}

// PercentOf converts a certificate to its share percentage.
func (c *PublicCompany) PercentOf(cert *Certificate) int {
	return cert.Shares * c.ShareUnit
}

func (c *PublicCompany) PresidentCert() *Certificate {
	for _, cert := range c.certs {
		if cert.President {
			return cert
		}
	}
	return nil
}

// President returns the player ID of the current president: the holder of
// the president certificate. Empty until the company is started or if the
// certificate sits in a bank pool.
func (c *PublicCompany) President() string {
	cert := c.PresidentCert()
	if cert == nil || cert.Holder == nil {
		return ""
	}
	if cert.Holder.OwnerKind != PlayerOwner {
		return ""
	}
	return cert.Holder.OwnerID
}

// PercentSoldFrom reports how much of the company has left the given
// initial offering portfolio.
func (c *PublicCompany) PercentSoldFrom(ipo *Portfolio) int {
	return 100 - ipo.UnitsOf(c.ID)*c.ShareUnit
}

// ShouldFloat reports whether enough shares have sold for flotation.
func (c *PublicCompany) ShouldFloat(ipo *Portfolio) bool {
	return c.Started && !c.Floated && c.PercentSoldFrom(ipo) >= c.FloatPercent
}

func (c *PublicCompany) FreeTokens() int { return c.TokensTotal - c.TokensUsed }

// NextTokenCost is the cost of laying the company's next base token.
func (c *PublicCompany) NextTokenCost() int {
	if len(c.TokenCosts) == 0 {
		return 0
	}
	i := c.TokensUsed
	if i >= len(c.TokenCosts) {
		i = len(c.TokenCosts) - 1
	}
	return c.TokenCosts[i]
}

// HasTrains reports whether the company owns any train.
func (c *PublicCompany) HasTrains() bool { return c.Portfolio.TrainCount() > 0 }

// startMove flips a company to started with its par space set.
type startMove struct {
	company  *PublicCompany
	par      *market.Space
	oldStart bool
	oldPar   *market.Space
	oldPrice *market.Space
}

func (m *startMove) Do() {
	m.company.Started = true
	m.company.Par = m.par
	m.company.Price = m.par
}

func (m *startMove) Undo() {
	m.company.Started = m.oldStart
	m.company.Par = m.oldPar
	m.company.Price = m.oldPrice
}

func (m *startMove) String() string {
	return fmt.Sprintf("%s started at %s", m.company.ID, m.par)
}

// Start records the company starting at the given par price.
func (c *PublicCompany) Start(stack *moves.Stack, par *market.Space) {
	stack.Add(&startMove{
		company:  c,
		par:      par,
		oldStart: c.Started,
		oldPar:   c.Par,
		oldPrice: c.Price,
	})
}

// priceMove shifts the company's market token.
type priceMove struct {
	company  *PublicCompany
	from, to *market.Space
}

func (m *priceMove) Do()   { m.company.Price = m.to }
func (m *priceMove) Undo() { m.company.Price = m.from }
func (m *priceMove) String() string {
	return fmt.Sprintf("%s price %s -> %s", m.company.ID, m.from, m.to)
}

// MovePrice records a market token movement.
func (c *PublicCompany) MovePrice(stack *moves.Stack, to *market.Space) {
	if to == c.Price {
		return
	}
	stack.Add(&priceMove{company: c, from: c.Price, to: to})
}
