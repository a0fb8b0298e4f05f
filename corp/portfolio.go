package corp

// OwnerKind distinguishes the three kinds of portfolio owner.
type OwnerKind string

const (
	PlayerOwner  OwnerKind = "player"
	CompanyOwner OwnerKind = "company"
	BankOwner    OwnerKind = "bank"
)

// Portfolio is an exclusively-owned collection of certificates, private
// companies and trains. Every item belongs to exactly one portfolio at a
// time; transfers go through the recorded transfer moves and are atomic.
type Portfolio struct {
	OwnerKind OwnerKind
	OwnerID   string
	Label     string

	certs    []*Certificate
	privates []*PrivateCompany
	trains   []*Train
}

func NewPortfolio(kind OwnerKind, ownerID, label string) *Portfolio {
	return &Portfolio{OwnerKind: kind, OwnerID: ownerID, Label: label}
}

func (p *Portfolio) String() string { return p.Label }

func (p *Portfolio) Certificates() []*Certificate {
	return append([]*Certificate(nil), p.certs...)
}

// CertificatesOf returns the certificates of one company held here.
func (p *Portfolio) CertificatesOf(companyID string) []*Certificate {
	var out []*Certificate
	for _, c := range p.certs {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out
}

// UnitsOf is the number of share units of a company held here.
func (p *Portfolio) UnitsOf(companyID string) int {
	units := 0
	for _, c := range p.certs {
		if c.CompanyID == companyID {
			units += c.Shares
		}
	}
	return units
}

// PresidentCertOf returns the president certificate of a company, if held.
func (p *Portfolio) PresidentCertOf(companyID string) *Certificate {
	for _, c := range p.certs {
		if c.CompanyID == companyID && c.President {
			return c
		}
	}
	return nil
}

func (p *Portfolio) Contains(cert *Certificate) bool {
	for _, c := range p.certs {
		if c == cert {
			return true
		}
	}
	return false
}

func (p *Portfolio) Privates() []*PrivateCompany {
	return append([]*PrivateCompany(nil), p.privates...)
}

func (p *Portfolio) ContainsPrivate(pc *PrivateCompany) bool {
	for _, held := range p.privates {
		if held == pc {
			return true
		}
	}
	return false
}

func (p *Portfolio) Trains() []*Train {
	return append([]*Train(nil), p.trains...)
}

func (p *Portfolio) TrainCount() int { return len(p.trains) }

// TrainsOfType returns held trains of the named type.
func (p *Portfolio) TrainsOfType(typeName string) []*Train {
	var out []*Train
	for _, tr := range p.trains {
		if tr.Type.Name == typeName {
			out = append(out, tr)
		}
	}
	return out
}

func (p *Portfolio) addCert(c *Certificate) {
	p.certs = append(p.certs, c)
	c.Holder = p
}

func (p *Portfolio) removeCert(c *Certificate) bool {
	for i, held := range p.certs {
		if held == c {
			p.certs = append(p.certs[:i], p.certs[i+1:]...)
			if c.Holder == p {
				c.Holder = nil
			}
			return true
		}
	}
	return false
}

func (p *Portfolio) addPrivate(pc *PrivateCompany) {
	p.privates = append(p.privates, pc)
	pc.Holder = p
}

func (p *Portfolio) removePrivate(pc *PrivateCompany) bool {
	for i, held := range p.privates {
		if held == pc {
			p.privates = append(p.privates[:i], p.privates[i+1:]...)
			if pc.Holder == p {
				pc.Holder = nil
			}
			return true
		}
	}
	return false
}

func (p *Portfolio) addTrain(tr *Train) {
	p.trains = append(p.trains, tr)
	tr.Holder = p
}

func (p *Portfolio) removeTrain(tr *Train) bool {
	for i, held := range p.trains {
		if held == tr {
			p.trains = append(p.trains[:i], p.trains[i+1:]...)
			if tr.Holder == p {
				tr.Holder = nil
			}
			return true
		}
	}
	return false
}
