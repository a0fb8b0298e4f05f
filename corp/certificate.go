package corp

import "fmt"

// Certificate is a tradeable unit of share ownership in a public company.
// Shares is measured in share units (a 10%-unit company has 10 units in
// total; its 20% president certificate has Shares == 2).
type Certificate struct {
	ID        string
	CompanyID string
	Shares    int
	President bool

	Holder *Portfolio
}

func (c *Certificate) String() string {
	if c.President {
		return fmt.Sprintf("%s president certificate", c.CompanyID)
	}
	return fmt.Sprintf("%s certificate %s", c.CompanyID, c.ID)
}
