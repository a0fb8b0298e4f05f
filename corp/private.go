package corp

// PrivateCompany is a single-certificate company from the start packet.
// It pays fixed revenue to its holder each operating round until closed.
type PrivateCompany struct {
	ID        string
	Name      string
	BasePrice int
	Revenue   int
	// ClosesInPhase names the phase on whose arrival the private folds.
	ClosesInPhase string
	// BlocksHex names a hex no tile may be laid on while the private is open.
	BlocksHex string
	// ExtraTileLayHexes grants the owning company a free extra tile lay on
	// these hexes, exempt from the per-turn colour quota.
	ExtraTileLayHexes []string

	Holder *Portfolio
	Closed bool
}

func (p *PrivateCompany) String() string { return p.Name }

// PlaceIn puts an unowned private into a portfolio at setup. All later
// ownership changes go through MovePrivate.
func (p *PrivateCompany) PlaceIn(into *Portfolio) {
	into.addPrivate(p)
}

// GrantsExtraLayOn reports whether the private's special property covers
// the hex.
func (p *PrivateCompany) GrantsExtraLayOn(hexName string) bool {
	if p.Closed {
		return false
	}
	for _, h := range p.ExtraTileLayHexes {
		if h == hexName {
			return true
		}
	}
	return false
}
