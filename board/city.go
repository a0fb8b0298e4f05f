package board

// City is a station instantiated on a map hex. Number identifies the
// station on the current tile (1-based); it is re-assigned on upgrades.
// Tokens holds the IDs of the companies with a base token here, in the
// order they were laid.
type City struct {
	Number int
	Slots  int
	Value  int
	Tokens []string
}

func (c *City) FreeSlots() int {
	n := c.Slots - len(c.Tokens)
	if n < 0 {
		return 0
	}
	return n
}

func (c *City) HasFreeSlot() bool { return c.FreeSlots() > 0 }

func (c *City) HasToken(companyID string) bool {
	for _, id := range c.Tokens {
		if id == companyID {
			return true
		}
	}
	return false
}

func (c *City) AddToken(companyID string) {
	c.Tokens = append(c.Tokens, companyID)
}

func (c *City) RemoveToken(companyID string) bool {
	for i, id := range c.Tokens {
		if id == companyID {
			c.Tokens = append(c.Tokens[:i], c.Tokens[i+1:]...)
			return true
		}
	}
	return false
}

func (c *City) copy() *City {
	dup := &City{Number: c.Number, Slots: c.Slots, Value: c.Value}
	dup.Tokens = append([]string(nil), c.Tokens...)
	return dup
}
