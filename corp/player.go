package corp

import "fmt"

// Player is one seat at the table. Players are never destroyed; a player
// who cannot meet a forced payment is flagged bankrupt instead.
type Player struct {
	ID    string
	Index int

	name    string
	cash    int
	blocked int

	Bankrupt  bool
	Portfolio *Portfolio
}

func NewPlayer(id, name string, index, cash int) *Player {
	p := &Player{ID: id, name: name, Index: index, cash: cash}
	p.Portfolio = NewPortfolio(PlayerOwner, id, name)
	return p
}

func (p *Player) Name() string { return p.name }

func (p *Player) Cash() int { return p.cash }

func (p *Player) AddCash(amount int) { p.cash += amount }

// FreeCash is spendable cash: total minus the amount blocked by live bids.
func (p *Player) FreeCash() int { return p.cash - p.blocked }

// BlockCash reserves cash against a bid.
func (p *Player) BlockCash(amount int) error {
	if amount > p.FreeCash() {
		return fmt.Errorf("%s has %d free, cannot block %d", p.name, p.FreeCash(), amount)
	}
	p.blocked += amount
	return nil
}

// UnblockCash releases a bid reservation.
func (p *Player) UnblockCash(amount int) {
	p.blocked -= amount
	if p.blocked < 0 {
		p.blocked = 0
	}
}

func (p *Player) BlockedCash() int { return p.blocked }
