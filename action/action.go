package action

import "fmt"

// Kind discriminates the action variants. The server boundary uses it to
// decode payloads; rounds dispatch on the concrete type.
type Kind string

const (
	KindBid                Kind = "bid"
	KindBuyStartItem       Kind = "buy_start_item"
	KindSetSharePrice      Kind = "set_share_price"
	KindStartCompany       Kind = "start_company"
	KindBuyCertificate     Kind = "buy_certificate"
	KindSellShares         Kind = "sell_shares"
	KindLayTile            Kind = "lay_tile"
	KindLayBaseToken       Kind = "lay_base_token"
	KindSetRevenue         Kind = "set_revenue"
	KindBuyTrain           Kind = "buy_train"
	KindDiscardTrain       Kind = "discard_train"
	KindTakeLoans          Kind = "take_loans"
	KindRepayLoans         Kind = "repay_loans"
	KindBuyTreasuryShares  Kind = "buy_treasury_shares"
	KindSellTreasuryShares Kind = "sell_treasury_shares"
	KindPass               Kind = "pass"
	KindDone               Kind = "done"
	KindSkip               Kind = "skip"
)

// Action is one discrete externally-submitted game action.
type Action interface {
	Kind() Kind
	String() string
}

// Allocation is a dividend allocation.
type Allocation string

const (
	Payout   Allocation = "payout"
	Split    Allocation = "split"
	Withhold Allocation = "withhold"
)

// Bid places or raises a bid on a start packet item.
type Bid struct {
	PlayerID  string `json:"player_id" mapstructure:"player_id"`
	ItemIndex int    `json:"item_index" mapstructure:"item_index"`
	Amount    int    `json:"amount" mapstructure:"amount"`
}

func (a Bid) Kind() Kind { return KindBid }
func (a Bid) String() string {
	return fmt.Sprintf("%s bids %d on item %d", a.PlayerID, a.Amount, a.ItemIndex)
}

// BuyStartItem buys the cheapest unsold start packet item outright.
type BuyStartItem struct {
	PlayerID  string `json:"player_id" mapstructure:"player_id"`
	ItemIndex int    `json:"item_index" mapstructure:"item_index"`
	Price     int    `json:"price" mapstructure:"price"`
}

func (a BuyStartItem) Kind() Kind { return KindBuyStartItem }
func (a BuyStartItem) String() string {
	return fmt.Sprintf("%s buys item %d for %d", a.PlayerID, a.ItemIndex, a.Price)
}

// SetSharePrice fixes the par price owed after winning a start item that
// includes a president certificate.
type SetSharePrice struct {
	PlayerID  string `json:"player_id" mapstructure:"player_id"`
	CompanyID string `json:"company_id" mapstructure:"company_id"`
	Price     int    `json:"price" mapstructure:"price"`
}

func (a SetSharePrice) Kind() Kind { return KindSetSharePrice }
func (a SetSharePrice) String() string {
	return fmt.Sprintf("%s sets par of %s to %d", a.PlayerID, a.CompanyID, a.Price)
}

// StartCompany buys the president certificate from the IPO, setting par.
type StartCompany struct {
	PlayerID  string `json:"player_id" mapstructure:"player_id"`
	CompanyID string `json:"company_id" mapstructure:"company_id"`
	Price     int    `json:"price" mapstructure:"price"`
}

func (a StartCompany) Kind() Kind { return KindStartCompany }
func (a StartCompany) String() string {
	return fmt.Sprintf("%s starts %s at %d", a.PlayerID, a.CompanyID, a.Price)
}

// Certificate sources for BuyCertificate.
const (
	FromIPO  = "ipo"
	FromPool = "pool"
)

// BuyCertificate buys one certificate from the IPO (at par) or the pool
// (at market price).
type BuyCertificate struct {
	PlayerID  string `json:"player_id" mapstructure:"player_id"`
	CompanyID string `json:"company_id" mapstructure:"company_id"`
	Source    string `json:"source" mapstructure:"source"`
}

func (a BuyCertificate) Kind() Kind { return KindBuyCertificate }
func (a BuyCertificate) String() string {
	return fmt.Sprintf("%s buys %s from %s", a.PlayerID, a.CompanyID, a.Source)
}

// SellShares sells share units of one company into the pool.
type SellShares struct {
	PlayerID  string `json:"player_id" mapstructure:"player_id"`
	CompanyID string `json:"company_id" mapstructure:"company_id"`
	Units     int    `json:"units" mapstructure:"units"`
}

func (a SellShares) Kind() Kind { return KindSellShares }
func (a SellShares) String() string {
	return fmt.Sprintf("%s sells %d unit(s) of %s", a.PlayerID, a.Units, a.CompanyID)
}

// LayTile lays or upgrades a tile on a hex.
type LayTile struct {
	CompanyID string `json:"company_id" mapstructure:"company_id"`
	HexName   string `json:"hex" mapstructure:"hex"`
	TileID    int    `json:"tile_id" mapstructure:"tile_id"`
	Rotation  int    `json:"rotation" mapstructure:"rotation"`
	// Special marks a lay granted by a special property; it is exempt from
	// the per-turn colour quota.
	Special bool `json:"special,omitempty" mapstructure:"special"`
}

func (a LayTile) Kind() Kind { return KindLayTile }
func (a LayTile) String() string {
	return fmt.Sprintf("%s lays tile #%d on %s", a.CompanyID, a.TileID, a.HexName)
}

// LayBaseToken places a base token in a city.
type LayBaseToken struct {
	CompanyID  string `json:"company_id" mapstructure:"company_id"`
	HexName    string `json:"hex" mapstructure:"hex"`
	CityNumber int    `json:"city" mapstructure:"city"`
}

func (a LayBaseToken) Kind() Kind { return KindLayBaseToken }
func (a LayBaseToken) String() string {
	return fmt.Sprintf("%s lays a token on %s city %d", a.CompanyID, a.HexName, a.CityNumber)
}

// SetRevenue submits the company's run revenue and dividend allocation.
type SetRevenue struct {
	CompanyID  string     `json:"company_id" mapstructure:"company_id"`
	Amount     int        `json:"amount" mapstructure:"amount"`
	Allocation Allocation `json:"allocation" mapstructure:"allocation"`
}

func (a SetRevenue) Kind() Kind { return KindSetRevenue }
func (a SetRevenue) String() string {
	return fmt.Sprintf("%s revenue %d, %s", a.CompanyID, a.Amount, a.Allocation)
}

// BuyTrain buys a train from the bank (empty FromCompanyID) or another
// company at a negotiated price.
type BuyTrain struct {
	CompanyID     string `json:"company_id" mapstructure:"company_id"`
	TrainID       string `json:"train_id" mapstructure:"train_id"`
	FromCompanyID string `json:"from_company_id,omitempty" mapstructure:"from_company_id"`
	Price         int    `json:"price" mapstructure:"price"`
	Exchange      bool   `json:"exchange,omitempty" mapstructure:"exchange"`
}

func (a BuyTrain) Kind() Kind { return KindBuyTrain }
func (a BuyTrain) String() string {
	return fmt.Sprintf("%s buys train %s for %d", a.CompanyID, a.TrainID, a.Price)
}

// DiscardTrain discards a train over the limit after a phase change.
type DiscardTrain struct {
	CompanyID string `json:"company_id" mapstructure:"company_id"`
	TrainID   string `json:"train_id" mapstructure:"train_id"`
}

func (a DiscardTrain) Kind() Kind { return KindDiscardTrain }
func (a DiscardTrain) String() string {
	return fmt.Sprintf("%s discards train %s", a.CompanyID, a.TrainID)
}

// TakeLoans takes out company loans.
type TakeLoans struct {
	CompanyID string `json:"company_id" mapstructure:"company_id"`
	Number    int    `json:"number" mapstructure:"number"`
}

func (a TakeLoans) Kind() Kind { return KindTakeLoans }
func (a TakeLoans) String() string {
	return fmt.Sprintf("%s takes %d loan(s)", a.CompanyID, a.Number)
}

// RepayLoans repays company loans, drawing on the president if needed.
type RepayLoans struct {
	CompanyID string `json:"company_id" mapstructure:"company_id"`
	Number    int    `json:"number" mapstructure:"number"`
}

func (a RepayLoans) Kind() Kind { return KindRepayLoans }
func (a RepayLoans) String() string {
	return fmt.Sprintf("%s repays %d loan(s)", a.CompanyID, a.Number)
}

// BuyTreasuryShares buys the company's own shares from the pool.
type BuyTreasuryShares struct {
	CompanyID string `json:"company_id" mapstructure:"company_id"`
	Units     int    `json:"units" mapstructure:"units"`
}

func (a BuyTreasuryShares) Kind() Kind { return KindBuyTreasuryShares }
func (a BuyTreasuryShares) String() string {
	return fmt.Sprintf("%s buys %d of its own unit(s)", a.CompanyID, a.Units)
}

// SellTreasuryShares sells treasury shares into the pool.
type SellTreasuryShares struct {
	CompanyID string `json:"company_id" mapstructure:"company_id"`
	Units     int    `json:"units" mapstructure:"units"`
}

func (a SellTreasuryShares) Kind() Kind { return KindSellTreasuryShares }
func (a SellTreasuryShares) String() string {
	return fmt.Sprintf("%s sells %d treasury unit(s)", a.CompanyID, a.Units)
}

// Pass declines to act on the current decision.
type Pass struct {
	ActorID string `json:"actor_id" mapstructure:"actor_id"`
}

func (a Pass) Kind() Kind     { return KindPass }
func (a Pass) String() string { return fmt.Sprintf("%s passes", a.ActorID) }

// Done finishes the actor's current step or turn.
type Done struct {
	ActorID string `json:"actor_id" mapstructure:"actor_id"`
}

func (a Done) Kind() Kind     { return KindDone }
func (a Done) String() string { return fmt.Sprintf("%s is done", a.ActorID) }

// Skip skips an optional step.
type Skip struct {
	ActorID string `json:"actor_id" mapstructure:"actor_id"`
}

func (a Skip) Kind() Kind     { return KindSkip }
func (a Skip) String() string { return fmt.Sprintf("%s skips", a.ActorID) }
