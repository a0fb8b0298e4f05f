// Package config loads YAML game definitions and builds sessions from
// them. A definition carries everything a title needs: the market grid,
// the tile catalog, the map, companies, privates, trains, phases and the
// start packet.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"trunkline/board"
)

type Definition struct {
	Title    string `yaml:"title"`
	BankCash int    `yaml:"bank_cash"`

	// StartingCash maps player count to per-player cash.
	StartingCash map[int]int `yaml:"starting_cash"`

	CertLimit         int    `yaml:"cert_limit,omitempty"`
	PoolShareLimit    int    `yaml:"pool_share_limit,omitempty"`
	MaxPlayerShare    int    `yaml:"max_player_share,omitempty"`
	SequenceRule      string `yaml:"sequence_rule,omitempty"`
	DividendThreshold int    `yaml:"dividend_threshold,omitempty"`

	Market    MarketDef    `yaml:"market"`
	Tiles     []TileDef    `yaml:"tiles"`
	Hexes     []HexDef     `yaml:"hexes"`
	Trains    []TrainDef   `yaml:"trains"`
	Phases    []PhaseDef   `yaml:"phases"`
	Companies []CompanyDef `yaml:"companies"`
	Privates  []PrivateDef `yaml:"privates"`

	StartPacket []PacketItemDef `yaml:"start_packet"`
}

type MarketDef struct {
	// Prices is the grid row by row; zero marks a gap.
	Prices [][]int `yaml:"prices"`
	// ParSlots are [row, col] pairs where companies may be started.
	ParSlots [][]int `yaml:"par_slots"`
}

// Endpoint is one end of a track segment: a hex side (0..5, clockwise)
// written as an integer, or a station written as "city1", "city2", ...
type Endpoint int

func (e *Endpoint) UnmarshalYAML(node *yaml.Node) error {
	if n, err := strconv.Atoi(node.Value); err == nil {
		if n < 0 || n > 5 {
			return fmt.Errorf("track endpoint %d out of range", n)
		}
		*e = Endpoint(n)
		return nil
	}
	if rest, ok := strings.CutPrefix(node.Value, "city"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && n >= 1 {
			*e = Endpoint(board.StationEndpoint(n - 1))
			return nil
		}
	}
	return fmt.Errorf("bad track endpoint %q", node.Value)
}

type TrackDef struct {
	From Endpoint `yaml:"from"`
	To   Endpoint `yaml:"to"`
}

type StationYAML struct {
	Slots int `yaml:"slots"`
	Value int `yaml:"value"`
}

type TileDef struct {
	ID       int           `yaml:"id"`
	Colour   board.Colour  `yaml:"colour"`
	Count    int           `yaml:"count"` // 0 means unlimited
	Stations []StationYAML `yaml:"stations,omitempty"`
	Tracks   []TrackDef    `yaml:"tracks"`
	Upgrades []int         `yaml:"upgrades,omitempty"`
}

type CityDef struct {
	Number int `yaml:"number"`
	Slots  int `yaml:"slots"`
	Value  int `yaml:"value,omitempty"`
}

type HomeDef struct {
	Company string `yaml:"company"`
	City    int    `yaml:"city"`
}

type HexDef struct {
	Name       string    `yaml:"name"`
	Cost       int       `yaml:"cost,omitempty"`
	OffBoard   bool      `yaml:"off_board,omitempty"`
	Preprinted bool      `yaml:"preprinted,omitempty"`
	Impassable []int     `yaml:"impassable,omitempty"`
	Cities     []CityDef `yaml:"cities,omitempty"`
	Homes      []HomeDef `yaml:"homes,omitempty"`
}

type TrainDef struct {
	Name          string `yaml:"name"`
	Rank          int    `yaml:"rank"`
	Cost          int    `yaml:"cost"`
	Count         int    `yaml:"count"`
	RustsOn       string `yaml:"rusts_on,omitempty"`
	TriggersPhase string `yaml:"triggers_phase,omitempty"`
}

type PhaseDef struct {
	Name           string         `yaml:"name"`
	TileColours    []board.Colour `yaml:"tile_colours"`
	TileLays       map[string]int `yaml:"tile_lays"`
	TrainLimit     int            `yaml:"train_limit"`
	NumORs         int            `yaml:"num_ors"`
	OffBoardStep   int            `yaml:"off_board_step,omitempty"`
	ClosesPrivates bool           `yaml:"closes_privates,omitempty"`
	TriggeredBy    string         `yaml:"triggered_by,omitempty"`
}

type CompanyDef struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	ShareUnit    int    `yaml:"share_unit,omitempty"` // default 10
	FloatPercent int    `yaml:"float_percent,omitempty"`

	TokensTotal int    `yaml:"tokens"`
	TokenCosts  []int  `yaml:"token_costs"`
	HomeHex     string `yaml:"home_hex"`
	HomeCity    int    `yaml:"home_city,omitempty"`

	MaxLoans  int `yaml:"max_loans,omitempty"`
	LoanValue int `yaml:"loan_value,omitempty"`

	CanHoldOwnShares  bool           `yaml:"can_hold_own_shares,omitempty"`
	MaxOwnShare       int            `yaml:"max_own_share,omitempty"`
	ForcedAllocation  string         `yaml:"forced_allocation,omitempty"`
	PoolPaysToCompany bool           `yaml:"pool_pays_to_company,omitempty"`
	ExtraTileLays     map[string]int `yaml:"extra_tile_lays,omitempty"`
}

type PrivateDef struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	Price             int      `yaml:"price"`
	Revenue           int      `yaml:"revenue"`
	ClosesInPhase     string   `yaml:"closes_in_phase,omitempty"`
	BlocksHex         string   `yaml:"blocks_hex,omitempty"`
	ExtraTileLayHexes []string `yaml:"extra_tile_lay_hexes,omitempty"`
}

type PacketItemDef struct {
	Private string `yaml:"private"`
	Price   int    `yaml:"price"`
	// Certificate names a public company whose president certificate is
	// bundled with the private.
	Certificate string `yaml:"certificate,omitempty"`
}

// Load reads and decodes a game definition file.
func Load(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading game definition: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a game definition from YAML.
func Parse(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("decoding game definition: %w", err)
	}
	if def.Title == "" {
		return nil, fmt.Errorf("game definition has no title")
	}
	if def.BankCash <= 0 {
		return nil, fmt.Errorf("%s: bank_cash must be positive", def.Title)
	}
	return &def, nil
}
