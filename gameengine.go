package trunkline

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"trunkline/action"
	"trunkline/config"
	"trunkline/round"
)

// PlayState represents the lifecycle of a hosted game:
// idle -> collecting players (pre game)
// inPlay -> rounds in progress
// finished -> game over
type PlayState int

const (
	Idle PlayState = iota
	InPlay
	Finished
)

func (s PlayState) String() string {
	switch s {
	case Idle:
		return "idle"
	case InPlay:
		return "inPlay"
	case Finished:
		return "finished"
	}
	return ""
}

var (
	ErrGameStarted    = errors.New("game has already started")
	ErrGameNotStarted = errors.New("game has not started yet")
	ErrDuplicateSeat  = errors.New("player is already seated")
)

// GameEngine hosts one game: the seated players, the session built from
// the game definition, and the round chain driving play.
type GameEngine interface {
	ID() string
	CreatorID() string
	PlayState() PlayState
	Players() []config.Seat
	AddPlayer(id, name string) error
	Start() error
	Process(a action.Action) error
	PossibleActions() []action.Action
	Report() []string
	Session() *round.Session
	GameOver() bool
	Winner() string
	Subscribe() chan string
	Unsubscribe(ch chan string)
}

type GameEngineOpts struct {
	GameID      string
	CreatorID   string
	CreatorName string
	Definition  *config.Definition
	Log         *zap.Logger
}

type gameEngine struct {
	mu sync.Mutex

	id        string
	creatorID string
	def       *config.Definition
	log       *zap.Logger

	state PlayState
	seats []config.Seat

	session *round.Session
	gm      *round.GameManager

	reported int
	subs     map[chan string]struct{}
}

// NewGameEngine constructs an engine with the creator already seated.
func NewGameEngine(opts GameEngineOpts) (GameEngine, error) {
	if opts.Definition == nil {
		return nil, errors.New("game engine needs a game definition")
	}
	if opts.GameID == "" || opts.CreatorID == "" {
		return nil, errors.New("game engine needs a game ID and a creator")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	ge := &gameEngine{
		id:        opts.GameID,
		creatorID: opts.CreatorID,
		def:       opts.Definition,
		log:       opts.Log,
		subs:      map[chan string]struct{}{},
	}
	ge.seats = append(ge.seats, config.Seat{ID: opts.CreatorID, Name: opts.CreatorName})
	return ge, nil
}

func (ge *gameEngine) ID() string        { return ge.id }
func (ge *gameEngine) CreatorID() string { return ge.creatorID }

func (ge *gameEngine) PlayState() PlayState {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.state
}

func (ge *gameEngine) Players() []config.Seat {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	out := make([]config.Seat, len(ge.seats))
	copy(out, ge.seats)
	return out
}

func (ge *gameEngine) AddPlayer(id, name string) error {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	if ge.state != Idle {
		return ErrGameStarted
	}
	for _, seat := range ge.seats {
		if seat.ID == id {
			return ErrDuplicateSeat
		}
	}
	ge.seats = append(ge.seats, config.Seat{ID: id, Name: name})
	ge.log.Info("player seated", zap.String("game", ge.id), zap.String("player", id))
	return nil
}

// Start builds the session for the seated players and begins the round
// chain.
func (ge *gameEngine) Start() error {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	if ge.state != Idle {
		return ErrGameStarted
	}
	s, err := ge.def.Build(ge.seats)
	if err != nil {
		return fmt.Errorf("starting game %s: %w", ge.id, err)
	}
	s.Log = ge.log
	ge.session = s
	ge.gm = round.NewGameManager(s)
	ge.state = InPlay
	ge.log.Info("game started", zap.String("game", ge.id), zap.Int("players", len(ge.seats)))
	ge.broadcastLocked()
	return nil
}

func (ge *gameEngine) Process(a action.Action) error {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	if ge.state == Idle {
		return ErrGameNotStarted
	}
	err := ge.gm.Process(a)
	if ge.gm.GameOver() {
		ge.state = Finished
	}
	ge.broadcastLocked()
	return err
}

func (ge *gameEngine) PossibleActions() []action.Action {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	if ge.gm == nil {
		return nil
	}
	return ge.gm.PossibleActions().Actions()
}

func (ge *gameEngine) Report() []string {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	if ge.session == nil {
		return nil
	}
	return ge.session.Report.Lines()
}

func (ge *gameEngine) Session() *round.Session {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.session
}

func (ge *gameEngine) GameOver() bool {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.gm != nil && ge.gm.GameOver()
}

func (ge *gameEngine) Winner() string {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	if ge.gm == nil {
		return ""
	}
	if w := ge.gm.Winner(); w != nil {
		return w.Name()
	}
	return ""
}

// Subscribe returns a channel fed with report lines as play progresses.
// Slow consumers miss lines rather than blocking the game.
func (ge *gameEngine) Subscribe() chan string {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	ch := make(chan string, 64)
	ge.subs[ch] = struct{}{}
	return ch
}

func (ge *gameEngine) Unsubscribe(ch chan string) {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	if _, ok := ge.subs[ch]; ok {
		delete(ge.subs, ch)
		close(ch)
	}
}

func (ge *gameEngine) broadcastLocked() {
	if ge.session == nil {
		return
	}
	lines := ge.session.Report.Lines()
	for ; ge.reported < len(lines); ge.reported++ {
		for ch := range ge.subs {
			select {
			case ch <- lines[ge.reported]:
			default:
			}
		}
	}
}
