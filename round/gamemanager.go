package round

import (
	"sort"

	"go.uber.org/zap"

	"trunkline/action"
	"trunkline/corp"
)

// GameManager chains the rounds of one game: start packet, then stock
// and operating rounds alternating per the phase schedule, until the
// bank breaks or a player goes bankrupt. It also runs the interrupt
// stack that lets a round suspend behind a nested one.
type GameManager struct {
	s *Session

	current Round
	stack   []Round

	orsLeft  int
	gameOver bool
	bankrupt *corp.Player
}

func NewGameManager(s *Session) *GameManager {
	s.Normalise()
	gm := &GameManager{s: s}
	if s.Packet != nil && s.Packet.FirstUnsold() != nil {
		gm.install(NewStartRound(s, gm))
	} else {
		gm.install(NewStockRound(s, gm))
	}
	gm.settle()
	return gm
}

func (gm *GameManager) Session() *Session { return gm.s }

func (gm *GameManager) CurrentRound() Round { return gm.current }

func (gm *GameManager) GameOver() bool { return gm.gameOver }

// BankruptPlayer returns the player whose bankruptcy ended the game, if
// any.
func (gm *GameManager) BankruptPlayer() *corp.Player { return gm.bankrupt }

// Process hands one action to the live round, then advances the round
// chain as far as it will go without player input.
func (gm *GameManager) Process(a action.Action) error {
	if gm.gameOver {
		return ErrGameOver
	}
	if err := gm.current.Process(a); err != nil {
		return err
	}
	gm.settle()
	return nil
}

// PossibleActions recomputes the live round's menu.
func (gm *GameManager) PossibleActions() *action.Set {
	if gm.gameOver || gm.current == nil {
		return action.NewSet()
	}
	return gm.current.SetPossibleActions()
}

// interrupt suspends the parent round behind a nested one. The parent
// goes on the stack even when it is still mid-construction; install
// leaves it there.
func (gm *GameManager) interrupt(parent, nested Round) {
	gm.stack = append(gm.stack, parent)
	gm.current = nested
	gm.s.Log.Debug("round interrupted", zap.Int("depth", len(gm.stack)))
}

// install makes a freshly built round the live one, unless building it
// already pushed it onto the interrupt stack.
func (gm *GameManager) install(r Round) {
	for _, suspended := range gm.stack {
		if suspended == r {
			return
		}
	}
	gm.current = r
}

// settle pops finished rounds off the interrupt stack, resuming their
// parents, and starts follow-on rounds until one needs player input.
func (gm *GameManager) settle() {
	for !gm.gameOver && gm.current.Finished() {
		if n := len(gm.stack); n > 0 {
			parent := gm.stack[n-1]
			gm.stack = gm.stack[:n-1]
			gm.current = parent
			parent.Resume()
			continue
		}
		gm.nextRound()
	}
}

func (gm *GameManager) nextRound() {
	switch gm.current.(type) {
	case *StartRound:
		gm.install(NewStockRound(gm.s, gm))
	case *StockRound:
		gm.orsLeft = gm.s.Phases.Current().NumORs
		gm.install(NewOperatingRound(gm.s, gm))
	case *OperatingRound:
		gm.orsLeft--
		if gm.orsLeft > 0 {
			gm.install(NewOperatingRound(gm.s, gm))
			return
		}
		if gm.s.Bank.Broken() {
			gm.s.Report.Printf("the bank is broken")
			gm.endGame()
			return
		}
		gm.install(NewStockRound(gm.s, gm))
	default:
		gm.endGame()
	}
}

// declareBankruptcy is called by a share selling round that could not
// raise its target; it ends the game.
func (gm *GameManager) declareBankruptcy(p *corp.Player) {
	gm.bankrupt = p
	gm.endGame()
}

// PlayerScore is one line of the final standings.
type PlayerScore struct {
	Player *corp.Player
	Worth  int
}

// FinalScores ranks the players by total worth, richest first.
func (gm *GameManager) FinalScores() []PlayerScore {
	scores := make([]PlayerScore, 0, gm.s.NumPlayers())
	for _, p := range gm.s.Players {
		worth := gm.s.PlayerWorth(p)
		if p.Bankrupt {
			worth = 0
		}
		scores = append(scores, PlayerScore{Player: p, Worth: worth})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Worth > scores[j].Worth })
	return scores
}

// Winner returns the richest player once the game is over.
func (gm *GameManager) Winner() *corp.Player {
	if !gm.gameOver {
		return nil
	}
	scores := gm.FinalScores()
	if len(scores) == 0 {
		return nil
	}
	return scores[0].Player
}

func (gm *GameManager) endGame() {
	if gm.gameOver {
		return
	}
	gm.gameOver = true
	gm.s.Report.Printf("the game is over")
	for i, score := range gm.FinalScores() {
		gm.s.Report.Printf("%d. %s with %d", i+1, score.Player.Name(), score.Worth)
	}
}
