package trunkline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline/action"
	"trunkline/config"
	utils "trunkline/internal"
)

// newTestEngine seats only the creator; tests add the rest.
func newTestEngine(t *testing.T, gameID string) GameEngine {
	t.Helper()
	def, err := config.Load("config/testdata/shortline.yaml")
	require.NoError(t, err)
	engine, err := NewGameEngine(GameEngineOpts{
		GameID:      gameID,
		CreatorID:   "alice",
		CreatorName: "Alice",
		Definition:  def,
	})
	require.NoError(t, err)
	return engine
}

func TestNewGameEngine(t *testing.T) {
	t.Run("requires a definition, a game ID and a creator", func(t *testing.T) {
		_, err := NewGameEngine(GameEngineOpts{GameID: "NODEF", CreatorID: "alice"})
		utils.AssertErrored(t, err)

		def, err := config.Load("config/testdata/shortline.yaml")
		require.NoError(t, err)
		_, err = NewGameEngine(GameEngineOpts{Definition: def})
		utils.AssertErrored(t, err)
	})

	t.Run("seats the creator", func(t *testing.T) {
		engine := newTestEngine(t, "FRESHY")
		seats := engine.Players()
		require.Len(t, seats, 1)
		utils.AssertEqual(t, seats[0].ID, "alice")
		utils.AssertEqual(t, engine.CreatorID(), "alice")
		utils.AssertEqual(t, engine.PlayState(), Idle)
	})
}

func TestGameEngineSeating(t *testing.T) {
	engine := newTestEngine(t, "SEATME")

	t.Log("New players may join until the game starts")
	utils.AssertNoError(t, engine.AddPlayer("bob", "Bob"))
	utils.AssertNoError(t, engine.AddPlayer("carol", "Carol"))
	utils.AssertErrorIs(t, engine.AddPlayer("bob", "Bob again"), ErrDuplicateSeat)

	utils.AssertNoError(t, engine.Start())
	utils.AssertEqual(t, engine.PlayState(), InPlay)
	utils.AssertErrorIs(t, engine.AddPlayer("dave", "Dave"), ErrGameStarted)
	utils.AssertErrorIs(t, engine.Start(), ErrGameStarted)
}

func TestGameEngineDrivesPlay(t *testing.T) {
	engine := newTestEngine(t, "INPLAY")
	utils.AssertNoError(t, engine.AddPlayer("bob", "Bob"))
	utils.AssertNoError(t, engine.AddPlayer("carol", "Carol"))

	t.Log("Before the start no action is accepted")
	err := engine.Process(action.Pass{ActorID: "alice"})
	utils.AssertErrorIs(t, err, ErrGameNotStarted)

	utils.AssertNoError(t, engine.Start())

	t.Log("The opening menu offers the first start item")
	menu := engine.PossibleActions()
	require.NotEmpty(t, menu)
	utils.AssertNoError(t, engine.Process(action.BuyStartItem{PlayerID: "alice", ItemIndex: 0, Price: 20}))

	alice, err := engine.Session().Player("alice")
	require.NoError(t, err)
	utils.AssertEqual(t, alice.Cash(), 580)
	assert.NotEmpty(t, engine.Report())
	assert.False(t, engine.GameOver())
	utils.AssertEqual(t, engine.Winner(), "")
}

func TestGameEngineSubscription(t *testing.T) {
	engine := newTestEngine(t, "STREAM")
	utils.AssertNoError(t, engine.AddPlayer("bob", "Bob"))
	utils.AssertNoError(t, engine.AddPlayer("carol", "Carol"))

	ch := engine.Subscribe()
	utils.AssertNoError(t, engine.Start())

	select {
	case line := <-ch:
		assert.NotEmpty(t, line)
	default:
		t.Error("expected a report line on the stream after the game started")
	}

	engine.Unsubscribe(ch)
	if _, open := <-ch; open {
		// drain until close; a buffered line may precede it
		for range ch {
		}
	}
}
