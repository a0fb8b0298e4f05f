package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"trunkline"
	"trunkline/config"
	utils "trunkline/internal"
)

func testDefinition(t *testing.T) *config.Definition {
	t.Helper()
	def, err := config.Load("../config/testdata/shortline.yaml")
	utils.AssertNoError(t, err)
	return def
}

func newTestServer(t *testing.T) *GameServer {
	t.Helper()
	return NewServer(trunkline.NewInMemoryGameStore(), testDefinition(t), nil, zap.NewNop())
}

func mustMakeJSON(t *testing.T, input interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(input)
	utils.AssertNoError(t, err)
	return data
}

func postJSON(t *testing.T, srv http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	request, err := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(mustMakeJSON(t, payload)))
	utils.AssertNoError(t, err)
	response := httptest.NewRecorder()
	srv.ServeHTTP(response, request)
	return response
}

func getPath(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	request, err := http.NewRequest(http.MethodGet, path, nil)
	utils.AssertNoError(t, err)
	response := httptest.NewRecorder()
	srv.ServeHTTP(response, request)
	return response
}

func decodeBody(t *testing.T, response *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	err := json.Unmarshal(response.Body.Bytes(), into)
	utils.AssertNoError(t, err)
}

// createGame drives /new and returns the created game's ID and the
// creator's player ID.
func createGame(t *testing.T, srv *GameServer, name string) (string, string) {
	t.Helper()
	response := postJSON(t, srv, "/new", NewGameReq{Name: name})
	assertStatus(t, response.Code, http.StatusCreated)

	var res PendingGameRes
	decodeBody(t, response, &res)
	if res.GameID == "" {
		t.Fatal("expected a game ID")
	}
	if res.PlayerID == "" {
		t.Fatal("expected a player ID")
	}
	return res.GameID, res.PlayerID
}

// joinGame drives /join and returns the joiner's player ID.
func joinGame(t *testing.T, srv *GameServer, gameID, name string) string {
	t.Helper()
	response := postJSON(t, srv, "/join", JoinGameReq{GameID: gameID, Name: name})
	assertStatus(t, response.Code, http.StatusOK)

	var res PendingGameRes
	decodeBody(t, response, &res)
	return res.PlayerID
}

// startedGame seats three players and starts play.
func startedGame(t *testing.T, srv *GameServer) (gameID, creatorID string) {
	t.Helper()
	gameID, creatorID = createGame(t, srv, "Alice")
	joinGame(t, srv, gameID, "Bob")
	joinGame(t, srv, gameID, "Carol")
	response := postJSON(t, srv, "/start", StartGameReq{GameID: gameID, PlayerID: creatorID})
	assertStatus(t, response.Code, http.StatusOK)
	return gameID, creatorID
}

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("got status %d, want %d", got, want)
	}
}
