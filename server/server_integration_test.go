package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	utils "trunkline/internal"
)

func TestWSStreamsReportLines(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	gameID, creatorID := createGame(t, srv, "Alice")
	joinGame(t, srv, gameID, "Bob")
	joinGame(t, srv, gameID, "Carol")

	t.Log("A seated player connects before the game starts")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") +
		"/ws?game_id=" + gameID + "&player_id=" + creatorID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	utils.AssertNoError(t, err)
	defer conn.Close()

	// give the handler a moment to register the subscription
	time.Sleep(50 * time.Millisecond)

	response := postJSON(t, srv, "/start", StartGameReq{GameID: gameID, PlayerID: creatorID})
	assertStatus(t, response.Code, http.StatusOK)

	t.Log("Starting the game pushes the opening report line down the socket")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	utils.AssertNoError(t, err)
	utils.AssertTrue(t, strings.Contains(string(msg), "start round begins"))
}

func TestWSRejectsStrangers(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	gameID, _ := createGame(t, srv, "Alice")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") +
		"/ws?game_id=" + gameID + "&player_id=not-seated"
	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	utils.AssertErrored(t, err)
	utils.AssertEqual(t, res.StatusCode, http.StatusForbidden)
}

func TestWSRejectsUnknownGames(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?game_id=NOSUCH&player_id=whoever"
	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	utils.AssertErrored(t, err)
	utils.AssertEqual(t, res.StatusCode, http.StatusNotFound)
}
