package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"trunkline/action"
	utils "trunkline/internal"
)

func TestHandleNewGame(t *testing.T) {
	t.Run("creates a pending game with the creator seated", func(t *testing.T) {
		srv := newTestServer(t)
		gameID, playerID := createGame(t, srv, "Alice")

		response := getPath(t, srv, "/game/"+gameID)
		assertStatus(t, response.Code, http.StatusOK)

		var res GetGameRes
		decodeBody(t, response, &res)
		utils.AssertEqual(t, res.Status, "idle")
		utils.AssertEqual(t, len(res.Players), 1)
		utils.AssertEqual(t, res.Players[0], "Alice")
		utils.AssertTrue(t, playerID != "")
	})

	t.Run("rejects a missing name", func(t *testing.T) {
		srv := newTestServer(t)
		response := postJSON(t, srv, "/new", NewGameReq{})
		assertStatus(t, response.Code, http.StatusBadRequest)
	})

	t.Run("rejects GET", func(t *testing.T) {
		srv := newTestServer(t)
		response := getPath(t, srv, "/new")
		assertStatus(t, response.Code, http.StatusNotFound)
	})
}

func TestHandleJoinGame(t *testing.T) {
	t.Run("seats a joining player", func(t *testing.T) {
		srv := newTestServer(t)
		gameID, _ := createGame(t, srv, "Alice")

		playerID := joinGame(t, srv, gameID, "Bob")
		utils.AssertTrue(t, playerID != "")

		var res GetGameRes
		response := getPath(t, srv, "/game/"+gameID)
		decodeBody(t, response, &res)
		utils.AssertEqual(t, len(res.Players), 2)
	})

	t.Run("rejects an unknown game ID", func(t *testing.T) {
		srv := newTestServer(t)
		response := postJSON(t, srv, "/join", JoinGameReq{GameID: "NOSUCH", Name: "Bob"})
		assertStatus(t, response.Code, http.StatusNotFound)
	})

	t.Run("rejects joins once the game has started", func(t *testing.T) {
		srv := newTestServer(t)
		gameID, _ := startedGame(t, srv)
		response := postJSON(t, srv, "/join", JoinGameReq{GameID: gameID, Name: "Dave"})
		assertStatus(t, response.Code, http.StatusNotFound)
	})
}

func TestHandleStartGame(t *testing.T) {
	t.Run("only the creator may start", func(t *testing.T) {
		srv := newTestServer(t)
		gameID, _ := createGame(t, srv, "Alice")
		bobID := joinGame(t, srv, gameID, "Bob")
		joinGame(t, srv, gameID, "Carol")

		response := postJSON(t, srv, "/start", StartGameReq{GameID: gameID, PlayerID: bobID})
		assertStatus(t, response.Code, http.StatusForbidden)
	})

	t.Run("starting moves the game to inPlay", func(t *testing.T) {
		srv := newTestServer(t)
		gameID, _ := startedGame(t, srv)

		var res GetGameRes
		response := getPath(t, srv, "/game/"+gameID)
		decodeBody(t, response, &res)
		utils.AssertEqual(t, res.Status, "inPlay")
	})
}

func TestHandleAction(t *testing.T) {
	t.Run("a legal action advances the game", func(t *testing.T) {
		srv := newTestServer(t)
		gameID, creatorID := startedGame(t, srv)

		response := postJSON(t, srv, "/game/"+gameID+"/action", ActionReq{
			Kind: action.KindBuyStartItem,
			Payload: map[string]interface{}{
				"player_id":  creatorID,
				"item_index": 0,
				"price":      20,
			},
		})
		assertStatus(t, response.Code, http.StatusOK)
	})

	t.Run("an illegal action is unprocessable", func(t *testing.T) {
		srv := newTestServer(t)
		gameID, creatorID := startedGame(t, srv)

		t.Log("Bidding below the minimum is rejected by the rules, not the transport")
		response := postJSON(t, srv, "/game/"+gameID+"/action", ActionReq{
			Kind: action.KindBid,
			Payload: map[string]interface{}{
				"player_id":  creatorID,
				"item_index": 1,
				"amount":     1,
			},
		})
		assertStatus(t, response.Code, http.StatusUnprocessableEntity)
	})

	t.Run("an unknown kind is a bad request", func(t *testing.T) {
		srv := newTestServer(t)
		gameID, _ := startedGame(t, srv)

		response := postJSON(t, srv, "/game/"+gameID+"/action", ActionReq{Kind: "conjure_money"})
		assertStatus(t, response.Code, http.StatusBadRequest)
	})
}

func TestHandleActionMenu(t *testing.T) {
	srv := newTestServer(t)
	gameID, _ := startedGame(t, srv)

	response := getPath(t, srv, "/game/"+gameID+"/actions")
	assertStatus(t, response.Code, http.StatusOK)

	var menu []PossibleActionRes
	decodeBody(t, response, &menu)
	if len(menu) == 0 {
		t.Fatal("expected a non-empty action menu at the start of the game")
	}

	t.Log("The opening menu offers the first start item and a bid or a pass")
	kinds := map[action.Kind]bool{}
	for _, entry := range menu {
		kinds[entry.Kind] = true
	}
	utils.AssertTrue(t, kinds[action.KindBuyStartItem])
	utils.AssertTrue(t, kinds[action.KindPass])

	t.Log("Each advertised entry is submittable as-is through the action endpoint")
	for _, entry := range menu {
		if entry.Kind != action.KindBuyStartItem {
			continue
		}
		var payload map[string]interface{}
		utils.AssertNoError(t, json.Unmarshal(entry.Action, &payload))
		a, err := action.Decode(entry.Kind, payload)
		utils.AssertNoError(t, err)
		utils.AssertEqual(t, a.Kind(), action.KindBuyStartItem)
	}
}

func TestHandleReport(t *testing.T) {
	srv := newTestServer(t)
	gameID, _ := startedGame(t, srv)

	response := getPath(t, srv, "/game/"+gameID+"/report")
	assertStatus(t, response.Code, http.StatusOK)

	var res ReportRes
	decodeBody(t, response, &res)
	if len(res.Lines) == 0 {
		t.Fatal("expected report lines after the game started")
	}
	utils.AssertTrue(t, strings.Contains(strings.Join(res.Lines, "\n"), "start round begins"))

	t.Log("The since cursor tails the report")
	next := res.Next
	tail := getPath(t, srv, "/game/"+gameID+"/report?since="+strconv.Itoa(next))
	var tailRes ReportRes
	decodeBody(t, tail, &tailRes)
	utils.AssertEqual(t, len(tailRes.Lines), 0)

	bad := getPath(t, srv, "/game/"+gameID+"/report?since=minus")
	assertStatus(t, bad.Code, http.StatusBadRequest)
}

func TestHandleGameUnknownID(t *testing.T) {
	srv := newTestServer(t)
	response := getPath(t, srv, "/game/NOSUCH")
	assertStatus(t, response.Code, http.StatusNotFound)
}
