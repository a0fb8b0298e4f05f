// Package server exposes one game host over HTTP: create and join games,
// submit actions, query the legal-action menu and stream the game report
// over a websocket.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trunkline"
	"trunkline/action"
	"trunkline/config"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type NewGameReq struct {
	Name string `json:"name"`
}

type PendingGameRes struct {
	GameID   string   `json:"game_id"`
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	Admin    bool     `json:"is_admin"`
	Players  []string `json:"players"`
}

type JoinGameReq struct {
	GameID string `json:"game_id"`
	Name   string `json:"name"`
}

type StartGameReq struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type GetGameRes struct {
	GameID  string   `json:"game_id"`
	Status  string   `json:"status"`
	Players []string `json:"players"`
	Winner  string   `json:"winner,omitempty"`
}

type ActionReq struct {
	Kind    action.Kind            `json:"kind"`
	Payload map[string]interface{} `json:"payload"`
}

type PossibleActionRes struct {
	Kind   action.Kind     `json:"kind"`
	Label  string          `json:"label"`
	Action json.RawMessage `json:"action"`
}

type ReportRes struct {
	Lines []string `json:"lines"`
	Next  int      `json:"next"`
}

// GameServer hosts games built from one game definition.
type GameServer struct {
	store trunkline.GameStore
	def   *config.Definition
	rooms *RoomRegistry
	log   *zap.Logger
	http.Server
}

// NewServer creates a GameServer. rooms may be nil when no registry is
// configured.
func NewServer(store trunkline.GameStore, def *config.Definition, rooms *RoomRegistry, log *zap.Logger) *GameServer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &GameServer{store: store, def: def, rooms: rooms, log: log}

	router := http.NewServeMux()
	router.Handle("/new", http.HandlerFunc(s.HandleNewGame))
	router.Handle("/join", http.HandlerFunc(s.HandleJoinGame))
	router.Handle("/start", http.HandlerFunc(s.HandleStartGame))
	router.Handle("/game/", http.HandlerFunc(s.HandleGame))
	router.Handle("/ws", http.HandlerFunc(s.HandleWS))

	s.Handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(router)

	return s
}

func (g *GameServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.Handler.ServeHTTP(w, r)
}

// HandleNewGame creates a game and seats its creator.
func (g *GameServer) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var data NewGameReq
	err := json.NewDecoder(r.Body).Decode(&data)
	defer r.Body.Close()
	if err != nil {
		g.writeParseError(err, w)
		return
	}
	if data.Name == "" {
		writeError(w, http.StatusBadRequest, "missing player name")
		return
	}

	gameID := trunkline.NewGameID()
	playerID := trunkline.NewID()
	game, err := trunkline.NewGameEngine(trunkline.GameEngineOpts{
		GameID:      gameID,
		CreatorID:   playerID,
		CreatorName: data.Name,
		Definition:  g.def,
		Log:         g.log,
	})
	if err != nil {
		g.log.Error("could not build game engine", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := g.store.AddGame(game); err != nil {
		g.log.Error("could not store game", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	g.recordRoom(r, game)

	g.log.Info("game created", zap.String("game", gameID))
	writeJSON(w, http.StatusCreated, PendingGameRes{
		GameID:   gameID,
		PlayerID: playerID,
		Name:     data.Name,
		Admin:    true,
		Players:  seatNames(game),
	})
}

// HandleJoinGame seats a player in a pending game.
func (g *GameServer) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var data JoinGameReq
	err := json.NewDecoder(r.Body).Decode(&data)
	defer r.Body.Close()
	if err != nil {
		g.writeParseError(err, w)
		return
	}
	if data.GameID == "" {
		writeError(w, http.StatusBadRequest, "missing game ID")
		return
	}
	if data.Name == "" {
		writeError(w, http.StatusBadRequest, "missing player name")
		return
	}

	game := g.store.FindPendingGame(data.GameID)
	if game == nil {
		writeError(w, http.StatusNotFound, unknownGameIDMsg(data.GameID))
		return
	}

	playerID := trunkline.NewID()
	if err := game.AddPlayer(playerID, data.Name); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	g.recordRoom(r, game)

	writeJSON(w, http.StatusOK, PendingGameRes{
		GameID:   data.GameID,
		PlayerID: playerID,
		Name:     data.Name,
		Players:  seatNames(game),
	})
}

// HandleStartGame begins play; only the creator may start.
func (g *GameServer) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var data StartGameReq
	err := json.NewDecoder(r.Body).Decode(&data)
	defer r.Body.Close()
	if err != nil {
		g.writeParseError(err, w)
		return
	}

	game := g.store.FindPendingGame(data.GameID)
	if game == nil {
		writeError(w, http.StatusNotFound, unknownGameIDMsg(data.GameID))
		return
	}
	if data.PlayerID != game.CreatorID() {
		writeError(w, http.StatusForbidden, "only the game's creator may start it")
		return
	}

	if err := game.Start(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	g.recordRoom(r, game)

	writeJSON(w, http.StatusOK, g.gameRes(game))
}

// HandleGame routes /game/{id}, /game/{id}/action, /game/{id}/actions and
// /game/{id}/report.
func (g *GameServer) HandleGame(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/game/")
	parts := strings.SplitN(rest, "/", 2)
	gameID := parts[0]
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "missing game ID")
		return
	}

	game := g.store.FindGame(gameID)
	if game == nil {
		writeError(w, http.StatusNotFound, unknownGameIDMsg(gameID))
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}
	switch sub {
	case "":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, g.gameRes(game))
	case "action":
		g.handleAction(w, r, game)
	case "actions":
		g.handleActionMenu(w, r, game)
	case "report":
		g.handleReport(w, r, game)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (g *GameServer) handleAction(w http.ResponseWriter, r *http.Request, game trunkline.GameEngine) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var data ActionReq
	err := json.NewDecoder(r.Body).Decode(&data)
	defer r.Body.Close()
	if err != nil {
		g.writeParseError(err, w)
		return
	}

	a, err := action.Decode(data.Kind, data.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := game.Process(a); err != nil {
		// an illegal action is a client mistake, not a server failure
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	g.log.Info("action processed",
		zap.String("game", game.ID()),
		zap.String("action", a.String()))
	writeJSON(w, http.StatusOK, g.gameRes(game))
}

func (g *GameServer) handleActionMenu(w http.ResponseWriter, r *http.Request, game trunkline.GameEngine) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	menu := game.PossibleActions()
	res := make([]PossibleActionRes, 0, len(menu))
	for _, a := range menu {
		payload, err := json.Marshal(a)
		if err != nil {
			g.log.Error("could not marshal action", zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		res = append(res, PossibleActionRes{Kind: a.Kind(), Label: a.String(), Action: payload})
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *GameServer) handleReport(w http.ResponseWriter, r *http.Request, game trunkline.GameEngine) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	lines := game.Report()
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad since parameter")
			return
		}
		since = n
	}
	if since > len(lines) {
		since = len(lines)
	}
	writeJSON(w, http.StatusOK, ReportRes{Lines: lines[since:], Next: len(lines)})
}

// HandleWS streams report lines to a seated player as play progresses.
func (g *GameServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	gameID := query.Get("game_id")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "missing game ID")
		return
	}
	playerID := query.Get("player_id")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "missing player ID")
		return
	}

	game := g.store.FindGame(gameID)
	if game == nil {
		writeError(w, http.StatusNotFound, unknownGameIDMsg(gameID))
		return
	}
	if !seated(game, playerID) {
		writeError(w, http.StatusForbidden, "unknown player ID")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := game.Subscribe()
	go func() {
		defer conn.Close()
		defer game.Unsubscribe(ch)
		for line := range ch {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		}
	}()
}

func (g *GameServer) gameRes(game trunkline.GameEngine) GetGameRes {
	return GetGameRes{
		GameID:  game.ID(),
		Status:  game.PlayState().String(),
		Players: seatNames(game),
		Winner:  game.Winner(),
	}
}

func (g *GameServer) recordRoom(r *http.Request, game trunkline.GameEngine) {
	if g.rooms == nil {
		return
	}
	if err := g.rooms.Record(r.Context(), game); err != nil {
		g.log.Warn("could not record room", zap.String("game", game.ID()), zap.Error(err))
	}
}

func (g *GameServer) writeParseError(err error, w http.ResponseWriter) {
	if err == io.EOF {
		writeError(w, http.StatusBadRequest, "missing body")
		return
	}
	g.log.Error("could not parse request", zap.Error(err))
	writeError(w, http.StatusBadRequest, "could not parse request body")
}

func seatNames(game trunkline.GameEngine) []string {
	names := []string{}
	for _, seat := range game.Players() {
		names = append(names, seat.Name)
	}
	return names
}

func seated(game trunkline.GameEngine, playerID string) bool {
	for _, seat := range game.Players() {
		if seat.ID == playerID {
			return true
		}
	}
	return false
}

func unknownGameIDMsg(unknownID string) string {
	return fmt.Sprintf("unknown game ID '%s'", unknownID)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}
