package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/gofish/internal/directory"
	"github.com/lox/gofish/internal/game"
	"github.com/lox/gofish/internal/store"
)

// Server exposes the game service over HTTP and a websocket event feed.
type Server struct {
	service *GameService
	hub     *hub
	logger  zerolog.Logger
	httpSrv *http.Server
}

// New creates a server around a game service
func New(service *GameService, addr string, logger zerolog.Logger) *Server {
	s := &Server{
		service: service,
		hub:     newHub(logger),
		logger:  logger.With().Str("component", "server").Logger(),
	}
	service.AddSink(s.hub)

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebsocket)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{name}/games", s.handleUserGames).Methods(http.MethodGet)
	api.HandleFunc("/games", s.handleCreateGame).Methods(http.MethodPost)
	api.HandleFunc("/games", s.handleListGames).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", s.handleCancelGame).Methods(http.MethodDelete)
	api.HandleFunc("/games/{id}/guess", s.handleGuess).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/players/{name}/hand", s.handlePlayerHand).Methods(http.MethodGet)
	api.HandleFunc("/scoreboard", s.handleScoreboard).Methods(http.MethodGet)

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start listens and serves until Shutdown or failure
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("Server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and disconnects websocket clients
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}

	p, err := s.service.CreateUser(req.Name, req.Email)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListUsers())
}

func (s *Server) handleUserGames(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	games, err := s.service.UserGames(name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if games == nil {
		games = []GameSnapshot{}
	}
	writeJSON(w, http.StatusOK, games)
}

type createGameRequest struct {
	Player1      string `json:"player1"`
	Player2      string `json:"player2"`
	MatchesToWin int    `json:"matchesToWin,omitempty"`
	CardsDealt   int    `json:"cardsDealt,omitempty"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}
	if req.MatchesToWin < 0 || req.CardsDealt < 0 {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "game options must not be negative")
		return
	}

	snapshot, err := s.service.CreateGame(r.Context(), req.Player1, req.Player2, req.MatchesToWin, req.CardsDealt)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

func (s *Server) handleListGames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListGames())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.service.Snapshot(mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleCancelGame(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelGame(mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type guessRequest struct {
	Player string `json:"player"`
	Guess  string `json:"guess"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}

	outcome, snapshot, err := s.service.MakeGuess(r.Context(), mux.Vars(r)["id"], req.Player, req.Guess)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GuessResolvedData{Outcome: *outcome, Game: snapshot})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	moves, err := s.service.GameHistory(mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if moves == nil {
		moves = []store.MoveRecord{}
	}
	writeJSON(w, http.StatusOK, moves)
}

func (s *Server) handlePlayerHand(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hand, err := s.service.PlayerHand(vars["id"], vars["name"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hand)
}

func (s *Server) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	rankings, err := s.service.Rankings(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankings)
}

// Error codes carried in API error bodies so clients can branch without
// parsing the human-readable message.
const (
	CodeNotFound       = "not_found"
	CodePlayerExists   = "player_exists"
	CodeConflict       = "conflict"
	CodeInvalidRequest = "invalid_request"
	CodeInternal       = "internal"
)

// writeServiceError maps service errors onto HTTP statuses and error codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var notTurn *game.NotPlayersTurnError

	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, directory.ErrNotFound),
		errors.Is(err, game.ErrPlayerNotInGame):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, directory.ErrExists):
		writeError(w, http.StatusConflict, CodePlayerExists, err.Error())
	case errors.Is(err, game.ErrDuplicatePlayers),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, ErrGameFinished),
		errors.As(err, &notTurn):
		writeError(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, directory.ErrInvalidName),
		errors.Is(err, game.ErrInvalidPlayer):
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("Unhandled service error")
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}
	s.hub.add(conn)
}

// hub broadcasts game events to every connected websocket client. It
// implements EventSink.
type hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	logger zerolog.Logger
}

func newHub(logger zerolog.Logger) *hub {
	return &hub{
		conns:  make(map[*websocket.Conn]bool),
		logger: logger.With().Str("component", "hub").Logger(),
	}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	// Drain reads so pings and close frames are processed; clients never
	// send application messages.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn] {
		delete(h.conns, conn)
		conn.Close()
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(h.conns, conn)
	}
}

func (h *hub) broadcast(messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode broadcast message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug().Err(err).Msg("Dropping websocket client")
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

// GameCreated implements EventSink
func (h *hub) GameCreated(snapshot GameSnapshot) {
	h.broadcast(TypeGameCreated, snapshot)
}

// GuessResolved implements EventSink
func (h *hub) GuessResolved(snapshot GameSnapshot, outcome game.MoveOutcome) {
	h.broadcast(TypeGuessResolved, GuessResolvedData{Outcome: outcome, Game: snapshot})

	if outcome.GameOver {
		h.broadcast(TypeGameOver, GameOverData{
			Game:   snapshot,
			Winner: outcome.Winner,
			Loser:  outcome.Loser,
			Drawn:  outcome.Winner == "" && outcome.Loser == "",
		})
	}
}
