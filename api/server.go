package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/balance-tower/game/engine"
	"github.com/wricardo/balance-tower/game/service"
	"github.com/wricardo/balance-tower/transport/websocket"
)

// maxBodyBytes bounds request bodies; real payloads are a few dozen bytes
const maxBodyBytes = 64 << 10

//go:embed static/index.html
var indexHTML []byte

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router

	newGameLimiter *ipLimiter
}

// NewServer creates a new API server. The hub may be nil, in which case
// live updates are disabled.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(logRequests)

	// Game operations
	api.HandleFunc("/new_game", s.limitNewGames(s.handleNewGame)).Methods("POST")
	api.HandleFunc("/state/{id}", s.handleGetState).Methods("GET")
	api.HandleFunc("/draw/{id}/{pid:[0-9]+}", s.handleDraw).Methods("GET")
	api.HandleFunc("/place/{id}/{pid:[0-9]+}", s.handlePlace).Methods("POST")

	// Listing and rules
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/rules", s.handleGetRules).Methods("GET")
	api.HandleFunc("/rulesets", s.handleListRules).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service and engine errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		respondError(w, http.StatusNotFound, service.ErrGameNotFound.Error())
	case errors.Is(err, service.ErrRulesNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidPlayer),
		errors.Is(err, engine.ErrInvalidBlock),
		errors.Is(err, engine.ErrInvalidPlayerCount):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// readBody returns the trimmed request body, or nil when it is blank
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	return data, nil
}

// Game Handlers

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NumPlayers *int   `json:"num_players,omitempty"`
		Rules      string `json:"rules,omitempty"`
	}

	data, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if data != nil {
		if err := json.Unmarshal(data, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	state, err := s.service.NewGame(r.Context(), req.NumPlayers, req.Rules)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	state, err := s.service.GetGame(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID := vars["id"]
	playerID, err := strconv.Atoi(vars["pid"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player id")
		return
	}

	result, err := s.service.Draw(r.Context(), gameID, playerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastState(gameID, result.GameState)
	}

	respondJSON(w, http.StatusOK, result.Block)
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID := vars["id"]
	playerID, err := strconv.Atoi(vars["pid"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player id")
		return
	}

	// An unknown game is reported before the body is looked at
	if _, err := s.service.GetGame(r.Context(), gameID); err != nil {
		respondServiceError(w, err)
		return
	}

	input, err := decodeBlock(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.service.Place(r.Context(), gameID, playerID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastState(gameID, outcome.GameState)
	}

	respondJSON(w, http.StatusOK, outcome.Result)
}

// decodeBlock reads an optional block payload. A missing body or an empty
// object yields nil, which tells the service to draw from the deck.
func decodeBlock(r *http.Request) (*engine.BlockInput, error) {
	data, err := readBody(r)
	if err != nil {
		return nil, errors.New("invalid request body")
	}
	if data == nil {
		return nil, nil
	}

	var input engine.BlockInput
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		return nil, errors.New("invalid block: " + err.Error())
	}

	if input == (engine.BlockInput{}) {
		return nil, nil
	}
	return &input, nil
}

// Listing Handlers

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")  // "accessed" (default) or "created"
	order := query.Get("order")  // "desc" (default) or "asc"
	limitStr := query.Get("limit")

	if sortBy == "created" {
		sort.SliceStable(games, func(i, j int) bool {
			return games[i].CreatedAt.After(games[j].CreatedAt)
		})
	}

	if order == "asc" {
		for i, j := 0, len(games)-1; i < j; i, j = i+1, j-1 {
			games[i], games[j] = games[j], games[i]
		}
	}

	if limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if limit < len(games) {
			games = games[:limit]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"games": games,
	})
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.service.GetRules(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rules)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.service.ListRules(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(rules),
		"rulesets": rules,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	gameID := r.URL.Query().Get("game")
	if gameID == "" {
		http.Error(w, "game parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetGame(r.Context(), gameID); err != nil {
		http.Error(w, "no game", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, gameID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests writes one debug line per API request
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
