// Package server exposes a single game over HTTP. Commands arrive as JSON,
// every accepted command is persisted through a GameStore and broadcast to
// watchers over WebSocket connections.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"codeberg.org/tavlalab/tavla"
	"github.com/alexedwards/argon2id"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const clientTimeout = 40 * time.Second

var passwordArgon2id = &argon2id.Params{
	Memory:      128 * 1024,
	Iterations:  16,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   64,
}

type Options struct {
	// DataSource is a PostgreSQL connection string. When empty, games are
	// held in memory only.
	DataSource string
	Verbose    bool
}

type Server struct {
	store GameStore

	gameLock     sync.Mutex
	game         *tavla.Game
	meta         *GameRecord
	passwordHash string

	watchersLock sync.Mutex
	watchers     []*watcher

	verbose bool
}

func NewServer(op *Options) *Server {
	if op == nil {
		op = &Options{}
	}
	s := &Server{
		store:   newMemoryStore(),
		verbose: op.Verbose,
	}

	if op.DataSource != "" {
		store, err := connectStore(op.DataSource)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		s.store = store
		log.Info().Msg("connected to database")
	}

	s.resume()
	return s
}

// resume reloads the most recent unfinished game, if the store has one.
func (s *Server) resume() {
	rec, err := s.store.LoadLatest(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load saved game")
	} else if rec == nil || rec.Snapshot == nil {
		return
	}

	g, err := tavla.RestoreGame(rec.Snapshot)
	if err != nil {
		log.Error().Err(err).Int64("game", rec.ID).Msg("discarding corrupt saved game")
		return
	}
	s.game = g
	s.meta = rec
	s.passwordHash = rec.PasswordHash
	log.Info().Int64("game", rec.ID).Str("player1", rec.Player1).Str("player2", rec.Player2).Msg("resumed saved game")
}

func (s *Server) Handler() http.Handler {
	m := mux.NewRouter()
	m.HandleFunc("/game", s.handleNewGame).Methods("POST")
	m.HandleFunc("/game", s.handleGetGame).Methods("GET")
	m.HandleFunc("/game/roll", s.handleRoll).Methods("POST")
	m.HandleFunc("/game/move", s.handleMove).Methods("POST")
	m.HandleFunc("/game/bearoff", s.handleBearOff).Methods("POST")
	m.HandleFunc("/game/moves", s.handleListMoves).Methods("GET")
	m.HandleFunc("/game/watch", s.handleWatch)
	return m
}

func (s *Server) Listen(address string) {
	log.Info().Str("address", address).Msg("listening for HTTP connections")
	err := http.ListenAndServe(address, s.Handler())
	log.Fatal().Err(err).Str("address", address).Msg("failed to listen")
}

type newGameRequest struct {
	Player1  string `json:"player1"`
	Player2  string `json:"player2"`
	Password string `json:"password,omitempty"`
}

type newGameResponse struct {
	ID      int64              `json:"id"`
	Initial *tavla.InitialRoll `json:"initial"`
	State   *tavla.Snapshot    `json:"state"`
}

type commandRequest struct {
	Password string `json:"password,omitempty"`
	From     int8   `json:"from"`
	To       int8   `json:"to"`
}

type commandResponse struct {
	Result *tavla.MoveResult `json:"result,omitempty"`
	Roll   *tavla.TurnRoll   `json:"roll,omitempty"`
	State  *tavla.Snapshot   `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, &errorResponse{Error: message})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Player1 == "" || req.Player2 == "" {
		writeError(w, http.StatusBadRequest, "both player names are required")
		return
	}

	var passwordHash string
	if req.Password != "" {
		var err error
		passwordHash, err = argon2id.CreateHash(req.Password, passwordArgon2id)
		if err != nil {
			log.Error().Err(err).Msg("failed to hash game password")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	s.gameLock.Lock()
	defer s.gameLock.Unlock()

	g := tavla.NewGame()
	initial := g.RollInitial()

	rec := &GameRecord{
		Player1:      req.Player1,
		Player2:      req.Player2,
		PasswordHash: passwordHash,
		Started:      time.Now(),
		Snapshot:     g.Snapshot(),
	}
	id, err := s.store.CreateGame(r.Context(), rec)
	if err != nil {
		log.Error().Err(err).Msg("failed to persist game")
		writeError(w, http.StatusInternalServerError, "failed to persist game")
		return
	}
	rec.ID = id

	s.game = g
	s.meta = rec
	s.passwordHash = passwordHash

	log.Info().Int64("game", id).Str("player1", req.Player1).Str("player2", req.Player2).Msg("game started")

	s.broadcastLocked()
	writeJSON(w, http.StatusCreated, &newGameResponse{
		ID:      id,
		Initial: &initial,
		State:   g.Snapshot(),
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.gameLock.Lock()
	defer s.gameLock.Unlock()

	if s.game == nil {
		writeError(w, http.StatusNotFound, "no game in progress")
		return
	}
	writeJSON(w, http.StatusOK, s.game.Snapshot())
}

// authorize checks the game password on mutating commands. The game itself
// must also exist and not have finished.
func (s *Server) authorize(w http.ResponseWriter, password string) bool {
	if s.game == nil {
		writeError(w, http.StatusNotFound, "no game in progress")
		return false
	}
	if s.passwordHash != "" {
		match, err := argon2id.ComparePasswordAndHash(password, s.passwordHash)
		if err != nil || !match {
			writeError(w, http.StatusForbidden, "incorrect game password")
			return false
		}
	}
	if s.game.Phase() == tavla.PhaseGameOver {
		writeError(w, http.StatusConflict, "the game is over")
		return false
	}
	return true
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	s.gameLock.Lock()
	defer s.gameLock.Unlock()

	if !s.authorize(w, req.Password) {
		return
	}
	if s.game.Phase() != tavla.PhaseRoll {
		writeError(w, http.StatusConflict, "it is not time to roll")
		return
	}

	roll := s.game.RollForTurn()
	if s.verbose {
		log.Info().Int64("game", s.meta.ID).Int8("roll1", roll.Roll1).Int8("roll2", roll.Roll2).Bool("skipped", roll.Skipped).Msg("rolled")
	}

	s.commit(r)
	writeJSON(w, http.StatusOK, &commandResponse{
		Roll:  &roll,
		State: s.game.Snapshot(),
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	s.gameLock.Lock()
	defer s.gameLock.Unlock()

	if !s.authorize(w, req.Password) {
		return
	}
	if s.game.Phase() != tavla.PhaseMove {
		writeError(w, http.StatusConflict, "it is not time to move")
		return
	}

	result := s.game.AttemptMove(req.From, req.To)
	s.finishCommand(w, r, result)
}

func (s *Server) handleBearOff(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	s.gameLock.Lock()
	defer s.gameLock.Unlock()

	if !s.authorize(w, req.Password) {
		return
	}
	if s.game.Phase() != tavla.PhaseMove {
		writeError(w, http.StatusConflict, "it is not time to move")
		return
	}

	result := s.game.AttemptBearOff(req.From)
	s.finishCommand(w, r, result)
}

// finishCommand persists and broadcasts accepted moves and reports the
// result either way. Rejected moves leave no trace beyond the response.
func (s *Server) finishCommand(w http.ResponseWriter, r *http.Request, result tavla.MoveResult) {
	if result.Moved {
		if s.verbose {
			log.Info().Int64("game", s.meta.ID).Bool("hit", result.Hit).Bool("borne_off", result.BorneOff).Msg("moved")
		}
		s.commit(r)
	} else if s.verbose {
		log.Info().Int64("game", s.meta.ID).Str("reason", result.Reason).Msg("move rejected")
	}

	status := http.StatusOK
	if !result.Moved {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, &commandResponse{
		Result: &result,
		State:  s.game.Snapshot(),
	})
}

// commit persists the current state and notifies watchers. Called with the
// game lock held, after every accepted command.
func (s *Server) commit(r *http.Request) {
	s.meta.Snapshot = s.game.Snapshot()
	err := s.store.SaveSnapshot(r.Context(), s.meta.ID, s.meta.Snapshot)
	if err != nil {
		log.Error().Err(err).Int64("game", s.meta.ID).Msg("failed to persist game state")
	}

	if s.game.Phase() == tavla.PhaseGameOver {
		s.meta.Ended = time.Now()
		s.meta.Winner = s.game.Winner()
		err = s.store.RecordResult(r.Context(), s.meta)
		if err != nil {
			log.Error().Err(err).Int64("game", s.meta.ID).Msg("failed to record game result")
		}
		log.Info().Int64("game", s.meta.ID).Stringer("winner", s.meta.Winner).Msg("game over")
	}

	s.broadcastLocked()
}

func (s *Server) handleListMoves(w http.ResponseWriter, r *http.Request) {
	s.gameLock.Lock()
	defer s.gameLock.Unlock()

	if s.game == nil {
		writeError(w, http.StatusNotFound, "no game in progress")
		return
	}

	moves := s.game.LegalMoves()
	if moves == nil {
		moves = [][2]int8{}
	}
	writeJSON(w, http.StatusOK, moves)
}
