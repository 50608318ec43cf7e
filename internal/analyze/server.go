// Package analyze wraps the engine core in a small HTTP debug/analysis
// service: POST /analyze for a scored best move and PV, GET /perft for a
// move-generator node count, and GET /diagram.svg for a board picture.
// It is an outer-shell entrypoint, not part of the search core — the core
// package never imports net/http.
package analyze

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
)

// AnalyzeRequest is the JSON body of POST /analyze.
type AnalyzeRequest struct {
	FEN      string `json:"fen"`
	Depth    int    `json:"depth,omitempty"`
	MoveTime int    `json:"move_time_ms,omitempty"`
}

// AnalyzeResponse is the JSON response of POST /analyze.
type AnalyzeResponse struct {
	BestMove string   `json:"best_move"`
	Score    int      `json:"score"`
	ScoreStr string   `json:"score_string"`
	PV       []string `json:"pv"`
	Depth    int      `json:"depth"`
	Nodes    uint64   `json:"nodes"`
	TimeMS   int64    `json:"time_ms"`
}

// Server holds the single engine instance shared across requests. The
// search core is single-threaded by spec (no multi-threaded search
// Non-goal); concurrent HTTP requests are serialized behind mu so this
// never becomes parallel search, just a queue of sequential ones.
type Server struct {
	mu  sync.Mutex
	eng *engine.Engine
}

// New creates a Server around an already-configured engine.
func New(eng *engine.Engine) *Server {
	return &Server{eng: eng}
}

// Router builds the gorilla/mux router for this server's routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/perft", s.handlePerft).Methods(http.MethodGet)
	r.HandleFunc("/diagram.svg", s.handleDiagram).Methods(http.MethodGet)
	return r
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	pos, err := board.ParseFEN(req.FEN)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid fen: %v", err), http.StatusBadRequest)
		return
	}

	limits := engine.SearchLimits{Depth: req.Depth}
	if req.MoveTime > 0 {
		limits.MoveTime = time.Duration(req.MoveTime) * time.Millisecond
	}
	if limits.Depth == 0 && limits.MoveTime == 0 {
		limits.MoveTime = time.Second
	}

	var last engine.SearchInfo
	s.mu.Lock()
	prevOnInfo := s.eng.OnInfo
	s.eng.OnInfo = func(info engine.SearchInfo) { last = info }
	move := s.eng.SearchWithLimits(pos, limits)
	s.eng.OnInfo = prevOnInfo
	s.mu.Unlock()

	pv := make([]string, 0, len(last.PV))
	for _, m := range last.PV {
		pv = append(pv, m.String())
	}

	resp := AnalyzeResponse{
		BestMove: move.String(),
		Score:    last.Score,
		ScoreStr: engine.ScoreToString(last.Score),
		PV:       pv,
		Depth:    last.Depth,
		Nodes:    last.Nodes,
		TimeMS:   last.Time.Milliseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handlePerft(w http.ResponseWriter, r *http.Request) {
	fen := r.URL.Query().Get("fen")
	if fen == "" {
		fen = board.StartFEN
	}
	depth, _ := strconv.Atoi(r.URL.Query().Get("depth"))
	if depth <= 0 {
		depth = 4
	}

	pos, err := board.ParseFEN(fen)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid fen: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	start := time.Now()
	nodes := s.eng.Perft(pos, depth)
	elapsed := time.Since(start)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"fen":     fen,
		"depth":   depth,
		"nodes":   nodes,
		"time_ms": elapsed.Milliseconds(),
	})
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	fen := r.URL.Query().Get("fen")
	if fen == "" {
		fen = board.StartFEN
	}

	pos, err := board.ParseFEN(fen)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid fen: %v", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	pos.WriteSVG(w)
}
