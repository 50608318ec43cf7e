package analyze

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
)

func newTestServer() *Server {
	return New(engine.NewEngine(8))
}

func TestAnalyzeHandler(t *testing.T) {
	s := newTestServer()
	router := s.Router()

	body, _ := json.Marshal(AnalyzeRequest{FEN: board.StartFEN, Depth: 4})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BestMove == "" || resp.BestMove == "0000" {
		t.Errorf("expected a real best move from the starting position, got %q", resp.BestMove)
	}
	if resp.Depth == 0 {
		t.Errorf("expected a nonzero search depth reported")
	}
}

func TestAnalyzeHandlerInvalidFEN(t *testing.T) {
	s := newTestServer()
	router := s.Router()

	body, _ := json.Marshal(AnalyzeRequest{FEN: "not-a-fen", Depth: 2})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an invalid fen, got %d", rec.Code)
	}
}

func TestPerftHandler(t *testing.T) {
	s := newTestServer()
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/perft?depth=3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got := resp["nodes"].(float64); got != 8902 {
		t.Errorf("expected perft(3) from startpos = 8902, got %v", got)
	}
}

func TestDiagramHandler(t *testing.T) {
	s := newTestServer()
	router := s.Router()

	req := httptest.NewRequest(http.MethodGet, "/diagram.svg", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("expected image/svg+xml content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Errorf("expected svg body")
	}
}
