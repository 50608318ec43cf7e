package tablebase

import (
	"github.com/hailam/chessplay/internal/board"
)

// WDL represents Win/Draw/Loss result.
type WDL int

const (
	WDLLoss        WDL = -2
	WDLBlessedLoss WDL = -1 // Blessed loss (loss but 50-move rule may save)
	WDLDraw        WDL = 0
	WDLCursedWin   WDL = 1 // Cursed win (win but 50-move rule may interfere)
	WDLWin         WDL = 2
)

// ProbeResult contains the result of a tablebase probe.
type ProbeResult struct {
	Found bool
	WDL   WDL
	DTZ   int // Distance to zeroing move (pawn move or capture)
}

// RootResult contains the best move from tablebase at root position.
type RootResult struct {
	Found bool
	Move  board.Move
	WDL   WDL
	DTZ   int
}

// Prober is the interface for tablebase probing.
type Prober interface {
	// Probe looks up a position in the tablebase.
	// Returns win/draw/loss information if the position is in the tablebase.
	Probe(pos *board.Position) ProbeResult

	// ProbeRoot finds the best move from the tablebase at the root position.
	// This is more expensive as it needs to evaluate all legal moves.
	ProbeRoot(pos *board.Position) RootResult

	// MaxPieces returns the maximum number of pieces supported.
	MaxPieces() int

	// Available returns true if tablebases are loaded and available.
	Available() bool
}

// mateScore mirrors internal/engine.MateScore. Duplicated rather than
// imported so tablebase never depends on engine (engine depends on
// tablebase for probing); keep the two constants in sync by hand.
const mateScore = 29000

// WDLToScore converts a WDL result to a search score.
// Uses the convention: positive = winning, negative = losing.
func WDLToScore(wdl WDL, ply int) int {
	switch wdl {
	case WDLWin:
		return mateScore - ply // Win gets high score, closer ply = higher
	case WDLCursedWin:
		return mateScore - 100 - ply // Cursed win is slightly worse
	case WDLDraw:
		return 0
	case WDLBlessedLoss:
		return -mateScore + 100 + ply // Blessed loss is slightly better than loss
	case WDLLoss:
		return -mateScore + ply // Loss gets negative score
	default:
		return 0
	}
}

// NoopProber is a prober that always returns "not found".
// Use this as a placeholder when tablebases are not available.
type NoopProber struct{}

func (NoopProber) Probe(pos *board.Position) ProbeResult {
	return ProbeResult{Found: false}
}

func (NoopProber) ProbeRoot(pos *board.Position) RootResult {
	return RootResult{Found: false}
}

func (NoopProber) MaxPieces() int {
	return 0
}

func (NoopProber) Available() bool {
	return false
}

// CountPieces returns the total number of pieces on the board.
func CountPieces(pos *board.Position) int {
	return pos.AllOccupied.PopCount()
}

// Result is the digested outcome of a tablebase lookup: a WDL classification
// together with its distance-to-zeroing-move, independent of any particular
// Prober's Probe/ProbeRoot split.
type Result struct {
	WDL WDL
	DTZ int
}

// Adapter presents a Prober as the narrow NMen/WDL/BestMove surface the
// search shell consumes, so callers never need Prober's own CountPieces/
// MaxPieces cardinality check duplicated at every call site.
type Adapter struct {
	prober Prober
}

// NewAdapter wraps prober in an Adapter. A nil prober behaves like NoopProber.
func NewAdapter(prober Prober) *Adapter {
	if prober == nil {
		prober = NoopProber{}
	}
	return &Adapter{prober: prober}
}

// NMen returns the largest piece count the wrapped prober can answer for.
func (a *Adapter) NMen() int {
	return a.prober.MaxPieces()
}

// WDL probes pos and reports its result, already filtered by cardinality and
// availability so callers don't duplicate that check.
func (a *Adapter) WDL(pos *board.Position) (Result, bool) {
	if !a.prober.Available() || CountPieces(pos) > a.prober.MaxPieces() {
		return Result{}, false
	}
	r := a.prober.Probe(pos)
	if !r.Found {
		return Result{}, false
	}
	return Result{WDL: r.WDL, DTZ: r.DTZ}, true
}

// BestMove probes pos at the root and reports the tablebase's preferred move.
func (a *Adapter) BestMove(pos *board.Position) (board.Move, bool) {
	if !a.prober.Available() || CountPieces(pos) > a.prober.MaxPieces() {
		return board.NoMove, false
	}
	r := a.prober.ProbeRoot(pos)
	if !r.Found || r.Move == board.NoMove {
		return board.NoMove, false
	}
	return r.Move, true
}
