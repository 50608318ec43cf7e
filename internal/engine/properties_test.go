package engine

import (
	"testing"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// TestMateInOneDetection checks the named mate-in-one position: the search
// must find Qe8-h8# and report it as a forced mate despite a half-move clock
// of 99 (one ply short of the 50-move claim).
func TestMateInOneDetection(t *testing.T) {
	pos, err := board.ParseFEN("4Q3/8/1p4pk/1PbB1p1p/7P/p3P1PK/P3qP2/8 w - - 99 88")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	eng := NewEngine(16)
	var lastScore int
	eng.OnInfo = func(info SearchInfo) {
		lastScore = info.Score
	}

	move := eng.SearchWithLimits(pos, SearchLimits{Depth: 5, MoveTime: 5 * time.Second})
	if move.From() != board.E8 || move.To() != board.H8 {
		t.Fatalf("expected mating move e8h8, got %v", move)
	}
	if lastScore <= MateScore-100 {
		t.Fatalf("expected a mate score, got %d", lastScore)
	}
}

// TestFiftyMoveRuleYieldsToMate mirrors the mate-in-one position: the engine
// must not claim a 50-move draw when a mating move is available on the 99th
// half-move.
func TestFiftyMoveRuleYieldsToMate(t *testing.T) {
	pos, err := board.ParseFEN("4Q3/8/1p4pk/1PbB1p1p/7P/p3P1PK/P3qP2/8 w - - 99 88")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.IsDrawByFiftyMoveRule() {
		t.Fatalf("position with half-move clock 99 and a legal move must not be a 50-move draw")
	}

	eng := NewEngine(16)
	move := eng.SearchWithLimits(pos, SearchLimits{Depth: 5, MoveTime: 5 * time.Second})
	if move.From() != board.E8 || move.To() != board.H8 {
		t.Fatalf("expected the mating move rather than a draw claim, got %v", move)
	}
}

// TestAspirationConvergence checks that running the same fixed-depth search
// twice in succession against a warm transposition table returns the same
// best move and score.
func TestAspirationConvergence(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	limits := SearchLimits{Depth: 6, MoveTime: 2 * time.Second}

	var firstScore, secondScore int
	eng.OnInfo = func(info SearchInfo) { firstScore = info.Score }
	firstMove := eng.SearchWithLimits(pos, limits)

	eng.OnInfo = func(info SearchInfo) { secondScore = info.Score }
	secondMove := eng.SearchWithLimits(pos, limits)

	if firstMove != secondMove {
		t.Errorf("best move changed between identical searches: %v vs %v", firstMove, secondMove)
	}
	if firstScore != secondScore {
		t.Errorf("score changed between identical searches: %d vs %d", firstScore, secondScore)
	}
}

// TestMateScoreMonotonicity checks that shorter mates score strictly higher
// than longer ones for the side delivering them, and strictly lower (more
// negative) for the side being mated, and that TT ply-adjustment round-trips
// preserve that ordering.
func TestMateScoreMonotonicity(t *testing.T) {
	for k := 0; k < 5; k++ {
		mateInK := MateScore - k
		mateInK1 := MateScore - (k + 1)
		if !(mateInK > mateInK1) {
			t.Fatalf("mate_in(%d) = %d should be > mate_in(%d) = %d", k, mateInK, k+1, mateInK1)
		}

		matedInK := -MateScore + k
		matedInK1 := -MateScore + (k + 1)
		if !(matedInK < matedInK1) {
			t.Fatalf("mated_in(%d) = %d should be < mated_in(%d) = %d", k, matedInK, k+1, matedInK1)
		}
	}

	// TT round-trip: store at one ply, retrieve at another, ordering survives.
	ply := 4
	score := MateScore - 2
	stored := AdjustScoreToTT(score, ply)
	restored := AdjustScoreFromTT(stored, ply)
	if restored != score {
		t.Fatalf("TT ply adjustment did not round-trip: got %d, want %d", restored, score)
	}
}
