package tablebase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

func TestNoopProber(t *testing.T) {
	prober := NoopProber{}

	if prober.Available() {
		t.Error("NoopProber should not be available")
	}

	if prober.MaxPieces() != 0 {
		t.Errorf("NoopProber MaxPieces should be 0, got %d", prober.MaxPieces())
	}

	pos := board.NewPosition()
	result := prober.Probe(pos)
	if result.Found {
		t.Error("NoopProber should not find anything")
	}

	rootResult := prober.ProbeRoot(pos)
	if rootResult.Found {
		t.Error("NoopProber ProbeRoot should not find anything")
	}
}

func TestCountPieces(t *testing.T) {
	pos := board.NewPosition()
	count := CountPieces(pos)

	// Starting position has 32 pieces
	if count != 32 {
		t.Errorf("Starting position should have 32 pieces, got %d", count)
	}
}

func TestAdapterNilProberBehavesAsNoop(t *testing.T) {
	a := NewAdapter(nil)
	pos := board.NewPosition()

	if a.NMen() != 0 {
		t.Errorf("NMen() on nil-wrapped adapter = %d, want 0", a.NMen())
	}
	if _, ok := a.WDL(pos); ok {
		t.Error("WDL() on nil-wrapped adapter should report not found")
	}
	if _, ok := a.BestMove(pos); ok {
		t.Error("BestMove() on nil-wrapped adapter should report not found")
	}
}

func TestAdapterFiltersByCardinality(t *testing.T) {
	a := NewAdapter(NoopProber{})
	pos := board.NewPosition()

	if a.NMen() != 0 {
		t.Errorf("NMen() = %d, want 0 for NoopProber", a.NMen())
	}
	if _, ok := a.WDL(pos); ok {
		t.Error("WDL() should not find anything behind a NoopProber")
	}
}

func TestSyzygyProberHasLocalFileFor(t *testing.T) {
	dir := t.TempDir()
	sp := NewSyzygyProber(dir)

	pos := board.NewPosition()
	material := positionToMaterial(pos)

	if sp.HasLocalFileFor(pos) {
		t.Fatal("expected no local file before any are written")
	}

	if err := os.WriteFile(filepath.Join(dir, material+".rtbw"), nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, material+".rtbz"), nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if !sp.HasLocalFileFor(pos) {
		t.Fatal("expected local file to be detected once both .rtbw and .rtbz exist")
	}
}

func TestSyzygyDownloaderRespectsCancelledContext(t *testing.T) {
	dir := t.TempDir()
	d := NewSyzygyDownloader(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Download5Piece(ctx, nil)
	if err == nil {
		t.Fatal("expected Download5Piece to stop immediately on a cancelled context")
	}
}

func TestWDLToScore(t *testing.T) {
	tests := []struct {
		wdl      WDL
		ply      int
		positive bool // Should score be positive (winning)?
	}{
		{WDLWin, 0, true},
		{WDLWin, 10, true},
		{WDLCursedWin, 0, true},
		{WDLDraw, 0, false},
		{WDLBlessedLoss, 0, false},
		{WDLLoss, 0, false},
	}

	for _, tc := range tests {
		score := WDLToScore(tc.wdl, tc.ply)
		isPositive := score > 0

		if tc.positive && !isPositive {
			t.Errorf("WDL %d at ply %d should give positive score, got %d", tc.wdl, tc.ply, score)
		}
		if !tc.positive && tc.wdl != WDLDraw && isPositive {
			t.Errorf("WDL %d at ply %d should give non-positive score, got %d", tc.wdl, tc.ply, score)
		}
	}
}
