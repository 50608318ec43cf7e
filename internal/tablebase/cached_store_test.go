package tablebase

import (
	"context"
	"testing"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/store"
)

// countingProber counts how many times the underlying source is probed, so
// tests can assert the persistent cache actually avoided a re-probe.
type countingProber struct {
	probes int
	result ProbeResult
}

func (c *countingProber) Probe(pos *board.Position) ProbeResult {
	c.probes++
	return c.result
}

func (c *countingProber) ProbeRoot(pos *board.Position) RootResult { return RootResult{} }
func (c *countingProber) MaxPieces() int                           { return 6 }
func (c *countingProber) Available() bool                          { return true }

func TestCachedProberPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	pos := board.NewPosition()

	s, err := store.Open(dir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}

	inner := &countingProber{result: ProbeResult{Found: true, WDL: WDLDraw}}
	first := NewCachedProber(inner, 16).WithPersistentCache(s)

	got := first.Probe(pos)
	if !got.Found || got.WDL != WDLDraw {
		t.Fatalf("unexpected result from cold probe: %+v", got)
	}
	if inner.probes != 1 {
		t.Fatalf("expected exactly 1 underlying probe, got %d", inner.probes)
	}
	s.Close()

	// Re-open the store (simulating a process restart) against a fresh
	// in-memory cache and the same underlying prober.
	s2, err := store.Open(dir)
	if err != nil {
		t.Fatalf("store.Open (reopen): %v", err)
	}
	defer s2.Close()

	second := NewCachedProber(inner, 16).WithPersistentCache(s2)
	got2 := second.Probe(pos)
	if !got2.Found || got2.WDL != WDLDraw {
		t.Fatalf("unexpected result from warm probe: %+v", got2)
	}
	if inner.probes != 1 {
		t.Fatalf("expected persistent cache to avoid re-probing underlying source, probes=%d", inner.probes)
	}
}

func TestCachedProberPrime(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()

	inner := &countingProber{result: ProbeResult{Found: true, WDL: WDLWin, DTZ: 12}}
	cp := NewCachedProber(inner, 16).WithPersistentCache(s)

	pos := board.NewPosition()
	if err := cp.Prime(context.Background(), []*board.Position{pos}, 2); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	if inner.probes != 1 {
		t.Fatalf("expected Prime to probe once, got %d", inner.probes)
	}

	fresh := NewCachedProber(inner, 16).WithPersistentCache(s)
	got := fresh.Probe(pos)
	if !got.Found || got.WDL != WDLWin || got.DTZ != 12 {
		t.Fatalf("unexpected primed result: %+v", got)
	}
	if inner.probes != 1 {
		t.Fatalf("expected Probe to hit the primed cache without a second fetch, got %d probes", inner.probes)
	}
}
