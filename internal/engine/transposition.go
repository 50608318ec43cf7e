package engine

import (
	"github.com/hailam/chessplay/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry is the 16-byte transposition table entry: full Zobrist key,
// mate-distance-normalized score, packed move, depth, bound and generation.
type TTEntry struct {
	Key      uint64     // Full Zobrist key
	BestMove board.Move // Best move found (board.NoMove if none)
	Score    int16      // Score from the side-to-move's perspective, mate-normalized
	Depth    uint8      // Search depth this entry was stored at
	Flag     TTFlag     // Bound type
	Age      uint8      // Search generation, wraps modulo 256
	_        uint8      // pad to 16 bytes
}

// TranspositionTable is a fixed-size open-addressed hash table of TTEntry,
// indexed by zobrist mod capacity.
type TranspositionTable struct {
	entries []TTEntry
	age     uint8

	// Statistics
	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a transposition table sized to the nearest
// number of 16-byte entries fitting the given MB budget.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	numEntries := uint64(sizeMB) * 1024 * 1024 / 16
	if numEntries == 0 {
		numEntries = 1
	}
	return &TranspositionTable{entries: make([]TTEntry, numEntries)}
}

func (tt *TranspositionTable) index(hash uint64) uint64 {
	return hash % uint64(len(tt.entries))
}

// Probe looks up a position by full Zobrist key.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++

	entry := tt.entries[tt.index(hash)]
	if entry.Key == hash {
		tt.hits++
		return entry, true
	}

	return TTEntry{}, false
}

// Store saves a search result, replacing the existing slot when the
// generation changed, the new search went deeper, the new bound is Exact,
// or the slot's current bound isn't Exact.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move) {
	idx := tt.index(hash)
	entry := &tt.entries[idx]

	replace := entry.Key != hash ||
		entry.Age != tt.age ||
		depth > int(entry.Depth) ||
		flag == TTExact ||
		entry.Flag != TTExact
	if !replace {
		return
	}

	entry.Key = hash
	entry.BestMove = bestMove
	entry.Score = int16(score)
	entry.Depth = uint8(depth)
	entry.Flag = flag
	entry.Age = tt.age
}

// NewSearch increments the age counter for a new search.
// This helps with replacement decisions.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age = 0
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	// Sample first 1000 entries
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > uint64(len(tt.entries)) {
		sampleSize = len(tt.entries)
	}

	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Key != 0 && tt.entries[i].Age == tt.age {
			used++
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.entries))
}

// AdjustScoreFromTT adjusts a score read from the transposition table.
// Mate scores need to be adjusted based on ply distance.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a score for storage in the transposition table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
