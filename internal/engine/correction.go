package engine

import "github.com/hailam/chessplay/internal/board"

// correctionHistorySize is the number of buckets per color in the
// correction-history table. The pawn key is folded into this range, so
// collisions only blend together positions with the same pawn skeleton hash
// residue rather than unrelated structures.
const correctionHistorySize = 1 << 14

// correctionHistoryMax bounds the accumulated correction so repeated large
// swings (e.g. a string of blunders against the engine) cannot push the
// adjustment far enough to flip a pruning decision on its own.
const correctionHistoryMax = 1024

// correctionHistoryGrain scales the internal fixed-point accumulator down
// to centipawns when applied to static_eval.
const correctionHistoryGrain = 256

// CorrectionHistory nudges static_eval toward the recently observed true
// score for positions sharing a pawn structure, re-keyed by pawn Zobrist key
// (not the full position hash) since the term is meant to capture
// pawn-skeleton-level eval bias rather than exact-position bias.
type CorrectionHistory struct {
	table [2][correctionHistorySize]int32
}

// NewCorrectionHistory creates an empty correction-history table.
func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

func (ch *CorrectionHistory) bucket(pawnKey uint64) uint64 {
	return pawnKey % correctionHistorySize
}

// Adjust returns static_eval nudged by the accumulated correction for this
// side and pawn structure.
func (ch *CorrectionHistory) Adjust(us board.Color, pawnKey uint64, staticEval int) int {
	corr := ch.table[us][ch.bucket(pawnKey)]
	return staticEval + int(corr)/correctionHistoryGrain
}

// Update applies the tcheran-style correction bonus after a node resolves:
// bonus = clamp(depth, bound) * (score - static_eval), decayed like history.
func (ch *CorrectionHistory) Update(us board.Color, pawnKey uint64, depth, score, staticEval int) {
	const updateBound = 16
	weight := depth
	if weight > updateBound {
		weight = updateBound
	}
	bonus := weight * (score - staticEval)

	idx := ch.bucket(pawnKey)
	entry := &ch.table[us][idx]
	scaled := int32(bonus) * int32(correctionHistoryGrain) / int32(updateBound*4)
	newVal := int32(*entry) + scaled - int32(*entry)*int32(weight)/int32(updateBound*4)
	if newVal > correctionHistoryMax*correctionHistoryGrain {
		newVal = correctionHistoryMax * correctionHistoryGrain
	}
	if newVal < -correctionHistoryMax*correctionHistoryGrain {
		newVal = -correctionHistoryMax * correctionHistoryGrain
	}
	*entry = newVal
}

// Clear resets the table for a fresh game.
func (ch *CorrectionHistory) Clear() {
	ch.table = [2][correctionHistorySize]int32{}
}
