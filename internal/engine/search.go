package engine

import (
	"math"
	"sync/atomic"

	"github.com/hailam/chessplay/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Heuristic tuning constants (see the search module's pruning rules).
const (
	aspirationMinDepth     = 5
	aspirationWindow       = 25
	nullMoveMinDepth       = 3
	nullMoveReduction      = 2
	reverseFutilityMaxPly  = 4
	reverseFutilityMargin  = 150
	futilityMaxDepth       = 1
	futilityMargin         = 135
	lmrMinDepth            = 3
	lmrMinMoves            = 3
	maxSearchDepth         = 255
)

// lmrTable[depth][moveCount] holds the late-move reduction, precomputed with
// the same logarithmic formula most modern engines use.
var lmrTable [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			r := 0.77 + math.Log(float64(d))*math.Log(float64(m))/2.36
			if r > 0 {
				r += 0.5
			}
			lmrTable[d][m] = int(r)
		}
	}
}

// PVTable stores the principal variation as a triangular array: row ply
// holds the continuation from ply to the end of the line.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher performs iterative deepening negamax search with aspiration
// windows, null-move and futility pruning, late move reductions, PVS
// re-search, and a correction-history adjusted static evaluation.
type Searcher struct {
	pos       *board.Position
	tt        *TranspositionTable
	orderer   *MoveOrderer
	pawnTable *PawnTable
	corr      *CorrectionHistory

	nodes    uint64
	selDepth int
	stopFlag *atomic.Bool

	pv PVTable

	excluded []board.Move

	rootHashes []uint64
}

// NewSearcher creates a searcher sharing the given transposition table.
// The searcher starts with a stop flag of its own; SetStopFlag replaces it
// with a caller-owned one (e.g. the engine's) so a UCI "stop" command aborts
// mid-search.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		tt:        tt,
		orderer:   NewMoveOrderer(),
		pawnTable: NewPawnTable(1),
		corr:      NewCorrectionHistory(),
		stopFlag:  new(atomic.Bool),
	}
}

// SetStopFlag lets an owner (the engine) share a single stop flag across
// searchers instead of each owning an independent one.
func (s *Searcher) SetStopFlag(flag *atomic.Bool) {
	s.stopFlag = flag
}

// SetTT swaps in a new transposition table, used by Engine.ResizeHash. The
// caller is responsible for ensuring no search is in progress.
func (s *Searcher) SetTT(tt *TranspositionTable) {
	s.tt = tt
}

// Stop signals the search to abort as soon as it next checks.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// IsStopped reports whether the search was aborted.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

// Reset clears per-search node/orderer state. Killers and countermoves are
// cleared; history scores decay rather than clear outright so moves good in
// the prior search stay weighted across a multi-move game.
func (s *Searcher) Reset() {
	s.stopFlag.Store(false)
	s.nodes = 0
	s.selDepth = 0
	s.orderer.Clear()
}

// ClearOrderer wipes move-ordering tables entirely (new game).
func (s *Searcher) ClearOrderer() {
	s.orderer = NewMoveOrderer()
	s.corr.Clear()
}

// Nodes returns the number of nodes searched so far.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// SetExcludedMoves excludes root moves from consideration (used by MultiPV
// to find the 2nd, 3rd, ... best line after the top one is known).
func (s *Searcher) SetExcludedMoves(moves []board.Move) {
	s.excluded = moves
}

// SetRootHistory supplies prior game positions for repetition detection.
func (s *Searcher) SetRootHistory(hashes []uint64) {
	s.rootHashes = hashes
}

func (s *Searcher) isExcludedRoot(ply int, m board.Move) bool {
	if ply != 0 || len(s.excluded) == 0 {
		return false
	}
	for _, e := range s.excluded {
		if e == m {
			return true
		}
	}
	return false
}

// Search runs a single fixed-depth full-window search, used by SearchDepth
// for depths too shallow for aspiration windows.
func (s *Searcher) Search(pos *board.Position, depth int) (board.Move, int) {
	s.pos = pos
	score := s.negamax(depth, 0, -Infinity, Infinity, board.NoMove)

	var bestMove board.Move
	if s.pv.length[0] > 0 {
		bestMove = s.pv.moves[0][0]
	}
	return bestMove, score
}

// SearchDepth runs one iterative-deepening step at the given depth, using an
// aspiration window around prevScore once the depth is deep enough to make
// that worthwhile, widening geometrically on each window miss.
func (s *Searcher) SearchDepth(pos *board.Position, depth, prevScore int) (board.Move, int) {
	s.pos = pos

	if depth < aspirationMinDepth {
		return s.Search(pos, depth)
	}

	window := aspirationWindow
	alpha := prevScore - window
	beta := prevScore + window

	for {
		score := s.negamax(depth, 0, alpha, beta, board.NoMove)
		if s.stopFlag.Load() {
			var bestMove board.Move
			if s.pv.length[0] > 0 {
				bestMove = s.pv.moves[0][0]
			}
			return bestMove, score
		}

		if score <= alpha {
			window = window * 3 / 2
			alpha = score - window
			if alpha < -Infinity {
				alpha = -Infinity
			}
			continue
		}
		if score >= beta {
			window = window * 3 / 2
			beta = score + window
			if beta > Infinity {
				beta = Infinity
			}
			continue
		}

		var bestMove board.Move
		if s.pv.length[0] > 0 {
			bestMove = s.pv.moves[0][0]
		}
		return bestMove, score
	}
}

// negamax searches the tree to depth, returning a score from the side to
// move's perspective. prevMove is the move that led to this node, used to
// look up a countermove response.
func (s *Searcher) negamax(depth, ply int, alpha, beta int, prevMove board.Move) int {
	if s.nodes&2047 == 0 && s.stopFlag.Load() {
		return 0
	}
	s.nodes++
	if ply > s.selDepth {
		s.selDepth = ply
	}

	s.pv.length[ply] = ply
	isPV := beta-alpha > 1
	isRoot := ply == 0

	if !isRoot && s.isDraw() {
		return 0
	}
	if ply >= MaxPly {
		return EvaluateWithPawnTable(s.pos, s.pawnTable)
	}

	var ttMove board.Move
	ttEntry, found := s.tt.Probe(s.pos.Hash)
	if found {
		ttMove = ttEntry.BestMove
		if !isPV && int(ttEntry.Depth) >= depth {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			case TTLowerBound:
				if score >= beta {
					return score
				}
			}
		}
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	inCheck := s.pos.InCheck()
	if inCheck && depth < maxSearchDepth {
		depth++
	}

	rawStaticEval := EvaluateWithPawnTable(s.pos, s.pawnTable)
	staticEval := s.corr.Adjust(s.pos.SideToMove, s.pos.PawnKey, rawStaticEval)
	if found {
		switch ttEntry.Flag {
		case TTExact:
			staticEval = AdjustScoreFromTT(int(ttEntry.Score), ply)
		case TTLowerBound:
			if int(ttEntry.Score) > staticEval {
				staticEval = AdjustScoreFromTT(int(ttEntry.Score), ply)
			}
		case TTUpperBound:
			if int(ttEntry.Score) < staticEval {
				staticEval = AdjustScoreFromTT(int(ttEntry.Score), ply)
			}
		}
	}

	if !isPV && !inCheck {
		// Reverse futility pruning: hopelessly far above beta at shallow depth.
		if depth <= reverseFutilityMaxPly && staticEval-reverseFutilityMargin*depth > beta {
			return beta
		}

		// Null move pruning.
		if depth >= nullMoveMinDepth && staticEval >= beta && !s.pos.LastMoveWasNull() && s.pos.HasNonPawnMaterial() {
			s.pos.MakeNullMove()
			score := -s.negamax(depth-1-nullMoveReduction, ply+1, -beta, -beta+1, board.NoMove)
			s.pos.UnmakeNullMove()
			if s.stopFlag.Load() {
				return 0
			}
			if score >= beta {
				return beta
			}
		}
	}

	cache := s.pos.NewGenCache()
	picker := NewMovePicker(s.pos, &cache, s.orderer, ply, ttMove, prevMove)

	originalAlpha := alpha
	bestScore := -Infinity
	bestMove := board.NoMove
	nLegal := 0

	for {
		move, ok := picker.Next()
		if !ok {
			break
		}
		if s.isExcludedRoot(ply, move) {
			continue
		}

		isCapture := move.IsCapture()

		// Futility pruning: a late quiet move that can't plausibly close the
		// gap to alpha isn't worth searching.
		if nLegal > 0 && !isPV && !inCheck && !isCapture &&
			depth <= futilityMaxDepth && staticEval+futilityMargin < alpha {
			continue
		}

		s.pos.MakeMove(move)
		nLegal++

		newDepth := depth - 1
		var score int

		if nLegal == 1 {
			score = -s.negamax(newDepth, ply+1, -beta, -alpha, move)
		} else {
			reduction := 0
			if depth >= lmrMinDepth && nLegal >= lmrMinMoves && !isCapture && !inCheck {
				d := depth
				if d > 63 {
					d = 63
				}
				mv := nLegal
				if mv > 63 {
					mv = 63
				}
				reduction = lmrTable[d][mv]
				if isPV && reduction > 0 {
					reduction--
				}
				if reduction < 0 {
					reduction = 0
				}
			}

			reducedDepth := newDepth - reduction
			if reducedDepth < 0 {
				reducedDepth = 0
			}
			score = -s.negamax(reducedDepth, ply+1, -alpha-1, -alpha, move)

			if score > alpha && reduction > 0 {
				score = -s.negamax(newDepth, ply+1, -alpha-1, -alpha, move)
			}
			if score > alpha && score < beta {
				score = -s.negamax(newDepth, ply+1, -beta, -alpha, move)
			}
		}

		s.pos.UnmakeMove()

		if s.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score

				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if score >= beta {
			if !isCapture {
				s.orderer.UpdateKillers(ply, move)
				s.orderer.UpdateHistory(s.pos.SideToMove, move, depth, true)
				if prevMove != board.NoMove {
					s.orderer.UpdateCounterMove(s.pos.SideToMove, prevMove, move)
				}
			}
			s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, move)
			if !inCheck {
				s.corr.Update(s.pos.SideToMove, s.pos.PawnKey, depth, score, rawStaticEval)
			}
			return score
		}
	}

	if nLegal == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	flag := TTUpperBound
	if bestScore > originalAlpha {
		flag = TTExact
	}
	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)
	if !inCheck {
		s.corr.Update(s.pos.SideToMove, s.pos.PawnKey, depth, bestScore, rawStaticEval)
	}

	return bestScore
}

// quiescence extends the search along capture sequences to avoid the
// horizon effect, using a stand-pat cutoff and delta pruning.
func (s *Searcher) quiescence(ply int, alpha, beta int) int {
	if s.nodes&2047 == 0 && s.stopFlag.Load() {
		return 0
	}
	if ply >= MaxPly {
		return EvaluateWithPawnTable(s.pos, s.pawnTable)
	}
	s.nodes++
	if ply > s.selDepth {
		s.selDepth = ply
	}

	inCheck := s.pos.InCheck()
	standPat := EvaluateWithPawnTable(s.pos, s.pawnTable)

	if !inCheck {
		if standPat >= beta {
			return beta
		}
		if standPat > alpha {
			alpha = standPat
		}

		bigDelta := QueenValue
		if standPat+bigDelta < alpha {
			return alpha
		}
	}

	// In check there's no stand-pat: every evasion must be tried, not just
	// captures, since the side to move has no option to decline.
	var evasions *board.MoveList
	var picker *MovePicker
	if inCheck {
		evasions = s.pos.GenerateLegalMoves()
	} else {
		picker = NewLoudPicker(s.pos, s.orderer, board.NoMove)
	}

	searched := 0
	evasionIdx := 0
	for {
		var move board.Move
		if inCheck {
			if evasionIdx >= evasions.Len() {
				break
			}
			move = evasions.Get(evasionIdx)
			evasionIdx++
		} else {
			var ok bool
			move, ok = picker.Next()
			if !ok {
				break
			}

			var captureValue int
			if move.IsEnPassant() {
				captureValue = PawnValue
			} else if captured := s.pos.PieceAt(move.To()); captured != board.NoPiece {
				captureValue = pieceValues[captured.Type()]
			}
			if move.IsPromotion() {
				captureValue += pieceValues[move.Promotion()] - PawnValue
			}
			if standPat+captureValue+200 < alpha {
				continue
			}
			if SEE(s.pos, move) < 0 {
				continue
			}
		}

		s.pos.MakeMove(move)
		searched++
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.pos.UnmakeMove()

		if s.stopFlag.Load() {
			return 0
		}

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	if inCheck && searched == 0 {
		return -MateScore + ply
	}

	return alpha
}

// isDraw checks for draws the search should score as 0 at internal nodes:
// repetition, the fifty-move rule, and insufficient material.
func (s *Searcher) isDraw() bool {
	if s.pos.IsDrawByFiftyMoveRule() {
		return true
	}
	if s.pos.IsInsufficientMaterial() {
		return true
	}
	if s.pos.IsRepeatedPosition() {
		return true
	}
	return false
}

// GetPV returns the principal variation found by the last search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	for i := 0; i < s.pv.length[0]; i++ {
		pv[i] = s.pv.moves[0][i]
	}
	return pv
}

// SelDepth returns the maximum ply reached, including quiescence extension.
func (s *Searcher) SelDepth() int {
	return s.selDepth
}
