package engine

import "github.com/hailam/chessplay/internal/board"

// GoodCaptureScore is the threshold separating the good- and bad-capture
// bands: captures scoring at or above it are tried before quiets, the rest
// are tried after.
const GoodCaptureScore = 1000000

// mvvLva scores a capture by victim value first, attacker value as a
// tiebreaker (Most Valuable Victim / Least Valuable Attacker).
var mvvLva = [6][6]int{
	/*        P   N   B   R   Q   K  (attacker) */
	/* P */ {15, 14, 14, 13, 12, 11},
	/* N */ {25, 24, 24, 23, 22, 21},
	/* B */ {35, 34, 34, 33, 32, 31},
	/* R */ {45, 44, 44, 43, 42, 41},
	/* Q */ {55, 54, 54, 53, 52, 51},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// MoveOrderer holds the search-scoped move-ordering tables from the spec's
// Data Model: two killer slots per ply, a history table bonused on quiet
// cutoffs, and a countermove table keyed by the previous move.
type MoveOrderer struct {
	killers      [MaxPly][2]board.Move
	history      [2][64][64]int32
	counterMoves [2][64][64]board.Move
}

// NewMoveOrderer creates an empty move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and countermoves and decays history for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for c := range mo.history {
		for f := range mo.history[c] {
			for t := range mo.history[c][f] {
				mo.history[c][f][t] /= HistoryDecayFactor
				mo.counterMoves[c][f][t] = board.NoMove
			}
		}
	}
}

// HistoryDecayFactor is applied between searches to age old bonuses.
const HistoryDecayFactor = 8

const historyMax = 16384

// UpdateKillers records a quiet move that caused a beta cutoff at ply.
func (mo *MoveOrderer) UpdateKillers(ply int, m board.Move) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory adds a depth*depth bonus (or penalty) to a quiet move.
func (mo *MoveOrderer) UpdateHistory(us board.Color, m board.Move, depth int, isGood bool) {
	from, to := m.From(), m.To()
	bonus := int32(depth * depth)
	entry := &mo.history[us][from][to]
	if isGood {
		*entry += bonus
		if *entry > historyMax {
			*entry = historyMax
		}
	} else {
		*entry -= bonus
		if *entry < -historyMax {
			*entry = -historyMax
		}
	}
}

// UpdateCounterMove records the quiet response that refuted prevMove.
func (mo *MoveOrderer) UpdateCounterMove(us board.Color, prevMove, response board.Move) {
	if prevMove == board.NoMove {
		return
	}
	mo.counterMoves[us][prevMove.From()][prevMove.To()] = response
}

func (mo *MoveOrderer) counterMove(us board.Color, prevMove board.Move) board.Move {
	if prevMove == board.NoMove {
		return board.NoMove
	}
	return mo.counterMoves[us][prevMove.From()][prevMove.To()]
}

// scoreTactical implements score_tactical: MVV/LVA with an SEE-based
// good/bad capture split (§4.7 "Implementations may use Static Exchange
// Evaluation to classify good/bad").
func scoreTactical(pos *board.Position, m board.Move) int {
	from, to := m.From(), m.To()
	attacker := pos.PieceAt(from)
	if attacker == board.NoPiece {
		return GoodCaptureScore
	}

	var victim board.PieceType
	if m.IsEnPassant() {
		victim = board.Pawn
	} else {
		victimPiece := pos.PieceAt(to)
		if victimPiece == board.NoPiece {
			victim = board.Pawn // non-capturing queen promotion
		} else {
			victim = victimPiece.Type()
		}
	}

	base := mvvLva[victim][attacker.Type()] * 1000
	if SEE(pos, m) >= 0 {
		return GoodCaptureScore + base
	}
	return base - GoodCaptureScore/2
}

// scoreQuiet implements score_quiet: history value plus a small passed-pawn
// push bonus, with killer/countermove bonuses applied by the picker stages
// themselves rather than folded into this score.
func scoreQuiet(pos *board.Position, mo *MoveOrderer, us board.Color, m board.Move) int {
	score := int(mo.history[us][m.From()][m.To()])
	piece := pos.PieceAt(m.From())
	if piece.Type() == board.Pawn {
		to := m.To()
		rank := to.RelativeRank(us)
		if rank >= 5 && isPassedPawn(pos, m.From(), us) {
			score += 50 * (rank - 4)
		}
	}
	return score
}

// pickerStage enumerates the move picker's state machine stages.
type pickerStage int

const (
	stageTT pickerStage = iota
	stageGenCaptures
	stageGoodCaptures
	stageGenQuiets
	stageKiller1
	stageKiller2
	stageCounterMove
	stageBadCaptures
	stageScoreQuiets
	stageQuiets
	stageDone
)

// MovePicker performs the staged lazy enumeration described in §4.7: TT
// move, good captures, killers, countermove, bad captures, scored quiets.
// Constructing it with quiescence=true restricts it to the loud-only stages.
type MovePicker struct {
	pos   *board.Position
	cache *board.GenCache
	mo    *MoveOrderer
	ply   int
	us    board.Color

	ttMove    board.Move
	prevMove  board.Move
	quiescence bool

	stage pickerStage

	captures      board.MoveList
	captureScores []int
	capIdx        int
	badCapIdx     int

	quiets      board.MoveList
	quietScores []int
	quietIdx    int

	yielded map[board.Move]bool
}

// NewMovePicker creates a move picker for the main search.
func NewMovePicker(pos *board.Position, cache *board.GenCache, mo *MoveOrderer, ply int, ttMove, prevMove board.Move) *MovePicker {
	return &MovePicker{
		pos: pos, cache: cache, mo: mo, ply: ply, us: pos.SideToMove,
		ttMove: ttMove, prevMove: prevMove,
		yielded: make(map[board.Move]bool, 8),
	}
}

// NewLoudPicker creates a quiescence-only picker (stages TT, GenCaptures,
// GoodCaptures, BadCaptures; no quiets, no killers).
func NewLoudPicker(pos *board.Position, mo *MoveOrderer, ttMove board.Move) *MovePicker {
	return &MovePicker{
		pos: pos, mo: mo, us: pos.SideToMove,
		ttMove: ttMove, quiescence: true,
		yielded: make(map[board.Move]bool, 8),
	}
}

func (mp *MovePicker) legal(m board.Move) bool {
	return m != board.NoMove && !mp.yielded[m]
}

// Next returns the next move to try, or (NoMove, false) when exhausted.
func (mp *MovePicker) Next() (board.Move, bool) {
	for {
		switch mp.stage {
		case stageTT:
			mp.stage = stageGenCaptures
			if mp.legal(mp.ttMove) {
				mp.yielded[mp.ttMove] = true
				return mp.ttMove, true
			}

		case stageGenCaptures:
			if mp.quiescence {
				var out board.MoveList
				dummyCache := mp.pos.NewGenCache()
				mp.pos.GenerateCaptures(&dummyCache, &out)
				mp.captures = out
			} else {
				mp.pos.GenerateCaptures(mp.cache, &mp.captures)
			}
			mp.captureScores = make([]int, mp.captures.Len())
			for i := 0; i < mp.captures.Len(); i++ {
				mp.captureScores[i] = scoreTactical(mp.pos, mp.captures.Get(i))
			}
			mp.capIdx = 0
			mp.badCapIdx = -1
			mp.stage = stageGoodCaptures

		case stageGoodCaptures:
			if mp.capIdx >= mp.captures.Len() {
				if mp.quiescence {
					mp.stage = stageBadCaptures
					mp.badCapIdx = 0
				} else {
					mp.stage = stageGenQuiets
				}
				continue
			}
			best := mp.capIdx
			for j := mp.capIdx + 1; j < mp.captures.Len(); j++ {
				if mp.captureScores[j] > mp.captureScores[best] {
					best = j
				}
			}
			if mp.captureScores[best] < GoodCaptureScore {
				mp.badCapIdx = mp.capIdx
				if mp.quiescence {
					mp.stage = stageBadCaptures
				} else {
					mp.stage = stageGenQuiets
				}
				continue
			}
			mp.captures.Swap(mp.capIdx, best)
			mp.captureScores[mp.capIdx], mp.captureScores[best] = mp.captureScores[best], mp.captureScores[mp.capIdx]
			m := mp.captures.Get(mp.capIdx)
			mp.capIdx++
			if mp.legal(m) {
				mp.yielded[m] = true
				return m, true
			}

		case stageGenQuiets:
			mp.pos.GenerateQuiets(mp.cache, &mp.quiets)
			mp.quietScores = make([]int, mp.quiets.Len())
			mp.quietIdx = 0
			mp.stage = stageKiller1

		case stageKiller1:
			mp.stage = stageKiller2
			if m := mp.mo.killers[mp.ply][0]; mp.quietsContain(m) && mp.legal(m) {
				mp.yielded[m] = true
				return m, true
			}

		case stageKiller2:
			mp.stage = stageCounterMove
			if m := mp.mo.killers[mp.ply][1]; mp.quietsContain(m) && mp.legal(m) {
				mp.yielded[m] = true
				return m, true
			}

		case stageCounterMove:
			mp.stage = stageBadCaptures
			mp.badCapIdx = max(mp.badCapIdx, 0)
			if m := mp.mo.counterMove(mp.us, mp.prevMove); mp.quietsContain(m) && mp.legal(m) {
				mp.yielded[m] = true
				return m, true
			}

		case stageBadCaptures:
			if mp.badCapIdx < 0 || mp.badCapIdx >= mp.captures.Len() {
				if mp.quiescence {
					mp.stage = stageDone
				} else {
					mp.stage = stageScoreQuiets
				}
				continue
			}
			best := mp.badCapIdx
			for j := mp.badCapIdx + 1; j < mp.captures.Len(); j++ {
				if mp.captureScores[j] > mp.captureScores[best] {
					best = j
				}
			}
			mp.captures.Swap(mp.badCapIdx, best)
			mp.captureScores[mp.badCapIdx], mp.captureScores[best] = mp.captureScores[best], mp.captureScores[mp.badCapIdx]
			m := mp.captures.Get(mp.badCapIdx)
			mp.badCapIdx++
			if mp.legal(m) {
				mp.yielded[m] = true
				return m, true
			}

		case stageScoreQuiets:
			for i := 0; i < mp.quiets.Len(); i++ {
				mp.quietScores[i] = scoreQuiet(mp.pos, mp.mo, mp.us, mp.quiets.Get(i))
			}
			mp.stage = stageQuiets

		case stageQuiets:
			if mp.quietIdx >= mp.quiets.Len() {
				mp.stage = stageDone
				continue
			}
			best := mp.quietIdx
			for j := mp.quietIdx + 1; j < mp.quiets.Len(); j++ {
				if mp.quietScores[j] > mp.quietScores[best] {
					best = j
				}
			}
			mp.quiets.Swap(mp.quietIdx, best)
			mp.quietScores[mp.quietIdx], mp.quietScores[best] = mp.quietScores[best], mp.quietScores[mp.quietIdx]
			m := mp.quiets.Get(mp.quietIdx)
			mp.quietIdx++
			if mp.legal(m) {
				mp.yielded[m] = true
				return m, true
			}

		case stageDone:
			return board.NoMove, false
		}
	}
}

func (mp *MovePicker) quietsContain(m board.Move) bool {
	if m == board.NoMove {
		return false
	}
	for i := 0; i < mp.quiets.Len(); i++ {
		if mp.quiets.Get(i) == m {
			return true
		}
	}
	return false
}
