package engine

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/book"
	"github.com/hailam/chessplay/internal/tablebase"
)

// SearchInfo contains information about the current search, reported to
// OnInfo after each completed iterative-deepening depth.
type SearchInfo struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Search until stopped
	MultiPV  int           // Number of principal variations to find (0 or 1 = single best move)
}

// SearchResult contains the result of a single PV search.
type SearchResult struct {
	Move  board.Move
	Score int
	PV    []board.Move
	Depth int
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // depth 3, 500ms
	Medium                   // depth 7, 1s
	Hard                     // Maximum strength, 3s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 7, MoveTime: 1 * time.Second},
	Hard:   {Depth: 40, MoveTime: 3 * time.Second}, // Max strength (time-limited)
}

// Engine is the chess engine: a single-threaded iterative-deepening negamax
// search driven by one Searcher, backed by a shared transposition table.
type Engine struct {
	tt       *TranspositionTable
	searcher *Searcher
	stopFlag atomic.Bool

	// searching is true for the duration of any SearchWith*/SearchMultiPV
	// call. setoption's Hash resize consults this to reject a resize while
	// a search holds the transposition table, per the TableResizeDuringSearch
	// error class.
	searching atomic.Bool

	difficulty Difficulty
	book       *book.Book
	tablebase  *tablebase.Adapter

	// syzygyProbeDepth mirrors the UCI SyzygyProbeDepth option: root
	// tablebase lookups are skipped when the search won't reach this many
	// plies, so a very shallow or fixed-node search doesn't pay the
	// tablebase round-trip for no benefit.
	syzygyProbeDepth int

	// Position history for repetition detection
	rootPosHashes []uint64

	// OnInfo is invoked after every completed depth of iterative deepening.
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine with the given transposition table
// size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	e := &Engine{
		tt:               tt,
		searcher:         NewSearcher(tt),
		difficulty:       Medium,
		syzygyProbeDepth: 1,
	}
	e.searcher.SetStopFlag(&e.stopFlag)
	return e
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// LoadBook loads an opening book from a Polyglot file.
func (e *Engine) LoadBook(filename string) error {
	b, err := book.LoadPolyglot(filename)
	if err != nil {
		return err
	}
	e.book = b
	return nil
}

// SetBook sets the opening book.
func (e *Engine) SetBook(b *book.Book) {
	e.book = b
}

// HasBook returns true if an opening book is loaded.
func (e *Engine) HasBook() bool {
	return e.book != nil
}

// SetTablebase sets the tablebase prober.
func (e *Engine) SetTablebase(tb tablebase.Prober) {
	e.tablebase = tablebase.NewAdapter(tb)
}

// EnableLichessTablebase enables Lichess online tablebase lookups.
func (e *Engine) EnableLichessTablebase() {
	e.tablebase = tablebase.NewAdapter(tablebase.NewLichessProber())
}

// HasTablebase returns true if a tablebase is available.
func (e *Engine) HasTablebase() bool {
	return e.tablebase != nil && e.tablebase.NMen() > 0
}

// SetSyzygyProbeDepth sets the minimum search depth (in plies) below which
// root tablebase probing is skipped.
func (e *Engine) SetSyzygyProbeDepth(depth int) {
	if depth < 1 {
		depth = 1
	}
	e.syzygyProbeDepth = depth
}

// SetPositionHistory sets the position history for repetition detection.
// This should be called before Search() with hashes from the game's move
// history.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.rootPosHashes = make([]uint64, len(hashes))
	copy(e.rootPosHashes, hashes)
	e.searcher.SetRootHistory(hashes)
}

// Search finds the best move for the given position using the engine's
// current difficulty setting.
func (e *Engine) Search(pos *board.Position) board.Move {
	limits := DifficultySettings[e.difficulty]
	return e.SearchWithLimits(pos, limits)
}

// probeBookAndTablebase tries the opening book, then an endgame tablebase,
// before falling back to search. maxDepth is the depth the caller is about
// to search to; tablebase lookups are skipped below SyzygyProbeDepth.
// Returns board.NoMove if neither applies.
func (e *Engine) probeBookAndTablebase(pos *board.Position, maxDepth int) board.Move {
	if e.book != nil {
		if move, ok := e.book.Probe(pos); ok {
			return move
		}
	}
	if e.tablebase != nil && maxDepth >= e.syzygyProbeDepth {
		if move, ok := e.tablebase.BestMove(pos); ok {
			return move
		}
	}
	return board.NoMove
}

// SearchWithLimits finds the best move with specific search limits, running
// a single-threaded iterative-deepening search to the given depth or time
// budget, whichever binds first.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	if move := e.probeBookAndTablebase(pos, maxDepth); move != board.NoMove {
		return move
	}

	e.searching.Store(true)
	defer e.searching.Store(false)

	e.stopFlag.Store(false)
	e.tt.NewSearch()
	e.searcher.Reset()

	startTime := time.Now()
	var bestMove board.Move
	var bestScore int

	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = startTime.Add(limits.MoveTime)
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		if limits.Nodes > 0 && e.searcher.Nodes() >= limits.Nodes {
			break
		}

		move, score := e.searcher.SearchDepth(pos, depth, bestScore)
		if e.searcher.IsStopped() {
			break
		}

		if move != board.NoMove {
			bestMove = move
			bestScore = score
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				SelDepth: e.searcher.SelDepth(),
				Score:    bestScore,
				Nodes:    e.searcher.Nodes(),
				Time:     time.Since(startTime),
				PV:       e.searcher.GetPV(),
				HashFull: e.tt.HashFull(),
			})
		}

		if bestScore > MateScore-100 || bestScore < -MateScore+100 {
			break
		}

		if !deadline.IsZero() {
			elapsed := time.Since(startTime)
			remaining := deadline.Sub(startTime) - elapsed
			if remaining < elapsed {
				break // unlikely to finish another full iteration in time
			}
		}
	}

	return bestMove
}

// SearchWithUCILimits finds the best move using UCI time controls. Supports
// wtime/btime/winc/binc for proper tournament time management, with
// best-move stability used to stop early or extend the search.
func (e *Engine) SearchWithUCILimits(pos *board.Position, limits UCILimits, ply int) board.Move {
	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	if move := e.probeBookAndTablebase(pos, maxDepth); move != board.NoMove {
		return move
	}

	e.searching.Store(true)
	defer e.searching.Store(false)

	tm := NewTimeManager()
	tm.Init(limits, pos.SideToMove, ply)

	e.stopFlag.Store(false)
	e.tt.NewSearch()
	e.searcher.Reset()

	startTime := time.Now()
	var bestMove, lastBestMove board.Move
	var bestScore int
	var stabilityCount, instabilityCount int

	for depth := 1; depth <= maxDepth; depth++ {
		if tm.ShouldStop() {
			break
		}
		if limits.Nodes > 0 && e.searcher.Nodes() >= limits.Nodes {
			break
		}

		move, score := e.searcher.SearchDepth(pos, depth, bestScore)
		if e.searcher.IsStopped() {
			break
		}

		if move != board.NoMove {
			if move == lastBestMove {
				stabilityCount++
				instabilityCount = 0
			} else {
				instabilityCount++
				stabilityCount = 0
			}
			lastBestMove = move
			bestMove = move
			bestScore = score
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				SelDepth: e.searcher.SelDepth(),
				Score:    bestScore,
				Nodes:    e.searcher.Nodes(),
				Time:     time.Since(startTime),
				PV:       e.searcher.GetPV(),
				HashFull: e.tt.HashFull(),
			})
		}

		if bestScore > MateScore-100 || bestScore < -MateScore+100 {
			break
		}

		if instabilityCount >= 2 {
			tm.AdjustForInstability(instabilityCount)
		} else if stabilityCount >= 2 {
			tm.AdjustForStability(stabilityCount)
		}

		if tm.PastOptimum() && stabilityCount >= 4 {
			break
		}
	}

	return bestMove
}

// SearchMultiPV finds multiple best moves (principal variations) for
// analysis, searching once per requested line and excluding previously
// found moves from the root on each subsequent pass.
func (e *Engine) SearchMultiPV(pos *board.Position, limits SearchLimits) []SearchResult {
	e.searching.Store(true)
	defer e.searching.Store(false)

	numPV := limits.MultiPV
	if numPV <= 0 {
		numPV = 1
	}

	results := make([]SearchResult, 0, numPV)
	excludedMoves := make([]board.Move, 0, numPV)

	for i := 0; i < numPV; i++ {
		move, score, pv, depth := e.searchWithExclusions(pos, limits, excludedMoves)
		if move == board.NoMove {
			break
		}

		results = append(results, SearchResult{
			Move:  move,
			Score: score,
			PV:    pv,
			Depth: depth,
		})
		excludedMoves = append(excludedMoves, move)
	}

	for i := 0; i < len(results)-1; i++ {
		maxIdx := i
		for j := i + 1; j < len(results); j++ {
			if results[j].Score > results[maxIdx].Score {
				maxIdx = j
			}
		}
		if maxIdx != i {
			results[i], results[maxIdx] = results[maxIdx], results[i]
		}
	}

	return results
}

// searchWithExclusions searches for the best move excluding certain moves at
// the root, used by SearchMultiPV to find the 2nd, 3rd, ... best line.
func (e *Engine) searchWithExclusions(pos *board.Position, limits SearchLimits, excluded []board.Move) (board.Move, int, []board.Move, int) {
	e.searcher.Reset()
	e.searcher.SetExcludedMoves(excluded)
	e.tt.NewSearch()

	startTime := time.Now()
	var bestMove board.Move
	var bestScore int
	var bestDepth int

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = startTime.Add(limits.MoveTime)
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		move, score := e.searcher.SearchDepth(pos, depth, bestScore)
		if e.searcher.IsStopped() {
			break
		}

		if move != board.NoMove {
			bestMove = move
			bestScore = score
			bestDepth = depth
		}

		if score > MateScore-100 || score < -MateScore+100 {
			break
		}

		if !deadline.IsZero() {
			elapsed := time.Since(startTime)
			remaining := limits.MoveTime - elapsed
			if remaining < elapsed {
				break
			}
		}
	}

	pv := e.searcher.GetPV()
	e.searcher.SetExcludedMoves(nil)

	return bestMove, bestScore, pv, bestDepth
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
	e.searcher.Stop()
}

// Clear clears the transposition table and move-ordering/correction-history
// state for a new game.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.ClearOrderer()
}

// IsSearching reports whether a search is currently in progress.
func (e *Engine) IsSearching() bool {
	return e.searching.Load()
}

// ErrResizeDuringSearch is returned by ResizeHash when a search currently
// holds the transposition table.
var ErrResizeDuringSearch = errors.New("engine: cannot resize hash table during search")

// ResizeHash rebuilds the transposition table at the given size in MB. It
// is rejected while a search is in progress, per the UCI Hash option's
// TableResizeDuringSearch error class: the old table stays in place and the
// caller is expected to report ErrResizeDuringSearch to the user rather than
// silently dropping the request.
func (e *Engine) ResizeHash(mb int) error {
	if e.searching.Load() {
		return ErrResizeDuringSearch
	}
	e.tt = NewTranspositionTable(mb)
	e.searcher.SetTT(e.tt)
	return nil
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove()
	}

	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-100 {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+100 {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	return sign + itoa(pawns) + "." + itoa(centipawns)
}

// Simple integer to string (avoid fmt import)
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
