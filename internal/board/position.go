package board

import "fmt"

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// Position represents a complete chess position.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [2][6]Bitboard

	// Occupancy bitboards (cached for efficiency)
	Occupied    [2]Bitboard // All pieces of each color
	AllOccupied Bitboard    // All pieces on the board

	// Game state
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int    // Moves since last pawn move or capture (for 50-move rule)
	FullMoveNumber int    // Full move counter, starts at 1

	// Zobrist hash for transposition table
	Hash uint64

	// Pawn hash key for pawn structure caching
	PawnKey uint64

	// King positions (cached for check detection)
	KingSquare [2]Square

	// Checkers bitboard (pieces giving check)
	Checkers Bitboard

	// Ply is the half-move count since the game start (not since the last
	// irreversible move); used for mate-distance scoring and repetition scans.
	Ply int

	// Incremental evaluation accumulator: phased piece-square-table score and
	// game-phase value, updated on every setPiece/removePiece/movePiece so
	// that leaf evaluation never rescans the board for these terms.
	EvalMG int16
	EvalEG int16
	Phase  int16

	// History is the undo stack; one entry per applied ply (including null
	// moves, for which Move == NoMove).
	History []HistoryEntry
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy creates a deep copy of the position, including its undo history.
func (p *Position) Copy() *Position {
	newPos := *p
	if p.History != nil {
		newPos.History = make([]HistoryEntry, len(p.History))
		copy(newPos.History, p.History)
	}
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)

	// Check if square is occupied
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}

	// Find the color
	var c Color
	if p.Occupied[White]&bb != 0 {
		c = White
	} else {
		c = Black
	}

	// Find the piece type
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}

	return NoPiece
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// setPiece places a piece on a square, updating occupancy, the incremental
// eval accumulator and the Zobrist/pawn hashes. Does not touch history.
func (p *Position) setPiece(piece Piece, sq Square) {
	if piece == NoPiece {
		return
	}
	c := piece.Color()
	pt := piece.Type()
	bb := SquareBB(sq)

	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb

	if pt == King {
		p.KingSquare[c] = sq
	}

	mg, eg := pstValue(pt, c, sq)
	p.EvalMG += mg
	p.EvalEG += eg
	p.Phase += phaseWeight[pt]

	p.Hash ^= ZobristPiece(c, pt, sq)
	if pt == Pawn {
		p.PawnKey ^= ZobristPiece(c, pt, sq)
	}
}

// removePiece removes a piece from a square, updating occupancy, the
// incremental eval accumulator and the Zobrist/pawn hashes.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return NoPiece
	}

	c := piece.Color()
	pt := piece.Type()
	bb := SquareBB(sq)

	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb

	mg, eg := pstValue(pt, c, sq)
	p.EvalMG -= mg
	p.EvalEG -= eg
	p.Phase -= phaseWeight[pt]

	p.Hash ^= ZobristPiece(c, pt, sq)
	if pt == Pawn {
		p.PawnKey ^= ZobristPiece(c, pt, sq)
	}

	return piece
}

// movePiece moves a piece from one square to another, updating occupancy,
// the incremental eval accumulator and the Zobrist/pawn hashes.
func (p *Position) movePiece(from, to Square) {
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return
	}

	c := piece.Color()
	pt := piece.Type()
	fromBB := SquareBB(from)
	toBB := SquareBB(to)
	moveBB := fromBB | toBB

	p.Pieces[c][pt] ^= moveBB
	p.Occupied[c] ^= moveBB
	p.AllOccupied ^= moveBB

	if pt == King {
		p.KingSquare[c] = to
	}

	mgFrom, egFrom := pstValue(pt, c, from)
	mgTo, egTo := pstValue(pt, c, to)
	p.EvalMG += mgTo - mgFrom
	p.EvalEG += egTo - egFrom

	key := ZobristPiece(c, pt, from) ^ ZobristPiece(c, pt, to)
	p.Hash ^= key
	if pt == Pawn {
		p.PawnKey ^= key
	}
}

// updateOccupied recalculates occupancy bitboards from piece bitboards.
func (p *Position) updateOccupied() {
	p.Occupied[White] = Empty
	p.Occupied[Black] = Empty

	for pt := Pawn; pt <= King; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}

	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

// findKings locates and caches the king positions.
func (p *Position) findKings() {
	p.KingSquare[White] = p.Pieces[White][King].LSB()
	p.KingSquare[Black] = p.Pieces[Black][King].LSB()
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	s := "\n"
	for rank := 7; rank >= 0; rank-- {
		s += fmt.Sprintf("%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				s += ". "
			} else {
				s += piece.String() + " "
			}
		}
		s += "\n"
	}
	s += "\n   a b c d e f g h\n\n"
	s += fmt.Sprintf("Side to move: %s\n", p.SideToMove)
	s += fmt.Sprintf("Castling: %s\n", p.CastlingRights)
	s += fmt.Sprintf("En passant: %s\n", p.EnPassant)
	s += fmt.Sprintf("Half-move clock: %d\n", p.HalfMoveClock)
	s += fmt.Sprintf("Full move: %d\n", p.FullMoveNumber)
	s += fmt.Sprintf("Hash: %016x\n", p.Hash)
	return s
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	p.KingSquare[White] = NoSquare
	p.KingSquare[Black] = NoSquare
}

// Validate checks if the position is valid.
func (p *Position) Validate() error {
	// Check that each side has exactly one king
	if p.Pieces[White][King].PopCount() != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if p.Pieces[Black][King].PopCount() != 1 {
		return fmt.Errorf("black must have exactly one king")
	}

	// Check that pawns are not on rank 1 or 8
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("pawns cannot be on rank 1 or 8")
	}

	// Check that opponent's king is not in check (would be illegal position)
	if p.IsSquareAttacked(p.KingSquare[p.SideToMove.Other()], p.SideToMove) {
		return fmt.Errorf("side not to move is in check")
	}

	return nil
}

// GameOver returns true if the game is over (checkmate, stalemate, or draw).
func (p *Position) GameOver() bool {
	return p.IsCheckmate() || p.IsStalemate() || p.IsDraw()
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

// Material returns the material balance (positive favors white).
func (p *Position) Material() int {
	score := 0
	for pt := Pawn; pt < King; pt++ {
		score += p.Pieces[White][pt].PopCount() * PieceValue[pt]
		score -= p.Pieces[Black][pt].PopCount() * PieceValue[pt]
	}
	return score
}

// ComputePinned computes pieces pinned to the king for the side to move.
// Uses Stockfish-style x-ray attack detection.
func (p *Position) ComputePinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	pinned := Bitboard(0)

	// Rook/Queen x-ray attacks (horizontal and vertical)
	snipers := RookAttacks(ksq, 0) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])
	for snipers != 0 {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}

	// Bishop/Queen x-ray attacks (diagonals)
	snipers = BishopAttacks(ksq, 0) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen])
	for snipers != 0 {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}

	return pinned
}

// MakeNullMove makes a null move (passes the turn without moving), pushing a
// HistoryEntry with Move == NoMove so History stays in lock-step with Ply:
// UnmakeNullMove pops it, and IsRepeatedPosition's step-by-2 scan keeps
// working for positions reached through a null-move subtree.
// Used for null move pruning in search.
func (p *Position) MakeNullMove() {
	entry := HistoryEntry{
		Move:           NoMove,
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		MgScore:        p.EvalMG,
		EgScore:        p.EvalEG,
		Phase:          p.Phase,
	}
	p.History = append(p.History, entry)

	// Update hash for en passant removal
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	// Clear en passant
	p.EnPassant = NoSquare

	// Switch side
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSideToMove
	p.Ply++

	// Update checkers for new side
	p.UpdateCheckers()
}

// UnmakeNullMove undoes the most recently applied null move.
func (p *Position) UnmakeNullMove() {
	n := len(p.History)
	entry := p.History[n-1]
	p.History = p.History[:n-1]

	p.SideToMove = p.SideToMove.Other()
	p.Ply--

	p.CastlingRights = entry.CastlingRights
	p.EnPassant = entry.EnPassant
	p.HalfMoveClock = entry.HalfMoveClock
	p.Hash = entry.Hash
	p.PawnKey = entry.PawnKey
	p.EvalMG = entry.MgScore
	p.EvalEG = entry.EgScore
	p.Phase = entry.Phase

	// Update checkers for restored side
	p.UpdateCheckers()
}

// HasNonPawnMaterial returns true if the side to move has non-pawn material.
// Used for null move pruning (avoid in pure pawn endgames due to zugzwang).
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0
}
