package board

import "fmt"

// Move packs a chess move into 16 bits:
//
//	bits 0-5   source square (0-63)
//	bits 6-11  destination square (0-63)
//	bit  12    capture flag
//	bit  13    promotion flag
//	bits 14-15 auxiliary:
//	             promotion=1: promotion piece (Queen=00, Rook=01, Knight=10, Bishop=11)
//	             promotion=0, capture=1: bit 14 set means en passant
//	             promotion=0, capture=0: bit 14 set means castling
//
// The zero value is NoMove: both squares A1 with no flags set.
type Move uint16

const (
	moveFromShift = 0
	moveToShift   = 6
	moveFromMask  = 0x3F
	moveToMask    = 0x3F

	captureBit   = uint16(1) << 12
	promotionBit = uint16(1) << 13
	auxShift     = 14
	auxMask      = uint16(3) << auxShift

	enPassantBit = uint16(1) << auxShift
	castlingBit  = uint16(1) << auxShift
)

// Promotion piece codes, valid only when the promotion bit is set.
const (
	promoQueen  = uint16(0)
	promoRook   = uint16(1)
	promoKnight = uint16(2)
	promoBishop = uint16(3)
)

// NoMove is the invalid/null move sentinel.
const NoMove Move = 0

// NewMove builds a plain, non-capturing, non-promoting move.
func NewMove(from, to Square) Move {
	return Move(uint16(from)<<moveFromShift | uint16(to)<<moveToShift)
}

// NewCapture builds an ordinary capture (not en passant, not a promotion).
func NewCapture(from, to Square) Move {
	return Move(uint16(from)<<moveFromShift | uint16(to)<<moveToShift | captureBit)
}

// NewPromotion builds a non-capturing promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move(uint16(from)<<moveFromShift | uint16(to)<<moveToShift | promotionBit | promoCode(promo)<<auxShift)
}

// NewPromotionCapture builds a capturing promotion move.
func NewPromotionCapture(from, to Square, promo PieceType) Move {
	return Move(uint16(from)<<moveFromShift | uint16(to)<<moveToShift | captureBit | promotionBit | promoCode(promo)<<auxShift)
}

// NewEnPassant builds an en passant capture.
func NewEnPassant(from, to Square) Move {
	return Move(uint16(from)<<moveFromShift | uint16(to)<<moveToShift | captureBit | enPassantBit)
}

// NewCastling builds a castling move (king's source/destination squares).
func NewCastling(from, to Square) Move {
	return Move(uint16(from)<<moveFromShift | uint16(to)<<moveToShift | castlingBit)
}

func promoCode(pt PieceType) uint16 {
	switch pt {
	case Queen:
		return promoQueen
	case Rook:
		return promoRook
	case Knight:
		return promoKnight
	case Bishop:
		return promoBishop
	default:
		return promoQueen
	}
}

func codeToPromo(code uint16) PieceType {
	switch code {
	case promoQueen:
		return Queen
	case promoRook:
		return Rook
	case promoKnight:
		return Knight
	case promoBishop:
		return Bishop
	default:
		return NoPieceType
	}
}

// From returns the source square.
func (m Move) From() Square {
	return Square(uint16(m) & moveFromMask)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((uint16(m) >> moveToShift) & moveToMask)
}

// IsCapture reports whether the capture flag is set (true for en passant too).
func (m Move) IsCapture() bool {
	return uint16(m)&captureBit != 0
}

// IsPromotion reports whether the promotion flag is set.
func (m Move) IsPromotion() bool {
	return uint16(m)&promotionBit != 0
}

// IsEnPassant reports whether this move is an en passant capture.
func (m Move) IsEnPassant() bool {
	return !m.IsPromotion() && m.IsCapture() && uint16(m)&auxMask != 0
}

// IsCastling reports whether this move is a castling move.
func (m Move) IsCastling() bool {
	return !m.IsPromotion() && !m.IsCapture() && uint16(m)&auxMask != 0
}

// IsQuiet reports whether the move is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// Promotion returns the promotion piece type, or NoPieceType if this is not
// a promotion.
func (m Move) Promotion() PieceType {
	if !m.IsPromotion() {
		return NoPieceType
	}
	return codeToPromo((uint16(m) & auxMask) >> auxShift)
}

// IsTactical reports whether the move is staged as a capture for move
// ordering purposes: true captures, en passant, and queen promotions
// (including queen-promotion captures). Under-promotion pushes are quiet.
func (m Move) IsTactical() bool {
	if m.IsCapture() {
		return true
	}
	if m.IsPromotion() && m.Promotion() == Queen {
		return true
	}
	return false
}

// String returns the move in UCI long algebraic notation, e.g. "e2e4",
// "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}

// ParseMove parses UCI long algebraic notation against the supplied legal
// move list so that castling/en-passant flags are inferred correctly.
func ParseMove(s string, legal []Move) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move string: %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("invalid move string %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("invalid move string %q: %w", s, err)
	}
	var promo PieceType = NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			promo = Queen
		case 'r':
			promo = Rook
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		default:
			return NoMove, fmt.Errorf("invalid promotion piece in %q", s)
		}
	}
	for _, mv := range legal {
		if mv.From() != from || mv.To() != to {
			continue
		}
		if mv.IsPromotion() {
			if mv.Promotion() == promo {
				return mv, nil
			}
			continue
		}
		if promo == NoPieceType {
			return mv, nil
		}
	}
	return NoMove, fmt.Errorf("move %q is not legal in this position", s)
}

// MoveList is a fixed-capacity list of moves, sized for the practical
// per-position legal move bound (218).
type MoveList struct {
	moves [256]Move
	count int
}

// Add appends a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set overwrites the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap exchanges the moves at indices i and j.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether m is present in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the populated portion of the list as a slice. The returned
// slice aliases the list's backing array.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// HistoryEntry saves enough state to undo one applied ply, per make_move's
// reversible-state contract.
type HistoryEntry struct {
	Move           Move // NoMove for a null move
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	MgScore        int16
	EgScore        int16
	Phase          int16
}
