package board

// GenCache holds the derived quantities (checkers, check-mask, pin sets)
// computed once so that GenerateCaptures and GenerateQuiets can each reuse
// them for the same position instead of rescanning the board twice.
type GenCache struct {
	Checkers    Bitboard
	CheckMask   Bitboard
	PinnedOrth  Bitboard // squares holding a piece pinned along a rank/file
	PinnedDiag  Bitboard // squares holding a piece pinned along a diagonal
	DoubleCheck bool
	InCheck     bool
}

// NewGenCache computes the checkers/check-mask/pin information for the side
// to move. Both GenerateCaptures and GenerateQuiets expect a cache built by
// this function for the current position.
func (p *Position) NewGenCache() GenCache {
	checkers, pinnedOrth, pinnedDiag := p.pinsAndCheckers()

	var checkMask Bitboard
	switch checkers.PopCount() {
	case 0:
		checkMask = Universe
	case 1:
		checkerSq := checkers.LSB()
		checkMask = Between(checkerSq, p.KingSquare[p.SideToMove]) | SquareBB(checkerSq)
	default:
		checkMask = Empty
	}

	return GenCache{
		Checkers:    checkers,
		CheckMask:   checkMask,
		PinnedOrth:  pinnedOrth,
		PinnedDiag:  pinnedDiag,
		DoubleCheck: checkers.PopCount() > 1,
		InCheck:     checkers != 0,
	}
}

// pinsAndCheckers returns the attackers of the side-to-move's king and the
// squares holding pieces pinned orthogonally / diagonally to it.
func (p *Position) pinsAndCheckers() (checkers, pinnedOrth, pinnedDiag Bitboard) {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	occ := p.AllOccupied

	checkers = p.AttackersByColor(ksq, them, occ)

	orthSnipers := RookAttacks(ksq, 0) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])
	for orthSnipers != 0 {
		sq := orthSnipers.PopLSB()
		blockers := Between(sq, ksq) & occ
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinnedOrth |= blockers
		}
	}

	diagSnipers := BishopAttacks(ksq, 0) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen])
	for diagSnipers != 0 {
		sq := diagSnipers.PopLSB()
		blockers := Between(sq, ksq) & occ
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinnedDiag |= blockers
		}
	}

	return checkers, pinnedOrth, pinnedDiag
}

// GenerateCaptures appends all legal tactical moves (captures, en passant,
// and queen promotions including queen-promotion captures) to out.
func (p *Position) GenerateCaptures(cache *GenCache, out *MoveList) {
	if cache.DoubleCheck {
		p.generateKingMoves(cache, true, out)
		return
	}
	p.generatePawnCaptures(cache, out)
	p.generateKnightMoves(cache, true, out)
	p.generateBishopMoves(cache, true, out)
	p.generateRookMoves(cache, true, out)
	p.generateQueenMoves(cache, true, out)
	p.generateKingMoves(cache, true, out)
}

// GenerateQuiets appends all legal non-tactical moves (quiet pushes,
// under-promotion pushes, castling) to out. Skipped entirely during
// quiescence search.
func (p *Position) GenerateQuiets(cache *GenCache, out *MoveList) {
	if cache.DoubleCheck {
		p.generateKingMoves(cache, false, out)
		return
	}
	p.generatePawnQuiets(cache, out)
	p.generateKnightMoves(cache, false, out)
	p.generateBishopMoves(cache, false, out)
	p.generateRookMoves(cache, false, out)
	p.generateQueenMoves(cache, false, out)
	p.generateKingMoves(cache, false, out)
	if !cache.InCheck {
		p.generateCastlingMoves(out)
	}
}

// GenerateLegalMoves returns every legal move in the position. Convenience
// wrapper over GenerateCaptures+GenerateQuiets for perft and tests.
func (p *Position) GenerateLegalMoves() *MoveList {
	cache := p.NewGenCache()
	out := &MoveList{}
	p.GenerateCaptures(&cache, out)
	p.GenerateQuiets(&cache, out)
	return out
}

// pinRestrict intersects targets with the line through the king and a
// pinned piece's square, when that piece is pinned.
func (p *Position) pinRestrict(cache *GenCache, from Square, targets Bitboard) Bitboard {
	sqBB := SquareBB(from)
	if cache.PinnedOrth&sqBB != 0 || cache.PinnedDiag&sqBB != 0 {
		return targets & Line(p.KingSquare[p.SideToMove], from)
	}
	return targets
}

func (p *Position) generatePawnCaptures(cache *GenCache, out *MoveList) {
	us := p.SideToMove
	them := us.Other()
	pawns := p.Pieces[us][Pawn]
	theirs := p.Occupied[them]
	backRank := Rank8
	if us == Black {
		backRank = Rank1
	}

	capturers := pawns &^ cache.PinnedOrth
	for capturers != 0 {
		from := capturers.PopLSB()
		targets := PawnAttacks(from, us) & theirs & cache.CheckMask
		targets = p.pinRestrict(cache, from, targets)
		for targets != 0 {
			to := targets.PopLSB()
			if SquareBB(to)&backRank != 0 {
				out.Add(NewPromotionCapture(from, to, Queen))
				out.Add(NewPromotionCapture(from, to, Rook))
				out.Add(NewPromotionCapture(from, to, Knight))
				out.Add(NewPromotionCapture(from, to, Bishop))
			} else {
				out.Add(NewCapture(from, to))
			}
		}
	}

	if p.EnPassant != NoSquare {
		epSq := p.EnPassant
		victimSq := Square(int(epSq) - 8)
		if us == Black {
			victimSq = Square(int(epSq) + 8)
		}
		epAttackers := PawnAttacks(epSq, them) & pawns &^ cache.PinnedOrth
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			// The destination must resolve any current check, either by
			// landing on/blocking the checker's ray or by capturing the
			// checking pawn itself via en passant.
			resolvesCheck := cache.CheckMask&SquareBB(epSq) != 0 || cache.CheckMask&SquareBB(victimSq) != 0
			if !resolvesCheck {
				continue
			}
			if cache.PinnedDiag&SquareBB(from) != 0 && Line(p.KingSquare[us], from)&SquareBB(epSq) == 0 {
				continue
			}
			if p.epRevealsCheck(from, victimSq) {
				continue
			}
			out.Add(NewEnPassant(from, epSq))
		}
	}

	// Queen-promotion pushes (non-capturing) are staged as tactical.
	pushers := pawns &^ cache.PinnedDiag
	for pushers != 0 {
		from := pushers.PopLSB()
		to := pawnPushTarget(from, us)
		if to == NoSquare || !p.IsEmpty(to) {
			continue
		}
		if SquareBB(to)&backRank == 0 {
			continue
		}
		target := (Bitboard(0)).Set(to) & cache.CheckMask
		target = p.pinRestrict(cache, from, target)
		if target == 0 {
			continue
		}
		out.Add(NewPromotion(from, to, Queen))
	}
}

func (p *Position) generatePawnQuiets(cache *GenCache, out *MoveList) {
	us := p.SideToMove
	pawns := p.Pieces[us][Pawn]
	backRank := Rank8
	startRank := Rank2
	if us == Black {
		backRank = Rank1
		startRank = Rank7
	}

	pushers := pawns &^ cache.PinnedDiag
	for pushers != 0 {
		from := pushers.PopLSB()
		to := pawnPushTarget(from, us)
		if to == NoSquare || !p.IsEmpty(to) {
			continue
		}
		target := (Bitboard(0)).Set(to) & cache.CheckMask
		target = p.pinRestrict(cache, from, target)
		if target != 0 {
			if SquareBB(to)&backRank != 0 {
				out.Add(NewPromotion(from, to, Rook))
				out.Add(NewPromotion(from, to, Knight))
				out.Add(NewPromotion(from, to, Bishop))
			} else {
				out.Add(NewMove(from, to))
			}
		}

		if SquareBB(from)&startRank == 0 {
			continue
		}
		to2 := pawnPushTarget(to, us)
		if to2 == NoSquare || !p.IsEmpty(to2) {
			continue
		}
		target2 := (Bitboard(0)).Set(to2) & cache.CheckMask
		target2 = p.pinRestrict(cache, from, target2)
		if target2 != 0 {
			out.Add(NewMove(from, to2))
		}
	}
}

func pawnPushTarget(from Square, c Color) Square {
	if c == White {
		if from.Rank() == 7 {
			return NoSquare
		}
		return Square(int(from) + 8)
	}
	if from.Rank() == 0 {
		return NoSquare
	}
	return Square(int(from) - 8)
}

// epRevealsCheck reports whether removing both the capturing pawn and its
// en-passant victim from the board would expose the king to a sliding
// attack along the shared rank (the classic 5th-rank discovered check).
func (p *Position) epRevealsCheck(capturerSq, victimSq Square) bool {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	occ := p.AllOccupied &^ SquareBB(capturerSq) &^ SquareBB(victimSq)
	attackers := (RookAttacks(ksq, occ) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])) |
		(BishopAttacks(ksq, occ) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen]))
	return attackers != 0
}

func (p *Position) generateKnightMoves(cache *GenCache, wantCaptures bool, out *MoveList) {
	us := p.SideToMove
	knights := p.Pieces[us][Knight] &^ cache.PinnedOrth &^ cache.PinnedDiag
	for knights != 0 {
		from := knights.PopLSB()
		var targets Bitboard
		if wantCaptures {
			targets = KnightAttacks(from) & p.Occupied[us.Other()] & cache.CheckMask
		} else {
			targets = KnightAttacks(from) &^ p.AllOccupied & cache.CheckMask
		}
		for targets != 0 {
			to := targets.PopLSB()
			if wantCaptures {
				out.Add(NewCapture(from, to))
			} else {
				out.Add(NewMove(from, to))
			}
		}
	}
}

func (p *Position) generateSliderMoves(cache *GenCache, pieces Bitboard, attacksFn func(Square, Bitboard) Bitboard, skipMask Bitboard, wantCaptures bool, out *MoveList) {
	us := p.SideToMove
	bb := pieces &^ skipMask
	for bb != 0 {
		from := bb.PopLSB()
		var targets Bitboard
		if wantCaptures {
			targets = attacksFn(from, p.AllOccupied) & p.Occupied[us.Other()] & cache.CheckMask
		} else {
			targets = attacksFn(from, p.AllOccupied) &^ p.AllOccupied & cache.CheckMask
		}
		targets = p.pinRestrict(cache, from, targets)
		for targets != 0 {
			to := targets.PopLSB()
			if wantCaptures {
				out.Add(NewCapture(from, to))
			} else {
				out.Add(NewMove(from, to))
			}
		}
	}
}

func (p *Position) generateBishopMoves(cache *GenCache, wantCaptures bool, out *MoveList) {
	us := p.SideToMove
	p.generateSliderMoves(cache, p.Pieces[us][Bishop], BishopAttacks, cache.PinnedOrth, wantCaptures, out)
}

func (p *Position) generateRookMoves(cache *GenCache, wantCaptures bool, out *MoveList) {
	us := p.SideToMove
	p.generateSliderMoves(cache, p.Pieces[us][Rook], RookAttacks, cache.PinnedDiag, wantCaptures, out)
}

func (p *Position) generateQueenMoves(cache *GenCache, wantCaptures bool, out *MoveList) {
	us := p.SideToMove
	// A pinned queen can still slide along whichever ray pins it; pinRestrict
	// enforces that, so queens are never skipped outright by pin type.
	p.generateSliderMoves(cache, p.Pieces[us][Queen], QueenAttacks, Empty, wantCaptures, out)
}

func (p *Position) generateKingMoves(cache *GenCache, wantCaptures bool, out *MoveList) {
	us := p.SideToMove
	them := us.Other()
	from := p.KingSquare[us]

	var targets Bitboard
	if wantCaptures {
		targets = KingAttacks(from) & p.Occupied[them]
	} else {
		targets = KingAttacks(from) &^ p.AllOccupied
	}

	for targets != 0 {
		to := targets.PopLSB()
		occAfter := (p.AllOccupied &^ SquareBB(from)) | SquareBB(to)
		if p.AttackersByColor(to, them, occAfter) != 0 {
			continue
		}
		if wantCaptures {
			out.Add(NewCapture(from, to))
		} else {
			out.Add(NewMove(from, to))
		}
	}
}

func (p *Position) generateCastlingMoves(out *MoveList) {
	us := p.SideToMove
	them := us.Other()
	from := p.KingSquare[us]

	if us == White {
		if p.CastlingRights.CanCastle(White, true) &&
			p.IsEmpty(F1) && p.IsEmpty(G1) &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(F1, them) && !p.IsSquareAttacked(G1, them) {
			out.Add(NewCastling(from, G1))
		}
		if p.CastlingRights.CanCastle(White, false) &&
			p.IsEmpty(D1) && p.IsEmpty(C1) && p.IsEmpty(B1) &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(D1, them) && !p.IsSquareAttacked(C1, them) {
			out.Add(NewCastling(from, C1))
		}
		return
	}

	if p.CastlingRights.CanCastle(Black, true) &&
		p.IsEmpty(F8) && p.IsEmpty(G8) &&
		!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(F8, them) && !p.IsSquareAttacked(G8, them) {
		out.Add(NewCastling(from, G8))
	}
	if p.CastlingRights.CanCastle(Black, false) &&
		p.IsEmpty(D8) && p.IsEmpty(C8) && p.IsEmpty(B8) &&
		!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(D8, them) && !p.IsSquareAttacked(C8, them) {
		out.Add(NewCastling(from, C8))
	}
}

// castleRookSquares gives the rook's (from, to) squares for a castling move
// identified by the king's destination square.
func castleRookSquares(kingTo Square) (from, to Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	case C8:
		return A8, D8
	}
	return NoSquare, NoSquare
}

var castleRightsLost [64]CastlingRights

func init() {
	castleRightsLost[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	castleRightsLost[A1] = WhiteQueenSideCastle
	castleRightsLost[H1] = WhiteKingSideCastle
	castleRightsLost[E8] = BlackKingSideCastle | BlackQueenSideCastle
	castleRightsLost[A8] = BlackQueenSideCastle
	castleRightsLost[H8] = BlackKingSideCastle
}

// MakeMove applies mv to the position, pushing a HistoryEntry that
// UnmakeMove uses to restore the pre-move state exactly.
func (p *Position) MakeMove(mv Move) {
	us := p.SideToMove
	them := us.Other()
	from, to := mv.From(), mv.To()

	entry := HistoryEntry{
		Move:           mv,
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

	movingPiece := p.PieceAt(from)
	isPawnMove := movingPiece.Type() == Pawn

	if p.EnPassant != NoSquare {
		p.Hash ^= ZobristEnPassant(p.EnPassant.File())
	}
	p.EnPassant = NoSquare

	if mv.IsEnPassant() {
		victimSq := Square(int(to) - 8)
		if us == Black {
			victimSq = Square(int(to) + 8)
		}
		entry.CapturedPiece = p.removePiece(victimSq)
	} else if mv.IsCapture() {
		entry.CapturedPiece = p.removePiece(to)
	}

	p.removePiece(from)
	if mv.IsPromotion() {
		p.setPiece(NewPiece(mv.Promotion(), us), to)
	} else {
		p.setPiece(movingPiece, to)
	}

	if mv.IsCastling() {
		rookFrom, rookTo := castleRookSquares(to)
		rook := p.removePiece(rookFrom)
		p.setPiece(rook, rookTo)
	}

	if isPawnMove && abs(to.Rank()-from.Rank()) == 2 {
		epSq := Square((int(from) + int(to)) / 2)
		if PawnAttacks(epSq, us)&p.Pieces[them][Pawn] != 0 {
			p.EnPassant = epSq
			p.Hash ^= ZobristEnPassant(epSq.File())
		}
	}

	newRights := p.CastlingRights &^ castleRightsLost[from] &^ castleRightsLost[to]
	if newRights != p.CastlingRights {
		p.Hash ^= ZobristCastling(p.CastlingRights)
		p.Hash ^= ZobristCastling(newRights)
		p.CastlingRights = newRights
	}

	if isPawnMove || mv.IsCapture() {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	p.Ply++
	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them
	p.Hash ^= ZobristSideToMove()

	p.UpdateCheckers()
	p.History = append(p.History, entry)
}

// UnmakeMove reverses the most recently applied move.
func (p *Position) UnmakeMove() {
	n := len(p.History)
	entry := p.History[n-1]
	p.History = p.History[:n-1]

	mv := entry.Move
	from, to := mv.From(), mv.To()

	p.SideToMove = p.SideToMove.Other()
	us := p.SideToMove
	them := us.Other()

	p.Ply--
	if us == Black {
		p.FullMoveNumber--
	}

	if mv.IsCastling() {
		rookFrom, rookTo := castleRookSquares(to)
		rook := p.removePiece(rookTo)
		p.setPiece(rook, rookFrom)
	}

	movedPiece := p.removePiece(to)
	if mv.IsPromotion() {
		p.setPiece(NewPiece(Pawn, us), from)
	} else {
		p.setPiece(movedPiece, from)
	}

	if mv.IsEnPassant() {
		victimSq := Square(int(to) - 8)
		if us == Black {
			victimSq = Square(int(to) + 8)
		}
		p.setPiece(NewPiece(Pawn, them), victimSq)
	} else if mv.IsCapture() && entry.CapturedPiece != NoPiece {
		p.setPiece(entry.CapturedPiece, to)
	}

	p.CastlingRights = entry.CastlingRights
	p.EnPassant = entry.EnPassant
	p.HalfMoveClock = entry.HalfMoveClock
	p.Hash = entry.Hash
	p.PawnKey = entry.PawnKey
	p.EvalMG = entry.MgScore
	p.EvalEG = entry.EgScore
	p.Phase = entry.Phase

	p.UpdateCheckers()
}

// HasLegalMoves reports whether the side to move has at least one legal
// move, short-circuiting after captures if any exist.
func (p *Position) HasLegalMoves() bool {
	cache := p.NewGenCache()
	var scratch MoveList
	p.GenerateCaptures(&cache, &scratch)
	if scratch.Len() > 0 {
		return true
	}
	p.GenerateQuiets(&cache, &scratch)
	return scratch.Len() > 0
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move is stalemated.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsRepeatedPosition reports whether the current Zobrist hash matches a
// previous position within the last HalfMoveClock plies (two-fold
// repetition, the sound in-search approximation of the FIDE threefold rule).
func (p *Position) IsRepeatedPosition() bool {
	n := len(p.History)
	limit := p.HalfMoveClock
	if limit > n {
		limit = n
	}
	// History entries alternate side to move; a repeat of the current
	// position can only land an even number of plies back.
	for i := 2; i <= limit; i += 2 {
		if p.History[n-i].Hash == p.Hash {
			return true
		}
	}
	return false
}

// LastMoveWasNull reports whether the most recently applied ply (real move
// or null move) was a null move, used to forbid two null moves in a row.
func (p *Position) LastMoveWasNull() bool {
	n := len(p.History)
	return n > 0 && p.History[n-1].Move == NoMove
}

// IsDrawByFiftyMoveRule reports the 50-move draw condition: the half-move
// clock has reached 100 and the side to move has a legal move (a mating
// move pre-empts the claim).
func (p *Position) IsDrawByFiftyMoveRule() bool {
	return p.HalfMoveClock >= 100 && p.HasLegalMoves()
}

// IsInsufficientMaterial reports whether neither side has enough material
// to force checkmate: bare kings, king+minor vs king, two knights vs king,
// or same-colored bishop pairs vs king.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn]|p.Pieces[White][Rook]|p.Pieces[Black][Rook]|
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wn, wb := p.Pieces[White][Knight].PopCount(), p.Pieces[White][Bishop].PopCount()
	bn, bb := p.Pieces[Black][Knight].PopCount(), p.Pieces[Black][Bishop].PopCount()
	wMinor, bMinor := wn+wb, bn+bb

	if wMinor == 0 && bMinor == 0 {
		return true
	}
	if wMinor+bMinor == 1 {
		return true // lone minor vs bare king
	}
	if (wn == 2 && wb == 0 && bMinor == 0) || (bn == 2 && bb == 0 && wMinor == 0) {
		return true // two knights vs bare king cannot force mate
	}
	if wb == 2 && wn == 0 && bMinor == 0 && sameBishopColor(p.Pieces[White][Bishop]) {
		return true
	}
	if bb == 2 && bn == 0 && wMinor == 0 && sameBishopColor(p.Pieces[Black][Bishop]) {
		return true
	}

	return false
}

func sameBishopColor(bishops Bitboard) bool {
	if bishops.PopCount() != 2 {
		return false
	}
	sq1 := bishops.LSB()
	bishops &= bishops - 1
	sq2 := bishops.LSB()
	return (sq1.File()+sq1.Rank())%2 == (sq2.File()+sq2.Rank())%2
}

// IsDraw reports any of the in-search draw conditions.
func (p *Position) IsDraw() bool {
	return p.IsRepeatedPosition() || p.IsDrawByFiftyMoveRule() || p.IsInsufficientMaterial()
}
