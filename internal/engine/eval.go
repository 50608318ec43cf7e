// Package engine implements move ordering, search and evaluation for chess positions.
package engine

import (
	"github.com/hailam/chessplay/internal/board"
)

// Piece values used by SEE, quiescence delta pruning and EvaluateMaterial.
// The tapered PST material is folded into board.Position's incremental
// accumulator (internal/board/pst.go) and is not recomputed here.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Passed pawn bonuses by rank relative to the pawn's own side (0 = 1st rank).
var passedPawnBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

const (
	passedPawnConnectedBonus = 20
	passedPawnProtectedBonus = 15
	passedPawnFreePathBonus  = 30
)

var mobilityMgWeight = [6]int{0, 4, 5, 2, 1, 0}
var mobilityEgWeight = [6]int{0, 3, 4, 4, 2, 0}

// attackerWeight indexes the king-attack-pressure table by attacking piece type.
var attackerWeight = [6]int{0, 20, 20, 40, 80, 0}

const (
	bishopPairMgBonus = 25
	bishopPairEgBonus = 50
)

const (
	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15
)

const (
	doubledPawnMgPenalty  = -15
	doubledPawnEgPenalty  = -20
	isolatedPawnMgPenalty = -20
	isolatedPawnEgPenalty = -25
	backwardPawnMgPenalty = -15
	backwardPawnEgPenalty = -10
)

const (
	knightOutpostMg          = 25
	knightOutpostEg          = 15
	knightOutpostProtectedMg = 15
	knightOutpostProtectedEg = 10
	bishopOutpostMg          = 15
	bishopOutpostEg          = 10
)

const tempoBonus = 10

var tropismWeight = [6]int{0, 3, 2, 2, 5, 0}
var kingDistanceBonus = [8]int{0, 0, 10, 20, 30, 40, 50, 60}

const passedPawnUnstoppableBonus = 200

// Evaluate returns the static evaluation of the position from the side to
// move's perspective. The piece-square/material/phase term comes from the
// position's incremental accumulator; every other term is recomputed at the
// leaf, matching the degree of caching the teacher itself used.
func Evaluate(pos *board.Position) int {
	return evaluateWithPawnTable(pos, nil)
}

// EvaluateWithPawnTable is like Evaluate but caches the pawn-structure term
// in the supplied table, keyed by the position's pawn Zobrist key.
func EvaluateWithPawnTable(pos *board.Position, pawnTable *PawnTable) int {
	return evaluateWithPawnTable(pos, pawnTable)
}

func evaluateWithPawnTable(pos *board.Position, pawnTable *PawnTable) int {
	mgScore := int(pos.EvalMG)
	egScore := int(pos.EvalEG)
	phase := int(pos.Phase)

	ppMg, ppEg := evaluatePassedPawns(pos)
	mgScore += ppMg
	egScore += ppEg

	mobMg, mobEg := evaluateMobility(pos)
	mgScore += mobMg
	egScore += mobEg

	mgScore += evaluateKingSafety(pos)
	mgScore += evaluateKingTropism(pos)

	bpMg, bpEg := evaluateBishopPair(pos)
	mgScore += bpMg
	egScore += bpEg

	rfMg, rfEg := evaluateRooksOnFiles(pos)
	mgScore += rfMg
	egScore += rfEg

	psMg, psEg := evaluatePawnStructureWithCache(pos, pawnTable)
	mgScore += psMg
	egScore += psEg

	opMg, opEg := evaluateOutposts(pos)
	mgScore += opMg
	egScore += opEg

	if phase > board.MaxPhase {
		phase = board.MaxPhase
	}
	score := (mgScore*phase + egScore*(board.MaxPhase-phase)) / board.MaxPhase
	score += tempoBonus

	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// EvaluateMaterial returns just the material balance, from the side to
// move's perspective, without the positional terms.
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// IsEndgame reports whether the position has simplified to an endgame:
// no queens, or very little material left off the board.
func IsEndgame(pos *board.Position) bool {
	whiteQueens := pos.Pieces[board.White][board.Queen].PopCount()
	blackQueens := pos.Pieces[board.Black][board.Queen].PopCount()
	if whiteQueens == 0 && blackQueens == 0 {
		return true
	}
	whitePieces := pos.Pieces[board.White][board.Knight].PopCount() +
		pos.Pieces[board.White][board.Bishop].PopCount() +
		pos.Pieces[board.White][board.Rook].PopCount()
	blackPieces := pos.Pieces[board.Black][board.Knight].PopCount() +
		pos.Pieces[board.Black][board.Bishop].PopCount() +
		pos.Pieces[board.Black][board.Rook].PopCount()
	return whiteQueens+blackQueens <= 1 && whitePieces+blackPieces <= 4
}

func isPassedPawn(pos *board.Position, sq board.Square, color board.Color) bool {
	file := sq.File()
	enemyPawns := pos.Pieces[color.Other()][board.Pawn]

	fileMask := board.FileMask[file]
	if file > 0 {
		fileMask |= board.FileMask[file-1]
	}
	if file < 7 {
		fileMask |= board.FileMask[file+1]
	}

	var frontMask board.Bitboard
	if color == board.White {
		frontMask = board.SquareBB(sq).NorthFill() &^ board.SquareBB(sq)
	} else {
		frontMask = board.SquareBB(sq).SouthFill() &^ board.SquareBB(sq)
	}

	return (enemyPawns & fileMask & frontMask) == 0
}

// evaluatePassedPawns implements §4.5 item 5, enriched with king-distance and
// unstoppable-pawn terms grounded on the teacher's endgame handling.
func evaluatePassedPawns(pos *board.Position) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}

		pawns := pos.Pieces[color][board.Pawn]
		friendlyPawns := pawns
		enemy := color.Other()
		friendlyKingSq := pos.KingSquare[color]
		enemyKingSq := pos.KingSquare[enemy]

		for pawns != 0 {
			sq := pawns.PopLSB()
			if !isPassedPawn(pos, sq, color) {
				continue
			}

			relRank := sq.RelativeRank(color)
			file := sq.File()
			bonus := passedPawnBonus[relRank]
			egBonusExtra := 0

			var promoSq board.Square
			if color == board.White {
				promoSq = board.NewSquare(file, 7)
			} else {
				promoSq = board.NewSquare(file, 0)
			}

			friendlyKingDist := chebyshevDistance(friendlyKingSq, sq)
			egBonusExtra += kingDistanceBonus[7-minInt(friendlyKingDist, 7)]

			enemyKingDistToPromo := chebyshevDistance(enemyKingSq, promoSq)
			egBonusExtra += kingDistanceBonus[minInt(enemyKingDistToPromo, 7)]

			if board.PawnAttacks(sq, color.Other())&friendlyPawns != 0 {
				bonus += passedPawnProtectedBonus
			}

			var adjacentFiles board.Bitboard
			if file > 0 {
				adjacentFiles |= board.FileMask[file-1]
			}
			if file < 7 {
				adjacentFiles |= board.FileMask[file+1]
			}
			for temp := friendlyPawns & adjacentFiles; temp != 0; {
				connSq := temp.PopLSB()
				if isPassedPawn(pos, connSq, color) {
					bonus += passedPawnConnectedBonus
					break
				}
			}

			var frontSquares board.Bitboard
			if color == board.White {
				frontSquares = board.SquareBB(sq).NorthFill() &^ board.SquareBB(sq)
			} else {
				frontSquares = board.SquareBB(sq).SouthFill() &^ board.SquareBB(sq)
			}
			frontSquares &= board.FileMask[file]
			pathClear := (frontSquares & pos.AllOccupied) == 0
			if pathClear {
				bonus += passedPawnFreePathBonus
			}

			if pathClear && relRank >= 4 {
				squaresToPromo := 7 - relRank
				enemyKingDistToPawn := chebyshevDistance(enemyKingSq, sq)
				tempo := 0
				if pos.SideToMove == color {
					tempo = 1
				}
				if enemyKingDistToPawn > squaresToPromo+1-tempo {
					egBonusExtra += passedPawnUnstoppableBonus
				}
			}

			mgBonus += sign * bonus
			egBonus += sign * (bonus*3/2 + egBonusExtra)
		}
	}
	return mgBonus, egBonus
}

// evaluateMobility implements §4.5 item 3: safe destination squares (not
// attacked by an enemy pawn) for knights/bishops/rooks/queens.
func evaluateMobility(pos *board.Position) (mgBonus, egBonus int) {
	occupied := pos.AllOccupied

	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}

		enemyPawns := pos.Pieces[color.Other()][board.Pawn]
		var unsafeSquares board.Bitboard
		if color == board.White {
			unsafeSquares = enemyPawns.SouthEast() | enemyPawns.SouthWest()
		} else {
			unsafeSquares = enemyPawns.NorthEast() | enemyPawns.NorthWest()
		}
		blockedSquares := unsafeSquares | pos.Occupied[color]

		for knights := pos.Pieces[color][board.Knight]; knights != 0; {
			sq := knights.PopLSB()
			count := (board.KnightAttacks(sq) &^ blockedSquares).PopCount()
			mgBonus += sign * mobilityMgWeight[board.Knight] * count
			egBonus += sign * mobilityEgWeight[board.Knight] * count
		}
		for bishops := pos.Pieces[color][board.Bishop]; bishops != 0; {
			sq := bishops.PopLSB()
			count := (board.BishopAttacks(sq, occupied) &^ blockedSquares).PopCount()
			mgBonus += sign * mobilityMgWeight[board.Bishop] * count
			egBonus += sign * mobilityEgWeight[board.Bishop] * count
		}
		for rooks := pos.Pieces[color][board.Rook]; rooks != 0; {
			sq := rooks.PopLSB()
			count := (board.RookAttacks(sq, occupied) &^ blockedSquares).PopCount()
			mgBonus += sign * mobilityMgWeight[board.Rook] * count
			egBonus += sign * mobilityEgWeight[board.Rook] * count
		}
		for queens := pos.Pieces[color][board.Queen]; queens != 0; {
			sq := queens.PopLSB()
			count := (board.QueenAttacks(sq, occupied) &^ blockedSquares).PopCount()
			mgBonus += sign * mobilityMgWeight[board.Queen] * count
			egBonus += sign * mobilityEgWeight[board.Queen] * count
		}
	}
	return mgBonus, egBonus
}

// evaluateKingSafety implements §4.5 item 4 (attacker count into the king's
// neighborhood) plus a pawn-shield term.
func evaluateKingSafety(pos *board.Position) int {
	var score int
	occupied := pos.AllOccupied

	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}

		kingSq := pos.KingSquare[color]
		kingFile := kingSq.File()
		kingZone := board.KingAttacks(kingSq) | board.SquareBB(kingSq)
		if color == board.White {
			kingZone |= kingZone.North()
		} else {
			kingZone |= kingZone.South()
		}

		enemy := color.Other()
		attackerCount := 0
		attackWeight := 0

		for temp := pos.Pieces[enemy][board.Knight]; temp != 0; {
			sq := temp.PopLSB()
			if board.KnightAttacks(sq)&kingZone != 0 {
				attackerCount++
				attackWeight += attackerWeight[board.Knight]
			}
		}
		for temp := pos.Pieces[enemy][board.Bishop]; temp != 0; {
			sq := temp.PopLSB()
			if board.BishopAttacks(sq, occupied)&kingZone != 0 {
				attackerCount++
				attackWeight += attackerWeight[board.Bishop]
			}
		}
		for temp := pos.Pieces[enemy][board.Rook]; temp != 0; {
			sq := temp.PopLSB()
			if board.RookAttacks(sq, occupied)&kingZone != 0 {
				attackerCount++
				attackWeight += attackerWeight[board.Rook]
			}
		}
		for temp := pos.Pieces[enemy][board.Queen]; temp != 0; {
			sq := temp.PopLSB()
			if board.QueenAttacks(sq, occupied)&kingZone != 0 {
				attackerCount++
				attackWeight += attackerWeight[board.Queen]
			}
		}

		if attackerCount >= 2 {
			attackWeight = attackWeight * attackerCount / 2
		}
		score -= sign * attackWeight

		ownPawns := pos.Pieces[color][board.Pawn]
		enemyFilePawns := pos.Pieces[enemy][board.Pawn]
		for f := kingFile - 1; f <= kingFile+1; f++ {
			if f < 0 || f > 7 {
				continue
			}
			filePawns := ownPawns & board.FileMask[f]
			enemyOnFile := enemyFilePawns & board.FileMask[f]

			shieldRank := 1
			if color == board.Black {
				shieldRank = 6
			}
			shieldMask := board.FileMask[f] & board.RankMask[shieldRank]
			switch {
			case ownPawns&shieldMask != 0:
				score += sign * 10
			case filePawns == 0:
				score += sign * -15
			}
			switch {
			case filePawns == 0 && enemyOnFile == 0:
				score += sign * -20
			case filePawns == 0:
				score += sign * -10
			}
		}
	}
	return score
}

// SEE estimates the material result of a capture sequence on m.To() using
// the standard swap algorithm, from the perspective of the side making m.
func SEE(pos *board.Position, m board.Move) int {
	from := m.From()
	to := m.To()

	attacker := pos.PieceAt(from)
	if attacker == board.NoPiece {
		return 0
	}

	var capturedValue int
	if m.IsEnPassant() {
		capturedValue = PawnValue
	} else {
		victim := pos.PieceAt(to)
		if victim == board.NoPiece {
			return 0
		}
		capturedValue = pieceValues[victim.Type()]
	}
	if m.IsPromotion() {
		capturedValue += pieceValues[m.Promotion()] - PawnValue
	}

	return seeSwap(pos, to, from, attacker, capturedValue)
}

func seeSwap(pos *board.Position, target, excludeFrom board.Square, firstAttacker board.Piece, initialGain int) int {
	var gain [32]int
	d := 0
	gain[d] = initialGain

	occupied := pos.AllOccupied &^ board.SquareBB(excludeFrom)
	attackerValue := pieceValues[firstAttacker.Type()]
	side := firstAttacker.Color().Other()

	for {
		d++
		gain[d] = attackerValue - gain[d-1]
		if max(-gain[d-1], gain[d]) < 0 {
			break
		}

		attackerSq, attackerPiece := getLeastValuableAttacker(pos, target, side, occupied)
		if attackerSq == board.NoSquare {
			break
		}

		occupied &^= board.SquareBB(attackerSq)
		attackerValue = pieceValues[attackerPiece.Type()]
		side = side.Other()
	}

	for d--; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}

func getLeastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.Piece) {
	pawnAttackers := pos.Pieces[side][board.Pawn] & board.PawnAttacks(target, side.Other()) & occupied
	if pawnAttackers != 0 {
		return pawnAttackers.LSB(), board.NewPiece(board.Pawn, side)
	}

	knightAttackers := pos.Pieces[side][board.Knight] & board.KnightAttacks(target) & occupied
	if knightAttackers != 0 {
		return knightAttackers.LSB(), board.NewPiece(board.Knight, side)
	}

	bishopAttacks := board.BishopAttacks(target, occupied)
	bishopAttackers := pos.Pieces[side][board.Bishop] & bishopAttacks & occupied
	if bishopAttackers != 0 {
		return bishopAttackers.LSB(), board.NewPiece(board.Bishop, side)
	}

	rookAttacks := board.RookAttacks(target, occupied)
	rookAttackers := pos.Pieces[side][board.Rook] & rookAttacks & occupied
	if rookAttackers != 0 {
		return rookAttackers.LSB(), board.NewPiece(board.Rook, side)
	}

	queenAttackers := pos.Pieces[side][board.Queen] & (bishopAttacks | rookAttacks) & occupied
	if queenAttackers != 0 {
		return queenAttackers.LSB(), board.NewPiece(board.Queen, side)
	}

	kingAttackers := pos.Pieces[side][board.King] & board.KingAttacks(target) & occupied
	if kingAttackers != 0 {
		return kingAttackers.LSB(), board.NewPiece(board.King, side)
	}

	return board.NoSquare, board.NoPiece
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func evaluateBishopPair(pos *board.Position) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}
		if pos.Pieces[color][board.Bishop].PopCount() >= 2 {
			mgBonus += sign * bishopPairMgBonus
			egBonus += sign * bishopPairEgBonus
		}
	}
	return mgBonus, egBonus
}

func evaluateRooksOnFiles(pos *board.Position) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}
		ownPawns := pos.Pieces[color][board.Pawn]
		enemyPawns := pos.Pieces[color.Other()][board.Pawn]

		for rooks := pos.Pieces[color][board.Rook]; rooks != 0; {
			sq := rooks.PopLSB()
			fileMask := board.FileMask[sq.File()]
			hasOwnPawn := ownPawns&fileMask != 0
			hasEnemyPawn := enemyPawns&fileMask != 0
			switch {
			case !hasOwnPawn && !hasEnemyPawn:
				mgBonus += sign * rookOpenFileMg
				egBonus += sign * rookOpenFileEg
			case !hasOwnPawn:
				mgBonus += sign * rookSemiOpenFileMg
				egBonus += sign * rookSemiOpenFileEg
			}
		}
	}
	return mgBonus, egBonus
}

// evaluatePawnStructure implements the pawn-structure enrichment: doubled,
// isolated and backward pawns.
func evaluatePawnStructure(pos *board.Position) (mgPenalty, egPenalty int) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}
		allPawns := pos.Pieces[color][board.Pawn]

		for pawns := allPawns; pawns != 0; {
			sq := pawns.PopLSB()
			file := sq.File()
			fileMask := board.FileMask[file]

			pawnsOnFile := allPawns & fileMask
			if pawnsOnFile.PopCount() > 1 {
				forwardPawn := pawnsOnFile.MSB()
				if color == board.Black {
					forwardPawn = pawnsOnFile.LSB()
				}
				if sq == forwardPawn {
					mgPenalty += sign * doubledPawnMgPenalty
					egPenalty += sign * doubledPawnEgPenalty
				}
			}

			var adjacentFiles board.Bitboard
			if file > 0 {
				adjacentFiles |= board.FileMask[file-1]
			}
			if file < 7 {
				adjacentFiles |= board.FileMask[file+1]
			}
			if allPawns&adjacentFiles == 0 {
				mgPenalty += sign * isolatedPawnMgPenalty
				egPenalty += sign * isolatedPawnEgPenalty
				continue
			}

			relRank := sq.RelativeRank(color)
			if relRank <= 1 {
				continue
			}
			var behindMask board.Bitboard
			if color == board.White {
				for r := 0; r < sq.Rank(); r++ {
					behindMask |= board.RankMask[r]
				}
			} else {
				for r := sq.Rank() + 1; r < 8; r++ {
					behindMask |= board.RankMask[r]
				}
			}
			adjacentPawns := allPawns & adjacentFiles
			if adjacentPawns != 0 && adjacentPawns&behindMask == adjacentPawns {
				continue
			}

			var stopSq board.Square
			if color == board.White {
				stopSq = sq + 8
			} else {
				stopSq = sq - 8
			}
			if stopSq.IsValid() {
				enemyPawns := pos.Pieces[color.Other()][board.Pawn]
				if enemyPawns&board.PawnAttacks(stopSq, color) != 0 {
					mgPenalty += sign * backwardPawnMgPenalty
					egPenalty += sign * backwardPawnEgPenalty
				}
			}
		}
	}
	return mgPenalty, egPenalty
}

func evaluatePawnStructureWithCache(pos *board.Position, pt *PawnTable) (mgScore, egScore int) {
	if pt == nil {
		return evaluatePawnStructure(pos)
	}
	if mg, eg, found := pt.Probe(pos.PawnKey); found {
		return mg, eg
	}
	mg, eg := evaluatePawnStructure(pos)
	pt.Store(pos.PawnKey, mg, eg)
	return mg, eg
}

// evaluateOutposts implements the outpost enrichment term for knights and
// bishops sitting where no enemy pawn can ever evict them.
func evaluateOutposts(pos *board.Position) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}
		ownPawns := pos.Pieces[color][board.Pawn]
		enemyPawns := pos.Pieces[color.Other()][board.Pawn]

		var outpostRanks board.Bitboard
		if color == board.White {
			outpostRanks = board.RankMask[3] | board.RankMask[4] | board.RankMask[5]
		} else {
			outpostRanks = board.RankMask[2] | board.RankMask[3] | board.RankMask[4]
		}

		outpostSafe := func(sq board.Square) bool {
			file := sq.File()
			var adjFiles board.Bitboard
			if file > 0 {
				adjFiles |= board.FileMask[file-1]
			}
			if file < 7 {
				adjFiles |= board.FileMask[file+1]
			}
			var potentialRanks board.Bitboard
			if color == board.White {
				for r := 0; r <= sq.Rank(); r++ {
					potentialRanks |= board.RankMask[r]
				}
			} else {
				for r := sq.Rank(); r < 8; r++ {
					potentialRanks |= board.RankMask[r]
				}
			}
			return enemyPawns&adjFiles&potentialRanks == 0
		}

		for knights := pos.Pieces[color][board.Knight] & outpostRanks; knights != 0; {
			sq := knights.PopLSB()
			if outpostSafe(sq) {
				mgBonus += sign * knightOutpostMg
				egBonus += sign * knightOutpostEg
				if board.PawnAttacks(sq, color.Other())&ownPawns != 0 {
					mgBonus += sign * knightOutpostProtectedMg
					egBonus += sign * knightOutpostProtectedEg
				}
			}
		}
		for bishops := pos.Pieces[color][board.Bishop] & outpostRanks; bishops != 0; {
			sq := bishops.PopLSB()
			if outpostSafe(sq) {
				mgBonus += sign * bishopOutpostMg
				egBonus += sign * bishopOutpostEg
			}
		}
	}
	return mgBonus, egBonus
}

func chebyshevDistance(sq1, sq2 board.Square) int {
	fileDiff := sq1.File() - sq2.File()
	if fileDiff < 0 {
		fileDiff = -fileDiff
	}
	rankDiff := sq1.Rank() - sq2.Rank()
	if rankDiff < 0 {
		rankDiff = -rankDiff
	}
	if fileDiff > rankDiff {
		return fileDiff
	}
	return rankDiff
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// evaluateKingTropism rewards pieces standing close to the enemy king.
func evaluateKingTropism(pos *board.Position) int {
	var score int
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}
		enemyKingSq := pos.KingSquare[color.Other()]
		for pt := board.Knight; pt <= board.Queen; pt++ {
			for pieces := pos.Pieces[color][pt]; pieces != 0; {
				sq := pieces.PopLSB()
				dist := chebyshevDistance(sq, enemyKingSq)
				if dist < 7 {
					score += sign * tropismWeight[pt] * (7 - dist)
				}
			}
		}
	}
	return score
}
