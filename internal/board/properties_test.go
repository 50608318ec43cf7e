package board

import "testing"

// TestBoardConsistency checks that the piece bitboards, the color occupancy
// bitboards and PieceAt agree after a sequence of moves, across every square.
func TestBoardConsistency(t *testing.T) {
	pos := NewPosition()

	check := func(label string) {
		for sq := A1; sq <= H8; sq++ {
			bb := SquareBB(sq)
			piece := pos.PieceAt(sq)
			if piece == NoPiece {
				if pos.AllOccupied&bb != 0 {
					t.Fatalf("%s: square %v empty per PieceAt but set in AllOccupied", label, sq)
				}
				continue
			}
			c, pt := piece.Color(), piece.Type()
			if pos.Occupied[c]&bb == 0 {
				t.Fatalf("%s: square %v has %v but missing from Occupied[%v]", label, sq, piece, c)
			}
			if pos.Pieces[c][pt]&bb == 0 {
				t.Fatalf("%s: square %v has %v but missing from Pieces[%v][%v]", label, sq, piece, c, pt)
			}
			if pos.Occupied[c.Other()]&bb != 0 {
				t.Fatalf("%s: square %v claimed by both colors", label, sq)
			}
			for other := Pawn; other <= King; other++ {
				if other == pt {
					continue
				}
				if pos.Pieces[c][other]&bb != 0 {
					t.Fatalf("%s: square %v present in two piece-type bitboards (%v and %v)", label, sq, pt, other)
				}
			}
		}
	}

	check("start")
	moves := []Move{
		NewMove(E2, E4),
		NewMove(E7, E5),
		NewMove(G1, F3),
		NewMove(B8, C6),
		NewMove(F1, B5),
	}
	for _, m := range moves {
		pos.MakeMove(m)
		check(m.String())
	}
}

// TestMakeUndoRoundtrip verifies that MakeMove followed by UnmakeMove
// restores every piece of state the HistoryEntry is meant to preserve.
func TestMakeUndoRoundtrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
		"8/8/8/8/k2Pp2Q/8/8/3K4 b - d3 0 1",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		before := pos.Copy()

		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			pos.MakeMove(m)
			pos.UnmakeMove()

			if pos.AllOccupied != before.AllOccupied || pos.Occupied != before.Occupied || pos.Pieces != before.Pieces {
				t.Fatalf("%s: board state not restored after %v", fen, m)
			}
			if pos.SideToMove != before.SideToMove {
				t.Fatalf("%s: side to move not restored after %v", fen, m)
			}
			if pos.CastlingRights != before.CastlingRights {
				t.Fatalf("%s: castling rights not restored after %v", fen, m)
			}
			if pos.EnPassant != before.EnPassant {
				t.Fatalf("%s: en passant square not restored after %v", fen, m)
			}
			if pos.HalfMoveClock != before.HalfMoveClock {
				t.Fatalf("%s: half-move clock not restored after %v", fen, m)
			}
			if pos.Hash != before.Hash {
				t.Fatalf("%s: zobrist hash not restored after %v", fen, m)
			}
			if pos.EvalMG != before.EvalMG || pos.EvalEG != before.EvalEG || pos.Phase != before.Phase {
				t.Fatalf("%s: eval accumulator not restored after %v", fen, m)
			}
		}
	}
}

// TestZobristConsistency checks that the incrementally maintained hash
// matches a from-scratch recompute at every node along several lines.
func TestZobristConsistency(t *testing.T) {
	pos := NewPosition()
	if pos.Hash != pos.ComputeHash() {
		t.Fatalf("start position: incremental hash %016x != recompute %016x", pos.Hash, pos.ComputeHash())
	}

	var walk func(depth int)
	walk = func(depth int) {
		if depth == 0 {
			return
		}
		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			pos.MakeMove(m)
			if pos.Hash != pos.ComputeHash() {
				t.Fatalf("after %v: incremental hash %016x != recompute %016x", m, pos.Hash, pos.ComputeHash())
			}
			walk(depth - 1)
			pos.UnmakeMove()
		}
	}
	walk(3)
}

// TestNullMoveSymmetry checks that MakeNullMove/UnmakeNullMove is a clean
// roundtrip, used by the search for null-move pruning.
func TestNullMoveSymmetry(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	before := pos.Copy()

	pos.MakeNullMove()
	pos.UnmakeNullMove()

	if pos.Hash != before.Hash {
		t.Errorf("hash not restored: got %016x, want %016x", pos.Hash, before.Hash)
	}
	if pos.SideToMove != before.SideToMove {
		t.Errorf("side to move not restored")
	}
	if pos.EnPassant != before.EnPassant {
		t.Errorf("en passant not restored")
	}
	if pos.Ply != before.Ply {
		t.Errorf("ply not restored: got %d, want %d", pos.Ply, before.Ply)
	}
	if len(pos.History) != len(before.History) {
		t.Errorf("history length not restored: got %d, want %d", len(pos.History), len(before.History))
	}
}

// TestNullMoveHistoryParity checks that MakeNullMove advances History in
// lock-step with Ply, so IsRepeatedPosition's step-by-2 scan stays valid for
// positions reached through a null-move subtree.
func TestNullMoveHistoryParity(t *testing.T) {
	pos := NewPosition()
	before := len(pos.History)

	pos.MakeNullMove()
	if len(pos.History) != before+1 {
		t.Fatalf("MakeNullMove did not push a history entry: got %d, want %d", len(pos.History), before+1)
	}
	if pos.History[len(pos.History)-1].Move != NoMove {
		t.Fatalf("null move history entry should carry NoMove, got %v", pos.History[len(pos.History)-1].Move)
	}

	m := NewMove(E2, E4)
	pos.MakeMove(m)
	pos.UnmakeMove()
	pos.UnmakeNullMove()

	if len(pos.History) != before {
		t.Fatalf("history length not restored after null move + real move: got %d, want %d", len(pos.History), before)
	}
}

// TestEnPassantRevealedCheck verifies that an en passant capture which would
// expose the capturing side's own king to check is excluded from the legal
// move list.
func TestEnPassantRevealedCheck(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2Q/8/8/3K4 b - d3 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() == E4 && m.To() == D3 {
			t.Fatalf("en passant capture e4d3 should be illegal (exposes king to queen on h4)")
		}
	}
}

// TestCastleLegalityOwnSquareAttacked verifies that no f1->g1 move is
// generated in a position where f1 holds a white rook, g1 holds the white
// king, and White has no castling rights.
func TestCastleLegalityOwnSquareAttacked(t *testing.T) {
	pos, err := ParseFEN("r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() == F1 && m.To() == G1 {
			t.Fatalf("f1g1 should not be legal: the white king is already on g1 in this FEN / own squares under attack")
		}
	}
}

// TestMoveEncodingRoundtrip builds one move of each kind the Move encoding
// supports (quiet, capture, each promotion piece with and without capture,
// en passant, castling) on fixed squares and checks the decoded parts and
// derived predicates are mutually consistent.
func TestMoveEncodingRoundtrip(t *testing.T) {
	from, to := E2, E4

	plain := NewMove(from, to)
	if plain.From() != from || plain.To() != to {
		t.Fatalf("plain move: from/to mismatch")
	}
	if plain.IsCapture() || plain.IsPromotion() || plain.IsEnPassant() || plain.IsCastling() || !plain.IsQuiet() {
		t.Fatalf("plain move: wrong flags: %+v", plain)
	}

	capture := NewCapture(from, to)
	if !capture.IsCapture() || capture.IsPromotion() || capture.IsEnPassant() || capture.IsCastling() || capture.IsQuiet() {
		t.Fatalf("capture move: wrong flags")
	}

	for _, promo := range []PieceType{Queen, Rook, Knight, Bishop} {
		pm := NewPromotion(from, to, promo)
		if !pm.IsPromotion() || pm.IsCapture() || pm.IsEnPassant() || pm.IsCastling() {
			t.Fatalf("promotion %v: wrong flags", promo)
		}
		if pm.Promotion() != promo {
			t.Fatalf("promotion %v: decoded as %v", promo, pm.Promotion())
		}

		pc := NewPromotionCapture(from, to, promo)
		if !pc.IsPromotion() || !pc.IsCapture() || pc.IsEnPassant() || pc.IsCastling() {
			t.Fatalf("promotion-capture %v: wrong flags", promo)
		}
		if pc.Promotion() != promo {
			t.Fatalf("promotion-capture %v: decoded as %v", promo, pc.Promotion())
		}
	}

	ep := NewEnPassant(from, to)
	if !ep.IsCapture() || ep.IsPromotion() || !ep.IsEnPassant() || ep.IsCastling() {
		t.Fatalf("en passant move: wrong flags")
	}

	castle := NewCastling(E1, G1)
	if castle.IsCapture() || castle.IsPromotion() || castle.IsEnPassant() || !castle.IsCastling() {
		t.Fatalf("castling move: wrong flags")
	}
}
