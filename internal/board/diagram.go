package board

import (
	"io"

	svg "github.com/ajstarks/svgo"
)

// squareSize is the side length, in SVG user units, of one board square.
const squareSize = 60

// lightSquareColor and darkSquareColor are the two checkerboard fill colors.
const (
	lightSquareColor = "#f0d9b5"
	darkSquareColor  = "#b58863"
)

// pieceGlyph maps a piece to the Unicode chess symbol used to render it.
var pieceGlyph = [NoPiece + 1]rune{
	WhitePawn: '♙', WhiteKnight: '♘', WhiteBishop: '♗', WhiteRook: '♖', WhiteQueen: '♕', WhiteKing: '♔',
	BlackPawn: '♟', BlackKnight: '♞', BlackBishop: '♝', BlackRook: '♜', BlackQueen: '♛', BlackKing: '♚',
}

// WriteSVG renders the position as an 8x8 board diagram, White at the
// bottom. It is a pure inspection aid used by the analysis HTTP shell; no
// board/eval/search code reads it back.
func (p *Position) WriteSVG(w io.Writer) {
	side := 8 * squareSize
	canvas := svg.New(w)
	canvas.Start(side, side)
	defer canvas.End()

	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			x := file * squareSize
			y := (7 - rank) * squareSize

			color := lightSquareColor
			if (file+rank)%2 == 0 {
				color = darkSquareColor
			}
			canvas.Rect(x, y, squareSize, squareSize, "fill:"+color)

			piece := p.PieceAt(sq)
			if piece == NoPiece {
				continue
			}
			glyph := pieceGlyph[piece]
			canvas.Text(x+squareSize/2, y+squareSize*2/3, string(glyph),
				"text-anchor:middle;font-size:40px")
		}
	}
}
