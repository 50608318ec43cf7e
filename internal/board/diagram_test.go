package board

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteSVGStartingPosition(t *testing.T) {
	pos := NewPosition()

	var buf bytes.Buffer
	pos.WriteSVG(&buf)

	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Fatalf("expected an <svg> root element, got: %s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "</svg>") {
		t.Fatalf("expected the document to close with </svg>, got: %s", out)
	}

	// One <rect> per square.
	if got := strings.Count(out, "<rect"); got != 64 {
		t.Errorf("expected 64 squares, got %d", got)
	}
	// One <text> glyph per occupied square; starting position has 32 pieces.
	if got := strings.Count(out, "<text"); got != 32 {
		t.Errorf("expected 32 piece glyphs, got %d", got)
	}
}

func TestWriteSVGEmptyBoard(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/8/8/8/8 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	var buf bytes.Buffer
	pos.WriteSVG(&buf)

	if got := strings.Count(buf.String(), "<text"); got != 0 {
		t.Errorf("expected no glyphs on an empty board, got %d", got)
	}
}
