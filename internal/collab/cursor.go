package collab

import (
	"strings"

	"github.com/cpayne/go-codecollab/internal/types"
)

// Layout describes the monospace editing surface geometry used to map
// document positions onto pixel coordinates.
type Layout struct {
	CharWidth  float64
	LineHeight float64
}

// PixelPoint is a cursor location relative to the editing surface.
type PixelPoint struct {
	Top  float64
	Left float64
}

// OffsetToLineCh returns the 1-based line containing the given
// character offset, plus the 0-based character index within it.
// Offsets clamp to the document bounds.
func OffsetToLineCh(doc string, offset int) (line, ch int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(doc) {
		offset = len(doc)
	}

	line = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if doc[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}

	return line, offset - lineStart
}

// LineChToOffset converts a 1-based line and 0-based character index
// to a document offset. Out-of-range positions clamp: a line past the
// end maps to the last line, a ch past the line end maps to the line
// length. It never fails.
func LineChToOffset(doc string, line, ch int) int {
	lines := strings.Split(doc, "\n")
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}

	offset := 0
	for i := 0; i < line-1; i++ {
		offset += len(lines[i]) + 1
	}

	lineLen := len(lines[line-1])
	if ch < 0 {
		ch = 0
	}
	if ch > lineLen {
		ch = lineLen
	}

	return offset + ch
}

// PixelFor resolves any position form to pixel coordinates relative to
// the editing surface: precomputed pixels pass through, an offset or a
// line/ch pair are mapped through the document and layout.
func PixelFor(doc string, pos types.Position, l Layout) PixelPoint {
	if pos.Top != nil && pos.Left != nil {
		return PixelPoint{Top: *pos.Top, Left: *pos.Left}
	}

	var line, ch int
	switch {
	case pos.Offset != nil:
		line, ch = OffsetToLineCh(doc, *pos.Offset)
	case pos.Line != nil && pos.Ch != nil:
		// Clamp through the offset conversion and back.
		offset := LineChToOffset(doc, *pos.Line, *pos.Ch)
		line, ch = OffsetToLineCh(doc, offset)
	default:
		return PixelPoint{}
	}

	return PixelPoint{
		Top:  float64(line-1) * l.LineHeight,
		Left: float64(ch) * l.CharWidth,
	}
}

// LineChForPixel inverts PixelFor, mapping surface coordinates back to
// a clamped 1-based line and 0-based character index.
func LineChForPixel(doc string, p PixelPoint, l Layout) (line, ch int) {
	if l.LineHeight <= 0 || l.CharWidth <= 0 {
		return 1, 0
	}

	line = int(p.Top/l.LineHeight) + 1
	ch = int(p.Left / l.CharWidth)

	offset := LineChToOffset(doc, line, ch)
	return OffsetToLineCh(doc, offset)
}
