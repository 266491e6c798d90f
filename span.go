package fastc

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

const eof = -1

// Range is a byte offset pair within a source buffer.
type Range struct{ Start, End int }

func NewRange(start, end int) Range { return Range{Start: start, End: end} }

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Str returns the slice of v covered by the range.
func (r Range) Str(v []byte) string { return string(v[r.Start:r.End]) }

func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Location is a line/column position, plus the raw byte cursor it was
// computed from.
type Location struct {
	Line   int32
	Column int32
	Cursor int
}

// Span is a source range expressed in line/column terms, the unit every
// diagnostic and every AST node anchors on.
type Span struct {
	Start Location
	End   Location
}

func (s Span) String() string {
	startLine, startCol := int(s.Start.Line), int(s.Start.Column)
	endLine, endCol := int(s.End.Line), int(s.End.Column)
	if startLine == endLine && startCol == endCol {
		return fmt.Sprintf("%d:%d", startLine, startCol)
	}
	if startLine == endLine {
		return fmt.Sprintf("%d:%d..%d", startLine, startCol, endCol)
	}
	return fmt.Sprintf("%d:%d..%d:%d", startLine, startCol, endLine, endCol)
}

// LineIndex allows fast conversion from byte cursor offsets to line/column.
//
// It stores the start byte offset of each line (0-based). Given a
// cursor, it finds the line by binary searching line starts (O(log
// lines)) and computes the column as (runes since lineStart + 1).
type LineIndex struct {
	input     []byte
	lineStart []int
}

func NewLineIndex(input []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range input {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{input: input, lineStart: lineStart}
}

func (li *LineIndex) Span(r Range) Span {
	return Span{Start: li.LocationAt(r.Start), End: li.LocationAt(r.End)}
}

func (li *LineIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.input) {
		cursor = len(li.input)
	}

	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}

	lineStart := li.lineStart[lineIdx]
	col := int32(utf8.RuneCount(li.input[lineStart:cursor])) + 1

	return Location{
		Line:   int32(lineIdx + 1),
		Column: col,
		Cursor: cursor,
	}
}
