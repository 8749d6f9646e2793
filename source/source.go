// Package source holds byte ranges, positions, and loaded source files.
// The rest of the pipeline works in byte offsets; converting an offset back
// to a line/column pair for display happens here and only here.
package source

import (
	"fmt"
	"os"
	"sort"
)

// Range is a half-open [Start, End) byte span into the source text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// At returns a zero-length range anchored at pos.
func At(pos int) Range {
	return Range{Start: pos, End: pos}
}

func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Union spans from the smaller start to the larger end of r and o.
func (r Range) Union(o Range) Range {
	if o.Start < r.Start {
		r.Start = o.Start
	}
	if o.End > r.End {
		r.End = o.End
	}
	return r
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Position is a 1-based line/column location plus its byte offset.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Index  int `json:"index"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// File is one source document plus the line-start index used to answer
// offset-to-position queries.
type File struct {
	Path    string
	Content string

	lineStarts []int
}

// NewFile indexes content under the given path label. The label may be
// empty for in-memory sources.
func NewFile(path, content string) *File {
	f := &File{Path: path, Content: content}
	f.lineStarts = append(f.lineStarts, 0)
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
	return f
}

// Load reads the file at path into a File.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", path, err)
	}
	return NewFile(path, string(data)), nil
}

// PositionAt converts a byte offset into a 1-based position. Offsets
// outside the content are clamped to its bounds.
func (f *File) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.Content) {
		offset = len(f.Content)
	}
	line := sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > offset
	}) - 1
	return Position{
		Line:   line + 1,
		Column: offset - f.lineStarts[line] + 1,
		Index:  offset,
	}
}

// Line returns the 1-based line n without its line terminator, or "" when
// n is out of range.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[n-1]
	end := len(f.Content)
	if n < len(f.lineStarts) {
		end = f.lineStarts[n] - 1
	}
	if end > start && f.Content[end-1] == '\r' {
		end--
	}
	return f.Content[start:end]
}

// LineCount reports how many lines the content spans. A trailing newline
// counts as starting one final empty line, matching PositionAt.
func (f *File) LineCount() int {
	return len(f.lineStarts)
}
