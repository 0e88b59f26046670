package peg

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// EOF is returned by a Source, and by Stream.Next, once the input is exhausted.
const EOF rune = -1

// A Source returns the next input symbol, or EOF once exhausted.
//
// A Stream calls its Source at most once per input position.
type Source func() rune

// StringSource returns a Source over the runes of s.
func StringSource(s string) Source {
	runes := []rune(s)
	i := 0
	return func() rune {
		if i >= len(runes) {
			return EOF
		}
		r := runes[i]
		i++
		return r
	}
}

// ReaderSource adapts an io.Reader to a Source.
type ReaderSource struct {
	r   *bufio.Reader
	err error
}

// NewReaderSource decodes UTF-8 runes from r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: bufio.NewReader(r)}
}

// Next is the Source function.
func (s *ReaderSource) Next() rune {
	if s.err != nil {
		return EOF
	}
	ch, _, err := s.r.ReadRune()
	if err != nil {
		s.err = err
		return EOF
	}
	return ch
}

// Err returns the first read error other than io.EOF.
func (s *ReaderSource) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// Stream is a buffered, rewindable character stream.
//
// Symbols are pulled from the Source on first read and cached; rewinding only moves the
// cursor, so re-reading a position never touches the Source again.
type Stream struct {
	src      Source
	buf      []rune
	lines    []int // offsets following each buffered '\n'
	cursor   int
	furthest int
	ended    bool
}

// NewStream creates a Stream reading from src.
func NewStream(src Source) *Stream {
	return &Stream{src: src}
}

// Next consumes and returns the next symbol.
//
// Past the end of input the cursor still advances, so Next and Back stay symmetric, but
// EOF is never buffered.
func (s *Stream) Next() rune {
	if s.cursor == len(s.buf) && !s.ended {
		ch := s.src()
		if ch == EOF {
			s.ended = true
		} else {
			s.buf = append(s.buf, ch)
			if ch == '\n' {
				s.lines = append(s.lines, len(s.buf))
			}
		}
	}
	var ch rune = EOF
	if s.cursor < len(s.buf) {
		ch = s.buf[s.cursor]
	}
	s.cursor++
	if s.cursor > s.furthest {
		s.furthest = s.cursor
	}
	return ch
}

// Back moves the cursor one symbol to the left.
//
// Calling Back at the start of the stream is a programming error and panics.
func (s *Stream) Back() {
	if s.cursor <= 0 {
		panic("peg: Back called at the start of the stream")
	}
	s.cursor--
}

// GetIf consumes the next symbol if it is r.
func (s *Stream) GetIf(r rune) bool {
	if s.Next() == r {
		return true
	}
	s.Back()
	return false
}

// Pos returns the cursor position.
func (s *Stream) Pos() int { return s.cursor }

// SetPos moves the cursor to an absolute position previously returned by Pos.
func (s *Stream) SetPos(pos int) { s.cursor = pos }

// Furthest position ever reached by the cursor.
func (s *Stream) Furthest() int { return s.furthest }

// At returns the buffered symbol at offset, or EOF if it has not been read.
func (s *Stream) At(offset int) rune {
	if offset < 0 || offset >= len(s.buf) {
		return EOF
	}
	return s.buf[offset]
}

// Position of a symbol offset in the buffered input.
func (s *Stream) Position(offset int) Position {
	if offset > len(s.buf) {
		offset = len(s.buf)
	}
	// Number of line starts at or before offset.
	line := sort.SearchInts(s.lines, offset+1)
	start := 0
	if line > 0 {
		start = s.lines[line-1]
	}
	return Position{Offset: offset, Line: line + 1, Column: offset - start + 1}
}

// Position in the input.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) GoString() string {
	return fmt.Sprintf("Position{Offset: %d, Line: %d, Column: %d}", p.Offset, p.Line, p.Column)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
