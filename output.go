package peg

// Output accumulates the symbols kept by successful matches.
//
// The write cursor is independent of the buffer length: writing below the length
// overwrites in place, so a rolled-back attempt can be retried without leaving stale
// symbols in front of the new cursor. Captured Spans, never the buffer length, delimit
// valid content.
type Output struct {
	buf    []rune
	cursor int
}

// NewOutput creates an empty Output.
func NewOutput() *Output {
	return &Output{}
}

// Emit writes r at the cursor and advances it. Escaped symbols are not written.
func (o *Output) Emit(r rune, escape bool) {
	if escape {
		return
	}
	if o.cursor < len(o.buf) {
		o.buf[o.cursor] = r
	} else {
		o.buf = append(o.buf, r)
	}
	o.cursor++
}

// Pos returns the write cursor.
func (o *Output) Pos() int { return o.cursor }

// SetPos moves the write cursor.
func (o *Output) SetPos(pos int) { o.cursor = pos }

// Runes returns the whole buffer, including symbols beyond the cursor.
func (o *Output) Runes() []rune { return o.buf }

// Text materializes the symbols covered by span.
//
// Both bounds are clamped to the buffer length.
func (o *Output) Text(span Span) string {
	start, end := span.Start, span.End
	if start > len(o.buf) {
		start = len(o.buf)
	}
	if start < 0 {
		start = 0
	}
	if end > len(o.buf) {
		end = len(o.buf)
	}
	if end < start {
		end = start
	}
	return string(o.buf[start:end])
}
