package peg

import (
	"fmt"
	"reflect"
)

var spanType = reflect.TypeOf(Span{})

// Span is a half-open interval [Start, End) of an Output.
//
// A Span references the Output, it does not own a copy of the text: use Output.Text to
// materialize it.
type Span struct {
	Start int
	End   int
}

// Empty reports whether the span covers nothing.
func (s Span) Empty() bool { return s.End <= s.Start }

// Len of the span, zero when empty.
func (s Span) Len() int {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start
}

// Normalize returns s with End >= Start.
func (s Span) Normalize() Span {
	if s.End < s.Start {
		s.End = s.Start
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("[%d:%d)", s.Start, s.End)
}
