package peg

import (
	"fmt"
	"io"
	"reflect"
)

// Parse matches e once at the current position of s, capturing into dest.
//
// dest is nil, to match for effect only, or a non-nil pointer to a value of e's result
// type. Parse does not require the input to be consumed: on success the stream is left
// after the match, on failure nothing has changed.
func Parse(s *State, dest any, e Expr) bool {
	return s.match(destValue(dest), e)
}

// ParseExact is Parse, additionally requiring the stream to be at end of input after the
// match.
//
// When only the end of input test fails the whole match is still rolled back, dest
// included.
func ParseExact(s *State, dest any, e Expr) bool {
	d := destValue(dest)
	cp := s.save(d)
	defer cp.rollback()
	if !s.match(d, e) || !s.Ended() {
		return false
	}
	return cp.commit(false)
}

// ParseString parses the whole of input with e into dest.
//
// The returned Output holds the text referenced by the Spans captured in dest. A
// mismatch is reported as an Error positioned at the furthest symbol read.
func ParseString(e Expr, input string, dest any, options ...Option) (*Output, error) {
	s := NewState(StringSource(input), options...)
	if !ParseExact(s, dest, e) {
		return s.out, s.errorAt()
	}
	return s.out, nil
}

// ParseReader parses the whole of r with e into dest.
//
// See ParseString.
func ParseReader(e Expr, r io.Reader, dest any, options ...Option) (*Output, error) {
	src := NewReaderSource(r)
	s := NewState(src.Next, options...)
	ok := ParseExact(s, dest, e)
	if err := src.Err(); err != nil {
		return s.out, AnnotateError(s.in.Position(s.in.Furthest()), err)
	}
	if !ok {
		return s.out, s.errorAt()
	}
	return s.out, nil
}

func destValue(dest any) reflect.Value {
	if dest == nil {
		return reflect.Value{}
	}
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		panic(fmt.Sprintf("peg: destination must be nil or a non-nil pointer, not %T", dest))
	}
	return rv.Elem()
}
