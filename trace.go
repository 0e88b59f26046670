package peg

import (
	"io"
)

// Trace the parse to "w".
//
// Every named rule writes one line when it is entered and one when it returns, indented
// by nesting depth.
func Trace(w io.Writer) Option {
	return func(s *State) {
		s.trace = w
	}
}

func (s *State) traceEnter(name string) {
	s.tracef("%s @%s", name, s.in.Position(s.in.Pos()))
	s.depth++
}

func (s *State) traceExit(name string, start int, ok bool) {
	s.depth--
	if !ok {
		s.tracef("%s !", name)
		return
	}
	s.tracef("%s = %q", name, s.out.Text(Span{start, s.out.Pos()}))
}
