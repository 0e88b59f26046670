package peg

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// State of a single parse attempt.
//
// A State owns one Stream and one Output. Every combinator of an attempt reads and writes
// the same pair, so a State must not be shared between goroutines; parse concurrently by
// giving each goroutine its own State.
type State struct {
	in    *Stream
	out   *Output
	ctx   context.Context
	done  <-chan struct{}
	trace io.Writer
	depth int
}

// NewState creates the State for one parse attempt over src.
func NewState(src Source, options ...Option) *State {
	s := &State{
		in:  NewStream(src),
		out: NewOutput(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Stream of the attempt.
func (s *State) Stream() *Stream { return s.in }

// Output of the attempt.
func (s *State) Output() *Output { return s.out }

// Text materializes a captured span.
func (s *State) Text(span Span) string { return s.out.Text(span) }

// Ended reports whether the stream is at end of input, without consuming anything.
func (s *State) Ended() bool {
	ch := s.in.Next()
	s.in.Back()
	return ch == EOF
}

// Err returns the cancellation cause if the attempt was cancelled.
func (s *State) Err() error {
	if s.ctx == nil {
		return nil
	}
	return s.ctx.Err()
}

// halted is checked by leaf matchers, the only places consuming input.
func (s *State) halted() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// match dispatches e against dest.
//
// Pointer destinations are allocated on entry and only stored on success, so a failed
// attempt leaves them nil. Optional never fails, so it hands the pointer to its
// sub-expression and the allocation happens only when that one matches.
func (s *State) match(dest reflect.Value, e Expr) bool {
	if _, ok := e.(*optional); !ok && dest.IsValid() && dest.Kind() == reflect.Ptr {
		v := reflect.New(dest.Type().Elem())
		if !s.match(v.Elem(), e) {
			return false
		}
		dest.Set(v)
		return true
	}
	return e.match(s, dest)
}

func (s *State) tracef(format string, args ...interface{}) {
	fmt.Fprintf(s.trace, "%s%s\n", strings.Repeat("  ", s.depth), fmt.Sprintf(format, args...))
}

// A checkpoint guards one combinator attempt.
//
// It records both cursors and a shallow copy of the destination. Unless commit is called,
// the deferred rollback restores all three.
type checkpoint struct {
	s         *State
	in        int
	out       int
	dest      reflect.Value
	saved     reflect.Value
	committed bool
}

func (s *State) save(dest reflect.Value) *checkpoint {
	cp := &checkpoint{s: s, in: s.in.Pos(), out: s.out.Pos(), dest: dest}
	if dest.IsValid() && dest.CanSet() {
		cp.saved = reflect.New(dest.Type()).Elem()
		cp.saved.Set(dest)
	}
	return cp
}

// span covered by the attempt so far.
func (cp *checkpoint) span() Span {
	return Span{cp.out, cp.s.out.Pos()}.Normalize()
}

// commit accepts the attempt. The span is written into a Span destination only when
// writeSpan is set; combinators routing a child to Self leave it to that child.
func (cp *checkpoint) commit(writeSpan bool) bool {
	if writeSpan {
		setSpan(cp.dest, cp.span())
	}
	cp.committed = true
	return true
}

func (cp *checkpoint) rollback() {
	if cp.committed {
		return
	}
	cp.s.in.SetPos(cp.in)
	cp.s.out.SetPos(cp.out)
	if cp.saved.IsValid() {
		cp.dest.Set(cp.saved)
	}
}
