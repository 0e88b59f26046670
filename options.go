package peg

import "context"

// An Option to modify the behaviour of a parse attempt.
type Option func(s *State)

// WithContext makes the attempt cancellable.
//
// Once ctx is done every leaf matcher fails, so the attempt unwinds through the normal
// rollback path and the drivers return ctx's error.
func WithContext(ctx context.Context) Option {
	return func(s *State) {
		s.ctx = ctx
		s.done = ctx.Done()
	}
}
