package peg

import (
	"fmt"
)

// Error represents an error while parsing.
//
// The error will contain positional information if available.
type Error interface {
	error
	// Unadorned message.
	Message() string
	// Position error occurred.
	Position() Position
}

// ParseError is returned by the drivers when the input does not match.
//
// Pos is the furthest position the parse reached, which is usually where the input
// stopped making sense.
type ParseError struct {
	Pos        Position
	Unexpected rune
}

func (p *ParseError) Error() string {
	return FormatError(p.Pos, p.Message())
}

func (p *ParseError) Message() string { // nolint: golint
	if p.Unexpected == EOF {
		return "unexpected end of input"
	}
	return fmt.Sprintf("unexpected %q", p.Unexpected)
}

func (p *ParseError) Position() Position { return p.Pos } // nolint: golint

type positionedError struct {
	Msg string
	Pos Position
	err error
}

func (p *positionedError) Error() string      { return FormatError(p.Pos, p.Msg) }
func (p *positionedError) Message() string    { return p.Msg }
func (p *positionedError) Position() Position { return p.Pos }
func (p *positionedError) Unwrap() error      { return p.err }

// AnnotateError wraps an existing error with a position.
//
// If the existing error is already an Error it will be returned unmodified. The wrapped
// error remains reachable through errors.Is and errors.As.
func AnnotateError(pos Position, err error) error {
	if perr, ok := err.(Error); ok {
		return perr
	}
	return &positionedError{Msg: err.Error(), Pos: pos, err: err}
}

// Errorf creates a new Error at the given position.
func Errorf(pos Position, format string, args ...interface{}) error {
	return &positionedError{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// FormatError formats an error in the form "[<line>:<col>:] <message>"
func FormatError(pos Position, message string) string {
	msg := ""
	if pos.Line != 0 {
		msg = fmt.Sprintf("%d:%d: ", pos.Line, pos.Column)
	}
	return msg + message
}

// errorAt builds the ParseError for a failed attempt from the furthest input read.
func (s *State) errorAt() error {
	offset := s.in.Furthest() - 1
	if offset < 0 {
		offset = 0
	}
	pos := s.in.Position(offset)
	if err := s.Err(); err != nil {
		return AnnotateError(pos, err)
	}
	return &ParseError{Pos: pos, Unexpected: s.in.At(offset)}
}
