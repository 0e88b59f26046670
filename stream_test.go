package peg

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func countingSource(input string, calls *int) Source {
	src := StringSource(input)
	return func() rune {
		*calls++
		return src()
	}
}

func TestStreamNextBack(t *testing.T) {
	s := NewStream(StringSource("ab"))
	require.Equal(t, 'a', s.Next())
	require.Equal(t, 'b', s.Next())
	require.Equal(t, EOF, s.Next())
	require.Equal(t, EOF, s.Next())
	require.Equal(t, 4, s.Pos())
	s.Back()
	s.Back()
	s.Back()
	require.Equal(t, 1, s.Pos())
	require.Equal(t, 'b', s.Next())
	require.Equal(t, 4, s.Furthest())
}

func TestStreamBackAtStartPanics(t *testing.T) {
	s := NewStream(StringSource("a"))
	require.Panics(t, func() { s.Back() })
	s.Next()
	s.Back()
	require.Panics(t, func() { s.Back() })
}

func TestStreamGetIf(t *testing.T) {
	s := NewStream(StringSource("ab"))
	require.False(t, s.GetIf('b'))
	require.Equal(t, 0, s.Pos())
	require.True(t, s.GetIf('a'))
	require.Equal(t, 1, s.Pos())
	require.False(t, s.GetIf('x'))
	require.True(t, s.GetIf('b'))
	require.False(t, s.GetIf('b'))
	require.Equal(t, 2, s.Pos())
}

func TestStreamSourceCalledOncePerPosition(t *testing.T) {
	calls := 0
	s := NewStream(countingSource("abc", &calls))
	for i := 0; i < 3; i++ {
		s.SetPos(0)
		for s.Next() != EOF {
		}
	}
	// Three symbols and a single EOF.
	require.Equal(t, 4, calls)
}

func TestStreamPosition(t *testing.T) {
	s := NewStream(StringSource("ab\ncd"))
	for s.Next() != EOF {
	}
	require.Equal(t, Position{Offset: 0, Line: 1, Column: 1}, s.Position(0))
	require.Equal(t, Position{Offset: 2, Line: 1, Column: 3}, s.Position(2))
	require.Equal(t, Position{Offset: 4, Line: 2, Column: 2}, s.Position(4))
	require.Equal(t, "2:2", s.Position(4).String())
	require.Equal(t, 'd', s.At(4))
	require.Equal(t, EOF, s.At(5))
}

func TestStreamPositionAfterRewind(t *testing.T) {
	input := "one\ntwo\n\nfour"
	s := NewStream(StringSource(input))
	for s.Next() != EOF {
	}
	s.SetPos(0)
	for s.Next() != EOF {
	}
	line, column := 1, 1
	for offset, ch := range []rune(input) {
		require.Equal(t, Position{Offset: offset, Line: line, Column: column}, s.Position(offset))
		if ch == '\n' {
			line, column = line+1, 1
		} else {
			column++
		}
	}
	require.Equal(t, Position{Offset: 13, Line: 4, Column: 5}, s.Position(100))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestReaderSource(t *testing.T) {
	src := NewReaderSource(strings.NewReader("hé"))
	require.Equal(t, 'h', src.Next())
	require.Equal(t, 'é', src.Next())
	require.Equal(t, EOF, src.Next())
	require.NoError(t, src.Err())

	src = NewReaderSource(failingReader{})
	require.Equal(t, EOF, src.Next())
	require.EqualError(t, src.Err(), "boom")
}

func TestOutputOverwritesInPlace(t *testing.T) {
	o := NewOutput()
	for _, r := range "abc" {
		o.Emit(r, false)
	}
	o.SetPos(1)
	o.Emit('X', false)
	o.Emit('!', true)
	require.Equal(t, 2, o.Pos())
	require.Equal(t, "aXc", string(o.Runes()))
	require.Equal(t, "aX", o.Text(Span{0, o.Pos()}))
	o.SetPos(3)
	o.Emit('d', false)
	require.Equal(t, "aXcd", string(o.Runes()))
}

func TestOutputTextClamps(t *testing.T) {
	o := NewOutput()
	for _, r := range "abc" {
		o.Emit(r, false)
	}
	require.Equal(t, "bc", o.Text(Span{1, 10}))
	require.Equal(t, "", o.Text(Span{2, 1}))
	require.Equal(t, "", o.Text(Span{5, 7}))
	require.Equal(t, "ab", o.Text(Span{-1, 2}))
}

func TestSpan(t *testing.T) {
	require.True(t, Span{3, 3}.Empty())
	require.True(t, Span{4, 3}.Empty())
	require.Equal(t, 0, Span{4, 3}.Len())
	require.Equal(t, Span{4, 4}, Span{4, 3}.Normalize())
	require.Equal(t, 2, Span{1, 3}.Len())
	require.Equal(t, "[1:3)", Span{1, 3}.String())
}

func TestCheckpointRollback(t *testing.T) {
	s := NewState(StringSource("abc"))
	var dest struct{ A, B Span }
	v := reflect.ValueOf(&dest).Elem()
	s.in.Next()
	s.out.Emit('a', false)
	dest.A = Span{0, 1}

	func() {
		cp := s.save(v)
		defer cp.rollback()
		s.in.Next()
		s.out.Emit('b', false)
		dest.B = Span{1, 2}
	}()
	require.Equal(t, 1, s.in.Pos())
	require.Equal(t, 1, s.out.Pos())
	require.Equal(t, Span{0, 1}, dest.A)
	require.Equal(t, Span{}, dest.B)

	var span Span
	func() {
		cp := s.save(reflect.ValueOf(&span).Elem())
		defer cp.rollback()
		s.in.Next()
		s.out.Emit('b', false)
		cp.commit(true)
	}()
	require.Equal(t, 2, s.in.Pos())
	require.Equal(t, Span{1, 2}, span)
}
