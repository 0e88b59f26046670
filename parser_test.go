package peg_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/alecthomas/repr"
	"github.com/stretchr/testify/require"

	"github.com/ptaahfr/peg"
)

var (
	digit = peg.Range('0', '9')
	lower = peg.Range('a', 'z')
	atom  = peg.Repeat(1, peg.Unbounded, peg.Pred("atext", func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("!#$%&'*+-/=?^_`{|}~", r)
	}))
)

func newState(input string) *peg.State {
	return peg.NewState(peg.StringSource(input))
}

// requireUnchanged checks a failed parse left both cursors where they were.
func requireUnchanged(t *testing.T, s *peg.State, in, out int) {
	t.Helper()
	require.Equal(t, in, s.Stream().Pos(), "stream cursor")
	require.Equal(t, out, s.Output().Pos(), "output cursor")
}

func TestParseSequence(t *testing.T) {
	s := newState("xy")
	require.True(t, peg.Parse(s, nil, peg.Seq(peg.Char('x'), peg.Char('y'))))
	require.Equal(t, 2, s.Stream().Pos())

	s = newState("xy")
	require.False(t, peg.Parse(s, nil, peg.Seq(peg.Char('x'), peg.Char('z'))))
	requireUnchanged(t, s, 0, 0)
}

func TestParseEmptySequenceAndChoice(t *testing.T) {
	s := newState("a")
	var span peg.Span
	require.True(t, peg.Parse(s, &span, peg.Seq()))
	require.True(t, span.Empty())
	require.False(t, peg.Parse(s, &span, peg.Alt()))
	requireUnchanged(t, s, 0, 0)
}

func TestParseOrderedChoiceFirstMatch(t *testing.T) {
	s := newState("ab")
	var span peg.Span
	require.True(t, peg.Parse(s, &span, peg.Alt(peg.Lit("a"), peg.Lit("ab"))))
	require.Equal(t, "a", s.Text(span))
	require.Equal(t, 1, s.Stream().Pos())

	_, err := peg.ParseString(peg.Alt(peg.Lit("a"), peg.Lit("ab")), "ab", nil)
	require.EqualError(t, err, `1:2: unexpected 'b'`)
}

func TestParseChoiceDroppedBranchWritesSpan(t *testing.T) {
	choice := peg.Alt(peg.Drop(peg.Lit("ab")), peg.Repeat(1, peg.Unbounded, digit))
	var span peg.Span
	out, err := peg.ParseString(choice, "ab", &span)
	require.NoError(t, err)
	require.Equal(t, "ab", out.Text(span))

	span = peg.Span{}
	out, err = peg.ParseString(choice, "42", &span)
	require.NoError(t, err)
	require.Equal(t, "42", out.Text(span))

	span = peg.Span{}
	out, err = peg.ParseString(peg.Alt(peg.Drop(peg.Lit("ab"))), "ab", &span)
	require.NoError(t, err)
	require.Equal(t, "ab", out.Text(span))
}

func TestParseRepeatBounds(t *testing.T) {
	s := newState("1234")
	var span peg.Span
	require.True(t, peg.Parse(s, &span, peg.Repeat(1, 3, digit)))
	require.Equal(t, "123", s.Text(span))
	require.Equal(t, 3, s.Stream().Pos())

	s = newState("")
	require.False(t, peg.Parse(s, &span, peg.Repeat(1, 3, digit)))
	requireUnchanged(t, s, 0, 0)

	s = newState("1")
	list := []peg.Span{{Start: 7, End: 9}}
	require.False(t, peg.Parse(s, &list, peg.Repeat(2, 3, digit)))
	require.Equal(t, []peg.Span{{Start: 7, End: 9}}, list)
	requireUnchanged(t, s, 0, 0)
}

func TestParseRepeatList(t *testing.T) {
	s := newState("123x")
	var list []peg.Span
	require.True(t, peg.Parse(s, &list, peg.Repeat(0, peg.Unbounded, digit)))
	require.Len(t, list, 3, repr.String(list))
	for i, want := range []string{"1", "2", "3"} {
		require.Equal(t, want, s.Text(list[i]))
	}
}

func TestParseRepeatStopsOnEmptyIteration(t *testing.T) {
	s := newState("b")
	require.True(t, peg.Parse(s, nil, peg.Repeat(0, peg.Unbounded, peg.Optional(peg.Char('a')))))
	require.Equal(t, 0, s.Stream().Pos())
}

func TestParseOptionalNeverFails(t *testing.T) {
	s := newState("y")
	var span peg.Span
	require.True(t, peg.Parse(s, &span, peg.Optional(peg.Char('x'))))
	require.True(t, span.Empty())
	requireUnchanged(t, s, 0, 0)
}

func TestParseFirstThenRepeat(t *testing.T) {
	type list struct {
		Items []peg.Span
	}
	items := peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Field(0)},
		peg.First(digit),
		peg.Repeat(0, peg.Unbounded, peg.Seq(peg.Drop(peg.Char(',')), digit)),
	)
	dest := &list{}
	out, err := peg.ParseString(items, "1,2,3", dest)
	require.NoError(t, err)
	texts := []string{}
	for _, item := range dest.Items {
		texts = append(texts, out.Text(item))
	}
	require.Equal(t, []string{"1", "2", "3"}, texts)

	dest = &list{}
	_, err = peg.ParseString(items, ",2", dest)
	require.Error(t, err)
	require.Empty(t, dest.Items)
}

func TestParseFirstOverList(t *testing.T) {
	digits := peg.First(peg.Repeat(1, 3, digit))
	dest, err := peg.New(digits)
	require.NoError(t, err)
	_, err = peg.ParseString(digits, "123", dest)
	require.NoError(t, err)
	require.Equal(t, &[]peg.Span{{End: 1}, {Start: 1, End: 2}, {Start: 2, End: 3}}, dest)

	var groups [][]peg.Span
	_, err = peg.ParseString(digits, "12", &groups)
	require.NoError(t, err)
	require.Equal(t, [][]peg.Span{{{End: 1}, {Start: 1, End: 2}}}, groups)
}

func TestParseSubstringAfterRollback(t *testing.T) {
	type addrSpec struct {
		Local  peg.Span
		Domain peg.Span
	}
	grammar := peg.Alt(
		peg.Seq(atom, peg.Drop(peg.Char('!')), atom),
		peg.Seq(atom, peg.Drop(peg.Escaped('@')), atom),
	)
	dest := &addrSpec{}
	out, err := peg.ParseString(grammar, "local@domain", dest)
	require.NoError(t, err)
	require.Equal(t, "local", out.Text(dest.Local))
	require.Equal(t, "domain", out.Text(dest.Domain))
	require.Equal(t, "localdomain", string(out.Runes()))
}

func TestParseExact(t *testing.T) {
	s := newState("ab")
	require.True(t, peg.Parse(s, nil, peg.Lit("a")))

	s = newState("ab")
	var span peg.Span
	require.False(t, peg.ParseExact(s, &span, peg.Lit("a")))
	require.True(t, span.Empty())
	requireUnchanged(t, s, 0, 0)

	s = newState("a")
	require.True(t, peg.ParseExact(s, &span, peg.Lit("a")))
	require.Equal(t, "a", s.Text(span))
}

func TestParseIdempotentReplay(t *testing.T) {
	branch := peg.Seq(peg.Lit("a"), peg.Lit("b"))
	replayed := peg.Alt(peg.Seq(peg.Lit("abc"), peg.Lit("X")), branch)

	s := newState("abcd")
	var got peg.Span
	require.True(t, peg.Parse(s, &got, replayed))

	fresh := newState("abcd")
	var want peg.Span
	require.True(t, peg.Parse(fresh, &want, branch))

	require.Equal(t, want, got)
	require.Equal(t, fresh.Text(want), s.Text(got))
	require.Equal(t, fresh.Output().Pos(), s.Output().Pos())
}

func TestParseReadsSourceOncePerPosition(t *testing.T) {
	calls := 0
	src := peg.StringSource("abcabd")
	s := peg.NewState(func() rune {
		calls++
		return src()
	})
	word := peg.Repeat(1, peg.Unbounded, lower)
	grammar := peg.Alt(
		peg.Seq(word, peg.Char('!')),
		peg.Seq(peg.Lit("abc"), peg.Lit("abc")),
		peg.Seq(peg.Lit("abc"), peg.Lit("abd")),
	)
	require.True(t, peg.ParseExact(s, nil, grammar))
	require.Equal(t, 7, calls)
}

func TestParseRollbackAtEveryLevel(t *testing.T) {
	g := peg.NewGrammar()
	pair := g.Define("pair", peg.Seq(peg.Char('('), peg.Optional(g.Rule("pair")), peg.Char(')')))
	tests := []struct {
		name  string
		expr  peg.Expr
		input string
	}{
		{"NestedSequence", peg.Seq(peg.Lit("ab"), peg.Seq(peg.Lit("cd"), peg.Lit("ef"))), "abcdeX"},
		{"ChoiceOfSequences", peg.Alt(peg.Seq(digit, lower), peg.Seq(digit, digit, lower)), "12X"},
		{"RepeatMin", peg.Repeat(3, peg.Unbounded, peg.Seq(digit, lower)), "1a2bX"},
		{"Recursive", pair, "((()"},
		{"FirstFails", peg.First(peg.Seq(digit, digit)), "1a"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newState("#" + test.input)
			require.True(t, peg.Parse(s, nil, peg.Char('#')))
			var span peg.Span
			require.False(t, peg.Parse(s, &span, test.expr))
			requireUnchanged(t, s, 1, 1)
			require.Equal(t, peg.Span{}, span)
		})
	}
}

func TestParseRestoresSiblingFields(t *testing.T) {
	type abc struct {
		A, B, C peg.Span
	}
	grammar := peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Self},
		peg.Char('a'),
		peg.Optional(peg.IndexedSeq([]peg.Route{peg.Field(1), peg.Field(2)}, peg.Char('b'), peg.Char('c'))),
	)
	s := newState("abx")
	dest := &abc{}
	require.True(t, peg.Parse(s, dest, grammar))
	require.Equal(t, "a", s.Text(dest.A))
	require.True(t, dest.B.Empty())
	require.True(t, dest.C.Empty())
	require.Equal(t, 1, s.Stream().Pos())
}

func TestParsePointerAllocatedOnSuccess(t *testing.T) {
	type token struct {
		Number *peg.Span
		Word   *peg.Span
	}
	grammar := peg.IndexedAlt([]peg.Route{peg.Field(0), peg.Field(1)},
		peg.Repeat(1, peg.Unbounded, digit),
		peg.Repeat(1, peg.Unbounded, lower),
	)
	dest := &token{}
	out, err := peg.ParseString(grammar, "abc", dest)
	require.NoError(t, err)
	require.Nil(t, dest.Number)
	require.True(t, peg.IsEmpty(dest.Number))
	require.NotNil(t, dest.Word)
	require.Equal(t, "abc", out.Text(*dest.Word))
}

func TestParseOptionalPointerStaysNil(t *testing.T) {
	type call struct {
		Name *peg.Span
		Args *peg.Span
	}
	grammar := peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Discard, peg.Field(1), peg.Discard},
		peg.Repeat(1, peg.Unbounded, lower),
		peg.Char('('),
		peg.Optional(peg.Repeat(1, peg.Unbounded, digit)),
		peg.Char(')'),
	)
	dest := &call{}
	out, err := peg.ParseString(grammar, "f()", dest)
	require.NoError(t, err)
	require.Equal(t, "f", out.Text(*dest.Name))
	require.Nil(t, dest.Args)

	dest = &call{}
	out, err = peg.ParseString(grammar, "f(12)", dest)
	require.NoError(t, err)
	require.NotNil(t, dest.Args)
	require.Equal(t, "12", out.Text(*dest.Args))

	var span *peg.Span
	_, err = peg.ParseString(peg.Optional(peg.Char('x')), "", &span)
	require.NoError(t, err)
	require.Nil(t, span)
}

func TestParseEscapedAndCaseInsensitive(t *testing.T) {
	quoted := peg.Seq(peg.Escaped('"'), peg.Repeat(0, peg.Unbounded, lower), peg.Escaped('"'))
	var span peg.Span
	out, err := peg.ParseString(quoted, `"abc"`, &span)
	require.NoError(t, err)
	require.Equal(t, "abc", out.Text(span))

	out, err = peg.ParseString(peg.LitI("Hello"), "hELLO", &span)
	require.NoError(t, err)
	require.Equal(t, "hELLO", out.Text(span))

	_, err = peg.ParseString(peg.Lit("Hello"), "hELLO", &span)
	require.EqualError(t, err, `1:1: unexpected 'h'`)
}

func TestParsePredicateNeverSeesEOF(t *testing.T) {
	letters := peg.Pred("letter", func(r rune) bool {
		require.NotEqual(t, peg.EOF, r)
		return unicode.IsLetter(r)
	})
	_, err := peg.ParseString(peg.Repeat(0, peg.Unbounded, letters), "ab", nil)
	require.NoError(t, err)
}

func TestParseSet(t *testing.T) {
	var list []peg.Span
	out, err := peg.ParseString(peg.Repeat(0, peg.Unbounded, peg.Set("+-")), "+-+", &list)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "-", out.Text(list[1]))
}

func TestParseDestinationMustBePointer(t *testing.T) {
	var span peg.Span
	require.Panics(t, func() { peg.Parse(newState("a"), span, peg.Char('a')) })
	require.Panics(t, func() { peg.Parse(newState("a"), (*peg.Span)(nil), peg.Char('a')) })
}

func TestParseErrors(t *testing.T) {
	_, err := peg.ParseString(peg.Lit("ab\ncd"), "ab\nce", nil)
	require.EqualError(t, err, `2:2: unexpected 'e'`)
	var perr peg.Error
	require.True(t, errors.As(err, &perr))
	require.Equal(t, peg.Position{Offset: 4, Line: 2, Column: 2}, perr.Position())
	require.Equal(t, `unexpected 'e'`, perr.Message())

	_, err = peg.ParseString(peg.Lit("abc"), "ab", nil)
	require.EqualError(t, err, `1:3: unexpected end of input`)

	_, err = peg.ParseString(peg.Lit("a"), "", nil)
	require.EqualError(t, err, `1:1: unexpected end of input`)
}

func TestParseReader(t *testing.T) {
	var span peg.Span
	out, err := peg.ParseReader(peg.Repeat(1, peg.Unbounded, lower), strings.NewReader("abc"), &span)
	require.NoError(t, err)
	require.Equal(t, "abc", out.Text(span))
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var span peg.Span
	_, err := peg.ParseString(peg.Lit("abc"), "abc", &span, peg.WithContext(ctx))
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, span.Empty())
}

func TestParseCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopAt := peg.Pred("digit", func(r rune) bool {
		if r == '5' {
			cancel()
		}
		return unicode.IsDigit(r)
	})
	s := peg.NewState(peg.StringSource("123456789"), peg.WithContext(ctx))
	require.False(t, peg.ParseExact(s, nil, peg.Repeat(0, peg.Unbounded, stopAt)))
	requireUnchanged(t, s, 0, 0)
	require.ErrorIs(t, s.Err(), context.Canceled)
}

func TestParseConcurrentlyWithSharedGrammar(t *testing.T) {
	g := peg.NewGrammar()
	list := g.Define("list", peg.Seq(
		peg.Drop(peg.Char('[')),
		peg.Repeat(0, peg.Unbounded, peg.Alt(peg.Repeat(1, peg.Unbounded, digit), g.Rule("list"))),
		peg.Drop(peg.Char(']')),
	))
	require.NoError(t, g.Check())

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := strings.Repeat("[", i%5+1) + fmt.Sprint(i) + strings.Repeat("]", i%5+1)
			var span peg.Span
			out, err := peg.ParseString(list, input, &span)
			// The brackets are dropped, so the list captures its contents.
			if want := input[1 : len(input)-1]; err == nil && out.Text(span) != want {
				err = fmt.Errorf("%q captured %q", input, out.Text(span))
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestTrace(t *testing.T) {
	g := peg.NewGrammar()
	word := g.Define("word", peg.Repeat(1, peg.Unbounded, lower))
	pair := g.Define("pair", peg.Seq(word, peg.Drop(peg.Char('=')), word))
	w := &strings.Builder{}
	_, err := peg.ParseString(pair, "a=b", nil, peg.Trace(w))
	require.NoError(t, err)
	expected := `
pair @1:1
  word @1:1
  word = "a"
  word @1:3
  word = "b"
pair = "a=b"
`
	require.Equal(t, strings.TrimLeft(expected, "\n"), w.String())
}
