package abnf

import (
	"reflect"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/stretchr/testify/require"

	"github.com/ptaahfr/peg"
)

func compileString(t *testing.T, src string) *peg.Grammar {
	t.Helper()
	rules, err := Load(src)
	require.NoError(t, err)
	g, err := Compile(rules)
	require.NoError(t, err)
	return g
}

func lookup(t *testing.T, g *peg.Grammar, name string) *peg.Ref {
	t.Helper()
	ref, ok := g.Lookup(name)
	require.True(t, ok, name)
	return ref
}

// parseNew parses input with rule into a fresh value of the rule's result type.
func parseNew(t *testing.T, rule *peg.Ref, input string) (reflect.Value, *peg.Output) {
	t.Helper()
	dest, err := peg.New(rule)
	require.NoError(t, err)
	out, err := peg.ParseString(rule, input, dest)
	require.NoError(t, err, "%q", input)
	return reflect.ValueOf(dest).Elem(), out
}

func fieldText(out *peg.Output, v reflect.Value, name string) string {
	return out.Text(v.FieldByName(name).Interface().(peg.Span))
}

func TestCompileTextRule(t *testing.T) {
	g := compileString(t, "greeting = \"hello\" SP 1*ALPHA [\"!\"]\n")
	greeting := lookup(t, g, "greeting")
	typ, err := peg.ResultType(greeting)
	require.NoError(t, err)
	require.Equal(t, reflect.TypeOf(peg.Span{}), typ)

	var span peg.Span
	out, err := peg.ParseString(greeting, "HeLLo World", &span)
	require.NoError(t, err)
	require.Equal(t, "HeLLo World", out.Text(span))
	_, err = peg.ParseString(greeting, "hello  World", nil)
	require.Error(t, err)
}

func TestCompileRecursive(t *testing.T) {
	g := compileString(t, "expr = term *( (\"+\" / \"-\") term )\nterm = number / \"(\" expr \")\"\nnumber = 1*DIGIT\n")
	require.Equal(t, `expr = term { ("+" | "-") term } .
term = number | "(" expr ")" .
number = digit { digit } .
digit = "0" … "9" .`, g.EBNF())

	v, out := parseNew(t, lookup(t, g, "expr"), "1+(2-3)")
	terms := v.FieldByName("Term")
	require.Equal(t, 2, terms.Len(), repr.String(v.Interface()))
	require.Equal(t, "1", fieldText(out, terms.Index(0), "Number"))
	// A reference closing a cycle of struct types is captured as a span.
	require.Equal(t, "2-3", fieldText(out, terms.Index(1), "Expr"))

	v, out = parseNew(t, lookup(t, g, "term"), "(4)")
	require.Equal(t, "", fieldText(out, v, "Number"))
	require.Equal(t, "4", fieldText(out, v, "Expr"))
}

func TestCompileHoistedGroup(t *testing.T) {
	g := compileString(t, "kv = key \"=\" value *(\";\" key \"=\" value)\nkey = 1*ALPHA\nvalue = 1*DIGIT\n")
	v, out := parseNew(t, lookup(t, g, "kv"), "a=1;b=2;c=3")
	require.Equal(t, "a", fieldText(out, v, "Key"))
	require.Equal(t, "1", fieldText(out, v, "Value"))
	parts := v.FieldByName("Part1")
	require.Equal(t, 2, parts.Len())
	require.Equal(t, "c", fieldText(out, parts.Index(1), "Key"))
	require.Equal(t, "3", fieldText(out, parts.Index(1), "Value"))
}

func TestCompileRepeatBounds(t *testing.T) {
	g := compileString(t, "pair = 1*1key \"=\" 2*3val\nkey = 1*ALPHA\nval = DIGIT\n")
	v, out := parseNew(t, lookup(t, g, "pair"), "ab=123")
	require.Equal(t, "ab", fieldText(out, v, "Key"))
	vals := []string{}
	for _, span := range v.FieldByName("Val").Interface().([]peg.Span) {
		vals = append(vals, out.Text(span))
	}
	require.Equal(t, []string{"1", "2", "3"}, vals)

	_, err := peg.ParseString(lookup(t, g, "pair"), "ab=1", nil)
	require.Error(t, err)
}

func TestCompileOptionalAndList(t *testing.T) {
	g := compileString(t, `call = name "(" [arg *("," arg)] ")" [suffix]
name = 1*ALPHA
arg = 1*DIGIT
suffix = ";"
`)
	call := lookup(t, g, "call")

	v, out := parseNew(t, call, "f(1,22,333);")
	require.Equal(t, "f", fieldText(out, v, "Name"))
	args := []string{}
	for _, span := range v.FieldByName("Arg").Interface().([]peg.Span) {
		args = append(args, out.Text(span))
	}
	require.Equal(t, []string{"1", "22", "333"}, args)
	require.Equal(t, ";", fieldText(out, v, "Suffix"))

	v, _ = parseNew(t, call, "g()")
	require.Equal(t, 0, v.FieldByName("Arg").Len())
	require.True(t, v.FieldByName("Suffix").Interface().(peg.Span).Empty())
}

func TestCompileNestedStruct(t *testing.T) {
	g := compileString(t, `call = name "(" [args] ")"
args = arg *("," arg)
name = 1*ALPHA
arg = 1*DIGIT
`)
	call := lookup(t, g, "call")

	v, out := parseNew(t, call, "f(1,2)")
	args := v.FieldByName("Args")
	require.False(t, args.IsNil())
	require.Equal(t, 2, args.Elem().FieldByName("Arg").Len())
	require.Equal(t, "2", out.Text(args.Elem().FieldByName("Arg").Index(1).Interface().(peg.Span)))

	v, _ = parseNew(t, call, "g()")
	require.True(t, v.FieldByName("Args").IsNil())
}

func TestCompileNumericValues(t *testing.T) {
	g := compileString(t, "line = 1*(%x61-7A / %d48) %x0D.0A\n")
	line := lookup(t, g, "line")
	_, err := peg.ParseString(line, "ab0c\r\n", nil)
	require.NoError(t, err)
	_, err = peg.ParseString(line, "ab1\r\n", nil)
	require.Error(t, err)
}

func TestCompileProse(t *testing.T) {
	rules, err := Load("a = b <anything>\nb = \"x\"\n")
	require.NoError(t, err)
	_, err = Compile(rules)
	require.EqualError(t, err, `rule "a": prose value <anything> cannot be compiled`)
}

// The ABNF of ABNF, compiled, parses itself.
func TestCompileSelfHosting(t *testing.T) {
	src, rules := loadFile(t, "testdata/abnf.abnf")
	g, err := Compile(rules)
	require.NoError(t, err)
	require.NoError(t, g.Verify("rulelist"))

	v, out := parseNew(t, lookup(t, g, "rulelist"), src)
	names := []string{}
	parts := v.FieldByName("Part1")
	for i := 0; i < parts.Len(); i++ {
		rule := parts.Index(i).FieldByName("Rule")
		if !rule.IsNil() {
			names = append(names, fieldText(out, rule.Elem(), "Rulename"))
		}
	}
	expected := []string{}
	for _, rule := range rules.Rules {
		expected = append(expected, rule.Name)
	}
	require.Equal(t, expected, names)
}
