package stimulus_test

import (
	"strings"
	"testing"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/stimulus"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commit struct {
	t    evsim.Time
	name string
	v    evsim.Value
}

type recorder []commit

func (r *recorder) Commit(t evsim.Time, e evsim.Element, v evsim.Value) {
	*r = append(*r, commit{t, e.Name(), v})
}

func testCircuit(t *testing.T) *evsim.Circuit {
	c := evsim.NewCircuit("test")
	require.NoError(t, c.Add(evsim.Input("a", 1), evsim.Input("bus", 8), evsim.Output("o", 1)))
	sub := evsim.NewCircuit("sub")
	require.NoError(t, sub.Add(evsim.Input("x", 4)))
	_, err := c.AddSubcircuit("s", sub)
	require.NoError(t, err)
	return c
}

func TestLevel_Eval(t *testing.T) {
	td := []struct {
		l     stimulus.Level
		width int
		v     evsim.Value
		err   error
	}{
		{"z", 4, evsim.Floating, nil},
		{"Z", 1, evsim.Floating, nil},
		{"1", 1, evsim.Ones(1), nil},
		{"0xff", 8, evsim.Uint(8, 0xff), nil},
		{"0b1010", 4, evsim.Uint(4, 0xa), nil},
		{"1 << 3", 4, evsim.Uint(4, 8), nil},
		{"-1", 8, evsim.Uint(8, 0xff), nil},
		{"-128", 8, evsim.Uint(8, 0x80), nil},
		{"width * 2", 8, evsim.Uint(8, 16), nil},
		{"(1 << width) - 1", 70, evsim.Ones(70), nil},
		{"256", 8, evsim.Floating, stimulus.ErrRange},
		{"-129", 8, evsim.Floating, stimulus.ErrRange},
		{"2", 1, evsim.Floating, stimulus.ErrRange},
		{"'x'", 8, evsim.Floating, stimulus.ErrNotNumeric},
		{"1 +", 8, evsim.Floating, stimulus.ErrNotNumeric},
		{"foo", 8, evsim.Floating, stimulus.ErrNotNumeric},
		{"1.5", 8, evsim.Floating, stimulus.ErrNotNumeric},
	}
	for _, d := range td {
		t.Run(string(d.l), func(t *testing.T) {
			v, err := d.l.Eval(d.width)
			if d.err != nil {
				assert.Equal(t, d.err, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, v.Equal(d.v), "got %v, expected %v", v, d.v)
		})
	}
}

func TestParse(t *testing.T) {
	src := `# comment
a = 0, +5 1, @40 0   # trailing comment

bus = 0x0f,+10 width * 2, @100 z
s/x = z
`
	entries, err := stimulus.Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, stimulus.Entry{Line: 2, Pin: "a", Initial: "0", Steps: []stimulus.Step{
		{Rel: true, Time: 5, Value: "1"},
		{Time: 40, Value: "0"},
	}}, entries[0])
	assert.Equal(t, stimulus.Entry{Line: 4, Pin: "bus", Initial: "0x0f", Steps: []stimulus.Step{
		{Rel: true, Time: 10, Value: "width * 2"},
		{Time: 100, Value: "z"},
	}}, entries[1])
	assert.Equal(t, "s/x", entries[2].Pin)
	assert.Empty(t, entries[2].Steps)
}

func TestParse_errors(t *testing.T) {
	td := []struct {
		src string
		err error
	}{
		{"a 0", stimulus.ErrSyntax},
		{"= 0", stimulus.ErrSyntax},
		{"a b = 0", stimulus.ErrSyntax},
		{"a =", stimulus.ErrSyntax},
		{"a = 0,", stimulus.ErrSyntax},
		{"a = 0, 5 1", stimulus.ErrSyntax},
		{"a = 0, +5", stimulus.ErrSyntax},
		{"a = 0, +x 1", stimulus.ErrNotNumeric},
		{"a = 0, @-1 1", stimulus.ErrNotNumeric},
	}
	for _, d := range td {
		t.Run(d.src, func(t *testing.T) {
			entries, err := stimulus.Parse(strings.NewReader("b = 1\n" + d.src + "\n"))
			require.Error(t, err)
			l, ok := err.(stimulus.ErrorList)
			require.True(t, ok, "%T is not an ErrorList", err)
			require.Len(t, l, 1)
			assert.Equal(t, 2, l[0].Line)
			assert.Equal(t, d.err, errors.Cause(l[0]))
			// valid entries are kept
			require.Len(t, entries, 1)
			assert.Equal(t, "b", entries[0].Pin)
		})
	}
}

func TestApply(t *testing.T) {
	c := testCircuit(t)
	entries, err := stimulus.Parse(strings.NewReader("a = 0, +5 1, @40 0\nbus = 0x0f, +10 -2, @100 z\ns/x = 3\n"))
	require.NoError(t, err)
	var r recorder
	require.NoError(t, stimulus.Apply(entries, c, &r, 1000))

	exp := []commit{
		{1000, "a", evsim.Zero(1)},
		{1005, "a", evsim.Ones(1)},
		{1040, "a", evsim.Zero(1)},
		{1000, "bus", evsim.Uint(8, 0x0f)},
		{1010, "bus", evsim.Uint(8, 0xfe)},
		{1100, "bus", evsim.Floating},
		{1000, "x", evsim.Uint(4, 3)},
	}
	require.Len(t, r, len(exp))
	for i, e := range exp {
		assert.Equal(t, e.t, r[i].t, "commit %d", i)
		assert.Equal(t, e.name, r[i].name, "commit %d", i)
		assert.True(t, e.v.Equal(r[i].v), "commit %d: got %v, expected %v", i, r[i].v, e.v)
	}
}

func TestApply_errors(t *testing.T) {
	td := []struct {
		src string
		err error
	}{
		{"nope = 1", stimulus.ErrUnknownPin},
		{"o = 1", stimulus.ErrUnknownPin},
		{"s = 1", stimulus.ErrUnknownPin},
		{"a = 2", stimulus.ErrRange},
		{"a = 0, @5 1, @5 0", stimulus.ErrTimeOrder},
		{"a = 0, @5 1, @3 0", stimulus.ErrTimeOrder},
		{"a = 0, +0 1", stimulus.ErrTimeOrder},
		{"bus = 0, +1 0x100", stimulus.ErrRange},
	}
	c := testCircuit(t)
	for _, d := range td {
		t.Run(d.src, func(t *testing.T) {
			entries, err := stimulus.Parse(strings.NewReader(d.src))
			require.NoError(t, err)
			var r recorder
			err = stimulus.Apply(entries, c, &r, 0)
			require.Error(t, err)
			l := err.(stimulus.ErrorList)
			require.Len(t, l, 1)
			assert.Equal(t, d.err, errors.Cause(l[0]))
			assert.Equal(t, 1, l[0].Line)
			assert.Empty(t, r, "commits posted for an invalid entry")
		})
	}
}

func TestLoad(t *testing.T) {
	c := testCircuit(t)
	s := evsim.New(c)
	s.Init()
	src := "a = 0, +5 1\nbogus\nbus = 0x300\ns/x = 1, +2 2\n"
	err := stimulus.Load(strings.NewReader(src), c, s)
	require.Error(t, err)
	l, ok := err.(stimulus.ErrorList)
	require.True(t, ok)
	require.Len(t, l, 2)
	assert.Equal(t, 2, l[0].Line)
	assert.Equal(t, stimulus.ErrSyntax, errors.Cause(l[0]))
	assert.Equal(t, 3, l[1].Line)
	assert.Equal(t, "bus", l[1].Pin)
	assert.Contains(t, err.Error(), "and 1 more errors")

	// valid entries were posted
	assert.False(t, s.RunUntil(10))
	a := c.Element("a").(*evsim.InputPin)
	assert.True(t, a.Value().Equal(evsim.Ones(1)))
	x, err := c.LookupElement("s/x")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), x.(*evsim.InputPin).Value().Uint64())

	require.NoError(t, stimulus.Load(strings.NewReader("# nothing\n"), c, s))
}

func TestSpecError_messages(t *testing.T) {
	c := testCircuit(t)
	td := []struct {
		src string
		msg string
	}{
		{"a = 0, +x 1", `line 1: a: time "x": value is not a number`},
		{"b c = 1", `line 1: invalid pin name "b c": syntax error`},
		{"a = 0, 5 1", `line 1: a: expected +duration or @time, got "5 1": syntax error`},
		{"a = 0, +5", `line 1: a: missing time or value in "+5": syntax error`},
		{"o = 1", `line 1: o: element o has kind output: unknown input pin`},
		{"a = 0, @5 1, @3 0", `line 1: a: transition at 3 after 5: transition times must be strictly increasing`},
	}
	for _, d := range td {
		t.Run(d.src, func(t *testing.T) {
			entries, err := stimulus.Parse(strings.NewReader(d.src))
			if err == nil {
				err = stimulus.Apply(entries, c, new(recorder), 0)
			}
			require.Error(t, err)
			assert.Equal(t, d.msg, err.Error())
			assert.NotContains(t, err.Error(), "%!")
		})
	}
}
