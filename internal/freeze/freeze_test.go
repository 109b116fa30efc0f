package freeze

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polcheck/internal/ir"
)

type recordingLoader struct {
	mu     sync.Mutex
	graphs []*FrozenGraph
	err    error
}

func (l *recordingLoader) Load(_ context.Context, g *FrozenGraph) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.graphs = append(l.graphs, g)
	return nil
}

func utilityQuery() *ir.Query {
	return &ir.Query{
		Prefix: "UQ1",
		Select: []ir.Var{"UQ1a"},
		Pattern: []ir.Triple{
			{Subject: ir.Var("UQ1a"), Predicate: ir.IRILiteral("age"), Object: ir.Var("UQ1b")},
			{Subject: ir.Var("UQ1a"), Predicate: ir.IRILiteral("city"), Object: ir.StringLiteral("Lyon")},
		},
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		text string
		want Tag
	}{
		{"_:o1.UQ1a", Output},
		{"_:i12.UQ1b", Internal},
		{"30", Genuine},
		{`"Lyon"`, Genuine},
		{"<age>", Genuine},
		{"_:", Genuine},
		{"_:x1.v", Genuine},
		{"o1.UQ1a", Genuine},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v := Decode(tt.text)
			assert.Equal(t, tt.want, v.Tag)
			assert.Equal(t, tt.text, v.Text)
			assert.Equal(t, tt.want != Genuine, v.IsSkolem())
		})
	}
}

func TestNewSkolemRoundTrip(t *testing.T) {
	out := NewSkolem("UQ1a", Output, 7)
	in := NewSkolem("UQ1b", Internal, 7)

	assert.Equal(t, "_:o7.UQ1a", out.Text)
	assert.Equal(t, "_:i7.UQ1b", in.Text)
	assert.Equal(t, Output, Decode(out.Text).Tag)
	assert.Equal(t, Internal, Decode(in.Text).Tag)
}

func TestFreezeOneSkolemPerVariable(t *testing.T) {
	loader := &recordingLoader{}
	f := NewFreezer(loader)

	g, err := f.Freeze(context.Background(), utilityQuery())
	require.NoError(t, err)

	assert.Equal(t, []ir.Var{"UQ1a", "UQ1b"}, g.Vars())
	require.Len(t, g.Constants(), 2)

	a, ok := g.Constant("UQ1a")
	require.True(t, ok)
	assert.Equal(t, Output, a.Tag)

	b, ok := g.Constant("UQ1b")
	require.True(t, ok)
	assert.Equal(t, Internal, b.Tag)

	v, ok := g.VarOf(a.Text)
	require.True(t, ok)
	assert.Equal(t, ir.Var("UQ1a"), v)

	assert.Equal(t, []Triple{
		{Subject: a.Text, Predicate: "<age>", Object: b.Text},
		{Subject: a.Text, Predicate: "<city>", Object: `"Lyon"`},
	}, g.Triples)

	require.Len(t, loader.graphs, 1)
	assert.Same(t, g, loader.graphs[0])
}

func TestRefreezeIsDisjoint(t *testing.T) {
	f := NewFreezer(nil)
	q := utilityQuery()

	g1, err := f.Freeze(context.Background(), q)
	require.NoError(t, err)
	g2, err := f.Freeze(context.Background(), q)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, s := range g1.Constants() {
		seen[s.Text] = true
	}
	for _, s := range g2.Constants() {
		assert.False(t, seen[s.Text], "constant %s reused across freezes", s.Text)
	}
	assert.NotEqual(t, g1.ID, g2.ID)
	assert.Greater(t, g2.Generation, g1.Generation)
}

func TestFreezeConcurrentGenerationsUnique(t *testing.T) {
	f := NewFreezer(nil)
	q := utilityQuery()

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := f.Freeze(context.Background(), q)
			if err == nil {
				ids[i] = g.ID
			}
		}(i)
	}
	wg.Wait()

	unique := ir.NewOrderedSet(ids...)
	assert.Equal(t, len(ids), unique.Len())
}

func TestFreezeLoaderError(t *testing.T) {
	f := NewFreezer(&recordingLoader{err: errors.New("disk full")})

	_, err := f.Freeze(context.Background(), utilityQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFreezeNilQuery(t *testing.T) {
	_, err := NewFreezer(nil).Freeze(context.Background(), nil)
	assert.Error(t, err)
}

func TestFrozenGraphString(t *testing.T) {
	g, err := NewFreezer(nil).Freeze(context.Background(), utilityQuery())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(g.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `_:o1.UQ1a <city> "Lyon" .`, lines[1])
}
