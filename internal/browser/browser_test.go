package browser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dainanahan/drugtree/internal/testutil"
	"github.com/Dainanahan/drugtree/pkg/core"
)

func strPtr(s string) *string { return &s }

func composed() *core.View {
	rows := make([]*core.Row, 0, 30)
	for i := 0; i < 30; i++ {
		state := "solid"
		if i%3 == 0 {
			state = "liquid"
		}
		rows = append(rows, &core.Row{
			Index:        i,
			State:        state,
			Group:        strPtr("approved"),
			CreatedYear:  2010 + i%2,
			CreatedMonth: 1 + i%12,
		})
	}
	return core.NewView(rows)
}

func TestBrowser_StartsUnconstrained(t *testing.T) {
	v := composed()
	b := New(v)
	cur := b.Current()
	assert.Zero(t, cur.Seq)
	assert.True(t, cur.Selection.Empty())
	assert.Same(t, v, cur.View)
}

func TestBrowser_SelectReplacesWholesale(t *testing.T) {
	b := New(composed(), WithLogger(testutil.NewTestLogger(t)))

	r1 := b.Select(core.Selection{core.LevelState: "liquid", core.LevelCreatedYear: "2010"})
	assert.Equal(t, uint64(1), r1.Seq)
	assert.Equal(t, 5, r1.View.Len())

	r2 := b.Select(core.Selection{core.LevelCreatedYear: "2011"})
	assert.Equal(t, uint64(2), r2.Seq)
	assert.Equal(t, 15, r2.View.Len(), "state constraint is gone after the second event")
	assert.Equal(t, r2, b.Current())

	r3 := b.Select(core.Selection{})
	assert.Equal(t, 30, r3.View.Len())
}

func TestBrowser_SelectCopiesSelection(t *testing.T) {
	b := New(composed())
	sel := core.Selection{core.LevelState: "liquid"}
	b.Select(sel)
	sel[core.LevelState] = "gas"
	assert.Equal(t, "liquid", b.Current().Selection[core.LevelState])
}

func TestBrowser_Reload(t *testing.T) {
	b := New(composed())
	b.Select(core.Selection{core.LevelState: "liquid"})

	smaller := core.NewView(composed().Slice(0, 6))
	res := b.Reload(smaller)
	assert.Equal(t, 2, res.View.Len())
	assert.Equal(t, "liquid", res.Selection[core.LevelState])
	assert.Same(t, smaller, b.Composed())
}

func TestBrowser_Page(t *testing.T) {
	b := New(composed(), WithPageSize(4))
	p := b.Page(2, 0)
	assert.Equal(t, 4, p.Size)
	assert.Equal(t, 8, p.Pages)
	assert.Equal(t, 4, p.Rows[0].Index)

	assert.Equal(t, DefaultPageSize, New(composed(), WithPageSize(0)).PageSize())
}

func TestBrowser_Hierarchy(t *testing.T) {
	b := New(composed())
	nodes, err := b.Hierarchy([]core.Level{core.LevelState})
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, 10, nodes[0].Count)
	assert.Equal(t, 20, nodes[1].Count)
}

func TestBrowser_ConcurrentEventsLastWins(t *testing.T) {
	b := New(composed())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			year := "2010"
			if i%2 == 1 {
				year = "2011"
			}
			b.Select(core.Selection{core.LevelCreatedYear: year})
		}(i)
	}
	wg.Wait()

	cur := b.Current()
	assert.Equal(t, uint64(50), cur.Seq, "newest event is the one published")
	for _, r := range cur.View.Rows() {
		assert.Equal(t, cur.Selection[core.LevelCreatedYear], []string{"2010", "2011"}[r.CreatedYear-2010])
	}
}
