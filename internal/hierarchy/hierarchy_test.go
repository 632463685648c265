package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dainanahan/drugtree/internal/filter"
	"github.com/Dainanahan/drugtree/pkg/core"
)

func strPtr(s string) *string { return &s }

func view() *core.View {
	return core.NewView([]*core.Row{
		{Index: 0, State: "solid", Group: strPtr("approved"), CreatedYear: 2016, CreatedMonth: 11},
		{Index: 1, State: "liquid", Group: strPtr("approved"), CreatedYear: 2016, CreatedMonth: 3},
		{Index: 2, State: "solid", Group: nil, CreatedYear: 2005, CreatedMonth: 6},
		{Index: 3, State: "solid", Group: strPtr("withdrawn"), CreatedYear: 2016, CreatedMonth: 3},
	})
}

func TestBuild_TwoLevels(t *testing.T) {
	nodes, err := Build(view(), []core.Level{core.LevelGroup, core.LevelState})
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, "approved", nodes[0].Value)
	assert.Equal(t, 2, nodes[0].Count)
	assert.Equal(t, "withdrawn", nodes[1].Value)
	assert.Equal(t, NoValue, nodes[2].Value, "missing group sorts last")

	require.Len(t, nodes[0].Children, 2)
	assert.Equal(t, "liquid", nodes[0].Children[0].Value)
	assert.Equal(t, core.Selection{core.LevelGroup: "approved", core.LevelState: "liquid"}, nodes[0].Children[0].Selection)

	assert.False(t, nodes[2].Selectable())
	assert.Nil(t, nodes[2].Children[0].Selection, "nodes beneath a missing value cannot be selected")
	assert.True(t, nodes[0].Children[0].Selectable())
}

func TestBuild_SelectionCountsMatchFilter(t *testing.T) {
	v := core.NewView(append(view().Rows(),
		&core.Row{Index: 4, State: "Unknown", Group: nil},
		&core.Row{Index: 5, State: "liquid", Group: strPtr("approved")},
	))
	orders := [][]core.Level{
		{core.LevelGroup, core.LevelState},
		{core.LevelCreatedYear, core.LevelGroup, core.LevelCreatedMonth},
		{core.LevelState, core.LevelCreatedMonth},
	}
	for _, levels := range orders {
		nodes, err := Build(v, levels)
		require.NoError(t, err)

		selectable := 0
		Walk(nodes, func(n *Node, _ int) {
			if !n.Selectable() {
				return
			}
			selectable++
			assert.Equal(t, n.Count, filter.Apply(v, n.Selection).Len(), "%v node %s=%s", levels, n.Level, n.Value)
		})
		assert.Positive(t, selectable)
	}
}

func TestBuild_NumericOrder(t *testing.T) {
	nodes, err := Build(view(), []core.Level{core.LevelCreatedMonth})
	require.NoError(t, err)

	var values []string
	for _, n := range nodes {
		values = append(values, n.Value)
	}
	assert.Equal(t, []string{"3", "6", "11"}, values)
}

func TestBuild_CountsSumToParent(t *testing.T) {
	nodes, err := Build(view(), []core.Level{core.LevelCreatedYear, core.LevelCreatedMonth, core.LevelGroup})
	require.NoError(t, err)

	Walk(nodes, func(n *Node, _ int) {
		if len(n.Children) == 0 {
			return
		}
		sum := 0
		for _, c := range n.Children {
			sum += c.Count
		}
		assert.Equal(t, n.Count, sum, "node %s=%s", n.Level, n.Value)
	})
}

func TestBuild_InvalidLevels(t *testing.T) {
	_, err := Build(view(), []core.Level{core.LevelGroup, core.LevelGroup})
	var dup *DuplicateLevelError
	require.ErrorAs(t, err, &dup)

	_, err = Build(view(), []core.Level{"kingdom"})
	var unknown *core.UnknownLevelError
	require.ErrorAs(t, err, &unknown)
}

func TestBuild_NoLevels(t *testing.T) {
	nodes, err := Build(view(), nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestWalk_Depth(t *testing.T) {
	nodes, err := Build(view(), []core.Level{core.LevelCreatedYear, core.LevelState})
	require.NoError(t, err)

	maxDepth := 0
	visited := 0
	Walk(nodes, func(_ *Node, depth int) {
		visited++
		if depth > maxDepth {
			maxDepth = depth
		}
	})
	assert.Equal(t, 1, maxDepth)
	assert.Equal(t, 5, visited) // 2016, 2005 plus solid, liquid under 2016 and solid under 2005
}
