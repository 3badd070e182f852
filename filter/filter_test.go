package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

func metaItem(id int, material string) *core.Item {
	it := core.NewItem(id)
	if material != "" {
		it.Meta["material"] = material
	}
	return it
}

func TestExprFilterNode(t *testing.T) {
	f, err := NewExprFilter(`item.meta.material == "Metal"`)
	require.NoError(t, err)
	assert.Equal(t, `item.meta.material == "Metal"`, f.Expr())

	items := []*core.Item{metaItem(3, "Metal"), metaItem(1, "Plastic"), metaItem(0, "Metal"), nil}
	node := &FilterNode{Filters: []Filter{f}}
	out, err := node.Process(context.Background(), &core.RecommendContext{}, items)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 3, out[0].ID)
	assert.Equal(t, 0, out[1].ID)
	assert.Equal(t, "filter.expr", items[1].Labels["filtered"].Source)
}

func TestExprFilter_EvalErrorKeepsItem(t *testing.T) {
	f, err := NewExprFilter(`item.meta.material == "Metal"`)
	require.NoError(t, err)

	out, err := (&FilterNode{Filters: []Filter{f}}).Process(context.Background(), nil, []*core.Item{metaItem(5, "")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 5, out[0].ID)
}

func TestNewExprFilter_Invalid(t *testing.T) {
	_, err := NewExprFilter(`item.meta.material ==`)
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestFilterNode_NoFilters(t *testing.T) {
	items := []*core.Item{metaItem(1, "")}
	out, err := (&FilterNode{}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, items, out)
}
