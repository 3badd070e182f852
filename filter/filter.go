package filter

import (
	"context"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

// Filter decides whether an item is removed. true means drop it.
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
