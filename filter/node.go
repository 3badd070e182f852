package filter

import (
	"context"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/logging"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pipeline"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pkg/utils"
)

// FilterNode drops every item that any of its filters rejects. A filter that errors on an
// item is skipped for that item, so a broken rule never empties the result.
// Relative order of kept items is preserved.
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		reason := ""
		for _, f := range n.Filters {
			drop, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				logging.Ctx(ctx).Debug().Err(err).Str("filter", f.Name()).Int("item_id", item.ID).Msg("filter skipped")
				continue
			}
			if drop {
				reason = f.Name()
				break
			}
		}

		if reason != "" {
			item.PutLabel("filtered", utils.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
