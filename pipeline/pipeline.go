package pipeline

import (
	"context"
	"fmt"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

// Pipeline runs its nodes in order, feeding each node the previous output.
type Pipeline struct {
	Nodes []Node
}

// Run stops at the first node error, which is returned wrapped with the node name.
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline aborted before %s: %w", node.Name(), err)
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// Describe lists "kind:name" for every node, for startup logs.
func (p *Pipeline) Describe() []string {
	out := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		out = append(out, string(n.Kind())+":"+n.Name())
	}
	return out
}
