package rerank

import (
	"context"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pipeline"
)

// DefaultTopN is the number of recommendations returned per face.
const DefaultTopN = 5

// TopNNode truncates a ranked list to its first N items. Place it after
// rank.hybrid (and any filter) so the cut happens on the final order.
//
//	&pipeline.Pipeline{Nodes: []pipeline.Node{
//	    &recall.CatalogSource{Catalog: cat},
//	    &rank.HybridNode{Model: m},
//	    &rerank.TopNNode{N: 5},
//	}}
type TopNNode struct {
	// N <= 0 keeps everything.
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
