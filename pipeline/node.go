package pipeline

import (
	"context"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

// Kind tags a node with its stage, for logging and metrics.
type Kind string

const (
	KindRecall Kind = "recall" // produce candidates
	KindFilter Kind = "filter" // drop candidates
	KindRank   Kind = "rank"   // score and sort
	KindReRank Kind = "rerank" // reorder or truncate ranked results
)

// Node is one stage of a ranking pipeline: items in, items out.
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
