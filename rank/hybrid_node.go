package rank

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pipeline"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pkg/utils"
)

// DefaultChunkSize is the number of items scored per batch.
const DefaultChunkSize = 64

// HybridNode scores every candidate against the request's face profile and sorts them.
//   - writes label rank_model
//   - sets item.Score
//   - orders by score descending, then item id ascending
//
// Candidates are split into chunks scored concurrently; the final sort makes the result
// independent of chunking and scheduling.
type HybridNode struct {
	Model model.ScoringModel

	// ChunkSize <= 0 uses DefaultChunkSize.
	ChunkSize int
	// Workers <= 0 uses GOMAXPROCS.
	Workers int
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil {
		return nil, core.ErrModelUnavailable
	}
	if rctx == nil {
		return nil, fmt.Errorf("rank.hybrid: missing recommend context")
	}

	live := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			live = append(live, it)
		}
	}
	if len(live) == 0 {
		return live, nil
	}

	scores, err := n.score(ctx, rctx, live)
	if err != nil {
		return nil, err
	}

	lbl := utils.Label{Value: n.Model.Name(), Source: "rank"}
	for i, it := range live {
		it.Score = scores[i]
		it.PutLabel("rank_model", lbl)
	}
	SortByScore(live)
	return live, nil
}

func (n *HybridNode) score(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]float64, error) {
	chunk := n.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	workers := n.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	shape := rctx.Shape.Shape.ID()
	features := rctx.Features.Vector()
	scores := make([]float64, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(items); start += chunk {
		end := min(start+chunk, len(items))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ids := make([]int, 0, end-start)
			for _, it := range items[start:end] {
				ids = append(ids, it.ID)
			}
			out, err := n.Model.ScoreBatch(shape, ids, features)
			if err != nil {
				return fmt.Errorf("score items %d..%d: %w", ids[0], ids[len(ids)-1], err)
			}
			if len(out) != len(ids) {
				return fmt.Errorf("model returned %d scores for %d items", len(out), len(ids))
			}
			for i, s := range out {
				if math.IsNaN(s) {
					return fmt.Errorf("model returned NaN for item %d", ids[i])
				}
			}
			copy(scores[start:end], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// SortByScore orders items by score descending; equal scores keep the smaller id first.
func SortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

var _ pipeline.Node = (*HybridNode)(nil)
