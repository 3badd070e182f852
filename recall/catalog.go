package recall

import (
	"context"

	"github.com/AbdelrahmanSuliman/Graduation-Project/catalog"
	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pipeline"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pkg/utils"
)

// CatalogSource broadcasts the request's face profile across the whole catalog:
// one candidate per item id, carrying the item's descriptive metadata.
// It implements both Source and pipeline.Node; incoming items are ignored.
type CatalogSource struct {
	Catalog *catalog.Catalog
}

func (r *CatalogSource) Name() string        { return "recall.catalog" }
func (r *CatalogSource) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *CatalogSource) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *CatalogSource) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "recall.catalog: no catalog")
	}
	items := make([]*core.Item, 0, r.Catalog.Size())
	for _, id := range r.Catalog.IDs() {
		it := core.NewItem(id)
		if entry, ok := r.Catalog.Item(id); ok {
			it.Meta = entry.Meta()
		}
		it.PutLabel("recall_source", utils.Label{Value: "catalog", Source: "recall"})
		items = append(items, it)
	}
	return items, nil
}

var (
	_ Source        = (*CatalogSource)(nil)
	_ pipeline.Node = (*CatalogSource)(nil)
)
