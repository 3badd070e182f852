package recall

import (
	"context"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

// Source produces the candidate set for one request.
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
