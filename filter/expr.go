package filter

import (
	"context"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pkg/dsl"
)

// ExprFilter keeps items for which a CEL expression is true, e.g.
//
//	item.meta.material == "Metal"
//	!(rctx.face_shape == "Round" && item.meta.style == "Round")
//
// See dsl.Program for the available variables.
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter compiles expr once.
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.WrapDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "invalid filter expression", err)
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) Expr() string { return f.prg.String() }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	keep, err := f.prg.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
