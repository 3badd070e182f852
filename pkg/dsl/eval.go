package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

var (
	// celEnv is shared; cel.Env is safe for concurrent use.
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program is a compiled boolean CEL expression over one scored item.
//
// Variables:
//   - item.id / item.score / item.meta.style / item.meta.material
//   - label.<key>: value of an item label, e.g. label.rank_model == "hybrid_neumf"
//   - rctx.face_shape / rctx.shape_fallback / rctx.cheek_jaw_ratio / rctx.face_hw_ratio / rctx.midface_ratio
//
// Examples:
//   - item.meta.material == "Metal"
//   - item.score > 0.4 && item.meta.style != "Aviator"
//   - rctx.face_shape == "Round" && item.meta.style in ["Square", "Wayfarer"]
//
// Missing map keys are evaluation errors in CEL; guard with has(item.meta.style).
type Program struct {
	expr string
	prg  cel.Program
}

// Compile parses and type-checks expr once. The result is safe for concurrent Eval calls.
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression %q must return bool, got %s", expr, out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

func (p *Program) String() string { return p.expr }

// Eval runs the expression against item in the scope of rctx (which may be nil).
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return bool, got %T", p.expr, out.Value())
	}
	return result, nil
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}
	meta := item.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	itemMap := map[string]any{
		"id":    int64(item.ID),
		"score": item.Score,
		"meta":  meta,
	}

	ctxMap := map[string]any{}
	if rctx != nil {
		ctxMap["request_id"] = rctx.RequestID
		ctxMap["face_shape"] = rctx.Shape.Shape.String()
		ctxMap["shape_fallback"] = !rctx.Shape.Recognized
		ctxMap["cheek_jaw_ratio"] = rctx.Features.CheekJaw
		ctxMap["face_hw_ratio"] = rctx.Features.FaceHW
		ctxMap["midface_ratio"] = rctx.Features.Midface
	}

	return map[string]any{
		"item":  itemMap,
		"label": labels,
		"rctx":  ctxMap,
	}
}
