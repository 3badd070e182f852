// Package builders binds the ranking node types to the config registry.
//
// Import it for its side effect to get rerank.topn and filter.expr in
// config.DefaultFactory; call Factory to also get the model- and catalog-bound
// node types (recall.catalog, rank.hybrid).
package builders

import (
	"fmt"
	"strings"

	"github.com/AbdelrahmanSuliman/Graduation-Project/catalog"
	"github.com/AbdelrahmanSuliman/Graduation-Project/config"
	"github.com/AbdelrahmanSuliman/Graduation-Project/filter"
	"github.com/AbdelrahmanSuliman/Graduation-Project/model"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pipeline"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pkg/conv"
	"github.com/AbdelrahmanSuliman/Graduation-Project/rank"
	"github.com/AbdelrahmanSuliman/Graduation-Project/recall"
	"github.com/AbdelrahmanSuliman/Graduation-Project/rerank"
)

func init() {
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("filter.expr", BuildExprFilterNode)
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", rerank.DefaultTopN)
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive, got %d", n)
	}
	return &rerank.TopNNode{N: n}, nil
}

func BuildExprFilterNode(cfg map[string]any) (pipeline.Node, error) {
	expr := strings.TrimSpace(conv.ConfigGet(cfg, "expr", ""))
	if expr == "" {
		return nil, fmt.Errorf("expr not found")
	}
	f, err := filter.NewExprFilter(expr)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

// Deps are the runtime objects the bound node types close over.
type Deps struct {
	Model   model.ScoringModel
	Catalog *catalog.Catalog
	// Defaults for rank.hybrid when the node config omits them.
	ChunkSize int
	Workers   int
}

// Factory returns the registered builders plus recall.catalog and rank.hybrid bound to deps.
func Factory(deps Deps) *pipeline.NodeFactory {
	f := config.DefaultFactory()

	f.Register("recall.catalog", func(map[string]any) (pipeline.Node, error) {
		if deps.Catalog == nil {
			return nil, fmt.Errorf("recall.catalog: no catalog loaded")
		}
		return &recall.CatalogSource{Catalog: deps.Catalog}, nil
	})

	f.Register("rank.hybrid", func(cfg map[string]any) (pipeline.Node, error) {
		if deps.Model == nil {
			return nil, fmt.Errorf("rank.hybrid: no model loaded")
		}
		return &rank.HybridNode{
			Model:     deps.Model,
			ChunkSize: conv.ConfigGetInt(cfg, "chunk_size", deps.ChunkSize),
			Workers:   conv.ConfigGetInt(cfg, "workers", deps.Workers),
		}, nil
	})

	return f
}

// DefaultPipelineConfig is the ranking pipeline used when no pipeline file is configured:
// recall.catalog, rank.hybrid, filter.expr (only when an expression is set), rerank.topn.
func DefaultPipelineConfig(r config.RankingConfig) *pipeline.Config {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "eyewear"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "recall.catalog"},
		{Type: "rank.hybrid"},
	}
	if expr := strings.TrimSpace(r.FilterExpr); expr != "" {
		cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{
			Type:   "filter.expr",
			Config: map[string]any{"expr": expr},
		})
	}
	topK := r.TopK
	if topK <= 0 {
		topK = rerank.DefaultTopN
	}
	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{
		Type:   "rerank.topn",
		Config: map[string]any{"n": topK},
	})
	return cfg
}

// BuildRankingPipeline builds the pipeline from r.PipelinePath when set, otherwise
// from DefaultPipelineConfig.
func BuildRankingPipeline(r config.RankingConfig, deps Deps) (*pipeline.Pipeline, error) {
	if deps.ChunkSize <= 0 {
		deps.ChunkSize = r.ChunkSize
	}
	if deps.Workers <= 0 {
		deps.Workers = r.Workers
	}
	factory := Factory(deps)

	cfg := DefaultPipelineConfig(r)
	if r.PipelinePath != "" {
		loaded, err := pipeline.LoadFromFile(r.PipelinePath)
		if err != nil {
			return nil, fmt.Errorf("load pipeline %s: %w", r.PipelinePath, err)
		}
		cfg = loaded
	}
	if err := config.ValidatePipelineConfig(cfg, factory); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(factory)
}
