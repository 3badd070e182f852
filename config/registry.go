package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/AbdelrahmanSuliman/Graduation-Project/pipeline"
)

// Node types that need no runtime dependencies (rerank.topn, filter.expr) register
// themselves here from config/builders at init. Types bound to a loaded model or
// catalog are added per process by builders.Factory.

type NodeBuilder = pipeline.NodeBuilder

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register makes a node type available to DefaultFactory.
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes lists registered node types, sorted.
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory returns a NodeFactory holding every registered builder.
func DefaultFactory() *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig reports the first node type that factory cannot build.
func ValidatePipelineConfig(cfg *pipeline.Config, factory *pipeline.NodeFactory) error {
	if cfg == nil {
		return nil
	}
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			return fmt.Errorf("node %d: type is required", i)
		}
		if !factory.Has(nc.Type) {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, factory.Types())
		}
	}
	return nil
}
