// Package catalog holds the fixed, process-wide set of eyewear items eligible for ranking.
//
// Item ids are dense: a catalog of size N contains exactly ids 0..N-1, which index the
// item embedding tables of the scoring model. Style and material are descriptive only.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

type Item struct {
	ID       int    `yaml:"id" json:"glass_id"`
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Style    string `yaml:"style,omitempty" json:"style,omitempty"`
	Material string `yaml:"material,omitempty" json:"material,omitempty"`
}

// Meta returns the non-empty descriptive fields for pipeline items.
func (it Item) Meta() map[string]any {
	meta := make(map[string]any, 3)
	if it.Name != "" {
		meta["name"] = it.Name
	}
	if it.Style != "" {
		meta["style"] = it.Style
	}
	if it.Material != "" {
		meta["material"] = it.Material
	}
	return meta
}

// Catalog is immutable after construction.
type Catalog struct {
	items []Item
}

func invalid(msg string) error {
	return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, msg)
}

// New validates that items cover ids 0..len(items)-1 exactly once.
func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, invalid("catalog is empty")
	}
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for i, it := range sorted {
		if it.ID != i {
			return nil, invalid(fmt.Sprintf("catalog ids must be dense from 0: expected id %d, found %d", i, it.ID))
		}
	}
	return &Catalog{items: sorted}, nil
}

// NewStatic builds a catalog of size ids with no metadata.
func NewStatic(size int) (*Catalog, error) {
	if size <= 0 {
		return nil, invalid(fmt.Sprintf("catalog size must be positive, got %d", size))
	}
	items := make([]Item, size)
	for i := range items {
		items[i].ID = i
	}
	return &Catalog{items: items}, nil
}

type fileFormat struct {
	Items []Item `yaml:"items"`
}

// LoadFile reads a YAML catalog:
//
//	items:
//	  - {id: 0, name: "Classic Aviator", style: Aviator, material: Metal}
//	  - {id: 1, style: Wayfarer, material: Plastic}
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	return New(f.Items)
}

// StoreKey is the hash key holding the metadata of item id.
func StoreKey(prefix string, id int) string {
	return prefix + ":" + strconv.Itoa(id)
}

// LoadStore reads size items from one hash per item (fields name, style, material).
// An item without a hash is kept with empty metadata.
func LoadStore(ctx context.Context, s core.Store, prefix string, size int) (*Catalog, error) {
	if size <= 0 {
		return nil, invalid(fmt.Sprintf("catalog size must be positive, got %d", size))
	}
	items := make([]Item, size)
	for id := range items {
		h, err := s.HGetAll(ctx, StoreKey(prefix, id))
		if err != nil {
			return nil, fmt.Errorf("load item %d from %s: %w", id, s.Name(), err)
		}
		items[id] = Item{
			ID:       id,
			Name:     string(h["name"]),
			Style:    string(h["style"]),
			Material: string(h["material"]),
		}
	}
	return &Catalog{items: items}, nil
}

// Seed writes items into s in the layout LoadStore reads.
func Seed(ctx context.Context, s core.Store, prefix string, items []Item) error {
	for _, it := range items {
		key := StoreKey(prefix, it.ID)
		for field, v := range map[string]string{"name": it.Name, "style": it.Style, "material": it.Material} {
			if v == "" {
				continue
			}
			if err := s.HSet(ctx, key, field, []byte(v)); err != nil {
				return fmt.Errorf("seed %s: %w", key, err)
			}
		}
	}
	return nil
}

func (c *Catalog) Size() int { return len(c.items) }

// Item returns the entry for id.
func (c *Catalog) Item(id int) (Item, bool) {
	if id < 0 || id >= len(c.items) {
		return Item{}, false
	}
	return c.items[id], true
}

// IDs returns 0..Size()-1.
func (c *Catalog) IDs() []int {
	ids := make([]int, len(c.items))
	for i := range ids {
		ids[i] = i
	}
	return ids
}
