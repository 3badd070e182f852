package core

import "github.com/AbdelrahmanSuliman/Graduation-Project/pkg/utils"

// Item is the carrier passed between pipeline nodes: catalog id, score, metadata and labels.
// Labels explain how an item got where it is; Score drives ordering.
type Item struct {
	ID     int
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id int) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel stores lbl under key, merging with an existing label of the same key.
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// MetaString returns Meta[key] when it is a string.
func (it *Item) MetaString(key string) string {
	if it.Meta == nil {
		return ""
	}
	s, _ := it.Meta[key].(string)
	return s
}
