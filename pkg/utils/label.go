package utils

// Label is an explainable, traceable tag attached to items and requests as they move
// through the pipeline. Value and Source are free-form; only the merge rule is fixed.
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / filter / rerank / recommend
}

// MergeLabel keeps history when two labels share a key:
// values are joined with '|' and sources with ','.
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
