package model

// ScoringModel scores catalog items for one face profile.
//
// Implementations must be safe for concurrent use and must not mutate parameters while
// scoring, so one loaded instance can serve every request.
type ScoringModel interface {
	Name() string

	// NumShapes and NumItems bound the valid ids.
	NumShapes() int
	NumItems() int

	// ScoreBatch returns one score in [0,1] per item, in the order of items.
	// The same shape id and feature vector apply to every item.
	ScoreBatch(shape int, items []int, features []float64) ([]float64, error)
}
