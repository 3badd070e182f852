package core

// NumGeometricFeatures is the width of the geometric ratio vector.
const NumGeometricFeatures = 3

// DefaultRatio is used for any ratio the client leaves out.
const DefaultRatio = 1.0

// GeometricFeatures carries the client-measured face proportions.
type GeometricFeatures struct {
	CheekJaw float64 `json:"cheek_jaw_ratio"`
	FaceHW   float64 `json:"face_hw_ratio"`
	Midface  float64 `json:"midface_ratio"`
}

// DefaultGeometricFeatures returns all ratios set to DefaultRatio.
func DefaultGeometricFeatures() GeometricFeatures {
	return GeometricFeatures{CheekJaw: DefaultRatio, FaceHW: DefaultRatio, Midface: DefaultRatio}
}

// Vector returns the ratios in model input order: cheek/jaw, height/width, midface.
func (g GeometricFeatures) Vector() []float64 {
	return []float64{g.CheekJaw, g.FaceHW, g.Midface}
}
