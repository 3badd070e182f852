package core

import "strings"

// FaceShape is the face-outline category produced by the classifier.
// The numeric value is the embedding row in a trained artifact, so the order is fixed.
type FaceShape int

const (
	FaceShapeHeart FaceShape = iota
	FaceShapeOblong
	FaceShapeOval
	FaceShapeRound
	FaceShapeSquare
)

// NumFaceShapes is the size of the closed face-shape set.
const NumFaceShapes = 5

// FallbackFaceShape is used when the classifier returns a label outside the set.
const FallbackFaceShape = FaceShapeOval

var faceShapeNames = [NumFaceShapes]string{"Heart", "Oblong", "Oval", "Round", "Square"}

// AllFaceShapes lists every shape in id order.
var AllFaceShapes = []FaceShape{
	FaceShapeHeart,
	FaceShapeOblong,
	FaceShapeOval,
	FaceShapeRound,
	FaceShapeSquare,
}

func (s FaceShape) String() string {
	if !s.Valid() {
		return "Unknown"
	}
	return faceShapeNames[s]
}

// ID returns the embedding row of the shape.
func (s FaceShape) ID() int { return int(s) }

func (s FaceShape) Valid() bool {
	return s >= 0 && int(s) < NumFaceShapes
}

// ShapeResolution is the outcome of mapping a classifier label onto the closed set.
// Recognized is false when Shape holds the fallback instead of the label itself.
type ShapeResolution struct {
	Raw        string
	Shape      FaceShape
	Recognized bool
}

// ParseFaceShape matches label case-insensitively after trimming whitespace.
func ParseFaceShape(label string) (FaceShape, bool) {
	l := strings.TrimSpace(label)
	for i, name := range faceShapeNames {
		if strings.EqualFold(l, name) {
			return FaceShape(i), true
		}
	}
	return FallbackFaceShape, false
}

// ResolveFaceShape never fails: unknown labels resolve to FallbackFaceShape.
func ResolveFaceShape(label string) ShapeResolution {
	shape, ok := ParseFaceShape(label)
	return ShapeResolution{Raw: label, Shape: shape, Recognized: ok}
}
