package core

import "context"

// FaceClassifier turns an uploaded image into a face-shape label.
// The label may fall outside the known set; callers resolve it with ResolveFaceShape.
type FaceClassifier interface {
	Name() string
	Classify(ctx context.Context, image []byte, contentType string) (string, error)
}
