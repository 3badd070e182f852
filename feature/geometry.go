// Package feature parses the client-supplied geometric face ratios.
package feature

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
	"github.com/AbdelrahmanSuliman/Graduation-Project/pkg/validation"
)

// GeometryInput is the wire form of the features field. Every ratio is optional;
// nil (absent or null) means core.DefaultRatio. Unknown keys are ignored.
type GeometryInput struct {
	CheekJawRatio *float64 `json:"cheek_jaw_ratio" validate:"omitempty,gt=0"`
	FaceHWRatio   *float64 `json:"face_hw_ratio" validate:"omitempty,gt=0"`
	MidfaceRatio  *float64 `json:"midface_ratio" validate:"omitempty,gt=0"`
}

// Resolve applies defaults to missing ratios independently.
func (in GeometryInput) Resolve() core.GeometricFeatures {
	g := core.DefaultGeometricFeatures()
	if in.CheekJawRatio != nil {
		g.CheekJaw = *in.CheekJawRatio
	}
	if in.FaceHWRatio != nil {
		g.FaceHW = *in.FaceHWRatio
	}
	if in.MidfaceRatio != nil {
		g.Midface = *in.MidfaceRatio
	}
	return g
}

func invalid(msg string, err error) error {
	return core.WrapDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, msg, err)
}

// ParseGeometricFeatures decodes the JSON object sent in the features form field.
// An empty field means all defaults. Anything that is not a JSON object of positive
// numbers is an INVALID_INPUT error.
func ParseGeometricFeatures(raw string) (core.GeometricFeatures, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.DefaultGeometricFeatures(), nil
	}
	if !strings.HasPrefix(raw, "{") {
		return core.GeometricFeatures{}, invalid("features must be a JSON object", nil)
	}

	var in GeometryInput
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return core.GeometricFeatures{}, invalid("invalid features JSON", err)
	}
	if err := validation.Struct(in); err != nil {
		return core.GeometricFeatures{}, invalid("invalid features", err)
	}
	return in.Resolve(), nil
}
