package model

import (
	"fmt"

	"github.com/AbdelrahmanSuliman/Graduation-Project/core"
)

// Handle is the load-once state of the serving model: either a model or the error that
// prevented loading it. It is never reloaded.
type Handle struct {
	model ScoringModel
	err   error
}

// Loaded wraps a ready model.
func Loaded(m ScoringModel) *Handle {
	return &Handle{model: m}
}

// Failed records a load failure.
func Failed(err error) *Handle {
	if err == nil {
		err = fmt.Errorf("no model")
	}
	return &Handle{err: err}
}

// LoadHandle loads the artifact at path. It does not return an error: a failure leaves the
// handle unavailable so the process can keep serving endpoints that do not need the model.
func LoadHandle(path string, want *Hyperparameters) *Handle {
	m, err := LoadArtifact(path, want)
	if err != nil {
		return Failed(fmt.Errorf("load %s: %w", path, err))
	}
	return Loaded(m)
}

// Get returns the model, or an error matching core.ErrModelUnavailable.
func (h *Handle) Get() (ScoringModel, error) {
	if h == nil || h.model == nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, h.LoadError())
	}
	return h.model, nil
}

func (h *Handle) Available() bool {
	return h != nil && h.model != nil
}

// LoadError is the reason the handle is unavailable, or nil.
func (h *Handle) LoadError() error {
	if h == nil {
		return fmt.Errorf("no model handle")
	}
	return h.err
}
