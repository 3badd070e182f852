package core

import (
	"errors"
	"fmt"
)

// DomainError is the error type shared by every module.
//
// Code classifies the failure and decides how the HTTP layer answers:
//   - INVALID_INPUT: bad request data (400)
//   - UNAVAILABLE: a required component is not loaded (503)
//   - UPSTREAM_ERROR: an external collaborator failed (502)
//   - anything else: internal failure (500)
type DomainError struct {
	Code    string
	Message string
	Module  string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a DomainError without a cause.
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

// WrapDomainError creates a DomainError that keeps err as its cause.
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message, Err: err}
}

// GetDomainError returns the first DomainError in err's chain, or nil.
func GetDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

const (
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeNotSupported  = "NOT_SUPPORTED"
	ErrorCodeUnavailable   = "UNAVAILABLE"
	ErrorCodeInvalidInput  = "INVALID_INPUT"
	ErrorCodeUpstream      = "UPSTREAM_ERROR"
	ErrorCodeInternalError = "INTERNAL_ERROR"
)

const (
	ModuleStore     = "store"
	ModuleFeature   = "feature"
	ModuleModel     = "model"
	ModuleCatalog   = "catalog"
	ModuleService   = "service"
	ModuleRecommend = "recommend"
	ModulePipeline  = "pipeline"
)

// ErrModelUnavailable is returned for every scoring request when the artifact failed to load.
var ErrModelUnavailable = NewDomainError(ModuleModel, ErrorCodeUnavailable, "recommendation model is not loaded")

func hasCode(err error, code string) bool {
	de := GetDomainError(err)
	return de != nil && de.Code == code
}

func IsNotFound(err error) bool     { return hasCode(err, ErrorCodeNotFound) }
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }
func IsUnavailable(err error) bool  { return hasCode(err, ErrorCodeUnavailable) }
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }
func IsUpstream(err error) bool     { return hasCode(err, ErrorCodeUpstream) }
