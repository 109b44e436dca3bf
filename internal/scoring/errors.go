package scoring

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownCategory: crop type non presente tra le classi dell'encoder.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidObservation: valori non finiti o fuori dominio.
	ErrInvalidObservation = errors.New("invalid observation")
	// ErrInference: il modello ha fallito o ha restituito un valore non valido.
	ErrInference = errors.New("inference failed")
	// ErrArtifactLoad: artefatti mancanti, corrotti o incompatibili.
	ErrArtifactLoad = errors.New("artifact load failed")
)

// UnknownCategoryError reports a crop type the encoder has never seen.
type UnknownCategoryError struct {
	Value string
	Known []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown crop type %q (known: %s)", e.Value, strings.Join(e.Known, ", "))
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// InferenceError wraps a failure of the underlying regressor.
type InferenceError struct {
	Cause error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Cause)
}

func (e *InferenceError) Is(target error) bool { return target == ErrInference }

func (e *InferenceError) Unwrap() error { return e.Cause }

// ArtifactLoadError is fatal at startup: no request can be served without artifacts.
type ArtifactLoadError struct {
	Path  string
	Cause error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load artifact %s: %v", e.Path, e.Cause)
}

func (e *ArtifactLoadError) Is(target error) bool { return target == ErrArtifactLoad }

func (e *ArtifactLoadError) Unwrap() error { return e.Cause }
