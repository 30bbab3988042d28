package load

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lumen-ml/lumen/internal/tensor"
)

// ErrMalformedData marks decode failures that are symptomatic of a stale or
// corrupt cache entry: truncated or garbled serialized-binary content and
// value-parse failures. Decoders wrap this sentinel to tell the loader the
// failure is worth one purge-and-refetch; every other decode error
// propagates without a retry.
var ErrMalformedData = errors.New("malformed serialized data")

// NoExtensionError reports a location whose name carries no extension, so
// no decoder can be selected.
type NoExtensionError struct {
	Name string
}

func (e *NoExtensionError) Error() string {
	return fmt.Sprintf("no extension in location %q", e.Name)
}

// UnsupportedResourceError reports a location with an unregistered
// extension that the image-decode fallback could not handle either.
type UnsupportedResourceError struct {
	Location   string
	Registered []string // the full registered extension set, sorted
	cause      error
}

func (e *UnsupportedResourceError) Error() string {
	return fmt.Sprintf("could not load resource %q as image; supported extensions: %s",
		e.Location, strings.Join(e.Registered, ", "))
}

func (e *UnsupportedResourceError) Unwrap() error { return e.cause }

// UnsupportedRankError reports a decoded image with a rank other than 2 or
// 3. This indicates a fundamentally unexpected input, not corruption, and
// is never retried.
type UnsupportedRankError struct {
	Shape tensor.Shape
}

func (e *UnsupportedRankError) Error() string {
	return fmt.Sprintf("loaded image has unsupported rank %d (shape %v)", len(e.Shape), []int(e.Shape))
}

// malformed wraps err so that it both reports as ErrMalformedData and
// preserves the original chain.
func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedData, err)
}
