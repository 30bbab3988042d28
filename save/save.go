// Package save provides the public API for writing decoded values back
// out: the inverse of the load path. The encoder is chosen from the
// destination's extension, and local files are written atomically.
//
// Example usage:
//
//	import "github.com/lumen-ml/lumen/save"
//
//	s := save.New(nil)
//	if err := s.Save(ctx, arr, "out/weights.npy"); err != nil {
//	    log.Fatal(err)
//	}
package save

import (
	"log/slog"

	"github.com/lumen-ml/lumen/internal/save"
)

// Saver dispatches values to encoders by destination extension.
type Saver = save.Saver

// Encoder serializes a value onto a writer.
type Encoder = save.Encoder

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc = save.EncoderFunc

// Options carries encoder-specific knobs.
type Options = save.Options

// Option mutates Options.
type Option = save.Option

// UnsupportedValueError reports a value the chosen encoder cannot
// represent.
type UnsupportedValueError = save.UnsupportedValueError

// Option constructors.
var (
	WithQuality = save.WithQuality
	WithIndent  = save.WithIndent
)

// New builds a Saver with the canonical encoder set. A nil logger
// disables logging.
func New(logger *slog.Logger) *Saver { return save.New(logger) }
