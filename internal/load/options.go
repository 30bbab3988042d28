package load

import (
	"github.com/lumen-ml/lumen/internal/fetch"
	"github.com/lumen-ml/lumen/internal/tensor"
)

// Options carries the decoder-specific knobs of a single load call.
// Decoders read the fields they understand and ignore the rest.
type Options struct {
	// Cache is the directive for the first retrieval attempt. The loader
	// escalates to fetch.Purge itself on the one corruption retry.
	Cache fetch.Directive

	// Size requests an image resize to (width, height). Entries beyond
	// the first two are ignored with a logged warning.
	Size []int

	// DType is the element type of decoded images: Float32 (default) or
	// Float64.
	DType tensor.DataType

	// Split makes the text decoder return lines instead of one string.
	Split bool

	// Encoding names the character encoding for text resources
	// (IANA name, default UTF-8).
	Encoding string
}

// Option mutates Options.
type Option func(*Options)

// WithCache sets the cache directive for the first retrieval attempt.
func WithCache(d fetch.Directive) Option {
	return func(o *Options) { o.Cache = d }
}

// WithSize requests an image resize to (width, height).
func WithSize(dims ...int) Option {
	return func(o *Options) { o.Size = dims }
}

// WithDType sets the element type of decoded images.
func WithDType(dt tensor.DataType) Option {
	return func(o *Options) { o.DType = dt }
}

// WithSplit makes the text decoder return a slice of lines.
func WithSplit(split bool) Option {
	return func(o *Options) { o.Split = split }
}

// WithEncoding sets the character encoding for text resources.
func WithEncoding(name string) Option {
	return func(o *Options) { o.Encoding = name }
}

func buildOptions(opts []Option) Options {
	options := Options{
		Cache: fetch.UseExisting,
		DType: tensor.Float32,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
