package load

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// Decoder converts a readable stream into an in-memory typed value. Any
// implementation with this signature is pluggable; multiple extensions may
// map to one decoder. A decoder signals a corruption-symptomatic failure by
// wrapping ErrMalformedData.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader, opts Options) (any, error)
}

// DecoderFunc adapts a plain function to the Decoder interface.
type DecoderFunc func(ctx context.Context, r io.Reader, opts Options) (any, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(ctx context.Context, r io.Reader, opts Options) (any, error) {
	return f(ctx, r, opts)
}

// Registry maps lower-cased extension tags to decoders. It is immutable
// after construction; lookups are deterministic and case-insensitive.
type Registry struct {
	decoders map[string]Decoder
	tags     []string
}

// NewRegistry builds a registry from an extension-to-decoder mapping.
// Keys are normalized to lower case.
func NewRegistry(decoders map[string]Decoder) *Registry {
	m := make(map[string]Decoder, len(decoders))
	for tag, dec := range decoders {
		m[strings.ToLower(tag)] = dec
	}
	tags := make([]string, 0, len(m))
	for tag := range m {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return &Registry{decoders: m, tags: tags}
}

// Lookup returns the decoder registered for a tag.
func (r *Registry) Lookup(tag string) (Decoder, bool) {
	dec, ok := r.decoders[strings.ToLower(tag)]
	return dec, ok
}

// Tags returns the sorted set of registered extension tags.
func (r *Registry) Tags() []string {
	tags := make([]string, len(r.tags))
	copy(tags, r.tags)
	return tags
}

// DefaultRegistry builds the canonical extension mapping: image formats
// share one decoder, NumPy formats share another, and structured text,
// plain text, and serialized graphs each get their own.
func DefaultRegistry(logger *slog.Logger) *Registry {
	img := newImageDecoder(logger)
	arr := arrayDecoder{}
	txt := textDecoder{}
	structured := yamlDecoder{}
	return NewRegistry(map[string]Decoder{
		"png":  img,
		"jpg":  img,
		"jpeg": img,
		"npy":  arr,
		"npz":  arr,
		"json": jsonDecoder{},
		"txt":  txt,
		"md":   txt,
		"pb":   graphDecoder{},
		"yaml": structured,
		"yml":  structured,
	})
}
