// Package load provides the public API for loading resources in Lumen.
//
// A resource is referenced by URL (http, https, file, or a bare local
// path) or by an open reader, and its format is inferred from the
// extension. Remote resources flow through an on-disk content cache; a
// decode failure that looks like cache corruption triggers one purge and
// one fresh retry.
//
// Example usage:
//
//	import "github.com/lumen-ml/lumen/load"
//
//	l, err := load.New(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode an image into a float32 array scaled to [0, 1].
//	v, err := l.Load(ctx, load.URL("https://example.com/cat.png"),
//	    load.WithSize(224, 224))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	img := v.(*tensor.Dense)
package load

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/lumen-ml/lumen/internal/config"
	"github.com/lumen-ml/lumen/internal/fetch"
	"github.com/lumen-ml/lumen/internal/load"
)

// Loader resolves, fetches, and decodes resources.
type Loader = load.Loader

// Location identifies a resource: a URL or an open stream.
type Location = load.Location

// Decoder turns a byte stream into a decoded value.
type Decoder = load.Decoder

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc = load.DecoderFunc

// Registry is the immutable extension-to-decoder mapping.
type Registry = load.Registry

// Options carries per-call decoder knobs.
type Options = load.Options

// Option mutates Options.
type Option = load.Option

// Directive controls how a load interacts with the content cache.
type Directive = fetch.Directive

// Cache directives.
const (
	// UseExisting serves cached bytes when present, fetching on a miss.
	UseExisting Directive = fetch.UseExisting
	// Purge drops any cached entry and fetches fresh bytes.
	Purge Directive = fetch.Purge
	// Bypass fetches without reading or writing the cache.
	Bypass Directive = fetch.Bypass
)

// Errors surfaced by the load path.
var ErrMalformedData = load.ErrMalformedData

// NoExtensionError reports a location whose format cannot be inferred.
type NoExtensionError = load.NoExtensionError

// UnsupportedResourceError reports an unregistered extension that the
// image fallback could not handle either.
type UnsupportedResourceError = load.UnsupportedResourceError

// UnsupportedRankError reports an image decode with an unexpected rank.
type UnsupportedRankError = load.UnsupportedRankError

// URL makes a Location from a URL or local path.
func URL(s string) Location { return load.URL(s) }

// Stream makes a Location from a caller-owned reader. The name supplies
// the extension; the reader is never closed and streams are never
// retried.
func Stream(r io.Reader, name string) Location { return load.Stream(r, name) }

// Option constructors.
var (
	WithCache    = load.WithCache
	WithSize     = load.WithSize
	WithDType    = load.WithDType
	WithSplit    = load.WithSplit
	WithEncoding = load.WithEncoding
)

// New builds a Loader with the default decoder registry and a cache-aware
// HTTP fetcher configured from defaults (or LUMEN_* environment
// variables). A nil logger disables logging.
func New(logger *slog.Logger) (*Loader, error) {
	cfg := config.Default()
	client, err := fetch.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return load.New(load.DefaultRegistry(logger), client, logger), nil
}

var defaultLoader = sync.OnceValues(func() (*Loader, error) {
	return New(nil)
})

// Load decodes the resource at loc using a shared default Loader.
func Load(ctx context.Context, loc Location, opts ...Option) (any, error) {
	l, err := defaultLoader()
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, loc, opts...)
}
