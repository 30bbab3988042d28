// Package load implements extension-dispatched resource decoding: a
// registry of per-format decoders, a cache-aware retrieval step, and a
// bounded self-healing retry for corruption-symptomatic failures.
package load

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lumen-ml/lumen/internal/fetch"
	"github.com/lumen-ml/lumen/internal/logging"
)

// Loader binds the extension resolver, the decoder registry, and the
// fetch layer into the load protocol: resolve the tag, pick a decoder,
// retrieve bytes through the cache, decode, and recover from a corrupt
// cache entry by purging once and retrying exactly once.
type Loader struct {
	registry *Registry
	fetcher  fetch.Fetcher
	fallback Decoder
	logger   *slog.Logger
}

// New builds a Loader. The registry is immutable after this point; the
// fallback image decoder handles unregistered extensions.
func New(registry *Registry, fetcher fetch.Fetcher, logger *slog.Logger) *Loader {
	logger = logging.WithComponent(logger, "load")
	return &Loader{
		registry: registry,
		fetcher:  fetcher,
		fallback: newImageDecoder(logger),
		logger:   logger,
	}
}

// Registry returns the loader's decoder registry.
func (l *Loader) Registry() *Registry { return l.registry }

// Load retrieves and decodes the resource at loc. The decoded type depends
// on the extension: images and numeric arrays yield *tensor.Dense (or a
// map of them for npz), structured documents yield generic values, text
// yields a string or lines, serialized graphs yield *graphdef.GraphDef.
func (l *Loader) Load(ctx context.Context, loc Location, opts ...Option) (any, error) {
	options := buildOptions(opts)

	tag, err := extensionOf(loc)
	if err != nil {
		l.logger.Error("cannot infer format", slog.String("location", loc.Name()), logging.Error(err))
		return nil, err
	}

	dec, ok := l.registry.Lookup(tag)
	if !ok {
		return l.loadFallback(ctx, loc, tag, options)
	}
	l.logger.Debug("using inferred decoder",
		slog.String("extension", tag), slog.String("location", loc.Name()))
	return l.loadWith(ctx, dec, loc, options)
}

// loadWith runs the decode, with the bounded purge-and-retry for URL
// locations. A stream location is decoded directly: with no URL to
// re-fetch there is no retry path, so its errors propagate unchanged.
func (l *Loader) loadWith(ctx context.Context, dec Decoder, loc Location, options Options) (any, error) {
	stream, ok := loc.(*streamLocation)
	if ok {
		return dec.Decode(ctx, stream.r, options)
	}
	url := loc.Name()

	directive := options.Cache
	for attempt := 0; ; attempt++ {
		value, err := l.decodeURL(ctx, dec, url, directive, options)
		if err == nil {
			return value, nil
		}
		if attempt == 0 && options.Cache != fetch.Bypass && errors.Is(err, ErrMalformedData) {
			// The bytes may have come from a stale or corrupt cache
			// entry; purge it and try one fresh fetch.
			l.logger.Warn("decode failed, purging cache and retrying once",
				slog.String("url", url), logging.Error(err))
			directive = fetch.Purge
			continue
		}
		return nil, err
	}
}

// decodeURL performs one scoped retrieve-and-decode attempt. The stream is
// released on every exit path.
func (l *Loader) decodeURL(ctx context.Context, dec Decoder, url string, directive fetch.Directive, options Options) (any, error) {
	rc, err := l.fetcher.Open(ctx, url, directive)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return dec.Decode(ctx, rc, options)
}

// loadFallback handles unregistered extensions: attempt an image decode,
// and on any failure report the location and the full registered tag set.
// The failure cause is an unrecognized format, not cache corruption, so
// there is no purge-and-retry here.
func (l *Loader) loadFallback(ctx context.Context, loc Location, tag string, options Options) (any, error) {
	l.logger.Warn("unknown extension, attempting to load as image",
		slog.String("extension", tag), slog.String("location", loc.Name()))

	value, err := l.fallbackDecode(ctx, loc, options)
	if err != nil {
		lerr := &UnsupportedResourceError{
			Location:   loc.Name(),
			Registered: l.registry.Tags(),
			cause:      err,
		}
		l.logger.Error("could not load resource as image",
			slog.String("location", loc.Name()),
			slog.Any("supported", lerr.Registered),
			logging.Error(err))
		return nil, lerr
	}
	l.logger.Info("unknown extension successfully loaded as image",
		slog.String("extension", tag), slog.String("location", loc.Name()))
	return value, nil
}

func (l *Loader) fallbackDecode(ctx context.Context, loc Location, options Options) (any, error) {
	if stream, ok := loc.(*streamLocation); ok {
		return l.fallback.Decode(ctx, stream.r, options)
	}
	rc, err := l.fetcher.Open(ctx, loc.Name(), fetch.UseExisting)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return l.fallback.Decode(ctx, rc, options)
}

var _ Decoder = (*imageDecoder)(nil)
