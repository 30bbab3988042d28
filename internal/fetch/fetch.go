// Package fetch resolves resource URLs to readable streams.
//
// It implements the retrieval seam consumed by the loader: local paths and
// file:// URLs open directly, while http:// and https:// resources are
// pulled through an on-disk content cache keyed by a hash of the URL.
// The cache supports forced invalidation so a caller that suspects a
// corrupt entry can purge and refetch.
package fetch

import (
	"context"
	"errors"
	"io"
)

// Directive tells the fetcher how to treat any cached copy of a resource.
type Directive int

const (
	// UseExisting returns a cached copy when present and valid.
	UseExisting Directive = iota
	// Purge invalidates any cached copy first, then fetches fresh.
	Purge
	// Bypass streams the resource without consulting or filling the cache.
	Bypass
)

// String returns the directive name.
func (d Directive) String() string {
	switch d {
	case UseExisting:
		return "use-existing"
	case Purge:
		return "purge"
	case Bypass:
		return "bypass"
	default:
		return "unknown"
	}
}

// Fetcher turns a resource URL into a readable stream. The caller owns the
// returned stream and must close it on every path.
type Fetcher interface {
	Open(ctx context.Context, url string, directive Directive) (io.ReadCloser, error)
}

// ErrUnsupportedScheme reports a URL whose scheme no fetcher handles.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")
