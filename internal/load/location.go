package load

import "io"

// Location identifies a resource to load: either a URL-like string that the
// fetch layer can resolve, or an already-open stream paired with a name.
// The two kinds are constructed with URL and Stream.
type Location interface {
	// Name returns the string used for extension inference: the URL
	// itself, or the name associated with a stream.
	Name() string

	sealed()
}

// URL identifies a resource by a URL-like string (remote URL, file://
// URL, or bare filesystem path).
func URL(s string) Location { return urlLocation(s) }

// Stream wraps an already-open reader. The name is used only to infer the
// format; the loader never closes the reader and, because there is no URL
// to re-fetch, a corrupt stream cannot be recovered by the cache
// purge-and-retry that URL locations get.
func Stream(r io.Reader, name string) Location {
	return &streamLocation{r: r, name: name}
}

type urlLocation string

func (u urlLocation) Name() string { return string(u) }
func (urlLocation) sealed()        {}

type streamLocation struct {
	r    io.Reader
	name string
}

func (s *streamLocation) Name() string { return s.name }
func (*streamLocation) sealed()        {}
