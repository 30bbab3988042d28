package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/lumen-ml/lumen/internal/config"
	"github.com/lumen-ml/lumen/internal/logging"
)

// Client is the default Fetcher: local paths open directly, remote HTTP
// resources go through the on-disk cache. Safe for concurrent use;
// concurrent fetches of the same URL are collapsed into one request.
type Client struct {
	cache     *diskCache
	http      *http.Client
	userAgent string
	logger    *slog.Logger
	group     singleflight.Group
}

// New builds a Client from configuration.
func New(cfg config.Config, logger *slog.Logger) (*Client, error) {
	logger = logging.WithComponent(logger, "fetch")

	maxAge, err := cfg.CacheMaxAge()
	if err != nil {
		return nil, err
	}
	cache, err := newDiskCache(cfg.Cache.Dir, maxAge, logger)
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.HTTPTimeout()
	if err != nil {
		return nil, err
	}
	return &Client{
		cache:     cache,
		http:      &http.Client{Timeout: timeout},
		userAgent: cfg.HTTP.UserAgent,
		logger:    logger,
	}, nil
}

// Open implements Fetcher.
func (c *Client) Open(ctx context.Context, resource string, directive Directive) (io.ReadCloser, error) {
	u, err := url.Parse(resource)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths (and Windows drive letters) are local files.
		return openLocal(resource)
	}

	switch u.Scheme {
	case "file":
		return openLocal(u.Path)
	case "http", "https":
		return c.openRemote(ctx, resource, directive)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// CacheDir returns the cache directory path.
func (c *Client) CacheDir() string { return c.cache.dir }

// CachePath reports where the cached payload for a URL lives, when present.
func (c *Client) CachePath(resource string) (string, bool) {
	return c.cache.Lookup(resource)
}

// PurgeEntry drops any cached copy of a URL.
func (c *Client) PurgeEntry(resource string) error {
	return c.cache.Remove(resource)
}

// ClearCache drops every cached entry.
func (c *Client) ClearCache() error { return c.cache.Clear() }

// openLocal opens a filesystem path. Cache directives do not apply: the
// filesystem is the source of truth, so a purge has nothing to invalidate.
func openLocal(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // G304: resource paths come from the caller.
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func (c *Client) openRemote(ctx context.Context, resource string, directive Directive) (io.ReadCloser, error) {
	if directive == Bypass {
		resp, err := c.get(ctx, resource)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}

	if directive == Purge {
		c.logger.Debug("purging cache entry", slog.String("url", resource))
		if err := c.cache.Remove(resource); err != nil {
			return nil, err
		}
	} else if path, ok := c.cache.Lookup(resource); ok {
		c.logger.Debug("cache hit", slog.String("url", resource))
		return openLocal(path)
	}

	// Collapse concurrent fetches of one URL into a single request.
	v, err, _ := c.group.Do(resource, func() (any, error) {
		return c.download(ctx, resource)
	})
	if err != nil {
		return nil, err
	}
	return openLocal(v.(string))
}

// download fetches a URL and stores it in the cache, returning the cached
// payload path.
func (c *Client) download(ctx context.Context, resource string) (string, error) {
	resp, err := c.get(ctx, resource)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", resource, err)
	}

	path, err := c.cache.Store(resource, resp.Header.Get("Content-Type"), payload)
	if err != nil {
		return "", err
	}
	c.logger.Debug("cached remote resource",
		slog.String("url", resource), slog.Int("bytes", len(payload)))
	return path, nil
}

func (c *Client) get(ctx context.Context, resource string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resource, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", resource, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", resource, strings.TrimSpace(resp.Status))
	}
	return resp, nil
}
