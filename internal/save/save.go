// Package save writes decoded values back out by extension: the inverse
// of the load path. Each registered extension maps to an encoder, local
// destinations are written atomically, and a value with an unregistered
// extension is only accepted when it can be serialized as plain text.
package save

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lumen-ml/lumen/internal/logging"
)

// Encoder serializes a value onto w. Implementations reject value types
// they cannot represent.
type Encoder interface {
	Encode(ctx context.Context, w io.Writer, value any, opts Options) error
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(ctx context.Context, w io.Writer, value any, opts Options) error

func (f EncoderFunc) Encode(ctx context.Context, w io.Writer, value any, opts Options) error {
	return f(ctx, w, value, opts)
}

// Options carries encoder-specific knobs.
type Options struct {
	// Quality is the JPEG quality (1-100, default 95).
	Quality int

	// Indent pretty-prints JSON output.
	Indent bool
}

// Option mutates Options.
type Option func(*Options)

// WithQuality sets the JPEG quality.
func WithQuality(q int) Option {
	return func(o *Options) { o.Quality = q }
}

// WithIndent pretty-prints JSON output.
func WithIndent(indent bool) Option {
	return func(o *Options) { o.Indent = indent }
}

func buildOptions(opts []Option) Options {
	options := Options{Quality: 95}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// UnsupportedValueError reports a value the chosen encoder cannot
// represent.
type UnsupportedValueError struct {
	Tag   string
	Value any
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("cannot encode %T as %q", e.Value, e.Tag)
}

// Saver dispatches values to encoders by destination extension.
type Saver struct {
	encoders map[string]Encoder
	tags     []string
	logger   *slog.Logger
}

// New builds a Saver with the canonical encoder set.
func New(logger *slog.Logger) *Saver {
	logger = logging.WithComponent(logger, "save")
	jpg := imageEncoder{lossy: true}
	txt := textEncoder{}
	encoders := map[string]Encoder{
		"png":  imageEncoder{},
		"jpg":  jpg,
		"jpeg": jpg,
		"npy":  arrayEncoder{},
		"npz":  arrayEncoder{archive: true},
		"json": jsonEncoder{},
		"txt":  txt,
		"md":   txt,
		"pb":   graphEncoder{},
	}
	tags := make([]string, 0, len(encoders))
	for tag := range encoders {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return &Saver{encoders: encoders, tags: tags, logger: logger}
}

// Tags returns the sorted set of extensions the saver can write.
func (s *Saver) Tags() []string {
	tags := make([]string, len(s.tags))
	copy(tags, s.tags)
	return tags
}

// Save writes value to the local path, choosing the encoder from the
// path's extension. The file appears atomically: bytes go to a temporary
// sibling that is renamed into place only on success.
func (s *Saver) Save(ctx context.Context, value any, path string, opts ...Option) error {
	enc, tag, err := s.encoderFor(path, value)
	if err != nil {
		s.logger.Error("cannot save value", slog.String("path", path), logging.Error(err))
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := enc.Encode(ctx, f, value, buildOptions(opts)); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode %s: %w", tag, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename into place: %w", err)
	}
	s.logger.Debug("saved value", slog.String("path", path), slog.String("format", tag))
	return nil
}

// Write encodes value onto w using the encoder for name's extension. The
// writer is caller-owned and is not closed.
func (s *Saver) Write(ctx context.Context, value any, w io.Writer, name string, opts ...Option) error {
	enc, tag, err := s.encoderFor(name, value)
	if err != nil {
		return err
	}
	if err := enc.Encode(ctx, w, value, buildOptions(opts)); err != nil {
		return fmt.Errorf("encode %s: %w", tag, err)
	}
	return nil
}

// encoderFor resolves the encoder for a destination name. An unregistered
// extension still works for string values, which are written as text;
// anything else is an error naming the writable extension set.
func (s *Saver) encoderFor(name string, value any) (Encoder, string, error) {
	tag := extensionOf(name)
	if tag == "" {
		return nil, "", fmt.Errorf("no extension in destination %q; writable extensions: %s",
			name, strings.Join(s.tags, ", "))
	}
	if enc, ok := s.encoders[tag]; ok {
		return enc, tag, nil
	}
	if _, ok := value.(string); ok {
		s.logger.Warn("unknown extension, saving value as text",
			slog.String("extension", tag), slog.String("destination", name))
		return textEncoder{}, tag, nil
	}
	return nil, "", fmt.Errorf("cannot save %T to %q: unknown extension %q; writable extensions: %s",
		value, name, tag, strings.Join(s.tags, ", "))
}

func extensionOf(name string) string {
	trimmed := name
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	dot := strings.LastIndexByte(trimmed, '.')
	if dot < 0 || dot == len(trimmed)-1 {
		return ""
	}
	tag := trimmed[dot+1:]
	if strings.ContainsAny(tag, "/\\") {
		return ""
	}
	return strings.ToLower(tag)
}
