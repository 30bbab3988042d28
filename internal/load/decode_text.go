package load

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/lumen-ml/lumen/internal/graphdef"
)

// jsonDecoder decodes a JSON document into generic Go values. Syntax
// errors are not corruption-symptomatic: a malformed document is most
// likely malformed at the source, so it propagates without a retry.
type jsonDecoder struct{}

func (jsonDecoder) Decode(_ context.Context, r io.Reader, _ Options) (any, error) {
	var v any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

// yamlDecoder decodes a YAML document into generic Go values.
type yamlDecoder struct{}

func (yamlDecoder) Decode(_ context.Context, r io.Reader, _ Options) (any, error) {
	var v any
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return v, nil
}

// textDecoder reads a whole text resource, decoding from the configured
// character encoding. With Split it returns the lines; otherwise one
// string.
type textDecoder struct{}

func (textDecoder) Decode(_ context.Context, r io.Reader, opts Options) (any, error) {
	if name := opts.Encoding; name != "" && !strings.EqualFold(name, "utf-8") {
		enc, err := ianaindex.IANA.Encoding(name)
		if err != nil || enc == nil {
			return nil, fmt.Errorf("unknown text encoding %q", name)
		}
		r = transform.NewReader(r, enc.NewDecoder())
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	text := string(raw)
	if opts.Split {
		return splitLines(text), nil
	}
	return text, nil
}

// splitLines splits on newlines without a trailing empty line, treating
// CRLF like LF.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// graphDecoder parses a binary serialized graph. Protobuf wire-level
// failures are the classic symptom of a truncated cache entry, so every
// parse failure here is corruption-symptomatic.
type graphDecoder struct{}

func (graphDecoder) Decode(_ context.Context, r io.Reader, _ Options) (any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, malformed(err)
	}
	g, err := graphdef.Parse(raw)
	if err != nil {
		return nil, malformed(err)
	}
	return g, nil
}
