package load

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-ml/lumen/internal/fetch"
	"github.com/lumen-ml/lumen/internal/logging"
	"github.com/lumen-ml/lumen/internal/npy"
	"github.com/lumen-ml/lumen/internal/tensor"
)

// stubFetcher serves canned payloads in order, repeating the last one,
// and records every directive it was asked for.
type stubFetcher struct {
	payloads   [][]byte
	openErr    error
	calls      int
	directives []fetch.Directive
	urls       []string
}

func (f *stubFetcher) Open(_ context.Context, url string, d fetch.Directive) (io.ReadCloser, error) {
	f.directives = append(f.directives, d)
	f.urls = append(f.urls, url)
	f.calls++
	if f.openErr != nil {
		return nil, f.openErr
	}
	i := f.calls - 1
	if i >= len(f.payloads) {
		i = len(f.payloads) - 1
	}
	return io.NopCloser(bytes.NewReader(f.payloads[i])), nil
}

func newTestLoader(reg *Registry, f fetch.Fetcher) *Loader {
	return New(reg, f, logging.Nop())
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 40), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func npyBytes(t *testing.T, values []float32, shape tensor.Shape) []byte {
	t.Helper()
	d, err := tensor.FromSlice(values, shape)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, npy.Write(&buf, d))
	return buf.Bytes()
}

func TestLoadPNG(t *testing.T) {
	f := &stubFetcher{payloads: [][]byte{pngBytes(t, 4, 3)}}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	v, err := l.Load(context.Background(), URL("https://example.com/a.png"))
	require.NoError(t, err)

	d, ok := v.(*tensor.Dense)
	require.True(t, ok)
	require.Equal(t, tensor.Shape{3, 4, 3}, d.Shape())
	require.Equal(t, []fetch.Directive{fetch.UseExisting}, f.directives)
}

func TestLoadIsIdempotent(t *testing.T) {
	f := &stubFetcher{payloads: [][]byte{npyBytes(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})}}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	first, err := l.Load(context.Background(), URL("https://example.com/c.npy"))
	require.NoError(t, err)
	second, err := l.Load(context.Background(), URL("https://example.com/c.npy"))
	require.NoError(t, err)

	a, b := first.(*tensor.Dense), second.(*tensor.Dense)
	require.Equal(t, a.Shape(), b.Shape())
	require.Equal(t, a.Bytes(), b.Bytes())
}

func TestLoadNoExtension(t *testing.T) {
	f := &stubFetcher{payloads: [][]byte{[]byte("irrelevant")}}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	_, err := l.Load(context.Background(), URL("https://example.com/weights"))
	var nerr *NoExtensionError
	require.ErrorAs(t, err, &nerr)
	require.Zero(t, f.calls, "nothing should be fetched without a format tag")
}

func TestLoadPurgesAndRetriesOnceOnMalformedData(t *testing.T) {
	valid := npyBytes(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	corrupt := append([]byte(nil), valid...)
	copy(corrupt[1:], []byte("JUNKY")) // break the magic, keep the tag

	f := &stubFetcher{payloads: [][]byte{corrupt, valid}}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	v, err := l.Load(context.Background(), URL("https://example.com/c.npy"))
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 3}, v.(*tensor.Dense).Shape())
	require.Equal(t, []fetch.Directive{fetch.UseExisting, fetch.Purge}, f.directives)
}

func TestLoadRetriesExactlyOnce(t *testing.T) {
	corrupt := []byte("not an npy file at all")
	f := &stubFetcher{payloads: [][]byte{corrupt}}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	_, err := l.Load(context.Background(), URL("https://example.com/c.npy"))
	require.ErrorIs(t, err, ErrMalformedData)
	require.Equal(t, []fetch.Directive{fetch.UseExisting, fetch.Purge}, f.directives)
	require.Equal(t, 2, f.calls, "second failure must not trigger a third attempt")
}

func TestLoadDoesNotRetryTerminalErrors(t *testing.T) {
	f := &stubFetcher{payloads: [][]byte{[]byte(`{"broken":`)}}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	_, err := l.Load(context.Background(), URL("https://example.com/cfg.json"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMalformedData)
	require.Equal(t, 1, f.calls)
}

func TestLoadDoesNotRetryWhenBypassing(t *testing.T) {
	f := &stubFetcher{payloads: [][]byte{[]byte("garbage")}}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	_, err := l.Load(context.Background(), URL("https://example.com/c.npy"),
		WithCache(fetch.Bypass))
	require.ErrorIs(t, err, ErrMalformedData)
	require.Equal(t, []fetch.Directive{fetch.Bypass}, f.directives)
}

func TestLoadDoesNotRetryStreams(t *testing.T) {
	calls := 0
	reg := NewRegistry(map[string]Decoder{
		"npy": DecoderFunc(func(_ context.Context, r io.Reader, _ Options) (any, error) {
			calls++
			_, _ = io.Copy(io.Discard, r)
			return nil, malformed(errors.New("bad header"))
		}),
	})
	f := &stubFetcher{payloads: [][]byte{[]byte("unused")}}
	l := newTestLoader(reg, f)

	_, err := l.Load(context.Background(), Stream(strings.NewReader("xx"), "c.npy"))
	require.ErrorIs(t, err, ErrMalformedData)
	require.Equal(t, 1, calls)
	require.Zero(t, f.calls, "streams never touch the fetch layer")
}

func TestLoadFetchErrorIsNotRetried(t *testing.T) {
	f := &stubFetcher{openErr: errors.New("connection refused")}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	_, err := l.Load(context.Background(), URL("https://example.com/c.npy"))
	require.ErrorContains(t, err, "connection refused")
	require.Equal(t, 1, f.calls)
}

func TestLoadUnknownExtensionFallsBackToImage(t *testing.T) {
	f := &stubFetcher{payloads: [][]byte{pngBytes(t, 2, 2)}}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	v, err := l.Load(context.Background(), URL("https://example.com/b.bin"))
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2, 3}, v.(*tensor.Dense).Shape())
	require.Equal(t, []fetch.Directive{fetch.UseExisting}, f.directives)
}

func TestLoadUnknownExtensionFallbackFailure(t *testing.T) {
	reg := DefaultRegistry(logging.Nop())
	f := &stubFetcher{payloads: [][]byte{[]byte("definitely not an image")}}
	l := newTestLoader(reg, f)

	_, err := l.Load(context.Background(), URL("https://example.com/b.bin"))
	var uerr *UnsupportedResourceError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, "https://example.com/b.bin", uerr.Location)
	require.Equal(t, reg.Tags(), uerr.Registered)
	require.Equal(t, 1, f.calls, "the fallback is a single attempt")
}

func TestLoadFallbackOnStream(t *testing.T) {
	l := newTestLoader(DefaultRegistry(logging.Nop()), &stubFetcher{})

	v, err := l.Load(context.Background(),
		Stream(bytes.NewReader(pngBytes(t, 2, 2)), "frame.raw"))
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2, 3}, v.(*tensor.Dense).Shape())
}

func TestLoadTextAndJSON(t *testing.T) {
	f := &stubFetcher{payloads: [][]byte{[]byte(`{"name": "squeezenet", "layers": 3}`)}}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	v, err := l.Load(context.Background(), URL("https://example.com/manifest.json"))
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "squeezenet", m["name"])

	f2 := &stubFetcher{payloads: [][]byte{[]byte("tench\ngoldfish\n")}}
	l2 := newTestLoader(DefaultRegistry(logging.Nop()), f2)
	v2, err := l2.Load(context.Background(), URL("https://example.com/labels.txt"),
		WithSplit(true))
	require.NoError(t, err)
	require.Equal(t, []string{"tench", "goldfish"}, v2)
}

func TestLoadNPZ(t *testing.T) {
	a, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, npy.WriteNPZ(&buf, map[string]*tensor.Dense{"weights": a}))

	f := &stubFetcher{payloads: [][]byte{buf.Bytes()}}
	l := newTestLoader(DefaultRegistry(logging.Nop()), f)

	v, err := l.Load(context.Background(), URL("https://example.com/bundle.npz"))
	require.NoError(t, err)
	m, ok := v.(map[string]*tensor.Dense)
	require.True(t, ok)
	require.Contains(t, m, "weights")
}
