package load

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-ml/lumen/internal/tensor"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeImage(t *testing.T, raw []byte, opts Options) *tensor.Dense {
	t.Helper()
	v, err := newImageDecoder(nil).Decode(context.Background(), bytes.NewReader(raw), opts)
	require.NoError(t, err)
	return v.(*tensor.Dense)
}

func TestImageDecodeOpaque(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	d := decodeImage(t, encodePNG(t, img), Options{})
	require.Equal(t, tensor.Shape{2, 3, 3}, d.Shape())

	vals, err := tensor.Values[float32](d)
	require.NoError(t, err)
	require.InDelta(t, 1.0, vals[0], 1e-6) // R
	require.InDelta(t, 0.0, vals[1], 1e-6) // G
}

func TestImageDecodeAlphaKeepsFourChannels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 128})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{B: 255, A: 255})

	d := decodeImage(t, encodePNG(t, img), Options{})
	require.Equal(t, tensor.Shape{2, 2, 4}, d.Shape())
}

func TestImageDecodeGrayscalePromotes(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 60)})
		}
	}
	d := decodeImage(t, encodePNG(t, img), Options{})
	require.Equal(t, tensor.Shape{4, 4, 3}, d.Shape())

	vals, err := tensor.Values[float32](d)
	require.NoError(t, err)
	// All three channels of a promoted pixel carry the same value.
	require.Equal(t, vals[0], vals[1])
	require.Equal(t, vals[1], vals[2])
}

func TestImageDecodeResize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), A: 255})
		}
	}
	d := decodeImage(t, encodePNG(t, img), Options{Size: []int{4, 2}})
	require.Equal(t, tensor.Shape{2, 4, 3}, d.Shape())
}

func TestImageDecodeResizeTruncatesExtraDims(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	d := decodeImage(t, encodePNG(t, img), Options{Size: []int{3, 3, 99}})
	require.Equal(t, tensor.Shape{3, 3, 3}, d.Shape())
}

func TestImageDecodeFloat64(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	d := decodeImage(t, encodePNG(t, img), Options{DType: tensor.Float64})
	require.Equal(t, tensor.Float64, d.DType())

	_, err := newImageDecoder(nil).Decode(context.Background(),
		bytes.NewReader(encodePNG(t, img)), Options{DType: tensor.Int32})
	require.Error(t, err)
}

func TestImageDecodeGarbage(t *testing.T) {
	_, err := newImageDecoder(nil).Decode(context.Background(),
		bytes.NewReader([]byte("not an image")), Options{DType: tensor.Float32})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMalformedData)
}

func TestTextDecoderSplit(t *testing.T) {
	dec := textDecoder{}

	v, err := dec.Decode(context.Background(),
		bytes.NewReader([]byte("alpha\r\nbeta\ngamma\n")), Options{Split: true})
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, v)

	v, err = dec.Decode(context.Background(),
		bytes.NewReader([]byte("one line")), Options{})
	require.NoError(t, err)
	require.Equal(t, "one line", v)
}

func TestTextDecoderEncoding(t *testing.T) {
	dec := textDecoder{}

	// "café" in Latin-1.
	raw := []byte{'c', 'a', 'f', 0xe9}
	v, err := dec.Decode(context.Background(), bytes.NewReader(raw),
		Options{Encoding: "ISO-8859-1"})
	require.NoError(t, err)
	require.Equal(t, "café", v)

	_, err = dec.Decode(context.Background(), bytes.NewReader(raw),
		Options{Encoding: "no-such-charset"})
	require.Error(t, err)
}

func TestYAMLDecoder(t *testing.T) {
	v, err := yamlDecoder{}.Decode(context.Background(),
		bytes.NewReader([]byte("name: squeezenet\nlayers:\n  - conv1\n  - pool1\n")), Options{})
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "squeezenet", m["name"])
}

func TestGraphDecoderMalformed(t *testing.T) {
	_, err := graphDecoder{}.Decode(context.Background(),
		bytes.NewReader([]byte{0x0a, 0x7f, 0x01}), Options{})
	require.ErrorIs(t, err, ErrMalformedData)
}
