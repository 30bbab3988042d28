package save

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/lumen-ml/lumen/internal/tensor"
)

// imageEncoder renders a dense array with values in [0, 1] back into an
// image file. Rank 2 writes grayscale, rank 3 expects 1, 3, or 4
// channels.
type imageEncoder struct {
	lossy bool // JPEG instead of PNG
}

func (e imageEncoder) Encode(_ context.Context, w io.Writer, value any, opts Options) error {
	arr, ok := value.(*tensor.Dense)
	if !ok {
		tag := "png"
		if e.lossy {
			tag = "jpg"
		}
		return &UnsupportedValueError{Tag: tag, Value: value}
	}

	img, err := denseToImage(arr)
	if err != nil {
		return err
	}
	if e.lossy {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: opts.Quality})
	}
	return png.Encode(w, img)
}

func denseToImage(arr *tensor.Dense) (image.Image, error) {
	at, err := elementGetter(arr)
	if err != nil {
		return nil, err
	}

	shape := arr.Shape()
	switch arr.Rank() {
	case 2:
		h, w := shape[0], shape[1]
		img := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray(x, y, color.Gray{Y: toByte(at(y*w + x))})
			}
		}
		return img, nil
	case 3:
		h, w, c := shape[0], shape[1], shape[2]
		if c != 1 && c != 3 && c != 4 {
			return nil, fmt.Errorf("image array must have 1, 3, or 4 channels, got %d", c)
		}
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				base := (y*w + x) * c
				px := color.NRGBA{A: 0xff}
				switch c {
				case 1:
					v := toByte(at(base))
					px.R, px.G, px.B = v, v, v
				default:
					px.R = toByte(at(base))
					px.G = toByte(at(base + 1))
					px.B = toByte(at(base + 2))
					if c == 4 {
						px.A = toByte(at(base + 3))
					}
				}
				img.SetNRGBA(x, y, px)
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("image array must have rank 2 or 3, got shape %v", shape)
	}
}

// elementGetter reads elements as float64 regardless of storage type.
func elementGetter(arr *tensor.Dense) (func(i int) float64, error) {
	switch arr.DType() {
	case tensor.Float32:
		vals, err := tensor.Values[float32](arr)
		if err != nil {
			return nil, err
		}
		return func(i int) float64 { return float64(vals[i]) }, nil
	case tensor.Float64:
		vals, err := tensor.Values[float64](arr)
		if err != nil {
			return nil, err
		}
		return func(i int) float64 { return vals[i] }, nil
	case tensor.Uint8:
		vals, err := tensor.Values[uint8](arr)
		if err != nil {
			return nil, err
		}
		return func(i int) float64 { return float64(vals[i]) / 0xff }, nil
	default:
		return nil, fmt.Errorf("cannot render %s array as image", arr.DType())
	}
}

func toByte(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v * 0xff)
	if v < 0 {
		return 0
	}
	if v > 0xff {
		return 0xff
	}
	return uint8(v)
}
