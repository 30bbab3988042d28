package load

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"

	_ "image/jpeg" // register JPEG with image.Decode
	_ "image/png"  // register PNG with image.Decode

	"golang.org/x/image/draw"

	"github.com/lumen-ml/lumen/internal/logging"
	"github.com/lumen-ml/lumen/internal/tensor"
)

// imageDecoder decodes PNG and JPEG streams into dense float arrays with
// values scaled to [0, 1]. Grayscale sources decode to rank 2 and are
// promoted to three replicated channels; sources with a meaningful alpha
// channel keep it as a fourth channel.
type imageDecoder struct {
	logger *slog.Logger
}

func newImageDecoder(logger *slog.Logger) *imageDecoder {
	return &imageDecoder{logger: logging.WithComponent(logger, "load")}
}

func (d *imageDecoder) Decode(_ context.Context, r io.Reader, opts Options) (any, error) {
	if opts.DType != tensor.Float32 && opts.DType != tensor.Float64 {
		return nil, fmt.Errorf("image dtype must be float32 or float64, got %s", opts.DType)
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if len(opts.Size) > 0 {
		size := opts.Size
		if len(size) > 2 {
			d.logger.Warn("image size has more than two dims, trimming",
				slog.Any("size", size))
			size = size[:2]
		}
		if len(size) != 2 || size[0] <= 0 || size[1] <= 0 {
			return nil, fmt.Errorf("invalid image size %v: want positive (width, height)", size)
		}
		img = resize(img, size[0], size[1])
	}

	arr, err := imageToDense(img, opts.DType)
	if err != nil {
		return nil, err
	}
	return promoteGray(arr)
}

// resize scales img to width x height with Catmull-Rom interpolation,
// preserving grayscale-ness so rank-2 promotion still applies.
func resize(img image.Image, width, height int) image.Image {
	rect := image.Rect(0, 0, width, height)
	var dst draw.Image
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		dst = image.NewGray16(rect)
	default:
		dst = image.NewNRGBA64(rect)
	}
	draw.CatmullRom.Scale(dst, rect, img, img.Bounds(), draw.Src, nil)
	return dst
}

// imageToDense converts a decoded image to a dense array: rank 2 for
// grayscale, (H, W, 3) for opaque color, (H, W, 4) when alpha carries
// information.
func imageToDense(img image.Image, dtype tensor.DataType) (*tensor.Dense, error) {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()

	switch src := img.(type) {
	case *image.Gray:
		return grayToDense(h, w, dtype, func(x, y int) float64 {
			return float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y) / 0xff
		})
	case *image.Gray16:
		return grayToDense(h, w, dtype, func(x, y int) float64 {
			return float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y) / 0xffff
		})
	}

	channels := 4
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		channels = 3
	}

	arr, err := tensor.NewDense(tensor.Shape{h, w, channels}, dtype)
	if err != nil {
		return nil, err
	}
	setter, err := elementSetter(arr)
	if err != nil {
		return nil, err
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			setter(i, float64(cr)/0xffff)
			setter(i+1, float64(cg)/0xffff)
			setter(i+2, float64(cb)/0xffff)
			if channels == 4 {
				setter(i+3, float64(ca)/0xffff)
			}
			i += channels
		}
	}
	return arr, nil
}

func grayToDense(h, w int, dtype tensor.DataType, at func(x, y int) float64) (*tensor.Dense, error) {
	arr, err := tensor.NewDense(tensor.Shape{h, w}, dtype)
	if err != nil {
		return nil, err
	}
	setter, err := elementSetter(arr)
	if err != nil {
		return nil, err
	}
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			setter(i, at(x, y))
			i++
		}
	}
	return arr, nil
}

// elementSetter returns a float64-accepting store function for the array's
// element type.
func elementSetter(arr *tensor.Dense) (func(i int, v float64), error) {
	switch arr.DType() {
	case tensor.Float32:
		data, err := tensor.Values[float32](arr)
		if err != nil {
			return nil, err
		}
		return func(i int, v float64) { data[i] = float32(v) }, nil
	case tensor.Float64:
		data, err := tensor.Values[float64](arr)
		if err != nil {
			return nil, err
		}
		return func(i int, v float64) { data[i] = v }, nil
	default:
		return nil, fmt.Errorf("image dtype must be float32 or float64, got %s", arr.DType())
	}
}

// promoteGray enforces the image rank contract: rank 3 passes through,
// rank 2 (grayscale, no channel axis) is broadcast to three replicated
// channels, and anything else is a fatal UnsupportedRankError.
func promoteGray(arr *tensor.Dense) (*tensor.Dense, error) {
	switch arr.Rank() {
	case 3:
		return arr, nil
	case 2:
		// replicate below
	default:
		return nil, &UnsupportedRankError{Shape: arr.Shape()}
	}

	h, w := arr.Shape()[0], arr.Shape()[1]
	out, err := tensor.NewDense(tensor.Shape{h, w, 3}, arr.DType())
	if err != nil {
		return nil, err
	}

	elem := arr.DType().Size()
	src, dst := arr.Bytes(), out.Bytes()
	for i := 0; i < h*w; i++ {
		px := src[i*elem : (i+1)*elem]
		for c := 0; c < 3; c++ {
			copy(dst[(i*3+c)*elem:], px)
		}
	}
	return out, nil
}
