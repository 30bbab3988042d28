// Package tensor provides the public API for the dense arrays produced
// by the Lumen load path and consumed by the save path.
//
// Example:
//
//	d, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	vals, err := tensor.Values[float32](d)
package tensor

import (
	"github.com/lumen-ml/lumen/internal/tensor"
)

// DType is a constraint for supported element types.
// Supported types: float32, float64, int32, int64, uint8, bool.
type DType = tensor.DType

// DataType represents the runtime element type of a dense array.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Shape represents the dimensions of an array.
// Example: Shape{2, 3, 4} is a 3D array with dimensions 2×3×4.
type Shape = tensor.Shape

// Dense is a contiguous row-major array.
type Dense = tensor.Dense

// NewDense allocates a zero-filled array.
func NewDense(shape Shape, dtype DataType) (*Dense, error) {
	return tensor.NewDense(shape, dtype)
}

// FromSlice builds an array from a typed slice. The slice is copied.
func FromSlice[T DType](data []T, shape Shape) (*Dense, error) {
	return tensor.FromSlice(data, shape)
}

// FromBytes builds an array over raw little-endian bytes.
func FromBytes(buf []byte, shape Shape, dtype DataType) (*Dense, error) {
	return tensor.FromBytes(buf, shape, dtype)
}

// Values returns the elements as a typed slice sharing the array's
// storage. T must match the array's data type.
func Values[T DType](d *Dense) ([]T, error) {
	return tensor.Values[T](d)
}

// At returns the element at a multi-dimensional index.
func At[T DType](d *Dense, indices ...int) (T, error) {
	return tensor.At[T](d, indices...)
}
