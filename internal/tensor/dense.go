package tensor

import (
	"fmt"
	"unsafe"
)

// Dense is a contiguous, row-major, CPU-resident array. It is the concrete
// value type produced by the image and numeric-array decoders.
type Dense struct {
	shape Shape
	dtype DataType
	data  []byte
}

// NewDense allocates a zero-filled dense array.
func NewDense(shape Shape, dtype DataType) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Dense{
		shape: shape.Clone(),
		dtype: dtype,
		data:  make([]byte, shape.NumElements()*dtype.Size()),
	}, nil
}

// FromSlice creates a dense array from a Go slice.
// The slice is copied into the array's memory.
func FromSlice[T DType](data []T, shape Shape) (*Dense, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	d, err := NewDense(shape, inferDataType(dummy))
	if err != nil {
		return nil, err
	}
	copy(unsafe.Slice((*T)(unsafe.Pointer(&d.data[0])), len(data)), data)
	return d, nil
}

// FromBytes creates a dense array that adopts buf as its backing storage.
// buf must hold exactly shape.NumElements()*dtype.Size() bytes.
func FromBytes(buf []byte, shape Shape, dtype DataType) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	want := shape.NumElements() * dtype.Size()
	if len(buf) != want {
		return nil, fmt.Errorf("shape %v with dtype %s requires %d bytes, but got %d", shape, dtype, want, len(buf))
	}
	return &Dense{shape: shape.Clone(), dtype: dtype, data: buf}, nil
}

// Shape returns the array's shape.
func (d *Dense) Shape() Shape { return d.shape }

// DType returns the array's data type.
func (d *Dense) DType() DataType { return d.dtype }

// Rank returns the number of dimensions.
func (d *Dense) Rank() int { return len(d.shape) }

// NumElements returns the total number of elements.
func (d *Dense) NumElements() int { return d.shape.NumElements() }

// ByteSize returns the size of the backing storage in bytes.
func (d *Dense) ByteSize() int { return len(d.data) }

// Bytes returns the raw backing storage.
func (d *Dense) Bytes() []byte { return d.data }

// Clone returns a deep copy of the array.
func (d *Dense) Clone() *Dense {
	data := make([]byte, len(d.data))
	copy(data, d.data)
	return &Dense{shape: d.shape.Clone(), dtype: d.dtype, data: data}
}

// Reshape returns a view of the array with a new shape. The new shape must
// describe the same number of elements; the backing storage is shared.
func (d *Dense) Reshape(shape Shape) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != d.shape.NumElements() {
		return nil, fmt.Errorf("cannot reshape %v to %v: element count differs", d.shape, shape)
	}
	return &Dense{shape: shape.Clone(), dtype: d.dtype, data: d.data}, nil
}

func (d *Dense) String() string {
	return fmt.Sprintf("Dense(%s, shape=%v)", d.dtype, []int(d.shape))
}

// At returns the element at a multi-dimensional index, using row-major
// strides. The index must supply one coordinate per dimension.
func At[T DType](d *Dense, indices ...int) (T, error) {
	var zero T
	if len(indices) != len(d.shape) {
		return zero, fmt.Errorf("got %d indices for rank %d array", len(indices), len(d.shape))
	}
	vals, err := Values[T](d)
	if err != nil {
		return zero, err
	}

	strides := d.shape.ComputeStrides()
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= d.shape[i] {
			return zero, fmt.Errorf("index %d out of range for dimension %d (size %d)", idx, i, d.shape[i])
		}
		offset += idx * strides[i]
	}
	return vals[offset], nil
}

// Values returns a typed view of the array's elements. The view aliases the
// backing storage; mutations are visible through the array.
func Values[T DType](d *Dense) ([]T, error) {
	var dummy T
	if want := inferDataType(dummy); want != d.dtype {
		return nil, fmt.Errorf("array holds %s, not %s", d.dtype, want)
	}
	if len(d.data) == 0 {
		return nil, nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&d.data[0])), d.NumElements()), nil
}
