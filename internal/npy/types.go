// Package npy reads and writes the NumPy array format (NPY version 1.0/2.0)
// and NPZ archives (zip files of NPY members).
package npy

import (
	"errors"

	"github.com/lumen-ml/lumen/internal/tensor"
)

// Magic is the six-byte prefix of every NPY file.
var Magic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

// Structural errors. These indicate bytes that are not a valid NPY stream;
// callers use them to tell a corrupt file from an unsupported one.
var (
	ErrInvalidMagic    = errors.New("npy: invalid magic bytes")
	ErrMalformedHeader = errors.New("npy: malformed header")
	ErrTruncated       = errors.New("npy: truncated data")
)

// Capability errors. The stream is well-formed but uses a feature this
// reader does not implement.
var (
	ErrUnsupportedVersion = errors.New("npy: unsupported format version")
	ErrUnsupportedDType   = errors.New("npy: unsupported dtype")
	ErrFortranOrder       = errors.New("npy: fortran-order arrays are not supported")
)

// Header describes the array stored in an NPY stream.
type Header struct {
	Major        uint8
	Minor        uint8
	Descr        string // NumPy dtype string, e.g. "<f4"
	FortranOrder bool
	Shape        tensor.Shape
}

// dtypeOf maps a NumPy descr string to a DataType. Only little-endian and
// byte-order-independent descriptors are accepted.
func dtypeOf(descr string) (tensor.DataType, error) {
	switch descr {
	case "<f4":
		return tensor.Float32, nil
	case "<f8":
		return tensor.Float64, nil
	case "<i4":
		return tensor.Int32, nil
	case "<i8":
		return tensor.Int64, nil
	case "|u1":
		return tensor.Uint8, nil
	case "|b1":
		return tensor.Bool, nil
	default:
		return 0, ErrUnsupportedDType
	}
}

// descrOf is the inverse of dtypeOf.
func descrOf(dtype tensor.DataType) (string, error) {
	switch dtype {
	case tensor.Float32:
		return "<f4", nil
	case tensor.Float64:
		return "<f8", nil
	case tensor.Int32:
		return "<i4", nil
	case tensor.Int64:
		return "<i8", nil
	case tensor.Uint8:
		return "|u1", nil
	case tensor.Bool:
		return "|b1", nil
	default:
		return "", ErrUnsupportedDType
	}
}
