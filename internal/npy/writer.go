package npy

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/lumen-ml/lumen/internal/tensor"
)

// headerAlign pads the NPY preamble so the payload starts on a 64-byte
// boundary, matching what NumPy itself writes.
const headerAlign = 64

// Write serializes a dense array as NPY version 1.0.
func Write(w io.Writer, d *tensor.Dense) error {
	descr, err := descrOf(d.DType())
	if err != nil {
		return err
	}

	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }",
		descr, shapeTuple(d.Shape()))

	// magic(6) + version(2) + headerLen(2) + dict + padding + '\n'
	preamble := 6 + 2 + 2
	total := preamble + len(dict) + 1
	padding := (headerAlign - total%headerAlign) % headerAlign
	headerLen := len(dict) + padding + 1
	if headerLen > 0xffff {
		return fmt.Errorf("%w: header of %d bytes needs version 2", ErrUnsupportedVersion, headerLen)
	}

	if _, err := w.Write(Magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(headerLen)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, dict+strings.Repeat(" ", padding)+"\n"); err != nil {
		return err
	}
	_, err = w.Write(d.Bytes())
	return err
}

// WriteNPZ serializes a set of named arrays as an uncompressed zip of NPY
// members, the way numpy.savez does.
func WriteNPZ(w io.Writer, arrays map[string]*tensor.Dense) error {
	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		mw, err := zw.CreateHeader(&zip.FileHeader{
			Name:   name + ".npy",
			Method: zip.Store,
		})
		if err != nil {
			return fmt.Errorf("create member %q: %w", name, err)
		}
		if err := Write(mw, arrays[name]); err != nil {
			return fmt.Errorf("write member %q: %w", name, err)
		}
	}
	return zw.Close()
}

// shapeTuple renders a shape as a Python tuple literal. NumPy writes
// 1-tuples with a trailing comma and scalars as an empty tuple.
func shapeTuple(s tensor.Shape) string {
	switch len(s) {
	case 0:
		return "()"
	case 1:
		return "(" + strconv.Itoa(s[0]) + ",)"
	default:
		dims := make([]string, len(s))
		for i, dim := range s {
			dims[i] = strconv.Itoa(dim)
		}
		return "(" + strings.Join(dims, ", ") + ")"
	}
}
