package npy

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lumen-ml/lumen/internal/tensor"
)

// Parse reads a single NPY stream into a dense array.
func Parse(r io.Reader) (*tensor.Dense, error) {
	hdr, err := parseHeader(r)
	if err != nil {
		return nil, err
	}
	if hdr.FortranOrder {
		return nil, ErrFortranOrder
	}

	dtype, err := dtypeOf(hdr.Descr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDType, hdr.Descr)
	}

	size, err := payloadSize(hdr.Shape, dtype.Size())
	if err != nil {
		return nil, err
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: reading %d payload bytes: %v", ErrTruncated, len(data), err)
	}

	d, err := tensor.FromBytes(data, hdr.Shape, dtype)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	return d, nil
}

// ParseNPZ reads an NPZ archive into a map keyed by member name
// (the ".npy" suffix is stripped).
func ParseNPZ(r io.Reader) (map[string]*tensor.Dense, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrInvalidMagic, err)
	}

	arrays := make(map[string]*tensor.Dense, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: member %q: %v", ErrTruncated, f.Name, err)
		}
		d, err := Parse(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", f.Name, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("%w: member %q: %v", ErrTruncated, f.Name, closeErr)
		}
		arrays[strings.TrimSuffix(f.Name, ".npy")] = d
	}
	return arrays, nil
}

// parseHeader reads the magic, version, and header dictionary.
func parseHeader(r io.Reader) (*Header, error) {
	magic := make([]byte, 6)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMagic, err)
	}
	if !bytes.Equal(magic, Magic) {
		return nil, fmt.Errorf("%w: % x", ErrInvalidMagic, magic)
	}

	var version [2]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return nil, fmt.Errorf("%w: reading version: %v", ErrTruncated, err)
	}

	var headerLen int
	switch version[0] {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: reading header length: %v", ErrTruncated, err)
		}
		headerLen = int(n)
	case 2:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: reading header length: %v", ErrTruncated, err)
		}
		headerLen = int(n)
	default:
		return nil, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, version[0], version[1])
	}

	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}

	hdr := &Header{Major: version[0], Minor: version[1]}
	if err := parseHeaderDict(strings.TrimSpace(string(raw)), hdr); err != nil {
		return nil, err
	}
	return hdr, nil
}

// parseHeaderDict parses the Python dict literal that NumPy writes, e.g.
//
//	{'descr': '<f4', 'fortran_order': False, 'shape': (10, 10), }
func parseHeaderDict(s string, hdr *Header) error {
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return fmt.Errorf("%w: %q", ErrMalformedHeader, s)
	}

	descr, ok := extractQuoted(s, "descr")
	if !ok {
		return fmt.Errorf("%w: missing 'descr' in %q", ErrMalformedHeader, s)
	}
	hdr.Descr = descr

	switch {
	case strings.Contains(s, "'fortran_order': False"):
		hdr.FortranOrder = false
	case strings.Contains(s, "'fortran_order': True"):
		hdr.FortranOrder = true
	default:
		return fmt.Errorf("%w: missing 'fortran_order' in %q", ErrMalformedHeader, s)
	}

	shape, err := extractShape(s)
	if err != nil {
		return err
	}
	hdr.Shape = shape
	return nil
}

// extractQuoted returns the single-quoted value following 'key':.
func extractQuoted(s, key string) (string, bool) {
	marker := "'" + key + "':"
	i := strings.Index(s, marker)
	if i < 0 {
		return "", false
	}
	rest := s[i+len(marker):]
	open := strings.IndexByte(rest, '\'')
	if open < 0 {
		return "", false
	}
	rest = rest[open+1:]
	end := strings.IndexByte(rest, '\'')
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// payloadSize computes the payload byte size with overflow-checked
// multiplication. A header whose shape product wraps around int is not a
// real array; it is garbled bytes wearing a valid header, so it reports
// as malformed rather than panicking in make.
func payloadSize(shape tensor.Shape, elemSize int) (int, error) {
	n := 1
	for _, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("%w: negative dimension %d", ErrMalformedHeader, dim)
		}
		if dim > 0 && n > math.MaxInt/dim {
			return 0, fmt.Errorf("%w: shape %v element count overflows", ErrMalformedHeader, []int(shape))
		}
		n *= dim
	}
	if n > math.MaxInt/elemSize {
		return 0, fmt.Errorf("%w: shape %v byte size overflows", ErrMalformedHeader, []int(shape))
	}
	return n * elemSize, nil
}

// extractShape parses the 'shape': (...) tuple. An empty tuple denotes a
// scalar and yields a zero-length shape.
func extractShape(s string) (tensor.Shape, error) {
	i := strings.Index(s, "'shape':")
	if i < 0 {
		return nil, fmt.Errorf("%w: missing 'shape' in %q", ErrMalformedHeader, s)
	}
	rest := s[i+len("'shape':"):]
	open := strings.IndexByte(rest, '(')
	closing := strings.IndexByte(rest, ')')
	if open < 0 || closing < open {
		return nil, fmt.Errorf("%w: missing shape tuple in %q", ErrMalformedHeader, s)
	}

	fields := strings.Split(rest[open+1:closing], ",")
	shape := make(tensor.Shape, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue // trailing comma of a 1-tuple, or empty scalar tuple
		}
		dim, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: bad dimension %q", ErrMalformedHeader, f)
		}
		shape = append(shape, dim)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	return shape, nil
}
