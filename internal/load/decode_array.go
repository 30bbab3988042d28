package load

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/lumen-ml/lumen/internal/npy"
)

// arrayDecoder handles both NumPy formats: a single .npy stream yields a
// *tensor.Dense, a .npz archive yields a map[string]*tensor.Dense. The two
// are told apart by their magic bytes, so one decoder serves both tags.
type arrayDecoder struct{}

func (arrayDecoder) Decode(_ context.Context, r io.Reader, _ Options) (any, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(npy.Magic))
	if err != nil {
		return nil, malformed(err)
	}

	if bytes.Equal(magic, npy.Magic) {
		arr, err := npy.Parse(br)
		if err != nil {
			return nil, classifyNPYError(err)
		}
		return arr, nil
	}

	arrays, err := npy.ParseNPZ(br)
	if err != nil {
		return nil, classifyNPYError(err)
	}
	return arrays, nil
}

// classifyNPYError wraps structural failures as corruption-symptomatic;
// capability errors (unsupported dtype, fortran order, format version)
// pass through because refetching cannot fix them.
func classifyNPYError(err error) error {
	if errors.Is(err, npy.ErrInvalidMagic) ||
		errors.Is(err, npy.ErrMalformedHeader) ||
		errors.Is(err, npy.ErrTruncated) {
		return malformed(err)
	}
	return err
}
