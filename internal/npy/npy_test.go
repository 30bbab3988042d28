package npy

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lumen-ml/lumen/internal/tensor"
)

func mustDense(t *testing.T, data []float32, shape tensor.Shape) *tensor.Dense {
	t.Helper()
	d, err := tensor.FromSlice(data, shape)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	return d
}

func TestWriteParseRoundTrip(t *testing.T) {
	want := mustDense(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	var buf bytes.Buffer
	if err := Write(&buf, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !got.Shape().Equal(want.Shape()) {
		t.Errorf("shape = %v, want %v", got.Shape(), want.Shape())
	}
	if got.DType() != tensor.Float32 {
		t.Errorf("dtype = %v, want Float32", got.DType())
	}
	gv, _ := tensor.Values[float32](got)
	wv, _ := tensor.Values[float32](want)
	if diff := cmp.Diff(wv, gv); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePayloadAligned(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, mustDense(t, []float32{1}, tensor.Shape{1})); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if buf.Len()%headerAlign != 4 { // 64-byte preamble + one float32
		t.Errorf("preamble is not 64-byte aligned: total %d bytes", buf.Len())
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("not an npy stream at all")))
	if !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("err = %v, want ErrInvalidMagic", err)
	}
}

func TestParseRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, mustDense(t, []float32{1, 2, 3, 4}, tensor.Shape{4})); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	cut := buf.Bytes()[:buf.Len()-6]

	_, err := Parse(bytes.NewReader(cut))
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}

func TestParseRejectsOverflowingShape(t *testing.T) {
	// Both shape products wrap around int: the first goes negative
	// (make would panic), the second wraps to exactly zero (Parse would
	// return an empty array with no error).
	cases := []string{
		"{'descr': '|u1', 'fortran_order': False, 'shape': (2305843009213693952, 4), }",
		"{'descr': '<f8', 'fortran_order': False, 'shape': (4611686018427387904, 4), }",
	}
	for _, dict := range cases {
		raw := buildNPY(t, dict, nil)
		_, err := Parse(bytes.NewReader(raw))
		if !errors.Is(err, ErrMalformedHeader) {
			t.Errorf("dict %q: err = %v, want ErrMalformedHeader", dict, err)
		}
	}
}

func TestParseRejectsMalformedHeaderDict(t *testing.T) {
	var buf bytes.Buffer
	d := mustDense(t, []float32{1}, tensor.Shape{1})
	if err := Write(&buf, d); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	// Corrupt the header dictionary in place.
	raw := buf.Bytes()
	copy(raw[10:], []byte("garbage!"))

	_, err := Parse(bytes.NewReader(raw))
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("err = %v, want ErrMalformedHeader", err)
	}
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	raw := append(append([]byte{}, Magic...), 9, 0)
	_, err := Parse(bytes.NewReader(raw))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestParseRejectsFortranOrder(t *testing.T) {
	dict := "{'descr': '<f4', 'fortran_order': True, 'shape': (1,), }"
	raw := buildNPY(t, dict, make([]byte, 4))

	_, err := Parse(bytes.NewReader(raw))
	if !errors.Is(err, ErrFortranOrder) {
		t.Errorf("err = %v, want ErrFortranOrder", err)
	}
}

func TestParseRejectsUnsupportedDType(t *testing.T) {
	dict := "{'descr': '>f4', 'fortran_order': False, 'shape': (1,), }"
	raw := buildNPY(t, dict, make([]byte, 4))

	_, err := Parse(bytes.NewReader(raw))
	if !errors.Is(err, ErrUnsupportedDType) {
		t.Errorf("err = %v, want ErrUnsupportedDType", err)
	}
}

func TestParseScalar(t *testing.T) {
	dict := "{'descr': '<f8', 'fortran_order': False, 'shape': (), }"
	payload := []byte{0, 0, 0, 0, 0, 0, 0x45, 0x40} // float64(42)
	d, err := Parse(bytes.NewReader(buildNPY(t, dict, payload)))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if d.Rank() != 0 || d.NumElements() != 1 {
		t.Errorf("scalar decoded as shape %v", d.Shape())
	}
	v, _ := tensor.Values[float64](d)
	if v[0] != 42 {
		t.Errorf("scalar = %v, want 42", v[0])
	}
}

func TestNPZRoundTrip(t *testing.T) {
	want := map[string]*tensor.Dense{
		"weights": mustDense(t, []float32{1, 2, 3}, tensor.Shape{3}),
		"bias":    mustDense(t, []float32{0.5}, tensor.Shape{1}),
	}

	var buf bytes.Buffer
	if err := WriteNPZ(&buf, want); err != nil {
		t.Fatalf("WriteNPZ failed: %v", err)
	}

	got, err := ParseNPZ(&buf)
	if err != nil {
		t.Fatalf("ParseNPZ failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d members, want 2", len(got))
	}
	for name, w := range want {
		g, ok := got[name]
		if !ok {
			t.Errorf("member %q missing", name)
			continue
		}
		if !g.Shape().Equal(w.Shape()) {
			t.Errorf("member %q shape = %v, want %v", name, g.Shape(), w.Shape())
		}
	}
}

func TestNPZRejectsNonZip(t *testing.T) {
	_, err := ParseNPZ(bytes.NewReader([]byte("definitely not a zip")))
	if !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("err = %v, want ErrInvalidMagic", err)
	}
}

// buildNPY assembles a version 1.0 NPY stream with the given header dict.
func buildNPY(t *testing.T, dict string, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(Magic)
	buf.Write([]byte{1, 0})
	header := dict + "\n"
	buf.Write([]byte{byte(len(header)), byte(len(header) >> 8)})
	buf.WriteString(header)
	buf.Write(payload)
	return buf.Bytes()
}
