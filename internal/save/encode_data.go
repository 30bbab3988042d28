package save

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lumen-ml/lumen/internal/graphdef"
	"github.com/lumen-ml/lumen/internal/npy"
	"github.com/lumen-ml/lumen/internal/tensor"
)

// arrayEncoder writes NumPy files. A single array goes to .npy; the
// archive form takes a map of arrays and also accepts a single array
// under the default name.
type arrayEncoder struct {
	archive bool
}

func (e arrayEncoder) Encode(_ context.Context, w io.Writer, value any, _ Options) error {
	if e.archive {
		switch v := value.(type) {
		case map[string]*tensor.Dense:
			return npy.WriteNPZ(w, v)
		case *tensor.Dense:
			return npy.WriteNPZ(w, map[string]*tensor.Dense{"arr_0": v})
		default:
			return &UnsupportedValueError{Tag: "npz", Value: value}
		}
	}
	arr, ok := value.(*tensor.Dense)
	if !ok {
		return &UnsupportedValueError{Tag: "npy", Value: value}
	}
	return npy.Write(w, arr)
}

// jsonEncoder marshals any JSON-serializable value.
type jsonEncoder struct{}

func (jsonEncoder) Encode(_ context.Context, w io.Writer, value any, opts Options) error {
	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(value)
}

// textEncoder writes strings verbatim, string slices one element per
// line, and everything else through fmt.
type textEncoder struct{}

func (textEncoder) Encode(_ context.Context, w io.Writer, value any, _ Options) error {
	switch v := value.(type) {
	case string:
		_, err := io.WriteString(w, v)
		return err
	case []byte:
		_, err := w.Write(v)
		return err
	case []string:
		if len(v) == 0 {
			return nil
		}
		_, err := io.WriteString(w, strings.Join(v, "\n")+"\n")
		return err
	default:
		_, err := fmt.Fprintf(w, "%v", v)
		return err
	}
}

// graphEncoder serializes a graph definition to protobuf wire format.
type graphEncoder struct{}

func (graphEncoder) Encode(_ context.Context, w io.Writer, value any, _ Options) error {
	g, ok := value.(*graphdef.GraphDef)
	if !ok {
		return &UnsupportedValueError{Tag: "pb", Value: value}
	}
	_, err := w.Write(graphdef.Encode(g))
	return err
}
