package modelzoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-ml/lumen/graphdef"
	"github.com/lumen-ml/lumen/internal/config"
	"github.com/lumen-ml/lumen/internal/fetch"
	intload "github.com/lumen-ml/lumen/internal/load"
	"github.com/lumen-ml/lumen/load"
)

func TestCatalog(t *testing.T) {
	require.Equal(t, []string{"AlexNet", "InceptionV1", "MobilenetV1"}, Names())

	m, ok := Lookup("InceptionV1")
	require.True(t, ok)
	require.Equal(t, []int{224, 224, 3}, m.ImageShape)
	require.NotNil(t, m.Layer("mixed4a"))
	require.Equal(t, 508, m.Layer("mixed4a").Depth)
	require.Nil(t, m.Layer("no_such_layer"))

	_, ok = Lookup("ResNetV2")
	require.False(t, ok)
}

func TestLoadGraphDefAndLabels(t *testing.T) {
	graph := &graphdef.GraphDef{Nodes: []graphdef.NodeDef{
		{Name: "input", Op: "Placeholder"},
		{Name: "conv2d0", Op: "Conv2D", Input: []string{"input"}},
	}}
	wire := graphdef.Encode(graph)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/model.pb":
			_, _ = w.Write(wire)
		case "/labels.txt":
			_, _ = w.Write([]byte("dummy\ntench\ngoldfish\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := newTestLoader(t)
	m := &Model{
		Name:        "test",
		GraphDefURL: srv.URL + "/model.pb",
		LabelsURL:   srv.URL + "/labels.txt",
	}

	g, err := m.LoadGraphDef(context.Background(), l)
	require.NoError(t, err)
	require.Equal(t, []string{"input", "conv2d0"}, g.NodeNames())

	again, err := m.LoadGraphDef(context.Background(), l)
	require.NoError(t, err)
	require.Same(t, g, again)

	labels, err := m.Labels(context.Background(), l)
	require.NoError(t, err)
	require.Equal(t, []string{"dummy", "tench", "goldfish"}, labels)

	_, err = (&Model{Name: "bare"}).Labels(context.Background(), l)
	require.ErrorContains(t, err, "no labels")
}

func newTestLoader(t *testing.T) *load.Loader {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Dir = t.TempDir()
	client, err := fetch.New(cfg, nil)
	require.NoError(t, err)
	return intload.New(intload.DefaultRegistry(nil), client, nil)
}
