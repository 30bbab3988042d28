package load_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-ml/lumen/load"
)

func TestLoadLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("tench\ngoldfish\n"), 0o644))

	v, err := load.Load(context.Background(), load.URL(path), load.WithSplit(true))
	require.NoError(t, err)
	require.Equal(t, []string{"tench", "goldfish"}, v)
}

func TestLoadStream(t *testing.T) {
	v, err := load.Load(context.Background(),
		load.Stream(strings.NewReader(`{"ok": true}`), "body.json"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"ok": true}, v)
}

func TestLoadNoExtension(t *testing.T) {
	_, err := load.Load(context.Background(), load.URL("/tmp/weights"))
	var nerr *load.NoExtensionError
	require.ErrorAs(t, err, &nerr)
}
