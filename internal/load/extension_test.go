package load

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtensionOf(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"model.png", "png"},
		{"model.PNG", "png"},
		{"https://example.com/graphs/model.pb", "pb"},
		{"https://example.com/model.npy?token=abc", "npy"},
		{"https://example.com/model.json#section", "json"},
		{"archive.tar.gz", "gz"},
		{".bashrc", "bashrc"},
		{"/data/images/photo.JPEG", "jpeg"},
	}
	for _, tc := range cases {
		tag, err := extensionOf(URL(tc.name))
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.want, tag, tc.name)
	}
}

func TestExtensionOfMissing(t *testing.T) {
	cases := []string{
		"https://example.com/weights",
		"weights",
		"model.",
		"https://example.com/v1.2/weights",
		"https://example.com/weights?v=1.2",
	}
	for _, name := range cases {
		_, err := extensionOf(URL(name))
		var nerr *NoExtensionError
		require.ErrorAs(t, err, &nerr, name)
		require.Equal(t, name, nerr.Name)
	}
}

func TestRegistryTagsSorted(t *testing.T) {
	reg := DefaultRegistry(nil)
	tags := reg.Tags()
	require.True(t, sortedStrings(tags), "tags must be sorted: %v", tags)
	for _, want := range []string{"jpeg", "jpg", "json", "md", "npy", "npz", "pb", "png", "txt", "yaml", "yml"} {
		require.Contains(t, tags, want)
	}
}

func TestRegistryLookupMiss(t *testing.T) {
	reg := DefaultRegistry(nil)
	_, ok := reg.Lookup("bin")
	require.False(t, ok)
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if strings.Compare(s[i-1], s[i]) > 0 {
			return false
		}
	}
	return true
}
