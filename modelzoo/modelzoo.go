// Package modelzoo describes a small catalog of frozen vision models and
// loads their artifacts through the Lumen load path: the serialized graph
// through the content cache, the label vocabulary as one label per line.
package modelzoo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lumen-ml/lumen/graphdef"
	"github.com/lumen-ml/lumen/load"
)

// Layer names an inspectable layer of a model, its channel depth, and
// coarse kind tags ("conv", "dense").
type Layer struct {
	Name  string
	Depth int
	Tags  []string
}

// Model describes a frozen inference graph and its input contract.
type Model struct {
	// Name is the catalog key.
	Name string

	// GraphDefURL locates the serialized frozen graph.
	GraphDefURL string

	// LabelsURL locates the label vocabulary, one label per line. Empty
	// when the model has no published labels.
	LabelsURL string

	// InputName is the placeholder node fed with the input image.
	InputName string

	// ImageShape is the expected input shape (height, width, channels).
	ImageShape []int

	// ImageValueRange is the (low, high) range the model expects pixel
	// values in.
	ImageValueRange [2]float64

	// Layers lists the commonly inspected layers.
	Layers []Layer

	mu    sync.Mutex
	graph *graphdef.GraphDef
}

// LoadGraphDef fetches and parses the model's frozen graph. The parsed
// graph is memoized on the model; failures are not.
func (m *Model) LoadGraphDef(ctx context.Context, l *load.Loader) (*graphdef.GraphDef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.graph != nil {
		return m.graph, nil
	}

	v, err := l.Load(ctx, load.URL(m.GraphDefURL))
	if err != nil {
		return nil, fmt.Errorf("load graph for %s: %w", m.Name, err)
	}
	g, ok := v.(*graphdef.GraphDef)
	if !ok {
		return nil, fmt.Errorf("graph for %s decoded to %T, want *graphdef.GraphDef", m.Name, v)
	}
	m.graph = g
	return g, nil
}

// Labels fetches the model's label vocabulary.
func (m *Model) Labels(ctx context.Context, l *load.Loader) ([]string, error) {
	if m.LabelsURL == "" {
		return nil, fmt.Errorf("model %s has no labels", m.Name)
	}
	v, err := l.Load(ctx, load.URL(m.LabelsURL), load.WithSplit(true))
	if err != nil {
		return nil, fmt.Errorf("load labels for %s: %w", m.Name, err)
	}
	labels, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("labels for %s decoded to %T, want []string", m.Name, v)
	}
	return labels, nil
}

// Layer returns the named layer, or nil if the model does not list it.
func (m *Model) Layer(name string) *Layer {
	for i := range m.Layers {
		if m.Layers[i].Name == name {
			return &m.Layers[i]
		}
	}
	return nil
}

const (
	zooBase    = "https://storage.googleapis.com/modelzoo/vision/other_models/"
	labelsBase = "https://storage.googleapis.com/modelzoo/labels/"
)

var catalog = map[string]*Model{
	"InceptionV1": {
		Name:            "InceptionV1",
		GraphDefURL:     zooBase + "InceptionV1.pb",
		LabelsURL:       labelsBase + "ImageNet_standard_with_dummy.txt",
		InputName:       "input",
		ImageShape:      []int{224, 224, 3},
		ImageValueRange: [2]float64{-117, 255 - 117},
		Layers: []Layer{
			{Name: "conv2d0", Depth: 64, Tags: []string{"conv"}},
			{Name: "conv2d1", Depth: 64, Tags: []string{"conv"}},
			{Name: "conv2d2", Depth: 192, Tags: []string{"conv"}},
			{Name: "mixed3a", Depth: 256, Tags: []string{"conv"}},
			{Name: "mixed3b", Depth: 480, Tags: []string{"conv"}},
			{Name: "mixed4a", Depth: 508, Tags: []string{"conv"}},
			{Name: "mixed4b", Depth: 512, Tags: []string{"conv"}},
			{Name: "mixed4c", Depth: 512, Tags: []string{"conv"}},
			{Name: "mixed4d", Depth: 528, Tags: []string{"conv"}},
			{Name: "mixed4e", Depth: 832, Tags: []string{"conv"}},
			{Name: "mixed5a", Depth: 832, Tags: []string{"conv"}},
			{Name: "mixed5b", Depth: 1024, Tags: []string{"conv"}},
		},
	},
	"AlexNet": {
		Name:            "AlexNet",
		GraphDefURL:     zooBase + "AlexNet.pb",
		LabelsURL:       labelsBase + "ImageNet_standard.txt",
		InputName:       "Placeholder",
		ImageShape:      []int{227, 227, 3},
		ImageValueRange: [2]float64{0, 255},
		Layers: []Layer{
			{Name: "concat_2", Depth: 256, Tags: []string{"conv"}},
			{Name: "conv5_1", Depth: 256, Tags: []string{"conv"}},
			{Name: "Relu_5", Depth: 4096, Tags: []string{"dense"}},
			{Name: "Relu_6", Depth: 4096, Tags: []string{"dense"}},
		},
	},
	"MobilenetV1": {
		Name:            "MobilenetV1",
		GraphDefURL:     zooBase + "MobilenetV1.pb",
		LabelsURL:       labelsBase + "ImageNet_standard_with_dummy.txt",
		InputName:       "input",
		ImageShape:      []int{224, 224, 3},
		ImageValueRange: [2]float64{0, 1},
		Layers: []Layer{
			{Name: "MobilenetV1/MobilenetV1/Conv2d_3_pointwise/Relu6", Depth: 128, Tags: []string{"conv"}},
			{Name: "MobilenetV1/MobilenetV1/Conv2d_7_pointwise/Relu6", Depth: 512, Tags: []string{"conv"}},
			{Name: "MobilenetV1/MobilenetV1/Conv2d_13_pointwise/Relu6", Depth: 1024, Tags: []string{"conv"}},
		},
	},
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (*Model, bool) {
	m, ok := catalog[name]
	return m, ok
}

// Names returns the sorted catalog keys.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
