package graphdef

// TensorFlow GraphDef protobuf data structures (hand-written subset).
// Only the fields the loader and the modelzoo need are materialized;
// unknown fields are skipped during parsing and dropped on re-encode.

// GraphDef represents a serialized computation graph.
type GraphDef struct {
	Nodes    []NodeDef   // Operation nodes (field 1)
	Versions *VersionDef // Producer/consumer versions (field 4)
	Version  int32       // Deprecated single version number (field 3)
}

// NodeDef represents a single operation in the graph.
type NodeDef struct {
	Name   string               // Unique node name (field 1)
	Op     string               // Operation type, e.g. "Conv2D" (field 2)
	Input  []string             // Input node names (field 3)
	Device string               // Requested device (field 4)
	Attrs  map[string]AttrValue // Operation attributes (field 5, map)
}

// VersionDef carries graph version compatibility information.
type VersionDef struct {
	Producer    int32 // Version of the code that produced the graph (field 1)
	MinConsumer int32 // Minimum consumer version (field 2)
}

// AttrValue is one attribute value. Exactly one of the fields is set;
// Kind reports which.
type AttrValue struct {
	Kind AttrKind

	S      []byte       // bytes (field 2)
	I      int64        // int (field 3)
	F      float32      // float (field 4)
	B      bool         // bool (field 5)
	Type   int32        // DataType enum (field 6)
	Shape  *TensorShape // shape (field 7)
	Tensor *TensorDef   // tensor (field 8)
	List   *ListValue   // list(...) (field 1)
}

// AttrKind identifies which variant of an AttrValue is populated.
type AttrKind int

// Attribute variants.
const (
	AttrNone AttrKind = iota
	AttrBytes
	AttrInt
	AttrFloat
	AttrBool
	AttrType
	AttrShape
	AttrTensor
	AttrList
)

// ListValue holds repeated attribute values.
type ListValue struct {
	S    [][]byte  // field 2
	I    []int64   // field 3 (packed)
	F    []float32 // field 4 (packed)
	B    []bool    // field 5 (packed)
	Type []int32   // field 6 (packed)
}

// TensorShape describes the shape of a tensor attribute.
type TensorShape struct {
	Dims        []TensorShapeDim // field 2
	UnknownRank bool             // field 3
}

// TensorShapeDim is one dimension of a TensorShape.
type TensorShapeDim struct {
	Size int64  // field 1; -1 means unknown
	Name string // field 2
}

// TensorDef holds a constant tensor value embedded in the graph.
type TensorDef struct {
	DType         int32        // DataType enum (field 1)
	Shape         *TensorShape // field 2
	VersionNumber int32        // field 3
	TensorContent []byte       // raw packed values (field 4)
	FloatVal      []float32    // field 6 (packed, legacy)
	IntVal        []int32      // field 8 (packed, legacy)
	StringVal     [][]byte     // field 9
	Int64Val      []int64      // field 10 (packed, legacy)
}

// NodeNames returns the names of all nodes in graph order.
func (g *GraphDef) NodeNames() []string {
	names := make([]string, len(g.Nodes))
	for i := range g.Nodes {
		names[i] = g.Nodes[i].Name
	}
	return names
}

// Node returns the node with the given name, or nil if absent.
func (g *GraphDef) Node(name string) *NodeDef {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return &g.Nodes[i]
		}
	}
	return nil
}

// OpCounts returns how many nodes use each operation type.
func (g *GraphDef) OpCounts() map[string]int {
	counts := make(map[string]int)
	for i := range g.Nodes {
		counts[g.Nodes[i].Op]++
	}
	return counts
}
