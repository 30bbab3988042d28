// Package graphdef provides the public API for TensorFlow GraphDef
// parsing and serialization.
//
// The parser reads the protobuf wire format directly, covering the
// subset of the GraphDef schema needed to inspect frozen inference
// graphs: nodes, attributes, tensor shapes, and embedded constant
// tensors.
//
// Example:
//
//	g, err := graphdef.Parse(raw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for op, n := range g.OpCounts() {
//	    fmt.Printf("%s: %d\n", op, n)
//	}
package graphdef

import (
	"github.com/lumen-ml/lumen/internal/graphdef"
)

// GraphDef is a parsed computation graph.
type GraphDef = graphdef.GraphDef

// NodeDef is one operation node in the graph.
type NodeDef = graphdef.NodeDef

// VersionDef carries the graph's producer and consumer versions.
type VersionDef = graphdef.VersionDef

// AttrValue is a node attribute.
type AttrValue = graphdef.AttrValue

// AttrKind discriminates the set field of an AttrValue.
type AttrKind = graphdef.AttrKind

// Attribute variants.
const (
	AttrNone   AttrKind = graphdef.AttrNone
	AttrBytes  AttrKind = graphdef.AttrBytes
	AttrInt    AttrKind = graphdef.AttrInt
	AttrFloat  AttrKind = graphdef.AttrFloat
	AttrBool   AttrKind = graphdef.AttrBool
	AttrType   AttrKind = graphdef.AttrType
	AttrShape  AttrKind = graphdef.AttrShape
	AttrTensor AttrKind = graphdef.AttrTensor
	AttrList   AttrKind = graphdef.AttrList
)

// ListValue is the list form of an attribute value.
type ListValue = graphdef.ListValue

// TensorShape describes a possibly partially-known shape.
type TensorShape = graphdef.TensorShape

// TensorShapeDim is one dimension of a TensorShape.
type TensorShapeDim = graphdef.TensorShapeDim

// TensorDef is an embedded constant tensor.
type TensorDef = graphdef.TensorDef

// Parse decodes a serialized graph.
func Parse(data []byte) (*GraphDef, error) { return graphdef.Parse(data) }

// Encode serializes a graph to wire format with deterministic attribute
// ordering.
func Encode(g *GraphDef) []byte { return graphdef.Encode(g) }
