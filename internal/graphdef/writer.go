package graphdef

import (
	"encoding/binary"
	"math"
	"sort"
)

// Encode serializes a GraphDef back to protobuf wire format. Fields that the
// parser does not materialize are not preserved.
func Encode(g *GraphDef) []byte {
	var e encoder
	for i := range g.Nodes {
		e.writeMessage(1, encodeNodeDef(&g.Nodes[i]))
	}
	if g.Version != 0 {
		e.writeVarintField(3, int64(g.Version))
	}
	if g.Versions != nil {
		var v encoder
		if g.Versions.Producer != 0 {
			v.writeVarintField(1, int64(g.Versions.Producer))
		}
		if g.Versions.MinConsumer != 0 {
			v.writeVarintField(2, int64(g.Versions.MinConsumer))
		}
		e.writeMessage(4, v.buf)
	}
	return e.buf
}

func encodeNodeDef(n *NodeDef) []byte {
	var e encoder
	if n.Name != "" {
		e.writeBytesField(1, []byte(n.Name))
	}
	if n.Op != "" {
		e.writeBytesField(2, []byte(n.Op))
	}
	for _, in := range n.Input {
		e.writeBytesField(3, []byte(in))
	}
	if n.Device != "" {
		e.writeBytesField(4, []byte(n.Device))
	}

	// Deterministic attribute order keeps Encode(Parse(x)) stable.
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attr := n.Attrs[k]
		var entry encoder
		entry.writeBytesField(1, []byte(k))
		entry.writeMessage(2, encodeAttrValue(&attr))
		e.writeMessage(5, entry.buf)
	}
	return e.buf
}

func encodeAttrValue(a *AttrValue) []byte {
	var e encoder
	switch a.Kind {
	case AttrBytes:
		e.writeBytesField(2, a.S)
	case AttrInt:
		e.writeVarintField(3, a.I)
	case AttrFloat:
		e.writeFloat32Field(4, a.F)
	case AttrBool:
		e.writeBoolField(5, a.B)
	case AttrType:
		e.writeVarintField(6, int64(a.Type))
	case AttrShape:
		e.writeMessage(7, encodeTensorShape(a.Shape))
	case AttrTensor:
		e.writeMessage(8, encodeTensorDef(a.Tensor))
	case AttrList:
		e.writeMessage(1, encodeListValue(a.List))
	case AttrNone:
	}
	return e.buf
}

func encodeListValue(l *ListValue) []byte {
	var e encoder
	for _, s := range l.S {
		e.writeBytesField(2, s)
	}
	if len(l.I) > 0 {
		var packed encoder
		for _, v := range l.I {
			packed.writeVarint(v)
		}
		e.writeBytesField(3, packed.buf)
	}
	if len(l.F) > 0 {
		var packed encoder
		for _, v := range l.F {
			packed.writeFloat32(v)
		}
		e.writeBytesField(4, packed.buf)
	}
	if len(l.B) > 0 {
		packed := make([]byte, len(l.B))
		for i, v := range l.B {
			if v {
				packed[i] = 1
			}
		}
		e.writeBytesField(5, packed)
	}
	if len(l.Type) > 0 {
		var packed encoder
		for _, v := range l.Type {
			packed.writeVarint(int64(v))
		}
		e.writeBytesField(6, packed.buf)
	}
	return e.buf
}

func encodeTensorShape(s *TensorShape) []byte {
	var e encoder
	for _, dim := range s.Dims {
		var d encoder
		if dim.Size != 0 {
			d.writeVarintField(1, dim.Size)
		}
		if dim.Name != "" {
			d.writeBytesField(2, []byte(dim.Name))
		}
		e.writeMessage(2, d.buf)
	}
	if s.UnknownRank {
		e.writeBoolField(3, true)
	}
	return e.buf
}

func encodeTensorDef(t *TensorDef) []byte {
	var e encoder
	if t.DType != 0 {
		e.writeVarintField(1, int64(t.DType))
	}
	if t.Shape != nil {
		e.writeMessage(2, encodeTensorShape(t.Shape))
	}
	if t.VersionNumber != 0 {
		e.writeVarintField(3, int64(t.VersionNumber))
	}
	if len(t.TensorContent) > 0 {
		e.writeBytesField(4, t.TensorContent)
	}
	if len(t.FloatVal) > 0 {
		var packed encoder
		for _, v := range t.FloatVal {
			packed.writeFloat32(v)
		}
		e.writeBytesField(6, packed.buf)
	}
	if len(t.IntVal) > 0 {
		var packed encoder
		for _, v := range t.IntVal {
			packed.writeVarint(int64(v))
		}
		e.writeBytesField(8, packed.buf)
	}
	for _, s := range t.StringVal {
		e.writeBytesField(9, s)
	}
	if len(t.Int64Val) > 0 {
		var packed encoder
		for _, v := range t.Int64Val {
			packed.writeVarint(v)
		}
		e.writeBytesField(10, packed.buf)
	}
	return e.buf
}

// encoder builds protobuf wire format incrementally.
type encoder struct {
	buf []byte
}

func (e *encoder) writeVarint(v int64) {
	e.buf = binary.AppendUvarint(e.buf, uint64(v)) //nolint:gosec // G115: two's-complement varint encoding.
}

func (e *encoder) writeTag(fieldNum, wireType int) {
	e.writeVarint(int64(fieldNum)<<3 | int64(wireType))
}

func (e *encoder) writeVarintField(fieldNum int, v int64) {
	e.writeTag(fieldNum, wireVarint)
	e.writeVarint(v)
}

func (e *encoder) writeBoolField(fieldNum int, v bool) {
	var i int64
	if v {
		i = 1
	}
	e.writeVarintField(fieldNum, i)
}

func (e *encoder) writeBytesField(fieldNum int, data []byte) {
	e.writeTag(fieldNum, wireBytes)
	e.writeVarint(int64(len(data)))
	e.buf = append(e.buf, data...)
}

// writeMessage writes an embedded message field even when empty, so that
// presence survives a round trip.
func (e *encoder) writeMessage(fieldNum int, data []byte) {
	e.writeBytesField(fieldNum, data)
}

func (e *encoder) writeFloat32(v float32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
}

func (e *encoder) writeFloat32Field(fieldNum int, v float32) {
	e.writeTag(fieldNum, wire32Bit)
	e.writeFloat32(v)
}
