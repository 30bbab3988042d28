package graphdef

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Parse parses a binary GraphDef protobuf from bytes.
func Parse(data []byte) (*GraphDef, error) {
	p := &parser{data: data}
	graph := &GraphDef{}
	if err := p.readGraphDef(graph); err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}
	return graph, nil
}

// parser implements a minimal protobuf wire format decoder.
type parser struct {
	data []byte
	pos  int
}

// Protobuf wire types.
const (
	wireVarint = 0 // int32, int64, uint32, uint64, bool, enum
	wire64Bit  = 1 // fixed64, sfixed64, double
	wireBytes  = 2 // string, bytes, embedded messages, packed repeated fields
	wire32Bit  = 5 // fixed32, sfixed32, float
)

func (p *parser) readGraphDef(g *GraphDef) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // node
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			node := NodeDef{}
			if err2 := sub.readNodeDef(&node); err2 != nil {
				return err2
			}
			g.Nodes = append(g.Nodes, node)
			continue
		case 3: // version (deprecated)
			g.Version, err = p.readInt32()
		case 4: // versions
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			g.Versions = &VersionDef{}
			if err2 := sub.readVersionDef(g.Versions); err2 != nil {
				return err2
			}
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) readNodeDef(n *NodeDef) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // name
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			n.Name = string(data)
			continue
		case 2: // op
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			n.Op = string(data)
			continue
		case 3: // input
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			n.Input = append(n.Input, string(data))
			continue
		case 4: // device
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			n.Device = string(data)
			continue
		case 5: // attr (map<string, AttrValue>)
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			key, value, err2 := sub.readAttrEntry()
			if err2 != nil {
				return err2
			}
			if n.Attrs == nil {
				n.Attrs = make(map[string]AttrValue)
			}
			n.Attrs[key] = value
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) readVersionDef(v *VersionDef) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // producer
			v.Producer, err = p.readInt32()
		case 2: // min_consumer
			v.MinConsumer, err = p.readInt32()
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readAttrEntry reads one map entry: field 1 is the key, field 2 the value.
func (p *parser) readAttrEntry() (string, AttrValue, error) {
	var key string
	var value AttrValue
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", AttrValue{}, err
		}

		switch fieldNum {
		case 1: // key
			data, err2 := p.readBytes()
			if err2 != nil {
				return "", AttrValue{}, err2
			}
			key = string(data)
			continue
		case 2: // value
			data, err2 := p.readBytes()
			if err2 != nil {
				return "", AttrValue{}, err2
			}
			sub := &parser{data: data}
			if err2 := sub.readAttrValue(&value); err2 != nil {
				return "", AttrValue{}, err2
			}
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return "", AttrValue{}, err
		}
	}
	return key, value, nil
}

//nolint:gocognit,gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readAttrValue(a *AttrValue) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // list
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			a.List = &ListValue{}
			if err2 := sub.readAttrList(a.List); err2 != nil {
				return err2
			}
			a.Kind = AttrList
			continue
		case 2: // s
			a.S, err = p.readBytes()
			a.Kind = AttrBytes
		case 3: // i
			a.I, err = p.readVarint()
			a.Kind = AttrInt
		case 4: // f
			a.F, err = p.readFloat32()
			a.Kind = AttrFloat
		case 5: // b
			var v int64
			v, err = p.readVarint()
			a.B = v != 0
			a.Kind = AttrBool
		case 6: // type
			a.Type, err = p.readInt32()
			a.Kind = AttrType
		case 7: // shape
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			a.Shape = &TensorShape{}
			if err2 := sub.readTensorShape(a.Shape); err2 != nil {
				return err2
			}
			a.Kind = AttrShape
			continue
		case 8: // tensor
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			a.Tensor = &TensorDef{}
			if err2 := sub.readTensorDef(a.Tensor); err2 != nil {
				return err2
			}
			a.Kind = AttrTensor
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

//nolint:gocognit,gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readAttrList(l *ListValue) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 2: // s
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			l.S = append(l.S, data)
			continue
		case 3: // i (packed)
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			for sub.pos < len(sub.data) {
				v, err3 := sub.readVarint()
				if err3 != nil {
					return err3
				}
				l.I = append(l.I, v)
			}
			continue
		case 4: // f (packed)
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			for i := 0; i+4 <= len(data); i += 4 {
				bits := binary.LittleEndian.Uint32(data[i:])
				l.F = append(l.F, math.Float32frombits(bits))
			}
			continue
		case 5: // b (packed)
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			for _, b := range data {
				l.B = append(l.B, b != 0)
			}
			continue
		case 6: // type (packed)
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			for sub.pos < len(sub.data) {
				v, err3 := sub.readVarint()
				if err3 != nil {
					return err3
				}
				l.Type = append(l.Type, int32(v)) //nolint:gosec // G115: DataType enum fits in int32.
			}
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) readTensorShape(s *TensorShape) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 2: // dim
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			dim := TensorShapeDim{}
			if err2 := sub.readTensorShapeDim(&dim); err2 != nil {
				return err2
			}
			s.Dims = append(s.Dims, dim)
			continue
		case 3: // unknown_rank
			var v int64
			v, err = p.readVarint()
			s.UnknownRank = v != 0
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) readTensorShapeDim(d *TensorShapeDim) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // size
			d.Size, err = p.readVarint()
		case 2: // name
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			d.Name = string(data)
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

//nolint:gocognit,gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readTensorDef(t *TensorDef) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // dtype
			t.DType, err = p.readInt32()
		case 2: // tensor_shape
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			t.Shape = &TensorShape{}
			if err2 := sub.readTensorShape(t.Shape); err2 != nil {
				return err2
			}
			continue
		case 3: // version_number
			t.VersionNumber, err = p.readInt32()
		case 4: // tensor_content
			t.TensorContent, err = p.readBytes()
		case 6: // float_val (packed)
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			for i := 0; i+4 <= len(data); i += 4 {
				bits := binary.LittleEndian.Uint32(data[i:])
				t.FloatVal = append(t.FloatVal, math.Float32frombits(bits))
			}
			continue
		case 8: // int_val (packed)
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			for sub.pos < len(sub.data) {
				v, err3 := sub.readVarint()
				if err3 != nil {
					return err3
				}
				t.IntVal = append(t.IntVal, int32(v)) //nolint:gosec // G115: int_val varint fits in int32.
			}
			continue
		case 9: // string_val
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			t.StringVal = append(t.StringVal, data)
			continue
		case 10: // int64_val (packed)
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			for sub.pos < len(sub.data) {
				v, err3 := sub.readVarint()
				if err3 != nil {
					return err3
				}
				t.Int64Val = append(t.Int64Val, v)
			}
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readTag reads a protobuf field tag.
func (p *parser) readTag() (fieldNum, wireType int, err error) {
	if p.pos >= len(p.data) {
		return 0, 0, io.EOF
	}
	tag, err := p.readVarint()
	if err != nil {
		return 0, 0, err
	}
	fieldNum = int(tag >> 3)
	wireType = int(tag & 0x7)
	return fieldNum, wireType, nil
}

// readVarint reads a varint-encoded int64.
func (p *parser) readVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if p.pos >= len(p.data) {
			return 0, io.ErrUnexpectedEOF
		}
		b := p.data[p.pos]
		p.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil //nolint:gosec // G115: Protobuf varint fits in int64.
}

// readInt32 reads a varint-encoded int32.
func (p *parser) readInt32() (int32, error) {
	v, err := p.readVarint()
	if err != nil {
		return 0, err
	}
	return int32(v), nil //nolint:gosec // G115: Protobuf varint fits in int32.
}

// readBytes reads a length-delimited byte slice.
func (p *parser) readBytes() ([]byte, error) {
	length, err := p.readVarint()
	if err != nil {
		return nil, err
	}
	// Compare against the remaining bytes before computing the end
	// offset: a hostile length near MaxInt64 would overflow p.pos+length.
	if length < 0 || length > int64(len(p.data)-p.pos) {
		return nil, io.ErrUnexpectedEOF
	}
	end := p.pos + int(length)
	result := p.data[p.pos:end]
	p.pos = end
	return result, nil
}

// readFloat32 reads a 32-bit float.
func (p *parser) readFloat32() (float32, error) {
	if p.pos+4 > len(p.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return math.Float32frombits(bits), nil
}

// skipField skips a field based on wire type.
func (p *parser) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := p.readVarint()
		return err
	case wire64Bit:
		if p.pos+8 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 8
		return nil
	case wireBytes:
		_, err := p.readBytes()
		return err
	case wire32Bit:
		if p.pos+4 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}
