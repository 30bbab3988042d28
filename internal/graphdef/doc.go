// Package graphdef parses and serializes the TensorFlow GraphDef binary
// protobuf format without a generated protobuf dependency.
//
// The wire decoder materializes the subset of the message family that the
// loader and modelzoo consume (nodes, inputs, attributes, versions) and
// skips everything else. Any wire-level failure (bad tag, truncated
// length-delimited field, varint overflow) reports an error; the caller
// decides whether that means a corrupt source.
package graphdef
