// Package tl implements the little-endian TL boxed wire codec used to
// serialize blockchain and verification-chain structures. Every top-level
// structure is "boxed": a 4-byte magic constructor id followed by its
// fields in declaration order. Byte strings are length-prefixed and padded
// to a 4-byte boundary; fixed-size fields (hashes, keys, signatures) are
// written without a length prefix.
package tl

import (
	"bytes"
	"encoding/binary"
)

// Writer accumulates a TL byte stream. The zero value is ready to use.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns a Writer ready to accept fields.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the serialized stream built so far.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Magic writes a boxed structure's 4-byte magic constructor id.
func (w *Writer) Magic(magic uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], magic)
	w.buf.Write(buf[:])
}

// Int32 writes a little-endian signed 32-bit integer.
func (w *Writer) Int32(v int32) {
	w.Uint32(uint32(v))
}

// Uint32 writes a little-endian unsigned 32-bit integer.
func (w *Writer) Uint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

// Int64 writes a little-endian signed 64-bit integer.
func (w *Writer) Int64(v int64) {
	w.Uint64(uint64(v))
}

// Uint64 writes a little-endian unsigned 64-bit integer.
func (w *Writer) Uint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.buf.Write(buf[:])
}

// Fixed writes a fixed-size field verbatim, with no length prefix. Used for
// hashes, public keys and signatures whose size is implied by the schema.
func (w *Writer) Fixed(v []byte) {
	w.buf.Write(v)
}

// PutBytes writes a length-prefixed byte string, padded to a 4-byte boundary.
// Lengths below 254 use a 1-byte prefix; longer strings use a 254 marker
// byte followed by a 3-byte little-endian length, per the TL serialization
// rule.
func (w *Writer) PutBytes(v []byte) {
	n := len(v)
	if n < 254 {
		w.buf.WriteByte(byte(n))
	} else {
		w.buf.WriteByte(254)
		w.buf.WriteByte(byte(n))
		w.buf.WriteByte(byte(n >> 8))
		w.buf.WriteByte(byte(n >> 16))
	}
	w.buf.Write(v)
	w.padTo4()
}

// padTo4 pads the stream with zero bytes until its length is a multiple of
// 4 bytes.
func (w *Writer) padTo4() {
	if rem := w.buf.Len() % 4; rem != 0 {
		var zeros [3]byte
		w.buf.Write(zeros[:4-rem])
	}
}

// VectorHeader writes the boxed vector magic and element count. Callers
// then serialize each element themselves; boxed elements (e.g. a tagged
// Change union) write their own magic as part of that serialization.
func (w *Writer) VectorHeader(count int) {
	w.Magic(MagicVector)
	w.Int32(int32(count))
}
