package tl

import (
	"encoding/binary"
)

// Reader parses a TL byte stream sequentially. Every method advances the
// read cursor; callers must check the returned error before trusting a
// result.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential TL parsing.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Done returns ErrTrailingData if bytes remain after a top-level structure
// has been fully parsed.
func (r *Reader) Done() error {
	if r.Remaining() != 0 {
		return ErrTrailingData
	}
	return nil
}

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return ErrUnexpectedEOF
	}
	return nil
}

// Magic reads a 4-byte magic constructor id and checks it against want.
func (r *Reader) Magic(want uint32) error {
	got, err := r.Uint32()
	if err != nil {
		return err
	}
	if got != want {
		return ErrBadMagic
	}
	return nil
}

// PeekMagic reads a 4-byte magic constructor id without advancing the
// cursor, used to dispatch a tagged union (e.g. decoding a Change).
func (r *Reader) PeekMagic() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4]), nil
}

// Int32 reads a little-endian signed 32-bit integer.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Uint32 reads a little-endian unsigned 32-bit integer.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// Int64 reads a little-endian signed 64-bit integer.
func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Uint64 reads a little-endian unsigned 64-bit integer.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// Fixed reads n bytes verbatim, with no length prefix.
func (r *Reader) Fixed(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := make([]byte, n)
	copy(v, r.buf[r.pos:r.pos+n])
	r.pos += n
	return v, nil
}

// Bytes reads a length-prefixed byte string and consumes its 4-byte
// padding, the inverse of Writer.PutBytes.
func (r *Reader) Bytes() ([]byte, error) {
	if err := r.need(1); err != nil {
		return nil, err
	}
	lead := r.buf[r.pos]
	r.pos++

	var n int
	var headerLen int
	if lead < 254 {
		n = int(lead)
		headerLen = 1
	} else {
		if err := r.need(3); err != nil {
			return nil, err
		}
		n = int(r.buf[r.pos]) | int(r.buf[r.pos+1])<<8 | int(r.buf[r.pos+2])<<16
		r.pos += 3
		headerLen = 4
	}
	if n < 0 {
		return nil, ErrNegativeLength
	}

	v, err := r.Fixed(n)
	if err != nil {
		return nil, err
	}

	total := headerLen + n
	if rem := total % 4; rem != 0 {
		if _, err := r.Fixed(4 - rem); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// VectorHeader reads the boxed vector magic and returns its element count.
func (r *Reader) VectorHeader() (int, error) {
	if err := r.Magic(MagicVector); err != nil {
		return 0, err
	}
	count, err := r.Int32()
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, ErrNegativeLength
	}
	return int(count), nil
}
