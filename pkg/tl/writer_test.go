package tl

import (
	"bytes"
	"testing"
)

func TestIntRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Int32(-123456)
	w.Uint32(0xdeadbeef)
	w.Int64(-1)
	w.Uint64(0x0102030405060708)

	r := NewReader(w.Bytes())
	i32, err := r.Int32()
	if err != nil || i32 != -123456 {
		t.Fatalf("Int32 = %d, %v, want -123456, nil", i32, err)
	}
	u32, err := r.Uint32()
	if err != nil || u32 != 0xdeadbeef {
		t.Fatalf("Uint32 = %x, %v, want deadbeef, nil", u32, err)
	}
	i64, err := r.Int64()
	if err != nil || i64 != -1 {
		t.Fatalf("Int64 = %d, %v, want -1, nil", i64, err)
	}
	u64, err := r.Uint64()
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("Uint64 = %x, %v, want 0102030405060708, nil", u64, err)
	}
	if err := r.Done(); err != nil {
		t.Fatalf("Done: %v", err)
	}
}

func TestBytesRoundTripShort(t *testing.T) {
	for _, n := range []int{0, 1, 3, 4, 32, 64, 253} {
		data := bytes.Repeat([]byte{0xab}, n)
		w := NewWriter()
		w.PutBytes(data)
		if w.buf.Len()%4 != 0 {
			t.Fatalf("n=%d: stream not padded to 4 bytes, len=%d", n, w.buf.Len())
		}
		r := NewReader(w.Bytes())
		got, err := r.Bytes()
		if err != nil {
			t.Fatalf("n=%d: Bytes: %v", n, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("n=%d: got %x, want %x", n, got, data)
		}
		if err := r.Done(); err != nil {
			t.Fatalf("n=%d: Done: %v", n, err)
		}
	}
}

func TestBytesRoundTripLong(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 300)
	w := NewWriter()
	w.PutBytes(data)

	r := NewReader(w.Bytes())
	got, err := r.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %d bytes, want %d", len(got), len(data))
	}
}

func TestFixedRoundTrip(t *testing.T) {
	w := NewWriter()
	key := bytes.Repeat([]byte{0x07}, 32)
	w.Fixed(key)

	r := NewReader(w.Bytes())
	got, err := r.Fixed(32)
	if err != nil {
		t.Fatalf("Fixed: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Errorf("got %x, want %x", got, key)
	}
}

func TestMagicMismatch(t *testing.T) {
	w := NewWriter()
	w.Magic(MagicBlock)

	r := NewReader(w.Bytes())
	if err := r.Magic(MagicGroupState); err != ErrBadMagic {
		t.Errorf("Magic mismatch = %v, want ErrBadMagic", err)
	}
}

func TestVectorHeaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.VectorHeader(3)

	r := NewReader(w.Bytes())
	count, err := r.VectorHeader()
	if err != nil {
		t.Fatalf("VectorHeader: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestUnexpectedEOF(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.Uint32(); err != ErrUnexpectedEOF {
		t.Errorf("got %v, want ErrUnexpectedEOF", err)
	}
}

func TestTrailingData(t *testing.T) {
	w := NewWriter()
	w.Int32(1)
	w.Int32(2)

	r := NewReader(w.Bytes())
	if _, err := r.Int32(); err != nil {
		t.Fatalf("Int32: %v", err)
	}
	if err := r.Done(); err != ErrTrailingData {
		t.Errorf("Done = %v, want ErrTrailingData", err)
	}
}
