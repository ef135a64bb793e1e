package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortBuffer is the sticky error set by any read past the end of the data.
var ErrShortBuffer = errors.New("wire: read past end of buffer")

// Reader consumes a little-endian binary buffer field by field. The first
// failed read sets a sticky error; every later read returns a zero value.
// Callers check Err once after the last field instead of after every read.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) fail(n int) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d of %d", ErrShortBuffer, n, r.off, len(r.data))
	}
}

// ReadU8 reads 1 byte.
func (r *Reader) ReadU8() uint8 {
	if r.err != nil {
		return 0
	}
	if r.off+1 > len(r.data) {
		r.fail(1)
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadU16 reads 2 bytes little-endian.
func (r *Reader) ReadU16() uint16 {
	if r.err != nil {
		return 0
	}
	if r.off+2 > len(r.data) {
		r.fail(2)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadU32 reads 4 bytes little-endian.
func (r *Reader) ReadU32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.off+4 > len(r.data) {
		r.fail(4)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

// ReadBool reads 1 byte; any nonzero value is true.
func (r *Reader) ReadBool() bool {
	return r.ReadU8() != 0
}

// ReadString reads a u16 length prefix and that many UTF-8 bytes.
func (r *Reader) ReadString() string {
	n := int(r.ReadU16())
	if r.err != nil {
		return ""
	}
	if r.off+n > len(r.data) {
		r.fail(n)
		return ""
	}
	s := string(r.data[r.off : r.off+n])
	r.off += n
	return s
}

// ReadBytes reads a u32 length prefix and that many raw bytes. The returned
// slice is a copy.
func (r *Reader) ReadBytes() []byte {
	n := int(r.ReadU32())
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.fail(n)
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// Err returns the sticky error, nil if every read so far was in bounds.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
