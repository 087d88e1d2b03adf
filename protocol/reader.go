package protocol

import (
	"bytes"
	"encoding/binary"
	"time"

	"golang.org/x/text/encoding/unicode"
)

const utf16Flag = 0x80000000

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Align4 rounds n up to the next multiple of four.
func Align4(n int) int {
	if n%4 == 0 {
		return n
	}

	return n + (4 - n%4)
}

// Reader is a cursor over a payload. Every read advances the position by the
// exact number of bytes consumed, padding included.
//
// The first failed read is remembered and every later read returns a zero value,
// so decoders can read a whole structure and check Err once at the end.
type Reader struct {
	data []byte
	pos  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first error encountered, which is always an ErrMalformed.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) Pos() int {
	return r.pos
}

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}

	if n < 0 || r.Remaining() < n {
		r.err = Malformedf("read of %d bytes at offset %d overruns %d byte payload", n, r.pos, len(r.data))
		return nil
	}

	b := r.data[r.pos : r.pos+n]
	r.pos += n

	return b
}

func (r *Reader) Skip(n int) {
	r.next(n)
}

func (r *Reader) Uint8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}

	return b[0]
}

func (r *Reader) Int8() int8 {
	return int8(r.Uint8())
}

func (r *Reader) Uint16(order binary.ByteOrder) uint16 {
	b := r.next(2)
	if b == nil {
		return 0
	}

	return order.Uint16(b)
}

func (r *Reader) Int16(order binary.ByteOrder) int16 {
	return int16(r.Uint16(order))
}

func (r *Reader) Uint32(order binary.ByteOrder) uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}

	return order.Uint32(b)
}

func (r *Reader) Int32(order binary.ByteOrder) int32 {
	return int32(r.Uint32(order))
}

// String reads a length prefixed, 4-byte padded string. When the high bit of the
// length is set the content is UTF-16LE and the remaining bits count characters.
func (r *Reader) String() string {
	length := r.Uint32(binary.LittleEndian)
	if r.err != nil {
		return ""
	}

	wide := length&utf16Flag != 0
	size := int(length &^ utf16Flag)
	if wide {
		size *= 2
	}

	if size > r.Remaining() {
		r.err = Malformedf("string of %d bytes at offset %d overruns %d byte payload", size, r.pos, len(r.data))
		return ""
	}

	raw := r.next(Align4(size))
	if raw == nil {
		return ""
	}

	content := raw[:size]

	if wide {
		decoded, err := utf16LE.NewDecoder().Bytes(content)
		if err != nil {
			r.err = Malformedf("invalid utf-16 string at offset %d: %v", r.pos, err)
			return ""
		}

		content = decoded
	}

	return string(bytes.TrimRight(content, "\x00"))
}

// Array reads a count prefixed, 4-byte padded byte array.
func (r *Reader) Array() []byte {
	count := int(r.Uint32(binary.LittleEndian))
	if r.err != nil {
		return nil
	}

	raw := r.next(count)
	if raw == nil {
		return nil
	}

	r.Skip(Align4(count) - count)

	out := make([]byte, count)
	copy(out, raw)

	return out
}

// DateTime reads eight little-endian uint16 fields: year, month, weekday, day,
// hour, minute, seconds and millisecond. The weekday is ignored and the gateway
// always sends zero seconds.
func (r *Reader) DateTime() time.Time {
	var f [8]uint16
	for i := range f {
		f[i] = r.Uint16(binary.LittleEndian)
	}

	if r.err != nil {
		return time.Time{}
	}

	return time.Date(
		int(f[0]), time.Month(f[1]), int(f[3]),
		int(f[4]), int(f[5]), int(f[6]),
		int(f[7])*int(time.Millisecond),
		time.Local,
	)
}
