package protocol

import (
	"encoding/binary"
	"time"
)

// Writer builds a payload field by field. It never fails; range checks belong
// to the caller.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Pad(n int) *Writer {
	w.buf = append(w.buf, make([]byte, n)...)
	return w
}

func (w *Writer) Uint8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) Int8(v int8) *Writer {
	return w.Uint8(uint8(v))
}

func (w *Writer) Uint16(order binary.ByteOrder, v uint16) *Writer {
	var b [2]byte
	order.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

func (w *Writer) Int16(order binary.ByteOrder, v int16) *Writer {
	return w.Uint16(order, uint16(v))
}

func (w *Writer) Uint32(order binary.ByteOrder, v uint32) *Writer {
	var b [4]byte
	order.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

func (w *Writer) Int32(order binary.ByteOrder, v int32) *Writer {
	return w.Uint32(order, uint32(v))
}

// String writes s as UTF-8 with its length prefix and padding.
func (w *Writer) String(s string) *Writer {
	w.Uint32(binary.LittleEndian, uint32(len(s)))
	w.buf = append(w.buf, s...)
	return w.Pad(Align4(len(s)) - len(s))
}

// WideString writes s as UTF-16LE, flagging the length prefix accordingly.
// Invalid UTF-8 in s is replaced rather than rejected.
func (w *Writer) WideString(s string) *Writer {
	encoded, err := utf16LE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		encoded = nil
	}

	w.Uint32(binary.LittleEndian, uint32(len(encoded)/2)|utf16Flag)
	w.buf = append(w.buf, encoded...)
	return w.Pad(Align4(len(encoded)) - len(encoded))
}

func (w *Writer) Array(b []byte) *Writer {
	w.Uint32(binary.LittleEndian, uint32(len(b)))
	w.buf = append(w.buf, b...)
	return w.Pad(Align4(len(b)) - len(b))
}

// DateTime writes t in the eight field layout Reader.DateTime reads. The
// seconds slot is a placeholder and is always written as zero.
func (w *Writer) DateTime(t time.Time) *Writer {
	fields := []int{
		t.Year(), int(t.Month()), int(t.Weekday()), t.Day(),
		t.Hour(), t.Minute(), 0, t.Nanosecond() / int(time.Millisecond),
	}

	for _, f := range fields {
		w.Uint16(binary.LittleEndian, uint16(f))
	}

	return w
}
