package transport

import (
	"github.com/luma/lagoon/protocol"
)

// Framer turns a byte stream that arrives in arbitrary chunks into whole
// messages. It is not safe for concurrent use; each connection owns one.
type Framer struct {
	buf []byte
}

// Feed appends chunk to the accumulator and returns every message it now
// completes, in stream order. Bytes of an incomplete trailing message are kept
// for the next call.
//
// An error means the stream can no longer be trusted and the connection should
// be dropped. Messages completed before the bad header are still returned.
func (f *Framer) Feed(chunk []byte) ([]protocol.Message, error) {
	f.buf = append(f.buf, chunk...)

	var (
		messages []protocol.Message
		offset   int
	)

	for len(f.buf)-offset >= protocol.HeaderSize {
		header, err := protocol.PeekHeader(f.buf[offset:])
		if err != nil {
			f.compact(offset)
			return messages, err
		}

		end := offset + protocol.HeaderSize + int(header.Length)
		if len(f.buf) < end {
			break
		}

		payload := make([]byte, header.Length)
		copy(payload, f.buf[offset+protocol.HeaderSize:end])

		messages = append(messages, protocol.Message{
			ID:      header.ID,
			Code:    header.Code,
			Payload: payload,
		})

		offset = end
	}

	f.compact(offset)

	return messages, nil
}

// Buffered is the number of bytes held for an incomplete message.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Reset discards any buffered partial message.
func (f *Framer) Reset() {
	f.buf = nil
}

func (f *Framer) compact(offset int) {
	if offset == 0 {
		return
	}

	n := copy(f.buf, f.buf[offset:])
	f.buf = f.buf[:n]
}
