package protocol

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the length of the id, code and payload length prefix.
	HeaderSize = 8

	// MaxPayloadSize bounds the payload length a peer may declare.
	MaxPayloadSize = 1 << 20

	// MaxClientID is the largest id a client allocates. The upper half of the
	// id space belongs to the gateway.
	MaxClientID = 32766
)

// PrimingToken is written once, immediately after connecting and before any
// framed message.
var PrimingToken = []byte("CONNECTSERVERHOST\r\n\r\n")

// Message is one framed unit of the protocol in either direction.
type Message struct {
	ID      uint16
	Code    Code
	Payload []byte
}

// NewMessage builds a message with an empty id, for the correlator to assign.
func NewMessage(code Code, payload []byte) Message {
	return Message{Code: code, Payload: payload}
}

// Length is the payload length declared in the header.
func (m Message) Length() uint32 {
	return uint32(len(m.Payload))
}

// Marshal encodes the header followed by the payload.
func (m Message) Marshal() []byte {
	b := make([]byte, HeaderSize+len(m.Payload))
	binary.LittleEndian.PutUint16(b[0:2], m.ID)
	binary.LittleEndian.PutUint16(b[2:4], uint16(m.Code))
	binary.LittleEndian.PutUint32(b[4:8], m.Length())
	copy(b[HeaderSize:], m.Payload)

	return b
}

// Reader returns a cursor over the payload.
func (m Message) Reader() *Reader {
	return NewReader(m.Payload)
}

func (m Message) String() string {
	return fmt.Sprintf("Message{id=%d, code=%s, len=%d}", m.ID, m.Code, len(m.Payload))
}

// Header is the fixed prefix of every message.
type Header struct {
	ID     uint16
	Code   Code
	Length uint32
}

// PeekHeader decodes the header at the start of data without consuming it. The
// caller must supply at least HeaderSize bytes.
func PeekHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, Malformedf("header needs %d bytes, have %d", HeaderSize, len(data))
	}

	h := Header{
		ID:     binary.LittleEndian.Uint16(data[0:2]),
		Code:   Code(binary.LittleEndian.Uint16(data[2:4])),
		Length: binary.LittleEndian.Uint32(data[4:8]),
	}

	if h.Length > MaxPayloadSize {
		return h, Malformedf("%s declares %d payload bytes, limit is %d", h.Code, h.Length, MaxPayloadSize)
	}

	return h, nil
}

// Unmarshal decodes exactly one message from data.
func Unmarshal(data []byte) (Message, error) {
	h, err := PeekHeader(data)
	if err != nil {
		return Message{}, err
	}

	if uint32(len(data)-HeaderSize) != h.Length {
		return Message{}, Malformedf("%s declares %d payload bytes, have %d",
			h.Code, h.Length, len(data)-HeaderSize)
	}

	payload := make([]byte, h.Length)
	copy(payload, data[HeaderSize:])

	return Message{ID: h.ID, Code: h.Code, Payload: payload}, nil
}
