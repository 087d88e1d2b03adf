package catalog

import (
	"github.com/luma/lagoon/protocol"
)

// Fixed local login parameters. The gateway does not authenticate local
// connections; it only checks their shape.
const (
	loginSchema         = 348
	loginConnectionType = 0
	loginClientVersion  = "Android"
	loginPassword       = "0000000000000000"
	loginPID            = 2
)

func decodeChallenge(r *protocol.Reader, s *State) {
	s.Adapter.MAC = r.String()
}

func encodeChallenge(w *protocol.Writer, s *State) {
	w.String(s.Adapter.MAC)
}

func decodeVersion(r *protocol.Reader, s *State) {
	s.Adapter.Firmware = r.String()
}

func encodeVersion(w *protocol.Writer, s *State) {
	w.String(s.Adapter.Firmware)
}

func decodeDateTime(r *protocol.Reader, s *State) {
	s.Controller.DateTime = r.DateTime()
	s.Controller.AutoDST = r.Uint32(le) != 0
}

func encodeDateTime(w *protocol.Writer, s *State) {
	w.DateTime(s.Controller.DateTime).Uint32(le, uint32(boolByte(s.Controller.AutoDST)))
}

// DecodeString decodes a response whose payload starts with a single string,
// such as Version and Challenge.
func DecodeString(msg protocol.Message) (string, error) {
	if err := protocol.ErrorForCode(msg.Code); err != nil {
		return "", err
	}

	r := msg.Reader()
	v := r.String()

	return v, r.Err()
}

// ColorUpdate is the progress report pushed while lights cycle through a
// color program.
type ColorUpdate struct {
	Mode     uint32
	Progress uint32
	Limit    uint32
	Text     string
}

func DecodeColorUpdate(msg protocol.Message) (ColorUpdate, error) {
	r := msg.Reader()
	u := ColorUpdate{
		Mode:     r.Uint32(le),
		Progress: r.Uint32(le),
		Limit:    r.Uint32(le),
		Text:     r.String(),
	}

	return u, r.Err()
}

func EncodeColorUpdate(u ColorUpdate) []byte {
	return protocol.NewWriter().
		Uint32(le, u.Mode).
		Uint32(le, u.Progress).
		Uint32(le, u.Limit).
		String(u.Text).
		Bytes()
}
