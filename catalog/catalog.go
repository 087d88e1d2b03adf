package catalog

import (
	"fmt"

	"github.com/luma/lagoon/protocol"
)

// Decoder consumes a payload into the state.
type Decoder func(r *protocol.Reader, s *State)

// Encoder produces a payload from the state. The gateway emulator uses these to
// answer requests and to push changes.
type Encoder func(w *protocol.Writer, s *State)

// Entry describes one message kind. For requests, Decode and Encode apply to the
// response payload.
type Entry struct {
	Code protocol.Code

	// Push marks gateway initiated messages. They are never claimed as a
	// response, even when their id matches a pending transaction.
	Push bool

	// StateChanged marks pushes that update the shared state before listeners
	// are told about them.
	StateChanged bool

	Decode Decoder
	Encode Encoder
}

func (e *Entry) String() string {
	return e.Code.String()
}

var table = buildTable(
	&Entry{Code: protocol.CodeChallenge, Decode: decodeChallenge, Encode: encodeChallenge},
	&Entry{Code: protocol.CodePing},
	&Entry{Code: protocol.CodeLocalLogin},
	&Entry{Code: protocol.CodeGetDateTime, Decode: decodeDateTime, Encode: encodeDateTime},
	&Entry{Code: protocol.CodeSetDateTime},
	&Entry{Code: protocol.CodeVersion, Decode: decodeVersion, Encode: encodeVersion},
	&Entry{Code: protocol.CodeAddClient},
	&Entry{Code: protocol.CodeRemoveClient},
	&Entry{Code: protocol.CodePoolStatus, Decode: decodePoolStatus, Encode: encodePoolStatus},
	&Entry{Code: protocol.CodeSetHeatSetpoint},
	&Entry{Code: protocol.CodeButtonPress},
	&Entry{Code: protocol.CodeControllerConfig, Decode: decodeControllerConfig, Encode: encodeControllerConfig},
	&Entry{Code: protocol.CodeSetHeatMode},
	&Entry{Code: protocol.CodeLightCommand},
	&Entry{Code: protocol.CodeSCGConfig, Decode: decodeSCGConfig, Encode: encodeSCGConfig},
	&Entry{Code: protocol.CodeSetSCGConfig},
	&Entry{Code: protocol.CodePumpStatus},
	&Entry{Code: protocol.CodeChemistryData, Decode: decodeChemistry, Encode: encodeChemistry},

	&Entry{Code: protocol.CodeStatusChanged, Push: true, StateChanged: true, Decode: decodePoolStatus, Encode: encodePoolStatus},
	&Entry{Code: protocol.CodeChemistryChanged, Push: true, StateChanged: true, Decode: decodeChemistry, Encode: encodeChemistry},
	&Entry{Code: protocol.CodeColorUpdate, Push: true},
	&Entry{Code: protocol.CodeWeatherForecastChanged, Push: true},
)

func buildTable(entries ...*Entry) map[protocol.Code]*Entry {
	t := make(map[protocol.Code]*Entry, len(entries))

	for _, e := range entries {
		if _, dup := t[e.Code]; dup {
			panic(fmt.Sprintf("catalog: %s registered twice", e.Code))
		}

		t[e.Code] = e
	}

	return t
}

// Lookup returns the entry registered for a request or push code.
func Lookup(code protocol.Code) (*Entry, bool) {
	e, ok := table[code]
	return e, ok
}

// ForMessage returns the entry whose payload layout a message with the given
// code carries: the push itself, or the request a response answers.
func ForMessage(code protocol.Code) (*Entry, bool) {
	if e, ok := table[code]; ok && e.Push {
		return e, true
	}

	if e, ok := table[code-1]; ok && !e.Push {
		return e, true
	}

	return nil, false
}

// IsPush reports whether code is a known gateway initiated message.
func IsPush(code protocol.Code) bool {
	e, ok := table[code]
	return ok && e.Push
}

// Decode applies msg to the state. The three error replies decode to their
// error. Messages without a registered decoder, including unknown codes, are
// left opaque and succeed.
func Decode(msg protocol.Message, s *State) error {
	if err := protocol.ErrorForCode(msg.Code); err != nil {
		return err
	}

	e, ok := ForMessage(msg.Code)
	if !ok || e.Decode == nil {
		return nil
	}

	return DecodeWith(e.Decode, msg, s)
}

// DecodeWith applies a specific decoder to msg under the state's lock.
func DecodeWith(decode Decoder, msg protocol.Message, s *State) error {
	if err := protocol.ErrorForCode(msg.Code); err != nil {
		return err
	}

	return s.Apply(func(s *State) error {
		r := msg.Reader()
		decode(r, s)

		if err := r.Err(); err != nil {
			return fmt.Errorf("decoding %s: %w", msg.Code, err)
		}

		return nil
	})
}

// Encode builds the payload an entry's response or push carries for the state.
// Entries without an encoder produce an empty payload.
func Encode(e *Entry, s *State) []byte {
	if e.Encode == nil {
		return []byte{}
	}

	w := protocol.NewWriter()
	s.View(func(s *State) {
		e.Encode(w, s)
	})

	return w.Bytes()
}
