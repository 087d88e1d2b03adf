package catalog

import (
	"time"

	"github.com/luma/lagoon/protocol"
)

const (
	HeatModeOff = iota
	HeatModeSolar
	HeatModeSolarPreferred
	HeatModeHeater
	HeatModeDontChange

	maxLightCommand = 21

	// Client ids registered for pushes live in the gateway's half of the
	// id space.
	MinPushClientID = 32767
	MaxPushClientID = 65535
)

func request(code protocol.Code, w *protocol.Writer) protocol.Message {
	return protocol.NewMessage(code, w.Bytes())
}

func ChallengeRequest() protocol.Message {
	return protocol.NewMessage(protocol.CodeChallenge, nil)
}

// LoginRequest builds the fixed local login. The single pad byte before the
// pid is part of the layout the gateway expects.
func LoginRequest() protocol.Message {
	return request(protocol.CodeLocalLogin, protocol.NewWriter().
		Uint32(le, loginSchema).
		Uint32(le, loginConnectionType).
		String(loginClientVersion).
		String(loginPassword).
		Pad(1).
		Uint32(le, loginPID))
}

func VersionRequest() protocol.Message {
	return protocol.NewMessage(protocol.CodeVersion, nil)
}

func PingRequest() protocol.Message {
	return protocol.NewMessage(protocol.CodePing, nil)
}

func GetDateTimeRequest() protocol.Message {
	return protocol.NewMessage(protocol.CodeGetDateTime, nil)
}

func SetDateTimeRequest(t time.Time, autoDST bool) protocol.Message {
	return request(protocol.CodeSetDateTime, protocol.NewWriter().
		DateTime(t).
		Uint32(le, uint32(boolByte(autoDST))))
}

func PoolStatusRequest() protocol.Message {
	return request(protocol.CodePoolStatus, protocol.NewWriter().Uint32(le, 0))
}

func ControllerConfigRequest() protocol.Message {
	return request(protocol.CodeControllerConfig, protocol.NewWriter().Uint32(le, 0).Uint32(le, 0))
}

func ChemistryDataRequest() protocol.Message {
	return request(protocol.CodeChemistryData, protocol.NewWriter().Uint32(le, 0))
}

func SCGConfigRequest() protocol.Message {
	return request(protocol.CodeSCGConfig, protocol.NewWriter().Uint32(le, 0))
}

func PumpStatusRequest(index int) (protocol.Message, error) {
	if index < 0 || index >= NumPumps {
		return protocol.Message{}, protocol.Validationf("pump index %d outside 0..%d", index, NumPumps-1)
	}

	return request(protocol.CodePumpStatus, protocol.NewWriter().Uint32(le, 0).Uint32(le, uint32(index))), nil
}

// DecodePumpStatus applies a PumpStatus response for the pump at index.
func DecodePumpStatus(msg protocol.Message, index int, s *State) error {
	if index < 0 || index >= NumPumps {
		return protocol.Validationf("pump index %d outside 0..%d", index, NumPumps-1)
	}

	return DecodeWith(decodePumpStatus(index), msg, s)
}

// EncodePumpStatus builds the PumpStatus response payload for the pump at index.
func EncodePumpStatus(index int, s *State) []byte {
	return Encode(&Entry{Code: protocol.CodePumpStatus, Encode: encodePumpStatus(index)}, s)
}

func AddClientRequest(clientID uint32) protocol.Message {
	return request(protocol.CodeAddClient, protocol.NewWriter().Uint32(le, 0).Uint32(le, clientID))
}

func RemoveClientRequest(clientID uint32) protocol.Message {
	return request(protocol.CodeRemoveClient, protocol.NewWriter().Uint32(le, 0).Uint32(le, clientID))
}

// ButtonPressRequest switches a circuit. When the controller config is known the
// circuit must be one it defines.
func ButtonPressRequest(s *State, circuitID uint32, on bool) (protocol.Message, error) {
	if circuitID == 0 {
		return protocol.Message{}, protocol.Validationf("circuit id must be positive")
	}

	var known bool
	s.View(func(s *State) {
		_, exists := s.Circuits[circuitID]
		known = !s.Controller.HasConfig || exists
	})

	if !known {
		return protocol.Message{}, protocol.Validationf("circuit %d is not configured", circuitID)
	}

	return request(protocol.CodeButtonPress, protocol.NewWriter().
		Uint32(le, 0).
		Uint32(le, circuitID).
		Uint32(le, uint32(boolByte(on)))), nil
}

// SetHeatSetpointRequest checks temp against the body's limits from the
// controller config, or the protocol's fallback range before the config is
// loaded.
func SetHeatSetpointRequest(s *State, body int, temp int) (protocol.Message, error) {
	if err := validateBody(body); err != nil {
		return protocol.Message{}, err
	}

	var lo, hi int
	s.View(func(s *State) {
		lo, hi = s.SetpointRange(body)
	})

	if temp < lo || temp > hi {
		return protocol.Message{}, protocol.Validationf("setpoint %d outside %d..%d", temp, lo, hi)
	}

	return request(protocol.CodeSetHeatSetpoint, protocol.NewWriter().
		Uint32(le, 0).
		Uint32(le, uint32(body)).
		Uint32(le, uint32(temp))), nil
}

func SetHeatModeRequest(body int, mode int) (protocol.Message, error) {
	if err := validateBody(body); err != nil {
		return protocol.Message{}, err
	}

	if mode < HeatModeOff || mode > HeatModeDontChange {
		return protocol.Message{}, protocol.Validationf("heat mode %d outside %d..%d", mode, HeatModeOff, HeatModeDontChange)
	}

	return request(protocol.CodeSetHeatMode, protocol.NewWriter().
		Uint32(le, 0).
		Uint32(le, uint32(body)).
		Uint32(le, uint32(mode))), nil
}

func LightCommandRequest(command int) (protocol.Message, error) {
	if command < 0 || command > maxLightCommand {
		return protocol.Message{}, protocol.Validationf("light command %d outside 0..%d", command, maxLightCommand)
	}

	return request(protocol.CodeLightCommand, protocol.NewWriter().
		Uint32(le, 0).
		Uint32(le, uint32(command))), nil
}

func SetSCGConfigRequest(poolPercent, spaPercent int) (protocol.Message, error) {
	if poolPercent < 0 || poolPercent > 100 {
		return protocol.Message{}, protocol.Validationf("pool output %d%% outside 0..100", poolPercent)
	}

	if spaPercent < 0 || spaPercent > 100 {
		return protocol.Message{}, protocol.Validationf("spa output %d%% outside 0..100", spaPercent)
	}

	return request(protocol.CodeSetSCGConfig, protocol.NewWriter().
		Uint32(le, 0).
		Uint32(le, uint32(poolPercent)).
		Uint32(le, uint32(spaPercent)).
		Uint32(le, 0).
		Uint32(le, 0)), nil
}

func validateBody(body int) error {
	if body != BodyPool && body != BodySpa {
		return protocol.Validationf("body %d is neither pool (%d) nor spa (%d)", body, BodyPool, BodySpa)
	}

	return nil
}
