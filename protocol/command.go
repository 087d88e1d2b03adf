package protocol

import "fmt"

// Code identifies the kind of a message. A response conventionally carries the
// code of its request plus one.
type Code uint16

const (
	CodeLoginRejected  Code = 13
	CodeChallenge      Code = 14
	CodePing           Code = 16
	CodeLocalLogin     Code = 27
	CodeInvalidRequest Code = 30
	CodeBadParameter   Code = 31

	CodeGetDateTime Code = 8110
	CodeSetDateTime Code = 8112
	CodeVersion     Code = 8120

	CodeWeatherForecastChanged Code = 9806

	CodeStatusChanged    Code = 12500
	CodeColorUpdate      Code = 12504
	CodeChemistryChanged Code = 12505
	CodeAddClient        Code = 12522
	CodeRemoveClient     Code = 12524
	CodePoolStatus       Code = 12526
	CodeSetHeatSetpoint  Code = 12528
	CodeButtonPress      Code = 12530
	CodeControllerConfig Code = 12532
	CodeSetHeatMode      Code = 12538
	CodeLightCommand     Code = 12556
	CodeSCGConfig        Code = 12572
	CodeSetSCGConfig     Code = 12576
	CodePumpStatus       Code = 12584
	CodeChemistryData    Code = 12592
)

var codeNames = map[Code]string{
	CodeLoginRejected:          "LoginRejected",
	CodeChallenge:              "Challenge",
	CodePing:                   "Ping",
	CodeLocalLogin:             "LocalLogin",
	CodeInvalidRequest:         "InvalidRequest",
	CodeBadParameter:           "BadParameter",
	CodeGetDateTime:            "GetDateTime",
	CodeSetDateTime:            "SetDateTime",
	CodeVersion:                "Version",
	CodeWeatherForecastChanged: "WeatherForecastChanged",
	CodeStatusChanged:          "StatusChanged",
	CodeColorUpdate:            "ColorUpdate",
	CodeChemistryChanged:       "ChemistryChanged",
	CodeAddClient:              "AddClient",
	CodeRemoveClient:           "RemoveClient",
	CodePoolStatus:             "PoolStatus",
	CodeSetHeatSetpoint:        "SetHeatSetpoint",
	CodeButtonPress:            "ButtonPress",
	CodeControllerConfig:       "ControllerConfig",
	CodeSetHeatMode:            "SetHeatMode",
	CodeLightCommand:           "LightCommand",
	CodeSCGConfig:              "SCGConfig",
	CodeSetSCGConfig:           "SetSCGConfig",
	CodePumpStatus:             "PumpStatus",
	CodeChemistryData:          "ChemistryData",
}

// Response returns the code a successful reply to c carries.
func (c Code) Response() Code {
	return c + 1
}

// IsError reports whether c is one of the protocol level error replies.
func (c Code) IsError() bool {
	switch c {
	case CodeLoginRejected, CodeInvalidRequest, CodeBadParameter:
		return true
	}

	return false
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	if name, ok := codeNames[c-1]; ok && !(c - 1).IsError() {
		return name + "Response"
	}

	return fmt.Sprintf("Code(%d)", uint16(c))
}
