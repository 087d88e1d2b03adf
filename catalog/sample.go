package catalog

import "time"

// SampleState returns a plausible single body-pair system. The emulator serves
// it by default.
func SampleState() *State {
	s := NewState()

	s.Adapter = Adapter{MAC: "00-C0-33-01-02-03", Firmware: "POOL: 5.2 Build 736.0 Rel"}

	s.Controller = Controller{
		ID:                 100,
		Type:               13,
		HardwareType:       0,
		EquipmentFlags:     0x8032,
		GenericCircuitName: "Water Features",
		PumpFlags:          [NumPumps]byte{0x80, 0x80},
		SetpointLimits:     [NumBodies][2]int{{40, 104}, {40, 104}},
		HasConfig:          true,
		Ready:              1,
		AirTemperature:     71,
		DateTime:           time.Date(2024, time.June, 1, 12, 30, 0, 0, time.Local),
		AutoDST:            true,
	}

	s.Bodies[BodyPool] = Body{Present: true, Type: 0, CurrentTemperature: 82, HeatSetpoint: 84, CoolSetpoint: 100, HeatMode: HeatModeHeater}
	s.Bodies[BodySpa] = Body{Present: true, Type: 1, CurrentTemperature: 98, HeatSetpoint: 102, CoolSetpoint: 104, HeatMode: HeatModeOff}

	for _, c := range []Circuit{
		{ID: 500, Name: "Spa", NameIndex: 71, Function: 1, Interface: 1, DefaultRuntime: 720},
		{ID: 501, Name: "Cleaner", NameIndex: 21, Function: 5, Interface: 5, DefaultRuntime: 240},
		{ID: 505, Name: "Pool", NameIndex: 61, Function: 2, Interface: 0, DefaultRuntime: 720, On: true},
		{ID: 506, Name: "Pool Light", NameIndex: 62, Function: 16, Interface: 3, ColorSet: 2, DefaultRuntime: 720},
	} {
		c := c
		s.Circuits[c.ID] = &c
	}

	s.Colors = []Color{
		{Name: "White", R: 255, G: 255, B: 255},
		{Name: "Light Green", R: 160, G: 255, B: 160},
		{Name: "Cyan", R: 0, G: 255, B: 200},
		{Name: "Magenta", R: 255, G: 64, B: 255},
	}

	s.Pumps[0] = Pump{Present: true, Type: 2, On: true, Watts: 1024, RPM: 2450, GPM: 255,
		Presets: [8]PumpPreset{{CircuitID: 505, Speed: 2450, IsRPM: true}, {CircuitID: 500, Speed: 3100, IsRPM: true}}}
	s.Pumps[1] = Pump{Present: true, Type: 1, Presets: [8]PumpPreset{{CircuitID: 501, Speed: 30}}}

	s.Chemistry = Chemistry{
		PH:               7.52,
		ORP:              720,
		PHSetpoint:       7.5,
		ORPSetpoint:      700,
		PHSupplyLevel:    3,
		ORPSupplyLevel:   2,
		SaturationIndex:  -0.12,
		CalciumHardness:  300,
		CyanuricAcid:     40,
		TotalAlkalinity:  90,
		SaltPPM:          3250,
		ProbeTemperature: 82,
		Firmware:         "1.060",
		StatusPH:         7.52,
		StatusORP:        720,
		StatusSaturation: -0.12,
		StatusSaltPPM:    3250,
		PHTank:           3,
		ORPTank:          2,
	}

	s.SCG = SaltGenerator{Installed: true, Status: 1, PoolPercent: 50, SpaPercent: 0, SaltPPM: 3250}

	return s
}
