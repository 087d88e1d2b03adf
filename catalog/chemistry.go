package catalog

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/luma/lagoon/protocol"
)

// The chemistry controller family sends its multi-byte readings big-endian.
var be = binary.BigEndian

// chemistrySentinel leads every chemistry payload.
const chemistrySentinel = 42

// decodeChemistry handles both the ChemistryData response and the
// ChemistryChanged push.
func decodeChemistry(r *protocol.Reader, s *State) {
	s.unknown("chemistry", "sentinel", int64(r.Uint32(le)))
	s.unknown("chemistry", "reserved_0", int64(r.Uint8()))

	c := &s.Chemistry
	c.PH = float64(r.Uint16(be)) / 100
	c.ORP = int(r.Uint16(be))
	c.PHSetpoint = float64(r.Uint16(be)) / 100
	c.ORPSetpoint = int(r.Uint16(be))
	c.PHDoseTime = r.Uint32(be)
	c.ORPDoseTime = r.Uint32(be)
	c.PHDoseVolume = r.Uint16(be)
	c.ORPDoseVolume = r.Uint16(be)
	c.PHSupplyLevel = r.Uint8()
	c.ORPSupplyLevel = r.Uint8()
	c.SaturationIndex = saturationIndex(r.Uint8())
	c.CalciumHardness = r.Uint16(be)
	c.CyanuricAcid = r.Uint16(be)
	c.TotalAlkalinity = r.Uint16(be)
	c.SaltPPM = int(r.Uint8()) * 50
	c.ProbeTemperature = r.Uint8()
	c.Alarms = r.Uint8()
	c.Alerts = r.Uint8()
	c.DoseStatus = r.Uint8()
	c.Flags = r.Uint8()

	minor := r.Uint8()
	major := r.Uint8()
	c.Firmware = fmt.Sprintf("%d.%03d", major, minor)

	c.Balance = r.Uint8()

	for _, field := range []string{"reserved_1", "reserved_2", "reserved_3"} {
		s.unknown("chemistry", field, int64(r.Uint8()))
	}
}

func encodeChemistry(w *protocol.Writer, s *State) {
	c := s.Chemistry

	var major, minor uint8
	_, _ = fmt.Sscanf(c.Firmware, "%d.%d", &major, &minor)

	w.Uint32(le, chemistrySentinel).
		Uint8(uint8(s.Unknown["chemistry.reserved_0"])).
		Uint16(be, uint16(math.Round(c.PH*100))).
		Uint16(be, uint16(c.ORP)).
		Uint16(be, uint16(math.Round(c.PHSetpoint*100))).
		Uint16(be, uint16(c.ORPSetpoint)).
		Uint32(be, c.PHDoseTime).
		Uint32(be, c.ORPDoseTime).
		Uint16(be, c.PHDoseVolume).
		Uint16(be, c.ORPDoseVolume).
		Uint8(c.PHSupplyLevel).
		Uint8(c.ORPSupplyLevel).
		Uint8(saturationByte(c.SaturationIndex)).
		Uint16(be, c.CalciumHardness).
		Uint16(be, c.CyanuricAcid).
		Uint16(be, c.TotalAlkalinity).
		Uint8(uint8(c.SaltPPM/50)).
		Uint8(c.ProbeTemperature).
		Uint8(c.Alarms).
		Uint8(c.Alerts).
		Uint8(c.DoseStatus).
		Uint8(c.Flags).
		Uint8(minor).
		Uint8(major).
		Uint8(c.Balance)

	for _, field := range []string{"reserved_1", "reserved_2", "reserved_3"} {
		w.Uint8(uint8(s.Unknown["chemistry."+field]))
	}
}

// saturationIndex decodes the signed saturation index, sent as an unsigned
// byte in hundredths.
func saturationIndex(raw uint8) float64 {
	v := int(raw)
	if v&0x80 != 0 {
		v -= 256
	}

	return float64(v) / 100
}

func saturationByte(si float64) uint8 {
	return uint8(int8(math.Round(si * 100)))
}
