package catalog

import (
	"fmt"

	"github.com/luma/lagoon/protocol"
)

func decodeSCGConfig(r *protocol.Reader, s *State) {
	g := &s.SCG
	g.Installed = r.Uint32(le) != 0
	g.Status = r.Uint32(le)
	g.PoolPercent = r.Uint32(le)
	g.SpaPercent = r.Uint32(le)
	g.SaltPPM = r.Uint32(le) * 50
	g.Flags = r.Uint32(le)
	g.SuperChlorTimer = r.Uint32(le)
}

func encodeSCGConfig(w *protocol.Writer, s *State) {
	g := s.SCG
	w.Uint32(le, uint32(boolByte(g.Installed))).
		Uint32(le, g.Status).
		Uint32(le, g.PoolPercent).
		Uint32(le, g.SpaPercent).
		Uint32(le, g.SaltPPM/50).
		Uint32(le, g.Flags).
		Uint32(le, g.SuperChlorTimer)
}

// decodePumpStatus returns a decoder for one pump, since the pump index is only
// carried by the request.
func decodePumpStatus(index int) Decoder {
	return func(r *protocol.Reader, s *State) {
		p := Pump{
			Present: true,
			Type:    r.Uint32(le),
			On:      r.Uint32(le) != 0,
			Watts:   r.Uint32(le),
			RPM:     r.Uint32(le),
		}

		section := fmt.Sprintf("pump_%d", index)
		s.unknown(section, "reserved_0", int64(r.Uint32(le)))
		p.GPM = r.Uint32(le)
		s.unknown(section, "reserved_1", int64(r.Uint32(le)))

		for i := range p.Presets {
			p.Presets[i] = PumpPreset{
				CircuitID: r.Uint32(le),
				Speed:     r.Uint32(le),
				IsRPM:     r.Uint32(le) != 0,
			}
		}

		if r.Err() == nil {
			s.Pumps[index] = p
		}
	}
}

func encodePumpStatus(index int) Encoder {
	return func(w *protocol.Writer, s *State) {
		p := s.Pumps[index]
		section := fmt.Sprintf("pump_%d", index)
		w.Uint32(le, p.Type).
			Uint32(le, uint32(boolByte(p.On))).
			Uint32(le, p.Watts).
			Uint32(le, p.RPM).
			Uint32(le, uint32(s.Unknown[section+".reserved_0"])).
			Uint32(le, p.GPM).
			Uint32(le, uint32(s.Unknown[section+".reserved_1"]))

		for _, preset := range p.Presets {
			w.Uint32(le, preset.CircuitID).
				Uint32(le, preset.Speed).
				Uint32(le, uint32(boolByte(preset.IsRPM)))
		}
	}
}
