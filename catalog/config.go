package catalog

import (
	"fmt"

	"github.com/luma/lagoon/protocol"
)

func decodeControllerConfig(r *protocol.Reader, s *State) {
	c := &s.Controller
	c.ID = r.Uint32(le)

	c.SetpointLimits[BodyPool][0] = int(r.Uint8())
	c.SetpointLimits[BodyPool][1] = int(r.Uint8())
	c.SetpointLimits[BodySpa][0] = int(r.Uint8())
	c.SetpointLimits[BodySpa][1] = int(r.Uint8())

	c.IsCelsius = r.Uint8() != 0
	c.Type = r.Uint8()
	c.HardwareType = r.Uint8()
	c.Data = r.Uint8()
	c.EquipmentFlags = r.Uint32(le)
	c.GenericCircuitName = r.String()

	circuitCount := int(r.Uint32(le))
	seen := make(map[uint32]bool, circuitCount)

	for i := 0; i < circuitCount && r.Err() == nil; i++ {
		def := Circuit{
			ID:             r.Uint32(le),
			Name:           r.String(),
			NameIndex:      r.Uint8(),
			Function:       r.Uint8(),
			Interface:      r.Uint8(),
			Flags:          r.Uint8(),
			ColorSet:       r.Uint8(),
			ColorPosition:  r.Uint8(),
			ColorStagger:   r.Uint8(),
			DeviceID:       r.Uint8(),
			DefaultRuntime: r.Uint16(le),
		}

		section := circuitSection(def.ID)
		s.unknown(section, "reserved_0", int64(r.Uint8()))
		s.unknown(section, "reserved_1", int64(r.Uint8()))

		if r.Err() != nil {
			break
		}

		circuit := s.circuit(def.ID)
		def.On = circuit.On
		def.Delay = circuit.Delay
		*circuit = def
		seen[def.ID] = true
	}

	colorCount := int(r.Uint32(le))
	colors := make([]Color, 0)

	for i := 0; i < colorCount && r.Err() == nil; i++ {
		colors = append(colors, Color{
			Name: r.String(),
			R:    r.Uint32(le),
			G:    r.Uint32(le),
			B:    r.Uint32(le),
		})
	}

	for i := range c.PumpFlags {
		c.PumpFlags[i] = r.Uint8()
	}

	c.InterfaceTabFlags = r.Uint32(le)
	c.ShowAlarms = r.Uint32(le)

	if r.Err() != nil {
		return
	}

	// The config is authoritative for which circuits exist
	for id := range s.Circuits {
		if !seen[id] {
			delete(s.Circuits, id)
			delete(s.Unknown, circuitSection(id)+".reserved_0")
			delete(s.Unknown, circuitSection(id)+".reserved_1")
		}
	}

	for i, flag := range c.PumpFlags {
		s.Pumps[i].Present = flag != 0
	}

	s.Colors = colors
	c.HasConfig = true
}

func encodeControllerConfig(w *protocol.Writer, s *State) {
	c := s.Controller
	w.Uint32(le, c.ID)

	for body := 0; body < NumBodies; body++ {
		w.Uint8(uint8(c.SetpointLimits[body][0])).Uint8(uint8(c.SetpointLimits[body][1]))
	}

	w.Uint8(boolByte(c.IsCelsius)).
		Uint8(c.Type).
		Uint8(c.HardwareType).
		Uint8(c.Data).
		Uint32(le, c.EquipmentFlags).
		String(c.GenericCircuitName)

	ids := s.circuitIDs()
	w.Uint32(le, uint32(len(ids)))
	for _, id := range ids {
		circuit := s.Circuits[id]
		section := circuitSection(id)
		w.Uint32(le, id).
			String(circuit.Name).
			Uint8(circuit.NameIndex).
			Uint8(circuit.Function).
			Uint8(circuit.Interface).
			Uint8(circuit.Flags).
			Uint8(circuit.ColorSet).
			Uint8(circuit.ColorPosition).
			Uint8(circuit.ColorStagger).
			Uint8(circuit.DeviceID).
			Uint16(le, circuit.DefaultRuntime).
			Uint8(uint8(s.Unknown[section+".reserved_0"])).
			Uint8(uint8(s.Unknown[section+".reserved_1"]))
	}

	w.Uint32(le, uint32(len(s.Colors)))
	for _, color := range s.Colors {
		w.String(color.Name).Uint32(le, color.R).Uint32(le, color.G).Uint32(le, color.B)
	}

	for _, flag := range c.PumpFlags {
		w.Uint8(flag)
	}

	w.Uint32(le, c.InterfaceTabFlags).Uint32(le, c.ShowAlarms)
}

// circuitSection keys the reserved slots of one circuit definition.
func circuitSection(id uint32) string {
	return fmt.Sprintf("circuit_%d", id)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}

	return 0
}
