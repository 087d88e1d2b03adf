package catalog

import (
	"encoding/binary"
	"math"

	"github.com/luma/lagoon/protocol"
)

var le = binary.LittleEndian

// decodePoolStatus handles both the PoolStatus response and the StatusChanged
// push, which share a layout.
func decodePoolStatus(r *protocol.Reader, s *State) {
	c := &s.Controller
	c.Ready = r.Uint32(le)
	c.FreezeMode = r.Uint8()
	c.Remotes = r.Uint8()
	c.PoolDelay = r.Uint8()
	c.SpaDelay = r.Uint8()
	c.CleanerDelay = r.Uint8()

	for _, field := range []string{"reserved_0", "reserved_1", "reserved_2"} {
		s.unknown("status", field, int64(r.Uint8()))
	}

	c.AirTemperature = r.Int32(le)

	bodyCount := int(r.Uint32(le))
	for i := 0; i < bodyCount && r.Err() == nil; i++ {
		body := Body{
			Present:            true,
			Type:               r.Uint32(le),
			CurrentTemperature: r.Int32(le),
			HeatStatus:         r.Int32(le),
			HeatSetpoint:       r.Int32(le),
			CoolSetpoint:       r.Int32(le),
			HeatMode:           r.Int32(le),
		}

		if i < NumBodies && r.Err() == nil {
			s.Bodies[i] = body
		}
	}

	if r.Err() == nil {
		for i := bodyCount; i < NumBodies; i++ {
			s.Bodies[i] = Body{}
		}
	}

	circuitCount := int(r.Uint32(le))
	for i := 0; i < circuitCount && r.Err() == nil; i++ {
		id := r.Uint32(le)
		value := r.Uint32(le)
		colorSet := r.Uint8()
		colorPos := r.Uint8()
		colorStagger := r.Uint8()
		delay := r.Uint8()

		if r.Err() != nil {
			break
		}

		circuit := s.circuit(id)
		circuit.On = value != 0
		circuit.ColorSet = colorSet
		circuit.ColorPosition = colorPos
		circuit.ColorStagger = colorStagger
		circuit.Delay = delay
	}

	chem := &s.Chemistry
	chem.StatusPH = float64(r.Int32(le)) / 100
	chem.StatusORP = r.Int32(le)
	chem.StatusSaturation = float64(r.Int32(le)) / 100
	chem.StatusSaltPPM = r.Int32(le) * 50
	chem.PHTank = r.Int32(le)
	chem.ORPTank = r.Int32(le)
	chem.StatusAlarms = r.Int32(le)
}

func encodePoolStatus(w *protocol.Writer, s *State) {
	c := s.Controller
	w.Uint32(le, c.Ready).
		Uint8(c.FreezeMode).
		Uint8(c.Remotes).
		Uint8(c.PoolDelay).
		Uint8(c.SpaDelay).
		Uint8(c.CleanerDelay)

	for _, field := range []string{"reserved_0", "reserved_1", "reserved_2"} {
		w.Uint8(uint8(s.Unknown["status."+field]))
	}

	w.Int32(le, c.AirTemperature)

	bodies := make([]Body, 0, NumBodies)
	for _, b := range s.Bodies {
		if b.Present {
			bodies = append(bodies, b)
		}
	}

	w.Uint32(le, uint32(len(bodies)))
	for _, b := range bodies {
		w.Uint32(le, b.Type).
			Int32(le, b.CurrentTemperature).
			Int32(le, b.HeatStatus).
			Int32(le, b.HeatSetpoint).
			Int32(le, b.CoolSetpoint).
			Int32(le, b.HeatMode)
	}

	ids := s.circuitIDs()
	w.Uint32(le, uint32(len(ids)))
	for _, id := range ids {
		circuit := s.Circuits[id]
		var on uint32
		if circuit.On {
			on = 1
		}

		w.Uint32(le, id).
			Uint32(le, on).
			Uint8(circuit.ColorSet).
			Uint8(circuit.ColorPosition).
			Uint8(circuit.ColorStagger).
			Uint8(circuit.Delay)
	}

	chem := s.Chemistry
	w.Int32(le, int32(math.Round(chem.StatusPH*100))).
		Int32(le, chem.StatusORP).
		Int32(le, int32(math.Round(chem.StatusSaturation*100))).
		Int32(le, chem.StatusSaltPPM/50).
		Int32(le, chem.PHTank).
		Int32(le, chem.ORPTank).
		Int32(le, chem.StatusAlarms)
}
