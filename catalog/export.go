package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/luma/lagoon/storage"
)

type leaf struct {
	key string
	storage.Leaf
}

// Export writes the state into store as category.attribute leaves of
// {name, value, unit}. Instances of repeated equipment get their own level,
// e.g. "circuit.circuit_500.on".
func Export(ctx context.Context, s *State, store storage.Store) (err error) {
	var leaves []leaf
	s.View(func(s *State) {
		leaves = s.leaves()
	})

	for _, l := range leaves {
		err = multierr.Append(err, store.Set(ctx, []byte(l.key), l.Leaf))
	}

	return err
}

func (s *State) leaves() []leaf {
	temp := s.Controller.TemperatureUnit()
	var out []leaf

	add := func(key, name string, value interface{}, unit string) {
		out = append(out, leaf{key: key, Leaf: storage.Leaf{Name: name, Value: value, Unit: unit}})
	}

	add("adapter.mac", "MAC Address", s.Adapter.MAC, "")
	add("adapter.firmware", "Firmware", s.Adapter.Firmware, "")

	c := s.Controller
	add("controller.controller_id", "Controller ID", c.ID, "")
	add("controller.controller_type", "Controller Type", c.Type, "")
	add("controller.hardware_type", "Hardware Type", c.HardwareType, "")
	add("controller.is_celsius", "Celsius", c.IsCelsius, "")
	add("controller.equipment_flags", "Equipment Flags", c.EquipmentFlags, "")
	add("controller.generic_circuit_name", "Generic Circuit Name", c.GenericCircuitName, "")
	add("controller.pump_flags", "Pump Flags", storage.EncodeBytes(c.PumpFlags[:]), "")
	add("controller.ready", "Ready", c.Ready, "")
	add("controller.freeze_mode", "Freeze Mode", c.FreezeMode, "")
	add("controller.remotes", "Remotes", c.Remotes, "")
	add("controller.pool_delay", "Pool Delay", c.PoolDelay, "")
	add("controller.spa_delay", "Spa Delay", c.SpaDelay, "")
	add("controller.cleaner_delay", "Cleaner Delay", c.CleanerDelay, "")
	add("controller.air_temperature", "Air Temperature", c.AirTemperature, temp)
	if !c.DateTime.IsZero() {
		add("controller.date_time", "Date/Time", c.DateTime.Format(time.RFC3339), "")
		add("controller.auto_dst", "Automatic DST", c.AutoDST, "")
	}

	for i, b := range s.Bodies {
		if !b.Present {
			continue
		}

		prefix := "body." + bodyName(i)
		lo, hi := s.SetpointRange(i)
		add(prefix+".body_type", "Type", b.Type, "")
		add(prefix+".current_temperature", "Current Temperature", b.CurrentTemperature, temp)
		add(prefix+".heat_status", "Heat Status", b.HeatStatus, "")
		add(prefix+".heat_setpoint", "Heat Setpoint", b.HeatSetpoint, temp)
		add(prefix+".cool_setpoint", "Cool Setpoint", b.CoolSetpoint, temp)
		add(prefix+".heat_mode", "Heat Mode", b.HeatMode, "")
		add(prefix+".setpoint_range", "Setpoint Range", storage.EncodeTuple(int64(lo), int64(hi)), temp)
	}

	for _, id := range s.circuitIDs() {
		circuit := s.Circuits[id]
		prefix := fmt.Sprintf("circuit.circuit_%d", id)
		add(prefix+".name", "Name", circuit.Name, "")
		add(prefix+".function", "Function", circuit.Function, "")
		add(prefix+".interface", "Interface", circuit.Interface, "")
		add(prefix+".on", "State", circuit.On, "")
		add(prefix+".color", "Color", storage.EncodeTuple(
			int64(circuit.ColorSet), int64(circuit.ColorPosition), int64(circuit.ColorStagger)), "")
		add(prefix+".default_runtime", "Default Runtime", circuit.DefaultRuntime, "min")
		add(prefix+".delay", "Delay", circuit.Delay, "")
	}

	for i, color := range s.Colors {
		add(fmt.Sprintf("color.color_%d", i), color.Name,
			storage.EncodeTuple(int64(color.R), int64(color.G), int64(color.B)), "")
	}

	for i, p := range s.Pumps {
		if !p.Present {
			continue
		}

		prefix := fmt.Sprintf("pump.pump_%d", i)
		add(prefix+".pump_type", "Type", p.Type, "")
		add(prefix+".on", "State", p.On, "")
		add(prefix+".watts", "Watts", p.Watts, "W")
		add(prefix+".rpm", "RPM", p.RPM, "rpm")
		add(prefix+".gpm", "GPM", p.GPM, "gpm")
	}

	chem := s.Chemistry
	add("chemistry.ph", "pH", chem.PH, "pH")
	add("chemistry.orp", "ORP", chem.ORP, "mV")
	add("chemistry.ph_setpoint", "pH Setpoint", chem.PHSetpoint, "pH")
	add("chemistry.orp_setpoint", "ORP Setpoint", chem.ORPSetpoint, "mV")
	add("chemistry.ph_dose_time", "pH Dose Time", chem.PHDoseTime, "sec")
	add("chemistry.orp_dose_time", "ORP Dose Time", chem.ORPDoseTime, "sec")
	add("chemistry.ph_dose_volume", "pH Dose Volume", chem.PHDoseVolume, "mL")
	add("chemistry.orp_dose_volume", "ORP Dose Volume", chem.ORPDoseVolume, "mL")
	add("chemistry.ph_supply_level", "pH Supply Level", chem.PHSupplyLevel, "")
	add("chemistry.orp_supply_level", "ORP Supply Level", chem.ORPSupplyLevel, "")
	add("chemistry.saturation", "Saturation Index", chem.SaturationIndex, "lsi")
	add("chemistry.calcium_hardness", "Calcium Hardness", chem.CalciumHardness, "ppm")
	add("chemistry.cya", "Cyanuric Acid", chem.CyanuricAcid, "ppm")
	add("chemistry.total_alkalinity", "Total Alkalinity", chem.TotalAlkalinity, "ppm")
	add("chemistry.salt_tds_ppm", "Salt/TDS", chem.SaltPPM, "ppm")
	add("chemistry.probe_temperature", "Probe Temperature", chem.ProbeTemperature, temp)
	add("chemistry.alarms", "Alarms", chem.Alarms, "")
	add("chemistry.alerts", "Alerts", chem.Alerts, "")
	add("chemistry.firmware", "Firmware", chem.Firmware, "")
	add("chemistry.status_ph", "pH (status)", chem.StatusPH, "pH")
	add("chemistry.status_orp", "ORP (status)", chem.StatusORP, "mV")
	add("chemistry.status_saturation", "Saturation Index (status)", chem.StatusSaturation, "lsi")
	add("chemistry.status_salt_ppm", "Salt (status)", chem.StatusSaltPPM, "ppm")
	add("chemistry.ph_tank", "pH Tank Level", chem.PHTank, "")
	add("chemistry.orp_tank", "ORP Tank Level", chem.ORPTank, "")

	if s.SCG.Installed {
		g := s.SCG
		add("scg.status", "Status", g.Status, "")
		add("scg.pool_setpoint", "Pool Output", g.PoolPercent, "%")
		add("scg.spa_setpoint", "Spa Output", g.SpaPercent, "%")
		add("scg.salt_ppm", "Salt", g.SaltPPM, "ppm")
		add("scg.super_chlor_timer", "Super Chlorination Timer", g.SuperChlorTimer, "hr")
	}

	for key, v := range s.Unknown {
		add("unknown."+key, key, v, "")
	}

	return out
}

func bodyName(body int) string {
	if body == BodySpa {
		return "spa"
	}

	return "pool"
}
