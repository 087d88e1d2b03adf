package catalog

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

const (
	BodyPool = 0
	BodySpa  = 1

	NumBodies = 2
	NumPumps  = 8

	// Fallback setpoint range used before the controller config is known.
	MinSetpoint = 40
	MaxSetpoint = 104
)

// State is the decoded picture of the gateway that responses and pushes are
// applied to. Decoders mutate it in place; callers go through Apply, View and
// Update, which hold the lock.
type State struct {
	mu sync.RWMutex

	Adapter    Adapter
	Controller Controller
	Bodies     [NumBodies]Body
	Circuits   map[uint32]*Circuit
	Colors     []Color
	Pumps      [NumPumps]Pump
	Chemistry  Chemistry
	SCG        SaltGenerator

	// Unknown holds reserved slots keyed by "section.field", kept for protocol
	// discovery.
	Unknown map[string]int64
}

func NewState() *State {
	return &State{
		Circuits: make(map[uint32]*Circuit),
		Unknown:  make(map[string]int64),
	}
}

type Adapter struct {
	MAC      string
	Firmware string
}

type Controller struct {
	ID                 uint32
	Type               uint8
	HardwareType       uint8
	Data               uint8
	IsCelsius          bool
	EquipmentFlags     uint32
	GenericCircuitName string
	InterfaceTabFlags  uint32
	ShowAlarms         uint32
	PumpFlags          [NumPumps]byte

	// Setpoint limits as [min, max], indexed by body.
	SetpointLimits [NumBodies][2]int
	HasConfig      bool

	Ready          uint32
	FreezeMode     uint8
	Remotes        uint8
	PoolDelay      uint8
	SpaDelay       uint8
	CleanerDelay   uint8
	AirTemperature int32

	DateTime time.Time
	AutoDST  bool
}

// TemperatureUnit is the unit every temperature of the controller is reported in.
func (c Controller) TemperatureUnit() string {
	if c.IsCelsius {
		return "°C"
	}

	return "°F"
}

type Body struct {
	Present            bool
	Type               uint32
	CurrentTemperature int32
	HeatStatus         int32
	HeatSetpoint       int32
	CoolSetpoint       int32
	HeatMode           int32
}

type Circuit struct {
	ID             uint32
	Name           string
	NameIndex      uint8
	Function       uint8
	Interface      uint8
	Flags          uint8
	ColorSet       uint8
	ColorPosition  uint8
	ColorStagger   uint8
	DeviceID       uint8
	DefaultRuntime uint16
	Delay          uint8
	On             bool
}

type Color struct {
	Name    string
	R, G, B uint32
}

type PumpPreset struct {
	CircuitID uint32
	Speed     uint32
	IsRPM     bool
}

type Pump struct {
	Present bool
	Type    uint32
	On      bool
	Watts   uint32
	RPM     uint32
	GPM     uint32
	Presets [8]PumpPreset
}

type Chemistry struct {
	PH               float64
	ORP              int
	PHSetpoint       float64
	ORPSetpoint      int
	PHDoseTime       uint32
	ORPDoseTime      uint32
	PHDoseVolume     uint16
	ORPDoseVolume    uint16
	PHSupplyLevel    uint8
	ORPSupplyLevel   uint8
	SaturationIndex  float64
	CalciumHardness  uint16
	CyanuricAcid     uint16
	TotalAlkalinity  uint16
	SaltPPM          int
	ProbeTemperature uint8
	Alarms           uint8
	Alerts           uint8
	DoseStatus       uint8
	Flags            uint8
	Firmware         string
	Balance          uint8

	// Readings carried by the pool status message.
	StatusPH         float64
	StatusORP        int32
	StatusSaturation float64
	StatusSaltPPM    int32
	PHTank           int32
	ORPTank          int32
	StatusAlarms     int32
}

type SaltGenerator struct {
	Installed       bool
	Status          uint32
	PoolPercent     uint32
	SpaPercent      uint32
	SaltPPM         uint32
	Flags           uint32
	SuperChlorTimer uint32
}

// Apply calls fn with the write lock held.
func (s *State) Apply(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s)
}

// View calls fn with the read lock held. fn must not retain s.
func (s *State) View(fn func(*State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn(s)
}

func (s *State) circuit(id uint32) *Circuit {
	c, ok := s.Circuits[id]
	if !ok {
		c = &Circuit{ID: id}
		s.Circuits[id] = c
	}

	return c
}

func (s *State) circuitIDs() []uint32 {
	ids := make([]uint32, 0, len(s.Circuits))
	for id := range s.Circuits {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *State) unknown(section, field string, v int64) {
	s.Unknown[fmt.Sprintf("%s.%s", section, field)] = v
}

// SetpointRange returns the allowed heat setpoint range for a body.
func (s *State) SetpointRange(body int) (int, int) {
	if !s.Controller.HasConfig {
		return MinSetpoint, MaxSetpoint
	}

	limits := s.Controller.SetpointLimits[body]
	return limits[0], limits[1]
}
