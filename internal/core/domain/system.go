package domain

import (
	"encoding/json"
	"maps"
	"math"
	"slices"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	TEMP_UNIT_CELSIUS    = "C"
	TEMP_UNIT_FAHRENHEIT = "F"

	UNITS_CELSIUS    = "°C"
	UNITS_FAHRENHEIT = "°F"

	CAPABILITY_CASE_FAN = "case_fan"
)

// Raw keys reported by the charger system storage.
const (
	KEY_CAPABILITIES   = "capabilities"
	KEY_TEMP_UNIT      = "temp_unit"
	KEY_TEMP_STOP      = "temp_stop"
	KEY_TEMP_REDUCE    = "temp_reduce"
	KEY_TEMP_FANS_ON   = "temp_fans_on"
	KEY_FANS_OFF_DELAY = "fans_off_delay"
	KEY_LCD_BRIGHTNESS = "lcd_brightness"
	KEY_LCD_CONTRAST   = "lcd_contrast"
)

// RawSnapshot is the untyped, JSON compatible mapping delivered by the charger.
type RawSnapshot map[string]any

// System is the typed view over the charger system settings. Values are kept
// as reported and only coerced when read, so a key the charger sent comes back
// unchanged from Raw and JSON until a setter replaces it.
type System struct {
	data RawSnapshot
}

func NewSystem(raw RawSnapshot) *System {
	return NewSystemWithLogger(raw, nil)
}

func NewSystemWithLogger(raw RawSnapshot, logger *zap.Logger) *System {
	sys := &System{data: maps.Clone(raw)}
	if sys.data == nil {
		sys.data = make(RawSnapshot)
	}
	if logger != nil {
		logger.Debug("system@new created",
			zap.Bool("has_capabilities", sys.HasCapabilities()),
			zap.Strings("capabilities", sys.Capabilities()))
	}
	return sys
}

// ParseSystem decodes a JSON document previously produced by System.JSON
// (or sent by the charger) into a System.
func ParseSystem(data []byte) (*System, error) {
	var raw RawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return NewSystem(raw), nil
}

func (s *System) capabilities() (map[string]any, bool) {
	// malformed capabilities are the same as none
	return asMap(s.data[KEY_CAPABILITIES])
}

// Capabilities

func (s *System) HasCapabilities() bool {
	_, ok := s.capabilities()
	return ok
}

func (s *System) HasCapability(name string) bool {
	caps, ok := s.capabilities()
	if !ok {
		return false
	}
	_, ok = caps[name]
	return ok
}

func (s *System) HasCaseFan() bool {
	return s.HasCapability(CAPABILITY_CASE_FAN)
}

// Capabilities returns the sorted capability names, or nil when none are reported.
func (s *System) Capabilities() []string {
	caps, ok := s.capabilities()
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(caps))
}

// Temperature unit

func (s *System) IsCelsius() bool {
	unit, ok := s.data[KEY_TEMP_UNIT].(string)
	return ok && unit == TEMP_UNIT_CELSIUS
}

func (s *System) SetIsCelsius(celsius bool) {
	unit := TEMP_UNIT_FAHRENHEIT
	if celsius {
		unit = TEMP_UNIT_CELSIUS
	}
	s.data[KEY_TEMP_UNIT] = unit
}

func (s *System) UnitsOfMeasure() string {
	return UnitsOfMeasureFor(s.IsCelsius())
}

func UnitsOfMeasureFor(celsius bool) string {
	if celsius {
		return UNITS_CELSIUS
	}
	return UNITS_FAHRENHEIT
}

// Temperatures

func (s *System) TempShutdown() (float64, bool) {
	return s.float(KEY_TEMP_STOP)
}

func (s *System) SetTempShutdown(value float64) {
	s.setFloat(KEY_TEMP_STOP, value)
}

// TempPowerReduce is the power reduction threshold. The charger stores it
// negated and scaled by ten, see TempPowerReduceFromRaw.
func (s *System) TempPowerReduce() (float64, bool) {
	raw, ok := s.float(KEY_TEMP_REDUCE)
	if !ok {
		return 0, false
	}
	return TempPowerReduceFromRaw(raw), true
}

func (s *System) SetTempPowerReduce(value float64) {
	if !finite(value) {
		return
	}
	s.data[KEY_TEMP_REDUCE] = TempPowerReduceToRaw(value)
}

func (s *System) TempFansOn() (float64, bool) {
	return s.float(KEY_TEMP_FANS_ON)
}

func (s *System) SetTempFansOn(value float64) {
	s.setFloat(KEY_TEMP_FANS_ON, value)
}

func (s *System) FansOffTime() (float64, bool) {
	return s.float(KEY_FANS_OFF_DELAY)
}

func (s *System) SetFansOffTime(value float64) {
	s.setFloat(KEY_FANS_OFF_DELAY, value)
}

// Display

func (s *System) Brightness() (float64, bool) {
	return s.float(KEY_LCD_BRIGHTNESS)
}

func (s *System) SetBrightness(value float64) {
	s.setFloat(KEY_LCD_BRIGHTNESS, value)
}

func (s *System) Contrast() (float64, bool) {
	return s.float(KEY_LCD_CONTRAST)
}

func (s *System) SetContrast(value float64) {
	s.setFloat(KEY_LCD_CONTRAST, value)
}

// Copy and serialization

// Clone returns a System that shares no storage with s.
func (s *System) Clone() *System {
	data := maps.Clone(s.data)
	if caps, ok := s.capabilities(); ok {
		data[KEY_CAPABILITIES] = maps.Clone(caps)
	}
	return &System{data: data}
}

// Raw returns a copy of the raw mapping, capabilities included.
func (s *System) Raw() RawSnapshot {
	return s.Clone().data
}

// JSON encodes the settings for persistence. Capabilities are reported by the
// charger and can't be saved, so they are always left out.
func (s *System) JSON() (string, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *System) MarshalJSON() ([]byte, error) {
	raw := maps.Clone(s.data)
	delete(raw, KEY_CAPABILITIES)
	return json.Marshal(raw)
}

// TempPowerReduceFromRaw converts the stored deci-unit, negated value.
func TempPowerReduceFromRaw(raw float64) float64 {
	return -raw / 10.0
}

// TempPowerReduceToRaw is the inverse of TempPowerReduceFromRaw, rounded to
// the nearest deci-unit.
func TempPowerReduceToRaw(value float64) int {
	return int(math.Round(value * -10.0))
}

func (s *System) float(key string) (float64, bool) {
	return coerceFloat(s.data[key])
}

// setFloat ignores NaN and infinities, they have no JSON encoding.
func (s *System) setFloat(key string, value float64) {
	if !finite(value) {
		return
	}
	s.data[key] = value
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func coerceFloat(value any) (float64, bool) {
	switch value.(type) {
	case nil, bool:
		return 0, false
	}
	v, err := cast.ToFloat64E(value)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

func asMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case RawSnapshot:
		return m, true
	}
	return nil, false
}
