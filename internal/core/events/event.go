package events

import (
	. "github.com/berfenger/icharger2mqtt/internal/core/domain"
)

// SystemToUpdateEvents converts the system settings into sensor updates.
// Settings the charger did not report are skipped.
func SystemToUpdateEvents(sys *System) []SensorUpdateEvent {
	if sys == nil {
		return nil
	}
	var events []SensorUpdateEvent

	// Temperatures, in the unit the charger is set to
	if v, ok := sys.TempShutdown(); ok {
		events = append(events, NewFloatSensorUpdate(SENSOR_ID_TEMP_SHUTDOWN, v, 1))
	}
	if v, ok := sys.TempPowerReduce(); ok {
		events = append(events, NewFloatSensorUpdate(SENSOR_ID_TEMP_POWER_REDUCE, v, 1))
	}
	events = append(events, NewSwitchSensorUpdate(SWITCH_ID_TEMP_UNIT_CELSIUS, sys.IsCelsius()))

	// Fans
	if sys.HasCaseFan() {
		if v, ok := sys.TempFansOn(); ok {
			events = append(events, NewFloatSensorUpdate(SENSOR_ID_TEMP_FANS_ON, v, 1))
		}
		if v, ok := sys.FansOffTime(); ok {
			events = append(events, NewFloatSensorUpdate(SENSOR_ID_FANS_OFF_TIME, v, 0))
		}
	}
	if sys.HasCapabilities() {
		events = append(events, NewBinarySensorUpdate(SENSOR_ID_CASE_FAN, sys.HasCaseFan()))
	}

	// Display
	if v, ok := sys.Brightness(); ok {
		events = append(events, NewFloatSensorUpdate(SENSOR_ID_BRIGHTNESS, v, 0))
	}
	if v, ok := sys.Contrast(); ok {
		events = append(events, NewFloatSensorUpdate(SENSOR_ID_CONTRAST, v, 0))
	}

	return events
}

// ChargerStateToUpdateEvents reports the presence of the charger and the
// configured cell limit.
func ChargerStateToUpdateEvents(state AppState) []SensorUpdateEvent {
	return []SensorUpdateEvent{
		NewBinarySensorUpdate(SENSOR_ID_CHARGER_PRESENCE, state.Connection.Connected),
		NewTextSensorUpdate(SENSOR_ID_CHARGER_ERROR, state.Connection.Error),
		NewInputNumberSensorUpdate(INPUT_NUMBER_ID_CELL_LIMIT, float64(state.Config.CellLimit), 0),
	}
}

// StateChangedToUpdateEvents selects the sensor updates affected by the action
// that produced the state change.
func StateChangedToUpdateEvents(ev StateChangedEvent) []SensorUpdateEvent {
	switch ev.Action.(type) {
	case UpdateSystem:
		return SystemToUpdateEvents(ev.State.System)
	case UpdateStateFromCharger, UpdateConnectionState, UpdateConfig, SetCellLimit:
		return ChargerStateToUpdateEvents(ev.State)
	}
	return nil
}
