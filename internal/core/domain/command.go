package domain

// ChargerCommand is a request coming from an outer surface (MQTT, HTTP) that
// ends up as a store action.

type ChargerCommand interface {
	ActorRequest
	ChargerCommand() string
}

type ChargerCommandMixIn struct {
	ActorRequestMixIn
}

const (
	COMMAND_SET_CELL_LIMIT       = "set_cell_limit"
	COMMAND_SET_TEMPERATURE_UNIT = "set_temperature_unit"
	COMMAND_REFRESH_STATE        = "refresh_state"
)

type ChargerCommandResponse struct {
	ActorResponseMixIn
	Revision uint64
}

// Charger commands

type SetCellLimitCommand struct {
	ChargerCommandMixIn
	CellLimit int
}

func (SetCellLimitCommand) ChargerCommand() string {
	return COMMAND_SET_CELL_LIMIT
}

type SetTemperatureUnitCommand struct {
	ChargerCommandMixIn
	Celsius bool
}

func (SetTemperatureUnitCommand) ChargerCommand() string {
	return COMMAND_SET_TEMPERATURE_UNIT
}

type RefreshStateCommand struct {
	ChargerCommandMixIn
	Unified RawSnapshot
}

func (RefreshStateCommand) ChargerCommand() string {
	return COMMAND_REFRESH_STATE
}

// ensure interface compliance
var (
	_ ChargerCommand = SetCellLimitCommand{}
	_ ChargerCommand = SetTemperatureUnitCommand{}
	_ ChargerCommand = RefreshStateCommand{}
)
