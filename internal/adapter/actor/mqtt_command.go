package actor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/mqtt"
)

const CHARGER_DOCUMENT_UNIFIED = "unified"

// ParsedMQTTCommandToCommand maps a command topic to a charger command.
// Unknown devices yield a nil command and no error.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ChargerCommand, error) {
	switch {
	case cmd.Command == mqtt.COMMAND_NUMBER && cmd.DeviceId == domain.INPUT_NUMBER_ID_CELL_LIMIT:
		value, err := strconv.ParseFloat(cmd.Payload, 64)
		if err != nil {
			return nil, err
		}
		if value != math.Trunc(value) || value < 0 || value > domain.MAX_CELL_LIMIT {
			return nil, fmt.Errorf("invalid cell limit %q", cmd.Payload)
		}
		return domain.SetCellLimitCommand{
			CellLimit: int(value),
		}, nil
	case cmd.Command == mqtt.COMMAND_SWITCH && cmd.DeviceId == domain.SWITCH_ID_TEMP_UNIT_CELSIUS:
		return domain.SetTemperatureUnitCommand{
			Celsius: cmd.Payload == mqtt.MQTT_PAYLOAD_ON,
		}, nil
	case cmd.Command == mqtt.COMMAND_CHARGER && cmd.DeviceId == CHARGER_DOCUMENT_UNIFIED:
		var unified domain.RawSnapshot
		if err := json.Unmarshal([]byte(cmd.Payload), &unified); err != nil {
			return nil, err
		}
		return domain.RefreshStateCommand{
			Unified: unified,
		}, nil
	}
	return nil, nil
}
