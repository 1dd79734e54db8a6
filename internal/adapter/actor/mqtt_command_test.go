package actor

import (
	"testing"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/mqtt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellLimitCommand(t *testing.T) {

	require := require.New(t)

	cmd, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: domain.INPUT_NUMBER_ID_CELL_LIMIT,
		Command:  mqtt.COMMAND_NUMBER,
		Payload:  "8",
	})
	require.NoError(err)
	require.Equal(domain.SetCellLimitCommand{CellLimit: 8}, cmd)
	require.Equal(domain.COMMAND_SET_CELL_LIMIT, cmd.ChargerCommand())

	for _, payload := range []string{"2.5", "-1", "11", "many"} {
		_, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
			DeviceId: domain.INPUT_NUMBER_ID_CELL_LIMIT,
			Command:  mqtt.COMMAND_NUMBER,
			Payload:  payload,
		})
		require.Error(err, payload)
	}
}

func TestTemperatureUnitCommand(t *testing.T) {

	assert := assert.New(t)

	cmd, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: domain.SWITCH_ID_TEMP_UNIT_CELSIUS,
		Command:  mqtt.COMMAND_SWITCH,
		Payload:  mqtt.MQTT_PAYLOAD_ON,
	})
	assert.NoError(err)
	assert.Equal(domain.SetTemperatureUnitCommand{Celsius: true}, cmd)

	cmd, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: domain.SWITCH_ID_TEMP_UNIT_CELSIUS,
		Command:  mqtt.COMMAND_SWITCH,
		Payload:  mqtt.MQTT_PAYLOAD_OFF,
	})
	assert.NoError(err)
	assert.Equal(domain.SetTemperatureUnitCommand{Celsius: false}, cmd)
}

func TestRefreshStateCommand(t *testing.T) {

	require := require.New(t)

	cmd, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: CHARGER_DOCUMENT_UNIFIED,
		Command:  mqtt.COMMAND_CHARGER,
		Payload:  `{"model": "4010 DUO"}`,
	})
	require.NoError(err)
	refresh, ok := cmd.(domain.RefreshStateCommand)
	require.True(ok)
	require.Equal("4010 DUO", refresh.Unified["model"])
}

func TestUnknownCommand(t *testing.T) {

	cmd, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "lorem",
		Command:  mqtt.COMMAND_SWITCH,
		Payload:  mqtt.MQTT_PAYLOAD_ON,
	})
	assert.NoError(t, err)
	assert.Nil(t, cmd)
}
