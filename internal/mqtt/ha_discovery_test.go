package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *MQTTClient {
	cfg := util.LoadTestConfig()
	return CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)
}

func TestBinarySensorDiscovery(t *testing.T) {

	assert := assert.New(t)

	client := testClient()
	device := domain.ChargerDevice(domain.ChargerConfig{IPAddress: "10.0.0.1", Port: 80})
	sensor := domain.ChargerSensors(device)[0]

	msg := GenericSensorToHADiscoveryMessage(client, sensor)
	assert.Equal("icharger/binary_sensor/charger_presence/state", msg.StateTopic)
	assert.Equal(MQTT_PAYLOAD_ON, msg.PayloadOn)
	assert.Equal(MQTT_PAYLOAD_OFF, msg.PayloadOff)
	assert.Equal("icharger/bridge/state", msg.AvTopic)
	assert.Equal("homeassistant/binary_sensor/"+device.Id+"/charger_presence/config",
		HADiscoverySensorTopic(client.HADiscoveryPrefix(), sensor))
}

func TestInputNumberDiscoveryKeepsZeroMin(t *testing.T) {

	require := require.New(t)

	client := testClient()
	number := domain.ChargerInputNumbers(domain.ChargerDevice(domain.ChargerConfig{IPAddress: "10.0.0.1", Port: 80}), 6)[0]

	payload, err := json.Marshal(GenericInputNumberToHADiscoveryMessage(client, number))
	require.NoError(err)

	var decoded map[string]any
	require.NoError(json.Unmarshal(payload, &decoded))
	require.Equal(float64(0), decoded["min"])
	require.Equal(float64(domain.MAX_CELL_LIMIT), decoded["max"])
	require.Equal("icharger/number/cell_limit/set", decoded["command_topic"])
	require.Equal("config", decoded["entity_category"])
}
