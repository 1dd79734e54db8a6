package actor

import (
	"testing"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/util"
	"github.com/berfenger/icharger2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	es := eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, logger) })
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, resp.Healthy)

	state := domain.NewAppState(domain.ChargerConfig{IPAddress: "127.0.0.1", Port: 80, CellLimit: 5})
	state.Connection.Connected = true
	es.Publish(domain.StateChangedEvent{Action: domain.SetCellLimit{CellLimit: 5}, State: state})

	sys := domain.NewSystem(domain.RawSnapshot{
		domain.KEY_TEMP_UNIT:    domain.TEMP_UNIT_CELSIUS,
		domain.KEY_TEMP_STOP:    float64(70),
		domain.KEY_CAPABILITIES: map[string]any{},
	})
	state.System = sys
	es.Publish(domain.StateChangedEvent{Action: domain.UpdateSystem{System: sys}, State: state})

	require.Eventually(t, func() bool {
		result, err := context.RequestFuture(pid, GetPublishedRequest{}, time.Second).Result()
		if err != nil {
			return false
		}
		published := result.(GetPublishedResponse).Published
		return published["icharger/number/cell_limit/state"] == "5" &&
			published["icharger/binary_sensor/charger_presence/state"] == "on" &&
			published["icharger/sensor/temp_shutdown/state"] == "70.0" &&
			published["icharger/switch/temp_unit_celsius/state"] == "on" &&
			published["icharger/binary_sensor/case_fan/state"] == "off"
	}, 2*time.Second, 50*time.Millisecond)

	context.Stop(pid)

	time.Sleep(500 * time.Millisecond)

	as.Shutdown()
}
