package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "github.com/berfenger/icharger2mqtt/internal/adapter/actor"
	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/core/service"
	"github.com/berfenger/icharger2mqtt/internal/mqtt"
	"github.com/berfenger/icharger2mqtt/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnTestMaster(t *testing.T, f *storeFixture, client *fakeChargerClient) *actor.PID {
	cfg := util.LoadTestConfig()
	cfg.Charger.PollIntervalMillis = 200
	cfg.MQTT.HADiscoveryEnable = true

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, f.store, f.storePID, f.es, func(actions *service.ChargerActions) actor.Actor {
			return NewChargerPollerActor(cfg.Charger, client, actions, f.logger)
		}, func(es *eventstream.EventStream) actor.Actor {
			return adactor.NewTestMQTTActor(&cfg, es, f.logger)
		}, f.logger)
	})
	pid, err := f.system.Root.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	return pid
}

func TestMasterActor(t *testing.T) {

	f := newStoreFixture(t, nil)
	client := &fakeChargerClient{
		unified: domain.RawSnapshot{"model": "4010 DUO"},
		system:  domain.RawSnapshot{domain.KEY_TEMP_UNIT: domain.TEMP_UNIT_CELSIUS},
	}
	pid := spawnTestMaster(t, f, client)

	time.Sleep(1 * time.Second)

	res, err := f.system.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	require.Eventually(t, func() bool {
		state, err := f.store.GetState()
		return err == nil && state.Charger.Snapshot["model"] == "4010 DUO"
	}, 3*time.Second, 50*time.Millisecond)

	f.system.Root.Stop(pid)
}

func TestMasterChargerCommands(t *testing.T) {

	require := require.New(t)

	f := newStoreFixture(t, nil)
	pid := spawnTestMaster(t, f, &fakeChargerClient{unified: domain.RawSnapshot{}})

	res, err := f.system.Root.RequestFuture(pid, domain.SetCellLimitCommand{CellLimit: 3}, 2*time.Second).Result()
	require.NoError(err)
	cmdResp, ok := res.(domain.ChargerCommandResponse)
	require.True(ok)
	require.NoError(cmdResp.GetResponseError())
	require.NotZero(cmdResp.Revision)

	state, err := f.store.GetState()
	require.NoError(err)
	require.Equal(3, state.Config.CellLimit)

	res, err = f.system.Root.RequestFuture(pid, domain.SetCellLimitCommand{CellLimit: 99}, 2*time.Second).Result()
	require.NoError(err)
	require.ErrorIs(res.(domain.ChargerCommandResponse).GetResponseError(), service.ErrInvalidCellLimit)

	res, err = f.system.Root.RequestFuture(pid, domain.SetTemperatureUnitCommand{Celsius: true}, 2*time.Second).Result()
	require.NoError(err)
	require.NoError(res.(domain.ChargerCommandResponse).GetResponseError())
	state, _ = f.store.GetState()
	require.True(state.System.IsCelsius())

	f.system.Root.Stop(pid)
}

func TestMasterMQTTCommands(t *testing.T) {

	require := require.New(t)

	f := newStoreFixture(t, nil)
	pid := spawnTestMaster(t, f, &fakeChargerClient{unified: domain.RawSnapshot{}})

	f.system.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: domain.INPUT_NUMBER_ID_CELL_LIMIT,
		Command:  mqtt.COMMAND_NUMBER,
		Payload:  "4",
	}})
	f.system.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: adactor.CHARGER_DOCUMENT_UNIFIED,
		Command:  mqtt.COMMAND_CHARGER,
		Payload:  `{"model": "308 DUO"}`,
	}})

	require.Eventually(func() bool {
		state, err := f.store.GetState()
		return err == nil && state.Config.CellLimit == 4 && state.Charger.Snapshot["model"] == "308 DUO"
	}, 2*time.Second, 50*time.Millisecond)

	// the MQTT actor follows the store
	mqttPID := actor.NewPID(f.system.Address(), fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_MQTT))
	require.Eventually(func() bool {
		res, err := f.system.Root.RequestFuture(mqttPID, adactor.GetPublishedRequest{}, time.Second).Result()
		if err != nil {
			return false
		}
		published := res.(adactor.GetPublishedResponse).Published
		return published["icharger/number/cell_limit/state"] == "4"
	}, 2*time.Second, 50*time.Millisecond)

	f.system.Root.Stop(pid)
}
