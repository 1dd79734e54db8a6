package actor

import (
	"errors"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/config"
	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// HADiscoveryActor publishes Home Assistant discovery once the store and
// MQTT are healthy, and again whenever the system settings change the set
// of sensors (temperature unit or case fan).
type HADiscoveryActor struct {
	config           *config.Config
	behavior         actor.Behavior
	stash            *actorutil.Stash
	storeActor       *actor.PID
	mqttActor        *actor.PID
	eventStream      *eventstream.EventStream
	subscription     *eventstream.Subscription
	storeHealthy     bool
	mqttActorHealthy bool
	healthyRecv      int
	systemSignature  string

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, storeActor *actor.PID, mqttActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:      config,
		storeActor:  storeActor,
		mqttActor:   mqttActor,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check store and MQTT actor healthy
		state.healthyRecv = 0
		state.storeHealthy = false
		state.mqttActorHealthy = false
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.storeActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_STORE,
				Healthy: false,
			}
		})
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting stash", actorutil.LogStash(msg))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_STORE:
				state.storeHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {
			if state.storeHealthy && state.mqttActorHealthy {
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.storeActor, domain.GetStateRequest{}, 2*time.Second), func(err error) any {
					return domain.GetStateResponse{
						ActorResponseMixIn: domain.ErrorResponse(err),
					}
				})
				state.behavior.Become(state.WaitingStateReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Store Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck stash", actorutil.LogStash(msg))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingStateReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetStateResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@state GetStateResponse", zap.Uint64("revision", msg.State.Revision))

		state.publishBase(ctx, msg.State)
		if msg.State.System != nil {
			state.publishSystem(ctx, msg.State.Config, msg.State.System)
		}

		// follow system changes
		root := ctx.ActorSystem().Root
		self := ctx.Self()
		state.subscription = state.eventStream.Subscribe(func(evt any) {
			if isSystemChange(evt) {
				root.Send(self, evt)
			}
		})
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("hadiscovery@state stash", actorutil.LogStash(msg))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.StateChangedEvent:
		if msg.State.System != nil {
			state.publishSystem(ctx, msg.State.Config, msg.State.System)
		}
	case *actor.Stopping, *actor.Restarting:
		if state.subscription != nil {
			state.eventStream.Unsubscribe(state.subscription)
			state.subscription = nil
		}
	default:
		state.logger.Debug("hadiscovery@default unknown message", actorutil.LogStash(msg))
	}
}

func (state *HADiscoveryActor) publishBase(ctx actor.Context, appState domain.AppState) {
	bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
	chargerDevice := domain.ChargerDevice(appState.Config)
	chargerDevice.ViaDevice = bridgeDevice.Id

	var sensors []domain.GenericSensor
	sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)
	chargerSensors := domain.ChargerSensors(chargerDevice)
	for i := range chargerSensors {
		if i > 0 {
			chargerSensors[i].Device = domain.IdDevice(chargerDevice)
		}
		sensors = append(sensors, chargerSensors[i])
	}

	ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
		Sensors:      sensors,
		Switches:     domain.ChargerSwitches(domain.IdDevice(chargerDevice)),
		InputNumbers: domain.ChargerInputNumbers(domain.IdDevice(chargerDevice), appState.Config.CellLimit),
	})
}

func (state *HADiscoveryActor) publishSystem(ctx actor.Context, cfg domain.ChargerConfig, sys *domain.System) {
	signature := systemSignature(sys)
	if signature == state.systemSignature {
		return
	}
	state.logger.Debug("hadiscovery@default system sensors changed", zap.String("signature", signature))
	state.systemSignature = signature

	ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
		Sensors: domain.SystemSensors(domain.IdDevice(domain.ChargerDevice(cfg)), sys),
	})
}

func systemSignature(sys *domain.System) string {
	signature := sys.UnitsOfMeasure()
	if sys.HasCaseFan() {
		signature += "+fan"
	}
	return signature
}

func isSystemChange(evt any) bool {
	changed, ok := evt.(domain.StateChangedEvent)
	return ok && changed.Action.ActionType() == domain.ACTION_UPDATE_SYSTEM
}
