package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/core/service"
	"github.com/berfenger/icharger2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

var ErrNilAction = errors.New("nil action")

// StoreActor owns the application state. Every action goes through its
// mailbox, so dispatches never interleave.
type StoreActor struct {
	behavior    actor.Behavior
	state       domain.AppState
	eventStream *eventstream.EventStream
	now         func() time.Time

	logger *zap.Logger
}

func NewStoreActor(initial domain.AppState, eventStream *eventstream.EventStream, logger *zap.Logger) *StoreActor {
	act := &StoreActor{
		behavior:    actor.NewBehavior(),
		state:       initial,
		eventStream: eventStream,
		now:         time.Now,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_STORE, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *StoreActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *StoreActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("store@default started", zap.Uint64("revision", state.state.Revision))
	case domain.ActorHealthRequest:
		state.logger.Debug("store@default ActorHealthRequest")
		actorutil.ForRequest(msg).Respond(ctx, domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_STORE,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetStateRequest:
		actorutil.ForRequest(msg).Respond(ctx, domain.GetStateResponse{
			State: state.state.Copy(),
		})
	case domain.DispatchRequest:
		rev, err := state.dispatch(msg.Action)
		actorutil.ForRequest(msg).Respond(ctx, domain.DispatchResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
			Revision:           rev,
		})
	case domain.DispatchWithRequest:
		rev, err := state.dispatchWith(msg.Build)
		actorutil.ForRequest(msg).Respond(ctx, domain.DispatchResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
			Revision:           rev,
		})
	case *actor.Stopping, *actor.Stopped, *actor.Restarting:
	default:
		state.logger.Debug("store@default unknown message", actorutil.LogStash(msg))
	}
}

func (state *StoreActor) dispatchWith(build func(domain.AppState) domain.Action) (rev uint64, err error) {
	if build == nil {
		return state.state.Revision, ErrNilAction
	}
	var action domain.Action
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("action builder failed: %v", r)
			}
		}()
		action = build(state.state.Copy())
	}()
	if err != nil {
		state.logger.Error("store@default DispatchWithRequest builder error", zap.Error(err))
		return state.state.Revision, err
	}
	return state.dispatch(action)
}

func (state *StoreActor) dispatch(action domain.Action) (uint64, error) {
	if action == nil {
		return state.state.Revision, ErrNilAction
	}
	next := service.Reduce(state.state, action)
	if action.ActionType() == domain.ACTION_UPDATE_STATE_FROM_CHARGER {
		next.Charger.UpdatedAt = state.now()
	}
	state.state = next
	state.logger.Debug("store@default dispatched",
		zap.String("action", action.ActionType()),
		zap.Uint64("revision", next.Revision))

	if state.eventStream != nil {
		state.eventStream.Publish(domain.StateChangedEvent{
			Action: action,
			State:  next.Copy(),
		})
	}
	return next.Revision, nil
}
