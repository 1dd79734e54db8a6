package actor

import (
	"context"
	"sync/atomic"

	"github.com/berfenger/icharger2mqtt/internal/config"
	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/core/port"
	"github.com/berfenger/icharger2mqtt/internal/core/service"
	. "github.com/berfenger/icharger2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// ChargerPollerActor fetches the charger state periodically and feeds it
// into the store through ChargerActions.
type ChargerPollerActor struct {
	ActorWithStates
	stash     *Stash
	scheduler *scheduler.TimerScheduler
	// cancels the scheduled tick, nil when none is pending
	cancelTick scheduler.CancelFunc
	// only the tick with this sequence is live
	tickSeq uint64

	config  config.ChargerConfig
	client  port.ChargerClient
	actions *service.ChargerActions
	ticks   uint
	pending int
	// nil until the first exchange with the charger
	connected *bool

	logger *zap.Logger
}

type pollTick struct {
	seq uint64
}

// shared by every poller instance, a tick queued before a restart never
// matches the new instance
var pollTickSeq atomic.Uint64

// PollNowRequest triggers a poll outside the regular schedule.
type PollNowRequest struct {
	domain.ActorRequestMixIn
}

type pollerIdleState struct {
	*ChargerPollerActor
}

type pollerFetchingState struct {
	*ChargerPollerActor
}

func NewChargerPollerActor(config config.ChargerConfig, client port.ChargerClient, actions *service.ChargerActions, logger *zap.Logger) *ChargerPollerActor {
	act := &ChargerPollerActor{
		ActorWithStates: ActorWithStates{Behavior: actor.NewBehavior()},
		stash:           &Stash{},
		config:          config,
		client:          client,
		actions:         actions,
		logger:          ActorLogger(domain.ACTOR_ID_POLLER, logger),
	}
	act.Become(pollerIdleState{act})
	return act
}

func (state *ChargerPollerActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

func (s pollerIdleState) Name() string {
	return "idle"
}

func (s pollerIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		s.logger.Debug("poller@idle started", zap.Duration("interval", s.config.PollInterval()))
		if s.config.PollIntervalMillis > 0 {
			s.scheduler = scheduler.NewTimerScheduler(ctx)
			ctx.Send(ctx.Self(), s.nextTick())
		}
	case domain.ActorHealthRequest:
		s.respondHealth(ctx, msg)
	case pollTick:
		if s.scheduler == nil || msg.seq != s.tickSeq {
			s.logger.Debug("poller@idle stale tick dropped")
			return
		}
		s.logger.Debug("poller@idle tick")
		s.poll(ctx)
		s.scheduleNext(ctx)
	case PollNowRequest:
		s.logger.Debug("poller@idle PollNowRequest")
		s.poll(ctx)
	case *actor.Stopping, *actor.Restarting:
		s.stopTicks()
	case *actor.Stopped:
	default:
		s.logger.Debug("poller@idle unknown message", LogStash(msg))
	}
}

func (s pollerFetchingState) Name() string {
	return "fetching"
}

func (s pollerFetchingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		s.respondHealth(ctx, msg)
	case domain.FetchUnifiedResponse:
		s.pending--
		if msg.HasResponseError() {
			s.logger.Warn("poller@fetching unified error", zap.Error(msg.GetResponseError()))
			s.reportConnection(msg.GetResponseError())
		} else {
			s.logger.Debug("poller@fetching unified", zap.Int("keys", len(msg.Unified)))
			s.actions.RefreshStateFromCharger(msg.Unified)
			s.reportConnection(nil)
		}
		s.finishIfDone(ctx)
	case domain.FetchSystemResponse:
		s.pending--
		if msg.HasResponseError() {
			s.logger.Warn("poller@fetching system error", zap.Error(msg.GetResponseError()))
		} else if msg.System != nil {
			if _, err := s.actions.UpdateSystem(msg.System); err != nil {
				s.logger.Error("poller@fetching UpdateSystem", zap.Error(err))
			}
		}
		s.finishIfDone(ctx)
	case pollTick:
		if s.scheduler == nil || msg.seq != s.tickSeq {
			return
		}
		// a fetch is still running, skip this one
		s.logger.Debug("poller@fetching tick skipped")
		s.scheduleNext(ctx)
	case *actor.Stopping, *actor.Restarting:
		s.stopTicks()
	case *actor.Stopped:
	default:
		s.logger.Debug("poller@fetching stash", LogStash(msg))
		s.stash.Stash(ctx, msg)
	}
}

func (state *ChargerPollerActor) poll(ctx actor.Context) {
	hostName := state.actions.GetHostName()
	timeout := state.config.RequestTimeout()

	state.pending = 1
	NewBackgroundTaskNoError(ctx, func() *domain.FetchUnifiedResponse {
		reqCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		unified, err := state.client.FetchUnified(reqCtx, hostName)
		return &domain.FetchUnifiedResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
			Unified:            unified,
		}
	}).WithTimeout(timeout).Recover(func(err error) domain.FetchUnifiedResponse {
		return domain.FetchUnifiedResponse{ActorResponseMixIn: domain.ErrorResponse(err)}
	}).PipeToAsync(ctx.Self())

	every := max(state.config.SystemPollEvery, 1)
	if state.ticks%every == 0 {
		state.pending++
		NewBackgroundTaskNoError(ctx, func() *domain.FetchSystemResponse {
			reqCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			sys, err := state.client.FetchSystem(reqCtx, hostName)
			return &domain.FetchSystemResponse{
				ActorResponseMixIn: domain.ErrorResponse(err),
				System:             sys,
			}
		}).WithTimeout(timeout).Recover(func(err error) domain.FetchSystemResponse {
			return domain.FetchSystemResponse{ActorResponseMixIn: domain.ErrorResponse(err)}
		}).PipeToAsync(ctx.Self())
	}
	state.ticks++
	state.BecomeStacked(pollerFetchingState{state})
}

func (state *ChargerPollerActor) finishIfDone(ctx actor.Context) {
	if state.pending > 0 {
		return
	}
	state.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

func (state *ChargerPollerActor) scheduleNext(ctx actor.Context) {
	if state.scheduler != nil {
		state.cancelTick = state.scheduler.RequestOnce(state.config.PollInterval(), ctx.Self(), state.nextTick())
	}
}

func (state *ChargerPollerActor) nextTick() pollTick {
	state.tickSeq = pollTickSeq.Add(1)
	return pollTick{seq: state.tickSeq}
}

func (state *ChargerPollerActor) stopTicks() {
	if state.cancelTick != nil {
		state.cancelTick()
		state.cancelTick = nil
	}
	state.scheduler = nil
	state.tickSeq = 0
}

func (state *ChargerPollerActor) reportConnection(err error) {
	connected := err == nil
	if connected && state.connected != nil && *state.connected {
		return
	}
	state.connected = &connected
	if _, dErr := state.actions.UpdateConnectionState(err); dErr != nil {
		state.logger.Error("poller@fetching UpdateConnectionState", zap.Error(dErr))
	}
}

func (state *ChargerPollerActor) respondHealth(ctx actor.Context, msg domain.ActorHealthRequest) {
	ForRequest(msg).Respond(ctx, domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_POLLER,
		Healthy: true,
		State:   state.StateName(),
	})
}
