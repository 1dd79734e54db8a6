package actorutil

import (
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
)

type forRequest struct {
	req domain.ActorRequest
}

type ExtendedRequest interface {
	Respond(ctx actor.Context, resp domain.ActorResponse)
	ReplyTo(ctx actor.Context) *actor.PID
}

func ForRequest(r domain.ActorRequest) ExtendedRequest {
	return forRequest{req: r}
}

func (r forRequest) Respond(ctx actor.Context, resp domain.ActorResponse) {
	if r.req.ReplyTo() != nil {
		ctx.Send((*actor.PID)(r.req.ReplyTo()), resp)
	} else {
		ctx.Respond(resp)
	}
}

func (r forRequest) ReplyTo(ctx actor.Context) *actor.PID {
	if r.req.ReplyTo() != nil {
		return (*actor.PID)(r.req.ReplyTo())
	}
	return ctx.Sender()
}

// RequestResult sends a request from outside the actor system and waits for
// a typed response. Transport errors and response errors are both returned.
func RequestResult[T domain.ActorResponse](root *actor.RootContext, pid *actor.PID, msg any, timeout time.Duration) (T, error) {
	var zero T
	res, err := root.RequestFuture(pid, msg, timeout).Result()
	if err != nil {
		return zero, err
	}
	resp, ok := res.(T)
	if !ok {
		return zero, &UnexpectedResponseError{Response: res}
	}
	if resp.HasResponseError() {
		return resp, resp.GetResponseError()
	}
	return resp, nil
}

type UnexpectedResponseError struct {
	Response any
}

func (e *UnexpectedResponseError) Error() string {
	return "unexpected response type " + typeName(e.Response)
}
