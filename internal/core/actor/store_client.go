package actor

import (
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/core/port"
	"github.com/berfenger/icharger2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
)

// Store is a blocking client of a StoreActor. It must not be used from
// inside the StoreActor itself.
type Store struct {
	root    *actor.RootContext
	pid     *actor.PID
	timeout time.Duration
}

func NewStore(root *actor.RootContext, pid *actor.PID, timeout time.Duration) *Store {
	return &Store{
		root:    root,
		pid:     pid,
		timeout: timeout,
	}
}

func (s *Store) PID() *actor.PID {
	return s.pid
}

func (s *Store) GetState() (domain.AppState, error) {
	resp, err := actorutil.RequestResult[domain.GetStateResponse](s.root, s.pid, domain.GetStateRequest{}, s.timeout)
	if err != nil {
		return domain.AppState{}, err
	}
	return resp.State, nil
}

func (s *Store) Dispatch(action domain.Action) (uint64, error) {
	resp, err := actorutil.RequestResult[domain.DispatchResponse](s.root, s.pid, domain.DispatchRequest{Action: action}, s.timeout)
	return resp.Revision, err
}

func (s *Store) DispatchWith(build func(domain.AppState) domain.Action) (uint64, error) {
	resp, err := actorutil.RequestResult[domain.DispatchResponse](s.root, s.pid, domain.DispatchWithRequest{Build: build}, s.timeout)
	return resp.Revision, err
}

// ensure interface compliance
var _ port.StateStore = (*Store)(nil)
