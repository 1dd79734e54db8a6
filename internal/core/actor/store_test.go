package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/core/service"
	"github.com/berfenger/icharger2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testChargerConfig = domain.ChargerConfig{IPAddress: "127.0.0.1", Port: 8080, CellLimit: 6}

type storeFixture struct {
	system   *actor.ActorSystem
	es       *eventstream.EventStream
	storePID *actor.PID
	store    *Store
	logger   *zap.Logger
}

func newStoreFixture(t *testing.T, now func() time.Time) *storeFixture {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	es := &eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor {
		act := NewStoreActor(domain.NewAppState(testChargerConfig), es, logger)
		if now != nil {
			act.now = now
		}
		return act
	})
	pid, err := as.Root.SpawnNamed(props, domain.ACTOR_ID_STORE)
	require.NoError(t, err)

	f := &storeFixture{
		system:   as,
		es:       es,
		storePID: pid,
		store:    NewStore(as.Root, pid, 2*time.Second),
		logger:   logger,
	}
	t.Cleanup(func() {
		as.Root.Stop(pid)
		as.Shutdown()
	})
	return f
}

// changes collects every StateChangedEvent published after the call.
func (f *storeFixture) changes() <-chan domain.StateChangedEvent {
	ch := make(chan domain.StateChangedEvent, 64)
	f.es.Subscribe(func(evt any) {
		if changed, ok := evt.(domain.StateChangedEvent); ok {
			ch <- changed
		}
	})
	return ch
}

func TestStoreActorHealth(t *testing.T) {

	f := newStoreFixture(t, nil)

	res, err := f.system.Root.RequestFuture(f.storePID, domain.ActorHealthRequest{}, time.Second).Result()
	require.NoError(t, err)
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, healthResp.Healthy)
	assert.Equal(t, domain.ACTOR_ID_STORE, healthResp.Id)
}

func TestStoreDispatchAndGetState(t *testing.T) {

	require := require.New(t)

	f := newStoreFixture(t, nil)
	changes := f.changes()

	state, err := f.store.GetState()
	require.NoError(err)
	require.Equal(uint64(0), state.Revision)
	require.Equal("127.0.0.1:8080", state.Config.HostName())

	rev, err := f.store.Dispatch(domain.SetCellLimit{CellLimit: 8})
	require.NoError(err)
	require.Equal(uint64(1), rev)

	state, err = f.store.GetState()
	require.NoError(err)
	require.Equal(8, state.Config.CellLimit)

	select {
	case ev := <-changes:
		require.Equal(domain.ACTION_SET_CELL_LIMIT, ev.Action.ActionType())
		require.Equal(uint64(1), ev.State.Revision)
	case <-time.After(time.Second):
		require.Fail("no state change published")
	}
}

func TestStoreStampsChargerUpdates(t *testing.T) {

	require := require.New(t)

	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newStoreFixture(t, func() time.Time { return stamp })

	_, err := f.store.Dispatch(domain.NewUpdateStateFromCharger(domain.RawSnapshot{"model": "4010 DUO"}, 6))
	require.NoError(err)
	state, err := f.store.GetState()
	require.NoError(err)
	require.Equal(stamp, state.Charger.UpdatedAt)

	// other actions keep the timestamp
	_, err = f.store.Dispatch(domain.SetCellLimit{CellLimit: 2})
	require.NoError(err)
	state, _ = f.store.GetState()
	require.Equal(stamp, state.Charger.UpdatedAt)
}

func TestStoreRejectsInvalidDispatch(t *testing.T) {

	assert := assert.New(t)

	f := newStoreFixture(t, nil)

	_, err := f.store.Dispatch(nil)
	assert.ErrorIs(err, ErrNilAction)

	_, err = f.store.DispatchWith(nil)
	assert.ErrorIs(err, ErrNilAction)

	_, err = f.store.DispatchWith(func(domain.AppState) domain.Action {
		panic("boom")
	})
	assert.ErrorContains(err, "boom")

	state, err := f.store.GetState()
	assert.NoError(err)
	assert.Equal(uint64(0), state.Revision, "failed dispatches change nothing")
}

func TestStoreStateIsNotShared(t *testing.T) {

	require := require.New(t)

	f := newStoreFixture(t, nil)
	_, err := f.store.Dispatch(domain.NewUpdateStateFromCharger(domain.RawSnapshot{"model": "4010 DUO"}, 6))
	require.NoError(err)

	state, err := f.store.GetState()
	require.NoError(err)
	state.Charger.Snapshot["model"] = "changed"

	state, err = f.store.GetState()
	require.NoError(err)
	require.Equal("4010 DUO", state.Charger.Snapshot["model"])
}

func TestRefreshUsesLatestCellLimit(t *testing.T) {

	require := require.New(t)

	f := newStoreFixture(t, nil)
	actions := service.NewChargerActions(f.store, f.logger)

	_, err := actions.SetCellLimit(8)
	require.NoError(err)
	actions.RefreshStateFromCharger(domain.RawSnapshot{"model": "4010 DUO"})

	state, err := f.store.GetState()
	require.NoError(err)
	require.Equal(8, state.Charger.CellLimit)
	require.Equal(uint64(2), state.Revision)
}

func TestStoreConcurrentDispatches(t *testing.T) {

	require := require.New(t)

	f := newStoreFixture(t, nil)
	actions := service.NewChargerActions(f.store, f.logger)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				actions.RefreshStateFromCharger(domain.RawSnapshot{"n": i})
			} else {
				_, err := actions.SetCellLimit(i % (domain.MAX_CELL_LIMIT + 1))
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	state, err := f.store.GetState()
	require.NoError(err)
	require.Equal(uint64(workers), state.Revision, "every dispatch applied exactly once")
}
