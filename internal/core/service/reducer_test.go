package service

import (
	"testing"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initialState() domain.AppState {
	return domain.NewAppState(domain.ChargerConfig{IPAddress: "192.168.1.50", Port: 80, CellLimit: 6})
}

func TestReduceUpdateStateFromCharger(t *testing.T) {

	assert := assert.New(t)

	old := initialState()
	old.Charger.Snapshot = domain.RawSnapshot{"model": "4010 DUO", "fw": "3.21"}
	old.Charger.UpdatedAt = time.Unix(100, 0)

	action := domain.NewUpdateStateFromCharger(domain.RawSnapshot{"fw": "3.22", "serial": "X1"}, 4)
	next := Reduce(old, action)

	assert.Equal(domain.RawSnapshot{"model": "4010 DUO", "fw": "3.22", "serial": "X1"}, next.Charger.Snapshot)
	assert.Equal(4, next.Charger.CellLimit, "cell limit comes from the action")
	assert.Equal(6, next.Config.CellLimit)
	assert.Equal(old.Revision+1, next.Revision)
	assert.Equal(old.Charger.UpdatedAt, next.Charger.UpdatedAt)

	// old state untouched
	assert.Equal("3.21", old.Charger.Snapshot["fw"])
	assert.NotContains(old.Charger.Snapshot, "serial")
}

func TestReduceChargerPresence(t *testing.T) {

	assert := assert.New(t)

	next := Reduce(initialState(), domain.NewUpdateStateFromCharger(domain.RawSnapshot{
		domain.KEY_CHARGER_PRESENCE: domain.CHARGER_PRESENCE_DISCONNECTED,
		domain.KEY_EXCEPTION:        "timeout",
	}, 6))
	assert.False(next.Connection.Connected)
	assert.Equal("timeout", next.Connection.Error)

	next = Reduce(next, domain.NewUpdateStateFromCharger(domain.RawSnapshot{
		domain.KEY_CHARGER_PRESENCE: domain.CHARGER_PRESENCE_CONNECTED,
	}, 6))
	assert.True(next.Connection.Connected)
	assert.Empty(next.Connection.Error)

	// no presence key, connection untouched
	after := Reduce(next, domain.NewUpdateStateFromCharger(domain.RawSnapshot{"model": "x"}, 6))
	assert.Equal(next.Connection, after.Connection)
}

func TestReduceConfigActions(t *testing.T) {

	assert := assert.New(t)

	state := Reduce(initialState(), domain.SetCellLimit{CellLimit: 8})
	assert.Equal(8, state.Config.CellLimit)
	assert.Equal("192.168.1.50:80", state.Config.HostName())

	state = Reduce(state, domain.UpdateConfig{Config: domain.ChargerConfig{IPAddress: "10.0.0.9", Port: 8080, CellLimit: 2}})
	assert.Equal("10.0.0.9:8080", state.Config.HostName())
	assert.Equal(2, state.Config.CellLimit)
	assert.Equal(uint64(2), state.Revision)
}

func TestReduceConnectionState(t *testing.T) {

	state := Reduce(initialState(), domain.UpdateConnectionState{Connected: false, Error: "refused"})

	assert.Equal(t, domain.ConnectionState{Connected: false, Error: "refused"}, state.Connection)
}

func TestReduceUpdateSystemStoresCopy(t *testing.T) {

	require := require.New(t)

	sys := domain.NewSystem(domain.RawSnapshot{domain.KEY_TEMP_UNIT: domain.TEMP_UNIT_CELSIUS})
	state := Reduce(initialState(), domain.UpdateSystem{System: sys})
	require.NotNil(state.System)
	require.True(state.System.IsCelsius())

	sys.SetIsCelsius(false)
	require.True(state.System.IsCelsius(), "store keeps its own copy")

	state = Reduce(state, domain.UpdateSystem{})
	require.Nil(state.System)
}

func TestReduceUnknownActionPanics(t *testing.T) {
	assert.Panics(t, func() {
		Reduce(initialState(), nil)
	})
}
