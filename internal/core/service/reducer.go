package service

import (
	"fmt"
	"maps"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
)

// Reduce applies an action to the previous state and returns the new state.
// Neither the previous state nor the action are modified.
func Reduce(old domain.AppState, action domain.Action) domain.AppState {
	next := old
	switch a := action.(type) {
	case domain.UpdateStateFromCharger:
		next.Charger = reduceChargerState(old.Charger, a)
		if presence, ok := a.Payload[domain.KEY_CHARGER_PRESENCE].(string); ok {
			next.Connection = domain.ConnectionState{
				Connected: presence == domain.CHARGER_PRESENCE_CONNECTED,
			}
			if exception, ok := a.Payload[domain.KEY_EXCEPTION].(string); ok {
				next.Connection.Error = exception
			}
		}
	case domain.UpdateConfig:
		next.Config = a.Config
	case domain.SetCellLimit:
		next.Config.CellLimit = a.CellLimit
	case domain.UpdateConnectionState:
		next.Connection = domain.ConnectionState{
			Connected: a.Connected,
			Error:     a.Error,
		}
	case domain.UpdateSystem:
		if a.System != nil {
			next.System = a.System.Clone()
		} else {
			next.System = nil
		}
	default:
		panic(fmt.Errorf("unknown action %T", action))
	}
	next.Revision = old.Revision + 1
	return next
}

// reduceChargerState merges the payload keys over the previous snapshot.
// The cell limit always comes from the action, never from the config.
func reduceChargerState(old domain.ChargerState, a domain.UpdateStateFromCharger) domain.ChargerState {
	snapshot := make(domain.RawSnapshot, len(old.Snapshot)+len(a.Payload))
	maps.Copy(snapshot, old.Snapshot)
	maps.Copy(snapshot, a.Payload)
	return domain.ChargerState{
		Snapshot:  snapshot,
		CellLimit: a.CellLimit,
		UpdatedAt: old.UpdatedAt,
	}
}
