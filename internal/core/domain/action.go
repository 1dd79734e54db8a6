package domain

import (
	"fmt"
	"maps"
)

const (
	ACTION_UPDATE_STATE_FROM_CHARGER = "UPDATE_STATE_FROM_CHARGER"
	ACTION_UPDATE_CONFIG             = "UPDATE_CONFIG"
	ACTION_SET_CELL_LIMIT            = "SET_CELL_LIMIT"
	ACTION_UPDATE_CONNECTION_STATE   = "UPDATE_CONNECTION_STATE"
	ACTION_UPDATE_SYSTEM             = "UPDATE_SYSTEM"
)

// Action is a store mutation. The set of actions is closed to this package.
type Action interface {
	ActionType() string
	isAction()
}

type actionMixIn struct{}

func (actionMixIn) isAction() {}

// UpdateStateFromCharger merges a unified charger snapshot into the charger state.
type UpdateStateFromCharger struct {
	actionMixIn
	Payload   RawSnapshot
	CellLimit int
}

func (UpdateStateFromCharger) ActionType() string {
	return ACTION_UPDATE_STATE_FROM_CHARGER
}

// NewUpdateStateFromCharger copies the payload so later changes by the caller
// do not leak into the store.
func NewUpdateStateFromCharger(payload RawSnapshot, cellLimit int) UpdateStateFromCharger {
	return UpdateStateFromCharger{
		Payload:   maps.Clone(payload),
		CellLimit: cellLimit,
	}
}

type UpdateConfig struct {
	actionMixIn
	Config ChargerConfig
}

func (UpdateConfig) ActionType() string {
	return ACTION_UPDATE_CONFIG
}

type SetCellLimit struct {
	actionMixIn
	CellLimit int
}

func (SetCellLimit) ActionType() string {
	return ACTION_SET_CELL_LIMIT
}

type UpdateConnectionState struct {
	actionMixIn
	Connected bool
	Error     string
}

func (UpdateConnectionState) ActionType() string {
	return ACTION_UPDATE_CONNECTION_STATE
}

type UpdateSystem struct {
	actionMixIn
	System *System
}

func (UpdateSystem) ActionType() string {
	return ACTION_UPDATE_SYSTEM
}

func ActionType(a Action) string {
	if a == nil {
		return ""
	}
	return a.ActionType()
}

func (a UpdateStateFromCharger) String() string {
	return fmt.Sprintf("%s{keys: %d, cellLimit: %d}", a.ActionType(), len(a.Payload), a.CellLimit)
}

// ensure interface compliance
var (
	_ Action = UpdateStateFromCharger{}
	_ Action = UpdateConfig{}
	_ Action = SetCellLimit{}
	_ Action = UpdateConnectionState{}
	_ Action = UpdateSystem{}
)
