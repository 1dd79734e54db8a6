package domain

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

const (
	CHARGER_PRESENCE_CONNECTED    = "connected"
	CHARGER_PRESENCE_DISCONNECTED = "disconnected"

	KEY_CHARGER_PRESENCE = "charger_presence"
	KEY_EXCEPTION        = "exception"
	KEY_CHANNELS         = "channels"
	KEY_CELLS            = "cells"
)

// ChargerConfig is how the charger is reached and how many cells are shown.
type ChargerConfig struct {
	IPAddress string `json:"ipAddress"`
	Port      uint   `json:"port"`
	CellLimit int    `json:"cellLimit"`
}

func (c ChargerConfig) HostName() string {
	return fmt.Sprintf("%s:%d", c.IPAddress, c.Port)
}

type ChargerState struct {
	Snapshot  RawSnapshot `json:"snapshot"`
	CellLimit int         `json:"cellLimit"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Limited returns the snapshot with every channel showing at most CellLimit
// cells. A limit of zero shows all cells. The stored snapshot is not modified.
func (c ChargerState) Limited() RawSnapshot {
	out := maps.Clone(c.Snapshot)
	if c.CellLimit <= 0 || out == nil {
		return out
	}
	switch channels := out[KEY_CHANNELS].(type) {
	case []any:
		limited := make([]any, len(channels))
		for i, ch := range channels {
			limited[i] = limitChannelCells(ch, c.CellLimit)
		}
		out[KEY_CHANNELS] = limited
	case []map[string]any:
		limited := make([]any, len(channels))
		for i, ch := range channels {
			limited[i] = limitChannelCells(ch, c.CellLimit)
		}
		out[KEY_CHANNELS] = limited
	}
	return out
}

func limitChannelCells(channel any, limit int) any {
	ch, ok := asMap(channel)
	if !ok {
		return channel
	}
	cells, ok := ch[KEY_CELLS].([]any)
	if !ok || len(cells) <= limit {
		return channel
	}
	cp := maps.Clone(ch)
	cp[KEY_CELLS] = slices.Clone(cells[:limit])
	return cp
}

type ConnectionState struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Presence is the charger_presence value reported for this state.
func (c ConnectionState) Presence() string {
	if c.Connected {
		return CHARGER_PRESENCE_CONNECTED
	}
	return CHARGER_PRESENCE_DISCONNECTED
}

type AppState struct {
	Config     ChargerConfig   `json:"config"`
	Charger    ChargerState    `json:"charger"`
	System     *System         `json:"system,omitempty"`
	Connection ConnectionState `json:"connection"`
	Revision   uint64          `json:"revision"`
}

func NewAppState(config ChargerConfig) AppState {
	return AppState{
		Config: config,
		Charger: ChargerState{
			Snapshot: RawSnapshot{},
		},
	}
}

// Copy returns a state that can be handed out of the store. Nested values of
// the snapshot are shared, the reducer never mutates them in place.
func (s AppState) Copy() AppState {
	cp := s
	cp.Charger.Snapshot = maps.Clone(s.Charger.Snapshot)
	if s.System != nil {
		cp.System = s.System.Clone()
	}
	return cp
}
