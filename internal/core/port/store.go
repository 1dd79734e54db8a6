package port

import (
	"context"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
)

// StateStore is the single owner of the application state.
type StateStore interface {
	GetState() (domain.AppState, error)
	Dispatch(action domain.Action) (uint64, error)
	// DispatchWith builds the action from the state it will be applied to.
	DispatchWith(build func(domain.AppState) domain.Action) (uint64, error)
}

// ChargerClient reads the charger over its network API.
type ChargerClient interface {
	FetchUnified(ctx context.Context, hostName string) (domain.RawSnapshot, error)
	FetchSystem(ctx context.Context, hostName string) (*domain.System, error)
}
