package service

import (
	"errors"
	"fmt"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/core/port"

	"go.uber.org/zap"
)

var ErrInvalidCellLimit = errors.New("invalid cell limit")

// ChargerActions turns charger data and user changes into store actions.
type ChargerActions struct {
	store  port.StateStore
	logger *zap.Logger
}

func NewChargerActions(store port.StateStore, logger *zap.Logger) *ChargerActions {
	return &ChargerActions{
		store:  store,
		logger: logger.With(zap.String("service", "charger_actions")),
	}
}

// GetHostName returns "ipAddress:port" from the current configuration.
// Panics if the store cannot be read.
func (s *ChargerActions) GetHostName() string {
	state, err := s.store.GetState()
	if err != nil {
		panic(fmt.Errorf("charger actions: store unreachable: %w", err))
	}
	return state.Config.HostName()
}

// RefreshStateFromCharger dispatches the unified snapshot together with the
// cell limit configured at this moment. Both happen inside the store in a
// single step and returns the revision it produced. Panics if the store cannot
// be reached.
func (s *ChargerActions) RefreshStateFromCharger(unified domain.RawSnapshot) uint64 {
	rev, err := s.store.DispatchWith(func(state domain.AppState) domain.Action {
		return domain.NewUpdateStateFromCharger(unified, state.Config.CellLimit)
	})
	if err != nil {
		panic(fmt.Errorf("charger actions: store unreachable: %w", err))
	}
	s.logger.Debug("charger_actions@refresh dispatched", zap.Int("keys", len(unified)), zap.Uint64("revision", rev))
	return rev
}

func (s *ChargerActions) SetCellLimit(cellLimit int) (uint64, error) {
	if cellLimit < 0 || cellLimit > domain.MAX_CELL_LIMIT {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidCellLimit, cellLimit, domain.MAX_CELL_LIMIT)
	}
	return s.store.Dispatch(domain.SetCellLimit{CellLimit: cellLimit})
}

// UpdateConnectionState records the outcome of the last charger exchange.
// A nil error means the charger answered.
func (s *ChargerActions) UpdateConnectionState(err error) (uint64, error) {
	action := domain.UpdateConnectionState{Connected: err == nil}
	if err != nil {
		action.Error = err.Error()
	}
	return s.store.Dispatch(action)
}

func (s *ChargerActions) UpdateSystem(sys *domain.System) (uint64, error) {
	if sys == nil {
		return 0, errors.New("nil system")
	}
	return s.store.Dispatch(domain.UpdateSystem{System: sys.Clone()})
}

// SetTemperatureUnit changes the temperature unit of the stored system settings.
func (s *ChargerActions) SetTemperatureUnit(celsius bool) (uint64, error) {
	var missing bool
	rev, err := s.store.DispatchWith(func(state domain.AppState) domain.Action {
		sys := domain.NewSystem(nil)
		if state.System != nil {
			sys = state.System.Clone()
		} else {
			missing = true
		}
		sys.SetIsCelsius(celsius)
		return domain.UpdateSystem{System: sys}
	})
	if err == nil && missing {
		s.logger.Warn("charger_actions@temp_unit system settings not fetched yet")
	}
	return rev, err
}
