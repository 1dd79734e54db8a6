package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/core/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type cellLimitRequest struct {
	CellLimit *int `json:"cellLimit"`
}

type revisionResponse struct {
	Revision uint64 `json:"revision"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type stateResponse struct {
	Config     domain.ChargerConfig   `json:"config"`
	Charger    domain.RawSnapshot     `json:"charger"`
	CellLimit  int                    `json:"cellLimit"`
	UpdatedAt  time.Time              `json:"updatedAt"`
	Connection domain.ConnectionState `json:"connection"`
	Revision   uint64                 `json:"revision"`
}

type systemResponse struct {
	Settings       *domain.System `json:"settings"`
	Capabilities   []string       `json:"capabilities"`
	UnitsOfMeasure string         `json:"units_of_measure"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)

	api := e.Group("/api")
	api.GET("/state", s.GetStateHandler)
	api.GET("/system", s.GetSystemHandler)
	api.GET("/hostname", s.GetHostNameHandler)
	api.GET("/environment", s.GetEnvironmentHandler)
	api.PUT("/config/cell_limit", s.SetCellLimitHandler)
	api.POST("/charger/unified", s.RefreshStateHandler)
	api.GET("/ws", s.WebSocketHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) GetStateHandler(c echo.Context) error {
	state, err := s.store.GetState()
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusOK, stateView(state))
}

func (s *Server) GetSystemHandler(c echo.Context) error {
	state, err := s.store.GetState()
	if err != nil {
		return s.storeError(c, err)
	}
	if state.System == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "system settings not available yet"})
	}
	return c.JSON(http.StatusOK, systemResponse{
		Settings:       state.System,
		Capabilities:   state.System.Capabilities(),
		UnitsOfMeasure: state.System.UnitsOfMeasure(),
	})
}

func (s *Server) GetHostNameHandler(c echo.Context) error {
	state, err := s.store.GetState()
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"hostname": state.Config.HostName()})
}

func (s *Server) GetEnvironmentHandler(c echo.Context) error {
	env := domain.CurrentEnvironment()
	return c.JSON(http.StatusOK, map[string]any{
		"name":       env.Name,
		"production": env.IsProduction(),
		"strings":    env.Strings(),
	})
}

func (s *Server) SetCellLimitHandler(c echo.Context) error {
	var req cellLimitRequest
	if err := c.Bind(&req); err != nil || req.CellLimit == nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "body must be {\"cellLimit\": <int>}"})
	}
	rev, err := s.actions.SetCellLimit(*req.CellLimit)
	if errors.Is(err, service.ErrInvalidCellLimit) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusOK, revisionResponse{Revision: rev})
}

func (s *Server) RefreshStateHandler(c echo.Context) error {
	var unified domain.RawSnapshot
	if err := c.Bind(&unified); err != nil || unified == nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "body must be a JSON object"})
	}
	rev, err := s.refresh(unified)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusAccepted, revisionResponse{Revision: rev})
}

// refresh turns the dispatch panic of an unreachable store into an error.
func (s *Server) refresh(unified domain.RawSnapshot) (rev uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return s.actions.RefreshStateFromCharger(unified), nil
}

func (s *Server) storeError(c echo.Context, err error) error {
	s.logger.Error("http@api store unavailable", zap.Error(err))
	return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
}
