package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/core/port"
	"github.com/berfenger/icharger2mqtt/internal/core/service"
	"github.com/berfenger/icharger2mqtt/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// publishingStore reduces actions in place and publishes every change.
type publishingStore struct {
	mu    sync.Mutex
	state domain.AppState
	es    *eventstream.EventStream
}

var _ port.StateStore = (*publishingStore)(nil)

func (s *publishingStore) GetState() (domain.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Copy(), nil
}

func (s *publishingStore) Dispatch(action domain.Action) (uint64, error) {
	return s.DispatchWith(func(domain.AppState) domain.Action { return action })
}

func (s *publishingStore) DispatchWith(build func(domain.AppState) domain.Action) (uint64, error) {
	s.mu.Lock()
	action := build(s.state.Copy())
	s.state = service.Reduce(s.state, action)
	next := s.state.Copy()
	s.mu.Unlock()
	s.es.Publish(domain.StateChangedEvent{Action: action, State: next})
	return next.Revision, nil
}

type testServer struct {
	handler http.Handler
	store   *publishingStore
	system  *actor.ActorSystem
}

func newTestServer(t *testing.T) *testServer {
	cfg := util.LoadTestConfig()
	as := actor.NewActorSystem()
	es := &eventstream.EventStream{}
	store := &publishingStore{state: domain.NewAppState(cfg.Charger.ToDomain()), es: es}

	master := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if _, ok := ctx.Message().(domain.ActorHealthRequest); ok {
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: true})
		}
	}))
	t.Cleanup(as.Shutdown)

	srv := New(cfg, as.Root, master, store, es, zap.NewNop())
	return &testServer{handler: srv.RegisterRoutes(), store: store, system: as}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// laggingStore applies one more change right after every DispatchWith,
// like a poll landing between a dispatch and a later read.
type laggingStore struct {
	*publishingStore
}

func (s laggingStore) DispatchWith(build func(domain.AppState) domain.Action) (uint64, error) {
	rev, err := s.publishingStore.DispatchWith(build)
	if err != nil {
		return rev, err
	}
	_, err = s.publishingStore.Dispatch(domain.UpdateConnectionState{Connected: true})
	return rev, err
}

func TestRefreshReportsItsOwnRevision(t *testing.T) {

	require := require.New(t)

	cfg := util.LoadTestConfig()
	as := actor.NewActorSystem()
	t.Cleanup(as.Shutdown)
	es := &eventstream.EventStream{}
	store := laggingStore{&publishingStore{state: domain.NewAppState(cfg.Charger.ToDomain()), es: es}}
	handler := New(cfg, as.Root, nil, store, es, zap.NewNop()).RegisterRoutes()

	req := httptest.NewRequest(http.MethodPost, "/api/charger/unified", strings.NewReader(`{"model": "4010 DUO"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(http.StatusAccepted, rec.Code)
	require.JSONEq(`{"revision": 1}`, rec.Body.String())

	state, _ := store.GetState()
	require.Equal(uint64(2), state.Revision)
}

func TestHealthCheck(t *testing.T) {

	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthcheck", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "health_check: OK", rec.Body.String())
}

func TestGetHostName(t *testing.T) {

	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/hostname", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hostname": "127.0.0.1:8080"}`, rec.Body.String())
}

func TestCellLimitAndState(t *testing.T) {

	require := require.New(t)

	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/config/cell_limit", `{"cellLimit": 2}`)
	require.Equal(http.StatusOK, rec.Code)
	require.JSONEq(`{"revision": 1}`, rec.Body.String())

	rec = s.do(http.MethodPut, "/api/config/cell_limit", `{"cellLimit": 42}`)
	require.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/config/cell_limit", `{}`)
	require.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/charger/unified",
		`{"model": "4010 DUO", "channels": [{"cells": [3.71, 3.72, 3.73, 3.74]}]}`)
	require.Equal(http.StatusAccepted, rec.Code)

	rec = s.do(http.MethodGet, "/api/state", "")
	require.Equal(http.StatusOK, rec.Code)

	var state stateResponse
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &state))
	require.Equal(2, state.CellLimit)
	require.Equal(uint64(2), state.Revision)
	channels := state.Charger[domain.KEY_CHANNELS].([]any)
	require.Len(channels[0].(map[string]any)[domain.KEY_CELLS], 2, "cells limited in the view")

	// the store keeps every cell
	stored, _ := s.store.GetState()
	storedChannels := stored.Charger.Snapshot[domain.KEY_CHANNELS].([]any)
	require.Len(storedChannels[0].(map[string]any)[domain.KEY_CELLS], 4)
}

func TestGetSystem(t *testing.T) {

	require := require.New(t)

	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/system", "")
	require.Equal(http.StatusNotFound, rec.Code)

	_, err := s.store.Dispatch(domain.UpdateSystem{System: domain.NewSystem(domain.RawSnapshot{
		domain.KEY_TEMP_UNIT:    domain.TEMP_UNIT_CELSIUS,
		domain.KEY_CAPABILITIES: map[string]any{domain.CAPABILITY_CASE_FAN: true},
	})})
	require.NoError(err)

	rec = s.do(http.MethodGet, "/api/system", "")
	require.Equal(http.StatusOK, rec.Code)
	require.JSONEq(`{
		"settings": {"temp_unit": "C"},
		"capabilities": ["case_fan"],
		"units_of_measure": "°C"
	}`, rec.Body.String())
}

func TestWebSocketStream(t *testing.T) {

	require := require.New(t)

	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg wsMessage
	require.NoError(conn.ReadJSON(&msg))
	require.Equal(WS_MESSAGE_STATE, msg.Type)
	require.Equal(uint64(0), msg.Revision)

	// the subscription is registered before the initial message is sent
	_, err = s.store.Dispatch(domain.SetCellLimit{CellLimit: 3})
	require.NoError(err)

	require.NoError(conn.ReadJSON(&msg))
	require.Equal(WS_MESSAGE_CHANGED, msg.Type)
	require.Equal(domain.ACTION_SET_CELL_LIMIT, msg.Action)
	require.Equal(uint64(1), msg.Revision)
}
