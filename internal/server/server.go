package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/config"
	"github.com/berfenger/icharger2mqtt/internal/core/port"
	"github.com/berfenger/icharger2mqtt/internal/core/service"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

type Server struct {
	port        uint
	httpLog     bool
	rootContext *actor.RootContext
	masterActor *actor.PID
	store       port.StateStore
	actions     *service.ChargerActions
	eventStream *eventstream.EventStream
	logger      *zap.Logger
}

func New(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID, store port.StateStore,
	eventStream *eventstream.EventStream, logger *zap.Logger) *Server {
	return &Server{
		port:        cfg.Port,
		rootContext: rootContext,
		masterActor: masterActor,
		store:       store,
		actions:     service.NewChargerActions(store, logger),
		eventStream: eventStream,
		httpLog:     cfg.HttpLog,
		logger:      logger.With(zap.String("component", "http")),
	}
}

func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID, store port.StateStore,
	eventStream *eventstream.EventStream, logger *zap.Logger) *http.Server {
	NewServer := New(cfg, rootContext, masterActor, store, eventStream, logger)

	// Declare Server config
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", NewServer.port),
		Handler:     NewServer.RegisterRoutes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// websocket connections are long lived, writes have their own deadline
		WriteTimeout: 0,
	}

	return server
}
