package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/icharger2mqtt/internal/adapter/actor"
	"github.com/berfenger/icharger2mqtt/internal/adapter/charger"
	"github.com/berfenger/icharger2mqtt/internal/config"
	"github.com/berfenger/icharger2mqtt/internal/core/actor"
	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/core/service"
	"github.com/berfenger/icharger2mqtt/internal/server"
	"github.com/berfenger/icharger2mqtt/internal/util/actorutil"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	env := domain.InitEnvironment(cfg.Environment)
	slog.Info("Starting", "environment", env.Strings())
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	if !env.IsProduction() {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	eventStream := &eventstream.EventStream{}

	// store lives at root so every actor and the http server share it
	storeProps := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewStoreActor(domain.NewAppState(cfg.Charger.ToDomain()), eventStream, logger)
	})
	storePID, err := ctx.SpawnNamed(storeProps, domain.ACTOR_ID_STORE)
	if err != nil {
		panic(err)
	}
	store := actor.NewStore(ctx, storePID, cfg.Charger.RequestTimeout()+time.Second)

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, store, storePID, eventStream,
			pollerActorProvider(cfg, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		panic(err)
	}

	server := server.NewServer(*cfg, ctx, pid, store, eventStream, logger)
	done := make(chan bool, 1)

	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	ctx.Stop(storePID)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => ICHARGER_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("ICHARGER_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("icharger")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = config.ParseLogLevel(viper.GetString("log_level"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func pollerActorProvider(cfg *config.Config, logger *zap.Logger) actor.PollerActorProvider {
	client := charger.NewHTTPClient(cfg.Charger.RequestTimeout(), logger)
	return func(actions *service.ChargerActions) pactor.Actor {
		return actor.NewChargerPollerActor(cfg.Charger, client, actions, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(eventStream *eventstream.EventStream) pactor.Actor {
		return adactor.NewMQTTActor(cfg, eventStream, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("environment", domain.ENVIRONMENT_DEVELOPMENT)
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "icharger")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("charger.ip_address", "")
	viper.SetDefault("charger.port", 80)
	viper.SetDefault("charger.cell_limit", 0)
	viper.SetDefault("charger.poll_interval_millis", 2000)
	viper.SetDefault("charger.request_timeout_millis", 3000)
	viper.SetDefault("charger.system_poll_every", 10)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
