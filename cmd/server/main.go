package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"fishtank-aas/internal/aas"
	"fishtank-aas/internal/api"
	"fishtank-aas/internal/database"
	"fishtank-aas/internal/metrics"
	"fishtank-aas/internal/mqtt"
	"fishtank-aas/internal/services"
	"fishtank-aas/pkg/config"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	logger.Info("Starting Fish Tank AAS service")
	if err := run(cfg, logger); err != nil {
		logger.Error("Service failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Shutdown complete. Goodbye!")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// === Stores ===
	connectCtx, cancelConnect := context.WithTimeout(ctx, 30*time.Second)
	defer cancelConnect()

	mongoDB, err := database.NewMongoDB(connectCtx, database.MongoConfig{
		URI:        cfg.MongoURI,
		Database:   cfg.MongoDatabase,
		Collection: cfg.MongoCollection,
	}, logger.With(slog.String("component", "mongo")))
	if err != nil {
		return fmt.Errorf("initialize MongoDB: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Close(closeCtx); err != nil {
			logger.Error("Error closing MongoDB", slog.Any("error", err))
		}
	}()

	clickhouseDB, err := database.NewClickHouseDB(connectCtx, database.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDB,
		Username: cfg.ClickHouseUser,
		Password: cfg.ClickHousePass,
		Table:    cfg.ClickHouseTable,
	}, logger.With(slog.String("component", "clickhouse")))
	if err != nil {
		return fmt.Errorf("initialize ClickHouse: %w", err)
	}
	defer func() {
		if err := clickhouseDB.Close(); err != nil {
			logger.Error("Error closing ClickHouse", slog.Any("error", err))
		}
	}()

	// === Telemetry ingestion ===
	sensorService := services.NewSensorService(clickhouseDB, services.SensorServiceConfig{
		TempChannelSize: cfg.TelemetryBuffer,
		StoreTimeout:    cfg.StoreTimeout,
	}, logger.With(slog.String("component", "sensor")), m)

	mqttLogger := logger.With(slog.String("component", "mqtt"))
	mqttClient := mqtt.NewClient(mqtt.ClientConfig{
		Broker:               cfg.MQTTBroker,
		ClientID:             cfg.MQTTClientID + "-" + uuid.NewString()[:8],
		Username:             cfg.MQTTUsername,
		Password:             cfg.MQTTPassword,
		ConnectTimeout:       cfg.MQTTConnectTimeout,
		MaxReconnectInterval: cfg.MQTTMaxReconnectInterval,
	}, mqttLogger, m)
	defer mqttClient.Close()

	subscriber := mqtt.NewSubscriber(
		mqttClient.GetNativeClient(),
		mqtt.SubscriberConfig{TemperatureTopic: cfg.MQTTTopicTemperature},
		sensorService.TempChan,
		mqttLogger,
		m,
	)
	mqttClient.OnConnect(func(pahomqtt.Client) {
		if err := subscriber.Subscribe(); err != nil {
			mqttLogger.Error("Failed to subscribe to MQTT topics", slog.Any("error", err))
		}
	})

	publisher := mqtt.NewPublisher(
		mqttClient.GetNativeClient(),
		mqtt.PublisherConfig{CommandTopic: cfg.MQTTTopicCommand},
		mqttLogger,
		m,
	)

	// === Shell ===
	shellService := services.NewShellService(
		mongoDB,
		publisher,
		aas.NewResolver(aas.FeedingSchedule),
		services.ShellServiceConfig{StoreTimeout: cfg.StoreTimeout},
		logger.With(slog.String("component", "shell")),
		m,
	)
	if _, err := shellService.EnsureSeed(ctx, cfg.AASSeedFile); err != nil {
		return err
	}

	temperatureService := services.NewTemperatureService(clickhouseDB, cfg.TemperatureHistory, cfg.StoreTimeout)

	server := api.NewServer(
		api.Config{Addr: cfg.HTTPAddr, CORSOrigins: cfg.CORSOrigins},
		shellService,
		temperatureService,
		mqttClient,
		reg,
		logger.With(slog.String("component", "http")),
		m,
	)

	if err := mqttClient.Connect(); err != nil {
		mqttLogger.Warn("MQTT unavailable, continuing without telemetry", slog.Any("error", err))
	}

	logger.Info("Fish Tank AAS service is running",
		slog.String("http", cfg.HTTPAddr),
		slog.String("telemetry_topic", cfg.MQTTTopicTemperature),
		slog.String("command_topic", cfg.MQTTTopicCommand))

	// Ingestion and publishing outlive the signal context so they can drain
	// after the HTTP server has stopped.
	ingestCtx, cancelIngest := context.WithCancel(context.Background())
	defer cancelIngest()
	publishCtx, cancelPublish := context.WithCancel(context.Background())
	defer cancelPublish()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sensorService.Start(ingestCtx)
		return nil
	})
	g.Go(func() error {
		publisher.Start(publishCtx)
		return nil
	})
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, stopping services")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown", slog.Any("error", err))
		}

		if err := subscriber.Unsubscribe(time.Second); err != nil {
			mqttLogger.Warn("Unsubscribe failed", slog.Any("error", err))
		}
		// No reading can reach TempChan once Close returns, so the ingest
		// drain below sees all of them.
		subscriber.Close()
		cancelIngest()
		cancelPublish()
		return nil
	})

	// The transport and the stores are closed by the deferred calls above,
	// in that order, once every goroutine has returned.
	return g.Wait()
}
