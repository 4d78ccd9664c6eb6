package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/AaronLay10/mapcolor/internal/api"
	"github.com/AaronLay10/mapcolor/internal/config"
	"github.com/AaronLay10/mapcolor/internal/events"
	"github.com/AaronLay10/mapcolor/internal/mqtt"
	"github.com/AaronLay10/mapcolor/internal/solver"
	"github.com/AaronLay10/mapcolor/internal/storage/postgres"
	"github.com/AaronLay10/mapcolor/internal/version"
)

type LogLine struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func logEvent(level, event, msg string, fields map[string]interface{}) {
	line := LogLine{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Event:     event,
		Message:   msg,
		Fields:    fields,
	}
	b, _ := json.Marshal(line)
	fmt.Println(string(b))
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	if err := run(); err != nil {
		logEvent("error", "system.error", err.Error(), nil)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServiceConfig(config.Path())
	if err != nil {
		return fmt.Errorf("failed to load service config: %w", err)
	}

	hostname, _ := os.Hostname()
	logEvent("info", "system.startup", "api starting", map[string]interface{}{
		"service":  cfg.Name(),
		"version":  version.Version,
		"hostname": hostname,
		"pid":      os.Getpid(),
		"port":     cfg.HTTPPort(),
	})

	if err := api.InitAuth(); err != nil {
		return err
	}
	api.InitTLS()
	api.SetServiceName(cfg.Name())
	alerter, err := api.AlerterFromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := solver.New(cfg.Solver)

	api.SetPostgresStatus(cfg.Postgres.Enabled, false)
	if cfg.Postgres.Enabled {
		pg, err := postgres.New(ctx, cfg.InstanceID())
		if err != nil {
			// The archive is optional at runtime; /ready reports it.
			logEvent("error", "system.error", "postgres unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer pg.Close()
			events.SetPostgresClient(pg)
			api.SetPostgresStatus(true, true)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	api.SetMQTTStatus(cfg.MQTT.Enabled, false)
	if cfg.MQTT.Enabled {
		client := mqtt.NewClient(cfg.MQTT.ClientID, cfg.MQTT.BrokerURL)
		bridge := mqtt.NewBridge(client, svc, cfg.MQTT.TopicPrefix)

		client.OnConnect(func() {
			api.SetMQTTStatus(true, true)
			if err := bridge.Subscribe(); err != nil {
				log.Printf("mqtt: resubscribe failed: %v", err)
			}
		})
		client.OnConnectionLost(func(err error) {
			api.SetMQTTStatus(true, false)
			events.Emit("warning", "bridge.disconnected", "connection lost", map[string]interface{}{
				"error": err.Error(),
			})
		})

		if err := client.Connect(); err != nil {
			// Paho keeps retrying in the background; OnConnect subscribes.
			logEvent("warning", "bridge.error", "mqtt connect failed, retrying", map[string]interface{}{
				"broker": client.BrokerURL(),
				"error":  err.Error(),
			})
		}

		g.Go(func() error {
			defer client.Disconnect()
			return bridge.Run(gctx)
		})
	}

	server := api.NewServer(svc, cfg.Network.CORSOrigins)
	api.SetSolverReady(true)
	events.Emit("info", "system.startup", "", map[string]interface{}{
		"version":     version.Version,
		"mqtt":        cfg.MQTT.Enabled,
		"postgres":    cfg.Postgres.Enabled,
		"max_steps":   cfg.Solver.MaxSteps,
		"tls_enabled": api.IsTLSEnabled(),
		"auth":        api.IsAuthEnabled(),
	})

	g.Go(func() error {
		return server.Run(gctx, cfg.HTTPPort())
	})
	g.Go(func() error {
		return alerter.Run(gctx, 5*time.Second)
	})

	err = g.Wait()
	api.SetSolverReady(false)
	events.Emit("info", "system.shutdown", "", nil)
	logEvent("info", "system.shutdown", "api stopped", nil)
	return err
}
