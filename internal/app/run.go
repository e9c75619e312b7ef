package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloudpico-node/internal/ble"
	"cloudpico-node/internal/button"
	"cloudpico-node/internal/clock"
	"cloudpico-node/internal/config"
	"cloudpico-node/internal/display"
	"cloudpico-node/internal/mqtt"
	"cloudpico-node/internal/sensor"
	"cloudpico-node/internal/state"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("initializing node",
		"ble_adapter", cfg.BLEAdapter,
		"state_path", cfg.StatePath,
		"duty_cycle_awake", cfg.DutyCycleAwake,
		"duty_cycle_sleep", cfg.DutyCycleSleep,
	)

	retention, err := state.OpenSQLite(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("open retention: %w", err)
	}
	defer retention.Close()

	sys := clock.System{}
	store, err := state.Open(retention, clock.Seconds(sys.Now()))
	if err != nil {
		return err
	}

	sinks := display.Multi{display.NewConsole(os.Stdout), display.NewLog(logger)}
	var mqttClient *mqtt.Client
	if cfg.MQTTBroker != "" {
		mqttClient, err = mqtt.NewClient(mqtt.Options{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			ClientID: cfg.MQTTClientID,
			Node:     cfg.NodeName,
		}, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := mqttClient.Connect(ctx); err != nil {
				logger.Warn("mqtt connect failed; node continues without status mirror", "error", err)
			}
		}()
		sinks = append(sinks, mqttClient)
	}

	radio := ble.NewPeripheral(ble.Options{
		Adapter:   cfg.BLEAdapter,
		LocalName: cfg.NodeName,
		Initial:   store.Load().LastSensorValue,
		Logger:    logger,
	})

	deps := Deps{
		Store:  store,
		Radio:  radio,
		Panel:  openPanel(cfg, logger),
		Source: sensor.NewRandom(uint64(time.Now().UnixNano())),
		Sink:   sinks,
		Clock:  sys,
		Quiesce: func() {
			radio.Stop()
			if mqttClient != nil {
				mqttClient.Disconnect()
			}
		},
		Logger: logger,
	}
	if mqttClient != nil {
		deps.Readings = mqttClient
	}

	node, err := Build(cfg, deps)
	if err != nil {
		return err
	}

	node.Boot()
	return node.Run(ctx)
}

// openPanel wires the GPIO buttons; a missing pin or GPIO driver leaves that
// control inert rather than stopping the node.
func openPanel(cfg config.Config, logger *slog.Logger) button.Panel {
	if cfg.ToggleButtonPin == "" && cfg.ResetButtonPin == "" {
		return button.Panel{}
	}
	if err := button.InitHost(); err != nil {
		logger.Warn("gpio unavailable; buttons disabled", "error", err)
		return button.Panel{}
	}

	open := func(name, pin string) *button.Button {
		if pin == "" {
			return nil
		}
		in, err := button.OpenGPIO(pin)
		if err != nil {
			logger.Warn("button unavailable", "button", name, "pin", pin, "error", err)
			return button.New(name, button.Never{})
		}
		logger.Info("button ready", "button", name, "pin", pin)
		return button.New(name, in)
	}

	return button.Panel{
		Toggle: open("toggle", cfg.ToggleButtonPin),
		Reset:  open("reset", cfg.ResetButtonPin),
	}
}
