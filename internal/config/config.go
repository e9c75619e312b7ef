package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	NodeName   string
	BLEAdapter string

	// StatePath is the SQLite file standing in for retention memory.
	StatePath string

	DutyCycleAwake  time.Duration
	DutyCycleSleep  time.Duration
	DisconnectSleep time.Duration
	ButtonHold      time.Duration
	PollInterval    time.Duration

	// Empty pin names leave that control unwired.
	ToggleButtonPin string
	ResetButtonPin  string

	// MQTTBroker enables the status mirror when set.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	nodeName := envOr("NODE_NAME", "m5-humidity-1")
	bleAdapter := envOr("BLE_ADAPTER", "hci0")
	statePath := envOr("STATE_PATH", "node-state.db")

	awake, err := positiveDuration("DUTY_CYCLE_AWAKE", "4s")
	if err != nil {
		return Config{}, err
	}
	sleep, err := positiveDuration("DUTY_CYCLE_SLEEP", "4s")
	if err != nil {
		return Config{}, err
	}
	disconnectSleep, err := positiveDuration("DISCONNECT_SLEEP", "10ms")
	if err != nil {
		return Config{}, err
	}
	hold, err := positiveDuration("BUTTON_HOLD", "5ms")
	if err != nil {
		return Config{}, err
	}
	poll, err := positiveDuration("LOOP_POLL_INTERVAL", "10ms")
	if err != nil {
		return Config{}, err
	}

	mqttPortStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT must be in 1..65535, got %d", mqttPort)
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		NodeName:        nodeName,
		BLEAdapter:      bleAdapter,
		StatePath:       statePath,
		DutyCycleAwake:  awake,
		DutyCycleSleep:  sleep,
		DisconnectSleep: disconnectSleep,
		ButtonHold:      hold,
		PollInterval:    poll,
		ToggleButtonPin: envOr("TOGGLE_BUTTON_PIN", "GPIO20"),
		ResetButtonPin:  envOr("RESET_BUTTON_PIN", "GPIO21"),
		MQTTBroker:      strings.TrimSpace(os.Getenv("MQTT_BROKER")),
		MQTTPort:        mqttPort,
		MQTTClientID:    envOr("MQTT_CLIENT_ID", "cloudpico-node"),
	}, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func positiveDuration(key, def string) (time.Duration, error) {
	s := envOr(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
