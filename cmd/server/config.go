package main

import "time"

type Config struct {
	Host          string        `env:"HOST,default=localhost"`
	Port          int           `env:"PORT,default=8080"`
	LogLevel      string        `env:"LOG_LEVEL,default=INFO"`
	ModeratorName string        `env:"MODERATOR_NAME"`
	BoardCapacity int           `env:"BOARD_CAPACITY,default=1000"`
	RateWindow    time.Duration `env:"RATE_WINDOW,default=30s"`
	RateLimit     int           `env:"RATE_LIMIT,default=10"`
	// Comma-separated keyword list for the confetti trigger.
	TriggerWords    string        `env:"TRIGGER_WORDS,default=based"`
	TelemetryBuffer int           `env:"TELEMETRY_BUFFER,default=256"`
	ActivityFeed    int           `env:"ACTIVITY_FEED,default=20"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
}
