// Package config loads the simulator's run configuration from environment
// variables via caarlos0/env struct tags, with a validate-after-parse
// split.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"

	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
)

// SimConfig describes one simulation run: building shape, fleet shape,
// timing, the RNG seed, and publication-pipeline tuning. The launcher
// that sets the environment variables is an external collaborator; the
// env-tag defaults make a bare InitConfig() produce a runnable config.
type SimConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`

	// Building & fleet shape.
	FloorCount      int `env:"FLOOR_COUNT" envDefault:"10"`
	ElevatorCount   int `env:"ELEVATOR_COUNT" envDefault:"3"`
	VehicleCapacity int `env:"VEHICLE_CAPACITY" envDefault:"8"`

	// RNG and run duration.
	RandomSeed             int64         `env:"RANDOM_SEED" envDefault:"12345"`
	PlannedDurationSeconds float64       `env:"DURATION_SECONDS" envDefault:"3600"`
	SimStartOfDaySeconds   float64       `env:"SIM_START_OF_DAY_SECONDS" envDefault:"0"`
	TickInterval           time.Duration `env:"TICK_INTERVAL" envDefault:"200ms"`

	// Vehicle mechanics.
	FloorSpeed      float64 `env:"FLOOR_SPEED" envDefault:"1.0"`
	CooldownSeconds float64 `env:"COOLDOWN_SECONDS" envDefault:"3.0"`

	// Wait-target reporting.
	WaitTargetSeconds float64 `env:"WAIT_TARGET_SECONDS" envDefault:"60.0"`

	// Publication pipeline.
	EventChannelCapacity int           `env:"EVENT_CHANNEL_CAPACITY" envDefault:"10000"`
	EventMaxBatch        int           `env:"EVENT_MAX_BATCH" envDefault:"512"`
	EventFlushInterval   time.Duration `env:"EVENT_FLUSH_INTERVAL" envDefault:"100ms"`
	SnapshotWallThrottle bool          `env:"SNAPSHOT_WALL_THROTTLE" envDefault:"false"`
	SnapshotWallPeriod   time.Duration `env:"SNAPSHOT_WALL_PERIOD" envDefault:"250ms"`

	// Output.
	OutputDir    string `env:"OUTPUT_DIR" envDefault:"./out"`
	ScenarioName string `env:"SCENARIO_NAME" envDefault:"default"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// InitConfig parses environment variables into a SimConfig and validates
// the result.
func InitConfig() (*SimConfig, error) {
	cfg := SimConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	if err := validateConfiguration(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// validateConfiguration performs the construction-time checks: a bad
// floor count, capacity, dt, duration, or speed is a programmer error
// that must fail fast rather than silently clamp.
func validateConfiguration(cfg *SimConfig) error {
	if cfg.FloorCount < 1 {
		return domain.NewValidationError("floor count must be at least 1", nil).
			WithContext("floor_count", cfg.FloorCount)
	}
	if cfg.ElevatorCount < 1 {
		return domain.NewValidationError("elevator count must be at least 1", nil).
			WithContext("elevator_count", cfg.ElevatorCount)
	}
	if cfg.VehicleCapacity <= 0 {
		return domain.NewValidationError("vehicle capacity must be positive", nil).
			WithContext("vehicle_capacity", cfg.VehicleCapacity)
	}
	if cfg.PlannedDurationSeconds < 0 {
		return domain.NewValidationError("duration must not be negative", nil).
			WithContext("duration_seconds", cfg.PlannedDurationSeconds)
	}
	if cfg.TickInterval <= 0 {
		return domain.NewValidationError("tick interval must be positive", nil).
			WithContext("tick_interval", cfg.TickInterval)
	}
	if cfg.FloorSpeed <= 0 {
		return domain.NewValidationError("floor speed must be positive", nil).
			WithContext("floor_speed", cfg.FloorSpeed)
	}
	if cfg.CooldownSeconds < 0 {
		return domain.NewValidationError("cooldown seconds must not be negative", nil).
			WithContext("cooldown_seconds", cfg.CooldownSeconds)
	}
	if cfg.EventChannelCapacity <= 0 {
		return domain.NewValidationError("event channel capacity must be positive", nil).
			WithContext("event_channel_capacity", cfg.EventChannelCapacity)
	}
	if cfg.EventMaxBatch <= 0 {
		return domain.NewValidationError("event max batch must be positive", nil).
			WithContext("event_max_batch", cfg.EventMaxBatch)
	}
	return nil
}

// IsProduction returns true if running in a production-like environment.
func (c *SimConfig) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// DT returns the fixed tick step in seconds, the unit the simulation
// loop and every dwell/boarding timing constant operate in.
func (c *SimConfig) DT() float64 {
	return c.TickInterval.Seconds()
}
