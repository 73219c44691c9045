package config

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
)

func TestInitConfig_DefaultValues(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()

	cfg, err := InitConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 10, cfg.FloorCount)
	assert.Equal(t, 3, cfg.ElevatorCount)
	assert.Equal(t, 8, cfg.VehicleCapacity)
	assert.Equal(t, int64(12345), cfg.RandomSeed)
	assert.Equal(t, 3600.0, cfg.PlannedDurationSeconds)
	assert.Equal(t, 200*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 1.0, cfg.FloorSpeed)
	assert.Equal(t, 3.0, cfg.CooldownSeconds)
	assert.Equal(t, 60.0, cfg.WaitTargetSeconds)
	assert.Equal(t, 10000, cfg.EventChannelCapacity)
	assert.Equal(t, 512, cfg.EventMaxBatch)
	assert.Equal(t, 100*time.Millisecond, cfg.EventFlushInterval)
	assert.False(t, cfg.SnapshotWallThrottle)
}

func TestInitConfig_EnvironmentVariables(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()

	envVars := map[string]string{
		"ENV":              "production",
		"LOG_LEVEL":        "ERROR",
		"FLOOR_COUNT":      "40",
		"ELEVATOR_COUNT":   "6",
		"VEHICLE_CAPACITY": "16",
		"RANDOM_SEED":      "99",
		"DURATION_SECONDS": "600",
		"FLOOR_SPEED":      "1.5",
	}
	for k, v := range envVars {
		require.NoError(t, os.Setenv(k, v))
	}

	cfg, err := InitConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 40, cfg.FloorCount)
	assert.Equal(t, 6, cfg.ElevatorCount)
	assert.Equal(t, 16, cfg.VehicleCapacity)
	assert.Equal(t, int64(99), cfg.RandomSeed)
	assert.Equal(t, 600.0, cfg.PlannedDurationSeconds)
	assert.Equal(t, 1.5, cfg.FloorSpeed)
}

func TestConfigValidation_InvalidFloorCount(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()
	require.NoError(t, os.Setenv("FLOOR_COUNT", "0"))

	cfg, err := InitConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "floor count must be at least 1")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrTypeValidation, domainErr.Type)
}

func TestConfigValidation_InvalidVehicleCapacity(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr string
	}{
		{"zero capacity", "0", "vehicle capacity must be positive"},
		{"negative capacity", "-1", "vehicle capacity must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := clearEnvVars()
			defer cleanup()
			require.NoError(t, os.Setenv("VEHICLE_CAPACITY", tt.value))

			cfg, err := InitConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidation_InvalidDuration(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()
	require.NoError(t, os.Setenv("DURATION_SECONDS", "-5"))

	cfg, err := InitConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "duration must not be negative")
}

func TestConfigValidation_InvalidFloorSpeed(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()
	require.NoError(t, os.Setenv("FLOOR_SPEED", "0"))

	cfg, err := InitConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "floor speed must be positive")
}

func TestConfigValidation_InvalidTickInterval(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()
	require.NoError(t, os.Setenv("TICK_INTERVAL", "0s"))

	cfg, err := InitConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "tick interval must be positive")
}

func TestConfig_DT(t *testing.T) {
	cfg := &SimConfig{TickInterval: 250 * time.Millisecond}
	assert.Equal(t, 0.25, cfg.DT())
}

func TestConfig_IsProduction(t *testing.T) {
	assert.True(t, (&SimConfig{Environment: "production"}).IsProduction())
	assert.True(t, (&SimConfig{Environment: "prod"}).IsProduction())
	assert.False(t, (&SimConfig{Environment: "development"}).IsProduction())
}

func clearEnvVars() func() {
	envVars := []string{
		"ENV", "LOG_LEVEL", "FLOOR_COUNT", "ELEVATOR_COUNT", "VEHICLE_CAPACITY",
		"RANDOM_SEED", "DURATION_SECONDS", "SIM_START_OF_DAY_SECONDS", "TICK_INTERVAL",
		"FLOOR_SPEED", "COOLDOWN_SECONDS", "WAIT_TARGET_SECONDS",
		"EVENT_CHANNEL_CAPACITY", "EVENT_MAX_BATCH", "EVENT_FLUSH_INTERVAL",
		"SNAPSHOT_WALL_THROTTLE", "SNAPSHOT_WALL_PERIOD", "OUTPUT_DIR",
		"SCENARIO_NAME", "METRICS_ENABLED",
	}
	original := make(map[string]string)
	for _, v := range envVars {
		original[v] = os.Getenv(v)
		if err := os.Unsetenv(v); err != nil {
			fmt.Printf("failed to unset %s: %v\n", v, err)
		}
	}
	return func() {
		for _, v := range envVars {
			if val, ok := original[v]; ok && val != "" {
				os.Setenv(v, val)
			} else {
				os.Unsetenv(v)
			}
		}
	}
}
