package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, uint32(1000), cfg.Settings.CapacitanceUF)
	assert.Equal(t, uint32(10), cfg.Settings.OutputCapUF)
	assert.Equal(t, uint32(10), cfg.Settings.SamplePeriodUS)
	assert.Equal(t, uint32(3500), cfg.Settings.UpperThresholdMV)
	assert.Equal(t, uint32(3200), cfg.Settings.LowerThresholdMV)
	assert.Equal(t, "constant", cfg.Profile)
	assert.Equal(t, uint32(10000), cfg.HarvestPower)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	assert.Empty(t, cfg.MQTTBroker)
	assert.False(t, cfg.DebugConsole)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("CAPACITANCE_UF", "2200")
	t.Setenv("HARVEST_PROFILE", "square")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("MQTT_BROKER", "broker.lan")
	t.Setenv("DEBUG_CONSOLE", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, uint32(2200), cfg.Settings.CapacitanceUF)
	assert.Equal(t, "square", cfg.Profile)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "broker.lan", cfg.MQTTBroker)
	assert.True(t, cfg.DebugConsole)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Run("non-numeric capacitance", func(t *testing.T) {
		t.Setenv("CAPACITANCE_UF", "lots")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("unknown profile", func(t *testing.T) {
		t.Setenv("HARVEST_PROFILE", "sawtooth")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("tick shorter than sample period", func(t *testing.T) {
		t.Setenv("TICK_INTERVAL", "1us")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("TICK_INTERVAL", "soon")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestStepsPerTick(t *testing.T) {
	cfg := Config{TickInterval: 100 * time.Millisecond}
	cfg.Settings.SamplePeriodUS = 10
	assert.Equal(t, 10000, cfg.StepsPerTick())

	// Never less than one sample per tick
	cfg.TickInterval = 5 * time.Microsecond
	assert.Equal(t, 1, cfg.StepsPerTick())
}
