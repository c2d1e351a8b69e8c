package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ryansname/virtcap/src/virtcap"
)

// Config holds the simulated circuit settings and all harness knobs. Values
// come from the environment (with .env support); every field has a default so
// the harness runs standalone with no configuration at all.
type Config struct {
	Settings virtcap.Settings

	// Harvesting source
	Profile           string // constant, square, or off
	HarvestPower      uint32 // raw input-power reading fed to the simulation
	HarvestLowPower   uint32 // low level for the square profile
	ProfileHalfPeriod uint32 // ticks per square-profile level
	HarvestEfficiency uint32 // harvester efficiency, 1.0 == 1<<13

	// Simulated load sensor readings while the output is on
	LoadCurrent int32
	LoadVoltage uint32

	// Scheduling
	TickInterval time.Duration

	// Telemetry (optional; empty broker disables MQTT)
	MQTTBroker       string
	MQTTUsername     string
	MQTTPassword     string
	MQTTClientID     string
	MQTTCommandTopic string

	// Load switch actuation (optional; empty chip logs transitions instead)
	GPIOChip string
	GPIOLine int

	// Interactive console
	DebugConsole bool
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		Profile:          envString("HARVEST_PROFILE", "constant"),
		MQTTBroker:       envString("MQTT_BROKER", ""),
		MQTTUsername:     envString("MQTT_USERNAME", ""),
		MQTTPassword:     envString("MQTT_PASSWORD", ""),
		MQTTClientID:     envString("MQTT_CLIENT_ID", "virtcap"),
		MQTTCommandTopic: envString("MQTT_COMMAND_TOPIC", "virtcap/command"),
		GPIOChip:         envString("GPIO_CHIP", ""),
	}

	var err error
	fields := []struct {
		dst *uint32
		key string
		def uint32
	}{
		{&cfg.Settings.CapacitanceUF, "CAPACITANCE_UF", 1000},
		{&cfg.Settings.OutputCapUF, "OUTPUT_CAP_UF", 10},
		{&cfg.Settings.LeakageCurrentUA, "LEAKAGE_UA", 4},
		{&cfg.Settings.OnLeakageCurrentUA, "ON_LEAKAGE_UA", 12},
		{&cfg.Settings.ConverterEfficiency, "CONVERTER_EFFICIENCY", 6554},
		{&cfg.Settings.SamplePeriodUS, "SAMPLE_PERIOD_US", 10},
		{&cfg.Settings.Discretize, "DISCRETIZE", 10},
		{&cfg.Settings.UpperThresholdMV, "UPPER_THRESHOLD_MV", 3500},
		{&cfg.Settings.LowerThresholdMV, "LOWER_THRESHOLD_MV", 3200},
		{&cfg.Settings.MinVoltageMV, "MIN_VOLTAGE_MV", 2000},
		{&cfg.Settings.MaxVoltageMV, "MAX_VOLTAGE_MV", 4200},
		{&cfg.Settings.InitVoltageMV, "INIT_VOLTAGE_MV", 3000},
		{&cfg.Settings.DCOutputVoltageMV, "DC_OUTPUT_MV", 3300},
		{&cfg.HarvestPower, "HARVEST_POWER", 10000},
		{&cfg.HarvestLowPower, "HARVEST_LOW_POWER", 0},
		{&cfg.ProfileHalfPeriod, "HARVEST_HALF_PERIOD_TICKS", 100000},
		{&cfg.HarvestEfficiency, "HARVEST_EFFICIENCY", 8192},
	}
	for _, f := range fields {
		if *f.dst, err = envUint32(f.key, f.def); err != nil {
			return Config{}, err
		}
	}

	loadCurrent, err := envUint32("LOAD_CURRENT", 8000)
	if err != nil {
		return Config{}, err
	}
	cfg.LoadCurrent = int32(loadCurrent)
	if cfg.LoadVoltage, err = envUint32("LOAD_VOLTAGE", 300000); err != nil {
		return Config{}, err
	}

	if cfg.TickInterval, err = envDuration("TICK_INTERVAL", 100*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.GPIOLine, err = envInt("GPIO_LINE", 0); err != nil {
		return Config{}, err
	}
	if cfg.DebugConsole, err = envBool("DEBUG_CONSOLE", false); err != nil {
		return Config{}, err
	}

	return cfg, cfg.validate()
}

// validate checks harness-level constraints. Circuit-level constraints are
// checked by virtcap.New.
func (c *Config) validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: TICK_INTERVAL must be positive")
	}
	samplePeriod := time.Duration(c.Settings.SamplePeriodUS) * time.Microsecond
	if samplePeriod > 0 && c.TickInterval < samplePeriod {
		return fmt.Errorf("config: TICK_INTERVAL %v is shorter than the sample period %v",
			c.TickInterval, samplePeriod)
	}
	switch c.Profile {
	case "constant", "square", "off":
	default:
		return fmt.Errorf("config: unknown HARVEST_PROFILE %q (want constant, square, or off)", c.Profile)
	}
	if c.Profile == "square" && c.ProfileHalfPeriod == 0 {
		return fmt.Errorf("config: HARVEST_HALF_PERIOD_TICKS must be positive for the square profile")
	}
	return nil
}

// StepsPerTick is the number of simulation samples that fit in one wall-clock
// tick, keeping simulated time tracking wall time.
func (c *Config) StepsPerTick() int {
	samplePeriod := time.Duration(c.Settings.SamplePeriodUS) * time.Microsecond
	steps := int(c.TickInterval / samplePeriod)
	if steps < 1 {
		steps = 1
	}
	return steps
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envUint32(key string, def uint32) (uint32, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a 32-bit unsigned integer: %w", key, v, err)
	}
	return uint32(n), nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer: %w", key, v, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a duration: %w", key, v, err)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s=%q is not a boolean: %w", key, v, err)
	}
	return b, nil
}
