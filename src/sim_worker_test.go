package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryansname/virtcap/src/loadswitch"
	"github.com/ryansname/virtcap/src/virtcap"
)

func testConfig() Config {
	return Config{
		Settings: virtcap.Settings{
			CapacitanceUF:       1000,
			OutputCapUF:         10,
			LeakageCurrentUA:    4,
			OnLeakageCurrentUA:  12,
			ConverterEfficiency: 6554,
			SamplePeriodUS:      10,
			Discretize:          10,
			UpperThresholdMV:    3500,
			LowerThresholdMV:    3200,
			MinVoltageMV:        2000,
			MaxVoltageMV:        4200,
			InitVoltageMV:       3000,
			DCOutputVoltageMV:   3300,
		},
		Profile:           "constant",
		HarvestPower:      10000,
		HarvestLowPower:   0,
		ProfileHalfPeriod: 1000,
		HarvestEfficiency: 8192,
		LoadCurrent:       8000,
		LoadVoltage:       300000,
		TickInterval:      100 * time.Millisecond,
	}
}

// newTestBuffer calibrates a simulation wired to a recording fake and a
// transition counter, the same sink chain main assembles.
func newTestBuffer(t *testing.T, cfg Config) (*virtcap.Cap, *loadswitch.Fake, *transitionCounter) {
	t.Helper()
	fake := &loadswitch.Fake{}
	counter := &transitionCounter{}
	sink := &loadswitch.Tee{
		Sinks: []interface{ SetOutputEnabled(bool) }{counter, fake},
	}
	buffer, err := virtcap.New(cfg.Settings, sink)
	require.NoError(t, err)
	return buffer, fake, counter
}

func TestRunTickBatchAdvancesVoltage(t *testing.T) {
	cfg := testConfig()
	buffer, fake, _ := newTestBuffer(t, cfg)

	start := buffer.Voltage()
	runTickBatch(buffer, &ConstantProfile{Power: cfg.HarvestPower}, cfg, 100)

	assert.Greater(t, buffer.Voltage(), start)
	assert.Zero(t, fake.Count(), "no transition this early in the charge")
}

func TestTickBatchesChargeUntilTransition(t *testing.T) {
	cfg := testConfig()
	buffer, fake, counter := newTestBuffer(t, cfg)
	profile := &ConstantProfile{Power: cfg.HarvestPower}

	// A strong constant source charges the buffer past the upper threshold
	// within a bounded number of tick batches.
	const batch = 1000
	enabled := false
	for i := 0; i < 50 && !enabled; i++ {
		runTickBatch(buffer, profile, cfg, batch)
		enabled = fake.Enabled()
	}

	require.True(t, enabled, "output never enabled")
	assert.True(t, buffer.Outputting())
	assert.Equal(t, 1, fake.Count())
	assert.Equal(t, uint64(1), counter.count)
}

func TestRunTickBatchWithProfileOff(t *testing.T) {
	cfg := testConfig()
	buffer, fake, _ := newTestBuffer(t, cfg)

	// No harvest: only leakage drains, no transitions below the threshold
	start := buffer.Voltage()
	runTickBatch(buffer, &ConstantProfile{Power: 0}, cfg, 1000)

	assert.Less(t, buffer.Voltage(), start)
	assert.Zero(t, fake.Count())
}

func TestApplyCommandSetsPower(t *testing.T) {
	cfg := testConfig()
	power := uint32(2500)

	profile, err := applyCommand(SimCommand{Power: &power}, &ConstantProfile{Power: 1}, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint32(2500), profile.Next())
}

func TestApplyCommandSwitchesProfile(t *testing.T) {
	cfg := testConfig()

	profile, err := applyCommand(SimCommand{Profile: "square"}, &ConstantProfile{Power: 1}, cfg)
	require.NoError(t, err)
	sq, ok := profile.(*SquareProfile)
	require.True(t, ok)
	assert.Equal(t, cfg.HarvestPower, sq.High)

	// Switch and override power in one command
	power := uint32(123)
	profile, err = applyCommand(SimCommand{Profile: "constant", Power: &power}, profile, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint32(123), profile.Next())
}

func TestApplyCommandRejectsUnknownProfile(t *testing.T) {
	cfg := testConfig()
	original := &ConstantProfile{Power: 1}

	profile, err := applyCommand(SimCommand{Profile: "sawtooth"}, original, cfg)
	assert.Error(t, err)
	assert.Same(t, Profile(original), profile, "failed switch keeps the old profile")
}

func TestParseCommand(t *testing.T) {
	t.Run("power", func(t *testing.T) {
		cmd, err := parseCommand("power 12000")
		require.NoError(t, err)
		require.NotNil(t, cmd.Power)
		assert.Equal(t, uint32(12000), *cmd.Power)
		assert.Empty(t, cmd.Profile)
	})

	t.Run("profile", func(t *testing.T) {
		cmd, err := parseCommand("profile square")
		require.NoError(t, err)
		assert.Nil(t, cmd.Power)
		assert.Equal(t, "square", cmd.Profile)
	})

	t.Run("errors", func(t *testing.T) {
		for _, line := range []string{
			"",
			"power",
			"power lots",
			"power -5",
			"profile sawtooth",
			"selfdestruct now",
		} {
			_, err := parseCommand(line)
			assert.Error(t, err, "parseCommand(%q)", line)
		}
	})
}
