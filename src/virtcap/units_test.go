package virtcap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVoltageToLogic(t *testing.T) {
	// 1 mV = 32 << 13 logic units
	assert.Equal(t, uint32(262144), VoltageToLogic(1))
	assert.Equal(t, uint32(0), VoltageToLogic(0))
	assert.Equal(t, uint32(786432000), VoltageToLogic(3000))
	assert.Equal(t, uint32(917504000), VoltageToLogic(3500))
}

func TestCurrentToLogic(t *testing.T) {
	assert.Equal(t, uint32(0), CurrentToLogic(0))
	// Truncating gain of 3216/1000
	assert.Equal(t, uint32(3), CurrentToLogic(1))
	assert.Equal(t, uint32(12), CurrentToLogic(4))
	assert.Equal(t, uint32(3216), CurrentToLogic(1000))
	assert.Equal(t, uint32(176), CurrentToLogic(55)) // 176.88 truncates
}

func TestLogicToVoltageMVInvertsVoltageToLogic(t *testing.T) {
	for _, mv := range []uint32{1, 50, 2000, 3000, 3300, 4200, 5000} {
		assert.Equal(t, mv, LogicToVoltageMV(VoltageToLogic(mv)), "%d mV", mv)
	}
}
