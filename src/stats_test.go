package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVoltageMinMax_Empty(t *testing.T) {
	r := NewVoltageMinMax()
	assert.Equal(t, uint32(0), r.Min())
	assert.Equal(t, uint32(0), r.Max())
}

func TestVoltageMinMax_SingleValue(t *testing.T) {
	r := NewVoltageMinMax()
	r.updateAt(3300, 0)
	assert.Equal(t, uint32(3300), r.Min())
	assert.Equal(t, uint32(3300), r.Max())
}

func TestVoltageMinMax_MultipleValuesSameMinute(t *testing.T) {
	r := NewVoltageMinMax()
	r.updateAt(3300, 0)
	r.updateAt(3180, 0)
	r.updateAt(3420, 0)
	assert.Equal(t, uint32(3180), r.Min())
	assert.Equal(t, uint32(3420), r.Max())
}

func TestVoltageMinMax_MultipleMinutes(t *testing.T) {
	r := NewVoltageMinMax()
	r.updateAt(3300, 0)
	r.updateAt(3500, 1)
	r.updateAt(3100, 2)
	assert.Equal(t, uint32(3100), r.Min())
	assert.Equal(t, uint32(3500), r.Max())
}

func TestVoltageMinMax_MissedMinutesClearsOldData(t *testing.T) {
	r := NewVoltageMinMax()
	r.updateAt(3300, 0)
	r.updateAt(3100, 1)
	// Jump to minute 5, skipping 2-4
	r.updateAt(3200, 5)
	// Minutes 0,1,5 have data; 2-4 should be cleared
	assert.Equal(t, uint32(3100), r.Min()) // From minute 1
	assert.Equal(t, uint32(3300), r.Max()) // From minute 0
}

func TestVoltageMinMax_WrapAround(t *testing.T) {
	r := NewVoltageMinMax()
	r.updateAt(3300, 58)
	r.updateAt(3500, 59)
	// Wrap to minute 2, clearing 0,1
	r.updateAt(3400, 2)
	assert.Equal(t, uint32(3300), r.Min())
	assert.Equal(t, uint32(3500), r.Max())
}
