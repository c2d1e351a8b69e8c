package main

import (
	"math"
	"time"
)

// minMaxBucket holds min/max millivolt values for a single minute
type minMaxBucket struct {
	min, max uint32
}

// VoltageMinMax tracks capacitor-voltage min/max over a rolling 1-hour window
// using 60 1-minute buckets. It gives the debug console and telemetry a view
// of how deep the buffer sags and how high it recovers between transitions.
type VoltageMinMax struct {
	buckets       [60]minMaxBucket
	currentMinute int // -1 = uninitialized
}

// NewVoltageMinMax creates a VoltageMinMax with all buckets initialized to
// sentinel values
func NewVoltageMinMax() VoltageMinMax {
	r := VoltageMinMax{currentMinute: -1}
	for i := range r.buckets {
		r.buckets[i] = minMaxBucket{min: math.MaxUint32, max: 0}
	}
	return r
}

// Update records a millivolt value at the current time
func (r *VoltageMinMax) Update(mv uint32) {
	r.updateAt(mv, time.Now().Minute())
}

// updateAt records a value at the specified minute (for testing)
func (r *VoltageMinMax) updateAt(mv uint32, minute int) {
	if r.currentMinute >= 0 && minute != r.currentMinute {
		// Clear missed buckets (wrap around)
		for i := (r.currentMinute + 1) % 60; i != minute; i = (i + 1) % 60 {
			r.buckets[i] = minMaxBucket{min: math.MaxUint32, max: 0}
		}
	}

	if minute != r.currentMinute {
		// First value for this minute - init directly
		r.buckets[minute] = minMaxBucket{min: mv, max: mv}
		r.currentMinute = minute
		return
	}

	// Update existing bucket
	b := &r.buckets[minute]
	b.min = min(b.min, mv)
	b.max = max(b.max, mv)
}

// Min returns the minimum millivolt value across all buckets, or 0 if no data
func (r *VoltageMinMax) Min() uint32 {
	result := uint32(math.MaxUint32)
	for _, b := range r.buckets {
		result = min(result, b.min)
	}
	if result == math.MaxUint32 {
		return 0
	}
	return result
}

// Max returns the maximum millivolt value across all buckets, or 0 if no data
func (r *VoltageMinMax) Max() uint32 {
	result := uint32(0)
	for _, b := range r.buckets {
		result = max(result, b.max)
	}
	return result
}
