package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantProfile(t *testing.T) {
	p := &ConstantProfile{Power: 10000}
	for i := 0; i < 5; i++ {
		assert.Equal(t, uint32(10000), p.Next())
	}

	p.SetPower(250)
	assert.Equal(t, uint32(250), p.Next())
}

func TestSquareProfileAlternates(t *testing.T) {
	p := &SquareProfile{High: 5, Low: 2, HalfPeriod: 3}

	var got []uint32
	for i := 0; i < 9; i++ {
		got = append(got, p.Next())
	}
	assert.Equal(t, []uint32{5, 5, 5, 2, 2, 2, 5, 5, 5}, got)
}

func TestSquareProfileSetPowerRaisesHighLevel(t *testing.T) {
	p := &SquareProfile{High: 5, Low: 2, HalfPeriod: 2}
	p.SetPower(8)
	assert.Equal(t, uint32(8), p.Next())
	assert.Equal(t, uint32(8), p.Next())
	assert.Equal(t, uint32(2), p.Next())
}

func TestNewProfile(t *testing.T) {
	cfg := Config{HarvestPower: 7000, HarvestLowPower: 100, ProfileHalfPeriod: 50}

	t.Run("constant", func(t *testing.T) {
		p, err := NewProfile("constant", cfg)
		require.NoError(t, err)
		assert.Equal(t, uint32(7000), p.Next())
	})

	t.Run("square", func(t *testing.T) {
		p, err := NewProfile("square", cfg)
		require.NoError(t, err)
		sq, ok := p.(*SquareProfile)
		require.True(t, ok)
		assert.Equal(t, uint32(7000), sq.High)
		assert.Equal(t, uint32(100), sq.Low)
		assert.Equal(t, uint32(50), sq.HalfPeriod)
	})

	t.Run("off", func(t *testing.T) {
		p, err := NewProfile("off", cfg)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), p.Next())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewProfile("sawtooth", cfg)
		assert.Error(t, err)
	})

	t.Run("square requires half period", func(t *testing.T) {
		bad := cfg
		bad.ProfileHalfPeriod = 0
		_, err := NewProfile("square", bad)
		assert.Error(t, err)
	})
}
