package main

import "fmt"

// Profile produces the harvesting source's input-power reading for each
// simulation sample. Profiles are pure integer state machines stepped once
// per sample.
type Profile interface {
	// Next returns the input power for the next sample.
	Next() uint32
	// SetPower overrides the profile's (high) power level at runtime.
	SetPower(power uint32)
}

// ConstantProfile emits a fixed input power every sample.
type ConstantProfile struct {
	Power uint32
}

func (p *ConstantProfile) Next() uint32 {
	return p.Power
}

func (p *ConstantProfile) SetPower(power uint32) {
	p.Power = power
}

// SquareProfile alternates between a high and a low power level every
// HalfPeriod samples, approximating an intermittent source such as a swept
// light or RF field.
type SquareProfile struct {
	High       uint32
	Low        uint32
	HalfPeriod uint32

	tick uint32
	low  bool
}

func (p *SquareProfile) Next() uint32 {
	power := p.High
	if p.low {
		power = p.Low
	}

	p.tick++
	if p.tick >= p.HalfPeriod {
		p.tick = 0
		p.low = !p.low
	}
	return power
}

func (p *SquareProfile) SetPower(power uint32) {
	p.High = power
}

// NewProfile builds the named profile from the config's power levels.
func NewProfile(name string, cfg Config) (Profile, error) {
	switch name {
	case "constant":
		return &ConstantProfile{Power: cfg.HarvestPower}, nil
	case "square":
		if cfg.ProfileHalfPeriod == 0 {
			return nil, fmt.Errorf("square profile requires a positive half period")
		}
		return &SquareProfile{
			High:       cfg.HarvestPower,
			Low:        cfg.HarvestLowPower,
			HalfPeriod: cfg.ProfileHalfPeriod,
		}, nil
	case "off":
		return &ConstantProfile{Power: 0}, nil
	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}
}
