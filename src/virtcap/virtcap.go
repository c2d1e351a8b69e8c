// Package virtcap simulates a super-capacitor energy buffer in fixed-point
// integer arithmetic. It reproduces the charge/discharge behavior of a
// capacitor-backed energy harvester, including the hysteresis machine that
// switches a downstream load on and off as stored energy crosses thresholds.
//
// Everything is integer with fixed shifts. The shifts and gain constants
// encode the transfer functions of the physical instrument's ADCs, so the
// simulated voltage trace can be compared bit for bit against the hardware
// rig. Do not replace them with floating point.
package virtcap

import "fmt"

// ScaleInput converts a raw input-power reading divided by a logic-unit
// voltage into a logic-unit current. Derived from the reference voltages and
// sense bit-widths, not from user settings:
//
//	100.5 * (1<<17 - 1) * (1<<18 - 1) / (4.096 * 8.192) / 1e6
const ScaleInput = 102911

// Sink receives output-enable transitions from the hysteresis machine. It is
// called synchronously from Step and must not block; the caller is on a
// real-time tick budget.
type Sink interface {
	SetOutputEnabled(enabled bool)
}

// Settings holds the physical description of the simulated circuit. All
// fields are in physical units; New converts them to logic units internally.
type Settings struct {
	CapacitanceUF uint32 // total buffer capacitance, uF
	OutputCapUF   uint32 // output-side capacitor, uF; must be 0 < OutputCapUF < CapacitanceUF

	LeakageCurrentUA   uint32 // parasitic drain while idle, uA
	OnLeakageCurrentUA uint32 // additional drain while the output is on, uA

	ConverterEfficiency uint32 // output converter efficiency, fixed point, 1.0 == 1<<13

	SamplePeriodUS uint32 // simulation step length, us
	Discretize     uint32 // hysteresis evaluates every Discretize steps

	UpperThresholdMV  uint32 // turn the output on above this, mV
	LowerThresholdMV  uint32 // turn the output off below this, mV
	MinVoltageMV      uint32 // clamp floor, mV
	MaxVoltageMV      uint32 // clamp ceiling, mV
	InitVoltageMV     uint32 // starting estimate, mV
	DCOutputVoltageMV uint32 // regulated output rail, mV
}

// Cap is a calibrated capacitor simulation. Create one with New; the zero
// value is not usable. A Cap is owned by a single caller: Step must not be
// invoked concurrently.
type Cap struct {
	settings Settings
	sink     Sink

	// logic-unit copies of the voltage/current settings
	upperThreshold uint32
	lowerThreshold uint32
	minVoltage     uint32
	maxVoltage     uint32
	dcOutput       uint32
	leakage        uint32
	onLeakage      uint32

	outputCapScale uint32 // voltage retained after turn-on charge redistribution, <<10

	capVoltage     uint32 // current estimate, logic units
	outputting     bool
	enabled        bool // reserved; carried for interface compatibility, never driven
	discretizeCntr uint32
	calibrated     bool
}

// New calibrates a capacitor simulation from physical settings and wires the
// transition sink. Calibration derives the turn-on redistribution factor
//
//	outputCapScale = sqrt((C - Cout) * 2^20 / C)
//
// which models the instantaneous voltage sag when the output capacitor is
// connected and charge is shared between the two capacitances.
func New(s Settings, sink Sink) (*Cap, error) {
	if sink == nil {
		return nil, fmt.Errorf("virtcap: sink must not be nil")
	}
	if s.CapacitanceUF == 0 {
		return nil, fmt.Errorf("virtcap: capacitance must be positive")
	}
	if s.OutputCapUF == 0 || s.OutputCapUF >= s.CapacitanceUF {
		return nil, fmt.Errorf("virtcap: output capacitance %d uF must be in (0, %d) uF",
			s.OutputCapUF, s.CapacitanceUF)
	}
	if s.Discretize == 0 {
		return nil, fmt.Errorf("virtcap: discretize interval must be at least 1")
	}
	if s.SamplePeriodUS == 0 {
		return nil, fmt.Errorf("virtcap: sample period must be positive")
	}
	if s.MinVoltageMV == 0 {
		return nil, fmt.Errorf("virtcap: minimum voltage must be positive")
	}
	if s.LowerThresholdMV >= s.UpperThresholdMV {
		return nil, fmt.Errorf("virtcap: lower threshold %d mV must be below upper threshold %d mV",
			s.LowerThresholdMV, s.UpperThresholdMV)
	}
	if s.MinVoltageMV > s.InitVoltageMV || s.InitVoltageMV > s.MaxVoltageMV {
		return nil, fmt.Errorf("virtcap: initial voltage %d mV outside [%d, %d] mV",
			s.InitVoltageMV, s.MinVoltageMV, s.MaxVoltageMV)
	}

	c := &Cap{
		settings: s,
		sink:     sink,

		upperThreshold: VoltageToLogic(s.UpperThresholdMV),
		lowerThreshold: VoltageToLogic(s.LowerThresholdMV),
		minVoltage:     VoltageToLogic(s.MinVoltageMV),
		maxVoltage:     VoltageToLogic(s.MaxVoltageMV),
		dcOutput:       VoltageToLogic(s.DCOutputVoltageMV),
		leakage:        CurrentToLogic(s.LeakageCurrentUA),
		onLeakage:      CurrentToLogic(s.OnLeakageCurrentUA),

		capVoltage: VoltageToLogic(s.InitVoltageMV),
		calibrated: true,
	}

	// Capacitances are dimensionless ratios here, so they bypass the unit
	// conversions.
	preSqrt := (s.CapacitanceUF - s.OutputCapUF) * 1024 * 1024 / s.CapacitanceUF
	c.outputCapScale = SqrtRounded(preSqrt)

	return c, nil
}

// Step advances the simulation by one sample period.
//
// currentMeasured is the signed current-sense reading, voltageMeasured the
// output-side voltage reading, inputPower the harvesting source's power
// estimate, and efficiency the harvester conversion efficiency (1.0 == 1<<13).
//
// The arithmetic deliberately mirrors a fixed-point multiply-accumulate
// pipeline: divisions by the present voltage use the >>13 logic-unit range,
// and the voltage advance is the discretized dV = dI*dt/C with the unit gains
// folded into the shift and the constant 100. Intermediate products must stay
// within 32 bits; out-of-range sensor values wrap exactly as they do on the
// instrument.
func (c *Cap) Step(currentMeasured int32, voltageMeasured, inputPower, efficiency uint32) {
	if !c.calibrated {
		panic("virtcap: Step called on uncalibrated Cap")
	}

	// Input power over present voltage approximates input current.
	inputCurrent := int32(inputPower * ScaleInput / (c.capVoltage >> shiftVolt) * efficiency >> shiftVolt)
	inputCurrent -= int32(c.leakage)

	if !c.outputting {
		// The current sense is only trusted while actively driving the
		// load; ignore its noise floor otherwise.
		currentMeasured = 0
	}

	outputCurrent := int32(voltageMeasured * uint32(currentMeasured) / (c.capVoltage >> shiftVolt) * c.settings.ConverterEfficiency >> shiftVolt)

	// dV = dI * dt / C, discretized. The <<13 and the 100 absorb the unit
	// gains from the conversions above.
	dv := (inputCurrent - outputCurrent) << shiftVolt
	newVoltage := c.capVoltage + uint32(dv*int32(c.settings.SamplePeriodUS)/int32(100*c.settings.CapacitanceUF))

	if newVoltage >= c.maxVoltage {
		newVoltage = c.maxVoltage
	} else if newVoltage < c.minVoltage {
		newVoltage = c.minVoltage
	}

	// The output state is only reconsidered every Discretize samples,
	// modelling a control loop slower than the sample rate.
	c.discretizeCntr++
	if c.discretizeCntr >= c.settings.Discretize {
		c.discretizeCntr = 0

		if c.outputting && newVoltage < c.lowerThreshold {
			c.outputting = false
			c.sink.SetOutputEnabled(false)
		} else if !c.outputting && newVoltage > c.upperThreshold {
			c.outputting = true
			c.sink.SetOutputEnabled(true)
			// Connecting the output capacitor shares charge with it and
			// the buffer voltage sags instantly.
			newVoltage = (newVoltage >> 10) * c.outputCapScale
		}
	}

	c.capVoltage = newVoltage
}

// Voltage returns the current capacitor-voltage estimate in logic units.
func (c *Cap) Voltage() uint32 {
	return c.capVoltage
}

// VoltageMV returns the current capacitor-voltage estimate in millivolts.
func (c *Cap) VoltageMV() uint32 {
	return LogicToVoltageMV(c.capVoltage)
}

// Outputting reports whether the hysteresis machine currently has the output
// enabled.
func (c *Cap) Outputting() bool {
	return c.outputting
}

// Enabled reports the module-enable flag. The flag exists for interface
// compatibility with the instrument firmware and is never driven by the
// simulation itself.
func (c *Cap) Enabled() bool {
	return c.enabled
}

// OutputCapScale returns the derived turn-on redistribution factor, for
// diagnostics and calibration checks.
func (c *Cap) OutputCapScale() uint32 {
	return c.outputCapScale
}
