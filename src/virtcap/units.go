package virtcap

// shiftVolt is the fixed-point shift shared by the unit conversions and the
// capacitor update. Logic-unit voltages carry 13 fractional bits so that the
// per-sample voltage delta survives integer truncation.
const shiftVolt = 13

// VoltageToLogic converts millivolts to internal logic units.
// The gain of 32 is the instrument's 18-bit voltage ADC against its 8.192 V
// reference: mV * (1<<18 - 1) / 8.192 / 1000, kept as an exact shift-friendly
// integer so results match the rig bit for bit.
func VoltageToLogic(mv uint32) uint32 {
	return mv * 32 << shiftVolt
}

// CurrentToLogic converts microamps to internal logic units.
// The gain of 3216/1000 is the 17-bit current-sense range against the 4.096 V
// reference with the x100.5 sense amplifier: uA * 100.5 * (1<<17 - 1) / 4.096
// / 1000 / 1000.
func CurrentToLogic(ua uint32) uint32 {
	return ua * 3216 / 1000
}

// LogicToVoltageMV converts a logic-unit voltage back to millivolts for
// diagnostics. Inverse of VoltageToLogic, truncating.
func LogicToVoltageMV(logic uint32) uint32 {
	return (logic >> shiftVolt) / 32
}
