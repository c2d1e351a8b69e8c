package loadswitch

// Fake is a test double that records every transition it receives.
type Fake struct {
	// Transitions holds the enabled values in the order received.
	Transitions []bool
}

// SetOutputEnabled records the transition.
func (f *Fake) SetOutputEnabled(enabled bool) {
	f.Transitions = append(f.Transitions, enabled)
}

// Enabled returns the most recent state, or false if no transition has been
// received yet.
func (f *Fake) Enabled() bool {
	if len(f.Transitions) == 0 {
		return false
	}
	return f.Transitions[len(f.Transitions)-1]
}

// Count returns the number of transitions received.
func (f *Fake) Count() int {
	return len(f.Transitions)
}

// Reset clears recorded transitions.
func (f *Fake) Reset() {
	f.Transitions = nil
}
