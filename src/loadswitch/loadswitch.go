// Package loadswitch provides virtcap.Sink implementations for acting on
// output-enable transitions: a real GPIO-backed switch on Linux, a logging
// sink, a recording fake for tests, and a tee for fanning out.
//
// All implementations return promptly; the simulation invokes sinks
// synchronously from its sample tick.
package loadswitch

import "log"

// Log announces transitions on the process log. It is the default sink when
// no GPIO line is configured.
type Log struct {
	Name string
}

// SetOutputEnabled logs the transition.
func (l *Log) SetOutputEnabled(enabled bool) {
	state := "off"
	if enabled {
		state = "on"
	}
	log.Printf("%s: output %s\n", l.Name, state)
}

// Tee fans a single transition out to several sinks in order.
type Tee struct {
	Sinks []interface{ SetOutputEnabled(bool) }
}

// SetOutputEnabled forwards the transition to every sink.
func (t *Tee) SetOutputEnabled(enabled bool) {
	for _, s := range t.Sinks {
		s.SetOutputEnabled(enabled)
	}
}
