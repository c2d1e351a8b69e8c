package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/ryansname/virtcap/src/virtcap"
)

// SimStatus is a snapshot of the simulation, emitted after every tick batch.
type SimStatus struct {
	SimTime     time.Duration
	VoltageMV   uint32
	Voltage     uint32 // logic units, for rig comparisons
	Outputting  bool
	Steps       uint64
	Transitions uint64
}

// SimCommand adjusts the running simulation. Commands apply between tick
// batches, never mid-sample.
type SimCommand struct {
	// Power overrides the profile's power level when non-nil.
	Power *uint32
	// Profile switches the harvesting profile when non-empty.
	Profile string
}

// parseCommand parses a console or MQTT command line into a SimCommand.
// Accepted forms: "power <reading>", "profile <constant|square|off>".
func parseCommand(line string) (SimCommand, error) {
	parts := strings.Fields(line)
	if len(parts) != 2 {
		return SimCommand{}, fmt.Errorf("usage: power <reading> | profile <constant|square|off>")
	}

	switch parts[0] {
	case "power":
		n, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return SimCommand{}, fmt.Errorf("power %q is not a 32-bit unsigned integer", parts[1])
		}
		power := uint32(n)
		return SimCommand{Power: &power}, nil
	case "profile":
		switch parts[1] {
		case "constant", "square", "off":
			return SimCommand{Profile: parts[1]}, nil
		}
		return SimCommand{}, fmt.Errorf("unknown profile %q", parts[1])
	default:
		return SimCommand{}, fmt.Errorf("unknown command %q", parts[0])
	}
}

// transitionCounter counts hysteresis transitions for telemetry. It sits in
// the sink chain ahead of the actuation sink.
type transitionCounter struct {
	count uint64
}

func (t *transitionCounter) SetOutputEnabled(enabled bool) {
	t.count++
}

// runTickBatch advances the simulation by a batch of samples, feeding it the
// profile's input power and the configured load-sensor readings. The core
// ignores the load current while the output is off.
func runTickBatch(buffer *virtcap.Cap, profile Profile, cfg Config, steps int) {
	for i := 0; i < steps; i++ {
		power := profile.Next()
		buffer.Step(cfg.LoadCurrent, cfg.LoadVoltage, power, cfg.HarvestEfficiency)
	}
}

// applyCommand applies a SimCommand, swapping the profile if requested.
func applyCommand(cmd SimCommand, profile Profile, cfg Config) (Profile, error) {
	if cmd.Profile != "" {
		next, err := NewProfile(cmd.Profile, cfg)
		if err != nil {
			return profile, err
		}
		log.Printf("Sim worker: switched to %s profile\n", cmd.Profile)
		profile = next
	}
	if cmd.Power != nil {
		profile.SetPower(*cmd.Power)
		log.Printf("Sim worker: harvest power set to %d\n", *cmd.Power)
	}
	return profile, nil
}

// simWorker owns the calibrated Cap and drives it at the configured wall
// tick. Each tick runs StepsPerTick samples so simulated time tracks wall
// time, then emits a SimStatus snapshot.
func simWorker(
	ctx context.Context,
	buffer *virtcap.Cap,
	counter *transitionCounter,
	cfg Config,
	profile Profile,
	cmdChan <-chan SimCommand,
	statusChan chan<- SimStatus,
) {
	stepsPerTick := cfg.StepsPerTick()
	samplePeriod := time.Duration(cfg.Settings.SamplePeriodUS) * time.Microsecond
	log.Printf("Sim worker started (%d samples per %v tick)\n", stepsPerTick, cfg.TickInterval)

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	var steps uint64

	for {
		select {
		case cmd := <-cmdChan:
			var err error
			if profile, err = applyCommand(cmd, profile, cfg); err != nil {
				log.Printf("Sim worker: %v\n", err)
			}

		case <-ticker.C:
			runTickBatch(buffer, profile, cfg, stepsPerTick)
			steps += uint64(stepsPerTick)

			status := SimStatus{
				SimTime:     time.Duration(steps) * samplePeriod,
				VoltageMV:   buffer.VoltageMV(),
				Voltage:     buffer.Voltage(),
				Outputting:  buffer.Outputting(),
				Steps:       steps,
				Transitions: counter.count,
			}
			select {
			case statusChan <- status:
			default:
				// Snapshot consumers are behind; the next tick will
				// carry fresher data anyway.
			}

		case <-ctx.Done():
			log.Println("Sim worker stopped")
			return
		}
	}
}

// commandWorker parses raw command payloads from MQTT and forwards them to
// the sim worker.
func commandWorker(ctx context.Context, msgChan <-chan CommandMessage, cmdChan chan<- SimCommand) {
	for {
		select {
		case msg := <-msgChan:
			cmd, err := parseCommand(msg.Value)
			if err != nil {
				log.Printf("Command worker: %q: %v\n", msg.Value, err)
				continue
			}
			select {
			case cmdChan <- cmd:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
