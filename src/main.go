package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"

	"github.com/ryansname/virtcap/src/loadswitch"
	"github.com/ryansname/virtcap/src/virtcap"
)

// deviceName is the display name used for MQTT discovery and topic ids
const deviceName = "Virtcap Buffer"

// SafeGo launches a goroutine with panic recovery and retry logic.
// On panic, retries with exponential backoff (max 10 retries).
// Retry count resets if worker ran for 2+ minutes before failing.
// After exhausting retries, cancels context to trigger shutdown.
func SafeGo(
	ctx context.Context,
	cancel context.CancelFunc,
	name string,
	fn func(ctx context.Context),
) {
	const maxRetries = 10
	const maxDelay = 10 * time.Minute
	const resetAfter = 2 * time.Minute

	go func() {
		retries := 0
		delay := time.Second

		for {
			startTime := time.Now()
			var panicValue any

			func() {
				defer func() {
					panicValue = recover()
				}()
				fn(ctx)
			}()

			// If function returned normally (no panic), exit the goroutine
			// This covers both context cancellation and unexpected completion
			if panicValue == nil {
				return
			}

			// If ran for resetAfter duration before panicking, reset retry state
			if time.Since(startTime) >= resetAfter {
				retries = 0
				delay = time.Second
			}

			retries++
			log.Printf("Panic in %s (attempt %d/%d): %v\n", name, retries, maxRetries, panicValue)

			// Check if we've exhausted retries
			if retries >= maxRetries {
				log.Printf("%s failed after %d retries, shutting down\n", name, maxRetries)
				cancel()
				return
			}

			// Wait before retry with exponential backoff
			log.Printf("%s will retry in %v\n", name, delay)
			select {
			case <-time.After(delay):
				// Double delay for next time, cap at max
				delay = min(delay*2, maxDelay)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// buildSink constructs the actuation sink chain: a transition counter for
// telemetry, plus either a real GPIO load switch or a logging sink.
func buildSink(cfg Config, counter *transitionCounter) (virtcap.Sink, func(), error) {
	cleanup := func() {}

	var actuation interface{ SetOutputEnabled(bool) }
	if cfg.GPIOChip != "" {
		gpio, err := loadswitch.NewGPIO(cfg.GPIOChip, cfg.GPIOLine)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			if err := gpio.Close(); err != nil {
				log.Printf("Load switch close: %v\n", err)
			}
		}
		actuation = gpio
		log.Printf("Load switch on %s line %d\n", cfg.GPIOChip, cfg.GPIOLine)
	} else {
		actuation = &loadswitch.Log{Name: "Load switch"}
	}

	sink := &loadswitch.Tee{
		Sinks: []interface{ SetOutputEnabled(bool) }{counter, actuation},
	}
	return sink, cleanup, nil
}

func main() {
	log.Println("Starting virtcap...")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Create context for lifecycle management
	ctx, cancel := context.WithCancel(context.Background())

	// Build the actuation sink and calibrate the simulation. Calibration
	// errors must surface here, before the first sample tick.
	counter := &transitionCounter{}
	sink, closeSink, err := buildSink(cfg, counter)
	if err != nil {
		cancel()
		log.Fatalf("Load switch error: %v", err)
	}
	defer closeSink()

	buffer, err := virtcap.New(cfg.Settings, sink)
	if err != nil {
		cancel()
		log.Fatalf("Calibration error: %v", err)
	}
	log.Printf("Calibrated: %d uF buffer, %d uF output cap, scale factor %d, %d mV initial\n",
		cfg.Settings.CapacitanceUF, cfg.Settings.OutputCapUF,
		buffer.OutputCapScale(), buffer.VoltageMV())

	profile, err := NewProfile(cfg.Profile, cfg)
	if err != nil {
		cancel()
		log.Fatalf("Profile error: %v", err)
	}

	// Create channels for communication between workers
	statusChan := make(chan SimStatus, 10)
	cmdChan := make(chan SimCommand, 10)

	// Fan status snapshots out to downstream consumers
	var downstreamChans []chan<- SimStatus

	if cfg.MQTTBroker != "" {
		msgChan := make(chan CommandMessage, 10)
		mqttOutgoingChan := make(chan MQTTMessage, 100) // Larger buffer for queuing
		mqttClientChan := make(chan mqtt.Client, 1)     // Buffered to prevent blocking onConnect

		// Launch MQTT sender worker (receives client updates via channel)
		SafeGo(ctx, cancel, "mqtt-sender-worker", func(ctx context.Context) {
			mqttSenderWorker(ctx, mqttOutgoingChan, mqttClientChan)
		})

		sender := NewMQTTSender(mqttOutgoingChan)

		// Create Home Assistant entities for the simulated buffer
		log.Println("Creating Home Assistant entities...")
		if err := sender.CreateSensorEntity(deviceName, "Capacitor Voltage", "voltage", "mV", "voltage_mv"); err != nil {
			cancel()
			log.Fatalf("Failed to create capacitor voltage entity: %v", err)
		}
		if err := sender.CreateOutputStateEntity(deviceName); err != nil {
			cancel()
			log.Fatalf("Failed to create output state entity: %v", err)
		}

		// Launch telemetry worker
		telemetryChan := make(chan SimStatus, 10)
		downstreamChans = append(downstreamChans, telemetryChan)
		SafeGo(ctx, cancel, "telemetry-worker", func(ctx context.Context) {
			telemetryWorker(ctx, telemetryChan, deviceName, time.Second, sender)
		})

		// Launch command worker (parses MQTT command payloads)
		SafeGo(ctx, cancel, "command-worker", func(ctx context.Context) {
			commandWorker(ctx, msgChan, cmdChan)
		})

		// Launch MQTT worker
		topics := []string{cfg.MQTTCommandTopic}
		SafeGo(ctx, cancel, "mqtt-worker", func(ctx context.Context) {
			mqttWorker(ctx, cfg.MQTTBroker, topics,
				cfg.MQTTUsername, cfg.MQTTPassword, cfg.MQTTClientID,
				msgChan, mqttClientChan)
		})
		log.Println("MQTT workers started")
	}

	// Launch debug console
	if cfg.DebugConsole {
		debugChan := make(chan SimStatus, 10)
		downstreamChans = append(downstreamChans, debugChan)
		SafeGo(ctx, cancel, "debug-worker", func(ctx context.Context) {
			debugWorker(ctx, cancel, debugChan, cmdChan)
		})
	}

	// Launch broadcast worker (fans out to all downstream workers)
	SafeGo(ctx, cancel, "broadcast-worker", func(ctx context.Context) {
		broadcastWorker(ctx, statusChan, downstreamChans)
	})

	// Launch sim worker (owns the calibrated buffer)
	SafeGo(ctx, cancel, "sim-worker", func(ctx context.Context) {
		simWorker(ctx, buffer, counter, cfg, profile, cmdChan, statusChan)
	})

	// Wait for interrupt signal or context cancellation (from panic)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Println("\nShutting down...")
	case <-ctx.Done():
		log.Println("\nShutting down due to error...")
	}
	cancel()
}
