package main

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// telemetryWorker publishes simulation snapshots to MQTT. Snapshots arrive at
// the tick rate; publishing is throttled to publishInterval except that
// output-state changes go out immediately.
func telemetryWorker(
	ctx context.Context,
	statusChan <-chan SimStatus,
	deviceName string,
	publishInterval time.Duration,
	sender *MQTTSender,
) {
	log.Println("Telemetry worker started")

	id := deviceID(deviceName)
	stateTopic := "homeassistant/sensor/" + id + "/state"
	outputTopic := "homeassistant/binary_sensor/" + id + "_output/state"

	var lastPublish time.Time
	var lastOutputting, outputKnown bool

	for {
		select {
		case status := <-statusChan:
			outputChanged := !outputKnown || status.Outputting != lastOutputting
			if outputChanged {
				payload := "OFF"
				if status.Outputting {
					payload = "ON"
				}
				sender.Send(MQTTMessage{
					Topic:   outputTopic,
					Payload: []byte(payload),
					QoS:     1,
					Retain:  true,
				})
				lastOutputting = status.Outputting
				outputKnown = true
			}

			if !outputChanged && time.Since(lastPublish) < publishInterval {
				continue
			}
			lastPublish = time.Now()

			statePayload := map[string]interface{}{
				"voltage_mv":  status.VoltageMV,
				"voltage":     status.Voltage,
				"outputting":  status.Outputting,
				"sim_time_us": status.SimTime.Microseconds(),
				"steps":       status.Steps,
				"transitions": status.Transitions,
			}

			payloadBytes, err := json.Marshal(statePayload)
			if err != nil {
				log.Printf("Telemetry worker: failed to marshal state payload: %v\n", err)
				continue
			}

			sender.Send(MQTTMessage{
				Topic:   stateTopic,
				Payload: payloadBytes,
				QoS:     0,
				Retain:  false,
			})

		case <-ctx.Done():
			log.Println("Telemetry worker stopped")
			return
		}
	}
}
