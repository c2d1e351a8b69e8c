package main

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTMessage represents an outgoing MQTT message
type MQTTMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// MQTTSender wraps a channel for sending MQTT messages with helper methods
type MQTTSender struct {
	ch chan<- MQTTMessage
}

// NewMQTTSender creates a new MQTTSender wrapping the given channel
func NewMQTTSender(ch chan<- MQTTMessage) *MQTTSender {
	return &MQTTSender{ch: ch}
}

// Send sends a raw MQTTMessage
func (s *MQTTSender) Send(msg MQTTMessage) {
	s.ch <- msg
}

// deviceID derives the MQTT device identifier from a display name
func deviceID(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// CreateSensorEntity creates a Home Assistant sensor entity via MQTT discovery
func (s *MQTTSender) CreateSensorEntity(
	deviceName, entityName, entityClass, entityMeasure, jsonKey string,
) error {
	type haDeviceConfig struct {
		Identifiers  []string `json:"identifiers"`
		Name         string   `json:"name"`
		Manufacturer string   `json:"manufacturer,omitempty"`
	}

	type haEntityConfig struct {
		Name          string         `json:"name,omitempty"`
		DeviceClass   string         `json:"device_class"`
		StateTopic    string         `json:"state_topic"`
		UnitOfMeasure string         `json:"unit_of_measurement,omitempty"`
		ValueTemplate string         `json:"value_template"`
		UniqueId      string         `json:"unique_id"`
		StateClass    string         `json:"state_class,omitempty"`
		Device        haDeviceConfig `json:"device"`
	}

	id := deviceID(deviceName)

	config := haEntityConfig{
		Name:          entityName,
		DeviceClass:   entityClass,
		StateTopic:    "homeassistant/sensor/" + id + "/state",
		UnitOfMeasure: entityMeasure,
		ValueTemplate: "{{ value_json." + jsonKey + "}}",
		UniqueId:      id + "_" + jsonKey,
		StateClass:    "measurement",
		Device: haDeviceConfig{
			Identifiers:  []string{id},
			Name:         deviceName,
			Manufacturer: "virtcap",
		},
	}

	configTopic := "homeassistant/sensor/" + id + "_" + jsonKey + "/config"

	payload, err := json.Marshal(config)
	if err != nil {
		return err
	}

	s.Send(MQTTMessage{
		Topic:   configTopic,
		Payload: payload,
		QoS:     2,
		Retain:  true,
	})

	return nil
}

// CreateOutputStateEntity creates a Home Assistant binary sensor tracking the
// simulated load-switch state via MQTT discovery
func (s *MQTTSender) CreateOutputStateEntity(deviceName string) error {
	type haDeviceConfig struct {
		Identifiers []string `json:"identifiers"`
		Name        string   `json:"name"`
	}

	type haBinarySensorConfig struct {
		Name        string         `json:"name"`
		DeviceClass string         `json:"device_class"`
		StateTopic  string         `json:"state_topic"`
		UniqueId    string         `json:"unique_id"`
		Device      haDeviceConfig `json:"device"`
	}

	id := deviceID(deviceName)

	config := haBinarySensorConfig{
		Name:        "Output Enabled",
		DeviceClass: "power",
		StateTopic:  "homeassistant/binary_sensor/" + id + "_output/state",
		UniqueId:    id + "_output",
		Device: haDeviceConfig{
			Identifiers: []string{id},
			Name:        deviceName,
		},
	}

	payload, err := json.Marshal(config)
	if err != nil {
		return err
	}

	s.Send(MQTTMessage{
		Topic:   "homeassistant/binary_sensor/" + id + "_output/config",
		Payload: payload,
		QoS:     2,
		Retain:  true,
	})

	return nil
}

// mqttSenderWorker handles outgoing MQTT messages with queuing until a client
// is connected
func mqttSenderWorker(
	ctx context.Context,
	outgoingChan <-chan MQTTMessage,
	clientChan <-chan mqtt.Client,
) {
	log.Println("MQTT sender worker started")

	var client mqtt.Client
	var messageQueue []MQTTMessage

	for {
		select {
		case newClient := <-clientChan:
			log.Println("MQTT sender worker received new client")
			client = newClient

			// Process any queued messages now that we have a client
			if client != nil && client.IsConnected() {
				queuedCount := len(messageQueue)
				for _, msg := range messageQueue {
					token := client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
					token.Wait()
					if token.Error() != nil {
						log.Printf("Failed to publish queued message to %s: %v\n", msg.Topic, token.Error())
					}
				}
				messageQueue = nil // Clear the queue
				if queuedCount > 0 {
					log.Printf("MQTT sender worker processed %d queued messages\n", queuedCount)
				}
			}

		case msg := <-outgoingChan:
			if client != nil && client.IsConnected() {
				// We have a client, publish immediately
				token := client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
				token.Wait()
				if token.Error() != nil {
					log.Printf("Failed to publish to %s: %v\n", msg.Topic, token.Error())
				}
			} else {
				// No client yet, queue the message
				messageQueue = append(messageQueue, msg)
				log.Printf("MQTT sender worker queued message (total queued: %d)\n", len(messageQueue))
			}

		case <-ctx.Done():
			log.Println("MQTT sender worker stopped")
			return
		}
	}
}
