// Package mqttrpc exposes the suggestion gateway as request/response RPC over MQTT.
package mqttrpc

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTopicPrefix is used when MQTT_TOPIC_PREFIX is unset.
const DefaultTopicPrefix = "moodmusic"

// ErrBrokerNotConfigured is returned when MQTT_BROKER is not set.
// The MQTT transport is optional, so callers treat this as "disabled".
var ErrBrokerNotConfigured = errors.New("missing MQTT_BROKER environment variable")

// Config holds MQTT connection settings.
type Config struct {
	Broker         string
	TopicPrefix    string
	Username       string
	Password       string
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	MaxInFlight    int
}

// LoadConfig reads MQTT configuration from environment variables.
// Returns ErrBrokerNotConfigured if MQTT_BROKER is not set.
func LoadConfig() (*Config, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		return nil, ErrBrokerNotConfigured
	}

	prefix := strings.Trim(os.Getenv("MQTT_TOPIC_PREFIX"), "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}

	maxInFlight := DefaultMaxInFlight
	if v := os.Getenv("MQTT_MAX_INFLIGHT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MQTT_MAX_INFLIGHT %q: must be a positive integer", v)
		}
		maxInFlight = n
	}

	return &Config{
		Broker:         broker,
		TopicPrefix:    prefix,
		Username:       os.Getenv("MQTT_USERNAME"),
		Password:       os.Getenv("MQTT_PASSWORD"),
		KeepAlive:      30 * time.Second,
		ConnectTimeout: 30 * time.Second,
		MaxInFlight:    maxInFlight,
	}, nil
}

// RequestTopic is where suggestion requests arrive.
func RequestTopic(prefix string) string {
	return prefix + "/rpc/suggest/request"
}

// ResponseTopic is where the reply to requestID is published.
func ResponseTopic(prefix, requestID string) string {
	return prefix + "/rpc/suggest/response/" + requestID
}
