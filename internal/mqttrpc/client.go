package mqttrpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	qos            = 1
	publishTimeout = 10 * time.Second
	quiesceMillis  = 250
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt operation timed out")

// clientPublisher publishes through a connected paho client.
type clientPublisher struct {
	client mqtt.Client
}

func (p clientPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return ErrTimeout
	}
	return token.Error()
}

// Serve connects to the broker, subscribes to the request topic, and answers
// requests until ctx is cancelled. Subscriptions are restored on reconnect.
func Serve(ctx context.Context, cfg *Config, srv *Server) error {
	clientID := "moodmusic-" + uuid.NewString()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetKeepAlive(cfg.KeepAlive).
		SetPingTimeout(cfg.KeepAlive / 2).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	requestTopic := RequestTopic(cfg.TopicPrefix)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		srv.logger.Info("connected to broker", "broker", cfg.Broker, "clientId", clientID)
		pub := clientPublisher{client: c}
		token := c.Subscribe(requestTopic, qos, func(_ mqtt.Client, m mqtt.Message) {
			srv.HandleMessage(ctx, pub, m.Payload())
		})
		if !token.WaitTimeout(cfg.ConnectTimeout) {
			srv.logger.Error("subscribe timed out", "topic", requestTopic)
			return
		}
		if err := token.Error(); err != nil {
			srv.logger.Error("subscribe failed", "topic", requestTopic, "error", err)
			return
		}
		srv.logger.Info("subscribed", "topic", requestTopic)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		srv.logger.Warn("connection lost", "error", err)
	})

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return fmt.Errorf("connecting to %s: %w", cfg.Broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.Broker, err)
	}

	<-ctx.Done()

	if t := client.Unsubscribe(requestTopic); !t.WaitTimeout(time.Second) {
		srv.logger.Warn("unsubscribe timed out", "topic", requestTopic)
	}
	srv.Close()
	client.Disconnect(quiesceMillis)
	srv.logger.Info("disconnected from broker")
	return nil
}
