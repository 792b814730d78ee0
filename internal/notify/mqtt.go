// Package notify publishes store changes to an MQTT broker.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/config"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
)

const publishTimeout = 5 * time.Second

// publisher is the part of mqtt.Client the notifier uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier 将 domain.Change 以 JSON 发布到 <prefix>/<collection>
type MQTTNotifier struct {
	client publisher
	prefix string
	qos    byte
	logger *zap.Logger
}

func NewMQTTNotifier(client publisher, prefix string, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{client: client, prefix: prefix, qos: qos, logger: logger}
}

// Connect 连接 broker
func Connect(cfg *config.MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

func (n *MQTTNotifier) Topic(collection string) string {
	return n.prefix + "/" + collection
}

func (n *MQTTNotifier) Notify(ctx context.Context, change domain.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	topic := n.Topic(change.Collection)
	token := n.client.Publish(topic, n.qos, false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	n.logger.Debug("Change published", zap.String("topic", topic), zap.String("op", string(change.Op)))
	return nil
}
