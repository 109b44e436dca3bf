package rabbitmq

import (
	"context"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Handler processes one delivery; the returned error is only logged.
type Handler func(topic string, message mqtt.Message) error

// QoSFor: observations and prediction events are at-least-once, anything else best effort.
func QoSFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "farm/observation") || strings.HasPrefix(t, "event/sustainability") {
		return 1
	}
	return 0
}

// MultiConsumer subscribes one handler to several topic filters.
type MultiConsumer struct {
	client  mqtt.Client
	topics  []string
	handler Handler
}

func NewMultiConsumer(client mqtt.Client, topics []string, handler Handler) *MultiConsumer {
	return &MultiConsumer{client: client, topics: topics, handler: handler}
}

// ConsumeMessage subscribes and blocks until ctx is cancelled, then unsubscribes.
func (m *MultiConsumer) ConsumeMessage(ctx context.Context) error {
	for _, topic := range m.topics {
		topic := topic
		token := m.client.Subscribe(topic, QoSFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if err := m.handler(msg.Topic(), msg); err != nil {
				log.Warn().Err(err).Str("topic", msg.Topic()).Msg("mqtt: handler failed")
			}
		})
		if token.Wait() && token.Error() != nil {
			return token.Error()
		}
		log.Info().Str("topic", topic).Msg("mqtt: subscribed")
	}

	<-ctx.Done()

	if m.client.IsConnected() {
		m.client.Unsubscribe(m.topics...).Wait()
	}
	return nil
}
