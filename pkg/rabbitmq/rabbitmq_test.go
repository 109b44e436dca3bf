package rabbitmq

import "testing"

func TestQoSFor(t *testing.T) {
	cases := map[string]byte{
		"farm/observation/field-1":   1,
		" farm/observation/#":        1,
		"event/sustainability/Wheat": 1,
		"sensor/raw/field-1":         0,
	}
	for topic, want := range cases {
		if got := QoSFor(topic); got != want {
			t.Errorf("QoSFor(%q) = %d, want %d", topic, got, want)
		}
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := RabbitMQConfig{Host: "rabbitmq.fog", Port: 1883}
	if got := cfg.BrokerURL(); got != "tcp://rabbitmq.fog:1883" {
		t.Fatalf("BrokerURL = %s", got)
	}
}
