package queue

import (
	"fmt"
	"log/slog"

	"github.com/your-org/photohub/internal/audit"
	"github.com/your-org/photohub/internal/config"
)

// NewAlertNotifier selects the audit alert transport: "nats" publishes on
// the ALERTS stream through producer, "kafka" writes to the configured topic
// and "none" disables alerts. The notifier is a nil interface when disabled.
func NewAlertNotifier(transport string, kafka config.KafkaConfig, producer *Producer) (audit.Notifier, func(), error) {
	noop := func() {}
	switch transport {
	case "nats":
		if producer == nil {
			return nil, noop, fmt.Errorf("nats alert transport needs a producer")
		}
		return producer, noop, nil
	case "kafka":
		kn, err := NewKafkaNotifier(kafka.Brokers, kafka.Topic)
		if err != nil {
			return nil, noop, err
		}
		return kn, func() {
			if err := kn.Close(); err != nil {
				slog.Warn("close kafka writer", "error", err)
			}
		}, nil
	case "none":
		return nil, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown alert transport %q", transport)
	}
}
