package sink

import (
	"context"

	"github.com/zjrosen/regform/internal/pubsub"
)

// BrokerSink publishes submissions to in-process subscribers.
type BrokerSink struct {
	broker *pubsub.Broker[Submission]
}

// NewBrokerSink publishes to broker.
func NewBrokerSink(broker *pubsub.Broker[Submission]) BrokerSink {
	return BrokerSink{broker: broker}
}

// Send implements Sink. Publishing never blocks and never fails.
func (s BrokerSink) Send(_ context.Context, sub Submission) error {
	if s.broker != nil {
		s.broker.Publish(pubsub.SubmittedEvent, sub)
	}
	return nil
}
