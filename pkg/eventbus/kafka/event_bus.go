// Package kafka provides the Kafka-backed event bus.
package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"

	"github.com/flowhost/yandexcloud-nodes/pkg/eventbus"
)

// NewEventBus creates an event bus publishing to and consuming from Kafka.
// consumerGroup may be empty for publish-only use.
func NewEventBus(brokers []string, consumerGroup string, logger watermill.LoggerAdapter) (*eventbus.WatermillEventBus, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no Kafka brokers configured")
	}

	publisher, err := wmkafka.NewPublisher(
		wmkafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: wmkafka.DefaultMarshaler{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	saramaConfig := wmkafka.DefaultSaramaSubscriberConfig()
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := wmkafka.NewSubscriber(
		wmkafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           wmkafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig,
			ConsumerGroup:         consumerGroup,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka subscriber: %w", err)
	}

	return eventbus.NewWatermillEventBus(publisher, subscriber), nil
}
