// Package gochannel provides the in-memory event bus used for tests and
// single-process setups.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	wmgochannel "github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/flowhost/yandexcloud-nodes/pkg/eventbus"
)

// NewEventBus creates an event bus backed by a watermill GoChannel pubsub.
func NewEventBus(logger watermill.LoggerAdapter) *eventbus.WatermillEventBus {
	pubSub := wmgochannel.NewGoChannel(
		wmgochannel.Config{
			OutputChannelBuffer: 1000,
			Persistent:          false,
		},
		logger,
	)

	return eventbus.NewWatermillEventBus(pubSub, pubSub)
}

// NewTestEventBus creates a bus with blocking publish so tests observe
// events deterministically.
func NewTestEventBus(logger watermill.LoggerAdapter) *eventbus.WatermillEventBus {
	pubSub := wmgochannel.NewGoChannel(
		wmgochannel.Config{
			OutputChannelBuffer:            10,
			Persistent:                     true,
			BlockPublishUntilSubscriberAck: true,
		},
		logger,
	)

	return eventbus.NewWatermillEventBus(pubSub, pubSub)
}
