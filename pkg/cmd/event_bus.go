// Package cmd provides shared setup helpers for the CLI binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/flowhost/yandexcloud-nodes/pkg/eventbus"
	"github.com/flowhost/yandexcloud-nodes/pkg/eventbus/gochannel"
	"github.com/flowhost/yandexcloud-nodes/pkg/eventbus/kafka"
	"github.com/flowhost/yandexcloud-nodes/pkg/otelhelper"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
)

// NewEventBus builds the execution event bus for a process. Provider "none"
// disables publishing.
func NewEventBus(provider, brokers, consumerGroup string, logger *slog.Logger) (eventbus.EventBus, error) {
	switch provider {
	case "", "none":
		return nil, nil
	case "gochannel":
		return gochannel.NewEventBus(watermill.NewSlogLogger(logger)), nil
	case "kafka":
		if brokers == "" {
			return nil, fmt.Errorf("kafka event bus requires brokers")
		}

		return kafka.NewEventBus(strings.Split(brokers, ","), consumerGroup, watermill.NewSlogLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}

// Observability wires the process-wide event publisher and tracer the runner
// falls back to. A nil bus and disabled tracing leave both off.
func Observability(ctx context.Context, serviceName string, bus eventbus.EventBus, tracing bool) error {
	if bus != nil {
		runner.SetDefaultEventPublisher(bus)
	}

	if tracing {
		tracer, err := otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}

		runner.SetDefaultTracer(tracer)
	}

	return nil
}
