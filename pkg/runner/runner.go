// Package runner implements the shared per-item execution loop all nodes
// run their items through: sequential, in input order, one item at a time.
package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowhost/yandexcloud-nodes/pkg/eventbus"
	"github.com/flowhost/yandexcloud-nodes/pkg/events"
	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/otelhelper"
)

// ItemFunc processes one input item and returns the output item. The runner
// owns the paired-item back-reference; handlers only fill JSON and Binary.
type ItemFunc func(ctx context.Context, item models.Item, index int) (models.Item, error)

// Process-wide defaults used when Options leaves Tracer or Events nil. Set
// once at startup, before any node runs.
var (
	defaultEvents eventbus.EventPublisher
	defaultTracer trace.Tracer
)

// SetDefaultEventPublisher wires the publisher executions fall back to when
// the caller does not supply one.
func SetDefaultEventPublisher(publisher eventbus.EventPublisher) {
	defaultEvents = publisher
}

// SetDefaultTracer wires the tracer executions fall back to when the caller
// does not supply one.
func SetDefaultTracer(tracer trace.Tracer) {
	defaultTracer = tracer
}

// Options configures one ProcessItems run. Tracer and Events are optional;
// nil falls back to the process-wide defaults, unset defaults disable
// tracing and event publishing respectively.
type Options struct {
	ExecutionID    string
	NodeID         string
	NodeType       string
	ContinueOnFail bool
	Logger         *slog.Logger
	Tracer         trace.Tracer
	Events         eventbus.EventPublisher
}

// ProcessItems runs fn over items sequentially. Validation errors abort the
// whole run regardless of continue-on-fail. Remote failures are wrapped in a
// *NodeError carrying the item index; with continue-on-fail enabled the
// failed item becomes an {error, success:false} marker and processing moves
// on, with successful items marked success:true.
func ProcessItems(ctx context.Context, items []models.Item, opts Options, fn ItemFunc) ([]models.Item, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Events == nil {
		opts.Events = defaultEvents
	}

	if opts.Tracer == nil {
		opts.Tracer = defaultTracer
	}

	logger = logger.With("node_id", opts.NodeID, "node_type", opts.NodeType)

	started := time.Now()
	failed := 0

	publish(ctx, opts, events.NodeExecutionStarted{
		BaseEvent:      baseEvent(opts, events.NodeExecutionStartedEvent),
		ItemCount:      len(items),
		ContinueOnFail: opts.ContinueOnFail,
	})

	out := make([]models.Item, 0, len(items))

	for index, item := range items {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := runItem(ctx, opts, item, index, fn)
		if err != nil {
			if IsValidation(err) {
				// Credential and configuration problems poison every item:
				// abort without consuming the rest of the input.
				return nil, err
			}

			nodeErr := &NodeError{NodeType: opts.NodeType, ItemIndex: index, Err: err}
			failed++

			publish(ctx, opts, events.NodeItemFailed{
				BaseEvent: baseEvent(opts, events.NodeItemFailedEvent),
				ItemIndex: index,
				Error:     nodeErr.Error(),
				Recovered: opts.ContinueOnFail,
			})

			if !opts.ContinueOnFail {
				return nil, nodeErr
			}

			logger.WarnContext(ctx, "Item failed, continuing", "item_index", index, "error", err)
			out = append(out, models.ErrorItem(index, nodeErr))

			continue
		}

		result.PairedItem = index

		if opts.ContinueOnFail {
			if result.JSON == nil {
				result.JSON = make(map[string]any)
			}

			if _, exists := result.JSON["success"]; !exists {
				result.JSON["success"] = true
			}
		}

		out = append(out, result)
	}

	publish(ctx, opts, events.NodeExecutionFinished{
		BaseEvent: baseEvent(opts, events.NodeExecutionFinishedEvent),
		ItemsIn:   len(items),
		ItemsOut:  len(out),
		Failed:    failed,
		Duration:  time.Since(started),
	})

	return out, nil
}

func runItem(ctx context.Context, opts Options, item models.Item, index int, fn ItemFunc) (models.Item, error) {
	if opts.Tracer == nil {
		return fn(ctx, item, index)
	}

	itemCtx, span := otelhelper.StartSpan(ctx, opts.Tracer, opts.NodeType+".item",
		attribute.String(otelhelper.ExecutionIDKey, opts.ExecutionID),
		attribute.String(otelhelper.NodeIDKey, opts.NodeID),
		attribute.String(otelhelper.NodeTypeKey, opts.NodeType),
		attribute.Int(otelhelper.ItemIndexKey, index),
	)
	defer span.End()

	result, err := fn(itemCtx, item, index)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return result, err
}

func baseEvent(opts Options, eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		Timestamp:   time.Now(),
		ExecutionID: opts.ExecutionID,
		NodeID:      opts.NodeID,
		NodeType:    opts.NodeType,
	}
}

func publish(ctx context.Context, opts Options, event eventbus.Event) {
	if opts.Events == nil {
		return
	}

	if err := opts.Events.Publish(ctx, opts.ExecutionID, event); err != nil && opts.Logger != nil {
		opts.Logger.WarnContext(ctx, "Failed to publish execution event",
			"event_type", event.GetType(), "error", err)
	}
}
