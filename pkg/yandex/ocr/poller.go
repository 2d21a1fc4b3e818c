// Package ocr implements the polling loop for asynchronous Vision text
// recognition jobs.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// OutputFormat selects how collected annotations are returned.
type OutputFormat string

const (
	FormatFullText   OutputFormat = "fullText"
	FormatStructured OutputFormat = "structured"
	FormatBoth       OutputFormat = "both"
)

// Job status values reported in poll results.
const (
	StatusDone    = "DONE"
	StatusRunning = "RUNNING"
)

// TextAnnotation is one recognized page yielded by the result stream.
type TextAnnotation struct {
	Page int            `json:"page"`
	Text string         `json:"text"`
	Raw  map[string]any `json:"raw,omitempty"`
}

// ResultSource streams the annotations of a recognition job. The
// implementation calls yield once per annotation, in page order, and returns
// nil only when the job's result stream completed: a nil return means the
// job is finished.
type ResultSource interface {
	StreamResults(ctx context.Context, operationID string, yield func(TextAnnotation)) error
}

// Config controls one polling run.
type Config struct {
	OperationID          string       `validate:"required"`
	PollIntervalSeconds  int          `validate:"min=1,max=60"`
	MaxAttempts          int          `validate:"min=1,max=300"`
	ReturnPartialResults bool
	OutputFormat         OutputFormat `validate:"oneof=fullText structured both"`
}

// DefaultConfig returns the poller defaults for an operation id.
func DefaultConfig(operationID string) Config {
	return Config{
		OperationID:         operationID,
		PollIntervalSeconds: 5,
		MaxAttempts:         60,
		OutputFormat:        FormatFullText,
	}
}

// Result is the outcome of a polling run. FullText joins page texts with a
// blank line; Annotations keeps the ordered page sequence. Which of the two
// is populated follows the requested output format. Warning is set only on
// partial (RUNNING) results.
type Result struct {
	Status       string           `json:"status"`
	AttemptsUsed int              `json:"attempts_used"`
	FullText     string           `json:"full_text,omitempty"`
	Annotations  []TextAnnotation `json:"annotations,omitempty"`
	Warning      string           `json:"warning,omitempty"`
}

// TimeoutError reports a run that exhausted its attempts without the job
// finishing and without any partial result to return.
type TimeoutError struct {
	OperationID string
	Attempts    int
	Elapsed     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("recognition operation %s did not finish after %d attempts (%s elapsed)",
		e.OperationID, e.Attempts, e.Elapsed.Round(time.Millisecond))
}

// Poller repeatedly queries a recognition job's result stream until the job
// finishes, tolerating the known submit/fetch race where the service reports
// the operation's data as not ready yet.
type Poller struct {
	source   ResultSource
	logger   *slog.Logger
	validate *validator.Validate
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

func NewPoller(source ResultSource, logger *slog.Logger) *Poller {
	return &Poller{
		source:   source,
		logger:   logger.With("module", "ocr_poller"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		sleep:    sleepContext,
		now:      time.Now,
	}
}

// Poll runs the polling loop described by cfg.
//
// Annotations accumulate across attempts within this one run and are
// discarded if the run fails outright; nothing is retained between runs.
func (p *Poller) Poll(ctx context.Context, cfg Config) (*Result, error) {
	if err := p.validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid poller configuration: %w", err)
	}

	started := p.now()
	interval := time.Duration(cfg.PollIntervalSeconds) * time.Second

	var (
		annotations []TextAnnotation
		attempt     int
		done        bool
	)

	for attempt < cfg.MaxAttempts && !done {
		attempt++

		err := p.source.StreamResults(ctx, cfg.OperationID, func(a TextAnnotation) {
			annotations = append(annotations, a)
		})

		switch {
		case err == nil:
			done = true
		case isNotReady(err):
			p.logger.DebugContext(ctx, "Recognition data not ready",
				"operation_id", cfg.OperationID, "attempt", attempt)
		default:
			// Anything other than the not-ready race is fatal: no retry
			// budget is spent on it.
			return nil, err
		}

		if !done && attempt < cfg.MaxAttempts {
			if err := p.sleep(ctx, interval); err != nil {
				return nil, err
			}
		}
	}

	if done && len(annotations) > 0 {
		return formatResult(cfg, StatusDone, attempt, annotations, ""), nil
	}

	if !done && cfg.ReturnPartialResults && len(annotations) > 0 {
		warning := fmt.Sprintf("returning partial results: operation %s still running after %d attempts",
			cfg.OperationID, attempt)

		return formatResult(cfg, StatusRunning, attempt, annotations, warning), nil
	}

	return nil, &TimeoutError{
		OperationID: cfg.OperationID,
		Attempts:    attempt,
		Elapsed:     p.now().Sub(started),
	}
}

// isNotReady matches the known race between job submission and result
// availability. The service signals it with a not-found error whose text
// mentions the operation data not being ready; there is no structured code
// for it, so this stays a substring check.
func isNotReady(err error) bool {
	text := strings.ToLower(err.Error())

	return strings.Contains(text, "not found") && strings.Contains(text, "operation data is not ready")
}

func formatResult(cfg Config, status string, attempts int, annotations []TextAnnotation, warning string) *Result {
	result := &Result{
		Status:       status,
		AttemptsUsed: attempts,
		Warning:      warning,
	}

	if cfg.OutputFormat == FormatFullText || cfg.OutputFormat == FormatBoth {
		texts := make([]string, 0, len(annotations))
		for _, a := range annotations {
			texts = append(texts, a.Text)
		}

		result.FullText = strings.Join(texts, "\n\n")
	}

	if cfg.OutputFormat == FormatStructured || cfg.OutputFormat == FormatBoth {
		result.Annotations = annotations
	}

	return result
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
