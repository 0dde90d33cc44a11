package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
	"github.com/phrazzld/lessonforge/internal/redact"
)

var tracer = otel.Tracer("github.com/phrazzld/lessonforge/internal/job")

// SubmitFunc creates the upstream job and returns its external id.
type SubmitFunc func(ctx context.Context) (string, error)

// CheckFunc polls the upstream job once.
type CheckFunc func(ctx context.Context, externalID string) (Check, error)

// Spec describes one job to run.
type Spec struct {
	Prompt     string
	ProviderID string
	Submit     SubmitFunc
	Check      CheckFunc
}

// Poller runs jobs with a fixed attempt budget and a fixed delay between attempts.
type Poller struct {
	maxAttempts int
	interval    time.Duration
}

// NewPoller creates a Poller. maxAttempts below 1 is treated as 1.
func NewPoller(maxAttempts int, interval time.Duration) *Poller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if interval < 0 {
		interval = 0
	}
	return &Poller{maxAttempts: maxAttempts, interval: interval}
}

var (
	errStillRunning = errors.New("job still running")
	errEmptyResult  = errors.New("job succeeded without a result url")
)

// Run submits the job and polls it until a terminal state. It never returns an
// error: failures are recorded on the returned Job. Cancellation or expiry of
// ctx ends polling with StatusTimedOut.
func (p *Poller) Run(ctx context.Context, spec Spec) Job {
	ctx, span := tracer.Start(ctx, "job.run")
	defer span.End()
	span.SetAttributes(attribute.String("provider.id", spec.ProviderID))

	log := logger.FromContext(ctx).With(slog.String("provider_id", spec.ProviderID))

	j := Job{
		Prompt:     spec.Prompt,
		ProviderID: spec.ProviderID,
		Status:     StatusSubmitted,
	}

	externalID, err := spec.Submit(ctx)
	if err == nil && externalID == "" {
		err = fmt.Errorf("%w: submission returned no job id", generation.ErrUpstreamMalformed)
	}
	if err != nil {
		if ctx.Err() != nil {
			j.Status = StatusTimedOut
			j.Err = fmt.Errorf("%w: submit: %w", generation.ErrJobTimedOut, ctx.Err())
		} else {
			j.Status = StatusFailed
			j.Err = fmt.Errorf("%w: submit: %w", generation.ErrJobFailed, err)
		}
		p.finish(ctx, log, span, &j)
		return j
	}

	j.ExternalID = externalID
	j.Status = StatusPolling

	resultURL, err := retry.DoValue(ctx, p.backoff(), func(ctx context.Context) (string, error) {
		j.AttemptsUsed++

		check, err := spec.Check(ctx, externalID)
		if err != nil {
			// A failed poll consumes the attempt; the job itself may still be running.
			log.WarnContext(ctx, "job status poll failed",
				slog.String("job_id", externalID),
				slog.Int("attempt", j.AttemptsUsed),
				slog.String("error", redact.Error(err)))
			return "", retry.RetryableError(err)
		}

		switch check.State {
		case StateSucceeded:
			if check.ResultURL == "" {
				return "", errEmptyResult
			}
			return check.ResultURL, nil
		case StateFailed:
			return "", fmt.Errorf("%w: %s", generation.ErrJobFailed, check.Detail)
		default:
			return "", retry.RetryableError(errStillRunning)
		}
	})

	switch {
	case err == nil:
		j.Status = StatusSucceeded
		j.ResultURL = resultURL
	case ctx.Err() != nil:
		j.Status = StatusTimedOut
		j.Err = fmt.Errorf("%w: %w", generation.ErrJobTimedOut, ctx.Err())
	case errors.Is(err, errEmptyResult):
		j.Status = StatusFailed
		j.Err = fmt.Errorf("%w: %w", generation.ErrUpstreamMalformed, err)
	case errors.Is(err, generation.ErrJobFailed):
		j.Status = StatusFailed
		j.Err = err
	default:
		j.Status = StatusTimedOut
		j.Err = fmt.Errorf("%w: no terminal status after %d attempts", generation.ErrJobTimedOut, j.AttemptsUsed)
	}

	p.finish(ctx, log, span, &j)
	return j
}

func (p *Poller) backoff() retry.Backoff {
	var b retry.Backoff
	if p.interval > 0 {
		b = retry.NewConstant(p.interval)
	} else {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	return retry.WithMaxRetries(uint64(p.maxAttempts-1), b)
}

func (p *Poller) finish(ctx context.Context, log *slog.Logger, span trace.Span, j *Job) {
	span.SetAttributes(
		attribute.String("job.status", string(j.Status)),
		attribute.Int("job.attempts", j.AttemptsUsed),
	)

	attrs := []any{
		slog.String("job_id", j.ExternalID),
		slog.String("status", string(j.Status)),
		slog.Int("attempts", j.AttemptsUsed),
		slog.Int("max_attempts", p.maxAttempts),
	}
	if j.Err != nil {
		span.SetStatus(codes.Error, generation.Code(j.Err))
		log.WarnContext(ctx, "image job did not succeed", append(attrs, slog.String("error", redact.Error(j.Err)))...)
		return
	}
	log.InfoContext(ctx, "image job succeeded", attrs...)
}
