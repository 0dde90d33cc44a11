package image

import (
	"context"

	"github.com/phrazzld/lessonforge/internal/job"
	"github.com/phrazzld/lessonforge/internal/provider"
)

// JobProvider is an image upstream with a submit-then-poll API.
type JobProvider interface {
	ID() provider.ID
	Configured() bool
	Submit(ctx context.Context, prompt string) (string, error)
	Check(ctx context.Context, externalID string) (job.Check, error)
}

// AsyncStrategy adapts a JobProvider to a Strategy through the job poller.
type AsyncStrategy struct {
	provider JobProvider
	poller   *job.Poller
}

// NewAsyncStrategy creates an AsyncStrategy.
func NewAsyncStrategy(p JobProvider, poller *job.Poller) *AsyncStrategy {
	return &AsyncStrategy{provider: p, poller: poller}
}

// ID implements Strategy.
func (s *AsyncStrategy) ID() provider.ID { return s.provider.ID() }

// Available implements Strategy.
func (s *AsyncStrategy) Available() bool { return s.provider.Configured() }

// Generate implements Strategy.
func (s *AsyncStrategy) Generate(ctx context.Context, prompt string) (string, error) {
	j := s.poller.Run(ctx, job.Spec{
		Prompt:     prompt,
		ProviderID: string(s.provider.ID()),
		Submit: func(ctx context.Context) (string, error) {
			return s.provider.Submit(ctx, prompt)
		},
		Check: s.provider.Check,
	})
	if j.Status != job.StatusSucceeded {
		return "", j.Err
	}
	return j.ResultURL, nil
}
