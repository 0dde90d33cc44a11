package image

import (
	"log/slog"

	"github.com/phrazzld/lessonforge/internal/config"
	"github.com/phrazzld/lessonforge/internal/job"
	"github.com/phrazzld/lessonforge/internal/platform/httpclient"
	"github.com/phrazzld/lessonforge/internal/provider"
)

// NewFromConfig builds the standard chain: replicate, runpod, then search.
// Strategies without credentials stay in the chain and report themselves unavailable.
func NewFromConfig(
	reg *provider.Registry,
	client *httpclient.Client,
	poller *job.Poller,
	timeouts config.TimeoutConfig,
	logger *slog.Logger,
) *Pipeline {
	replicate, _ := reg.Lookup(provider.Replicate)
	runpod, _ := reg.Lookup(provider.RunPod)
	search, _ := reg.Lookup(provider.GoogleImages)

	return NewPipeline(logger,
		NewAsyncStrategy(NewReplicate(replicate, client, timeouts.ImageCreate(), timeouts.Poll()), poller),
		NewAsyncStrategy(NewRunPod(runpod, client, timeouts.ImageCreate(), timeouts.Poll()), poller),
		NewSearch(search, client, timeouts.ImageCreate(), timeouts.Probe()),
	)
}
