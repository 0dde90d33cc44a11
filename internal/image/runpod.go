package image

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/job"
	"github.com/phrazzld/lessonforge/internal/platform/httpclient"
	"github.com/phrazzld/lessonforge/internal/provider"
)

const defaultRunPodBaseURL = "https://api.runpod.ai"

// RunPod runs a serverless image endpoint. The descriptor's Model is the endpoint id.
type RunPod struct {
	desc           provider.Descriptor
	client         *httpclient.Client
	createTimeout  time.Duration
	pollTimeout    time.Duration
	width, height  int
	negativePrompt string
}

// NewRunPod creates a RunPod job provider.
func NewRunPod(d provider.Descriptor, client *httpclient.Client, createTimeout, pollTimeout time.Duration) *RunPod {
	return &RunPod{
		desc:           d,
		client:         client,
		createTimeout:  createTimeout,
		pollTimeout:    pollTimeout,
		width:          1024,
		height:         768,
		negativePrompt: "text, watermark, signature, blurry, low quality, distorted",
	}
}

// ID implements JobProvider.
func (r *RunPod) ID() provider.ID { return provider.RunPod }

// Configured implements JobProvider.
func (r *RunPod) Configured() bool { return r.desc.Configured() }

func (r *RunPod) endpointURL() string {
	return fmt.Sprintf("%s/v2/%s", baseURL(r.desc.Endpoint, defaultRunPodBaseURL), url.PathEscape(r.desc.Model))
}

func (r *RunPod) header() map[string]string {
	return map[string]string{"Authorization": "Bearer " + r.desc.Credential.Reveal()}
}

// Submit queues a run and returns its id.
func (r *RunPod) Submit(ctx context.Context, prompt string) (string, error) {
	resp, err := r.client.Do(ctx, httpclient.Request{
		Provider: string(provider.RunPod),
		Method:   http.MethodPost,
		URL:      r.endpointURL() + "/run",
		Header:   r.header(),
		Body: map[string]any{
			"input": map[string]any{
				"prompt":          prompt,
				"negative_prompt": r.negativePrompt,
				"width":           r.width,
				"height":          r.height,
			},
		},
		Timeout: r.createTimeout,
	})
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(resp.Body, "id").String()
	if id == "" {
		return "", fmt.Errorf("%w: runpod: run id missing", generation.ErrUpstreamMalformed)
	}
	return id, nil
}

// Check reads the run status once.
func (r *RunPod) Check(ctx context.Context, externalID string) (job.Check, error) {
	resp, err := r.client.Do(ctx, httpclient.Request{
		Provider: string(provider.RunPod),
		Method:   http.MethodGet,
		URL:      r.endpointURL() + "/status/" + url.PathEscape(externalID),
		Header:   r.header(),
		Timeout:  r.pollTimeout,
	})
	if err != nil {
		return job.Check{}, err
	}

	body := gjson.ParseBytes(resp.Body)
	switch status := body.Get("status").String(); status {
	case "COMPLETED":
		return job.Check{State: job.StateSucceeded, ResultURL: extractURL(body.Get("output"))}, nil
	case "FAILED", "CANCELLED", "TIMED_OUT":
		return job.Check{State: job.StateFailed, Detail: status + " " + body.Get("error").String()}, nil
	case "IN_QUEUE", "IN_PROGRESS":
		return job.Check{State: job.StatePending}, nil
	default:
		return job.Check{}, fmt.Errorf("%w: runpod: unexpected status %q", generation.ErrUpstreamMalformed, status)
	}
}
