package image

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/job"
	"github.com/phrazzld/lessonforge/internal/platform/httpclient"
	"github.com/phrazzld/lessonforge/internal/provider"
)

const defaultReplicateBaseURL = "https://api.replicate.com"

// Replicate runs predictions against a hosted model.
type Replicate struct {
	desc          provider.Descriptor
	client        *httpclient.Client
	createTimeout time.Duration
	pollTimeout   time.Duration
	aspectRatio   string
	outputFormat  string
}

// NewReplicate creates a Replicate job provider.
func NewReplicate(d provider.Descriptor, client *httpclient.Client, createTimeout, pollTimeout time.Duration) *Replicate {
	return &Replicate{
		desc:          d,
		client:        client,
		createTimeout: createTimeout,
		pollTimeout:   pollTimeout,
		aspectRatio:   "16:9",
		outputFormat:  "png",
	}
}

// ID implements JobProvider.
func (r *Replicate) ID() provider.ID { return provider.Replicate }

// Configured implements JobProvider.
func (r *Replicate) Configured() bool { return r.desc.Configured() && r.desc.Model != "" }

func (r *Replicate) apiBase() string { return baseURL(r.desc.Endpoint, defaultReplicateBaseURL) }
func (r *Replicate) authHeader() string { return "Bearer " + r.desc.Credential.Reveal() }

// Submit creates a prediction and returns its id.
func (r *Replicate) Submit(ctx context.Context, prompt string) (string, error) {
	resp, err := r.client.Do(ctx, httpclient.Request{
		Provider: string(provider.Replicate),
		Method:   http.MethodPost,
		URL:      fmt.Sprintf("%s/v1/models/%s/predictions", r.apiBase(), r.desc.Model),
		Header:   map[string]string{"Authorization": r.authHeader()},
		Body: map[string]any{
			"input": map[string]any{
				"prompt":        prompt,
				"aspect_ratio":  r.aspectRatio,
				"output_format": r.outputFormat,
			},
		},
		Timeout: r.createTimeout,
	})
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(resp.Body, "id").String()
	if id == "" {
		return "", fmt.Errorf("%w: replicate: prediction id missing", generation.ErrUpstreamMalformed)
	}
	return id, nil
}

// Check reads the prediction status once.
func (r *Replicate) Check(ctx context.Context, externalID string) (job.Check, error) {
	resp, err := r.client.Do(ctx, httpclient.Request{
		Provider: string(provider.Replicate),
		Method:   http.MethodGet,
		URL:      fmt.Sprintf("%s/v1/predictions/%s", r.apiBase(), url.PathEscape(externalID)),
		Header:   map[string]string{"Authorization": r.authHeader()},
		Timeout:  r.pollTimeout,
	})
	if err != nil {
		return job.Check{}, err
	}

	body := gjson.ParseBytes(resp.Body)
	switch body.Get("status").String() {
	case "succeeded":
		return job.Check{State: job.StateSucceeded, ResultURL: extractURL(body.Get("output"))}, nil
	case "failed", "canceled":
		return job.Check{State: job.StateFailed, Detail: body.Get("error").String()}, nil
	case "starting", "processing":
		return job.Check{State: job.StatePending}, nil
	default:
		return job.Check{}, fmt.Errorf("%w: replicate: unexpected status %q",
			generation.ErrUpstreamMalformed, body.Get("status").String())
	}
}

func baseURL(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	return strings.TrimRight(configured, "/")
}
