package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/platform/httpclient"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
	"github.com/phrazzld/lessonforge/internal/provider"
)

const (
	// MaxBatchSize is the largest number of ids sent in one lookup.
	MaxBatchSize = 45

	defaultLookupBaseURL = "https://www.googleapis.com"
	lookupConcurrency    = 4
)

// Outcome is the result of validating the ids found in one document.
type Outcome struct {
	// Valid holds the ids the lookup service confirmed, plus every id that
	// could not be checked.
	Valid map[string]bool
	// ServiceReachable is false when any id could not be checked.
	ServiceReachable bool
}

// IsValid reports whether id may be linked to.
func (o Outcome) IsValid(id string) bool {
	return o.Valid[id]
}

// failOpen treats every id as valid.
func failOpen(ids []string) Outcome {
	valid := make(map[string]bool, len(ids))
	for _, id := range ids {
		valid[id] = true
	}
	return Outcome{Valid: valid}
}

// Validator checks video ids against a lookup service.
//
// Implementations fail open: when the service cannot be consulted the
// returned Outcome marks the affected ids valid, and the error wraps
// generation.ErrValidationServiceUnreachable.
type Validator interface {
	Validate(ctx context.Context, ids []string) (Outcome, error)
}

// YouTubeValidator validates ids with the YouTube Data API.
type YouTubeValidator struct {
	desc      provider.Descriptor
	client    *httpclient.Client
	batchSize int
	timeout   time.Duration
}

// NewYouTubeValidator creates a validator. batchSize is clamped to [1, MaxBatchSize].
func NewYouTubeValidator(d provider.Descriptor, client *httpclient.Client, batchSize int, timeout time.Duration) *YouTubeValidator {
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	return &YouTubeValidator{desc: d, client: client, batchSize: batchSize, timeout: timeout}
}

type videoListResponse struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

// Validate looks ids up in batches. Without a credential every id is
// reported valid and no call is made.
func (v *YouTubeValidator) Validate(ctx context.Context, ids []string) (Outcome, error) {
	if len(ids) == 0 {
		return Outcome{Valid: map[string]bool{}, ServiceReachable: true}, nil
	}
	if !v.desc.Configured() {
		logger.FromContext(ctx).DebugContext(ctx, "reference validation skipped, no credential",
			"provider_id", provider.YouTube,
			"ids", len(ids))
		return failOpen(ids), nil
	}

	batches := chunk(ids, v.batchSize)
	found := make([][]string, len(batches))
	errs := make([]error, len(batches))

	var g errgroup.Group
	g.SetLimit(lookupConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			found[i], errs[i] = v.lookup(ctx, batch)
			return nil
		})
	}
	_ = g.Wait()

	out := Outcome{Valid: make(map[string]bool, len(ids)), ServiceReachable: true}
	var firstErr error
	for i, batch := range batches {
		if errs[i] != nil {
			out.ServiceReachable = false
			if firstErr == nil {
				firstErr = errs[i]
			}
			for _, id := range batch {
				out.Valid[id] = true
			}
			continue
		}
		for _, id := range found[i] {
			out.Valid[id] = true
		}
	}

	if firstErr != nil {
		return out, fmt.Errorf("%w: %v", generation.ErrValidationServiceUnreachable, firstErr)
	}
	return out, nil
}

func (v *YouTubeValidator) lookup(ctx context.Context, batch []string) ([]string, error) {
	q := url.Values{}
	q.Set("part", "id")
	q.Set("id", strings.Join(batch, ","))
	q.Set("maxResults", fmt.Sprint(len(batch)))
	q.Set("key", v.desc.Credential.Reveal())

	base := strings.TrimRight(v.desc.Endpoint, "/")
	if base == "" {
		base = defaultLookupBaseURL
	}

	var resp videoListResponse
	err := v.client.DoJSON(ctx, httpclient.Request{
		Provider: string(provider.YouTube),
		Method:   http.MethodGet,
		URL:      base + "/youtube/v3/videos?" + q.Encode(),
		Timeout:  v.timeout,
	}, &resp)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

