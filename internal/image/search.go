package image

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/platform/httpclient"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
	"github.com/phrazzld/lessonforge/internal/provider"
)

const (
	defaultSearchBaseURL = "https://www.googleapis.com"
	// MinDimension is the smallest acceptable width and height, in pixels.
	MinDimension = 300
)

// Search is the synchronous fallback: an image search whose first reachable,
// large-enough candidate is accepted.
type Search struct {
	desc          provider.Descriptor
	client        *httpclient.Client
	searchTimeout time.Duration
	probeTimeout  time.Duration
}

// NewSearch creates the search strategy. The descriptor's Scope is the search engine id.
func NewSearch(d provider.Descriptor, client *httpclient.Client, searchTimeout, probeTimeout time.Duration) *Search {
	return &Search{desc: d, client: client, searchTimeout: searchTimeout, probeTimeout: probeTimeout}
}

// ID implements Strategy.
func (s *Search) ID() provider.ID { return provider.GoogleImages }

// Available implements Strategy.
func (s *Search) Available() bool { return s.desc.Configured() }

type searchResponse struct {
	Items []struct {
		Link  string `json:"link"`
		Image struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"image"`
	} `json:"items"`
}

// Generate runs one search query and returns the first acceptable candidate.
func (s *Search) Generate(ctx context.Context, prompt string) (string, error) {
	q := url.Values{}
	q.Set("key", s.desc.Credential.Reveal())
	q.Set("cx", s.desc.Scope)
	q.Set("q", prompt)
	q.Set("searchType", "image")
	q.Set("safe", "active")
	q.Set("num", "10")

	var resp searchResponse
	err := s.client.DoJSON(ctx, httpclient.Request{
		Provider: string(provider.GoogleImages),
		Method:   http.MethodGet,
		URL:      baseURL(s.desc.Endpoint, defaultSearchBaseURL) + "/customsearch/v1?" + q.Encode(),
		Timeout:  s.searchTimeout,
	}, &resp)
	if err != nil {
		return "", err
	}

	log := logger.FromContext(ctx)
	for _, item := range resp.Items {
		if item.Image.Width < MinDimension || item.Image.Height < MinDimension {
			continue
		}
		if !isHTTPURL(item.Link) {
			continue
		}
		if err := s.probe(ctx, item.Link); err != nil {
			log.DebugContext(ctx, "image candidate unreachable",
				"provider_id", provider.GoogleImages,
				"error_code", generation.Code(err))
			continue
		}
		return item.Link, nil
	}

	return "", fmt.Errorf("%w: %d search candidates, none usable", generation.ErrNoAcceptableResult, len(resp.Items))
}

// probe checks reachability with HEAD, retrying once as a one-byte ranged GET
// for hosts that reject HEAD.
func (s *Search) probe(ctx context.Context, link string) error {
	req := httpclient.Request{
		Provider: "image_probe",
		Method:   http.MethodHead,
		URL:      link,
		Header:   map[string]string{"Accept": "image/*"},
		Timeout:  s.probeTimeout,
	}
	_, err := s.client.Do(ctx, req)
	if generation.HTTPStatus(err) != http.StatusMethodNotAllowed {
		return err
	}

	// Hosts that ignore Range send the whole image; only the status matters.
	req.Method = http.MethodGet
	req.Header = map[string]string{"Accept": "image/*", "Range": "bytes=0-0"}
	req.StatusOnly = true
	_, err = s.client.Do(ctx, req)
	return err
}
