package image_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/lessonforge/internal/config"
	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/image"
	"github.com/phrazzld/lessonforge/internal/job"
	"github.com/phrazzld/lessonforge/internal/platform/httpclient"
	"github.com/phrazzld/lessonforge/internal/provider"
)

var (
	_ image.JobProvider = (*image.Replicate)(nil)
	_ image.JobProvider = (*image.RunPod)(nil)
)

var testTimeouts = config.TimeoutConfig{
	ConnectSeconds:     1,
	ChatSeconds:        1,
	LongFormSeconds:    1,
	PollSeconds:        1,
	ImageCreateSeconds: 1,
	ProbeSeconds:       1,
	ValidationSeconds:  1,
}

func decodeInput(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body struct {
		Input map[string]any `json:"input"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.Input
}

func TestReplicateStrategy(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer r8_test", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/models/black-forest-labs/flux-schnell/predictions":
			input := decodeInput(t, r)
			assert.Equal(t, "a red fox", input["prompt"])
			assert.Equal(t, "16:9", input["aspect_ratio"])
			_, _ = io.WriteString(w, `{"id":"p1","status":"starting"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/predictions/p1":
			if polls.Add(1) < 3 {
				_, _ = io.WriteString(w, `{"id":"p1","status":"processing"}`)
				return
			}
			_, _ = io.WriteString(w, `{"id":"p1","status":"succeeded","output":["https://replicate.delivery/fox.png"]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := provider.Descriptor{ID: provider.Replicate, Endpoint: srv.URL, Model: "black-forest-labs/flux-schnell", Credential: "r8_test"}
	strategy := image.NewAsyncStrategy(
		image.NewReplicate(d, httpclient.New(time.Second), time.Second, time.Second),
		job.NewPoller(5, time.Millisecond),
	)

	require.True(t, strategy.Available())
	url, err := strategy.Generate(context.Background(), "a red fox")

	require.NoError(t, err)
	assert.Equal(t, "https://replicate.delivery/fox.png", url)
	assert.EqualValues(t, 3, polls.Load())
}

func TestRunPodStrategy(t *testing.T) {
	tests := []struct {
		name    string
		final   string
		wantURL string
		wantErr error
	}{
		{
			name:    "completed",
			final:   `{"id":"r1","status":"COMPLETED","output":{"image_url":"https://runpod.example/owl.png"}}`,
			wantURL: "https://runpod.example/owl.png",
		},
		{
			name:    "failed",
			final:   `{"id":"r1","status":"FAILED","error":"CUDA out of memory"}`,
			wantErr: generation.ErrJobFailed,
		},
		{
			name:    "completed without a url",
			final:   `{"id":"r1","status":"COMPLETED","output":{"image":"iVBORw0KGgo="}}`,
			wantErr: generation.ErrUpstreamMalformed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var polls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.Method == http.MethodPost && r.URL.Path == "/v2/ep123/run":
					input := decodeInput(t, r)
					assert.Equal(t, "an owl", input["prompt"])
					assert.NotEmpty(t, input["negative_prompt"])
					assert.EqualValues(t, 1024, input["width"])
					assert.EqualValues(t, 768, input["height"])
					_, _ = io.WriteString(w, `{"id":"r1","status":"IN_QUEUE"}`)
				case r.Method == http.MethodGet && r.URL.Path == "/v2/ep123/status/r1":
					if polls.Add(1) == 1 {
						_, _ = io.WriteString(w, `{"id":"r1","status":"IN_PROGRESS"}`)
						return
					}
					_, _ = io.WriteString(w, tc.final)
				default:
					http.NotFound(w, r)
				}
			}))
			defer srv.Close()

			d := provider.Descriptor{ID: provider.RunPod, Endpoint: srv.URL, Model: "ep123", Credential: "rp_test"}
			strategy := image.NewAsyncStrategy(
				image.NewRunPod(d, httpclient.New(time.Second), time.Second, time.Second),
				job.NewPoller(5, time.Millisecond),
			)

			url, err := strategy.Generate(context.Background(), "an owl")

			assert.Equal(t, tc.wantURL, url)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunPodUnavailableWithoutEndpoint(t *testing.T) {
	d := provider.Descriptor{ID: provider.RunPod, Credential: "rp_test"}
	s := image.NewAsyncStrategy(image.NewRunPod(d, httpclient.New(time.Second), time.Second, time.Second), job.NewPoller(1, 0))
	assert.False(t, s.Available())
}

// TestPipeline_AutoWithOnlySearch covers the full chain when only search
// credentials exist: generative steps are skipped, small and unreachable
// candidates are passed over, and a HEAD-rejecting host is checked with a ranged GET.
func TestPipeline_AutoWithOnlySearch(t *testing.T) {
	var srv *httptest.Server
	var rangedGets atomic.Int32

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/customsearch/v1":
			q := r.URL.Query()
			assert.Equal(t, "cse-key", q.Get("key"))
			assert.Equal(t, "cx-1", q.Get("cx"))
			assert.Equal(t, "image", q.Get("searchType"))
			assert.Equal(t, "active", q.Get("safe"))
			assert.Equal(t, "water cycle", q.Get("q"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"link": srv.URL + "/img/small.png", "image": map[string]int{"width": 200, "height": 900}},
					{"link": srv.URL + "/img/missing.png", "image": map[string]int{"width": 1024, "height": 768}},
					{"link": srv.URL + "/img/nohead.png", "image": map[string]int{"width": 640, "height": 480}},
					{"link": srv.URL + "/img/big.png", "image": map[string]int{"width": 1600, "height": 1200}},
				},
			})
		case "/img/small.png", "/img/big.png":
			w.Header().Set("Content-Type", "image/png")
		case "/img/nohead.png":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			assert.Equal(t, "bytes=0-0", r.Header.Get("Range"))
			rangedGets.Add(1)
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write([]byte{0x89})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	reg, err := provider.NewRegistry(provider.OpenAI,
		provider.Descriptor{ID: provider.OpenAI},
		provider.Descriptor{ID: provider.Replicate, Model: "flux"},
		provider.Descriptor{ID: provider.RunPod},
		provider.Descriptor{ID: provider.GoogleImages, Endpoint: srv.URL, Credential: "cse-key", Scope: "cx-1"},
	)
	require.NoError(t, err)

	pipeline := image.NewFromConfig(reg, httpclient.New(time.Second), job.NewPoller(3, time.Millisecond), testTimeouts, nil)

	got := pipeline.Synthesize(context.Background(), "water cycle", image.ModeAuto)

	assert.Equal(t, srv.URL+"/img/nohead.png", got)
	assert.EqualValues(t, 1, rangedGets.Load())
}

func TestSearch_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[{"link":"https://tiny.example/a.png","image":{"width":120,"height":90}}]}`)
	}))
	defer srv.Close()

	d := provider.Descriptor{ID: provider.GoogleImages, Endpoint: srv.URL, Credential: "k", Scope: "cx"}
	_, err := image.NewSearch(d, httpclient.New(time.Second), time.Second, time.Second).
		Generate(context.Background(), "anything")

	assert.ErrorIs(t, err, generation.ErrNoAcceptableResult)
}

func TestSearch_RangedFallbackIgnoresBodySize(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/customsearch/v1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"link": srv.URL + "/img/full.png", "image": map[string]int{"width": 800, "height": 600}},
				},
			})
		case "/img/full.png":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			// Range is ignored and the whole image is sent.
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(make([]byte, 5<<20))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := provider.Descriptor{ID: provider.GoogleImages, Endpoint: srv.URL, Credential: "k", Scope: "cx"}
	got, err := image.NewSearch(d, httpclient.New(time.Second), time.Second, 5*time.Second).
		Generate(context.Background(), "volcano")

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/img/full.png", got)
}
