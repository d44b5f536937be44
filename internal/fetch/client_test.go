package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mcncl/editrack/internal/config"
	"github.com/mcncl/editrack/internal/errors"
	"github.com/mcncl/editrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, tweak func(*config.Config)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.N8N.TrackingURL = server.URL + "/webhook/edi-tracking"
	cfg.N8N.RetryDelay = time.Millisecond
	if tweak != nil {
		tweak(cfg)
	}
	return NewClient(cfg, WithHTTPClient(server.Client()))
}

func TestClient_Track_Request(t *testing.T) {
	var gotBody map[string]string
	var gotHeaders http.Header
	var gotPath, gotMethod string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":"ok"}`))
	}, nil)

	v, err := client.Track(context.Background(), "  DOC-000185 ")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/webhook/edi-tracking", gotPath)
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Len(t, gotHeaders.Get(RequestIDHeader), 36)
	assert.Equal(t, map[string]string{
		"document_id": "DOC-000185",
		"doc_id":      "DOC-000185",
		"documentId":  "DOC-000185",
	}, gotBody)
	assert.Equal(t, `{"output":"ok"}`, models.Compact(v))
}

func TestClient_Track_ResponseShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "object", body: `{"b":1,"a":2}`, expected: `{"b":1,"a":2}`},
		{name: "empty body", body: ``, expected: `{}`},
		{name: "array", body: `[{"output":"x"}]`, expected: `{"data":[{"output":"x"}]}`},
		{name: "scalar", body: `"done"`, expected: `{"data":"done"}`},
		{name: "plain text", body: `Workflow was started`, expected: `{"text":"Workflow was started"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			v, err := client.Track(context.Background(), "DOC-1")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, models.Compact(v))
		})
	}
}

func TestClient_Track_BlankID(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, nil)

	_, err := client.Track(context.Background(), "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoDocumentID)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestClient_Track_HTTPError(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "workflow not found", http.StatusNotFound)
	}, func(cfg *config.Config) {
		cfg.N8N.Retries = 3
	})

	_, err := client.Track(context.Background(), "DOC-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrHTTPStatus)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "workflow not found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx responses are not retried")

	msg := errors.UserFriendlyError(err)
	assert.True(t, strings.HasPrefix(msg, "Failed to fetch tracking data: "))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short body", preview([]byte("  short body\n")))

	long := strings.Repeat("\u00e9", bodyPreviewLength+100)
	got := preview([]byte(long))
	assert.True(t, utf8.ValidString(got), "multi-byte runes are never split")
	assert.Equal(t, strings.Repeat("\u00e9", bodyPreviewLength)+"...", got)

	exact := strings.Repeat("x", bodyPreviewLength)
	assert.Equal(t, exact, preview([]byte(exact)))
}

func TestClient_Track_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"output":"third time"}`))
	}, func(cfg *config.Config) {
		cfg.N8N.Retries = 2
	})

	v, err := client.Track(context.Background(), "DOC-1")
	require.NoError(t, err)
	assert.Equal(t, `{"output":"third time"}`, models.Compact(v))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Track_RetriesExhausted(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, func(cfg *config.Config) {
		cfg.N8N.Retries = 1
	})

	_, err := client.Track(context.Background(), "DOC-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrHTTPStatus)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Track_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(cfg *config.Config) {
		cfg.N8N.Timeout = 20 * time.Millisecond
	})
	defer close(release)

	_, err := client.Track(context.Background(), "DOC-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Endpoint(t *testing.T) {
	cfg := config.NewConfig()
	cfg.N8N.BaseURL = "https://n8n.example.com/"
	cfg.N8N.WebhookPath = "webhook/edi-tracking"
	assert.Equal(t, "https://n8n.example.com/webhook/edi-tracking", NewClient(cfg).Endpoint())

	assert.Equal(t, "http://override", NewClient(cfg, WithEndpoint("http://override")).Endpoint())
}

func TestRetryPolicy(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, Delay: 100 * time.Millisecond}
	assert.Equal(t, time.Duration(0), p.Backoff(0))
	assert.Equal(t, 100*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(3))

	assert.True(t, RetryableStatus(http.StatusTooManyRequests))
	assert.True(t, RetryableStatus(http.StatusServiceUnavailable))
	assert.False(t, RetryableStatus(http.StatusBadRequest))
	assert.False(t, RetryableStatus(http.StatusOK))
}
