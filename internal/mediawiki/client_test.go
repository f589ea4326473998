package mediawiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wikitrust/internal/cache"
)

// harness is a client wired to a fake wiki that records calls and retry delays
type harness struct {
	client *Client
	calls  atomic.Int32

	mu     sync.Mutex
	delays []time.Duration
}

func newHarness(t *testing.T, handler http.HandlerFunc) *harness {
	t.Helper()
	h := &harness{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	h.client = newRecordingClient(server.URL, h)
	return h
}

func newRecordingClient(baseURL string, h *harness) *Client {
	return NewClient(Options{
		BaseURL:   baseURL,
		UserAgent: "wikitrust-test/1.0",
		Cache:     cache.NewMemoryCache(time.Minute, 0),
		Logger:    zerolog.Nop(),
	}).WithSleep(func(ctx context.Context, d time.Duration) error {
		h.mu.Lock()
		h.delays = append(h.delays, d)
		h.mu.Unlock()
		return nil
	})
}

func (h *harness) recordedDelays() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Duration(nil), h.delays...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, body)
}

const singleRevisionPage = `{"query":{"pages":[{"pageid":1,"title":"Go","revisions":[{"user":"A","userid":1,"timestamp":"2024-01-01T00:00:00Z"}]}]}}`

func TestClient_SendsUserAgentAndQueryDefaults(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wikitrust-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "/w/api.php", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "2", q.Get("formatversion"))
		assert.Equal(t, "5", q.Get("maxlag"))
		writeJSON(w, http.StatusOK, singleRevisionPage)
	})

	_, err := h.client.RevisionMeta(context.Background(), "Go", 10)
	require.NoError(t, err)
}

func TestClient_RetriesTransientStatusWithBackoff(t *testing.T) {
	var attempts atomic.Int32
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, singleRevisionPage)
	})

	revisions, err := h.client.RevisionMeta(context.Background(), "Go", 10)
	require.NoError(t, err)
	assert.Len(t, revisions, 1)
	assert.Equal(t, int32(3), h.calls.Load())
	assert.Equal(t, []time.Duration{350 * time.Millisecond, 700 * time.Millisecond}, h.recordedDelays())
}

func TestClient_RetriesMaxlagCode(t *testing.T) {
	var attempts atomic.Int32
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			writeJSON(w, http.StatusOK, `{"error":{"code":"maxlag","info":"Waiting for a database server"}}`)
			return
		}
		writeJSON(w, http.StatusOK, singleRevisionPage)
	})

	_, err := h.client.RevisionMeta(context.Background(), "Go", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), h.calls.Load())
}

func TestClient_ExhaustsRetries(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := h.client.RevisionMeta(context.Background(), "Go", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, 3, apiErr.Attempts)
	assert.Equal(t, int32(3), h.calls.Load())
	assert.Equal(t, []time.Duration{350 * time.Millisecond, 700 * time.Millisecond}, h.recordedDelays())
}

func TestClient_NonRetriableFailsImmediately(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"error":{"code":"badvalue","info":"Unrecognized value"}}`)
	})

	_, err := h.client.RevisionMeta(context.Background(), "Go", 10)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "badvalue", apiErr.Code)
	assert.Equal(t, int32(1), h.calls.Load())
	assert.Empty(t, h.recordedDelays())
}

func TestClient_RetriesTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	h := &harness{}
	client := newRecordingClient(baseURL, h)

	_, err := client.RevisionMeta(context.Background(), "Go", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Len(t, h.recordedDelays(), 2)
}

func TestClient_MalformedBodyIsNoData(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `<html>not json</html>`)
	})

	_, err := h.client.RevisionMeta(context.Background(), "Go", 10)
	assert.ErrorIs(t, err, ErrPageMissing)
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestClient_CancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(Options{BaseURL: server.URL, Logger: zerolog.Nop()}).
		WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		})

	_, err := client.RevisionMeta(ctx, "Go", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAPIError_Retriable(t *testing.T) {
	tests := []struct {
		name string
		err  APIError
		want bool
	}{
		{"429", APIError{Status: 429}, true},
		{"503", APIError{Status: 503}, true},
		{"maxlag", APIError{Status: 200, Code: "maxlag"}, true},
		{"ratelimited", APIError{Status: 200, Code: "ratelimited"}, true},
		{"transport", APIError{Err: errors.New("connection reset")}, true},
		{"404", APIError{Status: 404}, false},
		{"500", APIError{Status: 500}, false},
		{"other code", APIError{Status: 200, Code: "readonly"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Retriable())
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Endpoint: "revisions", Status: 503, Code: "maxlag", Attempts: 3}
	assert.Equal(t, "mediawiki revisions: status 503 (maxlag) after 3 attempts", err.Error())
}

func TestProxyFunc(t *testing.T) {
	fn := proxyFunc("http://proxy:8080", "http://secure-proxy:8443")

	req := httptest.NewRequest(http.MethodGet, "https://en.wikipedia.org/w/api.php", nil)
	u, err := fn(req)
	require.NoError(t, err)
	assert.Equal(t, "secure-proxy:8443", u.Host)

	req = httptest.NewRequest(http.MethodGet, "http://en.wikipedia.org/w/api.php", nil)
	u, err = fn(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy:8080", u.Host)
}
