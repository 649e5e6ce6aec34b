package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(t *testing.T, handler http.HandlerFunc, retries int) *HTTPSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPSource(Config{BaseURL: srv.URL + "/", Retries: retries, UserAgent: "rwtracker-test"},
		WithBackoff(time.Millisecond))
}

func TestHTTPSource_Fetch(t *testing.T) {
	var gotPath, gotUA string
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"published": "p1", "post_title": "Acme"}, {"published": "p2"}]`))
	}, 0)

	records, err := src.Fetch(context.Background(), RecentPath)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "/recentvictims", gotPath)
	assert.Equal(t, "rwtracker-test", gotUA)
}

func TestHTTPSource_YearPath(t *testing.T) {
	var gotPath string
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[]`))
	}, 0)

	records, err := src.Fetch(context.Background(), YearPath(2023))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, "/victims/2023", gotPath)
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"published": "p1"}]`))
	}, 3)

	records, err := src.Fetch(context.Background(), RecentPath)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSource_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}, 2)

	_, err := src.Fetch(context.Background(), RecentPath)
	require.Error(t, err)
	assert.True(t, IsTransientFetch(err))

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSource_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}, 3)

	_, err := src.Fetch(context.Background(), YearPath(1999))
	require.Error(t, err)
	assert.True(t, IsTransientFetch(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPSource_MalformedBody(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}, 3)

	_, err := src.Fetch(context.Background(), RecentPath)
	require.Error(t, err)
	assert.True(t, IsTransientFetch(err))
	assert.Contains(t, err.Error(), "decode feed")
}

func TestHTTPSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	src := NewHTTPSource(Config{BaseURL: url, Retries: 1}, WithBackoff(time.Millisecond))
	_, err := src.Fetch(context.Background(), RecentPath)
	require.Error(t, err)
	assert.True(t, IsTransientFetch(err))
}

func TestHTTPSource_ContextCancelled(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Fetch(ctx, RecentPath)
	require.Error(t, err)
	assert.True(t, IsTransientFetch(err))
}

func TestNewHTTPSource_Defaults(t *testing.T) {
	src := NewHTTPSource(Config{})
	assert.Equal(t, DefaultBaseURL, src.cfg.BaseURL)
	assert.Equal(t, 30*time.Second, src.cfg.Timeout)
	assert.Equal(t, "ransomware.live", src.Name())
}
