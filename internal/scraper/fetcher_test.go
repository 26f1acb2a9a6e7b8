package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/partscope/partscope/internal/config"
	"github.com/partscope/partscope/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, baseURL string) *Fetcher {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{
		BaseURL:               baseURL,
		MaxConcurrentRequests: 2,
		MaxRetries:            3,
		RetryMinWaitMs:        1,
		RetryMaxWaitMs:        2,
		RequestTimeoutMs:      5000,
	}
	f, err := NewFetcher(cfg, metrics.NewTracker(), log)
	require.NoError(t, err)
	return f
}

func TestFetchReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	body, err := f.Fetch(context.Background(), srv.URL+"/wpl-wp3149400.html")
	require.NoError(t, err)
	assert.Contains(t, body, "ok")
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	body, err := f.Fetch(context.Background(), srv.URL+"/wpl-wp3149400.html")
	require.NoError(t, err)
	assert.Equal(t, "recovered", body)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetchExhaustsRetriesOnServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	_, err := f.Fetch(context.Background(), srv.URL+"/wpl-wp3149400.html")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, FetchErrHTTPStatus, fetchErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.Status)

	// Every configured attempt was used, never more
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetchRejectsOffsiteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("offsite URL must not be fetched")
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	_, err := f.Fetch(context.Background(), "https://evil.example.com/wpl-wp3149400.html")
	assert.ErrorIs(t, err, ErrOffsiteURL)
}

func TestFetchRejectsUnsupportedScheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("non-http URL must not be fetched")
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	_, err := f.Fetch(context.Background(), "ftp://files.example.com/parts.html")
	assert.Error(t, err)
}

func TestFetchHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request must not be sent after cancellation")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFetcher(t, srv.URL)
	_, err := f.Fetch(ctx, srv.URL+"/wpl-wp3149400.html")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffWaitClampedToBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL)
	for attempt := 0; attempt < 5; attempt++ {
		wait := f.backoffWait(attempt)
		assert.GreaterOrEqual(t, wait, f.minWait)
		// Jitter adds at most a tenth on top of the clamped wait
		assert.LessOrEqual(t, wait, f.maxWait+f.maxWait/10+1)
	}
}

func TestSleepContextReturnsFalseWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepContext(ctx, time.Hour))
}

func TestClassifyPageType(t *testing.T) {
	assert.Equal(t, "product", classifyPageType("https://www.reliableparts.com/wpl-wp3149400.html"))
	assert.Equal(t, "listing", classifyPageType("https://www.reliableparts.com/oven-parts.html"))
}
