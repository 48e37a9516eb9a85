package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyrrd/alexandria/internal/errors"
)

func TestGetRetriesExactlyMaxTimesOn5xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(WithRetries(3), WithBaseDelay(time.Millisecond))

	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.IsNetworkError(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetDoesNotRetry4xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(WithRetries(3), WithBaseDelay(time.Millisecond))

	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, errors.IsNetworkError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetRecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	client := NewClient(WithRetries(3), WithBaseDelay(time.Millisecond))

	body, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNetworkErrorCarriesURLAndStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(WithRetries(2), WithBaseDelay(time.Millisecond))

	_, err := client.Get(context.Background(), server.URL+"/books")
	require.Error(t, err)

	var netErr *errors.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, server.URL+"/books", netErr.URL)
	assert.Equal(t, http.StatusInternalServerError, netErr.StatusCode)
}

func TestBackoffDelayIsLinear(t *testing.T) {
	client := NewClient(WithBaseDelay(100 * time.Millisecond))

	assert.Equal(t, 100*time.Millisecond, client.backoffDelay(1))
	assert.Equal(t, 200*time.Millisecond, client.backoffDelay(2))
	assert.Equal(t, 300*time.Millisecond, client.backoffDelay(3))
}

func TestProxyRewritesRequestURL(t *testing.T) {
	var gotPath string
	var gotTarget string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTarget = r.URL.Query().Get("url")
		_, _ = w.Write([]byte("relayed"))
	}))
	defer proxy.Close()

	client := NewClient(WithProxy(proxy.URL + "/relay"))

	body, err := client.Get(context.Background(), "https://upstream.test/books?page=2")
	require.NoError(t, err)
	assert.Equal(t, "relayed", string(body))
	assert.Equal(t, "/relay", gotPath)
	assert.Equal(t, "https://upstream.test/books?page=2", gotTarget)
}

func TestRequestURLWithoutProxyIsPassThrough(t *testing.T) {
	client := NewClient()
	assert.Equal(t, "https://upstream.test/books", client.requestURL("https://upstream.test/books"))
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 3, "title": "X"}`))
	}))
	defer server.Close()

	client := NewClient()

	var payload struct {
		Count int    `json:"count"`
		Title string `json:"title"`
	}
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &payload))
	assert.Equal(t, 3, payload.Count)
	assert.Equal(t, "X", payload.Title)
}

func TestGetJSONDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient()

	var payload map[string]any
	err := client.GetJSON(context.Background(), server.URL, &payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

type failingDoer struct {
	calls int
}

func (f *failingDoer) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	return nil, &url.Error{Op: "Get", URL: req.URL.String(), Err: context.DeadlineExceeded}
}

func TestTransportFailureRetriesThenFails(t *testing.T) {
	doer := &failingDoer{}
	client := NewClient(WithHTTPClient(doer), WithRetries(2), WithBaseDelay(time.Millisecond))

	_, err := client.Get(context.Background(), "http://unreachable.test/")
	require.Error(t, err)
	assert.True(t, errors.IsNetworkError(err))
	assert.Equal(t, 2, doer.calls)
}
