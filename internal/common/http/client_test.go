// internal/common/http/client_test.go
package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sf-indexer/internal/common/logger"
)

func fastOpts(url string) RequestOptions {
	return RequestOptions{
		Method:          http.MethodGet,
		URL:             url,
		MaxTries:        3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsed:      time.Second,
	}
}

func TestClient_Do_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(time.Second, logger.NewTestLogger(t))
	resp, err := client.Do(context.Background(), fastOpts(srv.URL))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestClient_Do_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(time.Second, logger.NewTestLogger(t))
	resp, err := client.Do(context.Background(), fastOpts(srv.URL))
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_Do_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(time.Second, logger.NewTestLogger(t))
	_, err := client.Do(context.Background(), fastOpts(srv.URL))
	require.Error(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Do_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(time.Second, logger.NewTestLogger(t))
	_, err := client.Do(context.Background(), fastOpts(srv.URL))
	require.Error(t, err)
}

func TestClient_Do_SendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	opts := fastOpts(srv.URL)
	opts.Method = http.MethodPost
	opts.Body = map[string]string{"hello": "world"}

	client := NewClient(time.Second, logger.NewTestLogger(t))
	_, err := client.Do(context.Background(), opts)
	require.NoError(t, err)
}
