package httprequest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/simplesurance/mrspy/internal/spyerr"
)

type okResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (r *okResponse) APIError() error {
	if r.OK {
		return nil
	}

	return spyerr.NewRemoteAPIError(r.Error)
}

type itemsResponse []*okResponse

func (r *itemsResponse) Validate() error {
	for i, item := range *r {
		if item == nil {
			return fmt.Errorf("item %d is null", i)
		}
	}

	return nil
}

func newRequest(t *testing.T, url string) *http.Request {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)

	return req
}

func TestDoJSONSuccess(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(srv.Close)

	var resp okResponse
	err := NewExecutor("test", 0).DoJSON(newRequest(t, srv.URL), "ok", &resp)
	require.NoError(t, err)
	assert.True(t, resp.OK)
}

func TestDoJSONErrorClassification(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		case "/garbage":
			_, _ = w.Write([]byte("<html>"))
		case "/null":
			_, _ = w.Write([]byte(" null\n"))
		case "/nullitem":
			_, _ = w.Write([]byte(`[{"ok": true}, null]`))
		case "/notok":
			_, _ = w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
		}
	}))
	t.Cleanup(srv.Close)

	exec := NewExecutor("test", 0)

	t.Run("non-2xx", func(t *testing.T) {
		err := exec.DoJSON(newRequest(t, srv.URL+"/status"), "status", &okResponse{})

		var respErr *spyerr.InvalidResponseError
		require.True(t, errors.As(err, &respErr), "unexpected error: %v", err)
		assert.Equal(t, http.StatusInternalServerError, respErr.Status)
		assert.Equal(t, []byte("boom"), respErr.Body)
	})

	t.Run("undecodable", func(t *testing.T) {
		err := exec.DoJSON(newRequest(t, srv.URL+"/garbage"), "garbage", &okResponse{})

		var respErr *spyerr.InvalidResponseError
		require.True(t, errors.As(err, &respErr), "unexpected error: %v", err)
		assert.Error(t, respErr.Err)
	})

	t.Run("null-body", func(t *testing.T) {
		err := exec.DoJSON(newRequest(t, srv.URL+"/null"), "null", &okResponse{})

		var respErr *spyerr.InvalidResponseError
		require.True(t, errors.As(err, &respErr), "unexpected error: %v", err)
		assert.Equal(t, http.StatusOK, respErr.Status)
		assert.ErrorIs(t, err, errNullBody)
	})

	t.Run("rejected-by-validator", func(t *testing.T) {
		var resp itemsResponse
		err := exec.DoJSON(newRequest(t, srv.URL+"/nullitem"), "nullitem", &resp)

		var respErr *spyerr.InvalidResponseError
		require.True(t, errors.As(err, &respErr), "unexpected error: %v", err)
		assert.EqualError(t, respErr.Err, "item 1 is null")
	})

	t.Run("api-error", func(t *testing.T) {
		err := exec.DoJSON(newRequest(t, srv.URL+"/notok"), "notok", &okResponse{})

		var apiErr *spyerr.RemoteAPIError
		require.True(t, errors.As(err, &apiErr), "unexpected error: %v", err)
		assert.Equal(t, "channel_not_found", apiErr.Msg)
	})
}

func TestDoJSONTransportError(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewExecutor("test", 0).DoJSON(newRequest(t, url), "closed", &okResponse{})

	var transportErr *spyerr.TransportError
	assert.True(t, errors.As(err, &transportErr), "unexpected error: %v", err)
}

func TestDoJSONTimeout(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t).Named(t.Name())))

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	err := NewExecutor("test", 50*time.Millisecond).DoJSON(newRequest(t, srv.URL), "slow", &okResponse{})

	var transportErr *spyerr.TransportError
	assert.True(t, errors.As(err, &transportErr), "unexpected error: %v", err)
}
