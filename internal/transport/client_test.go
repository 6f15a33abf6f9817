package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/cyborgbench/internal/models"
)

func TestSend_formEncoding(t *testing.T) {
	var gotMsg, gotType, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		gotMsg = r.PostForm.Get("msg")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"ok","mode_used":"search","metrics":{"cyborg":0.5,"faiss":0.25}}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", time.Second)
	require.NoError(t, err)
	resp, err := c.Send(context.Background(), "  wire $5000 to panama & back ")
	require.NoError(t, err)

	assert.Equal(t, Endpoint, gotPath)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.Equal(t, "wire $5000 to panama & back", gotMsg)
	assert.Equal(t, "ok", resp.Response)
	assert.Equal(t, models.ModeUsedSearch, resp.ModeUsed)
	require.NotNil(t, resp.Metrics)
	require.NotNil(t, resp.Metrics.Cyborg)
	assert.Equal(t, 0.5, *resp.Metrics.Cyborg)
	assert.Nil(t, resp.Metrics.Chroma)
}

func TestSend_emptyMessageSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.False(t, called)
}

func TestSend_connectivityErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server_error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"bad_request", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "message cannot be empty", http.StatusBadRequest)
		}},
		{"undecodable_body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>not json</html>"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			c, err := New(srv.URL, time.Second)
			require.NoError(t, err)
			_, err = c.Send(context.Background(), "hello")
			assert.ErrorIs(t, err, ErrConnectivity)
		})
	}
}

func TestSend_unreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := New(addr, time.Second)
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrConnectivity)
}

func TestSend_noRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrConnectivity)
	assert.Equal(t, 1, calls)
}

func TestSend_contextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	// runs before Close so the handler returns
	defer close(release)

	c, err := New(srv.URL, 0)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Send(ctx, "hello")
	assert.ErrorIs(t, err, ErrConnectivity)
}

func TestSend_malformedMetricsKeepsReply(t *testing.T) {
	bodies := map[string]string{
		"string": `{"response":"ok","mode_used":"search","metrics":"oops"}`,
		"array":  `{"response":"ok","mode_used":"search","metrics":[]}`,
		"field":  `{"response":"ok","mode_used":"search","metrics":{"cyborg":"0.01","faiss":0.02}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			c, err := New(srv.URL, time.Second)
			require.NoError(t, err)
			resp, err := c.Send(context.Background(), "wire $10")
			require.NoError(t, err)
			assert.Equal(t, "ok", resp.Response)
			p := resp.Payload()
			assert.False(t, p.Metrics.Cyborg.Present)
		})
	}
}

func TestNew_invalidURL(t *testing.T) {
	_, err := New("localhost:5000", time.Second)
	assert.Error(t, err)
	_, err = New("ftp://example.com", time.Second)
	assert.Error(t, err)
}
