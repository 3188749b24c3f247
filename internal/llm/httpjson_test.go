package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEndpoint_APIError(t *testing.T) {
	long := strings.Repeat("x", maxErrorBody*2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		switch r.URL.Path {
		case "/described":
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": "slow down"}`))
		case "/raw":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(long))
		default:
			_, _ = w.Write([]byte(`{"ok": true}`))
		}
	}))
	defer server.Close()

	e := jsonEndpoint{
		provider: "test",
		client:   server.Client(),
		header:   http.Header{"X-Api-Key": []string{"secret"}},
		describe: describeOllamaError,
	}
	ctx := context.Background()

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, e.post(ctx, server.URL+"/fine", map[string]string{"a": "b"}, &out))
	assert.True(t, out.OK)

	err := e.post(ctx, server.URL+"/described", nil, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "test API error (429): slow down", err.Error())

	err = e.get(ctx, server.URL+"/raw", nil)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Len(t, apiErr.Message, maxErrorBody+len("..."))
}
