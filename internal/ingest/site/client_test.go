package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    bool
		wantStatus int
	}{
		{
			name:       "success",
			statusCode: http.StatusOK,
			body:       "<html><body><h1>Hutnik</h1></body></html>",
		},
		{
			name:       "not found",
			statusCode: http.StatusNotFound,
			wantErr:    true,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			wantStatus: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Contains(t, r.Header.Get("User-Agent"), "clubsync")
				assert.Equal(t, AcceptHTML, r.Header.Get("Accept"))

				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			body, err := NewClient(time.Second).Fetch(context.Background(), server.URL)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.body, string(body))
				return
			}

			require.Error(t, err)
			fe, ok := AsFetchError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, fe.StatusCode)
			assert.False(t, fe.IsTransport())
			assert.Equal(t, tt.statusCode == http.StatusTooManyRequests, fe.IsRateLimited())
		})
	}
}

func TestClient_FetchTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(time.Second).Fetch(context.Background(), url)
	require.Error(t, err)

	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.True(t, fe.IsTransport())
	assert.Zero(t, fe.StatusCode)
}

func TestClient_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient(50 * time.Millisecond).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.True(t, fe.IsTransport())
}

func TestClient_UserAgentOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "club-admin"))
	}))
	defer server.Close()

	_, err := NewClient(time.Second).WithUserAgent("club-admin/2.0").Fetch(context.Background(), server.URL)
	require.NoError(t, err)
}
