package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestDoDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"value": 42},
		})
	}))
	defer server.Close()

	c := New(server.URL)
	var data struct {
		Value int `json:"value"`
	}
	require.NoError(t, c.do(context.Background(), http.MethodGet, "/x", nil, &data))
	assert.Equal(t, 42, data.Value)
}

func TestDoSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Insufficient funds",
		})
	}))
	defer server.Close()

	c := New(server.URL)
	err := c.do(context.Background(), http.MethodPost, "/x", map[string]int{"amount": 1}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Insufficient funds", apiErr.Message)
}

func TestUnauthorizedFiresHookExactlyOnce(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeEnvelope(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false, "error": "unauthorized",
		})
	}))
	defer server.Close()

	c := New(server.URL)
	c.SetToken("stale-token")

	var fired int32
	c.OnUnauthorized = func() { atomic.AddInt32(&fired, 1) }

	// many requests hit the 401 together; the hook must fire once
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.do(context.Background(), http.MethodGet, "/x", nil, nil)
			assert.ErrorIs(t, err, ErrUnauthorized)
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
	assert.Empty(t, c.Token(), "a rejected token is cleared")
}

func TestUnauthorizedHookRearmsPerLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false, "error": "unauthorized",
		})
	}))
	defer server.Close()

	c := New(server.URL)
	var fired int32
	c.OnUnauthorized = func() { atomic.AddInt32(&fired, 1) }

	c.SetToken("first")
	_ = c.do(context.Background(), http.MethodGet, "/x", nil, nil)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))

	c.SetToken("second")
	_ = c.do(context.Background(), http.MethodGet, "/x", nil, nil)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fired), "a fresh login re-arms the hook")
}

func TestLogin(t *testing.T) {
	t.Run("stores the token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/login", r.URL.Path)
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"token": "jwt-123"},
			})
		}))
		defer server.Close()

		c := New(server.URL)
		twoFactor, err := c.Login(context.Background(), "alice@example.com", "pw")
		require.NoError(t, err)
		assert.False(t, twoFactor)
		assert.Equal(t, "jwt-123", c.Token())
	})

	t.Run("2FA defers the token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/login" {
				writeEnvelope(w, http.StatusOK, map[string]interface{}{
					"success": true,
					"data":    map[string]interface{}{"two_factor_required": true},
				})
				return
			}
			assert.Equal(t, "/login/verify", r.URL.Path)
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"token": "jwt-2fa"},
			})
		}))
		defer server.Close()

		c := New(server.URL)
		twoFactor, err := c.Login(context.Background(), "alice@example.com", "pw")
		require.NoError(t, err)
		assert.True(t, twoFactor)
		assert.Empty(t, c.Token())

		require.NoError(t, c.VerifyTwoFactor(context.Background(), "alice@example.com", "482913"))
		assert.Equal(t, "jwt-2fa", c.Token())
	})
}
