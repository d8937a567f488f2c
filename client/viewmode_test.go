package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	models "notropolis/models/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViewModeServer(puts *int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/auth/game/viewmode" {
			atomic.AddInt64(puts, 1)
			writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": true})
			return
		}
		writeEnvelope(w, http.StatusNotFound, map[string]interface{}{
			"success": false, "error": "not found",
		})
	}))
}

func TestViewModeBroadcasterSet(t *testing.T) {
	var puts int64
	server := newViewModeServer(&puts)
	defer server.Close()

	b := NewViewModeBroadcaster(New(server.URL))
	assert.Equal(t, models.ViewModeNone, b.Current())

	ch, cancel := b.Subscribe()
	defer cancel()
	assert.Equal(t, models.ViewModeNone, <-ch, "a new subscriber sees the current mode first")

	require.NoError(t, b.Set(context.Background(), models.ViewModeOverview))
	assert.Equal(t, models.ViewModeOverview, <-ch)
	assert.Equal(t, models.ViewModeOverview, b.Current())

	require.NoError(t, b.Set(context.Background(), models.ViewModeZoomed))
	assert.Equal(t, models.ViewModeZoomed, <-ch)

	assert.Equal(t, int64(2), atomic.LoadInt64(&puts), "every transition persists before publishing")
}

func TestViewModeBroadcasterRejectsIllegalTransitions(t *testing.T) {
	var puts int64
	server := newViewModeServer(&puts)
	defer server.Close()

	b := NewViewModeBroadcaster(New(server.URL))

	assert.Error(t, b.Set(context.Background(), models.ViewMode("sideways")))
	assert.Error(t, b.Set(context.Background(), models.ViewModeZoomed), "zoomed needs an overview first")

	assert.Equal(t, int64(0), atomic.LoadInt64(&puts), "rejected transitions never reach the server")
	assert.Equal(t, models.ViewModeNone, b.Current())
}

func TestViewModeBroadcasterClose(t *testing.T) {
	var puts int64
	server := newViewModeServer(&puts)
	defer server.Close()

	b := NewViewModeBroadcaster(New(server.URL))
	ch, _ := b.Subscribe()
	<-ch // initial none
	require.NoError(t, b.Set(context.Background(), models.ViewModeOverview))
	<-ch

	require.NoError(t, b.Close(context.Background()))

	// the terminal none arrives, then the channel closes
	mode, ok := <-ch
	assert.True(t, ok)
	assert.Equal(t, models.ViewModeNone, mode)
	_, ok = <-ch
	assert.False(t, ok)

	assert.Equal(t, models.ViewModeNone, b.Current())
	assert.Error(t, b.Set(context.Background(), models.ViewModeOverview), "a closed broadcaster accepts nothing")

	// closing again is a no-op
	require.NoError(t, b.Close(context.Background()))
	assert.Equal(t, int64(2), atomic.LoadInt64(&puts), "overview, then one terminal none")
}
