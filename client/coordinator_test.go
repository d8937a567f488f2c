package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// companyServer serves the active-company endpoints around an atomically
// switchable company id, with an optional gate on the first fetch.
type companyServer struct {
	*httptest.Server
	selected int64
	fetches  int64
	gate     chan struct{} // if set, the first fetch blocks on it
	gateOnce sync.Once
}

func newCompanyServer(gated bool) *companyServer {
	cs := &companyServer{selected: 1}
	if gated {
		cs.gate = make(chan struct{})
	}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/game/company/select":
			var req struct {
				CompanyID int64 `json:"company_id"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			atomic.StoreInt64(&cs.selected, req.CompanyID)
			writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": true})

		case r.Method == http.MethodGet && r.URL.Path == "/auth/game/company":
			id := atomic.LoadInt64(&cs.selected)
			if atomic.AddInt64(&cs.fetches, 1) == 1 && cs.gate != nil {
				<-cs.gate
			}
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"id":   id,
					"name": fmt.Sprintf("Company %d", id),
					"cash": 1000 * id,
				},
			})

		default:
			writeEnvelope(w, http.StatusNotFound, map[string]interface{}{
				"success": false, "error": "not found",
			})
		}
	}))
	return cs
}

func (cs *companyServer) release() {
	cs.gateOnce.Do(func() { close(cs.gate) })
}

func TestRefresh(t *testing.T) {
	cs := newCompanyServer(false)
	defer cs.Close()

	cc := NewCompanyCoordinator(New(cs.URL))
	assert.Nil(t, cc.Active())

	require.NoError(t, cc.Refresh(context.Background()))
	active := cc.Active()
	require.NotNil(t, active)
	assert.Equal(t, uint(1), active.ID)
	assert.Equal(t, int64(1000), active.Cash)
	assert.Equal(t, int64(1000), cc.Cash())
}

func TestRefreshCoalesces(t *testing.T) {
	cs := newCompanyServer(true)
	defer cs.Close()

	cc := NewCompanyCoordinator(New(cs.URL))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cc.Refresh(context.Background()))
		}()
	}
	// let the callers pile up behind the gated first fetch
	for atomic.LoadInt64(&cs.fetches) == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	cs.release()
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&cs.fetches),
		"concurrent refreshes share one request")
	require.NotNil(t, cc.Active())
}

func TestRefreshCoalescedFailureReachesJoiners(t *testing.T) {
	gate := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-gate
		writeEnvelope(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "error": "boom",
		})
	}))
	defer server.Close()

	cc := NewCompanyCoordinator(New(server.URL))

	var errs [4]error
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = cc.Refresh(context.Background())
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		assert.Error(t, err, "caller %d shares the failed outcome", i)
	}
	assert.Nil(t, cc.Active())
}

func TestRefreshDiscardsStaleResponse(t *testing.T) {
	cs := newCompanyServer(true)
	defer cs.Close()

	cc := NewCompanyCoordinator(New(cs.URL))

	// refresh for company 1 stalls inside the server
	var stale sync.WaitGroup
	stale.Add(1)
	go func() {
		defer stale.Done()
		_ = cc.Refresh(context.Background())
	}()
	for atomic.LoadInt64(&cs.fetches) == 0 {
		time.Sleep(time.Millisecond)
	}

	// the user switches companies while that response is still in flight
	var switched sync.WaitGroup
	switched.Add(1)
	go func() {
		defer switched.Done()
		assert.NoError(t, cc.SelectActiveCompany(context.Background(), 2))
	}()
	for atomic.LoadInt64(&cs.selected) != 2 {
		time.Sleep(time.Millisecond)
	}
	cs.release()
	stale.Wait()
	switched.Wait()

	active := cc.Active()
	require.NotNil(t, active)
	assert.Equal(t, uint(2), active.ID, "the later-issued selection wins")
	assert.Equal(t, int64(2000), active.Cash)
}

func TestRefreshFailureKeepsState(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeEnvelope(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false, "error": "boom",
			})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"id": 1, "name": "Acme", "cash": 1000},
		})
	}))
	defer server.Close()

	cc := NewCompanyCoordinator(New(server.URL))
	require.NoError(t, cc.Refresh(context.Background()))

	fail.Store(true)
	assert.Error(t, cc.Refresh(context.Background()))

	active := cc.Active()
	require.NotNil(t, active, "a failed refresh leaves the previous snapshot")
	assert.Equal(t, uint(1), active.ID)
}
