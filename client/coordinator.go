package client

import (
	"context"
	"net/http"
	"sync"
)

// Company is the dashboard's view of the active company.
type Company struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Cash       int64  `json:"cash"`
	Offshore   int64  `json:"offshore"`
	NetWorth   int64  `json:"net_worth"`
	InPrison   bool   `json:"in_prison"`
	LocationID *uint  `json:"location_id"`
}

// CompanyCoordinator owns the active-company state for one session. All
// reads of "which company am I acting as" go through it, and every
// mutation of company funds ends with a Refresh so the dashboard converges
// on the server's numbers.
//
// Concurrent Refresh calls are coalesced into one request. A response is
// applied only when its generation still matches: selecting a different
// company mid-flight bumps the generation, so the stale payload is
// discarded instead of overwriting the newer selection.
type CompanyCoordinator struct {
	client *Client

	mu          sync.Mutex
	active      *Company
	gen         uint64
	inflight    chan struct{} // closed when the current refresh finishes
	inflightGen uint64
	inflightErr error // outcome of the closed inflight request, for joiners
}

// NewCompanyCoordinator wires a coordinator to a client.
func NewCompanyCoordinator(c *Client) *CompanyCoordinator {
	return &CompanyCoordinator{client: c}
}

// Active returns the last applied company snapshot, or nil before the
// first successful refresh.
func (cc *CompanyCoordinator) Active() *Company {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.active == nil {
		return nil
	}
	copied := *cc.active
	return &copied
}

// SelectActiveCompany switches the session to a company the user belongs
// to, then refreshes. Any refresh already in flight for the previous
// company is invalidated.
func (cc *CompanyCoordinator) SelectActiveCompany(ctx context.Context, companyID uint) error {
	err := cc.client.do(ctx, http.MethodPost, "/auth/game/company/select", map[string]uint{
		"company_id": companyID,
	}, nil)
	if err != nil {
		return err
	}

	cc.mu.Lock()
	cc.gen++
	cc.active = nil
	cc.mu.Unlock()

	return cc.Refresh(ctx)
}

// Refresh fetches the active company. Calls that arrive while a request
// is in flight wait for that request instead of issuing their own and
// share its outcome. On failure the previously applied state is left
// untouched.
func (cc *CompanyCoordinator) Refresh(ctx context.Context) error {
	for {
		cc.mu.Lock()
		if wait := cc.inflight; wait != nil {
			// join the in-flight request only if it is for the current
			// selection; otherwise let it drain and issue a fresh one
			current := cc.inflightGen == cc.gen
			cc.mu.Unlock()
			select {
			case <-wait:
			case <-ctx.Done():
				return ctx.Err()
			}
			if current {
				cc.mu.Lock()
				err := cc.inflightErr
				cc.mu.Unlock()
				return err
			}
			continue
		}
		done := make(chan struct{})
		gen := cc.gen
		cc.inflight = done
		cc.inflightGen = gen
		cc.mu.Unlock()

		var company Company
		err := cc.client.do(ctx, http.MethodGet, "/auth/game/company", nil, &company)

		cc.mu.Lock()
		cc.inflight = nil
		cc.inflightErr = err
		if err == nil && gen == cc.gen {
			cc.active = &company
		}
		cc.mu.Unlock()
		close(done)

		return err
	}
}

// Cash reports the last known cash balance, zero when no company is
// selected. Casino games use it for pre-flight bet validation.
func (cc *CompanyCoordinator) Cash() int64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.active == nil {
		return 0
	}
	return cc.active.Cash
}
