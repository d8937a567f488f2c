package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	models "notropolis/models/redis"
)

// ViewModeBroadcaster tracks the session's map view mode and fans out
// every transition to local subscribers. Transitions are persisted to the
// server before subscribers hear about them, so a reconnecting consumer
// never sees a mode the server does not know.
//
// Closing the broadcaster emits a final ViewModeNone; after that it
// accepts no further transitions.
type ViewModeBroadcaster struct {
	client *Client

	mu     sync.Mutex
	mode   models.ViewMode
	subs   map[int]chan models.ViewMode
	nextID int
	closed bool
}

// NewViewModeBroadcaster starts a broadcaster in ViewModeNone.
func NewViewModeBroadcaster(c *Client) *ViewModeBroadcaster {
	return &ViewModeBroadcaster{
		client: c,
		mode:   models.ViewModeNone,
		subs:   make(map[int]chan models.ViewMode),
	}
}

// Current returns the mode last successfully set.
func (b *ViewModeBroadcaster) Current() models.ViewMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// Subscribe registers a consumer. The channel immediately carries the
// current mode, then every subsequent transition. Cancel detaches it.
func (b *ViewModeBroadcaster) Subscribe() (<-chan models.ViewMode, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.ViewMode, 8)
	ch <- b.mode
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Set transitions to mode. Entering zoomed is only legal from overview or
// zoomed, matching the server's rule, so an illegal hop fails before any
// request is issued.
func (b *ViewModeBroadcaster) Set(ctx context.Context, mode models.ViewMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid view mode %q", mode)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("broadcaster closed")
	}
	current := b.mode
	b.mu.Unlock()

	if mode == models.ViewModeZoomed && current == models.ViewModeNone {
		return fmt.Errorf("cannot zoom from %q", current)
	}

	err := b.client.do(ctx, http.MethodPut, "/auth/game/viewmode", map[string]string{
		"mode": string(mode),
	}, nil)
	if err != nil {
		return err
	}

	b.publish(mode)
	return nil
}

// Close emits the terminal ViewModeNone and detaches every subscriber.
// The server-side reset is best effort; local subscribers always see the
// final transition. Safe to call more than once.
func (b *ViewModeBroadcaster) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	err := b.client.do(ctx, http.MethodPut, "/auth/game/viewmode", map[string]string{
		"mode": string(models.ViewModeNone),
	}, nil)

	b.mu.Lock()
	b.mode = models.ViewModeNone
	for id, ch := range b.subs {
		select {
		case ch <- models.ViewModeNone:
		default:
		}
		close(ch)
		delete(b.subs, id)
	}
	b.mu.Unlock()

	return err
}

func (b *ViewModeBroadcaster) publish(mode models.ViewMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.mode = mode
	for _, ch := range b.subs {
		select {
		case ch <- mode:
		default:
		}
	}
}
