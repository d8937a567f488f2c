package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrWheelSpinning rejects a bet placed while the wheel animation is
// still running.
var ErrWheelSpinning = errors.New("wheel is spinning")

// RouletteOutcome is the settled result of one spin. The server settles
// the moment the bet lands; the wheel holds the outcome back until the
// animation finishes so the ball never lies about the balance.
type RouletteOutcome struct {
	WinningNumber int   `json:"winning_number"`
	Won           bool  `json:"won"`
	Payout        int64 `json:"payout"`
	Balance       int64 `json:"balance"`
}

// RouletteWheel synchronizes the server's instant settlement with the
// client's spin animation. Spin stores the outcome in a pending slot and
// raises the spinning gate; AnimationDone lowers the gate, reveals the
// outcome and refreshes the company so the visible balance catches up.
type RouletteWheel struct {
	client      *Client
	coordinator *CompanyCoordinator
	minBet      int64
	maxBet      int64

	mu       sync.Mutex
	spinning bool
	pending  *RouletteOutcome
	visible  *RouletteOutcome
}

// NewRouletteWheel wires a wheel to the client and coordinator with the
// casino's bet bounds.
func NewRouletteWheel(c *Client, cc *CompanyCoordinator, minBet, maxBet int64) *RouletteWheel {
	return &RouletteWheel{client: c, coordinator: cc, minBet: minBet, maxBet: maxBet}
}

// Spinning reports whether the animation gate is up.
func (w *RouletteWheel) Spinning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spinning
}

// Result returns the last revealed outcome, nil until the first
// AnimationDone. A settled-but-unrevealed spin never shows here.
func (w *RouletteWheel) Result() *RouletteOutcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.visible == nil {
		return nil
	}
	copied := *w.visible
	return &copied
}

// Spin places a bet. Bets outside the table bounds or above the known
// cash balance are rejected locally with no request; a bet placed while
// spinning fails with ErrWheelSpinning. betType is one of "red", "black",
// "odd", "even" or "number" (number requires 0 to 36).
func (w *RouletteWheel) Spin(ctx context.Context, amount int64, betType string, number int) error {
	if amount < w.minBet || amount > w.maxBet {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrBetOutOfRange, amount, w.minBet, w.maxBet)
	}
	if amount > w.coordinator.Cash() {
		return ErrInsufficientFunds
	}

	w.mu.Lock()
	if w.spinning {
		w.mu.Unlock()
		return ErrWheelSpinning
	}
	w.spinning = true
	w.mu.Unlock()

	var outcome RouletteOutcome
	err := w.client.do(ctx, http.MethodPost, "/auth/game/casino/roulette", map[string]interface{}{
		"amount":   amount,
		"bet_type": betType,
		"number":   number,
	}, &outcome)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.spinning = false
		return err
	}
	w.pending = &outcome
	return nil
}

// AnimationDone is called by the wheel animation when the ball settles.
// It reveals the pending outcome and refreshes the active company so the
// dashboard balance reflects the settlement the server already made.
func (w *RouletteWheel) AnimationDone(ctx context.Context) error {
	w.mu.Lock()
	if !w.spinning {
		w.mu.Unlock()
		return nil
	}
	w.spinning = false
	w.visible = w.pending
	w.pending = nil
	w.mu.Unlock()

	return w.coordinator.Refresh(ctx)
}
