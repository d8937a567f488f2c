package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	models "notropolis/models/redis"
)

// Errors rejected locally, before any request reaches the server.
var (
	ErrHandInProgress    = errors.New("a hand is already in progress")
	ErrNoHand            = errors.New("no hand in progress")
	ErrDoubleUnavailable = errors.New("double is only available on the first decision")
	ErrBetOutOfRange     = errors.New("bet out of range")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Balance is the table balance shown next to the blackjack felt. It is
// Pending from the moment a bet is placed until the server reports the
// settled hand, at which point it becomes Confirmed with the server's
// number. The pending amount is a display hint, never an authority.
type Balance struct {
	Confirmed bool
	Amount    int64
}

// BlackjackHand is the client projection of one hand, as much of it as
// the server is willing to reveal at the current state.
type BlackjackHand struct {
	State        models.BlackjackState   `json:"state"`
	Bet          int64                   `json:"bet"`
	PlayerCards  []string                `json:"player_cards"`
	PlayerTotal  int                     `json:"player_total"`
	CanDouble    bool                    `json:"can_double"`
	DealerUpCard string                  `json:"dealer_up_card"`
	DealerCards  []string                `json:"dealer_cards"`
	DealerTotal  int                     `json:"dealer_total"`
	Outcome      models.BlackjackOutcome `json:"outcome"`
	Payout       int64                   `json:"payout"`
	ServerCash   *int64                  `json:"balance"`
}

// BlackjackTable drives one player's blackjack session. Every decision is
// validated against the local projection first, so an impossible action
// costs no round trip, and the server remains the authority on every
// accepted one.
type BlackjackTable struct {
	client      *Client
	coordinator *CompanyCoordinator
	minBet      int64
	maxBet      int64

	hand    *BlackjackHand
	balance Balance
}

// NewBlackjackTable wires a table to the client and the session's
// coordinator, with the casino's bet bounds.
func NewBlackjackTable(c *Client, cc *CompanyCoordinator, minBet, maxBet int64) *BlackjackTable {
	return &BlackjackTable{
		client:      c,
		coordinator: cc,
		minBet:      minBet,
		maxBet:      maxBet,
		balance:     Balance{Confirmed: true, Amount: cc.Cash()},
	}
}

// Hand returns the current projection, nil between hands.
func (t *BlackjackTable) Hand() *BlackjackHand {
	return t.hand
}

// Balance returns the table balance with its confirmation tag.
func (t *BlackjackTable) Balance() Balance {
	return t.balance
}

// Sync pulls the server's view of the session's hand, recovering state
// after a reconnect. A 404 means no hand is in progress.
func (t *BlackjackTable) Sync(ctx context.Context) error {
	var hand BlackjackHand
	err := t.client.do(ctx, http.MethodGet, "/auth/game/casino/blackjack", nil, &hand)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			t.hand = nil
			return nil
		}
		return err
	}
	t.apply(&hand)
	return nil
}

// Deal places a bet and starts a hand. A bet outside the table bounds or
// above the known cash balance is rejected without a request.
func (t *BlackjackTable) Deal(ctx context.Context, bet int64) error {
	if t.hand != nil && t.hand.State != models.BlackjackFinished {
		return ErrHandInProgress
	}
	if bet < t.minBet || bet > t.maxBet {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrBetOutOfRange, bet, t.minBet, t.maxBet)
	}
	if bet > t.coordinator.Cash() {
		return ErrInsufficientFunds
	}

	t.balance = Balance{Confirmed: false, Amount: t.coordinator.Cash() - bet}

	var hand BlackjackHand
	err := t.client.do(ctx, http.MethodPost, "/auth/game/casino/blackjack/deal", map[string]int64{
		"amount": bet,
	}, &hand)
	if err != nil {
		t.balance = Balance{Confirmed: true, Amount: t.coordinator.Cash()}
		return err
	}
	t.apply(&hand)
	return nil
}

// Hit draws another card.
func (t *BlackjackTable) Hit(ctx context.Context) error {
	if err := t.requireTurn(); err != nil {
		return err
	}
	return t.action(ctx, "/auth/game/casino/blackjack/hit")
}

// Stand ends the player's turn and lets the dealer play out.
func (t *BlackjackTable) Stand(ctx context.Context) error {
	if err := t.requireTurn(); err != nil {
		return err
	}
	return t.action(ctx, "/auth/game/casino/blackjack/stand")
}

// Double doubles the bet and draws exactly one card. Only legal as the
// first decision of the hand, and only when the extra bet is covered.
func (t *BlackjackTable) Double(ctx context.Context) error {
	if err := t.requireTurn(); err != nil {
		return err
	}
	if !t.hand.CanDouble {
		return ErrDoubleUnavailable
	}
	if t.hand.Bet > t.coordinator.Cash()-t.hand.Bet {
		return ErrInsufficientFunds
	}
	return t.action(ctx, "/auth/game/casino/blackjack/double")
}

func (t *BlackjackTable) requireTurn() error {
	if t.hand == nil {
		return ErrNoHand
	}
	if t.hand.State != models.BlackjackPlayerTurn {
		return fmt.Errorf("no decision available in state %q", t.hand.State)
	}
	return nil
}

func (t *BlackjackTable) action(ctx context.Context, path string) error {
	var hand BlackjackHand
	if err := t.client.do(ctx, http.MethodPost, path, nil, &hand); err != nil {
		return err
	}
	t.apply(&hand)
	return nil
}

// apply installs the server's projection. The balance is confirmed only
// when the hand is finished and the server attached the settled number;
// mid-hand responses keep the balance pending.
func (t *BlackjackTable) apply(hand *BlackjackHand) {
	t.hand = hand
	if hand.State == models.BlackjackFinished && hand.ServerCash != nil {
		t.balance = Balance{Confirmed: true, Amount: *hand.ServerCash}
	} else if hand.State != models.BlackjackFinished {
		t.balance.Confirmed = false
	}
}
