package redis

import "time"

// BlackjackState enumerates the server-side game phases.
type BlackjackState string

const (
	BlackjackBetting    BlackjackState = "betting"
	BlackjackPlayerTurn BlackjackState = "player_turn"
	BlackjackDealerTurn BlackjackState = "dealer_turn"
	BlackjackFinished   BlackjackState = "finished"
)

// BlackjackOutcome is only meaningful once State is finished.
type BlackjackOutcome string

const (
	OutcomeNone      BlackjackOutcome = ""
	OutcomeBlackjack BlackjackOutcome = "blackjack"
	OutcomeWin       BlackjackOutcome = "win"
	OutcomeLose      BlackjackOutcome = "lose"
	OutcomePush      BlackjackOutcome = "push"
)

// BlackjackGame is a company's in-progress blackjack hand. The full dealer
// hand stays server-side until the game finishes; controllers expose only
// the up-card before that. Settled guards the exactly-once balance
// settlement per game id.
type BlackjackGame struct {
	ID           string           `json:"id"`
	SessionID    string           `json:"session_id"`
	CompanyID    uint             `json:"company_id"`
	State        BlackjackState   `json:"state"`
	Bet          int64            `json:"bet"`
	PlayerCards  []string         `json:"player_cards"`
	DealerCards  []string         `json:"dealer_cards"`
	Deck         []string         `json:"deck"`
	CanDouble    bool             `json:"can_double"`
	Settled      bool             `json:"settled"`
	Outcome      BlackjackOutcome `json:"outcome"`
	Payout       int64            `json:"payout"` // amount returned to cash on settlement
	StartedAt    time.Time        `json:"started_at"`
	ResolvedAt   time.Time        `json:"resolved_at"`
}
