package casino

import (
	"errors"
	"time"

	redis_models "notropolis/models/redis"

	"github.com/google/uuid"
)

// Blackjack rules: dealer stands on all 17s, natural blackjack pays 3:2,
// double allowed only on the first decision of a two-card hand. Every
// transition happens server-side; the controller exposes only the dealer
// up-card until the hand is finished.

var (
	ErrWrongState = errors.New("action not valid in current game state")
	ErrNoDouble   = errors.New("double only allowed on the first decision")
)

// NewBlackjackGame deals the opening hand for a validated bet. The caller
// has already debited the bet from the company balance. A natural blackjack
// resolves the game immediately.
func NewBlackjackGame(sessionID string, companyID uint, bet int64) *redis_models.BlackjackGame {
	deck := NewShuffledDeck()
	game := &redis_models.BlackjackGame{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		CompanyID:   companyID,
		State:       redis_models.BlackjackPlayerTurn,
		Bet:         bet,
		PlayerCards: []string{deck[0], deck[2]},
		DealerCards: []string{deck[1], deck[3]},
		Deck:        deck[4:],
		CanDouble:   true,
		StartedAt:   time.Now(),
	}

	if IsBlackjack(game.PlayerCards) {
		if IsBlackjack(game.DealerCards) {
			finish(game, redis_models.OutcomePush, game.Bet)
		} else {
			// 3:2 on the bet, stake returned
			finish(game, redis_models.OutcomeBlackjack, game.Bet+(game.Bet*3)/2)
		}
	}
	return game
}

// Hit draws one card for the player. A bust resolves the hand; otherwise the
// player keeps the turn with doubling no longer available.
func Hit(game *redis_models.BlackjackGame) error {
	if game.State != redis_models.BlackjackPlayerTurn {
		return ErrWrongState
	}
	game.PlayerCards = append(game.PlayerCards, draw(game))
	game.CanDouble = false

	if HandValue(game.PlayerCards) > 21 {
		finish(game, redis_models.OutcomeLose, 0)
	}
	return nil
}

// Stand ends the player turn; the dealer plays out and the hand resolves in
// the same call.
func Stand(game *redis_models.BlackjackGame) error {
	if game.State != redis_models.BlackjackPlayerTurn {
		return ErrWrongState
	}
	game.State = redis_models.BlackjackDealerTurn
	resolveDealer(game)
	return nil
}

// Double doubles the wager, draws exactly one card and resolves. Only legal
// as the first decision of the hand; the caller has already debited the
// additional bet.
func Double(game *redis_models.BlackjackGame) error {
	if game.State != redis_models.BlackjackPlayerTurn {
		return ErrWrongState
	}
	if !game.CanDouble {
		return ErrNoDouble
	}
	game.Bet *= 2
	game.PlayerCards = append(game.PlayerCards, draw(game))
	game.CanDouble = false

	if HandValue(game.PlayerCards) > 21 {
		finish(game, redis_models.OutcomeLose, 0)
		return nil
	}
	game.State = redis_models.BlackjackDealerTurn
	resolveDealer(game)
	return nil
}

// resolveDealer draws for the dealer until 17 or better, then settles the
// outcome against the player's total.
func resolveDealer(game *redis_models.BlackjackGame) {
	for HandValue(game.DealerCards) < 17 {
		game.DealerCards = append(game.DealerCards, draw(game))
	}

	player := HandValue(game.PlayerCards)
	dealer := HandValue(game.DealerCards)
	switch {
	case dealer > 21 || player > dealer:
		finish(game, redis_models.OutcomeWin, game.Bet*2)
	case player < dealer:
		finish(game, redis_models.OutcomeLose, 0)
	default:
		finish(game, redis_models.OutcomePush, game.Bet)
	}
}

func finish(game *redis_models.BlackjackGame, outcome redis_models.BlackjackOutcome, payout int64) {
	game.State = redis_models.BlackjackFinished
	game.Outcome = outcome
	game.Payout = payout
	game.ResolvedAt = time.Now()
}

func draw(game *redis_models.BlackjackGame) string {
	if len(game.Deck) == 0 {
		// cannot happen with a single 52-card deck and two hands, but a
		// corrupted Redis record must not panic the handler
		game.Deck = NewShuffledDeck()
	}
	card := game.Deck[0]
	game.Deck = game.Deck[1:]
	return card
}
