package casino

import (
	"testing"

	redis_models "notropolis/models/redis"

	"github.com/stretchr/testify/assert"
)

// fixedGame builds a mid-hand game with a known deck so transitions are
// deterministic.
func fixedGame(player, dealer []string, deck []string) *redis_models.BlackjackGame {
	return &redis_models.BlackjackGame{
		ID:          "test-game",
		SessionID:   "test-session",
		CompanyID:   1,
		State:       redis_models.BlackjackPlayerTurn,
		Bet:         100,
		PlayerCards: player,
		DealerCards: dealer,
		Deck:        deck,
		CanDouble:   true,
	}
}

func TestNewBlackjackGame(t *testing.T) {
	for i := 0; i < 50; i++ {
		game := NewBlackjackGame("sess", 1, 100)

		assert.Len(t, game.PlayerCards, 2)
		assert.Len(t, game.DealerCards, 2)

		switch game.State {
		case redis_models.BlackjackPlayerTurn:
			assert.True(t, game.CanDouble)
			assert.Equal(t, redis_models.OutcomeNone, game.Outcome)
		case redis_models.BlackjackFinished:
			// only a natural resolves a fresh deal
			assert.True(t, IsBlackjack(game.PlayerCards))
			if IsBlackjack(game.DealerCards) {
				assert.Equal(t, redis_models.OutcomePush, game.Outcome)
				assert.Equal(t, int64(100), game.Payout)
			} else {
				assert.Equal(t, redis_models.OutcomeBlackjack, game.Outcome)
				assert.Equal(t, int64(250), game.Payout, "natural pays 3:2 plus the stake")
			}
		default:
			t.Fatalf("fresh deal in unexpected state %s", game.State)
		}
	}
}

func TestHit(t *testing.T) {
	t.Run("disables double and keeps the turn", func(t *testing.T) {
		game := fixedGame([]string{"2s", "3h"}, []string{"9d", "9c"}, []string{"5s", "6h"})

		assert.NoError(t, Hit(game))
		assert.Equal(t, redis_models.BlackjackPlayerTurn, game.State)
		assert.Equal(t, []string{"2s", "3h", "5s"}, game.PlayerCards)
		assert.False(t, game.CanDouble)
	})

	t.Run("bust finishes the hand with no payout", func(t *testing.T) {
		game := fixedGame([]string{"Ks", "Qh"}, []string{"9d", "9c"}, []string{"5s"})

		assert.NoError(t, Hit(game))
		assert.Equal(t, redis_models.BlackjackFinished, game.State)
		assert.Equal(t, redis_models.OutcomeLose, game.Outcome)
		assert.Equal(t, int64(0), game.Payout)
	})

	t.Run("rejected outside the player turn", func(t *testing.T) {
		game := fixedGame([]string{"2s", "3h"}, []string{"9d", "9c"}, []string{"5s"})
		game.State = redis_models.BlackjackFinished

		assert.ErrorIs(t, Hit(game), ErrWrongState)
	})
}

func TestStand(t *testing.T) {
	t.Run("dealer draws to seventeen", func(t *testing.T) {
		game := fixedGame([]string{"10s", "8h"}, []string{"2d", "4c"}, []string{"5s", "6h", "9d"})

		assert.NoError(t, Stand(game))
		assert.Equal(t, redis_models.BlackjackFinished, game.State)
		// dealer: 2+4+5+6 = 17, stands, player 18 wins
		assert.Equal(t, []string{"2d", "4c", "5s", "6h"}, game.DealerCards)
		assert.Equal(t, redis_models.OutcomeWin, game.Outcome)
		assert.Equal(t, int64(200), game.Payout)
	})

	t.Run("dealer stands on soft seventeen", func(t *testing.T) {
		game := fixedGame([]string{"10s", "8h"}, []string{"As", "6c"}, []string{"9d"})

		assert.NoError(t, Stand(game))
		assert.Equal(t, []string{"As", "6c"}, game.DealerCards, "soft 17 must not draw")
		assert.Equal(t, redis_models.OutcomeWin, game.Outcome)
	})

	t.Run("dealer bust pays the player", func(t *testing.T) {
		game := fixedGame([]string{"2s", "3h"}, []string{"10d", "6c"}, []string{"Kh"})

		assert.NoError(t, Stand(game))
		assert.Equal(t, redis_models.OutcomeWin, game.Outcome, "dealer 26 busts even against player 5")
		assert.Equal(t, int64(200), game.Payout)
	})

	t.Run("push returns the stake", func(t *testing.T) {
		game := fixedGame([]string{"10s", "8h"}, []string{"10d", "8c"}, nil)

		assert.NoError(t, Stand(game))
		assert.Equal(t, redis_models.OutcomePush, game.Outcome)
		assert.Equal(t, int64(100), game.Payout)
	})

	t.Run("dealer higher total wins", func(t *testing.T) {
		game := fixedGame([]string{"10s", "7h"}, []string{"10d", "9c"}, nil)

		assert.NoError(t, Stand(game))
		assert.Equal(t, redis_models.OutcomeLose, game.Outcome)
		assert.Equal(t, int64(0), game.Payout)
	})
}

func TestDouble(t *testing.T) {
	t.Run("doubles the bet and draws one card", func(t *testing.T) {
		game := fixedGame([]string{"5s", "6h"}, []string{"10d", "9c"}, []string{"9s"})

		assert.NoError(t, Double(game))
		assert.Equal(t, int64(200), game.Bet)
		assert.Equal(t, []string{"5s", "6h", "9s"}, game.PlayerCards)
		assert.Equal(t, redis_models.BlackjackFinished, game.State)
		// player 20 beats dealer 19, doubled stake pays double
		assert.Equal(t, redis_models.OutcomeWin, game.Outcome)
		assert.Equal(t, int64(400), game.Payout)
	})

	t.Run("bust on the doubled card loses the doubled bet", func(t *testing.T) {
		game := fixedGame([]string{"10s", "6h"}, []string{"10d", "9c"}, []string{"9s"})

		assert.NoError(t, Double(game))
		assert.Equal(t, int64(200), game.Bet)
		assert.Equal(t, redis_models.OutcomeLose, game.Outcome)
		assert.Equal(t, int64(0), game.Payout)
	})

	t.Run("unavailable after a hit", func(t *testing.T) {
		game := fixedGame([]string{"2s", "3h"}, []string{"10d", "9c"}, []string{"2d", "9s"})

		assert.NoError(t, Hit(game))
		assert.ErrorIs(t, Double(game), ErrNoDouble)
	})

	t.Run("rejected outside the player turn", func(t *testing.T) {
		game := fixedGame([]string{"2s", "3h"}, []string{"10d", "9c"}, []string{"9s"})
		game.State = redis_models.BlackjackDealerTurn

		assert.ErrorIs(t, Double(game), ErrWrongState)
	})
}

// A finished hand accepts no decision at all; the only way to play again is
// a fresh deal.
func TestFinishedHandIsTerminal(t *testing.T) {
	game := fixedGame([]string{"Ks", "Qh"}, []string{"9d", "9c"}, []string{"5s"})
	assert.NoError(t, Hit(game)) // bust
	assert.Equal(t, redis_models.BlackjackFinished, game.State)

	assert.ErrorIs(t, Hit(game), ErrWrongState)
	assert.ErrorIs(t, Stand(game), ErrWrongState)
	assert.ErrorIs(t, Double(game), ErrWrongState)
	assert.Equal(t, redis_models.BlackjackFinished, game.State, "state must not move after resolution")
}
