package casino

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRouletteBet(t *testing.T) {
	assert.NoError(t, ValidateRouletteBet(BetRed, 0))
	assert.NoError(t, ValidateRouletteBet(BetBlack, 0))
	assert.NoError(t, ValidateRouletteBet(BetOdd, 0))
	assert.NoError(t, ValidateRouletteBet(BetEven, 0))
	assert.NoError(t, ValidateRouletteBet(BetNumber, 0))
	assert.NoError(t, ValidateRouletteBet(BetNumber, 36))

	assert.Error(t, ValidateRouletteBet(BetNumber, -1))
	assert.Error(t, ValidateRouletteBet(BetNumber, 37))
	assert.ErrorIs(t, ValidateRouletteBet("corner", 0), ErrBadBetType)
}

func TestSpinRoulette(t *testing.T) {
	// The wheel is random; assert the settlement invariants over many spins
	// instead of pinning outcomes.
	for i := 0; i < 500; i++ {
		for _, betType := range []RouletteBetType{BetRed, BetBlack, BetOdd, BetEven} {
			result := SpinRoulette(100, betType, 0)
			assert.GreaterOrEqual(t, result.Winning, 0)
			assert.LessOrEqual(t, result.Winning, 36)

			if result.Won {
				assert.Equal(t, int64(200), result.Payout, "even-money bets pay 1:1 plus the stake")
				assert.NotEqual(t, 0, result.Winning, "zero loses every even-money bet")
			} else {
				assert.Equal(t, int64(0), result.Payout)
			}
		}

		result := SpinRoulette(100, BetNumber, 17)
		if result.Won {
			assert.Equal(t, 17, result.Winning)
			assert.Equal(t, int64(3600), result.Payout, "straight bets pay 35:1 plus the stake")
		} else {
			assert.NotEqual(t, 17, result.Winning)
			assert.Equal(t, int64(0), result.Payout)
		}
	}
}

func TestSpinRouletteColourConsistency(t *testing.T) {
	// For any winning number, exactly one of red/black wins unless it is zero.
	for i := 0; i < 500; i++ {
		red := SpinRoulette(10, BetRed, 0)
		if red.Winning == 0 {
			assert.False(t, red.Won)
			continue
		}
		black := redNumbers[red.Winning]
		assert.Equal(t, black, red.Won)
	}
}
