package casino

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDiceTarget(t *testing.T) {
	assert.NoError(t, ValidateDiceTarget(1))
	assert.NoError(t, ValidateDiceTarget(50))
	assert.NoError(t, ValidateDiceTarget(95))

	assert.Error(t, ValidateDiceTarget(0))
	assert.Error(t, ValidateDiceTarget(96))
	assert.Error(t, ValidateDiceTarget(-3))
}

func TestRollDice(t *testing.T) {
	for i := 0; i < 500; i++ {
		under := RollDice(100, 50, false)
		assert.GreaterOrEqual(t, under.Roll, 1)
		assert.LessOrEqual(t, under.Roll, 100)
		assert.InDelta(t, 1.98, under.Multiplier, 0.0001)
		assert.Equal(t, under.Roll <= 50, under.Won)
		if under.Won {
			assert.Equal(t, int64(198), under.Payout)
		} else {
			assert.Equal(t, int64(0), under.Payout)
		}

		over := RollDice(100, 95, true)
		assert.Equal(t, over.Roll > 95, over.Won)
		if over.Won {
			// 5% chance pays 19.8x
			assert.Equal(t, int64(1980), over.Payout)
		}
	}
}
