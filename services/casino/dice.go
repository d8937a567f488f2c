package casino

import (
	"fmt"
	"math/rand"
)

// Dice: pick a target 1-95 and bet over or under. The roll is 1-100 and the
// multiplier scales inversely with the win chance, with a 1% house edge.

type DiceResult struct {
	Roll       int     `json:"roll"`
	Won        bool    `json:"won"`
	Multiplier float64 `json:"multiplier"`
	Payout     int64   `json:"payout"`
}

// ValidateDiceTarget bounds the target so neither side ever has a zero or
// certain chance.
func ValidateDiceTarget(target int) error {
	if target < 1 || target > 95 {
		return fmt.Errorf("dice target must be between 1 and 95, got %d", target)
	}
	return nil
}

// RollDice resolves a dice bet.
func RollDice(bet int64, target int, over bool) DiceResult {
	roll := rand.Intn(100) + 1

	var chance int // winning outcomes out of 100
	var won bool
	if over {
		chance = 100 - target
		won = roll > target
	} else {
		chance = target
		won = roll <= target
	}

	mult := 99.0 / float64(chance)
	result := DiceResult{Roll: roll, Won: won, Multiplier: mult}
	if won {
		result.Payout = int64(float64(bet) * mult)
	}
	return result
}
