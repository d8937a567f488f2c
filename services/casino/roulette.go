package casino

import (
	"errors"
	"fmt"
	"math/rand"
)

// European wheel, single zero. Even-money bets lose on zero.

type RouletteBetType string

const (
	BetRed    RouletteBetType = "red"
	BetBlack  RouletteBetType = "black"
	BetOdd    RouletteBetType = "odd"
	BetEven   RouletteBetType = "even"
	BetNumber RouletteBetType = "number"
)

var ErrBadBetType = errors.New("unknown roulette bet type")

var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// RouletteResult is the settled outcome of a single spin.
type RouletteResult struct {
	Winning int   `json:"winning_number"`
	Won     bool  `json:"won"`
	Payout  int64 `json:"payout"` // amount returned to cash, stake included
}

// ValidateRouletteBet checks the bet type and, for straight bets, the number.
func ValidateRouletteBet(betType RouletteBetType, number int) error {
	switch betType {
	case BetRed, BetBlack, BetOdd, BetEven:
		return nil
	case BetNumber:
		if number < 0 || number > 36 {
			return fmt.Errorf("number bet must be between 0 and 36, got %d", number)
		}
		return nil
	default:
		return ErrBadBetType
	}
}

// SpinRoulette spins the wheel and settles the bet. Straight bets pay 35:1,
// even-money bets 1:1.
func SpinRoulette(bet int64, betType RouletteBetType, number int) RouletteResult {
	winning := rand.Intn(37)
	result := RouletteResult{Winning: winning}

	switch betType {
	case BetRed:
		result.Won = redNumbers[winning]
	case BetBlack:
		result.Won = winning != 0 && !redNumbers[winning]
	case BetOdd:
		result.Won = winning%2 == 1
	case BetEven:
		result.Won = winning != 0 && winning%2 == 0
	case BetNumber:
		result.Won = winning == number
	}

	if result.Won {
		if betType == BetNumber {
			result.Payout = bet * 36
		} else {
			result.Payout = bet * 2
		}
	}
	return result
}
