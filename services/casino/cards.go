package casino

import (
	"math/rand"
	"strconv"
	"strings"
)

// Cards A, 2, 3, 4, 5, 6, 7, 8, 9, 10, J, Q, K
// Suit s (spades), c (clubs), d (diamonds), h (hearts)
// Cards are stored as "Rank+suit" strings ("10h", "As") so they marshal
// straight into the Redis game model.

var ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
var suits = []string{"s", "h", "d", "c"}

// NewShuffledDeck returns a shuffled 52-card deck.
func NewShuffledDeck() []string {
	deck := make([]string, 0, 52)
	for _, suit := range suits {
		for _, rank := range ranks {
			deck = append(deck, rank+suit)
		}
	}
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// cardValue returns the blackjack value of a card; aces count as 11 here and
// are softened in HandValue.
func cardValue(card string) int {
	rank := strings.TrimRight(card, "shdc")
	switch rank {
	case "A":
		return 11
	case "J", "Q", "K":
		return 10
	default:
		v, _ := strconv.Atoi(rank)
		return v
	}
}

// HandValue returns the best blackjack total for a hand, counting each ace
// as 11 unless that busts the hand.
func HandValue(cards []string) int {
	total := 0
	aces := 0
	for _, card := range cards {
		v := cardValue(card)
		if v == 11 {
			aces++
		}
		total += v
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsBlackjack reports whether a two-card hand is a natural 21.
func IsBlackjack(cards []string) bool {
	return len(cards) == 2 && HandValue(cards) == 21
}
