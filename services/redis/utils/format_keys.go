package utils

/**
 * This file contains utility functions to format the keys for Redis
 * (key, value) pairs. It avoids having to call "fmt.Sprintf(...)"
 * with the same format spec every time, potentially confusing the key format.
 */

import "fmt"

const LeaderboardKey = "leaderboard:networth"

func FormatSessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func FormatBlackjackKey(sessionID string) string {
	return fmt.Sprintf("blackjack:%s", sessionID)
}

func FormatBlackjackSettledKey(gameID string) string {
	return fmt.Sprintf("blackjack:settled:%s", gameID)
}

func FormatViewModeKey(username string) string {
	return fmt.Sprintf("viewmode:%s", username)
}

func FormatViewModeChannel(username string) string {
	return fmt.Sprintf("viewmode:events:%s", username)
}

func FormatTwoFactorKey(email string) string {
	return fmt.Sprintf("2fa:%s", email)
}
