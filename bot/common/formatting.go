package common

import (
	"fmt"
	"strings"
)

// FormatPoints formats a point amount with thousand separators
func FormatPoints(points int64) string {
	str := fmt.Sprintf("%d", points)

	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// Medal returns the leaderboard marker for a 1-based rank
func Medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("#%d", rank)
	}
}
