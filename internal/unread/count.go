package unread

import (
	"strconv"

	"chat-notifier/internal/models"
)

const (
	// DefaultWindow is how many recent messages are fetched per channel.
	DefaultWindow = 20
	// DefaultCap is the highest unread count reported for one channel.
	DefaultCap = 99

	compactCap = 9
)

// Count returns the unread messages of a newest-last window for a user whose cursor
// is cursor. Messages authored by selfID never count. When the cursor is missing or
// has scrolled out of the window every foreign message in the window counts, so the
// result can undercount a backlog larger than the window but never reports zero for
// unseen messages.
func Count(msgs []models.Message, cursor string, hasCursor bool, selfID string) int {
	if len(msgs) == 0 {
		return 0
	}
	start := 0
	if hasCursor && cursor != "" {
		if msgs[len(msgs)-1].ID == cursor {
			return 0
		}
		for i := len(msgs) - 2; i >= 0; i-- {
			if msgs[i].ID == cursor {
				start = i + 1
				break
			}
		}
	}
	n := 0
	for _, m := range msgs[start:] {
		if m.AuthorID != selfID {
			n++
		}
	}
	return n
}

// Cap clamps n to ceiling. A non-positive ceiling means DefaultCap.
func Cap(n, ceiling int) int {
	if ceiling <= 0 {
		ceiling = DefaultCap
	}
	if n > ceiling {
		return ceiling
	}
	if n < 0 {
		return 0
	}
	return n
}

// CompactBadge renders a count for single-digit badges: "" for zero, "9+" above nine.
func CompactBadge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > compactCap:
		return strconv.Itoa(compactCap) + "+"
	default:
		return strconv.Itoa(n)
	}
}

// Totals sums unread across all channels and across direct channels only.
func Totals(unread map[string]int, channels []models.Channel) (total, direct int) {
	for _, ch := range channels {
		n := unread[ch.ID]
		total += n
		if ch.IsDirect() {
			direct += n
		}
	}
	return total, direct
}
