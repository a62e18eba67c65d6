package unread

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"chat-notifier/internal/models"
)

func window(authors ...string) []models.Message {
	msgs := make([]models.Message, len(authors))
	for i, a := range authors {
		msgs[i] = models.Message{ID: fmt.Sprintf("m%d", i+1), AuthorID: a}
	}
	return msgs
}

func TestCount(t *testing.T) {
	msgs := window("bob", "me", "bob", "carol", "me", "bob")

	cases := []struct {
		name      string
		cursor    string
		hasCursor bool
		want      int
	}{
		{name: "no cursor counts every foreign message", want: 4},
		{name: "cursor at newest", cursor: "m6", hasCursor: true, want: 0},
		{name: "cursor inside window", cursor: "m3", hasCursor: true, want: 2},
		{name: "cursor at oldest", cursor: "m1", hasCursor: true, want: 3},
		{name: "cursor scrolled out of window", cursor: "m0", hasCursor: true, want: 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Count(msgs, tc.cursor, tc.hasCursor, "me"))
		})
	}

	assert.Zero(t, Count(nil, "", false, "me"))
}

func TestCapNeverExceedsCeiling(t *testing.T) {
	for _, n := range []int{0, 1, 98, 99, 100, 5000} {
		assert.LessOrEqual(t, Cap(n, 99), 99)
	}
	assert.Equal(t, 42, Cap(42, 99))
	assert.Equal(t, 99, Cap(150, 0))
}

func TestCompactBadge(t *testing.T) {
	assert.Equal(t, "", CompactBadge(0))
	assert.Equal(t, "1", CompactBadge(1))
	assert.Equal(t, "9", CompactBadge(9))
	assert.Equal(t, "9+", CompactBadge(10))
	assert.Equal(t, "9+", CompactBadge(99))
}

func TestTotals(t *testing.T) {
	channels := []models.Channel{
		{ID: "g1", Kind: models.ChannelGroup},
		{ID: "d1", Kind: models.ChannelDirect},
		{ID: "d2", Kind: models.ChannelDirect},
	}
	total, direct := Totals(map[string]int{"g1": 3, "d1": 2, "d2": 1, "gone": 7}, channels)
	assert.Equal(t, 6, total)
	assert.Equal(t, 3, direct)
}

func TestMergeKeepsPreviousValuesOfFailedChannels(t *testing.T) {
	res := Result{
		Unread:   map[string]int{"c1": 0},
		Activity: map[string]bool{},
		Failed:   map[string]error{"c2": assert.AnError},
	}
	merged := res.Merge(map[string]int{"c1": 4, "c2": 3, "c3": 9}, map[string]bool{"c2": true, "c3": true})

	assert.Equal(t, map[string]int{"c1": 0, "c2": 3}, merged.Unread)
	assert.Equal(t, map[string]bool{"c2": true}, merged.Activity)
}
