package directory

import (
	"sort"

	"chat-notifier/internal/models"
)

// Sections is the sidebar view of the directory.
type Sections struct {
	Channels []models.Channel `json:"channels"`
	Directs  []models.Channel `json:"directs"`
	Hidden   []models.Channel `json:"hidden"`
}

// PreferenceLookup returns the preference of a channel.
type PreferenceLookup func(channelID string) models.Preference

// Arrange splits channels into the visible group and direct sections and the hidden
// list. Visible sections put pinned channels first, then follow the custom order;
// channels missing from the order keep their directory position after the ordered ones.
// Hidden channels keep directory order.
func Arrange(channels []models.Channel, prefs PreferenceLookup, order models.ChannelOrder) Sections {
	sections := Sections{
		Channels: []models.Channel{},
		Directs:  []models.Channel{},
		Hidden:   []models.Channel{},
	}
	for _, ch := range channels {
		switch {
		case prefs(ch.ID).Hidden:
			sections.Hidden = append(sections.Hidden, ch)
		case ch.IsDirect():
			sections.Directs = append(sections.Directs, ch)
		default:
			sections.Channels = append(sections.Channels, ch)
		}
	}
	sortSection(sections.Channels, prefs, order.Groups)
	sortSection(sections.Directs, prefs, order.Directs)
	return sections
}

func sortSection(section []models.Channel, prefs PreferenceLookup, order []string) {
	rank := make(map[string]int, len(order))
	for i, id := range order {
		if _, seen := rank[id]; !seen {
			rank[id] = i
		}
	}
	position := func(id string) int {
		if r, ok := rank[id]; ok {
			return r
		}
		return len(order)
	}
	sort.SliceStable(section, func(i, j int) bool {
		pi, pj := prefs(section[i].ID).Pinned, prefs(section[j].ID).Pinned
		if pi != pj {
			return pi
		}
		return position(section[i].ID) < position(section[j].ID)
	})
}
