package models

// Preference holds the per-channel settings a user can toggle.
type Preference struct {
	Pinned bool `json:"pinned"`
	Muted  bool `json:"muted"`
	Hidden bool `json:"hidden"`
}

// PreferencePatch is a partial update; nil fields are left untouched.
type PreferencePatch struct {
	Pinned *bool `json:"pinned,omitempty"`
	Muted  *bool `json:"muted,omitempty"`
	Hidden *bool `json:"hidden,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p PreferencePatch) IsEmpty() bool {
	return p.Pinned == nil && p.Muted == nil && p.Hidden == nil
}

// Apply merges the patch into pref.
func (p PreferencePatch) Apply(pref Preference) Preference {
	if p.Pinned != nil {
		pref.Pinned = *p.Pinned
	}
	if p.Muted != nil {
		pref.Muted = *p.Muted
	}
	if p.Hidden != nil {
		pref.Hidden = *p.Hidden
	}
	return pref
}

// IsZero reports whether every flag is at its default.
func (p Preference) IsZero() bool {
	return !p.Pinned && !p.Muted && !p.Hidden
}
