package schema

import (
	"maps"
	"time"
)

// Well-known settings keys.
const (
	SettingTheme         = "theme"
	SettingShowCompleted = "showCompleted"
	SettingUpdatedAt     = "updatedAt"
)

// Settings is the free-form key-value settings record. It exists only as a
// mirror document; there is no relational counterpart.
type Settings map[string]any

// DefaultSettings returns the settings used when none have been saved.
func DefaultSettings() Settings {
	return Settings{
		SettingTheme:         "light",
		SettingShowCompleted: true,
	}
}

// WithDefaults returns s, or the defaults when s is empty.
func (s Settings) WithDefaults() Settings {
	if len(s) == 0 {
		return DefaultSettings()
	}
	return s
}

// Merge shallow-merges patch over a copy of s and stamps updatedAt.
// Keys in patch replace keys in s; nested objects are replaced, not merged.
// The stamp uses TimestampLayout and is strictly later than the one in s.
func (s Settings) Merge(patch Settings, now time.Time) Settings {
	prev, _ := s[SettingUpdatedAt].(string)

	merged := make(Settings, len(s)+len(patch)+1)
	maps.Copy(merged, s)
	maps.Copy(merged, patch)
	merged[SettingUpdatedAt] = NextTimestamp(now, prev)
	return merged
}
