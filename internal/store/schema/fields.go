package schema

import (
	"encoding/hex"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the fixed-width UTC layout used for created_at and
// updated_at. Fixed width keeps lexical order equal to time order, which the
// store relies on for ORDER BY created_at.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// deadlineLayouts are the ISO-8601 forms accepted for a task deadline.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Sanitize trims surrounding whitespace and HTML-escapes the result so stored
// markup cannot be reinterpreted by downstream readers of the mirror.
func Sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// SanitizeOptional sanitizes an optional field. Nil and whitespace-only
// values both become nil (stored as NULL).
func SanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := Sanitize(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// FormatTimestamp renders t in TimestampLayout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a value written by FormatTimestamp. It also accepts
// plain RFC 3339 so rows written by other tools still order correctly.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// NextTimestamp returns a stamp for now that is strictly later than prev.
//
// updated_at must strictly increase on every mutation; two toggles inside the
// same clock tick (or a clock step backwards) would otherwise produce equal or
// decreasing stamps. An unparseable or empty prev is ignored.
func NextTimestamp(now time.Time, prev string) string {
	now = now.UTC().Truncate(time.Microsecond)
	if prev != "" {
		if p, err := ParseTimestamp(prev); err == nil && !now.After(p) {
			now = p.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
		}
	}
	return now.Format(TimestampLayout)
}

// ValidDeadline reports whether s is an accepted ISO-8601 date or date-time.
func ValidDeadline(s string) bool {
	for _, layout := range deadlineLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// NewTaskID generates a task identifier: task_<unix seconds>_<16 hex chars>.
// The random half comes from a version 4 UUID, so identifiers are never reused.
func NewTaskID(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("task_%d_%s", now.Unix(), hex.EncodeToString(u[:8]))
}
