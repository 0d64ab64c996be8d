package validation

import (
	"regexp"
	"strings"
	"time"
)

// Actor names: letters, digits, spaces and . _ - ' @ (emails are allowed as names).
var actorRe = regexp.MustCompile(`^[\p{L}\p{N}\s._\-'@]+$`)

const maxActorLen = 64

// Dates accepted from forms: RFC 3339 or a plain calendar date.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func IsValidActor(actor string) bool {
	actor = strings.TrimSpace(actor)
	return actor != "" && len(actor) <= maxActorLen && actorRe.MatchString(actor)
}

func IsValidName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= 200
}

// ParseDate parses s with the accepted layouts. Empty means fallback.
func ParseDate(s string, fallback time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
