// Package profile holds pure helpers for rendering user profile facts.
package profile

import (
	"fmt"
	"strings"
	"time"
)

// AgeFromBirthdate returns whole years between dob and now, or nil for
// missing input. The year count is decremented when the birthday has
// not yet occurred this year.
func AgeFromBirthdate(dob *time.Time, now time.Time) *int {
	if dob == nil {
		return nil
	}

	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return &age
}

// DisplayName renders "{name}, {age}" when the age is resolvable,
// otherwise just the name.
func DisplayName(name string, dob *time.Time, now time.Time) string {
	if age := AgeFromBirthdate(dob, now); age != nil {
		return fmt.Sprintf("%s, %d", name, *age)
	}
	return name
}

// Initials returns the uppercased first letters of up to two
// whitespace-separated name tokens.
func Initials(name string) string {
	var initials []rune
	for _, token := range strings.Fields(name) {
		first := []rune(token)[0]
		initials = append(initials, []rune(strings.ToUpper(string(first)))...)
		if len(initials) >= 2 {
			break
		}
	}
	if len(initials) > 2 {
		initials = initials[:2]
	}
	return string(initials)
}

// ResolveAvatarURL passes absolute URLs through unchanged and prefixes
// stored relative paths with the media base URL. Nil stays nil.
func ResolveAvatarURL(path *string, baseURL string) *string {
	if path == nil {
		return nil
	}
	if strings.HasPrefix(*path, "http://") || strings.HasPrefix(*path, "https://") {
		return path
	}
	resolved := strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(*path, "/")
	return &resolved
}
