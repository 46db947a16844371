package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinDisplayNameLength = 2
	MaxDisplayNameLength = 50
	MinPostTitleLength   = 3
	MaxPostTitleLength   = 120
	MaxLocationLength    = 200
	MaxTimeTextLength    = 120
	MaxNotesLength       = 2000
	MinMessageLength     = 1
	MaxMessageLength     = 5000
	MaxReportDescription = 1000
	MinPasswordLength    = 8
	MaxPasswordLength    = 72 // bcrypt input limit
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks an address shape, not deliverability.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("email is not valid")
	}
	return nil
}

// ValidatePassword enforces length bounds only; complexity rules are
// left to the client.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	}
	return nil
}

// ValidateDisplayName checks the visible user name.
func ValidateDisplayName(name string) error {
	return validateLength("display name", name, MinDisplayNameLength, MaxDisplayNameLength)
}

// ValidatePostTitle checks the activity title.
func ValidatePostTitle(title string) error {
	return validateLength("title", title, MinPostTitleLength, MaxPostTitleLength)
}

// ValidatePostLocation checks the free-text location.
func ValidatePostLocation(location string) error {
	return validateLength("location", location, 1, MaxLocationLength)
}

// ValidatePostTime checks the free-text time description.
func ValidatePostTime(timeText string) error {
	return validateLength("time", timeText, 1, MaxTimeTextLength)
}

// ValidateMessageContent checks a chat message after trimming.
func ValidateMessageContent(content string) error {
	return validateLength("message", strings.TrimSpace(content), MinMessageLength, MaxMessageLength)
}

// ValidateCoordinates checks that latitude and longitude are either
// both present and in range, or both absent.
func ValidateCoordinates(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return fmt.Errorf("latitude and longitude must be set together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if *lon < -180 || *lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

func validateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min {
		if min <= 1 {
			return fmt.Errorf("%s is required", field)
		}
		return fmt.Errorf("%s must be at least %d characters", field, min)
	}
	if n > max {
		return fmt.Errorf("%s must be at most %d characters", field, max)
	}
	return nil
}
