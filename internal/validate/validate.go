package validate

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,29}$`)
	nameRe     = regexp.MustCompile(`^[\p{L}][\p{L} '-]{0,49}$`)
	phoneRe    = regexp.MustCompile(`^(\+47)?[2-9]\d{7}$`)
)

func Email(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}

// Password requires at least 8 characters with an uppercase letter, a
// lowercase letter, and a digit.
func Password(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func Username(username string) bool {
	return usernameRe.MatchString(username)
}

func Name(name string) bool {
	return nameRe.MatchString(strings.TrimSpace(name))
}

// Phone accepts Norwegian national numbers, with or without the +47 prefix.
func Phone(phone string) bool {
	cleaned := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	return phoneRe.MatchString(cleaned)
}

// DateOfBirth requires members to be between 13 and 120 years old.
func DateOfBirth(dob time.Time, now time.Time) bool {
	if dob.After(now) {
		return false
	}
	age := yearsBetween(dob, now)
	return age >= 13 && age <= 120
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	anniversary := from.AddDate(years, 0, 0)
	if anniversary.After(to) {
		years--
	}
	return years
}
