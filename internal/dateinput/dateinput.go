// Package dateinput shapes raw keystrokes into a YYYY-MM-DD due date
// and validates the result on submit.
package dateinput

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const Layout = "2006-01-02"

var shape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Format renders a raw digit stream as a partial YYYY-MM-DD string.
// Non-digits are dropped, input is truncated to eight digits, and a
// separator follows the year and month groups as soon as they are
// complete. Applying Format to its own output changes nothing.
func Format(raw string) string {
	digits := make([]byte, 0, 8)
	for i := 0; i < len(raw) && len(digits) < 8; i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}

	var b strings.Builder
	for i, c := range digits {
		b.WriteByte(c)
		if i == 3 || i == 5 {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Validate checks a submitted due date against the calendar and against
// "today" derived from now (time of day ignored). An empty input is
// valid and means no due date; the returned time is zero in that case.
func Validate(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, nil
	}
	if !shape.MatchString(input) {
		return time.Time{}, fmt.Errorf("due date must look like YYYY-MM-DD, got %q", input)
	}
	due, err := time.Parse(Layout, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s is not a real calendar date", input)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if due.Before(today) {
		return time.Time{}, fmt.Errorf("due date %s is in the past", input)
	}
	return due, nil
}
