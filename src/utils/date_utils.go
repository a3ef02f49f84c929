package utils

import (
	"log"
	"time"
)

// DefaultDateFormat is the wire and storage format for calendar days.
const DefaultDateFormat = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string. Logs and returns zero time if parsing
// fails; callers that need to reject bad input validate the string first.
func ParseDate(dateStr string) time.Time {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		log.Printf("Error parsing date '%s' with format '%s': %v. Returning zero time.", dateStr, DefaultDateFormat, err)
		return time.Time{}
	}
	return t
}

// FormatDate renders a time as a YYYY-MM-DD calendar day.
func FormatDate(t time.Time) string {
	return t.Format(DefaultDateFormat)
}
