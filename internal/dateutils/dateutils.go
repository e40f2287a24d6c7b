// Package dateutils provides the date and time parsing used by receipt
// rendering. Terminals export timestamps as "dd/mm/yy hh:mm"; other exports
// use ISO layouts.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layouts used for display.
const (
	LayoutReceipt  = "02-01-2006, 03:04 PM"
	LayoutListDate = "02/01/2006"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutFull     = "2006-01-02 15:04:05"
	DateLayoutMinutes  = "2006-01-02 15:04"
	DateLayoutRFC3339  = time.RFC3339
	DateLayoutISOLocal = "2006-01-02T15:04:05"
	DateLayoutISOShort = "2006-01-02T15:04"
	DateLayoutDayFirst = "02/01/2006"
	DateLayoutDashed   = "02-01-2006"
	DateLayoutMonthAbb = "02/Jan/2006, 03:04 PM"
)

// CommonFormats is a list of standard formats to try when parsing dates
var CommonFormats = []string{
	DateLayoutRFC3339,
	DateLayoutISOLocal,
	DateLayoutISOShort,
	DateLayoutFull,
	DateLayoutMinutes,
	DateLayoutISO,
	DateLayoutDayFirst,
	DateLayoutDashed,
	DateLayoutMonthAbb,
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseDate attempts to parse a date string using multiple common formats
// Returns the parsed time and the detected format
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParsePositional reads the terminal layout "d/m/yy h:mm". Day and month may
// be one or two digits; a two-digit year is read as 20yy and a four-digit
// year is kept. The result is in UTC.
func ParsePositional(s string) (time.Time, bool) {
	datePart, timePart, ok := strings.Cut(CleanDateString(s), " ")
	if !ok {
		return time.Time{}, false
	}

	dmy := strings.Split(datePart, "/")
	hm := strings.Split(timePart, ":")
	if len(dmy) != 3 || len(hm) != 2 {
		return time.Time{}, false
	}

	day, ok1 := number(dmy[0], 1, 2)
	month, ok2 := number(dmy[1], 1, 2)
	hour, ok3 := number(hm[0], 1, 2)
	minute, ok4 := number(hm[1], 2, 2)
	if !(ok1 && ok2 && ok3 && ok4) {
		return time.Time{}, false
	}

	var year int
	switch len(dmy[2]) {
	case 2:
		yy, ok := number(dmy[2], 2, 2)
		if !ok {
			return time.Time{}, false
		}
		year = 2000 + yy
	case 4:
		yyyy, ok := number(dmy[2], 4, 4)
		if !ok {
			return time.Time{}, false
		}
		year = yyyy
	default:
		return time.Time{}, false
	}

	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if t.Day() != day {
		// 31/02 and friends normalise into the next month
		return time.Time{}, false
	}
	return t, true
}

func number(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || strings.ContainsAny(s, "+-") {
		return 0, false
	}
	return n, true
}

// CleanDateString removes unwanted characters and normalizes a date string
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}
