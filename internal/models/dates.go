package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numericDateRe = regexp.MustCompile(`^(\d{1,4})[-/.](\d{1,2})[-/.](\d{1,4})$`)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// NormalizeDate converts the date formats seen on identity documents into
// ISO YYYY-MM-DD. Inputs it cannot interpret are returned unchanged so a
// reviewer still sees what was read off the document.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Already ISO.
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02")
	}

	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		if d, ok := parseNumericDate(m[1], m[2], m[3]); ok {
			return d
		}
	}

	// Textual months: "12 Mar 1985", "March 12, 1985", "12 MAR/MAR 85".
	for _, layout := range []string{
		"2 Jan 2006", "2 January 2006", "Jan 2, 2006", "January 2, 2006",
		"2 Jan 06", "02 Jan 2006", "2-Jan-2006",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if d, ok := parseSplitMonth(s); ok {
		return d
	}

	return s
}

// parseNumericDate resolves a/b/c with the usual ambiguity rules: a leading
// four-digit field is a year, a field over 12 is the day, otherwise assume
// US month-first ordering since the target form is a US immigration form.
func parseNumericDate(a, b, c string) (string, bool) {
	av, _ := strconv.Atoi(a)
	bv, _ := strconv.Atoi(b)
	cv, _ := strconv.Atoi(c)

	var year, month, day int
	switch {
	case len(a) == 4:
		year, month, day = av, bv, cv
	case len(c) >= 3:
		year = cv
		month, day = av, bv
		if av > 12 && bv <= 12 {
			month, day = bv, av
		}
	default:
		// Two-digit year.
		year = expandYear(cv)
		month, day = av, bv
		if av > 12 && bv <= 12 {
			month, day = bv, av
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2200 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// parseSplitMonth handles MRZ-adjacent prints like "12 MAR/MAR 85" where the
// month appears in two languages separated by a slash.
func parseSplitMonth(s string) (string, bool) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) != 3 {
		return "", false
	}
	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return "", false
	}
	monthToken := fields[1]
	if i := strings.IndexByte(monthToken, '/'); i >= 3 {
		monthToken = monthToken[:i]
	}
	if len(monthToken) > 3 {
		monthToken = monthToken[:3]
	}
	month, ok := monthNames[monthToken]
	if !ok {
		return "", false
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", false
	}
	if len(fields[2]) == 2 {
		year = expandYear(year)
	}
	if day < 1 || day > 31 || year < 1900 || year > 2200 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day), true
}

// expandYear resolves a two-digit year against the MRZ pivot rule: anything
// more than ten years past the current two-digit year belongs to the 1900s.
func expandYear(yy int) int {
	current := time.Now().Year() % 100
	if yy > current+10 {
		return 1900 + yy
	}
	return 2000 + yy
}
