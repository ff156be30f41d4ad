package kickwelt

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Scalar coercion for the locale-formatted markup the source emits. Numbers
// use German formatting (dot thousands separator, comma decimal), market
// values come as currency shorthand ("€1,20m", "€350k"), heights as "1,91m"
// and dates as DD.MM.YYYY, optionally followed by the age in parentheses.

var (
	nonDigitRe  = regexp.MustCompile(`[^0-9]`)
	heightRe    = regexp.MustCompile(`(\d)[,.](\d{2})\s*m`)
	euroDateRe  = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	ageSuffixRe = regexp.MustCompile(`\((\d{1,2})\)`)
)

// ParseLooseInt strips everything but digits and parses the rest, which
// absorbs thousands separators and stray markup text.
func ParseLooseInt(s string) (int, bool) {
	digits := nonDigitRe.ReplaceAllString(s, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseEuroFloat parses a German-formatted decimal: "." is a thousands
// separator and "," the decimal point ("1.234,5" -> 1234.5).
func ParseEuroFloat(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	t = strings.ReplaceAll(t, ".", "")
	t = strings.ReplaceAll(t, ",", ".")
	if t == "" || t == "-" {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseCurrency parses market value shorthand into whole euros. "m" scales by
// a million, "k" by a thousand; "-" and empty cells mean unknown and map to
// nil. A suffix-less value is read as a plain integer amount.
func ParseCurrency(s string) *int64 {
	t := strings.TrimSpace(s)
	t = strings.ReplaceAll(t, "€", "")
	t = strings.ReplaceAll(t, " ", "")
	t = strings.ReplaceAll(t, " ", "")
	if t == "" || t == "-" {
		return nil
	}

	lower := strings.ToLower(t)
	var mult int64
	switch {
	case strings.HasSuffix(lower, "m"):
		mult = 1_000_000
		lower = strings.TrimSuffix(lower, "m")
	case strings.HasSuffix(lower, "k"):
		mult = 1_000
		lower = strings.TrimSuffix(lower, "k")
	default:
		n, ok := ParseLooseInt(lower)
		if !ok {
			return nil
		}
		v := int64(n)
		return &v
	}

	// Shorthand values are small, so any separator left is the decimal point.
	lower = strings.ReplaceAll(lower, ",", ".")
	f, err := strconv.ParseFloat(lower, 64)
	if err != nil {
		return nil
	}
	v := int64(math.Round(f * float64(mult)))
	return &v
}

// ParseHeightCm converts "1,91m" (or "1.91 m") to centimeters. Anything that
// does not match the meter pattern falls back to loose integer parsing, which
// covers sources that already report centimeters.
func ParseHeightCm(s string) (int, bool) {
	if m := heightRe.FindStringSubmatch(s); m != nil {
		meters, _ := strconv.Atoi(m[1])
		cm, _ := strconv.Atoi(m[2])
		return meters*100 + cm, true
	}
	return ParseLooseInt(s)
}

// ParseEuroDate parses DD.MM.YYYY, ignoring any trailing "(age)" group.
func ParseEuroDate(s string) (time.Time, bool) {
	m := euroDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// ParseAgeSuffix extracts the parenthesized age from a birth date cell like
// "30.06.2004 (21)".
func ParseAgeSuffix(s string) (int, bool) {
	m := ageSuffixRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	age, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return age, true
}
