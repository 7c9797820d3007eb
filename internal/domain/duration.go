package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformedDuration is returned when a duration string does not match
// the ISO-8601 grammar, or uses calendar-ambiguous units.
var ErrMalformedDuration = errors.New("malformed ISO-8601 duration")

var iso8601Re = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISO8601Duration converts an ISO-8601 duration of the form
// P[nY][nM][nW][nD][T[nH][nM][nS]] into total whole seconds.
//
// Year and month components are rejected rather than approximated: a guess
// of 30-day months could silently misclassify long-form content. Weeks and
// days convert exactly (1 week = 7 days, 1 day = 24 hours).
func ParseISO8601Duration(iso string) (int, error) {
	m := iso8601Re.FindStringSubmatch(iso)
	if m == nil || iso == "P" || iso == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, iso)
	}

	years, months := m[1], m[2]
	if years != "" || months != "" {
		return 0, fmt.Errorf("%w: years and months are not supported: %q", ErrMalformedDuration, iso)
	}

	days := atoiDefault(m[3])*7 + atoiDefault(m[4])
	hours := atoiDefault(m[5])
	minutes := atoiDefault(m[6])
	seconds := atoiDefault(m[7])

	return ((days*24+hours)*60+minutes)*60 + seconds, nil
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
