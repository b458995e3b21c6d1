package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// [-]HH:MM[:SS[.fff]] with an optional "N day(s)," prefix
	clockPattern = regexp.MustCompile(`^([+-])?(?:(\d+)\s*days?,?\s*)?(\d+):([0-5]?\d)(?::([0-5]?\d(?:\.\d+)?))?$`)

	// one "<number> <unit>" term of a spelled-out duration
	termPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(weeks?|wks?|w|days?|d|hours?|hrs?|h|minutes?|mins?|m|seconds?|secs?|s|milliseconds?|ms|microseconds?|us|µs|nanoseconds?|ns)\b`)

	unitScale = map[string]time.Duration{
		"w": 7 * 24 * time.Hour, "wk": 7 * 24 * time.Hour, "wks": 7 * 24 * time.Hour,
		"week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
		"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
		"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
		"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
		"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
		"ms": time.Millisecond, "millisecond": time.Millisecond, "milliseconds": time.Millisecond,
		"us": time.Microsecond, "µs": time.Microsecond, "microsecond": time.Microsecond, "microseconds": time.Microsecond,
		"ns": time.Nanosecond, "nanosecond": time.Nanosecond, "nanoseconds": time.Nanosecond,
	}
)

// Duration parses Go durations ("1h30m"), clock forms ("1:30:00",
// "2 days, 04:00") and spelled-out forms ("3 weeks 2 hrs", "45 mins").
// Bare numbers are not durations.
func Duration(v interface{}) (time.Duration, bool) {
	switch x := v.(type) {
	case time.Duration:
		return x, true
	case string:
		return parseDuration(strings.TrimSpace(x))
	}
	return 0, false
}

func parseDuration(s string) (time.Duration, bool) {
	if s == "" || !strings.ContainsAny(s, "0123456789") {
		return 0, false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return 0, false
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	if d, ok := parseClock(s); ok {
		return d, true
	}
	return parseTerms(s)
}

func parseClock(s string) (time.Duration, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	var total float64
	if m[2] != "" {
		days, _ := strconv.ParseFloat(m[2], 64)
		total += days * float64(24*time.Hour)
	}
	hours, _ := strconv.ParseFloat(m[3], 64)
	minutes, _ := strconv.ParseFloat(m[4], 64)
	total += hours*float64(time.Hour) + minutes*float64(time.Minute)
	if m[5] != "" {
		secs, _ := strconv.ParseFloat(m[5], 64)
		total += secs * float64(time.Second)
	}
	if m[1] == "-" {
		total = -total
	}
	return toDuration(total)
}

func parseTerms(s string) (time.Duration, bool) {
	sign := 1.0
	body := s
	if strings.HasPrefix(body, "-") {
		sign = -1
		body = body[1:]
	} else if strings.HasPrefix(body, "+") {
		body = body[1:]
	}

	matches := termPattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return 0, false
	}

	var total float64
	last := 0
	for _, m := range matches {
		if gap := strings.Trim(body[last:m[0]], " ,"); gap != "" && !strings.EqualFold(gap, "and") {
			return 0, false
		}
		n, err := strconv.ParseFloat(body[m[2]:m[3]], 64)
		if err != nil {
			return 0, false
		}
		unit := strings.ToLower(body[m[4]:m[5]])
		total += n * float64(unitScale[unit])
		last = m[1]
	}
	if strings.Trim(body[last:], " ,") != "" {
		return 0, false
	}
	return toDuration(sign * total)
}

func toDuration(ns float64) (time.Duration, bool) {
	if math.IsNaN(ns) || math.Abs(ns) >= math.MaxInt64 {
		return 0, false
	}
	return time.Duration(math.Round(ns)), true
}
