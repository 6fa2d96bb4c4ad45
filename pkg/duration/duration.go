// Package duration parses and renders the compound, Go-style duration strings
// used throughout scenario definitions ("5s", "200ms", "1h30m"). It is
// deliberately narrower than time.ParseDuration: only ms/s/m/h units are
// accepted, there is no sign prefix, and no ns/us.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InvalidDuration is returned whenever the input string does not match the
// compound-duration grammar.
type InvalidDuration struct {
	Input string
	Why   string
}

func (e *InvalidDuration) Error() string {
	if e.Why == "" {
		return fmt.Sprintf("invalid duration %q", e.Input)
	}
	return fmt.Sprintf("invalid duration %q: %s", e.Input, e.Why)
}

// Duration is a span of time stored as integer milliseconds.
type Duration int64

// unit multipliers, expressed in milliseconds.
const (
	msPerMs = 1
	msPerS  = 1000 * msPerMs
	msPerM  = 60 * msPerS
	msPerH  = 60 * msPerM
)

var unitMs = map[string]int64{
	"ms": msPerMs,
	"s":  msPerS,
	"m":  msPerM,
	"h":  msPerH,
}

// segmentPattern matches one "<n>[.<frac>]<unit>" segment. Units are ordered
// longest-first so "ms" is not swallowed as "m" followed by a stray "s".
var segmentPattern = regexp.MustCompile(`^(\d+)(\.\d+)?(ms|s|m|h)`)

// Parse parses a compound duration string per the grammar:
//
//	duration := "0" | segment+
//	segment  := digits ["." digits] unit
//	unit     := "ms" | "s" | "m" | "h"
//
// No whitespace, sign prefixes, or unknown units (ns, us, day, ...) are
// accepted. Sub-millisecond precision is truncated toward zero.
func Parse(s string) (Duration, error) {
	if s == "0" {
		return 0, nil
	}
	if s == "" {
		return 0, &InvalidDuration{Input: s, Why: "empty string"}
	}

	rest := s
	var totalMs int64
	matchedAny := false

	for rest != "" {
		m := segmentPattern.FindStringSubmatch(rest)
		if m == nil {
			return 0, &InvalidDuration{Input: s, Why: fmt.Sprintf("unexpected %q", rest)}
		}
		matchedAny = true

		whole, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, &InvalidDuration{Input: s, Why: err.Error()}
		}

		unit := m[3]
		mult, ok := unitMs[unit]
		if !ok {
			return 0, &InvalidDuration{Input: s, Why: fmt.Sprintf("unknown unit %q", unit)}
		}

		totalMs += whole * mult

		// The fractional part (e.g. the "061" in "30.061s") is scaled by the
		// unit's millisecond multiplier and truncated toward zero entirely in
		// integer arithmetic, so Parse(d.String()) reproduces d exactly for
		// every Duration instead of drifting the way a float64 accumulator
		// does (e.g. 1.001 * 1000 losing precision to 1000.9999999999999).
		if frac := m[2]; frac != "" {
			digits := frac[1:]
			fracNum, err := strconv.ParseInt(digits, 10, 64)
			if err != nil {
				return 0, &InvalidDuration{Input: s, Why: err.Error()}
			}
			scale := int64(1)
			for range digits {
				scale *= 10
			}
			totalMs += (fracNum * mult) / scale
		}

		rest = rest[len(m[0]):]
	}

	if !matchedAny {
		return 0, &InvalidDuration{Input: s, Why: "no segments matched"}
	}

	return Duration(totalMs), nil
}

// MustParse parses s and panics on failure. Intended for package-level
// defaults and tests, never for user input.
func MustParse(s string) Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// AsTimeDuration converts to the standard library's time.Duration.
func (d Duration) AsTimeDuration() time.Duration {
	return time.Duration(d) * time.Millisecond
}

// FromTimeDuration converts a time.Duration, truncating sub-millisecond
// precision toward zero.
func FromTimeDuration(d time.Duration) Duration {
	return Duration(d / time.Millisecond)
}

// String renders the canonical Go-style compound form over h/m/s/ms
// components (no ns/us, since Duration carries millisecond resolution only).
// Unlike time.Duration.String(), zero-valued unit segments are omitted
// (60000 renders as "1m", not "1m0s"), and a span under one second renders
// as a bare "<n>ms".
//
// Examples: 90061 -> "1m30.061s", 60000 -> "1m", 0 -> "0s".
func (d Duration) String() string {
	if d == 0 {
		return "0s"
	}

	neg := d < 0
	ms := int64(d)
	if neg {
		ms = -ms
	}

	hours := ms / msPerH
	ms -= hours * msPerH
	minutes := ms / msPerM
	ms -= minutes * msPerM
	seconds := ms / msPerS
	ms -= seconds * msPerS

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}

	// Pure sub-second spans render in milliseconds, matching how segments
	// under 1s are expressed in the parse grammar itself.
	if hours == 0 && minutes == 0 && seconds == 0 {
		fmt.Fprintf(&b, "%dms", ms)
		return b.String()
	}

	if hours > 0 {
		fmt.Fprintf(&b, "%dh", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dm", minutes)
	}
	if seconds > 0 || ms > 0 {
		writeSeconds(&b, seconds, ms)
	}

	return b.String()
}

func writeSeconds(b *strings.Builder, seconds, ms int64) {
	if ms == 0 {
		fmt.Fprintf(b, "%ds", seconds)
		return
	}
	frac := strings.TrimRight(fmt.Sprintf("%03d", ms), "0")
	fmt.Fprintf(b, "%d.%ss", seconds, frac)
}
