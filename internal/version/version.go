// Package version parses and orders the semantic-version-like strings
// carried by skill artifacts.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Comparison is the result of comparing an installed version against a
// candidate version. It is a pure function of the two strings: the same
// pair always produces the same result.
type Comparison struct {
	Installed string
	Candidate string

	// IsNewer reports whether the candidate should be treated as an update.
	IsNewer bool

	// IsMajorBump reports whether the candidate raises the major component.
	IsMajorBump bool

	// MalformedInstalled and MalformedCandidate flag inputs that failed to
	// parse and were treated as 0.0.0.
	MalformedInstalled bool
	MalformedCandidate bool

	// Warnings carries human-readable notices about degraded parsing.
	Warnings []string
}

// Compare parses both version strings and orders them.
//
// Versions are up to three dot-separated non-negative integers; missing
// components default to 0. A malformed string is treated as 0.0.0 and
// flagged rather than rejected: unparsable version metadata must never
// block an update, so when either side is malformed and the raw strings
// differ, the candidate is treated as newer.
func Compare(installed, candidate string) Comparison {
	cmp := Comparison{
		Installed: installed,
		Candidate: candidate,
	}

	iv, iok := parse(installed)
	cv, cok := parse(candidate)

	if !iok {
		cmp.MalformedInstalled = true
		cmp.Warnings = append(cmp.Warnings,
			fmt.Sprintf("installed version %q is not a valid version; treating as 0.0.0", installed))
	}
	if !cok {
		cmp.MalformedCandidate = true
		cmp.Warnings = append(cmp.Warnings,
			fmt.Sprintf("candidate version %q is not a valid version; treating as 0.0.0", candidate))
	}

	if !iok || !cok {
		// Degraded mode: assume an update is available unless the strings
		// are byte-identical.
		cmp.IsNewer = installed != candidate
		if cmp.IsNewer {
			cmp.Warnings = append(cmp.Warnings,
				"version comparison degraded; assuming an update is available")
		}
		return cmp
	}

	cmp.IsNewer = less(iv, cv)
	cmp.IsMajorBump = cmp.IsNewer && cv[0] > iv[0]

	return cmp
}

// parse splits s into (major, minor, patch). ok is false when s is empty,
// has more than three components, or any component is not a non-negative
// integer.
func parse(s string) (v [3]int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return v, false
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return v, false
	}

	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return [3]int{}, false
		}
		v[i] = n
	}

	return v, true
}

// less reports whether a orders strictly before b, lexicographically on
// the (major, minor, patch) tuple.
func less(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
