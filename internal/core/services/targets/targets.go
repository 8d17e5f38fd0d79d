// Package targets implements target resolution for the Exploit Session
// (C3, §4.3 step 1): expanding IPv4/IPv6 ranges and de-duplicating an
// exploit definition's target list, or substituting the teams directory
// when targets is ["auto"].
package targets

import (
	"strconv"
	"strings"
)

// ExpandAll expands every entry of raw (ranges or plain hosts) and
// de-duplicates the result, preserving first-occurrence order (§4.3 step 1,
// §8 invariant 6's sibling property for target lists).
func ExpandAll(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, host := range expand(entry) {
			if _, ok := seen[host]; ok {
				continue
			}
			seen[host] = struct{}{}
			out = append(out, host)
		}
	}
	return out
}

// expand turns a single target entry into one or more concrete hosts. A
// bare hostname or address with no range syntax expands to itself. Only the
// first range-bearing segment of an address is expanded; additional ranges
// in the same entry are treated as literal text, which matches every form
// games use in practice ("10.0.1-20.5", "fe80::1-a").
func expand(entry string) []string {
	sep := ""
	switch {
	case strings.Contains(entry, "."):
		sep = "."
	case strings.Contains(entry, ":"):
		sep = ":"
	default:
		return []string{entry}
	}

	parts := strings.Split(entry, sep)
	base := 10
	if sep == ":" {
		base = 16
	}

	for i, part := range parts {
		lo, hi, ok := parseRange(part, base)
		if !ok {
			continue
		}
		results := make([]string, 0, hi-lo+1)
		for v := lo; v <= hi; v++ {
			cp := append([]string(nil), parts...)
			cp[i] = strconv.FormatInt(int64(v), base)
			results = append(results, strings.Join(cp, sep))
		}
		return results
	}
	return []string{entry}
}

// parseRange parses "lo-hi" in the given base (10 for IPv4 octets, 16 for
// IPv6 hextets). Returns ok=false for anything that isn't a clean range.
func parseRange(part string, base int) (lo, hi int, ok bool) {
	dash := strings.IndexByte(part, '-')
	if dash <= 0 || dash == len(part)-1 {
		return 0, 0, false
	}
	loVal, err := strconv.ParseInt(part[:dash], base, 32)
	if err != nil {
		return 0, 0, false
	}
	hiVal, err := strconv.ParseInt(part[dash+1:], base, 32)
	if err != nil || hiVal < loVal {
		return 0, 0, false
	}
	return int(loVal), int(hiVal), true
}

// ResolveAuto implements the `targets == ["auto"]` path (§4.3 step 1): the
// effective target list is every non-own team id from the teams directory,
// de-duplicated preserving order.
func ResolveAuto(teamHosts []string, ownTeamIPs map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(teamHosts))
	out := make([]string, 0, len(teamHosts))
	for _, host := range teamHosts {
		if _, own := ownTeamIPs[host]; own {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, host)
	}
	return out
}
