// Package flagmatch implements the flag-extraction half of the Flag
// Matcher & Enqueuer (C4, §4.4): applying the configured flag_format regex
// to a body of text and collecting every non-overlapping match. Shared by
// the client-side exploit session output and the server-side exfiltration
// endpoint, which both need identical extraction semantics.
package flagmatch

import "regexp"

// Extract returns every non-overlapping match of format in text, in the
// order they occur. An empty result means "no flags" (§4.3 edge policies).
func Extract(format *regexp.Regexp, text string) []string {
	if format == nil || text == "" {
		return nil
	}
	return format.FindAllString(text, -1)
}
