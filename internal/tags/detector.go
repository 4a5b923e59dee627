// Package tags scans message bodies for moderator-attention markers.
package tags

import "strings"

// Markers recognized by the detector. Matching is case-insensitive and
// word-boundary bound; no markdown or escaping rules apply.
var Markers = []string{"@issue", "@request", "@query"}

// Detect scans body for attention markers and returns the matched markers
// lower-cased, de-duplicated and in order of first appearance, plus whether
// anything matched. Scanning is stateless and deterministic: the same body
// always yields the same result.
func Detect(body string) ([]string, bool) {
	lower := strings.ToLower(body)

	var found []string
	seen := make(map[string]bool, len(Markers))

	for i := 0; i < len(lower); i++ {
		if lower[i] != '@' {
			continue
		}
		for _, marker := range Markers {
			if seen[marker] {
				continue
			}
			if !strings.HasPrefix(lower[i:], marker) {
				continue
			}
			if !boundedAt(lower, i, len(marker)) {
				continue
			}
			seen[marker] = true
			found = append(found, marker)
		}
	}

	return found, len(found) > 0
}

// boundedAt reports whether the marker occupying lower[start:start+length]
// sits on word boundaries on both sides.
func boundedAt(lower string, start, length int) bool {
	if start > 0 && isWordByte(lower[start-1]) {
		return false
	}
	end := start + length
	if end < len(lower) && isWordByte(lower[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
