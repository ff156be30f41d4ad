package reconciliation

import "strings"

// DedupeKey computes the cross-source identity key for a player. A usable
// external id yields a source-qualified key; otherwise the key falls back to
// the lowercased name and club combination.
func DedupeKey(source, externalID, name, club string) string {
	externalID = strings.TrimSpace(externalID)
	if externalID != "" {
		return source + ":" + externalID
	}
	return strings.ToLower(strings.TrimSpace(name)) + "::" + strings.ToLower(strings.TrimSpace(club))
}

// IsFallbackKey reports whether the identity had to fall back to name+club.
func IsFallbackKey(externalID string) bool {
	return strings.TrimSpace(externalID) == ""
}

// SplitName divides a display name into first and last parts. A single token
// is treated as a last name; everything before the final token is the first
// name, which keeps compound surnames intact often enough for matching.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}

	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return "", name
	}
	return strings.TrimSpace(name[:idx]), strings.TrimSpace(name[idx+1:])
}
