// Package recon implements the reconciliation engine: parsing registry
// locations, deciding campaign eligibility, comparing registry assets against
// field inspections, and classifying the outcome. Everything here is pure and
// computed on demand; only the coarse divergence boolean is ever persisted,
// so reports always apply the current rules to historical inspections.
package recon

import "strings"

// ParseLocation splits a free-text registry location into room and building.
// The registry encodes the building as a trailing parenthesised group:
// "SALA 10 (BLOCO A)" -> ("SALA 10", "BLOCO A"). Only the last group at the
// very end of the string counts, so room names that themselves contain
// parenthetical text survive intact:
// "LAB METRO (LAB MÚSICA)(BLOCO 01)" -> ("LAB METRO (LAB MÚSICA)", "BLOCO 01").
func ParseLocation(s string) (room, building string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if strings.HasSuffix(s, ")") {
		if i := strings.LastIndex(s, "("); i >= 0 {
			building = strings.TrimSpace(s[i+1 : len(s)-1])
			room = strings.TrimSpace(s[:i])
			if room == "" {
				// A bare "(X)" keeps the whole string as the room name but
				// the building assignment still stands.
				room = s
			}
			return room, building
		}
	}
	return s, ""
}

// FormatLocation renders a (room, building) pair back into the registry's
// "room (building)" convention. The inverse of ParseLocation for well-formed
// pairs.
func FormatLocation(room, building string) string {
	room = strings.TrimSpace(room)
	building = strings.TrimSpace(building)
	switch {
	case building == "":
		return room
	case room == "":
		return building
	}
	return room + " (" + building + ")"
}
