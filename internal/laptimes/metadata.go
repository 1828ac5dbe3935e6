// Package laptimes extracts lap records from the metadata blocks drivers put
// in Time Attack video descriptions and stores them for the leaderboard.
package laptimes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Video titles follow "<category> - <rest>". Only Time Attack videos carry
// lap metadata; Raw Footage uploads are recognized and left alone.
const (
	CategoryTimeAttack = "Time Attack"
	CategoryRawFootage = "Raw Footage"
)

// metadataBlock matches the first ===-delimited block in a description:
//
//	===
//	Track: Laguna Seca
//	Time: 1:33.205
//	===
var metadataBlock = regexp.MustCompile(`(?s)===\s*(.*?)\s*===`)

// ParseMetadata extracts the key/value lines of the first ===-delimited
// block. Keys are lowercased and trimmed, values trimmed; lines without a
// colon are ignored. Returns an empty map when there is no block.
func ParseMetadata(description string) map[string]string {
	meta := map[string]string{}
	m := metadataBlock.FindStringSubmatch(description)
	if m == nil {
		return meta
	}
	for _, line := range strings.Split(m[1], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		meta[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return meta
}

// ParseLapTime converts a lap time of the form "M:SS.mmm", or bare seconds
// like "93.205", into seconds.
func ParseLapTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if mins, secs, ok := strings.Cut(s, ":"); ok {
		m, err := strconv.Atoi(strings.TrimSpace(mins))
		if err != nil {
			return 0, fmt.Errorf("invalid minutes in lap time %q", s)
		}
		sec, err := strconv.ParseFloat(strings.TrimSpace(secs), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid seconds in lap time %q", s)
		}
		return float64(m)*60 + sec, nil
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid lap time %q", s)
	}
	return sec, nil
}

// Category returns the part of the title before the first " - ", or the
// whole title when there is no separator.
func Category(title string) string {
	category, _, _ := strings.Cut(title, " - ")
	return strings.TrimSpace(category)
}
