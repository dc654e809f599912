// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

import "strings"

// contentRatingLevels orders film and TV parental ratings on one scale.
var contentRatingLevels = map[string]int{
	"G":     0,
	"TV-Y":  0,
	"TV-G":  0,
	"PG":    1,
	"TV-Y7": 1,
	"TV-PG": 1,
	"PG-13": 2,
	"TV-14": 2,
	"R":     3,
	"NC-17": 4,
	"TV-MA": 4,
}

// ContentRatingLevel returns the ordinal level of a parental rating.
// ok is false for unknown or unrated labels.
func ContentRatingLevel(rating string) (level int, ok bool) {
	r := strings.ToUpper(strings.TrimSpace(rating))
	r = strings.TrimPrefix(r, "US/")
	level, ok = contentRatingLevels[r]
	return level, ok
}
