// Package util holds small shared helpers with no bot dependencies.
package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseLatLong reads a coordinate pair from the front of a token list. Both
// a single "lat,lon" token and a "lat," "lon" pair split across two tokens
// are accepted. Returns how many tokens the pair consumed so the caller can
// keep parsing after it.
func ParseLatLong(tokens []string) (lat, lon float64, consumed int, err error) {
	if len(tokens) == 0 {
		return 0, 0, 0, errors.New("no coordinates given")
	}
	first := strings.TrimSuffix(tokens[0], ",")
	consumed = 1

	var latStr, lonStr string
	if i := strings.IndexByte(first, ','); i >= 0 {
		latStr, lonStr = first[:i], first[i+1:]
	} else if len(tokens) >= 2 {
		latStr, lonStr = first, strings.TrimSuffix(tokens[1], ",")
		consumed = 2
	} else {
		return 0, 0, 0, errors.New("coordinates need a comma between latitude and longitude")
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad latitude %q", latStr)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad longitude %q", lonStr)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, 0, errors.New("coordinates out of range")
	}
	return lat, lon, consumed, nil
}
