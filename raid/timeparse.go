package raid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fuzzyTime parses clock times the way people type them in chat: "4:00pm",
// "4:00 p", "16:00". A bare hour below the current one is assumed to mean
// PM.
func fuzzyTime(query string, timebase time.Time) (time.Time, error) {
	var t time.Time
	var err error
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return time.Time{}, errors.New("empty time")
	}
	lastChar := query[len(query)-1]
	if lastChar == 'A' || lastChar == 'P' {
		query = query + "M"
		lastChar = 'M'
	}
	if lastChar == 'M' {
		t, err = time.Parse("3:04PM", query)
		if err != nil {
			t, err = time.Parse("3:04 PM", query)
			if err != nil {
				return time.Time{}, err
			}
		}
	} else {
		t, err = time.Parse("15:04", query)
		if err != nil {
			return time.Time{}, err
		}
	}

	yy, mm, dd := timebase.Date()
	h, m, _ := t.Clock()
	bh, _, _ := timebase.Clock()
	if h < bh && h < 12 { // fix PM if not stated
		h += 12
	}
	return time.Date(yy, mm, dd, h, m, 0, 0, timebase.Location()), nil
}

// parseTimeSpec understands "at 4:00", "in 20m", a bare clock time, a bare
// duration, or a bare minute count ("45").
func parseTimeSpec(spec []string, timebase time.Time) (time.Time, error) {
	if len(spec) == 0 {
		return time.Time{}, errors.New("empty time")
	}
	switch spec[0] {
	case "at":
		return fuzzyTime(strings.Join(spec[1:], " "), timebase)
	case "in":
		return parseRelative(strings.Join(spec[1:], ""), timebase)
	}
	glom := strings.Join(spec, "")
	if strings.Contains(glom, ":") {
		return fuzzyTime(glom, timebase)
	}
	return parseRelative(glom, timebase)
}

// parseRelative handles "20m", "1h20m" and plain minute counts.
func parseRelative(glom string, timebase time.Time) (time.Time, error) {
	if mins, err := strconv.Atoi(glom); err == nil {
		if mins < 0 {
			return time.Time{}, fmt.Errorf("negative minutes: %d", mins)
		}
		return timebase.Add(time.Duration(mins) * time.Minute), nil
	}
	dur, err := time.ParseDuration(glom)
	if err != nil {
		return time.Time{}, fmt.Errorf("couldn't understand time %q", glom)
	}
	return timebase.Add(dur), nil
}
