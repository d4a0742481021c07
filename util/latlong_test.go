package util

import "testing"

func wantPair(t *testing.T, tokens []string, lat, lon float64, consumed int) {
	t.Helper()
	gotLat, gotLon, gotN, err := ParseLatLong(tokens)
	if err != nil {
		t.Fatalf("ParseLatLong(%v): %v", tokens, err)
	}
	if gotLat != lat || gotLon != lon || gotN != consumed {
		t.Errorf("ParseLatLong(%v) = %v, %v, %d; want %v, %v, %d",
			tokens, gotLat, gotLon, gotN, lat, lon, consumed)
	}
}

func TestParseLatLong(t *testing.T) {
	wantPair(t, []string{"37.649183,-121.896766", "foo"}, 37.649183, -121.896766, 1)
	wantPair(t, []string{"37.649183,", "-121.896766", "abc"}, 37.649183, -121.896766, 2)
	wantPair(t, []string{"37.649183", "-121.896766"}, 37.649183, -121.896766, 2)
	// eastern hemisphere, positive longitude split across tokens
	wantPair(t, []string{"51.5007,", "0.1246"}, 51.5007, 0.1246, 2)
}

func TestParseLatLongErrors(t *testing.T) {
	bad := [][]string{
		{},
		{"37.649183,"},
		{"asdf"},
		{"asdf,qwer"},
		{"137.6,-121.8"}, // latitude out of range
	}
	for _, tokens := range bad {
		if _, _, _, err := ParseLatLong(tokens); err == nil {
			t.Errorf("ParseLatLong(%v): expected error", tokens)
		}
	}
}
