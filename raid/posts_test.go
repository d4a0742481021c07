package raid

import (
	"strings"
	"testing"
	"time"
)

func TestEndOfDay(t *testing.T) {
	loc, _ := time.LoadLocation("America/Los_Angeles")
	now := time.Date(2019, 3, 14, 22, 30, 0, 0, loc)
	got := endOfDay(now)
	want := time.Date(2019, 3, 15, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("endOfDay = %v, want %v", got, want)
	}
}

func TestTimedPostListingLine(t *testing.T) {
	exp := time.Date(2019, 3, 14, 15, 4, 0, 0, time.UTC)
	cases := []struct {
		p    TimedPost
		want []string
	}{
		{TimedPost{Kind: PostWild, Pokemon: "pikachu", Location: "Fountain", Expires: exp},
			[]string{"Pikachu", "Fountain", "3:04 PM"}},
		{TimedPost{Kind: PostResearch, Quest: "win a raid", Reward: "rare candy", Location: "Library"},
			[]string{"Rare candy", "win a raid", "Library"}},
		{TimedPost{Kind: PostLure, Pokemon: "glacial", Location: "Fountain", Expires: exp},
			[]string{"Glacial lure", "Fountain"}},
		{TimedPost{Kind: PostInvasion, Location: "Fountain", Expires: exp},
			[]string{"Invasion", "Fountain"}},
	}
	for _, c := range cases {
		line := c.p.ListingLine()
		for _, want := range c.want {
			if !strings.Contains(line, want) {
				t.Errorf("%s line %q missing %q", c.p.Kind, line, want)
			}
		}
	}
}
