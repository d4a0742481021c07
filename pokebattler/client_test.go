package pokebattler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleRanking = `{
  "attackers": [{
    "randomMove": {
      "defenders": [
        {"pokemonId": "RHYPERIOR", "byMove": [
          {"move1": "MUD_SLAP_FAST", "move2": "SURF", "result": {"estimator": 3.2}},
          {"move1": "SMACK_DOWN_FAST", "move2": "ROCK_WRECKER", "result": {"estimator": 2.1}}
        ]},
        {"pokemonId": "RAMPARDOS", "byMove": [
          {"move1": "SMACK_DOWN_FAST", "move2": "ROCK_SLIDE", "result": {"estimator": 1.8}}
        ]}
      ]
    }
  }]
}`

func TestCounters(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(sampleRanking))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	counters, err := c.Counters(context.Background(), "ho-oh", "5")
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/raids/defenders/HO_OH/levels/RAID_LEVEL_5/attackers/levels/30/strategies/CINEMATIC_ATTACK_WHEN_POSSIBLE/DEFENSE_RANDOM_MC" {
		t.Fatalf("unexpected request path %s", gotPath)
	}
	if len(counters) != 2 {
		t.Fatalf("expected 2 counters, got %d", len(counters))
	}
	// sorted by estimator ascending, best moveset (last byMove entry) taken
	if counters[0].Pokemon != "Rampardos" {
		t.Fatalf("best counter should be Rampardos, got %s", counters[0].Pokemon)
	}
	if counters[1].FastMove != "Smack Down" || counters[1].ChargeMove != "Rock Wrecker" {
		t.Fatalf("wrong moveset: %+v", counters[1])
	}
}

func TestCountersServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Counters(context.Background(), "mewtwo", "5"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestAPIName(t *testing.T) {
	for in, want := range map[string]string{
		"ho-oh":       "HO_OH",
		"Mewtwo":      "MEWTWO",
		"mr mime":     "MR_MIME",
		"farfetch'd":  "FARFETCHD",
	} {
		if got := apiName(in); got != want {
			t.Errorf("apiName(%q) = %q, want %q", in, got, want)
		}
	}
}
