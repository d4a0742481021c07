package raid

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inconshreveable/log15"
)

func testBot(t *testing.T) *Bot {
	t.Helper()
	log := log15.New("module", "test")
	log.SetHandler(log15.DiscardHandler())
	return &Bot{
		log:    log,
		sched:  NewScheduler(nil),
		Guilds: make(map[string]*GuildState),
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	b := testBot(t)
	g := testGuild()
	b.Guilds["g1"] = g
	g.Settings.ReportChannels["report-ch"] = "north"
	g.Settings.ListingChannels["north"] = "listing-ch"
	g.Listings["north"] = []string{"lm1", "lm2"}

	r := testEgg("5")
	r.GymID = 7
	r.trainer("a").SetStatus(StatusComing, 2, TeamCounts{Mystic: 2})
	r.trainer("a").Interest = []string{"dragonite"}
	r.RecordDuplicate("b", false)
	g.Raids[r.ChannelID] = r
	g.Posts["m1"] = &TimedPost{
		MessageID: "m1", ChannelID: "c", GuildID: "g1", Kind: PostWild,
		Pokemon: "pikachu", Location: "Fountain",
		Expires: testBase.Add(20 * time.Minute),
	}

	if err := b.Save(path); err != nil {
		t.Fatal(err)
	}

	b2 := testBot(t)
	if err := b2.Load(path); err != nil {
		t.Fatal(err)
	}
	g2, ok := b2.Guilds["g1"]
	if !ok {
		t.Fatal("guild missing after load")
	}
	r2, ok := g2.Raids["ch1"]
	if !ok {
		t.Fatal("raid missing after load")
	}
	if r2.EggLevel != "5" || r2.GymID != 7 || !r2.Active || r2.DupeCount != 1 {
		t.Errorf("raid fields lost: %+v", r2)
	}
	if !r2.HatchTime.Equal(r.HatchTime) {
		t.Errorf("hatch time drifted: %v vs %v", r2.HatchTime, r.HatchTime)
	}
	a := r2.Trainers["a"]
	if a == nil || a.Coming != 2 || a.Party.Mystic != 2 || len(a.Interest) != 1 {
		t.Errorf("trainer record lost: %+v", a)
	}
	if !r2.Trainers["b"].DupeReporter {
		t.Error("dupe-vote flag lost")
	}
	if g2.Posts["m1"] == nil || g2.Posts["m1"].Pokemon != "pikachu" {
		t.Error("timed post lost")
	}
	if g2.Settings.ReportChannels["report-ch"] != "north" || len(g2.Listings["north"]) != 2 {
		t.Error("settings or listing ids lost")
	}
}

func TestSnapshotBackupFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	b := testBot(t)
	b.Guilds["g1"] = testGuild()
	if err := b.Save(path); err != nil {
		t.Fatal(err)
	}
	// a second save rotates the first snapshot to .bak
	if err := b.Save(path); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{corrupt"), 0644); err != nil {
		t.Fatal(err)
	}

	b2 := testBot(t)
	if err := b2.Load(path); err != nil {
		t.Fatalf("backup fallback failed: %v", err)
	}
	if _, ok := b2.Guilds["g1"]; !ok {
		t.Error("guild missing after backup load")
	}
}

func TestLoadFixesNilMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	raw := `{"guilds":{"g1":{"settings":{},"raids":{"ch1":{"egglevel":"5","active":true}}}}}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}
	b := testBot(t)
	if err := b.Load(path); err != nil {
		t.Fatal(err)
	}
	g := b.Guilds["g1"]
	if g.Posts == nil || g.Listings == nil || g.Settings.ReportChannels == nil {
		t.Error("nil maps not fixed up")
	}
	r := g.Raids["ch1"]
	if r.Trainers == nil {
		t.Error("nil trainer map not fixed up")
	}
	if r.ChannelID != "ch1" {
		t.Errorf("channel id not backfilled from the map key, got %q", r.ChannelID)
	}
}
