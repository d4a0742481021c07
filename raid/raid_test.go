package raid

import (
	"testing"
	"time"
)

var testBase = time.Date(2019, 3, 14, 13, 0, 0, 0, time.UTC)

func testGuild() *GuildState {
	return &GuildState{
		Settings: GuildSettings{
			ReportChannels:  make(map[string]string),
			ListingChannels: make(map[string]string),
		},
		Raids:    make(map[string]*RaidChannel),
		Posts:    make(map[string]*TimedPost),
		Listings: make(map[string][]string),
	}
}

func testEgg(level string) *RaidChannel {
	return &RaidChannel{
		ChannelID:  "ch1",
		GuildID:    "g1",
		Type:       TypeEgg,
		EggLevel:   level,
		GymName:    "Town Hall",
		HatchTime:  testBase.Add(45 * time.Minute),
		ExpireTime: testBase.Add(45*time.Minute + RaidDuration),
		Active:     true,
		Trainers:   make(map[string]*TrainerStatus),
	}
}

func TestAssignBoss(t *testing.T) {
	g := testGuild()
	r := testEgg("5")
	wants := r.trainer("wants")
	wants.Interest = []string{"dragonite"}
	wants.SetStatus(StatusComing, 2, TeamCounts{})
	doesnt := r.trainer("doesnt")
	doesnt.Interest = []string{"mewtwo"}
	doesnt.SetStatus(StatusComing, 1, TeamCounts{})

	cleared, err := r.AssignBoss(g, "Dragonite", testBase)
	if err != nil {
		t.Fatal(err)
	}
	if r.Type != TypeRaid || r.Pokemon != "dragonite" {
		t.Errorf("type=%s pokemon=%s", r.Type, r.Pokemon)
	}
	if !r.HatchTime.Equal(testBase) || !r.ExpireTime.Equal(testBase.Add(RaidDuration)) {
		t.Errorf("hatch=%v expire=%v", r.HatchTime, r.ExpireTime)
	}
	if len(cleared) != 1 || cleared[0] != "doesnt" {
		t.Errorf("cleared = %v, want [doesnt]", cleared)
	}
	if doesnt.Count() != 0 {
		t.Error("mismatched-interest RSVP was not cleared")
	}
	if wants.Count() != 2 {
		t.Error("matching-interest RSVP must survive the hatch")
	}
}

func TestAssignBossRejectsOffRotation(t *testing.T) {
	g := testGuild()
	r := testEgg("5")
	hatch, expire := r.HatchTime, r.ExpireTime

	_, err := r.AssignBoss(g, "pidgey", testBase)
	if err != ErrNotBoss {
		t.Fatalf("expected ErrNotBoss, got %v", err)
	}
	// the record must be untouched after a rejected assignment
	if r.Type != TypeEgg || r.Pokemon != "" {
		t.Errorf("record changed: type=%s pokemon=%q", r.Type, r.Pokemon)
	}
	if !r.HatchTime.Equal(hatch) || !r.ExpireTime.Equal(expire) {
		t.Error("timers changed on a rejected assignment")
	}
}

func TestAssignBossTwice(t *testing.T) {
	g := testGuild()
	r := testEgg("5")
	if _, err := r.AssignBoss(g, "dragonite", testBase); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AssignBoss(g, "mewtwo", testBase); err == nil {
		t.Error("second assignment should fail")
	}
}

func TestAssignBossGuildOverride(t *testing.T) {
	g := testGuild()
	g.Settings.Bosses = map[string][]string{"5": {"kyogre"}}
	r := testEgg("5")
	if _, err := r.AssignBoss(g, "dragonite", testBase); err != ErrNotBoss {
		t.Errorf("default rotation should not apply when overridden, got %v", err)
	}
	if _, err := r.AssignBoss(g, "kyogre", testBase); err != nil {
		t.Error(err)
	}
}

func TestHatchEggSingleBossAutoAssigns(t *testing.T) {
	g := testGuild()
	r := testEgg("EX")
	boss, _ := r.HatchEgg(g, testBase)
	if boss != "deoxys" || r.Pokemon != "deoxys" || r.Type != TypeExRaid {
		t.Errorf("boss=%q pokemon=%q type=%s", boss, r.Pokemon, r.Type)
	}
}

func TestHatchEggMultiBossWaits(t *testing.T) {
	g := testGuild()
	r := testEgg("5")
	boss, _ := r.HatchEgg(g, testBase)
	if boss != "" || r.Pokemon != "" {
		t.Errorf("multi-boss rotation should not auto-assign, got %q", boss)
	}
	if r.Type != TypeRaid {
		t.Error("hatched egg should leave the egg state even without a boss")
	}
	if !r.ExpireTime.Equal(testBase.Add(RaidDuration)) {
		t.Errorf("expire = %v", r.ExpireTime)
	}
	// HatchEgg on a non-egg is a no-op
	if b2, _ := r.HatchEgg(g, testBase.Add(time.Minute)); b2 != "" {
		t.Error("second hatch should no-op")
	}
}

func TestExpireAndRevive(t *testing.T) {
	g := testGuild()
	r := testEgg("5")
	r.AssignBoss(g, "dragonite", testBase)

	if !r.Expire() {
		t.Fatal("first expire should report a transition")
	}
	if r.Expire() {
		t.Error("expire must be idempotent")
	}
	if err := r.Revive(); err != nil {
		t.Fatal(err)
	}
	if !r.Active {
		t.Error("revive did not reactivate")
	}

	r.Expire()
	r.DupeConfirmed = true
	if err := r.Revive(); err == nil {
		t.Error("a confirmed duplicate must not be revivable")
	}
}

func TestSetTimer(t *testing.T) {
	r := testEgg("5")
	when := testBase.Add(20 * time.Minute)
	r.SetTimer(when)
	if !r.HatchTime.Equal(when) || !r.ExpireTime.Equal(when.Add(RaidDuration)) {
		t.Errorf("egg timer: hatch=%v expire=%v", r.HatchTime, r.ExpireTime)
	}
	if !r.ManualTimer {
		t.Error("manual flag not set")
	}

	r.Type = TypeRaid
	r.SetTimer(when.Add(time.Hour))
	if !r.ExpireTime.Equal(when.Add(time.Hour)) {
		t.Errorf("raid timer: expire=%v", r.ExpireTime)
	}
}

func TestChannelName(t *testing.T) {
	r := testEgg("5")
	if got := r.ChannelName(); got != "5-town-hall" {
		t.Errorf("egg channel name = %q", got)
	}
	r.Pokemon = "dragonite"
	if got := r.ChannelName(); got != "dragonite-town-hall" {
		t.Errorf("hatched channel name = %q", got)
	}
	r.Type = TypeExRaid
	if got := r.ChannelName(); got != "ex-dragonite-town-hall" {
		t.Errorf("ex channel name = %q", got)
	}

	r.GymName = "St. Mary's / Annex!"
	r.Type = TypeRaid
	if got := r.ChannelName(); got != "dragonite-st-mary-s-annex" {
		t.Errorf("sanitized name = %q", got)
	}
}

func TestExistingRaid(t *testing.T) {
	g := testGuild()
	r := testEgg("5")
	r.GymID = 7
	g.Raids[r.ChannelID] = r

	if g.existingRaid(7) == nil {
		t.Error("active raid at the gym should be found")
	}
	if g.existingRaid(8) != nil {
		t.Error("no raid at gym 8")
	}
	r.Expire()
	if g.existingRaid(7) != nil {
		t.Error("an expired raid should not block a new report")
	}
}

func TestClaimRaidRejectsSecondReport(t *testing.T) {
	g := testGuild()
	first := testEgg("5")
	first.GymID = 7
	if got := g.claimRaid(first); got != nil {
		t.Fatalf("first claim conflicted with %v", got)
	}

	// a second report for the same gym that raced past the pre-create check
	// must lose the claim and not be recorded
	second := testEgg("5")
	second.ChannelID = "ch2"
	second.GymID = 7
	if got := g.claimRaid(second); got != first {
		t.Fatalf("second claim = %v, want the first record", got)
	}
	if _, ok := g.Raids["ch2"]; ok {
		t.Error("losing claim must not be inserted")
	}

	// a different gym claims freely
	other := testEgg("5")
	other.ChannelID = "ch3"
	other.GymID = 8
	if got := g.claimRaid(other); got != nil {
		t.Errorf("claim at another gym conflicted with %v", got)
	}
}
