package raid

import (
	"testing"
	"time"
)

// The apply* transitions run under the state lock with no Discord traffic;
// the bots built here have no session at all, so any I/O attempt in a
// locked phase would panic the test.

func TestApplyHatch(t *testing.T) {
	b := testBot(t)
	g := testGuild()
	b.Guilds["g1"] = g
	r := testEgg("5")
	g.Raids[r.ChannelID] = r

	res, ok := b.applyHatch(Event{Kind: KindHatch, GuildID: "g1", ID: r.ChannelID})
	if !ok {
		t.Fatal("hatch did not apply")
	}
	if res.boss != "" {
		t.Errorf("multi-boss rotation auto-assigned %q", res.boss)
	}
	if res.view.Unhatched {
		t.Error("view still shows an egg after hatching")
	}
	if res.view.ChannelID != r.ChannelID {
		t.Errorf("view channel = %q", res.view.ChannelID)
	}
	if !b.sched.Pending(KindExpire, "g1", r.ChannelID) {
		t.Error("expire timer was not armed")
	}
	if !b.dirty {
		t.Error("transition must mark the snapshot dirty")
	}

	// a second delivery of the same event is stale and must no-op
	if _, ok := b.applyHatch(Event{Kind: KindHatch, GuildID: "g1", ID: r.ChannelID}); ok {
		t.Error("hatch applied twice")
	}
}

func TestApplyExpire(t *testing.T) {
	b := testBot(t)
	g := testGuild()
	b.Guilds["g1"] = g
	r := hatchedRaid(t)
	g.Raids[r.ChannelID] = r

	v, ok := b.applyExpire(Event{Kind: KindExpire, GuildID: "g1", ID: r.ChannelID})
	if !ok {
		t.Fatal("expire did not apply")
	}
	if v.Active || r.Active {
		t.Error("record should be inactive after expiry")
	}
	if !b.sched.Pending(KindArchive, "g1", r.ChannelID) {
		t.Error("archive timer was not armed")
	}
	if _, ok := b.applyExpire(Event{Kind: KindExpire, GuildID: "g1", ID: r.ChannelID}); ok {
		t.Error("expire applied twice")
	}
}

func TestApplyArchive(t *testing.T) {
	b := testBot(t)
	g := testGuild()
	g.Settings.ArchiveExpired = true
	g.Settings.ArchiveCategory = "cat1"
	b.Guilds["g1"] = g
	r := testEgg("5")
	r.Expire()
	g.Raids[r.ChannelID] = r
	b.sched.Schedule(KindLobby, "g1", r.ChannelID, testBase.Add(time.Minute))

	plan, ok := b.applyArchive(Event{Kind: KindArchive, GuildID: "g1", ID: r.ChannelID})
	if !ok {
		t.Fatal("archive did not apply")
	}
	if !plan.archive || plan.category != "cat1" || plan.chID != r.ChannelID {
		t.Errorf("plan = %+v", plan)
	}
	if plan.archiveName != "archived-"+r.ChannelName() {
		t.Errorf("archive name = %q", plan.archiveName)
	}
	if _, live := g.Raids[r.ChannelID]; live {
		t.Error("record should be destroyed")
	}
	if b.sched.Pending(KindLobby, "g1", r.ChannelID) {
		t.Error("entity timers should be disarmed with the record")
	}
}

func TestApplyArchiveSkipsRevivedRaid(t *testing.T) {
	b := testBot(t)
	g := testGuild()
	b.Guilds["g1"] = g
	r := testEgg("5")
	g.Raids[r.ChannelID] = r // still active: revived during the grace window

	if _, ok := b.applyArchive(Event{Kind: KindArchive, GuildID: "g1", ID: r.ChannelID}); ok {
		t.Error("revived raid must not be archived")
	}
	if _, live := g.Raids[r.ChannelID]; !live {
		t.Error("revived record must survive")
	}
}

func TestApplyArchiveDeletesWithoutCategory(t *testing.T) {
	b := testBot(t)
	g := testGuild()
	b.Guilds["g1"] = g
	r := testEgg("5")
	r.Expire()
	g.Raids[r.ChannelID] = r

	plan, ok := b.applyArchive(Event{Kind: KindArchive, GuildID: "g1", ID: r.ChannelID})
	if !ok {
		t.Fatal("archive did not apply")
	}
	if plan.archive {
		t.Error("no archive category configured, channel should be deleted")
	}
}
