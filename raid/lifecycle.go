package raid

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Timer-driven lifecycle transitions, delivered by the scheduler through
// handleEvent. Each transition takes the state lock only to mutate the
// record and snapshot what the announcements need; the Discord calls happen
// after the lock is released so a slow API round-trip never stalls command
// handling.

type hatchResult struct {
	view    RaidView
	name    string
	boss    string
	cleared []string
}

// applyHatch performs the egg to raid state transition under the lock and
// returns the announcement snapshot. No Discord I/O happens here.
func (b *Bot) applyHatch(ev Event) (hatchResult, bool) {
	b.mut.Lock()
	defer b.mut.Unlock()
	g, ok := b.Guilds[ev.GuildID]
	if !ok {
		return hatchResult{}, false
	}
	r, ok := g.Raids[ev.ID]
	if !ok || !r.Active || r.Type != TypeEgg {
		return hatchResult{}, false
	}

	boss, cleared := r.HatchEgg(g, time.Now())
	b.sched.Schedule(KindExpire, ev.GuildID, ev.ID, r.ExpireTime)
	b.markDirty()
	return hatchResult{
		view:    NewRaidView(r),
		name:    r.ChannelName(),
		boss:    boss,
		cleared: cleared,
	}, true
}

// onHatch fires when an egg's hatch time arrives.
func (b *Bot) onHatch(ev Event) {
	res, ok := b.applyHatch(ev)
	if !ok {
		return
	}

	if _, err := b.dg.ChannelEdit(res.view.ChannelID, &discordgo.ChannelEdit{Name: res.name}); err != nil {
		b.log.Debug("channel rename failed", "channel", res.view.ChannelID, "err", err)
	}
	b.updateRaidEmbed(res.view)
	if res.boss != "" {
		b.sendNotice(res.view.ChannelID, fmt.Sprintf(
			"The egg has hatched into a **%s** raid! It expires at %s.",
			titleCase(res.boss), res.view.ExpireTime.Format("3:04 PM")))
		b.notifyRaid(res.view)
	} else {
		b.sendNotice(res.view.ChannelID, fmt.Sprintf(
			"The level %s egg has hatched! Tell me the boss with `!raid <boss>`.", res.view.EggLevel))
	}
	for _, id := range res.cleared {
		b.sendNotice(res.view.ChannelID, fmt.Sprintf(
			"<@%s> the hatched boss is not on your interest list; please RSVP again if you still want in.", id))
	}
	b.log.Info("egg hatched", "guild", ev.GuildID, "channel", ev.ID, "boss", res.boss)
	b.refreshGuildListings(ev.GuildID)
}

// applyExpire marks the record inactive under the lock and schedules the
// archive pass. Returns the post-expiry view for the embed edit.
func (b *Bot) applyExpire(ev Event) (RaidView, bool) {
	b.mut.Lock()
	defer b.mut.Unlock()
	g, ok := b.Guilds[ev.GuildID]
	if !ok {
		return RaidView{}, false
	}
	r, ok := g.Raids[ev.ID]
	if !ok || !r.Expire() {
		return RaidView{}, false
	}
	b.sched.Schedule(KindArchive, ev.GuildID, ev.ID, time.Now().Add(ArchiveGrace))
	b.markDirty()
	return NewRaidView(r), true
}

// onExpire fires at a raid's expiry time: the record goes inactive and the
// channel lives on for the archive grace window.
func (b *Bot) onExpire(ev Event) {
	v, ok := b.applyExpire(ev)
	if !ok {
		return
	}

	b.updateRaidEmbed(v)
	b.sendNotice(v.ChannelID, fmt.Sprintf(
		"This raid has expired! The channel will be removed in %d minutes "+
			"unless the timer is corrected with `!timerset`.", int(ArchiveGrace.Minutes())))
	b.log.Info("raid expired", "guild", ev.GuildID, "channel", ev.ID, "raid", v.Title)
	b.refreshGuildListings(ev.GuildID)
}

type archivePlan struct {
	chID        string
	archiveName string
	category    string
	archive     bool
}

// applyArchive destroys the record under the lock (unless the raid was
// revived during the grace window) and reports how to dispose of the
// channel.
func (b *Bot) applyArchive(ev Event) (archivePlan, bool) {
	b.mut.Lock()
	defer b.mut.Unlock()
	g, ok := b.Guilds[ev.GuildID]
	if !ok {
		return archivePlan{}, false
	}
	r, ok := g.Raids[ev.ID]
	if !ok {
		return archivePlan{}, false
	}
	if r.Active {
		// revived by !timerset during the grace window
		return archivePlan{}, false
	}

	plan := archivePlan{
		chID:        r.ChannelID,
		archiveName: "archived-" + r.ChannelName(),
		category:    g.Settings.ArchiveCategory,
		archive:     g.Settings.ArchiveExpired && g.Settings.ArchiveCategory != "" && !r.DupeConfirmed,
	}
	delete(g.Raids, ev.ID)
	b.sched.CancelEntity(ev.GuildID, ev.ID)
	b.markDirty()
	return plan, true
}

// onArchive fires after the grace window: if nothing revived the raid, the
// channel is archived or deleted and the record destroyed.
func (b *Bot) onArchive(ev Event) {
	plan, ok := b.applyArchive(ev)
	if !ok {
		return
	}

	kept := plan.archive
	if kept {
		if _, err := b.dg.ChannelEdit(plan.chID, &discordgo.ChannelEdit{
			Name:     plan.archiveName,
			ParentID: plan.category,
		}); err != nil {
			b.log.Warn("channel archive failed, deleting instead", "channel", plan.chID, "err", err)
			kept = false
		}
	}
	if !kept {
		if _, err := b.dg.ChannelDelete(plan.chID); err != nil {
			// moderator beat us to it; the record still goes away
			b.log.Debug("channel delete failed", "channel", plan.chID, "err", err)
		}
	}

	b.log.Info("raid archived", "guild", ev.GuildID, "channel", ev.ID, "kept", kept)
	b.refreshGuildListings(ev.GuildID)
}
