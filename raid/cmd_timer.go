package raid

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// timersetCommand corrects a raid's timer: the hatch time for an egg, the
// expiry for an active raid. Issued during the archive grace window it
// revives the raid.
func (b *Bot) timersetCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	b.mut.Lock()
	r := b.raidByChannel(m.GuildID, m.ChannelID)
	if r == nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "`!timerset` only works inside a raid channel.")
		return
	}

	when, err := parseTimeSpec(splitArgs(rest), time.Now())
	if err != nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "I couldn't understand that time. Try `!timerset 30` or `!timerset at 4:00`.")
		return
	}
	if when.Before(time.Now()) {
		b.mut.Unlock()
		b.sendError(m.ChannelID, fmt.Sprintf("%s is in the past.", when.Format("3:04 PM")))
		return
	}

	revived := false
	if !r.Active {
		if err := r.Revive(); err != nil {
			b.mut.Unlock()
			b.sendError(m.ChannelID, err.Error())
			return
		}
		revived = true
		b.sched.Cancel(KindArchive, m.GuildID, m.ChannelID)
	}

	r.SetTimer(when)
	if r.Type == TypeEgg {
		b.sched.Schedule(KindHatch, m.GuildID, m.ChannelID, r.HatchTime)
	} else {
		b.sched.Schedule(KindExpire, m.GuildID, m.ChannelID, r.ExpireTime)
	}
	b.markDirty()
	v := NewRaidView(r)
	b.mut.Unlock()

	b.updateRaidEmbed(v)
	verb := "expires"
	if v.Unhatched {
		verb = "hatches"
	}
	msg := fmt.Sprintf("Timer updated — this raid %s at **%s**.", verb, when.Format("3:04 PM"))
	if revived {
		msg = "Raid revived! " + msg
	}
	b.sendOK(m.ChannelID, msg)
	b.log.Info("timer set", "guild", m.GuildID, "channel", m.ChannelID,
		"when", when, "revived", revived)
	b.refreshGuildListings(m.GuildID)
}

// timerCommand reports the remaining time.
func (b *Bot) timerCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.mut.Lock()
	r := b.raidByChannel(m.GuildID, m.ChannelID)
	if r == nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "`!timer` only works inside a raid channel.")
		return
	}
	v := NewRaidView(r)
	b.mut.Unlock()

	if !v.Active {
		b.sendNotice(m.ChannelID, "This raid has expired.")
		return
	}
	now := time.Now()
	if v.Unhatched {
		b.sendNotice(m.ChannelID, fmt.Sprintf("This egg hatches at **%s** (%s from now).",
			v.HatchTime.Format("3:04 PM"), fmtRemaining(v.HatchTime.Sub(now))))
		return
	}
	b.sendNotice(m.ChannelID, fmt.Sprintf("This raid expires at **%s** (%s from now).",
		v.ExpireTime.Format("3:04 PM"), fmtRemaining(v.ExpireTime.Sub(now))))
}

func fmtRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
