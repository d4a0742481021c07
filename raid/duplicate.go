package raid

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// DupeOutcome is the result of recording one duplicate vote.
type DupeOutcome int

const (
	DupeAlreadyVoted DupeOutcome = iota
	DupeCounted
	DupePromptReady
)

// RecordDuplicate counts a !duplicate call. Each trainer counts once per
// channel for its whole lifetime; a moderator escalates straight to the
// confirmation prompt.
func (r *RaidChannel) RecordDuplicate(trainerID string, canManage bool) DupeOutcome {
	if canManage {
		return DupePromptReady
	}
	ts := r.trainer(trainerID)
	if ts.DupeReporter {
		return DupeAlreadyVoted
	}
	ts.DupeReporter = true
	r.DupeCount++
	if r.DupeCount >= DupeThreshold {
		return DupePromptReady
	}
	return DupeCounted
}

// CancelDuplicate resets the count after a failed confirmation — to 2, not
// 0, so one more distinct vote re-opens the prompt. Reporter flags stay
// set: the same trainers cannot vote again.
func (r *RaidChannel) CancelDuplicate() {
	r.DupeCount = DupeThreshold - 1
}

func (b *Bot) duplicateCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.mut.Lock()
	r := b.raidByChannel(m.GuildID, m.ChannelID)
	if r == nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "`!duplicate` only works inside a raid channel.")
		return
	}
	if !r.Active {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "This raid has already expired.")
		return
	}
	outcome := r.RecordDuplicate(m.Author.ID, b.canManage(m.Author.ID, m.ChannelID))
	count := r.DupeCount
	b.markDirty()
	b.mut.Unlock()

	switch outcome {
	case DupeAlreadyVoted:
		b.sendError(m.ChannelID, "You already reported this channel as a duplicate.")
	case DupeCounted:
		b.sendNotice(m.ChannelID, fmt.Sprintf(
			"Duplicate report noted (%d of %d needed).", count, DupeThreshold))
	case DupePromptReady:
		b.openDupePrompt(s, m.GuildID, m.ChannelID)
	}
}

// DupePrompt is the ✅/❌ confirmation message opened at three votes.
type DupePrompt struct {
	GuildID   string
	RaidChID  string
	MessageID string
}

func (b *Bot) openDupePrompt(s *discordgo.Session, guildID, chID string) {
	msg, err := s.ChannelMessageSendEmbed(chID, noticeEmbed(
		"This channel has been reported as a duplicate. React ✅ to confirm and "+
			"remove it, ❌ to keep it."))
	if err != nil {
		b.log.Warn("could not post duplicate prompt", "err", err)
		return
	}
	s.MessageReactionAdd(chID, msg.ID, "✅")
	s.MessageReactionAdd(chID, msg.ID, "❌")

	prompt := &DupePrompt{GuildID: guildID, RaidChID: chID, MessageID: msg.ID}
	b.mut.Lock()
	b.activeMessages[msg.ID] = prompt
	b.mut.Unlock()
	b.sched.Schedule(KindDupePrompt, guildID, msg.ID, time.Now().Add(DupeVoteTimeout))
}

func (p *DupePrompt) OnReactionAdd(b *Bot, s *discordgo.Session, m *discordgo.MessageReactionAdd) {
	switch m.Emoji.Name {
	case "✅":
		b.mut.Lock()
		r := b.raidByChannel(p.GuildID, p.RaidChID)
		if r == nil {
			b.mut.Unlock()
			return
		}
		r.DupeConfirmed = true
		expired := r.Expire()
		b.sched.Cancel(KindHatch, p.GuildID, p.RaidChID)
		b.sched.Cancel(KindExpire, p.GuildID, p.RaidChID)
		b.sched.Schedule(KindArchive, p.GuildID, p.RaidChID, time.Now().Add(ArchiveGrace))
		b.sched.Cancel(KindDupePrompt, p.GuildID, p.MessageID)
		delete(b.activeMessages, p.MessageID)
		b.markDirty()
		v := NewRaidView(r)
		b.mut.Unlock()

		if expired {
			b.updateRaidEmbed(v)
			b.sendNotice(p.RaidChID, "Confirmed as a duplicate — this channel will be removed shortly.")
			b.log.Info("duplicate confirmed", "guild", p.GuildID, "channel", p.RaidChID)
			b.refreshGuildListings(p.GuildID)
		}
	case "❌":
		b.mut.Lock()
		r := b.raidByChannel(p.GuildID, p.RaidChID)
		if r != nil {
			r.CancelDuplicate()
		}
		b.sched.Cancel(KindDupePrompt, p.GuildID, p.MessageID)
		delete(b.activeMessages, p.MessageID)
		b.markDirty()
		b.mut.Unlock()

		b.sendNotice(p.RaidChID, "Duplicate report dismissed.")
		b.log.Info("duplicate cancelled", "guild", p.GuildID, "channel", p.RaidChID)
	}
}

func (p *DupePrompt) OnMessageDelete(b *Bot, s *discordgo.Session, m *discordgo.MessageDelete) {
	b.mut.Lock()
	if r := b.raidByChannel(p.GuildID, p.RaidChID); r != nil {
		r.CancelDuplicate()
	}
	b.sched.Cancel(KindDupePrompt, p.GuildID, p.MessageID)
	b.mut.Unlock()
}

// onDupeTimeout treats an unanswered prompt as a cancel.
func (b *Bot) onDupeTimeout(ev Event) {
	b.mut.Lock()
	p, ok := b.activeMessages[ev.ID].(*DupePrompt)
	if !ok {
		b.mut.Unlock()
		return
	}
	delete(b.activeMessages, ev.ID)
	if r := b.raidByChannel(p.GuildID, p.RaidChID); r != nil {
		r.CancelDuplicate()
		b.markDirty()
	}
	b.mut.Unlock()

	b.sendNotice(p.RaidChID, "Duplicate confirmation timed out — keeping the channel.")
	b.log.Info("duplicate vote timed out", "guild", p.GuildID, "channel", p.RaidChID)
}
