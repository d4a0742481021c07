package raid

import (
	"fmt"

	"raidkeeper/subs"
)

// notifyRaid DMs every trainer subscribed to the raid's boss. It works from
// a view snapshot, so no state lock is needed (or wanted) while the DMs go
// out.
func (b *Bot) notifyRaid(v RaidView) {
	if v.Boss == "" {
		return
	}
	matches, err := b.deps.Subs.Match(subs.KindRaid, v.Boss, v.GymID)
	if err != nil {
		b.log.Warn("raid subscription lookup failed", "boss", v.Boss, "err", err)
		return
	}
	text := fmt.Sprintf("A **%s** raid was reported at %s, expiring %s. Join in <#%s>!",
		titleCase(v.Boss), v.GymName, v.ExpireTime.Format("3:04 PM"), v.ChannelID)
	b.dmTrainers(matches, text)
}

// notifyPost DMs trainers subscribed to a research reward or wild spawn.
func (b *Bot) notifyPost(kind, target string, p *TimedPost) {
	matches, err := b.deps.Subs.Match(kind, target, 0)
	if err != nil {
		b.log.Warn("subscription lookup failed", "kind", kind, "target", target, "err", err)
		return
	}
	b.dmTrainers(matches, p.describe()+fmt.Sprintf(" (reported in <#%s>)", p.ChannelID))
}

func (b *Bot) dmTrainers(matches []subs.Subscription, text string) {
	sent := make(map[string]bool)
	for _, sub := range matches {
		if sent[sub.TrainerID] {
			continue
		}
		sent[sub.TrainerID] = true
		chID, err := b.userChannel(sub.TrainerID)
		if err != nil {
			b.log.Debug("DM channel create failed", "trainer", sub.TrainerID, "err", err)
			continue
		}
		if _, err := b.dg.ChannelMessageSendEmbed(chID, noticeEmbed(text)); err != nil {
			b.log.Debug("DM send failed", "trainer", sub.TrainerID, "err", err)
		}
	}
}
