package raid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// !counters [boss [tier]] asks pokebattler for the best attackers. Inside a
// raid channel with a known boss no arguments are needed.
func (b *Bot) countersCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	args := splitArgs(rest)

	boss := ""
	tier := "5"
	if len(args) > 0 {
		boss = normBoss(args[0])
	}
	if len(args) > 1 {
		tier = args[1]
	}

	b.mut.Lock()
	if r := b.raidByChannel(m.GuildID, m.ChannelID); r != nil {
		if boss == "" {
			boss = r.Pokemon
		}
		if r.EggLevel != "" && r.EggLevel != "EX" && len(args) < 2 {
			tier = r.EggLevel
		}
	}
	b.mut.Unlock()

	if boss == "" {
		b.sendError(m.ChannelID, "Usage: `!counters <boss> [tier]` (or just `!counters` in a hatched raid channel).")
		return
	}
	if !validEggLevel(tier) || tier == "EX" {
		tier = "5"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	counters, err := b.deps.Counters.Counters(ctx, boss, tier)
	if err != nil {
		b.log.Warn("counters lookup failed", "boss", boss, "err", err)
		b.sendError(m.ChannelID, fmt.Sprintf("Couldn't fetch counters for %s right now.", titleCase(boss)))
		return
	}

	var lines []string
	for i, c := range counters {
		lines = append(lines, fmt.Sprintf("%d. **%s** (%s / %s) — est. %.1f",
			i+1, titleCase(c.Pokemon), c.FastMove, c.ChargeMove, c.Estimator))
	}
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Top counters for %s (tier %s)", titleCase(boss), tier),
		Description: strings.Join(lines, "\n"),
		Color:       colorNotice,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Simulated by pokebattler.com at attacker level 30"},
	}
	if _, err := b.dg.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		b.log.Debug("counters send failed", "err", err)
	}
}
