package raid

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const subUsage = "Usage: `!sub add <raid|research|wild> <target> [gym...]`, " +
	"`!sub remove <kind> <target>`, `!sub list`."

// !sub manages DM notification subscriptions. Targets are a boss name for
// raids, a reward for research, a pokemon for wilds. Raid subs may be
// restricted to named gyms.
func (b *Bot) subCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	args := splitArgs(rest)
	if len(args) == 0 {
		b.sendError(m.ChannelID, subUsage)
		return
	}

	switch strings.ToLower(args[0]) {
	case "add":
		if len(args) < 3 {
			b.sendError(m.ChannelID, subUsage)
			return
		}
		kind := strings.ToLower(args[1])
		target := normBoss(args[2])
		var specific []uint
		for _, name := range args[3:] {
			gym, ok := b.resolveGym(m, name)
			if !ok {
				return
			}
			specific = append(specific, gym.ID)
		}
		if err := b.deps.Subs.Add(m.Author.ID, kind, target, specific); err != nil {
			b.sendError(m.ChannelID, err.Error())
			return
		}
		b.sendOK(m.ChannelID, fmt.Sprintf(
			"You'll get a DM when **%s** is reported (%s).", titleCase(target), kind))

	case "remove", "rm":
		if len(args) < 3 {
			b.sendError(m.ChannelID, subUsage)
			return
		}
		if err := b.deps.Subs.Remove(m.Author.ID, strings.ToLower(args[1]), normBoss(args[2])); err != nil {
			b.sendError(m.ChannelID, err.Error())
			return
		}
		b.sendOK(m.ChannelID, "Subscription removed.")

	case "list", "ls":
		list, err := b.deps.Subs.List(m.Author.ID)
		if err != nil {
			b.sendError(m.ChannelID, "Could not load your subscriptions.")
			return
		}
		if len(list) == 0 {
			b.sendNotice(m.ChannelID, "You have no subscriptions. "+subUsage)
			return
		}
		var lines []string
		for _, sub := range list {
			line := fmt.Sprintf("%s: **%s**", sub.Kind, titleCase(sub.Target))
			if ids := sub.SpecificGyms(); len(ids) > 0 {
				line += " at " + strings.Join(b.gymNames(ids), ", ")
			}
			lines = append(lines, line)
		}
		b.sendNotice(m.ChannelID, strings.Join(lines, "\n"))

	default:
		b.sendError(m.ChannelID, subUsage)
	}
}

func (b *Bot) gymNames(ids []uint) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if gym, err := b.deps.Gyms.GymByID(id); err == nil {
			names = append(names, gym.Name)
		} else {
			names = append(names, fmt.Sprintf("gym #%d", id))
		}
	}
	return names
}
