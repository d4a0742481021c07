package raid

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const configureUsage = "Usage: `!configure reportchannel <region>`, `!configure listings <region>`, " +
	"`!configure category <category id>`, `!configure archivecategory <category id>`, " +
	"`!configure archive on|off`, `!configure bosses <level> <boss,boss,...>`, `!configure show`"

// !configure is the moderator settings surface. Most settings bind the
// channel the command is issued in: reportchannel tags it with a region,
// listings makes it that region's listing channel.
func (b *Bot) configureCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	if !b.canManage(m.Author.ID, m.ChannelID) {
		b.sendError(m.ChannelID, "Configuration needs the Manage Channels permission.")
		return
	}
	args := splitArgs(rest)
	if len(args) == 0 {
		b.sendError(m.ChannelID, configureUsage)
		return
	}

	refresh := false
	b.mut.Lock()
	g := b.guild(m.GuildID)
	var reply string
	switch strings.ToLower(args[0]) {
	case "reportchannel":
		region := ""
		if len(args) > 1 {
			region = strings.ToLower(args[1])
		}
		g.Settings.ReportChannels[m.ChannelID] = region
		reply = fmt.Sprintf("This channel now accepts reports for region %q.", region)

	case "listings":
		region := ""
		if len(args) > 1 {
			region = strings.ToLower(args[1])
		}
		g.Settings.ListingChannels[region] = m.ChannelID
		reply = fmt.Sprintf("This channel now carries the listings for region %q.", region)
		refresh = true

	case "category":
		if len(args) < 2 {
			reply = "Give the category id new raid channels should be created under."
			break
		}
		g.Settings.RaidCategory = args[1]
		reply = "New raid channels will be created under that category."

	case "archivecategory":
		if len(args) < 2 {
			reply = "Give the category id expired raid channels should move to."
			break
		}
		g.Settings.ArchiveCategory = args[1]
		g.Settings.ArchiveExpired = true
		reply = "Expired raid channels will be archived there instead of deleted."

	case "archive":
		g.Settings.ArchiveExpired = len(args) > 1 && (args[1] == "on" || args[1] == "true")
		if g.Settings.ArchiveExpired {
			reply = "Expired raid channels will be archived."
		} else {
			reply = "Expired raid channels will be deleted."
		}

	case "bosses":
		if len(args) < 3 {
			reply = "Usage: `!configure bosses <level> <boss,boss,...>` (e.g. `!configure bosses 5 dragonite,lugia`)."
			break
		}
		level := strings.ToUpper(args[1])
		if !validEggLevel(level) {
			reply = fmt.Sprintf("%q is not an egg level (1-5 or EX).", args[1])
			break
		}
		var bosses []string
		for _, name := range strings.Split(strings.Join(args[2:], ","), ",") {
			if name = normBoss(name); name != "" {
				bosses = append(bosses, name)
			}
		}
		if g.Settings.Bosses == nil {
			g.Settings.Bosses = make(map[string][]string)
		}
		g.Settings.Bosses[level] = bosses
		reply = fmt.Sprintf("Level %s rotation set: %s", level, strings.Join(bosses, ", "))

	case "show":
		reply = describeSettings(&g.Settings)

	default:
		reply = configureUsage
	}
	b.markDirty()
	b.mut.Unlock()

	b.sendOK(m.ChannelID, reply)
	b.log.Info("configure", "guild", m.GuildID, "by", m.Author.ID, "args", rest)
	if refresh {
		b.refreshGuildListings(m.GuildID)
	}
}

func describeSettings(set *GuildSettings) string {
	var lines []string
	for chID, region := range set.ReportChannels {
		lines = append(lines, fmt.Sprintf("report channel <#%s> region %q", chID, region))
	}
	for region, chID := range set.ListingChannels {
		lines = append(lines, fmt.Sprintf("listing channel <#%s> region %q", chID, region))
	}
	if set.RaidCategory != "" {
		lines = append(lines, "raid category "+set.RaidCategory)
	}
	lines = append(lines, fmt.Sprintf("archive expired: %v", set.ArchiveExpired))
	for level, bosses := range set.Bosses {
		lines = append(lines, fmt.Sprintf("level %s bosses: %s", level, strings.Join(bosses, ", ")))
	}
	if len(lines) == 0 {
		return "Nothing configured yet. " + configureUsage
	}
	return strings.Join(lines, "\n")
}

// !save forces an immediate snapshot instead of waiting for the flush tick.
func (b *Bot) saveCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := b.Save(b.snapshotPath); err != nil {
		b.sendError(m.ChannelID, "Snapshot failed: "+err.Error())
		return
	}
	b.sendOK(m.ChannelID, "State saved.")
}
