package raid

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"raidkeeper/gymdb"
	"raidkeeper/util"
)

const gymUsage = "Usage: `!gym new <lat,lon> <name>`, `!gym edit <gym> name <new name>`, " +
	"`!gym edit <gym> location <lat,lon>`, `!gym edit <gym> ex on|off`, " +
	"`!gym edit <gym> note <text>`, `!gym remove <gym>`"

// !gym administers the gym directory. Mutations are moderator-only.
func (b *Bot) gymCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	if !b.canManage(m.Author.ID, m.ChannelID) {
		b.sendError(m.ChannelID, "Gym administration needs the Manage Channels permission.")
		return
	}
	tokens := strings.Fields(rest)
	if len(tokens) == 0 {
		b.sendError(m.ChannelID, gymUsage)
		return
	}

	switch tokens[0] {
	case "new":
		if len(tokens) < 3 {
			b.sendError(m.ChannelID, "Need a lat/lon and a gym name, e.g. `!gym new 37.64,-121.89 Town Hall`.")
			return
		}
		lat, lon, n, err := util.ParseLatLong(tokens[1:])
		if err != nil {
			b.sendError(m.ChannelID, "Can't parse that lat/lon; example: `37.649,-121.896`.")
			return
		}
		name := strings.Join(tokens[1+n:], " ")
		region := b.regionFor(m.GuildID, m.ChannelID)
		gym, err := b.deps.Gyms.AddGym(name, lat, lon, region)
		if err != nil {
			b.sendError(m.ChannelID, err.Error())
			return
		}
		b.sendGymCard(m.ChannelID, gym, "New gym added!")

	case "remove":
		gym, ok := b.resolveGym(m, strings.Join(tokens[1:], " "))
		if !ok {
			return
		}
		if err := b.deps.Gyms.RemoveGym(gym); err != nil {
			b.sendError(m.ChannelID, err.Error())
			return
		}
		b.sendOK(m.ChannelID, "Gym removed: "+gym.Name)

	case "edit":
		b.gymEditCommand(m, tokens[1:])

	default:
		b.sendError(m.ChannelID, gymUsage)
	}
}

// gymEditCommand scans backwards for the edit keyword so gym names with
// spaces don't need quoting.
func (b *Bot) gymEditCommand(m *discordgo.MessageCreate, tokens []string) {
	var query, value []string
	field := ""
	for i := len(tokens) - 1; i >= 0; i-- {
		switch tokens[i] {
		case "name", "location", "ex", "note":
			field = tokens[i]
			query = tokens[:i]
			value = tokens[i+1:]
		}
		if field != "" {
			break
		}
	}
	if field == "" || len(query) == 0 || len(value) == 0 {
		b.sendError(m.ChannelID, gymUsage)
		return
	}
	gym, ok := b.resolveGym(m, strings.Join(query, " "))
	if !ok {
		return
	}

	var err error
	switch field {
	case "name":
		oldName := gym.Name
		if err = b.deps.Gyms.RenameGym(gym, strings.Join(value, " ")); err == nil {
			b.sendOK(m.ChannelID, fmt.Sprintf("Renamed `%s` to `%s`.", oldName, gym.Name))
		}
	case "location":
		var lat, lon float64
		lat, lon, _, err = util.ParseLatLong(value)
		if err == nil {
			err = b.deps.Gyms.MoveGym(gym, lat, lon)
		}
		if err == nil {
			b.sendOK(m.ChannelID, fmt.Sprintf("Moved %s to %s", gym.Name, gym.MapURL()))
		}
	case "ex":
		ex := value[0] == "on" || value[0] == "true" || value[0] == "yes"
		if err = b.deps.Gyms.SetGymEx(gym, ex); err == nil {
			b.sendOK(m.ChannelID, fmt.Sprintf("%s EX eligibility set to %v.", gym.Name, ex))
		}
	case "note":
		if err = b.deps.Gyms.SetGymNote(gym, strings.Join(value, " ")); err == nil {
			b.sendOK(m.ChannelID, "Note updated for "+gym.Name)
		}
	}
	if err != nil {
		b.sendError(m.ChannelID, err.Error())
	}
}

// !stop administers the pokestop directory, for research and lure reports.
func (b *Bot) stopCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	if !b.canManage(m.Author.ID, m.ChannelID) {
		b.sendError(m.ChannelID, "Pokestop administration needs the Manage Channels permission.")
		return
	}
	tokens := strings.Fields(rest)
	if len(tokens) == 0 {
		b.sendError(m.ChannelID, "Usage: `!stop new <lat,lon> <name>`, `!stop remove <name>`.")
		return
	}

	switch tokens[0] {
	case "new":
		if len(tokens) < 3 {
			b.sendError(m.ChannelID, "Need a lat/lon and a stop name.")
			return
		}
		lat, lon, n, err := util.ParseLatLong(tokens[1:])
		if err != nil {
			b.sendError(m.ChannelID, "Can't parse that lat/lon; example: `37.649,-121.896`.")
			return
		}
		name := strings.Join(tokens[1+n:], " ")
		stop, err := b.deps.Gyms.AddStop(name, lat, lon, b.regionFor(m.GuildID, m.ChannelID))
		if err != nil {
			b.sendError(m.ChannelID, err.Error())
			return
		}
		b.sendOK(m.ChannelID, fmt.Sprintf("New pokestop added: %s %s", stop.Name, stop.MapURL()))

	case "remove":
		query := strings.Join(tokens[1:], " ")
		stops, scores, err := b.deps.Gyms.MatchStops(query, 5)
		if err != nil || len(stops) == 0 {
			b.sendError(m.ChannelID, fmt.Sprintf("I couldn't find a pokestop matching %q.", query))
			return
		}
		if !gymdb.Unique(scores) {
			var lines []string
			for i := range stops {
				lines = append(lines, fmt.Sprintf("  `%s` — %s", stops[i].Name, stops[i].MapURL()))
			}
			b.sendError(m.ChannelID, "Which stop did you mean?\n"+strings.Join(lines, "\n"))
			return
		}
		if err := b.deps.Gyms.RemoveStop(&stops[0]); err != nil {
			b.sendError(m.ChannelID, err.Error())
			return
		}
		b.sendOK(m.ChannelID, "Pokestop removed: "+stops[0].Name)

	default:
		b.sendError(m.ChannelID, "Usage: `!stop new <lat,lon> <name>`, `!stop remove <name>`.")
	}
}

// !info looks up a gym and shows where it is. Ambiguous queries list the
// candidates with their match quality.
func (b *Bot) infoCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	if rest == "" {
		b.sendError(m.ChannelID, "Usage: `!info <gym name>`.")
		return
	}
	gyms, scores, err := b.deps.Gyms.MatchGyms(rest, 5)
	if err != nil || len(gyms) == 0 {
		b.sendError(m.ChannelID, fmt.Sprintf("I couldn't find a gym matching %q.", rest))
		return
	}
	if gymdb.Unique(scores) {
		b.sendGymCard(m.ChannelID, &gyms[0], "")
		return
	}
	lines := []string{fmt.Sprintf("`%s` could be:", rest)}
	for i := range gyms {
		lines = append(lines, fmt.Sprintf("  %.0f%% `%s` — <%s>",
			scores[i]*100, gyms[i].Name, gyms[i].MapURL()))
	}
	b.sendNotice(m.ChannelID, strings.Join(lines, "\n"))
}

// sendGymCard posts the gym embed with its map link, EX badge and note.
func (b *Bot) sendGymCard(channelID string, gym *gymdb.Gym, headline string) {
	title := gym.Name
	if gym.ExEligible {
		title += " (EX eligible)"
	}
	desc := headline
	if gym.Region != "" {
		desc += fmt.Sprintf("\nRegion: %s", gym.Region)
	}
	if gym.Note != "" {
		desc += "\n" + gym.Note
	}
	embed := &discordgo.MessageEmbed{
		Title:       title,
		URL:         gym.MapURL(),
		Description: strings.TrimSpace(desc),
		Color:       colorNotice,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%f,%f", gym.Latitude, gym.Longitude)},
	}
	if _, err := b.dg.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.log.Debug("gym card send failed", "err", err)
	}
}

// regionFor maps a channel to its configured report region, empty when the
// channel is not a report channel.
func (b *Bot) regionFor(guildID, channelID string) string {
	b.mut.Lock()
	defer b.mut.Unlock()
	if g, ok := b.Guilds[guildID]; ok {
		return g.Settings.ReportChannels[channelID]
	}
	return ""
}
