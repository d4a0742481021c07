package raid

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	if m.GuildID == "" {
		return
	}
	if !strings.HasPrefix(m.Content, commandLeader) {
		return
	}
	splitMsg := strings.SplitN(m.Content[len(commandLeader):], " ", 2)
	if len(splitMsg) == 0 || splitMsg[0] == "" {
		return
	}
	rest := ""
	if len(splitMsg) == 2 {
		rest = strings.TrimSpace(splitMsg[1])
	}

	switch strings.ToLower(splitMsg[0]) {
	case "raid":
		b.raidCommand(s, m, rest)
	case "exraid":
		b.exraidCommand(s, m, rest)
	case "interested", "maybe":
		b.rsvpCommand(s, m, StatusMaybe, rest)
	case "coming", "omw":
		b.rsvpCommand(s, m, StatusComing, rest)
	case "here":
		b.rsvpCommand(s, m, StatusHere, rest)
	case "cancel":
		b.cancelCommand(s, m)
	case "starting":
		b.startingCommand(s, m, rest)
	case "backout":
		b.backoutCommand(s, m)
	case "duplicate":
		b.duplicateCommand(s, m)
	case "timerset":
		b.timersetCommand(s, m, rest)
	case "timer":
		b.timerCommand(s, m)
	case "wild":
		b.wildCommand(s, m, rest)
	case "research":
		b.researchCommand(s, m, rest)
	case "lure":
		b.lureCommand(s, m, rest)
	case "invasion":
		b.invasionCommand(s, m, rest)
	case "counters":
		b.countersCommand(s, m, rest)
	case "scan":
		b.scanCommand(s, m)
	case "sub":
		b.subCommand(s, m, rest)
	case "gym":
		b.gymCommand(s, m, rest)
	case "stop":
		b.stopCommand(s, m, rest)
	case "info", "whereis":
		b.infoCommand(s, m, rest)
	case "list":
		b.listCommand(s, m, rest)
	case "configure":
		b.configureCommand(s, m, rest)
	case "save":
		b.saveCommand(s, m)
	case "help":
		b.helpCommand(s, m)
	}
}

func (b *Bot) messageReactionAdd(s *discordgo.Session, m *discordgo.MessageReactionAdd) {
	if m.UserID == s.State.User.ID {
		return
	}
	b.mut.Lock()
	am, ok := b.activeMessages[m.MessageID]
	b.mut.Unlock()
	if ok {
		am.OnReactionAdd(b, s, m)
	}
}

func (b *Bot) messageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	b.mut.Lock()
	am, ok := b.activeMessages[m.ID]
	b.mut.Unlock()
	if ok {
		am.OnMessageDelete(b, s, m)
		b.removeActiveMessage(m.ID)
		return
	}

	// deleting a timed post's message retires the post
	b.mut.Lock()
	defer b.mut.Unlock()
	if g, ok := b.Guilds[m.GuildID]; ok {
		if _, ok := g.Posts[m.ID]; ok {
			delete(g.Posts, m.ID)
			b.sched.Cancel(KindPost, m.GuildID, m.ID)
			b.markDirty()
		}
	}
}

func (b *Bot) removeActiveMessage(messageID string) {
	b.mut.Lock()
	delete(b.activeMessages, messageID)
	b.mut.Unlock()
}

// canManage reports whether the user may use moderator shortcuts (immediate
// duplicate escalation, gym admin).
func (b *Bot) canManage(userID, channelID string) bool {
	perms, err := b.dg.UserChannelPermissions(userID, channelID)
	if err != nil {
		b.log.Debug("permission lookup failed", "user", userID, "err", err)
		return false
	}
	return perms&discordgo.PermissionManageChannels != 0
}

// userChannel resolves (and caches) a trainer's DM channel.
func (b *Bot) userChannel(userID string) (string, error) {
	b.dmMut.Lock()
	chID, ok := b.dmCache[userID]
	b.dmMut.Unlock()
	if ok {
		return chID, nil
	}
	ch, err := b.dg.UserChannelCreate(userID)
	if err != nil {
		return "", err
	}
	b.dmMut.Lock()
	b.dmCache[userID] = ch.ID
	b.dmMut.Unlock()
	return ch.ID, nil
}

// splitArgs tokenizes a command tail, honoring double-quoted spans so gym
// names like "Town Hall" survive as one token.
func splitArgs(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, c := range s {
		switch {
		case c == '"':
			if inQuote {
				out = append(out, cur.String())
				cur.Reset()
				inQuote = false
			} else {
				flush()
				inQuote = true
			}
		case c == ' ' || c == '\t':
			if inQuote {
				cur.WriteRune(c)
			} else {
				flush()
			}
		default:
			cur.WriteRune(c)
		}
	}
	flush()
	return out
}

func (b *Bot) helpCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	help := "Report: `!raid <level|boss> <gym> [minutes]`, `!exraid <gym>`, " +
		"`!wild <pokemon> <where>`, `!research <stop> <quest> <reward>`, " +
		"`!lure <kind> <stop>`, `!invasion <stop>`\n" +
		"In a raid channel: `!interested/!coming/!here [count] [m.. v.. i..]`, " +
		"`!cancel`, `!starting [team]`, `!backout`, `!raid <boss>` (hatch), " +
		"`!timerset <minutes|at 4:00>`, `!timer`, `!duplicate`, `!counters`\n" +
		"Anywhere: `!info <gym>`, `!list raids`, `!sub add raid dragonite`, `!scan` (with screenshot)\n" +
		"Gym names are free-form text, fuzzy matched. Use !info to check I have the right one."
	b.sendNotice(m.ChannelID, help)
}
