package raid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// rsvpCommand handles !interested/!coming/!here inside a raid channel.
// Arguments: an optional head-count, team tokens like m2 v1 i1, and (for
// eggs) boss names to register interest in.
func (b *Bot) rsvpCommand(s *discordgo.Session, m *discordgo.MessageCreate, status, rest string) {
	b.mut.Lock()
	r := b.raidByChannel(m.GuildID, m.ChannelID)
	if r == nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "RSVP commands only work inside a raid channel.")
		return
	}
	if !r.Active {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "This raid has already expired.")
		return
	}
	g := b.guild(m.GuildID)

	count, party, interest, err := parseRSVPArgs(g, r.EggLevel, rest)
	if err != nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, err.Error())
		return
	}

	ts := r.trainer(m.Author.ID)
	if len(interest) > 0 {
		ts.Interest = interest
	}
	if err := ts.SetStatus(status, count, party); err != nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, err.Error())
		return
	}
	b.markDirty()
	v := NewRaidView(r)
	b.mut.Unlock()

	b.updateRaidEmbed(v)
	b.sendOK(m.ChannelID, fmt.Sprintf("<@%s> is **%s** with a party of %d.",
		m.Author.ID, status, count))
	b.refreshGuildListings(m.GuildID)
}

// cancelCommand clears the caller's RSVP.
func (b *Bot) cancelCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.mut.Lock()
	r := b.raidByChannel(m.GuildID, m.ChannelID)
	if r == nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "There is nothing to cancel outside a raid channel.")
		return
	}
	ts, ok := r.Trainers[m.Author.ID]
	if !ok || ts.Count() == 0 {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "You have no RSVP here to cancel.")
		return
	}
	ts.ClearStatus()
	b.markDirty()
	v := NewRaidView(r)
	b.mut.Unlock()

	b.updateRaidEmbed(v)
	b.sendOK(m.ChannelID, fmt.Sprintf("<@%s> has cancelled their RSVP.", m.Author.ID))
	b.refreshGuildListings(m.GuildID)
}

// parseRSVPArgs reads "!coming 3 m2 v1" style arguments: a bare integer is
// the total head-count, mN/vN/iN (or team names) set the party breakdown,
// and anything matching the egg level's boss rotation is an interest pick.
func parseRSVPArgs(g *GuildState, eggLevel, rest string) (int, TeamCounts, []string, error) {
	count := 0
	var party TeamCounts
	var interest []string

	for _, tok := range strings.Fields(strings.ToLower(rest)) {
		if n, err := strconv.Atoi(tok); err == nil {
			if n <= 0 || n > 20 {
				return 0, party, nil, fmt.Errorf("that head-count (%d) doesn't look right", n)
			}
			count = n
			continue
		}
		if team, n, ok := parseTeamToken(tok); ok {
			switch team {
			case TeamMystic:
				party.Mystic += n
			case TeamValor:
				party.Valor += n
			case TeamInstinct:
				party.Instinct += n
			}
			continue
		}
		if g.isBoss(eggLevel, tok) {
			interest = append(interest, normBoss(tok))
			continue
		}
		return 0, party, nil, fmt.Errorf("I didn't understand %q — use a count, team tokens like `m2 v1`, or boss names", tok)
	}

	if count == 0 {
		count = party.Total()
	}
	if count == 0 {
		count = 1
	}
	if party.Total() > count {
		return 0, party, nil, ErrPartyMismatch
	}
	// unreported party members count as team-unknown
	party.Unknown = count - party.Mystic - party.Valor - party.Instinct
	return count, party, interest, nil
}

// parseTeamToken reads "m2", "valor3", "i" (implying 1).
func parseTeamToken(tok string) (string, int, bool) {
	var team string
	var numPart string
	switch {
	case strings.HasPrefix(tok, "mystic"):
		team, numPart = TeamMystic, tok[len("mystic"):]
	case strings.HasPrefix(tok, "valor"):
		team, numPart = TeamValor, tok[len("valor"):]
	case strings.HasPrefix(tok, "instinct"):
		team, numPart = TeamInstinct, tok[len("instinct"):]
	case strings.HasPrefix(tok, "m"):
		team, numPart = TeamMystic, tok[1:]
	case strings.HasPrefix(tok, "v"):
		team, numPart = TeamValor, tok[1:]
	case strings.HasPrefix(tok, "i"):
		team, numPart = TeamInstinct, tok[1:]
	default:
		return "", 0, false
	}
	if numPart == "" {
		return team, 1, true
	}
	n, err := strconv.Atoi(numPart)
	if err != nil || n <= 0 {
		return "", 0, false
	}
	return team, n, true
}
