package raid

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// DiscordMaxMessage is the platform's message length cap.
const DiscordMaxMessage = 2000

// listingCategory is one titled block of a listing message. Categories are
// atomic with respect to message splitting: a message either carries a
// category (or continuation chunk) in full or not at all.
type listingCategory struct {
	Header string
	Lines  []string
}

func (c listingCategory) render() string {
	return c.Header + "\n" + strings.Join(c.Lines, "\n")
}

// renderListing packs categories into message bodies no longer than max.
// A category too large for one message is emitted as continuation chunks,
// each a complete message of its own.
func renderListing(cats []listingCategory, max int) []string {
	var messages []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			messages = append(messages, cur.String())
			cur.Reset()
		}
	}
	appendBlock := func(block string) {
		need := len(block)
		if cur.Len() > 0 {
			need += 2 // separator
		}
		if cur.Len()+need > max {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(block)
	}

	for _, cat := range cats {
		if len(cat.Lines) == 0 {
			continue
		}
		block := cat.render()
		if len(block) <= max {
			appendBlock(block)
			continue
		}
		// oversized category: split at line boundaries into full chunks
		header := cat.Header
		chunk := listingCategory{Header: header}
		size := len(header)
		for _, line := range cat.Lines {
			if size+1+len(line) > max && len(chunk.Lines) > 0 {
				appendBlock(chunk.render())
				header = cat.Header + " (cont.)"
				chunk = listingCategory{Header: header}
				size = len(header)
			}
			chunk.Lines = append(chunk.Lines, line)
			size += 1 + len(line)
		}
		if len(chunk.Lines) > 0 {
			appendBlock(chunk.render())
		}
	}
	flush()
	if len(messages) == 0 {
		messages = []string{"Nothing is currently active. Report away!"}
	}
	return messages
}

// buildListing aggregates the live records for one region. An empty region
// matches everything.
func (g *GuildState) buildListing(region string) []listingCategory {
	var eggs, raids, exraids []string
	for _, r := range sortedRaids(g) {
		if !r.Active {
			continue
		}
		if region != "" && !inRegions(r.Regions, region) {
			continue
		}
		line := NewRaidView(r).ListingLine() + fmt.Sprintf(" — <#%s>", r.ChannelID)
		switch {
		case r.Type == TypeExRaid || r.EggLevel == "EX":
			exraids = append(exraids, line)
		case r.Type == TypeEgg:
			eggs = append(eggs, line)
		default:
			raids = append(raids, line)
		}
	}

	postLines := make(map[PostKind][]string)
	for _, p := range sortedPosts(g) {
		if region != "" && p.Region != "" && p.Region != region {
			continue
		}
		postLines[p.Kind] = append(postLines[p.Kind], p.ListingLine())
	}

	cats := []listingCategory{
		{Header: "**Raid Eggs**", Lines: eggs},
		{Header: "**Active Raids**", Lines: raids},
		{Header: "**EX Raids**", Lines: exraids},
		{Header: "**Wild Spawns**", Lines: postLines[PostWild]},
		{Header: "**Field Research**", Lines: postLines[PostResearch]},
		{Header: "**Lures**", Lines: postLines[PostLure]},
		{Header: "**Team Rocket Invasions**", Lines: postLines[PostInvasion]},
	}
	var out []listingCategory
	for _, c := range cats {
		if len(c.Lines) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func sortedRaids(g *GuildState) []*RaidChannel {
	out := make([]*RaidChannel, 0, len(g.Raids))
	for _, r := range g.Raids {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpireTime.Before(out[j].ExpireTime)
	})
	return out
}

func sortedPosts(g *GuildState) []*TimedPost {
	out := make([]*TimedPost, 0, len(g.Posts))
	for _, p := range g.Posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Expires.Before(out[j].Expires)
	})
	return out
}

func inRegions(regions []string, region string) bool {
	for _, r := range regions {
		if r == region {
			return true
		}
	}
	return false
}

type listingUpdate struct {
	region    string
	channelID string
	bodies    []string
	prev      []string
}

// refreshGuildListings regenerates every configured listing channel for a
// guild. Must be called without the state lock held: rendering happens
// under the lock, Discord I/O outside it.
func (b *Bot) refreshGuildListings(guildID string) {
	b.mut.Lock()
	g, ok := b.Guilds[guildID]
	if !ok {
		b.mut.Unlock()
		return
	}
	var updates []listingUpdate
	for region, chID := range g.Settings.ListingChannels {
		updates = append(updates, listingUpdate{
			region:    region,
			channelID: chID,
			bodies:    renderListing(g.buildListing(region), DiscordMaxMessage),
			prev:      g.Listings[region],
		})
	}
	b.mut.Unlock()

	for _, u := range updates {
		newIDs := b.applyListing(u)
		b.mut.Lock()
		if g, ok := b.Guilds[guildID]; ok {
			g.Listings[u.region] = newIDs
			b.markDirty()
		}
		b.mut.Unlock()
	}
}

// listCommand prints an on-demand listing in the current channel. With no
// argument it covers the channel's report region; `!list all` ignores
// regions.
func (b *Bot) listCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	b.mut.Lock()
	g := b.guild(m.GuildID)
	region := g.Settings.ReportChannels[m.ChannelID]
	if strings.EqualFold(rest, "all") {
		region = ""
	}
	bodies := renderListing(g.buildListing(region), DiscordMaxMessage)
	b.mut.Unlock()

	for _, body := range bodies {
		if _, err := s.ChannelMessageSend(m.ChannelID, body); err != nil {
			b.log.Debug("list send failed", "err", err)
			return
		}
	}
}

// applyListing edits listing messages in place when the message count
// matches the previous posting, otherwise deletes and re-posts.
func (b *Bot) applyListing(u listingUpdate) []string {
	if len(u.prev) == len(u.bodies) {
		ok := true
		for i, body := range u.bodies {
			if _, err := b.dg.ChannelMessageEdit(u.channelID, u.prev[i], body); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return u.prev
		}
	}

	for _, id := range u.prev {
		if err := b.dg.ChannelMessageDelete(u.channelID, id); err != nil {
			b.log.Debug("old listing message delete failed", "channel", u.channelID, "err", err)
		}
	}
	var ids []string
	for _, body := range u.bodies {
		msg, err := b.dg.ChannelMessageSend(u.channelID, body)
		if err != nil {
			b.log.Warn("listing message send failed", "channel", u.channelID, "err", err)
			continue
		}
		ids = append(ids, msg.ID)
	}
	return ids
}
