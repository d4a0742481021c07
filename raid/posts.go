package raid

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"raidkeeper/gymdb"
	"raidkeeper/sightings"
	"raidkeeper/subs"
)

// PostKind distinguishes the timed non-raid report types.
type PostKind string

const (
	PostWild     PostKind = "wild"
	PostResearch PostKind = "research"
	PostLure     PostKind = "lure"
	PostInvasion PostKind = "invasion"
)

// Despawn windows. Research quests last until the daily reset.
const (
	WildDuration     = 30 * time.Minute
	LureDuration     = 30 * time.Minute
	InvasionDuration = 30 * time.Minute
)

// TimedPost is a report that lives in its source channel until it expires:
// wild spawns, field research, lures and invasions. The bot's confirmation
// message id is its key; deleting that message retires the post.
type TimedPost struct {
	MessageID string   `json:"message_id"`
	ChannelID string   `json:"channel_id"`
	GuildID   string   `json:"guild_id"`
	Kind      PostKind `json:"kind"`

	Pokemon  string `json:"pokemon,omitempty"`  // wild spawn or lure kind
	Quest    string `json:"quest,omitempty"`    // research task
	Reward   string `json:"reward,omitempty"`   // research reward
	Location string `json:"location"`           // stop name or free text
	StopID   uint   `json:"stop_id,omitempty"`  // when the location matched a stop
	Region   string `json:"region,omitempty"`

	Reporter string    `json:"reporter"`
	Expires  time.Time `json:"expires"`
}

func (p *TimedPost) ListingLine() string {
	until := p.Expires.Format("3:04 PM")
	switch p.Kind {
	case PostWild:
		return fmt.Sprintf("**%s** at %s until %s", titleCase(p.Pokemon), p.Location, until)
	case PostResearch:
		return fmt.Sprintf("**%s** for \"%s\" at %s", titleCase(p.Reward), p.Quest, p.Location)
	case PostLure:
		return fmt.Sprintf("**%s lure** at %s until %s", titleCase(p.Pokemon), p.Location, until)
	default:
		return fmt.Sprintf("**Invasion** at %s until %s", p.Location, until)
	}
}

func (p *TimedPost) describe() string {
	switch p.Kind {
	case PostWild:
		return fmt.Sprintf("Wild **%s** reported at %s! Gone around %s.",
			titleCase(p.Pokemon), p.Location, p.Expires.Format("3:04 PM"))
	case PostResearch:
		return fmt.Sprintf("Research at %s: \"%s\" rewarding **%s**. Available until the daily reset.",
			p.Location, p.Quest, titleCase(p.Reward))
	case PostLure:
		return fmt.Sprintf("A **%s lure** is running at %s until %s.",
			titleCase(p.Pokemon), p.Location, p.Expires.Format("3:04 PM"))
	default:
		return fmt.Sprintf("Team Rocket has invaded %s! There until about %s.",
			p.Location, p.Expires.Format("3:04 PM"))
	}
}

// !wild <pokemon> <where...>
func (b *Bot) wildCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	args := splitArgs(rest)
	if len(args) < 2 {
		b.sendError(m.ChannelID, "Usage: `!wild <pokemon> <where>`.")
		return
	}
	pokemon := normBoss(args[0])
	location, stopID := b.resolveLocation(strings.Join(args[1:], " "))

	p := &TimedPost{
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Kind:      PostWild,
		Pokemon:   pokemon,
		Location:  location,
		StopID:    stopID,
		Reporter:  m.Author.ID,
		Expires:   time.Now().Add(WildDuration),
	}
	if !b.publishPost(m, p) {
		return
	}
	b.deps.Sightings.Wild(&sightings.WildSighting{
		GuildID:  m.GuildID,
		Reporter: m.Author.ID,
		Pokemon:  pokemon,
		Location: location,
	})
	b.notifyPost(subs.KindWild, pokemon, p)
}

// !research <stop> <quest> <reward>
func (b *Bot) researchCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	args := splitArgs(rest)
	if len(args) < 3 {
		b.sendError(m.ChannelID, "Usage: `!research <stop> <quest> <reward>` (quote multi-word parts).")
		return
	}
	location, stopID := b.resolveLocation(args[0])
	reward := strings.ToLower(args[len(args)-1])
	quest := strings.Join(args[1:len(args)-1], " ")

	p := &TimedPost{
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Kind:      PostResearch,
		Quest:     quest,
		Reward:    reward,
		Location:  location,
		StopID:    stopID,
		Reporter:  m.Author.ID,
		Expires:   endOfDay(time.Now()),
	}
	if !b.publishPost(m, p) {
		return
	}
	b.deps.Sightings.Research(&sightings.ResearchSighting{
		GuildID:  m.GuildID,
		Reporter: m.Author.ID,
		StopID:   stopID,
		Quest:    quest,
		Reward:   reward,
	})
	b.notifyPost(subs.KindResearch, reward, p)
}

// !lure <kind> <stop...>
func (b *Bot) lureCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	args := splitArgs(rest)
	if len(args) < 2 {
		b.sendError(m.ChannelID, "Usage: `!lure <kind> <stop>` (e.g. `!lure glacial \"Town Fountain\"`).")
		return
	}
	location, stopID := b.resolveLocation(strings.Join(args[1:], " "))
	p := &TimedPost{
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Kind:      PostLure,
		Pokemon:   strings.ToLower(args[0]),
		Location:  location,
		StopID:    stopID,
		Reporter:  m.Author.ID,
		Expires:   time.Now().Add(LureDuration),
	}
	b.publishPost(m, p)
}

// !invasion <stop...>
func (b *Bot) invasionCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	if rest == "" {
		b.sendError(m.ChannelID, "Usage: `!invasion <stop>`.")
		return
	}
	location, stopID := b.resolveLocation(rest)
	p := &TimedPost{
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Kind:      PostInvasion,
		Location:  location,
		StopID:    stopID,
		Reporter:  m.Author.ID,
		Expires:   time.Now().Add(InvasionDuration),
	}
	b.publishPost(m, p)
}

// resolveLocation tries the pokestop matcher; a confident hit canonicalizes
// the name, anything else passes the text through as given.
func (b *Bot) resolveLocation(text string) (string, uint) {
	stops, scores, err := b.deps.Gyms.MatchStops(text, 2)
	if err != nil || len(stops) == 0 || !gymdb.Unique(scores) {
		return text, 0
	}
	return stops[0].Name, stops[0].ID
}

// publishPost sends the confirmation message, records the post keyed by
// that message and arms its expiry timer.
func (b *Bot) publishPost(m *discordgo.MessageCreate, p *TimedPost) bool {
	msg, err := b.dg.ChannelMessageSendEmbed(p.ChannelID, okEmbed(p.describe()))
	if err != nil {
		b.log.Warn("post message send failed", "channel", p.ChannelID, "err", err)
		return false
	}
	p.MessageID = msg.ID

	b.mut.Lock()
	g := b.guild(p.GuildID)
	p.Region = g.Settings.ReportChannels[p.ChannelID]
	g.Posts[msg.ID] = p
	b.markDirty()
	b.mut.Unlock()

	b.sched.Schedule(KindPost, p.GuildID, msg.ID, p.Expires)
	b.log.Info("timed post", "guild", p.GuildID, "kind", string(p.Kind),
		"location", p.Location, "reporter", p.Reporter)
	b.refreshGuildListings(p.GuildID)
	return true
}

// onPostExpire edits the confirmation message to an expired notice and drops
// the record. The record is removed under the lock; the message edit and
// listing refresh happen after.
func (b *Bot) onPostExpire(ev Event) {
	b.mut.Lock()
	var p *TimedPost
	if g, ok := b.Guilds[ev.GuildID]; ok {
		p = g.Posts[ev.ID]
		delete(g.Posts, ev.ID)
	}
	if p == nil {
		b.mut.Unlock()
		return
	}
	b.markDirty()
	post := *p
	b.mut.Unlock()

	expired := fmt.Sprintf("~~%s~~ *(expired)*", post.ListingLine())
	if _, err := b.dg.ChannelMessageEditEmbed(post.ChannelID, post.MessageID, noticeEmbed(expired)); err != nil {
		b.log.Debug("post expiry edit failed", "message", post.MessageID, "err", err)
	}
	b.refreshGuildListings(ev.GuildID)
}

// endOfDay is the next local midnight, when research quests reset.
func endOfDay(now time.Time) time.Time {
	y, mo, d := now.Date()
	return time.Date(y, mo, d+1, 0, 0, 0, 0, now.Location())
}
