package raid

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// StartLobby moves "here" trainers into the lobby sub-state. With a team
// filter only trainers fielding at least one member of that team move;
// everyone else stays "here". Returns how many trainers (by head-count)
// entered.
func (r *RaidChannel) StartLobby(team string, now time.Time) (int, error) {
	if !r.Active {
		return 0, ErrRaidOver
	}
	if r.Type == TypeEgg {
		return 0, ErrNotEgg
	}
	moved := 0
	for _, ts := range r.Trainers {
		if ts.Here == 0 {
			continue
		}
		if team != "" && ts.Party.Of(team) == 0 {
			continue
		}
		n := ts.Here
		if err := ts.SetStatus(StatusLobby, n, ts.Party); err != nil {
			continue
		}
		moved += n
	}
	if moved == 0 {
		return 0, ErrLobbyEmpty
	}
	r.Lobby = &Lobby{Exp: now.Add(LobbyDuration), Team: team, Count: moved}
	return moved, nil
}

// ResolveLobby completes the countdown. The expiry timestamp doubles as the
// staleness check: a lobby superseded by a newer !starting has a different
// Exp and the old timer no-ops. Lobbied trainers are removed from the
// record — they are in the raid now.
func (r *RaidChannel) ResolveLobby(exp time.Time) (entered []string, ok bool) {
	if r.Lobby == nil || !r.Lobby.Exp.Equal(exp) {
		return nil, false
	}
	for id, ts := range r.Trainers {
		if ts.Lobby > 0 {
			entered = append(entered, id)
			delete(r.Trainers, id)
		}
	}
	r.Lobby = nil
	return entered, true
}

// BackoutLobby aborts the countdown, returning lobbied trainers to "here".
func (r *RaidChannel) BackoutLobby() (returned []string) {
	for id, ts := range r.Trainers {
		if ts.Lobby > 0 {
			if err := ts.SetStatus(StatusHere, ts.Lobby, ts.Party); err == nil {
				returned = append(returned, id)
			}
		}
	}
	r.Lobby = nil
	return returned
}

// lobbiedTrainers counts distinct trainers currently in the lobby.
func (r *RaidChannel) lobbiedTrainers() int {
	n := 0
	for _, ts := range r.Trainers {
		if ts.Lobby > 0 {
			n++
		}
	}
	return n
}

func (b *Bot) startingCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	team := normBoss(rest)
	switch team {
	case "", TeamMystic, TeamValor, TeamInstinct:
	default:
		b.sendError(m.ChannelID, "Use `!starting` or `!starting <mystic|valor|instinct>`.")
		return
	}

	b.mut.Lock()
	r := b.raidByChannel(m.GuildID, m.ChannelID)
	if r == nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "`!starting` only works inside a raid channel.")
		return
	}
	moved, err := r.StartLobby(team, time.Now())
	if err != nil {
		b.mut.Unlock()
		switch err {
		case ErrNotEgg:
			b.sendError(m.ChannelID, "The egg hasn't hatched yet.")
		case ErrLobbyEmpty:
			b.sendError(m.ChannelID, "Nobody is RSVP'd as here — nothing to start.")
		default:
			b.sendError(m.ChannelID, err.Error())
		}
		return
	}
	exp := r.Lobby.Exp
	b.sched.Schedule(KindLobby, m.GuildID, m.ChannelID, exp)
	b.markDirty()
	v := NewRaidView(r)
	b.mut.Unlock()

	who := "Everyone here"
	if team != "" {
		who = "Team " + titleCase(team)
	}
	b.updateRaidEmbed(v)
	b.sendNotice(m.ChannelID, fmt.Sprintf(
		"%s is entering the lobby — **%d** trainers! The group starts at %s. `!backout` to abort.",
		who, moved, exp.Format("3:04:05 PM")))
	b.log.Info("lobby started", "guild", m.GuildID, "channel", m.ChannelID,
		"team", team, "count", moved)
}

// onLobbyResolve fires when the countdown elapses; the event's due time is
// the lobby expiry used for the staleness check.
func (b *Bot) onLobbyResolve(ev Event) {
	b.mut.Lock()
	var r *RaidChannel
	if g, ok := b.Guilds[ev.GuildID]; ok {
		r = g.Raids[ev.ID]
	}
	if r == nil {
		b.mut.Unlock()
		return
	}
	entered, ok := r.ResolveLobby(ev.Due)
	if !ok {
		b.mut.Unlock()
		return
	}
	b.markDirty()
	v := NewRaidView(r)
	b.mut.Unlock()

	b.updateRaidEmbed(v)
	b.sendNotice(v.ChannelID, fmt.Sprintf(
		"The lobby has closed — %d trainers are in the raid. Good luck!", len(entered)))
	b.log.Info("lobby resolved", "guild", ev.GuildID, "channel", ev.ID, "entered", len(entered))
}

// BackoutPrompt is the reaction-confirm message for aborting a lobby; a
// majority of lobbied trainers must agree.
type BackoutPrompt struct {
	GuildID   string
	RaidChID  string
	MessageID string
	Needed    int
	votes     map[string]bool
}

func (b *Bot) backoutCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.mut.Lock()
	r := b.raidByChannel(m.GuildID, m.ChannelID)
	if r == nil || r.Lobby == nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "There is no lobby to back out of.")
		return
	}
	trainers := r.lobbiedTrainers()
	b.mut.Unlock()

	needed := trainers/2 + 1
	msg, err := s.ChannelMessageSendEmbed(m.ChannelID, noticeEmbed(fmt.Sprintf(
		"<@%s> wants to back out of the lobby. %d of %d lobbied trainers must react 👍 within %d seconds.",
		m.Author.ID, needed, trainers, int(BackoutTimeout.Seconds()))))
	if err != nil {
		b.log.Warn("could not post backout prompt", "err", err)
		return
	}
	s.MessageReactionAdd(m.ChannelID, msg.ID, "👍")

	prompt := &BackoutPrompt{
		GuildID:   m.GuildID,
		RaidChID:  m.ChannelID,
		MessageID: msg.ID,
		Needed:    needed,
		votes:     make(map[string]bool),
	}
	b.mut.Lock()
	b.activeMessages[msg.ID] = prompt
	b.mut.Unlock()
	b.sched.Schedule(KindBackout, m.GuildID, msg.ID, time.Now().Add(BackoutTimeout))
}

func (p *BackoutPrompt) OnReactionAdd(b *Bot, s *discordgo.Session, m *discordgo.MessageReactionAdd) {
	if m.Emoji.Name != "👍" {
		return
	}
	b.mut.Lock()
	r := b.raidByChannel(p.GuildID, p.RaidChID)
	if r == nil || r.Lobby == nil {
		b.mut.Unlock()
		return
	}
	ts, ok := r.Trainers[m.UserID]
	if !ok || ts.Lobby == 0 {
		b.mut.Unlock()
		return // only lobbied trainers get a vote
	}
	p.votes[m.UserID] = true
	if len(p.votes) < p.Needed {
		b.mut.Unlock()
		return
	}

	returned := r.BackoutLobby()
	b.sched.Cancel(KindLobby, p.GuildID, p.RaidChID)
	b.sched.Cancel(KindBackout, p.GuildID, p.MessageID)
	delete(b.activeMessages, p.MessageID)
	b.markDirty()
	v := NewRaidView(r)
	b.mut.Unlock()

	b.updateRaidEmbed(v)
	b.sendNotice(p.RaidChID, fmt.Sprintf(
		"Backed out! %d trainers have returned to **here**.", len(returned)))
	b.log.Info("lobby backed out", "guild", p.GuildID, "channel", p.RaidChID)
}

func (p *BackoutPrompt) OnMessageDelete(b *Bot, s *discordgo.Session, m *discordgo.MessageDelete) {
	b.sched.Cancel(KindBackout, p.GuildID, p.MessageID)
}

// onBackoutTimeout expires an unanswered backout prompt; the lobby keeps
// counting down.
func (b *Bot) onBackoutTimeout(ev Event) {
	b.mut.Lock()
	p, ok := b.activeMessages[ev.ID].(*BackoutPrompt)
	if ok {
		delete(b.activeMessages, ev.ID)
	}
	b.mut.Unlock()
	if ok {
		b.sendNotice(p.RaidChID, "Backout not confirmed — the lobby countdown continues.")
	}
}
