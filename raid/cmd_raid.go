package raid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"raidkeeper/gymdb"
	"raidkeeper/sightings"
)

// raidCommand serves two forms: inside a raid channel, "!raid <boss>"
// hatches the egg; in a report channel, "!raid <level|boss> <gym> [timer]"
// creates a new raid channel.
func (b *Bot) raidCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	b.mut.Lock()
	r := b.raidByChannel(m.GuildID, m.ChannelID)
	b.mut.Unlock()
	if r != nil {
		b.hatchCommand(s, m, r, rest)
		return
	}
	b.reportCommand(s, m, rest, false)
}

func (b *Bot) exraidCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string) {
	b.reportCommand(s, m, "EX "+rest, true)
}

// hatchCommand is the egg → raid transition via "!raid <boss>".
func (b *Bot) hatchCommand(s *discordgo.Session, m *discordgo.MessageCreate, r *RaidChannel, rest string) {
	boss := normBoss(rest)
	if boss == "" {
		b.sendError(m.ChannelID, "Tell me which boss hatched: `!raid <boss>`")
		return
	}

	b.mut.Lock()
	g := b.guild(m.GuildID)
	if !r.Active {
		b.mut.Unlock()
		b.sendError(m.ChannelID, "This raid has already expired.")
		return
	}
	cleared, err := r.AssignBoss(g, boss, time.Now())
	if err != nil {
		errMsg := err.Error()
		if err == ErrNotBoss {
			errMsg = fmt.Sprintf(
				"%s is not a possible boss for a level %s egg. Possible bosses: %s",
				titleCase(boss), r.EggLevel, strings.Join(g.bossList(r.EggLevel), ", "))
		}
		b.mut.Unlock()
		b.sendError(m.ChannelID, errMsg)
		return
	}
	b.sched.Cancel(KindHatch, m.GuildID, r.ChannelID)
	b.sched.Schedule(KindExpire, m.GuildID, r.ChannelID, r.ExpireTime)
	b.markDirty()
	name := r.ChannelName()
	v := NewRaidView(r)
	b.mut.Unlock()

	if _, err := s.ChannelEdit(v.ChannelID, &discordgo.ChannelEdit{Name: name}); err != nil {
		b.log.Debug("channel rename failed", "channel", v.ChannelID, "err", err)
	}
	b.updateRaidEmbed(v)
	b.sendOK(m.ChannelID, fmt.Sprintf("The egg has hatched into a **%s** raid! It expires at %s.",
		titleCase(boss), v.ExpireTime.Format("3:04 PM")))
	for _, id := range cleared {
		b.sendNotice(m.ChannelID, fmt.Sprintf(
			"<@%s> the hatched boss is not on your interest list; please RSVP again if you still want in.", id))
	}
	b.notifyRaid(v)
	b.refreshGuildListings(m.GuildID)
}

// reportCommand creates a raid or egg channel from a report message.
func (b *Bot) reportCommand(s *discordgo.Session, m *discordgo.MessageCreate, rest string, exraid bool) {
	args := splitArgs(rest)
	if len(args) < 2 {
		b.sendError(m.ChannelID, "Use `!raid <level|boss> <gym name> [minutes]`")
		return
	}

	what := args[0]
	gymQuery, timeSpec := splitReportTail(args[1:])
	if gymQuery == "" {
		b.sendError(m.ChannelID, "I need a gym name. Use `!raid <level|boss> <gym name> [minutes]`")
		return
	}

	// level => unhatched egg; boss name => already hatched
	var eggLevel, boss string
	if exraid {
		eggLevel = "EX"
	} else if validEggLevel(strings.ToUpper(what)) {
		eggLevel = strings.ToUpper(what)
	} else {
		var ok bool
		boss = normBoss(what)
		b.mut.Lock()
		eggLevel, ok = b.guild(m.GuildID).levelForBoss(boss)
		b.mut.Unlock()
		if !ok {
			b.sendError(m.ChannelID, fmt.Sprintf(
				"I don't recognize %q as an egg level or a current raid boss.", what))
			return
		}
	}

	gym, ok := b.resolveGym(m, gymQuery)
	if !ok {
		return
	}

	now := time.Now()
	r := &RaidChannel{
		GuildID:    m.GuildID,
		EggLevel:   eggLevel,
		Pokemon:    boss,
		GymID:      gym.ID,
		GymName:    gym.Name,
		MapURL:     gym.MapURL(),
		ExGym:      gym.ExEligible,
		Active:     true,
		Trainers:   make(map[string]*TrainerStatus),
		Reporter:   m.Author.ID,
		SourceChID: m.ChannelID,
	}
	if gym.Region != "" {
		r.Regions = []string{gym.Region}
	}

	// timer
	manual := len(timeSpec) > 0
	if boss == "" {
		r.Type = TypeEgg
		hatch := now.Add(EggDuration)
		if manual {
			var err error
			hatch, err = parseTimeSpec(timeSpec, now)
			if err != nil {
				b.sendError(m.ChannelID, "I couldn't understand that timer. Try `45` or `at 4:00`.")
				return
			}
		}
		if exraid {
			r.Type = TypeEgg
			if !manual {
				hatch = now.Add(ExRaidDuration)
			}
		}
		r.HatchTime = hatch
		r.ExpireTime = hatch.Add(RaidDuration)
	} else {
		r.Type = TypeRaid
		expire := now.Add(RaidDuration)
		if manual {
			var err error
			expire, err = parseTimeSpec(timeSpec, now)
			if err != nil {
				b.sendError(m.ChannelID, "I couldn't understand that timer. Try `30` or `at 4:00`.")
				return
			}
		}
		r.HatchTime = now
		r.ExpireTime = expire
	}
	r.ManualTimer = manual

	b.mut.Lock()
	g := b.guild(m.GuildID)
	if existing := g.existingRaid(gym.ID); existing != nil {
		b.mut.Unlock()
		b.sendError(m.ChannelID, fmt.Sprintf(
			"There is already an active raid at %s: <#%s>", gym.Name, existing.ChannelID))
		return
	}
	category := g.Settings.RaidCategory
	b.mut.Unlock()

	ch, err := s.GuildChannelCreateComplex(m.GuildID, discordgo.GuildChannelCreateData{
		Name:     r.ChannelName(),
		Type:     discordgo.ChannelTypeGuildText,
		Topic:    r.String(),
		ParentID: category,
	})
	if err != nil {
		b.log.Error("raid channel create failed", "guild", m.GuildID, "err", err)
		b.sendError(m.ChannelID, "I couldn't create the raid channel (missing permissions?).")
		return
	}
	r.ChannelID = ch.ID

	msg, err := s.ChannelMessageSendEmbed(ch.ID, NewRaidView(r).Embed())
	if err == nil {
		r.ReportMsgID = msg.ID
		s.ChannelMessagePin(ch.ID, msg.ID)
	} else {
		b.log.Warn("could not post raid embed", "channel", ch.ID, "err", err)
	}

	// the lock was dropped for the channel create, so another report for the
	// same gym may have landed in the meantime; claim the gym again before
	// keeping the channel
	b.mut.Lock()
	if existing := g.claimRaid(r); existing != nil {
		existingCh := existing.ChannelID
		b.mut.Unlock()
		if _, err := s.ChannelDelete(ch.ID); err != nil {
			b.log.Warn("could not remove duplicate raid channel", "channel", ch.ID, "err", err)
		}
		b.sendError(m.ChannelID, fmt.Sprintf(
			"There is already an active raid at %s: <#%s>", gym.Name, existingCh))
		return
	}
	if r.Type == TypeEgg {
		b.sched.Schedule(KindHatch, m.GuildID, ch.ID, r.HatchTime)
	} else {
		b.sched.Schedule(KindExpire, m.GuildID, ch.ID, r.ExpireTime)
	}
	b.markDirty()
	v := NewRaidView(r)
	b.mut.Unlock()

	b.deps.Sightings.Raid(&sightings.RaidSighting{
		GuildID:    m.GuildID,
		ChannelID:  ch.ID,
		Reporter:   m.Author.ID,
		GymID:      gym.ID,
		EggLevel:   v.EggLevel,
		Pokemon:    v.Boss,
		HatchTime:  v.HatchTime,
		ExpireTime: v.ExpireTime,
	})

	b.sendOK(m.ChannelID, fmt.Sprintf("%s reported by <@%s>! Coordinate in <#%s>.",
		titleCase(firstNonEmpty(v.Boss, "Level "+v.EggLevel+" egg")), m.Author.ID, ch.ID))
	b.log.Info("raid reported", "guild", m.GuildID, "gym", gym.Name,
		"level", v.EggLevel, "boss", v.Boss, "channel", ch.ID)

	b.notifyRaid(v)
	b.refreshGuildListings(m.GuildID)
}

// resolveGym maps a free-form gym query to exactly one gym, replying with
// the error or disambiguation list itself when it cannot.
func (b *Bot) resolveGym(m *discordgo.MessageCreate, query string) (*gymdb.Gym, bool) {
	gyms, scores, err := b.deps.Gyms.MatchGyms(query, 5)
	if err != nil {
		b.log.Error("gym lookup failed", "query", query, "err", err)
		b.sendError(m.ChannelID, "Gym lookup failed, try again shortly.")
		return nil, false
	}
	if len(gyms) == 0 {
		b.sendError(m.ChannelID, fmt.Sprintf("I couldn't find a gym matching %q.", query))
		return nil, false
	}
	if !gymdb.Unique(scores) {
		var lines []string
		for i := range gyms {
			lines = append(lines, fmt.Sprintf("  `%s` — %s", gyms[i].Name, gyms[i].MapURL()))
		}
		b.sendError(m.ChannelID, fmt.Sprintf("Which gym did you mean?\n%s", strings.Join(lines, "\n")))
		return nil, false
	}
	return &gyms[0], true
}

// splitReportTail separates the gym-name tokens from a trailing timer spec:
// a marker word (ends/hatches/at/in) starts the spec, or a bare final
// number is taken as minutes.
func splitReportTail(args []string) (gymQuery string, timeSpec []string) {
	for i := len(args) - 1; i >= 0; i-- {
		switch strings.ToLower(args[i]) {
		case "ends", "end", "hatches", "hatch", "at", "in":
			spec := args[i:]
			if low := strings.ToLower(spec[0]); low == "ends" || low == "end" ||
				low == "hatches" || low == "hatch" {
				spec = spec[1:]
			}
			return strings.Join(args[:i], " "), spec
		}
	}
	if len(args) >= 2 {
		if _, err := strconv.Atoi(args[len(args)-1]); err == nil {
			return strings.Join(args[:len(args)-1], " "), args[len(args)-1:]
		}
	}
	return strings.Join(args, " "), nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
