package raid

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/inconshreveable/log15"

	"raidkeeper/gymdb"
	"raidkeeper/pokebattler"
	"raidkeeper/scanner"
	"raidkeeper/sightings"
	"raidkeeper/subs"
)

const commandLeader = "!" // all commands to the bot begin with this character

// ActiveMessage is a bot-posted message that reacts to user events: the
// duplicate-vote and backout confirmation prompts.
type ActiveMessage interface {
	OnReactionAdd(b *Bot, s *discordgo.Session, m *discordgo.MessageReactionAdd)
	OnMessageDelete(b *Bot, s *discordgo.Session, m *discordgo.MessageDelete)
}

// Deps are the collaborators the bot needs, passed in explicitly.
type Deps struct {
	Gyms      *gymdb.Store
	Subs      *subs.Store
	Sightings *sightings.Log
	Counters  *pokebattler.Client
	Scanner   *scanner.Client
}

// Bot owns all per-guild raid state. Every mutation path — command
// handlers, timer events, the snapshotter — takes the one state mutex, so
// concurrent RSVPs serialize instead of racing.
type Bot struct {
	dg    *discordgo.Session
	deps  Deps
	sched *Scheduler
	log   log15.Logger

	snapshotPath string

	// giant global lock
	mut sync.Mutex

	Guilds map[string]*GuildState `json:"guilds"`

	// dmCache has its own mutex so DM sends can happen while the state
	// lock is held.
	dmMut   sync.Mutex
	dmCache map[string]string // userid -> DM channel id

	activeMessages map[string]ActiveMessage
	dirty          bool
}

// GuildState is everything the bot tracks for one guild, snapshot-persisted
// as a unit.
type GuildState struct {
	Settings GuildSettings           `json:"settings"`
	Raids    map[string]*RaidChannel `json:"raids"`    // channel id -> record
	Posts    map[string]*TimedPost   `json:"posts"`    // message id -> timed post
	Listings map[string][]string     `json:"listings"` // listing key -> message ids
}

// GuildSettings is the per-guild configuration mutated by !configure.
type GuildSettings struct {
	// ReportChannels maps a channel id to the region reports from that
	// channel belong to.
	ReportChannels map[string]string `json:"report_channels"`
	// ListingChannels maps a region to the channel carrying its listings.
	ListingChannels map[string]string `json:"listing_channels"`
	// RaidCategory parents newly created raid channels.
	RaidCategory string `json:"raid_category"`
	// ArchiveCategory receives archived raid channels when ArchiveExpired
	// is set; otherwise expired channels are deleted.
	ArchiveCategory string `json:"archive_category"`
	ArchiveExpired  bool   `json:"archive_expired"`
	// Bosses overrides the default egg rotation per level.
	Bosses map[string][]string `json:"bosses,omitempty"`
}

func NewBot(dg *discordgo.Session, deps Deps, snapshotPath string) *Bot {
	b := &Bot{
		dg:             dg,
		deps:           deps,
		log:            log15.New("module", "raid"),
		snapshotPath:   snapshotPath,
		Guilds:         make(map[string]*GuildState),
		dmCache:        make(map[string]string),
		activeMessages: make(map[string]ActiveMessage),
	}
	b.sched = NewScheduler(b.handleEvent)

	if err := b.Load(snapshotPath); err != nil {
		b.log.Warn("starting with empty state", "err", err)
	}
	b.rearmTimers()

	dg.AddHandler(b.readyHandler)
	dg.AddHandler(b.messageCreate)
	dg.AddHandler(b.messageDelete)
	dg.AddHandler(b.messageReactionAdd)

	go b.sched.Run()
	return b
}

func (b *Bot) Stop() {
	b.sched.Stop()
}

// guild returns the state for a guild, creating it on first touch.
func (b *Bot) guild(guildID string) *GuildState {
	g, ok := b.Guilds[guildID]
	if !ok {
		g = &GuildState{
			Settings: GuildSettings{
				ReportChannels:  make(map[string]string),
				ListingChannels: make(map[string]string),
			},
			Raids:    make(map[string]*RaidChannel),
			Posts:    make(map[string]*TimedPost),
			Listings: make(map[string][]string),
		}
		b.Guilds[guildID] = g
	}
	return g
}

// existingRaid enforces the one-active-raid-per-gym invariant by linear
// scan, the way reports are checked before a channel is created.
func (g *GuildState) existingRaid(gymID uint) *RaidChannel {
	for _, r := range g.Raids {
		if r.GymID == gymID && r.Active && !r.DupeConfirmed {
			return r
		}
	}
	return nil
}

// claimRaid inserts a new raid record unless an active raid already holds
// the gym, in which case the conflicting record is returned and nothing is
// inserted. Report handling drops the lock while the Discord channel is
// created, so the gym has to be claimed again at insert time.
func (g *GuildState) claimRaid(r *RaidChannel) *RaidChannel {
	if existing := g.existingRaid(r.GymID); existing != nil {
		return existing
	}
	g.Raids[r.ChannelID] = r
	return nil
}

// raidByChannel finds the record a command was issued inside of, nil when
// the channel is not a raid channel.
func (b *Bot) raidByChannel(guildID, channelID string) *RaidChannel {
	g, ok := b.Guilds[guildID]
	if !ok {
		return nil
	}
	return g.Raids[channelID]
}

func (b *Bot) markDirty() {
	b.dirty = true
}

// rearmTimers re-schedules lifecycle timers for records restored from a
// snapshot; overdue entities fire on the first scheduler pass.
func (b *Bot) rearmTimers() {
	for gid, g := range b.Guilds {
		for chID, r := range g.Raids {
			switch {
			case !r.Active:
				b.sched.Schedule(KindArchive, gid, chID, time.Now().Add(ArchiveGrace))
			case r.Type == TypeEgg:
				b.sched.Schedule(KindHatch, gid, chID, r.HatchTime)
			default:
				b.sched.Schedule(KindExpire, gid, chID, r.ExpireTime)
			}
			if r.Lobby != nil {
				b.sched.Schedule(KindLobby, gid, chID, r.Lobby.Exp)
			}
		}
		for msgID, p := range g.Posts {
			b.sched.Schedule(KindPost, gid, msgID, p.Expires)
		}
	}
}

// handleEvent routes timer-driven transitions; the scheduler goroutine
// delivers every due event here. Each handler takes the state lock itself,
// exactly like a command handler, and keeps its Discord I/O outside of it.
func (b *Bot) handleEvent(ev Event) {
	switch ev.Kind {
	case KindHatch:
		b.onHatch(ev)
	case KindExpire:
		b.onExpire(ev)
	case KindArchive:
		b.onArchive(ev)
	case KindLobby:
		b.onLobbyResolve(ev)
	case KindBackout:
		b.onBackoutTimeout(ev)
	case KindDupePrompt:
		b.onDupeTimeout(ev)
	case KindPost:
		b.onPostExpire(ev)
	}
}

func (b *Bot) readyHandler(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("ready", "guilds", len(r.Guilds))
}
