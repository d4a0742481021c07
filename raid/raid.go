package raid

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type RaidType string

const (
	TypeEgg    RaidType = "egg"
	TypeRaid   RaidType = "raid"
	TypeExRaid RaidType = "exraid"
)

// Lifetimes. Eggs hatch after their timer; the hatched boss then lasts
// RaidDuration. Expired channels linger for ArchiveGrace before deletion so
// a late !timerset can revive them.
const (
	RaidDuration    = 45 * time.Minute
	EggDuration     = 60 * time.Minute
	ExRaidDuration  = 14 * 24 * time.Hour
	ArchiveGrace    = 5 * time.Minute
	LobbyDuration   = 2 * time.Minute
	BackoutTimeout  = 60 * time.Second
	DupeVoteTimeout = 60 * time.Second
	DupeThreshold   = 3
)

var (
	ErrNotEgg     = errors.New("this channel is not an unhatched egg")
	ErrNotBoss    = errors.New("that pokemon is not a boss at this egg level")
	ErrNoLobby    = errors.New("no lobby is currently forming")
	ErrLobbyEmpty = errors.New("nobody has RSVP'd as here")
	ErrRaidOver   = errors.New("this raid has already expired")
)

// Lobby is the short-lived holding state entered with !starting.
type Lobby struct {
	Exp   time.Time `json:"exp"`
	Team  string    `json:"team,omitempty"`
	Count int       `json:"count"`
}

// RaidChannel is the per-channel raid record; the Discord channel id is its
// only durable key.
type RaidChannel struct {
	ChannelID string   `json:"channel_id"`
	GuildID   string   `json:"guild_id"`
	Type      RaidType `json:"type"`
	EggLevel  string   `json:"egglevel"`
	Pokemon   string   `json:"pokemon"`

	GymID   uint     `json:"gym_id"`
	GymName string   `json:"gym_name"`
	MapURL  string   `json:"map_url"`
	ExGym   bool     `json:"ex_gym"`
	Regions []string `json:"regions"`

	HatchTime   time.Time `json:"hatch_time"`
	ExpireTime  time.Time `json:"expire_time"`
	ManualTimer bool      `json:"manual_timer"`
	Active      bool      `json:"active"`

	Trainers map[string]*TrainerStatus `json:"trainer_dict"`

	DupeCount     int    `json:"duplicate"`
	DupeConfirmed bool   `json:"dupe_confirmed,omitempty"`
	Lobby         *Lobby `json:"lobby,omitempty"`

	Reporter    string `json:"reporter"`
	ReportMsgID string `json:"report_msg_id"`
	SourceChID  string `json:"source_ch_id"`
}

func (r *RaidChannel) String() string {
	what := r.Pokemon
	if what == "" {
		what = "level " + r.EggLevel + " egg"
	}
	return fmt.Sprintf("%s at %s until %s", what, r.GymName, r.ExpireTime.Format("3:04 PM"))
}

// Hatched reports whether the raid is past the egg state (boss assigned, or
// hatched and awaiting a boss pick).
func (r *RaidChannel) Hatched() bool {
	return r.Type != TypeEgg
}

func (r *RaidChannel) trainer(id string) *TrainerStatus {
	if r.Trainers == nil {
		r.Trainers = make(map[string]*TrainerStatus)
	}
	ts, ok := r.Trainers[id]
	if !ok {
		ts = &TrainerStatus{}
		r.Trainers[id] = ts
	}
	return ts
}

// StatusTotals tallies trainer magnitudes per status plus the combined team
// breakdown, for embeds and listings.
func (r *RaidChannel) StatusTotals() (maybe, coming, here, lobby int, teams TeamCounts) {
	for _, ts := range r.Trainers {
		maybe += ts.Maybe
		coming += ts.Coming
		here += ts.Here
		lobby += ts.Lobby
		if ts.Count() > 0 {
			teams = teams.Add(ts.Party)
		}
	}
	return
}

// AssignBoss transitions an egg (or a hatched egg awaiting a boss) to an
// active raid. The boss must be in the rotation for the egg level. Trainers
// whose interest list does not include the hatched boss have their RSVP
// cleared to force re-confirmation; their ids are returned so they can be
// notified.
func (r *RaidChannel) AssignBoss(g *GuildState, boss string, now time.Time) ([]string, error) {
	boss = normBoss(boss)
	if r.Hatched() && r.Pokemon != "" {
		return nil, fmt.Errorf("this raid already has a boss: %s", r.Pokemon)
	}
	if !g.isBoss(r.EggLevel, boss) {
		return nil, ErrNotBoss
	}
	wasEgg := r.Type == TypeEgg
	if r.EggLevel == "EX" {
		r.Type = TypeExRaid
	} else {
		r.Type = TypeRaid
	}
	r.Pokemon = boss
	if wasEgg {
		r.HatchTime = now
		if !r.ManualTimer {
			r.ExpireTime = now.Add(RaidDuration)
		}
	}

	var cleared []string
	for id, ts := range r.Trainers {
		if ts.WantsBoss(boss) {
			continue
		}
		if ts.Count() > 0 {
			ts.ClearStatus()
			cleared = append(cleared, id)
		}
	}
	return cleared, nil
}

// HatchEgg is the automatic hatch transition fired by the timer queue. When
// the level's rotation has a single boss it is assigned outright; otherwise
// the channel becomes a hatched raid with an unknown boss, waiting for
// !raid <boss>.
func (r *RaidChannel) HatchEgg(g *GuildState, now time.Time) (boss string, cleared []string) {
	if r.Type != TypeEgg {
		return "", nil
	}
	list := g.bossList(r.EggLevel)
	if len(list) == 1 {
		cleared, _ = r.AssignBoss(g, list[0], now)
		return list[0], cleared
	}
	r.Type = TypeRaid
	r.HatchTime = now
	if !r.ManualTimer {
		r.ExpireTime = now.Add(RaidDuration)
	}
	return "", nil
}

// Expire marks the raid expired-pending-archive. Idempotent.
func (r *RaidChannel) Expire() bool {
	if !r.Active {
		return false
	}
	r.Active = false
	r.Lobby = nil
	return true
}

// Revive reactivates an expired-pending-archive raid after a manual timer
// reset, unless a confirmed duplicate vote killed it.
func (r *RaidChannel) Revive() error {
	if r.DupeConfirmed {
		return errors.New("raid was removed as a duplicate report")
	}
	r.Active = true
	return nil
}

// SetTimer applies !timerset: for an egg the timer is the hatch time, for an
// active raid the expiry.
func (r *RaidChannel) SetTimer(when time.Time) {
	r.ManualTimer = true
	if r.Type == TypeEgg {
		r.HatchTime = when
		r.ExpireTime = when.Add(RaidDuration)
	} else {
		r.ExpireTime = when
	}
}

// ChannelName derives the Discord channel name for the record, e.g.
// "5-town-hall" for an egg or "dragonite-town-hall" once hatched.
func (r *RaidChannel) ChannelName() string {
	prefix := r.EggLevel
	if r.Pokemon != "" {
		prefix = r.Pokemon
	}
	if r.Type == TypeExRaid {
		prefix = "ex-" + prefix
	}
	return sanitizeChannelName(prefix + "-" + r.GymName)
}

func sanitizeChannelName(name string) string {
	var b strings.Builder
	lastDash := true
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			b.WriteRune(c)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
