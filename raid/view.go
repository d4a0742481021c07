package raid

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Embed colors.
const (
	colorError  = 0xd0021b
	colorRaid   = 0xf5a623
	colorEgg    = 0x9013fe
	colorOK     = 0x7ed321
	colorNotice = 0x4a90d9
)

// RaidView is the structured report view model: everything an embed or a
// listing line needs, computed once from the record instead of re-parsing
// rendered field labels. It is a plain-value snapshot, so callers build it
// under the state lock and render it after unlocking.
type RaidView struct {
	Title       string
	ChannelID   string
	ReportMsgID string
	GymID       uint
	Boss        string
	EggLevel    string
	GymName     string
	MapURL      string
	ExGym       bool
	Regions     []string
	HatchTime   time.Time
	ExpireTime  time.Time
	Active      bool
	Unhatched   bool

	Maybe, Coming, Here, InLobby int
	Teams                        TeamCounts
}

func NewRaidView(r *RaidChannel) RaidView {
	maybe, coming, here, lobby, teams := r.StatusTotals()
	v := RaidView{
		ChannelID:   r.ChannelID,
		ReportMsgID: r.ReportMsgID,
		GymID:       r.GymID,
		Boss:        r.Pokemon,
		EggLevel:    r.EggLevel,
		GymName:     r.GymName,
		MapURL:      r.MapURL,
		ExGym:       r.ExGym,
		Regions:     r.Regions,
		HatchTime:   r.HatchTime,
		ExpireTime:  r.ExpireTime,
		Active:      r.Active,
		Unhatched:   r.Type == TypeEgg,
		Maybe:       maybe,
		Coming:      coming,
		Here:        here,
		InLobby:     lobby,
		Teams:       teams,
	}
	switch {
	case v.Unhatched:
		v.Title = fmt.Sprintf("Level %s Raid Egg — %s", v.EggLevel, v.GymName)
	case v.Boss == "":
		v.Title = fmt.Sprintf("Hatched Level %s Raid — %s", v.EggLevel, v.GymName)
	case r.Type == TypeExRaid:
		v.Title = fmt.Sprintf("EX Raid: %s — %s", titleCase(v.Boss), v.GymName)
	default:
		v.Title = fmt.Sprintf("%s Raid — %s", titleCase(v.Boss), v.GymName)
	}
	return v
}

// Embed renders the view to a Discord embed.
func (v RaidView) Embed() *discordgo.MessageEmbed {
	color := colorRaid
	if v.Unhatched {
		color = colorEgg
	}
	if !v.Active {
		color = colorError
	}

	var timeField string
	if v.Unhatched {
		timeField = fmt.Sprintf("Hatches at **%s**", v.HatchTime.Format("3:04 PM"))
	} else {
		timeField = fmt.Sprintf("Expires at **%s**", v.ExpireTime.Format("3:04 PM"))
	}
	if !v.Active {
		timeField = "Expired"
	}

	status := fmt.Sprintf("Maybe: **%d** | Coming: **%d** | Here: **%d**",
		v.Maybe, v.Coming, v.Here)
	if v.InLobby > 0 {
		status += fmt.Sprintf(" | In lobby: **%d**", v.InLobby)
	}
	teams := fmt.Sprintf("Mystic: %d | Valor: %d | Instinct: %d | Unknown: %d",
		v.Teams.Mystic, v.Teams.Valor, v.Teams.Instinct, v.Teams.Unknown)

	gym := v.GymName
	if v.ExGym {
		gym += " (EX-eligible)"
	}
	if len(v.Regions) > 0 {
		gym += " — " + strings.Join(v.Regions, ", ")
	}

	return &discordgo.MessageEmbed{
		Title: v.Title,
		URL:   v.MapURL,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Gym", Value: gym},
			{Name: "Timer", Value: timeField, Inline: true},
			{Name: "Status", Value: status, Inline: true},
			{Name: "Teams", Value: teams},
		},
	}
}

// ListingLine renders the view as one line of a listing channel message.
func (v RaidView) ListingLine() string {
	when := v.ExpireTime.Format("3:04 PM")
	if v.Unhatched {
		return fmt.Sprintf("**Level %s egg** at %s — hatches %s", v.EggLevel, v.GymName,
			v.HatchTime.Format("3:04 PM"))
	}
	boss := titleCase(v.Boss)
	if boss == "" {
		boss = fmt.Sprintf("Level %s (boss unknown)", v.EggLevel)
	}
	tally := ""
	if n := v.Maybe + v.Coming + v.Here + v.InLobby; n > 0 {
		tally = fmt.Sprintf(" — %d attending", n)
	}
	return fmt.Sprintf("**%s** at %s — until %s%s", boss, v.GymName, when, tally)
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}

func errorEmbed(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: msg, Color: colorError}
}

func okEmbed(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: msg, Color: colorOK}
}

func noticeEmbed(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: msg, Color: colorNotice}
}

// sendError posts a red embed reply; the helper swallows send failures the
// same way all platform errors are handled.
func (b *Bot) sendError(channelID, msg string) {
	if _, err := b.dg.ChannelMessageSendEmbed(channelID, errorEmbed(msg)); err != nil {
		b.log.Warn("failed to send error reply", "err", err)
	}
}

func (b *Bot) sendOK(channelID, msg string) {
	if _, err := b.dg.ChannelMessageSendEmbed(channelID, okEmbed(msg)); err != nil {
		b.log.Warn("failed to send reply", "err", err)
	}
}

func (b *Bot) sendNotice(channelID, msg string) {
	if _, err := b.dg.ChannelMessageSendEmbed(channelID, noticeEmbed(msg)); err != nil {
		b.log.Warn("failed to send notice", "err", err)
	}
}

// updateRaidEmbed re-renders the pinned report embed after a state change.
// The view must be snapshotted while the state lock is held; the edit itself
// happens without it.
func (b *Bot) updateRaidEmbed(v RaidView) {
	if v.ReportMsgID == "" {
		return
	}
	if _, err := b.dg.ChannelMessageEditEmbed(v.ChannelID, v.ReportMsgID, v.Embed()); err != nil {
		// message may have been deleted by a moderator; state wins
		b.log.Debug("could not edit raid embed", "channel", v.ChannelID, "err", err)
	}
}
