package raid

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

// !scan with an attached raid screenshot runs it through the OCR service
// and feeds the result into the normal report path.
func (b *Bot) scanCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !b.deps.Scanner.Enabled() {
		b.sendError(m.ChannelID, "Screenshot scanning is not enabled on this server.")
		return
	}
	if len(m.Attachments) == 0 {
		b.sendError(m.ChannelID, "Attach a raid screenshot to the `!scan` message.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := b.deps.Scanner.ScanRaid(ctx, m.Attachments[0].URL)
	if err != nil {
		b.log.Warn("screenshot scan failed", "err", err)
		b.sendError(m.ChannelID, "I couldn't read that screenshot. Report it manually with `!raid`.")
		return
	}

	what := res.Boss
	if what == "" {
		what = res.EggLevel
	}
	report := fmt.Sprintf("%s %q %s", what, res.GymName, strconv.Itoa(res.Minutes))
	b.sendNotice(m.ChannelID, fmt.Sprintf("Read from screenshot: `!raid %s`", report))
	b.reportCommand(s, m, report, false)
}
