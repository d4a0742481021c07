// Package sightings is the append-only report log: every raid, research and
// wild report is recorded so server staff can audit activity. Rows are
// pruned nightly.
package sightings

import (
	"time"

	"github.com/inconshreveable/log15"
	"gorm.io/gorm"
)

type RaidSighting struct {
	ID         uint `gorm:"primaryKey"`
	GuildID    string
	ChannelID  string
	Reporter   string
	GymID      uint
	EggLevel   string
	Pokemon    string
	HatchTime  time.Time
	ExpireTime time.Time
	CreatedAt  time.Time
}

type ResearchSighting struct {
	ID        uint `gorm:"primaryKey"`
	GuildID   string
	Reporter  string
	StopID    uint
	Quest     string
	Reward    string
	CreatedAt time.Time
}

type WildSighting struct {
	ID        uint `gorm:"primaryKey"`
	GuildID   string
	Reporter  string
	Pokemon   string
	Location  string
	CreatedAt time.Time
}

type Log struct {
	db  *gorm.DB
	log log15.Logger
}

func New(db *gorm.DB) (*Log, error) {
	if err := db.AutoMigrate(&RaidSighting{}, &ResearchSighting{}, &WildSighting{}); err != nil {
		return nil, err
	}
	return &Log{db: db, log: log15.New("module", "sightings")}, nil
}

func (l *Log) Raid(s *RaidSighting) {
	if err := l.db.Create(s).Error; err != nil {
		l.log.Warn("failed to log raid sighting", "err", err)
	}
}

func (l *Log) Research(s *ResearchSighting) {
	if err := l.db.Create(s).Error; err != nil {
		l.log.Warn("failed to log research sighting", "err", err)
	}
}

func (l *Log) Wild(s *WildSighting) {
	if err := l.db.Create(s).Error; err != nil {
		l.log.Warn("failed to log wild sighting", "err", err)
	}
}

// CountRaidsSince reports raid volume for a guild, used by !configure stats.
func (l *Log) CountRaidsSince(guildID string, since time.Time) (int64, error) {
	var n int64
	err := l.db.Model(&RaidSighting{}).
		Where("guild_id = ? AND created_at >= ?", guildID, since).Count(&n).Error
	return n, err
}

// Prune drops sighting rows older than the cutoff.
func (l *Log) Prune(olderThan time.Time) error {
	for _, model := range []interface{}{&RaidSighting{}, &ResearchSighting{}, &WildSighting{}} {
		if err := l.db.Where("created_at < ?", olderThan).Delete(model).Error; err != nil {
			return err
		}
	}
	l.log.Info("pruned sighting log", "cutoff", olderThan)
	return nil
}
