// Package subs stores trainer notification subscriptions: a trainer asks to
// be pinged when a given boss, research reward or wild spawn is reported.
package subs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inconshreveable/log15"
	"gorm.io/gorm"
)

const (
	KindRaid     = "raid"
	KindResearch = "research"
	KindWild     = "wild"
)

type Subscription struct {
	ID        uint   `gorm:"primaryKey"`
	TrainerID string `gorm:"index:idx_sub,unique"`
	Kind      string `gorm:"index:idx_sub,unique"`
	Target    string `gorm:"index:idx_sub,unique"`
	// Specific is an optional comma-separated gym id list restricting raid
	// notifications to those gyms.
	Specific  string
	CreatedAt time.Time
}

func (s *Subscription) SpecificGyms() []uint {
	if s.Specific == "" {
		return nil
	}
	var ids []uint
	for _, part := range strings.Split(s.Specific, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

type Store struct {
	db  *gorm.DB
	log log15.Logger
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Subscription{}); err != nil {
		return nil, err
	}
	return &Store{db: db, log: log15.New("module", "subs")}, nil
}

func validKind(kind string) bool {
	switch kind {
	case KindRaid, KindResearch, KindWild:
		return true
	}
	return false
}

// Add creates or updates a subscription; re-adding an existing one only
// replaces the specific-gym filter.
func (s *Store) Add(trainerID, kind, target string, specific []uint) error {
	if !validKind(kind) {
		return fmt.Errorf("unknown subscription kind %q", kind)
	}
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return fmt.Errorf("empty subscription target")
	}
	var parts []string
	for _, id := range specific {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	sub := Subscription{
		TrainerID: trainerID,
		Kind:      kind,
		Target:    target,
		Specific:  strings.Join(parts, ","),
	}
	var existing Subscription
	err := s.db.Where("trainer_id = ? AND kind = ? AND target = ?",
		trainerID, kind, target).First(&existing).Error
	if err == nil {
		existing.Specific = sub.Specific
		return s.db.Save(&existing).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	s.log.Info("subscription added", "trainer", trainerID, "kind", kind, "target", target)
	return s.db.Create(&sub).Error
}

func (s *Store) Remove(trainerID, kind, target string) error {
	target = strings.ToLower(strings.TrimSpace(target))
	res := s.db.Where("trainer_id = ? AND kind = ? AND target = ?",
		trainerID, kind, target).Delete(&Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no %s subscription for %q", kind, target)
	}
	return nil
}

func (s *Store) List(trainerID string) ([]Subscription, error) {
	var out []Subscription
	err := s.db.Where("trainer_id = ?", trainerID).Order("kind, target").Find(&out).Error
	return out, err
}

// Match returns the trainers subscribed to a report. gymID is only
// consulted for raid subscriptions carrying a specific-gym filter.
func (s *Store) Match(kind, target string, gymID uint) ([]Subscription, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	var candidates []Subscription
	err := s.db.Where("kind = ? AND target = ?", kind, target).Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	var out []Subscription
	for _, sub := range candidates {
		ids := sub.SpecificGyms()
		if len(ids) == 0 {
			out = append(out, sub)
			continue
		}
		for _, id := range ids {
			if id == gymID {
				out = append(out, sub)
				break
			}
		}
	}
	return out, nil
}
