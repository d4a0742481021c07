package subs

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "subs.db")),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(db)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAddListRemove(t *testing.T) {
	s := testStore(t)
	if err := s.Add("100", KindRaid, "Dragonite", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("100", KindWild, "unown", nil); err != nil {
		t.Fatal(err)
	}
	subs, err := s.List("100")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}
	// targets are normalized to lower case
	if subs[0].Target != "dragonite" {
		t.Fatalf("target not normalized: %q", subs[0].Target)
	}
	if err := s.Remove("100", KindWild, "unown"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("100", KindWild, "unown"); err == nil {
		t.Fatal("removing a missing subscription should fail")
	}
}

func TestAddIsIdempotent(t *testing.T) {
	s := testStore(t)
	if err := s.Add("100", KindRaid, "dragonite", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("100", KindRaid, "dragonite", []uint{7}); err != nil {
		t.Fatal(err)
	}
	subs, err := s.List("100")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 {
		t.Fatalf("re-add should not duplicate, got %d rows", len(subs))
	}
	if got := subs[0].SpecificGyms(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("re-add should update specific gyms, got %v", got)
	}
}

func TestMatchSpecificGyms(t *testing.T) {
	s := testStore(t)
	if err := s.Add("100", KindRaid, "dragonite", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("200", KindRaid, "dragonite", []uint{3, 4}); err != nil {
		t.Fatal(err)
	}

	matched, err := s.Match(KindRaid, "dragonite", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 2 {
		t.Fatalf("gym 4 should match both subs, got %d", len(matched))
	}

	matched, err = s.Match(KindRaid, "dragonite", 9)
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 1 || matched[0].TrainerID != "100" {
		t.Fatalf("gym 9 should match only the unfiltered sub, got %v", matched)
	}
}

func TestAddRejectsBadKind(t *testing.T) {
	s := testStore(t)
	if err := s.Add("100", "gossip", "dragonite", nil); err == nil {
		t.Fatal("unknown kind should be rejected")
	}
	if err := s.Add("100", KindRaid, "   ", nil); err == nil {
		t.Fatal("empty target should be rejected")
	}
}
