package raid

import "testing"

func TestSetStatusExclusive(t *testing.T) {
	ts := &TrainerStatus{}
	if err := ts.SetStatus(StatusMaybe, 3, TeamCounts{}); err != nil {
		t.Fatal(err)
	}
	if ts.Maybe != 3 || ts.Party.Unknown != 3 {
		t.Errorf("maybe=%d unknown=%d, want 3/3", ts.Maybe, ts.Party.Unknown)
	}

	// moving to a new status clears the previous one as a unit
	if err := ts.SetStatus(StatusHere, 2, TeamCounts{Mystic: 2}); err != nil {
		t.Fatal(err)
	}
	if ts.Maybe != 0 || ts.Here != 2 {
		t.Errorf("after move: maybe=%d here=%d, want 0/2", ts.Maybe, ts.Here)
	}
	if got := ts.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	if got := ts.Status(); got != StatusHere {
		t.Errorf("Status() = %q, want here", got)
	}
}

func TestSetStatusPartySum(t *testing.T) {
	ts := &TrainerStatus{}
	err := ts.SetStatus(StatusComing, 2, TeamCounts{Mystic: 2, Valor: 1})
	if err != ErrPartyMismatch {
		t.Errorf("expected ErrPartyMismatch, got %v", err)
	}
	if err := ts.SetStatus(StatusComing, 3, TeamCounts{Mystic: 2, Valor: 1}); err != nil {
		t.Fatal(err)
	}
	if ts.Party.Total() != 3 {
		t.Errorf("party total = %d, want 3", ts.Party.Total())
	}

	if err := ts.SetStatus(StatusComing, 0, TeamCounts{}); err == nil {
		t.Error("zero count should be rejected")
	}
}

func TestClearStatusKeepsBookkeeping(t *testing.T) {
	ts := &TrainerStatus{Interest: []string{"dragonite"}, DupeReporter: true}
	ts.SetStatus(StatusHere, 1, TeamCounts{})
	ts.ClearStatus()
	if ts.Count() != 0 {
		t.Errorf("Count() = %d after clear", ts.Count())
	}
	if !ts.DupeReporter || len(ts.Interest) != 1 {
		t.Error("clear must keep interest and dupe-vote bookkeeping")
	}
}

func TestSetStatusUnknownStatusKeepsRecord(t *testing.T) {
	ts := &TrainerStatus{}
	if err := ts.SetStatus(StatusHere, 3, TeamCounts{Mystic: 2, Valor: 1}); err != nil {
		t.Fatal(err)
	}
	if err := ts.SetStatus("teleporting", 2, TeamCounts{}); err == nil {
		t.Fatal("unknown status should be rejected")
	}
	// a rejected update must not disturb the RSVP already on record
	if ts.Here != 3 || ts.Status() != StatusHere {
		t.Errorf("here=%d status=%q after rejected update, want 3/here", ts.Here, ts.Status())
	}
	if ts.Party.Mystic != 2 || ts.Party.Valor != 1 {
		t.Errorf("party = %+v after rejected update", ts.Party)
	}
}

func TestWantsBoss(t *testing.T) {
	anything := &TrainerStatus{}
	if !anything.WantsBoss("mewtwo") {
		t.Error("empty interest list should match any boss")
	}
	picky := &TrainerStatus{Interest: []string{"dragonite", "rayquaza"}}
	if !picky.WantsBoss("dragonite") || picky.WantsBoss("mewtwo") {
		t.Error("interest list match is wrong")
	}
}

func TestStatusTotals(t *testing.T) {
	r := &RaidChannel{Trainers: map[string]*TrainerStatus{}}
	a := r.trainer("a")
	a.SetStatus(StatusMaybe, 2, TeamCounts{Mystic: 2})
	b := r.trainer("b")
	b.SetStatus(StatusHere, 3, TeamCounts{Valor: 1, Unknown: 2})
	r.trainer("interest-only") // no RSVP, must not count

	maybe, coming, here, lobby, teams := r.StatusTotals()
	if maybe != 2 || coming != 0 || here != 3 || lobby != 0 {
		t.Errorf("totals = %d/%d/%d/%d, want 2/0/3/0", maybe, coming, here, lobby)
	}
	if teams.Mystic != 2 || teams.Valor != 1 || teams.Unknown != 2 || teams.Total() != 5 {
		t.Errorf("teams = %+v", teams)
	}
}
