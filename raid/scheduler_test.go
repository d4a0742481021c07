package raid

import (
	"strconv"
	"testing"
	"time"
)

// The heap logic is exercised directly through popDue/nextWait so the tests
// stay deterministic; Run is just a timer loop over these.

func TestSchedulerFireOrder(t *testing.T) {
	s := NewScheduler(nil)
	s.Schedule(KindExpire, "g", "b", testBase.Add(2*time.Minute))
	s.Schedule(KindHatch, "g", "a", testBase.Add(1*time.Minute))
	s.Schedule(KindArchive, "g", "c", testBase.Add(3*time.Minute))

	due := s.popDue(testBase.Add(2 * time.Minute))
	if len(due) != 2 {
		t.Fatalf("popDue returned %d events, want 2", len(due))
	}
	if due[0].ID != "a" || due[1].ID != "b" {
		t.Errorf("fire order = %s, %s", due[0].ID, due[1].ID)
	}

	wait := s.nextWait(testBase.Add(2 * time.Minute))
	if wait != time.Minute {
		t.Errorf("nextWait = %v, want 1m", wait)
	}
}

func TestSchedulerSupersede(t *testing.T) {
	s := NewScheduler(nil)
	s.Schedule(KindExpire, "g", "r", testBase.Add(time.Minute))
	s.Schedule(KindExpire, "g", "r", testBase.Add(10*time.Minute)) // timerset

	due := s.popDue(testBase.Add(5 * time.Minute))
	if len(due) != 0 {
		t.Fatalf("superseded event fired: %+v", due[0])
	}
	due = s.popDue(testBase.Add(15 * time.Minute))
	if len(due) != 1 || !due[0].Due.Equal(testBase.Add(10*time.Minute)) {
		t.Fatalf("expected only the re-armed event, got %d", len(due))
	}
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler(nil)
	s.Schedule(KindHatch, "g", "r", testBase.Add(time.Minute))
	if !s.Pending(KindHatch, "g", "r") {
		t.Fatal("expected a pending timer")
	}
	s.Cancel(KindHatch, "g", "r")
	if s.Pending(KindHatch, "g", "r") {
		t.Error("cancelled timer still pending")
	}
	if due := s.popDue(testBase.Add(time.Hour)); len(due) != 0 {
		t.Errorf("cancelled event fired: %+v", due[0])
	}
}

func TestSchedulerCancelEntity(t *testing.T) {
	s := NewScheduler(nil)
	s.Schedule(KindHatch, "g", "r", testBase.Add(time.Minute))
	s.Schedule(KindExpire, "g", "r", testBase.Add(2*time.Minute))
	s.Schedule(KindExpire, "g", "other", testBase.Add(2*time.Minute))
	s.CancelEntity("g", "r")

	due := s.popDue(testBase.Add(time.Hour))
	if len(due) != 1 || due[0].ID != "other" {
		t.Fatalf("expected only the other entity to fire, got %d", len(due))
	}
}

func TestSchedulerCancelReleasesKeys(t *testing.T) {
	s := NewScheduler(nil)

	// cancelling a key that was never scheduled must not create one
	s.Cancel(KindHatch, "g", "ghost")
	if len(s.gens) != 0 {
		t.Fatalf("gens has %d entries after cancelling an unknown key", len(s.gens))
	}

	// many channels armed and cancelled over a long uptime must not pile up
	for i := 0; i < 100; i++ {
		id := "ch" + strconv.Itoa(i)
		s.Schedule(KindExpire, "g", id, testBase.Add(time.Minute))
		s.Cancel(KindExpire, "g", id)
	}
	if due := s.popDue(testBase.Add(time.Hour)); len(due) != 0 {
		t.Fatalf("cancelled events fired: %d", len(due))
	}
	if len(s.gens) != 0 {
		t.Errorf("gens retains %d entries after cancel and drain, want 0", len(s.gens))
	}
	if s.heap.Len() != 0 {
		t.Errorf("heap retains %d entries after drain", s.heap.Len())
	}
}

func TestSchedulerCancelThenReschedule(t *testing.T) {
	s := NewScheduler(nil)
	s.Schedule(KindExpire, "g", "r", testBase.Add(time.Minute))
	s.Cancel(KindExpire, "g", "r")
	s.Schedule(KindExpire, "g", "r", testBase.Add(10*time.Minute))

	// the first, cancelled entry must stay dead even though the key was
	// cancelled and re-armed in between
	if due := s.popDue(testBase.Add(5 * time.Minute)); len(due) != 0 {
		t.Fatalf("cancelled event fired: %+v", due[0])
	}
	due := s.popDue(testBase.Add(15 * time.Minute))
	if len(due) != 1 || !due[0].Due.Equal(testBase.Add(10*time.Minute)) {
		t.Fatalf("expected only the re-armed event, got %d", len(due))
	}
	if len(s.gens) != 0 {
		t.Errorf("gens retains %d entries after firing", len(s.gens))
	}
}

func TestSchedulerRunDelivers(t *testing.T) {
	fired := make(chan Event, 1)
	s := NewScheduler(func(ev Event) { fired <- ev })
	go s.Run()
	defer s.Stop()

	s.Schedule(KindLobby, "g", "r", time.Now().Add(10*time.Millisecond))
	select {
	case ev := <-fired:
		if ev.Kind != KindLobby || ev.ID != "r" {
			t.Errorf("got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}
