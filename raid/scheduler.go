package raid

import (
	"container/heap"
	"sync"
	"time"

	"github.com/inconshreveable/log15"
)

// EventKind names the lifecycle timers handled by the scheduler.
type EventKind string

const (
	KindHatch      EventKind = "hatch"
	KindExpire     EventKind = "expire"
	KindArchive    EventKind = "archive"
	KindLobby      EventKind = "lobby"
	KindBackout    EventKind = "backout"
	KindDupePrompt EventKind = "dupeprompt"
	KindPost       EventKind = "post"
)

// Event is one due timer: an entity (kind, guild, id) and when it fires.
type Event struct {
	Kind    EventKind
	GuildID string
	ID      string
	Due     time.Time

	gen uint64
}

type eventKey struct {
	kind    EventKind
	guildID string
	id      string
}

// Scheduler is a single timer goroutine over a due-time min-heap, replacing
// one polling loop per live entity. Scheduling the same (kind, guild, id)
// again supersedes the earlier entry: stale heap entries carry an old
// generation and no-op when popped, which is also how Cancel works.
type Scheduler struct {
	mut  sync.Mutex
	heap eventHeap
	gens map[eventKey]uint64
	fire func(Event)
	wake chan struct{}
	done chan struct{}
	log  log15.Logger
}

func NewScheduler(fire func(Event)) *Scheduler {
	return &Scheduler{
		gens: make(map[eventKey]uint64),
		fire: fire,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log15.New("module", "scheduler"),
	}
}

// Schedule arms (or re-arms) the timer for an entity.
func (s *Scheduler) Schedule(kind EventKind, guildID, id string, due time.Time) {
	key := eventKey{kind, guildID, id}
	s.mut.Lock()
	s.gens[key]++
	ev := &Event{Kind: kind, GuildID: guildID, ID: id, Due: due, gen: s.gens[key]}
	heap.Push(&s.heap, ev)
	s.mut.Unlock()
	s.log.Debug("scheduled", "kind", kind, "id", id, "due", due)
	s.kick()
}

// Cancel disarms any pending timer for the entity. With no heap entry left
// to invalidate the key is dropped outright, so cancelling never grows the
// generation map.
func (s *Scheduler) Cancel(kind EventKind, guildID, id string) {
	key := eventKey{kind, guildID, id}
	s.mut.Lock()
	if s.hasEntry(key) {
		s.gens[key]++
	} else {
		delete(s.gens, key)
	}
	s.mut.Unlock()
}

// hasEntry reports whether any heap entry (live or stale) still carries the
// key. Callers hold the lock.
func (s *Scheduler) hasEntry(key eventKey) bool {
	for _, ev := range s.heap {
		if ev.Kind == key.kind && ev.GuildID == key.guildID && ev.ID == key.id {
			return true
		}
	}
	return false
}

// CancelEntity disarms every timer kind for an entity, used when a raid
// record is destroyed.
func (s *Scheduler) CancelEntity(guildID, id string) {
	for _, k := range []EventKind{KindHatch, KindExpire, KindArchive, KindLobby, KindBackout, KindDupePrompt, KindPost} {
		s.Cancel(k, guildID, id)
	}
}

func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run services the heap until Stop. Fired events are delivered outside the
// scheduler lock.
func (s *Scheduler) Run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		due := s.popDue(time.Now())
		for _, ev := range due {
			s.log.Debug("fired", "kind", ev.Kind, "id", ev.ID)
			s.fire(*ev)
		}

		wait := s.nextWait(time.Now())
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-timer.C:
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.done)
}

// popDue removes and returns every live entry due at or before now.
func (s *Scheduler) popDue(now time.Time) []*Event {
	s.mut.Lock()
	defer s.mut.Unlock()
	var due []*Event
	for s.heap.Len() > 0 {
		next := s.heap[0]
		if next.Due.After(now) {
			break
		}
		heap.Pop(&s.heap)
		key := eventKey{next.Kind, next.GuildID, next.ID}
		if s.gens[key] != next.gen {
			// superseded or cancelled; release the key once the last heap
			// entry carrying it is gone
			if !s.hasEntry(key) {
				delete(s.gens, key)
			}
			continue
		}
		delete(s.gens, key)
		due = append(due, next)
	}
	return due
}

func (s *Scheduler) nextWait(now time.Time) time.Duration {
	s.mut.Lock()
	defer s.mut.Unlock()
	// drop dead entries off the top so they don't cause pointless wakeups
	for s.heap.Len() > 0 {
		next := s.heap[0]
		key := eventKey{next.Kind, next.GuildID, next.ID}
		if s.gens[key] == next.gen {
			break
		}
		heap.Pop(&s.heap)
		if !s.hasEntry(key) {
			delete(s.gens, key)
		}
	}
	if s.heap.Len() == 0 {
		return time.Hour
	}
	wait := s.heap[0].Due.Sub(now)
	if wait < 0 {
		return time.Millisecond
	}
	return wait
}

// Pending reports whether a live timer exists for the entity, mostly for
// tests and !timer.
func (s *Scheduler) Pending(kind EventKind, guildID, id string) bool {
	key := eventKey{kind, guildID, id}
	s.mut.Lock()
	defer s.mut.Unlock()
	gen, ok := s.gens[key]
	if !ok {
		return false
	}
	for _, ev := range s.heap {
		if ev.Kind == kind && ev.GuildID == guildID && ev.ID == id && ev.gen == gen {
			return true
		}
	}
	return false
}

type eventHeap []*Event

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].Due.Before(h[j].Due) }
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(*Event)) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}
