package raid

import (
	"errors"
	"fmt"
)

// RSVP statuses. A trainer holds exactly one at a time.
const (
	StatusMaybe  = "maybe"
	StatusComing = "coming"
	StatusHere   = "here"
	StatusLobby  = "lobby"
)

const (
	TeamMystic   = "mystic"
	TeamValor    = "valor"
	TeamInstinct = "instinct"
)

var ErrPartyMismatch = errors.New("party breakdown does not sum to the trainer count")

// TeamCounts is the team breakdown of a trainer's party.
type TeamCounts struct {
	Mystic   int `json:"mystic"`
	Valor    int `json:"valor"`
	Instinct int `json:"instinct"`
	Unknown  int `json:"unknown"`
}

func (tc TeamCounts) Total() int {
	return tc.Mystic + tc.Valor + tc.Instinct + tc.Unknown
}

func (tc TeamCounts) Of(team string) int {
	switch team {
	case TeamMystic:
		return tc.Mystic
	case TeamValor:
		return tc.Valor
	case TeamInstinct:
		return tc.Instinct
	}
	return tc.Unknown
}

func (tc TeamCounts) Add(o TeamCounts) TeamCounts {
	return TeamCounts{
		Mystic:   tc.Mystic + o.Mystic,
		Valor:    tc.Valor + o.Valor,
		Instinct: tc.Instinct + o.Instinct,
		Unknown:  tc.Unknown + o.Unknown,
	}
}

// TrainerStatus is one trainer's RSVP state toward one raid. The four
// status counters are mutually exclusive; they are only ever written as a
// unit through SetStatus/ClearStatus so that at most one is non-zero.
type TrainerStatus struct {
	Maybe  int `json:"maybe"`
	Coming int `json:"coming"`
	Here   int `json:"here"`
	Lobby  int `json:"lobby"`

	Party    TeamCounts `json:"party"`
	Interest []string   `json:"interest,omitempty"`

	// DupeReporter marks that this trainer already cast a duplicate vote in
	// this channel; it stays set even after a cancelled vote.
	DupeReporter bool `json:"dupe_reporter,omitempty"`
}

// Count returns the trainer's active magnitude regardless of which status
// holds it.
func (ts *TrainerStatus) Count() int {
	return ts.Maybe + ts.Coming + ts.Here + ts.Lobby
}

// Status names the currently held status, or "" when the trainer has no
// active RSVP (interest-only records).
func (ts *TrainerStatus) Status() string {
	switch {
	case ts.Maybe > 0:
		return StatusMaybe
	case ts.Coming > 0:
		return StatusComing
	case ts.Here > 0:
		return StatusHere
	case ts.Lobby > 0:
		return StatusLobby
	}
	return ""
}

// SetStatus assigns the trainer's RSVP as a unit. A zero party defaults to
// all-unknown; a non-zero party must sum to count.
func (ts *TrainerStatus) SetStatus(status string, count int, party TeamCounts) error {
	if count <= 0 {
		return fmt.Errorf("trainer count must be positive, got %d", count)
	}
	if party.Total() == 0 {
		party.Unknown = count
	}
	if party.Total() != count {
		return ErrPartyMismatch
	}
	// validate everything before touching the record so an error leaves the
	// previous RSVP intact
	switch status {
	case StatusMaybe, StatusComing, StatusHere, StatusLobby:
	default:
		return fmt.Errorf("unknown status %q", status)
	}
	ts.Maybe, ts.Coming, ts.Here, ts.Lobby = 0, 0, 0, 0
	switch status {
	case StatusMaybe:
		ts.Maybe = count
	case StatusComing:
		ts.Coming = count
	case StatusHere:
		ts.Here = count
	case StatusLobby:
		ts.Lobby = count
	}
	ts.Party = party
	return nil
}

// ClearStatus cancels the RSVP, keeping interest and dupe bookkeeping.
func (ts *TrainerStatus) ClearStatus() {
	ts.Maybe, ts.Coming, ts.Here, ts.Lobby = 0, 0, 0, 0
	ts.Party = TeamCounts{}
}

// WantsBoss reports whether the trainer's interest list names the boss. An
// empty interest list means "anything".
func (ts *TrainerStatus) WantsBoss(boss string) bool {
	if len(ts.Interest) == 0 {
		return true
	}
	for _, b := range ts.Interest {
		if b == boss {
			return true
		}
	}
	return false
}
