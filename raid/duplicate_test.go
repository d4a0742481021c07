package raid

import "testing"

func TestRecordDuplicate(t *testing.T) {
	r := testEgg("5")

	if got := r.RecordDuplicate("a", false); got != DupeCounted {
		t.Errorf("first vote: %v", got)
	}
	if got := r.RecordDuplicate("a", false); got != DupeAlreadyVoted {
		t.Errorf("repeat vote by the same trainer: %v", got)
	}
	if r.DupeCount != 1 {
		t.Errorf("count = %d after a deduped vote, want 1", r.DupeCount)
	}
	if got := r.RecordDuplicate("b", false); got != DupeCounted {
		t.Errorf("second vote: %v", got)
	}
	if got := r.RecordDuplicate("c", false); got != DupePromptReady {
		t.Errorf("third vote should open the prompt: %v", got)
	}
}

func TestCancelDuplicateResetsToTwo(t *testing.T) {
	r := testEgg("5")
	r.RecordDuplicate("a", false)
	r.RecordDuplicate("b", false)
	r.RecordDuplicate("c", false)

	r.CancelDuplicate()
	if r.DupeCount != DupeThreshold-1 {
		t.Fatalf("count after cancel = %d, want %d", r.DupeCount, DupeThreshold-1)
	}
	// earlier voters are spent
	if got := r.RecordDuplicate("a", false); got != DupeAlreadyVoted {
		t.Errorf("earlier voter after cancel: %v", got)
	}
	// one fresh vote reopens the prompt
	if got := r.RecordDuplicate("d", false); got != DupePromptReady {
		t.Errorf("fresh voter after cancel: %v", got)
	}
}

func TestModeratorDuplicateEscalates(t *testing.T) {
	r := testEgg("5")
	if got := r.RecordDuplicate("mod", true); got != DupePromptReady {
		t.Errorf("moderator vote: %v", got)
	}
	if r.DupeCount != 0 {
		t.Errorf("moderator escalation should not spend the counter, got %d", r.DupeCount)
	}
}
