package buzzer

import (
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// State is the single authoritative game state: lock status, participant
// registry, the current round's buzz ledger, and the round history.
//
// State is not safe for concurrent use. All access must happen on the
// coordinator's command loop; that serialization is what makes buzz
// ordering well-defined.
type State struct {
	locked       bool
	participants map[uuid.UUID]*Participant
	joinOrder    []uuid.UUID
	ledger       []BuzzEntry
	history      []RoundRecord
	clock        clockwork.Clock
}

// Snapshot is the full-state view pushed to a client when it connects.
type Snapshot struct {
	IsLocked         bool        `json:"is_locked"`
	Buzzers          []BuzzEntry `json:"buzzers"`
	ParticipantCount int         `json:"participant_count"`
}

// NewState creates an empty game state. The buzzer starts locked.
func NewState(clock clockwork.Clock) *State {
	return &State{
		locked:       true,
		participants: make(map[uuid.UUID]*Participant),
		clock:        clock,
	}
}

// Locked reports whether the buzzer is currently inert.
func (s *State) Locked() bool {
	return s.locked
}

// Snapshot returns the connect-time view of the current state. The
// returned ledger is a copy.
func (s *State) Snapshot() Snapshot {
	count := 0
	for _, p := range s.participants {
		if p.Connected {
			count++
		}
	}
	return Snapshot{
		IsLocked:         s.locked,
		Buzzers:          s.Ledger(),
		ParticipantCount: count,
	}
}

// Ledger returns a copy of the current round's buzz entries in order.
func (s *State) Ledger() []BuzzEntry {
	out := make([]BuzzEntry, len(s.ledger))
	copy(out, s.ledger)
	return out
}
