package buzzer

import (
	"time"

	"github.com/google/uuid"
)

// BuzzEntry records one accepted buzz. Order is the dense arrival-order
// rank within the current round, starting at zero. Entries are immutable
// once appended and destroyed only when the ledger is cleared.
type BuzzEntry struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Name          string    `json:"name"`
	Timestamp     time.Time `json:"timestamp"`
	Order         int       `json:"order"`
}

// BuzzResult names the outcome of a buzz submission. Rejections are
// silent on the wire but observable here so tests can assert on them.
type BuzzResult int

const (
	BuzzAccepted BuzzResult = iota
	BuzzLocked
	BuzzUnknownParticipant
	BuzzDuplicate
)

func (r BuzzResult) String() string {
	switch r {
	case BuzzAccepted:
		return "accepted"
	case BuzzLocked:
		return "locked"
	case BuzzUnknownParticipant:
		return "unknown_participant"
	case BuzzDuplicate:
		return "duplicate"
	default:
		return "invalid"
	}
}

// StartRound arms the buzzer and clears the ledger unconditionally.
// Starting while already open simply re-clears.
func (s *State) StartRound() {
	s.locked = false
	s.ledger = nil
}

// ResetRound locks the buzzer and clears the ledger unconditionally.
func (s *State) ResetRound() {
	s.locked = true
	s.ledger = nil
}

// SubmitBuzz appends a buzz entry for the participant if the round is
// open, the participant is known and connected, and it has not already
// buzzed this round. Checks run in that order; the first failure wins.
func (s *State) SubmitBuzz(id uuid.UUID) BuzzResult {
	if s.locked {
		return BuzzLocked
	}
	p, ok := s.participants[id]
	if !ok || !p.Connected {
		return BuzzUnknownParticipant
	}
	for _, e := range s.ledger {
		if e.ParticipantID == id {
			return BuzzDuplicate
		}
	}
	s.ledger = append(s.ledger, BuzzEntry{
		ParticipantID: id,
		Name:          p.Name,
		Timestamp:     s.clock.Now(),
		Order:         len(s.ledger),
	})
	return BuzzAccepted
}
