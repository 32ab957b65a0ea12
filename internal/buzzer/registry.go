package buzzer

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a named entrant tracked by connection identity. Entries
// are soft-deleted on disconnect so scores survive for the process
// lifetime; the registry only grows.
type Participant struct {
	ID        uuid.UUID
	Name      string
	Score     int
	Connected bool
	JoinedAt  time.Time
}

// ParticipantView is the broadcastable shape of an active participant.
type ParticipantView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Join upserts a participant for the given connection id. A re-join under
// the same id keeps the accumulated score; a new id starts at zero. Note
// that a client reconnecting over a new transport connection gets a new
// id, so scores do not survive real disconnects.
func (s *State) Join(id uuid.UUID, name string) {
	if p, ok := s.participants[id]; ok {
		p.Name = name
		p.Connected = true
		return
	}
	s.participants[id] = &Participant{
		ID:        id,
		Name:      name,
		Connected: true,
		JoinedAt:  s.clock.Now(),
	}
	s.joinOrder = append(s.joinOrder, id)
}

// Disconnect marks the participant as gone without removing it. Unknown
// ids are ignored.
func (s *State) Disconnect(id uuid.UUID) {
	if p, ok := s.participants[id]; ok {
		p.Connected = false
	}
}

// ActiveParticipants returns the connected participants in join order.
func (s *State) ActiveParticipants() []ParticipantView {
	views := make([]ParticipantView, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		p := s.participants[id]
		if !p.Connected {
			continue
		}
		views = append(views, ParticipantView{
			ID:    p.ID.String(),
			Name:  p.Name,
			Score: p.Score,
		})
	}
	return views
}

// AwardPoints adjusts a participant's score by delta, which may be
// negative and is unbounded. It reports whether the participant exists;
// awards to unknown ids are silent no-ops.
func (s *State) AwardPoints(id uuid.UUID, delta int) bool {
	p, ok := s.participants[id]
	if !ok {
		return false
	}
	p.Score += delta
	return true
}

// Participant looks up a registry entry by connection id.
func (s *State) Participant(id uuid.UUID) (*Participant, bool) {
	p, ok := s.participants[id]
	return p, ok
}
