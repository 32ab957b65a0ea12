package buzzer

import "encoding/json"

// RoundRecord is an immutable snapshot of a completed round: the buzz
// order by name plus whatever metadata the moderator attached (question
// text, answer, etc).
type RoundRecord struct {
	LoggedAt string          `json:"logged_at"`
	Winners  []string        `json:"winners"`
	Data     json.RawMessage `json:"data"`
}

// LogRound appends a record of the current ledger to the round history.
// Logging is independent of resetting: the ledger and lock status are
// left untouched.
func (s *State) LogRound(data json.RawMessage) {
	winners := make([]string, len(s.ledger))
	for i, e := range s.ledger {
		winners[i] = e.Name
	}
	s.history = append(s.history, RoundRecord{
		LoggedAt: s.clock.Now().Format("15:04:05"),
		Winners:  winners,
		Data:     data,
	})
}

// History returns a copy of the append-only round history.
func (s *State) History() []RoundRecord {
	out := make([]RoundRecord, len(s.history))
	copy(out, s.history)
	return out
}
