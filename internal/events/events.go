package events

import (
	"encoding/json"
	"time"
)

// Type identifies an event on the wire.
type Type string

// Inbound event types, sent by clients.
const (
	TypeJoin       Type = "join"
	TypeBuzz       Type = "buzz"
	TypeAdminStart Type = "admin_start"
	TypeAdminReset Type = "admin_reset"
	TypeAdminAward Type = "admin_awardPoints"
	TypeAdminLog   Type = "admin_logRound"
)

// Outbound event types, broadcast to clients. Every outbound payload
// carries the complete current value of its view, never a delta, so a
// client that missed any number of broadcasts is resynchronized by the
// next one.
const (
	TypeStateUpdate       Type = "stateUpdate"
	TypeParticipantUpdate Type = "participantUpdate"
	TypeBuzzReceived      Type = "buzzReceived"
	TypeRoundStarted      Type = "roundStarted"
	TypeRoundReset        Type = "roundReset"
	TypeLockStatus        Type = "lockStatus"
	TypeHistoryUpdate     Type = "historyUpdate"
)

// Event is the wire envelope for both directions.
type Event struct {
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New builds an outbound event, marshaling the payload into the
// envelope. Payloads are plain views built on the coordinator path, so
// marshaling cannot fail for any payload this package is used with; a
// marshal error yields an event with empty data.
func New(t Type, payload any) *Event {
	evt := &Event{Type: t, Timestamp: time.Now()}
	if payload == nil {
		return evt
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return evt
	}
	evt.Data = data
	return evt
}

// Parse decodes an inbound envelope.
func Parse(raw []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

// JoinPayload carries the display name for a join event.
type JoinPayload struct {
	Name string `json:"name"`
}

// AwardPayload carries a moderator point award.
type AwardPayload struct {
	TargetID string `json:"target_id"`
	Points   int    `json:"points"`
}

// LockStatusPayload carries the lock flag after an admin action.
type LockStatusPayload struct {
	Locked bool `json:"locked"`
}
