package buzzer_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danv27/buzzroom/internal/buzzer"
)

func newState(t *testing.T) *buzzer.State {
	t.Helper()
	return buzzer.NewState(clockwork.NewFakeClock())
}

func TestJoin(t *testing.T) {
	t.Run("new participant starts at zero", func(t *testing.T) {
		s := newState(t)
		id := uuid.New()

		s.Join(id, "Alice")

		p, ok := s.Participant(id)
		require.True(t, ok)
		assert.Equal(t, "Alice", p.Name)
		assert.Equal(t, 0, p.Score)
		assert.True(t, p.Connected)
	})

	t.Run("rejoin with same id keeps score", func(t *testing.T) {
		s := newState(t)
		id := uuid.New()

		s.Join(id, "Alice")
		require.True(t, s.AwardPoints(id, 3))
		s.Disconnect(id)

		s.Join(id, "Alice")

		p, ok := s.Participant(id)
		require.True(t, ok)
		assert.Equal(t, 3, p.Score)
		assert.True(t, p.Connected)
	})

	t.Run("rejoin with new id starts fresh", func(t *testing.T) {
		s := newState(t)
		oldID := uuid.New()

		s.Join(oldID, "Alice")
		require.True(t, s.AwardPoints(oldID, 5))
		s.Disconnect(oldID)

		newID := uuid.New()
		s.Join(newID, "Alice")

		p, ok := s.Participant(newID)
		require.True(t, ok)
		assert.Equal(t, 0, p.Score)

		// The old entry survives for audit, disconnected.
		old, ok := s.Participant(oldID)
		require.True(t, ok)
		assert.Equal(t, 5, old.Score)
		assert.False(t, old.Connected)
	})

	t.Run("rejoin may change display name", func(t *testing.T) {
		s := newState(t)
		id := uuid.New()

		s.Join(id, "Alice")
		s.Join(id, "Alicia")

		p, _ := s.Participant(id)
		assert.Equal(t, "Alicia", p.Name)
	})
}

func TestDisconnect(t *testing.T) {
	t.Run("unknown id is a no-op", func(t *testing.T) {
		s := newState(t)
		s.Disconnect(uuid.New())
		assert.Empty(t, s.ActiveParticipants())
	})

	t.Run("soft deletes only the target", func(t *testing.T) {
		s := newState(t)
		alice, bob := uuid.New(), uuid.New()
		s.Join(alice, "Alice")
		s.Join(bob, "Bob")

		s.Disconnect(alice)

		active := s.ActiveParticipants()
		require.Len(t, active, 1)
		assert.Equal(t, "Bob", active[0].Name)
	})
}

func TestActiveParticipants(t *testing.T) {
	t.Run("join order is preserved", func(t *testing.T) {
		s := newState(t)
		ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
		names := []string{"Alice", "Bob", "Carol"}
		for i, id := range ids {
			s.Join(id, names[i])
		}

		active := s.ActiveParticipants()
		require.Len(t, active, 3)
		for i, v := range active {
			assert.Equal(t, names[i], v.Name)
			assert.Equal(t, ids[i].String(), v.ID)
		}
	})

	t.Run("disconnected participants are excluded", func(t *testing.T) {
		s := newState(t)
		alice, bob := uuid.New(), uuid.New()
		s.Join(alice, "Alice")
		s.Join(bob, "Bob")
		s.Disconnect(bob)

		active := s.ActiveParticipants()
		require.Len(t, active, 1)
		assert.Equal(t, "Alice", active[0].Name)
	})
}

func TestAwardPoints(t *testing.T) {
	t.Run("accumulates and may go negative", func(t *testing.T) {
		s := newState(t)
		id := uuid.New()
		s.Join(id, "Alice")

		require.True(t, s.AwardPoints(id, 10))
		require.True(t, s.AwardPoints(id, -25))

		p, _ := s.Participant(id)
		assert.Equal(t, -15, p.Score)
	})

	t.Run("unknown id reports false", func(t *testing.T) {
		s := newState(t)
		assert.False(t, s.AwardPoints(uuid.New(), 1))
	})

	t.Run("score survives disconnect", func(t *testing.T) {
		s := newState(t)
		id := uuid.New()
		s.Join(id, "Alice")
		require.True(t, s.AwardPoints(id, 2))
		s.Disconnect(id)

		require.True(t, s.AwardPoints(id, 2))
		p, _ := s.Participant(id)
		assert.Equal(t, 4, p.Score)
	})
}
