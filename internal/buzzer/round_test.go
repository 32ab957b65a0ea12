package buzzer_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danv27/buzzroom/internal/buzzer"
)

func TestRoundLifecycle(t *testing.T) {
	t.Run("state starts locked", func(t *testing.T) {
		s := newState(t)
		assert.True(t, s.Locked())
	})

	t.Run("start opens and clears regardless of prior state", func(t *testing.T) {
		s := newState(t)
		id := uuid.New()
		s.Join(id, "Alice")

		s.StartRound()
		require.Equal(t, buzzer.BuzzAccepted, s.SubmitBuzz(id))
		require.Len(t, s.Ledger(), 1)

		// Restart mid-round: still open, ledger re-cleared.
		s.StartRound()
		assert.False(t, s.Locked())
		assert.Empty(t, s.Ledger())
	})

	t.Run("reset locks and clears regardless of prior state", func(t *testing.T) {
		s := newState(t)
		id := uuid.New()
		s.Join(id, "Alice")
		s.StartRound()
		require.Equal(t, buzzer.BuzzAccepted, s.SubmitBuzz(id))

		s.ResetRound()
		assert.True(t, s.Locked())
		assert.Empty(t, s.Ledger())

		// Reset while already locked is accepted too.
		s.ResetRound()
		assert.True(t, s.Locked())
	})
}

func TestSubmitBuzz(t *testing.T) {
	t.Run("rejected while locked", func(t *testing.T) {
		s := newState(t)
		id := uuid.New()
		s.Join(id, "Alice")

		assert.Equal(t, buzzer.BuzzLocked, s.SubmitBuzz(id))
		assert.Empty(t, s.Ledger())
	})

	t.Run("rejected for unknown participant", func(t *testing.T) {
		s := newState(t)
		s.StartRound()

		assert.Equal(t, buzzer.BuzzUnknownParticipant, s.SubmitBuzz(uuid.New()))
		assert.Empty(t, s.Ledger())
	})

	t.Run("rejected for disconnected participant", func(t *testing.T) {
		s := newState(t)
		id := uuid.New()
		s.Join(id, "Alice")
		s.Disconnect(id)
		s.StartRound()

		assert.Equal(t, buzzer.BuzzUnknownParticipant, s.SubmitBuzz(id))
	})

	t.Run("duplicate keeps the first entry", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		s := buzzer.NewState(clock)
		id := uuid.New()
		s.Join(id, "Alice")
		s.StartRound()

		require.Equal(t, buzzer.BuzzAccepted, s.SubmitBuzz(id))
		first := s.Ledger()[0]

		clock.Advance(time.Second)
		assert.Equal(t, buzzer.BuzzDuplicate, s.SubmitBuzz(id))

		ledger := s.Ledger()
		require.Len(t, ledger, 1)
		assert.Equal(t, first, ledger[0])
	})

	t.Run("same participant may buzz again after a new round", func(t *testing.T) {
		s := newState(t)
		id := uuid.New()
		s.Join(id, "Alice")
		s.StartRound()
		require.Equal(t, buzzer.BuzzAccepted, s.SubmitBuzz(id))

		s.StartRound()
		assert.Equal(t, buzzer.BuzzAccepted, s.SubmitBuzz(id))
	})

	t.Run("order is dense and follows arrival order", func(t *testing.T) {
		s := newState(t)
		ids := make([]uuid.UUID, 5)
		for i := range ids {
			ids[i] = uuid.New()
			s.Join(ids[i], string(rune('A'+i)))
		}
		s.StartRound()

		for _, id := range ids {
			require.Equal(t, buzzer.BuzzAccepted, s.SubmitBuzz(id))
		}

		ledger := s.Ledger()
		require.Len(t, ledger, len(ids))
		for i, e := range ledger {
			assert.Equal(t, i, e.Order)
			assert.Equal(t, ids[i], e.ParticipantID)
		}
	})

	t.Run("timestamps come from the injected clock", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		s := buzzer.NewState(clock)
		id := uuid.New()
		s.Join(id, "Alice")
		s.StartRound()

		require.Equal(t, buzzer.BuzzAccepted, s.SubmitBuzz(id))
		assert.Equal(t, clock.Now(), s.Ledger()[0].Timestamp)
	})
}

// The end-to-end ordering scenario: Bob beats Alice, buzzes again, and
// the second attempt changes nothing.
func TestBuzzScenario(t *testing.T) {
	s := newState(t)
	alice, bob := uuid.New(), uuid.New()
	s.Join(alice, "Alice")
	s.Join(bob, "Bob")
	s.StartRound()

	require.Equal(t, buzzer.BuzzAccepted, s.SubmitBuzz(bob))
	require.Equal(t, buzzer.BuzzAccepted, s.SubmitBuzz(alice))
	require.Equal(t, buzzer.BuzzDuplicate, s.SubmitBuzz(bob))

	ledger := s.Ledger()
	require.Len(t, ledger, 2)
	assert.Equal(t, "Bob", ledger[0].Name)
	assert.Equal(t, 0, ledger[0].Order)
	assert.Equal(t, "Alice", ledger[1].Name)
	assert.Equal(t, 1, ledger[1].Order)
}

func TestBuzzResultString(t *testing.T) {
	assert.Equal(t, "accepted", buzzer.BuzzAccepted.String())
	assert.Equal(t, "locked", buzzer.BuzzLocked.String())
	assert.Equal(t, "unknown_participant", buzzer.BuzzUnknownParticipant.String())
	assert.Equal(t, "duplicate", buzzer.BuzzDuplicate.String())
}
