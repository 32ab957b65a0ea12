package coordinator

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/danv27/buzzroom/internal/buzzer"
	"github.com/danv27/buzzroom/internal/events"
)

// Sink receives the views the coordinator emits after each mutation.
// Broadcast fans out to every connected client; SendTo targets one.
// Both are fire-and-forget: delivery is never confirmed and a dropped
// push is recovered only by the next full-value broadcast.
type Sink interface {
	Broadcast(evt *events.Event)
	SendTo(connID uuid.UUID, evt *events.Event)
}

// CommandKind discriminates coordinator commands.
type CommandKind int

const (
	CmdConnect CommandKind = iota
	CmdDisconnect
	CmdJoin
	CmdBuzz
	CmdStartRound
	CmdResetRound
	CmdAwardPoints
	CmdLogRound
)

// Command is one inbound connection event, normalized for the serial
// processing loop. Only the fields relevant to the kind are set.
type Command struct {
	Kind     CommandKind
	ConnID   uuid.UUID
	Name     string          // CmdJoin
	TargetID uuid.UUID       // CmdAwardPoints
	Points   int             // CmdAwardPoints
	Metadata json.RawMessage // CmdLogRound
}

// Coordinator owns the game state. A single goroutine drains the command
// channel and applies every mutation one at a time, so the buzz order
// assigned here is exactly the arrival order at the channel; two
// submissions racing at the network layer are deterministically ranked,
// never ambiguous.
type Coordinator struct {
	state *buzzer.State
	sink  Sink
	cmdCh chan Command
}

// New creates a coordinator around the given state and broadcast sink.
func New(state *buzzer.State, sink Sink, queueSize int) *Coordinator {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Coordinator{
		state: state,
		sink:  sink,
		cmdCh: make(chan Command, queueSize),
	}
}

// SetSink attaches the broadcast sink. The gateway constructs its
// connection manager around the coordinator, so the sink is bound after
// construction; it must be set before Run.
func (c *Coordinator) SetSink(sink Sink) {
	c.sink = sink
}

// Enqueue submits a command for serialized processing. It blocks if the
// queue is full rather than dropping: ordering matters more than
// backpressure here, and producers are per-connection read pumps.
func (c *Coordinator) Enqueue(cmd Command) {
	c.cmdCh <- cmd
}

// Run processes commands until the context is cancelled. It must be
// running for any state to change; there is no other mutation path.
func (c *Coordinator) Run(ctx context.Context) {
	log.Info().Msg("coordinator started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("coordinator shutting down")
			return
		case cmd := <-c.cmdCh:
			c.apply(cmd)
		}
	}
}

func (c *Coordinator) apply(cmd Command) {
	switch cmd.Kind {
	case CmdConnect:
		c.sink.SendTo(cmd.ConnID, events.New(events.TypeStateUpdate, c.state.Snapshot()))

	case CmdDisconnect:
		c.state.Disconnect(cmd.ConnID)
		c.sink.Broadcast(events.New(events.TypeParticipantUpdate, c.state.ActiveParticipants()))
		log.Info().Str("conn_id", cmd.ConnID.String()).Msg("participant disconnected")

	case CmdJoin:
		c.state.Join(cmd.ConnID, cmd.Name)
		c.sink.Broadcast(events.New(events.TypeParticipantUpdate, c.state.ActiveParticipants()))
		log.Info().Str("conn_id", cmd.ConnID.String()).Str("name", cmd.Name).Msg("participant joined")

	case CmdBuzz:
		result := c.state.SubmitBuzz(cmd.ConnID)
		if result != buzzer.BuzzAccepted {
			// Silent rejection: no broadcast, no error back to the client.
			log.Debug().
				Str("conn_id", cmd.ConnID.String()).
				Str("result", result.String()).
				Msg("buzz rejected")
			return
		}
		ledger := c.state.Ledger()
		c.sink.Broadcast(events.New(events.TypeBuzzReceived, ledger))
		log.Info().
			Str("conn_id", cmd.ConnID.String()).
			Int("position", len(ledger)).
			Msg("buzz accepted")

	case CmdStartRound:
		c.state.StartRound()
		c.sink.Broadcast(events.New(events.TypeRoundStarted, nil))
		c.sink.Broadcast(events.New(events.TypeLockStatus, events.LockStatusPayload{Locked: false}))
		log.Info().Msg("round started")

	case CmdResetRound:
		c.state.ResetRound()
		c.sink.Broadcast(events.New(events.TypeRoundReset, nil))
		c.sink.Broadcast(events.New(events.TypeLockStatus, events.LockStatusPayload{Locked: true}))
		log.Info().Msg("round reset")

	case CmdAwardPoints:
		if !c.state.AwardPoints(cmd.TargetID, cmd.Points) {
			log.Debug().Str("target_id", cmd.TargetID.String()).Msg("award to unknown participant ignored")
			return
		}
		c.sink.Broadcast(events.New(events.TypeParticipantUpdate, c.state.ActiveParticipants()))
		log.Info().
			Str("target_id", cmd.TargetID.String()).
			Int("points", cmd.Points).
			Msg("points awarded")

	case CmdLogRound:
		c.state.LogRound(cmd.Metadata)
		c.sink.Broadcast(events.New(events.TypeHistoryUpdate, c.state.History()))
		log.Info().Int("rounds", len(c.state.History())).Msg("round logged")
	}
}
