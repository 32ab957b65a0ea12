package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/danv27/buzzroom/internal/events"
)

// JournalConfig holds the NATS event mirror configuration.
type JournalConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultJournalConfig returns the default journal configuration. The
// empty URL means the journal is disabled.
func DefaultJournalConfig() JournalConfig {
	return JournalConfig{
		SubjectPrefix: "buzzer.events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Journal mirrors every outbound broadcast onto a NATS subject so
// external consumers (scoreboards, audit tooling) can follow the game
// without holding a WebSocket. Publishing is fire-and-forget, matching
// the broadcast contract: a failed publish is logged and lost.
type Journal struct {
	nc     *nats.Conn
	config JournalConfig
}

// NewJournal connects to NATS. Returns (nil, nil) when no URL is
// configured so callers can wire the journal unconditionally.
func NewJournal(config JournalConfig) (*Journal, error) {
	if config.URL == "" {
		return nil, nil
	}

	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().Str("url", config.URL).Str("prefix", config.SubjectPrefix).Msg("event journal connected")
	return &Journal{nc: nc, config: config}, nil
}

// Publish mirrors one event to <prefix>.<eventType>.
func (j *Journal) Publish(evt *events.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for journal")
		return
	}

	subject := j.Subject(evt.Type)
	if err := j.nc.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("journal publish failed, event dropped")
	}
}

// Subject returns the NATS subject for an event type.
func (j *Journal) Subject(t events.Type) string {
	return j.config.SubjectPrefix + "." + string(t)
}

// Close drains the NATS connection.
func (j *Journal) Close() {
	if j != nil && j.nc != nil {
		j.nc.Close()
	}
}
