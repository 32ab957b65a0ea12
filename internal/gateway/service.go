package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/danv27/buzzroom/internal/coordinator"
)

// Service ties the connection manager, the coordinator, and the optional
// event journal into one start/stoppable unit.
type Service struct {
	connectionManager *ConnectionManager
	handler           *Handler
	coord             *coordinator.Coordinator
	journal           *Journal
}

// Config holds configuration for the gateway service.
type Config struct {
	ConnectionConfig ConnectionConfig
	JournalConfig    JournalConfig
}

// DefaultConfig returns default configuration for the gateway.
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JournalConfig:    DefaultJournalConfig(),
	}
}

// NewService creates the gateway service around a coordinator.
func NewService(config Config, coord *coordinator.Coordinator) (*Service, error) {
	journal, err := NewJournal(config.JournalConfig)
	if err != nil {
		return nil, err
	}

	connectionManager := NewConnectionManager(config.ConnectionConfig, coord, journal)

	return &Service{
		connectionManager: connectionManager,
		handler:           NewHandler(connectionManager),
		coord:             coord,
		journal:           journal,
	}, nil
}

// Start runs the coordinator loop and the broadcast loop until the
// context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting buzzer gateway service")

	go s.coord.Run(ctx)
	go s.connectionManager.Start(ctx)

	<-ctx.Done()

	log.Info().Msg("buzzer gateway service shutting down")
	s.journal.Close()
	return nil
}

// Sink exposes the connection manager as the coordinator's broadcast
// sink.
func (s *Service) Sink() coordinator.Sink {
	return s.connectionManager
}

// RegisterRoutes registers the WebSocket HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.handler.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

// Stats returns statistics about the gateway service.
func (s *Service) Stats() map[string]interface{} {
	stats := s.connectionManager.ConnectionStats()
	stats["service"] = "buzzer_gateway"
	return stats
}
