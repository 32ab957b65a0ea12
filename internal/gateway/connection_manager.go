package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/danv27/buzzroom/internal/coordinator"
	"github.com/danv27/buzzroom/internal/events"
)

// ConnectionManager owns the WebSocket connection pool for the game.
// There is one flat pool: the service coordinates a single competition.
// It implements coordinator.Sink, so every state mutation fans out from
// the coordinator through the broadcast channel processed here.
type ConnectionManager struct {
	connections map[uuid.UUID]*Connection
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	coord    *coordinator.Coordinator
	journal  *Journal

	broadcastCh chan broadcastMessage
}

// Connection represents one WebSocket client.
type Connection struct {
	ID      uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds WebSocket tuning knobs.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	evt    *events.Event
	connID uuid.UUID // zero value means all connections
}

// DefaultConnectionConfig returns the default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a connection manager wired to the
// coordinator. The journal may be nil when no event mirror is
// configured.
func NewConnectionManager(config ConnectionConfig, coord *coordinator.Coordinator, journal *Journal) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[uuid.UUID]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		coord:       coord,
		journal:     journal,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// Start processes outbound broadcasts until the context is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Broadcast implements coordinator.Sink: fan a full-value view out to
// every connected client. Drops the message when the channel is full;
// the next broadcast of the same view resynchronizes clients.
func (cm *ConnectionManager) Broadcast(evt *events.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{evt: evt}:
	default:
		log.Warn().Str("event_type", string(evt.Type)).Msg("broadcast channel full, dropping message")
	}
}

// SendTo implements coordinator.Sink: push a view to a single client,
// used for the connect-time state snapshot.
func (cm *ConnectionManager) SendTo(connID uuid.UUID, evt *events.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{evt: evt, connID: connID}:
	default:
		log.Warn().
			Str("event_type", string(evt.Type)).
			Str("conn_id", connID.String()).
			Msg("broadcast channel full, dropping targeted message")
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket, issues the
// connection its identity, and hands the connect event to the
// coordinator so the client receives its initial state snapshot.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	cm.coord.Enqueue(coordinator.Command{Kind: coordinator.CmdConnect, ConnID: connection.ID})

	log.Info().
		Str("conn_id", connection.ID.String()).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn.ID] = conn

	log.Debug().
		Str("conn_id", conn.ID.String()).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn.ID]; exists {
		delete(cm.connections, conn.ID)
		close(conn.Send)

		log.Info().
			Str("conn_id", conn.ID.String()).
			Int("total_connections", len(cm.connections)).
			Msg("connection unregistered")
	}
}

func (cm *ConnectionManager) handleBroadcast(message broadcastMessage) {
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for _, conn := range cm.connections {
		if message.connID != uuid.Nil && conn.ID != message.connID {
			continue
		}
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	data, err := json.Marshal(message.evt)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Connection is slow/dead, close it
			log.Warn().
				Str("conn_id", conn.ID.String()).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	if message.connID == uuid.Nil && cm.journal != nil {
		cm.journal.Publish(message.evt)
	}

	log.Debug().
		Str("event_type", string(message.evt.Type)).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// ConnectionStats returns counts for the stats endpoint.
func (cm *ConnectionManager) ConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return map[string]interface{}{
		"total_connections": len(cm.connections),
	}
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("conn_id", c.ID.String()).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("conn_id", c.ID.String()).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump reads client events and funnels them into the coordinator.
// When the pump exits for any reason the participant is soft-deleted via
// a disconnect command.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.coord.Enqueue(coordinator.Command{Kind: coordinator.CmdDisconnect, ConnID: c.ID})
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("conn_id", c.ID.String()).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage parses one inbound frame and enqueues the matching
// coordinator command. Malformed frames and unknown event types are
// logged and dropped; they never disturb game state.
func (c *Connection) handleClientMessage(message []byte) {
	evt, err := events.Parse(message)
	if err != nil {
		log.Warn().
			Err(err).
			Str("conn_id", c.ID.String()).
			Msg("dropping malformed client message")
		return
	}

	switch evt.Type {
	case events.TypeJoin:
		var payload events.JoinPayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.Name == "" {
			log.Warn().Str("conn_id", c.ID.String()).Msg("dropping join with bad payload")
			return
		}
		c.Manager.coord.Enqueue(coordinator.Command{
			Kind:   coordinator.CmdJoin,
			ConnID: c.ID,
			Name:   payload.Name,
		})

	case events.TypeBuzz:
		c.Manager.coord.Enqueue(coordinator.Command{Kind: coordinator.CmdBuzz, ConnID: c.ID})

	case events.TypeAdminStart:
		c.Manager.coord.Enqueue(coordinator.Command{Kind: coordinator.CmdStartRound, ConnID: c.ID})

	case events.TypeAdminReset:
		c.Manager.coord.Enqueue(coordinator.Command{Kind: coordinator.CmdResetRound, ConnID: c.ID})

	case events.TypeAdminAward:
		var payload events.AwardPayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil {
			log.Warn().Str("conn_id", c.ID.String()).Msg("dropping award with bad payload")
			return
		}
		targetID, err := uuid.Parse(payload.TargetID)
		if err != nil {
			log.Warn().Str("conn_id", c.ID.String()).Str("target_id", payload.TargetID).Msg("dropping award with bad target id")
			return
		}
		c.Manager.coord.Enqueue(coordinator.Command{
			Kind:     coordinator.CmdAwardPoints,
			ConnID:   c.ID,
			TargetID: targetID,
			Points:   payload.Points,
		})

	case events.TypeAdminLog:
		c.Manager.coord.Enqueue(coordinator.Command{
			Kind:     coordinator.CmdLogRound,
			ConnID:   c.ID,
			Metadata: evt.Data,
		})

	default:
		log.Debug().
			Str("conn_id", c.ID.String()).
			Str("event_type", string(evt.Type)).
			Msg("ignoring unknown client event")
	}
}
