// pkg/network/server.go
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-orbiter/pkg/engine"
	"github.com/opd-ai/go-orbiter/pkg/logging"
	"github.com/opd-ai/go-orbiter/pkg/validation"
)

// GoroutineTracker lets the server register its per-client goroutines
// with a resource manager. A nil tracker falls back to plain go.
type GoroutineTracker interface {
	StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error
}

// SimulationServer accepts TCP viewers, relays their flight input into
// the simulation, and broadcasts state snapshots at the configured
// update rate. It does not step the simulation; that stays with the
// host's accumulator loop.
type SimulationServer struct {
	listener     net.Listener
	sim          *engine.Simulation
	clients      map[uint64]*serverClient
	clientsLock  sync.RWMutex
	nextClientID atomic.Uint64
	running      atomic.Bool
	updateRate   time.Duration
	maxClients   int
	validator    *validation.MessageValidator
	tracker      GoroutineTracker
	logger       *logging.Logger
	done         chan struct{}
}

// serverClient is one connected viewer.
type serverClient struct {
	ID        uint64
	Name      string
	Conn      net.Conn
	LastInput time.Time

	writeMu   sync.Mutex
	connected atomic.Bool
}

// NewSimulationServer creates a server for the given simulation. The
// broadcast rate comes from the simulation's network configuration.
func NewSimulationServer(sim *engine.Simulation, maxClients int) *SimulationServer {
	updateRate := sim.Config.NetworkConfig.UpdateRate
	if updateRate <= 0 {
		updateRate = 20
	}

	return &SimulationServer{
		sim:        sim,
		clients:    make(map[uint64]*serverClient),
		updateRate: time.Second / time.Duration(updateRate),
		maxClients: maxClients,
		validator:  validation.NewMessageValidator(),
		logger:     logging.NewLogger(),
		done:       make(chan struct{}),
	}
}

// SetGoroutineTracker routes the server's goroutines through a resource
// manager. Call before Start.
func (s *SimulationServer) SetGoroutineTracker(tracker GoroutineTracker) {
	s.tracker = tracker
}

// Start binds the listener and launches the accept and broadcast loops.
func (s *SimulationServer) Start(address string) error {
	var err error
	s.listener, err = net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.running.Store(true)

	s.spawn("accept_loop", func(ctx context.Context) { s.acceptConnections() })
	s.spawn("broadcast_loop", func(ctx context.Context) { s.broadcastLoop() })

	s.logger.Info(context.Background(), "simulation server started",
		"address", s.listener.Addr().String(),
		"max_clients", s.maxClients,
	)
	return nil
}

// Stop closes every client connection and the listener.
func (s *SimulationServer) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.done)

	s.clientsLock.Lock()
	for _, client := range s.clients {
		client.connected.Store(false)
		client.Conn.Close()
	}
	s.clientsLock.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.validator.Close()

	s.logger.Info(context.Background(), "simulation server stopped")
}

// Running reports whether the server is accepting connections.
func (s *SimulationServer) Running() bool {
	return s.running.Load()
}

// ListenerAddr returns the bound listener address, or "" before Start.
func (s *SimulationServer) ListenerAddr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ClientCount returns the number of connected clients.
func (s *SimulationServer) ClientCount() int {
	s.clientsLock.RLock()
	defer s.clientsLock.RUnlock()
	return len(s.clients)
}

// spawn starts a goroutine through the tracker when one is configured.
func (s *SimulationServer) spawn(name string, fn func(context.Context)) {
	if s.tracker != nil {
		if err := s.tracker.StartGoroutine(context.Background(), name, fn); err == nil {
			return
		}
		// Tracker refused (limit reached); the connection still has to
		// be served or dropped, and dropping is handled by the caller
		// noticing a dead client, so fall through.
	}
	go fn(context.Background())
}

// acceptConnections accepts viewers until the listener closes.
func (s *SimulationServer) acceptConnections() {
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.logger.Warn(context.Background(), "error accepting connection", "error", err)
			}
			continue
		}

		s.clientsLock.RLock()
		full := len(s.clients) >= s.maxClients
		s.clientsLock.RUnlock()

		if full {
			s.logger.Warn(context.Background(), "rejecting connection, server full",
				"max_clients", s.maxClients,
			)
			conn.Close()
			continue
		}

		c := conn
		s.spawn("client_session", func(ctx context.Context) { s.handleConnection(c) })
	}
}

// handleConnection performs the hello/welcome handshake and then serves
// the client until it disconnects.
func (s *SimulationServer) handleConnection(conn net.Conn) {
	defer conn.Close()
	ctx := context.Background()

	msgType, data, err := readFrame(conn)
	if err != nil {
		s.logger.Warn(ctx, "error reading hello", "error", err)
		return
	}
	if msgType != HelloRequest {
		s.logger.Warn(ctx, "expected hello request", "got", msgType)
		return
	}

	var hello HelloMessage
	if err := json.Unmarshal(data, &hello); err != nil {
		s.logger.Warn(ctx, "error parsing hello", "error", err)
		return
	}

	name, err := validation.ValidateClientName(hello.ClientName)
	if err != nil {
		s.writeTo(&serverClient{Conn: conn}, HelloResponse, WelcomeMessage{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	client := &serverClient{
		ID:        s.nextClientID.Add(1),
		Name:      name,
		Conn:      conn,
		LastInput: time.Now(),
	}
	client.connected.Store(true)

	s.clientsLock.Lock()
	s.clients[client.ID] = client
	s.clientsLock.Unlock()

	s.writeTo(client, HelloResponse, WelcomeMessage{
		Success:    true,
		ClientID:   client.ID,
		UpdateRate: int(time.Second / s.updateRate),
	})

	// Ship the current state right away so the viewer has something to
	// draw before the first broadcast tick.
	s.writeTo(client, StateUpdate, s.sim.GetState())

	s.logger.Info(ctx, "client connected", "client_id", client.ID, "client_name", name)

	s.serveClient(client)
}

// serveClient processes messages from one client until it disconnects.
func (s *SimulationServer) serveClient(client *serverClient) {
	clientKey := fmt.Sprintf("%d", client.ID)

	for client.connected.Load() && s.running.Load() {
		msgType, data, err := readFrame(client.Conn)
		if err != nil {
			if err != io.EOF && s.running.Load() {
				s.logger.Warn(context.Background(), "error reading from client",
					"client_id", client.ID, "error", err)
			}
			break
		}

		if err := s.validator.ValidateMessage(data, clientKey); err != nil {
			s.logger.Warn(context.Background(), "rejected client message",
				"client_id", client.ID, "error", err)
			continue
		}

		switch msgType {
		case InputCommand:
			s.handleInput(client, data)

		case ControlCommand:
			s.handleControl(client, data)

		case PingRequest:
			s.writeTo(client, PingResponse, json.RawMessage(data))

		case GoodbyeNotification:
			s.logger.Info(context.Background(), "client disconnecting", "client_id", client.ID)
			client.connected.Store(false)

		default:
			s.logger.Warn(context.Background(), "unknown message type",
				"client_id", client.ID, "type", msgType)
		}
	}

	s.removeClient(client)
}

// handleInput applies a validated flight input to the simulation.
func (s *SimulationServer) handleInput(client *serverClient, data []byte) {
	var input InputMessage
	if err := json.Unmarshal(data, &input); err != nil {
		s.logger.Warn(context.Background(), "error parsing input", "client_id", client.ID, "error", err)
		return
	}

	if err := validation.ValidateRotationInput(input.Rotate); err != nil {
		s.logger.Warn(context.Background(), "rejected rotation input", "client_id", client.ID, "error", err)
		return
	}
	if err := validation.ValidateThrustInput(input.Thrust); err != nil {
		s.logger.Warn(context.Background(), "rejected thrust input", "client_id", client.ID, "error", err)
		return
	}

	client.LastInput = time.Now()

	if input.Rotate != 0 {
		s.sim.RotateThrustDirection(input.Rotate)
	}
	s.sim.SetThrustMagnitude(input.Thrust)
}

// handleControl applies a validated control command to the simulation.
func (s *SimulationServer) handleControl(client *serverClient, data []byte) {
	var control ControlMessage
	if err := json.Unmarshal(data, &control); err != nil {
		s.logger.Warn(context.Background(), "error parsing control", "client_id", client.ID, "error", err)
		return
	}

	switch control.Action {
	case ControlRefuel:
		if err := validation.ValidateRefuelAmount(control.Amount); err != nil {
			s.logger.Warn(context.Background(), "rejected refuel", "client_id", client.ID, "error", err)
			return
		}
		s.sim.Refuel(control.Amount)

	case ControlRecover:
		s.sim.RecoverFromCrash()

	case ControlReset:
		s.sim.Reset()

	case ControlSpeed:
		if err := validation.ValidateSpeedMultiplier(control.Multiplier); err != nil {
			s.logger.Warn(context.Background(), "rejected speed multiplier", "client_id", client.ID, "error", err)
			return
		}
		s.sim.SetSpeedMultiplier(control.Multiplier)

	default:
		s.logger.Warn(context.Background(), "unknown control action",
			"client_id", client.ID, "action", control.Action)
	}
}

// removeClient drops a client from the broadcast set.
func (s *SimulationServer) removeClient(client *serverClient) {
	client.connected.Store(false)

	s.clientsLock.Lock()
	delete(s.clients, client.ID)
	s.clientsLock.Unlock()

	s.logger.Info(context.Background(), "client removed", "client_id", client.ID)
}

// broadcastLoop ships a state snapshot to every client at the update
// rate.
func (s *SimulationServer) broadcastLoop() {
	ticker := time.NewTicker(s.updateRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		state := s.sim.GetState()

		s.clientsLock.RLock()
		clients := make([]*serverClient, 0, len(s.clients))
		for _, client := range s.clients {
			clients = append(clients, client)
		}
		s.clientsLock.RUnlock()

		for _, client := range clients {
			if client.connected.Load() {
				s.writeTo(client, StateUpdate, state)
			}
		}
	}
}

// writeTo sends one framed message to a client, serializing writes so
// the broadcast loop and reply paths cannot interleave frames.
func (s *SimulationServer) writeTo(client *serverClient, msgType MessageType, msg interface{}) {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	defer client.Conn.SetWriteDeadline(time.Time{})

	if err := writeFrame(client.Conn, msgType, msg); err != nil {
		if s.running.Load() && client.connected.Load() {
			s.logger.Warn(context.Background(), "error writing to client",
				"client_id", client.ID, "error", err)
		}
		client.connected.Store(false)
	}
}
