// pkg/network/client.go
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/go-orbiter/pkg/config"
	"github.com/opd-ai/go-orbiter/pkg/engine"
	"github.com/opd-ai/go-orbiter/pkg/event"
)

// Client event types published on the client's event bus.
const (
	ClientDisconnected    event.Type = "client_disconnected"
	ClientReconnected     event.Type = "client_reconnected"
	ClientReconnectFailed event.Type = "client_reconnect_failed"
)

// SimulationClient maintains a session with a SimulationServer: it
// dials through the circuit breaker, feeds received state snapshots
// into a channel, and exposes send helpers for flight input and
// control commands.
type SimulationClient struct {
	conn           net.Conn
	clientID       uint64
	clientName     string
	serverAddress  string
	connected      bool
	receivedStates chan *engine.SimulationState
	eventBus       *event.Bus
	service        *NetworkService
	mu             sync.Mutex

	// writeMu serializes frame writes so the ping loop and command
	// senders cannot interleave frames. Never taken while holding c.mu.
	writeMu sync.Mutex

	latency              time.Duration
	lastPingTime         time.Time
	pingInterval         time.Duration
	reconnectDelay       time.Duration
	reconnectAttempts    int
	maxReconnectAttempts int

	ctx               context.Context
	cancel            context.CancelFunc
	connectionTimeout time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
}

// NewSimulationClient creates a client publishing connection events on
// the given bus. Timeouts and breaker thresholds come from ORBITER_*
// environment variables, with safe defaults when unset.
func NewSimulationClient(eventBus *event.Bus) *SimulationClient {
	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		envConfig = &config.EnvironmentConfig{
			ReadTimeout:                       30 * time.Second,
			WriteTimeout:                      30 * time.Second,
			CircuitBreakerMaxRequests:         3,
			CircuitBreakerInterval:            60 * time.Second,
			CircuitBreakerTimeout:             30 * time.Second,
			CircuitBreakerMaxConsecutiveFails: 5,
		}
	}

	return &SimulationClient{
		receivedStates:       make(chan *engine.SimulationState, 10),
		eventBus:             eventBus,
		service:              NewNetworkService(envConfig),
		pingInterval:         5 * time.Second,
		reconnectDelay:       3 * time.Second,
		maxReconnectAttempts: 5,
		connectionTimeout:    30 * time.Second,
		readTimeout:          envConfig.ReadTimeout,
		writeTimeout:         envConfig.WriteTimeout,
	}
}

// Connect establishes a session with the server, retrying through the
// circuit breaker before giving up.
func (c *SimulationClient) Connect(address, clientName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.prepareConnection(address, clientName)

	err := c.service.ExecuteWithRetry(c.ctx, func() error {
		if err := c.establishTCPConnection(address); err != nil {
			return err
		}
		return c.performHandshake(clientName)
	})
	if err != nil {
		return err
	}

	c.startBackgroundProcesses()
	return nil
}

// prepareConnection closes any previous connection and records the
// session parameters for reconnects.
func (c *SimulationClient) prepareConnection(address, clientName string) {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.serverAddress = address
	c.clientName = clientName
}

// establishTCPConnection dials the server with the connection timeout.
func (c *SimulationClient) establishTCPConnection(address string) error {
	ctx, cancel := context.WithTimeout(c.ctx, c.connectionTimeout)
	defer cancel()

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	c.conn = conn
	return nil
}

// performHandshake sends the hello and processes the welcome.
func (c *SimulationClient) performHandshake(clientName string) error {
	if err := c.sendHello(clientName); err != nil {
		return err
	}
	return c.processWelcome()
}

// sendHello introduces the client to the server.
func (c *SimulationClient) sendHello(clientName string) error {
	hello := HelloMessage{ClientName: clientName}

	if err := c.writeLocked(HelloRequest, hello); err != nil {
		c.cleanupConnection()
		return fmt.Errorf("failed to send hello: %w", err)
	}
	return nil
}

// processWelcome reads and validates the server's welcome reply.
func (c *SimulationClient) processWelcome() error {
	ctx, cancel := context.WithTimeout(c.ctx, c.connectionTimeout)
	defer cancel()

	msgType, data, err := c.readMessage(ctx)
	if err != nil {
		c.cleanupConnection()
		return fmt.Errorf("failed to read welcome: %w", err)
	}
	if msgType != HelloResponse {
		c.cleanupConnection()
		return fmt.Errorf("unexpected response type: %d", msgType)
	}

	var welcome WelcomeMessage
	if err := json.Unmarshal(data, &welcome); err != nil {
		c.cleanupConnection()
		return fmt.Errorf("failed to parse welcome: %w", err)
	}
	if !welcome.Success {
		c.cleanupConnection()
		return fmt.Errorf("server rejected connection: %s", welcome.Error)
	}

	c.clientID = welcome.ClientID
	c.connected = true
	return nil
}

// startBackgroundProcesses launches the read and ping loops.
func (c *SimulationClient) startBackgroundProcesses() {
	go c.messageLoop()
	go c.pingLoop()
}

// cleanupConnection closes the connection and cancels in-flight
// operations. Callers must hold c.mu.
func (c *SimulationClient) cleanupConnection() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Disconnect ends the session gracefully. The goodbye is sent before
// c.mu is taken; sendMessageWithContext acquires it to snapshot the
// connection.
func (c *SimulationClient) Disconnect() error {
	c.mu.Lock()
	connected := c.connected
	ctx := c.ctx
	c.mu.Unlock()

	if !connected {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	c.sendMessageWithContext(sendCtx, GoodbyeNotification, nil)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupConnection()
	return nil
}

// Connected reports whether the session is up.
func (c *SimulationClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SendInput sends one tick's flight input: a thrust-vector rotation in
// radians and a normalized thrust magnitude.
func (c *SimulationClient) SendInput(rotate, thrust float64) error {
	if !c.Connected() {
		return errors.New("not connected")
	}
	return c.sendMessage(InputCommand, InputMessage{Rotate: rotate, Thrust: thrust})
}

// Refuel requests a fuel top-up.
func (c *SimulationClient) Refuel(amount float64) error {
	return c.sendControl(ControlMessage{Action: ControlRefuel, Amount: amount})
}

// RecoverFromCrash requests crash recovery.
func (c *SimulationClient) RecoverFromCrash() error {
	return c.sendControl(ControlMessage{Action: ControlRecover})
}

// ResetSimulation requests a scene reset.
func (c *SimulationClient) ResetSimulation() error {
	return c.sendControl(ControlMessage{Action: ControlReset})
}

// SetSpeedMultiplier requests a simulated time scale.
func (c *SimulationClient) SetSpeedMultiplier(multiplier float64) error {
	return c.sendControl(ControlMessage{Action: ControlSpeed, Multiplier: multiplier})
}

func (c *SimulationClient) sendControl(msg ControlMessage) error {
	if !c.Connected() {
		return errors.New("not connected")
	}
	return c.sendMessage(ControlCommand, msg)
}

// GetLatency returns the last measured round-trip time to the server.
func (c *SimulationClient) GetLatency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

// States returns the channel delivering state snapshots from the
// server. Snapshots are dropped, not queued, when the consumer lags.
func (c *SimulationClient) States() <-chan *engine.SimulationState {
	return c.receivedStates
}

// messageLoop handles incoming frames until the session ends.
func (c *SimulationClient) messageLoop() {
	for c.Connected() {
		ctx, cancel := context.WithTimeout(c.ctx, c.readTimeout)
		msgType, data, err := c.readMessage(ctx)
		cancel()

		if err != nil {
			if c.Connected() && err != context.DeadlineExceeded && err != context.Canceled {
				c.handleDisconnect(err)
			}
			return
		}

		switch msgType {
		case StateUpdate:
			c.handleStateUpdate(data)

		case PingResponse:
			c.handlePingResponse(data)

		default:
			// Ignore unknown message types.
		}
	}
}

// handleStateUpdate parses a snapshot and hands it to the consumer.
func (c *SimulationClient) handleStateUpdate(data []byte) {
	var state engine.SimulationState
	if err := json.Unmarshal(data, &state); err != nil {
		return
	}

	select {
	case c.receivedStates <- &state:
	default:
		// Consumer is behind; drop this snapshot.
	}
}

// handlePingResponse computes latency from the echoed timestamp.
func (c *SimulationClient) handlePingResponse(data []byte) {
	var pingTime time.Time
	if err := json.Unmarshal(data, &pingTime); err != nil {
		return
	}

	c.mu.Lock()
	c.latency = time.Since(pingTime)
	c.mu.Unlock()
}

// pingLoop periodically measures round-trip latency.
func (c *SimulationClient) pingLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for c.Connected() {
		<-ticker.C

		c.mu.Lock()
		c.lastPingTime = time.Now()
		ping := c.lastPingTime
		c.mu.Unlock()

		c.sendMessage(PingRequest, ping)
	}
}

// handleDisconnect reacts to an unexpected connection loss.
func (c *SimulationClient) handleDisconnect(err error) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if !wasConnected {
		return
	}

	c.eventBus.Publish(&event.BaseEvent{
		EventType: ClientDisconnected,
		Source:    c,
	})

	go c.attemptReconnect()
}

// attemptReconnect retries the session with the stored parameters.
func (c *SimulationClient) attemptReconnect() {
	c.reconnectAttempts = 0

	for c.reconnectAttempts < c.maxReconnectAttempts {
		c.reconnectAttempts++
		time.Sleep(c.reconnectDelay)

		if err := c.Connect(c.serverAddress, c.clientName); err == nil {
			c.eventBus.Publish(&event.BaseEvent{
				EventType: ClientReconnected,
				Source:    c,
			})
			return
		}
	}

	c.eventBus.Publish(&event.BaseEvent{
		EventType: ClientReconnectFailed,
		Source:    c,
	})
}

// readResult carries the outcome of one asynchronous frame read.
type readResult struct {
	msgType MessageType
	data    []byte
	err     error
}

// readMessage reads one frame, honoring the context deadline by
// forcing the connection closed when it expires.
func (c *SimulationClient) readMessage(ctx context.Context) (MessageType, []byte, error) {
	c.setReadDeadline(ctx)
	defer c.conn.SetReadDeadline(time.Time{})

	resultChan := make(chan readResult, 1)
	go c.executeRead(resultChan)

	select {
	case result := <-resultChan:
		return result.msgType, result.data, result.err
	case <-ctx.Done():
		c.conn.Close()
		return 0, nil, ctx.Err()
	}
}

// setReadDeadline applies the context deadline or the configured
// fallback timeout.
func (c *SimulationClient) setReadDeadline(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
	} else {
		c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
}

// executeRead performs the blocking frame read with panic recovery.
func (c *SimulationClient) executeRead(resultChan chan readResult) {
	defer func() {
		if r := recover(); r != nil {
			resultChan <- readResult{err: fmt.Errorf("panic during read: %v", r)}
		}
	}()

	msgType, data, err := readFrame(c.conn)
	resultChan <- readResult{msgType: msgType, data: data, err: err}
}

// sendMessage sends one frame using the client's session context.
func (c *SimulationClient) sendMessage(msgType MessageType, msg interface{}) error {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return c.sendMessageWithContext(ctx, msgType, msg)
}

// sendMessageWithContext sends one frame under an explicit context.
// c.mu is held only to snapshot the connection; the write itself runs
// under writeMu so graceful disconnect cannot deadlock against it.
func (c *SimulationClient) sendMessageWithContext(ctx context.Context, msgType MessageType, msg interface{}) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return errors.New("not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.setWriteDeadline(ctx, conn)
	defer conn.SetWriteDeadline(time.Time{})

	resultChan := make(chan error, 1)
	go c.executeWrite(resultChan, conn, msgType, msg)

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}
}

// writeLocked sends one frame while c.mu is already held, used during
// the handshake before the session counts as connected.
func (c *SimulationClient) writeLocked(msgType MessageType, msg interface{}) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	defer c.conn.SetWriteDeadline(time.Time{})

	return writeFrame(c.conn, msgType, msg)
}

// setWriteDeadline applies the context deadline or the configured
// fallback timeout.
func (c *SimulationClient) setWriteDeadline(ctx context.Context, conn net.Conn) {
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
}

// executeWrite performs the blocking frame write with panic recovery.
func (c *SimulationClient) executeWrite(resultChan chan error, conn net.Conn, msgType MessageType, msg interface{}) {
	defer func() {
		if r := recover(); r != nil {
			resultChan <- fmt.Errorf("panic during write: %v", r)
		}
	}()

	resultChan <- writeFrame(conn, msgType, msg)
}
