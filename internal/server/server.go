// ABOUTME: Stream server: decodes a looping stream per WebSocket client
// ABOUTME: Manages connections, handshake, client commands and shutdown
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Sendspin/loopdec/internal/discovery"
	"github.com/Sendspin/loopdec/internal/version"
	"github.com/Sendspin/loopdec/pkg/engine"
	"github.com/Sendspin/loopdec/pkg/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	DefaultChunkMs       = 20
	DefaultBufferAheadMs = 500
)

var errClientGone = errors.New("client disconnected")

// StreamFactory opens a fresh stream; every client gets its own
type StreamFactory func() (*engine.Stream, error)

// Config holds server configuration
type Config struct {
	Port          int
	Name          string
	EnableMDNS    bool
	Debug         bool
	UseTUI        bool
	Title         string // what is playing, for the TUI
	Open          StreamFactory
	LoopTarget    int // applied to every new stream; 0 loops forever
	ChunkMs       int
	BufferAheadMs int
}

// Server streams decoded audio to WebSocket clients
type Server struct {
	config   Config
	serverID string

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*Client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager

	tui *ServerTUI

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client represents a connected client
type Client struct {
	ID     string
	Name   string
	Conn   *websocket.Conn
	Format protocol.AudioFormat

	// State
	State     string
	Position  int
	LoopCount int

	sendChan chan interface{}
	commands chan protocol.ClientCommand
	done     chan struct{}

	mu sync.RWMutex
}

// New creates a new server instance
func New(config Config) *Server {
	if config.ChunkMs <= 0 {
		config.ChunkMs = DefaultChunkMs
	}
	if config.BufferAheadMs <= 0 {
		config.BufferAheadMs = DefaultBufferAheadMs
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Designed for trusted local networks only
				origin := r.Header.Get("Origin")
				if origin != "" && origin != "http://localhost" && origin != "http://127.0.0.1" {
					log.Printf("Warning: accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the WebSocket endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Stop is called, the TUI quits or the listener fails
func (s *Server) Start() error {
	if s.config.Open == nil {
		return fmt.Errorf("no stream configured")
	}

	if s.config.UseTUI {
		s.tui = NewServerTUI()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tui.Start(s.config.Name, s.config.Port, s.config.Title)
		}()

		// Give TUI time to initialize
		time.Sleep(100 * time.Millisecond)
	}

	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        protocol.Path,
			Version:     version.Version,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case <-tuiQuitChan:
		log.Printf("TUI quit requested, shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.tui != nil {
		s.tui.Stop()
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	s.closeClients()

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// closeClients drops every connection; hijacked sockets survive http.Server.Shutdown
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	hello, err := readHello(conn)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		return
	}
	if hello.ClientID == "" {
		hello.ClientID = uuid.New().String()
	}

	log.Printf("Client hello: %s (ID: %s, formats: %v)", hello.Name, hello.ClientID, hello.SupportedFormats)

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		Format:   negotiateFormat(hello.SupportedFormats),
		State:    "starting",
		sendChan: make(chan interface{}, 100),
		commands: make(chan protocol.ClientCommand, 10),
		done:     make(chan struct{}),
	}

	s.clientsMu.Lock()
	if existing, exists := s.clients[client.ID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", client.ID, existing.Name)

		data, _ := json.Marshal(protocol.Message{
			Type: protocol.TypeServerError,
			Payload: protocol.ServerError{
				Error:   "duplicate_client_id",
				Message: "Client ID already connected",
			},
		})
		conn.WriteMessage(websocket.TextMessage, data)
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	s.updateTUI()

	defer func() {
		close(client.done)
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		log.Printf("Client disconnected: %s", client.Name)
		s.updateTUI()
	}()

	serverHello := protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.ProtocolVersion,
		DeviceInfo: &protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	}
	if err := s.sendMessage(client, protocol.TypeServerHello, serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	stream, err := s.config.Open()
	if err != nil {
		log.Printf("Failed to open stream for %s: %v", client.Name, err)
		s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{
			Error:   "stream_unavailable",
			Message: err.Error(),
		})
		return
	}
	stream.SetLoopTarget(s.config.LoopTarget)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stream.Close()
		s.streamTo(client, stream)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if !s.handleClientMessage(client, data) {
			break
		}
	}
}

// readHello waits for and validates client/hello
func readHello(conn *websocket.Conn) (protocol.ClientHello, error) {
	var hello protocol.ClientHello

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return hello, fmt.Errorf("error reading hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return hello, fmt.Errorf("error unmarshaling message: %w", err)
	}
	if msg.Type != protocol.TypeClientHello {
		return hello, fmt.Errorf("expected client/hello, got %s", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, &hello); err != nil {
		return hello, fmt.Errorf("error unmarshaling client hello: %w", err)
	}
	if hello.Name == "" {
		return hello, fmt.Errorf("client hello missing Name")
	}
	return hello, nil
}

// negotiateFormat picks the first PCM depth the client accepts, 16-bit by default
func negotiateFormat(supported []protocol.AudioFormat) protocol.AudioFormat {
	for _, f := range supported {
		if f.Codec == "pcm" && (f.BitDepth == 16 || f.BitDepth == 24) {
			return protocol.AudioFormat{Codec: "pcm", BitDepth: f.BitDepth}
		}
	}
	return protocol.AudioFormat{Codec: "pcm", BitDepth: 16}
}

// clientWriter sends queued messages to the client
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case <-client.done:
			return

		case msg := <-client.sendChan:
			switch v := msg.(type) {
			case []byte:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing binary message: %v", err)
					return
				}
			default:
				data, err := json.Marshal(v)
				if err != nil {
					log.Printf("Error marshaling message: %v", err)
					continue
				}
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Printf("Error writing text message: %v", err)
					return
				}
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage processes a message; false ends the connection
func (s *Server) handleClientMessage(client *Client, data []byte) bool {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return true
	}

	switch msg.Type {
	case protocol.TypeClientCommand:
		var cmd protocol.ClientCommand
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			log.Printf("Error unmarshaling client command: %v", err)
			return true
		}
		select {
		case client.commands <- cmd:
		default:
			log.Printf("Dropping command %s from %s: queue full", cmd.Command, client.Name)
		}
	case protocol.TypeClientGoodbye:
		log.Printf("Client %s said goodbye", client.Name)
		return false
	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
	return true
}

// sendMessage queues a JSON message for a client
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	return s.queue(client, protocol.Message{Type: msgType, Payload: payload})
}

// queue waits for room in the client's send buffer
func (s *Server) queue(client *Client, msg interface{}) error {
	select {
	case client.sendChan <- msg:
		return nil
	case <-client.done:
		return errClientGone
	}
}
