package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/amuresan/transalpina-live/internal/observability"
	"github.com/amuresan/transalpina-live/pkg/logger"
)

// Message types pushed to dashboard clients.
const (
	MessageTypeFullState     = "full_state"     // complete view state, sent on connect
	MessageTypeViewState     = "view_state"     // view-state slice changed
	MessageTypeWeatherUpdate = "weather_update" // new weather snapshot
	MessageTypeMapCommand    = "map_command"    // imperative command for the map widget
)

// Message represents a WebSocket message.
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Client represents one connected dashboard.
type Client struct {
	conn   *websocket.Conn
	send   chan *Message
	server *Server
	mu     sync.Mutex
	closed bool
}

// Server is the WebSocket hub: it tracks clients and fans broadcasts out to
// them. Slow clients are dropped rather than allowed to back up the hub.
type Server struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	upgrader   websocket.Upgrader
	metrics    *observability.Metrics
	logger     *logger.Logger
	mu         sync.RWMutex

	// onConnect, when set, produces the messages sent to each client right
	// after registration (the full-state sync plus the map replay).
	onConnect func() []*Message
}

// NewServer creates a new WebSocket hub.
func NewServer(metrics *observability.Metrics, log *logger.Logger) *Server {
	return &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 16),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		metrics: metrics,
		logger:  log.Named("web-socket"),
	}
}

// SetConnectHandler sets the producer for the initial messages each newly
// connected client receives, in order.
func (s *Server) SetConnectHandler(fn func() []*Message) {
	s.onConnect = fn
}

// Run starts the hub loop. Call in its own goroutine.
func (s *Server) Run() {
	s.logger.Info("Starting WebSocket hub")

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			count := len(s.clients)
			s.mu.Unlock()
			if s.metrics != nil {
				s.metrics.ConnectedWS.Set(float64(count))
			}
			s.logger.Debug("Client registered", logger.Int("client_count", count))

			if s.onConnect != nil {
				for _, msg := range s.onConnect() {
					if msg != nil {
						client.SendMessage(msg)
					}
				}
			}

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.mu.Lock()
				client.closed = true
				client.mu.Unlock()
				close(client.send)
			}
			count := len(s.clients)
			s.mu.Unlock()
			if s.metrics != nil {
				s.metrics.ConnectedWS.Set(float64(count))
			}
			s.logger.Debug("Client unregistered", logger.Int("client_count", count))

		case message := <-s.broadcast:
			s.mu.RLock()
			var stale []*Client
			for client := range s.clients {
				client.mu.Lock()
				closed := client.closed
				client.mu.Unlock()
				if closed {
					stale = append(stale, client)
					continue
				}

				select {
				case client.send <- message:
				default:
					// Send buffer full; the client is too slow to keep.
					stale = append(stale, client)
				}
			}
			s.mu.RUnlock()

			if len(stale) > 0 {
				s.dropClients(stale)
			}
		}
	}
}

func (s *Server) dropClients(clients []*Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, client := range clients {
		if _, ok := s.clients[client]; ok {
			delete(s.clients, client)
			client.mu.Lock()
			if !client.closed {
				client.closed = true
				close(client.send)
			}
			client.mu.Unlock()
		}
	}
	if s.metrics != nil {
		s.metrics.ConnectedWS.Set(float64(len(s.clients)))
	}
}

// HandleConnection upgrades an HTTP request and registers the client.
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			logger.Error(err),
			logger.String("remote_addr", r.RemoteAddr))
		return
	}

	s.logger.Debug("WebSocket client connected",
		logger.String("remote_addr", r.RemoteAddr))

	client := &Client{
		conn:   conn,
		send:   make(chan *Message, 64),
		server: s,
	}

	s.register <- client

	go client.readPump()
	go client.writePump()
}

// Broadcast sends a message to all connected clients.
func (s *Server) Broadcast(message *Message) {
	s.broadcast <- message
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// readPump drains the connection. The dashboard protocol is server-push only;
// inbound frames are logged and discarded, and a read error unregisters the
// client.
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			return
		}

		var message Message
		if err := json.Unmarshal(payload, &message); err != nil {
			c.server.logger.Warn("Discarding malformed WebSocket message", logger.Error(err))
			continue
		}
		c.server.logger.Debug("Ignoring inbound WebSocket message",
			logger.String("type", message.Type))
	}
}

// writePump serializes messages from the hub onto the connection.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		data, err := json.Marshal(message)
		if err != nil {
			c.server.logger.Error("Failed to marshal message", logger.Error(err))
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// SendMessage sends a message to this specific client. Returns false when the
// client is closed or its buffer is full.
func (c *Client) SendMessage(message *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}
