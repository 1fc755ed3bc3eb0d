// Package server exposes the game engine over WebSocket. Each client
// runs a read and a write pump; engine notices are broadcast to every
// client watching the same game.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dmklda/farmandcity-sub002/internal/config"
	"github.com/dmklda/farmandcity-sub002/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from a separately hosted frontend.
		return true
	},
}

// Client is one connected WebSocket session.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	gameID   string
}

// Hub tracks connected clients and routes broadcasts.
type Hub struct {
	handler *Handler
	logger  *zap.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg

	mu      sync.RWMutex
	clients map[*Client]bool
}

type broadcastMsg struct {
	gameID string
	data   []byte
}

// NewHub wires the hub to the command handler. The handler's engine is
// given a notice sink that fans out to clients of the notice's game.
func NewHub(handler *Handler, logger *zap.Logger) *Hub {
	h := &Hub{
		handler:    handler,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		clients:    make(map[*Client]bool),
	}
	return h
}

// NoticeSink adapts the hub into the engine's notice sink.
func (h *Hub) NoticeSink() game.Sink {
	return game.SinkFunc(func(n game.Notice) {
		data, err := json.Marshal(Response{Type: "notice", Notice: &n})
		if err != nil {
			return
		}
		select {
		case h.broadcast <- broadcastMsg{gameID: n.GameID, data: data}:
		default:
			h.logger.Warn("notice broadcast dropped", zap.String("game_id", n.GameID))
		}
	})
}

// Run processes registration and broadcast events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client connected", zap.String("player_id", client.playerID))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client disconnected", zap.String("player_id", client.playerID))
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if msg.gameID != "" && client.gameID != msg.gameID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer; drop the frame rather than block.
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("malformed message", zap.Error(err))
			continue
		}
		if msg.PlayerID != "" {
			c.playerID = msg.PlayerID
		}

		resp := h.handler.Handle(context.Background(), msg)
		if resp.GameID != "" {
			c.gameID = resp.GameID
		}

		out, err := json.Marshal(resp)
		if err != nil {
			h.logger.Error("marshal response", zap.Error(err))
			continue
		}
		select {
		case c.send <- out:
		default:
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// ServeWS upgrades an HTTP request and starts the client pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

// Server is the HTTP listener hosting the WebSocket endpoint.
type Server struct {
	httpServer *http.Server
	hub        *Hub
	logger     *zap.Logger
	shutdown   func(context.Context) error
}

// New builds the server around a hub.
func New(cfg config.ServerConfig, hub *Hub, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{httpServer: httpServer, hub: hub, logger: logger}
}

// Start runs the hub and the HTTP listener until the listener stops.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)
	s.logger.Info("websocket server listening", zap.String("address", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
