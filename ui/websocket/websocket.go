package websocket

import (
	"context"
	"encoding/json"

	"github.com/AzielCF/az-estate/infrastructure/valkey"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/pkg/eventbus"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	CodeSimulatedOutbound = "SIMULATED_OUTBOUND"
	CodePing              = "PING"
	CodePong              = "PONG"

	wsChannel = "simulator_broadcast"
)

type BroadcastMessage struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Result   any    `json:"result,omitempty"`
	SenderID string `json:"sender_id,omitempty"`
}

// Hub streams simulated outbound messages to every connected simulator UI.
// With a valkey client the messages are also relayed to the hubs of the other
// servers; a hub ignores relayed messages it published itself.
type Hub struct {
	bus      *eventbus.Bus
	vkClient *valkey.Client
	serverID string

	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan BroadcastMessage
	remote     chan BroadcastMessage
	countReq   chan chan int
	done       chan struct{}
}

func NewHub(bus *eventbus.Bus, vkClient *valkey.Client, serverID string) *Hub {
	return &Hub{
		bus:        bus,
		vkClient:   vkClient,
		serverID:   serverID,
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan BroadcastMessage, 64),
		remote:     make(chan BroadcastMessage, 64),
		countReq:   make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled. All writes to connections
// happen on this goroutine.
func (h *Hub) Run(ctx context.Context) {
	outbound, unsubscribe := h.bus.Subscribe(channel.TopicOutbound)
	defer unsubscribe()
	defer close(h.done)

	if h.vkClient != nil {
		go h.subscribeRemote(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				h.closeConnection(conn)
			}
			return

		case conn := <-h.register:
			h.clients[conn] = struct{}{}
			logrus.Debug("[WS] Connection registered")

		case conn := <-h.unregister:
			delete(h.clients, conn)
			logrus.Debug("[WS] Connection unregistered")

		case env, ok := <-outbound:
			if !ok {
				outbound = nil
				continue
			}
			msg := BroadcastMessage{Code: CodeSimulatedOutbound, Message: "Simulated outbound message", Result: env.Payload}
			h.broadcastToLocal(msg)
			h.publishToValkey(ctx, msg)

		case msg := <-h.broadcast:
			h.broadcastToLocal(msg)

		case msg := <-h.remote:
			h.broadcastToLocal(msg)

		case reply := <-h.countReq:
			reply <- len(h.clients)
		}
	}
}

// Clients returns the number of connected sockets, 0 once Run has returned.
func (h *Hub) Clients() int {
	reply := make(chan int, 1)
	select {
	case h.countReq <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) broadcastToLocal(message BroadcastMessage) {
	if len(h.clients) == 0 {
		return
	}
	data, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("[WS] Marshal error: %v", err)
		return
	}
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logrus.Errorf("[WS] Write error: %v", err)
			h.closeConnection(conn)
		}
	}
}

func (h *Hub) publishToValkey(ctx context.Context, message BroadcastMessage) {
	if h.vkClient == nil {
		return
	}
	message.SenderID = h.serverID
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	if err := h.vkClient.Publish(ctx, wsChannel, string(data)); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

func (h *Hub) subscribeRemote(ctx context.Context) {
	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for simulator events")
	err := h.vkClient.Subscribe(ctx, wsChannel, func(payload string) {
		var msg BroadcastMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return
		}
		if msg.SenderID == h.serverID {
			return
		}
		select {
		case h.remote <- msg:
		case <-ctx.Done():
		}
	})
	if err != nil && ctx.Err() == nil {
		logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
	}
}

func (h *Hub) closeConnection(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
	_ = conn.Close()
	delete(h.clients, conn)
}

// RegisterRoutes mounts the simulator stream at /simulator/ws.
func (h *Hub) RegisterRoutes(app fiber.Router) {
	app.Use("/simulator/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/simulator/ws", websocket.New(func(conn *websocket.Conn) {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.done:
			}
			_ = conn.Close()
		}()

		select {
		case h.register <- conn:
		case <-h.done:
			return
		}

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] Read error: %v", err)
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}

			var request BroadcastMessage
			if err := json.Unmarshal(message, &request); err != nil {
				logrus.Debugf("[WS] Ignoring malformed client message: %v", err)
				continue
			}
			if request.Code == CodePing {
				select {
				case h.broadcast <- BroadcastMessage{Code: CodePong, Message: "pong"}:
				case <-h.done:
					return
				}
			}
		}
	}))
}
