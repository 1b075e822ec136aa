package http

import (
	"context"
	"sync"
	"time"

	authhttp "taskflow/internal/auth/adapter/http"
	authmodel "taskflow/internal/auth/domain/model"
	"taskflow/internal/shared/eventbus"
	"taskflow/internal/shared/logger"
	"taskflow/internal/tasks/domain/model"
	"taskflow/internal/tasks/domain/repository"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	wsUserLocal     = "wsUser"
	wsSendBuffer    = 64
	wsWriteDeadline = 10 * time.Second
	wsPingInterval  = 30 * time.Second
)

// WebSocketMessage is the envelope for messages sent to ws clients
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WebSocketHandler streams task change events to the owning user's
// connections. Events for other owners are never routed to a connection;
// the subscription map is keyed by owner id.
type WebSocketHandler struct {
	bus        eventbus.EventBusInterface
	eventStore repository.TaskEventStore // optional, enables resume
	log        logger.Logger

	mu          sync.RWMutex
	subscribers map[string]map[string]chan model.TaskEvent // ownerID -> connID -> events
}

// NewWebSocketHandler creates a new WebSocketHandler and wires it to the bus.
func NewWebSocketHandler(
	bus eventbus.EventBusInterface,
	eventStore repository.TaskEventStore,
	log logger.Logger,
) *WebSocketHandler {
	h := &WebSocketHandler{
		bus:         bus,
		eventStore:  eventStore,
		log:         log.WithComponent("task_ws"),
		subscribers: make(map[string]map[string]chan model.TaskEvent),
	}

	for _, eventType := range []string{
		eventbus.EventTypeTaskCreated,
		eventbus.EventTypeTaskUpdated,
		eventbus.EventTypeTaskDeleted,
	} {
		bus.Subscribe(eventType, h.routeEvent)
	}

	return h
}

// RegisterRoutes registers the WebSocket endpoint. The router passed in is
// already behind the auth middleware, so the upgrade request carries a
// resolved user.
func (h *WebSocketHandler) RegisterRoutes(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		user, ok := authhttp.CurrentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}
		c.Locals(wsUserLocal, user)
		return c.Next()
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

// routeEvent delivers a bus event to the owning user's connections.
func (h *WebSocketHandler) routeEvent(ctx context.Context, event eventbus.Event) error {
	taskEvent, ok := event.Data().(model.TaskEvent)
	if !ok {
		return nil
	}

	h.mu.RLock()
	conns := h.subscribers[taskEvent.UserID]
	for connID, ch := range conns {
		select {
		case ch <- taskEvent:
		default:
			// Slow consumer; drop rather than stall the publisher.
			h.log.Warn("Dropping event for slow websocket consumer",
				zap.String("connID", connID),
				zap.String("eventType", string(taskEvent.Type)))
		}
	}
	h.mu.RUnlock()

	return nil
}

func (h *WebSocketHandler) subscribe(ownerID, connID string) chan model.TaskEvent {
	ch := make(chan model.TaskEvent, wsSendBuffer)
	h.mu.Lock()
	if h.subscribers[ownerID] == nil {
		h.subscribers[ownerID] = make(map[string]chan model.TaskEvent)
	}
	h.subscribers[ownerID][connID] = ch
	h.mu.Unlock()
	return ch
}

func (h *WebSocketHandler) unsubscribe(ownerID, connID string) {
	h.mu.Lock()
	if conns, ok := h.subscribers[ownerID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.subscribers, ownerID)
		}
	}
	h.mu.Unlock()
}

// handleConnection is called once the upgrade completes.
func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	user, ok := conn.Locals(wsUserLocal).(*authmodel.User)
	if !ok {
		conn.Close()
		return
	}

	connID := uuid.NewString()
	h.log.Info("WebSocket connection established",
		zap.String("connID", connID),
		zap.String("userID", user.ID))

	events := h.subscribe(user.ID, connID)
	defer func() {
		h.unsubscribe(user.ID, connID)
		conn.Close()
		h.log.Info("WebSocket connection closed", zap.String("connID", connID))
	}()

	// Resume: replay persisted events after the client's last token.
	if h.eventStore != nil {
		if since := conn.Query("since"); since != "" || conn.Query("replay") == "true" {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			backlog, err := h.eventStore.GetEventsSince(ctx, user.ID, model.ResumeToken(since))
			cancel()
			if err != nil {
				h.log.Warn("Failed to load event backlog",
					zap.String("connID", connID),
					zap.Error(err))
			}
			for _, event := range backlog {
				if !h.writeEvent(conn, event) {
					return
				}
			}
		}
	}

	// Reader goroutine: consume control frames and detect close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event := <-events:
			if !h.writeEvent(conn, event) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) writeEvent(conn *websocket.Conn, event model.TaskEvent) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	msg := WebSocketMessage{
		Type: string(event.Type),
		Data: event,
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Debug("WebSocket write failed", zap.Error(err))
		return false
	}
	return true
}
