package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	activityClients   = make(map[*websocket.Conn]bool)
	activityClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// ActivityEvent is pushed to every connected dashboard when the
// pipeline changes.
type ActivityEvent struct {
	Type          string `json:"type"`
	ApplicationID uint   `json:"application_id,omitempty"`
	CandidateName string `json:"candidate_name,omitempty"`
	JDCode        string `json:"jd_code,omitempty"`
	FromStatus    string `json:"from_status,omitempty"`
	ToStatus      string `json:"to_status,omitempty"`
	Message       string `json:"message"`
}

// BroadcastActivity fans event out to every connected client. Failed
// connections are dropped.
func BroadcastActivity(event ActivityEvent) {
	activityClientsMu.RLock()
	if len(activityClients) == 0 {
		activityClientsMu.RUnlock()
		return
	}
	clientsCopy := make([]*websocket.Conn, 0, len(activityClients))
	for conn := range activityClients {
		clientsCopy = append(clientsCopy, conn)
	}
	activityClientsMu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("Failed to set write deadline for broadcast: %v", err)
			continue
		}

		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Failed to broadcast activity to client: %v", err)
			activityClientsMu.Lock()
			delete(activityClients, conn)
			activityClientsMu.Unlock()
			conn.Close()
		}
	}
}

// ActivityWebSocket streams pipeline activity to authenticated dashboards.
func ActivityWebSocket(ctx *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range cfg.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	activityClientsMu.Lock()
	activityClients[conn] = true
	activityClientsMu.Unlock()

	defer func() {
		activityClientsMu.Lock()
		delete(activityClients, conn)
		activityClientsMu.Unlock()
		conn.Close()

		log.Printf("Activity WebSocket connection closed")
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Failed to set write deadline for welcome message: %v", err)
		return
	}

	if err := conn.WriteJSON(ActivityEvent{
		Type:    "connected",
		Message: "Activity stream connected",
	}); err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	// Stopping the ticker never closes its channel; the done channel
	// releases the ping goroutine when the read loop exits.
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline: %v", err)
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Activity WebSocket error: %v", err)
			}
			break
		}
	}
}
