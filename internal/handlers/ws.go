package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/michval1/calendar-backend/internal/models"
	"github.com/michval1/calendar-backend/internal/types"
	"github.com/michval1/calendar-backend/internal/utils"
)

var (
	reminderClients   = make(map[uint]map[*websocket.Conn]bool)
	reminderClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// BroadcastReminders pushes a batch of due reminders to every open feed of
// one user. Delivery is advisory; a reminder stays pending until the client
// acknowledges it through the mark-sent endpoint.
func BroadcastReminders(userID uint, reminders []models.Reminder) {
	reminderClientsMu.RLock()
	clients, exists := reminderClients[userID]
	if !exists || len(clients) == 0 {
		reminderClientsMu.RUnlock()
		return
	}

	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	reminderClientsMu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("Failed to set write deadline for broadcast: %v", err)
			continue
		}

		err := conn.WriteJSON(map[string]interface{}{
			"type":      "reminders_due",
			"reminders": reminders,
		})

		if err != nil {
			log.Printf("Failed to broadcast reminders to client: %v", err)
			reminderClientsMu.Lock()
			if clients, exists := reminderClients[userID]; exists {
				delete(clients, conn)
				if len(clients) == 0 {
					delete(reminderClients, userID)
				}
			}
			reminderClientsMu.Unlock()
			conn.Close()
		}
	}
}

// ReminderFeed upgrades the connection and keeps it registered under the
// authenticated user until it closes.
func ReminderFeed(c *gin.Context) {
	user, err := utils.GetCurrentUser(c)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
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

	reminderClientsMu.Lock()
	if reminderClients[user.ID] == nil {
		reminderClients[user.ID] = make(map[*websocket.Conn]bool)
	}
	reminderClients[user.ID][conn] = true
	reminderClientsMu.Unlock()

	defer func() {
		reminderClientsMu.Lock()

		if clients, exists := reminderClients[user.ID]; exists {
			delete(clients, conn)

			if len(clients) == 0 {
				delete(reminderClients, user.ID)
			}
		}

		reminderClientsMu.Unlock()
		conn.Close()

		log.Printf("Reminder feed closed for user %d", user.ID)
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Failed to set write deadline for welcome message: %v", err)
		return
	}

	err = conn.WriteJSON(map[string]string{
		"type":    "connected",
		"message": "Reminder feed established",
	})

	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Failed to set write deadline for user %d: %v", user.ID, err)
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Ping failed for user %d: %v", user.ID, err)
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline for user %d: %v", user.ID, err)
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for user %d: %v", user.ID, err)
			}
			break
		}
	}
}
