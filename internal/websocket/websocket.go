package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Константы для типов сообщений WebSocket
const (
	NotificationType       = "NOTIFICATION"
	CargoStatusUpdateType  = "CARGO_STATUS_UPDATE"
	RequestStatusUpdateType = "REQUEST_STATUS_UPDATE"
)

// WebSocketMessage представляет формат сообщения WebSocket
type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocketManager управляет всеми подключениями WebSocket
type WebSocketManager struct {
	clients       map[string]map[*websocket.Conn]bool
	clientsByUser map[string]map[*websocket.Conn]bool
	register      chan *WebSocketClient
	unregister    chan *WebSocketClient
	mutex         sync.RWMutex
}

// WebSocketClient представляет клиентское соединение WebSocket
type WebSocketClient struct {
	conn       *websocket.Conn
	telegramID string
	clientID   string
}

// Глобальный менеджер WebSocket
var wsManager = NewWebSocketManager()

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:       make(map[string]map[*websocket.Conn]bool),
		clientsByUser: make(map[string]map[*websocket.Conn]bool),
		register:      make(chan *WebSocketClient),
		unregister:    make(chan *WebSocketClient),
		mutex:         sync.RWMutex{},
	}
}

// Start запускает обработку подключений WebSocket
func (manager *WebSocketManager) Start() {
	go func() {
		for {
			select {
			case client := <-manager.register:
				manager.mutex.Lock()
				if _, ok := manager.clients[client.clientID]; !ok {
					manager.clients[client.clientID] = make(map[*websocket.Conn]bool)
				}
				manager.clients[client.clientID][client.conn] = true

				// Регистрация по telegram_id если авторизован
				if client.telegramID != "" {
					if _, ok := manager.clientsByUser[client.telegramID]; !ok {
						manager.clientsByUser[client.telegramID] = make(map[*websocket.Conn]bool)
					}
					manager.clientsByUser[client.telegramID][client.conn] = true
				}
				manager.mutex.Unlock()

			case client := <-manager.unregister:
				manager.mutex.Lock()
				if _, ok := manager.clients[client.clientID]; ok {
					if _, exists := manager.clients[client.clientID][client.conn]; exists {
						delete(manager.clients[client.clientID], client.conn)
						client.conn.Close()
					}
					if len(manager.clients[client.clientID]) == 0 {
						delete(manager.clients, client.clientID)
					}
				}

				if client.telegramID != "" {
					if _, ok := manager.clientsByUser[client.telegramID]; ok {
						delete(manager.clientsByUser[client.telegramID], client.conn)
						if len(manager.clientsByUser[client.telegramID]) == 0 {
							delete(manager.clientsByUser, client.telegramID)
						}
					}
				}
				manager.mutex.Unlock()
			}
		}
	}()
}

// BroadcastToUser отправляет сообщение всем подключениям конкретного пользователя
func (manager *WebSocketManager) BroadcastToUser(telegramID string, message *WebSocketMessage) {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	connections, exists := manager.clientsByUser[telegramID]
	if !exists || len(connections) == 0 {
		return
	}

	jsonMessage, err := json.Marshal(message)
	if err != nil {
		log.Printf("BroadcastToUser: ошибка при кодировании сообщения: %v", err)
		return
	}

	for conn := range connections {
		go func(c *websocket.Conn) {
			if err := c.WriteMessage(websocket.TextMessage, jsonMessage); err != nil {
				manager.unregister <- &WebSocketClient{
					conn:       c,
					telegramID: telegramID,
				}
			}
		}(conn)
	}
}

// Handler обрабатывает подключения WebSocket
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Upgrade") != "websocket" {
			c.String(http.StatusBadRequest, "Требуется WebSocket соединение")
			return
		}

		telegramID := c.GetString("telegram_id")
		clientID := c.Query("client_id")
		testMode := c.Query("test") == "true"

		if clientID == "" && telegramID != "" {
			clientID = "user_" + telegramID
		} else if clientID == "" {
			clientID = fmt.Sprintf("anon_%d", time.Now().UnixNano())
		}

		wsUpgrader := websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Разрешаем подключения с любых источников
			},
		}

		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("Ошибка обновления соединения до WebSocket: %v", err)
			return
		}

		if testMode {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"TEST_SUCCESS"}`))
			conn.Close()
			return
		}

		client := &WebSocketClient{
			conn:       conn,
			clientID:   clientID,
			telegramID: telegramID,
		}

		wsManager.register <- client

		go handleMessages(client)
	}
}

// handleMessages обрабатывает сообщения от клиента
func handleMessages(client *WebSocketClient) {
	defer func() {
		wsManager.unregister <- client
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			continue
		}

		// Обрабатываем ping-сообщения
		if msgType, ok := data["type"].(string); ok && msgType == "ping" {
			pongMsg := map[string]interface{}{
				"type": "pong",
				"time": time.Now().Unix(),
			}
			pongJSON, _ := json.Marshal(pongMsg)
			if err := client.conn.WriteMessage(websocket.TextMessage, pongJSON); err != nil {
				log.Printf("Ошибка при отправке pong: %v", err)
			}
		}
	}
}

// SendNotification отправляет уведомление пользователю
func SendNotification(telegramID string, notificationID uint, title, message string) {
	payload := map[string]interface{}{
		"notification_id": notificationID,
		"title":           title,
		"message":         message,
	}
	wsManager.BroadcastToUser(telegramID, &WebSocketMessage{
		Type:    NotificationType,
		Payload: payload,
	})
}

// SendCargoStatusUpdate отправляет обновление статуса груза
func SendCargoStatusUpdate(telegramID string, cargoID uint, status string) {
	payload := map[string]interface{}{
		"cargo_id": cargoID,
		"status":   status,
	}
	wsManager.BroadcastToUser(telegramID, &WebSocketMessage{
		Type:    CargoStatusUpdateType,
		Payload: payload,
	})
}

// SendRequestStatusUpdate отправляет обновление статуса заявки перевозчика
func SendRequestStatusUpdate(telegramID string, requestID uint, status string) {
	payload := map[string]interface{}{
		"request_id": requestID,
		"status":     status,
	}
	wsManager.BroadcastToUser(telegramID, &WebSocketMessage{
		Type:    RequestStatusUpdateType,
		Payload: payload,
	})
}

// GetManager возвращает глобальный экземпляр менеджера WebSocket
func GetManager() *WebSocketManager {
	return wsManager
}

// StartManager запускает менеджер WebSocket
func StartManager() {
	wsManager.Start()
}
