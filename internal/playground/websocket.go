package playground

import (
	"encoding/json"
	"time"

	"recipegen/internal/shell"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 64 * 1024
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message types accepted from the browser
const (
	MessageGenerate = "generate"
	MessageEdit     = "edit"
	MessageCancel   = "cancel"
)

// ClientMessage is a command sent by the page
type ClientMessage struct {
	Type        string `json:"type"`
	Ingredients string `json:"ingredients"`
}

// Update is pushed to the page after every state change
type Update struct {
	State shell.Snapshot `json:"state"`
	HTML  string         `json:"html"`
}

// WSConnection maintains the WebSocket connection with one page
type WSConnection struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	shell  *shell.Shell
	server *PlaygroundServer
	log    zerolog.Logger
}

// handleWebSocket upgrades the request and binds the connection to the
// caller's shell
func (s *PlaygroundServer) handleWebSocket(c *gin.Context) {
	sh := shellFrom(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to upgrade connection")
		return
	}

	wsConn := &WSConnection{
		conn:   conn,
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
		shell:  sh,
		server: s,
		log:    s.log,
	}

	updates, unsubscribe := sh.Subscribe()

	go wsConn.forward(updates)
	go wsConn.writePump()
	go wsConn.readPump(unsubscribe)
}

// forward renders each snapshot and queues it for the write pump. It owns the
// send channel and closes it when the subscription ends.
func (c *WSConnection) forward(updates <-chan shell.Snapshot) {
	defer close(c.send)

	if !c.push(c.shell.Snapshot()) {
		return
	}
	for snap := range updates {
		if !c.push(snap) {
			return
		}
	}
}

func (c *WSConnection) push(snap shell.Snapshot) bool {
	html, err := c.server.renderApp(snap)
	if err != nil {
		c.log.Error().Err(err).Msg("Error rendering update")
		return true
	}
	data, err := json.Marshal(Update{State: snap, HTML: html})
	if err != nil {
		c.log.Error().Err(err).Msg("Error marshaling update")
		return true
	}

	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}

// readPump pumps messages from the WebSocket connection to the shell
func (c *WSConnection) readPump(unsubscribe func()) {
	defer func() {
		unsubscribe()
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the server to the WebSocket connection
func (c *WSConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The subscription ended
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage applies one page command to the shell. The resulting state
// comes back through the subscription.
func (c *WSConnection) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.log.Debug().Err(err).Msg("Error unmarshaling message")
		return
	}

	switch msg.Type {
	case MessageGenerate:
		if err := c.shell.Trigger(msg.Ingredients); err != nil {
			c.log.Debug().Err(err).Msg("generate rejected")
		}
	case MessageEdit:
		c.shell.SetIngredients(msg.Ingredients)
	case MessageCancel:
		c.shell.Cancel()
	default:
		c.log.Debug().Str("type", msg.Type).Msg("unknown message type")
	}
}
