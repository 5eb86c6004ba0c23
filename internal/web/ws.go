package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/manhunt_client/internal/game"
	"github.com/relabs-tech/manhunt_client/internal/heading"
	"github.com/relabs-tech/manhunt_client/internal/tracker"
)

var errNoBridge = errors.New("no phone bridge configured")

// WSMessage is sent by the browser.
type WSMessage struct {
	Action   string          `json:"action"` // sample, permission, select, name, role
	Sample   *heading.Sample `json:"sample,omitempty"`
	Granted  *bool           `json:"granted,omitempty"`
	PlayerID string          `json:"player_id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Role     string          `json:"role,omitempty"`
}

// WSResponse is sent to the browser.
type WSResponse struct {
	Type     string            `json:"type"` // snapshot, permission, error
	Snapshot *tracker.Snapshot `json:"snapshot,omitempty"`
	State    *heading.State    `json:"state,omitempty"`
	Message  string            `json:"message,omitempty"`
}

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.last != nil {
		c.send <- s.last
	}
	s.mu.Unlock()

	go c.writeLoop()
	s.readLoop(r.Context(), c)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	close(c.done)
	conn.Close()
}

func (c *wsClient) writeLoop() {
	for {
		select {
		case b := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Printf("web: websocket write error: %v", err)
				c.conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsClient) sendJSON(v WSResponse) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	case <-c.done:
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsClient) {
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("web: websocket read error: %v", err)
			}
			return
		}
		if err := s.handleMessage(ctx, c, msg); err != nil {
			go c.sendJSON(WSResponse{Type: "error", Message: err.Error()})
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, c *wsClient, msg WSMessage) error {
	switch msg.Action {
	case "sample":
		if s.bridge == nil {
			return errNoBridge
		}
		if msg.Sample == nil {
			return fmt.Errorf("missing %q", "sample")
		}
		s.bridge.Push(*msg.Sample)

	case "permission":
		if s.bridge == nil {
			return errNoBridge
		}
		if msg.Granted == nil {
			return fmt.Errorf("missing %q", "granted")
		}
		s.bridge.ReportPermission(*msg.Granted)
		go func() {
			state, err := s.ctrl.RequestPermission(ctx)
			if err != nil {
				return
			}
			c.sendJSON(WSResponse{Type: "permission", State: &state, Message: heading.Advisory(state)})
		}()

	case "select":
		return s.ctrl.Select(ctx, msg.PlayerID)

	case "name":
		return s.ctrl.SetName(ctx, msg.Name)

	case "role":
		role, err := game.ParseRole(msg.Role)
		if err != nil {
			return err
		}
		return s.ctrl.SetRole(ctx, role)

	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}
	return nil
}

func (s *Server) closeClients() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		c.conn.Close()
	}
}
