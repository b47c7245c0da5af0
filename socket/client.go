package socket

import (
	"encoding/json"
	"net/http"
	"time"

	"coscribe/internal/document/model"
	"coscribe/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dev frontends connect cross-origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one live websocket connection. It starts roomless; a
// join-document frame moves it into a document room after the
// permission recheck.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	ID       string // connection id, unique per live connection
	Identity model.Identity
	Send     chan []byte

	// Mutated only by the readPump goroutine.
	docID string
	perm  model.Permission
}

// ServeWs upgrades the request and starts the connection pumps. The
// identity arrives already authenticated from the middleware; room
// permission is checked separately at join time.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, identity model.Identity) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:      hub,
		Conn:     conn,
		ID:       uuid.NewString(),
		Identity: identity,
		Send:     make(chan []byte, 256),
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		switch msg.Type {
		case JoinDocumentType:
			c.handleJoin(msg.DocID)
		case SendChangesType:
			c.handleChanges(msg)
		case LeaveDocumentType:
			if c.docID != "" {
				c.docID = ""
				c.perm = model.PermissionNone
				c.Hub.leave <- c
			}
		default:
			logger.Sugar.Warnf("Unknown frame type %q from user %s", msg.Type, c.Identity.ID)
		}
	}
}

// handleJoin re-runs the access evaluation against the store before
// entering the room. The HTTP layer already authorized this user
// once, but a revoked or stale session must not be able to rejoin on
// that old clearance.
func (c *Client) handleJoin(docID string) {
	if docID == "" {
		return
	}
	doc, err := c.Hub.store.Get(docID)
	if err != nil {
		logger.Sugar.Warnf("Join rejected: document %s not loadable: %v", docID, err)
		return
	}
	perm := doc.PermissionFor(c.Identity.ID)
	if perm < model.PermissionRead {
		logger.Sugar.Warnf("Join rejected: user %s has no access to doc %s", c.Identity.ID, docID)
		return
	}

	c.docID = docID
	c.perm = perm
	c.Hub.join <- joinRequest{client: c, docID: docID, content: []byte(doc.Content)}
}

func (c *Client) handleChanges(msg WSMessage) {
	// The frame must target the room this connection actually joined,
	// with write clearance established at join time.
	if msg.DocID == "" || msg.DocID != c.docID {
		logger.Sugar.Warnf("Dropping changes from user %s for doc %s: not joined", c.Identity.ID, msg.DocID)
		return
	}
	if c.perm < model.PermissionWrite {
		logger.Sugar.Warnf("Dropping changes from user %s on doc %s: read-only", c.Identity.ID, c.docID)
		return
	}

	var payload ChangePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		logger.Sugar.Errorf("Error unmarshalling change payload: %v", err)
		return
	}
	// A frame without both halves is malformed: relaying a bare delta
	// would desync peers from what gets persisted, and empty content
	// would durably overwrite the document.
	if len(payload.Delta) == 0 || len(payload.Content) == 0 {
		return
	}

	c.Hub.relay <- relayRequest{
		client:  c,
		docID:   c.docID,
		delta:   payload.Delta,
		content: []byte(payload.Content),
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
