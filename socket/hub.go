package socket

import (
	"encoding/json"

	"coscribe/internal/document/model"
	"coscribe/pkg/logger"
)

// Wire event names shared with the frontend.
const (
	JoinDocumentType       = "join-document"
	SendChangesType        = "send-changes"
	LeaveDocumentType      = "leave-document"
	DocumentStateType      = "document-state"
	CollaboratorUpdateType = "collaborator-update"
	UserJoinedType         = "user-joined"
	UserLeftType           = "user-left"
	ReceiveChangesType     = "receive-changes"
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   string          `json:"document_id"`
	Payload json.RawMessage `json:"payload"`
}

// ChangePayload is the client payload of a send-changes frame: the
// incremental delta relayed to peers and the full content persisted
// to the store. Neither is interpreted by the server.
type ChangePayload struct {
	Delta   json.RawMessage `json:"delta"`
	Content json.RawMessage `json:"content"`
}

// Store is the narrow slice of the document store the hub needs: a
// permission-bearing read at join time and the content write behind
// edit relay.
type Store interface {
	Get(docID string) (*model.Document, error)
	UpdateContent(docID, content string) error
}

type joinRequest struct {
	client  *Client
	docID   string
	content []byte // freshly-loaded snapshot, used when the room is cold
}

type relayRequest struct {
	client  *Client
	docID   string
	delta   json.RawMessage
	content []byte
}

type persistJob struct {
	docID   string
	content []byte
}

// Hub is the session broker. All roster and cache mutation happens on
// the Run goroutine; store I/O happens on client goroutines (join
// lookups) and the persist worker, so a slow database never stalls
// the relay path.
type Hub struct {
	store    Store
	Registry *Registry

	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	leave      chan *Client
	relay      chan relayRequest
	evictCh    chan string
	persist    chan persistJob

	// Run-goroutine state.
	clients map[string]*Client // conn id -> client
	cache   map[string][]byte  // doc id -> latest content seen
}

func NewHub(store Store) *Hub {
	return &Hub{
		store:      store,
		Registry:   NewRegistry(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		leave:      make(chan *Client),
		relay:      make(chan relayRequest, 64),
		evictCh:    make(chan string),
		persist:    make(chan persistJob, 256),
		clients:    make(map[string]*Client),
		cache:      make(map[string][]byte),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.ID] = client

		case client := <-h.unregister:
			if _, ok := h.clients[client.ID]; !ok {
				continue
			}
			delete(h.clients, client.ID)
			close(client.Send)
			h.dropFromRoom(client.ID)

		case req := <-h.join:
			h.handleJoin(req)

		case client := <-h.leave:
			h.dropFromRoom(client.ID)

		case req := <-h.relay:
			h.handleRelay(req)

		case docID := <-h.evictCh:
			delete(h.cache, docID)
			for _, connID := range h.Registry.Evict(docID) {
				if client, ok := h.clients[connID]; ok {
					// Closing the socket drives the readPump to exit
					// and unregister cleanly.
					client.Conn.Close()
				}
			}
			logger.Sugar.Infof("Evicted room for deleted document %s", docID)
		}
	}
}

func (h *Hub) handleJoin(req joinRequest) {
	client := req.client

	// A connection can occupy one room at a time; a second join moves it.
	h.dropFromRoom(client.ID)

	h.Registry.Add(req.docID, client.ID, client.Identity.ID, client.Identity.Username)

	// First joiner seeds the room cache from the store snapshot;
	// later joiners see edits that arrived since.
	content, ok := h.cache[req.docID]
	if !ok {
		content = req.content
		h.cache[req.docID] = content
	}
	h.send(client, WSMessage{Type: DocumentStateType, DocID: req.docID, Payload: json.RawMessage(content)})

	h.broadcastRoster(req.docID)
	h.broadcastEvent(req.docID, UserJoinedType, client.Identity.Username, client.ID)
}

func (h *Hub) handleRelay(req relayRequest) {
	// The room may have emptied while the frame sat in the relay
	// queue; caching for it again would leak the entry. The edit is
	// still persisted below.
	roster := h.Registry.Snapshot(req.docID)
	if len(roster) > 0 {
		h.cache[req.docID] = req.content

		msg := WSMessage{Type: ReceiveChangesType, DocID: req.docID, Payload: req.delta}
		payload, err := json.Marshal(msg)
		if err != nil {
			logger.Sugar.Errorf("Error marshalling relay message: %v", err)
			return
		}
		// Sender excluded: it already applied the edit locally.
		for _, entry := range roster {
			if entry.ConnID == req.client.ID {
				continue
			}
			h.sendRaw(entry.ConnID, payload)
		}
	}

	// Fire-and-forget persistence; the sender never waits on storage.
	select {
	case h.persist <- persistJob{docID: req.docID, content: req.content}:
	default:
		// The next edit re-enqueues the full content, so a dropped
		// write is superseded rather than lost forever.
		logger.Sugar.Warnf("Persist queue full, dropping write for doc %s", req.docID)
	}
}

// dropFromRoom removes a connection from whatever room it occupies
// and notifies the remaining participants. No-op for roomless
// connections.
func (h *Hub) dropFromRoom(connID string) {
	docID, entry, ok := h.Registry.Remove(connID)
	if !ok {
		return
	}
	if len(h.Registry.Snapshot(docID)) == 0 {
		delete(h.cache, docID)
		return
	}
	h.broadcastRoster(docID)
	h.broadcastEvent(docID, UserLeftType, entry.Username, "")
}

// broadcastRoster sends the full ordered roster to everyone in the
// room, the joiner included.
func (h *Hub) broadcastRoster(docID string) {
	roster := h.Registry.Snapshot(docID)
	payload, err := json.Marshal(roster)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling roster for doc %s: %v", docID, err)
		return
	}
	msg, _ := json.Marshal(WSMessage{Type: CollaboratorUpdateType, DocID: docID, Payload: payload})
	for _, entry := range roster {
		h.sendRaw(entry.ConnID, msg)
	}
}

// broadcastEvent sends a display-name event (user-joined, user-left)
// to the room, excluding one connection if exclConnID is set.
func (h *Hub) broadcastEvent(docID, eventType, username, exclConnID string) {
	payload, _ := json.Marshal(username)
	msg, _ := json.Marshal(WSMessage{Type: eventType, DocID: docID, Payload: payload})
	for _, entry := range h.Registry.Snapshot(docID) {
		if entry.ConnID == exclConnID {
			continue
		}
		h.sendRaw(entry.ConnID, msg)
	}
}

func (h *Hub) send(client *Client, msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s message: %v", msg.Type, err)
		return
	}
	h.sendRaw(client.ID, payload)
}

// sendRaw is a non-blocking best-effort delivery. A peer with a full
// send buffer is lagging; it is skipped rather than allowed to stall
// the room, and its own pumps deal with the dead connection.
func (h *Hub) sendRaw(connID string, payload []byte) {
	client, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case client.Send <- payload:
	default:
		logger.Sugar.Warnf("Send buffer full for connection %s, dropping frame", connID)
	}
}

// RemoveDocument evicts a deleted document's room: cached state is
// dropped and every client in the room is disconnected. Called from
// the HTTP delete path.
func (h *Hub) RemoveDocument(docID string) {
	h.evictCh <- docID
}

// PersistWorker drains queued content writes. Failures are logged and
// swallowed; the edit flow stays live even when durability is
// degraded. Two overlapping writes for one document are not ordered
// here: last write to complete wins.
func (h *Hub) PersistWorker() {
	for job := range h.persist {
		if err := h.store.UpdateContent(job.docID, string(job.content)); err != nil {
			logger.Sugar.Errorf("Failed to persist doc %s: %v", job.docID, err)
			continue
		}
	}
}
