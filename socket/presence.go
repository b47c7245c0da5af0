package socket

import "sync"

// Entry is one connected participant in a document room. Purely
// transient; lives only as long as the connection.
type Entry struct {
	ConnID   string `json:"-"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type room struct {
	mu      sync.Mutex
	entries map[string]Entry
	order   []string // conn ids, insertion order
	dead    bool     // set when the room is unlinked from the registry
}

// Registry tracks who is currently connected to which document. Rooms
// are locked independently so unrelated documents never contend, and
// a connection-id index locates a disconnecting client without
// scanning every room. A room unlinked by empty-room cleanup is
// marked dead under its own lock, so an Add racing the cleanup
// retries into a fresh room instead of writing into an orphan.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
	index map[string]string // conn id -> doc id
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		index: make(map[string]string),
	}
}

func (reg *Registry) getOrCreate(docID string) *room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rm, ok := reg.rooms[docID]
	if !ok {
		rm = &room{entries: make(map[string]Entry)}
		reg.rooms[docID] = rm
	}
	return rm
}

// Add registers a connection in a document room. Re-adding the same
// connection id refreshes the entry without duplicating it.
func (reg *Registry) Add(docID, connID, userID, username string) {
	reg.mu.Lock()
	reg.index[connID] = docID
	reg.mu.Unlock()

	for {
		rm := reg.getOrCreate(docID)
		rm.mu.Lock()
		if rm.dead {
			rm.mu.Unlock()
			continue
		}
		if _, exists := rm.entries[connID]; !exists {
			rm.order = append(rm.order, connID)
		}
		rm.entries[connID] = Entry{ConnID: connID, UserID: userID, Username: username}
		rm.mu.Unlock()
		return
	}
}

// Remove drops a connection from whatever room it occupies, located
// by connection id alone. Idempotent: removing an absent connection
// is a no-op with ok == false.
func (reg *Registry) Remove(connID string) (docID string, entry Entry, ok bool) {
	reg.mu.Lock()
	docID, ok = reg.index[connID]
	if !ok {
		reg.mu.Unlock()
		return "", Entry{}, false
	}
	delete(reg.index, connID)
	rm := reg.rooms[docID]
	reg.mu.Unlock()
	if rm == nil {
		return "", Entry{}, false
	}

	rm.mu.Lock()
	entry, ok = rm.entries[connID]
	if ok {
		delete(rm.entries, connID)
		for i, id := range rm.order {
			if id == connID {
				rm.order = append(rm.order[:i], rm.order[i+1:]...)
				break
			}
		}
	}
	empty := len(rm.entries) == 0
	rm.mu.Unlock()

	if empty {
		reg.mu.Lock()
		rm.mu.Lock()
		// Re-check under both locks: a concurrent Add may have
		// repopulated the room, or replaced it entirely.
		if len(rm.entries) == 0 && reg.rooms[docID] == rm {
			rm.dead = true
			delete(reg.rooms, docID)
		}
		rm.mu.Unlock()
		reg.mu.Unlock()
	}
	return docID, entry, ok
}

// Snapshot returns the current roster of a room in insertion order,
// stable for deterministic display.
func (reg *Registry) Snapshot(docID string) []Entry {
	reg.mu.RLock()
	rm, ok := reg.rooms[docID]
	reg.mu.RUnlock()
	if !ok {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	out := make([]Entry, 0, len(rm.order))
	for _, connID := range rm.order {
		if e, ok := rm.entries[connID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Evict removes an entire room and returns the connection ids that
// were in it.
func (reg *Registry) Evict(docID string) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm, ok := reg.rooms[docID]
	if !ok {
		return nil
	}
	delete(reg.rooms, docID)

	rm.mu.Lock()
	rm.dead = true
	conns := append([]string(nil), rm.order...)
	rm.entries = make(map[string]Entry)
	rm.order = nil
	rm.mu.Unlock()

	for _, connID := range conns {
		delete(reg.index, connID)
	}
	return conns
}
