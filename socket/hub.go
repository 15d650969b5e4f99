package socket

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	docmodel "naskahweb/internal/document/model"
	"naskahweb/internal/profile/model"
	"naskahweb/pkg/logger"
)

const (
	UpdateType         = "UPDATE"          // Document content changes
	CursorType         = "CURSOR"          // User moved their cursor
	PresenceUpdateType = "PRESENCE_UPDATE" // A user joined or left
	MetadataType       = "METADATA"        // Room metadata, sent on join

	resolveTimeout = 10 * time.Second
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   string          `json:"document_id"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// ProfileResolver turns participant ids into display profiles.
type ProfileResolver interface {
	Resolve(ctx context.Context, self *model.Identity, ids []string) []model.UserProfile
}

type admission struct {
	Permission docmodel.Permission
	Metadata   map[string]interface{}
}

type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client

	resolver ProfileResolver

	mu sync.Mutex
	// roomID -> userID -> what the session bootstrap granted
	admissions map[string]map[string]admission
	// bumped on every membership change so a slow presence resolution
	// never overwrites a newer one
	presenceVersion map[string]uint64
}

func NewHub(resolver ProfileResolver) *Hub {
	return &Hub{
		Rooms:           make(map[string]map[*Client]bool),
		Broadcast:       make(chan WSMessage),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
		resolver:        resolver,
		admissions:      make(map[string]map[string]admission),
		presenceVersion: make(map[string]uint64),
	}
}

// Admit lets userID connect to roomID with the given permission. Admitting
// again replaces the earlier grant.
func (h *Hub) Admit(roomID, userID string, permission docmodel.Permission, metadata map[string]interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.admissions[roomID] == nil {
		h.admissions[roomID] = make(map[string]admission)
	}
	h.admissions[roomID][userID] = admission{Permission: permission, Metadata: metadata}
}

func (h *Hub) admitted(roomID, userID string) (admission, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	a, ok := h.admissions[roomID][userID]
	return a, ok
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.RoomID] == nil {
				h.Rooms[client.RoomID] = make(map[*Client]bool)
			}
			h.Rooms[client.RoomID][client] = true
			h.mu.Unlock()

			metaPayload, _ := json.Marshal(client.Metadata)
			metaMsg, _ := json.Marshal(WSMessage{Type: MetadataType, DocID: client.RoomID, UserID: client.Identity.ID, Payload: metaPayload})
			client.Send <- metaMsg

			h.schedulePresenceUpdate(client.RoomID, client.Identity)

		case client := <-h.Unregister:
			if h.unregister(client) {
				h.schedulePresenceUpdate(client.RoomID, client.Identity)
			}

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[msg.DocID]))
			for client := range h.Rooms[msg.DocID] {
				if client.Identity.ID != msg.UserID {
					clientsToSend = append(clientsToSend, client)
				}
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.Identity.ID)
					if h.unregister(client) {
						h.schedulePresenceUpdate(client.RoomID, client.Identity)
					}
				}
			}
		}
	}
}

// unregister removes client from its room and reports whether anyone is
// left in the room.
func (h *Hub) unregister(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.Rooms[client.RoomID]
	if !ok {
		return false
	}
	if _, ok := room[client]; !ok {
		return false
	}
	delete(room, client)
	close(client.Send)

	if len(room) == 0 {
		delete(h.Rooms, client.RoomID)
		delete(h.presenceVersion, client.RoomID)
		logger.Sugar.Infof("Closed empty room: %s", client.RoomID)
		return false
	}
	h.presenceVersion[client.RoomID]++
	return true
}

// RemoveRoom disconnects every client of roomID and forgets its admissions.
// It is called when the document behind the room is deleted.
func (h *Hub) RemoveRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.admissions, roomID)
	delete(h.presenceVersion, roomID)
	for client := range h.Rooms[roomID] {
		// readPump exits and unregisters
		client.Conn.Close()
	}
}

// Revoke withdraws userID's admission to roomID and disconnects that user's
// open connections in the room. It is called when a collaborator is removed.
func (h *Hub) Revoke(roomID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if grants, ok := h.admissions[roomID]; ok {
		delete(grants, userID)
		if len(grants) == 0 {
			delete(h.admissions, roomID)
		}
	}
	for client := range h.Rooms[roomID] {
		if client.Identity.ID == userID {
			client.Conn.Close()
		}
	}
}

// Shutdown closes every live connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	rooms := make([]string, 0, len(h.Rooms))
	for roomID := range h.Rooms {
		rooms = append(rooms, roomID)
	}
	h.mu.Unlock()

	for _, roomID := range rooms {
		h.RemoveRoom(roomID)
	}
}

func (h *Hub) schedulePresenceUpdate(roomID string, trigger *model.Identity) {
	h.mu.Lock()
	h.presenceVersion[roomID]++
	version := h.presenceVersion[roomID]
	h.mu.Unlock()

	// Resolution may call the backend, so it runs off the hub loop.
	go h.broadcastPresenceUpdate(roomID, trigger, version)
}

// participants lists the distinct user ids in roomID. A user with several
// open tabs appears once.
func (h *Hub) participants(roomID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[string]bool)
	ids := make([]string, 0, len(h.Rooms[roomID]))
	for client := range h.Rooms[roomID] {
		if !seen[client.Identity.ID] {
			seen[client.Identity.ID] = true
			ids = append(ids, client.Identity.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (h *Hub) broadcastPresenceUpdate(roomID string, trigger *model.Identity, version uint64) {
	ids := h.participants(roomID)
	if len(ids) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	profiles := h.resolver.Resolve(ctx, trigger, ids)

	payload, err := json.Marshal(profiles)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	broadcastPayload, _ := json.Marshal(WSMessage{Type: PresenceUpdateType, DocID: roomID, Payload: payload})

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.presenceVersion[roomID] != version {
		return
	}
	// Sends happen under the lock so no client channel is closed mid-send.
	for client := range h.Rooms[roomID] {
		select {
		case client.Send <- broadcastPayload:
		default:
			logger.Sugar.Warnf("Client %s's send buffer was full during presence update.", client.Identity.ID)
		}
	}
}
