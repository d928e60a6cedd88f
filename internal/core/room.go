package core

import "sort"

// Room groups clients editing the same shared document. The document is the
// single authoritative copy; edits overwrite it wholesale (last write wins,
// no merge history).
type Room struct {
	ID       string
	Document string
	clients  map[*Client]struct{}
}

// NewRoom constructs a room seeded with an initial document and no clients.
func NewRoom(id, document string) *Room {
	return &Room{
		ID:       id,
		Document: document,
		clients:  make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Broadcast sends an event to all clients in the room. A non-nil except
// client is skipped, which is how edits avoid echoing back to their sender.
func (r *Room) Broadcast(event *Event, except *Client) {
	for client := range r.clients {
		if client == except {
			continue
		}
		client.send(event)
	}
}

// Roster returns the display names of all clients in the room, sorted so
// repeated broadcasts of the same membership compare equal.
func (r *Room) Roster() []string {
	names := make([]string, 0, len(r.clients))
	for client := range r.clients {
		names = append(names, client.Name)
	}
	sort.Strings(names)
	return names
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}
