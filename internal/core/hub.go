package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/hivemind/hivemind-server/internal/store"
)

const (
	// seedTimeout bounds the store read when a room is first created.
	seedTimeout = 3 * time.Second
	// persistTimeout bounds the fire-and-forget save of an accepted edit.
	persistTimeout = 5 * time.Second
)

// DefaultDocument is the text a brand-new room starts with when the store
// holds nothing for it.
func DefaultDocument(roomID string) string {
	return "// Welcome to HiveMind Room: " + roomID
}

// clientCommand pairs a command with the client that issued it.
type clientCommand struct {
	client *Client
	cmd    *Command
}

// Hub owns the room registry and serializes every mutation of room state.
// All rooms are driven by the single Run goroutine, so join, edit and leave
// are atomic with respect to each other and room creation cannot race.
// Sandbox executions never pass through the hub.
type Hub struct {
	store store.DocumentStore
	log   *zerolog.Logger

	rooms   map[string]*Room
	clients map[*Client]struct{}

	commands   chan clientCommand
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a hub backed by the given document store. A nil store is
// allowed (documents live only in memory), which tests rely on.
func NewHub(st store.DocumentStore, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		store:      st,
		log:        logger,
		rooms:      make(map[string]*Room),
		clients:    make(map[*Client]struct{}),
		commands:   make(chan clientCommand, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// RegisterClient attaches a client to the hub and starts pumping its
// commands into the hub's single processing loop.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
	go func() {
		for cmd := range c.Commands {
			h.commands <- clientCommand{client: c, cmd: cmd}
		}
	}()
}

// UnregisterClient detaches a client, performing an implicit leave for
// whatever room it was in. Safe to call exactly once per connection,
// on every termination path.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// Run processes registrations and commands until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.Debug().Str("client_id", c.ID).Msg("client registered")
		case c := <-h.unregister:
			if _, known := h.clients[c]; !known {
				continue
			}
			delete(h.clients, c)
			h.leaveCurrentRoom(c)
			h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")
		case cc := <-h.commands:
			if _, known := h.clients[cc.client]; !known {
				continue
			}
			h.handleCommand(cc.client, cc.cmd)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleCommand(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(c, cmd)
	case CommandEditDocument:
		h.handleEdit(c, cmd)
	case CommandLeaveRoom:
		h.handleLeave(c, cmd)
	}
}

// handleJoin adds the client to the room, syncs the current document to the
// joiner only and tells everyone else about the membership change. Joining a
// room the client is already in just resyncs its document view.
func (h *Hub) handleJoin(c *Client, cmd *Command) {
	if cmd.Room == "" {
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "room is required")})
		return
	}
	if cmd.User != "" {
		c.Name = cmd.User
	}
	if c.Name == "" {
		c.Name = AnonymousName
	}

	// A connection belongs to at most one room.
	if c.Room != "" && c.Room != cmd.Room {
		h.leaveCurrentRoom(c)
	}

	room := h.getOrCreateRoom(cmd.Room)
	added := room.AddClient(c)
	c.Room = room.ID

	c.send(&Event{Kind: EventDocumentSync, Room: room.ID, Document: room.Document})

	if !added {
		return
	}

	h.log.Info().Str("client_id", c.ID).Str("user", c.Name).Str("room", room.ID).Msg("member joined")
	room.Broadcast(&Event{Kind: EventMemberJoined, Room: room.ID, User: c.Name}, c)
	room.Broadcast(&Event{Kind: EventRosterUpdate, Room: room.ID, Roster: room.Roster()}, nil)
}

// handleEdit overwrites the room's document with the submitted text (last
// write wins; concurrent edits from two members can clobber each other, a
// documented limitation of this editing model). The new document is relayed
// to every member except the editor and persisted in the background.
func (h *Hub) handleEdit(c *Client, cmd *Command) {
	room, ok := h.rooms[cmd.Room]
	if !ok {
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeRoomNotFound, "room not found")})
		return
	}
	if c.Room != room.ID {
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeNotInRoom, "not in room")})
		return
	}

	room.Document = cmd.Document
	h.persistAsync(room.ID, cmd.Document)
	room.Broadcast(&Event{Kind: EventDocumentUpdate, Room: room.ID, Document: cmd.Document}, c)
}

func (h *Hub) handleLeave(c *Client, cmd *Command) {
	if cmd.Room != "" && cmd.Room != c.Room {
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeNotInRoom, "not in room")})
		return
	}
	if c.Room == "" {
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeNotInRoom, "not in room")})
		return
	}
	h.leaveCurrentRoom(c)
}

// leaveCurrentRoom removes the client from its room, if any, and notifies
// the remaining members. Dormant rooms stay in the registry; only their
// membership empties out.
func (h *Hub) leaveCurrentRoom(c *Client) {
	if c.Room == "" {
		return
	}
	room, ok := h.rooms[c.Room]
	c.Room = ""
	if !ok || !room.RemoveClient(c) {
		return
	}

	h.log.Info().Str("client_id", c.ID).Str("user", c.Name).Str("room", room.ID).Msg("member left")
	room.Broadcast(&Event{Kind: EventMemberLeft, Room: room.ID, User: c.Name}, nil)
	room.Broadcast(&Event{Kind: EventRosterUpdate, Room: room.ID, Roster: room.Roster()}, nil)
}

// getOrCreateRoom returns the room for an identifier, creating it on first
// join. The seed comes from the document store when a prior save exists,
// otherwise the deterministic welcome text. Only the hub goroutine calls
// this, so two concurrent joins to a new room cannot create it twice.
func (h *Hub) getOrCreateRoom(roomID string) *Room {
	if room, ok := h.rooms[roomID]; ok {
		return room
	}

	document := DefaultDocument(roomID)
	if h.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
		stored, err := h.store.GetDocument(ctx, roomID)
		cancel()
		switch {
		case err == nil:
			document = stored
		case errors.Is(err, store.ErrNotFound):
			// First time this room is seen; keep the welcome text.
		default:
			h.log.Warn().Err(err).Str("room", roomID).Msg("seed document read failed, using default")
		}
	}

	room := NewRoom(roomID, document)
	h.rooms[roomID] = room
	h.log.Info().Str("room", roomID).Msg("room created")
	return room
}

// persistAsync saves an accepted edit without blocking the hub. Failures are
// logged only; the in-memory document remains authoritative and the next
// successful save re-synchronizes storage.
func (h *Hub) persistAsync(roomID, document string) {
	if h.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := h.store.PutDocument(ctx, roomID, document); err != nil {
			h.log.Warn().Err(err).Str("room", roomID).Msg("persist document failed")
		}
	}()
}
