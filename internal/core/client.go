package core

// AnonymousName is used when a connection never supplies a display name.
const AnonymousName = "Anonymous"

// Client is a connected editor as seen by the core layer. ID is unique per
// physical connection; Name is whatever the client announced at join time.
// Room is managed exclusively by the hub goroutine after registration.
type Client struct {
	ID       string
	Name     string
	Room     string
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name string) *Client {
	if name == "" {
		name = AnonymousName
	}
	return &Client{
		ID:       id,
		Name:     name,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 32),
	}
}

// send queues an event for delivery, dropping it if the client's write
// side is too slow to keep up.
func (c *Client) send(event *Event) {
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer.
	}
}
