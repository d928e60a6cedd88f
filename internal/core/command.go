package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the client to a room and resyncs its view.
	CommandJoinRoom CommandKind = iota
	// CommandEditDocument overwrites the room's shared document.
	CommandEditDocument
	// CommandLeaveRoom unsubscribes the client from its room.
	CommandLeaveRoom
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	Room string
	// User is the display name announced in a join payload. Empty means
	// keep whatever name the connection already has.
	User string
	// Document is the full replacement text for an edit.
	Document string
}
