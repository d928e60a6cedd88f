package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventDocumentSync delivers the room's current document to a client
	// that just joined (or re-joined) the room.
	EventDocumentSync EventKind = iota
	// EventDocumentUpdate relays a new document to everyone except the editor.
	EventDocumentUpdate
	// EventRosterUpdate delivers the full list of display names in a room.
	EventRosterUpdate
	// EventMemberJoined notifies room members that someone joined.
	EventMemberJoined
	// EventMemberLeft notifies room members that someone left.
	EventMemberLeft
	// EventExecutionResult delivers a sandbox run result to the requester only.
	EventExecutionResult
	// EventError notifies a client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind      EventKind
	Room      string
	User      string
	Document  string
	Roster    []string
	Execution *ExecutionResult // non-nil for EventExecutionResult
	Error     *CoreError       // non-nil for EventError
}

// ExecutionResult is the terminal outcome of a sandboxed code run.
type ExecutionResult struct {
	Succeeded bool
	Output    string
}
