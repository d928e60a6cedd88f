package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoin    = "join"
	InboundTypeEdit    = "edit"
	InboundTypeExecute = "execute"
	InboundTypeLeave   = "leave"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventDocumentSync    = "document_sync"
	EventDocumentUpdate  = "document_update"
	EventRosterUpdate    = "roster_update"
	EventMemberJoined    = "member_joined"
	EventMemberLeft      = "member_left"
	EventExecutionResult = "execution_result"
)

// JoinData requests to join a specific room, optionally announcing a
// display name. A missing user falls back to the connection's identity
// or an anonymous placeholder.
type JoinData struct {
	Room string `json:"room"`
	User string `json:"user,omitempty"`
}

// EditData replaces the room's shared document wholesale.
type EditData struct {
	Room     string `json:"room"`
	Document string `json:"document"`
}

// ExecuteData asks the server to run a code snippet in the sandbox.
type ExecuteData struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// LeaveData leaves a specific room.
type LeaveData struct {
	Room string `json:"room"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// DocumentData carries the full document text for sync and update events.
type DocumentData struct {
	Room     string `json:"room"`
	Document string `json:"document"`
}

// RosterData carries the full list of display names in a room.
type RosterData struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// MemberData notifies about a single member joining or leaving.
type MemberData struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// ExecutionResultData is the terminal outcome of a sandbox run, delivered
// to the requesting connection only.
type ExecutionResultData struct {
	Succeeded bool   `json:"succeeded"`
	Output    string `json:"output"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
