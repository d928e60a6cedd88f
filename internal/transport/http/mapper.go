package http

import (
	"encoding/json"
	"strings"

	"github.com/hivemind/hivemind-server/internal/core"
	"github.com/hivemind/hivemind-server/internal/proto"
	"github.com/hivemind/hivemind-server/internal/sandbox"
)

// inboundToCommand maps a canonical room-scoped envelope to a core command.
// Malformed payloads come back as a protocol error for the sender only;
// they never terminate the connection or disturb the room.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed join payload"}
		}
		if join.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: join.Room,
			User: join.User,
		}, nil
	case proto.InboundTypeEdit:
		var edit proto.EditData
		if err := json.Unmarshal(inbound.Data, &edit); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed edit payload"}
		}
		if edit.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}
		}
		return &core.Command{
			Kind:     core.CommandEditDocument,
			Room:     edit.Room,
			Document: edit.Document,
		}, nil
	case proto.InboundTypeLeave:
		var leave proto.LeaveData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed leave payload"}
		}
		return &core.Command{
			Kind: core.CommandLeaveRoom,
			Room: leave.Room,
		}, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}
	}
}

// inboundToExecuteRequest maps an execute envelope to a sandbox request.
func inboundToExecuteRequest(inbound proto.Inbound) (sandbox.Request, *proto.Error) {
	var ex proto.ExecuteData
	if err := json.Unmarshal(inbound.Data, &ex); err != nil {
		return sandbox.Request{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed execute payload"}
	}
	return sandbox.Request{
		Code:     ex.Code,
		Language: sandbox.Language(strings.ToLower(ex.Language)),
	}, nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventDocumentSync:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventDocumentSync,
			Data:  proto.DocumentData{Room: event.Room, Document: event.Document},
		}
	case core.EventDocumentUpdate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventDocumentUpdate,
			Data:  proto.DocumentData{Room: event.Room, Document: event.Document},
		}
	case core.EventRosterUpdate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventRosterUpdate,
			Data:  proto.RosterData{Room: event.Room, Users: event.Roster},
		}
	case core.EventMemberJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMemberJoined,
			Data:  proto.MemberData{Room: event.Room, User: event.User},
		}
	case core.EventMemberLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMemberLeft,
			Data:  proto.MemberData{Room: event.Room, User: event.User},
		}
	case core.EventExecutionResult:
		data := proto.ExecutionResultData{}
		if event.Execution != nil {
			data.Succeeded = event.Execution.Succeeded
			data.Output = event.Execution.Output
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventExecutionResult,
			Data:  data,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
