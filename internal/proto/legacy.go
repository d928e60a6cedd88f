package proto

import "encoding/json"

// The first HiveMind clients spoke a different event vocabulary
// ("join-room"/"joinRoom", "codeChange", "executeCode") with differently
// named payload fields. Normalize translates those envelopes into the
// canonical ones at the protocol boundary so the core never sees them.

const (
	legacyTypeJoinRoom   = "join-room"
	legacyTypeJoinCamel  = "joinRoom"
	legacyTypeCodeChange = "codeChange"
	legacyTypeExecute    = "executeCode"
)

type legacyJoinData struct {
	RoomID   string `json:"roomId"`
	User     string `json:"user"`
	Username string `json:"username"`
}

type legacyEditData struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

// Normalize rewrites a legacy inbound envelope into its canonical form.
// Canonical envelopes pass through untouched.
func Normalize(inbound Inbound) (Inbound, error) {
	switch inbound.Type {
	case legacyTypeJoinRoom, legacyTypeJoinCamel:
		var legacy legacyJoinData
		if err := json.Unmarshal(inbound.Data, &legacy); err != nil {
			return inbound, err
		}
		user := legacy.User
		if user == "" {
			user = legacy.Username
		}
		data, err := json.Marshal(JoinData{Room: legacy.RoomID, User: user})
		if err != nil {
			return inbound, err
		}
		return Inbound{Type: InboundTypeJoin, Data: data}, nil
	case legacyTypeCodeChange:
		var legacy legacyEditData
		if err := json.Unmarshal(inbound.Data, &legacy); err != nil {
			return inbound, err
		}
		data, err := json.Marshal(EditData{Room: legacy.RoomID, Document: legacy.Code})
		if err != nil {
			return inbound, err
		}
		return Inbound{Type: InboundTypeEdit, Data: data}, nil
	case legacyTypeExecute:
		// Same payload shape as the canonical execute, only the type differs.
		return Inbound{Type: InboundTypeExecute, Data: inbound.Data}, nil
	default:
		return inbound, nil
	}
}
