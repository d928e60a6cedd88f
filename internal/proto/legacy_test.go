package proto

import (
	"encoding/json"
	"testing"
)

func TestNormalizeLegacyJoin(t *testing.T) {
	cases := []struct {
		name    string
		inType  string
		payload string
		want    JoinData
	}{
		{"dashed with user", "join-room", `{"roomId":"R1","user":"Alice"}`, JoinData{Room: "R1", User: "Alice"}},
		{"camel with username", "joinRoom", `{"roomId":"R1","username":"Bob"}`, JoinData{Room: "R1", User: "Bob"}},
		{"missing name", "join-room", `{"roomId":"R1"}`, JoinData{Room: "R1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Normalize(Inbound{Type: tc.inType, Data: json.RawMessage(tc.payload)})
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if out.Type != InboundTypeJoin {
				t.Fatalf("expected canonical join, got %q", out.Type)
			}
			var got JoinData
			if err := json.Unmarshal(out.Data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNormalizeLegacyCodeChange(t *testing.T) {
	out, err := Normalize(Inbound{Type: "codeChange", Data: json.RawMessage(`{"roomId":"R1","code":"print(1)"}`)})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out.Type != InboundTypeEdit {
		t.Fatalf("expected canonical edit, got %q", out.Type)
	}
	var got EditData
	if err := json.Unmarshal(out.Data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Room != "R1" || got.Document != "print(1)" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestNormalizePassesCanonicalThrough(t *testing.T) {
	in := Inbound{Type: InboundTypeExecute, Data: json.RawMessage(`{"code":"1","language":"python"}`)}
	out, err := Normalize(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out.Type != in.Type || string(out.Data) != string(in.Data) {
		t.Fatalf("canonical envelope was rewritten: %+v", out)
	}
}
