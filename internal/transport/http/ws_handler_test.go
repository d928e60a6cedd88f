package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/hivemind/hivemind-server/internal/core"
	"github.com/hivemind/hivemind-server/internal/identity"
	"github.com/hivemind/hivemind-server/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketJoinEditLeaveFlow(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)

	// Alice joins an empty room and gets the default welcome text.
	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "R1", User: "Alice"})
	sync := expectEvent(t, ctx, connA, proto.EventDocumentSync)
	var syncData proto.DocumentData
	if err := json.Unmarshal(sync.Data, &syncData); err != nil {
		t.Fatalf("unmarshal sync: %v", err)
	}
	if syncData.Document != core.DefaultDocument("R1") {
		t.Fatalf("unexpected initial document: %q", syncData.Document)
	}

	// Bob joins; he gets the same sync, Alice learns about him.
	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "R1", User: "Bob"})
	bobSync := expectEvent(t, ctx, connB, proto.EventDocumentSync)
	var bobSyncData proto.DocumentData
	if err := json.Unmarshal(bobSync.Data, &bobSyncData); err != nil {
		t.Fatalf("unmarshal bob sync: %v", err)
	}
	if bobSyncData.Document != syncData.Document {
		t.Fatalf("joiners saw different documents: %q vs %q", bobSyncData.Document, syncData.Document)
	}

	joined := expectEvent(t, ctx, connA, proto.EventMemberJoined)
	var joinedData proto.MemberData
	if err := json.Unmarshal(joined.Data, &joinedData); err != nil {
		t.Fatalf("unmarshal member_joined: %v", err)
	}
	if joinedData.User != "Bob" {
		t.Fatalf("unexpected joiner: %+v", joinedData)
	}

	roster := expectEvent(t, ctx, connA, proto.EventRosterUpdate)
	var rosterData proto.RosterData
	if err := json.Unmarshal(roster.Data, &rosterData); err != nil {
		t.Fatalf("unmarshal roster: %v", err)
	}
	if len(rosterData.Users) != 2 || rosterData.Users[0] != "Alice" || rosterData.Users[1] != "Bob" {
		t.Fatalf("unexpected roster: %v", rosterData.Users)
	}
	// Bob sees the same roster broadcast.
	expectEvent(t, ctx, connB, proto.EventRosterUpdate)

	// Alice edits; Bob receives the new document verbatim.
	sendInbound(t, ctx, connA, proto.InboundTypeEdit, proto.EditData{Room: "R1", Document: "print(1)"})
	update := expectEvent(t, ctx, connB, proto.EventDocumentUpdate)
	var updateData proto.DocumentData
	if err := json.Unmarshal(update.Data, &updateData); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if updateData.Document != "print(1)" {
		t.Fatalf("unexpected update payload: %+v", updateData)
	}

	// Bob disconnects without an explicit leave; Alice's roster shrinks.
	connB.Close(websocket.StatusNormalClosure, "done")

	left := expectEvent(t, ctx, connA, proto.EventMemberLeft)
	var leftData proto.MemberData
	if err := json.Unmarshal(left.Data, &leftData); err != nil {
		t.Fatalf("unmarshal member_left: %v", err)
	}
	if leftData.User != "Bob" || leftData.Room != "R1" {
		t.Fatalf("unexpected member_left: %+v", leftData)
	}

	finalRoster := expectEvent(t, ctx, connA, proto.EventRosterUpdate)
	if err := json.Unmarshal(finalRoster.Data, &rosterData); err != nil {
		t.Fatalf("unmarshal final roster: %v", err)
	}
	if len(rosterData.Users) != 1 || rosterData.Users[0] != "Alice" {
		t.Fatalf("unexpected roster after disconnect: %v", rosterData.Users)
	}
}

func TestWebSocketEditNotEchoedToSender(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)

	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "R2", User: "Alice"})
	expectEvent(t, ctx, connA, proto.EventDocumentSync)
	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "R2", User: "Bob"})
	expectEvent(t, ctx, connB, proto.EventDocumentSync)
	// Clear the membership traffic triggered by Bob's join.
	expectEvent(t, ctx, connA, proto.EventRosterUpdate)
	expectEvent(t, ctx, connB, proto.EventRosterUpdate)

	sendInbound(t, ctx, connA, proto.InboundTypeEdit, proto.EditData{Room: "R2", Document: "v2"})
	expectEvent(t, ctx, connB, proto.EventDocumentUpdate)

	// The editor gets no echo. Final assertion on connA: the silent read
	// tears the connection down.
	expectSilence(t, connA, 500*time.Millisecond)
}

func TestWebSocketExecuteEmptyCode(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	sendInbound(t, ctx, conn, proto.InboundTypeExecute, proto.ExecuteData{Code: "", Language: "python"})

	env := expectEvent(t, ctx, conn, proto.EventExecutionResult)
	var res proto.ExecutionResultData
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if res.Succeeded || res.Output != "No code to execute." {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestWebSocketExecuteUnsupportedLanguage(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	sendInbound(t, ctx, conn, proto.InboundTypeExecute, proto.ExecuteData{Code: "puts 1", Language: "ruby"})

	env := expectEvent(t, ctx, conn, proto.EventExecutionResult)
	var res proto.ExecutionResultData
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if res.Succeeded {
		t.Fatalf("unsupported language reported success: %+v", res)
	}
}

func TestWebSocketLegacyVocabulary(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)

	// Legacy camel-case join with a username field.
	sendInbound(t, ctx, connA, "joinRoom", map[string]string{"roomId": "L1", "username": "Alice"})
	expectEvent(t, ctx, connA, proto.EventDocumentSync)

	sendInbound(t, ctx, connB, "join-room", map[string]string{"roomId": "L1", "user": "Bob"})
	expectEvent(t, ctx, connB, proto.EventDocumentSync)
	expectEvent(t, ctx, connA, proto.EventMemberJoined)

	// Legacy codeChange carries the document in a code field.
	sendInbound(t, ctx, connA, "codeChange", map[string]string{"roomId": "L1", "code": "let x = 1"})

	update := expectEvent(t, ctx, connB, proto.EventDocumentUpdate)
	var updateData proto.DocumentData
	if err := json.Unmarshal(update.Data, &updateData); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if updateData.Document != "let x = 1" {
		t.Fatalf("legacy edit not translated: %+v", updateData)
	}
}

func TestWebSocketMalformedPayloadKeepsConnectionAlive(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)

	// Join without a room: tolerated as an error envelope, not a close.
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{})
	env := readEnvelope(t, ctx, conn)
	if env.Type != proto.OutboundTypeError || env.Error == nil || env.Error.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request error, got %+v", env)
	}

	// The same connection still works.
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "R3"})
	expectEvent(t, ctx, conn, proto.EventDocumentSync)
}

func TestAssistEndpointsRequireAuth(t *testing.T) {
	ts := startTestServer(t)

	body := bytes.NewBufferString(`{"description":"a web server"}`)
	resp, err := ts.Client().Post(ts.URL+"/api/assist/generate", "application/json", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credential, got %d", resp.StatusCode)
	}
}

func TestAssistDisabledWithValidToken(t *testing.T) {
	ts := startTestServer(t)

	token, err := identity.GenerateToken(testJWTConfig(), 7, "alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/assist/generate",
		bytes.NewBufferString(`{"description":"a web server"}`))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	// No API key configured in tests: authenticated callers get a clean 503.
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with assist disabled, got %d", resp.StatusCode)
	}
}
