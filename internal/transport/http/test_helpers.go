package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/hivemind/hivemind-server/internal/assist"
	"github.com/hivemind/hivemind-server/internal/config"
	"github.com/hivemind/hivemind-server/internal/core"
	"github.com/hivemind/hivemind-server/internal/identity"
	"github.com/hivemind/hivemind-server/internal/proto"
	"github.com/hivemind/hivemind-server/internal/sandbox"
)

func testJWTConfig() *identity.JWTConfig {
	return &identity.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
}

// startTestServer wires a real hub, runner and disabled assist service
// behind an httptest server.
func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	nop := zerolog.Nop()

	hub := core.NewHub(nil, &nop)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	runner := sandbox.NewRunner(sandbox.Options{Timeout: 5 * time.Second}, &nop)
	verifier := identity.NewJWTVerifier(testJWTConfig())

	assistSvc, err := assist.New(ctx, "", "", &nop)
	if err != nil {
		t.Fatalf("create assist service: %v", err)
	}

	server := NewServer(hub, runner, verifier, assistSvc, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &nop)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

// outboundEnvelope mirrors proto.Outbound with a raw Data payload so tests
// can decode it per event type.
type outboundEnvelope struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: data}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readEnvelope(t *testing.T, ctx context.Context, conn *websocket.Conn) outboundEnvelope {
	t.Helper()

	var env outboundEnvelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	return env
}

// expectEvent reads envelopes until one matches the wanted event name,
// failing if the context expires first.
func expectEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) outboundEnvelope {
	t.Helper()

	for {
		env := readEnvelope(t, ctx, conn)
		if env.Type == proto.OutboundTypeEvent && env.Event == event {
			return env
		}
	}
}

// expectSilence asserts no frame arrives within the window.
func expectSilence(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), window)
	defer cancel()

	var env outboundEnvelope
	if err := wsjson.Read(ctx, conn, &env); err == nil {
		t.Fatalf("expected silence, got %+v", env)
	}
}
