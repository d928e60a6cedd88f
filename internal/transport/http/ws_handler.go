package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hivemind/hivemind-server/internal/core"
	"github.com/hivemind/hivemind-server/internal/identity"
	"github.com/hivemind/hivemind-server/internal/proto"
	"github.com/hivemind/hivemind-server/internal/sandbox"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
// Room traffic flows through the hub; execute requests go straight to the
// sandbox runner and their results come back on the same event channel.
type WSHandler struct {
	hub      *core.Hub
	runner   *sandbox.Runner
	verifier identity.Verifier
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, runner *sandbox.Runner, verifier identity.Verifier, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, runner: runner, verifier: verifier, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	// A missing or invalid credential never rejects the connection; the
	// client simply edits anonymously until a join payload names it.
	name := ""
	if token := bearerToken(r); token != "" && h.verifier != nil {
		if id, verifyErr := h.verifier.Verify(token); verifyErr == nil {
			name = id.DisplayName
		} else {
			h.log.Debug().Err(verifyErr).Msg("invalid credential, continuing anonymously")
		}
	}

	client := core.NewClient(uuid.NewString(), name)
	h.hub.RegisterClient(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	// Implicit leave: runs on every termination path, normal or not, so
	// rosters never keep a stale member.
	close(client.Commands)
	h.hub.UnregisterClient(client)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		inbound, err := proto.Normalize(inbound)
		if err != nil {
			h.pushError(client, core.ErrCodeBadRequest, "malformed payload")
			continue
		}

		if inbound.Type == proto.InboundTypeExecute {
			h.handleExecute(ctx, client, inbound)
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			h.pushError(client, protoErr.Code, protoErr.Msg)
			continue
		}
		if cmd != nil {
			client.Commands <- cmd
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleExecute dispatches a sandbox run on its own goroutine so a slow or
// hung interpreter never stalls this connection's reads or any room. The
// result goes to this client only. The connection context is passed through,
// so a run is abandoned when its requester disconnects.
func (h *WSHandler) handleExecute(ctx context.Context, client *core.Client, inbound proto.Inbound) {
	req, protoErr := inboundToExecuteRequest(inbound)
	if protoErr != nil {
		h.pushError(client, protoErr.Code, protoErr.Msg)
		return
	}

	if !sandbox.Supported(req.Language) {
		h.pushResult(client, core.ExecutionResult{
			Succeeded: false,
			Output:    "Unsupported language: " + string(req.Language),
		})
		return
	}

	go func() {
		res := h.runner.Execute(ctx, req)
		h.pushResult(client, core.ExecutionResult{Succeeded: res.Succeeded, Output: res.CombinedOutput})
	}()
}

// pushError and pushResult route through the client's event channel so the
// write loop stays the single writer on the socket.
func (h *WSHandler) pushError(client *core.Client, code, msg string) {
	select {
	case client.Events <- &core.Event{Kind: core.EventError, Error: &core.CoreError{Code: code, Message: msg}}:
	default:
	}
}

func (h *WSHandler) pushResult(client *core.Client, res core.ExecutionResult) {
	select {
	case client.Events <- &core.Event{Kind: core.EventExecutionResult, Execution: &res}:
	default:
	}
}

// bearerToken pulls the credential from the token query parameter or the
// Authorization header. Browser WebSocket clients cannot set headers, hence
// the query fallback.
func bearerToken(r *stdhttp.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
