// Command ws_room is a small interactive client for poking at a running
// server: it joins a room, mirrors document and roster events, and lets
// you send edits and execution requests from the terminal.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/hivemind/hivemind-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_room: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "display name")
	room := flag.String("room", "general", "room to join")
	lang := flag.String("lang", "javascript", "language for :run (javascript or python)")
	token := flag.String("token", "", "optional JWT bearer token")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	dialAddr := *addr
	if *token != "" {
		sep := "?"
		if strings.Contains(dialAddr, "?") {
			sep = "&"
		}
		dialAddr += sep + "token=" + *token
	}

	conn, _, err := websocket.Dial(ctx, dialAddr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, err := json.Marshal(proto.JoinData{Room: *room, User: *user})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: joinPayload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s as %s in room %s\n", *addr, *user, *room)
	fmt.Println("Type text and press Enter to replace the shared document.")
	fmt.Println("Commands: :doc prints the document, :run executes it, Ctrl+C exits.")

	docs := make(chan string, 8)
	go func() {
		defer cancel()
		readLoop(ctx, conn, docs)
	}()

	writeLoop(ctx, conn, *room, *lang, docs)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn, docs chan<- string) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Type == proto.OutboundTypeError && outbound.Error != nil {
			fmt.Printf("error [%s]: %s\n", outbound.Error.Code, outbound.Error.Msg)
			continue
		}

		raw, err := json.Marshal(outbound.Data)
		if err != nil {
			log.Printf("marshal outbound data: %v", err)
			continue
		}

		switch outbound.Event {
		case proto.EventDocumentSync, proto.EventDocumentUpdate:
			var evt proto.DocumentData
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal document: %v", err)
				continue
			}
			select {
			case docs <- evt.Document:
			default:
			}
			fmt.Printf("[room %s] document is now:\n%s\n", evt.Room, evt.Document)
		case proto.EventRosterUpdate:
			var evt proto.RosterData
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal roster: %v", err)
				continue
			}
			fmt.Printf("[room %s] members: %s\n", evt.Room, strings.Join(evt.Users, ", "))
		case proto.EventMemberJoined:
			var evt proto.MemberData
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal member_joined: %v", err)
				continue
			}
			fmt.Printf("[room %s] %s joined\n", evt.Room, evt.User)
		case proto.EventMemberLeft:
			var evt proto.MemberData
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal member_left: %v", err)
				continue
			}
			fmt.Printf("[room %s] %s left\n", evt.Room, evt.User)
		case proto.EventExecutionResult:
			var evt proto.ExecutionResultData
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal execution_result: %v", err)
				continue
			}
			status := "ok"
			if !evt.Succeeded {
				status = "failed"
			}
			fmt.Printf("[run %s]\n%s\n", status, evt.Output)
		default:
			fmt.Printf("event=%s data=%v\n", outbound.Event, outbound.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, room, lang string, docs <-chan string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	var document string

	for {
		select {
		case <-ctx.Done():
			return
		case doc := <-docs:
			document = doc
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			switch text {
			case ":doc":
				fmt.Println(document)
				continue
			case ":run":
				payload, err := json.Marshal(proto.ExecuteData{Code: document, Language: lang})
				if err != nil {
					log.Printf("marshal execute: %v", err)
					return
				}
				if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeExecute, Data: payload}); err != nil {
					log.Printf("send error: %v", err)
					return
				}
				continue
			}

			document = text
			payload, err := json.Marshal(proto.EditData{Room: room, Document: text})
			if err != nil {
				log.Printf("marshal edit: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeEdit, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
