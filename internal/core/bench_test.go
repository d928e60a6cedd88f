package core

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func benchmarkEditBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	sender := NewClient("sender", "sender")
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench"}

	clients := make([]*Client, 0, recipients)
	for i := range recipients {
		c := NewClient(fmt.Sprintf("c%d", i), "client")
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench"}
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	// Let the joins settle, then clear the membership backlog so the first
	// broadcast is not dropped against a full buffer.
	time.Sleep(200 * time.Millisecond)
	for drained := false; !drained; {
		select {
		case <-target.Events:
		default:
			drained = true
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{
			Kind:     CommandEditDocument,
			Room:     "bench",
			Document: "payload",
		}
		for {
			ev := <-target.Events
			if ev.Kind == EventDocumentUpdate {
				break
			}
		}
	}
}

func BenchmarkEditBroadcast_10(b *testing.B)  { benchmarkEditBroadcast(b, 10) }
func BenchmarkEditBroadcast_100(b *testing.B) { benchmarkEditBroadcast(b, 100) }
func BenchmarkEditBroadcast_500(b *testing.B) { benchmarkEditBroadcast(b, 500) }
