package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run joins a room with two clients, sends one message from the first and
// waits until the second receives it.
func run() error {
	addr := flag.String("addr", "ws://localhost:8000", "server base address")
	room := flag.String("room", "smoke", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sender, err := dial(ctx, *addr, *room, "smoke-sender")
	if err != nil {
		return err
	}
	defer sender.Close(websocket.StatusNormalClosure, "bye")

	receiver, err := dial(ctx, *addr, *room, "smoke-receiver")
	if err != nil {
		return err
	}
	defer receiver.Close(websocket.StatusNormalClosure, "bye")

	// The receiver's own join notice and member list arrive first.
	if err := waitFor(ctx, receiver, func(ev proto.Event) bool {
		return ev.Type == proto.OutboundTypeUsers
	}); err != nil {
		return err
	}

	if err := wsjson.Write(ctx, sender, proto.Inbound{Type: proto.InboundTypeMessage, Content: *text}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	return waitFor(ctx, receiver, func(ev proto.Event) bool {
		return ev.Type == proto.OutboundTypeMessage && ev.Content == *text
	})
}

func dial(ctx context.Context, addr, room, user string) (*websocket.Conn, error) {
	target := strings.TrimRight(addr, "/") + "/ws/" + url.PathEscape(room) + "?username=" + url.QueryEscape(user)
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", user, err)
	}
	return conn, nil
}

func waitFor(ctx context.Context, conn *websocket.Conn, match func(proto.Event) bool) error {
	for {
		var ev proto.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received: type=%s room=%s username=%s content=%q users=%v ts=%s\n",
			ev.Type, ev.Room, ev.Username, ev.Content, ev.Users, ev.Timestamp)
		if match(ev) {
			return nil
		}
	}
}
