package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
)

func newHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

// subscribe só retorna depois do ack, quando a assinatura já está registrada.
func subscribe(t *testing.T, conn *websocket.Conn, topic string) ServerMsg {
	t.Helper()
	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: topic}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ack ServerMsg
	readJSON(t, conn, &ack)
	return ack
}

func envelope(t *testing.T, typ string, v any) events.Envelope {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return events.Envelope{Type: typ, Payload: b}
}

func TestTopicsFor(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    []string
	}{
		{"market wager", events.WagerSettled{AccountID: "a1", TargetKind: "market", TargetID: "m1"}, []string{"*", "account:a1", "market:m1"}},
		{"coin toss", events.WagerSettled{AccountID: "a1", TargetKind: "instant"}, []string{"*", "account:a1"}},
		{"target result", events.TargetResult{TargetKind: "match", TargetID: "x"}, []string{"*", "match:x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopicsFor(envelope(t, "wager_settled", tt.payload))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("topics = %v, want %v", got, tt.want)
			}
		})
	}

	if got := TopicsFor(events.Envelope{Type: "x", Payload: json.RawMessage(`not json`)}); len(got) != 1 {
		t.Fatalf("garbage payload topics = %v", got)
	}
}

func TestHubDeliversToSubscribedAccount(t *testing.T) {
	hub, srv := newHub(t)
	alice := dial(t, srv)
	bob := dial(t, srv)

	if ack := subscribe(t, alice, "account:a1"); ack.Type != "subscribed" {
		t.Fatalf("ack = %+v", ack)
	}
	subscribe(t, bob, "account:b2")

	n := hub.Dispatch(envelope(t, "wager_settled", events.WagerSettled{WagerID: "w1", AccountID: "a1", TargetKind: "market", TargetID: "m1", Status: "won"}))
	if n != 1 {
		t.Fatalf("delivered = %d, want 1", n)
	}

	var upd Update
	readJSON(t, alice, &upd)
	if upd.Type != "wager_settled" {
		t.Fatalf("type = %q", upd.Type)
	}
	var ev events.WagerSettled
	if err := json.Unmarshal(upd.Payload, &ev); err != nil || ev.WagerID != "w1" {
		t.Fatalf("payload = %s (%v)", upd.Payload, err)
	}
}

func TestHubDeliversOncePerClient(t *testing.T) {
	hub, srv := newHub(t)
	conn := dial(t, srv)
	subscribe(t, conn, "account:a1")
	subscribe(t, conn, "market:m1")
	subscribe(t, conn, AllTopic)

	n := hub.Dispatch(envelope(t, "wager_placed", events.WagerPlaced{AccountID: "a1", TargetKind: "market", TargetID: "m1"}))
	if n != 1 {
		t.Fatalf("delivered = %d, want 1", n)
	}
}

func TestHubRejectsInvalidTopic(t *testing.T) {
	hub, srv := newHub(t)
	conn := dial(t, srv)

	if ack := subscribe(t, conn, "wallet:1"); ack.Type != "error" {
		t.Fatalf("ack = %+v, want error", ack)
	}
	if hub.Subscribers("wallet:1") != 0 {
		t.Fatal("invalid topic registered")
	}
}

func TestHubUnsubscribeAndPing(t *testing.T) {
	hub, srv := newHub(t)
	conn := dial(t, srv)
	subscribe(t, conn, "match:x")

	if err := conn.WriteJSON(ClientMsg{Type: "unsubscribe", Topic: "match:x"}); err != nil {
		t.Fatal(err)
	}
	var ack ServerMsg
	readJSON(t, conn, &ack)
	if ack.Type != "unsubscribed" || hub.Subscribers("match:x") != 0 {
		t.Fatalf("ack = %+v subscribers = %d", ack, hub.Subscribers("match:x"))
	}

	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatal(err)
	}
	var pong ServerMsg
	readJSON(t, conn, &pong)
	if pong.Type != "pong" {
		t.Fatalf("got %+v, want pong", pong)
	}
}

func TestHubDropsClosedConnections(t *testing.T) {
	hub, srv := newHub(t)
	conn := dial(t, srv)
	subscribe(t, conn, "account:a1")
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers("account:a1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection not dropped")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRelayDispatchesEnvelopes(t *testing.T) {
	hub, srv := newHub(t)
	conn := dial(t, srv)
	subscribe(t, conn, "market:m1")

	raw, _ := json.Marshal(envelope(t, "target_result", events.TargetResult{TargetKind: "market", TargetID: "m1", Result: "57"}))
	ch := make(chan *redis.Message, 3)
	ch <- &redis.Message{Channel: "settlement_broadcast", Payload: "not json"}
	ch <- nil
	ch <- &redis.Message{Channel: "settlement_broadcast", Payload: string(raw)}
	close(ch)

	Relay(context.Background(), ch, hub, zap.NewNop())

	var upd Update
	readJSON(t, conn, &upd)
	if upd.Type != "target_result" {
		t.Fatalf("type = %q", upd.Type)
	}
}
