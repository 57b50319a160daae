package websocket

import (
	"context"
	"net/http"
	"testing"
	"time"

	"aklny/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DeliversOncePerClientAcrossRooms(t *testing.T) {
	hub := startHub(t)
	a := newClient(hub, nil, &auth.Claims{UserID: "a"}, zap.NewNop())
	b := newClient(hub, nil, &auth.Claims{UserID: "b"}, zap.NewNop())

	hub.Register(a)
	hub.Register(b)
	hub.Join(a, "order_1")
	hub.Join(a, "user_a")
	hub.Join(b, "user_b")

	hub.Deliver([]string{"order_1", "user_a"}, []byte("x"))

	assert.Equal(t, []byte("x"), receive(t, a))
	assertSilent(t, a)
	assertSilent(t, b)
}

func TestHub_IgnoresJoinOfUnknownClient(t *testing.T) {
	hub := startHub(t)
	ghost := newClient(hub, nil, &auth.Claims{UserID: "ghost"}, zap.NewNop())

	hub.Join(ghost, "room")
	hub.Deliver([]string{"room"}, []byte("x"))

	assertSilent(t, ghost)
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := startHub(t)
	c := newClient(hub, nil, &auth.Claims{UserID: "c"}, zap.NewNop())
	hub.Register(c)
	hub.Join(c, "room")
	hub.Unregister(c)

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("client not released")
	}

	hub.Deliver([]string{"room"}, []byte("x"))
	assertSilent(t, c)
}

func TestLocalBroker_PublishesToHub(t *testing.T) {
	hub := startHub(t)
	c := newClient(hub, nil, &auth.Claims{UserID: "c"}, zap.NewNop())
	hub.Register(c)
	hub.Join(c, "room")

	broker := NewLocalBroker(hub)
	require.NoError(t, broker.Publish(context.Background(), []string{"room"}, []byte("hello")))
	assert.Equal(t, []byte("hello"), receive(t, c))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"allowed", "http://localhost:3000", true},
		{"other", "http://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, check(r))
		})
	}

	assert.True(t, originChecker([]string{"*"})(func() *http.Request {
		r, _ := http.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Origin", "http://anything")
		return r
	}()))
}
