package websocket

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/pageturn/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", os.DevNull)
	os.Exit(m.Run())
}

// testClient builds a client that never touches a real connection. Hub-side
// register, broadcast and unregister paths only use the send channel.
func testClient(h *Hub, userID string) *Client {
	c := NewClient(h, nil, userID)
	c.RemoteAddr = "test"
	return c
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.Shutdown(ctx)
	})
	return h
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.ClientCount() == want
	}, time.Second, 5*time.Millisecond)
}

func TestRegisterAndUnregister(t *testing.T) {
	h := startHub(t)

	c1 := testClient(h, "user-1")
	c2 := testClient(h, "")

	h.Register(c1)
	h.Register(c2)
	waitForClients(t, h, 2)

	stats := h.GetStats()
	assert.Equal(t, int64(2), stats.TotalConnections)
	assert.Equal(t, int64(2), stats.ActiveConnections)

	h.Unregister(c1)
	waitForClients(t, h, 1)

	stats = h.GetStats()
	assert.Equal(t, int64(2), stats.TotalConnections)
	assert.Equal(t, int64(1), stats.ActiveConnections)

	// Unregistering twice is a no-op.
	h.Unregister(c1)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, h.ClientCount())
}

func TestBroadcastArticleViewedReachesAllClients(t *testing.T) {
	h := startHub(t)

	c1 := testClient(h, "user-1")
	c2 := testClient(h, "user-2")
	h.Register(c1)
	h.Register(c2)
	waitForClients(t, h, 2)

	h.BroadcastArticleViewed("article-42", 7)

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, MessageTypeArticleViewed, msg.Type)

			raw, err := json.Marshal(msg.Payload)
			require.NoError(t, err)
			var payload ArticleViewedPayload
			require.NoError(t, json.Unmarshal(raw, &payload))
			assert.Equal(t, "article-42", payload.ArticleID)
			assert.Equal(t, int64(7), payload.Views)
		case <-time.After(time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}

	assert.Eventually(t, func() bool {
		return h.GetStats().MessagesSent == 2
	}, time.Second, 5*time.Millisecond)
}

func TestBroadcastPayloadWireFormat(t *testing.T) {
	msg := NewMessage(MessageTypeArticleViewed, ArticleViewedPayload{
		ArticleID: "a1",
		Views:     3,
	})

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(decoded["payload"], &payload))
	assert.Equal(t, "a1", payload["articleId"])
	assert.Equal(t, float64(3), payload["views"])
}

func TestSlowClientIsDropped(t *testing.T) {
	h := startHub(t)

	slow := testClient(h, "slow")
	fast := testClient(h, "fast")
	h.Register(slow)
	h.Register(fast)
	waitForClients(t, h, 2)

	// Fill the slow client's buffer so the next broadcast cannot enqueue.
	for i := 0; i < sendBufferSize; i++ {
		slow.send <- []byte("{}")
	}

	h.BroadcastArticleViewed("article-1", 1)

	waitForClients(t, h, 1)
	assert.Eventually(t, func() bool {
		return h.GetStats().ConnectionsDropped == 1
	}, time.Second, 5*time.Millisecond)

	// The healthy client still got the message.
	select {
	case <-fast.send:
	case <-time.After(time.Second):
		t.Fatal("fast client did not receive broadcast")
	}
}

func TestShutdownClosesClients(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := testClient(h, "user-1")
	h.Register(c)
	waitForClients(t, h, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))

	// The send channel is closed, possibly after a final shutdown notice.
	assert.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-c.send:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond)

	// Broadcasting after shutdown must not block.
	done := make(chan struct{})
	go func() {
		h.BroadcastArticleViewed("article-1", 1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after shutdown")
	}
}

func TestStatsSnapshotString(t *testing.T) {
	s := StatsSnapshot{
		TotalConnections:   5,
		ActiveConnections:  2,
		MessagesSent:       10,
		Errors:             1,
		ConnectionsDropped: 3,
	}
	assert.Equal(t, "connections=2/5 sent=10 errors=1 dropped=3", s.String())
}
