package events

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func TestHub_PublishToSubscribers(t *testing.T) {
	h := NewHub(nil)
	a, stopA := h.Subscribe()
	b, stopB := h.Subscribe()
	defer stopB()

	h.Publish(Event{Type: TypeRefreshed, Dataset: "tasks", Rows: 3})

	got := <-a
	require.Equal(t, TypeRefreshed, got.Type)
	require.False(t, got.At.IsZero())
	require.Equal(t, 3, (<-b).Rows)

	stopA()
	stopA()
	require.Equal(t, 1, h.Subscribers())
}

func TestHub_DropsForSlowSubscriber(t *testing.T) {
	h := NewHub(nil)
	ch, stop := h.Subscribe()
	defer stop()

	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish(Event{Type: TypeWritten, Rows: i})
	}
	require.Len(t, ch, subscriberBuffer)
}

func TestHub_ServeHTTPStreamsEvents(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Publish(Event{Type: TypeWritten, Dataset: "tasks", WriteID: "w-1", Rows: 7})

	var got Event
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	require.Equal(t, TypeWritten, got.Type)
	require.Equal(t, "tasks", got.Dataset)
	require.Equal(t, "w-1", got.WriteID)
	require.Equal(t, 7, got.Rows)
}
