package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Noe001/work-optimizer-sub001/internal/services"
	"github.com/gorilla/websocket"
)

// Outbound frames reach a connection from two goroutines: the hub forwarder
// and the reader loop's acks. gorilla allows exactly one concurrent writer
// and panics otherwise, so every write must go through the session lock.
func TestWSSessionSerializesConcurrentWrites(t *testing.T) {
	const writers = 8
	const framesPerWriter = 20

	received := make(chan struct{}, writers*framesPerWriter)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	sess := &wsSession{conn: conn}

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < framesPerWriter; j++ {
				evt := services.ChatEvent{
					Type:      services.EventTypeMessage,
					RoomID:    "room-1",
					Timestamp: time.Now().UTC(),
				}
				if err := sess.writeEvent(evt); err != nil {
					t.Errorf("writeEvent: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for i := 0; i < writers*framesPerWriter; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatalf("server received %d of %d frames", i, writers*framesPerWriter)
		}
	}
}
