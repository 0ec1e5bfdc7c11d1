package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mangarank/pkg/models"
)

func TestBroadcastJSONReachesTCPClients(t *testing.T) {
	hub := NewHub()

	server, client := net.Pipe()
	defer client.Close()
	hub.Add(server)

	lines := make(chan string, 1)
	go func() {
		sc := bufio.NewScanner(client)
		if sc.Scan() {
			lines <- sc.Text()
		}
	}()

	hub.BroadcastJSON(RankingEvent{
		Type:      RankingUpdateType,
		RankingID: "r1",
		OwnerUID:  "u1",
		At:        time.Now().UTC(),
	})

	select {
	case line := <-lines:
		var ev RankingEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("unmarshal broadcast line: %v", err)
		}
		if ev.Type != RankingUpdateType || ev.RankingID != "r1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestBroadcastPrunesDeadTCPClients(t *testing.T) {
	hub := NewHub()

	server, client := net.Pipe()
	hub.Add(server)
	client.Close()

	hub.BroadcastJSON(map[string]string{"type": "ping"})

	if got := hub.Count(); got != 0 {
		t.Fatalf("Count after dead client broadcast = %d, want 0", got)
	}
}

type staticItems struct {
	items []models.RankingItem
}

func (s staticItems) Items(ctx context.Context, rankingID string) ([]models.RankingItem, error) {
	return s.items, nil
}

func dialRankingWS(t *testing.T, hub *Hub, source ItemSource, rankingID string) (*websocket.Conn, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/rankings/:id", RankingWSHandler(hub, source, nil))

	srv := httptest.NewServer(router)
	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws/rankings/" + rankingID

	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	return ws, func() {
		ws.Close()
		srv.Close()
	}
}

func TestSubscriberGetsInitialAndPublishedSnapshots(t *testing.T) {
	hub := NewHub()
	source := staticItems{items: []models.RankingItem{
		{RankingID: "r1", MangaID: "m1", Position: 1, Title: "One"},
		{RankingID: "r1", MangaID: "m2", Position: 2, Title: "Two"},
	}}

	ws, done := dialRankingWS(t, hub, source, "r1")
	defer done()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial SnapshotEvent
	if err := ws.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if initial.Type != RankingSnapshotType || initial.RankingID != "r1" {
		t.Fatalf("unexpected initial snapshot: %+v", initial)
	}
	if len(initial.Items) != 2 || initial.Items[0].MangaID != "m1" {
		t.Fatalf("unexpected initial items: %+v", initial.Items)
	}

	// subscription registers after the initial write; wait for it
	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().Subscribers == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(RankingTopic("r1"), SnapshotEvent{
		Type:      RankingSnapshotType,
		RankingID: "r1",
		Items: []models.RankingItem{
			{RankingID: "r1", MangaID: "m2", Position: 1, Title: "Two"},
			{RankingID: "r1", MangaID: "m1", Position: 2, Title: "One"},
		},
		At: time.Now().UTC(),
	})

	var next SnapshotEvent
	if err := ws.ReadJSON(&next); err != nil {
		t.Fatalf("read published snapshot: %v", err)
	}
	if next.Items[0].MangaID != "m2" || next.Items[1].MangaID != "m1" {
		t.Fatalf("unexpected published order: %+v", next.Items)
	}
}

func TestPublishSkipsOtherTopics(t *testing.T) {
	hub := NewHub()
	source := staticItems{}

	ws, done := dialRankingWS(t, hub, source, "r1")
	defer done()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var initial SnapshotEvent
	if err := ws.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().Subscribers == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(RankingTopic("r2"), SnapshotEvent{Type: RankingSnapshotType, RankingID: "r2"})

	ws.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var stray SnapshotEvent
	if err := ws.ReadJSON(&stray); err == nil {
		t.Fatalf("received event for a topic we never subscribed to: %+v", stray)
	}
}

func TestStatsTracksTopicLifecycle(t *testing.T) {
	hub := NewHub()
	source := staticItems{}

	ws, done := dialRankingWS(t, hub, source, "r1")

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var initial SnapshotEvent
	if err := ws.ReadJSON(&initial); err != nil {
		done()
		t.Fatalf("read initial snapshot: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().Topics == 0 {
		if time.Now().After(deadline) {
			done()
			t.Fatal("topic never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	stats := hub.Stats()
	if stats.Topics != 1 || stats.Subscribers != 1 {
		done()
		t.Fatalf("Stats = %+v, want 1 topic with 1 subscriber", stats)
	}

	done()

	deadline = time.Now().Add(2 * time.Second)
	for hub.Stats().Topics != 0 {
		if time.Now().After(deadline) {
			t.Fatal("topic never cleaned up after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
