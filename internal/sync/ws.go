package sync

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mangarank/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // OK for demo; restrict in production
	},
}

// ItemSource loads the current ordered item list of a ranking, used for
// the initial delivery of a subscription.
type ItemSource interface {
	Items(ctx context.Context, rankingID string) ([]models.RankingItem, error)
}

// WSHandler upgrades a firehose client: it receives every event the hub
// publishes.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		hub.AddWS(ws)
		log.Println("[ws] firehose client connected")

		_ = ws.WriteMessage(
			websocket.TextMessage,
			[]byte(`{"type":"welcome","transport":"websocket"}`),
		)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		log.Println("[ws] firehose client disconnected")
	}
}

// RankingWSHandler upgrades a per-ranking subscriber. The client gets a
// full ordered snapshot immediately and again after every mutation of
// that ranking's items. authorize runs before the upgrade and should
// abort the gin context on rejection.
func RankingWSHandler(hub *Hub, source ItemSource, authorize func(c *gin.Context, rankingID string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		rankingID := c.Param("id")
		if rankingID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ranking id required"})
			return
		}
		if authorize != nil && !authorize(c, rankingID) {
			return
		}

		items, err := source.Items(c.Request.Context(), rankingID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "load items failed"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		initial := SnapshotEvent{
			Type:      RankingSnapshotType,
			RankingID: rankingID,
			Items:     items,
			At:        time.Now().UTC(),
		}
		if err := ws.WriteJSON(initial); err != nil {
			_ = ws.Close()
			return
		}

		topic := RankingTopic(rankingID)
		hub.Subscribe(topic, ws)
		log.Printf("[ws] subscribed to %s", topic)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Unsubscribe(topic, ws)
		log.Printf("[ws] unsubscribed from %s", topic)
	}
}
