package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"mangarank/pkg/models"
	"mangarank/pkg/rankview"
)

// compile-time check: Client backs a rankview.View
var _ rankview.Store = (*Client)(nil)

// snapshotMsg mirrors the server's ranking.snapshot event.
type snapshotMsg struct {
	Type      string               `json:"type"`
	RankingID string               `json:"ranking_id"`
	Items     []models.RankingItem `json:"items"`
}

// Subscribe dials the per-ranking WebSocket and pumps snapshots into
// deliver until stop is called or the connection dies. The server sends
// the current state immediately on connect, then again after every
// mutation.
func (c *Client) Subscribe(rankingID string, deliver rankview.SnapshotFunc, fail func(error)) (func(), error) {
	endpoint, err := c.WebsocketURL("/ws/rankings/" + rankingID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if c.Token != "" {
		header.Set("Authorization", "Bearer "+c.Token)
	}

	ws, _, err := websocket.DefaultDialer.Dial(endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			var msg snapshotMsg
			if err := ws.ReadJSON(&msg); err != nil {
				select {
				case <-done:
					// stopped on purpose, not an error
				default:
					if fail != nil {
						fail(err)
					}
				}
				return
			}
			if msg.Type != "ranking.snapshot" || msg.RankingID != rankingID {
				continue
			}
			deliver(msg.Items)
		}
	}()

	stop := func() {
		close(done)
		_ = ws.Close()
	}
	return stop, nil
}

// SaveOrder commits a full reorder.
func (c *Client) SaveOrder(ctx context.Context, rankingID string, orderedIDs []string) error {
	return c.doJSON(ctx, http.MethodPut,
		"/users/rankings/"+url.PathEscape(rankingID)+"/order",
		map[string]any{"ordered_ids": orderedIDs}, nil)
}

// DeleteItem removes one manga from the ranking.
func (c *Client) DeleteItem(ctx context.Context, rankingID, mangaID string) error {
	return c.doJSON(ctx, http.MethodDelete,
		"/users/rankings/"+url.PathEscape(rankingID)+"/items/"+url.PathEscape(mangaID), nil, nil)
}

// GetManga fetches one catalog document; absent ids return (nil, nil)
// so the view can cache the miss.
func (c *Client) GetManga(ctx context.Context, mangaID string) (*models.Manga, error) {
	var m models.Manga
	err := c.doJSON(ctx, http.MethodGet, "/manga/"+url.PathEscape(mangaID), nil, &m)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
