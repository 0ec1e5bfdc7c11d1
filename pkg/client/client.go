// Package client is the Go API client for the mangarank server. It
// also satisfies rankview.Store, so a rankview.View can run directly
// against a live server: snapshots arrive over the per-ranking
// WebSocket and writes go through the REST endpoints.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mangarank/pkg/models"
)

const DefaultBaseURL = "http://localhost:8080"

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Handle   string `json:"handle"`
}

type AuthResponse struct {
	User      AuthUser `json:"user"`
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at"`
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username, "email": email, "password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

type MangaPage struct {
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Items  []models.Manga `json:"items"`
}

func (c *Client) SearchManga(ctx context.Context, q string, limit, offset int) (*MangaPage, error) {
	qv := url.Values{}
	if q != "" {
		qv.Set("q", q)
	}
	qv.Set("limit", fmt.Sprintf("%d", limit))
	qv.Set("offset", fmt.Sprintf("%d", offset))

	var resp MangaPage
	if err := c.doJSON(ctx, http.MethodGet, "/manga?"+qv.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type RankingView struct {
	Ranking models.Ranking       `json:"ranking"`
	Items   []models.RankingItem `json:"items"`
}

func (c *Client) CreateRanking(ctx context.Context, title, visibility string) (*models.Ranking, error) {
	var rk models.Ranking
	err := c.doJSON(ctx, http.MethodPost, "/users/rankings", map[string]string{
		"title": title, "visibility": visibility,
	}, &rk)
	if err != nil {
		return nil, err
	}
	return &rk, nil
}

type RankingPage struct {
	Total int              `json:"total"`
	Items []models.Ranking `json:"items"`
}

func (c *Client) ListRankings(ctx context.Context) (*RankingPage, error) {
	var resp RankingPage
	if err := c.doJSON(ctx, http.MethodGet, "/users/rankings", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetRanking(ctx context.Context, id string) (*RankingView, error) {
	var resp RankingView
	if err := c.doJSON(ctx, http.MethodGet, "/rankings/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResolveShare maps a share URL tail to a ranking: pass handle+slug,
// or a slug-shortid string in short.
func (c *Client) ResolveShare(ctx context.Context, handle, slug, short string) (*models.Ranking, error) {
	qv := url.Values{}
	if handle != "" {
		qv.Set("handle", handle)
	}
	if slug != "" {
		qv.Set("slug", slug)
	}
	if short != "" {
		qv.Set("short", short)
	}

	var rk models.Ranking
	if err := c.doJSON(ctx, http.MethodGet, "/rankings/resolve?"+qv.Encode(), nil, &rk); err != nil {
		return nil, err
	}
	return &rk, nil
}

func (c *Client) DeleteRanking(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/rankings/"+url.PathEscape(id), nil, nil)
}

func (c *Client) AddRankingItems(ctx context.Context, rankingID string, mangaIDs []string) error {
	items := make([]map[string]string, len(mangaIDs))
	for i, id := range mangaIDs {
		items[i] = map[string]string{"manga_id": id}
	}
	return c.doJSON(ctx, http.MethodPost,
		"/users/rankings/"+url.PathEscape(rankingID)+"/items",
		map[string]any{"items": items}, nil)
}

func (c *Client) PutFavorite(ctx context.Context, mangaID string) error {
	return c.doJSON(ctx, http.MethodPut, "/users/favorites/"+url.PathEscape(mangaID), nil, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, mangaID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/favorites/"+url.PathEscape(mangaID), nil, nil)
}

type FavoritePage struct {
	Total int               `json:"total"`
	Items []models.Favorite `json:"items"`
}

func (c *Client) ListFavorites(ctx context.Context, limit, offset int) (*FavoritePage, error) {
	qv := url.Values{}
	qv.Set("limit", fmt.Sprintf("%d", limit))
	qv.Set("offset", fmt.Sprintf("%d", offset))

	var resp FavoritePage
	if err := c.doJSON(ctx, http.MethodGet, "/users/favorites?"+qv.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/users/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, patch map[string]any) (*models.Profile, error) {
	var p models.Profile
	if err := c.doJSON(ctx, http.MethodPut, "/users/profile", patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetPublicProfile(ctx context.Context, handle string) (*models.Profile, error) {
	var p models.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/profiles/"+url.PathEscape(handle), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// StatusError is returned for non-2xx responses so callers can branch
// on the code (404 means "gone", not "broken").
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// WebsocketURL converts the base URL into the ws endpoint for a path.
func (c *Client) WebsocketURL(path string) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: path}).String(), nil
}
