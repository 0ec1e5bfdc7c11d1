package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mangarank/pkg/models"
)

// MirrorSource reads a locally hosted JSON mirror, the demo-safe
// alternative to live APIs.
type MirrorSource struct {
	BaseURL string
	Client  *http.Client
}

func NewMirrorSource(baseURL string) *MirrorSource {
	return &MirrorSource{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *MirrorSource) Name() string {
	return "mirror"
}

// FetchAll maps the mirror's shape into catalog entries.
//
// Expected response format:
//
//	GET {BaseURL}/titles
//	[
//	  {
//	    "slug": "one-piece",
//	    "name": "One Piece",
//	    "creator": "Oda Eiichiro",
//	    "summary": "...",
//	    "image_url": "...",
//	    "thumb_url": "..."
//	  },
//	  ...
//	]
func (s *MirrorSource) FetchAll(ctx context.Context) ([]models.Manga, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/titles", nil)
	if err != nil {
		return nil, fmt.Errorf("mirror: build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mirror: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mirror: status %d: %s", resp.StatusCode, string(body))
	}

	var raw []struct {
		Slug     string `json:"slug"`
		Name     string `json:"name"`
		Creator  string `json:"creator"`
		Summary  string `json:"summary"`
		ImageURL string `json:"image_url"`
		ThumbURL string `json:"thumb_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("mirror: decode json: %w", err)
	}

	result := make([]models.Manga, 0, len(raw))
	for _, r := range raw {
		if r.Slug == "" || r.Name == "" {
			continue
		}
		result = append(result, models.Manga{
			ID:            r.Slug,
			Title:         r.Name,
			Author:        r.Creator,
			Description:   r.Summary,
			CoverURL:      r.ImageURL,
			CoverThumbURL: r.ThumbURL,
		})
	}
	return result, nil
}
