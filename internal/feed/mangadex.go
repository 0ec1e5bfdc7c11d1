package feed

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

// MangaDex API base (public)
const mangadexBase = "https://api.mangadex.org"

// MangaDexSource fetches the catalog from MangaDex.
type MangaDexSource struct {
	Client *http.Client
	Limit  int // items per request
	Max    int // maximum items to fetch total (safety)
}

func NewMangaDexSource() *MangaDexSource {
	return &MangaDexSource{
		Client: &http.Client{Timeout: 12 * time.Second},
		Limit:  50,
		Max:    200,
	}
}

func (s *MangaDexSource) Name() string { return "mangadex" }

type mdResponse struct {
	Result string `json:"result"`
	Data   []struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			Title       map[string]string `json:"title"`
			Description map[string]string `json:"description"`
		} `json:"attributes"`
		Relationships []struct {
			ID         string `json:"id"`
			Type       string `json:"type"`
			Attributes struct {
				Name     string `json:"name"`     // author
				FileName string `json:"fileName"` // cover_art
			} `json:"attributes"`
		} `json:"relationships"`
	} `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

func (s *MangaDexSource) FetchAll(ctx context.Context) ([]models.Manga, error) {
	var all []models.Manga

	offset := 0
	fetched := 0

	for fetched < s.Max {
		u, _ := url.Parse(mangadexBase + "/manga")
		q := u.Query()
		q.Set("limit", fmt.Sprintf("%d", s.Limit))
		q.Set("offset", fmt.Sprintf("%d", offset))

		q.Add("contentRating[]", "safe")
		q.Add("contentRating[]", "suggestive")

		// include author + cover data in relationships
		q.Add("includes[]", "author")
		q.Add("includes[]", "cover_art")

		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("mangadex: build request: %w", err)
		}

		resp, err := s.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("mangadex: request: %w", err)
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("mangadex: status %d: %s", resp.StatusCode, string(body))
		}

		var md mdResponse
		if err := json.Unmarshal(body, &md); err != nil {
			return nil, fmt.Errorf("mangadex: decode: %w", err)
		}

		if len(md.Data) == 0 {
			break
		}

		for _, item := range md.Data {
			if item.ID == "" {
				continue
			}

			title := pickLang(item.Attributes.Title, "en")
			if title == "" {
				// fallback to any title
				for _, v := range item.Attributes.Title {
					title = v
					break
				}
			}
			if title == "" {
				continue
			}

			author := ""
			coverFile := ""
			for _, rel := range item.Relationships {
				switch rel.Type {
				case "author":
					if author == "" && rel.Attributes.Name != "" {
						author = rel.Attributes.Name
					}
				case "cover_art":
					if coverFile == "" && rel.Attributes.FileName != "" {
						coverFile = rel.Attributes.FileName
					}
				}
			}

			m := models.Manga{
				ID:          item.ID, // canonical id = MangaDex UUID
				Title:       title,
				Author:      author,
				Description: pickLang(item.Attributes.Description, "en"),
			}
			if coverFile != "" {
				m.CoverURL = fmt.Sprintf("https://uploads.mangadex.org/covers/%s/%s", item.ID, coverFile)
				m.CoverThumbURL = m.CoverURL + ".512.jpg"
			}

			all = append(all, m)
			fetched++
			if fetched >= s.Max {
				break
			}
		}

		offset += s.Limit
	}

	return all, nil
}

func pickLang(m map[string]string, lang string) string {
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[lang])
}
