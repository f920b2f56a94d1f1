// Package lyrics looks up reference lyric text on lrclib.net so generation
// can be seeded without the user pasting lyrics by hand.
package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lrcforge/lrc"
)

type SearchResult struct {
	ID           int    `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://lrclib.net",
	}
}

// Search finds plain reference lyrics for a title/artist pair. Synced
// results get their timestamps stripped; the caller wants wording, not
// timing. Returns empty text (not an error) when nothing matches.
func (c *Client) Search(ctx context.Context, title, artist string) (string, error) {
	query := strings.TrimSpace(title + " " + artist)
	u := fmt.Sprintf("%s/api/search?q=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lrclib API returned status %d", resp.StatusCode)
	}

	var results []SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", err
	}

	if len(results) == 0 {
		return "", nil
	}

	res := results[0]
	if res.PlainLyrics != "" {
		return strings.TrimSpace(res.PlainLyrics), nil
	}
	if res.SyncedLyrics != "" {
		return lrc.StripTimestamps(res.SyncedLyrics), nil
	}

	return "", nil
}
