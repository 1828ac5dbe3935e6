package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	youtubeBaseURL = "https://www.googleapis.com/youtube/v3"
	watchURLPrefix = "https://www.youtube.com/watch?v="

	// the Data API rejects maxResults above 50
	youtubeMaxPageSize = 50
)

// youtubeSnippet is the subset of the Data API snippet part we consume.
type youtubeSnippet struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelTitle string    `json:"channelTitle"`
	PublishedAt  time.Time `json:"publishedAt"`
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet youtubeSnippet `json:"snippet"`
	} `json:"items"`
}

type youtubeVideosResponse struct {
	Items []struct {
		ID      string         `json:"id"`
		Snippet youtubeSnippet `json:"snippet"`
	} `json:"items"`
}

// YouTube fetches recently published videos of one channel through the
// YouTube Data API v3. Fetch lists uploads inside the lookback window;
// Details resolves full descriptions, which search results truncate.
type YouTube struct {
	name       string
	apiKey     string
	channelID  string
	window     time.Duration
	maxResults int
	baseURL    string
	client     *http.Client
}

func NewYouTube(name, apiKey, channelID string, window time.Duration, maxResults int) *YouTube {
	if maxResults <= 0 || maxResults > youtubeMaxPageSize {
		maxResults = youtubeMaxPageSize
	}
	if window <= 0 {
		window = 6 * time.Hour
	}
	return &YouTube{
		name:       name,
		apiKey:     apiKey,
		channelID:  channelID,
		window:     window,
		maxResults: maxResults,
		baseURL:    youtubeBaseURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (y *YouTube) Name() string { return y.name }

func (y *YouTube) Type() Type { return TypeVideo }

// Fetch returns the channel's uploads published inside the lookback window,
// most recent first (the API orders by date).
func (y *YouTube) Fetch(ctx context.Context) ([]Item, error) {
	publishedAfter := time.Now().UTC().Add(-y.window).Format(time.RFC3339)
	q := url.Values{
		"part":           {"snippet"},
		"channelId":      {y.channelID},
		"order":          {"date"},
		"type":           {"video"},
		"publishedAfter": {publishedAfter},
		"maxResults":     {strconv.Itoa(y.maxResults)},
		"key":            {y.apiKey},
	}

	var sr youtubeSearchResponse
	if err := y.get(ctx, y.baseURL+"/search?"+q.Encode(), &sr); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(sr.Items))
	for _, v := range sr.Items {
		items = append(items, y.item(v.ID.VideoID, v.Snippet))
	}
	return items, nil
}

// Details resolves full snippets for the given video IDs. Search responses
// truncate descriptions, so metadata parsing needs this second call.
func (y *YouTube) Details(ctx context.Context, ids []string) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := url.Values{
		"part": {"snippet"},
		"id":   {strings.Join(ids, ",")},
		"key":  {y.apiKey},
	}

	var vr youtubeVideosResponse
	if err := y.get(ctx, y.baseURL+"/videos?"+q.Encode(), &vr); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(vr.Items))
	for _, v := range vr.Items {
		items = append(items, y.item(v.ID, v.Snippet))
	}
	return items, nil
}

func (y *YouTube) item(id string, sn youtubeSnippet) Item {
	return Item{
		ExternalID:  id,
		Source:      TypeVideo,
		SourceName:  y.name,
		Title:       sn.Title,
		Description: sn.Description,
		URL:         watchURLPrefix + id,
		Author:      sn.ChannelTitle,
		Published:   sn.PublishedAt,
	}
}

func (y *YouTube) get(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &FetchError{Source: y.name, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return &FetchError{Source: y.name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &FetchError{Source: y.name, Err: fmt.Errorf("youtube api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Source: y.name, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
