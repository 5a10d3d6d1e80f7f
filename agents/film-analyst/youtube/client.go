package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"

	"film-room/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Client resolves YouTube video metadata (title, duration) before a film
// analysis run. Public film only needs an API key; unlisted team film needs
// an OAuth token with the readonly scope, loaded from the configured token
// file.
type Client struct {
	service *youtube.Service
}

func NewClient(ctx context.Context, cfg *config.YouTubeConfig) (*Client, error) {
	var opts []option.ClientOption

	switch {
	case tokenFileExists(cfg.TokenFile):
		tok, err := tokenFromFile(cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load OAuth token from %s: %w", cfg.TokenFile, err)
		}
		oauthConfig := &oauth2.Config{
			Scopes:   []string{"https://www.googleapis.com/auth/youtube.readonly"},
			Endpoint: google.Endpoint,
		}
		httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, tok))
		opts = append(opts, option.WithHTTPClient(httpClient))
		log.Printf("YouTube client using OAuth token from %s", cfg.TokenFile)
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, fmt.Errorf("YouTube access requires an API key or an OAuth token file")
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// VideoInfo is the subset of metadata the analysis pipeline cares about.
type VideoInfo struct {
	ID              string
	Title           string
	DurationSeconds int
	WatchURL        string
}

// Lookup fetches metadata for one video ID.
func (c *Client) Lookup(ctx context.Context, videoID string) (*VideoInfo, error) {
	resp, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to look up video %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found or not accessible", videoID)
	}

	item := resp.Items[0]
	return &VideoInfo{
		ID:              videoID,
		Title:           item.Snippet.Title,
		DurationSeconds: parseDurationSeconds(item.ContentDetails.Duration),
		WatchURL:        "https://www.youtube.com/watch?v=" + videoID,
	}, nil
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com/shorts/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com/embed/)([A-Za-z0-9_-]{11})`),
}

// ExtractVideoID pulls the 11-character video ID out of any of the common
// YouTube URL shapes. Returns false if the URL is not a video link.
func ExtractVideoID(rawURL string) (string, bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func tokenFileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// parseDurationSeconds converts the API's ISO 8601 duration (e.g. "PT2H15M30S")
// to seconds.
func parseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	re := regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)
	matches := re.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	var totalSeconds int
	if matches[1] != "" {
		if hours, err := strconv.Atoi(matches[1]); err == nil {
			totalSeconds += hours * 3600
		}
	}
	if matches[2] != "" {
		if minutes, err := strconv.Atoi(matches[2]); err == nil {
			totalSeconds += minutes * 60
		}
	}
	if matches[3] != "" {
		if seconds, err := strconv.Atoi(matches[3]); err == nil {
			totalSeconds += seconds
		}
	}
	return totalSeconds
}
