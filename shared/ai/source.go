package ai

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// VideoSource is the video reference handed to the extraction stage: either
// local bytes with a MIME type or a dereferenceable remote URL, never both.
type VideoSource struct {
	Data     []byte
	MIMEType string
	URL      string
}

var videoMIMETypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".m4v":  "video/mp4",
}

// LocalVideo reads a video file into a source. Unreadable paths and unknown
// extensions are invalid input, which the coordinator treats as fatal.
func LocalVideo(path string) (VideoSource, error) {
	mime, ok := videoMIMETypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return VideoSource{}, fmt.Errorf("unsupported video extension %q: %w", filepath.Ext(path), ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return VideoSource{}, fmt.Errorf("failed to read video file %s: %v: %w", path, err, ErrInvalidInput)
	}
	if len(data) == 0 {
		return VideoSource{}, fmt.Errorf("video file %s is empty: %w", path, ErrInvalidInput)
	}
	return VideoSource{Data: data, MIMEType: mime}, nil
}

// RemoteVideo wraps a remote video URL (e.g. a YouTube link, which the
// upstream model dereferences itself).
func RemoteVideo(rawURL string) (VideoSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return VideoSource{}, fmt.Errorf("not a dereferenceable video URL %q: %w", rawURL, ErrInvalidInput)
	}
	return VideoSource{URL: rawURL, MIMEType: "video/mp4"}, nil
}

func (s VideoSource) validate() error {
	if len(s.Data) == 0 && s.URL == "" {
		return fmt.Errorf("video source has neither bytes nor URL: %w", ErrInvalidInput)
	}
	if len(s.Data) > 0 && s.MIMEType == "" {
		return fmt.Errorf("video bytes without a MIME type: %w", ErrInvalidInput)
	}
	return nil
}
