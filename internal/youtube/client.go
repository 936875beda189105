// Package youtube fetches video metadata and downloads audio through the
// yt-dlp command.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/media"
)

// DefaultDownloadTimeout bounds one yt-dlp invocation. Audio downloads of
// long recordings routinely run for minutes.
const DefaultDownloadTimeout = 15 * time.Minute

var videoIDRe = regexp.MustCompile(`(?:v=|/shorts/|youtu\.be/|/embed/)([A-Za-z0-9_-]{11})`)

// ExtractVideoID pulls the 11-character video id out of a YouTube URL.
// A bare id is accepted as-is.
func ExtractVideoID(url string) (string, error) {
	if m := videoIDRe.FindStringSubmatch(url); m != nil {
		return m[1], nil
	}
	if regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`).MatchString(url) {
		return url, nil
	}
	return "", fmt.Errorf("no video id found in %q", url)
}

// Metadata is the subset of video metadata the system stores.
type Metadata struct {
	VideoID      string  `json:"id"`
	Title        string  `json:"title"`
	ThumbnailURL string  `json:"thumbnail"`
	Duration     float64 `json:"duration"`
}

// Client wraps yt-dlp.
type Client struct {
	ytdlpPath string
	timeout   time.Duration
	run       media.CommandRunner
}

// Option configures a Client.
type Option func(*Client)

// WithCommandRunner sets a custom command runner (for testing).
func WithCommandRunner(r media.CommandRunner) Option {
	return func(c *Client) { c.run = r }
}

// WithTimeout sets the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func NewClient(ytdlpPath string, opts ...Option) *Client {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	c := &Client{
		ytdlpPath: ytdlpPath,
		timeout:   DefaultDownloadTimeout,
		run:       media.ExecCommandRunner(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMetadata reads the video's metadata without downloading anything.
func (c *Client) FetchMetadata(ctx context.Context, videoID string) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"--dump-json",
		"--no-download",
		"--no-playlist",
		videoURL(videoID),
	}
	out, err := c.run.CombinedOutput(ctx, c.ytdlpPath, args)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata for %s: %w\nOutput: %s", videoID, err, truncate(out))
	}

	// yt-dlp may emit warnings before the JSON document; the document is
	// the first line starting with '{'.
	var m Metadata
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "{") {
			if err := json.Unmarshal([]byte(line), &m); err != nil {
				return nil, fmt.Errorf("yt-dlp metadata for %s: %w", videoID, err)
			}
			return &m, nil
		}
	}
	return nil, fmt.Errorf("yt-dlp metadata for %s: no JSON in output", videoID)
}

// DownloadAudio fetches the best audio stream as m4a into destDir and
// returns the resulting file path.
func (c *Client) DownloadAudio(ctx context.Context, videoID, destDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	outputPath := filepath.Join(destDir, videoID+".m4a")

	args := []string{
		"-f", "bestaudio[ext=m4a]/bestaudio",
		"--extract-audio",
		"--audio-format", "m4a",
		"--no-playlist",
		"-o", outputPath,
		videoURL(videoID),
	}
	out, err := c.run.CombinedOutput(ctx, c.ytdlpPath, args)
	if err != nil {
		return "", fmt.Errorf("yt-dlp download for %s: %w\nOutput: %s", videoID, err, truncate(out))
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("yt-dlp download for %s: output file missing: %w", videoID, err)
	}
	return outputPath, nil
}

func videoURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func truncate(out []byte) string {
	const max = 2048
	if len(out) > max {
		return string(out[:max]) + "..."
	}
	return string(out)
}
