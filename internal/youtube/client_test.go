package youtube

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	output []byte
	err    error

	// sideEffect runs before returning, for simulating yt-dlp writing files.
	sideEffect func()

	name string
	args []string
}

func (r *fakeRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	r.name = name
	r.args = args
	if r.sideEffect != nil {
		r.sideEffect()
	}
	return r.output, r.err
}

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		name  string
		url   string
		want  string
		valid bool
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch URL with params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", true},
		{"short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts URL", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"garbage", "not a url at all", "", false},
		{"id too short", "abc123", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractVideoID(tc.url)
			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestClient_FetchMetadata(t *testing.T) {
	runner := &fakeRunner{
		output: []byte(`{"id":"dQw4w9WgXcQ","title":"Some Lecture","thumbnail":"https://i.ytimg.com/t.jpg","duration":300.5}` + "\n"),
	}
	c := NewClient("yt-dlp", WithCommandRunner(runner))

	meta, err := c.FetchMetadata(context.Background(), "dQw4w9WgXcQ")

	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", meta.VideoID)
	assert.Equal(t, "Some Lecture", meta.Title)
	assert.Equal(t, 300.5, meta.Duration)
	assert.Equal(t, "yt-dlp", runner.name)
	assert.Contains(t, runner.args, "--dump-json")
	assert.Contains(t, runner.args, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
}

func TestClient_FetchMetadata_WarningsBeforeJSON(t *testing.T) {
	runner := &fakeRunner{
		output: []byte("WARNING: [youtube] some extractor warning\n" +
			`{"id":"dQw4w9WgXcQ","title":"Some Lecture"}` + "\n"),
	}
	c := NewClient("yt-dlp", WithCommandRunner(runner))

	meta, err := c.FetchMetadata(context.Background(), "dQw4w9WgXcQ")

	require.NoError(t, err)
	assert.Equal(t, "Some Lecture", meta.Title)
}

func TestClient_FetchMetadata_NoJSON(t *testing.T) {
	runner := &fakeRunner{output: []byte("WARNING: nothing useful\n")}
	c := NewClient("yt-dlp", WithCommandRunner(runner))

	_, err := c.FetchMetadata(context.Background(), "dQw4w9WgXcQ")

	assert.Error(t, err)
}

func TestClient_FetchMetadata_CommandFailure(t *testing.T) {
	runner := &fakeRunner{output: []byte("ERROR: video unavailable"), err: errors.New("exit status 1")}
	c := NewClient("yt-dlp", WithCommandRunner(runner))

	_, err := c.FetchMetadata(context.Background(), "dQw4w9WgXcQ")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "video unavailable")
}

func TestClient_DownloadAudio(t *testing.T) {
	dir := t.TempDir()
	expected := filepath.Join(dir, "dQw4w9WgXcQ.m4a")
	runner := &fakeRunner{
		sideEffect: func() {
			_ = os.WriteFile(expected, []byte("audio"), 0o644)
		},
	}
	c := NewClient("yt-dlp", WithCommandRunner(runner))

	path, err := c.DownloadAudio(context.Background(), "dQw4w9WgXcQ", dir)

	require.NoError(t, err)
	assert.Equal(t, expected, path)
	assert.FileExists(t, path)
	assert.Contains(t, runner.args, "--extract-audio")
}

func TestClient_DownloadAudio_OutputMissing(t *testing.T) {
	// yt-dlp claims success but no file appears.
	runner := &fakeRunner{}
	c := NewClient("yt-dlp", WithCommandRunner(runner))

	_, err := c.DownloadAudio(context.Background(), "dQw4w9WgXcQ", t.TempDir())

	assert.Error(t, err)
}

func TestClient_DownloadAudio_CommandFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	c := NewClient("yt-dlp", WithCommandRunner(runner))

	_, err := c.DownloadAudio(context.Background(), "dQw4w9WgXcQ", t.TempDir())

	assert.Error(t, err)
}
