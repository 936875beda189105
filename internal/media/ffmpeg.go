// Package media wraps the external ffmpeg/ffprobe commands used for
// duration probing, silence detection, and lossless segment extraction.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a single ffmpeg/ffprobe invocation.
const DefaultCommandTimeout = 5 * time.Minute

// CommandRunner executes an external command and returns its combined
// stdout+stderr output. Injectable for tests.
type CommandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// ExecCommandRunner returns the default runner that shells out for real.
func ExecCommandRunner() CommandRunner {
	return execRunner{}
}

type execRunner struct{}

func (execRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

// SilenceInterval is one detected quiet interval in the source audio.
type SilenceInterval struct {
	Start float64
	End   float64
}

// Midpoint returns the middle of the interval, the candidate cut location.
func (s SilenceInterval) Midpoint() float64 {
	return (s.Start + s.End) / 2
}

// Segmenter invokes ffmpeg/ffprobe. The zero value is not usable; construct
// with NewSegmenter.
type Segmenter struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
	run         CommandRunner
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithCommandRunner sets a custom command runner (for testing).
func WithCommandRunner(r CommandRunner) Option {
	return func(s *Segmenter) { s.run = r }
}

// WithTimeout sets the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Segmenter) { s.timeout = d }
}

// NewSegmenter creates a Segmenter using the given command paths.
func NewSegmenter(ffmpegPath, ffprobePath string, opts ...Option) *Segmenter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	s := &Segmenter{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     DefaultCommandTimeout,
		run:         execRunner{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProbeDuration returns the audio duration in seconds using ffprobe.
func (s *Segmenter) ProbeDuration(ctx context.Context, audioPath string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	}

	out, err := s.run.CombinedOutput(ctx, s.ffprobePath, args)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w\nOutput: %s", err, string(out))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: could not parse duration from %q: %w", strings.TrimSpace(string(out)), err)
	}

	return duration, nil
}

// DetectSilence runs the ffmpeg silencedetect filter and parses the
// (start, end) interval pairs it writes to its diagnostic stream. ffmpeg
// often exits non-zero for null-output runs, so the output is parsed even
// when the command reports an error.
func (s *Segmenter) DetectSilence(ctx context.Context, audioPath string, noiseDB int, minSilence float64) ([]SilenceInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []string{
		"-i", audioPath,
		"-af", fmt.Sprintf("silencedetect=noise=%ddB:d=%g", noiseDB, minSilence),
		"-f", "null",
		"-",
	}

	out, err := s.run.CombinedOutput(ctx, s.ffmpegPath, args)
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg silencedetect: %w", err)
	}

	return parseSilenceOutput(string(out)), nil
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*([\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*([\d.]+)`)
)

// parseSilenceOutput extracts silence intervals from silencedetect output.
// ffmpeg emits lines like:
//
//	[silencedetect @ 0x...] silence_start: 42.123
//	[silencedetect @ 0x...] silence_end: 43.456 | silence_duration: 1.333
func parseSilenceOutput(output string) []SilenceInterval {
	var intervals []SilenceInterval
	var currentStart float64
	hasStart := false

	for _, line := range strings.Split(output, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				currentStart = v
				hasStart = true
			}
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil && hasStart {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				intervals = append(intervals, SilenceInterval{Start: currentStart, End: v})
				hasStart = false
			}
		}
	}

	return intervals
}

// ExtractSegment copies the [start, end) range of inputPath to outputPath
// using stream copy, no re-encoding. Extraction failure is fatal to the
// caller's materialization; there is no partial-output recovery here.
func (s *Segmenter) ExtractSegment(ctx context.Context, inputPath, outputPath string, start, end float64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []string{
		"-i", inputPath,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-c", "copy",
		"-y",
		outputPath,
	}

	out, err := s.run.CombinedOutput(ctx, s.ffmpegPath, args)
	if err != nil {
		return fmt.Errorf("ffmpeg extract [%s, %s): %w\nOutput: %s",
			formatSeconds(start), formatSeconds(end), err, string(out))
	}

	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
