// Package transcribe provides speech-to-text providers backed by
// OpenAI-compatible audio transcription APIs.
package transcribe

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
)

// GroqBaseURL is the OpenAI-compatible endpoint for Groq's hosted Whisper.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// DefaultWhisperModel is the transcription model used when none is configured.
const DefaultWhisperModel = "whisper-large-v3"

// AudioProber validates that an input file is a playable audio stream.
type AudioProber interface {
	ProbeDuration(ctx context.Context, audioPath string) (float64, error)
}

// Config selects the API endpoint and model for a provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Provider transcribes audio files through an OpenAI-compatible API. It
// returns an empty string for unusable input or empty engine output, and
// wraps domain.ErrProviderUnavailable when the service cannot be reached.
type Provider struct {
	client *openai.Client
	prober AudioProber
	model  string
}

// NewGroq builds a provider against Groq's Whisper endpoint.
func NewGroq(apiKey, model string, prober AudioProber) *Provider {
	return New(Config{APIKey: apiKey, BaseURL: GroqBaseURL, Model: model}, prober)
}

// NewOpenAI builds a provider against the default OpenAI endpoint.
func NewOpenAI(apiKey, model string, prober AudioProber) *Provider {
	return New(Config{APIKey: apiKey, Model: model}, prober)
}

func New(cfg Config, prober AudioProber) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultWhisperModel
	}
	return &Provider{
		client: openai.NewClientWithConfig(clientCfg),
		prober: prober,
		model:  model,
	}
}

// TranscribeAudio validates the file and sends it for transcription.
// Validation failure and empty engine output both yield ("", nil) so the
// caller can degrade per unit; connectivity failures are surfaced as
// domain.ErrProviderUnavailable.
func (p *Provider) TranscribeAudio(ctx context.Context, filePath, language string) (string, error) {
	if !p.validateAudio(ctx, filePath) {
		return "", nil
	}

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		FilePath: filePath,
		Language: language,
	})
	if err != nil {
		if isUnavailable(err) {
			return "", domain.NewDomainErrorWithCause(
				domain.ErrCodeUnavailable,
				"transcription service unreachable",
				errors.Join(domain.ErrProviderUnavailable, err),
			)
		}
		log.Printf("transcribe: %s rejected by provider: %v", filePath, err)
		return "", nil
	}

	return resp.Text, nil
}

// validateAudio checks the file exists, is non-empty, and probes as a
// playable stream with positive duration.
func (p *Provider) validateAudio(ctx context.Context, filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil || info.Size() == 0 {
		return false
	}
	duration, err := p.prober.ProbeDuration(ctx, filePath)
	if err != nil || duration <= 0 {
		log.Printf("transcribe: %s is not a playable audio stream", filePath)
		return false
	}
	return true
}

// isUnavailable separates "the service cannot be reached" from "the service
// ran and rejected the request". Transport errors and 5xx/429 responses are
// infrastructure conditions; other API errors are per-request rejections.
func isUnavailable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= http.StatusInternalServerError ||
			apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	// No structured API response at all: the call never reached the service.
	return true
}
