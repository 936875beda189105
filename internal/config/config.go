package config

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// File-system roots. Audio downloads and chunk files live under
	// StoragePath; each recording owns one directory under the chunk root.
	StoragePath string `envconfig:"STORAGE_PATH" default:"./storage"`

	// Segmentation
	MaxChunkMB         float64 `envconfig:"MAX_CHUNK_MB" default:"24"`
	SilenceThresholdDB int     `envconfig:"SILENCE_THRESHOLD_DB" default:"-35"`
	MinSilenceDuration float64 `envconfig:"MIN_SILENCE_DURATION" default:"1.0"`

	// External commands
	FFmpegPath  string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FFprobePath string `envconfig:"FFPROBE_PATH" default:"ffprobe"`
	YTDLPPath   string `envconfig:"YTDLP_PATH" default:"yt-dlp"`

	// Transcription provider: "groq" or "openai"
	TranscriptionProvider string `envconfig:"TRANSCRIPTION_PROVIDER" default:"groq"`
	TranscriptionModel    string `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-large-v3"`
	Language              string `envconfig:"LANGUAGE" default:"ar"`
	GroqAPIKey            string `envconfig:"GROQ_API_KEY"`

	// Embeddings
	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	// Question generation (OpenAI-compatible endpoint; Ollama by default)
	QuestionBaseURL string `envconfig:"QUESTION_BASE_URL" default:"http://localhost:11434/v1"`
	QuestionModel   string `envconfig:"QUESTION_MODEL" default:"iKhalid/ALLaM:7b"`
	QuestionAPIKey  string `envconfig:"QUESTION_API_KEY"`

	// Optional S3-compatible archive for downloaded source audio
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"qg-audio"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("QG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.MaxChunkMB <= 0 {
		return nil, fmt.Errorf("QG_MAX_CHUNK_MB must be positive, got %v", cfg.MaxChunkMB)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// AudioStoragePath is the directory for downloaded source audio files.
func (c *Config) AudioStoragePath() string {
	return filepath.Join(c.StoragePath, "audio")
}

// ChunkStoragePath is the root under which each recording's chunk
// directory is created.
func (c *Config) ChunkStoragePath() string {
	return filepath.Join(c.StoragePath, "chunks")
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasGroq() bool {
	return c.GroqAPIKey != ""
}
