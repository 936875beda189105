// Package questions generates exam-style questions from transcript text
// through an OpenAI-compatible chat completion API (Ollama by default).
package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/service"
)

const systemPrompt = `You are an exam author. Given a lecture transcript, produce comprehension questions with concise model answers, in the transcript's language. Respond with a JSON array only, no prose: [{"question": "...", "answer": "..."}]`

// Config selects the chat endpoint and model.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Provider calls a chat model and extracts the JSON question list from its
// reply.
type Provider struct {
	client *openai.Client
	model  string
}

func New(cfg Config) *Provider {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// Ollama ignores authentication but the client requires a token.
		apiKey = "ollama"
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Provider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (p *Provider) Name() (provider, model string) {
	return "chat", p.model
}

// GenerateQuestions asks the model for count questions over the transcript.
func (p *Provider) GenerateQuestions(ctx context.Context, transcriptText string, count int) ([]service.GeneratedQuestion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Generate exactly %d questions from this transcript:\n\n%s", count, transcriptText),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: no choices returned")
	}

	questions, err := ExtractQuestions(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

type questionJSON struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ExtractQuestions parses the model reply. Models wrap JSON in markdown
// fences or prose more often than not, so the first balanced JSON array in
// the reply is taken rather than requiring a clean document.
func ExtractQuestions(reply string) ([]service.GeneratedQuestion, error) {
	payload := extractJSONArray(reply)
	if payload == "" {
		return nil, fmt.Errorf("no JSON array found in model reply")
	}

	var parsed []questionJSON
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("parsing model reply: %w", err)
	}

	questions := make([]service.GeneratedQuestion, 0, len(parsed))
	for _, q := range parsed {
		question := strings.TrimSpace(q.Question)
		if question == "" {
			continue
		}
		questions = append(questions, service.GeneratedQuestion{
			Question: question,
			Answer:   strings.TrimSpace(q.Answer),
		})
	}
	return questions, nil
}

// extractJSONArray returns the first balanced top-level JSON array in s,
// skipping brackets inside string literals.
func extractJSONArray(s string) string {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
