package questions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractQuestions_CleanArray(t *testing.T) {
	reply := `[{"question": "What is photosynthesis?", "answer": "Energy conversion in plants."}]`

	questions, err := ExtractQuestions(reply)

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "What is photosynthesis?", questions[0].Question)
	assert.Equal(t, "Energy conversion in plants.", questions[0].Answer)
}

func TestExtractQuestions_MarkdownFenced(t *testing.T) {
	reply := "```json\n[{\"question\": \"Q1?\", \"answer\": \"A1\"}, {\"question\": \"Q2?\", \"answer\": \"A2\"}]\n```"

	questions, err := ExtractQuestions(reply)

	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestExtractQuestions_ProseWrapped(t *testing.T) {
	reply := `Here are the questions you asked for:

[{"question": "Q1?", "answer": "A1"}]

Let me know if you need more.`

	questions, err := ExtractQuestions(reply)

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Q1?", questions[0].Question)
}

func TestExtractQuestions_BracketsInsideStrings(t *testing.T) {
	reply := `[{"question": "What does arr[0] return?", "answer": "The first element [index zero]."}]`

	questions, err := ExtractQuestions(reply)

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "What does arr[0] return?", questions[0].Question)
	assert.Equal(t, "The first element [index zero].", questions[0].Answer)
}

func TestExtractQuestions_EscapedQuotesInsideStrings(t *testing.T) {
	reply := `[{"question": "Define \"closure\" [in Go]", "answer": "A function value capturing variables."}]`

	questions, err := ExtractQuestions(reply)

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, `Define "closure" [in Go]`, questions[0].Question)
}

func TestExtractQuestions_SkipsEmptyQuestions(t *testing.T) {
	reply := `[{"question": "  ", "answer": "ignored"}, {"question": "Real?", "answer": "Yes"}]`

	questions, err := ExtractQuestions(reply)

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Real?", questions[0].Question)
}

func TestExtractQuestions_NoArray(t *testing.T) {
	_, err := ExtractQuestions("I cannot produce questions from this transcript.")

	assert.Error(t, err)
}

func TestExtractQuestions_UnbalancedArray(t *testing.T) {
	_, err := ExtractQuestions(`[{"question": "Q?", "answer": "A"`)

	assert.Error(t, err)
}

func TestExtractQuestions_MalformedJSON(t *testing.T) {
	_, err := ExtractQuestions(`[{"question": "Q?", answer: missing-quotes}]`)

	assert.Error(t, err)
}

func TestProvider_Name(t *testing.T) {
	p := New(Config{Model: "llama3.1"})

	provider, model := p.Name()

	assert.Equal(t, "chat", provider)
	assert.Equal(t, "llama3.1", model)
}
