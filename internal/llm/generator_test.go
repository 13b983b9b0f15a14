package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsreply/internal/types"
)

type fakeCompleter struct {
	reply string
	err   error
	got   openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}}},
	}, nil
}

var request = types.SuggestionRequest{
	ReceivedMessage:  "Can we move the demo to Friday?",
	RelationshipType: "client",
	DesiredOutcome:   "confirm understanding",
}

func loadRepoPrompt(t *testing.T, c ChatCompleter) *Generator {
	t.Helper()
	g, err := LoadGenerator(filepath.Join("..", "..", "prompts", "suggest.yaml"), c, "test-model")
	require.NoError(t, err)
	return g
}

func TestPromptIncludesRequest(t *testing.T) {
	g := loadRepoPrompt(t, &fakeCompleter{})
	p, err := g.Prompt(request)
	require.NoError(t, err)
	assert.Contains(t, p, `Received message: "Can we move the demo to Friday?"`)
	assert.Contains(t, p, "Relationship with recipient: client")
	assert.Contains(t, p, "Desired outcome: confirm understanding")
	assert.Contains(t, p, "Generate 3 different message suggestions")
}

func TestGenerate(t *testing.T) {
	fc := &fakeCompleter{reply: "```json\n[{\"text\":\"Friday works, thanks for the heads up.\",\"tone\":\"professional\",\"reasoning\":\"confirms the change\"}]\n```"}
	g := loadRepoPrompt(t, fc)

	out, err := g.Generate(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, []types.Suggestion{{
		Tone:      "professional",
		Text:      "Friday works, thanks for the heads up.",
		Reasoning: "confirms the change",
	}}, out)

	assert.Equal(t, "test-model", fc.got.Model)
	assert.Equal(t, 1024, fc.got.MaxTokens)
	assert.InDelta(t, 0.7, fc.got.Temperature, 0.001)
	require.Len(t, fc.got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, fc.got.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, fc.got.Messages[1].Role)
}

func TestGenerateErrors(t *testing.T) {
	g := loadRepoPrompt(t, &fakeCompleter{err: errors.New("upstream down")})
	_, err := g.Generate(context.Background(), request)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrParse))

	g = loadRepoPrompt(t, &fakeCompleter{reply: "Sorry, I can't help with that."})
	_, err = g.Generate(context.Background(), request)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseSuggestions(t *testing.T) {
	cases := map[string]string{
		"plain":        `[{"text":"a","tone":"casual","reasoning":"r"}]`,
		"fenced json":  "```json\n[{\"text\":\"a\",\"tone\":\"casual\",\"reasoning\":\"r\"}]\n```",
		"fenced":       "```\n[{\"text\":\"a\",\"tone\":\"casual\",\"reasoning\":\"r\"}]```",
		"with chatter": "Here you go:\n[{\"text\":\"a\",\"tone\":\"casual\",\"reasoning\":\"r\"}]\nHope that helps!",
	}
	for name, raw := range cases {
		out, err := ParseSuggestions(raw)
		require.NoError(t, err, name)
		assert.Equal(t, []types.Suggestion{{Tone: "casual", Text: "a", Reasoning: "r"}}, out, name)
	}

	for _, raw := range []string{
		"", "null", "{}", "[oops]", "no json here",
		`[{"foo":1},{"text":"hi"}]`,
		`[{"tone":"casual","reasoning":"r"}]`,
		`[{"text":"hi","reasoning":"r"}]`,
		`[{"text":"hi","tone":"casual"}]`,
		`[{"text":"  ","tone":"casual","reasoning":"r"}]`,
		`[{"text":null,"tone":"casual","reasoning":"r"}]`,
		`[{"text":"a","tone":"casual","reasoning":"r"},{"text":"b"}]`,
	} {
		_, err := ParseSuggestions(raw)
		assert.ErrorIs(t, err, ErrParse, "raw %q", raw)
	}
}

func TestParseSuggestionsKeepsEmptyToneAndReasoning(t *testing.T) {
	out, err := ParseSuggestions(`[{"text":"ok","tone":"","reasoning":""}]`)
	require.NoError(t, err)
	assert.Equal(t, []types.Suggestion{{Text: "ok"}}, out)
}

func TestGenerateRejectsIncompleteItems(t *testing.T) {
	g := loadRepoPrompt(t, &fakeCompleter{reply: `[{"text":"hi"}]`})
	_, err := g.Generate(context.Background(), request)
	assert.ErrorIs(t, err, ErrParse)
}

func TestNewGeneratorDefaultsAndErrors(t *testing.T) {
	g, err := NewGenerator([]byte("user_template: \"{{.ReceivedMessage}} x{{.Count}}\"\n"), &fakeCompleter{}, "m")
	require.NoError(t, err)
	p, err := g.Prompt(request)
	require.NoError(t, err)
	assert.Equal(t, "Can we move the demo to Friday? x3", p)

	_, err = NewGenerator([]byte("system: hi\n"), &fakeCompleter{}, "m")
	assert.Error(t, err)
	_, err = NewGenerator([]byte("user_template: \"{{.Nope\"\n"), &fakeCompleter{}, "m")
	assert.Error(t, err)
	_, err = NewGenerator([]byte("user_template: [unclosed"), &fakeCompleter{}, "m")
	assert.Error(t, err)
}

func TestLoadGeneratorMissingFile(t *testing.T) {
	_, err := LoadGenerator(filepath.Join(t.TempDir(), "missing.yaml"), &fakeCompleter{}, "m")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, strings.Repeat("x", 5)+"...", truncate(strings.Repeat("x", 9), 5))
}
