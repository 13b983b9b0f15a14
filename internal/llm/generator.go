package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"text/template"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"

	"whatsreply/internal/types"
)

const generateTimeout = 30 * time.Second

// ErrParse marks a model reply that could not be read as a suggestion list.
var ErrParse = errors.New("unparseable model reply")

type PromptSpec struct {
	System       string `yaml:"system"`
	UserTemplate string `yaml:"user_template"`
	Style        struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
		Count       int     `yaml:"count"`
	} `yaml:"style"`
}

// ChatCompleter is the part of *openai.Client the generator needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Generator struct {
	spec   PromptSpec
	user   *template.Template
	client ChatCompleter
	model  string
}

func LoadGenerator(path string, client ChatCompleter, model string) (*Generator, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewGenerator(b, client, model)
}

// NewGenerator parses a YAML prompt spec.
func NewGenerator(specYAML []byte, client ChatCompleter, model string) (*Generator, error) {
	var spec PromptSpec
	if err := yaml.Unmarshal(specYAML, &spec); err != nil {
		return nil, fmt.Errorf("parse prompt spec: %w", err)
	}
	if strings.TrimSpace(spec.UserTemplate) == "" {
		return nil, errors.New("prompt spec has no user_template")
	}
	tmpl, err := template.New("user").Option("missingkey=error").Parse(spec.UserTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse user_template: %w", err)
	}
	if spec.Style.Temperature <= 0 {
		spec.Style.Temperature = 0.7
	}
	if spec.Style.MaxTokens <= 0 {
		spec.Style.MaxTokens = 1024
	}
	if spec.Style.Count <= 0 {
		spec.Style.Count = 3
	}
	return &Generator{spec: spec, user: tmpl, client: client, model: model}, nil
}

type promptData struct {
	ReceivedMessage  string
	RelationshipType string
	DesiredOutcome   string
	Count            int
}

func (g *Generator) Prompt(req types.SuggestionRequest) (string, error) {
	var b bytes.Buffer
	err := g.user.Execute(&b, promptData{
		ReceivedMessage:  req.ReceivedMessage,
		RelationshipType: req.RelationshipType,
		DesiredOutcome:   req.DesiredOutcome,
		Count:            g.spec.Style.Count,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// Generate asks the model for reply suggestions. Replies that cannot be
// parsed return an error wrapping ErrParse.
func (g *Generator) Generate(ctx context.Context, req types.SuggestionRequest) ([]types.Suggestion, error) {
	prompt, err := g.Prompt(req)
	if err != nil {
		return nil, err
	}
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if s := strings.TrimSpace(g.spec.System); s != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: s})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.spec.Style.Temperature,
		MaxTokens:   g.spec.Style.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices")
	}
	out, err := ParseSuggestions(resp.Choices[0].Message.Content)
	if err != nil {
		log.Printf("[llm] could not parse reply: %q", truncate(resp.Choices[0].Message.Content, 200))
		return nil, err
	}
	return out, nil
}

// ParseSuggestions reads a JSON array of suggestions from a model reply,
// tolerating markdown code fences and text around the array. Every item must
// carry text, tone and reasoning, and the text must not be blank.
func ParseSuggestions(raw string) ([]types.Suggestion, error) {
	text := stripFences(raw)
	var items []rawSuggestion
	err := json.Unmarshal([]byte(text), &items)
	if err != nil {
		first := strings.IndexByte(text, '[')
		last := strings.LastIndexByte(text, ']')
		if first < 0 || last <= first {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if err2 := json.Unmarshal([]byte(text[first:last+1]), &items); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	}
	if items == nil {
		return nil, fmt.Errorf("%w: null", ErrParse)
	}
	out := make([]types.Suggestion, 0, len(items))
	for i, it := range items {
		switch {
		case it.Text == nil:
			return nil, fmt.Errorf("%w: suggestion %d has no text", ErrParse, i)
		case it.Tone == nil:
			return nil, fmt.Errorf("%w: suggestion %d has no tone", ErrParse, i)
		case it.Reasoning == nil:
			return nil, fmt.Errorf("%w: suggestion %d has no reasoning", ErrParse, i)
		case strings.TrimSpace(*it.Text) == "":
			return nil, fmt.Errorf("%w: suggestion %d has blank text", ErrParse, i)
		}
		out = append(out, types.Suggestion{Tone: *it.Tone, Text: *it.Text, Reasoning: *it.Reasoning})
	}
	return out, nil
}

// rawSuggestion tells a missing key apart from an empty value.
type rawSuggestion struct {
	Text      *string `json:"text"`
	Tone      *string `json:"tone"`
	Reasoning *string `json:"reasoning"`
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
