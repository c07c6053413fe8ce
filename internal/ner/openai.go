package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"
)

const nerSystemPrompt = `You are a named-entity tagger for herbarium specimen labels.
Given a line of label text, return a JSON array of entities. Each entity is an
object with fields "text" and "label", where label is one of PERSON, ORG, GPE, LOC.
Collector names are PERSON, institutions and herbaria are ORG, countries and
states are GPE, mountains, rivers and localities are LOC.
Return [] if there are no entities. Return only the JSON array.`

// OpenAITagger recognizes entities with a chat-completion model. Useful for
// small query-time workloads where no spaCy sidecar is deployed; too slow and
// costly for full corpus builds.
type OpenAITagger struct {
	client *openai.Client
	model  string
	seen   *cache.Cache
}

// NewOpenAITagger creates an OpenAI-backed tagger.
func NewOpenAITagger(apiKey string) *OpenAITagger {
	return &OpenAITagger{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
		seen:   cache.New(1*time.Hour, 10*time.Minute),
	}
}

type openaiEntity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Entities asks the model to tag the text and locates each span in the input.
func (o *OpenAITagger) Entities(ctx context.Context, text string) ([]Entity, error) {
	if hit, ok := o.seen.Get(text); ok {
		return hit.([]Entity), nil
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: nerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ner: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ner: completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	// Models occasionally fence the JSON despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw []openaiEntity
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return nil, fmt.Errorf("ner: malformed completion %q: %w", content, err)
	}

	var entities []Entity
	for _, e := range raw {
		if !Relevant(e.Label) {
			continue
		}
		start := strings.Index(text, e.Text)
		if start < 0 {
			continue
		}
		entities = append(entities, Entity{
			Text:  e.Text,
			Label: e.Label,
			Start: start,
			End:   start + len(e.Text),
		})
	}

	o.seen.Set(text, entities, cache.DefaultExpiration)
	return entities, nil
}
