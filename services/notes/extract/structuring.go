package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxnote/backend/services/notes/entity"
)

// StructuringProvider generates calendar events, to-do items, and a summary
// from a meeting transcript. Its output is strictly additive; the pipeline
// succeeds without it.
type StructuringProvider struct {
	gen Generator
}

func NewStructuringProvider(gen Generator) *StructuringProvider {
	return &StructuringProvider{gen: gen}
}

func (p *StructuringProvider) Name() string {
	return "structuring"
}

func (p *StructuringProvider) Extract(ctx context.Context, tr entity.Transcript) (Output, error) {
	prompt := fmt.Sprintf(
		"Extract key points, generate calendar events, create to-do items with deadlines, and summarize this meeting: %s\n"+
			"Respond with a JSON object with string fields \"events\", \"todo\" and \"summary\".",
		tr.Text)

	raw, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return Output{}, &entity.ProviderError{Provider: p.Name(), Cause: err}
	}

	structured, err := parseStructured(raw)
	if err != nil {
		return Output{}, &entity.ProviderError{Provider: p.Name(), Cause: err}
	}

	return Output{Structured: structured}, nil
}

func parseStructured(raw string) (*entity.StructuredData, error) {
	cleaned := stripCodeFence(raw)

	var structured entity.StructuredData
	if err := json.Unmarshal([]byte(cleaned), &structured); err != nil {
		return nil, fmt.Errorf("response is not valid structured JSON: %w", err)
	}

	if structured.Events == "" && structured.Todo == "" && structured.Summary == "" {
		return nil, fmt.Errorf("response contained no structured fields")
	}

	return &structured, nil
}

// stripCodeFence removes a surrounding markdown code fence, which generative
// APIs frequently wrap JSON output in.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
