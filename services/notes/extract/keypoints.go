package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxnote/backend/services/notes/entity"
)

// Generator is the language-understanding capability the provider adapters
// call. The gemini client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// KeyPointProvider derives an ordered list of key points from a transcript.
type KeyPointProvider struct {
	gen Generator
}

func NewKeyPointProvider(gen Generator) *KeyPointProvider {
	return &KeyPointProvider{gen: gen}
}

func (p *KeyPointProvider) Name() string {
	return "keypoints"
}

func (p *KeyPointProvider) Extract(ctx context.Context, tr entity.Transcript) (Output, error) {
	prompt := fmt.Sprintf("Extract key points from this text: %q. Respond with one key point per line, no numbering.", tr.Text)

	raw, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return Output{}, &entity.ProviderError{Provider: p.Name(), Cause: err}
	}

	points := splitLines(raw)
	if len(points) == 0 {
		return Output{}, &entity.ProviderError{
			Provider: p.Name(),
			Cause:    fmt.Errorf("response contained no key points"),
		}
	}

	return Output{KeyPoints: points}, nil
}

// splitLines breaks a free-text response into clean key points, dropping
// bullet markers and blank lines.
func splitLines(raw string) []string {
	var points []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		points = append(points, line)
	}
	return points
}
