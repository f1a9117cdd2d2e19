package extract

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voxnote/backend/pkg/logger"
	"github.com/voxnote/backend/services/notes/entity"
)

const DefaultProviderTimeout = 15 * time.Second

// Orchestrator drives the configured providers against a transcript and
// merges their outputs into one ExtractionResult. Provider failures are
// absorbed by fallback or omission; the only error it propagates is
// entity.ErrEmptyTranscript.
type Orchestrator struct {
	timeout time.Duration
}

func NewOrchestrator(timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Orchestrator{timeout: timeout}
}

// Run invokes every provider concurrently, each bounded by the orchestrator
// timeout, and merges outputs in provider registration order. A provider
// exceeding its timeout is treated identically to a provider failure.
func (o *Orchestrator) Run(ctx context.Context, tr entity.Transcript, providers ...Provider) (entity.ExtractionResult, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(tr.Text) == "" {
		return entity.ExtractionResult{}, entity.ErrEmptyTranscript
	}

	outputs := make([]Output, len(providers))
	failed := make([]error, len(providers))

	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			out, err := p.Extract(callCtx, tr)
			if err != nil {
				failed[i] = err
				return
			}
			outputs[i] = out
		}(i, p)
	}
	wg.Wait()

	for i, err := range failed {
		if err != nil {
			log.Warn("extraction provider failed",
				slog.String("provider", providers[i].Name()),
				slog.String("error", err.Error()))
		}
	}

	result := merge(outputs)

	if len(result.KeyPoints) == 0 {
		log.Info("no provider produced key points, using local fallback",
			slog.Int("transcript_length", len(tr.Text)))
		result.KeyPoints = fallbackKeyPoints(tr.Text)
	}

	if result.Topic == "" {
		result.Topic = deriveTopic(result.KeyPoints)
	}

	return result, nil
}

// merge folds provider outputs into one result. The first provider to
// contribute a field wins; later outputs only fill what is still missing.
func merge(outputs []Output) entity.ExtractionResult {
	var result entity.ExtractionResult
	for _, out := range outputs {
		if len(result.KeyPoints) == 0 && len(out.KeyPoints) > 0 {
			result.KeyPoints = out.KeyPoints
		}
		if result.Topic == "" && strings.TrimSpace(out.Topic) != "" {
			result.Topic = strings.TrimSpace(out.Topic)
		}
		if result.Structured == nil && out.Structured != nil {
			result.Structured = out.Structured
		}
	}
	return result
}
