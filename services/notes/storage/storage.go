package storage

import (
	"context"
	"log/slog"
	"strings"

	"github.com/voxnote/backend/pkg/logger"
	"github.com/voxnote/backend/services/notes/entity"
)

// NoteStore is the durable document store. Insert assigns the authoritative
// id and creation timestamp; List returns notes oldest first.
type NoteStore interface {
	Insert(ctx context.Context, topic string, keyPoints []string) (entity.Note, error)
	List(ctx context.Context) ([]entity.Note, error)
}

// Cache mirrors confirmed notes locally for display continuity when the
// durable store is unreachable. It is rewritten whole on every append.
type Cache interface {
	Load() ([]entity.Note, error)
	Append(note entity.Note) error
}

// ListResult distinguishes an authoritative read from a degraded one served
// out of the local cache.
type ListResult struct {
	Notes    []entity.Note
	Degraded bool
}

// Repository owns the durable store and the local cache and keeps them
// reconciled: the store's assigned id and timestamp are authoritative, and
// the cache is only updated after a confirmed durable write.
type Repository struct {
	store NoteStore
	cache Cache
}

func NewRepository(store NoteStore, cache Cache) *Repository {
	return &Repository{
		store: store,
		cache: cache,
	}
}

// Save validates the extraction result, writes it durably, and appends the
// store-returned note to the cache. A durable-store failure leaves the cache
// untouched so unsaved state is never presented as saved.
func (r *Repository) Save(ctx context.Context, result entity.ExtractionResult) (entity.Note, error) {
	log := logger.FromContext(ctx)

	if err := validate(result); err != nil {
		return entity.Note{}, err
	}

	note, err := r.store.Insert(ctx, result.Topic, result.KeyPoints)
	if err != nil {
		log.Error("durable write failed", slog.String("error", err.Error()))
		return entity.Note{}, &entity.PersistenceError{Op: "insert", Cause: err}
	}

	if err := r.cache.Append(note); err != nil {
		// The durable write already succeeded; a stale cache only degrades
		// offline display, so the save still counts.
		log.Warn("failed to update local cache",
			slog.String("note_id", note.ID),
			slog.String("error", err.Error()))
	}

	log.Info("note saved",
		slog.String("note_id", note.ID),
		slog.String("topic", note.Topic),
		slog.Int("key_points", len(note.KeyPoints)))

	return note, nil
}

// List returns notes in creation order from the durable store. When the
// store is unreachable it serves the local cache instead and marks the
// result degraded.
func (r *Repository) List(ctx context.Context) (ListResult, error) {
	log := logger.FromContext(ctx)

	notes, err := r.store.List(ctx)
	if err == nil {
		return ListResult{Notes: notes}, nil
	}

	log.Warn("durable store unreachable, serving cached notes",
		slog.String("error", err.Error()))

	cached, cacheErr := r.cache.Load()
	if cacheErr != nil {
		log.Error("local cache read failed", slog.String("error", cacheErr.Error()))
		return ListResult{}, &entity.PersistenceError{Op: "list", Cause: err}
	}

	return ListResult{Notes: cached, Degraded: true}, nil
}

func validate(result entity.ExtractionResult) error {
	if strings.TrimSpace(result.Topic) == "" {
		return &entity.ValidationError{Reason: "topic is required"}
	}

	hasPoint := false
	for _, p := range result.KeyPoints {
		if strings.TrimSpace(p) != "" {
			hasPoint = true
			break
		}
	}
	if !hasPoint {
		return &entity.ValidationError{Reason: "at least one key point is required"}
	}

	return nil
}
