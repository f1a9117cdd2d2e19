package storage

import (
	"context"
	"sync"
	"time"

	"github.com/voxnote/backend/pkg/gen"
	"github.com/voxnote/backend/services/notes/entity"
)

// memoryStore is an in-process NoteStore used in tests and when no durable
// store is configured.
type memoryStore struct {
	mu    sync.Mutex
	notes []entity.Note
	ids   gen.IDGenerator
}

func NewMemoryStore(ids gen.IDGenerator) NoteStore {
	return &memoryStore{
		ids: ids,
	}
}

func (s *memoryStore) Insert(ctx context.Context, topic string, keyPoints []string) (entity.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note := entity.Note{
		ID:        s.ids.Next(),
		Topic:     topic,
		KeyPoints: append([]string(nil), keyPoints...),
		CreatedAt: time.Now().UTC(),
	}

	s.notes = append(s.notes, note)
	return note, nil
}

func (s *memoryStore) List(ctx context.Context) ([]entity.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.Note, len(s.notes))
	copy(out, s.notes)
	return out, nil
}
