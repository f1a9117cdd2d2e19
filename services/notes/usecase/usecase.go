package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/voxnote/backend/pkg/logger"
	"github.com/voxnote/backend/services/notes/capture"
	"github.com/voxnote/backend/services/notes/consts"
	"github.com/voxnote/backend/services/notes/entity"
	"github.com/voxnote/backend/services/notes/extract"
	"github.com/voxnote/backend/services/notes/storage"
)

// Transcriber is the external speech-to-text capability used for uploaded
// audio. The gladia client satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// AudioExtraction is the full outcome of processing an uploaded recording.
type AudioExtraction struct {
	Transcript string
	Result     entity.ExtractionResult
	Note       entity.Note
}

type Usecase interface {
	ProcessText(ctx context.Context, text string) (entity.ExtractionResult, error)
	ProcessAudio(ctx context.Context, filename string, audio io.Reader) (*AudioExtraction, error)
	SaveNote(ctx context.Context, topic string, keyPoints []string) (entity.Note, error)
	ListNotes(ctx context.Context) (storage.ListResult, error)

	StartCapture() string
	CaptureEvent(text string, final bool) error
	StopCapture(ctx context.Context) (entity.ExtractionResult, error)
	CancelCapture()
}

type usecase struct {
	orchestrator *extract.Orchestrator
	keyPoints    extract.Provider
	structuring  extract.Provider
	transcriber  Transcriber
	repo         *storage.Repository
	sessions     *capture.Manager
}

func New(
	orchestrator *extract.Orchestrator,
	keyPoints extract.Provider,
	structuring extract.Provider,
	transcriber Transcriber,
	repo *storage.Repository,
	sessions *capture.Manager,
) Usecase {
	return &usecase{
		orchestrator: orchestrator,
		keyPoints:    keyPoints,
		structuring:  structuring,
		transcriber:  transcriber,
		repo:         repo,
		sessions:     sessions,
	}
}

// ProcessText extracts key points and a topic from transcript text supplied
// by the capture client. Nothing is persisted; the caller decides whether to
// save the result.
func (u *usecase) ProcessText(ctx context.Context, text string) (entity.ExtractionResult, error) {
	tr := entity.Transcript{
		Text:       text,
		Source:     entity.SourceLiveSpeech,
		CapturedAt: time.Now(),
	}

	return u.orchestrator.Run(ctx, tr, u.keyPoints)
}

// ProcessAudio transcribes an uploaded recording, runs the full extraction
// pipeline including structuring, and persists the resulting note through
// the single authoritative save path.
func (u *usecase) ProcessAudio(ctx context.Context, filename string, audio io.Reader) (*AudioExtraction, error) {
	log := logger.FromContext(ctx)

	text, err := u.transcriber.Transcribe(ctx, filename, audio)
	if err != nil {
		return nil, err
	}

	tr := entity.Transcript{
		Text:       text,
		Source:     entity.SourceUploadedAudio,
		CapturedAt: time.Now(),
	}

	result, err := u.orchestrator.Run(ctx, tr, u.keyPoints, u.structuring)
	if err != nil {
		return nil, err
	}

	note, err := u.repo.Save(ctx, result)
	if err != nil {
		return nil, err
	}

	log.Info("audio processed",
		slog.String("filename", filename),
		slog.String("note_id", note.ID),
		slog.Bool("structured", result.Structured != nil))

	return &AudioExtraction{
		Transcript: text,
		Result:     result,
		Note:       note,
	}, nil
}

func (u *usecase) SaveNote(ctx context.Context, topic string, keyPoints []string) (entity.Note, error) {
	// The capture client historically defaulted an untitled note's topic.
	if strings.TrimSpace(topic) == "" {
		topic = consts.DefaultNoteTopic
	}

	return u.repo.Save(ctx, entity.ExtractionResult{
		Topic:     topic,
		KeyPoints: keyPoints,
	})
}

func (u *usecase) ListNotes(ctx context.Context) (storage.ListResult, error) {
	return u.repo.List(ctx)
}

func (u *usecase) StartCapture() string {
	return u.sessions.Start()
}

func (u *usecase) CaptureEvent(text string, final bool) error {
	if final {
		return u.sessions.Final(text)
	}
	return u.sessions.Partial(text)
}

// StopCapture finalizes the live session and runs key-point extraction on
// the accumulated transcript.
func (u *usecase) StopCapture(ctx context.Context) (entity.ExtractionResult, error) {
	tr, err := u.sessions.Stop()
	if err != nil {
		return entity.ExtractionResult{}, err
	}

	return u.orchestrator.Run(ctx, tr, u.keyPoints)
}

func (u *usecase) CancelCapture() {
	u.sessions.Cancel()
}
