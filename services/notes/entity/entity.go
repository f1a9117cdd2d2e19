package entity

import "time"

type SourceKind string

const (
	SourceLiveSpeech    SourceKind = "live_speech"
	SourceUploadedAudio SourceKind = "uploaded_audio"
)

// Transcript is the normalized text produced by a capture session or an
// uploaded recording. It is consumed once by extraction and never persisted.
type Transcript struct {
	Text       string
	Source     SourceKind
	CapturedAt time.Time
}

type StructuredData struct {
	Events  string `json:"events"`
	Todo    string `json:"todo"`
	Summary string `json:"summary"`
}

// ExtractionResult is the merged output of every configured provider.
// Topic is never empty; Structured is nil when no structuring provider
// produced usable output.
type ExtractionResult struct {
	Topic      string
	KeyPoints  []string
	Structured *StructuredData
}

// Note is the durable record of a saved extraction result. Notes are
// append-only; the repository assigns ID and CreatedAt on save.
type Note struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	KeyPoints []string  `json:"keyPoints"`
	CreatedAt time.Time `json:"createdAt"`
}
