package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	config "github.com/voxnote/backend/config/notes"
	"github.com/voxnote/backend/pkg/gen"
	"github.com/voxnote/backend/services/notes/capture"
	"github.com/voxnote/backend/services/notes/entity"
	"github.com/voxnote/backend/services/notes/extract"
	"github.com/voxnote/backend/services/notes/storage"
	"github.com/voxnote/backend/services/notes/storage/cache"
	"github.com/voxnote/backend/services/notes/usecase"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	return s.text, s.err
}

type stubProvider struct {
	name string
	out  extract.Output
	err  error
}

func (s *stubProvider) Name() string {
	return s.name
}

func (s *stubProvider) Extract(ctx context.Context, tr entity.Transcript) (extract.Output, error) {
	return s.out, s.err
}

func failingProvider(name string) *stubProvider {
	return &stubProvider{
		name: name,
		err:  &entity.ProviderError{Provider: name, Cause: errors.New("unreachable")},
	}
}

func setupTestServer(t *testing.T, transcriber usecase.Transcriber, keyPoints, structuring extract.Provider) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	fileCache, err := cache.NewFileCache(filepath.Join(t.TempDir(), "notes_cache.json"))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	repo := storage.NewRepository(storage.NewMemoryStore(gen.UUID()), fileCache)
	sessions := capture.NewManager(gen.UUID(), log)

	usc := usecase.New(
		extract.NewOrchestrator(0),
		keyPoints,
		structuring,
		transcriber,
		repo,
		sessions,
	)

	return New(&config.Config{Port: 8080}, usc, log).Router()
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealthCheck(t *testing.T) {
	h := setupTestServer(t, &stubTranscriber{}, failingProvider("keypoints"), failingProvider("structuring"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != true {
		t.Fatalf("body = %v", body)
	}
}

func TestFromTextMissingText(t *testing.T) {
	h := setupTestServer(t, &stubTranscriber{}, failingProvider("keypoints"), failingProvider("structuring"))

	for _, body := range []string{`{}`, `{"text":""}`, `{"text":"   "}`} {
		rec := postJSON(t, h, "/extraction/from-text", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status for %s = %d, want 400", body, rec.Code)
		}
		if decodeBody(t, rec)["error"] == nil {
			t.Fatal("expected error field in response")
		}
	}
}

func TestFromTextFallbackExtraction(t *testing.T) {
	h := setupTestServer(t, &stubTranscriber{}, failingProvider("keypoints"), failingProvider("structuring"))

	rec := postJSON(t, h, "/extraction/from-text",
		`{"text":"We should launch Monday. Assign QA to Bob. Ship by Friday."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp ProcessTextResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := []string{"We should launch Monday", "Assign QA to Bob", "Ship by Friday"}
	if len(resp.KeyPoints) != len(want) {
		t.Fatalf("key points = %v, want %v", resp.KeyPoints, want)
	}
	for i := range want {
		if resp.KeyPoints[i] != want[i] {
			t.Fatalf("key point %d = %q, want %q", i, resp.KeyPoints[i], want[i])
		}
	}
	if resp.Topic != "We should launch" {
		t.Fatalf("topic = %q, want %q", resp.Topic, "We should launch")
	}
}

func TestFromTextProviderOutput(t *testing.T) {
	kp := &stubProvider{
		name: "keypoints",
		out:  extract.Output{KeyPoints: []string{"Launch plan agreed"}},
	}
	h := setupTestServer(t, &stubTranscriber{}, kp, failingProvider("structuring"))

	rec := postJSON(t, h, "/extraction/from-text", `{"text":"some meeting text"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp ProcessTextResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.KeyPoints) != 1 || resp.KeyPoints[0] != "Launch plan agreed" {
		t.Fatalf("key points = %v", resp.KeyPoints)
	}
}

func multipartFile(t *testing.T, field, filename, contents string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(contents)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestFromAudioNoFile(t *testing.T) {
	h := setupTestServer(t, &stubTranscriber{text: "hello"}, failingProvider("keypoints"), failingProvider("structuring"))

	req := httptest.NewRequest(http.MethodPost, "/extraction/from-audio", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFromAudioUnsupportedFormat(t *testing.T) {
	h := setupTestServer(t, &stubTranscriber{text: "hello"}, failingProvider("keypoints"), failingProvider("structuring"))

	body, contentType := multipartFile(t, "file", "notes.pdf", "not-audio")
	req := httptest.NewRequest(http.MethodPost, "/extraction/from-audio", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFromAudioStructuringUnreachable(t *testing.T) {
	transcriber := &stubTranscriber{text: "We should launch Monday. Assign QA to Bob."}
	h := setupTestServer(t, transcriber, failingProvider("keypoints"), failingProvider("structuring"))

	body, contentType := multipartFile(t, "file", "meeting.wav", "fake-audio-bytes")
	req := httptest.NewRequest(http.MethodPost, "/extraction/from-audio", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	got := decodeBody(t, rec)
	if got["transcript"] != transcriber.text {
		t.Fatalf("transcript = %v", got["transcript"])
	}
	if _, ok := got["keyPoints"].([]any); !ok {
		t.Fatalf("keyPoints missing: %v", got)
	}
	if got["topic"] == "" || got["topic"] == nil {
		t.Fatalf("topic missing: %v", got)
	}
	if _, ok := got["structuredData"]; ok {
		t.Fatal("structuredData must be omitted when the structuring provider fails")
	}
}

func TestFromAudioWithStructuredData(t *testing.T) {
	transcriber := &stubTranscriber{text: "Plan the launch."}
	structuring := &stubProvider{
		name: "structuring",
		out: extract.Output{Structured: &entity.StructuredData{
			Events:  "Launch review Monday",
			Todo:    "Bob: QA pass",
			Summary: "Launch planning.",
		}},
	}
	h := setupTestServer(t, transcriber, failingProvider("keypoints"), structuring)

	body, contentType := multipartFile(t, "file", "meeting.wav", "fake-audio-bytes")
	req := httptest.NewRequest(http.MethodPost, "/extraction/from-audio", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	got := decodeBody(t, rec)
	structured, ok := got["structuredData"].(map[string]any)
	if !ok {
		t.Fatalf("structuredData missing: %v", got)
	}
	if structured["summary"] != "Launch planning." {
		t.Fatalf("summary = %v", structured["summary"])
	}

	// Processing audio persists the note through the save path.
	listRec := httptest.NewRecorder()
	h.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/notes", nil))
	var listResp ListNotesResponse
	if err := json.Unmarshal(listRec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Notes) != 1 {
		t.Fatalf("got %d notes after from-audio, want 1", len(listResp.Notes))
	}
}

func TestFromAudioTranscriptionFailure(t *testing.T) {
	h := setupTestServer(t, &stubTranscriber{err: errors.New("gladia down")},
		failingProvider("keypoints"), failingProvider("structuring"))

	body, contentType := multipartFile(t, "file", "meeting.wav", "fake-audio-bytes")
	req := httptest.NewRequest(http.MethodPost, "/extraction/from-audio", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestFromAudioEmptyTranscript(t *testing.T) {
	h := setupTestServer(t, &stubTranscriber{err: entity.ErrEmptyTranscript},
		failingProvider("keypoints"), failingProvider("structuring"))

	body, contentType := multipartFile(t, "audio", "silence.wav", "fake-audio-bytes")
	req := httptest.NewRequest(http.MethodPost, "/extraction/from-audio", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSaveNoteValidation(t *testing.T) {
	h := setupTestServer(t, &stubTranscriber{}, failingProvider("keypoints"), failingProvider("structuring"))

	for _, body := range []string{
		`{}`,
		`{"topic":"Errands"}`,
		`{"keyPoints":["Buy milk"]}`,
		`{"keyPoints":[],"topic":"Errands"}`,
	} {
		rec := postJSON(t, h, "/notes", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status for %s = %d, want 400", body, rec.Code)
		}
	}
}

func TestSaveNoteAndList(t *testing.T) {
	h := setupTestServer(t, &stubTranscriber{}, failingProvider("keypoints"), failingProvider("structuring"))

	rec := postJSON(t, h, "/notes", `{"keyPoints":["Buy milk","Call Bob"],"topic":"Errands"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var saveResp SaveNoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &saveResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saveResp.Message == "" {
		t.Fatal("expected a message")
	}
	if saveResp.Note.ID == "" {
		t.Fatal("expected a repository-assigned id")
	}
	if saveResp.Note.CreatedAt.IsZero() {
		t.Fatal("expected a repository-assigned timestamp")
	}

	listRec := httptest.NewRecorder()
	h.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/notes", nil))
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d", listRec.Code)
	}

	var listResp ListNotesResponse
	if err := json.Unmarshal(listRec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listResp.Degraded {
		t.Fatal("unexpected degraded read")
	}
	if len(listResp.Notes) != 1 {
		t.Fatalf("got %d notes, want 1", len(listResp.Notes))
	}
	note := listResp.Notes[0]
	if note.Topic != "Errands" || len(note.KeyPoints) != 2 {
		t.Fatalf("round trip mismatch: %+v", note)
	}
}

func TestCaptureFlow(t *testing.T) {
	h := setupTestServer(t, &stubTranscriber{}, failingProvider("keypoints"), failingProvider("structuring"))

	rec := postJSON(t, h, "/capture/start", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d", rec.Code)
	}
	if decodeBody(t, rec)["sessionId"] == "" {
		t.Fatal("expected a session id")
	}

	rec = postJSON(t, h, "/capture/events", `{"text":"we should launch monday","final":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("partial event status = %d", rec.Code)
	}
	rec = postJSON(t, h, "/capture/events", `{"text":"we should launch monday. assign qa to bob","final":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("final event status = %d", rec.Code)
	}

	rec = postJSON(t, h, "/capture/stop", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp ProcessTextResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.KeyPoints) == 0 {
		t.Fatal("expected key points from stopped capture")
	}

	// A second stop has no session to finalize.
	rec = postJSON(t, h, "/capture/stop", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second stop status = %d, want 400", rec.Code)
	}
}
