package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgjson "github.com/voxnote/backend/pkg/json"
	"github.com/voxnote/backend/services/notes/capture"
	"github.com/voxnote/backend/services/notes/consts"
	"github.com/voxnote/backend/services/notes/entity"
	"github.com/voxnote/backend/services/notes/usecase"
)

type Handler struct {
	usecase usecase.Usecase
	log     *slog.Logger
}

func NewHandler(usecase usecase.Usecase, log *slog.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		log:     log,
	}
}

type ProcessTextRequest struct {
	Text string `json:"text"`
}

type ProcessTextResponse struct {
	KeyPoints []string `json:"keyPoints"`
	Topic     string   `json:"topic,omitempty"`
}

type ProcessAudioResponse struct {
	Transcript     string                 `json:"transcript"`
	KeyPoints      []string               `json:"keyPoints"`
	Topic          string                 `json:"topic"`
	StructuredData *entity.StructuredData `json:"structuredData,omitempty"`
}

type SaveNoteRequest struct {
	KeyPoints []string `json:"keyPoints"`
	Topic     string   `json:"topic"`
}

type SaveNoteResponse struct {
	Message string      `json:"message"`
	Note    entity.Note `json:"note"`
}

type ListNotesResponse struct {
	Notes    []entity.Note `json:"notes"`
	Degraded bool          `json:"degraded"`
}

type StartCaptureResponse struct {
	SessionID string `json:"sessionId"`
}

type CaptureEventRequest struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/extraction", func(r chi.Router) {
		r.Post("/from-text", h.FromText)
		r.Post("/from-audio", h.FromAudio)
	})
	r.Post("/notes", h.SaveNote)
	r.Get("/notes", h.ListNotes)
	r.Route("/capture", func(r chi.Router) {
		r.Post("/start", h.StartCapture)
		r.Post("/events", h.CaptureEvent)
		r.Post("/stop", h.StopCapture)
		r.Post("/cancel", h.CancelCapture)
	})
	r.Get("/health", h.HealthCheck)
	h.log.Info("all routes registered")
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	pkgjson.WriteJSON(w, http.StatusOK, map[string]bool{"status": true})
}

func (h *Handler) FromText(w http.ResponseWriter, r *http.Request) {
	h.log.Info("from-text request received", slog.String("remote_addr", r.RemoteAddr))

	var req ProcessTextRequest
	if err := pkgjson.ParseJSON(r, &req); err != nil {
		h.log.Warn("invalid request body", slog.String("error", err.Error()))
		pkgjson.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		pkgjson.WriteError(w, http.StatusBadRequest, fmt.Errorf("no text provided"))
		return
	}

	result, err := h.usecase.ProcessText(r.Context(), req.Text)
	if err != nil {
		h.writeTaxonomyError(w, err)
		return
	}

	pkgjson.WriteJSON(w, http.StatusOK, ProcessTextResponse{
		KeyPoints: result.KeyPoints,
		Topic:     result.Topic,
	})
}

func (h *Handler) FromAudio(w http.ResponseWriter, r *http.Request) {
	h.log.Info("from-audio request received", slog.String("remote_addr", r.RemoteAddr))

	if err := r.ParseMultipartForm(consts.MaxAudioSize); err != nil {
		h.log.Warn("failed to parse multipart form", slog.String("error", err.Error()))
		pkgjson.WriteError(w, http.StatusBadRequest, fmt.Errorf("no file uploaded"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// The capture client historically posted the field as "audio".
		file, header, err = r.FormFile("audio")
	}
	if err != nil {
		pkgjson.WriteError(w, http.StatusBadRequest, fmt.Errorf("no file uploaded"))
		return
	}
	defer file.Close()

	if !allowedAudioFile(header.Filename) {
		pkgjson.WriteError(w, http.StatusBadRequest,
			fmt.Errorf("unsupported audio format: %s", header.Filename))
		return
	}

	h.log.Debug("processing uploaded audio",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	out, err := h.usecase.ProcessAudio(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, entity.ErrEmptyTranscript) {
			pkgjson.WriteError(w, http.StatusBadRequest, fmt.Errorf("no speech detected in recording"))
			return
		}
		var perr *entity.PersistenceError
		if errors.As(err, &perr) {
			pkgjson.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to save note"))
			return
		}
		h.log.Error("transcription failed", slog.String("error", err.Error()))
		pkgjson.WriteError(w, http.StatusInternalServerError, fmt.Errorf("transcription failed"))
		return
	}

	pkgjson.WriteJSON(w, http.StatusOK, ProcessAudioResponse{
		Transcript:     out.Transcript,
		KeyPoints:      out.Result.KeyPoints,
		Topic:          out.Result.Topic,
		StructuredData: out.Result.Structured,
	})
}

func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	h.log.Info("save note request received", slog.String("remote_addr", r.RemoteAddr))

	var req SaveNoteRequest
	if err := pkgjson.ParseJSON(r, &req); err != nil {
		pkgjson.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if len(req.KeyPoints) == 0 || strings.TrimSpace(req.Topic) == "" {
		pkgjson.WriteError(w, http.StatusBadRequest, fmt.Errorf("missing keyPoints or topic"))
		return
	}

	note, err := h.usecase.SaveNote(r.Context(), req.Topic, req.KeyPoints)
	if err != nil {
		h.writeTaxonomyError(w, err)
		return
	}

	pkgjson.WriteJSON(w, http.StatusOK, SaveNoteResponse{
		Message: "Note saved successfully!",
		Note:    note,
	})
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	result, err := h.usecase.ListNotes(r.Context())
	if err != nil {
		h.writeTaxonomyError(w, err)
		return
	}

	notes := result.Notes
	if notes == nil {
		notes = []entity.Note{}
	}

	pkgjson.WriteJSON(w, http.StatusOK, ListNotesResponse{
		Notes:    notes,
		Degraded: result.Degraded,
	})
}

func (h *Handler) StartCapture(w http.ResponseWriter, r *http.Request) {
	id := h.usecase.StartCapture()
	pkgjson.WriteJSON(w, http.StatusOK, StartCaptureResponse{SessionID: id})
}

func (h *Handler) CaptureEvent(w http.ResponseWriter, r *http.Request) {
	var req CaptureEventRequest
	if err := pkgjson.ParseJSON(r, &req); err != nil {
		pkgjson.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.usecase.CaptureEvent(req.Text, req.Final); err != nil {
		h.writeTaxonomyError(w, err)
		return
	}

	pkgjson.WriteJSON(w, http.StatusOK, map[string]bool{"status": true})
}

func (h *Handler) StopCapture(w http.ResponseWriter, r *http.Request) {
	result, err := h.usecase.StopCapture(r.Context())
	if err != nil {
		h.writeTaxonomyError(w, err)
		return
	}

	pkgjson.WriteJSON(w, http.StatusOK, ProcessTextResponse{
		KeyPoints: result.KeyPoints,
		Topic:     result.Topic,
	})
}

func (h *Handler) CancelCapture(w http.ResponseWriter, r *http.Request) {
	h.usecase.CancelCapture()
	pkgjson.WriteJSON(w, http.StatusOK, map[string]bool{"status": true})
}

var allowedAudioExts = map[string]struct{}{
	consts.FormatWAV:  {},
	consts.FormatMP3:  {},
	consts.FormatWebM: {},
	consts.FormatM4A:  {},
}

func allowedAudioFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		// Recorders on some platforms upload without an extension.
		return true
	}
	_, ok := allowedAudioExts[ext]
	return ok
}

// writeTaxonomyError maps pipeline errors onto the HTTP boundary: user
// rejections become 400s, persistence failures become 500s.
func (h *Handler) writeTaxonomyError(w http.ResponseWriter, err error) {
	var verr *entity.ValidationError
	var perr *entity.PersistenceError

	switch {
	case errors.Is(err, entity.ErrEmptyTranscript):
		pkgjson.WriteError(w, http.StatusBadRequest, fmt.Errorf("no speech detected, try speaking again"))
	case errors.Is(err, capture.ErrNoActiveSession):
		pkgjson.WriteError(w, http.StatusBadRequest, err)
	case errors.As(err, &verr):
		pkgjson.WriteError(w, http.StatusBadRequest, err)
	case errors.As(err, &perr):
		h.log.Error("persistence failure", slog.String("error", err.Error()))
		pkgjson.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to save note"))
	default:
		h.log.Error("unexpected error", slog.String("error", err.Error()))
		pkgjson.WriteError(w, http.StatusInternalServerError, fmt.Errorf("internal error"))
	}
}
