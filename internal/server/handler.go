package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/djmwong/document-automation/internal/audit"
	"github.com/djmwong/document-automation/internal/document"
	"github.com/djmwong/document-automation/internal/models"
	"github.com/djmwong/document-automation/internal/platform/metrics"
	"github.com/djmwong/document-automation/internal/platform/middleware"
	"github.com/djmwong/document-automation/internal/session"
	"github.com/djmwong/document-automation/pkg/domainerr"
	"github.com/djmwong/document-automation/pkg/sentinel"
)

const maxUploadBytes = 20 << 20

// PassportExtractor produces passport data from an uploaded document.
type PassportExtractor interface {
	Extract(ctx context.Context, data []byte, ext string) (*models.Passport, []string)
}

// G28Extractor produces attorney data, and when present beneficiary passport
// data, from an uploaded G-28 form.
type G28Extractor interface {
	Extract(ctx context.Context, data []byte, ext string) (*models.Attorney, *models.Passport, []string)
}

// FormFiller drives a browser session that fills the target form with the
// extracted data and returns the path of the screenshot it captured.
type FormFiller interface {
	Fill(ctx context.Context, ex *models.Extraction, targetURL string) (string, error)
}

// FillFormRequest is the body of POST /fill-form and /fill-form-sync.
type FillFormRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	TargetURL string `json:"target_url" validate:"omitempty,url"`
}

// Handler serves the document automation HTTP API.
type Handler struct {
	store     session.Store
	passport  PassportExtractor
	g28       G28Extractor
	filler    FormFiller
	publisher *audit.Publisher
	metrics   *metrics.Metrics
	validate  *validator.Validate
	logger    *zap.Logger

	uploadDir   string
	targetURL   string
	fillTimeout time.Duration
}

// HandlerConfig carries the collaborators a Handler needs.
type HandlerConfig struct {
	Store       session.Store
	Passport    PassportExtractor
	G28         G28Extractor
	Filler      FormFiller
	Publisher   *audit.Publisher
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	UploadDir   string
	TargetURL   string
	FillTimeout time.Duration
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		store:       cfg.Store,
		passport:    cfg.Passport,
		g28:         cfg.G28,
		filler:      cfg.Filler,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		validate:    validator.New(),
		logger:      cfg.Logger,
		uploadDir:   cfg.UploadDir,
		targetURL:   cfg.TargetURL,
		fillTimeout: cfg.FillTimeout,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UploadPassport handles POST /upload/passport.
func (h *Handler) UploadPassport(w http.ResponseWriter, r *http.Request) {
	data, ext, sessionID, err := h.readUpload(r, "passport")
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	passport, extractErrs := h.passport.Extract(r.Context(), data, ext)
	h.metrics.ObserveExtraction("passport", passport.ExtractionMethod, start, passport.ExtractionMethod == models.MethodFailed)

	ex, err := h.loadOrCreate(r, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	ex.Passport = passport
	ex.Errors = append(ex.Errors, extractErrs...)

	if err := h.store.Save(r.Context(), ex); err != nil {
		writeError(w, domainerr.Wrap(domainerr.CodeUnavailable, "failed to persist session", err))
		return
	}

	h.publisher.Publish(r.Context(), h.event(r, ex.SessionID, audit.ActionPassportExtracted, passport.ExtractionMethod))

	writeJSON(w, http.StatusOK, ExtractionResponse{
		Success:   passport.ExtractionMethod != models.MethodFailed,
		Message:   fmt.Sprintf("Passport processed (%s)", passport.ExtractionMethod),
		SessionID: ex.SessionID,
		Data:      ex,
	})
}

// UploadG28 handles POST /upload/g28.
func (h *Handler) UploadG28(w http.ResponseWriter, r *http.Request) {
	data, ext, sessionID, err := h.readUpload(r, "g28")
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	attorney, beneficiary, extractErrs := h.g28.Extract(r.Context(), data, ext)
	h.metrics.ObserveExtraction("g28", attorney.ExtractionMethod, start, attorney.ExtractionMethod == models.MethodFailed)

	ex, err := h.loadOrCreate(r, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	ex.Attorney = attorney
	ex.MergeBeneficiary(beneficiary)
	ex.Errors = append(ex.Errors, extractErrs...)

	if err := h.store.Save(r.Context(), ex); err != nil {
		writeError(w, domainerr.Wrap(domainerr.CodeUnavailable, "failed to persist session", err))
		return
	}

	h.publisher.Publish(r.Context(), h.event(r, ex.SessionID, audit.ActionG28Extracted, attorney.ExtractionMethod))

	writeJSON(w, http.StatusOK, ExtractionResponse{
		Success:   attorney.ExtractionMethod != models.MethodFailed,
		Message:   fmt.Sprintf("G-28 processed (%s)", attorney.ExtractionMethod),
		SessionID: ex.SessionID,
		Data:      ex,
	})
}

// GetExtraction handles GET /extraction/{session_id}.
func (h *Handler) GetExtraction(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	ex, err := h.store.Find(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			writeError(w, domainerr.New(domainerr.CodeNotFound, "session not found"))
			return
		}
		writeError(w, domainerr.Wrap(domainerr.CodeUnavailable, "failed to load session", err))
		return
	}

	writeJSON(w, http.StatusOK, ExtractionResponse{
		Success:   true,
		Message:   "extraction data",
		SessionID: ex.SessionID,
		Data:      ex,
	})
}

// DeleteSession handles DELETE /session/{session_id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	if err := h.store.Delete(r.Context(), sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			writeError(w, domainerr.New(domainerr.CodeNotFound, "session not found"))
			return
		}
		writeError(w, domainerr.Wrap(domainerr.CodeUnavailable, "failed to delete session", err))
		return
	}

	h.metrics.SessionsDeleted.Inc()
	h.publisher.Publish(r.Context(), h.event(r, sessionID, audit.ActionSessionDeleted, ""))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "session deleted",
	})
}

// FillForm handles POST /fill-form. Failures are reported through HTTP status
// codes.
func (h *Handler) FillForm(w http.ResponseWriter, r *http.Request) {
	screenshot, err := h.fill(r)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FillFormResponse{
		Success:        true,
		Message:        "form filled",
		ScreenshotPath: screenshot,
	})
}

// FillFormSync handles POST /fill-form-sync. It always answers 200 and folds
// failures into the body, which keeps browser clients on the same code path
// for success and failure.
func (h *Handler) FillFormSync(w http.ResponseWriter, r *http.Request) {
	screenshot, err := h.fill(r)
	if err != nil {
		message := "internal server error"
		var de *domainerr.Error
		if errors.As(err, &de) {
			message = de.Message
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   message,
		})
		return
	}

	writeJSON(w, http.StatusOK, FillFormResponse{
		Success:        true,
		Message:        "form filled",
		ScreenshotPath: screenshot,
	})
}

func (h *Handler) fill(r *http.Request) (string, error) {
	var req FillFormRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", domainerr.New(domainerr.CodeInvalidInput, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return "", domainerr.New(domainerr.CodeInvalidInput, "session_id is required")
	}

	ex, err := h.store.Find(r.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", domainerr.New(domainerr.CodeNotFound, "session not found")
		}
		return "", domainerr.Wrap(domainerr.CodeUnavailable, "failed to load session", err)
	}
	if !ex.HasData() {
		return "", domainerr.New(domainerr.CodeNoData, "no extracted data available for this session")
	}

	targetURL := req.TargetURL
	if targetURL == "" {
		targetURL = h.targetURL
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.fillTimeout)
	defer cancel()

	start := time.Now()
	screenshot, err := h.filler.Fill(ctx, ex, targetURL)
	h.metrics.ObserveFormFill(start, err)
	if err != nil {
		h.logger.Error("form fill failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		return "", domainerr.Wrap(domainerr.CodeInternal, "form fill failed: "+err.Error(), err)
	}

	h.publisher.Publish(r.Context(), h.event(r, req.SessionID, audit.ActionFormFilled, ""))

	return screenshot, nil
}

// readUpload pulls the multipart file out of the request, validates its
// extension, and spools it through the upload directory so partially written
// documents never reach the extractors.
func (h *Handler) readUpload(r *http.Request, kind string) (data []byte, ext, sessionID string, err error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", "", domainerr.New(domainerr.CodeInvalidInput, "invalid multipart request")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", "", domainerr.New(domainerr.CodeInvalidInput, "file field is required")
	}
	defer file.Close()

	ext, ok := document.AllowedExtension(header.Filename)
	if !ok {
		return nil, "", "", domainerr.New(domainerr.CodeInvalidInput,
			fmt.Sprintf("unsupported file type %q, expected pdf, jpg, jpeg or png", ext))
	}
	if header.Size > maxUploadBytes {
		return nil, "", "", domainerr.New(domainerr.CodeInvalidInput,
			fmt.Sprintf("file exceeds the %d MiB upload limit", maxUploadBytes>>20))
	}

	sessionID = r.FormValue("session_id")

	path := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s%s", kind, uuid.NewString(), ext))
	dst, err := os.Create(path)
	if err != nil {
		return nil, "", "", domainerr.Wrap(domainerr.CodeInternal, "failed to store upload", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, "", "", domainerr.Wrap(domainerr.CodeInternal, "failed to store upload", err)
	}
	dst.Close()
	defer os.Remove(path)

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, "", "", domainerr.Wrap(domainerr.CodeInternal, "failed to read upload", err)
	}
	return data, ext, sessionID, nil
}

// loadOrCreate resolves the extraction session for an upload. A blank or
// unknown session id starts a fresh session.
func (h *Handler) loadOrCreate(r *http.Request, sessionID string) (*models.Extraction, error) {
	if sessionID != "" {
		ex, err := h.store.Find(r.Context(), sessionID)
		if err == nil {
			return ex, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerr.Wrap(domainerr.CodeUnavailable, "failed to load session", err)
		}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &models.Extraction{
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
		ClientIP:  middleware.GetClientIP(r.Context()),
		Client:    middleware.GetClient(r.Context()),
	}, nil
}

func (h *Handler) event(r *http.Request, sessionID, action, method string) audit.Event {
	return audit.Event{
		Timestamp: time.Now().UTC(),
		Action:    action,
		SessionID: sessionID,
		Method:    method,
		ClientIP:  middleware.GetClientIP(r.Context()),
		Client:    middleware.GetClient(r.Context()),
		RequestID: middleware.GetRequestID(r.Context()),
	}
}
