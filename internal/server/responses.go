package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/djmwong/document-automation/internal/models"
	"github.com/djmwong/document-automation/pkg/domainerr"
)

// ExtractionResponse is returned by the upload and extraction endpoints.
type ExtractionResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	SessionID string             `json:"session_id"`
	Data      *models.Extraction `json:"data,omitempty"`
}

// FillFormResponse is returned by /fill-form.
type FillFormResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := domainerr.CodeInternal
	message := "internal server error"

	var de *domainerr.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
	}

	writeJSON(w, domainerr.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": message,
	})
}
