package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/djmwong/document-automation/internal/models"
	"github.com/djmwong/document-automation/internal/platform/metrics"
	"github.com/djmwong/document-automation/internal/session"
)

type fakePassportExtractor struct {
	passport *models.Passport
	errs     []string
}

func (f *fakePassportExtractor) Extract(context.Context, []byte, string) (*models.Passport, []string) {
	cp := *f.passport
	return &cp, f.errs
}

type fakeG28Extractor struct {
	attorney    *models.Attorney
	beneficiary *models.Passport
}

func (f *fakeG28Extractor) Extract(context.Context, []byte, string) (*models.Attorney, *models.Passport, []string) {
	cp := *f.attorney
	return &cp, f.beneficiary, nil
}

type fakeFiller struct {
	screenshot string
	err        error
	gotURL     string
}

func (f *fakeFiller) Fill(_ context.Context, _ *models.Extraction, targetURL string) (string, error) {
	f.gotURL = targetURL
	return f.screenshot, f.err
}

type handlerFixture struct {
	handler *Handler
	router  http.Handler
	store   session.Store
	filler  *fakeFiller
}

func newFixture(t *testing.T) *handlerFixture {
	t.Helper()

	store := session.NewMemory(time.Hour)
	filler := &fakeFiller{screenshot: "screenshots/form_filled_test.png"}

	h := NewHandler(HandlerConfig{
		Store: store,
		Passport: &fakePassportExtractor{passport: &models.Passport{
			LastName:         "Eriksson",
			FirstName:        "Anna",
			PassportNumber:   "L898902C3",
			ExtractionMethod: models.MethodMRZ,
			ConfidenceScore:  0.95,
		}},
		G28: &fakeG28Extractor{attorney: &models.Attorney{
			LastName:         "Smith",
			FirstName:        "Jane",
			Email:            "jane@example.com",
			ExtractionMethod: models.MethodPDFFormFields,
		}},
		Filler:      filler,
		Metrics:     metrics.NewWith(prometheus.NewRegistry()),
		Logger:      zap.NewNop(),
		UploadDir:   t.TempDir(),
		TargetURL:   "https://forms.example.com/",
		FillTimeout: time.Minute,
	})

	return &handlerFixture{
		handler: h,
		router:  NewRouter(h, zap.NewNop()),
		store:   store,
		filler:  filler,
	}
}

func multipartUpload(t *testing.T, filename, sessionID string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("file contents"))
	require.NoError(t, err)
	if sessionID != "" {
		require.NoError(t, w.WriteField("session_id", sessionID))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func doUpload(t *testing.T, router http.Handler, path, filename, sessionID string) (*httptest.ResponseRecorder, ExtractionResponse) {
	t.Helper()

	body, contentType := multipartUpload(t, filename, sessionID)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp ExtractionResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	}
	return rec, resp
}

func TestUploadPassport(t *testing.T) {
	fx := newFixture(t)

	rec, resp := doUpload(t, fx.router, "/upload/passport", "passport.jpg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "Eriksson", resp.Data.Passport.LastName)

	saved, err := fx.store.Find(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "L898902C3", saved.Passport.PassportNumber)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	fx := newFixture(t)

	rec, _ := doUpload(t, fx.router, "/upload/passport", "passport.docx", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	fx := newFixture(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", "passport.jpg")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("a"), maxUploadBytes+1))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/passport", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "upload limit")
}

func TestUploadRequiresFileField(t *testing.T) {
	fx := newFixture(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("session_id", "abc"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/passport", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadG28JoinsExistingSession(t *testing.T) {
	fx := newFixture(t)

	_, first := doUpload(t, fx.router, "/upload/passport", "passport.png", "")
	rec, second := doUpload(t, fx.router, "/upload/g28", "g28.pdf", first.SessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.SessionID, second.SessionID)

	require.NotNil(t, second.Data.Passport)
	require.NotNil(t, second.Data.Attorney)
	assert.Equal(t, "Eriksson", second.Data.Passport.LastName)
	assert.Equal(t, "Smith", second.Data.Attorney.LastName)
}

func TestUploadG28MergesBeneficiary(t *testing.T) {
	fx := newFixture(t)
	fx.handler.g28 = &fakeG28Extractor{
		attorney:    &models.Attorney{LastName: "Smith", ExtractionMethod: models.MethodPDFFormFields},
		beneficiary: &models.Passport{LastName: "Doe", FirstName: "John", ExtractionMethod: models.MethodG28Beneficiary},
	}

	rec, resp := doUpload(t, fx.router, "/upload/g28", "g28.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Data.Passport)
	assert.Equal(t, "Doe", resp.Data.Passport.LastName)
}

func TestUploadCleansUpSpooledFile(t *testing.T) {
	fx := newFixture(t)

	rec, _ := doUpload(t, fx.router, "/upload/passport", "passport.jpg", "")
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := os.ReadDir(fx.handler.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetExtraction(t *testing.T) {
	fx := newFixture(t)
	_, uploaded := doUpload(t, fx.router, "/upload/passport", "passport.jpg", "")

	req := httptest.NewRequest(http.MethodGet, "/extraction/"+uploaded.SessionID, nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ExtractionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Eriksson", resp.Data.Passport.LastName)
}

func TestGetExtractionNotFound(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/extraction/unknown", nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	fx := newFixture(t)
	_, uploaded := doUpload(t, fx.router, "/upload/passport", "passport.jpg", "")

	req := httptest.NewRequest(http.MethodDelete, "/session/"+uploaded.SessionID, nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/session/"+uploaded.SessionID, nil)
	rec = httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func fillRequest(sessionID, targetURL string) *bytes.Reader {
	b, _ := json.Marshal(FillFormRequest{SessionID: sessionID, TargetURL: targetURL})
	return bytes.NewReader(b)
}

func TestFillForm(t *testing.T) {
	fx := newFixture(t)
	_, uploaded := doUpload(t, fx.router, "/upload/passport", "passport.jpg", "")

	req := httptest.NewRequest(http.MethodPost, "/fill-form", fillRequest(uploaded.SessionID, ""))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp FillFormResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "screenshots/form_filled_test.png", resp.ScreenshotPath)
	assert.Equal(t, "https://forms.example.com/", fx.filler.gotURL, "default target URL applied")
}

func TestFillFormOverridesTargetURL(t *testing.T) {
	fx := newFixture(t)
	_, uploaded := doUpload(t, fx.router, "/upload/passport", "passport.jpg", "")

	req := httptest.NewRequest(http.MethodPost, "/fill-form", fillRequest(uploaded.SessionID, "https://other.example.com/form"))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://other.example.com/form", fx.filler.gotURL)
}

func TestFillFormUnknownSession(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/fill-form", fillRequest("unknown", ""))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFillFormRequiresSessionID(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/fill-form", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFillFormNoExtractedData(t *testing.T) {
	fx := newFixture(t)

	ex := &models.Extraction{SessionID: "empty-session", CreatedAt: time.Now()}
	require.NoError(t, fx.store.Save(context.Background(), ex))

	req := httptest.NewRequest(http.MethodPost, "/fill-form", fillRequest("empty-session", ""))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFillFormSyncFoldsErrorsIntoBody(t *testing.T) {
	fx := newFixture(t)
	fx.filler.err = fmt.Errorf("browser crashed")
	_, uploaded := doUpload(t, fx.router, "/upload/passport", "passport.jpg", "")

	req := httptest.NewRequest(http.MethodPost, "/fill-form-sync", fillRequest(uploaded.SessionID, ""))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "browser crashed")
}

func TestHealthz(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIndexPage(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Document Automation")
}
