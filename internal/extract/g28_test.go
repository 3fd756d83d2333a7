package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/djmwong/document-automation/internal/document"
	"github.com/djmwong/document-automation/internal/models"
)

func TestG28ExtractOCR(t *testing.T) {
	engine := &fakeEngine{texts: []string{g28OCRSample}}
	e := NewG28Extractor(&document.Loader{}, engine, zap.NewNop())

	attorney, beneficiary, errs := e.Extract(context.Background(), pngBytes(t), ".png")
	assert.Empty(t, errs)
	assert.Nil(t, beneficiary)
	assert.Equal(t, models.MethodOCR, attorney.ExtractionMethod)
	assert.Equal(t, "Smith", attorney.LastName)
	assert.Equal(t, "Jane", attorney.FirstName)
	assert.InDelta(t, 1.0, attorney.ConfidenceScore, 1e-9)
}

func TestG28ExtractNothingRecognized(t *testing.T) {
	engine := &fakeEngine{}
	e := NewG28Extractor(&document.Loader{}, engine, zap.NewNop())

	attorney, beneficiary, errs := e.Extract(context.Background(), pngBytes(t), ".png")
	require.Len(t, errs, 1)
	assert.Nil(t, beneficiary)
	assert.Equal(t, models.MethodFailed, attorney.ExtractionMethod)
}

func TestG28ExtractUnreadablePDFFallsThrough(t *testing.T) {
	engine := &fakeEngine{texts: []string{g28OCRSample}}
	e := NewG28Extractor(&document.Loader{PDFToPPM: "/nonexistent/pdftoppm"}, engine, zap.NewNop())

	attorney, _, errs := e.Extract(context.Background(), []byte("%PDF-garbage"), ".pdf")
	// Both the form-field read and the render fail, which is everything a
	// broken PDF can offer.
	assert.NotEmpty(t, errs)
	assert.Equal(t, models.MethodFailed, attorney.ExtractionMethod)
}

func TestLookupField(t *testing.T) {
	fields := map[string]string{
		"Pt1Line2a_FamilyName[0]": "Smith",
		"line6_email[0]":          "jane@example.com",
		"Line3d_State[0]":         " ",
		"Line3h_Country[0]":       "N/A",
	}

	v, ok := lookupField(fields, []string{"Pt1Line2a_FamilyName[0]"})
	require.True(t, ok)
	assert.Equal(t, "Smith", v)

	// Case-insensitive fallback.
	v, ok = lookupField(fields, []string{"Line6_EMail[0]"})
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", v)

	_, ok = lookupField(fields, []string{"Line3d_State[0]"})
	assert.False(t, ok, "blank values are skipped")

	_, ok = lookupField(fields, []string{"Line3h_Country[0]"})
	assert.False(t, ok, "N/A values are skipped")

	_, ok = lookupField(fields, []string{"Unknown[0]"})
	assert.False(t, ok)
}
