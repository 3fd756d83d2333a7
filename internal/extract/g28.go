package extract

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/djmwong/document-automation/internal/document"
	"github.com/djmwong/document-automation/internal/extract/pdfform"
	"github.com/djmwong/document-automation/internal/models"
	"github.com/djmwong/document-automation/internal/ocr"
)

// attorneyFieldNames maps attorney fields to the USCIS AcroForm field names
// on a fillable G-28.
var attorneyFieldNames = []struct {
	field func(*models.Attorney) *string
	names []string
}{
	{func(a *models.Attorney) *string { return &a.LastName }, []string{"Pt1Line2a_FamilyName[0]"}},
	{func(a *models.Attorney) *string { return &a.FirstName }, []string{"Pt1Line2b_GivenName[0]"}},
	{func(a *models.Attorney) *string { return &a.MiddleName }, []string{"Pt1Line2c_MiddleName[0]"}},
	{func(a *models.Attorney) *string { return &a.StreetAddress }, []string{"Line3a_StreetNumber[0]"}},
	{func(a *models.Attorney) *string { return &a.AptSteFlr }, []string{"Line3b_AptSteFlrNumber[0]"}},
	{func(a *models.Attorney) *string { return &a.City }, []string{"Line3c_CityOrTown[0]"}},
	{func(a *models.Attorney) *string { return &a.State }, []string{"Line3d_State[0]"}},
	{func(a *models.Attorney) *string { return &a.ZipCode }, []string{"Line3e_ZipCode[0]"}},
	{func(a *models.Attorney) *string { return &a.Country }, []string{"Line3h_Country[0]"}},
	{func(a *models.Attorney) *string { return &a.DaytimePhone }, []string{"Line4_DaytimeTelephoneNumber[0]"}},
	{func(a *models.Attorney) *string { return &a.MobilePhone }, []string{"Line7_MobileTelephoneNumber[0]"}},
	{func(a *models.Attorney) *string { return &a.Email }, []string{"Line6_EMail[0]"}},
	{func(a *models.Attorney) *string { return &a.BarNumber }, []string{"Pt2Line1b_BarNumber[0]"}},
	{func(a *models.Attorney) *string { return &a.LicensingAuthority }, []string{"Pt2Line1a_LicensingAuthority[0]"}},
	{func(a *models.Attorney) *string { return &a.LawFirmName }, []string{"Pt2Line1d_NameofFirmOrOrganization[0]"}},
}

// beneficiaryFieldNames covers the Part 3 client names, which feed the
// passport section when no passport has been uploaded yet.
var beneficiaryFieldNames = []struct {
	field func(*models.Passport) *string
	names []string
}{
	{func(p *models.Passport) *string { return &p.LastName }, []string{"Pt3Line5a_FamilyName[0]"}},
	{func(p *models.Passport) *string { return &p.FirstName }, []string{"Pt3Line5b_GivenName[0]"}},
	{func(p *models.Passport) *string { return &p.MiddleName }, []string{"Pt3Line5c_MiddleName[0]"}},
}

// minFormFieldConfidence gates the form-field strategy: below this, fall
// through to OCR rather than return a mostly-empty record.
const minFormFieldConfidence = 0.3

// G28Extractor reads fillable-PDF form fields first and falls back to OCR.
type G28Extractor struct {
	loader *document.Loader
	ocr    ocr.Engine
	logger *zap.Logger
}

func NewG28Extractor(loader *document.Loader, engine ocr.Engine, logger *zap.Logger) *G28Extractor {
	return &G28Extractor{loader: loader, ocr: engine, logger: logger}
}

// Extract returns the attorney record, an optional beneficiary carried in
// Part 3 of the form, and any per-strategy failures.
func (e *G28Extractor) Extract(ctx context.Context, data []byte, ext string) (*models.Attorney, *models.Passport, []string) {
	ctx, span := tracer.Start(ctx, "g28.extract")
	defer span.End()

	var errs []string

	if ext == ".pdf" {
		attorney, beneficiary, err := e.extractFormFields(data)
		if err != nil {
			errs = append(errs, fmt.Sprintf("pdf form fields: %v", err))
			e.logger.Warn("pdf form field extraction failed", zap.Error(err))
		} else if attorney != nil && attorney.Confidence() > minFormFieldConfidence {
			attorney.ExtractionMethod = models.MethodPDFFormFields
			attorney.ConfidenceScore = attorney.Confidence()
			span.SetAttributes(attribute.String("method", attorney.ExtractionMethod))
			return attorney, beneficiary, errs
		}
	}

	attorney, err := e.extractOCR(ctx, data, ext)
	if err != nil {
		errs = append(errs, fmt.Sprintf("ocr: %v", err))
		span.SetAttributes(attribute.String("method", models.MethodFailed))
		return &models.Attorney{ExtractionMethod: models.MethodFailed}, nil, errs
	}

	attorney.ExtractionMethod = models.MethodOCR
	attorney.ConfidenceScore = attorney.Confidence()
	span.SetAttributes(attribute.String("method", attorney.ExtractionMethod))
	return attorney, nil, errs
}

func (e *G28Extractor) extractFormFields(data []byte) (*models.Attorney, *models.Passport, error) {
	fields, err := pdfform.ReadFields(data)
	if err != nil {
		return nil, nil, err
	}
	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("no filled form fields")
	}

	attorney := &models.Attorney{}
	for _, m := range attorneyFieldNames {
		if v, ok := lookupField(fields, m.names); ok {
			*m.field(attorney) = v
		}
	}

	// USCIS filers regularly put the email in the mobile-phone line.
	if strings.Contains(attorney.MobilePhone, "@") {
		if attorney.Email == "" {
			attorney.Email = attorney.MobilePhone
		}
		attorney.MobilePhone = ""
	}

	beneficiary := &models.Passport{}
	for _, m := range beneficiaryFieldNames {
		if v, ok := lookupField(fields, m.names); ok {
			*m.field(beneficiary) = v
		}
	}
	if beneficiary.LastName == "" && beneficiary.FirstName == "" {
		beneficiary = nil
	} else {
		beneficiary.ExtractionMethod = models.MethodG28Beneficiary
		beneficiary.ConfidenceScore = 0.5
	}

	return attorney, beneficiary, nil
}

// lookupField tries each candidate field name, case-insensitively, skipping
// blank and "N/A" values.
func lookupField(fields map[string]string, names []string) (string, bool) {
	for _, name := range names {
		for _, key := range []string{name, strings.ToLower(name)} {
			v, ok := fields[key]
			if !ok {
				continue
			}
			v = strings.TrimSpace(v)
			if v == "" || strings.EqualFold(v, "N/A") {
				continue
			}
			return v, true
		}
	}
	return "", false
}

// extractOCR renders every page, recognizes them concurrently and runs the
// label patterns over the combined text.
func (e *G28Extractor) extractOCR(ctx context.Context, data []byte, ext string) (*models.Attorney, error) {
	pages, err := e.loader.Pages(ctx, data, ext, ocrDPI)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(pages))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(2) // tesseract is memory-hungry at 300 DPI
	for i, page := range pages {
		g.Go(func() error {
			text, err := e.ocr.Recognize(page, ocr.Options{})
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fullText := strings.TrimSpace(strings.Join(texts, "\n"))
	if fullText == "" {
		return nil, fmt.Errorf("no text recognized")
	}
	return attorneyFromText(fullText), nil
}
