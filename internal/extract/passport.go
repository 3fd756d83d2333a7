// Package extract runs the document extraction chains: ordered strategies
// that each try to pull structured fields out of an upload, falling through
// to the next on failure.
package extract

import (
	"context"
	"fmt"
	"image"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/djmwong/document-automation/internal/document"
	"github.com/djmwong/document-automation/internal/extract/mrz"
	"github.com/djmwong/document-automation/internal/extract/vision"
	"github.com/djmwong/document-automation/internal/models"
	"github.com/djmwong/document-automation/internal/ocr"
)

const (
	ocrDPI    = 300
	visionDPI = 200

	// Vision uploads are bounded and recompressed to keep request sizes
	// reasonable without losing the MRZ.
	visionMaxEdge     = 2000
	visionJPEGQuality = 95
)

var tracer = otel.Tracer("document-automation/extract")

// PassportExtractor chains LLM vision, MRZ parsing and plain OCR, in that
// order. First strategy that yields an identifying field wins.
type PassportExtractor struct {
	loader *document.Loader
	ocr    ocr.Engine
	vision vision.Provider // nil when no provider is configured
	logger *zap.Logger
}

func NewPassportExtractor(loader *document.Loader, engine ocr.Engine, provider vision.Provider, logger *zap.Logger) *PassportExtractor {
	return &PassportExtractor{loader: loader, ocr: engine, vision: provider, logger: logger}
}

// Extract always returns a passport; when every strategy fails the result
// carries MethodFailed and the per-strategy failures come back in errs.
func (e *PassportExtractor) Extract(ctx context.Context, data []byte, ext string) (*models.Passport, []string) {
	ctx, span := tracer.Start(ctx, "passport.extract")
	defer span.End()

	var errs []string

	if e.vision != nil {
		p, err := e.extractVision(ctx, data, ext)
		if err != nil {
			errs = append(errs, fmt.Sprintf("llm vision: %v", err))
			e.logger.Warn("llm vision extraction failed", zap.Error(err))
		} else if !p.Empty() {
			span.SetAttributes(attribute.String("method", p.ExtractionMethod))
			return p, errs
		}
	}

	pages, err := e.loader.Pages(ctx, data, ext, ocrDPI)
	if err != nil {
		errs = append(errs, fmt.Sprintf("render document: %v", err))
		return &models.Passport{ExtractionMethod: models.MethodFailed}, errs
	}

	if p, err := e.extractMRZ(pages); err != nil {
		errs = append(errs, fmt.Sprintf("mrz: %v", err))
	} else {
		p.ExtractionMethod = models.MethodMRZ
		p.ConfidenceScore = 0.95
		span.SetAttributes(attribute.String("method", p.ExtractionMethod))
		return p, errs
	}

	if p, err := e.extractOCR(pages); err != nil {
		errs = append(errs, fmt.Sprintf("ocr: %v", err))
	} else {
		p.ExtractionMethod = models.MethodOCR
		p.ConfidenceScore = 0.7
		span.SetAttributes(attribute.String("method", p.ExtractionMethod))
		return p, errs
	}

	span.SetAttributes(attribute.String("method", models.MethodFailed))
	return &models.Passport{ExtractionMethod: models.MethodFailed}, errs
}

func (e *PassportExtractor) extractVision(ctx context.Context, data []byte, ext string) (*models.Passport, error) {
	ctx, span := tracer.Start(ctx, "passport.vision")
	defer span.End()

	page, err := e.loader.FirstPage(ctx, data, ext, visionDPI)
	if err != nil {
		return nil, err
	}
	jpegImage, err := document.ToJPEG(page, visionMaxEdge, visionJPEGQuality)
	if err != nil {
		return nil, err
	}

	p, err := e.vision.ExtractPassport(ctx, jpegImage)
	if err != nil {
		return nil, err
	}
	switch e.vision.Name() {
	case "gemini":
		p.ExtractionMethod = models.MethodLLMGemini
	default:
		p.ExtractionMethod = models.MethodLLMOpenAI
	}
	p.ConfidenceScore = 0.95
	return p, nil
}

// extractMRZ OCRs each page with the MRZ character whitelist and returns the
// first page whose zone passes its check digits.
func (e *PassportExtractor) extractMRZ(pages []image.Image) (*models.Passport, error) {
	var lastErr error = mrz.ErrNoMRZ
	for _, page := range pages {
		text, err := e.ocr.Recognize(page, ocr.Options{
			PageSegMode: 6, // single uniform block, the shape of a data page
			Whitelist:   ocr.MRZWhitelist,
		})
		if err != nil {
			lastErr = err
			continue
		}
		p, err := mrz.ExtractFromText(text)
		if err != nil {
			lastErr = err
			continue
		}
		return p, nil
	}
	return nil, lastErr
}

// extractOCR falls back to plain OCR plus label-anchored patterns.
func (e *PassportExtractor) extractOCR(pages []image.Image) (*models.Passport, error) {
	for _, page := range pages {
		text, err := e.ocr.Recognize(page, ocr.Options{})
		if err != nil {
			return nil, err
		}
		if len(text) < 50 {
			continue
		}
		p := passportFromText(text)
		if !p.Empty() {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no passport fields recognized")
}
