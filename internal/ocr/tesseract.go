// Package ocr wraps the Tesseract engine behind a small interface so
// extractors can be tested without the cgo binding or the engine installed.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes text on a page image.
type Engine interface {
	Recognize(img image.Image, opts Options) (string, error)
}

// Options tune a single recognition pass.
type Options struct {
	// PageSegMode is tesseract's --psm value. Zero means automatic layout
	// analysis (psm 3).
	PageSegMode int
	// Whitelist restricts recognized characters, e.g. the MRZ alphabet.
	Whitelist string
}

// MRZWhitelist is the character set of a machine-readable zone.
const MRZWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"

// Tesseract is the gosseract-backed Engine.
type Tesseract struct {
	Language string
}

// NewTesseract returns an engine using the given language pack.
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language}
}

// Recognize runs one OCR pass. A fresh client per call keeps the cgo handle
// lifecycle trivial; tesseract dominates the runtime anyway.
func (t *Tesseract) Recognize(img image.Image, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page for ocr: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.Language); err != nil {
		return "", fmt.Errorf("set ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}
	if opts.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
			return "", fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			return "", fmt.Errorf("set ocr whitelist: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return text, nil
}
