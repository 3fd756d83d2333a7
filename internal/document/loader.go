// Package document turns uploaded files into page images the extractors can
// work on. PDFs are rasterized with poppler's pdftoppm, the same tool the
// usual Python pdf2image stack shells out to.
package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/draw"
)

// Allowed upload extensions.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// AllowedExtension reports whether the upload's extension is supported and
// returns it lowercased.
func AllowedExtension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext, allowedExtensions[ext]
}

// Loader renders uploads into images.
type Loader struct {
	// PDFToPPM is the pdftoppm binary to invoke; usually just "pdftoppm".
	PDFToPPM string
}

// Pages renders the document to one image per page at the given DPI. Plain
// images are a single page; the DPI only applies to PDFs.
func (l *Loader) Pages(ctx context.Context, data []byte, ext string, dpi int) ([]image.Image, error) {
	if ext == ".pdf" {
		return l.renderPDF(ctx, data, dpi)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", ext, err)
	}
	return []image.Image{img}, nil
}

// FirstPage is Pages limited to the first page, which is all the LLM vision
// path needs.
func (l *Loader) FirstPage(ctx context.Context, data []byte, ext string, dpi int) (image.Image, error) {
	pages, err := l.Pages(ctx, data, ext, dpi)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	return pages[0], nil
}

func (l *Loader) renderPDF(ctx context.Context, data []byte, dpi int) ([]image.Image, error) {
	dir, err := os.MkdirTemp("", "docauto-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	pdfPath := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	bin := l.PDFToPPM
	if bin == "" {
		bin = "pdftoppm"
	}
	cmd := exec.CommandContext(ctx, bin, "-png", "-r", fmt.Sprint(dpi), pdfPath, filepath.Join(dir, "page"))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	entries, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil || len(entries) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(entries)

	pages := make([]image.Image, 0, len(entries))
	for _, path := range entries {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open rendered page: %w", err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode rendered page %s: %w", filepath.Base(path), err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// ToJPEG bounds the image to maxEdge pixels on its long edge and encodes it
// as JPEG, the shape vision APIs want uploads in.
func ToJPEG(img image.Image, maxEdge int, quality int) ([]byte, error) {
	img = bound(img, maxEdge)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func bound(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	long := w
	if h > long {
		long = h
	}
	if maxEdge <= 0 || long <= maxEdge {
		return img
	}

	scale := float64(maxEdge) / float64(long)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
