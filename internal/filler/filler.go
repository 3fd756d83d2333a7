// Package filler drives a headless Chrome instance to populate the target
// representation form with extracted data and capture a screenshot as proof
// of what was submitted.
package filler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/djmwong/document-automation/internal/models"
)

var tracer = otel.Tracer("document-automation/filler")

// Filler fills the representation form in a browser.
type Filler struct {
	screenshotDir string
	headless      bool
	logger        *zap.Logger
}

func New(screenshotDir string, headless bool, logger *zap.Logger) *Filler {
	return &Filler{screenshotDir: screenshotDir, headless: headless, logger: logger}
}

// Fill opens targetURL, fills the attorney, eligibility and passport
// sections from ex, and returns the path of a full-page screenshot.
func (f *Filler) Fill(ctx context.Context, ex *models.Extraction, targetURL string) (string, error) {
	ctx, span := tracer.Start(ctx, "form.fill")
	defer span.End()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.headless),
		chromedp.WindowSize(1280, 1024),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	actions := []chromedp.Action{
		chromedp.Navigate(targetURL),
		chromedp.WaitVisible(`form`, chromedp.ByQuery),
	}
	if ex.Attorney != nil {
		actions = append(actions, attorneyActions(ex.Attorney)...)
		actions = append(actions, eligibilityActions(ex.Attorney)...)
	}
	if ex.Passport != nil {
		actions = append(actions, passportActions(ex.Passport)...)
	}

	var shot []byte
	actions = append(actions, chromedp.FullScreenshot(&shot, 90))

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", fmt.Errorf("fill form at %s: %w", targetURL, err)
	}

	path := filepath.Join(f.screenshotDir, fmt.Sprintf("form_filled_%s.png", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, shot, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}

	f.logger.Info("form filled",
		zap.String("target_url", targetURL),
		zap.String("screenshot", path),
	)
	return path, nil
}

// setIf produces a SetValue action when the value is non-empty, otherwise a
// no-op, so the action list stays declarative.
func setIf(id, value string) chromedp.Action {
	if value == "" {
		return noop{}
	}
	return chromedp.SetValue("#"+id, value, chromedp.ByQuery)
}

type noop struct{}

func (noop) Do(context.Context) error { return nil }

// attorneyActions fills Part 1, attorney/representative information.
func attorneyActions(a *models.Attorney) []chromedp.Action {
	return []chromedp.Action{
		setIf("online-account", a.OnlineAccountNum),
		setIf("family-name", a.LastName),
		setIf("given-name", a.FirstName),
		setIf("middle-name", a.MiddleName),
		setIf("street-number", a.StreetAddress),
		setIf("apt-number", a.AptSteFlr),
		setIf("city", a.City),
		setIf("state", models.NormalizeState(a.State)),
		setIf("zip", a.ZipCode),
		setIf("country", a.Country),
		setIf("daytime-phone", a.DaytimePhone),
		setIf("mobile-phone", a.MobilePhone),
		setIf("email", a.Email),
	}
}

// eligibilityActions fills Part 2, eligibility information.
func eligibilityActions(a *models.Attorney) []chromedp.Action {
	return []chromedp.Action{
		setIf("licensing-authority", a.LicensingAuthority),
		setIf("bar-number", a.BarNumber),
		setIf("law-firm", a.LawFirmName),
	}
}

// passportActions fills Part 3, beneficiary passport information. The form
// reuses the passport-given-names id for both the first and middle name
// inputs, so those two go through querySelectorAll instead of SetValue.
func passportActions(p *models.Passport) []chromedp.Action {
	actions := []chromedp.Action{
		setIf("passport-surname", p.LastName),
		fillDuplicateID("passport-given-names", p.FirstName, p.MiddleName),
		setIf("passport-number", p.PassportNumber),
		setIf("passport-country", p.CountryOfIssue),
		setIf("passport-nationality", p.Nationality),
		setIf("passport-dob", models.NormalizeDate(p.DateOfBirth)),
		setIf("passport-pob", p.PlaceOfBirth),
		setIf("passport-sex", p.Sex),
		setIf("passport-issue-date", models.NormalizeDate(p.DateOfIssue)),
		setIf("passport-expiry-date", models.NormalizeDate(p.DateOfExpiration)),
	}
	return actions
}

func fillDuplicateID(id, first, second string) chromedp.Action {
	if first == "" && second == "" {
		return noop{}
	}
	js := fmt.Sprintf(`(() => {
		const els = document.querySelectorAll('#%s');
		if (els.length >= 1 && %q !== "") { els[0].value = %q; }
		if (els.length >= 2 && %q !== "") { els[1].value = %q; }
		return els.length;
	})()`, id, first, first, second, second)
	var n int
	return chromedp.Evaluate(js, &n)
}
