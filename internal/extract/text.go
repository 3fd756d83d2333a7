package extract

import (
	"regexp"
	"strings"

	"github.com/djmwong/document-automation/internal/models"
)

// Label-anchored patterns for the OCR fallback paths. OCR output is noisy,
// so every capture is post-filtered rather than trusted.
var (
	passportNumberRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i:passport\s*(?:no\.?|number|#)?[:\s]*)([A-Z0-9]{6,12})\b`),
		regexp.MustCompile(`\b([A-Z]{1,2}\d{6,9})\b`),
		regexp.MustCompile(`\b(\d{9})\b`),
	}
	dobRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:date\s+of\s+birth|dob|birth\s*date)[:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`),
		regexp.MustCompile(`(?i)(?:date\s+of\s+birth|dob|birth\s*date)[:\s]*(\d{1,2}\s+[A-Za-z]+\s+\d{2,4})`),
	}
	sexRe     = regexp.MustCompile(`(?i)(?:sex|gender)[:\s]*(MALE|FEMALE|M|F|X)\b`)
	surnameRe = regexp.MustCompile(`(?i)(?:surname|family\s*name)[^A-Za-z]*([A-Za-z][A-Za-z\-']+)`)
	givenRe   = regexp.MustCompile(`(?i)given\s*names?[^A-Za-z]*([A-Za-z][A-Za-z\-' ]+)`)

	attorneyNameRes = []struct {
		re    *regexp.Regexp
		field func(*models.Attorney) *string
	}{
		{regexp.MustCompile(`(?i)(?:family\s*name|last\s*name)(?:\s*\(last\s*name\))?[^A-Za-z]*([A-Za-z][A-Za-z\-']+)`), func(a *models.Attorney) *string { return &a.LastName }},
		{regexp.MustCompile(`(?i)(?:given\s*name|first\s*name)(?:\s*\(first\s*name\))?[^A-Za-z]*([A-Za-z][A-Za-z\-']+)`), func(a *models.Attorney) *string { return &a.FirstName }},
		{regexp.MustCompile(`(?i)middle\s*name[^A-Za-z]*([A-Za-z][A-Za-z\-']*)`), func(a *models.Attorney) *string { return &a.MiddleName }},
	}
	streetRe    = regexp.MustCompile(`(?i)(?:street|address)[^\d\n]*(\d+[^,\n]{5,50})`)
	cityRe      = regexp.MustCompile(`(?:City|Town)[^A-Za-z]*([A-Z][A-Za-z\s]{2,30}?)(?:,|\s+[A-Z]{2}\s)`)
	stateRe     = regexp.MustCompile(`State[^A-Za-z]*([A-Z]{2})\b`)
	zipRe       = regexp.MustCompile(`(?i)(?:ZIP|Postal)[^0-9]*(\d{5}(?:-\d{4})?)`)
	emailRe     = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	barRe       = regexp.MustCompile(`(?i)bar\s*number[^A-Za-z0-9]*([A-Z0-9]{4,12})`)
	licensingRe = regexp.MustCompile(`(?i)licensing\s*authority[^A-Za-z]*([A-Za-z][A-Za-z\s]+?)(?:,|\.)`)
	firmRe      = regexp.MustCompile(`(?i)(?:law\s*firm|organization)\s*(?:name)?\s*[:\-]\s*([A-Za-z][^,\n]{5,60})`)

	spacesRe        = regexp.MustCompile(`\s+`)
	trailingStateRe = regexp.MustCompile(`\s+[A-Z]{2}$`)
)

// nameStopwords are label fragments OCR tends to capture instead of a name.
var nameStopwords = map[string]bool{
	"name": true, "last": true, "first": true,
	"given": true, "family": true, "middle": true,
}

// passportFromText pulls passport fields out of free OCR text.
func passportFromText(text string) *models.Passport {
	p := &models.Passport{}

	for _, re := range passportNumberRes {
		if m := re.FindStringSubmatch(text); m != nil {
			p.PassportNumber = strings.ToUpper(m[1])
			break
		}
	}

	if m := surnameRe.FindStringSubmatch(text); m != nil && !nameStopwords[strings.ToLower(m[1])] {
		p.LastName = titleWord(m[1])
	}
	if m := givenRe.FindStringSubmatch(text); m != nil && !nameStopwords[strings.ToLower(strings.Fields(m[1])[0])] {
		parts := strings.Fields(m[1])
		p.FirstName = titleWord(parts[0])
		if len(parts) > 1 {
			p.MiddleName = titleWord(strings.Join(parts[1:], " "))
		}
	}

	for _, re := range dobRes {
		if m := re.FindStringSubmatch(text); m != nil {
			p.DateOfBirth = models.NormalizeDate(m[1])
			break
		}
	}

	if m := sexRe.FindStringSubmatch(text); m != nil {
		p.Sex = models.NormalizeSex(m[1])
	}

	return p
}

// attorneyFromText pulls G-28 attorney fields out of free OCR text.
func attorneyFromText(text string) *models.Attorney {
	a := &models.Attorney{}

	// G-28 labels carry nested synonyms like "Family Name (Last Name)", so
	// the first capture is often another label word. Take the first match
	// that is not one.
	for _, nm := range attorneyNameRes {
		for _, m := range nm.re.FindAllStringSubmatch(text, 4) {
			if nameStopwords[strings.ToLower(m[1])] {
				continue
			}
			if dst := nm.field(a); *dst == "" {
				*dst = titleWord(m[1])
			}
			break
		}
	}

	if m := streetRe.FindStringSubmatch(text); m != nil {
		street := spacesRe.ReplaceAllString(strings.TrimSpace(m[1]), " ")
		if len(street) > 100 {
			street = street[:100]
		}
		a.StreetAddress = street
	}
	if m := cityRe.FindStringSubmatch(text); m != nil {
		// Strip a trailing state code the loose capture may have swallowed.
		a.City = strings.TrimSpace(trailingStateRe.ReplaceAllString(strings.TrimSpace(m[1]), ""))
	}
	if m := stateRe.FindStringSubmatch(text); m != nil {
		a.State = models.NormalizeState(m[1])
	}
	if m := zipRe.FindStringSubmatch(text); m != nil {
		a.ZipCode = m[1]
	}
	if m := emailRe.FindString(text); m != "" {
		a.Email = strings.ToLower(m)
	}
	if m := barRe.FindStringSubmatch(text); m != nil {
		a.BarNumber = m[1]
	}
	if m := licensingRe.FindStringSubmatch(text); m != nil {
		a.LicensingAuthority = titleWord(strings.TrimSpace(m[1]))
	}
	if m := firmRe.FindStringSubmatch(text); m != nil {
		a.LawFirmName = spacesRe.ReplaceAllString(strings.TrimSpace(m[1]), " ")
	}

	if a.Country == "" && a.State != "" {
		a.Country = "United States"
	}

	return a
}

func titleWord(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
