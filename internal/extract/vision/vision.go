// Package vision extracts passport fields by sending the page image to an
// LLM vision model. Two providers implement the same interface; both return
// the same JSON schema described in the prompt.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/djmwong/document-automation/internal/models"
)

// Provider sends a page image to a vision model and returns the parsed
// passport fields.
type Provider interface {
	ExtractPassport(ctx context.Context, jpegImage []byte) (*models.Passport, error)
	// Name identifies the provider in extraction_method reporting.
	Name() string
}

const extractionPrompt = `You are an expert in passport data extraction. Analyze this passport image and extract all visible information.

Return JSON with these fields (use null if not found):
{
  "last_name": "Family name / Surname",
  "first_name": "First given name",
  "middle_name": "Middle name(s) if any",
  "passport_number": "Document number",
  "country_of_issue": "Full country name",
  "nationality": "Nationality of holder",
  "date_of_birth": "YYYY-MM-DD format",
  "place_of_birth": "City/Place of birth",
  "sex": "M or F",
  "date_of_issue": "YYYY-MM-DD format",
  "date_of_expiration": "YYYY-MM-DD format"
}

Instructions:
1. Read BOTH the visual zone (printed text) AND the MRZ (bottom lines)
2. Prefer visual zone labels (Surname, Given names, etc.) for names
3. Convert all dates to YYYY-MM-DD format
4. Return ONLY valid JSON`

// passportReply mirrors the JSON schema in the prompt.
type passportReply struct {
	LastName         string `json:"last_name"`
	FirstName        string `json:"first_name"`
	MiddleName       string `json:"middle_name"`
	PassportNumber   string `json:"passport_number"`
	CountryOfIssue   string `json:"country_of_issue"`
	Nationality      string `json:"nationality"`
	DateOfBirth      string `json:"date_of_birth"`
	PlaceOfBirth     string `json:"place_of_birth"`
	Sex              string `json:"sex"`
	DateOfIssue      string `json:"date_of_issue"`
	DateOfExpiration string `json:"date_of_expiration"`
}

// parseReply decodes a model response into a passport, tolerating markdown
// code fences around the JSON.
func parseReply(text string) (*models.Passport, error) {
	payload := stripFences(text)

	var reply passportReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return nil, fmt.Errorf("parse vision reply: %w", err)
	}

	return &models.Passport{
		LastName:         strings.TrimSpace(reply.LastName),
		FirstName:        strings.TrimSpace(reply.FirstName),
		MiddleName:       strings.TrimSpace(reply.MiddleName),
		PassportNumber:   strings.TrimSpace(reply.PassportNumber),
		CountryOfIssue:   strings.TrimSpace(reply.CountryOfIssue),
		Nationality:      strings.TrimSpace(reply.Nationality),
		DateOfBirth:      models.NormalizeDate(reply.DateOfBirth),
		PlaceOfBirth:     strings.TrimSpace(reply.PlaceOfBirth),
		Sex:              models.NormalizeSex(reply.Sex),
		DateOfIssue:      models.NormalizeDate(reply.DateOfIssue),
		DateOfExpiration: models.NormalizeDate(reply.DateOfExpiration),
	}, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+len("```"):]
	}
	if i := strings.Index(text, "```"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
