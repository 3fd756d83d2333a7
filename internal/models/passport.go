// Package models holds the extraction data model shared by extractors, the
// session store and the form filler.
package models

import "strings"

// Sex values as printed in the passport visual zone and MRZ.
const (
	SexMale        = "M"
	SexFemale      = "F"
	SexUnspecified = "X"
)

// Extraction methods reported back to the caller.
const (
	MethodLLMOpenAI     = "LLM_OPENAI"
	MethodLLMGemini     = "LLM_GEMINI"
	MethodMRZ           = "MRZ"
	MethodOCR           = "OCR+REGEX"
	MethodPDFFormFields = "PDF_FORM_FIELDS"
	MethodG28Beneficiary = "G28_BENEFICIARY"
	MethodFailed        = "FAILED"
)

// Passport is the structured result of a passport extraction. All fields are
// optional; extractors fill what they can and leave the rest empty. Dates are
// ISO YYYY-MM-DD strings.
type Passport struct {
	LastName         string  `json:"last_name,omitempty"`
	FirstName        string  `json:"first_name,omitempty"`
	MiddleName       string  `json:"middle_name,omitempty"`
	PassportNumber   string  `json:"passport_number,omitempty"`
	CountryOfIssue   string  `json:"country_of_issue,omitempty"`
	Nationality      string  `json:"nationality,omitempty"`
	DateOfBirth      string  `json:"date_of_birth,omitempty"`
	PlaceOfBirth     string  `json:"place_of_birth,omitempty"`
	Sex              string  `json:"sex,omitempty"`
	DateOfIssue      string  `json:"date_of_issue,omitempty"`
	DateOfExpiration string  `json:"date_of_expiration,omitempty"`
	ExtractionMethod string  `json:"extraction_method,omitempty"`
	ConfidenceScore  float64 `json:"confidence_score,omitempty"`
}

// Empty reports whether no identifying field was extracted.
func (p *Passport) Empty() bool {
	return p == nil || (p.PassportNumber == "" && p.LastName == "" && p.FirstName == "")
}

// NormalizeSex maps free-form OCR or LLM output onto M/F/X.
func NormalizeSex(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return SexMale
	case "F", "FEMALE":
		return SexFemale
	case "X", "UNSPECIFIED":
		return SexUnspecified
	default:
		return ""
	}
}
