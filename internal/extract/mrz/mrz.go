// Package mrz parses the TD3 machine-readable zone printed on passport data
// pages, per ICAO Doc 9303 part 4. Input is raw OCR text; the parser locates
// candidate MRZ lines, repairs common OCR confusions and verifies the
// document-number, birth-date, expiry-date and composite check digits before
// trusting any field.
package mrz

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/djmwong/document-automation/internal/models"
)

// LineLength is the TD3 line length.
const LineLength = 44

var (
	// ErrNoMRZ means no plausible MRZ line pair was found in the text.
	ErrNoMRZ = errors.New("no machine-readable zone found")
	// ErrChecksum means the zone was found but a check digit failed, so
	// nothing in it can be trusted.
	ErrChecksum = errors.New("mrz check digit mismatch")
)

var lineRe = regexp.MustCompile(`^[A-Z0-9<]{40,50}$`)

// FindLines scans OCR output for a TD3 line pair. Lines are cleaned of
// spaces and common OCR substitutions, then padded or trimmed to 44
// characters. The first two candidates in reading order are returned.
func FindLines(text string) (string, string, bool) {
	var candidates []string
	for _, line := range strings.Split(strings.ToUpper(text), "\n") {
		cleaned := cleanLine(line)
		if !lineRe.MatchString(cleaned) {
			continue
		}
		if len(cleaned) < 42 || len(cleaned) > 46 {
			continue
		}
		if len(cleaned) < LineLength {
			cleaned += strings.Repeat("<", LineLength-len(cleaned))
		} else if len(cleaned) > LineLength {
			cleaned = cleaned[:LineLength]
		}
		candidates = append(candidates, cleaned)
		if len(candidates) == 2 {
			return candidates[0], candidates[1], true
		}
	}
	return "", "", false
}

var ocrSubstitutions = strings.NewReplacer(" ", "", "«", "<", "‹", "<")

func cleanLine(line string) string {
	line = ocrSubstitutions.Replace(line)
	var b strings.Builder
	for _, r := range line {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '<' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse validates a TD3 line pair and decodes its fields. The returned
// passport carries no extraction method or confidence; the caller owns those.
func Parse(line1, line2 string) (*models.Passport, error) {
	if len(line1) != LineLength || len(line2) != LineLength {
		return nil, fmt.Errorf("mrz lines must be %d characters", LineLength)
	}
	if line1[0] != 'P' {
		return nil, fmt.Errorf("not a passport MRZ (document code %q)", line1[0])
	}

	docNumber := line2[0:9]
	nationality := line2[10:13]
	birthDate := line2[13:19]
	sex := line2[20]
	expiryDate := line2[21:27]

	if !verify(docNumber, line2[9]) ||
		!verify(birthDate, line2[19]) ||
		!verify(expiryDate, line2[27]) ||
		!verifyComposite(line2) {
		return nil, ErrChecksum
	}

	surname, givenNames := splitNames(line1[5:])
	first, middle := splitGiven(givenNames)

	issuing := strings.Trim(line1[2:5], "<")

	p := &models.Passport{
		LastName:         titleCase(surname),
		FirstName:        titleCase(first),
		MiddleName:       titleCase(middle),
		PassportNumber:   strings.Trim(docNumber, "<"),
		CountryOfIssue:   models.CountryName(issuing),
		Nationality:      models.CountryName(strings.Trim(nationality, "<")),
		DateOfBirth:      decodeDate(birthDate),
		DateOfExpiration: decodeDate(expiryDate),
	}
	if sex == 'M' || sex == 'F' {
		p.Sex = string(sex)
	} else if sex == 'X' {
		p.Sex = models.SexUnspecified
	}

	if p.PassportNumber == "" {
		return nil, ErrChecksum
	}
	return p, nil
}

// ExtractFromText combines FindLines and Parse.
func ExtractFromText(text string) (*models.Passport, error) {
	line1, line2, ok := FindLines(text)
	if !ok {
		return nil, ErrNoMRZ
	}
	return Parse(line1, line2)
}

// checkDigit computes the ICAO 9303 check digit: characters weighted
// 7, 3, 1 cyclically, summed mod 10. Filler counts as zero.
func checkDigit(s string) int {
	weights := [3]int{7, 3, 1}
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += charValue(s[i]) * weights[i%3]
	}
	return sum % 10
}

func charValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default: // '<'
		return 0
	}
}

func verify(field string, digit byte) bool {
	if digit < '0' || digit > '9' {
		return false
	}
	return checkDigit(field) == int(digit-'0')
}

// verifyComposite checks the whole-line check digit over the document
// number, birth date, expiry date and personal number spans, each including
// its own check digit.
func verifyComposite(line2 string) bool {
	composite := line2[0:10] + line2[13:20] + line2[21:43]
	return verify(composite, line2[43])
}

// splitNames divides the name field at the double filler separating the
// surname from the given names.
func splitNames(field string) (surname, given string) {
	surname, given, _ = strings.Cut(field, "<<")
	surname = strings.TrimSpace(strings.ReplaceAll(surname, "<", " "))
	given = strings.TrimSpace(strings.ReplaceAll(given, "<", " "))
	return surname, given
}

func splitGiven(given string) (first, middle string) {
	parts := strings.Fields(given)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// decodeDate expands a YYMMDD field to ISO. Two-digit years more than ten
// past the current year are taken as 1900s, matching how expiry dates stay
// in the near future while birth dates reach back a century.
func decodeDate(yymmdd string) string {
	if len(yymmdd) != 6 || strings.ContainsRune(yymmdd, '<') {
		return ""
	}
	yy := int(yymmdd[0]-'0')*10 + int(yymmdd[1]-'0')
	mm := int(yymmdd[2]-'0')*10 + int(yymmdd[3]-'0')
	dd := int(yymmdd[4]-'0')*10 + int(yymmdd[5]-'0')
	if mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return ""
	}
	year := 2000 + yy
	if yy > time.Now().Year()%100+10 {
		year = 1900 + yy
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, mm, dd)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
