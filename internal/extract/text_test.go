package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const passportOCRSample = `REPUBLIC OF UTOPIA
PASSPORT
Passport No: L898902C3
Surname: ERIKSSON
Given Names: ANNA MARIA
Date of Birth: 12/08/1974
Sex: F
`

func TestPassportFromText(t *testing.T) {
	p := passportFromText(passportOCRSample)

	assert.Equal(t, "L898902C3", p.PassportNumber)
	assert.Equal(t, "Eriksson", p.LastName)
	assert.Equal(t, "Anna", p.FirstName)
	assert.Equal(t, "Maria", p.MiddleName)
	assert.Equal(t, "1974-12-08", p.DateOfBirth)
	assert.Equal(t, "F", p.Sex)
}

func TestPassportFromTextIgnoresLabelCaptures(t *testing.T) {
	p := passportFromText("Surname: Name\nGiven Names: First\n")
	assert.Empty(t, p.LastName)
	assert.Empty(t, p.FirstName)
}

const g28OCRSample = `Form G-28, Notice of Entry of Appearance
Family Name (Last Name): Smith
Given Name (First Name): Jane
Middle Name: Q
Street Number and Name: 123 Main Street Suite 400
City or Town: Springfield, IL
State: IL  ZIP Code: 62701
Daytime Telephone: (555) 123-4567
Email Address: jane.smith@lawfirm.example.com
Licensing Authority: Illinois Supreme Court, Attorney Registration
Bar Number: 1234567
Law Firm or Organization: Smith Immigration Law LLC
`

func TestAttorneyFromText(t *testing.T) {
	a := attorneyFromText(g28OCRSample)

	assert.Equal(t, "Smith", a.LastName)
	assert.Equal(t, "Jane", a.FirstName)
	assert.Equal(t, "Q", a.MiddleName)
	assert.Equal(t, "123 Main Street Suite 400", a.StreetAddress)
	assert.Equal(t, "Springfield", a.City)
	assert.Equal(t, "IL", a.State)
	assert.Equal(t, "62701", a.ZipCode)
	assert.Equal(t, "jane.smith@lawfirm.example.com", a.Email)
	assert.Equal(t, "1234567", a.BarNumber)
	assert.Equal(t, "Illinois Supreme Court", a.LicensingAuthority)
	assert.Equal(t, "Smith Immigration Law LLC", a.LawFirmName)
	assert.Equal(t, "United States", a.Country)
}

func TestAttorneyFromTextEmptyInput(t *testing.T) {
	a := attorneyFromText("completely unrelated text")
	assert.True(t, a.Empty())
	assert.Empty(t, a.Country)
}
