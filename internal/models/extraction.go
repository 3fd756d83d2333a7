package models

import "time"

// Extraction is the per-session aggregate of everything pulled out of the
// uploaded documents, plus enough request metadata to audit who sent them.
type Extraction struct {
	SessionID string    `json:"session_id"`
	Passport  *Passport `json:"passport,omitempty"`
	Attorney  *Attorney `json:"attorney,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Client    string    `json:"client,omitempty"`
}

// HasData reports whether any document produced usable fields.
func (e *Extraction) HasData() bool {
	return e != nil && (!e.Passport.Empty() || !e.Attorney.Empty())
}

// MergeBeneficiary folds beneficiary names found on a G-28 into the passport
// section, never overwriting fields a passport extraction already filled.
func (e *Extraction) MergeBeneficiary(b *Passport) {
	if b == nil {
		return
	}
	if e.Passport == nil {
		e.Passport = b
		return
	}
	if e.Passport.LastName == "" {
		e.Passport.LastName = b.LastName
	}
	if e.Passport.FirstName == "" {
		e.Passport.FirstName = b.FirstName
	}
	if e.Passport.MiddleName == "" {
		e.Passport.MiddleName = b.MiddleName
	}
}
