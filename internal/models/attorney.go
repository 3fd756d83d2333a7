package models

// Attorney is the structured result of a G-28 extraction: the attorney or
// accredited representative named in Part 1/2 of the form.
type Attorney struct {
	LastName           string  `json:"last_name,omitempty"`
	FirstName          string  `json:"first_name,omitempty"`
	MiddleName         string  `json:"middle_name,omitempty"`
	StreetAddress      string  `json:"street_address,omitempty"`
	AptSteFlr          string  `json:"apt_ste_flr,omitempty"`
	City               string  `json:"city,omitempty"`
	State              string  `json:"state,omitempty"`
	ZipCode            string  `json:"zip_code,omitempty"`
	Country            string  `json:"country,omitempty"`
	DaytimePhone       string  `json:"daytime_phone,omitempty"`
	MobilePhone        string  `json:"mobile_phone,omitempty"`
	Email              string  `json:"email,omitempty" validate:"omitempty,email"`
	LicensingAuthority string  `json:"licensing_authority,omitempty"`
	BarNumber          string  `json:"bar_number,omitempty"`
	LawFirmName        string  `json:"law_firm_name,omitempty"`
	OnlineAccountNum   string  `json:"online_account_number,omitempty"`
	ExtractionMethod   string  `json:"extraction_method,omitempty"`
	ConfidenceScore    float64 `json:"confidence_score,omitempty"`
}

// Empty reports whether no identifying field was extracted.
func (a *Attorney) Empty() bool {
	return a == nil || (a.LastName == "" && a.FirstName == "" && a.Email == "")
}

// Confidence scores an attorney record: the two name fields carry half the
// weight, the address and email fields the other half.
func (a *Attorney) Confidence() float64 {
	required := []string{a.LastName, a.FirstName}
	important := []string{a.StreetAddress, a.City, a.State, a.Email}

	var req, imp int
	for _, f := range required {
		if f != "" {
			req++
		}
	}
	for _, f := range important {
		if f != "" {
			imp++
		}
	}

	score := float64(req)/float64(len(required))*0.5 + float64(imp)/float64(len(important))*0.5
	if score > 1 {
		score = 1
	}
	return score
}
