package models

// countryNames maps ICAO Doc 9303 alpha-3 codes, as they appear in the MRZ,
// to display names. Not exhaustive; unknown codes pass through unchanged.
var countryNames = map[string]string{
	"USA": "United States", "GBR": "United Kingdom", "CAN": "Canada",
	"AUS": "Australia", "DEU": "Germany", "FRA": "France", "ITA": "Italy",
	"ESP": "Spain", "JPN": "Japan", "CHN": "China", "IND": "India",
	"BRA": "Brazil", "MEX": "Mexico", "KOR": "South Korea", "RUS": "Russia",
	"NLD": "Netherlands", "BEL": "Belgium", "CHE": "Switzerland",
	"AUT": "Austria", "SWE": "Sweden", "NOR": "Norway", "DNK": "Denmark",
	"FIN": "Finland", "POL": "Poland", "PRT": "Portugal", "GRC": "Greece",
	"IRL": "Ireland", "NZL": "New Zealand", "SGP": "Singapore",
	"HKG": "Hong Kong", "TWN": "Taiwan", "THA": "Thailand", "VNM": "Vietnam",
	"PHL": "Philippines", "IDN": "Indonesia", "MYS": "Malaysia",
	"ARG": "Argentina", "CHL": "Chile", "COL": "Colombia", "PER": "Peru",
	"ZAF": "South Africa", "EGY": "Egypt", "NGA": "Nigeria", "KEN": "Kenya",
	"ISR": "Israel", "ARE": "United Arab Emirates", "SAU": "Saudi Arabia",
	"TUR": "Turkey", "PAK": "Pakistan", "BGD": "Bangladesh",
}

// CountryName resolves an ICAO alpha-3 code to a display name, returning the
// input unchanged when the code is unknown.
func CountryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}
