package lexicon

// Default returns the built-in lexicon.  Each call returns a fresh copy.
func Default() Lexicon {
	return Lexicon{
		Severity: SeverityLexicon{
			High:     []string{"share", "third-party", "sale", "disclose", "sell", "transfer", "advertising"},
			Moderate: []string{"collect", "store", "analyze", "process", "track", "monitor", "retain"},
			Low:      []string{"secure", "encrypt", "protect", "comply", "consent", "opt-out", "privacy"},
		},
		Categories: []Category{
			{Label: "Tracking", Keywords: []string{"track", "tracking", "location", "gps", "geolocation", "monitor"}},
			{Label: "Third Party Sharing", Keywords: []string{"third party", "affiliates", "partners", "external", "vendors"}},
			{Label: "Data Retention", Keywords: []string{"retain", "retention", "store", "storage duration", "archived"}},
			{Label: "User Data", Keywords: []string{"personal data", "email", "phone", "name", "dob", "address"}},
			{Label: "Advertising", Keywords: []string{"ads", "advertising", "targeted", "marketing", "campaign"}},
			{Label: "Cookies", Keywords: []string{"cookie", "cookies", "browser", "session", "cache"}},
		},
		Clauses: []Clause{
			{ID: "grievance", Trigger: "grievance", Message: "No grievance redressal clause found."},
			{ID: "consent", Trigger: "consent", Message: "No consent clause found."},
			{ID: "retention", Trigger: "retention", Message: "No data retention period mentioned."},
			{ID: "access", Trigger: "access", Message: "No clause for user data access or correction."},
			{ID: "deletion", Trigger: "deletion", Message: "No clause for data deletion/right to be forgotten."},
			{ID: "purpose", Trigger: "purpose", Message: "Purpose of data collection not clearly stated."},
			{ID: "disclosure", Trigger: "disclosure", Message: "No mention of data disclosure practices."},
			{ID: "security", Trigger: "security", Message: "No mention of data security practices."},
		},
	}
}
