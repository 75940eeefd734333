package models

// ImportFailure describes a rejected row of a bulk upload. Row numbers count the header as 1.
type ImportFailure struct {
	Row       int    `json:"row"`
	Reason    string `json:"reason"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FacultyID string `json:"facultyId,omitempty"`
	Email     string `json:"email,omitempty"`
}

// ImportResult reports how many rows were created and which ones were rejected.
type ImportResult struct {
	SuccessCount int             `json:"successCount"`
	Failed       []ImportFailure `json:"failed"`
}
