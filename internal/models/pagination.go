package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page     int `json:"current_page"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}
