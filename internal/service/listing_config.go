package service

import "github.com/noah-isme/training-center-api/internal/listing"

// ListingConfig bounds page sizes of the paginated listings.
type ListingConfig struct {
	DefaultPerPage int
	MaxPerPage     int
}

func (c ListingConfig) query(page, perPage int, sortBy string) listing.Query {
	return listing.Query{Page: page, PerPage: perPage, SortBy: sortBy}.Normalize(c.DefaultPerPage, c.MaxPerPage)
}
