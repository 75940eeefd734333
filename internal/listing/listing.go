// Package listing filters, ranks and paginates in-memory collections.
//
// Sorting is always descending. Each collection declares an explicit set of sort keys mapped
// to comparators; an unknown key leaves the input order untouched.
package listing

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/training-center-api/internal/models"
)

// AllSentinel is the filter value meaning "no restriction".
const AllSentinel = "all"

// DefaultPerPage is used when a query does not specify a positive page size.
const DefaultPerPage = 10

// Query selects a page of a ranked collection.
type Query struct {
	Page    int
	PerPage int
	SortBy  string
}

// Normalize clamps page to 1 and applies the default page size.
func (q Query) Normalize(defaultPerPage, maxPerPage int) Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if defaultPerPage <= 0 {
		defaultPerPage = DefaultPerPage
	}
	if q.PerPage <= 0 {
		q.PerPage = defaultPerPage
	}
	if maxPerPage > 0 && q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	return q
}

// Compare returns a positive value when a ranks above b, negative when below, zero on ties.
type Compare[T any] func(a, b T) int

// SortKeys maps the supported sort key names to comparators.
type SortKeys[T any] map[string]Compare[T]

// Predicate reports whether a record passes a filter.
type Predicate[T any] func(T) bool

// Page is one slice of a ranked collection.
type Page[T any] struct {
	Data       []T
	Pagination models.Pagination
}

// Filter keeps the records matching every predicate. Nil predicates are ignored.
func Filter[T any](items []T, predicates ...Predicate[T]) []T {
	active := make([]Predicate[T], 0, len(predicates))
	for _, p := range predicates {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
outer:
	for _, item := range items {
		for _, p := range active {
			if !p(item) {
				continue outer
			}
		}
		out = append(out, item)
	}
	return out
}

// SortDescending orders items in place by key, greatest first. Ties keep their input order,
// as does an unknown key. It reports whether a sort happened.
func SortDescending[T any](items []T, keys SortKeys[T], key string) bool {
	cmp, ok := keys[key]
	if !ok {
		return false
	}
	sort.SliceStable(items, func(i, j int) bool {
		return cmp(items[i], items[j]) > 0
	})
	return true
}

// Paginate slices a page out of items. Pages past the end are empty but keep the full total.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	q := Query{Page: page, PerPage: perPage}.Normalize(DefaultPerPage, 0)
	total := len(items)
	lastPage := int(math.Ceil(float64(total) / float64(q.PerPage)))

	start := (q.Page - 1) * q.PerPage
	data := []T{}
	if start < total {
		end := start + q.PerPage
		if end > total {
			end = total
		}
		data = items[start:end]
	}
	return Page[T]{
		Data: data,
		Pagination: models.Pagination{
			Page:     q.Page,
			PerPage:  q.PerPage,
			Total:    total,
			LastPage: lastPage,
		},
	}
}

// Run filters, sorts and paginates items. The input slice is not modified.
func Run[T any](items []T, q Query, keys SortKeys[T], predicates ...Predicate[T]) Page[T] {
	ranked := RunAll(items, q.SortBy, keys, predicates...)
	return Paginate(ranked, q.Page, q.PerPage)
}

// RunAll is Run without slicing.
func RunAll[T any](items []T, sortBy string, keys SortKeys[T], predicates ...Predicate[T]) []T {
	filtered := Filter(items, predicates...)
	ranked := make([]T, len(filtered))
	copy(ranked, filtered)
	SortDescending(ranked, keys, sortBy)
	return ranked
}

// IsUnrestricted reports whether a filter value means "match everything".
func IsUnrestricted(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, AllSentinel)
}

// ContainsFold reports whether needle occurs in any haystack, ignoring case.
func ContainsFold(needle string, haystacks ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// Equals compares an optional stored value with a filter value.
func Equals(stored *string, want string) bool {
	return stored != nil && *stored == strings.TrimSpace(want)
}

// Text builds a case-insensitive substring predicate over the given fields; unrestricted
// values yield nil.
func Text[T any](value string, fields func(T) []string) Predicate[T] {
	if IsUnrestricted(value) {
		return nil
	}
	return func(item T) bool {
		return ContainsFold(value, fields(item)...)
	}
}

// Exact builds an equality predicate; unrestricted values yield nil.
func Exact[T any](value string, field func(T) *string) Predicate[T] {
	if IsUnrestricted(value) {
		return nil
	}
	return func(item T) bool {
		return Equals(field(item), value)
	}
}

// CompareStrings orders lexicographically, byte-wise.
func CompareStrings(a, b string) int {
	return strings.Compare(a, b)
}

// CompareInts orders integers.
func CompareInts[N ~int | ~int64](a, b N) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// CompareFloats orders floats.
func CompareFloats(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// CompareTimes orders optional timestamps, treating nil as the epoch.
func CompareTimes(a, b *time.Time) int {
	return CompareInts(unixOrEpoch(a), unixOrEpoch(b))
}

// CompareGrades orders grade categories by rank rather than alphabetically.
func CompareGrades(a, b models.GradeCategory) int {
	return CompareInts(a.Rank(), b.Rank())
}

func unixOrEpoch(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}
