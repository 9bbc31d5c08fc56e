package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// FilterState is the committed (applied) search criteria.
type FilterState struct {
	Keyword         string         `json:"keyword" validate:"max=200"`
	Locations       []LocationPath `json:"locations"`
	JobCategories   []string       `json:"jobCategories" validate:"dive,required"`
	Preferences     []string       `json:"preferences" validate:"dive,required"`
	PopularTags     []string       `json:"popularTags" validate:"dive,required"`
	AnnualIncomeMin *int           `json:"annualIncomeMin" validate:"omitempty,min=0"`
	EmploymentTypes []string       `json:"employmentTypes" validate:"dive,required"`
}

var validate = validator.New()

// Validate checks field constraints and location path shapes.
func (s *FilterState) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	for _, p := range s.Locations {
		if !p.Valid() {
			return &InvalidPathError{Path: p}
		}
	}
	return nil
}

type InvalidPathError struct {
	Path LocationPath
}

func (e *InvalidPathError) Error() string {
	return "invalid location path: " + e.Path.String()
}

func (s FilterState) IsEmpty() bool {
	return strings.TrimSpace(s.Keyword) == "" &&
		len(s.Locations) == 0 &&
		len(s.JobCategories) == 0 &&
		len(s.Preferences) == 0 &&
		len(s.PopularTags) == 0 &&
		s.AnnualIncomeMin == nil &&
		len(s.EmploymentTypes) == 0
}

// Clone deep-copies every slice and the income pointer.
func (s FilterState) Clone() FilterState {
	out := FilterState{
		Keyword:         s.Keyword,
		Locations:       cloneSlice(s.Locations),
		JobCategories:   cloneSlice(s.JobCategories),
		Preferences:     cloneSlice(s.Preferences),
		PopularTags:     cloneSlice(s.PopularTags),
		EmploymentTypes: cloneSlice(s.EmploymentTypes),
	}
	if s.AnnualIncomeMin != nil {
		v := *s.AnnualIncomeMin
		out.AnnualIncomeMin = &v
	}
	return out
}

// Normalize trims the keyword and list values and drops empties and
// duplicates, keeping first-seen order.
func (s FilterState) Normalize() FilterState {
	out := s.Clone()
	out.Keyword = strings.TrimSpace(out.Keyword)
	out.JobCategories = TrimUnique(out.JobCategories)
	out.Preferences = TrimUnique(out.Preferences)
	out.PopularTags = TrimUnique(out.PopularTags)
	out.EmploymentTypes = TrimUnique(out.EmploymentTypes)

	seen := map[LocationPath]bool{}
	var locs []LocationPath
	for _, p := range out.Locations {
		if !p.Valid() || seen[p] {
			continue
		}
		seen[p] = true
		locs = append(locs, p)
	}
	out.Locations = locs
	return out
}

func IntPtr(v int) *int { return &v }

func TrimUnique(xs []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" || seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
