// Package inventory holds the pure, I/O-free operations over car records:
// filtering, sorting, side-by-side comparison, facet extraction, and the
// dashboard summary. Nothing here touches the store; callers load records
// first and hand the slice in.
package inventory

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// Filter is a conjunction of optional clauses. Zero-value fields do not
// constrain.
type Filter struct {
	Search   string // case-insensitive substring of "title make model"
	Make     string // exact
	Model    string // case-insensitive substring
	MinPrice *float64
	MaxPrice *float64
	MinYear  *int
	MaxYear  *int
	BodyType string // exact
	FuelType string // exact
}

// IsZero reports whether the filter has no clauses.
func (f Filter) IsZero() bool {
	return f.Search == "" && f.Make == "" && f.Model == "" &&
		f.MinPrice == nil && f.MaxPrice == nil && f.MinYear == nil && f.MaxYear == nil &&
		f.BodyType == "" && f.FuelType == ""
}

// Predicate is a compiled Filter. Matching does not allocate.
type Predicate struct {
	f      Filter
	search []rune
	model  []rune
}

// Compile lower-cases the substring needles once so that Match stays
// allocation-free per record.
func (f Filter) Compile() Predicate {
	return Predicate{f: f, search: foldRunes(f.Search), model: foldRunes(f.Model)}
}

// Matches reports whether car satisfies every clause of f.
func (f Filter) Matches(car *domain.Car) bool { return f.Compile().Match(car) }

// Match reports whether car satisfies every clause. A clause that tests a
// field the car does not have never matches.
func (p Predicate) Match(car *domain.Car) bool {
	f := &p.f
	if len(p.search) > 0 {
		hay := [...]string{car.Title, " ", car.Make, " ", car.Model}
		if !containsFold(hay[:], p.search) {
			return false
		}
	}
	if f.Make != "" && car.Make != f.Make {
		return false
	}
	if len(p.model) > 0 {
		hay := [...]string{car.Model}
		if !containsFold(hay[:], p.model) {
			return false
		}
	}
	if f.MinPrice != nil && (car.Price == nil || *car.Price < *f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && (car.Price == nil || *car.Price > *f.MaxPrice) {
		return false
	}
	if f.MinYear != nil && (car.Year == nil || *car.Year < *f.MinYear) {
		return false
	}
	if f.MaxYear != nil && (car.Year == nil || *car.Year > *f.MaxYear) {
		return false
	}
	if f.BodyType != "" && car.BodyType != f.BodyType {
		return false
	}
	if f.FuelType != "" && car.FuelType != f.FuelType {
		return false
	}
	return true
}

// Apply returns the cars matching f, in input order, in a single pass.
func Apply(cars []domain.Car, f Filter) []domain.Car {
	if f.IsZero() {
		return cars
	}
	p := f.Compile()
	out := make([]domain.Car, 0, len(cars))
	for i := range cars {
		if p.Match(&cars[i]) {
			out = append(out, cars[i])
		}
	}
	return out
}

// ParseFilter reads filter clauses from query parameters. Blank values are
// ignored; malformed numeric bounds are a *domain.ValidationError naming the
// parameter.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		Search:   strings.TrimSpace(q.Get("search")),
		Make:     q.Get("make"),
		Model:    strings.TrimSpace(q.Get("model")),
		BodyType: q.Get("bodyType"),
		FuelType: q.Get("fuelType"),
	}
	var err error
	if f.MinPrice, err = queryFloat(q, "minPrice"); err != nil {
		return Filter{}, err
	}
	if f.MaxPrice, err = queryFloat(q, "maxPrice"); err != nil {
		return Filter{}, err
	}
	if f.MinYear, err = queryInt(q, "minYear"); err != nil {
		return Filter{}, err
	}
	if f.MaxYear, err = queryInt(q, "maxYear"); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func queryFloat(q url.Values, key string) (*float64, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != v {
		return nil, &domain.ValidationError{Field: key, Reason: "must be a number"}
	}
	return &v, nil
}

func queryInt(q url.Values, key string) (*int, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Reason: "must be a whole number"}
	}
	return &v, nil
}

func foldRunes(s string) []rune {
	if s == "" {
		return nil
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return out
}

// containsFold reports whether the concatenation of parts contains needle,
// comparing lower-cased runes. needle must already be lower-cased.
func containsFold(parts []string, needle []rune) bool {
	for pi := range parts {
		for off := 0; off < len(parts[pi]); {
			if matchAt(parts, pi, off, needle) {
				return true
			}
			_, w := utf8.DecodeRuneInString(parts[pi][off:])
			off += w
		}
	}
	return false
}

func matchAt(parts []string, pi, off int, needle []rune) bool {
	for _, want := range needle {
		for pi < len(parts) && off >= len(parts[pi]) {
			pi++
			off = 0
		}
		if pi == len(parts) {
			return false
		}
		r, w := utf8.DecodeRuneInString(parts[pi][off:])
		if unicode.ToLower(r) != want {
			return false
		}
		off += w
	}
	return true
}
