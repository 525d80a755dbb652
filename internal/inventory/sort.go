package inventory

import (
	"sort"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// SortKey selects a listing order.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortPriceLow  SortKey = "priceLow"
	SortPriceHigh SortKey = "priceHigh"
	SortYearNew   SortKey = "yearNew"
	SortYearOld   SortKey = "yearOld"
)

// SortKeys lists the recognized keys.
var SortKeys = []SortKey{SortNewest, SortOldest, SortPriceLow, SortPriceHigh, SortYearNew, SortYearOld}

// ParseSortKey reports whether s names a recognized key.
func ParseSortKey(s string) (SortKey, bool) {
	for _, k := range SortKeys {
		if string(k) == s {
			return k, true
		}
	}
	return SortKey(s), false
}

// Sort orders cars in place by key. The sort is stable: cars with equal keys
// keep their relative order. Cars missing the key's field go after all cars
// that have it, in their original order. An unrecognized key leaves the
// slice untouched.
func Sort(cars []domain.Car, key SortKey) {
	less := lessFunc(key)
	if less == nil {
		return
	}
	sort.SliceStable(cars, func(i, j int) bool { return less(&cars[i], &cars[j]) })
}

func lessFunc(key SortKey) func(a, b *domain.Car) bool {
	switch key {
	case SortNewest:
		return func(a, b *domain.Car) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortOldest:
		return func(a, b *domain.Car) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriceLow:
		return byOptional(func(c *domain.Car) *float64 { return c.Price }, false)
	case SortPriceHigh:
		return byOptional(func(c *domain.Car) *float64 { return c.Price }, true)
	case SortYearNew:
		return byOptional(func(c *domain.Car) *int { return c.Year }, true)
	case SortYearOld:
		return byOptional(func(c *domain.Car) *int { return c.Year }, false)
	}
	return nil
}

// byOptional compares an optional field; absent values sort last in either
// direction.
func byOptional[T int | float64](get func(*domain.Car) *T, desc bool) func(a, b *domain.Car) bool {
	return func(a, b *domain.Car) bool {
		va, vb := get(a), get(b)
		switch {
		case va == nil:
			return false
		case vb == nil:
			return true
		case desc:
			return *va > *vb
		default:
			return *va < *vb
		}
	}
}
