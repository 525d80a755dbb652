package normalize

import (
	"fmt"
	"math"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// Dropped records an optional field that was discarded instead of stored.
type Dropped struct {
	Field  string
	Reason string
}

// specPatch carries only the specification sub-fields that were supplied.
type specPatch struct {
	Engine       *string
	Horsepower   *float64
	Torque       *float64
	Acceleration *float64
	TopSpeed     *float64
	FuelEconomy  *float64
}

func (p specPatch) apply(s *domain.Specifications) {
	if p.Engine != nil {
		s.Engine = *p.Engine
	}
	if p.Horsepower != nil {
		s.Horsepower = p.Horsepower
	}
	if p.Torque != nil {
		s.Torque = p.Torque
	}
	if p.Acceleration != nil {
		s.Acceleration = p.Acceleration
	}
	if p.TopSpeed != nil {
		s.TopSpeed = p.TopSpeed
	}
	if p.FuelEconomy != nil {
		s.FuelEconomy = p.FuelEconomy
	}
}

func (p specPatch) empty() bool {
	return p.Engine == nil && p.Horsepower == nil && p.Torque == nil &&
		p.Acceleration == nil && p.TopSpeed == nil && p.FuelEconomy == nil
}

// parseSpecifications coerces the numeric sub-fields that are present and
// non-empty. Absent or empty sub-fields are left nil.
func parseSpecifications(in Input) (specPatch, bool, error) {
	obj, ok, err := in.object("specifications")
	if err != nil || !ok {
		return specPatch{}, false, err
	}
	sub := Input(obj)
	var p specPatch

	if s, ok, err := sub.textField("engine"); err != nil {
		return p, false, invalid("specifications.engine", "must be text")
	} else if ok && s != "" {
		p.Engine = &s
	}

	nums := []struct {
		key string
		dst **float64
	}{
		{"horsepower", &p.Horsepower},
		{"torque", &p.Torque},
		{"acceleration", &p.Acceleration},
		{"topSpeed", &p.TopSpeed},
		{"fuelEconomy", &p.FuelEconomy},
	}
	for _, n := range nums {
		f, err := sub.floatField(n.key)
		if err != nil {
			return p, false, invalid("specifications."+n.key, "must be a number")
		}
		*n.dst = f
	}
	return p, true, nil
}

// parseLocation decodes the location object. A malformed JSON value is a
// validation error; coordinates that do not form exactly two finite numbers
// drop the whole location, reported through the returned *Dropped.
func parseLocation(in Input) (*domain.Location, *Dropped, error) {
	obj, ok, err := in.object("location")
	if err != nil || !ok {
		return nil, nil, err
	}

	var address string
	if a, ok := obj["address"]; ok && a != nil {
		s, isStr := a.(string)
		if !isStr {
			return nil, nil, invalid("location.address", "must be text")
		}
		address = s
	}

	raw, ok := obj["coordinates"]
	if !ok || raw == nil {
		return nil, &Dropped{Field: "location", Reason: "coordinates missing"}, nil
	}
	coords, reason := coordinatePair(raw)
	if reason != "" {
		return nil, &Dropped{Field: "location", Reason: reason}, nil
	}
	return &domain.Location{Coordinates: coords, Address: address}, nil, nil
}

func coordinatePair(raw any) ([2]float64, string) {
	var elems []any
	switch v := raw.(type) {
	case []any:
		elems = v
	case []string:
		for _, s := range v {
			elems = append(elems, s)
		}
	case []float64:
		for _, f := range v {
			elems = append(elems, f)
		}
	default:
		return [2]float64{}, "coordinates must be a list"
	}
	if len(elems) != 2 {
		return [2]float64{}, fmt.Sprintf("coordinates must have exactly 2 elements, got %d", len(elems))
	}
	var out [2]float64
	for i, e := range elems {
		f, ok, err := toFloat(e)
		if err != nil || !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return [2]float64{}, fmt.Sprintf("coordinate %d is not a finite number", i)
		}
		out[i] = f
	}
	return out, ""
}
