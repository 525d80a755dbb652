package inventory

import (
	"sort"
	"strconv"
	"strings"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// Column identifies one compared car.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
}

// Cell is one attribute value of one car. Present is false when the car has
// no value; Value is then Missing.
type Cell struct {
	Value   string `json:"value"`
	Present bool   `json:"present"`
}

// Row is one attribute across all compared cars, in column order.
type Row struct {
	Label string `json:"label"`
	Cells []Cell `json:"cells"`
}

// Section groups related rows.
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// FeatureRow reports which compared cars carry a feature, in column order.
type FeatureRow struct {
	Name     string `json:"name"`
	Presence []bool `json:"presence"`
}

// Matrix is the side-by-side comparison of a list of cars.
type Matrix struct {
	Columns  []Column     `json:"columns"`
	Sections []Section    `json:"sections"`
	Features []FeatureRow `json:"features"`
}

type attr struct {
	label string
	get   func(*domain.Car) (string, bool)
}

func text(f func(*domain.Car) string) func(*domain.Car) (string, bool) {
	return func(c *domain.Car) (string, bool) {
		s := f(c)
		return s, s != ""
	}
}

func measure(f func(*domain.Car) *float64, unit string) func(*domain.Car) (string, bool) {
	return func(c *domain.Car) (string, bool) {
		v := f(c)
		if v == nil {
			return "", false
		}
		return withUnit(*v, unit), true
	}
}

var sections = []struct {
	title string
	attrs []attr
}{
	{"Basic Information", []attr{
		{"Make", text(func(c *domain.Car) string { return c.Make })},
		{"Model", text(func(c *domain.Car) string { return c.Model })},
		{"Year", func(c *domain.Car) (string, bool) {
			if c.Year == nil {
				return "", false
			}
			return strconv.Itoa(*c.Year), true
		}},
		{"Price", func(c *domain.Car) (string, bool) {
			if c.Price == nil {
				return "", false
			}
			return FormatMoney(*c.Price), true
		}},
		{"Color", text(func(c *domain.Car) string { return c.Color })},
		{"Mileage", func(c *domain.Car) (string, bool) {
			if c.Mileage == nil {
				return "", false
			}
			return FormatDistance(*c.Mileage), true
		}},
	}},
	{"Technical Specifications", []attr{
		{"Body Type", text(func(c *domain.Car) string { return c.BodyType })},
		{"Engine Type", text(func(c *domain.Car) string { return c.EngineType })},
		{"Transmission", text(func(c *domain.Car) string { return c.Transmission })},
		{"Fuel Type", text(func(c *domain.Car) string { return c.FuelType })},
	}},
	{"Performance", []attr{
		{"Engine", text(func(c *domain.Car) string { return c.Specifications.Engine })},
		{"Horsepower", measure(func(c *domain.Car) *float64 { return c.Specifications.Horsepower }, "hp")},
		{"Torque", measure(func(c *domain.Car) *float64 { return c.Specifications.Torque }, "lb-ft")},
		{"0-60 mph", measure(func(c *domain.Car) *float64 { return c.Specifications.Acceleration }, "sec")},
		{"Top Speed", measure(func(c *domain.Car) *float64 { return c.Specifications.TopSpeed }, "mph")},
		{"Fuel Economy", measure(func(c *domain.Car) *float64 { return c.Specifications.FuelEconomy }, "mpg")},
	}},
	{"Tags", []attr{
		{"Tags", func(c *domain.Car) (string, bool) {
			if len(c.Tags) == 0 {
				return "", false
			}
			return strings.Join(c.Tags, ", "), true
		}},
	}},
}

// Project builds the comparison matrix for cars, one column per car in the
// given order. It is a pure function of its input. How many cars may be
// compared is the caller's concern.
func Project(cars []domain.Car) Matrix {
	m := Matrix{
		Columns:  make([]Column, len(cars)),
		Sections: make([]Section, 0, len(sections)),
	}
	for i := range cars {
		c := &cars[i]
		col := Column{ID: c.ID, Title: c.Title}
		if len(c.Images) > 0 {
			col.Image = c.Images[0]
		}
		m.Columns[i] = col
	}

	for _, s := range sections {
		sec := Section{Title: s.title, Rows: make([]Row, 0, len(s.attrs))}
		for _, a := range s.attrs {
			row := Row{Label: a.label, Cells: make([]Cell, len(cars))}
			for i := range cars {
				if v, ok := a.get(&cars[i]); ok {
					row.Cells[i] = Cell{Value: v, Present: true}
				} else {
					row.Cells[i] = Cell{Value: Missing}
				}
			}
			sec.Rows = append(sec.Rows, row)
		}
		m.Sections = append(m.Sections, sec)
	}

	m.Features = featureRows(cars)
	return m
}

// FeatureUnion returns every feature carried by any of cars, deduplicated
// and sorted.
func FeatureUnion(cars []domain.Car) []string {
	seen := make(map[string]struct{})
	for i := range cars {
		for _, f := range cars[i].Features {
			seen[f] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func featureRows(cars []domain.Car) []FeatureRow {
	union := FeatureUnion(cars)
	sets := make([]map[string]struct{}, len(cars))
	for i := range cars {
		sets[i] = make(map[string]struct{}, len(cars[i].Features))
		for _, f := range cars[i].Features {
			sets[i][f] = struct{}{}
		}
	}
	rows := make([]FeatureRow, 0, len(union))
	for _, name := range union {
		row := FeatureRow{Name: name, Presence: make([]bool, len(cars))}
		for i := range cars {
			_, row.Presence[i] = sets[i][name]
		}
		rows = append(rows, row)
	}
	return rows
}
