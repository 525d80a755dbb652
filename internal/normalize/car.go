package normalize

import (
	"time"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

var textKeys = []string{
	"title", "description", "make", "model", "bodyType",
	"engineType", "transmission", "fuelType", "color",
}

func textTarget(c *domain.Car, key string) *string {
	switch key {
	case "title":
		return &c.Title
	case "description":
		return &c.Description
	case "make":
		return &c.Make
	case "model":
		return &c.Model
	case "bodyType":
		return &c.BodyType
	case "engineType":
		return &c.EngineType
	case "transmission":
		return &c.Transmission
	case "fuelType":
		return &c.FuelType
	case "color":
		return &c.Color
	}
	return nil
}

// Create builds a full car record from a submission. images are the storage
// references of files uploaded with the request, kept in order. The record
// has no ID yet; the store assigns one. The returned Dropped entries name
// optional fields that were discarded (e.g. a location with bad coordinates).
//
// The record is schema-validated before it is returned.
func Create(in Input, images []string, now time.Time) (*domain.Car, []Dropped, error) {
	p, dropped, err := parse(in, images, false)
	if err != nil {
		return nil, nil, err
	}
	car := &domain.Car{
		Tags:      []string{},
		Features:  []string{},
		Images:    []string{},
		CreatedAt: now.UTC(),
	}
	p.Apply(car)
	if err := Validate(car); err != nil {
		return nil, nil, err
	}
	return car, dropped, nil
}

// CarPatch holds only the fields explicitly supplied in an update. Nil means
// "leave the stored value alone".
type CarPatch struct {
	text     map[string]string
	Tags     []string
	tagsSet  bool
	Features []string
	featSet  bool
	Year     *int
	Price    *float64
	Mileage  *int
	specs    specPatch
	Location *domain.Location
	Images   []string
}

// Patch parses an update submission. Empty scalar text means "not provided".
// images replace the stored list only when at least one new file was uploaded.
func Patch(in Input, images []string) (*CarPatch, []Dropped, error) {
	return parse(in, images, true)
}

func parse(in Input, images []string, update bool) (*CarPatch, []Dropped, error) {
	p := &CarPatch{text: map[string]string{}}
	var dropped []Dropped

	for _, k := range textKeys {
		s, ok, err := in.textField(k)
		if err != nil {
			return nil, nil, err
		}
		if !ok || (update && s == "") {
			continue
		}
		p.text[k] = s
	}

	var err error
	if p.Year, err = in.intField("year"); err != nil {
		return nil, nil, err
	}
	if p.Price, err = in.floatField("price"); err != nil {
		return nil, nil, err
	}
	if p.Mileage, err = in.intField("mileage"); err != nil {
		return nil, nil, err
	}

	tags, ok, err := in.stringList("tags", true)
	if err != nil {
		return nil, nil, err
	}
	if ok && !(update && isBlank(in["tags"])) {
		p.Tags, p.tagsSet = tags, true
	}

	features, ok, err := in.stringList("features", false)
	if err != nil {
		return nil, nil, err
	}
	if ok {
		p.Features, p.featSet = features, true
	}

	specs, _, err := parseSpecifications(in)
	if err != nil {
		return nil, nil, err
	}
	p.specs = specs

	loc, drop, err := parseLocation(in)
	if err != nil {
		return nil, nil, err
	}
	if drop != nil {
		dropped = append(dropped, *drop)
	}
	p.Location = loc

	if len(images) > 0 {
		p.Images = append([]string(nil), images...)
	}
	return p, dropped, nil
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && len(s) == 0
}

// Apply merges the patch into car. Fields absent from the patch are kept.
func (p *CarPatch) Apply(car *domain.Car) {
	for k, v := range p.text {
		if dst := textTarget(car, k); dst != nil {
			*dst = v
		}
	}
	if p.Year != nil {
		car.Year = p.Year
	}
	if p.Price != nil {
		car.Price = p.Price
	}
	if p.Mileage != nil {
		car.Mileage = p.Mileage
	}
	if p.tagsSet {
		car.Tags = p.Tags
	}
	if p.featSet {
		car.Features = p.Features
	}
	p.specs.apply(&car.Specifications)
	if p.Location != nil {
		car.Location = p.Location
	}
	if p.Images != nil {
		car.Images = p.Images
	}
}

// IsEmpty reports whether the patch would change nothing.
func (p *CarPatch) IsEmpty() bool {
	return len(p.text) == 0 && p.Year == nil && p.Price == nil && p.Mileage == nil &&
		!p.tagsSet && !p.featSet && p.specs.empty() && p.Location == nil && p.Images == nil
}

// Fields lists the names of the supplied fields, for logging.
func (p *CarPatch) Fields() []string {
	var out []string
	for _, k := range textKeys {
		if _, ok := p.text[k]; ok {
			out = append(out, k)
		}
	}
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.Year != nil, "year")
	add(p.Price != nil, "price")
	add(p.Mileage != nil, "mileage")
	add(p.tagsSet, "tags")
	add(p.featSet, "features")
	add(!p.specs.empty(), "specifications")
	add(p.Location != nil, "location")
	add(p.Images != nil, "images")
	return out
}
