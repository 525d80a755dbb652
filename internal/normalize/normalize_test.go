package normalize

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func withClock(t *testing.T) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return fixedNow }
	t.Cleanup(func() { nowFunc = prev })
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	ve, ok := domain.AsValidation(err)
	require.True(t, ok, "expected *domain.ValidationError, got %v", err)
	assert.Equal(t, field, ve.Field)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"electric", "luxury", "sedan"}, SplitTags("electric, luxury , sedan"))
	assert.Equal(t, []string{"a", "b"}, SplitTags(" , a,,b , "))
	assert.Empty(t, SplitTags(""))
}

func TestCreate_FormValuesEndToEnd(t *testing.T) {
	withClock(t)
	form := url.Values{
		"title":       {"Model 3"},
		"description": {"Long range"},
		"make":        {"Tesla"},
		"price":       {"25000"},
		"year":        {"2022"},
		"mileage":     {" 1200 "},
		"tags":        {"electric,luxury"},
		"features":    {`["Sunroof","Navigation"]`},
		"specifications": {
			`{"engine":"Dual Motor","horsepower":"346","torque":"","topSpeed":145}`,
		},
		"location": {`{"coordinates":["12.9","77.6"],"address":"Bengaluru"}`},
	}

	car, dropped, err := Create(FromValues(form), []string{"/uploads/1.png", "/uploads/2.png"}, fixedNow)
	require.NoError(t, err)
	assert.Empty(t, dropped)

	require.NotNil(t, car.Price)
	assert.Equal(t, 25000.0, *car.Price)
	require.NotNil(t, car.Year)
	assert.Equal(t, 2022, *car.Year)
	require.NotNil(t, car.Mileage)
	assert.Equal(t, 1200, *car.Mileage)
	assert.Equal(t, []string{"electric", "luxury"}, car.Tags)
	assert.Equal(t, []string{"Sunroof", "Navigation"}, car.Features)
	assert.Equal(t, "Dual Motor", car.Specifications.Engine)
	require.NotNil(t, car.Specifications.Horsepower)
	assert.Equal(t, 346.0, *car.Specifications.Horsepower)
	assert.Nil(t, car.Specifications.Torque, "empty sub-field must be omitted, not zero")
	assert.Nil(t, car.Specifications.Acceleration)
	require.NotNil(t, car.Specifications.TopSpeed)
	assert.Equal(t, 145.0, *car.Specifications.TopSpeed)
	require.NotNil(t, car.Location)
	assert.Equal(t, [2]float64{12.9, 77.6}, car.Location.Coordinates)
	assert.Equal(t, "Bengaluru", car.Location.Address)
	assert.Equal(t, []string{"/uploads/1.png", "/uploads/2.png"}, car.Images)
	assert.Equal(t, fixedNow, car.CreatedAt)
	assert.Empty(t, car.ID, "the store assigns identifiers")
}

func TestCreate_JSONBody(t *testing.T) {
	withClock(t)
	in, err := FromJSON([]byte(`{
		"title": "Civic", "description": "Compact",
		"year": 2019, "price": 18500.5, "mileage": 0,
		"tags": ["family", "commuter"],
		"features": ["Bluetooth"],
		"specifications": {"horsepower": 158},
		"location": {"coordinates": [40.7, -74.0]}
	}`))
	require.NoError(t, err)

	car, _, err := Create(in, nil, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2019, *car.Year)
	assert.Equal(t, 18500.5, *car.Price)
	require.NotNil(t, car.Mileage, "zero mileage is a value, not absence")
	assert.Equal(t, 0, *car.Mileage)
	assert.Equal(t, []string{"family", "commuter"}, car.Tags)
	assert.Equal(t, [2]float64{40.7, -74.0}, car.Location.Coordinates)
	assert.Equal(t, []string{}, car.Images)
}

func TestCreate_EmptyOptionalScalarsAccepted(t *testing.T) {
	withClock(t)
	car, _, err := Create(Input{"title": "t", "description": "d", "make": "", "price": "", "tags": ""}, nil, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "", car.Make)
	assert.Nil(t, car.Price)
	assert.Empty(t, car.Tags)
}

func TestCreate_CoordinateRejectionDropsLocation(t *testing.T) {
	withClock(t)
	in := Input{
		"title":       "t",
		"description": "d",
		"location":    map[string]any{"coordinates": []any{"12.9", "bad"}, "address": "x"},
	}
	car, dropped, err := Create(in, nil, fixedNow)
	require.NoError(t, err, "bad coordinates must not block the write")
	assert.Nil(t, car.Location)
	require.Len(t, dropped, 1)
	assert.Equal(t, "location", dropped[0].Field)
}

func TestCreate_CoordinateShapes(t *testing.T) {
	withClock(t)
	cases := map[string]any{
		"one element":    []any{"1"},
		"three elements": []any{1.0, 2.0, 3.0},
		"not a list":     "12.9,77.6",
		"infinite":       []any{"Inf", "1"},
		"nan":            []any{"NaN", "1"},
		"empty string":   []any{"", "1"},
	}
	for name, coords := range cases {
		t.Run(name, func(t *testing.T) {
			in := Input{"title": "t", "description": "d", "location": map[string]any{"coordinates": coords}}
			car, dropped, err := Create(in, nil, fixedNow)
			require.NoError(t, err)
			assert.Nil(t, car.Location)
			assert.Len(t, dropped, 1)
		})
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	withClock(t)
	base := func(kv ...any) Input {
		in := Input{"title": "t", "description": "d"}
		for i := 0; i+1 < len(kv); i += 2 {
			in[kv[i].(string)] = kv[i+1]
		}
		return in
	}
	cases := []struct {
		name  string
		in    Input
		field string
	}{
		{"non-numeric price", base("price", "abc"), "price"},
		{"fractional year", base("year", "2020.5"), "year"},
		{"non-numeric mileage", base("mileage", "12k"), "mileage"},
		{"negative price", base("price", "-1"), "price"},
		{"negative mileage", base("mileage", "-5"), "mileage"},
		{"year too old", base("year", "1899"), "year"},
		{"year too new", base("year", "2027"), "year"},
		{"malformed features", base("features", "[Sunroof"), "features"},
		{"features with numbers", base("features", `["a", 1]`), "features"},
		{"malformed specifications", base("specifications", "{horsepower:"), "specifications"},
		{"bad horsepower", base("specifications", `{"horsepower":"lots"}`), "specifications.horsepower"},
		{"negative torque", base("specifications", `{"torque":-3}`), "specifications.torque"},
		{"malformed location", base("location", "{oops"), "location"},
		{"trailing garbage features", base("features", `["Sunroof"] this is not json`), "features"},
		{"trailing braces location", base("location", `{"coordinates":[1,2]}}}garbage`), "location"},
		{"trailing text specifications", base("specifications", `{"horsepower":"300"} trailing`), "specifications"},
		{"two arrays in features", base("features", `["a"]["b"]`), "features"},
		{"location not an object", base("location", 42), "location"},
		{"blank title", Input{"title": "   ", "description": "d"}, "title"},
		{"missing description", Input{"title": "t"}, "description"},
		{"title not text", base("title", map[string]any{}), "title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			car, _, err := Create(tc.in, nil, fixedNow)
			require.Error(t, err)
			assert.Nil(t, car)
			requireField(t, err, tc.field)
		})
	}
}

func TestCreate_YearUpperBoundIsNextYear(t *testing.T) {
	withClock(t)
	_, _, err := Create(Input{"title": "t", "description": "d", "year": "2026"}, nil, fixedNow)
	assert.NoError(t, err)
}

func TestPatch_OnlyPriceLeavesEverythingElse(t *testing.T) {
	withClock(t)
	existing, _, err := Create(FromValues(url.Values{
		"title": {"Model 3"}, "description": {"d"}, "make": {"Tesla"}, "model": {"3"},
		"price": {"25000"}, "tags": {"electric,luxury"}, "features": {`["Sunroof"]`},
		"location": {`{"coordinates":[1,2]}`},
	}), []string{"/uploads/a.png"}, fixedNow)
	require.NoError(t, err)
	before := *existing

	p, _, err := Patch(FromValues(url.Values{"price": {"26000"}}), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"price"}, p.Fields())
	p.Apply(existing)

	assert.Equal(t, 26000.0, *existing.Price)
	assert.Equal(t, before.Make, existing.Make)
	assert.Equal(t, before.Model, existing.Model)
	assert.Equal(t, before.Title, existing.Title)
	assert.Equal(t, before.Tags, existing.Tags)
	assert.Equal(t, before.Features, existing.Features)
	assert.Equal(t, before.Images, existing.Images)
	assert.Equal(t, before.Location, existing.Location)
	assert.Equal(t, before.CreatedAt, existing.CreatedAt)
}

func TestPatch_EmptyStringsMeanNotProvided(t *testing.T) {
	car := &domain.Car{Title: "t", Description: "d", Make: "Audi", Tags: []string{"x"}}
	p, _, err := Patch(Input{"make": "", "title": "", "year": "", "tags": ""}, nil)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	p.Apply(car)
	assert.Equal(t, "Audi", car.Make)
	assert.Equal(t, []string{"x"}, car.Tags)
}

func TestPatch_SpecificationsMergeSubFields(t *testing.T) {
	hp := 300.0
	car := &domain.Car{Title: "t", Description: "d", Specifications: domain.Specifications{Engine: "V6", Horsepower: &hp}}
	p, _, err := Patch(Input{"specifications": `{"torque":"280","horsepower":""}`}, nil)
	require.NoError(t, err)
	p.Apply(car)
	assert.Equal(t, "V6", car.Specifications.Engine)
	assert.Equal(t, 300.0, *car.Specifications.Horsepower)
	assert.Equal(t, 280.0, *car.Specifications.Torque)
}

func TestPatch_ImagesReplacedOnlyWithNewUploads(t *testing.T) {
	car := &domain.Car{Title: "t", Description: "d", Images: []string{"/uploads/old.png"}}
	p, _, err := Patch(Input{"color": "Red"}, nil)
	require.NoError(t, err)
	p.Apply(car)
	assert.Equal(t, []string{"/uploads/old.png"}, car.Images)

	p, _, err = Patch(Input{}, []string{"/uploads/new.png"})
	require.NoError(t, err)
	p.Apply(car)
	assert.Equal(t, []string{"/uploads/new.png"}, car.Images)
}

func TestPatch_BadCoordinatesKeepStoredLocation(t *testing.T) {
	car := &domain.Car{Title: "t", Description: "d", Location: &domain.Location{Coordinates: [2]float64{1, 2}}}
	p, dropped, err := Patch(Input{"location": `{"coordinates":[1]}`}, nil)
	require.NoError(t, err)
	require.Len(t, dropped, 1)
	p.Apply(car)
	assert.Equal(t, [2]float64{1, 2}, car.Location.Coordinates)
}

func TestPatch_ParseErrorsNameField(t *testing.T) {
	_, _, err := Patch(Input{"year": "two thousand"}, nil)
	requireField(t, err, "year")
}

func TestFromValues_RepeatedAndBracketKeys(t *testing.T) {
	in := FromValues(url.Values{
		"tags[]":   {"a", "b"},
		"features": {"Sunroof", "Navigation"},
		"title":    {"x"},
	})
	assert.Equal(t, []string{"a", "b"}, in["tags"])
	assert.Equal(t, []string{"Sunroof", "Navigation"}, in["features"])
	assert.Equal(t, "x", in["title"])

	car, _, err := Create(Input{"title": "t", "description": "d", "tags": in["tags"], "features": in["features"]}, nil, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, car.Tags)
	assert.Equal(t, []string{"Sunroof", "Navigation"}, car.Features)
}

func TestFromJSON_RejectsNonObjects(t *testing.T) {
	for _, body := range []string{`[1,2]`, `null`, `"x"`, `{`, `{"title":"t"} junk`, `{"title":"t"}{}`} {
		_, err := FromJSON([]byte(body))
		requireField(t, err, "body")
	}

	// Surrounding whitespace is still a single well-formed document.
	in, err := FromJSON([]byte("  {\"title\":\"t\"}\n"))
	require.NoError(t, err)
	assert.Equal(t, "t", in["title"])
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	withClock(t)
	neg := -1.0
	err := Validate(&domain.Car{Title: "t", Description: "d", Specifications: domain.Specifications{FuelEconomy: &neg}})
	requireField(t, err, "specifications.fuelEconomy")
	ve, _ := domain.AsValidation(err)
	assert.Equal(t, "must be >= 0", ve.Reason)
}
