// Package vin decodes vehicle identification numbers through the NHTSA vPIC
// API (https://vpic.nhtsa.dot.gov/api).
package vin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
)

// NotAvailable stands in for any attribute vPIC leaves empty.
const NotAvailable = "N/A"

var (
	// ErrInvalid is returned for VINs that are not 17 valid characters.
	ErrInvalid = errors.New("vin must be 17 characters (letters except I, O, Q, and digits)")
	// ErrUpstream wraps transport failures and non-200 answers from vPIC.
	ErrUpstream = errors.New("vin decoder unavailable")
)

// Decoded is the subset of vPIC variables the inventory cares about.
type Decoded struct {
	VIN          string `json:"vin"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         string `json:"year"`
	Trim         string `json:"trim"`
	Engine       string `json:"engine"`
	FuelType     string `json:"fuelType"`
	Transmission string `json:"transmission"`
	BodyType     string `json:"bodyType"`
	DriveType    string `json:"driveType"`
	Manufacturer string `json:"manufacturer"`
	PlantCountry string `json:"plantCountry"`
}

// Client talks to vPIC.
type Client struct {
	http *resty.Client
}

// New returns a client for baseURL (e.g. https://vpic.nhtsa.dot.gov/api).
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: c}
}

type decodeResponse struct {
	Count   int `json:"Count"`
	Results []struct {
		Variable string  `json:"Variable"`
		Value    *string `json:"Value"`
	} `json:"Results"`
}

// Valid reports whether v looks like a modern 17-character VIN.
func Valid(v string) bool {
	if len(v) != 17 {
		return false
	}
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z' && r != 'I' && r != 'O' && r != 'Q':
		default:
			return false
		}
	}
	return true
}

// Decode looks vin up. The VIN is upper-cased before validation.
func (c *Client) Decode(ctx context.Context, vin string) (*Decoded, error) {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	if !Valid(vin) {
		return nil, ErrInvalid
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("vin", vin).
		SetQueryParam("format", "json").
		Get("/vehicles/decodevin/{vin}")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	var body decodeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	vars := make(map[string]string, len(body.Results))
	for _, r := range body.Results {
		if r.Value != nil && strings.TrimSpace(*r.Value) != "" {
			vars[r.Variable] = strings.TrimSpace(*r.Value)
		}
	}
	value := func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return NotAvailable
	}

	return &Decoded{
		VIN:          vin,
		Make:         value("Make"),
		Model:        value("Model"),
		Year:         value("Model Year"),
		Trim:         value("Trim"),
		Engine:       engine(vars),
		FuelType:     value("Fuel Type - Primary"),
		Transmission: value("Transmission Style"),
		BodyType:     value("Body Class"),
		DriveType:    value("Drive Type"),
		Manufacturer: value("Manufacturer Name"),
		PlantCountry: value("Plant Country"),
	}, nil
}

// engine joins configuration and displacement, e.g. "V-Shaped 3.5L".
func engine(vars map[string]string) string {
	var parts []string
	if v := vars["Engine Configuration"]; v != "" {
		parts = append(parts, v)
	}
	if v := vars["Displacement (L)"]; v != "" {
		parts = append(parts, v+"L")
	}
	if len(parts) == 0 {
		return NotAvailable
	}
	return strings.Join(parts, " ")
}
