// Package normalize turns raw car submissions (multipart form fields or JSON
// bodies) into typed domain records. Text numbers are parsed and bounded,
// comma-joined lists are split, and JSON-encoded sub-objects are decoded.
// Every failure is reported as a *domain.ValidationError naming the offending
// field, before anything reaches the store.
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// Input is a raw submission keyed by field name. Values are one of:
// string, []string, json.Number, float64, int, bool, map[string]any, []any, nil.
type Input map[string]any

func invalid(field, format string, args ...any) *domain.ValidationError {
	return &domain.ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// FromValues builds an Input from form values. A key with a single value
// becomes a string; repeated keys become a []string. "tags[]"-style keys are
// folded onto their base name.
func FromValues(v url.Values) Input {
	in := make(Input, len(v))
	for k, vals := range v {
		key := k
		if n := len(key); n > 2 && key[n-2:] == "[]" {
			key = key[:n-2]
			if prev, ok := in[key].([]string); ok {
				in[key] = append(prev, vals...)
				continue
			}
			in[key] = append([]string(nil), vals...)
			continue
		}
		switch len(vals) {
		case 0:
		case 1:
			in[key] = vals[0]
		default:
			in[key] = append([]string(nil), vals...)
		}
	}
	return in
}

// FromJSON decodes a JSON object body into an Input. Numbers are kept as
// json.Number so integer fields are not rounded through float64.
func FromJSON(body []byte) (Input, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return nil, invalid("body", "must be a JSON object")
	}
	return Input(obj), nil
}

// errMalformed covers syntax errors and trailing data after the first value;
// a Decoder alone stops at the end of the first value and ignores the rest.
var errMalformed = errors.New("malformed JSON")

func newDecoder(b []byte) (*json.Decoder, error) {
	if !json.Valid(b) {
		return nil, errMalformed
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec, nil
}

func decodeObject(b []byte) (map[string]any, error) {
	dec, err := newDecoder(b)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("null object")
	}
	return obj, nil
}

func decodeArray(b []byte) ([]any, error) {
	dec, err := newDecoder(b)
	if err != nil {
		return nil, err
	}
	var arr []any
	if err := dec.Decode(&arr); err != nil {
		return nil, err
	}
	return arr, nil
}
