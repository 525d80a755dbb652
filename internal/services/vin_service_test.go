package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AtharvaManchalkar/DriveOps/internal/vin"
)

type fakeDecoder struct {
	out *vin.Decoded
	err error
}

func (f fakeDecoder) Decode(context.Context, string) (*vin.Decoded, error) { return f.out, f.err }

func TestVINService_Decode(t *testing.T) {
	s := &VINService{Decoder: fakeDecoder{out: &vin.Decoded{Make: "HONDA"}}}
	d, err := s.Decode(context.Background(), "1HGCM82633A004352")
	if err != nil || d.Make != "HONDA" {
		t.Fatalf("Decode = %+v, %v", d, err)
	}
}

func TestVINService_ErrorMapping(t *testing.T) {
	s := &VINService{Decoder: fakeDecoder{err: vin.ErrInvalid}}
	if _, err := s.Decode(context.Background(), "x"); !errors.Is(err, ErrInvalidVIN) {
		t.Fatalf("expected ErrInvalidVIN, got %v", err)
	}

	s = &VINService{Decoder: fakeDecoder{err: fmt.Errorf("%w: status 502", vin.ErrUpstream)}}
	if _, err := s.Decode(context.Background(), "1HGCM82633A004352"); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
