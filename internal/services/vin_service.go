package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AtharvaManchalkar/DriveOps/internal/vin"
)

// VINDecoder decodes a VIN; *vin.Client satisfies it.
type VINDecoder interface {
	Decode(ctx context.Context, v string) (*vin.Decoded, error)
}

// VINService looks up vehicle data for a VIN.
type VINService struct {
	Decoder VINDecoder
}

// Decode returns the decoded attributes of v.
func (s *VINService) Decode(ctx context.Context, v string) (*vin.Decoded, error) {
	tr := otel.Tracer("services/VINService")
	ctx, span := tr.Start(ctx, "Decode", trace.WithAttributes(attribute.String("vin", v)))
	defer span.End()

	d, err := s.Decoder.Decode(ctx, v)
	switch {
	case errors.Is(err, vin.ErrInvalid):
		return nil, ErrInvalidVIN
	case err != nil:
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return d, nil
}
