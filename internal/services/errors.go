// Package services holds the inventory use cases: car records, maintenance
// history, comparison selections, VIN lookups and user accounts.
//
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
// Translation into HTTP status codes happens in the handlers.
package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrCarNotFound indicates that no car has the requested ID.
	ErrCarNotFound = errors.New("car not found")

	// ErrMaintenanceNotFound indicates that the maintenance record does not
	// exist or belongs to another car.
	ErrMaintenanceNotFound = errors.New("maintenance record not found")

	// ErrUpstreamUnavailable is returned when the record store or an external
	// service cannot be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrSelectionFull is returned when a comparison selection is at its cap.
	ErrSelectionFull = errors.New("comparison selection is full")

	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned by Register when the email already has an
	// account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidToken is returned for bearer tokens that fail verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidVIN is returned for VINs that are not 17 valid characters.
	ErrInvalidVIN = errors.New("invalid vin")
)

// storeErr marks connectivity failures of the record store as
// ErrUpstreamUnavailable. Other errors pass through unchanged.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		isNetErr(err) ||
		strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return err
}

func isNetErr(err error) bool {
	var op *net.OpError
	return errors.As(err, &op)
}
