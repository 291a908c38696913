package errors

import (
	"errors"
	"fmt"
)

// Common error types for the inventory client
var (
	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrNoCredentials    = errors.New("no persisted credentials")

	// Catalog errors
	ErrNotFound           = errors.New("not found")
	ErrBarcodeRequired    = errors.New("barcode is required")
	ErrDuplicateBarcode   = errors.New("barcode already in catalog")
	ErrGatewayUnavailable = errors.New("gateway unavailable")

	// Scanner errors
	ErrNoCamera        = errors.New("no camera available")
	ErrRegionNotFound  = errors.New("render region not found")
	ErrScannerStopped  = errors.New("scanner stopped")
	ErrAlreadyScanning = errors.New("scanner already started")

	// Invoice import errors
	ErrNoPendingLine = errors.New("line not in pending set")
	ErrNotReady      = errors.New("no invoice loaded")

	// Export errors
	ErrNothingToExport = errors.New("no products to export")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
