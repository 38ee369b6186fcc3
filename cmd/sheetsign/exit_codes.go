package main

import (
	"errors"
	"os"

	sheetsign "github.com/alnah/go-sheetsign"
	"github.com/alnah/go-sheetsign/internal/config"
)

// Exit codes for the sheetsign CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess    = 0 // Document signed
	ExitGeneral    = 1 // General/unexpected error, overlay failures
	ExitUsage      = 2 // Invalid flags, config, input or input blobs
	ExitIO         = 3 // Missing blob, store or dataset errors
	ExitConversion = 4 // soffice or Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Conversion errors (exit 4)
	if errors.Is(err, sheetsign.ErrConversion) ||
		errors.Is(err, sheetsign.ErrConverterNotFound) ||
		errors.Is(err, sheetsign.ErrConversionTimeout) ||
		errors.Is(err, sheetsign.ErrBrowserConnect) ||
		errors.Is(err, sheetsign.ErrPageCreate) ||
		errors.Is(err, sheetsign.ErrPageLoad) ||
		errors.Is(err, sheetsign.ErrPDFGeneration) {
		return ExitConversion
	}

	// I/O errors (exit 3)
	if errors.Is(err, sheetsign.ErrBlobNotFound) ||
		errors.Is(err, sheetsign.ErrStore) ||
		errors.Is(err, sheetsign.ErrDataset) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, sheetsign.ErrMissingXLSXKey) ||
		errors.Is(err, sheetsign.ErrInvalidInput) ||
		errors.Is(err, sheetsign.ErrInvalidKey) ||
		errors.Is(err, sheetsign.ErrInvalidSpreadsheet) ||
		errors.Is(err, sheetsign.ErrInvalidImage) ||
		errors.Is(err, sheetsign.ErrEmptyDocument) ||
		errors.Is(err, sheetsign.ErrInvalidSink) ||
		errors.Is(err, sheetsign.ErrInvalidStyle) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
