package sheetsign

import "errors"

// Sentinel errors for library operations.
var (
	// Run input errors.
	ErrMissingXLSXKey = errors.New("no spreadsheet key provided in input")
	ErrInvalidInput   = errors.New("invalid run input")
	ErrBlobNotFound   = errors.New("input file not found in key-value store")

	// Input blob validation errors.
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")
	ErrInvalidImage       = errors.New("invalid image")
	ErrEmptyDocument      = errors.New("converted document has no pages")

	// Conversion errors.
	ErrConversion        = errors.New("conversion failed")
	ErrConverterNotFound = errors.New("converter executable not found")
	ErrConversionTimeout = errors.New("conversion timed out")
	ErrBrowserConnect    = errors.New("failed to connect to browser")
	ErrPageCreate        = errors.New("failed to create browser page")
	ErrPageLoad          = errors.New("failed to load page")
	ErrPDFGeneration     = errors.New("PDF generation failed")
	ErrInvalidStyle      = errors.New("invalid sheet style")

	// Overlay errors.
	ErrOverlayRender = errors.New("overlay rendering failed")
	ErrStamp         = errors.New("overlay merge failed")

	// Storage errors.
	ErrStore       = errors.New("key-value store operation failed")
	ErrInvalidKey  = errors.New("invalid store key")
	ErrDataset     = errors.New("dataset operation failed")
	ErrInvalidSink = errors.New("invalid dataset configuration")

	// ErrInternal wraps a recovered panic.
	ErrInternal = errors.New("internal error")
)
