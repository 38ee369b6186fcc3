package sheetsign

import (
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Signer.
type Option func(*Signer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Signer) {
		s.logger = l
	}
}

// WithConverter replaces the LibreOffice converter. The Signer closes it.
func WithConverter(c DocumentConverter) Option {
	return func(s *Signer) {
		s.converter = c
	}
}

// WithDataset sets where run records go. The Signer closes it.
func WithDataset(d Dataset) Option {
	return func(s *Signer) {
		s.dataset = d
	}
}

// WithLayout replaces DefaultLayout.
func WithLayout(l Layout) Option {
	return func(s *Signer) {
		s.layout = l
	}
}

// WithClock sets the time source of the stamped date.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// WithDate sets the stamped date text: "auto" (default) formats the run date
// with Layout.DateFormat, "auto:FORMAT" uses FORMAT, anything else is
// printed verbatim.
func WithDate(value string) Option {
	return func(s *Signer) {
		s.date = value
	}
}

// WithSpreadsheetCheck toggles opening xlsx inputs before conversion.
// Enabled by default.
func WithSpreadsheetCheck(enabled bool) Option {
	return func(s *Signer) {
		s.checkSpreadsheet = enabled
	}
}

// WithTimeout sets the timeout of the default LibreOffice converter. It has
// no effect together with WithConverter: a supplied converter carries its
// own timeout. Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("sheetsign: WithTimeout duration must be positive")
	}
	return func(s *Signer) {
		s.timeout = d
	}
}

// Result describes a completed run.
type Result struct {
	RunID     string
	OutputKey string
	PDF       []byte
	Record    Record
	DateText  string
	Report    StampReport
	Sheets    *SheetInfo // nil when the check was skipped
	Elapsed   time.Duration
}
