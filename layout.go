package sheetsign

import (
	"fmt"
	"regexp"
	"time"

	"github.com/alnah/go-sheetsign/internal/dateutil"
)

// Point is a position in PDF user space: points, origin at bottom-left.
type Point struct {
	X float64
	Y float64
}

// Add returns p shifted by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Size is a width and height in points.
type Size struct {
	Width  float64
	Height float64
}

// Rect is a drawing box anchored at its lower-left corner.
type Rect struct {
	Point
	Size
}

// Page cap bounds.
const (
	MinPageCap = 1
	MaxPageCap = 500
)

// Layout holds every constant of the two-page signature-block template.
//
// The values are tuned to one document template: the 20pt line pitch, the
// (+80, -10) anchor offset and the 19-page cap are not general PDF layout
// rules. Keep them unchanged unless the template itself changes.
type Layout struct {
	PageHeight float64 // US Letter height in points
	LinePitch  float64 // assumed vertical distance between extracted lines
	MarkerX    float64 // x of every located marker

	// AnchorOffset moves a located marker to where the drawing goes,
	// past the label instead of on top of it.
	AnchorOffset Point

	SignatureMarker string
	DateMarker      string
	DatePattern     *regexp.Regexp

	FirstPageSignature  Point // fallback when the marker is missing
	FirstPageDate       Point
	SecondPageSignature Point

	FirstSignatureSize  Size
	BlankSize           Size
	SecondSignatureSize Size

	Font     string
	FontSize float64

	// DateFormat uses dateutil tokens (YYYY, MM, DD, ...) or a preset
	// name (us, iso, european, long).
	DateFormat string

	PageCap int
}

// DefaultLayout returns the signature-block template layout.
func DefaultLayout() Layout {
	return Layout{
		PageHeight:   792,
		LinePitch:    20,
		MarkerX:      100,
		AnchorOffset: Point{X: 80, Y: -10},

		SignatureMarker: "Signature:",
		DateMarker:      "Date:",
		DatePattern:     regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`),

		FirstPageSignature:  Point{X: 250, Y: 293},
		FirstPageDate:       Point{X: 260, Y: 259},
		SecondPageSignature: Point{X: 230, Y: 162},

		FirstSignatureSize:  Size{Width: 120, Height: 30},
		BlankSize:           Size{Width: 80, Height: 10},
		SecondSignatureSize: Size{Width: 160, Height: 20},

		Font:     "Helvetica",
		FontSize: 9,

		DateFormat: dateutil.DefaultDateFormat,
		PageCap:    19,
	}
}

// Validate checks that the layout can drive a stamping pass.
func (l Layout) Validate() error {
	if l.SignatureMarker == "" || l.DateMarker == "" {
		return fmt.Errorf("%w: markers cannot be empty", ErrInvalidInput)
	}
	if l.DatePattern == nil {
		return fmt.Errorf("%w: date pattern is required", ErrInvalidInput)
	}
	if l.PageCap < MinPageCap || l.PageCap > MaxPageCap {
		return fmt.Errorf("%w: page cap %d (must be between %d and %d)", ErrInvalidInput, l.PageCap, MinPageCap, MaxPageCap)
	}
	if l.FontSize <= 0 {
		return fmt.Errorf("%w: font size must be positive", ErrInvalidInput)
	}
	if _, err := dateutil.Format(l.DateFormat, time.Time{}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// anchor applies the template offset to a located or fallback point.
func (l Layout) anchor(p Point) Point {
	return p.Add(l.AnchorOffset)
}
