package sheetsign

import "strings"

// LocateStatus tells how a marker lookup ended.
type LocateStatus int

// Marker lookup outcomes. Extraction failures are kept apart from genuine
// absence so callers can log them differently; both fall back to defaults.
const (
	MarkerNotFound LocateStatus = iota
	MarkerFound
	MarkerExtractFailed
)

// String implements fmt.Stringer.
func (s LocateStatus) String() string {
	switch s {
	case MarkerFound:
		return "found"
	case MarkerExtractFailed:
		return "extract_failed"
	default:
		return "not_found"
	}
}

// PageText is the extracted text of one page, or the reason it is missing.
type PageText struct {
	Lines []string
	Err   error
}

// Location is the result of a marker lookup on one page.
type Location struct {
	Status LocateStatus
	Point  Point // zero unless Status is MarkerFound
	Line   int   // 0-based matching line, -1 unless found

	// DatePresent reports a date already printed on the date marker line
	// or the line after it. Always false for other markers.
	DatePresent bool
}

// Found reports whether the marker was located.
func (l Location) Found() bool {
	return l.Status == MarkerFound
}

// Or returns the located point, or fallback when the marker was not located.
func (l Location) Or(fallback Point) Point {
	if l.Found() {
		return l.Point
	}
	return fallback
}

// LocateMarker scans page text for marker and approximates where it sits.
//
// The first line containing marker (case-insensitive) wins. Its position is
// derived from the line index with a fixed pitch from the page top, not from
// real glyph positions. LocateMarker never fails: unreadable text yields
// MarkerExtractFailed, no match yields MarkerNotFound.
func LocateMarker(text PageText, marker string, layout Layout) Location {
	if text.Err != nil {
		return Location{Status: MarkerExtractFailed, Line: -1}
	}
	if marker == "" {
		return Location{Status: MarkerNotFound, Line: -1}
	}

	needle := strings.ToLower(marker)
	for i, line := range text.Lines {
		if !strings.Contains(strings.ToLower(line), needle) {
			continue
		}

		loc := Location{
			Status: MarkerFound,
			Line:   i,
			Point: Point{
				X: layout.MarkerX,
				Y: layout.PageHeight - float64(i+1)*layout.LinePitch,
			},
		}
		if marker == layout.DateMarker {
			loc.DatePresent = hasDate(text.Lines, i, layout)
		}
		return loc
	}

	return Location{Status: MarkerNotFound, Line: -1}
}

// hasDate checks line i and the line after it for a printed date.
func hasDate(lines []string, i int, layout Layout) bool {
	if layout.DatePattern == nil {
		return false
	}
	if layout.DatePattern.MatchString(strings.TrimSpace(lines[i])) {
		return true
	}
	if i+1 < len(lines) {
		return layout.DatePattern.MatchString(strings.TrimSpace(lines[i+1]))
	}
	return false
}
