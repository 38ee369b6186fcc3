package sheetsign

import (
	"errors"
	"testing"
)

func TestDefaultLayout(t *testing.T) {
	t.Parallel()

	l := DefaultLayout()
	if err := l.Validate(); err != nil {
		t.Fatalf("DefaultLayout().Validate() = %v", err)
	}
	if l.PageCap != 19 {
		t.Errorf("PageCap = %d, want 19", l.PageCap)
	}
	if l.PageHeight != 792 || l.LinePitch != 20 || l.MarkerX != 100 {
		t.Errorf("geometry = %v/%v/%v, want 792/20/100", l.PageHeight, l.LinePitch, l.MarkerX)
	}
	if got := l.anchor(Point{X: 100, Y: 772}); got != (Point{X: 180, Y: 762}) {
		t.Errorf("anchor() = %+v, want {180 762}", got)
	}
}

func TestLayout_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Layout)
	}{
		{"empty signature marker", func(l *Layout) { l.SignatureMarker = "" }},
		{"empty date marker", func(l *Layout) { l.DateMarker = "" }},
		{"nil date pattern", func(l *Layout) { l.DatePattern = nil }},
		{"page cap zero", func(l *Layout) { l.PageCap = 0 }},
		{"page cap too large", func(l *Layout) { l.PageCap = MaxPageCap + 1 }},
		{"zero font size", func(l *Layout) { l.FontSize = 0 }},
		{"bad date format", func(l *Layout) { l.DateFormat = "[YYYY" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := DefaultLayout()
			tt.mutate(&l)
			if err := l.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Validate() = %v, want ErrInvalidInput", err)
			}
		})
	}
}
