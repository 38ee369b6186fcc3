package sheetsign

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
)

// drawKind identifies what an overlay operation draws.
type drawKind int

const (
	drawSignature drawKind = iota
	drawBlank
	drawText
)

// String implements fmt.Stringer.
func (k drawKind) String() string {
	switch k {
	case drawSignature:
		return "signature"
	case drawBlank:
		return "blank"
	default:
		return "text"
	}
}

// drawOp is one drawing on an overlay, in PDF user space.
type drawOp struct {
	Kind drawKind
	Box  Rect   // images: lower-left corner and size
	At   Point  // text: baseline start
	Text string // text only
}

// overlayPlan is everything drawn on one page, decided before rendering.
type overlayPlan struct {
	Page        int // 1-based target page
	Signature   Location
	Date        Location // first page only
	DateSkipped bool     // a date was already printed
	Ops         []drawOp
}

// planFirstPage places the signature and, unless the page already shows a
// date next to its date marker, the blank filler and the run date.
func planFirstPage(text PageText, dateText string, layout Layout) overlayPlan {
	sig := LocateMarker(text, layout.SignatureMarker, layout)
	date := LocateMarker(text, layout.DateMarker, layout)

	sigAt := layout.anchor(sig.Or(layout.FirstPageSignature))
	dateAt := layout.anchor(date.Or(layout.FirstPageDate))

	plan := overlayPlan{
		Page:        1,
		Signature:   sig,
		Date:        date,
		DateSkipped: date.DatePresent,
		Ops: []drawOp{
			{Kind: drawSignature, Box: Rect{Point: sigAt, Size: layout.FirstSignatureSize}},
		},
	}
	if date.DatePresent {
		return plan
	}

	plan.Ops = append(plan.Ops,
		drawOp{Kind: drawBlank, Box: Rect{Point: dateAt, Size: layout.BlankSize}},
		drawOp{
			Kind: drawText,
			At:   Point{X: dateAt.X, Y: dateAt.Y + layout.BlankSize.Height/2},
			Text: dateText,
		},
	)
	return plan
}

// planSecondPage places the larger signature of the second template page.
func planSecondPage(text PageText, layout Layout) overlayPlan {
	sig := LocateMarker(text, layout.SignatureMarker, layout)
	sigAt := layout.anchor(sig.Or(layout.SecondPageSignature))

	return overlayPlan{
		Page:      2,
		Signature: sig,
		Ops: []drawOp{
			{Kind: drawSignature, Box: Rect{Point: sigAt, Size: layout.SecondSignatureSize}},
		},
	}
}

// renderOverlay draws plan on a blank US Letter page and returns the PDF.
func renderOverlay(plan overlayPlan, images Images, layout Layout) ([]byte, error) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	// fpdf measures y from the top edge.
	_, pageHeight := doc.GetPageSize()

	registered := make(map[drawKind]Image, 2)
	for _, op := range plan.Ops {
		switch op.Kind {
		case drawSignature, drawBlank:
			img := images.Signature
			if op.Kind == drawBlank {
				img = images.Blank
			}
			if _, ok := registered[op.Kind]; !ok {
				if len(img.Data) == 0 {
					return nil, fmt.Errorf("%w: missing %s image", ErrOverlayRender, op.Kind)
				}
				doc.RegisterImageOptionsReader(op.Kind.String(), fpdf.ImageOptions{ImageType: img.Type}, bytes.NewReader(img.Data))
				registered[op.Kind] = img
			}
			top := pageHeight - op.Box.Y - op.Box.Height
			doc.ImageOptions(op.Kind.String(), op.Box.X, top, op.Box.Width, op.Box.Height,
				false, fpdf.ImageOptions{ImageType: img.Type}, 0, "")
		case drawText:
			doc.SetFont(layout.Font, "", layout.FontSize)
			doc.Text(op.At.X, pageHeight-op.At.Y, op.Text)
		}

		if doc.Err() {
			return nil, fmt.Errorf("%w: page %d %s: %v", ErrOverlayRender, plan.Page, op.Kind, doc.Error())
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrOverlayRender, plan.Page, err)
	}
	return buf.Bytes(), nil
}
