package sheetsign

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog"
)

// overlayStampDesc lays an overlay page over its target with no scaling
// and no shift, so overlay coordinates equal page coordinates. Parameter
// names are spelled out: pdfcpu rejects prefixes that match more than one
// ("sc" is both scalefactor and scriptname).
const overlayStampDesc = "position:bl, offset:0 0, scalefactor:1 abs, rotation:0, opacity:1"

// StampOptions configures a stamping pass.
type StampOptions struct {
	Layout Layout

	// WorkDir receives the transient overlay files. A temporary
	// directory is created and removed when empty.
	WorkDir string

	Logger zerolog.Logger
}

// Placement records what was drawn on one page.
type Placement struct {
	Page        int
	Signature   Location
	Date        Location // first page only
	DateSkipped bool
	Draws       int
}

// StampReport describes a stamping pass.
type StampReport struct {
	SourcePages int
	OutputPages int
	Dropped     int
	Placements  []Placement
}

// Stamped is the result of Stamp.
type Stamped struct {
	PDF    []byte
	Report StampReport
}

// Stamp overlays the signature block on the first two pages of src and
// keeps at most Layout.PageCap pages.
//
// Page 1 receives the signature and, when no date is printed yet, the blank
// filler and dateText. Page 2, when present, receives the larger signature.
// Later pages are copied unchanged; pages past the cap are dropped.
func Stamp(ctx context.Context, src []byte, images Images, dateText string, opts StampOptions) (*Stamped, error) {
	layout := opts.Layout
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger

	conf := newPDFConfig()
	total, err := api.PageCount(bytes.NewReader(src), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: reading document: %v", ErrStamp, err)
	}
	if total == 0 {
		return nil, ErrEmptyDocument
	}

	end := min(layout.PageCap, total)
	log.Info().Int("pages", total).Int("limit", end).Msg("processing PDF")

	workDir := opts.WorkDir
	if workDir == "" {
		ws, err := newWorkspace()
		if err != nil {
			return nil, err
		}
		defer func() { _ = ws.Close() }()
		workDir = ws.Dir()
	}
	ws := &workspace{dir: workDir}

	texts := ExtractPageText(src, min(end, 2))

	doc := src
	if total > end {
		doc, err = trimPages(doc, end, conf)
		if err != nil {
			return nil, err
		}
		log.Warn().Int("dropped", total-end).Int("cap", layout.PageCap).Msg("document truncated to page cap")
	}

	plans := []overlayPlan{planFirstPage(texts[0], dateText, layout)}
	if end > 1 {
		plans = append(plans, planSecondPage(texts[1], layout))
	}

	report := StampReport{SourcePages: total, Dropped: total - end}
	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logPlacement(log, plan)

		overlay, err := renderOverlay(plan, images, layout)
		if err != nil {
			return nil, err
		}
		path, err := ws.WriteFile(fmt.Sprintf("overlay-p%d.pdf", plan.Page), overlay)
		if err != nil {
			return nil, err
		}
		doc, err = mergeOverlay(doc, path, plan.Page, conf)
		if err != nil {
			return nil, err
		}

		report.Placements = append(report.Placements, Placement{
			Page:        plan.Page,
			Signature:   plan.Signature,
			Date:        plan.Date,
			DateSkipped: plan.DateSkipped,
			Draws:       len(plan.Ops),
		})
	}

	report.OutputPages, err = api.PageCount(bytes.NewReader(doc), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: reading stamped document: %v", ErrStamp, err)
	}

	return &Stamped{PDF: doc, Report: report}, nil
}

// PageCount returns the number of pages of a PDF document.
func PageCount(src []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(src), newPDFConfig())
	if err != nil {
		return 0, fmt.Errorf("%w: reading document: %v", ErrStamp, err)
	}
	return n, nil
}

// trimPages keeps pages 1..end.
func trimPages(doc []byte, end int, conf *model.Configuration) ([]byte, error) {
	var out bytes.Buffer
	selection := []string{fmt.Sprintf("1-%d", end)}
	if err := api.Trim(bytes.NewReader(doc), &out, selection, conf); err != nil {
		return nil, fmt.Errorf("%w: keeping pages %s: %v", ErrStamp, selection[0], err)
	}
	return out.Bytes(), nil
}

// mergeOverlay stamps the first page of the overlay file on top of page.
func mergeOverlay(doc []byte, overlayPath string, page int, conf *model.Configuration) ([]byte, error) {
	wm, err := api.PDFWatermark(overlayPath, overlayStampDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrStamp, page, err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &out, []string{strconv.Itoa(page)}, wm, conf); err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrStamp, page, err)
	}
	return out.Bytes(), nil
}

func logPlacement(log zerolog.Logger, plan overlayPlan) {
	switch plan.Signature.Status {
	case MarkerExtractFailed:
		log.Warn().Int("page", plan.Page).Msg("text extraction failed, using default signature position")
	case MarkerNotFound:
		log.Debug().Int("page", plan.Page).Msg("signature marker not found, using default position")
	}
	if plan.Page == 1 && plan.Date.Status == MarkerNotFound {
		log.Debug().Msg("date marker not found, using default position")
	}
	if plan.DateSkipped {
		log.Info().Msg("date already present, leaving it as-is")
	}
}

var disableConfigDir sync.Once

// newPDFConfig returns a pdfcpu configuration that never touches the
// user's config directory.
func newPDFConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
