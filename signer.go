package sheetsign

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alnah/go-sheetsign/internal/dateutil"
)

// ContentTypePDF is the content type of stored output documents.
const ContentTypePDF = "application/pdf"

// Signer runs the sign pipeline: fetch inputs from a Store, convert the
// spreadsheet, stamp the signature block, store the result and push a
// record. Create with NewSigner, call Run per document, Close when done.
//
// A Signer runs one document at a time.
type Signer struct {
	store     Store
	converter DocumentConverter
	dataset   Dataset
	layout    Layout
	logger    zerolog.Logger

	now              func() time.Time
	date             string
	checkSpreadsheet bool
	timeout          time.Duration
}

// NewSigner creates a Signer reading and writing blobs through store.
// Without WithConverter, soffice is used with WithTimeout's timeout.
func NewSigner(store Store, opts ...Option) (*Signer, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrStore)
	}

	s := &Signer{
		store:            store,
		layout:           DefaultLayout(),
		logger:           zerolog.Nop(),
		now:              time.Now,
		date:             "auto",
		checkSpreadsheet: true,
		timeout:          DefaultConversionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.layout.Validate(); err != nil {
		return nil, err
	}
	if _, err := dateutil.ResolveDate(s.date, s.layout.DateFormat, time.Time{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if s.converter == nil {
		s.converter = NewLibreOfficeConverter("", s.timeout, s.logger)
	}
	if s.dataset == nil {
		s.dataset = nopDataset{}
	}
	return s, nil
}

// Layout returns the layout in use.
func (s *Signer) Layout() Layout {
	return s.layout
}

// Run signs one document.
//
// Input keys are checked before any I/O: a missing spreadsheet key fails
// without touching the store or the converter. A failure before the store
// write leaves no output blob; no failure pushes a record.
func (s *Signer) Run(ctx context.Context, in Input) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	in = in.WithDefaults()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	start := s.now()
	dateText, err := dateutil.ResolveDate(s.date, s.layout.DateFormat, start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	runID := uuid.NewString()
	log := s.logger.With().Str("run_id", runID).Logger()
	log.Info().
		Str("xlsx_key", in.XLSXKey).
		Str("signature_key", in.SignatureKey).
		Str("blank_image_key", in.BlankImageKey).
		Msg("starting run")

	blobs, err := s.fetchInputs(ctx, in)
	if err != nil {
		return nil, err
	}

	images, err := prepareImages(in, blobs)
	if err != nil {
		return nil, err
	}

	var sheets *SheetInfo
	if s.checkSpreadsheet && IsOOXMLWorkbook(in.XLSXKey) {
		sheets, err = InspectSpreadsheet(blobs.xlsx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.XLSXKey, err)
		}
		log.Debug().Int("sheets", len(sheets.Sheets)).Int("visible", sheets.Visible()).Msg("spreadsheet checked")
	}

	ws, err := newWorkspace()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("dir", ws.Dir()).Msg("removing workspace")
		}
	}()

	doc, err := s.convert(ctx, ws, in.XLSXKey, blobs.xlsx)
	if err != nil {
		return nil, err
	}
	log.Info().Int("bytes", len(doc)).Msg("spreadsheet converted")

	stamped, err := Stamp(ctx, doc, images, dateText, StampOptions{
		Layout:  s.layout,
		WorkDir: ws.Dir(),
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	outKey := in.OutputKey()
	if err := s.store.Put(ctx, outKey, stamped.PDF, ContentTypePDF); err != nil {
		return nil, err
	}
	log.Info().Str("key", outKey).Int("pages", stamped.Report.OutputPages).Msg("stored signed document")

	rec := Record{Status: StatusSuccess, OutputFile: outKey}
	if err := s.dataset.Push(ctx, rec); err != nil {
		return nil, err
	}
	log.Info().Str("status", rec.Status).Msg("pushed run record")

	return &Result{
		RunID:     runID,
		OutputKey: outKey,
		PDF:       stamped.PDF,
		Record:    rec,
		DateText:  dateText,
		Report:    stamped.Report,
		Sheets:    sheets,
		Elapsed:   s.now().Sub(start),
	}, nil
}

// Close releases the converter and the dataset. The store belongs to the
// caller.
func (s *Signer) Close() error {
	return errors.Join(s.converter.Close(), s.dataset.Close())
}

type inputBlobs struct {
	xlsx, signature, blank []byte
}

// fetchInputs reads all three blobs; the first failure names its key.
func (s *Signer) fetchInputs(ctx context.Context, in Input) (inputBlobs, error) {
	var b inputBlobs
	for _, f := range []struct {
		key string
		dst *[]byte
	}{
		{in.XLSXKey, &b.xlsx},
		{in.SignatureKey, &b.signature},
		{in.BlankImageKey, &b.blank},
	} {
		data, err := s.store.Get(ctx, f.key)
		if err != nil {
			return inputBlobs{}, err
		}
		*f.dst = data
	}
	return b, nil
}

func prepareImages(in Input, b inputBlobs) (Images, error) {
	sig, err := PrepareImage(b.signature)
	if err != nil {
		return Images{}, fmt.Errorf("%s: %w", in.SignatureKey, err)
	}
	blank, err := PrepareImage(b.blank)
	if err != nil {
		return Images{}, fmt.Errorf("%s: %w", in.BlankImageKey, err)
	}
	return Images{Signature: sig, Blank: blank}, nil
}

// convert writes the spreadsheet into the workspace and returns the PDF
// bytes produced by the converter. Source and output live in separate
// directories so a key can never shadow an overlay or profile file.
func (s *Signer) convert(ctx context.Context, ws *workspace, key string, data []byte) ([]byte, error) {
	srcDir, err := ws.Sub("src")
	if err != nil {
		return nil, err
	}
	outDir, err := ws.Sub("out")
	if err != nil {
		return nil, err
	}

	srcPath := filepath.Join(srcDir, key)
	if err := os.WriteFile(srcPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing spreadsheet: %w", err)
	}

	pdfPath, err := s.converter.ToPDF(ctx, srcPath, outDir)
	if err != nil {
		return nil, err
	}
	doc, err := os.ReadFile(pdfPath) // #nosec G304 -- path inside workspace
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrConversion, err)
	}
	return doc, nil
}
