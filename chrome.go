package sheetsign

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-sheetsign/internal/assets"
)

// pdfRenderer prints a local HTML file to PDF. It lets tests run the
// Chrome backend without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string) ([]byte, error)
	Close() error
}

var _ pdfRenderer = (*rodRenderer)(nil)

// US Letter in inches. Margins come from the stylesheet's @page rule.
const (
	paperWidthInches  = 8.5
	paperHeightInches = 11
)

// ChromeOptions configures the Chrome backend.
type ChromeOptions struct {
	Timeout  time.Duration
	Style    string // stylesheet name, assets.DefaultStyleName when empty
	StyleDir string // optional directory of {name}.css overriding built-ins
	Logger   zerolog.Logger
}

// ChromeConverter renders every visible worksheet as an HTML table and
// prints it with headless Chrome. It needs no LibreOffice install but only
// reads OOXML workbooks and ignores cell formatting.
type ChromeConverter struct {
	css      string
	renderer pdfRenderer
	logger   zerolog.Logger
}

// NewChromeConverter resolves the stylesheet and prepares a lazily started
// browser.
func NewChromeConverter(opts ChromeOptions) (*ChromeConverter, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultConversionTimeout
	}
	if opts.Style == "" {
		opts.Style = assets.DefaultStyleName
	}

	resolver, err := assets.NewAssetResolver(opts.StyleDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStyle, err)
	}
	css, err := resolver.LoadStyle(opts.Style)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStyle, err)
	}

	return &ChromeConverter{
		css:      css,
		renderer: newRodRenderer(opts.Timeout),
		logger:   opts.Logger,
	}, nil
}

// ToPDF implements DocumentConverter.
func (c *ChromeConverter) ToPDF(ctx context.Context, srcPath, outDir string) (string, error) {
	if !IsOOXMLWorkbook(srcPath) {
		return "", fmt.Errorf("%w: chrome backend reads only xlsx workbooks, got %s",
			ErrConversion, filepath.Ext(srcPath))
	}

	f, err := excelize.OpenFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	sheets, err := readSheets(f)
	_ = f.Close()
	if err != nil {
		return "", err
	}

	page, err := renderWorkbookHTML(sheets, c.css)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversion, err)
	}

	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	htmlPath := filepath.Join(outDir, base+".html")
	if err := os.WriteFile(htmlPath, page, 0o600); err != nil {
		return "", fmt.Errorf("%w: writing HTML: %v", ErrConversion, err)
	}

	c.logger.Info().Str("html", htmlPath).Int("sheets", len(sheets)).Msg("printing workbook with chrome")
	pdfBytes, err := c.renderer.RenderFromFile(ctx, htmlPath)
	if err != nil {
		return "", err
	}

	out := filepath.Join(outDir, base+".pdf")
	if err := os.WriteFile(out, pdfBytes, 0o600); err != nil {
		return "", fmt.Errorf("%w: writing PDF: %v", ErrConversion, err)
	}
	return out, nil
}

// Close releases the browser.
func (c *ChromeConverter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

// renderWorkbookHTML lays out each visible sheet as one table, one sheet per
// printed page group.
func renderWorkbookHTML(sheets []sheetRows, css string) ([]byte, error) {
	body := element(atom.Body)
	for _, sh := range sheets {
		if sh.Hidden {
			continue
		}
		body.AppendChild(sheetSection(sh))
	}

	style := element(atom.Style)
	style.AppendChild(textNode(sanitizeCSS(css)))

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	head.AppendChild(style)

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.Bytes(), nil
}

func sheetSection(sh sheetRows) *html.Node {
	section := element(atom.Section, html.Attribute{Key: "class", Val: "sheet"})
	title := element(atom.H1)
	title.AppendChild(textNode(sh.Name))
	section.AppendChild(title)

	table := element(atom.Table)
	tbody := element(atom.Tbody)
	for _, row := range sh.Rows {
		tr := element(atom.Tr)
		for i := range sh.Cols {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			tr.AppendChild(cell(value))
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	section.AppendChild(table)
	return section
}

func cell(value string) *html.Node {
	var attrs []html.Attribute
	switch {
	case strings.TrimSpace(value) == "":
		attrs = append(attrs, html.Attribute{Key: "class", Val: "empty"})
	case isNumeric(value):
		attrs = append(attrs, html.Attribute{Key: "class", Val: "num"})
	}
	td := element(atom.Td, attrs...)
	if value != "" {
		td.AppendChild(textNode(value))
	}
	return td
}

// isNumeric reports whether a formatted cell value reads as a number,
// allowing thousands separators, a currency sign and a percent suffix.
func isNumeric(value string) bool {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, "$")
	v = strings.TrimSuffix(v, "%")
	v = strings.ReplaceAll(v, ",", "")
	if v == "" {
		return false
	}
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// sanitizeCSS keeps stylesheet text from closing the style element it is
// rendered into. Style children are written raw, unescaped.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// rodRenderer prints with go-rod. Rod downloads Chromium on first use when
// no browser is installed.
type rodRenderer struct {
	browser *rod.Browser
	timeout time.Duration
}

func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Pre-installed browser in containers.
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources.
func (r *rodRenderer) Close() error {
	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// RenderFromFile opens a local HTML file and prints it to a US Letter PDF.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: fileURL(filePath)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(paperWidthInches),
		PaperHeight:       floatPtr(paperHeightInches),
		MarginTop:         floatPtr(0),
		MarginBottom:      floatPtr(0),
		MarginLeft:        floatPtr(0),
		MarginRight:       floatPtr(0),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

func floatPtr(v float64) *float64 {
	return &v
}
