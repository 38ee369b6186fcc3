package sheetsign

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-sheetsign/internal/fileutil"
	"github.com/alnah/go-sheetsign/internal/process"
)

// DocumentConverter turns a spreadsheet file into a PDF file.
type DocumentConverter interface {
	// ToPDF converts srcPath and writes the PDF into outDir, returning its path.
	ToPDF(ctx context.Context, srcPath, outDir string) (string, error)
	Close() error
}

// Compile-time interface implementation checks.
var (
	_ DocumentConverter = (*LibreOfficeConverter)(nil)
	_ DocumentConverter = (*ChromeConverter)(nil)
)

// DefaultSofficePath is where Debian-based LibreOffice packages install the
// soffice binary.
const DefaultSofficePath = "/usr/lib/libreoffice/program/soffice"

// DefaultConversionTimeout bounds one converter run.
const DefaultConversionTimeout = 2 * time.Minute

// maxStderrInError caps converter output quoted in errors.
const maxStderrInError = 2048

// sofficeNames are looked up in PATH when DefaultSofficePath is absent.
var sofficeNames = []string{"soffice", "libreoffice"}

// LibreOfficeConverter runs soffice in headless mode.
type LibreOfficeConverter struct {
	binary  string
	timeout time.Duration
	logger  zerolog.Logger

	lookPath func(string) (string, error)
	exists   func(string) bool
}

// NewLibreOfficeConverter creates a converter. An empty binary selects
// DefaultSofficePath, then soffice or libreoffice in PATH. A zero timeout
// selects DefaultConversionTimeout.
func NewLibreOfficeConverter(binary string, timeout time.Duration, logger zerolog.Logger) *LibreOfficeConverter {
	if timeout <= 0 {
		timeout = DefaultConversionTimeout
	}
	return &LibreOfficeConverter{
		binary:   binary,
		timeout:  timeout,
		logger:   logger,
		lookPath: exec.LookPath,
		exists:   fileutil.IsExecutable,
	}
}

// Timeout returns the per-conversion timeout.
func (c *LibreOfficeConverter) Timeout() time.Duration {
	return c.timeout
}

// Binary resolves the soffice executable.
func (c *LibreOfficeConverter) Binary() (string, error) {
	if c.binary != "" {
		if fileutil.IsFilePath(c.binary) {
			if !c.exists(c.binary) {
				return "", fmt.Errorf("%w: %s", ErrConverterNotFound, c.binary)
			}
			return c.binary, nil
		}
		path, err := c.lookPath(c.binary)
		if err != nil {
			return "", fmt.Errorf("%w: %s not in PATH", ErrConverterNotFound, c.binary)
		}
		return path, nil
	}

	if c.exists(DefaultSofficePath) {
		return DefaultSofficePath, nil
	}
	for _, name := range sofficeNames {
		if path, err := c.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s and %s in PATH", ErrConverterNotFound,
		DefaultSofficePath, strings.Join(sofficeNames, ", "))
}

// ToPDF runs soffice --convert-to pdf. The LibreOffice user profile is kept
// inside outDir so concurrent runs never share one.
func (c *LibreOfficeConverter) ToPDF(ctx context.Context, srcPath, outDir string) (string, error) {
	bin, err := c.Binary()
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"-env:UserInstallation=" + fileURL(filepath.Join(outDir, "lo-profile")),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		srcPath,
	}
	cmd := exec.CommandContext(runCtx, bin, args...)
	process.Isolate(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Info().Str("bin", bin).Strs("args", args).Msg("converting spreadsheet")
	start := time.Now()
	runErr := cmd.Run()

	if runErr != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: after %s", ErrConversionTimeout, c.timeout)
		}
		return "", fmt.Errorf("%w: %s: %v: %s", ErrConversion, filepath.Base(bin), runErr, tail(stderr.String(), maxStderrInError))
	}

	c.logger.Debug().
		Str("stdout", strings.TrimSpace(stdout.String())).
		Dur("elapsed", time.Since(start)).
		Msg("converter finished")

	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	out := filepath.Join(outDir, base+".pdf")
	if !fileutil.FileExists(out) {
		return "", fmt.Errorf("%w: no PDF produced for %s: %s", ErrConversion, filepath.Base(srcPath),
			tail(stderr.String(), maxStderrInError))
	}
	return out, nil
}

// Close implements DocumentConverter. soffice holds no state between runs.
func (c *LibreOfficeConverter) Close() error {
	return nil
}

// fileURL turns a filesystem path into a file:// URL.
func fileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// tail returns the last n bytes of s, trimmed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
