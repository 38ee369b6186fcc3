// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-sheetsign/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// inCI reports common CI environment markers.
func inCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	if (inCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForConverterNotFound returns hints when soffice cannot be found.
func ForConverterNotFound() string {
	hints := []string{"install LibreOffice (apt-get install libreoffice-calc)"}
	if os.Getenv("SHEETSIGN_SOFFICE") == "" {
		hints = append(hints, "or set SHEETSIGN_SOFFICE to the soffice binary")
	}
	hints = append(hints, "or use --backend chrome for xlsx files")
	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the converter timeout.
func ForTimeout() string {
	return format("for large workbooks, use --timeout or converter.timeout")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-sheetsign/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-sheetsign") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForBlobNotFound returns a hint naming where a missing key was looked up.
func ForBlobNotFound(location string) string {
	if location == "" {
		return format("check the key exists and is not empty")
	}
	return format("check the key exists in " + location + " and is not empty")
}

// ForMissingXLSXKey explains the two ways to name the spreadsheet.
func ForMissingXLSXKey(inputKey string) string {
	return format(`pass --xlsx-key or store {"xlsx_key": "..."} under ` + inputKey)
}

// ForRedis returns a hint for Redis connection errors.
func ForRedis(addr string) string {
	if addr == "" {
		return format("set SHEETSIGN_REDIS_ADDR or store.redis.addr")
	}
	return format("check Redis is reachable at " + addr)
}

// ForImage lists the accepted image formats.
func ForImage() string {
	return format("supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
