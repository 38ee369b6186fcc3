package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	sheetsign "github.com/alnah/go-sheetsign"
	"github.com/alnah/go-sheetsign/internal/config"
	"github.com/alnah/go-sheetsign/internal/hints"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

const versionProbeTimeout = 15 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status      string       `json:"status"` // "ready", "warnings", "errors"
	Backend     string       `json:"backend"`
	LibreOffice binaryInfo   `json:"libreoffice"`
	Chrome      chromeInfo   `json:"chrome"`
	Store       storeInfo    `json:"store"`
	Env         envInfo      `json:"environment"`
	System      systemInfo   `json:"system"`
	Warnings    []string     `json:"warnings,omitempty"`
	Errors      []string     `json:"errors,omitempty"`
	probe       versionProbe
}

// binaryInfo holds converter executable detection results.
type binaryInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	binaryInfo
	Sandbox bool `json:"sandbox"`
}

// storeInfo holds key-value store reachability.
type storeInfo struct {
	Kind      string `json:"kind"`
	Location  string `json:"location"`
	Reachable bool   `json:"reachable"`
	Input     bool   `json:"input_record"` // INPUT key present
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// versionProbe runs "<binary> --version".
type versionProbe func(ctx context.Context, binary string) (string, error)

func execVersion(ctx context.Context, binary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, "--version").Output() // #nosec G204 -- detected binary
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad usage.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	jsonOutput := fs.Bool("json", false, "print diagnostics as JSON")
	configName := fs.StringP("config", "c", "", "config file name or path")
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		return reportError(env, fmt.Errorf("%w: %w", ErrUsage, err))
	}

	cfg, err := resolveConfig(*configName, nil, nil)
	if err != nil {
		return reportError(env, err)
	}
	env.Config = cfg

	result := runDoctor(ctx, cfg, execVersion)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, cfg *config.Config, probe versionProbe) *doctorResult {
	result := &doctorResult{
		Status:  statusReady,
		Backend: strings.ToLower(cfg.Converter.Backend),
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
		probe: probe,
	}

	checkLibreOffice(ctx, result, cfg)
	checkChrome(ctx, result)
	checkEnvironment(result)
	checkSystem(result)
	checkStore(ctx, result, cfg)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// problem records msg as an error when required, as a warning otherwise.
func (r *doctorResult) problem(required bool, msg string) {
	if required {
		r.Errors = append(r.Errors, msg)
		return
	}
	r.Warnings = append(r.Warnings, msg)
}

// checkLibreOffice detects the soffice binary the libreoffice backend uses.
func checkLibreOffice(ctx context.Context, result *doctorResult, cfg *config.Config) {
	required := result.Backend == config.BackendLibreOffice

	conv := sheetsign.NewLibreOfficeConverter(cfg.Converter.Binary, cfg.TimeoutDuration(), zerolog.Nop())
	path, err := conv.Binary()
	if err != nil {
		result.problem(required, "LibreOffice not found. Install it or set SHEETSIGN_SOFFICE")
		return
	}

	result.LibreOffice.Found = true
	result.LibreOffice.Path = path
	if version, err := result.probe(ctx, path); err == nil {
		result.LibreOffice.Version = version
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get LibreOffice version: %v", err))
	}
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(ctx context.Context, result *doctorResult) {
	required := result.Backend == config.BackendChrome
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.problem(required, "Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.problem(required, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath
	if version, err := result.probe(ctx, chromePath); err == nil {
		result.Chrome.Version = version
	} else if required {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
	}
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Backend == config.BackendChrome && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("SHEETSIGN_CONTAINER") == "1" {
		return true, "SHEETSIGN_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used for workspaces.
func checkSystem(result *doctorResult) {
	dir, err := os.MkdirTemp("", "sheetsign-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	_ = os.RemoveAll(dir)
	result.System.TempWritable = true
}

// checkStore opens the configured store and looks for an INPUT record.
func checkStore(ctx context.Context, result *doctorResult, cfg *config.Config) {
	result.Store.Kind = strings.ToLower(cfg.Store.Kind)
	if result.Store.Kind == config.StoreRedis {
		result.Store.Location = cfg.Store.Redis.Addr
	} else {
		result.Store.Location, _ = filepath.Abs(cfg.Store.Dir)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Store not reachable: %v", err))
		return
	}
	defer closeStore()
	result.Store.Reachable = true

	if _, err := store.Get(ctx, sheetsign.InputKey); err == nil {
		result.Store.Input = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	ok := color.New(color.FgGreen).Sprint("[OK]")
	warn := color.New(color.FgYellow).Sprint("[WARN]")
	bad := color.New(color.FgRed).Sprint("[ERROR]")
	info := color.New(color.Faint).Sprint("[--]")

	missing := func(required bool) string {
		if required {
			return bad
		}
		return info
	}

	fmt.Fprintln(w, "sheetsign doctor")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Converter (backend: %s)\n", r.Backend)
	if r.LibreOffice.Found {
		fmt.Fprintf(w, "  %s LibreOffice: %s\n", ok, r.LibreOffice.Path)
		if r.LibreOffice.Version != "" {
			fmt.Fprintf(w, "  %s Version: %s\n", ok, r.LibreOffice.Version)
		}
	} else {
		fmt.Fprintf(w, "  %s LibreOffice: not found\n", missing(r.Backend == config.BackendLibreOffice))
	}
	if r.Chrome.Found {
		fmt.Fprintf(w, "  %s Chrome: %s\n", ok, r.Chrome.Path)
		if r.Chrome.Sandbox {
			fmt.Fprintf(w, "  %s Sandbox: enabled\n", ok)
		} else {
			fmt.Fprintf(w, "  %s Sandbox: disabled (ROD_NO_SANDBOX=1)\n", ok)
		}
	} else {
		fmt.Fprintf(w, "  %s Chrome: not found\n", missing(r.Backend == config.BackendChrome))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Store (%s)\n", r.Store.Kind)
	if r.Store.Reachable {
		fmt.Fprintf(w, "  %s Reachable: %s\n", ok, r.Store.Location)
		if r.Store.Input {
			fmt.Fprintf(w, "  %s %s record: present\n", ok, sheetsign.InputKey)
		} else {
			fmt.Fprintf(w, "  %s %s record: absent (pass --xlsx-key)\n", info, sheetsign.InputKey)
		}
	} else {
		fmt.Fprintf(w, "  %s Not reachable: %s\n", bad, r.Store.Location)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  %s Platform: %s/%s\n", ok, r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  %s Container: detected (%s)\n", ok, r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintf(w, "  %s CI: detected\n", ok)
	}
	if r.System.TempWritable {
		fmt.Fprintf(w, "  %s Temp directory: writable\n", ok)
	} else {
		fmt.Fprintf(w, "  %s Temp directory: not writable\n", bad)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, msg := range r.Warnings {
			fmt.Fprintf(w, "  %s %s\n", warn, msg)
		}
		fmt.Fprintln(w)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, msg := range r.Errors {
			fmt.Fprintf(w, "  %s %s\n", bad, msg)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to sign")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
