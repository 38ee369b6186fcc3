package main

// Notes:
// - Chrome detection depends on the host: tests assert on LibreOffice and
//   store checks, which are driven by config, and only check that Chrome
//   problems are warnings under the libreoffice backend.
// - versionProbe is replaced so no binary is executed.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-sheetsign/internal/config"
)

func fakeProbe(version string, err error) versionProbe {
	return func(context.Context, string) (string, error) { return version, err }
}

// fakeBinary creates an executable file usable as soffice.
func fakeBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soffice")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("writing fake binary: %v", err)
	}
	return path
}

func doctorConfig(t *testing.T, soffice string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Store.Dir = t.TempDir()
	cfg.Converter.Binary = soffice
	return cfg
}

func TestRunDoctor_LibreOffice(t *testing.T) {
	t.Parallel()

	t.Run("found with version", func(t *testing.T) {
		t.Parallel()

		bin := fakeBinary(t)
		r := runDoctor(context.Background(), doctorConfig(t, bin), fakeProbe("LibreOffice 7.6.4.1", nil))

		if !r.LibreOffice.Found || r.LibreOffice.Path != bin {
			t.Errorf("LibreOffice = %+v", r.LibreOffice)
		}
		if r.LibreOffice.Version != "LibreOffice 7.6.4.1" {
			t.Errorf("Version = %q", r.LibreOffice.Version)
		}
		if r.Status == statusErrors {
			t.Errorf("Status = errors: %v", r.Errors)
		}
		for _, w := range r.Warnings {
			if strings.Contains(w, "Chrome") && strings.Contains(w, "ROD_NO_SANDBOX") {
				t.Errorf("sandbox warning under libreoffice backend: %q", w)
			}
		}
	})

	t.Run("version failure is a warning", func(t *testing.T) {
		t.Parallel()

		r := runDoctor(context.Background(), doctorConfig(t, fakeBinary(t)), fakeProbe("", errors.New("exit 1")))

		if !r.LibreOffice.Found {
			t.Fatal("LibreOffice not found")
		}
		if !containsSubstr(r.Warnings, "LibreOffice version") {
			t.Errorf("Warnings = %v", r.Warnings)
		}
	})

	t.Run("missing binary is an error for the libreoffice backend", func(t *testing.T) {
		t.Parallel()

		cfg := doctorConfig(t, filepath.Join(t.TempDir(), "absent", "soffice"))
		r := runDoctor(context.Background(), cfg, fakeProbe("", nil))

		if r.LibreOffice.Found {
			t.Error("LibreOffice reported found")
		}
		if r.Status != statusErrors || !containsSubstr(r.Errors, "LibreOffice not found") {
			t.Errorf("Status = %q, Errors = %v", r.Status, r.Errors)
		}
	})

	t.Run("missing binary is a warning for the chrome backend", func(t *testing.T) {
		t.Parallel()

		cfg := doctorConfig(t, filepath.Join(t.TempDir(), "absent", "soffice"))
		cfg.Converter.Backend = config.BackendChrome
		r := runDoctor(context.Background(), cfg, fakeProbe("", nil))

		if containsSubstr(r.Errors, "LibreOffice") {
			t.Errorf("LibreOffice reported as error: %v", r.Errors)
		}
		if !containsSubstr(r.Warnings, "LibreOffice not found") {
			t.Errorf("Warnings = %v", r.Warnings)
		}
	})
}

func TestRunDoctor_Store(t *testing.T) {
	t.Parallel()

	t.Run("file store with INPUT", func(t *testing.T) {
		t.Parallel()

		cfg := doctorConfig(t, fakeBinary(t))
		if err := os.WriteFile(filepath.Join(cfg.Store.Dir, "INPUT.json"), []byte(`{"xlsx_key":"a.xlsx"}`), 0o600); err != nil {
			t.Fatal(err)
		}
		r := runDoctor(context.Background(), cfg, fakeProbe("v", nil))

		if !r.Store.Reachable || !r.Store.Input {
			t.Errorf("Store = %+v", r.Store)
		}
		if r.Store.Kind != config.StoreFile {
			t.Errorf("Store.Kind = %q", r.Store.Kind)
		}
	})

	t.Run("unwritable store path", func(t *testing.T) {
		t.Parallel()

		cfg := doctorConfig(t, fakeBinary(t))
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg.Store.Dir = filepath.Join(file, "kv") // parent is a regular file

		r := runDoctor(context.Background(), cfg, fakeProbe("v", nil))

		if r.Store.Reachable {
			t.Error("Store reported reachable")
		}
		if r.Status != statusErrors || !containsSubstr(r.Errors, "Store not reachable") {
			t.Errorf("Status = %q, Errors = %v", r.Status, r.Errors)
		}
	})
}

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	r := &doctorResult{
		Status:      statusWarnings,
		Backend:     config.BackendLibreOffice,
		LibreOffice: binaryInfo{Found: true, Path: "/usr/bin/soffice", Version: "LibreOffice 7.6"},
		Store:       storeInfo{Kind: "file", Location: "/kv", Reachable: true},
		Env:         envInfo{OS: "linux", Arch: "amd64"},
		System:      systemInfo{TempWritable: true},
		Warnings:    []string{"Chrome/Chromium not found"},
	}

	var buf bytes.Buffer
	printDoctorResult(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"sheetsign doctor",
		"[OK] LibreOffice: /usr/bin/soffice",
		"[--] Chrome: not found",
		"[OK] Reachable: /kv",
		"INPUT record: absent",
		"[WARN] Chrome/Chromium not found",
		"Status: Ready with warnings",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunDoctorCmd_JSON(t *testing.T) {
	t.Parallel()

	env, stdout, stderr := newTestEnv()
	// The store directory is created under the test temp dir by the config file.
	cfgPath := filepath.Join(t.TempDir(), "doctor.yaml")
	content := "store:\n  dir: " + filepath.ToSlash(t.TempDir()) + "\nconverter:\n  backend: chrome\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	code := runDoctorCmd(context.Background(), []string{"--json", "--config", cfgPath}, env)
	if code != ExitSuccess && code != ExitGeneral {
		t.Fatalf("runDoctorCmd() = %d\nstderr: %s", code, stderr.String())
	}

	var r doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &r); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if r.Backend != config.BackendChrome {
		t.Errorf("Backend = %q, want chrome", r.Backend)
	}
	if !r.Store.Reachable {
		t.Errorf("Store = %+v", r.Store)
	}
}

func containsSubstr(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
