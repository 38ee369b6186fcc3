package main

import (
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-sheetsign/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// keyFlags name the input blobs. All empty means "read INPUT".
type keyFlags struct {
	xlsx      string
	signature string
	blank     string
}

// storeFlags select the key-value store.
type storeFlags struct {
	kind      string
	dir       string
	redisAddr string
}

// datasetFlags select the record sink.
type datasetFlags struct {
	kind string
	path string
	dsn  string
}

// converterFlags select the conversion backend.
type converterFlags struct {
	backend  string
	soffice  string
	timeout  string
	style    string
	styleDir string
}

// layoutFlags override the stamping template.
type layoutFlags struct {
	date       string
	dateFormat string
	pageCap    int
	noCheck    bool
}

// outputFlags control what the CLI prints.
type outputFlags struct {
	json      bool
	logLevel  string
	logFormat string
}

// signFlags holds all flags for the sign command.
type signFlags struct {
	common    commonFlags
	keys      keyFlags
	store     storeFlags
	dataset   datasetFlags
	converter converterFlags
	layout    layoutFlags
	output    outputFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only log errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details")
}

func addKeyFlags(fs *flag.FlagSet, f *keyFlags) {
	fs.StringVar(&f.xlsx, "xlsx-key", "", "store key of the spreadsheet")
	fs.StringVar(&f.signature, "signature-key", "", "store key of the signature image (default \"signature.png\")")
	fs.StringVar(&f.blank, "blank-key", "", "store key of the blank-line image (default \"line.png\")")
}

// addStoreFlags adds store flags to a FlagSet.
func addStoreFlags(fs *flag.FlagSet, f *storeFlags) {
	fs.StringVar(&f.kind, "store", "", "key-value store: file, redis")
	fs.StringVarP(&f.dir, "store-dir", "d", "", "file store directory")
	fs.StringVar(&f.redisAddr, "redis-addr", "", "Redis address for store and dataset")
}

func addDatasetFlags(fs *flag.FlagSet, f *datasetFlags) {
	fs.StringVar(&f.kind, "dataset", "", "record sink: jsonl, stdout, sqlite, postgres, redis, none")
	fs.StringVar(&f.path, "dataset-path", "", "JSON Lines file for the jsonl dataset")
	fs.StringVar(&f.dsn, "dataset-dsn", "", "sqlite file or postgres URL")
}

func addConverterFlags(fs *flag.FlagSet, f *converterFlags) {
	fs.StringVarP(&f.backend, "backend", "b", "", "conversion backend: libreoffice, chrome")
	fs.StringVar(&f.soffice, "soffice", "", "soffice binary name or path")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "conversion timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.style, "style", "", "chrome backend stylesheet: sheet, compact")
	fs.StringVar(&f.styleDir, "style-dir", "", "directory of custom {name}.css stylesheets")
}

func addLayoutFlags(fs *flag.FlagSet, f *layoutFlags) {
	fs.StringVar(&f.date, "date", "", "stamped date: \"auto\", \"auto:FORMAT\", or literal")
	fs.StringVar(&f.dateFormat, "date-format", "", "format of \"auto\" dates (tokens or preset)")
	fs.IntVar(&f.pageCap, "page-cap", 0, "maximum pages kept in the output")
	fs.BoolVar(&f.noCheck, "no-check", false, "skip opening xlsx inputs before conversion")
}

func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.BoolVar(&f.json, "json", false, "print the run result as JSON")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, disabled")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")
}

// newSignFlagSet registers every sign flag on a fresh FlagSet.
func newSignFlagSet(f *signFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	addCommonFlags(fs, &f.common)
	addKeyFlags(fs, &f.keys)
	addStoreFlags(fs, &f.store)
	addDatasetFlags(fs, &f.dataset)
	addConverterFlags(fs, &f.converter)
	addLayoutFlags(fs, &f.layout)
	addOutputFlags(fs, &f.output)
	return fs
}

// parseSignFlags parses sign command flags. The FlagSet is returned so
// callers can tell set flags from defaults.
func parseSignFlags(args []string, stderr io.Writer) (*signFlags, *flag.FlagSet, error) {
	f := &signFlags{}
	fs := newSignFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printSignUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// mergeFlags applies explicitly set flags over cfg.
func mergeFlags(fs *flag.FlagSet, f *signFlags, cfg *config.Config) {
	changed := fs.Changed

	if changed("store") {
		cfg.Store.Kind = f.store.kind
	}
	if changed("store-dir") {
		cfg.Store.Dir = f.store.dir
	}
	if changed("redis-addr") {
		cfg.Store.Redis.Addr = f.store.redisAddr
		cfg.Dataset.Redis.Addr = f.store.redisAddr
	}

	if changed("dataset") {
		cfg.Dataset.Kind = f.dataset.kind
	}
	if changed("dataset-path") {
		cfg.Dataset.Path = f.dataset.path
	}
	if changed("dataset-dsn") {
		cfg.Dataset.DSN = f.dataset.dsn
	}

	if changed("backend") {
		cfg.Converter.Backend = f.converter.backend
	}
	if changed("soffice") {
		cfg.Converter.Binary = f.converter.soffice
	}
	if changed("timeout") {
		cfg.Converter.Timeout = f.converter.timeout
	}
	if changed("style") {
		cfg.Converter.Style = f.converter.style
	}
	if changed("style-dir") {
		cfg.Converter.StyleDir = f.converter.styleDir
	}

	if changed("date") {
		cfg.Layout.Date = f.layout.date
	}
	if changed("date-format") {
		cfg.Layout.DateFormat = f.layout.dateFormat
	}
	if changed("page-cap") {
		cfg.Layout.PageCap = f.layout.pageCap
	}
	if f.layout.noCheck {
		cfg.Spreadsheet.Check = false
	}

	switch {
	case changed("log-level"):
		cfg.Log.Level = f.output.logLevel
	case f.common.verbose:
		cfg.Log.Level = "debug"
	case f.common.quiet:
		cfg.Log.Level = "error"
	}
	if changed("log-format") {
		cfg.Log.Format = f.output.logFormat
	}
}
