package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	sheetsign "github.com/alnah/go-sheetsign"
	"github.com/alnah/go-sheetsign/internal/config"
	"github.com/alnah/go-sheetsign/internal/hints"
	"github.com/alnah/go-sheetsign/internal/logging"
)

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// runSign signs one document with the effective configuration.
func runSign(ctx context.Context, args []string, env *Environment) error {
	f, fs, err := parseSignFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}

	cfg, err := resolveConfig(f.common.config, fs, f)
	if err != nil {
		return err
	}
	env.Config = cfg

	log, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: env.Stderr,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	in, err := resolveInput(ctx, f.keys, store)
	if err != nil {
		return err
	}

	signer, err := newSigner(ctx, cfg, store, env, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := signer.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing signer")
		}
	}()

	res, err := signer.Run(ctx, in)
	if err != nil {
		return err
	}
	return printResult(env.Stdout, in, res, f.output.json)
}

// resolveConfig loads the config file, then applies env vars and flags.
// Precedence: flags > env > file > defaults.
func resolveConfig(flagConfig string, fs *flag.FlagSet, f *signFlags) (*config.Config, error) {
	envCfg := loadEnvConfig()

	name := flagConfig
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	if fs != nil && f != nil {
		mergeFlags(fs, f, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func redisOptions(r config.RedisConfig) sheetsign.RedisOptions {
	return sheetsign.RedisOptions{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
		Prefix:   r.Prefix,
	}
}

// openStore opens the configured store. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (sheetsign.Store, func(), error) {
	if strings.EqualFold(cfg.Store.Kind, config.StoreRedis) {
		s, err := sheetsign.NewRedisStore(ctx, redisOptions(cfg.Store.Redis))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}

	s, err := sheetsign.NewFileStore(cfg.Store.Dir)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}

// openDataset opens the configured record sink. None yields a nil Dataset.
func openDataset(ctx context.Context, cfg *config.Config, stdout io.Writer) (sheetsign.Dataset, error) {
	switch strings.ToLower(cfg.Dataset.Kind) {
	case config.DatasetNone:
		return nil, nil
	case config.DatasetStdout:
		return sheetsign.NewWriterDataset(stdout), nil
	case config.DatasetSQLite:
		return sheetsign.OpenSQLDataset(ctx, sheetsign.DialectSQLite, cfg.Dataset.DSN)
	case config.DatasetPostgres:
		return sheetsign.OpenSQLDataset(ctx, sheetsign.DialectPostgres, cfg.Dataset.DSN)
	case config.DatasetRedis:
		return sheetsign.NewRedisDataset(ctx, redisOptions(cfg.Dataset.Redis))
	default:
		return sheetsign.OpenJSONLDataset(cfg.Dataset.Path)
	}
}

// newConverter builds the configured conversion backend.
func newConverter(cfg *config.Config, log zerolog.Logger) (sheetsign.DocumentConverter, error) {
	timeout := cfg.TimeoutDuration()
	if strings.EqualFold(cfg.Converter.Backend, config.BackendChrome) {
		return sheetsign.NewChromeConverter(sheetsign.ChromeOptions{
			Timeout:  timeout,
			Style:    cfg.Converter.Style,
			StyleDir: cfg.Converter.StyleDir,
			Logger:   log,
		})
	}
	return sheetsign.NewLibreOfficeConverter(cfg.Converter.Binary, timeout, log), nil
}

// buildLayout applies config overrides to the default template.
func buildLayout(cfg *config.Config) sheetsign.Layout {
	layout := sheetsign.DefaultLayout()
	if cfg.Layout.DateFormat != "" {
		layout.DateFormat = cfg.Layout.DateFormat
	}
	if cfg.Layout.PageCap > 0 {
		layout.PageCap = cfg.Layout.PageCap
	}
	if cfg.Layout.SignatureMarker != "" {
		layout.SignatureMarker = cfg.Layout.SignatureMarker
	}
	if cfg.Layout.DateMarker != "" {
		layout.DateMarker = cfg.Layout.DateMarker
	}
	return layout
}

// newSigner wires converter, dataset and layout into a Signer. On error
// everything opened here is closed.
func newSigner(ctx context.Context, cfg *config.Config, store sheetsign.Store, env *Environment, log zerolog.Logger) (*sheetsign.Signer, error) {
	conv, err := newConverter(cfg, log)
	if err != nil {
		return nil, err
	}
	dataset, err := openDataset(ctx, cfg, env.Stdout)
	if err != nil {
		_ = conv.Close()
		return nil, err
	}

	opts := []sheetsign.Option{
		sheetsign.WithLogger(log),
		sheetsign.WithConverter(conv),
		sheetsign.WithLayout(buildLayout(cfg)),
		sheetsign.WithClock(env.Now),
		sheetsign.WithDate(cfg.Layout.Date),
		sheetsign.WithSpreadsheetCheck(cfg.Spreadsheet.Check),
	}
	if dataset != nil {
		opts = append(opts, sheetsign.WithDataset(dataset))
	}

	signer, err := sheetsign.NewSigner(store, opts...)
	if err != nil {
		_ = conv.Close()
		if dataset != nil {
			_ = dataset.Close()
		}
		return nil, err
	}
	return signer, nil
}

// resolveInput builds the run input from key flags, or reads the INPUT
// record from the store when no key flag is set.
func resolveInput(ctx context.Context, k keyFlags, store sheetsign.Store) (sheetsign.Input, error) {
	if k.xlsx != "" || k.signature != "" || k.blank != "" {
		in := sheetsign.Input{
			XLSXKey:       k.xlsx,
			SignatureKey:  k.signature,
			BlankImageKey: k.blank,
		}.WithDefaults()
		return in, in.Validate()
	}

	data, err := store.Get(ctx, sheetsign.InputKey)
	if errors.Is(err, sheetsign.ErrBlobNotFound) {
		return sheetsign.Input{}, fmt.Errorf("%w: no key flags and no %s record", sheetsign.ErrMissingXLSXKey, sheetsign.InputKey)
	}
	if err != nil {
		return sheetsign.Input{}, err
	}
	return sheetsign.ParseInput(data)
}

// runSummary is the --json output of a run.
type runSummary struct {
	RunID       string `json:"run_id"`
	Status      string `json:"status"`
	Input       string `json:"xlsx_key"`
	OutputKey   string `json:"output_file"`
	Date        string `json:"date"`
	SourcePages int    `json:"source_pages"`
	OutputPages int    `json:"output_pages"`
	Dropped     int    `json:"dropped_pages"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

func printResult(w io.Writer, in sheetsign.Input, res *sheetsign.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runSummary{
			RunID:       res.RunID,
			Status:      res.Record.Status,
			Input:       in.XLSXKey,
			OutputKey:   res.OutputKey,
			Date:        res.DateText,
			SourcePages: res.Report.SourcePages,
			OutputPages: res.Report.OutputPages,
			Dropped:     res.Report.Dropped,
			ElapsedMS:   res.Elapsed.Milliseconds(),
		})
	}

	fmt.Fprintf(w, "Signed %s -> %s (%d pages", in.XLSXKey, res.OutputKey, res.Report.OutputPages)
	if res.Report.Dropped > 0 {
		fmt.Fprintf(w, ", %d dropped", res.Report.Dropped)
	}
	fmt.Fprintf(w, ") in %s\n", res.Elapsed.Round(time.Millisecond))
	return nil
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, cfg *config.Config) string {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	redisStore := strings.EqualFold(cfg.Store.Kind, config.StoreRedis)

	switch {
	case errors.Is(err, sheetsign.ErrConverterNotFound):
		return hints.ForConverterNotFound()
	case errors.Is(err, sheetsign.ErrConversionTimeout):
		return hints.ForTimeout()
	case errors.Is(err, sheetsign.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, sheetsign.ErrMissingXLSXKey):
		return hints.ForMissingXLSXKey(sheetsign.InputKey)
	case errors.Is(err, sheetsign.ErrBlobNotFound):
		if redisStore {
			return hints.ForBlobNotFound("redis " + cfg.Store.Redis.Addr)
		}
		return hints.ForBlobNotFound(cfg.Store.Dir)
	case errors.Is(err, sheetsign.ErrInvalidImage):
		return hints.ForImage()
	case errors.Is(err, sheetsign.ErrStore) && redisStore:
		return hints.ForRedis(cfg.Store.Redis.Addr)
	case errors.Is(err, sheetsign.ErrDataset) && strings.EqualFold(cfg.Dataset.Kind, config.DatasetRedis):
		return hints.ForRedis(cfg.Dataset.Redis.Addr)
	}
	return ""
}
