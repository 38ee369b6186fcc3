package main

import (
	"errors"
	"fmt"
	"net/url"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-sheetsign/internal/yamlutil"
)

const redacted = "********"

// runConfigCmd prints the effective configuration as YAML: the config
// file, env vars and defaults merged, secrets masked.
func runConfigCmd(args []string, env *Environment) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	configName := fs.StringP("config", "c", "", "config file name or path")
	fs.Usage = func() { printConfigUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	cfg, err := resolveConfig(*configName, nil, nil)
	if err != nil {
		return err
	}
	env.Config = cfg

	shown := *cfg
	for _, pw := range []*string{&shown.Store.Redis.Password, &shown.Dataset.Redis.Password} {
		if *pw != "" {
			*pw = redacted
		}
	}
	if shown.Dataset.DSN != "" {
		shown.Dataset.DSN = redactDSN(shown.Dataset.DSN)
	}

	out, err := yamlutil.Marshal(&shown)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(out)
	return err
}

// redactDSN masks the password of a URL-style DSN. File paths pass through.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
