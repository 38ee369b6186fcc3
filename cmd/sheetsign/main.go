package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Command names.
const (
	cmdSign    = "sign"
	cmdDoctor  = "doctor"
	cmdConfig  = "config"
	cmdVersion = "version"
	cmdHelp    = "help"
)

func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// isCommand reports whether arg names a subcommand.
func isCommand(arg string) bool {
	switch arg {
	case cmdSign, cmdDoctor, cmdConfig, cmdVersion, cmdHelp:
		return true
	}
	return false
}

// runMain dispatches to a subcommand and returns the process exit code.
// Without a command, or when the first argument is a flag, sign runs.
func runMain(args []string, env *Environment) int {
	warnUnknownEnvVars(env.Stderr)

	rest := args[1:]
	cmd := cmdSign
	if len(rest) > 0 && !isFlag(rest[0]) {
		cmd, rest = rest[0], rest[1:]
	}

	switch cmd {
	case cmdSign:
		ctx, stop := notifyContext(context.Background())
		defer stop()
		return reportError(env, runSign(ctx, rest, env))
	case cmdDoctor:
		ctx, stop := notifyContext(context.Background())
		defer stop()
		return runDoctorCmd(ctx, rest, env)
	case cmdConfig:
		return reportError(env, runConfigCmd(rest, env))
	case cmdVersion:
		fmt.Fprintf(env.Stdout, "sheetsign %s\n", Version)
		return ExitSuccess
	case cmdHelp:
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

func isFlag(arg string) bool {
	return len(arg) > 1 && arg[0] == '-'
}

// reportError prints err and maps it to an exit code.
func reportError(env *Environment, err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, env.Config))
	return exitCodeFor(err)
}
