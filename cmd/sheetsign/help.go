package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sheetsign [command] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  sign       Convert a spreadsheet to PDF and stamp the signature (default)")
	fmt.Fprintln(w, "  doctor     Check converters, store and environment")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'sheetsign help <command>' for details on a specific command.")
}

// printSignUsage prints usage for the sign command.
func printSignUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sheetsign sign [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch a spreadsheet and two images from the store, convert the spreadsheet")
	fmt.Fprintln(w, "to PDF, stamp the signature block on pages 1 and 2, keep at most 19 pages,")
	fmt.Fprintln(w, "store signed_<xlsx-key>.pdf and push a status record.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input (without key flags, the INPUT record of the store is used):")
	fmt.Fprintln(w, "      --xlsx-key <key>      Spreadsheet key")
	fmt.Fprintln(w, "      --signature-key <key> Signature image key (default: signature.png)")
	fmt.Fprintln(w, "      --blank-key <key>     Blank-line image key (default: line.png)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Store:")
	fmt.Fprintln(w, "      --store <s>           file, redis")
	fmt.Fprintln(w, "  -d, --store-dir <path>    File store directory")
	fmt.Fprintln(w, "      --redis-addr <addr>   Redis address (store and dataset)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Dataset:")
	fmt.Fprintln(w, "      --dataset <s>         jsonl, stdout, sqlite, postgres, redis, none")
	fmt.Fprintln(w, "      --dataset-path <path> JSON Lines file")
	fmt.Fprintln(w, "      --dataset-dsn <dsn>   sqlite file or postgres URL")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Converter:")
	fmt.Fprintln(w, "  -b, --backend <s>         libreoffice, chrome")
	fmt.Fprintln(w, "      --soffice <path>      soffice binary")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Conversion timeout (default: 2m)")
	fmt.Fprintln(w, "      --style <name>        Chrome stylesheet: sheet, compact")
	fmt.Fprintln(w, "      --style-dir <path>    Directory of custom stylesheets")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Layout:")
	fmt.Fprintln(w, "      --date <s>            Date: \"auto\", \"auto:FORMAT\", or literal")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w, "                            Presets (case-insensitive): iso, european, us, long")
	fmt.Fprintln(w, "      --date-format <s>     Format of \"auto\" (default: MM/DD/YYYY)")
	fmt.Fprintln(w, "      --page-cap <n>        Maximum output pages (default: 19)")
	fmt.Fprintln(w, "      --no-check            Skip the xlsx pre-conversion check")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --json                Print the run result as JSON")
	fmt.Fprintln(w, "      --log-level <s>       trace, debug, info, warn, error, disabled")
	fmt.Fprintln(w, "      --log-format <s>      console, json")
	fmt.Fprintln(w, "  -q, --quiet               Only log errors")
	fmt.Fprintln(w, "  -v, --verbose             Log debug details")
}

func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sheetsign doctor [--json] [-c config]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check LibreOffice, Chrome, the store and the temp directory.")
	fmt.Fprintln(w, "Exits 1 when the configured backend or the store is unusable.")
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sheetsign config [-c config]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration after merging the config file, SHEETSIGN_*")
	fmt.Fprintln(w, "environment variables and defaults. Passwords are masked.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case cmdSign:
		printSignUsage(env.Stdout)
	case cmdDoctor:
		printDoctorUsage(env.Stdout)
	case cmdConfig:
		printConfigUsage(env.Stdout)
	case cmdVersion:
		fmt.Fprintln(env.Stdout, "Usage: sheetsign version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case cmdHelp:
		fmt.Fprintln(env.Stdout, "Usage: sheetsign help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
