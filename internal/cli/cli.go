package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/formulagrid/internal/app"
	"github.com/vk/formulagrid/internal/remote"
)

// Exit codes returned through ExitError.
const (
	ExitUsage    = 2
	ExitRejected = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("formulagrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
FormulaGrid - evaluates dependent arithmetic formulas over batches of records.

Usage:
  formulagrid [options] BATCH_PATH
  formulagrid --serve [options]

Arguments:
  BATCH_PATH
    A .hcl file, a directory of .hcl files, or a .json request body.

Options:
`)
		flagSet.PrintDefaults()
	}

	batchFlag := flagSet.String("batch", "", "Path to the batch file or directory.")
	bFlag := flagSet.String("b", "", "Path to the batch file or directory (shorthand).")
	configFlag := flagSet.String("config", "", "Path to a .yaml or .toml config file.")
	recordsFlag := flagSet.String("records", "", "Extra records to evaluate, a .json or .csv file (optionally .gz).")
	driverFlag := flagSet.String("records-driver", "", "database/sql driver for extra records: 'sqlite', 'postgres' or 'mysql'.")
	dsnFlag := flagSet.String("records-dsn", "", "Data source name for --records-driver.")
	queryFlag := flagSet.String("records-query", "", "Query returning one record per row.")
	workersFlag := flagSet.Int("workers", 4, "Number of records evaluated concurrently.")
	planFlag := flagSet.Bool("plan", false, "Print the execution order instead of evaluating.")
	watchFlag := flagSet.Bool("watch", false, "Re-run the batch whenever its files change.")
	serveFlag := flagSet.Bool("serve", false, "Run the HTTP and socket.io formula server.")
	httpPortFlag := flagSet.Int("http-port", 8080, "Port for the formula server.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	remoteFlag := flagSet.String("remote", "", "Submit the batch to a formula server at this URL.")
	remoteTimeoutFlag := flagSet.Duration("remote-timeout", remote.DefaultTimeout, "Timeout for a remote submission.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	if *configFlag != "" {
		fc, err := app.LoadConfigFile(*configFlag)
		if err != nil {
			return nil, false, usageError("%s", err.Error())
		}

		visited := make(map[string]bool)
		flagSet.Visit(func(f *flag.Flag) { visited[f.Name] = true })
		setString := func(name string, dst *string, v string) {
			if !visited[name] && v != "" {
				*dst = v
			}
		}
		setInt := func(name string, dst *int, v int) {
			if !visited[name] && v != 0 {
				*dst = v
			}
		}

		setString("records", recordsFlag, fc.Records)
		setString("records-driver", driverFlag, fc.Database.Driver)
		setString("records-dsn", dsnFlag, fc.Database.DSN)
		setString("records-query", queryFlag, fc.Database.Query)
		setString("remote", remoteFlag, fc.Remote.URL)
		setString("log-format", logFormatFlag, fc.LogFormat)
		setString("log-level", logLevelFlag, fc.LogLevel)
		setInt("workers", workersFlag, fc.Workers)
		setInt("http-port", httpPortFlag, fc.Server.HTTPPort)
		setInt("healthcheck-port", healthPortFlag, fc.Server.HealthcheckPort)

		if !visited["remote-timeout"] && fc.Remote.Timeout != "" {
			d, err := time.ParseDuration(fc.Remote.Timeout)
			if err != nil {
				return nil, false, usageError("invalid remote timeout %q in %s", fc.Remote.Timeout, *configFlag)
			}
			*remoteTimeoutFlag = d
		}
		slog.Debug("Config file applied.", "path", *configFlag)
	}

	path := ""
	if *batchFlag != "" {
		path = *batchFlag
	} else if *bFlag != "" {
		path = *bFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Batch path determined.", "path", path)

	if path == "" && !*serveFlag {
		slog.Debug("No batch path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	if *remoteTimeoutFlag <= 0 {
		return nil, false, usageError("invalid remote-timeout: must be positive")
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		BatchPath:       path,
		RecordsPath:     *recordsFlag,
		RecordsDriver:   strings.ToLower(*driverFlag),
		RecordsDSN:      *dsnFlag,
		RecordsQuery:    *queryFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		Workers:         *workersFlag,
		PlanOnly:        *planFlag,
		Watch:           *watchFlag,
		Serve:           *serveFlag,
		HTTPPort:        *httpPortFlag,
		HealthcheckPort: *healthPortFlag,
		RemoteURL:       *remoteFlag,
		RemoteTimeout:   *remoteTimeoutFlag,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
