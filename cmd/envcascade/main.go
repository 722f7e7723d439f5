package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/envcascade/internal/application"
	"github.com/eugenenazirov/envcascade/internal/config"
	"github.com/eugenenazirov/envcascade/internal/loader"
	"github.com/eugenenazirov/envcascade/internal/logging"
	"github.com/eugenenazirov/envcascade/internal/node"
)

var signalNotify = signal.Notify

var errNoValue = errors.New("no configuration value")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "envcascade: %v\n", err)
		os.Exit(1)
	}
}

// run parses args and executes the selected command. Configuration output
// goes to stdout, diagnostics to stderr.
func run(args []string, stdout, stderr io.Writer) error {
	app := kingpin.New("envcascade", "Layered YAML configuration loader - resolves, merges and serves environment-specific configuration")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	file := app.Flag("file", "Cascade base path, with or without extension").Short('f').Default("").String()
	envName := app.Flag("env", "Environment name (default: APP_ENV, then NODE_ENV, then production)").Short('e').String()
	local := app.Flag("local", "Include *.local override files (use --no-local to skip)").Default("true").Bool()
	logLevel := app.Flag("log-level", "Diagnostics level: debug, info, warn or error").Default("warn").String()

	printCmd := app.Command("print", "Print the merged configuration").Default()
	printOutput := printCmd.Flag("output", "Output format").Short('o').Default(formatYAML).Enum(formats...)

	getCmd := app.Command("get", "Print the value at a dotted or slash-separated path")
	getPath := getCmd.Arg("path", "Key path, for example db.host or servers/0/name").Required().String()
	getOutput := getCmd.Flag("output", "Output format").Short('o').Default(formatYAML).Enum(formats...)

	sourcesCmd := app.Command("sources", "List cascade candidates, the files that were read and unresolved placeholders")
	sourcesOutput := sourcesCmd.Flag("output", "Output format").Short('o').Default(formatYAML).Enum(formats...)

	serveCmd := app.Command("serve", "Serve the merged configuration over HTTP")
	serveConfig := serveCmd.Flag("config", "Base path of the service's own settings cascade").String()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command, err := app.Parse(args)
	if err != nil {
		return err
	}

	opts := loader.Options{
		FilePath:     *file,
		Environment:  *envName,
		ExcludeLocal: !*local,
	}

	if command == serveCmd.FullCommand() {
		overrides := &config.CLIOverrides{
			ConfigFile:  *serveConfig,
			Environment: *envName,
		}
		if *port != "" {
			overrides.Port = port
		}
		if *rateLimitRPSFlag >= 0 {
			overrides.RateLimitRPS = rateLimitRPSFlag
		}
		if *rateLimitBurstFlag >= 0 {
			overrides.RateLimitBurst = rateLimitBurstFlag
		}
		if *file != "" {
			overrides.SourceFile = file
		}
		if *envName != "" {
			overrides.SourceEnv = envName
		}
		if !*local {
			overrides.ExcludeLocal = &opts.ExcludeLocal
		}
		return serve(overrides)
	}

	logger, err := logging.NewConsoleWriter(stderr, *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	report, err := loader.New(loader.WithLogger(logger)).LoadDetailed(opts)
	if err != nil {
		return err
	}

	switch command {
	case getCmd.FullCommand():
		value, ok := report.Config.Lookup(node.SplitPath(*getPath)...)
		if !ok {
			return fmt.Errorf("%w at %q", errNoValue, *getPath)
		}
		return renderNode(stdout, value, *getOutput)
	case sourcesCmd.FullCommand():
		return renderSources(stdout, report, *sourcesOutput)
	default:
		return renderNode(stdout, report.Config, *printOutput)
	}
}

func serve(overrides *config.CLIOverrides) error {
	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
