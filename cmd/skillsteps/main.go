// SkillSteps - AI learning path generator.
// Entry point: serve the HTTP API, apply migrations, or serve MCP tools over stdio.

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/skillsteps/skillsteps/internal/api"
	"github.com/skillsteps/skillsteps/internal/api/mcptools"
	"github.com/skillsteps/skillsteps/internal/domain/learning"
	"github.com/skillsteps/skillsteps/internal/infra/config"
	"github.com/skillsteps/skillsteps/internal/infra/llm"
	"github.com/skillsteps/skillsteps/internal/infra/logger"
	"github.com/skillsteps/skillsteps/internal/infra/sqlite"
	"github.com/skillsteps/skillsteps/internal/infra/telemetry"
	"github.com/skillsteps/skillsteps/internal/server"
	"github.com/skillsteps/skillsteps/internal/version"
	pkgauth "github.com/skillsteps/skillsteps/pkg/auth"
)

const instrumentationName = "github.com/skillsteps/skillsteps"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("skillsteps", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	if fs.NArg() == 0 {
		// Default: print version
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	var handler func(context.Context, config.Config, io.Writer) error
	switch cmd {
	case "serve":
		handler = serve
	case "migrate":
		handler = migrate
	case "mcp":
		handler = serveMCP
	default:
		fmt.Fprintf(out, "unknown command %q\n\n", cmd) //nolint:errcheck
		printHelp(out)
		return 2
	}

	cmdFlags := flag.NewFlagSet(cmd, flag.ContinueOnError)
	cmdFlags.SetOutput(io.Discard)
	configPath := cmdFlags.String("config", "", "Path to a YAML config file")
	if err := cmdFlags.Parse(cmdArgs); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err) //nolint:errcheck
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := handler(ctx, cfg, out); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err) //nolint:errcheck
		return 1
	}
	return 0
}

// serve runs the HTTP API until SIGINT/SIGTERM.
func serve(ctx context.Context, cfg config.Config, _ io.Writer) error {
	if err := pkgauth.CheckSecret(); err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, version.Version, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Warn("telemetry shutdown failed", "error", err.Error())
		}
	}()

	db, err := openDB(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}

	gen, err := newGenerator(ctx, cfg, log,
		learning.WithMeter(tel.MeterProvider.Meter(instrumentationName)),
		learning.WithTracer(tel.TracerProvider.Tracer(instrumentationName)),
	)
	if err != nil {
		db.Close() //nolint:errcheck
		return err
	}

	handler := api.NewRouter(api.Deps{
		DB:        db,
		Generator: gen,
		Logger:    log,
		Metrics:   tel.MetricsHandler,
	})

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.HTTP.Host
	srvCfg.Port = cfg.HTTP.Port
	return server.NewServer(handler, db, srvCfg, log).Run(ctx)
}

// migrate applies pending migrations and reports the schema version.
func migrate(ctx context.Context, cfg config.Config, out io.Writer) error {
	if err := ensureDBDir(cfg.Database.Path); err != nil {
		return err
	}
	db, err := sqlite.NewDB(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	applied, err := sqlite.MigrateUp(ctx, db)
	if err != nil {
		return err
	}
	v, err := sqlite.MigrationVersion(ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "applied %d migration(s), schema version %d (%s)\n", applied, v, cfg.Database.Path) //nolint:errcheck
	return nil
}

// serveMCP serves the generation tools over stdio. stdout carries the
// protocol, so logs go to stderr (zap's default sink).
func serveMCP(ctx context.Context, cfg config.Config, _ io.Writer) error {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	gen, err := newGenerator(ctx, cfg, log)
	if err != nil {
		return err
	}
	err = mcptools.ServeStdio(ctx, gen, version.Version)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openDB creates the database directory if needed and opens a migrated database.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, err
	}
	return sqlite.Open(ctx, path)
}

func ensureDBDir(path string) error {
	if path == sqlite.MemoryPath {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}

// newGenerator builds the facade over the provider selected by cfg. A
// missing API key is logged, not fatal: each call then fails with a
// configuration error.
func newGenerator(ctx context.Context, cfg config.Config, log *logger.Logger, opts ...learning.Option) (*learning.Generator, error) {
	settings := cfg.LLMSettings()
	if err := settings.Validate(); err != nil {
		log.Warn("completion client not configured", "error", err.Error())
	}

	provider, err := llm.NewRouterFromSettings(settings, nil, log.Sugar()).Route(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("completion provider selected", "provider", settings.Provider, "model", settings.Sampling.Model)
	return learning.NewGenerator(settings, provider, append([]learning.Option{learning.WithLogger(log)}, opts...)...), nil
}

func printHelp(out io.Writer) {
	helpText := `SkillSteps - AI learning path generator

Usage:
  skillsteps [options]
  skillsteps <command> [--config file]

Options:
  --version    Show version information
  --help       Show this help message

Commands:
  serve        Start the HTTP API
  migrate      Run database migrations
  mcp          Serve the generation tools over MCP stdio

Examples:
  skillsteps --version
  skillsteps serve --config skillsteps.yaml
  skillsteps migrate`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
