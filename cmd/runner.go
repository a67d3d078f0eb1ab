package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsheet/internal/repositories"
	"github.com/desertthunder/playsheet/internal/services"
	"github.com/desertthunder/playsheet/internal/shared"
	"github.com/desertthunder/playsheet/internal/tasks"
	"github.com/desertthunder/playsheet/internal/ui"
	"github.com/urfave/cli/v3"
)

// console is the operator surface of the CLI: the import prompts plus provider selection and status lines.
type console interface {
	tasks.Operator
	Choose(ctx context.Context, title string, options []string) (int, bool)
	Status(message string)
	OnInterrupt(fn func())
}

// providerFactory connects to the named provider ("spotify" or "youtube"), authorizing when needed.
type providerFactory func(ctx context.Context, config *shared.Config, name string) (services.Provider, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	console    console
	connect    providerFactory
	consent    services.ConsentFunc
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config skips loading the config file when set.
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Console    console
	// Connect replaces the OAuth-backed provider factory.
	Connect providerFactory
	// Consent replaces the browser consent flow.
	Consent services.ConsentFunc
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Console == nil {
		opts.Console = ui.NewTerminal(os.Stdin, opts.Output, opts.Logger)
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		console:    opts.Console,
		connect:    opts.Connect,
		consent:    opts.Consent,
	}
	if r.connect == nil {
		r.connect = r.connectProvider
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		importCommand, authCommand, sheetCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "playsheet",
		Usage:    "Build Spotify & YouTube playlists from spreadsheets",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.before,
		Commands: r.register(),
	}
}

// before applies the global flags that do not depend on the config file.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}
	return ctx, nil
}

// loadConfig reads the config file once. When required is false a missing file falls back to the defaults.
func (r *Runner) loadConfig(cmd *cli.Command, required bool) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := r.configPath
	if path == "" {
		path = cmd.String("config")
	}

	var config *shared.Config
	if _, err := os.Stat(path); err != nil && !required {
		r.logger.Debug("config file not found, using defaults", "path", path)
		config = shared.DefaultConfig()
	} else if config, err = shared.LoadConfig(path); err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(cmd.String("env")); err != nil {
		return nil, err
	}

	r.config = config
	return config, nil
}

// openHistory opens the history database and applies pending migrations.
func (r *Runner) openHistory(config *shared.Config) (*sql.DB, *repositories.RunRepository, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, repositories.NewRunRepository(db), nil
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return r.writeBytes(output)
}

// writeBytes writes b followed by a newline when b does not already end with one.
func (r *Runner) writeBytes(b []byte) error {
	if len(b) == 0 || b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
