package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lbx/internal/archive"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
	"github.com/desertthunder/lbx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	source services.ListenSource
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Source services.ListenSource
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		source: opts.Source,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. for file logging under the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, syncCommand, likesCommand, archiveCommand, usersCommand, runsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// resolveUsername returns the --user flag value, falling back to the
// configured default.
func (r *Runner) resolveUsername(cmd *cli.Command) (string, error) {
	username := cmd.String("user")
	if username == "" {
		username = r.config.ListenBrainz.Username
	}
	if username == "" {
		return "", fmt.Errorf("%w: no username given and none configured", shared.ErrMissingArgument)
	}
	return username, nil
}

// storeFor opens the archive store for a user's cache directory.
func (r *Runner) storeFor(username string) (*archive.Store, error) {
	dir, err := r.config.UserCacheDir(username)
	if err != nil {
		return nil, err
	}
	return archive.NewStore(dir, r.logger)
}

// openDatabase opens the configured SQLite database.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// engineFor builds a sync coordinator for the given user.
func (r *Runner) engineFor(username string, recorder tasks.RunRecorder) (*tasks.Coordinator, error) {
	if r.source == nil {
		return nil, fmt.Errorf("%w: ListenBrainz service not initialized", shared.ErrMissingConfig)
	}

	store, err := r.storeFor(username)
	if err != nil {
		return nil, err
	}

	engineConfig, err := tasks.ConfigFromShared(r.config)
	if err != nil {
		return nil, err
	}
	engineConfig.Username = username

	return tasks.NewCoordinator(tasks.CoordinatorOpts{
		Source:   r.source,
		Store:    store,
		Config:   engineConfig,
		Logger:   r.logger,
		Recorder: recorder,
	})
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

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
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
