package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pixtape/internal/services"
	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	vision     services.VisionClient
	llm        services.LLMClient
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config, Vision and LLM are normally left nil and built from the --config file when a command runs.
type RunnerOpts struct {
	Config     *shared.Config
	Vision     services.VisionClient
	LLM        services.LLMClient
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		vision:     opts.Vision,
		llm:        opts.LLM,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, analyzeCommand, colorCommand, sessionsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration once per process: the TOML file named by --config (defaults when it
// does not exist), then .env and PIXTAPE_* overrides. The logger is reconfigured from the result.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := shared.ApplyEnv(config, ".env"); err != nil {
		return nil, err
	}
	if err := shared.ConfigureLogger(r.logger, config.Logging); err != nil {
		return nil, err
	}

	r.logger.Debug("configuration loaded", "path", path)
	r.config = config
	return config, nil
}

// visionClient returns the injected client or builds one from config.
func (r *Runner) visionClient(cmd *cli.Command) (services.VisionClient, error) {
	if r.vision != nil {
		return r.vision, nil
	}
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	client, err := services.NewGoogleVisionClient(config.Credentials.Vision, r.httpClient)
	if err != nil {
		return nil, err
	}
	r.vision = client
	return client, nil
}

// llmClient returns the injected client or builds one from config.
func (r *Runner) llmClient(cmd *cli.Command) (services.LLMClient, error) {
	if r.llm != nil {
		return r.llm, nil
	}
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	client, err := services.NewChatClient(config.Credentials.LLM, r.httpClient, r.logger)
	if err != nil {
		return nil, err
	}
	r.llm = client
	return client, nil
}

// openDatabase opens the configured SQLite database with migrations applied.
func (r *Runner) openDatabase(ctx context.Context, cmd *cli.Command) (*sql.DB, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	r.logger.Info("opening database", "path", config.Database.Path)
	db, err := shared.OpenDatabase(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
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
