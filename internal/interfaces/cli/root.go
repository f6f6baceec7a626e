// Package cli implements the priviq command-line tool. Commands run the
// analysis in-process by default, or against a PriviQ server when --server
// is given.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/PriviQ/internal/bootstrap"
	"github.com/turtacn/PriviQ/internal/config"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/pkg/client"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats accepted by --output.
const (
	FormatText        = "text"
	FormatJSON        = "json"
	FormatTableOutput = "table"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
	ServerAddr   string
}

// ObjectWriter stores text in object storage and returns its reference.
type ObjectWriter interface {
	PutText(ctx context.Context, ref, text string) (string, error)
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Backend      Backend
	Objects      ObjectWriter
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration

	close func() error
}

// RootOption overrides a dependency of the command tree.
type RootOption func(*rootDeps)

type rootDeps struct {
	backend Backend
	objects ObjectWriter
}

// WithBackend skips backend construction and uses b.
func WithBackend(b Backend) RootOption {
	return func(d *rootDeps) { d.backend = b }
}

// WithObjectWriter sets the store used by the upload command.
func WithObjectWriter(w ObjectWriter) RootOption {
	return func(d *rootDeps) { d.objects = w }
}

// NewRootCommand creates the priviq command with every subcommand attached.
func NewRootCommand(opts ...RootOption) *cobra.Command {
	ro := &RootOptions{}
	deps := &rootDeps{}
	for _, o := range opts {
		o(deps)
	}

	cmd := &cobra.Command{
		Use:   "priviq",
		Short: "PriviQ scores privacy policies for risky data practices",
		Long: "PriviQ reads a privacy policy from text, a .txt file, a web page or object\n" +
			"storage and reports risky keywords, a risk score, risk categories,\n" +
			"highlighted sentences, summaries and missing compliance clauses.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, ro, deps)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cc, err := GetCLIContext(cmd); err == nil && cc.close != nil {
				return cc.close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&ro.ConfigPath, "config", "c", "", "config file path (default: PRIVIQ_* environment and built-in defaults)")
	pf.StringVar(&ro.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&ro.OutputFormat, "output", "o", FormatText, "output format (text, json, table)")
	pf.BoolVarP(&ro.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&ro.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&ro.Timeout, "timeout", 60*time.Second, "overall operation timeout")
	pf.StringVar(&ro.ServerAddr, "server", "", "PriviQ server address, e.g. http://localhost:8080 (default: analyze locally)")

	cmd.AddCommand(
		newAnalyzeCmd(),
		newClassifyCmd(),
		newScoreCmd(),
		newCategorizeCmd(),
		newHighlightCmd(),
		newSummarizeCmd(),
		newComplianceCmd(),
		newTranslateCmd(),
		newSpeakCmd(),
		newLanguagesCmd(),
		newUploadCmd(),
		newVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, ro *RootOptions, deps *rootDeps) error {
	switch strings.ToLower(ro.OutputFormat) {
	case FormatText, FormatJSON, FormatTableOutput:
	default:
		return errors.New(errors.ErrCodeValidation, "invalid output format").
			WithDetail("expected text, json or table, got " + ro.OutputFormat)
	}

	cfg, err := config.LoadOrDefault(ro.ConfigPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger, err := initLogger(ro)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cc := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Backend:      deps.backend,
		Objects:      deps.objects,
		OutputFormat: strings.ToLower(ro.OutputFormat),
		Verbose:      ro.Verbose,
		NoColor:      ro.NoColor,
		Timeout:      ro.Timeout,
	}

	if cc.Backend == nil {
		if err := initBackend(cmd.Context(), cc, ro); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))
	return nil
}

// initLogger writes console logs to stderr so stdout stays machine-readable.
func initLogger(ro *RootOptions) (logging.Logger, error) {
	level := strings.ToLower(ro.LogLevel)
	if ro.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

func initBackend(ctx context.Context, cc *CLIContext, ro *RootOptions) error {
	if ro.ServerAddr != "" {
		c, err := client.NewClient(ro.ServerAddr,
			client.WithTimeout(ro.Timeout),
			client.WithUserAgent("priviq-cli/"+Version),
		)
		if err != nil {
			return err
		}
		cc.Backend = NewRemoteBackend(c)
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	// Local runs fetch on the user's own network.
	cc.Config.Source.AllowPrivateHosts = true
	comps, err := bootstrap.New(ctx, cc.Config, cc.Logger)
	if err != nil {
		return fmt.Errorf("analysis initialization failed: %w", err)
	}
	cc.Backend = NewLocalBackend(comps.Service)
	if cc.Objects == nil && comps.Objects != nil {
		cc.Objects = comps.Objects
	}
	cc.close = comps.Close
	return nil
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cc == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return cc, nil
}

// withTimeout derives the operation context for a command.
func (cc *CLIContext) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if cc.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), cc.Timeout)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Overrides the root hook; printing the version needs no backend.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "priviq %s\n  commit: %s\n  built:  %s\n", Version, GitCommit, BuildDate)
		},
	}
}
