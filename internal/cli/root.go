package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/anonto42/wisora/internal/client"
	"github.com/anonto42/wisora/internal/engagement"
	"github.com/anonto42/wisora/pkg/logger"
)

const defaultAPI = "http://localhost:8080/api/v1"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	API          string
	Token        string
	User         string
	PollInterval time.Duration
	Verbose      bool
	Format       string // "json" | "text"

	// remote replaces the HTTP client in tests.
	remote engagement.Remote
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the wisora CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wisora",
		Short:         "Wisora engagement client",
		Long:          "Like, follow, read notifications and work with comment threads on a Wisora server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.API, "api", envOr("WISORA_API", defaultAPI), "API base URL (env WISORA_API)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("WISORA_TOKEN"), "bearer token (env WISORA_TOKEN)")
	cmd.PersistentFlags().StringVar(&opts.User, "user", os.Getenv("WISORA_USER"), "id of the signed-in user (env WISORA_USER)")
	cmd.PersistentFlags().DurationVar(&opts.PollInterval, "poll-interval", engagement.DefaultPollInterval, "notification poll interval")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLikeCommand(opts))
	cmd.AddCommand(NewFollowCommand(opts))
	cmd.AddCommand(NewNotificationsCommand(opts))
	cmd.AddCommand(NewCommentsCommand(opts))
	cmd.AddCommand(NewAnswersCommand(opts))

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// engine builds the engagement engine for one command run. Diagnostics go
// to errOut.
func (o *RootOptions) engine(errOut io.Writer) *engagement.Engine {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	log := logger.NewWithWriter(errOut, "wisora-cli", level, true)

	remote := o.remote
	if remote == nil {
		remote = client.New(o.API, o.Token, nil, log)
	}
	session := engagement.Session{UserID: o.User, Token: o.Token}
	return engagement.NewEngine(session, remote, engagement.Config{PollInterval: o.PollInterval}, log)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// Execute runs the root command and returns the process exit code.
func Execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	code := GetExitCode(err)
	f := &OutputFormatter{Format: formatFlag(cmd), Writer: cmd.ErrOrStderr()}
	_ = f.Error(errorCode(err), err.Error(), nil)
	return code
}

func formatFlag(cmd *cobra.Command) string {
	if fl := cmd.PersistentFlags().Lookup("format"); fl != nil {
		return fl.Value.String()
	}
	return "text"
}
