package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"insightsfetch/internal/config"
	"insightsfetch/internal/logging"
	"insightsfetch/internal/query"
	"insightsfetch/internal/report"
	"insightsfetch/internal/service"
)

type options struct {
	hours         int
	limit         int
	exceptionType string
	message       string
	output        string

	envFile   string
	logLevel  string
	logFormat string
}

// params converts the flags into query parameters. A filter flag that was
// given, even as an empty string, is applied.
func (o *options) params(fs *pflag.FlagSet) query.Params {
	p := query.Params{Hours: o.hours, Limit: o.limit}
	if fs.Changed("type") {
		p.Type = query.Filter(o.exceptionType)
	}
	if fs.Changed("message") {
		p.Message = query.Filter(o.message)
	}
	return p
}

func (o *options) newLogger(w io.Writer) (*zap.Logger, error) {
	return logging.New(o.logLevel, o.logFormat, w)
}

func addFetchFlags(fs *pflag.FlagSet, o *options) {
	fs.IntVarP(&o.hours, "hours", "H", query.DefaultHours, "Number of hours to look back")
	fs.IntVarP(&o.limit, "limit", "l", query.DefaultLimit, "Maximum number of exceptions to return")
	fs.StringVarP(&o.exceptionType, "type", "t", "", "Filter by exception type (e.g. SqlException)")
	fs.StringVarP(&o.message, "message", "m", "", "Filter by a substring of the exception message")
	fs.StringVarP(&o.output, "output", "o", report.FormatText, "Output format: 'text' or 'json'")
}

func addGlobalFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVar(&o.envFile, "env-file", config.DefaultEnvFile, "Optional dotenv file loaded before reading the environment")
	fs.StringVar(&o.logLevel, "log-level", "warn", "Logging level: 'debug', 'info', 'warn', or 'error'")
	fs.StringVar(&o.logFormat, "log-format", logging.FormatConsole, "Log output format: 'console' or 'json'")
}

// NewRootCommand builds the insightsfetch command tree. Reports go to stdout,
// logs go to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "insightsfetch",
		Short: "Fetch recent exception telemetry from Application Insights",
		Long: `insightsfetch queries the exceptions table of an Application Insights app
and prints the most recent entries.

Credentials are read from APP_INSIGHTS_APP_ID and APP_INSIGHTS_API_KEY, which
may also be placed in a .env file in the working directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), opts, cmd.Flags(), stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addFetchFlags(cmd.Flags(), opts)
	addGlobalFlags(cmd.PersistentFlags(), opts)

	cmd.AddCommand(newServeCommand(opts, stderr))
	return cmd
}

func runFetch(ctx context.Context, opts *options, fs *pflag.FlagSet, stdout, stderr io.Writer) error {
	format, err := report.ParseFormat(opts.output)
	if err != nil {
		return err
	}
	logger, err := opts.newLogger(stderr)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}

	clientCfg := cfg.ClientConfig()
	clientCfg.Logger = logger
	client := service.NewInsightsClient(clientCfg)

	params := opts.params(fs)
	if format == report.FormatText {
		if err := report.WriteBanner(stdout, params.Hours, params.Limit); err != nil {
			return err
		}
	}

	records, err := client.FetchRecentExceptions(ctx, params)
	if err != nil {
		return errors.Wrap(err, "fetch recent exceptions")
	}
	logger.Info("Fetched exceptions", zap.Int("count", len(records)))

	return report.Write(stdout, format, records, params.Hours)
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", describe(err))
		return 1
	}
	return 0
}

func describe(err error) string {
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) && len(cfgErr.Missing) > 0 {
		return err.Error() + " (set them in the environment or in a .env file)"
	}
	return err.Error()
}
