package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/omniture/internal/output"
	"github.com/wesleyorama2/omniture/internal/stats"
	"github.com/wesleyorama2/omniture/pkg/omniture"
)

type reportOptions struct {
	metrics     []string
	from        string
	to          string
	granularity string
	segment     string
	interval    time.Duration
	maxWait     time.Duration
	stats       bool
	overtime    bool
}

func newReportCmd(a *app) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report SUITE",
		Short: "Run a report and wait for it to complete",
		Long: `Queue a ranked report for SUITE, poll until it is ready and print the
result. Metrics and segments may be given by id or by name.

Dates are passed to the API unchanged. Without --to the report covers the
single date given by --from.`,
		Example: `  omniture report my-rsid --metric pageviews --from 2013-01-01
  omniture report "My Site" --metric "Page Views" --from 2013-01-01 --to 2013-01-31 --segment Mobile -o csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.metrics, "metric", "m", nil, "Metric id or name (repeat with --overtime)")
	flags.StringVar(&opts.from, "from", time.Now().Format(time.DateOnly), "First date of the report")
	flags.StringVar(&opts.to, "to", "", "Last date of the report")
	flags.StringVarP(&opts.granularity, "granularity", "g", omniture.DefaultGranularity, "Date granularity (hour, day, week, month, quarter, year)")
	flags.StringVarP(&opts.segment, "segment", "s", "", "Segment id or name")
	flags.DurationVar(&opts.interval, "interval", 0, "Pause before each poll (default 1s)")
	flags.DurationVar(&opts.maxWait, "max-wait", 0, "Give up after this long (default no limit)")
	flags.BoolVar(&opts.stats, "stats", false, "Print API latency statistics after the report")
	flags.BoolVar(&opts.overtime, "overtime", false, "Run an over-time report instead of a ranked one")
	_ = cmd.MarkFlagRequired("metric")

	return cmd
}

func (a *app) runReport(cmd *cobra.Command, suiteKey string, opts *reportOptions) error {
	formatter, err := a.formatter()
	if err != nil {
		return err
	}

	if len(opts.metrics) > 1 && !opts.overtime {
		return fmt.Errorf("ranked reports take a single metric, got %d", len(opts.metrics))
	}

	ctx := cmd.Context()
	recorder := stats.NewRecorder()

	account, err := a.connect(ctx, recorder)
	if err != nil {
		return err
	}

	suite, err := account.Suite(suiteKey)
	if err != nil {
		return err
	}

	query := suite.Report().
		Range(opts.from, opts.to, opts.granularity).
		Filter(ctx, opts.segment, nil)
	if opts.overtime {
		metrics := make([]any, len(opts.metrics))
		for i, m := range opts.metrics {
			metrics[i] = m
		}
		query.OverTime(ctx, metrics...)
	} else {
		query.Ranked(ctx, opts.metrics[0])
	}

	if err := query.Queue(ctx); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("report_id", query.ID()).Str("suite", suite.ID()).Msg("Report queued")

	pollOpts := a.pollOptions(opts)
	if !a.verbose && output.IsTerminal(os.Stderr) {
		spin := newSpinner(cmd.ErrOrStderr(), "Waiting for report "+query.ID(), a.noColor)
		defer spin.Done()
		pollOpts = append(pollOpts, omniture.WithHeartbeat(spin.Beat))
	}

	report, err := query.Sync(ctx, pollOpts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, formatter.FormatReport(output.NewReportData(report)))
	if opts.stats {
		var pacing *omniture.PacingStats
		if p, ok := account.Pacing(); ok {
			pacing = &p
		}
		fmt.Fprint(out, formatter.FormatStats(output.NewStatsData(recorder.Summary(), pacing)))
	}

	return nil
}

// pollOptions combines the config file and flag settings; flags win
func (a *app) pollOptions(opts *reportOptions) []omniture.PollOption {
	interval := a.cfg.Interval.Std()
	if opts.interval > 0 {
		interval = opts.interval
	}
	maxWait := a.cfg.MaxWait.Std()
	if opts.maxWait > 0 {
		maxWait = opts.maxWait
	}

	var pollOpts []omniture.PollOption
	if interval > 0 {
		pollOpts = append(pollOpts, omniture.WithInterval(interval))
	}
	if maxWait > 0 {
		pollOpts = append(pollOpts, omniture.WithMaxWait(maxWait))
	}
	return pollOpts
}
