// Package cli: the marketmap command. Every subcommand loads the sources once, prints to stdout
// in text or json, and logs to stderr.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"market-map/internal/config"
	"market-map/internal/dataset"
	"market-map/internal/logger"
	"market-map/internal/store"
	"market-map/internal/trend"
	"market-map/internal/utils"

	"github.com/spf13/cobra"
)

var errStoreDisabled = errors.New("trend store disabled (TREND_STORE_ENABLED=false)")

type rootOptions struct {
	sources  config.Sources
	logLevel string
	output   string
	timeout  time.Duration
}

type cliContext struct {
	cfg     *config.Config
	src     dataset.Sources
	output  string
	timeout time.Duration
}

type cliContextKey struct{}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "marketmap",
		Short: "Restaurant market map: regions, personas, strategy and revenue simulation",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.sources.Supply, "supply", "", "supply/demand CSV path or URL (default SUPPLY_SOURCE)")
	pf.StringVar(&opts.sources.Master, "master", "", "region master CSV path or URL (default MASTER_SOURCE)")
	pf.StringVar(&opts.sources.Persona, "persona", "", "persona CSV path or URL (default PERSONA_SOURCE)")
	pf.StringVar(&opts.sources.SupplyEncoding, "supply-encoding", "", "supply encoding: utf-8, euc-kr")
	pf.StringVar(&opts.sources.MasterEncoding, "master-encoding", "", "master encoding: utf-8, euc-kr")
	pf.StringVar(&opts.sources.PersonaEncoding, "persona-encoding", "", "persona encoding: utf-8, euc-kr")
	pf.StringVar(&opts.sources.PersonaPolicy, "persona-policy", "", "duplicate persona rows: last_row, highest_spend")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.output, "output", "o", "text", "output format (text, json)")
	pf.DurationVar(&opts.timeout, "timeout", 30*time.Second, "load and query timeout")

	cmd.AddCommand(
		newRegionsCmd(),
		newProvincesCmd(),
		newInspectCmd(),
		newSimulateCmd(),
		newDiagnosticsCmd(),
		newExportCmd(),
		newChartCmd(),
		newCoverageCmd(),
	)
	return cmd
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func persistentPreRun(cmd *cobra.Command, opts *rootOptions) error {
	switch strings.ToLower(opts.output) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	s := &cfg.Sources
	override(&s.Supply, opts.sources.Supply)
	override(&s.Master, opts.sources.Master)
	override(&s.Persona, opts.sources.Persona)
	override(&s.SupplyEncoding, opts.sources.SupplyEncoding)
	override(&s.MasterEncoding, opts.sources.MasterEncoding)
	override(&s.PersonaEncoding, opts.sources.PersonaEncoding)
	override(&s.PersonaPolicy, opts.sources.PersonaPolicy)
	override(&cfg.LogLevel, opts.logLevel)

	logger.SetupWith(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

	c := &cliContext{
		cfg:     cfg,
		src:     dataset.FromConfig(cfg.Sources),
		output:  strings.ToLower(opts.output),
		timeout: opts.timeout,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, c))
	return nil
}

func getContext(cmd *cobra.Command) (*cliContext, error) {
	c, ok := cmd.Context().Value(cliContextKey{}).(*cliContext)
	if !ok || c == nil {
		return nil, errors.New("cli context not initialised")
	}
	return c, nil
}

// load reads every source; the returned context carries the command timeout.
func load(cmd *cobra.Command) (*cliContext, *dataset.Snapshot, context.Context, context.CancelFunc, error) {
	c, err := getContext(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	snap, err := dataset.Load(ctx, c.src)
	if err != nil {
		cancel()
		return nil, nil, nil, nil, err
	}
	return c, snap, ctx, cancel, nil
}

// openTrend: store-backed trend service. Redis is used when enabled.
func openTrend(c *cliContext) (*trend.Service, *store.Store, func(), error) {
	if !c.cfg.Postgres.Enabled {
		return nil, nil, nil, errStoreDisabled
	}
	st, err := store.Open(c.cfg.Postgres)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := utils.OpenRedis(c.cfg.Redis)
	closer := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = st.Close()
	}
	return trend.NewService(st, rdb, c.cfg.Trend.LRUSize, c.cfg.Trend.CacheTTL), st, closer, nil
}

// printResult writes data as indented JSON, or hands a tabwriter to text.
func printResult(cmd *cobra.Command, c *cliContext, data any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if c.output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

// Execute runs the command tree against the process arguments.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
