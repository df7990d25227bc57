package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"market-map/internal/format"
	"market-map/internal/region"
	"market-map/internal/report"
	"market-map/internal/session"
	"market-map/internal/simulator"
	"market-map/internal/store"
	"market-map/internal/trend"

	"github.com/spf13/cobra"
)

func newRegionsCmd() *cobra.Command {
	var filter, selected string
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List joined regions, optionally filtered by quadrant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, snap, _, cancel, err := load(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			sess := session.New(snap)
			if err := sess.SetFilter(filter); err != nil {
				return err
			}
			if selected != "" {
				if _, _, err := sess.Select(selected); err != nil {
					return err
				}
			}
			list := sess.Visible()
			return printResult(cmd, c, list, func(w io.Writer) {
				fmt.Fprintln(w, "NAME\tSIDO\tQUADRANT\tDEMAND\tSUPPLY")
				for _, r := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Sido, r.Quadrant, format.Visitors(r.Visitor), format.Count(r.Restaurant))
				}
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", region.FilterAll, "quadrant label or all")
	cmd.Flags().StringVar(&selected, "selected", "", "region kept visible regardless of the filter")
	return cmd
}

func newProvincesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provinces [sido]",
		Short: "List provinces, or the regions of one province",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, snap, _, cancel, err := load(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			if len(args) == 0 {
				sidos := snap.Regions.Provinces()
				return printResult(cmd, c, sidos, func(w io.Writer) {
					for _, s := range sidos {
						fmt.Fprintln(w, s)
					}
				})
			}
			opts := snap.Regions.InProvince(args[0])
			return printResult(cmd, c, opts, func(w io.Writer) {
				for _, o := range opts {
					fmt.Fprintf(w, "%s\t%s\n", o.Label, o.Name)
				}
			})
		},
	}
}

type inspectResult struct {
	session.Dashboard
	Trend *trend.Series `json:"trend,omitempty"`
}

func newInspectCmd() *cobra.Command {
	var (
		rate      float64
		size      int
		withTrend bool
	)
	cmd := &cobra.Command{
		Use:   "inspect <region>",
		Short: "Show every dashboard panel for one region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, snap, ctx, cancel, err := load(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			sess := session.New(snap)
			if _, err := sess.SetStoreSize(size); err != nil && !errors.Is(err, simulator.ErrNoInput) {
				return err
			}
			d, tk, err := sess.Select(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("rate") {
				res, err := sess.SetCaptureRate(rate)
				if err != nil && !errors.Is(err, simulator.ErrNoInput) {
					return err
				}
				d.Params, d.Simulation = sess.Params(), res
			}
			out := inspectResult{Dashboard: d}
			if withTrend {
				svc, _, closer, err := openTrend(c)
				if err != nil {
					return err
				}
				defer closer()
				s, _, err := sess.RefreshTrend(ctx, svc, tk, d.TrendDisplay)
				if err != nil {
					return fmt.Errorf("trend: %w", err)
				}
				out.Trend = &s
			}
			return printResult(cmd, c, out, func(w io.Writer) { writeDashboard(w, out) })
		},
	}
	cmd.Flags().Float64Var(&rate, "rate", simulator.DefaultCaptureRate, "capture rate percent (0-100)")
	cmd.Flags().IntVar(&size, "size", simulator.DefaultStoreSize, "store size in pyeong (20, 30, 40, 50, 60)")
	cmd.Flags().BoolVar(&withTrend, "trend", false, "also fetch the search trend from the store")
	return cmd
}

func oneLine(s string) string { return strings.ReplaceAll(s, "\n", " ") }

func writeDashboard(w io.Writer, d inspectResult) {
	r := d.Region
	fmt.Fprintf(w, "region\t%s\n", r.Name)
	fmt.Fprintf(w, "quadrant\t%s %s\n", d.Advice.Icon, d.Advice.BadgeLabel)
	fmt.Fprintf(w, "demand\t%s\n", d.Position.Demand)
	fmt.Fprintf(w, "supply\t%s\n", d.Position.Supply)
	if d.Persona.Available {
		fmt.Fprintf(w, "persona\t%s (%s)\n", d.Persona.Audience, d.Persona.SpendLabel)
	}
	fmt.Fprintf(w, "persona note\t%s\n", oneLine(d.Persona.Description))
	fmt.Fprintf(w, "strategy\t%s\n", oneLine(d.Advice.Strategy))
	fmt.Fprintf(w, "narrative\t%s\n", oneLine(d.Advice.Narrative))
	fmt.Fprintf(w, "params\t%s / %d평\n", format.Percent(d.Params.CaptureRatePercent), d.Params.StoreSize)
	if s := d.Simulation; s != nil {
		fmt.Fprintf(w, "monthly revenue\t%s\n", format.Won(float64(s.MonthlyRevenue)))
		fmt.Fprintf(w, "daily visitors\t%s명\n", format.Int(s.DailyVisitors))
		fmt.Fprintf(w, "per pyeong\t%s만원 (%s)\n", format.Int(s.RevenuePerArea), s.Tier)
		fmt.Fprintf(w, "verdict\t%s\n", s.Message)
	} else {
		fmt.Fprintln(w, "simulation\t-")
	}
	if t := d.Trend; t != nil {
		fmt.Fprintf(w, "trend\t%s\n", t.Title)
		for i, l := range t.Labels {
			fmt.Fprintf(w, "\t%s\t%s\n", l, format.Decimal(t.Values[i], 2))
		}
	}
}

func newSimulateCmd() *cobra.Command {
	var (
		in simulator.Input
		p  = simulator.DefaultParams()
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate revenue from raw inputs, without a region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := getContext(cmd)
			if err != nil {
				return err
			}
			res, err := simulator.Run(p, &in)
			if err != nil {
				return err
			}
			return printResult(cmd, c, res, func(w io.Writer) {
				fmt.Fprintf(w, "monthly revenue\t%s\n", format.Won(float64(res.MonthlyRevenue)))
				fmt.Fprintf(w, "daily visitors\t%s명\n", format.Int(res.DailyVisitors))
				fmt.Fprintf(w, "daily tables\t%s\n", format.Decimal(res.DailyTables, 1))
				fmt.Fprintf(w, "per pyeong\t%s만원 (%s)\n", format.Int(res.RevenuePerArea), res.Tier)
				fmt.Fprintf(w, "verdict\t%s\n", res.Message)
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&in.AnnualVisitors, "visitors", 0, "annual visitors of the region")
	f.Float64Var(&in.AvgSpend, "spend", 0, "average spend per payment (won)")
	f.Float64Var(&p.CaptureRatePercent, "rate", simulator.DefaultCaptureRate, "capture rate percent (0-100)")
	f.IntVar(&p.StoreSize, "size", simulator.DefaultStoreSize, "store size in pyeong (20, 30, 40, 50, 60)")
	_ = cmd.MarkFlagRequired("visitors")
	_ = cmd.MarkFlagRequired("spend")
	return cmd
}

type diagnosticsSummary struct {
	Regions  int            `json:"regions"`
	Personas int            `json:"personas"`
	Counts   map[string]int `json:"counts"`
}

func newDiagnosticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics",
		Short: "Summarise rows dropped while loading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, snap, _, cancel, err := load(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			sum := diagnosticsSummary{Regions: snap.Regions.Len(), Personas: snap.Personas.Len(), Counts: map[string]int{}}
			for _, d := range snap.Diagnostics {
				sum.Counts[d.Source+"/"+d.Reason]++
			}
			for _, s := range snap.PersonaSkips {
				sum.Counts[region.SourcePersona+"/"+s.Reason]++
			}
			return printResult(cmd, c, sum, func(w io.Writer) {
				fmt.Fprintf(w, "regions\t%d\n", sum.Regions)
				fmt.Fprintf(w, "personas\t%d\n", sum.Personas)
				keys := make([]string, 0, len(sum.Counts))
				for k := range sum.Counts {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(w, "%s\t%d\n", k, sum.Counts[k])
				}
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "Write regions, personas and diagnostics to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, _, cancel, err := load(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			if err := report.WriteWorkbook(args[0], snap); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), args[0])
			return nil
		},
	}
}

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render charts (png, svg or pdf by extension)",
	}

	var selected string
	scatter := &cobra.Command{
		Use:   "scatter <out>",
		Short: "Restaurants vs visitors, coloured by quadrant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, _, cancel, err := load(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			if err := report.SaveScatter(args[0], snap.Regions, selected); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), args[0])
			return nil
		},
	}
	scatter.Flags().StringVar(&selected, "selected", "", "region to highlight")

	var name string
	line := &cobra.Command{
		Use:   "trend <out>",
		Short: "Search trend of one region (or nationwide)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, snap, ctx, cancel, err := load(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			key, display := trend.National, trend.National
			if name != "" {
				r, ok := snap.Regions.ByName(name)
				if !ok {
					return fmt.Errorf("%w: %q", session.ErrUnknownRegion, name)
				}
				key, display = trend.KeyFor(r), trend.DisplayName(r)
			}
			svc, _, closer, err := openTrend(c)
			if err != nil {
				return err
			}
			defer closer()
			s, err := svc.Fetch(ctx, key, display)
			if err != nil {
				return err
			}
			if err := report.SaveTrend(args[0], s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), args[0])
			return nil
		},
	}
	line.Flags().StringVar(&name, "region", "", "region full name; empty means nationwide")

	cmd.AddCommand(scatter, line)
	return cmd
}

func newCoverageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Show which trend keys the store holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := getContext(cmd)
			if err != nil {
				return err
			}
			_, st, closer, err := openTrend(c)
			if err != nil {
				return err
			}
			defer closer()
			rows, err := st.TrendCoverage(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd, c, rows, func(w io.Writer) { writeCoverage(w, rows) })
		},
	}
}

func writeCoverage(w io.Writer, rows []store.Coverage) {
	fmt.Fprintln(w, "KEY\tPOINTS\tLATEST")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\n", r.Region, r.Points, r.Latest.Format("2006-01-02"))
	}
}
