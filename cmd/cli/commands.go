package main

import (
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cellfade/adapters/excel"
	"cellfade/adapters/stats/aggregate"
	"cellfade/adapters/stats/telemetry"
	"cellfade/app"
	"cellfade/domain/analysis"
	"cellfade/domain/battery"
	"cellfade/domain/core"
	"cellfade/internal/testkit"
)

func newSynthesizeCmd(opts *rootOptions) *cobra.Command {
	var seed int64
	var chart bool

	cmd := &cobra.Command{
		Use:   "synthesize [test-id]",
		Short: "Synthesize per-cycle telemetry for one test",
		Long: `Synthesize per-cycle telemetry for one test.

Example: cellfade synthesize BT-001 --seed 42 --chart`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			id, err := core.ParseTestID(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = c.Config.Analysis.Seed
			}
			series, err := c.Analytics.CycleSeries(cmd.Context(), id, seed)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), series)
			}

			out := cmd.OutOrStdout()
			if chart {
				retention := telemetry.RetentionSeries(series.Test, series.Cycles)
				fmt.Fprintln(out, renderSeries(retention, fmt.Sprintf("%s retention %% every %d cycles", id, telemetry.CycleStep)))
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CYCLE\tCAPACITY\tEFFICIENCY\tIMPEDANCE\tTEMPERATURE")
			for _, s := range series.Cycles {
				fmt.Fprintf(tw, "%d\t%.3f\t%.2f\t%.2f\t%.2f\n", s.Cycle, s.Capacity, s.Efficiency, s.Impedance, s.Temperature)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed, 0 draws fresh entropy (defaults to CELLFADE_SEED)")
	cmd.Flags().BoolVar(&chart, "chart", false, "Plot retention instead of printing a table")
	return cmd
}

// criteriaFlags binds the filter criteria to flags
type criteriaFlags struct {
	chemistries []string
	tempMin     float64
	tempMax     float64
	cRateMin    float64
	cRateMax    float64
}

func (f *criteriaFlags) bind(cmd *cobra.Command) {
	def := analysis.DefaultCriteria()
	names := make([]string, len(def.Chemistries))
	for i, c := range def.Chemistries {
		names[i] = string(c)
	}
	cmd.Flags().StringSliceVar(&f.chemistries, "chemistry", names, "Chemistries to include")
	cmd.Flags().Float64Var(&f.tempMin, "temp-min", def.Temperature.Lo, "Minimum temperature (°C)")
	cmd.Flags().Float64Var(&f.tempMax, "temp-max", def.Temperature.Hi, "Maximum temperature (°C)")
	cmd.Flags().Float64Var(&f.cRateMin, "crate-min", def.CRate.Lo, "Minimum C-rate")
	cmd.Flags().Float64Var(&f.cRateMax, "crate-max", def.CRate.Hi, "Maximum C-rate")
}

func (f *criteriaFlags) criteria() analysis.FilterCriteria {
	chems := make([]battery.Chemistry, 0, len(f.chemistries))
	for _, c := range f.chemistries {
		if c = strings.TrimSpace(c); c != "" {
			chems = append(chems, battery.ParseChemistry(c))
		}
	}
	return analysis.FilterCriteria{
		Chemistries: chems,
		Temperature: analysis.Range{Lo: f.tempMin, Hi: f.tempMax},
		CRate:       analysis.Range{Lo: f.cRateMin, Hi: f.cRateMax},
	}
}

func newFilterCmd(opts *rootOptions) *cobra.Command {
	flags := &criteriaFlags{}

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "List tests matching chemistry, temperature and C-rate criteria",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			tests, err := c.Analytics.FilterTests(cmd.Context(), flags.criteria())
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), tests)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCELL\tCHEMISTRY\tCYCLE\tTEMP\tC-RATE\tSTATUS")
			for _, t := range tests {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.0f\t%.1f\t%s\n", t.ID, t.CellID, t.Chemistry, t.CurrentCycle, t.Temperature, t.CRate, t.Status)
			}
			return tw.Flush()
		},
	}

	flags.bind(cmd)
	return cmd
}

func newFitCmd(opts *rootOptions) *cobra.Command {
	flags := &criteriaFlags{}
	var seed int64
	var kind string
	var checkpoint int
	var chart bool

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a retention curve per chemistry over synthesized telemetry",
		Long: `Filter tests, synthesize their telemetry and fit a retention curve per chemistry.

Example: cellfade fit --kind quadratic --seed 7 --chemistry NMC,LFP --chart`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			req := app.AnalysisRequest{
				Criteria:   flags.criteria(),
				Kind:       c.Config.Analysis.Regression,
				Checkpoint: c.Config.Analysis.Checkpoint,
				Seed:       c.Config.Analysis.Seed,
			}
			if kind != "" {
				if req.Kind, err = analysis.ParseKind(kind); err != nil {
					return err
				}
			}
			if checkpoint != 0 {
				req.Checkpoint = analysis.Checkpoint(checkpoint)
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = seed
			}

			report, err := c.Analytics.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), report)
			}
			return printFits(cmd, report, chart)
		},
	}

	flags.bind(cmd)
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (defaults to CELLFADE_SEED)")
	cmd.Flags().StringVar(&kind, "kind", "", "linear, exponential, polynomial or quadratic (defaults to CELLFADE_REGRESSION)")
	cmd.Flags().IntVar(&checkpoint, "checkpoint", 0, "Reference checkpoint: 500, 1000 or 2000")
	cmd.Flags().BoolVar(&chart, "chart", false, "Plot observed vs fitted retention per chemistry")
	return cmd
}

func printFits(cmd *cobra.Command, report *app.AnalysisReport, chart bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d tests, %d chemistries\n\n", report.RunID, len(report.Series), len(report.Fits))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "CHEMISTRY\tTESTS\tPOINTS\tKIND\tR²\tRETENTION@%d\tNOTE\n", report.Checkpoint)
	for _, f := range report.Fits {
		note := describe(f)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%.4f\t%.1f\t%s\n",
			f.Series.Chemistry, f.Series.Tests, len(f.Series.Cycles), f.Fit.Kind, f.RSquared,
			report.Retention[f.Series.Chemistry], note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if chart {
		for _, f := range report.Fits {
			if f.Fit.Empty() {
				continue
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderFit(f.Series.Retention, f.Fit.Y, fmt.Sprintf("%s observed (blue) vs %s fit (red)", f.Series.Chemistry, f.Fit.Kind)))
		}
	}
	return nil
}

func describe(f app.ChemistryFit) string {
	if f.ErrorCode != "" {
		return "not enough data: " + f.Error
	}
	co := f.Fit.Coefficients
	switch f.Fit.Kind {
	case analysis.KindExponential:
		return fmt.Sprintf("y = %.3f·e^(%.3gx)", co.A, co.B)
	case analysis.KindPolynomial, analysis.KindQuadratic:
		return fmt.Sprintf("y = %.3f + %.3gx + %.3gx²", co.Intercept, co.Slope, co.Curvature)
	default:
		return fmt.Sprintf("y = %.3f + %.3gx", co.Intercept, co.Slope)
	}
}

func newKPIsCmd(opts *rootOptions) *cobra.Command {
	var checkpoint int

	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "Show dashboard KPIs and reference retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			n := c.Config.Analysis.Checkpoint
			if checkpoint != 0 {
				n = analysis.Checkpoint(checkpoint)
			}
			kpis, err := c.Analytics.KPIs(cmd.Context())
			if err != nil {
				return err
			}
			retention, err := c.Analytics.Retention(cmd.Context(), n, nil)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"kpis": kpis, "checkpoint": n, "retention": retention})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total cells:        %d\n", kpis.TotalCells)
			fmt.Fprintf(out, "Avg cycles to 80%%:  %.0f\n", kpis.AvgCyclesTo80)
			fmt.Fprintf(out, "Tests in progress:  %d\n", kpis.TestsInProgress)
			fmt.Fprintf(out, "Completed tests:    %d\n", kpis.CompletedTests)
			fmt.Fprintf(out, "\nRetention at %d cycles:\n", n)

			chems := make([]string, 0, len(retention))
			for chem := range retention {
				chems = append(chems, string(chem))
			}
			sort.Strings(chems)
			for _, chem := range chems {
				fmt.Fprintf(out, "  %-4s %5.1f%%\n", chem, retention[battery.Chemistry(chem)])
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&checkpoint, "checkpoint", 0, "Reference checkpoint: 500, 1000 or 2000")
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [test-ids...]",
		Short: "Summarize a selection of tests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			ids := make([]core.TestID, 0, len(args))
			for _, a := range args {
				id, err := core.ParseTestID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			summary, err := c.Analytics.Report(cmd.Context(), ids)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), summary)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Selected tests: %d\n", summary.SelectedTests)
			fmt.Fprintf(out, "Chemistries:    %d\n", summary.Chemistries)
			fmt.Fprintf(out, "Active tests:   %d\n", summary.ActiveTests)
			fmt.Fprintf(out, "Total cycles:   %d\n", summary.TotalCycles)
			if len(summary.Missing) > 0 {
				fmt.Fprintf(out, "Unknown ids:    %v\n", summary.Missing)
			}
			return nil
		},
	}
	return cmd
}

func newDistributionCmd(opts *rootOptions) *cobra.Command {
	var field string
	var seed int64

	cmd := &cobra.Command{
		Use:   "distribution [chemistry]",
		Short: "Summarize display samples around a reference statistic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = c.Config.Analysis.Seed
			}
			dist, err := c.Analytics.Distribution(cmd.Context(), battery.ParseChemistry(args[0]), aggregate.StatField(field), seed)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), dist)
			}
			s := dist.Summary
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (n=%d)\nmin %.2f  q1 %.2f  median %.2f  q3 %.2f  max %.2f\nmean %.2f  sd %.2f\n",
				dist.Chemistry, dist.Field, s.Count, s.Min, s.Q1, s.Median, s.Q3, s.Max, s.Mean, s.StdDev)
			return nil
		},
	}

	cmd.Flags().StringVar(&field, "field", string(aggregate.FieldEfficiency), "Reference statistic to spread")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed, 0 draws fresh entropy (defaults to CELLFADE_SEED)")
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-fixtures [path.xlsx]",
		Short: "Write the canonical tests and chemistry table to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := excel.WriteWorkbook(args[0], testkit.CanonicalTests(), testkit.CanonicalChemistryStats()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.Server().ListenAndServe(ctx, ":"+c.Config.Server.Port)
		},
	}
}
