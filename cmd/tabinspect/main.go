// Package main provides the CLI entry point for tabinspect.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Varen-6/tabular-viewer-test-task/internal/profile"
	"github.com/Varen-6/tabular-viewer-test-task/internal/tabular"
)

var (
	asJSON    bool
	delimiter string
	sheet     string
	rows      int
	withStats bool
	parallel  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tabinspect [flags] FILE...",
		Short: "Preview tabular files from the command line",
		Long: `tabinspect runs local files through the same resolve and load pipeline
as the web viewer and prints each file's columns and leading rows.

A file that needs a parameter it cannot supply itself (an undetectable
delimiter, a workbook with several sheets) is reported with the question
it would ask; answer it up front with --delimiter or --sheet. Those
flags apply to every file on the command line.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of text")
	rootCmd.Flags().StringVarP(&delimiter, "delimiter", "d", "", "column delimiter for delimited files (skips detection)")
	rootCmd.Flags().StringVarP(&sheet, "sheet", "s", "", "sheet to load from workbooks")
	rootCmd.Flags().IntVarP(&rows, "rows", "n", tabular.PreviewRowLimit, "preview row count")
	rootCmd.Flags().BoolVar(&withStats, "profile", false, "add per-column statistics")
	rootCmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "files inspected at once")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// report is one file's inspection outcome. Exactly one of Needs, Error,
// or Preview is set.
type report struct {
	File    string           `json:"file"`
	Format  string           `json:"format,omitempty"`
	Needs   *needs           `json:"needs,omitempty"`
	Error   string           `json:"error,omitempty"`
	Preview *tabular.Preview `json:"preview,omitempty"`
	Profile *profile.Report  `json:"profile,omitempty"`
}

type needs struct {
	Kind    string   `json:"kind"`
	Options []string `json:"options,omitempty"`
}

func run(cmd *cobra.Command, args []string) error {
	if rows <= 0 {
		rows = tabular.PreviewRowLimit
	}
	if parallel <= 0 {
		parallel = 1
	}

	reports := make([]report, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(parallel)
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = inspect(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		for i, rep := range reports {
			if i > 0 {
				fmt.Fprintln(out)
			}
			renderText(out, rep)
		}
	}

	failed := 0
	for _, rep := range reports {
		if rep.Error != "" || rep.Needs != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be previewed", failed, len(args))
	}
	return nil
}

// inspect resolves and loads one file. Failures and input requests land
// in the report rather than aborting the other files.
func inspect(path string) report {
	rep := report{File: path}

	res, req, err := tabular.Resolve(path, tabular.Params{Delimiter: delimiter, Sheet: sheet})
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	if req != nil {
		rep.Needs = &needs{Kind: string(req.Kind), Options: req.Options}
		return rep
	}
	rep.Format = res.Format.String()

	ds, err := tabular.Load(path, res)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Preview = ds.Preview(rows)

	if withStats {
		p, err := profile.Build(ds)
		if err != nil {
			rep.Error = err.Error()
			return rep
		}
		rep.Profile = p
	}
	return rep
}

func renderText(w io.Writer, rep report) {
	switch {
	case rep.Error != "":
		fmt.Fprintf(w, "%s: %s\n", rep.File, rep.Error)
	case rep.Needs != nil && rep.Needs.Kind == string(tabular.InputSheet):
		fmt.Fprintf(w, "%s: workbook has several sheets, pick one with --sheet:\n", rep.File)
		for _, opt := range rep.Needs.Options {
			fmt.Fprintf(w, "  %s\n", opt)
		}
	case rep.Needs != nil:
		fmt.Fprintf(w, "%s: delimiter could not be detected, supply one with --delimiter\n", rep.File)
	default:
		p := rep.Preview
		fmt.Fprintf(w, "%s (%s): %d columns, %d rows\n", rep.File, rep.Format, len(p.Columns), p.TotalRows)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(p.Columns, "\t"))
		for _, row := range p.Rows {
			cells := make([]string, len(p.Columns))
			for i, c := range p.Columns {
				cells[i] = row[c].String()
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		tw.Flush()
		if rep.Profile != nil {
			renderProfile(w, rep.Profile)
		}
	}
}

func renderProfile(w io.Writer, rep *profile.Report) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "column\tkind\tcount\tmissing\tsummary")
	for _, c := range rep.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", c.Name, c.Kind, c.Count, c.Missing, summarize(c))
	}
	tw.Flush()
}

func summarize(c profile.ColumnProfile) string {
	switch {
	case c.Numeric != nil:
		n := c.Numeric
		return fmt.Sprintf("mean=%.4g median=%.4g min=%.4g max=%.4g stddev=%.4g",
			n.Mean, n.Median, n.Min, n.Max, n.StdDev)
	case c.Text != nil:
		return fmt.Sprintf("%d distinct", c.Text.Distinct)
	case c.Date != nil:
		return fmt.Sprintf("%s to %s", c.Date.Min, c.Date.Max)
	}
	return ""
}
