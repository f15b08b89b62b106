package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"SumReport/internal/domain/models"
	"SumReport/internal/service/export"
	"SumReport/internal/service/format"
	"SumReport/internal/services/trendline"
	"SumReport/internal/usecase"
	xhttp "SumReport/pkg/http"

	"github.com/spf13/cobra"
)

func fitCmd() *cobra.Command {
	var (
		x       string
		ys      []string
		method  string
		percent bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a trendline to one or more y series",
		Example: `  reportctl fit --x 1,2,3,4 --y 2,4,6,8
  reportctl fit --x 1,2,3,4,5 --y 1,4,9,16,25 --method poly --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			xs, err := parseSeries(x)
			if err != nil {
				return fmt.Errorf("--x: %w", err)
			}
			series := make([]models.Series, 0, len(ys))
			for i, y := range ys {
				s, err := parseSeries(y)
				if err != nil {
					return fmt.Errorf("--y #%d: %w", i+1, err)
				}
				series = append(series, s)
			}

			svc := usecase.NewTrendlineService(trendline.NewFitter(), nil)
			res, err := svc.Fit(cmd.Context(), usecase.FitParams{X: xs, Ys: series, Method: method, Percent: percent})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			for i, r := range res {
				fmt.Fprintf(out, "series %d (%s):\n%s\n", i, r.Method, r.Summary)
				if r.Stats != nil && r.Method != "moving average" {
					fmt.Fprintf(out, "R²: %.4f\n", r.Stats.RSquared)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&x, "x", "", "comma separated x values")
	cmd.Flags().StringArrayVar(&ys, "y", nil, "comma separated y values, repeat for more series")
	cmd.Flags().StringVar(&method, "method", "ols", "ols, poly or moving average")
	cmd.Flags().BoolVar(&percent, "percent", false, "scale y values by 100")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print full results as JSON")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func scenarioCmd(opts *rootOptions) *cobra.Command {
	var (
		fund     string
		duration float64
		yield    float64
		coupon   float64
		rul      float64
		weights  string
		costs    string
	)
	cmd := &cobra.Command{
		Use:     "scenario",
		Short:   "Compute horizon return and rate shocks for given key figures",
		Example: `  reportctl scenario --fund Alpha --duration 5.12 --yield 0.0475 --coupon 0.0325 --weights USD=0.6,GBP=0.4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			w, err := parseRates(weights)
			if err != nil {
				return fmt.Errorf("--weights: %w", err)
			}
			c, err := parseRates(costs)
			if err != nil {
				return fmt.Errorf("--costs: %w", err)
			}

			row := opts.builder(cfg).Compute(cmd.Context(), usecase.ScenarioParams{
				Fund: fund,
				RUL:  rul,
				KeyFigures: models.KeyFigures{
					ModifiedDuration: duration,
					EffectiveYield:   yield,
					Coupon:           coupon,
				},
				Costs:   c,
				Weights: w,
			})
			return opts.printTable(cmd, &models.Table{Rows: []models.FundRow{row}}, row.Warnings)
		},
	}
	cmd.Flags().StringVar(&fund, "fund", "", "fund name")
	cmd.Flags().Float64Var(&duration, "duration", 0, "modified duration")
	cmd.Flags().Float64Var(&yield, "yield", 0, "effective yield as a fraction")
	cmd.Flags().Float64Var(&coupon, "coupon", 0, "coupon as a fraction")
	cmd.Flags().Float64Var(&rul, "rul", 0, "realized unlevered figure")
	cmd.Flags().StringVar(&weights, "weights", "", "hedge weights, e.g. USD=0.6,GBP=0.4")
	cmd.Flags().StringVar(&costs, "costs", "", "hedge costs, e.g. USD=0.025,GBP=0.02")
	return cmd
}

func tableCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Scan the report directory and print the fund table",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, closeFn, err := opts.offlineTable()
			if err != nil {
				return err
			}
			defer closeFn()

			tbl, err := table.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			var warnings []models.Warning
			for _, r := range tbl.Rows {
				warnings = append(warnings, r.Warnings...)
			}
			if err := opts.printTable(cmd, tbl, warnings); err != nil {
				return err
			}
			for _, e := range tbl.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", e.Source, e.Message)
			}
			return nil
		},
	}
}

func exportCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Scan the report directory and write the fund table to an XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, closeFn, err := opts.offlineTable()
			if err != nil {
				return err
			}
			defer closeFn()

			tbl, err := table.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.WriteXLSX(f, tbl); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(tbl.Rows), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "funds.xlsx", "output file")
	return cmd
}

func refreshCmd() *cobra.Command {
	var (
		baseURL string
		async   bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Ask a running service to rebuild the fund table",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := xhttp.NewClient(xhttp.WithBaseURL(baseURL), xhttp.WithTimeout(timeout))
			var resp xhttp.APIResponse
			err := client.SendAndParse(cmd.Context(), &xhttp.RequestOptions{
				Method:      http.MethodPost,
				URL:         "api/funds/refresh",
				QueryParams: map[string][]string{"async": {fmt.Sprint(async)}},
			}, &resp)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resp.Status == http.StatusAccepted {
				fmt.Fprintln(out, "refresh accepted")
				return nil
			}
			data, err := json.Marshal(resp.Data)
			if err != nil {
				return err
			}
			var tbl models.Table
			if err := json.Unmarshal(data, &tbl); err != nil {
				return fmt.Errorf("decode table: %w", err)
			}
			fmt.Fprintf(out, "refreshed %d rows, %d skipped, batch %s\n", len(tbl.Rows), len(tbl.Errors), tbl.BatchID)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "service base URL")
	cmd.Flags().BoolVar(&async, "async", false, "queue the refresh and return immediately")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "request timeout")
	return cmd
}

func (o *rootOptions) printTable(cmd *cobra.Command, tbl *models.Table, warnings []models.Warning) error {
	md := format.Markdown(tbl)
	rendered, err := o.render(md)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning %s: %s\n", w.Code, w.Message)
	}
	return nil
}
