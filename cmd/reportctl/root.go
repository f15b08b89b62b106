package main

import (
	"fmt"
	"strconv"
	"strings"

	"SumReport/internal/domain/models"
	"SumReport/internal/repository"
	"SumReport/internal/services/scenario"
	"SumReport/internal/usecase"
	"SumReport/pkg/cache"
	"SumReport/pkg/config"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	reportDir  string
	raw        bool
	style      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Fund summary reports, trendlines and rate scenarios",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file for hedge weights, costs and RUL (optional)")
	root.PersistentFlags().StringVar(&opts.reportDir, "dir", "", "summary report directory (overrides config)")
	root.PersistentFlags().BoolVar(&opts.raw, "raw", false, "print markdown instead of rendering it")
	root.PersistentFlags().StringVar(&opts.style, "style", "auto", "glamour style: auto, dark, light, notty")

	root.AddCommand(
		fitCmd(),
		scenarioCmd(opts),
		tableCmd(opts),
		exportCmd(opts),
		refreshCmd(),
	)
	return root
}

// loadConfig returns config.Default when no file is given.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if o.configPath == "" {
		c := config.Default()
		cfg = &c
	} else {
		c, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if o.reportDir != "" {
		cfg.Report.Dir = o.reportDir
	}
	return cfg, nil
}

func (o *rootOptions) builder(cfg *config.Config) *usecase.ReportBuilder {
	byFund := make(map[string]map[models.Currency]float64, len(cfg.Hedge.FundWeights))
	for fund, w := range cfg.Hedge.FundWeights {
		byFund[fund] = currencyRates(w)
	}
	weights := scenario.StaticWeights{ByFund: byFund, Default: currencyRates(cfg.Hedge.DefaultWeights)}
	return usecase.NewReportBuilder(weights,
		usecase.WithHedgeCosts(currencyRates(cfg.Hedge.Costs)),
		usecase.WithFundRUL(cfg.Report.RUL),
	)
}

// offlineTable builds a fund table over an in-memory store.
func (o *rootOptions) offlineTable() (*usecase.FundTable, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	mem := cache.NewMemoryCache()
	table := usecase.NewFundTable(
		repository.NewDirReportSource(cfg.Report.Dir, cfg.Report.Extensions),
		o.builder(cfg),
		repository.NewCacheTableStore(mem, 0),
		usecase.FundTableConfig{Workers: cfg.Report.Workers, Timeout: cfg.Report.RefreshTimeout},
	)
	return table, func() { _ = mem.Close() }, nil
}

func (o *rootOptions) render(md string) (string, error) {
	if o.raw {
		return md, nil
	}
	style := glamour.WithAutoStyle()
	if o.style != "" && o.style != "auto" {
		style = glamour.WithStandardStyle(o.style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(120))
	if err != nil {
		return "", fmt.Errorf("renderer: %w", err)
	}
	return r.Render(md)
}

func currencyRates(in map[string]float64) map[models.Currency]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[models.Currency]float64, len(in))
	for k, v := range in {
		out[models.NormalizeCurrency(k)] = v
	}
	return out
}

// parseSeries reads a comma separated list of numbers. "nan" and empty
// entries become NaN and are dropped by the fitter.
func parseSeries(s string) (models.Series, error) {
	parts := strings.Split(s, ",")
	out := make(models.Series, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			p = "nan"
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseRates reads "USD=0.6,GBP=0.4".
func parseRates(s string) (map[models.Currency]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	out := map[models.Currency]float64{}
	for _, p := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid rate %q, want CODE=value", p)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q: %w", p, err)
		}
		out[models.NormalizeCurrency(k)] = f
	}
	return out, nil
}
