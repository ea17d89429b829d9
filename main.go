package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/rs/zerolog"

	"github.com/gigurra/subscription-insights/internal"
)

type Params struct {
	File        string   `descr:"Path to the activity line payload (prefix with source: to pick a source, e.g. activity-xlsx:export.xlsx)" positional:"true"`
	Source      string   `descr:"Data source type (json, activity-xlsx); inferred from the file prefix when empty" optional:"true"`
	Config      string   `descr:"Path to config file (default ~/.subscription-insights/config.yaml)" optional:"true"`
	Output      string   `descr:"Output format" alts:"table,json,xlsx" strict:"true" default:"table"`
	Out         string   `descr:"Output file for the xlsx format" default:"subscription-insights.xlsx"`
	Currency    string   `descr:"Currency code (e.g. SEK, USD); overrides config and locale" optional:"true"`
	Tags        []string `descr:"Only show subscriptions with these tags" optional:"true"`
	Sort        string   `descr:"Sort the subscriptions table by field" alts:"name,vendor,amount,start,end" strict:"true" default:"name"`
	SortDir     string   `descr:"Sort direction" alts:"asc,desc" strict:"true" default:"asc"`
	RenewalFrom string   `descr:"Start of the renewal window (YYYY-MM-DD)" optional:"true"`
	RenewalTo   string   `descr:"End of the renewal window, inclusive (YYYY-MM-DD)" optional:"true"`
	Today       string   `descr:"Compute as if today were this date (YYYY-MM-DD)" optional:"true"`
	Verbose     bool     `descr:"Enable debug logging" short:"v" optional:"true"`
}

func main() {
	boa.NewCmdT[Params]("subscription-insights").
		WithShort("Expand and aggregate subscription contracts").
		WithLong("Reads subscription activity lines, expands renewing contracts into one record per billing period, and reports monthly, department, vendor and category spend together with the most expensive subscriptions.").
		WithRunFunc(func(params *Params) {
			logger := newLogger(os.Stderr, params.Verbose)
			ctx := logger.WithContext(context.Background())
			if err := run(ctx, params, os.Stdout); err != nil {
				logger.Error().Err(err).Msg("subscription-insights failed")
				os.Exit(1)
			}
		}).
		Run()
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

func run(ctx context.Context, params *Params, stdout io.Writer) error {
	logger := zerolog.Ctx(ctx)

	cfg, err := loadConfig(params.Config)
	if err != nil {
		return err
	}
	if err := applyRenewalFlags(cfg, params.RenewalFrom, params.RenewalTo); err != nil {
		return err
	}
	if params.Source != "" && !internal.IsKnownSource(params.Source) {
		return fmt.Errorf("unknown source %q (available: %v)", params.Source, internal.AvailableSources())
	}

	payload, err := internal.LoadPayload(params.Source, params.File)
	if err != nil {
		return fmt.Errorf("loading %s: %w", params.File, err)
	}
	logger.Debug().Str("file", params.File).Int("bytes", len(payload)).Msg("payload loaded")

	currencyCode := params.Currency
	if currencyCode == "" {
		currencyCode = cfg.Currency
	}
	currency := internal.ResolveCurrency(currencyCode)

	engine := internal.NewEngine(cfg)
	if params.Today != "" {
		today, err := time.Parse("2006-01-02", params.Today)
		if err != nil {
			return fmt.Errorf("invalid --today %q: %w", params.Today, err)
		}
		engine.WithClock(func() time.Time { return today })
	}

	var sink internal.Sink
	switch params.Output {
	case "json":
		sink = internal.NewJSONSink(stdout, currency, cfg)
	case "xlsx":
		sink = internal.NewXLSXSink(params.Out)
	default:
		sink = internal.NewTableSink(stdout, internal.OutputOptions{
			TagFilter: params.Tags,
			SortField: params.Sort,
			SortDir:   params.SortDir,
			Currency:  currency,
			Config:    cfg,
		})
	}

	res, err := engine.Publish(ctx, payload, sink)
	if err != nil {
		return err
	}
	if res.Stats.Skipped > 0 {
		logger.Warn().Int("skipped", res.Stats.Skipped).Int("total", res.Stats.Total).Msg("some activity lines could not be read")
	}
	if params.Output == "xlsx" {
		logger.Info().Str("path", params.Out).Msg("report written")
	}
	return nil
}

func loadConfig(path string) (*internal.Config, error) {
	if path != "" {
		return internal.LoadConfig(path)
	}
	return internal.LoadConfigOrDefault(internal.DefaultConfigPath())
}

func applyRenewalFlags(cfg *internal.Config, from, to string) error {
	if from == "" && to == "" {
		return nil
	}
	if from == "" || to == "" {
		return fmt.Errorf("--renewal-from and --renewal-to must be given together")
	}
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return fmt.Errorf("invalid --renewal-from %q: %w", from, err)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return fmt.Errorf("invalid --renewal-to %q: %w", to, err)
	}
	if end.Before(start) {
		return fmt.Errorf("--renewal-to %s is before --renewal-from %s", to, from)
	}
	cfg.SetRenewalWindow(internal.DateRange{Start: start, End: end.AddDate(0, 0, 1).Add(-time.Nanosecond)})
	return nil
}
