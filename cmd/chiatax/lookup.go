package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/brojonat/chiatax/client"
	"github.com/brojonat/chiatax/service/config"
	"github.com/brojonat/chiatax/service/metrics"
	"github.com/brojonat/chiatax/service/price"
	"github.com/brojonat/chiatax/service/report"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// configFromContext builds the run configuration from flags, the environment
// and the config file. The API key is read from the file only when no key
// was given on the command line.
func configFromContext(c *cli.Context) (config.Config, error) {
	loc, err := config.ParseLocation(c.String("timezone"))
	if err != nil {
		return config.Config{}, err
	}

	apiKey := c.String("api-key")
	if apiKey == "" {
		apiKey, err = config.NewStore(c.String("config")).APIKey()
		if err != nil {
			return config.Config{}, err
		}
	}

	cfg := config.Config{
		Address:      c.String("address"),
		PriceAPI:     price.ParseKind(c.String("price-api")),
		Limit:        c.Int("limit"),
		Location:     loc,
		APIKey:       apiKey,
		SpaceScanURL: c.String("spacescan-url"),
		CoinGeckoURL: c.String("coingecko-url"),
		Debug:        c.Bool("debug"),
		MetricsFile:  c.String("metrics-file"),
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setupLogger creates a structured logger writing to w at the given level.
func setupLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func lookupAction(c *cli.Context) (err error) {
	cfg, err := configFromContext(c)
	if err != nil {
		return err
	}

	out := c.App.Writer
	logger := setupLogger(c.App.ErrWriter, cfg.LogLevel()).With("run_id", uuid.NewString())
	logger.Debug("configuration loaded",
		"address", cfg.Address,
		"price_api", cfg.PriceAPI,
		"limit", cfg.Limit,
		"timezone", cfg.TimeZone().String(),
		"config_file", c.String("config"),
	)

	m := metrics.NewMetrics(nil)
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := m.WriteTextfile(cfg.MetricsFile); werr != nil {
				logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", werr)
			}
		}()
	}

	httpClient := &http.Client{
		Timeout:   c.Duration("timeout"),
		Transport: metrics.InstrumentTransport(m, nil),
	}

	explorer := client.NewExplorer(cfg.SpaceScanURL, httpClient, m, logger)
	provider := price.New(cfg.PriceAPI, price.Options{
		SpaceScanURL: cfg.SpaceScanURL,
		CoinGeckoURL: cfg.CoinGeckoURL,
		APIKey:       cfg.APIKey,
		HTTPClient:   httpClient,
		Metrics:      m,
		Logger:       logger,
	})

	fmt.Fprintf(out, "Looking up address %s\n", cfg.Address)
	mojo, err := explorer.Balance(c.Context, cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}
	fmt.Fprintf(out, "Total mojo: %d\n", mojo)

	pager := client.NewPager(explorer, cfg.Address, cfg.Limit, m)
	pipeline := report.NewPipeline(pager, provider, cfg.TimeZone(), m, logger)

	summary, err := pipeline.Run(c.Context, out)
	if err != nil {
		return fmt.Errorf("report aborted after %d transaction(s): %w", summary.Rows, err)
	}

	logger.Debug("report complete",
		"rows", summary.Rows,
		"total", summary.Total,
		"pages", pager.Pages(),
	)
	return nil
}
