package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brojonat/chiatax/client"
	"github.com/brojonat/chiatax/service/config"
	"github.com/brojonat/chiatax/service/price"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "chiatax",
		Usage: "Chia address income report with historical USD prices",
		Description: `Looks up an XCH address on SpaceScan.io and prints one CSV line per
received (non-dust) transaction, priced in USD at the time it was received:

   timestamp,amount,$unit_price,$fiat_value,explorer_url[,,,,memo]

Prices come from SpaceScan (default) or CoinGecko. CoinGecko needs an API key,
stored once with --configure.

Thanks for using chiatax at your own risk! :)`,
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Aliases:  []string{"a"},
				Usage:    "the address to look up (xch1...)",
				EnvVars:  []string{"CHIATAX_ADDRESS"},
				Category: "Lookup:",
			},
			&cli.StringFlag{
				Name:     "price-api",
				Aliases:  []string{"p"},
				Value:    string(price.KindSpaceScan),
				Usage:    "the price API to use {SpaceScan|CoinGecko}; unknown names fall back to SpaceScan",
				EnvVars:  []string{"CHIATAX_PRICE_API"},
				Category: "Lookup:",
			},
			&cli.IntFlag{
				Name:     "limit",
				Aliases:  []string{"l"},
				Value:    client.DefaultPageSize,
				Usage:    fmt.Sprintf("API fetch/batch size (1-%d)", config.MaxLimit),
				Category: "Lookup:",
			},
			&cli.StringFlag{
				Name:     "timezone",
				Aliases:  []string{"tz"},
				Usage:    "time zone for report timestamps (default: local time)",
				EnvVars:  []string{"CHIATAX_TIMEZONE"},
				Category: "Lookup:",
			},
			&cli.DurationFlag{
				Name:     "timeout",
				Value:    30 * time.Second,
				Usage:    "per-request timeout for external APIs (0 waits forever)",
				Category: "Lookup:",
			},
			&cli.StringFlag{
				Name:     "configure",
				Usage:    "store a CoinGecko API key in the config file and exit",
				Category: "API configuration:",
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Value:    config.DefaultPath,
				Usage:    "path to the INI config file holding the API key",
				EnvVars:  []string{"CHIATAX_CONFIG"},
				Category: "API configuration:",
			},
			&cli.StringFlag{
				Name:     "api-key",
				Usage:    "CoinGecko API key (overrides the config file)",
				EnvVars:  []string{"COINGECKO_API_KEY"},
				Category: "API configuration:",
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "write Prometheus metrics for the run to this file (textfile collector format)",
				EnvVars: []string{"CHIATAX_METRICS_FILE"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "toggle verbose logging, including raw API requests and responses",
			},
			&cli.StringFlag{
				Name:   "spacescan-url",
				Value:  client.DefaultSpaceScanURL,
				Hidden: true,
			},
			&cli.StringFlag{
				Name:   "coingecko-url",
				Value:  price.DefaultCoinGeckoURL,
				Hidden: true,
			},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("configure") {
				return configureAction(c)
			}
			return lookupAction(c)
		},
	}
}
