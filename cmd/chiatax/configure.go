package main

import (
	"fmt"
	"strings"

	"github.com/brojonat/chiatax/service/config"
	"github.com/urfave/cli/v2"
)

// configureAction stores the API key and returns without any lookup.
func configureAction(c *cli.Context) error {
	key := strings.TrimSpace(c.String("configure"))
	if key == "" {
		return fmt.Errorf("--configure requires a non-empty API key")
	}

	store := config.NewStore(c.String("config"))
	old, err := store.SetAPIKey(key)
	if err != nil {
		return fmt.Errorf("failed to update API key: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Updating %s option %s:%s from '%s' to '%s'.\n",
		store.Path(), config.APISection, config.APIKeyOption, old, key)
	return nil
}
