package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/abyssdigger/ringlog"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "ringlog",
		Usage: "Keep recent log records per level in memory and show them",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			DemoCommand(),
			PanelCommand(),
			ServeCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Configuration file path (TOML)",
			Value: "ringlog.toml",
		},
		&cli.StringFlag{
			Name:  "filter",
			Usage: "Pretty sink filter, overrides the configuration and " + ringlog.DEFAULT_ENV_FILTER,
		},
		&cli.IntFlag{
			Name:  "capacity",
			Usage: "Entries retained per level, overrides the configuration",
		},
	}
}

// loadConfig applies the global flags on top of the configuration file.
func loadConfig(c *cli.Command) (*ringlog.Config, error) {
	cfg, err := ringlog.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if filter := c.String("filter"); filter != "" {
		cfg.Filter = filter
		cfg.Env = ""
	}
	if capacity := int(c.Int("capacity")); capacity > 0 {
		cfg.Capacity = capacity
	}
	return cfg, nil
}

// setup installs the process facade. The returned function drains and closes
// the pretty sink.
func setup(c *cli.Command) (*ringlog.Facade, *ringlog.PrettySink, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, nil, err
	}
	facade, pretty, err := ringlog.SetupLogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setting up logger: %w", err)
	}
	closer := func() {
		facade.Flush()
		if pretty != nil {
			if err := pretty.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close pretty sink: %v\n", err)
			}
		}
	}
	return facade, pretty, closer, nil
}
