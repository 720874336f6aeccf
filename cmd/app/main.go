package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/raido/internal"
	pkgconfig "github.com/starford/raido/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// loadConfig builds the effective configuration: defaults, overlaid with
// the YAML file when present, then CLI overrides. An explicitly passed
// config path must exist; the default path is optional.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")

	if _, err := os.Stat(path); err == nil {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if cmd.IsSet("config") {
		return nil, fmt.Errorf("config file not found: %s", path)
	} else if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	return cfg, nil
}

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if tok := cmd.String("token"); tok != "" {
		cfg.Enrich.Token = tok
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithSource(cmd.String("source")),
		internal.WithEnrich(cmd.Bool("enrich")),
	}
	return internal.RunMigrate(ctx, opts...)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if p := cmd.Int("port"); p != 0 {
		cfg.App.HTTP.Port = int(p)
	}
	return internal.RunServe(ctx, internal.WithConfig(cfg))
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Turn a Notion Markdown export into a clean wiki vault",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "raido.yaml",
				Value:       "raido.yaml",
				Sources:     cli.EnvVars("RAIDO_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory (overrides config)",
				Sources: cli.EnvVars("RAIDO_VAULT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Strip export ids, rewrite links to wikilinks, and synthesize front matter in place",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Export zip archive to extract into the vault first",
						Sources: cli.EnvVars("RAIDO_SOURCE"),
					},
					&cli.BoolFlag{
						Name:  "enrich",
						Usage: "Fetch remote page metadata after the renames",
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "API token for enrichment",
						Sources: cli.EnvVars("NOTION_TOKEN"),
					},
				},
				Action: runMigrate,
			},
			{
				Name:  "serve",
				Usage: "Serve the read-only vault inspection API with live change events",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Usage:   "HTTP port (overrides config)",
						Sources: cli.EnvVars("RAIDO_PORT"),
					},
				},
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Expose the vault to LLM clients over MCP stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
