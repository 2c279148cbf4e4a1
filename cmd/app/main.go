package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/mnemo/internal"
	pkgconfig "github.com/starford/mnemo/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func seed(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	n, err := internal.RunSeed(ctx, opts...)
	if err != nil {
		return fmt.Errorf("seed error: %w", err)
	}
	fmt.Printf("seeded %d notes\n", n)
	return nil
}

func importInbox(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	n, err := internal.RunImport(ctx, opts...)
	if err != nil {
		return fmt.Errorf("import error: %w", err)
	}
	fmt.Printf("imported %d notes\n", n)
	return nil
}

func export(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	n, err := internal.RunExport(ctx, cmd.String("dir"), cmd.String("query"), cmd.String("tag"), opts...)
	if err != nil {
		return fmt.Errorf("export error: %w", err)
	}
	fmt.Printf("exported %d notes\n", n)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "mnemo",
		Usage:  "Personal notes with #tag extraction, keyword/tag search, and spaced-repetition reviews",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, event stream and inbox importer",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:   "seed",
				Usage:  "Load sample notes into an empty database",
				Action: seed,
			},
			{
				Name:   "import",
				Usage:  "Import the inbox directory once and exit",
				Action: importInbox,
			},
			{
				Name:   "export",
				Usage:  "Write notes as Markdown files with frontmatter",
				Action: export,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Aliases:  []string{"d"},
						Usage:    "Output directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Only notes whose title or body contains this keyword",
					},
					&cli.StringFlag{
						Name:  "tag",
						Usage: "Only notes with this tag",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
