package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/kornell/internal"
	pkgconfig "github.com/starford/kornell/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
	}, nil
}

// args returns exactly n positional arguments or a usage error.
func args(cmd *cli.Command, n int) ([]string, error) {
	if cmd.Args().Len() != n {
		return nil, fmt.Errorf("%s: expected arguments %s", cmd.Name, cmd.ArgsUsage)
	}
	return cmd.Args().Slice(), nil
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
	return internal.RunMCP(ctx, opts...)
}

func newNote(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 1)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.NewNote(ctx, a[0], opts...)
}

func show(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 1)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.ShowNote(ctx, a[0], opts...)
}

func set(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 3)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.SetNoteField(ctx, a[0], a[1], a[2], opts...)
}

func toggle(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 2)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.ToggleNote(ctx, a[0], a[1], opts...)
}

func search(ctx context.Context, cmd *cli.Command) error {
	a, err := args(cmd, 1)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.SearchNotes(ctx, a[0], opts...)
}

func main() {
	cmd := &cli.Command{
		Name:   "kornell",
		Usage:  "Cornell-method notes stored as .kornell files, with an HTTP backend, MCP tools and full-text search",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("KORNELL_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP backend",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:      "new",
				Usage:     "Create an empty note",
				ArgsUsage: "<path>",
				Action:    newNote,
			},
			{
				Name:      "show",
				Usage:     "Print a note rendered for the terminal",
				ArgsUsage: "<path>",
				Action:    show,
			},
			{
				Name:      "set",
				Usage:     "Replace one field of a note and save it",
				ArgsUsage: "<path> <title|cues|notes|summary> <value>",
				Action:    set,
			},
			{
				Name:      "toggle",
				Usage:     "Flip the source or notes visibility of a note and save it",
				ArgsUsage: "<path> <source|notes>",
				Action:    toggle,
			},
			{
				Name:      "search",
				Usage:     "Sync the index and search notes",
				ArgsUsage: "<query>",
				Action:    search,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
