package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/zettel/internal"
	pkgconfig "github.com/starford/zettel/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runMode(mode internal.Mode, extra ...internal.Option) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := append([]internal.Option{
			internal.WithConfig(cfg),
			internal.WithMode(mode),
			internal.WithVersion(version),
		}, extra...)

		if err := internal.Run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid note id %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func addAction(ctx context.Context, cmd *cli.Command) error {
	parents, err := parseIDs(cmd.StringSlice("parent"))
	if err != nil {
		return err
	}
	return runMode(internal.ModeAdd, internal.WithNote(cmd.String("message"), parents))(ctx, cmd)
}

func promoteAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("promote expects exactly one note id")
	}
	ids, err := parseIDs([]string{cmd.Args().First()})
	if err != nil {
		return err
	}
	return runMode(internal.ModePromote, internal.WithPromotion(ids[0], cmd.String("title")))(ctx, cmd)
}

func main() {
	cmd := &cli.Command{
		Name:    "zettel",
		Usage:   "Zettelkasten note graph with semantic retrieval and a terminal UI",
		Version: version,
		Action:  runMode(internal.ModeTUI),
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
				Action: runMode(internal.ModeServe),
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMode(internal.ModeMCP),
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and exit",
				Action: runMode(internal.ModeMigrate),
			},
			{
				Name:      "add",
				Usage:     "Capture a note, opening the editor when no message is given",
				ArgsUsage: " ",
				Action:    addAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "message",
						Aliases: []string{"m"},
						Usage:   "Note content",
					},
					&cli.StringSliceFlag{
						Name:    "parent",
						Aliases: []string{"p"},
						Usage:   "Parent note id (repeatable)",
					},
				},
			},
			{
				Name:      "promote",
				Usage:     "Promote a note to an article",
				ArgsUsage: "<note-id>",
				Action:    promoteAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Article title (derived from the note when empty)",
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
