package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/readlog/internal"
	"github.com/starford/readlog/internal/apperr"
	"github.com/starford/readlog/internal/flow"
	"github.com/starford/readlog/internal/models"
	"github.com/starford/readlog/internal/prompt"
	pkgconfig "github.com/starford/readlog/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if dir := cmd.String("readings-dir"); dir != "" {
		cfg.Content.ReadingsDir = dir
	}
	return cfg, nil
}

func newApp(cmd *cli.Command, opts ...internal.Option) (*internal.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.New(append([]internal.Option{internal.WithConfig(cfg)}, opts...)...)
}

// interactive runs fn with a prompt session on the process terminal.
func interactive(ctx context.Context, cmd *cli.Command, fn func(context.Context, *internal.App) (*flow.Result, error)) error {
	session := prompt.New(os.Stdin, os.Stdout)
	defer session.Close()

	app, err := newApp(cmd, internal.WithPrompter(session))
	if err != nil {
		return err
	}
	res, err := fn(ctx, app)
	if errors.Is(err, apperr.ErrCancelled) {
		fmt.Println("Cancelled, nothing was written.")
		return nil
	}
	if err != nil {
		return err
	}
	switch res.Action {
	case flow.ActionDeleted:
		fmt.Printf("Deleted %s\n", res.Filename)
	default:
		fmt.Printf("Saved %s (%s, read #%d)\n", res.Filename, res.Action, res.ReadCount)
	}
	return nil
}

func fileArg(cmd *cli.Command) (string, error) {
	name := cmd.Args().First()
	if name == "" {
		return "", fmt.Errorf("%w: a reading filename is required", apperr.ErrValidation)
	}
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	return name, nil
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	return interactive(ctx, cmd, func(ctx context.Context, app *internal.App) (*flow.Result, error) {
		return app.Add(ctx)
	})
}

func runEdit(ctx context.Context, cmd *cli.Command) error {
	name, err := fileArg(cmd)
	if err != nil {
		return err
	}
	return interactive(ctx, cmd, func(ctx context.Context, app *internal.App) (*flow.Result, error) {
		return app.Edit(ctx, name)
	})
}

func runDelete(ctx context.Context, cmd *cli.Command) error {
	name, err := fileArg(cmd)
	if err != nil {
		return err
	}
	return interactive(ctx, cmd, func(ctx context.Context, app *internal.App) (*flow.Result, error) {
		return app.Delete(ctx, name)
	})
}

func runList(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	res, err := app.List()
	if err != nil {
		return err
	}
	base := cmd.String("base")
	var rows [][]string
	for _, r := range res.Readings {
		if base != "" && r.BaseSlug != base {
			continue
		}
		rows = append(rows, readingRow(r))
	}
	if len(rows) == 0 {
		fmt.Println("No readings.")
		return nil
	}
	fmt.Println(renderTable(
		[]string{"Slug", "Title", "Author", "Finished", "Read", "Flags"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	for _, f := range res.Failures {
		fmt.Printf("skipped %s: %v\n", f.Filename, f.Err)
	}
	return nil
}

func readingRow(r models.PublishedReading) []string {
	finished := "reading"
	if r.Finished != nil {
		finished = r.Finished.Format("2006-01-02")
	}
	var flags []string
	if r.Audiobook {
		flags = append(flags, "audio")
	}
	if r.Favorite {
		flags = append(flags, "fav")
	}
	if r.CoverImage != "" {
		flags = append(flags, "cover")
	}
	return []string{r.Slug, r.Title, r.Author, finished, strconv.Itoa(r.ReadCount), strings.Join(flags, ",")}
}

func runCheck(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	advs, err := app.Check()
	if err != nil {
		return err
	}
	if len(advs) == 0 {
		fmt.Println("All reread groups look consistent.")
		return nil
	}
	rows := make([][]string, len(advs))
	for i, a := range advs {
		rows[i] = []string{a.BaseSlug, string(a.Kind), a.Message}
	}
	fmt.Println(renderTable([]string{"Group", "Kind", "Detail"}, rows, nil))
	return nil
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("watch") {
		return app.Watch(ctx)
	}
	_, err = app.Export()
	return err
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.App.LogFormat = internal.LogFormatJSON
	logger := internal.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	app, err := internal.New(internal.WithConfig(cfg), internal.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := app.Serve(ctx, cmd.Bool("watch")); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "readlog",
		Usage: "Keep a Markdown reading log where every reread is its own file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("READLOG_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "readings-dir",
				Usage:   "Override content.readings_dir",
				Sources: cli.EnvVars("READLOG_READINGS_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Record a reading, a reread, or update the latest read",
				Action: runAdd,
			},
			{
				Name:      "edit",
				Usage:     "Change one field of a reading",
				ArgsUsage: "<file>",
				Action:    runEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a reading file",
				ArgsUsage: "<file>",
				Action:    runDelete,
			},
			{
				Name:  "list",
				Usage: "Show readings in publication order",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "base", Usage: "Only show one reread group"},
				},
				Action: runList,
			},
			{
				Name:   "check",
				Usage:  "Report reread sequence advisories",
				Action: runCheck,
			},
			{
				Name:  "export",
				Usage: "Write the public reading list",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Re-export on every change"},
				},
				Action: runExport,
			},
			{
				Name:  "serve",
				Usage: "Serve the read-only reading API",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Also keep the export current"},
				},
				Action: runServe,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
