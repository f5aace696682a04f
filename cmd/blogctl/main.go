package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"simpleblog/api/internal/contributors"
	"simpleblog/api/internal/identity"
	"simpleblog/api/internal/messages"
	"simpleblog/api/internal/policy"
	"simpleblog/api/internal/revisions"
	"simpleblog/api/internal/store"
)

func main() {
	var title string

	app := &cli.App{
		Name:  "blogctl",
		Usage: "Inspect blog post edit decisions and recent editors",
		Commands: []*cli.Command{
			{
				Name:    "check",
				Aliases: []string{"c"},
				Usage:   "Evaluate whether an actor may edit a title",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "title",
						Aliases:     []string{"t"},
						Usage:       "Prefixed page title, e.g. \"User blog:Alice/Hello\"",
						Required:    true,
						Destination: &title,
					},
					&cli.StringFlag{
						Name:    "actor",
						Aliases: []string{"a"},
						Usage:   "Acting user name; empty or an IP address means anonymous",
					},
					&cli.BoolFlag{
						Name:  "exists",
						Usage: "Treat the title as an existing page",
					},
					&cli.BoolFlag{
						Name:  "blocked",
						Usage: "Actor is blocked",
					},
					&cli.BoolFlag{
						Name:  "no-edit-right",
						Usage: "Actor lacks the edit right",
					},
					&cli.StringFlag{
						Name:  "lang",
						Value: "en",
						Usage: "Language of the denial message",
					},
				},
				Action: func(cCtx *cli.Context) error {
					actor := policy.ActorFromName(cCtx.String("actor"))
					if !actor.IsAnonymous {
						actor.IsBlocked = cCtx.Bool("blocked")
						actor.HasEditRight = !cCtx.Bool("no-edit-right")
					}
					return checkEdit(title, actor, cCtx.Bool("exists"), cCtx.String("lang"))
				},
			},
			{
				Name:    "editors",
				Aliases: []string{"e"},
				Usage:   "List the distinct recent editors of a title",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "title",
						Aliases:     []string{"t"},
						Required:    true,
						Usage:       "Prefixed page title",
						Destination: &title,
					},
					&cli.StringFlag{
						Name:    "revisions",
						Aliases: []string{"r"},
						Value:   "./data/revisions",
						EnvVars: []string{"BLOG_REVISIONS_DIR"},
						Usage:   "Directory holding per-title git repositories",
					},
					&cli.StringFlag{
						Name:    "database-url",
						EnvVars: []string{"DATABASE_URL"},
						Usage:   "Identity store; names are used as-is when empty",
					},
					&cli.StringFlag{
						Name:    "profile-base",
						Value:   "http://localhost:8080/wiki/",
						EnvVars: []string{"BLOG_PROFILE_BASE_URL"},
						Usage:   "Base URL of user profile pages",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Value:   50,
						Usage:   "Maximum number of revisions to read",
					},
				},
				Action: func(cCtx *cli.Context) error {
					return listEditors(cCtx.Context, title, cCtx.String("revisions"), cCtx.String("database-url"), cCtx.String("profile-base"), cCtx.Int("limit"))
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func checkEdit(raw string, actor policy.Actor, exists bool, lang string) error {
	title, err := policy.ParseTitle(raw)
	if err != nil {
		return fmt.Errorf("parse title: %w", err)
	}
	title.Exists = exists

	outcome := policy.Evaluate(title, actor)
	fmt.Println(outcome)
	if !outcome.Allowed() {
		fmt.Println(messages.Denial(messages.Match(lang), outcome))
	}
	return nil
}

func listEditors(ctx context.Context, raw, revisionsDir, databaseURL, profileBase string, limit int) error {
	title, err := policy.ParseTitle(raw)
	if err != nil {
		return fmt.Errorf("parse title: %w", err)
	}

	var resolver contributors.Resolver = identity.NewNameResolver(profileBase)
	if databaseURL != "" {
		db, err := store.Open(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("open identity store: %w", err)
		}
		defer db.Close()
		resolver = identity.NewStoreResolver(store.NewSQLStore(db), profileBase)
	}

	records, err := revisions.New(revisionsDir).History(title.PrefixedText(), limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	for _, entry := range contributors.Build(ctx, records, resolver) {
		fmt.Printf("%s\t%s\n", entry.DisplayName, entry.ProfileURL)
	}
	return nil
}
