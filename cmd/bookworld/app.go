package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"bookworld/internal/browse"
	"bookworld/internal/catalog"
	"bookworld/internal/listsync"
	"bookworld/internal/readinglist"
)

// commands binds the cli actions to the environment built in Before.
type commands struct {
	build envBuilder
	env   *appEnv
}

func newApp(build envBuilder) *cli.App {
	a := &commands{build: build}
	return &cli.App{
		Name:  "bookworld",
		Usage: "browse books and keep a reading list",
		Before: func(c *cli.Context) error {
			env, err := a.build(c.Context)
			if err != nil {
				return err
			}
			a.env = env
			return nil
		},
		After: func(c *cli.Context) error {
			if a.env == nil {
				return nil
			}
			return a.env.close()
		},
		Commands: []*cli.Command{
			{
				Name:  "home",
				Usage: "show trending, top rated and random picks",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 10, Usage: "books per section"},
				},
				Action: a.homeAction,
			},
			{
				Name:  "browse",
				Usage: "search the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q", Usage: "title or author text"},
					&cli.StringSliceFlag{Name: "genre", Aliases: []string{"g"}, Usage: "genre filter, repeatable"},
					&cli.StringFlag{Name: "sort", Value: string(catalog.SortRelevance), Usage: "relevance, new, old or title"},
					&cli.IntFlag{Name: "pages", Value: 1, Usage: "pages of 40 to load"},
				},
				Action: a.browseAction,
			},
			{
				Name:      "book",
				Usage:     "show one work in detail",
				ArgsUsage: "<workId>",
				Action:    a.bookAction,
			},
			{
				Name:  "register",
				Usage: "create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", EnvVars: []string{"BOOKWORLD_PASSWORD"}, Required: true},
				},
				Action: a.registerAction,
			},
			{
				Name:  "login",
				Usage: "sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", EnvVars: []string{"BOOKWORLD_PASSWORD"}, Required: true},
				},
				Action: a.loginAction,
			},
			{
				Name:   "logout",
				Usage:  "forget the saved sign-in",
				Action: a.logoutAction,
			},
			{
				Name:   "whoami",
				Usage:  "show the signed-in reader",
				Action: a.whoamiAction,
			},
			{
				Name:  "list",
				Usage: "manage your reading list",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "print the list",
						Flags:  []cli.Flag{&cli.StringFlag{Name: "status", Usage: "only entries with this status"}},
						Action: a.listShowAction,
					},
					{
						Name:      "add",
						Usage:     "add a work",
						ArgsUsage: "<workId>",
						Flags:     entryFlags(string(readinglist.StatusPlanToRead)),
						Action:    a.listAddAction,
					},
					{
						Name:      "update",
						Usage:     "change status, rating or review",
						ArgsUsage: "<workId>",
						Flags:     entryFlags(""),
						Action:    a.listUpdateAction,
					},
					{
						Name:      "remove",
						Usage:     "remove a work",
						ArgsUsage: "<workId>",
						Action:    a.listRemoveAction,
					},
				},
			},
		},
	}
}

func entryFlags(defaultStatus string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "status", Value: defaultStatus, Usage: "Reading, Completed, Plan to Read, On Hold or Dropped"},
		&cli.IntFlag{Name: "rating", Usage: "1 to 5"},
		&cli.StringFlag{Name: "review"},
	}
}

func (a *commands) homeAction(c *cli.Context) error {
	env := a.env
	home, err := env.sampler.Home(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	printSection(env.out, "Trending", home.Trending)
	printSection(env.out, "Top rated", home.TopRated)
	printSection(env.out, "Random picks", home.Random)
	return nil
}

func (a *commands) browseAction(c *cli.Context) error {
	env := a.env
	sort, err := catalog.ParseSort(c.String("sort"))
	if err != nil {
		return err
	}

	session := browse.NewSession(env.catalog, env.sampler, env.log)
	if c.String("q") == "" && len(c.StringSlice("genre")) == 0 && sort == catalog.SortRelevance {
		session.Start(c.Context)
	} else if err := session.SetFilters(c.Context, c.String("q"), c.StringSlice("genre"), sort); err != nil {
		return err
	}
	for range c.Int("pages") - 1 {
		loaded, err := session.LoadMore(c.Context)
		if err != nil {
			env.log.Warn("stopped paging", "error", err)
			break
		}
		if !loaded {
			break
		}
	}

	printBrowse(env.out, session.State())
	return nil
}

func (a *commands) bookAction(c *cli.Context) error {
	env := a.env
	workID := c.Args().First()
	if workID == "" {
		return errors.New("a workId is required")
	}
	book, err := env.catalog.BookDetails(c.Context, workID)
	if err != nil {
		return err
	}
	printBook(env.out, book)
	return nil
}

func (a *commands) registerAction(c *cli.Context) error {
	env := a.env
	id, err := env.account.Register(c.Context, c.String("name"), c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Welcome, %s.\n", id.Name)
	return nil
}

func (a *commands) loginAction(c *cli.Context) error {
	env := a.env
	id, err := env.account.Login(c.Context, c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Signed in as %s <%s>.\n", id.Name, id.Email)
	return nil
}

func (a *commands) logoutAction(c *cli.Context) error {
	env := a.env
	if err := env.account.Logout(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(env.out, "Signed out.")
	return nil
}

func (a *commands) whoamiAction(c *cli.Context) error {
	env := a.env
	id, ok, err := env.account.Restore(c.Context)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(env.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(env.out, "%s <%s>\n", id.Name, id.Email)
	return nil
}

func (a *commands) listShowAction(c *cli.Context) error {
	env := a.env
	if err := env.signIn(c.Context); err != nil {
		return err
	}
	var only readinglist.Status
	if s := c.String("status"); s != "" {
		st, err := parseStatus(s)
		if err != nil {
			return err
		}
		only = st
	}
	printList(env.out, env.lists.Entries(), only)
	return nil
}

func (a *commands) listAddAction(c *cli.Context) error {
	env := a.env
	workID := c.Args().First()
	if workID == "" {
		return errors.New("a workId is required")
	}
	if err := env.signIn(c.Context); err != nil {
		return err
	}
	status, err := parseStatus(c.String("status"))
	if err != nil {
		return err
	}

	entry := listsync.EntryFromBook(catalog.Book{Key: catalog.WorkKey(workID)}, status)
	if book, err := env.catalog.BookDetails(c.Context, workID); err != nil {
		env.log.Warn("adding without catalog details", "work_id", workID, "error", err)
	} else {
		entry = listsync.EntryFromBook(book, status)
	}
	changes, err := changesFrom(c)
	if err != nil {
		return err
	}
	entry.Rating, entry.Review = changes.Rating, changes.Review

	if err := env.lists.Add(c.Context, workID, entry); err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Added %s as %s.\n", titleOr(entry.Book.Title, workID), status)
	return nil
}

func (a *commands) listUpdateAction(c *cli.Context) error {
	env := a.env
	workID := c.Args().First()
	if workID == "" {
		return errors.New("a workId is required")
	}
	if err := env.signIn(c.Context); err != nil {
		return err
	}
	if _, ok := env.lists.Get(workID); !ok {
		return fmt.Errorf("%s is not on your list", workID)
	}
	changes, err := changesFrom(c)
	if err != nil {
		return err
	}
	if err := env.lists.Update(c.Context, workID, changes); err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Updated %s.\n", workID)
	return nil
}

func (a *commands) listRemoveAction(c *cli.Context) error {
	env := a.env
	workID := c.Args().First()
	if workID == "" {
		return errors.New("a workId is required")
	}
	if err := env.signIn(c.Context); err != nil {
		return err
	}
	if err := env.lists.Remove(c.Context, workID); err != nil {
		return err
	}
	fmt.Fprintf(env.out, "Removed %s.\n", workID)
	return nil
}

// changesFrom reads the flags the reader actually set.
func changesFrom(c *cli.Context) (listsync.Changes, error) {
	var ch listsync.Changes
	if c.IsSet("status") {
		st, err := parseStatus(c.String("status"))
		if err != nil {
			return ch, err
		}
		ch.Status = &st
	}
	if c.IsSet("rating") {
		r := c.Int("rating")
		if r < 1 || r > 5 {
			return ch, readinglist.ErrInvalidRating
		}
		ch.Rating = &r
	}
	if c.IsSet("review") {
		r := c.String("review")
		ch.Review = &r
	}
	return ch, nil
}

// parseStatus accepts any casing and "-" or "_" for spaces, so "plan-to-read" works.
func parseStatus(s string) (readinglist.Status, error) {
	want := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	for _, st := range readinglist.Statuses {
		if strings.EqualFold(string(st), want) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", readinglist.ErrInvalidStatus, s)
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}
