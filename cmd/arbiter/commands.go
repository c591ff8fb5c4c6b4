package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/config"
	"github.com/AdamBeresnev/chesseirb/internal/db"
	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/AdamBeresnev/chesseirb/internal/export"
	"github.com/AdamBeresnev/chesseirb/internal/service"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/AdamBeresnev/chesseirb/internal/timeparse"
	"github.com/AdamBeresnev/chesseirb/internal/token"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

// session is what every command works with: the services over the configured
// database and the arbiter's identity.
type session struct {
	cfg      *config.Config
	db       *sqlx.DB
	services *service.Services
	actor    swiss.Actor
	out      io.Writer
}

func openSession(c *cli.Context) (*session, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	services := service.New(database, events.Discard{})
	arbiter, err := services.Users.EnsureArbiterUser(c.Context)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load arbiter account: %w", err)
	}

	return &session{
		cfg:      cfg,
		db:       database,
		services: services,
		actor:    arbiter.Actor(),
		out:      c.App.Writer,
	}, nil
}

// withSession opens a session for the duration of fn.
func withSession(fn func(c *cli.Context, s *session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.db.Close()
		return fn(c, s)
	}
}

func tournamentArg(c *cli.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Args().First())
	if err != nil {
		return uuid.Nil, fmt.Errorf("expected a tournament id, got %q", c.Args().First())
	}
	return id, nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply database migrations",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.RunMigrations(database, cfg.Database.MigrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "migrations applied")
			return nil
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "create a draft tournament",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "description"},
			&cli.IntFlag{Name: "rounds", Value: swiss.DefaultRoundsPlanned},
			&cli.StringFlag{Name: "mode", Value: string(swiss.ModeAdmin), Usage: "admin or player"},
			&cli.StringFlag{Name: "start", Usage: `start time, e.g. "2026-05-01 18:30" or "next friday at 7pm"`},
		},
		Action: withSession(func(c *cli.Context, s *session) error {
			input := service.TournamentInput{
				Name:          c.String("name"),
				Description:   c.String("description"),
				RoundsPlanned: c.Int("rounds"),
				Mode:          swiss.TournamentMode(c.String("mode")),
			}
			if raw := c.String("start"); raw != "" {
				startAt, err := timeparse.New().Parse(raw, time.Now(), time.Local)
				if err != nil {
					return err
				}
				input.StartAt = startAt
			}

			tournament, err := s.services.Tournaments.Create(c.Context, s.actor, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "created %s (%s) starting %s\n", tournament.ID, tournament.Name, tournament.StartAt.Local().Format("2006-01-02 15:04"))
			return nil
		}),
	}
}

type lifecycleFunc func(ctx context.Context, s *session, id uuid.UUID) (string, error)

func lifecycleCommand(name, usage string, fn lifecycleFunc) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "TOURNAMENT_ID",
		Action: withSession(func(c *cli.Context, s *session) error {
			id, err := tournamentArg(c)
			if err != nil {
				return err
			}
			msg, err := fn(c.Context, s, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(s.out, msg)
			return nil
		}),
	}
}

func openRegistration(ctx context.Context, s *session, id uuid.UUID) (string, error) {
	return "registration open", s.services.Tournaments.OpenRegistration(ctx, s.actor, id)
}

func closeRegistration(ctx context.Context, s *session, id uuid.UUID) (string, error) {
	return "registration closed", s.services.Tournaments.CloseRegistration(ctx, s.actor, id)
}

func startTournament(ctx context.Context, s *session, id uuid.UUID) (string, error) {
	round, err := s.services.Tournaments.Start(ctx, s.actor, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("started, round %d paired", round.Number), nil
}

func advanceRound(ctx context.Context, s *session, id uuid.UUID) (string, error) {
	round, err := s.services.Tournaments.AdvanceRound(ctx, s.actor, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("round %d paired", round.Number), nil
}

func completeTournament(ctx context.Context, s *session, id uuid.UUID) (string, error) {
	return "tournament completed", s.services.Tournaments.Complete(ctx, s.actor, id)
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "register a user by name",
		ArgsUsage: "TOURNAMENT_ID USERNAME",
		Action: withSession(func(c *cli.Context, s *session) error {
			id, err := tournamentArg(c)
			if err != nil {
				return err
			}
			user, err := s.services.Users.GetUserByName(c.Context, c.Args().Get(1))
			if err != nil {
				return fmt.Errorf("user %q: %w", c.Args().Get(1), err)
			}
			if err := s.services.Tournaments.Register(c.Context, user.Actor(), id); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%s registered\n", user.Username)
			return nil
		}),
	}
}

func resultCommand() *cli.Command {
	return &cli.Command{
		Name:      "result",
		Usage:     "record a match result (white, black or draw)",
		ArgsUsage: "TOURNAMENT_ID MATCH_ID RESULT",
		Action: withSession(func(c *cli.Context, s *session) error {
			id, err := tournamentArg(c)
			if err != nil {
				return err
			}
			matchID, err := uuid.Parse(c.Args().Get(1))
			if err != nil {
				return fmt.Errorf("expected a match id, got %q", c.Args().Get(1))
			}

			match, err := s.services.Matches.SubmitResult(c.Context, id, matchID, swiss.Result(c.Args().Get(2)), s.actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "round %d board %d: %s\n", match.RoundNumber, match.Board, match.Result)
			return nil
		}),
	}
}

func standingsCommand() *cli.Command {
	return &cli.Command{
		Name:      "standings",
		Usage:     "print the standings and the current pairings",
		ArgsUsage: "TOURNAMENT_ID",
		Action: withSession(func(c *cli.Context, s *session) error {
			id, err := tournamentArg(c)
			if err != nil {
				return err
			}
			detail, err := s.services.Tournaments.Detail(c.Context, id)
			if err != nil {
				return err
			}
			return printDetail(s.out, detail)
		}),
	}
}

func printDetail(out io.Writer, d *service.TournamentDetail) error {
	t := d.Tournament
	fmt.Fprintf(out, "%s (%s), round %d of %d\n\n", t.Name, t.Status, t.CurrentRound, t.RoundsPlanned)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPLAYER\tSCORE\tBUCHHOLZ\tW\tB\tGAMES")
	for i, s := range d.Standings {
		fmt.Fprintf(w, "%d\t%s\t%g\t%g\t%d\t%d\t%d\n", i+1, s.Participant.Name, s.Score, s.TieBreak, s.Whites, s.Blacks, s.MatchesPlayed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(d.Rounds) == 0 {
		return nil
	}
	current := d.Rounds[len(d.Rounds)-1]
	names := d.Names()

	fmt.Fprintf(out, "\nRound %d\n", current.Round.Number)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BOARD\tWHITE\tBLACK\tRESULT\tMATCH")
	for _, m := range current.Matches {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.Board, name(names, m.WhitePlayerID), name(names, m.BlackPlayerID), m.Result, m.ID)
	}
	return w.Flush()
}

func name(names map[uuid.UUID]string, id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	if n, ok := names[*id]; ok {
		return n
	}
	return id.String()
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write standings and pairings to an XLSX file",
		ArgsUsage: "TOURNAMENT_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "standings.xlsx"},
		},
		Action: withSession(func(c *cli.Context, s *session) error {
			id, err := tournamentArg(c)
			if err != nil {
				return err
			}
			detail, err := s.services.Tournaments.Detail(c.Context, id)
			if err != nil {
				return err
			}

			f, err := os.Create(c.String("out"))
			if err != nil {
				return err
			}
			defer f.Close()

			if err := export.WriteWorkbook(f, detail.Standings, detail.Matches(), detail.Names()); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "wrote %s\n", c.String("out"))
			return f.Close()
		}),
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "token",
		Usage:     "issue an API token for a user",
		ArgsUsage: "USERNAME",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime, defaults to the configured one"},
		},
		Action: withSession(func(c *cli.Context, s *session) error {
			user, err := s.services.Users.GetUserByName(c.Context, c.Args().First())
			if err != nil {
				return fmt.Errorf("user %q: %w", c.Args().First(), err)
			}

			tokens := token.NewService(s.cfg.JWT.Secret, s.cfg.JWT.DefaultTTL)
			signed, err := tokens.Generate(user.ID, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(s.out, signed)
			return nil
		}),
	}
}

func usersCommand() *cli.Command {
	action := func(a service.UserAction) *cli.Command {
		return &cli.Command{
			Name:      string(a),
			Usage:     string(a) + " a user",
			ArgsUsage: "USERNAME",
			Action: withSession(func(c *cli.Context, s *session) error {
				user, err := s.services.Users.GetUserByName(c.Context, c.Args().First())
				if err != nil {
					return fmt.Errorf("user %q: %w", c.Args().First(), err)
				}
				if err := s.services.Users.Administer(c.Context, s.actor, user.ID, a); err != nil {
					return err
				}
				fmt.Fprintf(s.out, "%s: %s\n", a, user.Username)
				return nil
			}),
		}
	}

	return &cli.Command{
		Name:  "users",
		Usage: "find and administer users",
		Subcommands: []*cli.Command{
			{
				Name:      "search",
				ArgsUsage: "[QUERY]",
				Action: withSession(func(c *cli.Context, s *session) error {
					found, err := s.services.Users.Search(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					for _, u := range found {
						fmt.Fprintf(s.out, "%s\t%s\tstaff=%t banned=%t\n", u.ID, u.Username, u.IsStaff, u.IsBanned)
					}
					return nil
				}),
			},
			action(service.ActionBan),
			action(service.ActionUnban),
			action(service.ActionPromote),
			action(service.ActionDemote),
			action(service.ActionDelete),
		},
	}
}
