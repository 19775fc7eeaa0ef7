// Command kanban-admin performs maintenance tasks against the kanban
// database: applying migrations, provisioning admin accounts and tailing
// the event queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/kanban-board/internal/config"
	"github.com/iliyamo/kanban-board/internal/database"
	"github.com/iliyamo/kanban-board/internal/events"
	"github.com/iliyamo/kanban-board/internal/model"
	"github.com/iliyamo/kanban-board/internal/repository"
	"github.com/iliyamo/kanban-board/internal/utils"
)

func main() {
	_ = godotenv.Load()
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "kanban-admin",
		Usage: "Maintenance commands for the kanban API",
		Commands: []*cli.Command{
			cmdMigrate,
			cmdEnsureAdmin,
			cmdEvents,
		},
	}
}

var cmdMigrate = &cli.Command{
	Name:  "migrate",
	Usage: "Apply pending schema migrations and print the schema version",
	Action: func(c *cli.Context) error {
		return withDB(func(cfg config.Config, db *sqlx.DB) error {
			v, err := database.SchemaVersion(c.Context, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "schema at version %d (%s)\n", v, cfg.DBDriver)
			return nil
		})
	},
}

var cmdEnsureAdmin = &cli.Command{
	Name:  "ensure-admin",
	Usage: "Create an admin account, or promote an existing one and reset its password",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "username", Usage: "Login name", Required: true},
		&cli.StringFlag{Name: "password", Usage: "Password to set", Required: true},
		&cli.StringFlag{Name: "name", Usage: "Display name for a new account", Value: "Administrator"},
		&cli.StringFlag{Name: "email", Usage: "Email address for a new account"},
	},
	Action: func(c *cli.Context) error {
		return withDB(func(cfg config.Config, db *sqlx.DB) error {
			in := adminInput{
				Username: c.String("username"),
				Password: c.String("password"),
				Name:     c.String("name"),
				Email:    c.String("email"),
			}
			created, err := ensureAdmin(c.Context, repository.NewUserRepo(db), in, cfg.BcryptCost)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(c.App.Writer, "admin %q created\n", in.Username)
			} else {
				fmt.Fprintf(c.App.Writer, "admin %q updated\n", in.Username)
			}
			return nil
		})
	},
}

var cmdEvents = &cli.Command{
	Name:  "events",
	Usage: "Print board, column and ticket events from the queue until interrupted",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "queue", Usage: "Queue to read instead of EVENTS_QUEUE"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		queue := cfg.Events.Queue
		if q := c.String("queue"); q != "" {
			queue = q
		}
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Infof("tailing %s", queue)
		err = events.Consume(ctx, cfg.Events.URL, queue, func(ev events.Event) error {
			fmt.Fprintln(c.App.Writer, ev.String())
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// withDB loads the configuration and opens (and migrates) the database
// for the duration of fn.
func withDB(fn func(config.Config, *sqlx.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, db)
}

type adminInput struct {
	Username string
	Password string
	Name     string
	Email    string
}

// ensureAdmin makes sure in.Username exists with the admin role and the
// given password.  It reports whether a new account was created.
func ensureAdmin(ctx context.Context, users *repository.UserRepo, in adminInput, cost int) (bool, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return false, errors.New("username and password are required")
	}
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}

	u, err := users.GetByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u = &model.User{Username: in.Username, PasswordHash: hash, Name: in.Name, Role: model.RoleAdmin}
		if in.Email != "" {
			u.Email = &in.Email
		}
		if err := users.Create(ctx, u); err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	}

	if err := users.SetPassword(ctx, u.ID, hash); err != nil {
		return false, err
	}
	if err := users.SetRole(ctx, u.ID, model.RoleAdmin); err != nil {
		return false, err
	}
	return false, nil
}
