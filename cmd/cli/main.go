// Command comments-cli manages administrator accounts and lists pages.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"go-comments-app/internal/auth"
	"go-comments-app/internal/config"
	"go-comments-app/internal/data"
	"go-comments-app/internal/logger"
	"go-comments-app/internal/service"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/casbin/casbin/v2"
	flag "github.com/spf13/pflag"
)

const usage = `Usage: comments-cli [flags] <command>

Commands:
  adduser <name>      create an administrator, password read from stdin
  deluser <name>      delete an administrator
  passwd <name>       change a password, read from stdin
  list users|pages    list administrators or pages

Flags:
`

type app struct {
	users    *service.UserService
	pages    *service.PageService
	enforcer casbin.IEnforcer
	in       *bufio.Reader
	out      io.Writer
}

func main() {
	migrate := flag.Bool("migrate", true, "apply database migrations before running the command")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(config.LogConfig{Level: "warn", Format: cfg.Log.Format}, os.Stderr)

	if *migrate {
		if err := data.ApplyMigrations(cfg.DB); err != nil {
			log.Fatal(err, "Failed to apply migrations")
		}
	}
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	enforcer, err := auth.NewEnforcer(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}

	a := &app{
		users:    service.NewUserService(data.NewSQLUserRepository(db), 0),
		pages:    service.NewPageService(data.NewSQLPageRepository(db)),
		enforcer: enforcer,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	if err := a.run(context.Background(), flag.Arg(0), flag.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command, arg string) error {
	switch command {
	case "adduser":
		password, err := a.readPassword()
		if err != nil {
			return err
		}
		if _, err := a.users.AddUser(ctx, arg, password); err != nil {
			return err
		}
		if err := auth.GrantAdmin(a.enforcer, strings.TrimSpace(arg)); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "created user '%s'\n", strings.TrimSpace(arg))
	case "deluser":
		if err := a.users.DeleteUser(ctx, arg); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return fmt.Errorf("no such user '%s'", arg)
			}
			return err
		}
		if err := auth.RevokeAll(a.enforcer, arg); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted user '%s'\n", arg)
	case "passwd":
		password, err := a.readPassword()
		if err != nil {
			return err
		}
		if err := a.users.SetPassword(ctx, arg, password); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return fmt.Errorf("no such user '%s'", arg)
			}
			return err
		}
		fmt.Fprintf(a.out, "password updated for '%s'\n", arg)
	case "list":
		return a.list(ctx, arg)
	default:
		return fmt.Errorf("unknown command '%s'", command)
	}
	return nil
}

func (a *app) list(ctx context.Context, item string) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch item {
	case "user", "users":
		users, err := a.users.ListUsers(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tUSERNAME")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\n", u.ID, u.Username)
		}
	case "page", "pages":
		pages, err := a.pages.ListPages(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tPUBLISHED\tTITLE\tURL")
		for _, p := range pages {
			fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", p.ID, p.Published, p.Title, p.PageURL)
		}
	default:
		return fmt.Errorf("unknown list item '%s'", item)
	}
	return nil
}

// readPassword reads one line from stdin, so passwords can be piped in.
func (a *app) readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
