// Command ipbauth checks logins, usernames and profile sync against an IPB
// forum database from the command line.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	ipbauth "github.com/goliatone/go-ipb-auth"
	"github.com/goliatone/go-ipb-auth/activitymap"
	"github.com/goliatone/go-ipb-auth/hostuser"
	"github.com/goliatone/go-repository-bun"
	phuslog "github.com/phuslu/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/term"
)

const usage = `usage: ipbauth [-config file] [-env file] [-host-db path] [-create] [-v] [-audit] <command> <username>

commands:
  login   <username>   verify a password against the forum
  resolve <username>   print the canonical host username
  exists  <username>   report whether exactly one forum member matches
  sync    <username>   sync an existing host user profile from the forum

sync never creates host users on its own. With -create the CLI acts as the
host application and inserts the missing host record before syncing.
`

type app struct {
	provider *ipbauth.Provider
	hostDB   *bun.DB
	store    *hostuser.Store
	create   bool
	stdin    io.Reader
	stdout   io.Writer
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ipbauth", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	configPath := fs.String("config", "", "TOML configuration file")
	envFile := fs.String("env", "", "dotenv file with IPB_* overrides")
	hostDBPath := fs.String("host-db", "ipbauth-host.db", "SQLite host user database")
	create := fs.Bool("create", false, "sync: create the host user when missing")
	verbose := fs.Bool("v", false, "debug logging")
	audit := fs.Bool("audit", false, "log login and sync activity records")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	command, username := fs.Arg(0), fs.Arg(1)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(phuslog.SlogNewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 2
	}

	forumDB, err := ipbauth.OpenForumDB(cfg)
	if err != nil {
		logger.Error("failed to open forum database", "error", err)
		return 1
	}
	connector := ipbauth.NewBunConnector(forumDB)
	defer connector.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdin: os.Stdin, stdout: os.Stdout, create: *create}

	if command == "sync" {
		hostDB, err := openHostDB(ctx, *hostDBPath)
		if err != nil {
			logger.Error("failed to open host database", "path", *hostDBPath, "error", err)
			return 1
		}
		defer hostDB.Close()
		a.hostDB = hostDB
		a.store = hostuser.NewStore(hostDB)
	}

	var users ipbauth.HostUserStore
	if a.store != nil {
		users = a.store
	}

	a.provider = ipbauth.NewProvider(cfg, connector, users).
		WithLogger(ipbauth.NewSlogLogger(logger))

	if *audit {
		a.provider.WithActivitySink(activitymap.NewLogSink(logger, activitymap.WithActorFallback("cli")))
	}

	switch command {
	case "login":
		return a.login(ctx, username)
	case "resolve":
		fmt.Fprintln(a.stdout, a.provider.ResolveCanonicalUsername(ctx, username))
		return 0
	case "exists":
		return a.exists(ctx, username)
	case "sync":
		return a.sync(ctx, username)
	default:
		fs.Usage()
		return 2
	}
}

func loadConfig(path, envFile string) (ipbauth.Config, error) {
	cfg := ipbauth.DefaultConfig()
	if path != "" {
		loaded, err := ipbauth.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}

	cfg, err := cfg.ApplyEnv(files...)
	if err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func openHostDB(ctx context.Context, path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+path+"?cache=shared")
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := hostuser.NewStore(db).CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (a *app) login(ctx context.Context, username string) int {
	password, err := a.readPassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "read password: %v\n", err)
		return 2
	}

	result := a.provider.Authenticate(ctx, ipbauth.Credentials{Username: username, Password: password})
	if !result.Passed() {
		fmt.Fprintf(a.stdout, "%s %s\n", result.Status, result.Reason)
		return 1
	}

	fmt.Fprintf(a.stdout, "%s %s\n", result.Status, result.Username)
	return 0
}

func (a *app) exists(ctx context.Context, username string) int {
	if a.provider.UserExists(ctx, username) {
		fmt.Fprintln(a.stdout, "yes")
		return 0
	}
	fmt.Fprintln(a.stdout, "no")
	return 1
}

func (a *app) sync(ctx context.Context, username string) int {
	canonical := a.provider.ResolveCanonicalUsername(ctx, username)

	user, err := a.store.GetByUsername(ctx, canonical)
	if repository.IsRecordNotFound(err) {
		if !a.create {
			fmt.Fprintf(os.Stderr, "host user %q not found (use -create to add it)\n", canonical)
			return 1
		}
		user, err = a.store.Create(ctx, &hostuser.User{Username: canonical})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load host user: %v\n", err)
		return 1
	}

	syncErr := a.provider.SynchronizeProfile(ctx, user)

	groups, err := a.store.EffectiveGroups(ctx, user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read groups: %v\n", err)
		return 1
	}

	fmt.Fprintf(a.stdout, "username: %s\nreal name: %s\nemail: %s\nemail confirmed: %t\ngroups: %s\n",
		user.Username, user.RealName, user.Email, user.EmailValidated, strings.Join(groups, ","))

	if syncErr != nil {
		fmt.Fprintf(os.Stderr, "sync: %v\n", syncErr)
		return 1
	}
	return 0
}

func (a *app) readPassword() (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
