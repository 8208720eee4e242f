// Command pbook is a CLI client for the phonebook service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"phonebook/internal/api"
	"phonebook/internal/errs"
	"phonebook/internal/state"
	"phonebook/internal/tokenstore"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `pbook CLI
Usage:
  pbook [-base URL] [-v] <cmd> [args]

Commands:
  version
  register  -name <name> -email <email> -password <password>
  login     -email <email> -password <password>          (saves token)
  logout
  whoami
  list      [-filter <substring>]
  add       -name <name> -number <number>
  rm        -id <id>

Environment:
  PHONEBOOK_API_BASE overrides the default API base URL (.env is read).
`)
	os.Exit(2)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}

// main wires the API client, token store and state stores, then dispatches
// one subcommand against them.
func main() {
	_ = godotenv.Load()

	base := flag.String("base", os.Getenv("PHONEBOOK_API_BASE"), "API base URL (default hosted backend)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()

	client := api.New(*base)
	tokens := tokenstore.NewFile()
	session := state.NewSession(client, tokens, logger)
	contacts := state.NewContacts(client, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("pbook %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)
		if *name == "" || *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -name, -email and -password")
			os.Exit(1)
		}
		user, err := session.Register(ctx, *name, *email, *password)
		if err != nil {
			fail(session.State().Error)
		}
		printJSON(user)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -email and -password")
			os.Exit(1)
		}
		user, err := session.LogIn(ctx, *email, *password)
		if err != nil {
			fail(session.State().Error)
		}
		printJSON(user)

	case "logout":
		// best effort: attach the persisted token if there is one, then
		// log out locally no matter what the server said
		_, _ = session.Refresh(ctx)
		session.LogOut(ctx)
		contacts.Reset()
		fmt.Println("ok")

	case "whoami":
		user, err := session.Refresh(ctx)
		if errors.Is(err, errs.ErrNoToken) {
			fmt.Fprintln(os.Stderr, "not logged in")
			os.Exit(1)
		}
		if err != nil {
			fail(session.State().Error)
		}
		printJSON(user)

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		filter := fs.String("filter", "", "name substring filter")
		_ = fs.Parse(args)
		mustRestore(ctx, session)
		items, err := contacts.FetchAll(ctx)
		if err != nil {
			fail(contacts.State().Error)
		}
		printJSON(state.FilteredContacts(items, state.Filter{Name: *filter}))

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		name := fs.String("name", "", "contact name")
		number := fs.String("number", "", "contact number")
		_ = fs.Parse(args)
		if *name == "" || *number == "" {
			fmt.Fprintln(os.Stderr, "need -name and -number")
			os.Exit(1)
		}
		mustRestore(ctx, session)
		// fetch first so the advisory duplicate-name check sees the
		// current list
		if _, err := contacts.FetchAll(ctx); err != nil {
			fail(contacts.State().Error)
		}
		added, err := contacts.Add(ctx, *name, *number)
		if err != nil {
			fail(contacts.State().Error)
		}
		printJSON(added)

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ExitOnError)
		id := fs.String("id", "", "contact id")
		_ = fs.Parse(args)
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		mustRestore(ctx, session)
		if _, err := contacts.FetchAll(ctx); err != nil {
			fail(contacts.State().Error)
		}
		if err := contacts.Remove(ctx, *id); err != nil {
			fail(contacts.State().Error)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// mustRestore re-establishes the session from the persisted token; the
// command cannot proceed without one.
func mustRestore(ctx context.Context, session *state.Session) {
	if _, err := session.Refresh(ctx); err != nil {
		if errors.Is(err, errs.ErrNoToken) {
			fmt.Fprintln(os.Stderr, "not logged in (run: pbook login)")
			os.Exit(1)
		}
		fail(session.State().Error)
	}
}
