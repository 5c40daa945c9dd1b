// Package cli is an interactive terminal front end for the Narratia API.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"narratia/internal/client"

	"golang.org/x/term"
)

// App is the terminal client. It keeps the API session for the lifetime of
// the process.
type App struct {
	api         *client.Client
	in          *bufio.Reader
	out         io.Writer
	pageSize    int
	interactive bool
}

// NewApp creates an App reading commands from in and writing to out.
// Passwords are read without echo when in is a terminal.
func NewApp(api *client.Client, in io.Reader, out io.Writer, pageSize int) *App {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	if pageSize <= 0 {
		pageSize = 4
	}
	return &App{
		api:         api,
		in:          bufio.NewReader(in),
		out:         out,
		pageSize:    pageSize,
		interactive: interactive,
	}
}

type command struct {
	name  string
	usage string
	auth  bool
	run   func(a *App, args []string) error
}

// commands is filled in init because help reads it.
var commands []command

func init() {
	commands = []command{
		{"signup", "signup              create an account", false, (*App).signup},
		{"login", "login               log in with username or email", false, (*App).login},
		{"logout", "logout              forget the session", true, (*App).logout},
		{"feed", "feed [page]         browse everyone's stories", false, (*App).feed},
		{"mine", "mine [page]         browse your stories", true, (*App).mine},
		{"make", "make                generate and publish a story", true, (*App).makeStory},
		{"edit", "edit <id>           edit one of your stories", true, (*App).edit},
		{"delete", "delete <id>         delete one of your stories", true, (*App).deleteStory},
		{"whoami", "whoami              show the logged in user", false, (*App).whoami},
		{"help", "help                show this list", false, (*App).help},
		{"exit", "exit                leave the program", false, nil},
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// Run reads commands until exit, EOF or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, "Welcome to Narratia. Type 'help' for commands.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := readLine(a.in, a.out, a.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(a.out)
				return nil
			}
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		name := strings.ToLower(fields[0])
		if name == "exit" || name == "quit" {
			fmt.Fprintln(a.out, "Bye!")
			return nil
		}

		cmd, ok := lookup(name)
		if !ok {
			fmt.Fprintf(a.out, "Unknown command %q. Type 'help' for commands.\n", fields[0])
			continue
		}
		if cmd.auth && a.api.Session() == nil {
			fmt.Fprintln(a.out, "Please log in first.")
			continue
		}
		if err := cmd.run(a, fields[1:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			a.report(err)
		}
	}
}

func (a *App) prompt() string {
	if user := a.api.Session(); user != nil {
		return user.Username + "> "
	}
	return "narratia> "
}

// report prints a failed command. Server messages are shown as they are.
func (a *App) report(err error) {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		fmt.Fprintf(a.out, "Error: %s\n", apiErr.Message)
	case errors.Is(err, client.ErrNotLoggedIn):
		fmt.Fprintln(a.out, "Please log in first.")
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
}

// pageArg parses an optional 1-based page number.
func pageArg(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	page, err := strconv.Atoi(args[0])
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page %q", args[0])
	}
	return page, nil
}

func idArg(args []string, usage string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return args[0], nil
}
