// Package main provides the automodeler CLI, a terminal front-end for the
// AutoModeler model-building wizard.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jdziat/automodeler-go/internal/config"
	"github.com/jdziat/automodeler-go/internal/prompt"
)

const version = "1.0.0"

// command runs with a ready app and the arguments after the command name.
type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":    loginCmd,
	"register": registerCmd,
	"logout":   logoutCmd,
	"projects": projectsCmd,
	"wizard":   wizardCmd,
	"preview":  previewCmd,
	"plot":     plotCmd,
	"predict":  predictCmd,
	"status":   statusCmd,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "automodeler version %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	a, err := newApp(cfg, stdin, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd(ctx, a, args[1:]); err != nil {
		if errors.Is(err, prompt.ErrAborted) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "Aborted.")
			return 130
		}
		a.log.Sugar().Errorw("command failed", "command", args[0], "error", err)
		fmt.Fprintf(stderr, "Error: %s\n", describe(err))
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `automodeler - build, train and evaluate models on an AutoModeler backend

Usage:
  automodeler <command> [arguments]

Commands:
  login [username]          Log in and remember the session
  register                  Create an account
  logout                    Log out and forget the session
  projects [list]           List your projects
  projects show <name>      Show one project
  projects delete <name>    Delete a project
  wizard [-restart]         Resume or start the model-building wizard
  preview <source> <name>   Preview a dataset (source: custom, predefined, create)
  plot [-o file] [-format]  Render the plot of the current run
  predict <project>         Run a saved model on values you type
  status                    Show the session and the current run
  version                   Print version information
  help                      Show this help message

Environment Variables:
  AUTOMODELER_BASE_URL      Override the backend URL
  AUTOMODELER_TIMEOUT       Override the request timeout (e.g. 90s)
  AUTOMODELER_STORE         State store: file, sqlite or memory
  AUTOMODELER_STORE_PATH    Path of the state store
  AUTOMODELER_LOG_FILE      Write a JSON log to this file
  AUTOMODELER_LOG_LEVEL     debug, info, warn or error

Configuration:
  Create .automodeler.yaml in your project directory or your home directory.`)
}
