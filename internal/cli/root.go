// Package cli is the fishtrack command line client.  It hosts the capture
// form flow and the catch list view models on top of the HTTP API and
// renders their alerts with lipgloss.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/fishtrack/internal/alert"
	"github.com/iliyamo/fishtrack/internal/client"
)

// ErrShown marks a failure that was already rendered as an alert.  Callers
// should exit non-zero without printing it again.
var ErrShown = errors.New("alert shown")

// App is the state shared by every command of one invocation.
type App struct {
	Out  io.Writer
	In   io.Reader
	Log  *zap.Logger
	HTTP *http.Client

	configPath string
	server     string

	settings *Settings
	api      *client.Client
	theme    Theme
}

// NewApp returns an App writing to stdout and reading from stdin.
func NewApp(log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{Out: os.Stdout, In: os.Stdin, Log: log}
}

// NewRootCommand builds the command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "fishtrack",
		Short:         "Log and browse your fishing catches",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init()
		},
	}
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "settings file (default $FISHTRACK_CONFIG or ~/.fishtrack.yaml)")
	root.PersistentFlags().StringVar(&app.server, "server", "", "API base URL, saved for later runs")

	root.AddCommand(
		app.registerCmd(),
		app.loginCmd(),
		app.logoutCmd(),
		app.resetPasswordCmd(),
		app.whoamiCmd(),
		app.captureCmd(),
		app.catchesCmd(),
		app.weatherCmd(),
		app.themeCmd(),
	)
	return root
}

func (a *App) init() error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}
	s, err := LoadSettings(path)
	if err != nil {
		return err
	}
	if a.server != "" && a.server != s.Server {
		s.Server = a.server
		if err := s.Save(); err != nil {
			return err
		}
	}
	a.settings = s
	a.theme = ThemeByName(s.Theme)
	a.api = client.New(s.Server, a.HTTP, s)
	return nil
}

// show renders r.  Error alerts become ErrShown so the exit status is
// non-zero.
func (a *App) show(r *alert.Request) error {
	if r == nil {
		return nil
	}
	fmt.Fprintln(a.Out, a.theme.RenderAlert(r))
	if r.Kind == alert.KindError {
		return ErrShown
	}
	return nil
}

// fail renders err through the alert table.
func (a *App) fail(err error, fallback string) error {
	return a.show(alert.FromError(err, fallback))
}

// confirm asks a yes/no question on In.
func (a *App) confirm(prompt string) bool {
	fmt.Fprintf(a.Out, "%s [s/N] ", prompt)
	line, _ := bufio.NewReader(a.In).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}

func (a *App) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
