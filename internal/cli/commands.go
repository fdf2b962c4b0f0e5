package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/fishtrack/internal/alert"
	"github.com/iliyamo/fishtrack/internal/flow"
	"github.com/iliyamo/fishtrack/internal/views"
)

const (
	msgLoggedIn   = "Login realizado com sucesso!"
	msgRegistered = "Conta criada com sucesso!"
	msgLoggedOut  = "Você saiu da sua conta."
	msgResetSent  = "Enviamos um link de recuperação para o seu email."
	msgLoginFail  = "Não foi possível fazer login."
	msgSignupFail = "Não foi possível criar a conta."
	msgLogoutFail = "Não foi possível sair da conta."
	msgResetFail  = "Não foi possível enviar o email de recuperação."
	msgUploadFail = "Não foi possível enviar a foto."
	msgCancelled  = "Operação cancelada."
)

func (a *App) registerCmd() *cobra.Command {
	var email, password, name, nickname string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.api.Register(a.ctx(cmd), email, password, name, nickname)
			if err != nil {
				return a.fail(err, msgSignupFail)
			}
			return a.show(alert.Success(fmt.Sprintf("%s Bem-vindo, %s.", msgRegistered, u.Nickname)))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&nickname, "nickname", "", "public nickname")
	return cmd
}

func (a *App) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.api.Login(a.ctx(cmd), email, password); err != nil {
				return a.fail(err, msgLoginFail)
			}
			return a.show(alert.Success(msgLoggedIn))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.api.Logout(a.ctx(cmd)); err != nil {
				return a.fail(err, msgLogoutFail)
			}
			return a.show(alert.Success(msgLoggedOut))
		},
	}
}

func (a *App) resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Mail a password recovery link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.api.ResetPassword(a.ctx(cmd), email); err != nil {
				return a.fail(err, msgResetFail)
			}
			return a.show(alert.Success(msgResetSent))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.api.CurrentUser(a.ctx(cmd))
			if err != nil {
				return a.fail(err, alert.MsgProfileNotFound)
			}
			if u == nil {
				return a.show(alert.LoginRequired(alert.MsgUnauthenticated))
			}
			fmt.Fprintf(a.Out, "%s (@%s)\n%s\n", u.Name, u.Nickname, u.Email)
			return nil
		},
	}
}

// flagLocator serves the device location from --lat/--lon.  Leaving either
// flag out stands for a denied location permission.
type flagLocator struct {
	cmd      *cobra.Command
	lat, lon float64
}

func (l flagLocator) Locate(context.Context) (flow.Location, error) {
	if !l.cmd.Flags().Changed("lat") || !l.cmd.Flags().Changed("lon") {
		return flow.Location{}, flow.ErrPermissionDenied
	}
	return flow.Location{Latitude: l.lat, Longitude: l.lon}, nil
}

func (a *App) captureCmd() *cobra.Command {
	var (
		loc                                         flagLocator
		image, species, weight, size, desc, weather string
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Log a new catch at the current location",
		Long: `Log a new catch.  --lat/--lon stand for the device location; without
them the location permission counts as denied.  --image is a local file,
uploaded to photo storage first, or an image URI stored as is.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := a.ctx(cmd)
			loc.cmd = cmd
			form := flow.NewCaptureForm(loc, a.api, a.api, a.api, a.Log)
			// Location and weather problems leave the form usable.
			_ = a.show(form.Begin(ctx))

			if image != "" {
				if _, err := os.Stat(image); err == nil && a.api.Authenticated(ctx) {
					photo, err := a.api.UploadPhoto(ctx, image)
					if err != nil {
						return a.fail(err, msgUploadFail)
					}
					image = photo.URL
				}
			}
			form.SetImage(image)
			form.SetSpecies(species)
			form.SetWeight(weight)
			form.SetSize(size)
			form.SetDescription(desc)
			if weather != "" {
				form.SetWeather(weather)
			}
			return a.show(form.Submit(ctx))
		},
	}
	f := cmd.Flags()
	f.Float64Var(&loc.lat, "lat", 0, "device latitude")
	f.Float64Var(&loc.lon, "lon", 0, "device longitude")
	f.StringVar(&image, "image", "", "photo file or URI")
	f.StringVar(&species, "species", "", "species name")
	f.StringVar(&weight, "weight", "", "weight in kg")
	f.StringVar(&size, "size", "", "length in cm")
	f.StringVar(&desc, "description", "", "optional notes")
	f.StringVar(&weather, "weather", "", "weather summary, filled from the location when empty")
	return cmd
}

func (a *App) catchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catches",
		Short: "Browse, edit and delete your catches",
	}
	cmd.AddCommand(a.catchesListCmd(), a.catchesMapCmd(), a.catchesEditCmd(), a.catchesDeleteCmd())
	return cmd
}

// loadList focuses the catch list and reports whether it loaded.
func (a *App) loadList(ctx context.Context) (*views.CatchList, error) {
	list := views.NewCatchList(a.api, a.api, a.Log)
	if r := list.Load(ctx); r != nil {
		if err := a.show(r); err != nil {
			return nil, err
		}
		return nil, ErrShown
	}
	return list, nil
}

func (a *App) catchesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catches, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.loadList(a.ctx(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, a.theme.RenderCards(list.Cards()))
			return nil
		},
	}
}

func (a *App) catchesMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Show catches as map pins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.loadList(a.ctx(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, a.theme.RenderPins(list.Pins()))
			return nil
		},
	}
}

func (a *App) catchesEditCmd() *cobra.Command {
	var species, size, weight, weather string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit species, size, weight or weather of a catch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.ctx(cmd)
			list, err := a.loadList(ctx)
			if err != nil {
				return err
			}
			form, err := list.BeginEdit(args[0])
			if err != nil {
				return a.show(alert.Error(alert.MsgNotOwned))
			}
			f := cmd.Flags()
			if f.Changed("species") {
				form.Species = species
			}
			if f.Changed("size") {
				form.Size = size
			}
			if f.Changed("weight") {
				form.Weight = weight
			}
			if f.Changed("weather") {
				form.Weather = weather
			}
			return a.show(list.SaveEdit(ctx, args[0], form))
		},
	}
	cmd.Flags().StringVar(&species, "species", "", "species name")
	cmd.Flags().StringVar(&size, "size", "", "length in cm")
	cmd.Flags().StringVar(&weight, "weight", "", "weight in kg")
	cmd.Flags().StringVar(&weather, "weather", "", "weather summary")
	return cmd
}

func (a *App) catchesDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a catch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.ctx(cmd)
			list, err := a.loadList(ctx)
			if err != nil {
				return err
			}
			if !yes {
				prompt := list.RequestDelete(args[0])
				fmt.Fprintln(a.Out, a.theme.RenderAlert(prompt))
				if !a.confirm(prompt.Title) {
					fmt.Fprintln(a.Out, msgCancelled)
					return nil
				}
			}
			return a.show(list.ConfirmDelete(ctx, args[0]))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}

func (a *App) weatherCmd() *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show conditions, forecast and fishing advice for a location",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
				return a.show(alert.Permission(flow.MsgLocationForWeather))
			}
			report, err := a.api.Advice(a.ctx(cmd), lat, lon)
			if err != nil {
				return a.fail(err, alert.MsgWeatherDown)
			}
			fmt.Fprintln(a.Out, a.theme.RenderAdvice(report))
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	return cmd
}

func (a *App) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light]",
		Short:     "Show or set the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{ThemeDark, ThemeLight},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(a.Out, a.settings.Theme)
				return nil
			}
			name := strings.ToLower(args[0])
			if name != ThemeDark && name != ThemeLight {
				return fmt.Errorf("unknown theme %q, want dark or light", args[0])
			}
			a.settings.Theme = name
			if err := a.settings.Save(); err != nil {
				return err
			}
			a.theme = ThemeByName(name)
			fmt.Fprintln(a.Out, name)
			return nil
		},
	}
}
