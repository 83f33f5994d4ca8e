package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apierr "github.com/p-blackswan/taskhub/internal/errors"
	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/session"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password, google string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a password or a Google credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter("/login"); err != nil {
				return err
			}
			var (
				user *models.User
				err  error
			)
			switch {
			case google != "":
				user, err = app.services.Auth.GoogleLogin(cmd.Context(), google)
			case username != "" && password != "":
				user, err = app.services.Auth.Login(cmd.Context(), username, password)
			default:
				return errors.New("either --username and --password or --google-credential is required")
			}
			if err != nil {
				app.notifier.Error(apierr.Message(err, "Login failed"))
				return err
			}
			app.notifier.Success("Login successful!")
			return app.writeUser(user)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&google, "google-credential", "", "Google OAuth credential")
	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter("/register"); err != nil {
				return err
			}
			user, err := app.services.Auth.Register(cmd.Context(), req)
			if err != nil {
				app.notifier.Error(apierr.Message(err, "Registration failed"))
				return err
			}
			app.notifier.Success("Registration successful!")
			return app.writeUser(user)
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	cmd.Flags().StringVar(&req.FullName, "full-name", "", "Full name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.services.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			app.session.Navigate(app.session.LoginRoute())
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and role context",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(session.DashboardRoute); err != nil {
				return err
			}
			return app.writeUser(app.session.User())
		},
	}
}

func (a *App) writeUser(u *models.User) error {
	if a.JSON {
		return a.writeJSON(struct {
			*models.User
			Strategy string `json:"strategy"`
		}{u, a.session.Strategy().String()})
	}
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, models.NormalizeRole(r.Name))
	}
	_, err := fmt.Fprintf(a.out, "%s (#%d) %s\nroles: %s\naccess: %s\n",
		u.Username, u.ID, u.Email, strings.Join(roles, ", "), a.session.Strategy())
	return err
}

func newThemeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{session.ThemeLight, session.ThemeDark, "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				var err error
				switch args[0] {
				case "toggle":
					_, err = app.session.ToggleTheme(ctx)
				case session.ThemeLight, session.ThemeDark:
					err = app.session.SetTheme(ctx, args[0])
				default:
					return fmt.Errorf("unknown theme %q", args[0])
				}
				if err != nil {
					return err
				}
			}
			_, err := fmt.Fprintln(app.out, app.session.Theme())
			return err
		},
	}
}
