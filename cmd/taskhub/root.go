package main

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "taskhub",
		Short:        "Terminal client for the taskhub backend",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Sign in once; the session is kept in TASKHUB_STATE_PATH
  taskhub login --username ana --password secret

  # Lists follow your role: admins see everything, others see their own
  taskhub tasks list --status IN_PROGRESS
  taskhub projects trash

  # Real-time chat
  taskhub chat listen --project 4
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd.Context())
		},
	}

	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print JSON instead of tables")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newThemeCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newNotificationsCmd(app))
	cmd.AddCommand(newPaymentsCmd(app))
	cmd.AddCommand(newChatCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newAnalyticsCmd(app))
	cmd.AddCommand(newDashboardCmd(app))
	cmd.AddCommand(newHealthCmd(app))

	return cmd
}
