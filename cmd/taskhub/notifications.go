package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/resource"
)

var notificationHeaders = []string{"ID", "TYPE", "STATUS", "MESSAGE", "CREATED"}

func notificationRow(n models.Notification) []string {
	status := string(n.Status)
	if n.Unread() {
		status = "● " + status
	}
	return []string{id(n.ID), string(n.Type), status, n.Message, n.CreatedAt}
}

func newNotificationsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "notifications",
		Aliases:           []string{"notif"},
		Short:             "Notification commands",
		PersistentPreRunE: guarded(app, "/notifications"),
	}
	cmd.AddCommand(newNotificationsListCmd(app))
	cmd.AddCommand(newNotificationsReadCmd(app))
	cmd.AddCommand(newNotificationsReadAllCmd(app))
	cmd.AddCommand(newNotificationsWatchCmd(app))
	return cmd
}

func (a *App) notificationsHook(f resource.Filter) *resource.Notifications {
	return resource.NewNotifications(a.services.Notifications, a.session.Strategy(), f, a.deps())
}

func newNotificationsListCmd(app *App) *cobra.Command {
	var f resource.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			hook := app.notificationsHook(f)
			hook.Mount(cmd.Context())
			if err := writeState(app, hook.State(), notificationHeaders, notificationRow); err != nil {
				return err
			}
			if !app.JSON {
				fmt.Fprintf(app.out, "%d unread\n", hook.UnreadCount())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&f.Page, "page", 0, "Zero-based page index")
	cmd.Flags().IntVar(&f.Size, "size", 0, "Page size")
	return cmd
}

func newNotificationsReadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notificationID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.notificationsHook(resource.Filter{}).MarkRead(cmd.Context(), notificationID)
		},
	}
}

func newNotificationsReadAllCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.notificationsHook(resource.Filter{}).MarkAllRead(cmd.Context())
		},
	}
}

func newNotificationsWatchCmd(app *App) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll notifications and report new unread ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}
			ctx := cmd.Context()
			hook := app.notificationsHook(resource.Filter{})

			seen := make(map[int64]bool)
			report := func(st resource.State[models.Notification]) {
				if st.Loading || st.Err != nil {
					return
				}
				for _, n := range st.Items {
					if !n.Unread() || seen[n.ID] {
						continue
					}
					seen[n.ID] = true
					if app.JSON {
						_ = app.writeJSON(n)
						continue
					}
					fmt.Fprintf(app.out, "%s  %s  %s\n", n.CreatedAt, n.Type, n.Message)
				}
			}
			unsubscribe := hook.Subscribe(report)
			defer unsubscribe()

			hook.Mount(ctx)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				// A 401 during a poll expires the session and ends the watch.
				if !app.session.Authenticated() {
					return fmt.Errorf("%w to %s", errRedirected, app.session.LoginRoute())
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					hook.Refetch(ctx)
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Polling interval")
	return cmd
}
