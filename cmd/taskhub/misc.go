package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/p-blackswan/taskhub/internal/health"
	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/resource"
	"github.com/p-blackswan/taskhub/internal/session"
)

// guarded wraps init and the route guard for a top-level command.
func guarded(app *App, route string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := app.init(cmd.Context()); err != nil {
			return err
		}
		return app.enter(route)
	}
}

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "users",
		Short:             "User lookup (admin)",
		PersistentPreRunE: guarded(app, "/users"),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "search <term>",
		Short: "Find up to ten users by username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.services.Users.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.writeUsers(users)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id|username>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				user *models.User
				err  error
			)
			if n, perr := strconv.ParseInt(args[0], 10, 64); perr == nil {
				user, err = app.services.Users.Get(cmd.Context(), n)
			} else {
				user, err = app.services.Users.ByUsername(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return app.writeUsers([]models.User{*user})
		},
	})
	return cmd
}

func (a *App) writeUsers(users []models.User) error {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		roles := make([]string, 0, len(u.Roles))
		for _, r := range u.Roles {
			roles = append(roles, models.NormalizeRole(r.Name))
		}
		rows = append(rows, []string{id(u.ID), u.Username, u.FullName, u.Email, strings.Join(roles, ",")})
	}
	return a.writeTable(users, []string{"ID", "USERNAME", "NAME", "EMAIL", "ROLES"}, rows)
}

func newAnalyticsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:               "analytics",
		Short:             "Task analytics summary (admin)",
		Args:              cobra.NoArgs,
		PersistentPreRunE: guarded(app, "/analytics"),
		RunE: func(cmd *cobra.Command, args []string) error {
			hook := resource.NewAnalytics(app.services.Analytics, app.deps())
			hook.Load(cmd.Context())
			st := hook.State()
			if st.Err != nil {
				return st.Err
			}
			return app.writeSummary(st.Summary)
		},
	}
}

func (a *App) writeSummary(s *models.TasksSummary) error {
	if a.JSON {
		return a.writeJSON(s)
	}
	rows := [][]string{
		{"total", strconv.Itoa(s.TotalTasks)},
		{"overdue", strconv.Itoa(s.OverdueTasks)},
		{"completed this week", strconv.Itoa(s.CompletedThisWeek)},
		{"completed this month", strconv.Itoa(s.CompletedThisMonth)},
	}
	rows = append(rows, countRows("status", s.TasksByStatus)...)
	rows = append(rows, countRows("priority", s.TasksByPriority)...)
	return a.writeTable(s, []string{"METRIC", "VALUE"}, rows)
}

func countRows[K ~string](prefix string, m map[K]int) [][]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{prefix + " " + k, strconv.Itoa(m[K(k)])})
	}
	return rows
}

// dashboardView is the JSON shape of the dashboard command.
type dashboardView struct {
	Access        string               `json:"access"`
	Tasks         int                  `json:"tasks"`
	Projects      int                  `json:"projects"`
	Notifications int                  `json:"notifications"`
	Unread        int                  `json:"unread"`
	Summary       *models.TasksSummary `json:"summary,omitempty"`
}

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:               "dashboard",
		Short:             "Load every dashboard widget at once",
		Args:              cobra.NoArgs,
		PersistentPreRunE: guarded(app, session.DashboardRoute),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.loadDashboard(cmd.Context())
			if err != nil {
				return err
			}
			if app.JSON {
				return app.writeJSON(view)
			}
			rows := [][]string{
				{"access", view.Access},
				{"tasks", strconv.Itoa(view.Tasks)},
				{"projects", strconv.Itoa(view.Projects)},
				{"notifications", fmt.Sprintf("%d (%d unread)", view.Notifications, view.Unread)},
			}
			if view.Summary != nil {
				rows = append(rows,
					[]string{"overdue tasks", strconv.Itoa(view.Summary.OverdueTasks)},
					[]string{"completed this week", strconv.Itoa(view.Summary.CompletedThisWeek)})
			}
			return app.writeTable(view, []string{"WIDGET", "VALUE"}, rows)
		},
	}
}

// loadDashboard mounts the widget hooks concurrently. The group carries no
// context, so one failing widget does not cancel the others; Wait only says
// whether any failed and every widget error is joined afterwards.
func (a *App) loadDashboard(ctx context.Context) (*dashboardView, error) {
	strategy := a.session.Strategy()
	tasks := a.tasksHook(resource.Filter{})
	projects := a.projectsHook(resource.Filter{})
	notifications := a.notificationsHook(resource.Filter{})
	var analytics *resource.Analytics
	if strategy == session.Elevated {
		analytics = resource.NewAnalytics(a.services.Analytics, a.deps())
	}

	var g errgroup.Group
	g.Go(func() error { tasks.Mount(ctx); return tasks.State().Err })
	g.Go(func() error { projects.Mount(ctx); return projects.State().Err })
	g.Go(func() error { notifications.Mount(ctx); return notifications.State().Err })
	if analytics != nil {
		g.Go(func() error { analytics.Load(ctx); return analytics.State().Err })
	}
	failed := g.Wait()

	view := &dashboardView{Access: strategy.String()}
	ts, ps, ns := tasks.State(), projects.State(), notifications.State()
	errs := []error{ts.Err, ps.Err, ns.Err}
	view.Tasks = total(ts.Pagination, len(ts.Items))
	view.Projects = total(ps.Pagination, len(ps.Items))
	view.Notifications = total(ns.Pagination, len(ns.Items))
	view.Unread = notifications.UnreadCount()
	if analytics != nil {
		as := analytics.State()
		view.Summary = as.Summary
		errs = append(errs, as.Err)
	}
	if failed != nil {
		return view, errors.Join(errs...)
	}
	return view, nil
}

func total(p *resource.Pagination, fallback int) int {
	if p == nil {
		return fallback
	}
	return p.TotalItems
}

func newHealthCmd(app *App) *cobra.Command {
	var withChat bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the backend and chat broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if withChat {
				if err := app.chat.Connect(cmd.Context()); err != nil {
					app.logger.Warn().Err(err).Msg("chat connect failed")
				}
				defer app.chat.Disconnect()
			}
			results := app.checker.RunAll(cmd.Context())
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, string(r.Status)})
			}
			if err := app.writeTable(results, []string{"CHECK", "STATUS"}, rows); err != nil {
				return err
			}
			if !health.Ready(results) {
				return errors.New("not ready")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withChat, "chat", false, "Connect to the chat broker before checking it")
	return cmd
}
