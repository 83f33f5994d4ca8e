package main

import (
	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/resource"
)

var taskHeaders = []string{"ID", "TITLE", "STATUS", "PRIORITY", "DEADLINE", "PROJECT", "OVERDUE"}

func taskRow(t models.Task) []string {
	project := ""
	if t.Project != nil {
		project = t.Project.Name
	}
	overdue := ""
	if t.Overdue {
		overdue = "yes"
	}
	return []string{id(t.ID), t.Title, string(t.Status), string(t.Priority), t.Deadline, project, overdue}
}

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "tasks",
		Short:             "Task commands",
		PersistentPreRunE: guarded(app, "/tasks"),
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksStatusCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksTrashCmd(app))
	cmd.AddCommand(newTasksRestoreCmd(app))
	return cmd
}

func (a *App) tasksHook(f resource.Filter) *resource.Tasks {
	return resource.NewTasks(a.services.Tasks, a.session.Strategy(), f, a.deps())
}

func newTasksListCmd(app *App) *cobra.Command {
	var f resource.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks (all for admins, assigned for everyone else)",
		RunE: func(cmd *cobra.Command, args []string) error {
			hook := app.tasksHook(f)
			hook.Mount(cmd.Context())
			return writeState(app, hook.State(), taskHeaders, taskRow)
		},
	}
	addListFlags(cmd, &f)
	cmd.Flags().StringVar(&f.Priority, "priority", "", "Priority filter (LOW, MEDIUM, HIGH, URGENT)")
	cmd.Flags().Int64Var(&f.ProjectID, "project", 0, "Project filter")
	cmd.Flags().Int64Var(&f.AssigneeID, "assignee", 0, "Assignee filter")
	return cmd
}

func addListFlags(cmd *cobra.Command, f *resource.Filter) {
	cmd.Flags().IntVar(&f.Page, "page", 0, "Zero-based page index")
	cmd.Flags().IntVar(&f.Size, "size", 0, "Page size (default per resource)")
	cmd.Flags().StringVar(&f.Status, "status", "", "Status filter (all = none)")
	cmd.Flags().StringVar(&f.Sort, "sort", "", "Sort expression, e.g. createdAt,desc")
	cmd.Flags().StringVar(&f.Search, "search", "", "Free-text search")
}

func addTaskFlags(cmd *cobra.Command, req *models.TaskRequest, priority, status *string) {
	cmd.Flags().StringVar(&req.Title, "title", "", "Title")
	cmd.Flags().StringVar(&req.Description, "description", "", "Description")
	cmd.Flags().StringVar(priority, "priority", "", "Priority (LOW, MEDIUM, HIGH, URGENT)")
	cmd.Flags().StringVar(status, "status", "", "Status (TODO, IN_PROGRESS, DONE, CANCELLED)")
	cmd.Flags().StringVar(&req.Deadline, "deadline", "", "Deadline, e.g. 2024-12-31T17:00:00")
	cmd.Flags().Int64Var(&req.ProjectID, "project", 0, "Project ID")
	cmd.Flags().Int64SliceVar(&req.Assignees, "assignee", nil, "Assignee user IDs")
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var req models.TaskRequest
	var priority, status string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Priority, req.Status = models.TaskPriority(priority), models.TaskStatus(status)
			return app.tasksHook(resource.Filter{}).Create(cmd.Context(), req)
		},
	}
	addTaskFlags(cmd, &req, &priority, &status)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var req models.TaskRequest
	var priority, status string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			req.Priority, req.Status = models.TaskPriority(priority), models.TaskStatus(status)
			return app.tasksHook(resource.Filter{}).Update(cmd.Context(), taskID, req)
		},
	}
	addTaskFlags(cmd, &req, &priority, &status)
	return cmd
}

func newTasksStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "status <id> <TODO|IN_PROGRESS|DONE|CANCELLED>",
		Short:     "Change only the status of a task",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.TaskTodo), string(models.TaskInProgress), string(models.TaskDone), string(models.TaskCancelled)},
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.tasksHook(resource.Filter{}).UpdateStatus(cmd.Context(), taskID, models.TaskStatus(args[1]))
		},
	}
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Move a task to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.tasksHook(resource.Filter{}).Delete(cmd.Context(), taskID)
		},
	}
}

func (a *App) taskTrash(page int) *resource.SoftDeleted[models.Task] {
	return resource.NewSoftDeletedTasks(a.services.Tasks, a.session.Strategy(), resource.Filter{Page: page}, a.deps())
}

func newTasksTrashCmd(app *App) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "trash",
		Short: "List soft-deleted tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			hook := app.taskTrash(page)
			hook.Mount(cmd.Context())
			return writeState(app, hook.State(), taskHeaders, taskRow)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page index")
	return cmd
}

func newTasksRestoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a soft-deleted task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.taskTrash(0).Restore(cmd.Context(), taskID)
		},
	}
}
