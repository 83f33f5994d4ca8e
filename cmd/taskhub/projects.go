package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/resource"
)

var projectHeaders = []string{"ID", "NAME", "STATUS", "OWNER", "MEMBERS", "START", "END"}

func projectRow(p models.Project) []string {
	owner := ""
	if p.Owner != nil {
		owner = p.Owner.Username
	} else if p.OwnerID != 0 {
		owner = "#" + id(p.OwnerID)
	}
	return []string{id(p.ID), p.Name, string(p.Status), owner, strconv.Itoa(len(p.Members)), p.StartDate, p.EndDate}
}

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "projects",
		Short:             "Project commands",
		PersistentPreRunE: guarded(app, "/projects"),
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsCreateCmd(app))
	cmd.AddCommand(newProjectsUpdateCmd(app))
	cmd.AddCommand(newProjectsDeleteCmd(app))
	cmd.AddCommand(newProjectsTrashCmd(app))
	cmd.AddCommand(newProjectsRestoreCmd(app))
	cmd.AddCommand(newProjectsMemberCmd(app, "add-member", "Add a member to a project"))
	cmd.AddCommand(newProjectsMemberCmd(app, "remove-member", "Remove a member from a project"))
	cmd.AddCommand(newProjectsOwnerCmd(app))
	return cmd
}

func (a *App) projectsHook(f resource.Filter) *resource.Projects {
	return resource.NewProjects(a.services.Projects, a.session.Strategy(), f, a.deps())
}

func newProjectsListCmd(app *App) *cobra.Command {
	var f resource.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects (all for admins, your own for everyone else)",
		RunE: func(cmd *cobra.Command, args []string) error {
			hook := app.projectsHook(f)
			hook.Mount(cmd.Context())
			return writeState(app, hook.State(), projectHeaders, projectRow)
		},
	}
	addListFlags(cmd, &f)
	cmd.Flags().Int64Var(&f.OwnerID, "owner", 0, "Owner filter")
	return cmd
}

func addProjectFlags(cmd *cobra.Command, req *models.ProjectRequest, status *string) {
	cmd.Flags().StringVar(&req.Name, "name", "", "Name")
	cmd.Flags().StringVar(&req.Description, "description", "", "Description")
	cmd.Flags().StringVar(status, "status", "", "Status (PLANNING, IN_PROGRESS, COMPLETED, ON_HOLD)")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "Start date")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "End date")
}

func newProjectsCreateCmd(app *App) *cobra.Command {
	var req models.ProjectRequest
	var status string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Status = models.ProjectStatus(status)
			return app.projectsHook(resource.Filter{}).Create(cmd.Context(), req)
		},
	}
	addProjectFlags(cmd, &req, &status)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsUpdateCmd(app *App) *cobra.Command {
	var req models.ProjectRequest
	var status string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			req.Status = models.ProjectStatus(status)
			return app.projectsHook(resource.Filter{}).Update(cmd.Context(), projectID, req)
		},
	}
	addProjectFlags(cmd, &req, &status)
	return cmd
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Move a project to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.projectsHook(resource.Filter{}).Delete(cmd.Context(), projectID)
		},
	}
}

func (a *App) projectTrash(page int) *resource.SoftDeleted[models.Project] {
	return resource.NewSoftDeletedProjects(a.services.Projects, a.session.Strategy(), resource.Filter{Page: page}, a.deps())
}

func newProjectsTrashCmd(app *App) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "trash",
		Short: "List soft-deleted projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			hook := app.projectTrash(page)
			hook.Mount(cmd.Context())
			return writeState(app, hook.State(), projectHeaders, projectRow)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page index")
	return cmd
}

func newProjectsRestoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a soft-deleted project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.projectTrash(0).Restore(cmd.Context(), projectID)
		},
	}
}

func newProjectsMemberCmd(app *App, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <project-id> <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			userID, err := parseID(args[1])
			if err != nil {
				return err
			}
			hook := app.projectsHook(resource.Filter{})
			if use == "add-member" {
				return hook.AddMember(cmd.Context(), projectID, userID)
			}
			return hook.RemoveMember(cmd.Context(), projectID, userID)
		},
	}
}

func newProjectsOwnerCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "owner <project-id> <user-id>",
		Short: "Transfer project ownership",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			ownerID, err := parseID(args[1])
			if err != nil {
				return err
			}
			return app.projectsHook(resource.Filter{}).ChangeOwner(cmd.Context(), projectID, ownerID)
		},
	}
}
