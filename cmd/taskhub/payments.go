package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/resource"
)

var paymentHeaders = []string{"ID", "PROJECT", "USER", "AMOUNT", "STATUS", "TRANSACTION", "CREATED"}

func paymentRow(p models.Payment) []string {
	project, user := "", ""
	if p.Project != nil {
		project = p.Project.Name
	}
	if p.User != nil {
		user = p.User.Username
	}
	return []string{id(p.ID), project, user, strconv.FormatInt(p.Amount, 10), string(p.Status), p.VnpTransactionNo, p.CreatedAt}
}

func newPaymentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "payments",
		Short:             "Payment commands (admin)",
		PersistentPreRunE: guarded(app, "/payments"),
	}
	cmd.AddCommand(newPaymentsListCmd(app))
	cmd.AddCommand(newPaymentsCreateCmd(app))
	cmd.AddCommand(newPaymentsCallbackCmd(app))
	return cmd
}

func (a *App) paymentsHook(f resource.Filter) *resource.Payments {
	return resource.NewPayments(a.services.Payments, a.session.Strategy(), f, a.deps())
}

func newPaymentsListCmd(app *App) *cobra.Command {
	var f resource.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			hook := app.paymentsHook(f)
			hook.Mount(cmd.Context())
			return writeState(app, hook.State(), paymentHeaders, paymentRow)
		},
	}
	cmd.Flags().IntVar(&f.Page, "page", 0, "Zero-based page index")
	cmd.Flags().IntVar(&f.Size, "size", 0, "Page size")
	cmd.Flags().StringVar(&f.Status, "status", "all", "Status filter (all, PENDING, SUCCESS, FAILED)")
	return cmd
}

func newPaymentsCreateCmd(app *App) *cobra.Command {
	var (
		projectID int64
		amount    int64
		returnURL string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Start a payment and print the gateway URL",
		Example: "  taskhub payments create --project 3 --amount 100000 --return-url http://localhost:3000/payments/callback",
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount <= 0 {
				return fmt.Errorf("amount must be positive")
			}
			link, err := app.paymentsHook(resource.Filter{}).Initiate(cmd.Context(), projectID, amount, returnURL)
			if err != nil {
				return err
			}
			if app.JSON {
				return app.writeJSON(map[string]string{"paymentUrl": link})
			}
			_, err = fmt.Fprintln(app.out, link)
			return err
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Project ID")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Amount in the smallest currency unit")
	cmd.Flags().StringVar(&returnURL, "return-url", "", "Where the gateway sends the user back")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newPaymentsCallbackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "callback <query-string|return-url>",
		Short: "Forward the gateway return parameters to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := callbackParams(args[0])
			if err != nil {
				return err
			}
			payment, err := app.paymentsHook(resource.Filter{}).HandleCallback(cmd.Context(), params)
			if payment != nil {
				if werr := app.writeTable(payment, paymentHeaders, [][]string{paymentRow(*payment)}); werr != nil {
					return werr
				}
			}
			return err
		},
	}
}

// callbackParams accepts either a full return URL or its raw query.
func callbackParams(raw string) (url.Values, error) {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	params, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parse callback query: %w", err)
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("callback query is empty")
	}
	return params, nil
}
