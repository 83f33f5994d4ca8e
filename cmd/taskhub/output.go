package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/p-blackswan/taskhub/internal/resource"
)

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTable renders rows, or v as JSON when --json is set.
func (a *App) writeTable(v any, headers []string, rows [][]string) error {
	if a.JSON {
		return a.writeJSON(v)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(a.out, "(none)")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(a.out, t.String())
	return err
}

func (a *App) writePagination(p *resource.Pagination) {
	if p == nil || a.JSON {
		return
	}
	fmt.Fprintf(a.out, "page %d of %d, %d total\n", p.PageIndex+1, max(p.TotalPages, 1), p.TotalItems)
}

// listOutput is the JSON shape of every list command.
type listOutput[T any] struct {
	Items      []T                  `json:"items"`
	Pagination *resource.Pagination `json:"pagination,omitempty"`
}

// writeState prints a hook state. A failed fetch has already been toasted and
// becomes the command error.
func writeState[T any](a *App, st resource.State[T], headers []string, row func(T) []string) error {
	if st.Err != nil {
		return st.Err
	}
	rows := make([][]string, 0, len(st.Items))
	for _, it := range st.Items {
		rows = append(rows, row(it))
	}
	if err := a.writeTable(listOutput[T]{Items: st.Items, Pagination: st.Pagination}, headers, rows); err != nil {
		return err
	}
	a.writePagination(st.Pagination)
	return nil
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func parseID(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return v, nil
}
