package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"fastlog/internal/config"
	"fastlog/pkg/fastlog"
)

// CLI is the fastlog command tree.
type CLI struct {
	Store  config.Store `embed:""`
	Log    config.Log   `embed:""`
	Format string       `enum:"table,json" default:"table" help:"Output format (table|json)."`

	List     ListCmd     `cmd:"" help:"List fast logs, newest first." default:"1"`
	Get      GetCmd      `cmd:"" help:"Show one fast log."`
	Create   CreateCmd   `cmd:"" help:"Record a fast."`
	Update   UpdateCmd   `cmd:"" help:"Replace every field of a fast log."`
	Complete CompleteCmd `cmd:"" help:"Mark a fast log as completed."`
	Delete   DeleteCmd   `cmd:"" help:"Delete a fast log."`
	Status   StatusCmd   `cmd:"" help:"Show fast log counts."`
}

// app is bound into every command's Run.
type app struct {
	ctx    context.Context
	logs   *fastlog.Service
	out    io.Writer
	format string
}

type ListCmd struct {
	Type      string `name:"type" short:"t" help:"Only this fast type (RELIGIOUS|INTERMITTENT)."`
	Completed bool   `help:"Only completed fasts."`
	Pending   bool   `help:"Only fasts not yet completed."`
	From      string `help:"First date of a range (YYYY-MM-DD)."`
	To        string `help:"Last date of a range (YYYY-MM-DD)."`
}

func (c *ListCmd) Run(a *app) error {
	var (
		logs []fastlog.FastLog
		err  error
	)
	switch {
	case c.Type != "":
		var t fastlog.FastType
		if t, err = fastlog.ParseFastType(c.Type); err != nil {
			return err
		}
		logs, err = a.logs.ByFastType(a.ctx, t)
	case c.Completed || c.Pending:
		if c.Completed && c.Pending {
			return fmt.Errorf("--completed and --pending are mutually exclusive")
		}
		logs, err = a.logs.ByCompleted(a.ctx, c.Completed)
	case c.From != "" || c.To != "":
		var from, to fastlog.Date
		if from, err = fastlog.ParseDate(c.From); err != nil {
			return err
		}
		if to, err = fastlog.ParseDate(c.To); err != nil {
			return err
		}
		logs, err = a.logs.Between(a.ctx, from, to)
	default:
		logs, err = a.logs.All(a.ctx)
	}
	if err != nil {
		return err
	}
	return a.print(logs)
}

type GetCmd struct {
	ID int64 `arg:"" help:"Fast log id."`
}

func (c *GetCmd) Run(a *app) error {
	f, err := a.logs.Get(a.ctx, c.ID)
	if err != nil {
		return fmt.Errorf("fast log %d: %w", c.ID, err)
	}
	return a.print([]fastlog.FastLog{*f})
}

// FieldFlags are the editable columns shared by create and update.
type FieldFlags struct {
	Date      string `short:"d" required:"" help:"Date of the fast (YYYY-MM-DD)."`
	Type      string `name:"type" short:"t" required:"" help:"Fast type (RELIGIOUS|INTERMITTENT)."`
	Completed bool   `help:"Mark the fast as completed."`
	Notes     string `short:"n" help:"Free-text notes, up to 1000 characters."`
}

func (f FieldFlags) fastLog() (*fastlog.FastLog, error) {
	in := fastlog.Input{Date: f.Date, FastType: f.Type, Completed: f.Completed}
	if t, err := fastlog.ParseFastType(f.Type); err == nil {
		in.FastType = string(t)
	}
	if f.Notes != "" {
		notes := f.Notes
		in.Notes = &notes
	}
	return in.Validate()
}

type CreateCmd struct {
	FieldFlags `embed:""`
}

func (c *CreateCmd) Run(a *app) error {
	f, err := c.fastLog()
	if err != nil {
		return err
	}
	created, err := a.logs.Create(a.ctx, f)
	if err != nil {
		return err
	}
	return a.print([]fastlog.FastLog{*created})
}

type UpdateCmd struct {
	FieldFlags `embed:""`

	ID int64 `arg:"" help:"Fast log id."`
}

func (c *UpdateCmd) Run(a *app) error {
	f, err := c.fastLog()
	if err != nil {
		return err
	}
	updated, err := a.logs.Update(a.ctx, c.ID, f)
	if err != nil {
		return fmt.Errorf("fast log %d: %w", c.ID, err)
	}
	return a.print([]fastlog.FastLog{*updated})
}

type CompleteCmd struct {
	ID int64 `arg:"" help:"Fast log id."`
}

func (c *CompleteCmd) Run(a *app) error {
	f, err := a.logs.MarkCompleted(a.ctx, c.ID)
	if err != nil {
		return fmt.Errorf("fast log %d: %w", c.ID, err)
	}
	return a.print([]fastlog.FastLog{*f})
}

type DeleteCmd struct {
	ID int64 `arg:"" help:"Fast log id."`
}

func (c *DeleteCmd) Run(a *app) error {
	ok, err := a.logs.Delete(a.ctx, c.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("fast log %d: %w", c.ID, fastlog.ErrNotFound)
	}
	fmt.Fprintf(a.out, "deleted fast log %d\n", c.ID)
	return nil
}

type StatusCmd struct{}

func (c *StatusCmd) Run(a *app) error {
	stats, err := a.logs.Stats(a.ctx)
	if err != nil {
		return err
	}
	if a.format == "json" {
		return printJSON(a.out, stats)
	}
	fmt.Fprintf(a.out, "%s %d  %s %d  %s %d\n",
		labelStyle.Render("total"), stats.Total,
		labelStyle.Render("completed"), stats.Completed,
		labelStyle.Render("pending"), stats.Pending)
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	doneStyle   = cellStyle.Foreground(lipgloss.Color("10"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
)

func (a *app) print(logs []fastlog.FastLog) error {
	if a.format == "json" {
		return printJSON(a.out, logs)
	}
	_, err := fmt.Fprintln(a.out, renderTable(logs))
	return err
}

func renderTable(logs []fastlog.FastLog) string {
	rows := make([][]string, 0, len(logs))
	for _, f := range logs {
		id := ""
		if f.ID != nil {
			id = strconv.FormatInt(*f.ID, 10)
		}
		done := "no"
		if f.Completed {
			done = "yes"
		}
		notes := ""
		if f.Notes != nil {
			notes = truncStr(*f.Notes, 50)
		}
		rows = append(rows, []string{id, f.Date.String(), string(f.FastType), done, notes})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "DATE", "TYPE", "DONE", "NOTES").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(rows) && col == 3 && rows[row][3] == "yes":
				return doneStyle
			default:
				return cellStyle
			}
		}).
		String()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncStr(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
