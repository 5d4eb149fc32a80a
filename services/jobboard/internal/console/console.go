package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"campusjobs/services/jobboard/internal/batch"
	"campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/models"
	"campusjobs/services/jobboard/internal/query"
	"campusjobs/services/jobboard/internal/store"
	"campusjobs/services/jobboard/internal/view"

	"go.uber.org/zap"
)

// Console is a line-oriented front end for the job list. It reads commands
// from in and redraws the list on out whenever the view model changes.
type Console struct {
	in         *bufio.Scanner
	out        io.Writer
	outMu      sync.Mutex
	controller *view.Controller
	store      *store.Store
	adapter    *query.Adapter
	dispatcher *batch.Dispatcher
	logger     *zap.Logger
}

func New(in io.Reader, out io.Writer, controller *view.Controller, s *store.Store, adapter *query.Adapter, dispatcher *batch.Dispatcher, logger *zap.Logger) *Console {
	return &Console{
		in:         bufio.NewScanner(in),
		out:        out,
		controller: controller,
		store:      s,
		adapter:    adapter,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Run starts the controller and processes commands until quit, end of input
// or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.controller.Start(ctx, c)
	defer c.controller.Stop()

	c.printf("type \"help\" for commands\n")
	for ctx.Err() == nil {
		if !c.in.Scan() {
			return c.in.Err()
		}
		quit, err := c.Execute(ctx, c.in.Text())
		if err != nil {
			c.report(err)
		}
		if quit {
			return nil
		}
	}
	return nil
}

func (c *Console) report(err error) {
	switch errors.TypeOf(err) {
	case errors.ErrTypeInternal:
		c.logger.Error("command failed", zap.Error(err))
	default:
		c.logger.Debug("command rejected", zap.Error(err))
	}
	c.controller.Notify(errors.UserMessage(err))
}

// Execute runs one command line. quit is true for "quit" and "exit".
func (c *Console) Execute(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "filter":
		return false, c.filter(args)
	case "location":
		return false, c.store.SetLocation(args)
	case "sort":
		return false, c.sort(args)
	case "reset":
		c.store.ResetFilters()
	case "page":
		return false, c.page(args)
	case "select":
		if len(args) == 0 {
			return false, errors.Validation("usage: select <id...>")
		}
		ids := make([]models.JobID, 0, len(args))
		for _, a := range args {
			ids = append(ids, models.JobID(a))
		}
		c.store.SelectRows(ids)
	case "clear":
		c.store.ClearSelection()
	case "apply", "collect":
		return false, c.batch(ctx, models.BatchAction(cmd))
	case "save":
		if err := c.store.SaveCurrentFilters(ctx, strings.Join(args, " ")); err != nil {
			return false, err
		}
		c.controller.Notify("filter saved")
	case "saved":
		c.listSaved()
	case "use":
		return false, c.useSaved(args)
	case "refresh":
		c.controller.Refresh()
	case "show":
		return false, c.show(ctx, args)
	case "help":
		c.printf("%s", helpText)
	case "quit", "exit":
		return true, nil
	default:
		return false, errors.Validation(fmt.Sprintf("unknown command %q, type \"help\"", cmd))
	}
	return false, nil
}

func (c *Console) filter(args []string) error {
	if len(args) == 0 {
		return errors.Validation("usage: filter <dimension> [value]")
	}
	d, ok := models.ParseDimension(args[0])
	if !ok {
		return errors.Validation(fmt.Sprintf("unknown filter %q", args[0]))
	}
	return c.store.SetFilter(d, strings.Join(args[1:], " "))
}

func (c *Console) sort(args []string) error {
	if len(args) == 0 || args[0] == "none" {
		return c.store.SetSort("", models.SortUnset)
	}
	order := models.SortDescend
	if len(args) > 1 {
		parsed, ok := models.ParseSortOrder(args[1])
		if !ok || parsed == models.SortUnset {
			return errors.Validation("sort order must be ascend or descend")
		}
		order = parsed
	}
	return c.store.SetSort(args[0], order)
}

func (c *Console) page(args []string) error {
	if len(args) != 1 {
		return errors.Validation("usage: page <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Validation("page must be a number")
	}
	return c.controller.SetPage(n)
}

func (c *Console) batch(ctx context.Context, action models.BatchAction) error {
	res, err := c.dispatcher.Run(ctx, action, c)
	if err != nil {
		if errors.Is(err, errors.ErrTypeValidation) {
			return err
		}
		return errors.New(errors.TypeOf(err), fmt.Sprintf("%s failed: %s", action, errors.UserMessage(err)), err)
	}
	if !res.Confirmed {
		c.controller.Notify("cancelled")
		return nil
	}
	c.controller.Notify(fmt.Sprintf("%s done for %d jobs", action, res.Count))
	return nil
}

// Confirm asks on the console before a batch action is sent. Anything other
// than y or yes declines.
func (c *Console) Confirm(_ context.Context, action models.BatchAction, count int) (bool, error) {
	c.printf("%s %d selected jobs? [y/N] ", action, count)
	if !c.in.Scan() {
		return false, c.in.Err()
	}
	switch strings.ToLower(strings.TrimSpace(c.in.Text())) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (c *Console) listSaved() {
	saved := c.store.State().SavedFilters
	if len(saved) == 0 {
		c.printf("no saved filters\n")
		return
	}
	var b strings.Builder
	for i, sf := range saved {
		fmt.Fprintf(&b, "%d. %s  %s\n", i+1, sf.Name, describeFilters(sf.Filters))
	}
	c.printf("%s", b.String())
}

func (c *Console) useSaved(args []string) error {
	if len(args) != 1 {
		return errors.Validation("usage: use <n>")
	}
	n, err := strconv.Atoi(args[0])
	saved := c.store.State().SavedFilters
	if err != nil || n < 1 || n > len(saved) {
		return errors.Validation("no saved filter " + args[0])
	}
	c.store.ApplySavedFilter(saved[n-1].Filters)
	return nil
}

func (c *Console) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.Validation("usage: show <id>")
	}
	job, err := c.adapter.Job(ctx, models.JobID(args[0]))
	if err != nil {
		return err
	}
	c.printf("%s", formatDetail(job))
	return nil
}

func (c *Console) printf(format string, args ...interface{}) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

const helpText = `commands:
  filter <dimension> [value]   set or clear a filter (keyword, company_type, job_type,
                               location, target_group, salary_range, education, experience)
  location [region [city]]     pick a location; "location all" clears it
  sort <field> [ascend|descend]
  sort none                    unsorted
  reset                        clear all filters
  page <n>                     go to a page
  select <id...>               replace the selection
  clear                        clear the selection
  apply | collect              run a batch action on the selection
  save <name>                  save the current filters
  saved                        list saved filters
  use <n>                      apply saved filter n
  refresh                      reload, ignoring the cache
  show <id>                    job details
  quit
`
