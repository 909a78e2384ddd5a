package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/ganttchart/internal/models"
	"github.com/tgienger/ganttchart/internal/poolfile"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print the tasks of a chart file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := a.loadPool(cmd, args[0])
			if err != nil {
				return err
			}
			printPool(cmd.OutOrStdout(), pool, a.cfg.DateFormat)
			return nil
		},
	}
}

func newNewCmd(a *app) *cobra.Command {
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Add tasks, instances and subtasks to a chart file",
	}

	var taskColor string
	taskCmd := &cobra.Command{
		Use:   "task <file> <name>",
		Short: "Add a task, creating the file if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNewTask(cmd, args[0], args[1], taskColor)
		},
	}
	taskCmd.Flags().StringVar(&taskColor, "color", "", "Palette color name (default: first free color)")

	instanceCmd := &cobra.Command{
		Use:   "instance <file> <task> <start> <end>",
		Short: "Schedule a task between two dates",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNewInstance(cmd, args[0], args[1], args[2], args[3])
		},
	}

	var (
		subColor string
		subAttrs string
	)
	subtaskCmd := &cobra.Command{
		Use:   "subtask <file> <task> <name> <start> <end>",
		Short: "Add a subtask with one instance",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNewSubTask(cmd, args, subColor, subAttrs)
		},
	}
	subtaskCmd.Flags().StringVar(&subColor, "color", "", "Shade name of the task color (default: first free shade)")
	subtaskCmd.Flags().StringVar(&subAttrs, "attrs", "", "Comma separated attributes")

	newCmd.AddCommand(taskCmd, instanceCmd, subtaskCmd)
	return newCmd
}

func newConvertCmd(a *app) *cobra.Command {
	var detail bool
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Switch a chart between plain and detailed mode",
		Long: `Switch a chart between plain and detailed mode.

Turning detail on gives every task one "SubTask" copying its instances.
Turning it off deletes all subtasks and frees their shades; they are not
restored when detail is turned on again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := a.loadPool(cmd, args[0])
			if err != nil {
				return err
			}
			if pool.Detail() == detail {
				fmt.Fprintf(cmd.OutOrStdout(), "Detail is already %t.\n", detail)
				return nil
			}
			pool.ConvertToDetail(detail)
			return a.savePool(cmd, args[0], pool, fmt.Sprintf("Detail set to %t.", detail))
		},
	}
	cmd.Flags().BoolVar(&detail, "detail", true, "Enable detail (use --detail=false to disable)")
	return cmd
}

func newRevalidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revalidate <file>",
		Short: "Clamp subtasks to their task and merge touching instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := a.loadPool(cmd, args[0])
			if err != nil {
				return err
			}
			before := countInstances(pool)
			pool.Revalidate()
			after := countInstances(pool)
			a.logger.Debug("revalidated", "file", args[0], "before", before, "after", after)
			return a.savePool(cmd, args[0], pool, fmt.Sprintf("Revalidated: %d instances, was %d.", after, before))
		},
	}
}

func newColorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "colors <file>",
		Short: "Show the palette and which colors a chart uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := a.loadPool(cmd, args[0])
			if err != nil {
				return err
			}
			printPalette(cmd.OutOrStdout(), pool.Palette())
			if err := pool.CheckColors(); err != nil {
				warning.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			return nil
		},
	}
}

func (a *app) runNewTask(cmd *cobra.Command, path, name, colorName string) error {
	pool, err := a.loadOrCreatePool(cmd, path)
	if err != nil {
		return err
	}
	if pool.Contains(name) {
		return fmt.Errorf("task %q already exists", name)
	}

	var entry *models.ColorEntry
	if colorName != "" {
		entry = lookupEntry(pool.Palette().Entries(), colorName)
		if entry == nil {
			return fmt.Errorf("unknown color %q", colorName)
		}
		if entry.InUse {
			return fmt.Errorf("color %s is already used by another task", entry.Name)
		}
	}

	t := pool.AddTask(name)
	switch {
	case entry != nil:
		pool.Palette().Claim(entry)
		t.SetColor(entry.Color)
	case !pool.AssignColor(t):
		a.logger.Warn("palette exhausted, task left black", "task", name)
	}
	if pool.Detail() {
		// Every task carries at least one subtask in detail mode
		t.AddSubTask(models.DefaultSubTaskName, models.Blue)
	}
	return a.savePool(cmd, path, pool, fmt.Sprintf("Added task %d %s %s.", pool.NumberOfTasks(), swatch(t.Color()), name))
}

func (a *app) runNewInstance(cmd *cobra.Command, path, taskArg, startArg, endArg string) error {
	pool, err := a.loadPool(cmd, path)
	if err != nil {
		return err
	}
	t, err := findTask(pool, taskArg)
	if err != nil {
		return err
	}
	start, end, err := a.parseRange(startArg, endArg)
	if err != nil {
		return err
	}

	msg := "Scheduled " + t.Name() + "."
	if !t.AddInstance(start, end) {
		msg = "Merged into an existing instance of " + t.Name() + "."
	}
	return a.savePool(cmd, path, pool, msg)
}

func (a *app) runNewSubTask(cmd *cobra.Command, args []string, colorName, attrs string) error {
	path, taskArg, name := args[0], args[1], args[2]
	pool, err := a.loadPool(cmd, path)
	if err != nil {
		return err
	}
	if !pool.Detail() {
		return errors.New("chart is not in detail mode; run convert first")
	}
	t, err := findTask(pool, taskArg)
	if err != nil {
		return err
	}
	start, end, err := a.parseRange(args[3], args[4])
	if err != nil {
		return err
	}

	var c models.Color
	if colorName != "" {
		top := pool.Palette().Lookup(t.Color())
		if !t.HasColor() || top == nil {
			return fmt.Errorf("task %s has no palette color to pick shades from", t.Name())
		}
		entry := lookupEntry(top.SubColors, colorName)
		if entry == nil {
			return fmt.Errorf("unknown shade %q of %s", colorName, top.Name)
		}
		pool.Palette().Claim(entry)
		c = entry.Color
	} else {
		c = pool.ClaimShade(t)
	}
	var attrList []string
	for _, s := range strings.Split(attrs, ",") {
		if s = strings.TrimSpace(s); s != "" {
			attrList = append(attrList, s)
		}
	}
	st := t.AddSubTaskWithInstance(name, c, start, end, attrList)

	if si := st.Instance(0); !covered(t, si) {
		warning.Fprintf(cmd.ErrOrStderr(), "warning: %s lies outside every instance of %s; revalidate will drop it\n", name, t.Name())
	}
	return a.savePool(cmd, path, pool, fmt.Sprintf("Added subtask %s %s to %s.", swatch(c), name, t.Name()))
}

func covered(t *models.Task, si *models.SubTaskInstance) bool {
	for _, ti := range t.Instances() {
		if ti.Includes(si) {
			return true
		}
	}
	return false
}

func (a *app) loadPool(cmd *cobra.Command, path string) (*models.Pool, error) {
	pool, report, err := poolfile.Open(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded chart", "file", path, "tasks", pool.NumberOfTasks())
	printReport(cmd.ErrOrStderr(), report, a.cfg.DateFormat)
	return pool, nil
}

func (a *app) loadOrCreatePool(cmd *cobra.Command, path string) (*models.Pool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		a.logger.Info("creating chart", "file", path)
		return models.NewPool(name), nil
	}
	return a.loadPool(cmd, path)
}

func (a *app) savePool(cmd *cobra.Command, path string, pool *models.Pool, msg string) error {
	if err := poolfile.Save(path, pool); err != nil {
		return err
	}
	a.logger.Debug("saved chart", "file", path)
	success.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

func (a *app) parseRange(startArg, endArg string) (time.Time, time.Time, error) {
	start, err := a.parseDate("start", startArg)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := a.parseDate("end", endArg)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s is before start %s", endArg, startArg)
	}
	return start, end, nil
}

// findTask resolves a 1-based task number as printed by show
func findTask(pool *models.Pool, arg string) (*models.Task, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("task must be a number, got %q", arg)
	}
	if n < 1 || n > pool.NumberOfTasks() {
		return nil, fmt.Errorf("no task %d (chart has %d)", n, pool.NumberOfTasks())
	}
	return pool.Task(n - 1), nil
}

func lookupEntry(entries []*models.ColorEntry, name string) *models.ColorEntry {
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e
		}
	}
	return nil
}

func countInstances(pool *models.Pool) int {
	n := 0
	for _, t := range pool.Tasks() {
		n += t.NumberOfInstances() + t.NumberOfSubTaskInstances()
	}
	return n
}
