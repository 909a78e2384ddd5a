package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/ganttchart/internal/models"
)

func newSetCmd(a *app) *cobra.Command {
	var name, start, end string
	cmd := &cobra.Command{
		Use:   "set <file>",
		Short: "Change the project name or date bounds of a chart file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("start") && !flags.Changed("end") {
				return errors.New("nothing to set; use --name, --start or --end")
			}
			pool, err := a.loadPool(cmd, args[0])
			if err != nil {
				return err
			}

			from, to := pool.StartDate(), pool.EndDate()
			if flags.Changed("start") {
				if from, err = a.parseDate("start", start); err != nil {
					return err
				}
			}
			if flags.Changed("end") {
				if to, err = a.parseDate("end", end); err != nil {
					return err
				}
			}
			if to.Before(from) {
				return fmt.Errorf("end %s is before start %s", to.Format(a.cfg.DateFormat), from.Format(a.cfg.DateFormat))
			}
			if flags.Changed("name") {
				if name == "" {
					return errors.New("project name cannot be empty")
				}
				pool.SetProjectName(name)
			}
			pool.SetStartDate(from)
			pool.SetEndDate(to)
			return a.savePool(cmd, args[0], pool, "Updated "+pool.ProjectName()+".")
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&start, "start", "", "First day of the project")
	cmd.Flags().StringVar(&end, "end", "", "Last day of the project")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Change tasks and instances of a chart file",
	}

	var name, colorName string
	taskCmd := &cobra.Command{
		Use:   "task <file> <task>",
		Short: "Rename or recolor a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEditTask(cmd, args[0], args[1], name, colorName)
		},
	}
	taskCmd.Flags().StringVar(&name, "name", "", "New task name")
	taskCmd.Flags().StringVar(&colorName, "color", "", "New palette color name")

	var sub int
	instanceCmd := &cobra.Command{
		Use:   "instance <file> <task> <n> <start> <end>",
		Short: "Move the n-th instance of a task, or of one of its subtasks",
		Long: `Move the n-th instance of a task, or with --subtask of one of its
subtasks, to new dates. Instances are numbered from 1 in the order show
lists them. The task is revalidated afterwards, so a moved task instance may
merge with a neighbour and a moved subtask instance widens the task instance
it reaches into.`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEditInstance(cmd, args, sub)
		},
	}
	instanceCmd.Flags().IntVar(&sub, "subtask", 0, "Subtask number within the task (1-based)")

	editCmd.AddCommand(taskCmd, instanceCmd)
	return editCmd
}

func (a *app) runEditTask(cmd *cobra.Command, path, taskArg, name, colorName string) error {
	if name == "" && colorName == "" {
		return errors.New("nothing to change; use --name or --color")
	}
	pool, err := a.loadPool(cmd, path)
	if err != nil {
		return err
	}
	t, err := findTask(pool, taskArg)
	if err != nil {
		return err
	}
	if name != "" && name != t.Name() && pool.Contains(name) {
		return fmt.Errorf("task %q already exists", name)
	}

	if colorName != "" {
		entry := lookupEntry(pool.Palette().Entries(), colorName)
		if entry == nil {
			return fmt.Errorf("unknown color %q", colorName)
		}
		if err := pool.Recolor(t, entry); err != nil {
			return err
		}
	}
	if name != "" {
		t.SetName(name)
	}
	return a.savePool(cmd, path, pool, fmt.Sprintf("Updated task %s %s.", swatch(t.Color()), t.Name()))
}

func (a *app) runEditInstance(cmd *cobra.Command, args []string, sub int) error {
	path := args[0]
	pool, err := a.loadPool(cmd, path)
	if err != nil {
		return err
	}
	t, err := findTask(pool, args[1])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("instance must be a number, got %q", args[2])
	}
	start, end, err := a.parseRange(args[3], args[4])
	if err != nil {
		return err
	}

	if sub == 0 {
		if n < 1 || n > t.NumberOfInstances() {
			return fmt.Errorf("no instance %d of %s (it has %d)", n, t.Name(), t.NumberOfInstances())
		}
		t.Reschedule(t.Instance(n-1), start, end)
		return a.savePool(cmd, path, pool, fmt.Sprintf("Moved %s, now %d instances.", t.Name(), t.NumberOfInstances()))
	}

	if sub < 1 || sub > t.NumberOfSubTasks() {
		return fmt.Errorf("no subtask %d of %s (it has %d)", sub, t.Name(), t.NumberOfSubTasks())
	}
	st := t.SubTask(sub - 1)
	if n < 1 || n > st.NumberOfInstances() {
		return fmt.Errorf("no instance %d of %s (it has %d)", n, st.Name(), st.NumberOfInstances())
	}
	st.Reschedule(st.Instance(n-1), start, end)
	if st.InstanceOn(models.Truncate(start)) == nil {
		warning.Fprintf(cmd.ErrOrStderr(), "warning: %s lies outside every instance of %s and was dropped\n", st.Name(), t.Name())
	}
	return a.savePool(cmd, path, pool, fmt.Sprintf("Moved %s of %s.", st.Name(), t.Name()))
}

func (a *app) parseDate(what, arg string) (time.Time, error) {
	d, err := time.ParseInLocation(a.cfg.DateFormat, arg, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s date: %w", what, err)
	}
	return d, nil
}
