package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgienger/ganttchart/internal/poolfile"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Copy a chart file into the project library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := a.loadPool(cmd, args[0])
			if err != nil {
				return err
			}
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			project, err := database.ImportProject(pool)
			if err != nil {
				return fmt.Errorf("importing %s: %w", args[0], err)
			}
			a.logger.Info("imported chart", "file", args[0], "project", project.ID)
			success.Fprintf(cmd.OutOrStdout(), "Imported %s as project %d.\n", project.Name, project.ID)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <id> <file>",
		Short: "Write a library project to a chart file or YAML report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("project id must be a number, got %q", args[0])
			}
			save := poolfile.Save
			switch strings.ToLower(format) {
			case "xml":
			case "yaml", "yml":
				save = poolfile.SaveYAML
			default:
				return fmt.Errorf("unknown format %q (want xml or yaml)", format)
			}

			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			pool, report, err := database.LoadProject(id)
			if err != nil {
				return err
			}
			printReport(cmd.ErrOrStderr(), report, a.cfg.DateFormat)

			if err := save(args[1], pool); err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "Exported project %d to %s.\n", id, args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "xml", "Output format: xml or yaml")
	return cmd
}

func newProjectsCmd(a *app) *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			projects, err := database.ListProjects()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(w, "No projects. Use 'gantt import <file>' or open the UI to create one.")
				return nil
			}
			for _, p := range projects {
				line := fmt.Sprintf("%4d  %-24s %3d tasks", p.ID, p.Name, p.TaskCount)
				if p.Detail {
					line += "  detail"
				}
				attrs, err := database.ProjectAttributes(p.ID)
				if err != nil {
					return err
				}
				if len(attrs) > 0 {
					line += "  [" + strings.Join(attrs, ", ") + "]"
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}

	projectsCmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a project from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("project id must be a number, got %q", args[0])
			}
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			if _, err := database.GetProject(id); err != nil {
				return fmt.Errorf("project %d: %w", id, err)
			}
			if err := database.DeleteProject(id); err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "Deleted project %d.\n", id)
			return nil
		},
	})
	return projectsCmd
}
