package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/tgienger/ganttchart/internal/models"
)

var (
	bold    = color.New(color.Bold)
	faint   = color.New(color.Faint)
	success = color.New(color.FgGreen)
	warning = color.New(color.FgYellow)
)

func swatch(c models.Color) string {
	return color.RGB(int(c.R), int(c.G), int(c.B)).Sprint("■")
}

func formatRange(r models.DateRange, layout string) string {
	return fmt.Sprintf("%s - %s (%d days)", r.Start.Format(layout), r.End.Format(layout), r.Days())
}

func printPool(w io.Writer, pool *models.Pool, layout string) {
	style := "by day"
	if pool.DateStyle() == models.ByHour {
		style = "by hour"
	}
	detail := "off"
	if pool.Detail() {
		detail = "on"
	}
	bold.Fprintln(w, pool.ProjectName())
	faint.Fprintf(w, "%s - %s, %s, detail %s\n",
		pool.StartDate().Format(layout), pool.EndDate().Format(layout), style, detail)

	if pool.NumberOfTasks() == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	for i, t := range pool.Tasks() {
		fmt.Fprintf(w, "%2d. %s %s\n", i+1, swatch(t.Color()), t.Name())
		for _, ti := range t.Instances() {
			fmt.Fprintf(w, "      %s\n", formatRange(ti.Range(), layout))
		}
		for _, st := range t.SubTasks() {
			line := fmt.Sprintf("    - %s %s", swatch(st.Color()), st.Name())
			if attrs := st.Attributes(); len(attrs) > 0 {
				line += " [" + strings.Join(attrs, ", ") + "]"
			}
			fmt.Fprintln(w, line)
			for _, si := range st.Instances() {
				fmt.Fprintf(w, "        %s\n", formatRange(si.Range(), layout))
			}
		}
	}
}

func printReport(w io.Writer, report *models.LoadReport, layout string) {
	if report.Empty() {
		return
	}
	for _, f := range report.Failed {
		warning.Fprintf(w, "warning: %s: instance %s overlapped an earlier one and was merged\n",
			f.Task, formatRange(f.Range, layout))
	}
	for _, u := range report.UnknownColors {
		owner := u.Task
		if u.SubTask != "" {
			owner += "/" + u.SubTask
		}
		warning.Fprintf(w, "warning: %s: color %s is not in the palette\n", owner, u.Color.Hex())
	}
}

func printPalette(w io.Writer, p *models.Palette) {
	for _, e := range p.Entries() {
		fmt.Fprintf(w, "%s %-8s %s\n", swatch(e.Color), e.Name, inUse(e))
		for _, s := range e.SubColors {
			fmt.Fprintf(w, "    %s %-18s %s\n", swatch(s.Color), s.Name, inUse(s))
		}
	}
}

func inUse(e *models.ColorEntry) string {
	if e.InUse {
		return "in use"
	}
	return faint.Sprint("free")
}
