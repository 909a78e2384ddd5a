package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/tgienger/ganttchart/internal/config"
	"github.com/tgienger/ganttchart/internal/db"
	"github.com/tgienger/ganttchart/internal/models"
	"github.com/tgienger/ganttchart/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewProjects View = iota
	ViewChart
)

type App struct {
	db          *db.DB
	cfg         *config.Config
	logger      *log.Logger
	currentView View
	projectList *views.ProjectListView
	chart       *views.ChartView
	width       int
	height      int
}

// Creates a new application
func NewApp(database *db.DB, cfg *config.Config, logger *log.Logger) *App {
	return &App{
		db:          database,
		cfg:         cfg,
		logger:      logger,
		currentView: ViewProjects,
		projectList: views.NewProjectListView(database, logger),
	}
}

// Run starts the terminal UI and blocks until it exits
func Run(database *db.DB, cfg *config.Config, logger *log.Logger) error {
	_, err := tea.NewProgram(NewApp(database, cfg, logger), tea.WithAltScreen()).Run()
	return err
}

func (a *App) Init() tea.Cmd {
	// Reopen the last chart
	id, err := a.db.LastProjectID()
	if err != nil {
		a.logger.Warn("reading last project", "err", err)
	}
	if id != 0 {
		project, err := a.db.GetProject(id)
		if err == nil {
			return a.openProject(*project)
		}
		a.logger.Debug("last project is gone", "id", id)
	}

	return a.projectList.Init()
}

func (a *App) openProject(project models.Project) tea.Cmd {
	a.currentView = ViewChart
	a.chart = views.NewChartView(a.db, a.cfg, a.logger, project)
	a.logger.Info("opened project", "id", project.ID, "name", project.Name)

	if err := a.db.SetLastProjectID(project.ID); err != nil {
		a.logger.Warn("saving last project", "err", err)
	}

	return tea.Batch(
		a.chart.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update project list size since it persists
		a.projectList.Update(msg)

	case views.SelectedProject:
		return a, a.openProject(msg.Project)

	case views.BackToProjects:
		a.currentView = ViewProjects
		if err := a.db.SetLastProjectID(0); err != nil {
			a.logger.Warn("clearing last project", "err", err)
		}
		return a, tea.Batch(
			a.projectList.Init(),
			func() tea.Msg {
				return tea.WindowSizeMsg{Width: a.width, Height: a.height}
			},
		)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewChart:
		_, cmd = a.chart.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewChart:
		if a.chart != nil {
			return a.chart.View()
		}
	}
	return a.projectList.View()
}
