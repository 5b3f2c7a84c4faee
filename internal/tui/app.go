package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"strava-dashboard/internal/auth"
	"strava-dashboard/internal/strava"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenSegments
	ScreenHelp
)

// Deps are the services the screens read from.
type Deps struct {
	Dashboard DashboardLoader
	Segments  SegmentAggregator
	Units     Units
	// PerPage is how many activities one segments run reads.
	PerPage int
	// OnAuthError runs once when a screen hits an authentication failure.
	OnAuthError func(err error)
}

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard DashboardModel
	segments  SegmentsModel
	help      HelpModel

	onAuthError func(err error)
	authFailed  bool

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App with all dependencies
func NewApp(ctx context.Context, deps Deps) *App {
	return &App{
		screen:      ScreenDashboard,
		dashboard:   NewDashboardModel(ctx, deps.Dashboard, deps.Units),
		segments:    NewSegmentsModel(ctx, deps.Segments, deps.Units, deps.PerPage),
		help:        NewHelpModel(),
		onAuthError: deps.OnAuthError,
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "1":
			a.screen = ScreenDashboard
			return a, nil
		case "2":
			a.screen = ScreenSegments
			if !a.segments.loaded() {
				return a, a.segments.start()
			}
			return a, nil
		case "?":
			if a.screen != ScreenHelp {
				a.prevScreen = a.screen
				a.screen = ScreenHelp
			}
			return a, nil
		case "esc":
			if a.screen == ScreenHelp {
				a.screen = a.prevScreen
				return a, nil
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		var m tea.Model
		m, _ = a.segments.Update(msg)
		a.segments = m.(SegmentsModel)

	case authErrorMsg:
		if a.authFailed || a.onAuthError == nil {
			return a, nil
		}
		a.authFailed = true
		hook, err := a.onAuthError, msg.err
		return a, func() tea.Msg {
			hook(err)
			return nil
		}

	// Results and ticks go to the screen that asked for them.
	case dashboardDataMsg:
		return a, a.updateDashboard(msg)
	case segmentsProgressMsg, segmentsDoneMsg:
		return a, a.updateSegments(msg)
	case spinner.TickMsg:
		return a, tea.Batch(a.updateDashboard(msg), a.updateSegments(msg))
	}

	// Delegate to current screen
	switch a.screen {
	case ScreenDashboard:
		return a, a.updateDashboard(msg)
	case ScreenSegments:
		return a, a.updateSegments(msg)
	case ScreenHelp:
		var m tea.Model
		var cmd tea.Cmd
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateDashboard(msg tea.Msg) tea.Cmd {
	m, cmd := a.dashboard.Update(msg)
	a.dashboard = m.(DashboardModel)
	return cmd
}

func (a *App) updateSegments(msg tea.Msg) tea.Cmd {
	m, cmd := a.segments.Update(msg)
	a.segments = m.(SegmentsModel)
	return cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenSegments:
		content = a.segments.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Strava Dashboard")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Segments", ScreenSegments},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

// authErrorMsg tells the app a screen lost its credentials.
type authErrorMsg struct {
	err error
}

func authErrorCmd(err error) tea.Cmd {
	if !isLoginError(err) {
		return nil
	}
	return func() tea.Msg { return authErrorMsg{err: err} }
}

func isLoginError(err error) bool {
	return strava.IsLoggedOut(err) || errors.Is(err, auth.ErrNoCredentials)
}

// renderError is the inline error panel. Credential failures get the re-login hint.
func renderError(err error) string {
	title := errorStyle.Bold(true).Render("Something went wrong")
	body := fmt.Sprintf("%v", err)
	if isLoginError(err) {
		title = errorStyle.Bold(true).Render("Not signed in to Strava")
		body = "Your Strava session is no longer valid.\nRun `strava-dashboard login` and start the dashboard again."
	}
	return errorPanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)
	return s
}
