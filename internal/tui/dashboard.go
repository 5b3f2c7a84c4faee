package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"strava-dashboard/internal/analysis"
	"strava-dashboard/internal/service"
)

// DashboardLoader is the part of DashboardService the screen needs.
type DashboardLoader interface {
	Load(ctx context.Context, dailyType string) (*service.Dashboard, error)
}

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	ctx       context.Context
	loader    DashboardLoader
	units     Units
	spinner   spinner.Model
	dailyType string
	data      *service.Dashboard
	loading   bool
	err       error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(ctx context.Context, loader DashboardLoader, units Units) DashboardModel {
	return DashboardModel{
		ctx:       ctx,
		loader:    loader,
		units:     units,
		spinner:   newSpinner(),
		dailyType: service.DefaultActivityType,
		loading:   true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadData())
}

func (m DashboardModel) loadData() tea.Cmd {
	ctx, loader, dailyType := m.ctx, m.loader, m.dailyType
	return func() tea.Msg {
		data, err := loader.Load(ctx, dailyType)
		return dashboardDataMsg{data: data, err: err}
	}
}

type dashboardDataMsg struct {
	data *service.Dashboard
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
		if msg.err != nil {
			return m, authErrorCmd(msg.err)
		}
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch msg.String() {
		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.loadData())
		case "t":
			m.dailyType = nextType(m.dailyType)
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.loadData())
		}
	}
	return m, nil
}

func nextType(current string) string {
	types := service.TopActivityTypes
	for i, t := range types {
		if t == current {
			return types[(i+1)%len(types)]
		}
	}
	return types[0]
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  " + m.spinner.View() + " Loading dashboard..."
	}

	if m.err != nil {
		return renderError(m.err)
	}

	if m.data == nil {
		return "\n  No data available."
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderAthleteCard(), "  ", m.renderMilestonesCard())
	sections = append(sections, topRow)

	if chart := m.renderDailyChart(); chart != "" {
		sections = append(sections, chart)
	}
	if chart := m.renderWeeklyChart(); chart != "" {
		sections = append(sections, chart)
	}

	sections = append(sections, m.renderTopActivities())
	sections = append(sections, statusStyle.Render("Press 'r' to refresh, 't' to switch the daily chart's activity type"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderAthleteCard() string {
	title := cardTitleStyle.Render("Athlete")

	var lines []string
	if a := m.data.Athlete; a != nil {
		lines = append(lines, RenderMetric("Name", a.FullName()))
		if a.City != "" {
			lines = append(lines, RenderMetric("Location", strings.Trim(a.City+", "+a.State, ", ")))
		}
	}
	if s := m.data.Stats; s != nil {
		lines = append(lines,
			"",
			RenderMetric("Rides", humanize.Comma(int64(s.AllRideTotals.Count))),
			RenderMetric("Ride distance", m.units.FormatTotal(s.AllRideTotals.Distance)),
			RenderMetric("Runs", humanize.Comma(int64(s.AllRunTotals.Count))),
			RenderMetric("Run distance", m.units.FormatTotal(s.AllRunTotals.Distance)),
			RenderMetric("YTD ride time", formatDuration(s.YTDRideTotals.MovingTime)),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderMilestonesCard() string {
	title := cardTitleStyle.Render("Ride to the Moon")

	lines := []string{
		fmt.Sprintf("%s %.2f%%", RenderProgressBar(m.data.MoonProgress/100, 20), m.data.MoonProgress),
		"",
	}
	for _, p := range m.data.Milestones {
		if p.Name == analysis.Milestones[0].Name {
			continue
		}
		line := fmt.Sprintf("%-24s %s %5.1f%%", p.Name, RenderProgressBar(p.Percent/100, 12), p.Percent)
		if p.Completions > 1 {
			line += successStyle.Render(fmt.Sprintf(" x%d", p.Completions))
		}
		lines = append(lines, line)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(52).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderDailyChart() string {
	if len(m.data.Daily) < 2 {
		return ""
	}
	title := cardTitleStyle.Render(fmt.Sprintf("%s minutes per day - last %d days", m.data.DailyType, len(m.data.Daily)))

	values := make([]float64, len(m.data.Daily))
	for i, p := range m.data.Daily {
		values[i] = p.Minutes
	}
	graph := asciigraph.Plot(values,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(0),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderWeeklyChart() string {
	if len(m.data.Weekly) < 2 {
		return ""
	}
	title := cardTitleStyle.Render(fmt.Sprintf("Weekly distance (%s)", m.units.DistanceLabel()))

	values := make([]float64, len(m.data.Weekly))
	var count int
	var moving int
	for i, w := range m.data.Weekly {
		values[i] = m.units.FormatDistanceValue(w.Distance)
		count += w.Count
		moving += w.MovingTime
	}
	graph := asciigraph.Plot(values,
		asciigraph.Height(6),
		asciigraph.Width(60),
		asciigraph.Precision(1),
	)
	summary := statusStyle.Render(fmt.Sprintf("%d activities, %s moving over %d weeks", count, formatDuration(moving), len(values)))

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph, summary))
}

func (m DashboardModel) renderTopActivities() string {
	title := cardTitleStyle.Render("Longest Recent Activities")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-6s  %-10s  %-28s  %10s  %8s",
		"Type", "Date", "Name", "Distance", "Time"))
	rows := []string{header}

	for _, typ := range service.TopActivityTypes {
		for _, a := range m.data.Top[typ] {
			rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-6s  %-10s  %-28s  %10s  %8s",
				typ,
				a.StartDateLocal.Format("Jan 02"),
				truncate(a.Name, 28),
				m.units.FormatDistance(a.Distance),
				formatDuration(a.MovingTime),
			)))
		}
	}
	if len(rows) == 1 {
		rows = append(rows, "No recent activities")
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
