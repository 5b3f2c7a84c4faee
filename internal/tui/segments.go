package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"strava-dashboard/internal/analysis"
	"strava-dashboard/internal/service"
)

// SegmentAggregator is the part of SegmentService the screen needs.
type SegmentAggregator interface {
	Aggregate(ctx context.Context, page, perPage int, progress chan<- service.SegmentProgress) (*service.SegmentReport, error)
}

// SegmentsModel is the segments screen model
type SegmentsModel struct {
	ctx        context.Context
	aggregator SegmentAggregator
	units      Units
	perPage    int
	page       int

	spinner  spinner.Model
	viewport viewport.Model
	running  bool
	progress service.SegmentProgress
	report   *service.SegmentReport
	err      error
	run      *segmentsRun
}

type segmentsRun struct {
	progress chan service.SegmentProgress
	done     chan segmentsDoneMsg
}

type segmentsProgressMsg struct {
	run      *segmentsRun
	progress service.SegmentProgress
}

type segmentsDoneMsg struct {
	report *service.SegmentReport
	err    error
}

// NewSegmentsModel creates a new segments model
func NewSegmentsModel(ctx context.Context, aggregator SegmentAggregator, units Units, perPage int) SegmentsModel {
	return SegmentsModel{
		ctx:        ctx,
		aggregator: aggregator,
		units:      units,
		perPage:    perPage,
		page:       1,
		spinner:    newSpinner(),
		viewport:   viewport.New(100, 20),
	}
}

// Init initializes the segments screen; runs are started by the app or a key.
func (m SegmentsModel) Init() tea.Cmd {
	return nil
}

// loaded reports whether a run has started or finished.
func (m SegmentsModel) loaded() bool {
	return m.running || m.report != nil || m.err != nil
}

// start launches Aggregate in the background; its progress is drained by
// waitForSegments one message at a time.
func (m *SegmentsModel) start() tea.Cmd {
	run := &segmentsRun{
		progress: make(chan service.SegmentProgress, 16),
		done:     make(chan segmentsDoneMsg, 1),
	}
	m.run = run
	m.running = true
	m.err = nil
	m.progress = service.SegmentProgress{}

	ctx, aggregator, page, perPage := m.ctx, m.aggregator, m.page, m.perPage
	go func() {
		report, err := aggregator.Aggregate(ctx, page, perPage, run.progress)
		run.done <- segmentsDoneMsg{report: report, err: err}
	}()

	return tea.Batch(m.spinner.Tick, waitForSegments(run))
}

func waitForSegments(run *segmentsRun) tea.Cmd {
	return func() tea.Msg {
		if p, ok := <-run.progress; ok {
			return segmentsProgressMsg{run: run, progress: p}
		}
		return <-run.done
	}
}

// Update handles messages
func (m SegmentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case segmentsProgressMsg:
		if msg.run != m.run {
			return m, nil
		}
		m.progress = msg.progress
		return m, waitForSegments(msg.run)

	case segmentsDoneMsg:
		m.running = false
		m.report = msg.report
		m.err = msg.err
		if msg.err != nil {
			return m, authErrorCmd(msg.err)
		}
		m.viewport.SetContent(m.renderTable())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		// Header, nav, summary and footer take roughly ten lines.
		m.viewport.Height = max(msg.Height-10, 5)
		if m.report != nil {
			m.viewport.SetContent(m.renderTable())
		}
		return m, nil

	case tea.KeyMsg:
		if m.running {
			return m, nil
		}
		switch msg.String() {
		case "r", "enter":
			cmd := m.start()
			return m, cmd
		case "n":
			m.page++
			cmd := m.start()
			return m, cmd
		case "p":
			if m.page > 1 {
				m.page--
				cmd := m.start()
				return m, cmd
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the segments screen
func (m SegmentsModel) View() string {
	if m.running {
		return m.renderProgress()
	}
	if m.err != nil {
		return renderError(m.err)
	}
	if m.report == nil {
		return "\n  Press enter to load segments."
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderSummary(), m.viewport.View(),
		statusStyle.Render("j/k scroll, 'n'/'p' next/previous page of activities, 'r' reload"))
}

func (m SegmentsModel) renderProgress() string {
	lines := []string{
		"",
		fmt.Sprintf("  %s Loading segments (activity page %d)...", m.spinner.View(), m.page),
		"",
	}

	phases := []struct {
		key   string
		label string
	}{
		{"activities", "Fetching recent activities"},
		{"details", "Reading segment efforts"},
		{"koms", "Looking up KOM times"},
	}
	for i, ph := range phases {
		line := fmt.Sprintf("  %d. %s", i+1, ph.label)
		if ph.key == m.progress.Phase && m.progress.Total > 0 {
			line += fmt.Sprintf("  %s %d/%d",
				RenderProgressBar(float64(m.progress.Completed)/float64(m.progress.Total), 20),
				m.progress.Completed, m.progress.Total)
		}
		lines = append(lines, line)
	}
	if m.progress.Current != "" {
		lines = append(lines, "", statusStyle.Render("  "+truncate(m.progress.Current, 60)))
	}

	return strings.Join(lines, "\n")
}

func (m SegmentsModel) renderSummary() string {
	r := m.report
	summary := successStyle.Render(fmt.Sprintf("%d segments from %d of %d activities, %d KOM lookups",
		len(r.Segments), r.ActivitiesProcessed, r.ActivitiesFetched, r.KOMLookups))

	if n := len(r.Skipped); n > 0 {
		summary += "  " + statusStyle.Render(fmt.Sprintf("(%d skipped: %d activities, %d segments)",
			n, r.SkippedActivities(), r.SkippedSegments()))
	}
	return summary
}

func (m SegmentsModel) renderTable() string {
	if len(m.report.Segments) == 0 {
		return "\n  No segment efforts in these activities."
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-30s  %-5s  %9s  %-22s  %8s  %7s  %7s",
		"Segment", "Type", "Distance", "Best by year", "All-time", "KOM", "Gap"))
	rows := []string{header}

	for _, s := range m.report.Segments {
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-30s  %-5s  %9s  %-22s  %8s  %7s  %7s",
			truncate(s.SegmentName, 30),
			s.ActivityType,
			m.units.FormatDistance(s.SegmentDistance),
			yearBests(s),
			FormatTime(s.AllTimeBest.Time),
			FormatOptionalTime(s.KOMTime),
			komGap(s),
		)))
	}
	return strings.Join(rows, "\n")
}

// yearBests lists up to the three most recent years, "*" marking a PR.
func yearBests(s *analysis.SegmentStat) string {
	var parts []string
	for i, y := range s.Years() {
		if i == 3 {
			break
		}
		yb := s.Efforts[y]
		part := fmt.Sprintf("%d %s", y%100, FormatTime(yb.BestTime))
		if yb.IsPR {
			part += "*"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

func komGap(s *analysis.SegmentStat) string {
	gap, ok := s.GapToKOM()
	if !ok {
		return "-"
	}
	if gap <= 0 {
		return "KOM"
	}
	return "+" + FormatTime(gap)
}
