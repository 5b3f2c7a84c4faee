package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"strava-dashboard/internal/logging"
	"strava-dashboard/internal/schedule"
	"strava-dashboard/internal/service"
	"strava-dashboard/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	// The alt-screen owns the terminal, so logs go to a file.
	logPath := dataPath("dashboard.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: "json",
		Caller: cfg.Log.Caller,
		Output: logFile,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sess, err := openSession(logging.Component("strava"))
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.requireLogin(ctx); err != nil {
		return err
	}

	clock := schedule.RealClock{}
	app := tui.NewApp(ctx, tui.Deps{
		Dashboard: service.NewDashboardService(sess.client, clock, logging.Component("dashboard")),
		Segments: service.NewSegmentService(sess.client, clock,
			service.NewKOMSchedule(cfg.Segments), logging.Component("segments")),
		Units:   tui.NewUnits(cfg.Display),
		PerPage: cfg.Segments.PageSize,
		OnAuthError: func(err error) {
			_ = sess.checkAuth(ctx, err)
		},
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
