package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"strava-dashboard/internal/logging"
	"strava-dashboard/internal/schedule"
	"strava-dashboard/internal/service"
	"strava-dashboard/internal/tui"
)

var (
	dashboardType string
	dashboardJSON bool

	dashboardCmd = &cobra.Command{
		Use:   "dashboard",
		Short: "Print the athlete summary, milestones and recent bests",
		Args:  cobra.NoArgs,
		RunE:  runDashboard,
	}
)

func init() {
	dashboardCmd.Flags().StringVar(&dashboardType, "type", service.DefaultActivityType, "activity type for the daily minutes chart")
	dashboardCmd.Flags().BoolVar(&dashboardJSON, "json", false, "print the dashboard as JSON")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := logging.Component("dashboard")
	sess, err := openSession(logger)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := sess.requireLogin(ctx); err != nil {
		return err
	}

	d, err := service.NewDashboardService(sess.client, schedule.RealClock{}, logger).Load(ctx, dashboardType)
	if err != nil {
		return sess.checkAuth(ctx, err)
	}

	if dashboardJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	units := tui.NewUnits(cfg.Display)

	if d.Athlete != nil {
		fmt.Printf("%s\n\n", d.Athlete.FullName())
	}
	if d.Stats != nil {
		fmt.Printf("Rides: %s (%s)   Runs: %s (%s)\n",
			humanize.Comma(int64(d.Stats.AllRideTotals.Count)), units.FormatTotal(d.Stats.AllRideTotals.Distance),
			humanize.Comma(int64(d.Stats.AllRunTotals.Count)), units.FormatTotal(d.Stats.AllRunTotals.Distance))
	}
	fmt.Printf("Ride to the Moon: %.2f%%\n", d.MoonProgress)
	for _, m := range d.Milestones {
		fmt.Printf("  %-22s %6.1f%%  x%d\n", m.Name, m.Percent, m.Completions)
	}

	fmt.Println("\nLongest recent activities")
	for _, typ := range service.TopActivityTypes {
		for _, a := range d.Top[typ] {
			fmt.Printf("  %-5s %s  %-30s %s\n", typ, a.StartDateLocal.Format("2006-01-02"), a.Name, units.FormatDistance(a.Distance))
		}
	}

	if len(d.Daily) > 1 {
		values := make([]float64, len(d.Daily))
		for i, p := range d.Daily {
			values[i] = p.Minutes
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(values,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Precision(0),
			asciigraph.Caption(fmt.Sprintf("%s minutes per day, last %d days", d.DailyType, len(values))),
		))
	}
	return nil
}
