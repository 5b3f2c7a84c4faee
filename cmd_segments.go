package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"strava-dashboard/internal/analysis"
	"strava-dashboard/internal/logging"
	"strava-dashboard/internal/schedule"
	"strava-dashboard/internal/service"
	"strava-dashboard/internal/tui"
)

var (
	segmentsPage    int
	segmentsPerPage int
	segmentsJSON    bool

	segmentsCmd = &cobra.Command{
		Use:   "segments",
		Short: "List segment bests by year with KOM times for one page of activities",
		Args:  cobra.NoArgs,
		RunE:  runSegments,
	}
)

func init() {
	segmentsCmd.Flags().IntVar(&segmentsPage, "page", 1, "activity page to read (1 is the most recent)")
	segmentsCmd.Flags().IntVar(&segmentsPerPage, "per-page", 0, "activities per page (default from segments.page_size)")
	segmentsCmd.Flags().BoolVar(&segmentsJSON, "json", false, "print the report as JSON")
}

// segmentsOutput is the JSON shape of a SegmentReport.
type segmentsOutput struct {
	Segments            []*analysis.SegmentStat `json:"segments"`
	ActivitiesFetched   int                     `json:"activities_fetched"`
	ActivitiesProcessed int                     `json:"activities_processed"`
	KOMLookups          int                     `json:"kom_lookups"`
	Skipped             []skippedOutput         `json:"skipped"`
}

type skippedOutput struct {
	Kind  string `json:"kind"`
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error"`
}

func runSegments(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if segmentsPage < 1 {
		return fmt.Errorf("--page must be at least 1")
	}
	perPage := segmentsPerPage
	if perPage <= 0 {
		perPage = cfg.Segments.PageSize
	}

	logger := logging.Component("segments")
	sess, err := openSession(logger)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := sess.requireLogin(ctx); err != nil {
		return err
	}

	svc := service.NewSegmentService(sess.client, schedule.RealClock{}, service.NewKOMSchedule(cfg.Segments), logger)

	progress := make(chan service.SegmentProgress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if p.Total > 0 {
				fmt.Fprintf(os.Stderr, "\r%-10s %d/%d", p.Phase, p.Completed, p.Total)
			}
		}
		fmt.Fprint(os.Stderr, "\r\033[K")
	}()

	report, err := svc.Aggregate(ctx, segmentsPage, perPage, progress)
	<-done
	if err != nil {
		return sess.checkAuth(ctx, err)
	}

	if segmentsJSON {
		out := segmentsOutput{
			Segments:            report.Segments,
			ActivitiesFetched:   report.ActivitiesFetched,
			ActivitiesProcessed: report.ActivitiesProcessed,
			KOMLookups:          report.KOMLookups,
			Skipped:             make([]skippedOutput, 0, len(report.Skipped)),
		}
		for _, sk := range report.Skipped {
			out.Skipped = append(out.Skipped, skippedOutput{Kind: string(sk.Kind), ID: sk.ID, Name: sk.Name, Error: sk.Err.Error()})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printSegments(report, tui.NewUnits(cfg.Display))
	short, daily := sess.client.RateLimitStatus()
	fmt.Printf("API requests left: %d this 15 minutes, %d today\n", short, daily)
	return nil
}

func printSegments(report *service.SegmentReport, units tui.Units) {
	if len(report.Segments) == 0 {
		fmt.Println("No segment efforts in these activities.")
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Segment", "Type", "Distance", "Year", "Best", "All-time", "KOM")
		for _, s := range report.Segments {
			for i, y := range s.Years() {
				yb := s.Efforts[y]
				best := tui.FormatTime(yb.BestTime)
				if yb.IsPR {
					best += " PR"
				}
				name, typ, dist, allTime, kom := "", "", "", "", ""
				if i == 0 {
					name, typ, dist = s.SegmentName, s.ActivityType, units.FormatDistance(s.SegmentDistance)
					allTime, kom = tui.FormatTime(s.AllTimeBest.Time), tui.FormatOptionalTime(s.KOMTime)
				}
				t.Row(name, typ, dist, strconv.Itoa(y), best, allTime, kom)
			}
		}
		fmt.Println(t)
	}

	fmt.Printf("%d segments from %d of %d activities, %d KOM lookups\n",
		len(report.Segments), report.ActivitiesProcessed, report.ActivitiesFetched, report.KOMLookups)
	if len(report.Skipped) > 0 {
		fmt.Printf("%d skipped (%d activities, %d segments); see the log for details\n",
			len(report.Skipped), report.SkippedActivities(), report.SkippedSegments())
	}
}
