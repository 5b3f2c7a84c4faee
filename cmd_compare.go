package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"strava-dashboard/internal/logging"
	"strava-dashboard/internal/service"
)

var (
	compareJSON bool

	compareCmd = &cobra.Command{
		Use:   "compare <activity-id> <activity-id>",
		Short: "Compare the speed of two activities at 5-minute marks",
		Args:  cobra.ExactArgs(2),
		RunE:  runCompare,
	}
)

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the sampled speeds as JSON")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid activity ID %q", a)
		}
		ids[i] = id
	}

	logger := logging.Component("compare")
	sess, err := openSession(logger)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := sess.requireLogin(ctx); err != nil {
		return err
	}

	c, err := service.NewComparisonService(sess.client, logger).Compare(ctx, ids[0], ids[1])
	if err != nil {
		return sess.checkAuth(ctx, err)
	}

	if compareJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}

	if len(c.Minutes) == 0 {
		fmt.Println("Neither activity reaches the first 5-minute mark.")
		return nil
	}

	legends := make([]string, len(ids))
	for i, id := range ids {
		legends[i] = args[i]
		if act, err := sess.client.GetActivity(ctx, id); err == nil && act.Name != "" {
			legends[i] = act.Name
		} else if err != nil {
			logger.Debug().Err(err).Int64("activity_id", id).Msg("activity name unavailable")
		}
	}

	graph := asciigraph.PlotMany([][]float64{c.First, c.Second},
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption(fmt.Sprintf("speed in km/min, every 5 minutes up to minute %d", c.Minutes[len(c.Minutes)-1])),
	)
	fmt.Println(graph)
	return nil
}
