package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"strava-dashboard/internal/logging"
	"strava-dashboard/internal/service"
)

var (
	coverageLat     float64
	coverageLng     float64
	coverageRadius  float64
	coverageMax     int
	coverageCell    float64
	coverageGeoJSON string

	coverageCmd = &cobra.Command{
		Use:   "coverage",
		Short: "Measure how much of the area around a point your routes cover",
		Args:  cobra.NoArgs,
		RunE:  runCoverage,
	}
)

func init() {
	f := coverageCmd.Flags()
	f.Float64Var(&coverageLat, "lat", 0, "latitude of the center point")
	f.Float64Var(&coverageLng, "lng", 0, "longitude of the center point")
	f.Float64Var(&coverageRadius, "radius", service.DefaultCoverageRadiusMi, "radius in miles")
	f.IntVar(&coverageMax, "max-activities", service.DefaultCoverageActivities, "how many recent activities to scan")
	f.Float64Var(&coverageCell, "cell", 0, "grid cell size in meters (default 250)")
	f.StringVar(&coverageGeoJSON, "geojson", "", "write the area, visited cells and routes to this GeoJSON file")
	coverageCmd.MarkFlagRequired("lat")
	coverageCmd.MarkFlagRequired("lng")
}

func runCoverage(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req := service.CoverageRequest{
		Lat:           coverageLat,
		Lng:           coverageLng,
		RadiusMiles:   coverageRadius,
		MaxActivities: coverageMax,
		CellMeters:    coverageCell,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	logger := logging.Component("coverage")
	sess, err := openSession(logger)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := sess.requireLogin(ctx); err != nil {
		return err
	}

	report, err := service.NewCoverageService(sess.client, logger).Analyze(ctx, req, func(fetched int) {
		fmt.Fprintf(os.Stderr, "\rfetched %d activities", fetched)
	})
	fmt.Fprint(os.Stderr, "\r\033[K")
	if err != nil {
		return sess.checkAuth(ctx, err)
	}

	r := report.Result
	fmt.Printf("Coverage within %.1f mi of %.5f,%.5f: %.1f%%\n", coverageRadius, coverageLat, coverageLng, r.Percent())
	fmt.Printf("  %s of %s cells visited by %d routes\n",
		humanize.Comma(int64(r.VisitedCells)), humanize.Comma(int64(r.TotalCells)), r.RoutesInArea)
	fmt.Printf("  %d activities scanned, %d without a route\n", report.ActivitiesScanned, report.WithoutRoute)

	if coverageGeoJSON != "" {
		data, err := report.GeoJSON()
		if err != nil {
			return fmt.Errorf("building GeoJSON: %w", err)
		}
		if err := os.WriteFile(coverageGeoJSON, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", coverageGeoJSON, err)
		}
		fmt.Printf("  GeoJSON written to %s (%s)\n", coverageGeoJSON, humanize.Bytes(uint64(len(data))))
	}
	return nil
}
