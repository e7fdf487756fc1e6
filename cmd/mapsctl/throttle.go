package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	resilientmaps "github.com/opengovern/resilient-maps"
	"github.com/opengovern/resilient-maps/adapters"
	"github.com/opengovern/resilient-maps/metrics"
)

type throttleReport struct {
	Requests  int                            `json:"requests"`
	Succeeded int64                          `json:"succeeded"`
	Failed    int64                          `json:"failed"`
	Elapsed   string                         `json:"elapsed"`
	PerSecond float64                        `json:"per_second"`
	Limits    []*resilientmaps.RateLimitInfo `json:"limits"`
}

// throttleCmd hammers the geocoding endpoint from many workers to show the
// limiter and retry loop at work.
func (a *app) throttleCmd() *cobra.Command {
	var (
		workers     int
		perWorker   int
		address     string
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "throttle",
		Short: "Send many concurrent geocoding requests and report the achieved rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if metricsAddr == "" {
				metricsAddr = a.cfg.MetricsAddr
			}
			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(a.registry), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.log.Error().Err(err).Msg("metrics server stopped")
					}
				}()
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
				a.log.Info().Str("addr", metricsAddr).Msg("serving metrics")
			}

			var ok, failed atomic.Int64
			start := time.Now()
			g, ctx := errgroup.WithContext(cmd.Context())
			for w := 0; w < workers; w++ {
				w := w
				g.Go(func() error {
					for i := 0; i < perWorker; i++ {
						_, err := adapters.NewGeocodingRequest(a.client).WithAddress(address).Execute(ctx)
						switch {
						case err == nil:
							ok.Add(1)
						case errors.Is(err, resilientmaps.ErrCancelled):
							return err
						default:
							failed.Add(1)
							a.log.Warn().Err(err).Int("worker", w).Msg("request failed")
						}
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			elapsed := time.Since(start)

			report := throttleReport{
				Requests:  workers * perWorker,
				Succeeded: ok.Load(),
				Failed:    failed.Load(),
				Elapsed:   elapsed.Round(time.Millisecond).String(),
			}
			if elapsed > 0 {
				report.PerSecond = float64(report.Succeeded+report.Failed) / elapsed.Seconds()
			}
			for _, api := range resilientmaps.Apis() {
				if info := a.client.GetRateLimitInfo(api); info != nil {
					report.Limits = append(report.Limits, info)
				}
			}
			if report.Failed > 0 {
				defer fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d requests failed\n", report.Failed, report.Requests)
			}
			return a.printJSON(report)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 20, "concurrent workers")
	cmd.Flags().IntVar(&perWorker, "requests", 10, "requests per worker")
	cmd.Flags().StringVar(&address, "address", "1600 Amphitheatre Parkway, Mountain View, CA", "address to geocode")
	cmd.Flags().IntVar(&a.mockRateLimitAfter, "mock-429-after", 0, "with --mock, answer 429 after this many requests")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	return cmd
}
