package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-purchases/app/service"
	"github.com/vibast-solutions/ms-go-purchases/config"
)

var (
	workerMode bool
)

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Reconcile unprocessed provider payments into ledger credits",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"maintain",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.MaintainInterval },
			func(s *service.PurchaseService, ctx context.Context) error {
				return s.RunMaintainBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(maintainCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.PurchaseService, ctx context.Context) error,
) {
	cfg, purchaseService, cleanup := mustCreatePurchaseService()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(cfg), purchaseService, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(purchaseService, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	purchaseService *service.PurchaseService,
	fn func(s *service.PurchaseService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(purchaseService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(purchaseService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
