package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfreitas/quantfolio/internal/modules/portfolio"
	"github.com/mfreitas/quantfolio/internal/scheduler"
	"github.com/mfreitas/quantfolio/internal/server"
)

var servePort int

// serveCmd starts the HTTP API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the HTTP API server with the configured provider chain and,
when enabled, the scheduled price cache refresh.

Example:
  quantfolio serve
  quantfolio serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(0)
		if err != nil {
			return err
		}
		defer rt.Close()

		log := rt.log
		if servePort > 0 {
			rt.cfg.Port = servePort
		}

		sched := scheduler.New(log)
		if rt.cfg.RefreshEnabled {
			job := scheduler.NewPriceRefreshJob(rt.market, rt.prices, rt.cfg.Tickers, rt.cfg.Period, log)
			if err := sched.AddJob(rt.cfg.RefreshSchedule, job); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
		}

		srv := server.New(server.Config{
			Log:      log,
			Port:     rt.cfg.Port,
			Service:  rt.service,
			Defaults: portfolio.RequestFromConfig(rt.cfg),
		})

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-quit:
			log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides QF_PORT)")
	rootCmd.AddCommand(serveCmd)
}
