package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "greenguile/docs"
	"greenguile/internal/handlers"
	"greenguile/internal/logger"
	"greenguile/internal/server"
	"greenguile/internal/service"
	"greenguile/internal/transport"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "greenguile",
	Short: "Acoustic pest deterrent controller",
	Long: `GreenGuile plays seasonal predator sound patterns during active hours
and takes ACTIVATE, DEACTIVATE, SEASON and STATUS commands over SMS.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cfgFile)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the device loop with the SMS webhook and operator API",
	RunE:  runServe,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Read SMS commands from stdin and print the replies",
	RunE:  runSimulate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default configs/config.yml)")
	rootCmd.AddCommand(serveCmd, simulateCmd)
}

// @title           GreenGuile API
// @version         1.0
// @description     SMS webhook and operator API for the GreenGuile deterrent controller.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.Get(viper.GetString("log.level"))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	if a.file != nil {
		a.file.Watch(a.store, log)
	}

	if viper.GetBool("auto_activate") {
		a.services.Activate(ctx)
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		a.services.Run(ctx)
	}()

	h := handlers.NewHandler(a.services, log, handlers.Config{
		SMSRatePerMin: viper.GetFloat64("sms.rate_per_min"),
		Metrics:       a.metrics.Handler(),
	})
	srv := server.New(viper.GetString("port"), h.InitRoutes())
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Run() }()

	log.Infow("greenguile_started", "addr", srv.Addr())
	notify(log, daemon.SdNotifyReady)

	select {
	case <-ctx.Done():
		log.Infow("shutting_down")
	case err := <-srvErr:
		if err != nil {
			log.Errorw("http_server_failed", "err", err)
		}
		stop()
	}
	notify(log, daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	drain(shutdownCtx, srv, loopDone, a.services, log)
	log.Infow("greenguile_stopped")
	return nil
}

// drain stops the HTTP server, waits for the scheduler loop and then leaves
// the device inactive. The final Deactivate covers commands that were still
// being served while the loop was stopping.
func drain(ctx context.Context, srv interface{ Shutdown(context.Context) error }, loopDone <-chan struct{}, ctrl service.Controller, log *logger.Logger) {
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server_forced_shutdown", "err", err)
	}
	<-loopDone
	ctrl.Deactivate(context.WithoutCancel(ctx))
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	log := logger.Get(viper.GetString("log.level"))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Starting GreenGuile SMS Simulator")
	err = transport.NewConsole(cmd.InOrStdin(), out, true, log).Run(ctx, a.services)
	a.services.Deactivate(context.WithoutCancel(ctx))
	fmt.Fprintln(out, "\nSMS Simulator shutting down...")
	return err
}

// notify is a no-op outside systemd.
func notify(log *logger.Logger, state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Warnw("sd_notify_failed", "state", state, "err", err)
	}
}
