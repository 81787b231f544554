package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"cdc-reconciler/core/config"
	"cdc-reconciler/core/logger"
	"cdc-reconciler/core/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd starts the observability server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the health and metrics server",
	Long:  `Serves /healthz and the Prometheus /metrics endpoint so scheduled runs can be monitored.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		app := server.New(logg, prometheus.DefaultGatherer)

		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// Graceful shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
