package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fuzzymenu/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, _ := cmd.Flags().GetString("preset")
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.Server.Addr = addr
			}

			s, err := a.buildService(preset)
			if err != nil {
				return err
			}
			defer s.Close()

			apiServer := api.NewServer(api.Config{
				Service:   s.svc,
				Monitor:   s.monitor,
				Metrics:   s.metrics,
				JWTSecret: a.cfg.Server.JWTSecret,
			})

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var metricsServer *http.Server
			if a.cfg.Server.MetricsAddr != "" {
				metricsServer = startMetricsServer(a.cfg.Server.MetricsAddr, s.metrics.Handler())
			}

			server := &http.Server{
				Addr:    a.cfg.Server.Addr,
				Handler: apiServer.Router,
			}

			go func() {
				<-ctx.Done()
				log.Println("Shutting down servers...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					log.Printf("API server shutdown error: %v", err)
				}
				if metricsServer != nil {
					if err := metricsServer.Shutdown(shutdownCtx); err != nil {
						log.Printf("Metrics server shutdown error: %v", err)
					}
				}
			}()

			log.Printf("Starting API server on %s with preset %s", server.Addr, s.svc.Preset().Name)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("preset", "", "Preset to use (default from config)")
	cmd.Flags().String("addr", "", "Listen address (default from config)")
	return cmd
}

// startMetricsServer serves the recommender registry together with the
// process-wide default registry (Go runtime and process collectors).
func startMetricsServer(addr string, registry http.Handler) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET("/metrics", gin.WrapH(registry))
	metricsRouter.GET("/metrics/process", gin.WrapH(promhttp.Handler()))

	metricsServer := &http.Server{
		Addr:    addr,
		Handler: metricsRouter,
	}

	go func() {
		log.Printf("Starting metrics server on %s", addr)
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	return metricsServer
}

