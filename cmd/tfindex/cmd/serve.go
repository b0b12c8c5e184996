package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/searcher/handler"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/redis"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lookups and rankings over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			ctx := cmd.Context()

			m := metrics.New(prometheus.DefaultRegisterer)
			if cfg.Metrics.Enabled {
				shutdown := metrics.StartServer(cfg.Metrics.Port)
				defer shutdown(context.Background())
			}

			ix, err := openIndex(ctx, cfg, m)
			if err != nil {
				return err
			}
			defer ix.Close()
			slog.Info("index loaded", "name", ix.Name(), "documents", ix.DocCount(), "generation", ix.Generation())

			var rankCache *cache.RankCache
			var redisClient *pkgredis.Client
			if cfg.Search.CacheEnabled {
				redisClient, err = pkgredis.NewClient(cfg.Redis)
				if err != nil {
					slog.Warn("redis unavailable, rank caching disabled", "error", err)
				} else {
					defer redisClient.Close()
					rankCache = cache.New(redisClient, cache.Options{TTL: cfg.Redis.CacheTTL, Metrics: m})
					slog.Info("rank cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
				}
			}

			checker := health.NewChecker()
			checker.Register("index", func(context.Context) health.ComponentHealth {
				if !ix.Built() {
					return health.ComponentHealth{Status: health.StatusDown, Message: apperrors.ErrIndexNotBuilt.Error()}
				}
				return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", ix.DocCount())}
			})
			if redisClient != nil {
				checker.Register("redis", health.PingCheck(redisClient.Ping, health.StatusDegraded))
			}

			h, err := handler.New(ix, handler.Options{
				DefaultModel: cfg.Search.Model,
				DefaultLimit: cfg.Search.DefaultLimit,
				MaxResults:   cfg.Search.MaxResults,
				Cache:        rankCache,
			})
			if err != nil {
				return err
			}
			mux := http.NewServeMux()
			h.Register(mux)
			mux.HandleFunc("GET /health/live", checker.LiveHandler())
			mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

			var chain http.Handler = mux
			chain = middleware.Timeout(cfg.Search.Timeout)(chain)
			chain = middleware.Metrics(m)(chain)
			chain = middleware.RequestID(chain)

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      chain,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}
			go func() {
				<-ctx.Done()
				slog.Info("shutdown signal received")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("server shutdown error", "error", err)
				}
			}()

			slog.Info("tfindex listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving http: %w", err)
			}
			slog.Info("tfindex stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides server.port)")
	return cmd
}
