package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"review_proxy/internal/adapters/googleauth"
	server "review_proxy/internal/adapters/http_server"
	"review_proxy/internal/adapters/observability"
	redisad "review_proxy/internal/adapters/redis"
	"review_proxy/internal/adapters/secrets"
	"review_proxy/internal/app"
	"review_proxy/internal/domain"
	"review_proxy/internal/shared"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	src, err := secrets.New(ctx, secrets.Options{
		Kind:            cfg.SecretSource,
		CredentialsFile: cfg.CredentialsFile,
		Account:         cfg.Account,
		SSMAccountParam: cfg.SSMAccountParam,
		SSMKeyParam:     cfg.SSMKeyParam,
		VaultMount:      cfg.VaultMount,
		VaultPath:       cfg.VaultSecretPath,
	})
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.SecretSource).Msg("secret source init failed")
	}

	// optional shared token cache
	var cache domain.TokenCache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed; tokens will be fetched until it recovers")
		}
		cache = rc
	}

	prov := googleauth.New(src, googleauth.Options{
		TokenURL:     cfg.TokenURL,
		BaseURL:      cfg.PlaystoreBaseURL,
		HTTPClient:   &http.Client{Timeout: cfg.UpstreamTimeout},
		RPS:          cfg.UpstreamRPS,
		FetchTimeout: cfg.UpstreamTimeout,
		Cache:        cache,
	})
	svc := app.NewReviewService(prov, cfg.UpstreamTimeout)

	// http
	srv := server.New(cfg.UpstreamTimeout+5*time.Second, cfg.AllowOrigin)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Reviews: svc, UploadsEnabled: cfg.UploadsEnabled})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("secret_source", cfg.SecretSource).
			Bool("uploads_enabled", cfg.UploadsEnabled).
			Bool("token_cache", cache != nil).
			Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server exited")
}
