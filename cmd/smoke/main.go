// Command smoke checks a deployment's credentials end to end: it resolves the
// configured secret source once per package, exchanges a token and lists the
// first page of reviews. Package names are the positional arguments.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/semaphore"

	"review_proxy/internal/adapters/googleauth"
	"review_proxy/internal/adapters/observability"
	"review_proxy/internal/adapters/secrets"
	"review_proxy/internal/app"
	"review_proxy/internal/domain"
	"review_proxy/internal/shared"
)

func main() {
	cmd := &cli.Command{
		Name:      "smoke",
		Usage:     "check that the configured credentials can list reviews",
		ArgsUsage: "<packageName>...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "workers", Value: 4, Usage: "concurrent checks"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("smoke check failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	pkgs := c.Args().Slice()
	if len(pkgs) == 0 {
		return errors.New("at least one package name is required")
	}
	workers := c.Int("workers")
	if workers <= 0 {
		workers = 1
	}

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
		return fmt.Errorf("secret source init: %w", err)
	}
	prov := googleauth.New(src, googleauth.Options{
		TokenURL:     cfg.TokenURL,
		BaseURL:      cfg.PlaystoreBaseURL,
		HTTPClient:   &http.Client{Timeout: cfg.UpstreamTimeout},
		RPS:          cfg.UpstreamRPS,
		FetchTimeout: cfg.UpstreamTimeout,
	})
	svc := app.NewReviewService(prov, cfg.UpstreamTimeout)

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed int32

	for _, pkg := range pkgs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("semaphore acquire: %w", err)
		}

		wg.Add(1)
		go func(pkg string) {
			defer wg.Done()
			defer sem.Release(1)

			out, err := svc.List(ctx, domain.ReviewQuery{PackageName: pkg, MaxResults: "1"})
			if err != nil {
				atomic.AddInt32(&failed, 1)
				log.Warn().Str("package", pkg).Str("kind", string(domain.KindOf(err))).Err(err).Msg("check failed")
				return
			}
			log.Info().Str("package", pkg).Int("bytes", len(out)).Msg("check ok")
		}(pkg)
	}

	wg.Wait()
	if failed > 0 {
		return fmt.Errorf("%d of %d packages failed", failed, len(pkgs))
	}
	log.Info().Int("total", len(pkgs)).Msg("smoke check passed")
	return nil
}
