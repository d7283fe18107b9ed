package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/player-draft-backend/internal/catalog"
	"github.com/DoyleJ11/player-draft-backend/internal/draft"
	"github.com/DoyleJ11/player-draft-backend/internal/engine"
	"github.com/DoyleJ11/player-draft-backend/internal/httpapi"
	"github.com/DoyleJ11/player-draft-backend/internal/hub"
	"github.com/DoyleJ11/player-draft-backend/internal/metrics"
	"github.com/DoyleJ11/player-draft-backend/internal/store"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP and websocket server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "auto-migrate",
				Usage: "apply table migrations before serving (postgres only)",
				Value: true,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()
			return rt.serve(ctx, c.Bool("auto-migrate"))
		},
	}
}

func (rt *process) serve(ctx context.Context, autoMigrate bool) error {
	cfg := rt.cfg

	var (
		cat  catalog.Catalog
		st   store.Store
		ping func(context.Context) error
	)
	if rt.db != nil {
		if autoMigrate {
			if err := rt.migrate(ctx); err != nil {
				return err
			}
		}
		cat = catalog.NewGorm(rt.db)
		st = store.NewPostgres(rt.db)
		sqlDB, err := rt.db.DB()
		if err != nil {
			return err
		}
		ping = sqlDB.PingContext
	} else {
		rt.log.Warn("DATABASE_URL not set, matches and results are kept in memory")
		cat = catalog.NewMemory()
		st = store.NewMemory()
	}

	if cfg.CatalogFile != "" {
		n, err := catalog.ImportFile(ctx, cat, cfg.CatalogFile)
		if err != nil {
			return err
		}
		rt.log.Info("catalog loaded", zap.String("file", cfg.CatalogFile), zap.Int("players", n))
	}

	modes, err := cfg.Modes()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	seed := cfg.RandSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := engine.LockedRand(rand.New(rand.NewPCG(seed, seed>>1|1)))

	h := hub.NewHub(ctx, rt.log.Named("hub"))
	svc := draft.New(draft.Deps{
		Engine:        engine.New(cat, rng, cfg.Rules()),
		Catalog:       cat,
		Store:         st,
		Publisher:     h,
		Logger:        rt.log.Named("draft"),
		Metrics:       m,
		EnabledModes:  modes,
		RecentResults: cfg.RecentResults,
	})

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Service:       svc,
			Hub:           h,
			Logger:        rt.log.Named("http"),
			Metrics:       m,
			Gatherer:      reg,
			CORSOrigins:   cfg.CORSOrigins,
			WSIdleTimeout: cfg.WSIdleTimeout,
			Ping:          ping,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		rt.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
