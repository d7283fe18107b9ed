package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DoyleJ11/player-draft-backend/internal/catalog"
	"github.com/DoyleJ11/player-draft-backend/internal/config"
	"github.com/DoyleJ11/player-draft-backend/internal/logging"
	"github.com/DoyleJ11/player-draft-backend/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "player-draft",
		Usage: "player draft match server",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			catalogCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type process struct {
	cfg config.Config
	log *zap.Logger
	db  *gorm.DB // nil when running in memory
}

func setup(ctx context.Context) (*process, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return nil, err
	}
	rt := &process{cfg: cfg, log: logger}
	if cfg.DatabaseURL == "" {
		return rt, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DBConnectLimit)
	defer cancel()
	rt.db, err = store.Open(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *process) close() {
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = rt.log.Sync()
}

func (rt *process) requireDB() error {
	if rt.db == nil {
		return errors.New("DATABASE_URL is not set")
	}
	return nil
}

func (rt *process) migrate(ctx context.Context) error {
	if err := store.NewPostgres(rt.db).Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}
	if err := catalog.NewGorm(rt.db).Migrate(ctx); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or update the matches, match_results and players tables",
		Action: func(c *cli.Context) error {
			rt, err := setup(c.Context)
			if err != nil {
				return err
			}
			defer rt.close()
			if err := rt.requireDB(); err != nil {
				return err
			}
			if err := rt.migrate(c.Context); err != nil {
				return err
			}
			rt.log.Info("migrations applied")
			return nil
		},
	}
}

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "manage the player catalog",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "upsert players from a YAML seed file",
				ArgsUsage: "<file.yaml>",
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						return errors.New("missing seed file")
					}
					rt, err := setup(c.Context)
					if err != nil {
						return err
					}
					defer rt.close()
					if err := rt.requireDB(); err != nil {
						return err
					}

					cat := catalog.NewGorm(rt.db)
					if err := cat.Migrate(c.Context); err != nil {
						return err
					}
					n, err := catalog.ImportFile(c.Context, cat, path)
					if err != nil {
						return err
					}
					rt.log.Info("catalog imported", zap.String("file", path), zap.Int("players", n))
					return nil
				},
			},
		},
	}
}
