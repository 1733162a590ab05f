package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/gamestore-backend/internal/catalog"
	"github.com/angelmondragon/gamestore-backend/pkg/config"
	"github.com/angelmondragon/gamestore-backend/pkg/db"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
)

func main() {
	count := flag.Int("count", 200, "number of random games to generate")
	seed := flag.Uint64("seed", 0, "random seed (0 uses the current time)")
	flag.Parse()

	if err := run(context.Background(), *count, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, count int, seed uint64) error {
	if count <= 0 {
		return errors.New("-count must be positive")
	}
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.App.IsProd() && !cfg.FeatureFlags.EnableSeed {
		return errors.New("refusing to seed production without GAMESTORE_ENABLE_SEED")
	}

	logg := logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "count": count})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer dbClient.Close()

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	games := catalog.GenerateGames(count, rand.New(rand.NewPCG(seed, seed>>1)))
	if err := catalog.NewRepository(dbClient.DB()).CreateBatch(ctx, games, catalog.SeedBatchSize); err != nil {
		logg.Error(ctx, "seed insert failed", err)
		return err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"inserted": len(games), "seed": seed}), "catalog seeded")
	return nil
}
