package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/nineaccord/salesboard/internal/cache"
	"github.com/nineaccord/salesboard/internal/config"
	"github.com/nineaccord/salesboard/internal/domain"
	"github.com/nineaccord/salesboard/internal/ingest"
	"github.com/nineaccord/salesboard/internal/repository/postgres"
	"github.com/nineaccord/salesboard/internal/storage"
	"github.com/nineaccord/salesboard/pkg/logger"
)

type ctxKey string

const dbKey ctxKey = "db"

func openDB(c *cli.Context) error {
	cfg := config.Load()
	if driver := c.String("driver"); driver != "" {
		cfg.Database.Driver = driver
	}

	db, err := postgres.Open(c.Context, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) *postgres.DB {
	db, _ := c.Context.Value(dbKey).(*postgres.DB)
	return db
}

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "Prepare the sales tables and load them from the sales spreadsheet",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "console",
				Usage:   "console or json",
				EnvVars: []string{"LOG_FORMAT"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Configure(c.String("log-level"), c.String("log-format"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "setup",
				Usage:  "Create the brand tables and the run history table",
				Flags:  []cli.Flag{driverFlag()},
				Before: openDB,
				After:  closeDB,
				Action: setupAction,
			},
			{
				Name:      "run",
				Usage:     "Replace a brand's rows with the current spreadsheet contents",
				ArgsUsage: "<nine|curu|all>",
				Flags: []cli.Flag{
					driverFlag(),
					&cli.StringFlag{Name: "source", Usage: "sheets, xlsx or object (defaults to INGEST_SOURCE)"},
					&cli.StringFlag{Name: "workbook", Usage: "workbook path for the xlsx source"},
				},
				Before: openDB,
				After:  closeDB,
				Action: runAction,
			},
			{
				Name:      "upload",
				Usage:     "Upload a workbook to the object storage bucket",
				ArgsUsage: "<file.xlsx>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Usage: "object key (defaults to OBJECT_KEY)"},
				},
				Action: uploadAction,
			},
			{
				Name:   "clear-cache",
				Usage:  "Invalidate the shared report cache",
				Action: clearCacheAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("migrate failed")
		os.Exit(1)
	}
}

func driverFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "driver",
		Usage: "database driver: postgres or pgx (defaults to DB_DRIVER)",
	}
}

func setupAction(c *cli.Context) error {
	cfg := config.Load()
	repo := postgres.NewSalesRepository(dbFrom(c), cfg.Ingest.BatchSize)
	if err := repo.EnsureSchema(c.Context); err != nil {
		return err
	}
	logger.Log.Info().Msg("schema ready")
	return nil
}

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: migrate run <nine|curu|all>", 2)
	}
	target := c.Args().First()
	if _, err := domain.ParseBrandTarget(target); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	cfg := config.Load()
	if s := c.String("source"); s != "" {
		cfg.Ingest.Source = s
	}
	if w := c.String("workbook"); w != "" {
		cfg.Ingest.WorkbookPath = w
	}

	db := dbFrom(c)
	salesRepo := postgres.NewSalesRepository(db, cfg.Ingest.BatchSize)
	if err := salesRepo.EnsureSchema(c.Context); err != nil {
		return err
	}

	source, err := ingest.SourceFromConfig(c.Context, cfg)
	if err != nil {
		return err
	}

	reportCache, err := sharedCache(cfg)
	if err != nil {
		return err
	}
	defer reportCache.Close()

	runner := ingest.NewRunner(
		ingest.NewIngester(source, salesRepo, cfg.Ingest.BackorderTab),
		reportCache,
		ingest.RunnerOptions{
			QueueSize: 1,
			Timeout:   time.Duration(cfg.Ingest.TimeoutSeconds) * time.Second,
			Recorder:  postgres.NewIngestRunRepository(db),
		},
	)
	runner.Start()
	defer runner.Stop()

	job, err := runner.Submit(target)
	if err != nil {
		return err
	}
	job, err = runner.Wait(c.Context, job.ID)
	if err != nil {
		return err
	}

	for _, r := range job.Results {
		if r.Error != "" {
			fmt.Printf("!!! [%s] failed: %s\n", r.Brand, r.Error)
			continue
		}
		fmt.Printf("[%s] %d rows saved to %s\n", r.Brand, r.Rows, r.Brand.Table())
	}
	fmt.Printf("done (succeeded: %d, failed: %d)\n", job.Succeeded, job.Failed)

	if job.Status == domain.JobFailed {
		return cli.Exit(job.Error, 1)
	}
	return nil
}

// sharedCache returns the report cache this process can invalidate. Only the
// redis backend is visible to a running server; other backends are replaced
// by a no-op store.
func sharedCache(cfg *config.Config) (*cache.ReportCache, error) {
	if cfg.Cache.Backend != "redis" {
		logger.Log.Warn().Str("backend", cfg.Cache.Backend).Msg("cache is not shared; the server keeps its entries until they expire")
		return cache.NewReportCache(cache.NewNoopStore()), nil
	}
	store, err := cache.NewStore(cfg.Cache)
	if err != nil {
		return nil, err
	}
	return cache.NewReportCache(store), nil
}

func uploadAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: migrate upload <file.xlsx>", 2)
	}
	path := c.Args().First()

	cfg := config.Load()
	key := c.String("key")
	if key == "" {
		key = cfg.Object.Key
	}
	if key == "" || key[len(key)-1] == '/' {
		key += filepath.Base(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	client, err := storage.NewMinioClient(ingest.MinioConfig(cfg.Object))
	if err != nil {
		return err
	}
	if err := client.UploadObject(c.Context, key, data); err != nil {
		return err
	}
	logger.Log.Info().Str("key", key).Int("bytes", len(data)).Msg("workbook uploaded")
	return nil
}

func clearCacheAction(c *cli.Context) error {
	cfg := config.Load()
	reportCache, err := sharedCache(cfg)
	if err != nil {
		return err
	}
	defer reportCache.Close()
	return reportCache.InvalidateAll(c.Context)
}
