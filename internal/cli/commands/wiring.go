package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/corpora-ai/corpora/internal/config"
	"github.com/corpora-ai/corpora/internal/database"
	"github.com/corpora-ai/corpora/internal/extract"
	"github.com/corpora-ai/corpora/internal/openai"
	"github.com/corpora-ai/corpora/internal/repository"
	"github.com/corpora-ai/corpora/internal/service"
	"github.com/corpora-ai/corpora/internal/storage"
	"github.com/corpora-ai/corpora/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// pipeline bundles everything a command needs after wiring.
type pipeline struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	ingest  *service.IngestService
	cleanup func()
}

// buildPipeline loads config and assembles the ingest service with its
// repository, extractor, embedder and optional archive.
func buildPipeline(ctx context.Context) (*pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for ingestion")
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.SentryDSN != "" {
		// Default to 10% sampling outside development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			cleanups = append(cleanups, shutdownTelemetry)
		}
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanups = append(cleanups, pool.Close)

	recordRepo := repository.NewRecordRepository(pool)
	extractor := extract.New()
	embedder := openai.NewClient(cfg.OpenAIAPIKey)

	svc := service.NewIngestService(recordRepo, extractor, embedder).
		WithChunkingPolicy(chunkingPolicyFromConfig(cfg))

	if cfg.HasS3() {
		archive, err := storage.NewArchive(ctx, storage.ArchiveConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create archive client: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to ensure archive bucket: %w", err)
		}
		log.Printf("archive bucket '%s' ready", cfg.S3Bucket)
		svc = svc.WithArchive(archive)
	}

	return &pipeline{cfg: cfg, pool: pool, ingest: svc, cleanup: cleanup}, nil
}

func chunkingPolicyFromConfig(cfg *config.Config) service.ChunkingPolicy {
	policy := service.DefaultChunkingPolicy()
	if cfg.ChunkMinTokens > 0 {
		policy.MinTokens = cfg.ChunkMinTokens
	}
	if cfg.ChunkMaxTokens > 0 {
		policy.MaxTokens = cfg.ChunkMaxTokens
	}
	if cfg.ChunkOverlapTokens > 0 {
		policy.OverlapTokens = cfg.ChunkOverlapTokens
	}
	return policy
}

func runMigrations(databaseURL string) error {
	// golang-migrate needs a database/sql connection
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: at version %d", version)
	}

	return nil
}
