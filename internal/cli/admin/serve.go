package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/api/handlers"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/config"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/database"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/jobs"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/media"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/openai"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/questions"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/repository"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/server"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/service"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/storage"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/telemetry"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/transcribe"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/youtube"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the questions-generator API server and the background transcription worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the background transcription worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	deps, err := buildServices(ctx, cfg, pool)
	if err != nil {
		return err
	}

	var worker *jobs.Worker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if !noWorker {
		processor := jobs.NewTranscriptionWorker(deps.recordingRepo, deps.pipeline)
		worker = jobs.NewWorker("transcription", processor, 15*time.Second)
		go worker.Start(ctx)
		log.Println("transcription worker started")
	}

	routerCfg := server.RouterConfig{
		RecordingHandler: handlers.NewRecordingHandler(deps.recordingSvc),
		TranscriptionHandler: handlers.NewTranscriptionHandler(
			deps.transcriptionSvc, deps.transcriptRepo, deps.chunkRepo, deps.recordingRepo),
		QuestionHandler: handlers.NewQuestionHandler(deps.questionSvc),
	}
	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// services bundles the wired service graph for the serve command.
type services struct {
	recordingRepo    *repository.RecordingRepository
	chunkRepo        *repository.ChunkRepository
	transcriptRepo   *repository.TranscriptRepository
	recordingSvc     *service.RecordingService
	transcriptionSvc *service.TranscriptionService
	questionSvc      *service.QuestionService
	pipeline         *transcriptionPipeline
}

func buildServices(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*services, error) {
	recordingRepo := repository.NewRecordingRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	transcriptRepo := repository.NewTranscriptRepository(pool)
	generationRepo := repository.NewGenerationRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	segmenter := media.NewSegmenter(cfg.FFmpegPath, cfg.FFprobePath)

	planner := service.NewPlannerService(segmenter, service.PlannerConfig{
		MaxChunkMB:         cfg.MaxChunkMB,
		SilenceThresholdDB: cfg.SilenceThresholdDB,
		MinSilenceDuration: cfg.MinSilenceDuration,
	})
	materializer := service.NewMaterializerService(segmenter, txRunner, service.MaterializerConfig{
		ChunkRoot:  cfg.ChunkStoragePath(),
		MaxChunkMB: cfg.MaxChunkMB,
	})

	ytClient := youtube.NewClient(cfg.YTDLPPath)
	recordingSvc := service.NewRecordingService(
		ytClient, recordingRepo, planner, materializer, cfg.AudioStoragePath())

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
			return nil, fmt.Errorf("failed to create audio archive: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure archive bucket: %w", err)
		}
		log.Printf("audio archive bucket '%s' ready", cfg.S3Bucket)
		recordingSvc.WithArchive(archive)
	}

	var provider service.TranscriptionProvider
	switch cfg.TranscriptionProvider {
	case "openai":
		provider = transcribe.NewOpenAI(cfg.OpenAIAPIKey, cfg.TranscriptionModel, segmenter)
	default:
		if !cfg.HasGroq() {
			log.Println("warning: GROQ_API_KEY not set, transcription calls will fail")
		}
		provider = transcribe.NewGroq(cfg.GroqAPIKey, cfg.TranscriptionModel, segmenter)
	}

	if !cfg.HasOpenAI() {
		log.Println("warning: OPENAI_API_KEY not set, embedding calls will fail")
	}
	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	transcriptionSvc := service.NewTranscriptionService(
		provider, embedder, txRunner, chunkRepo, recordingRepo, cfg.Language)

	questionProvider := questions.New(questions.Config{
		BaseURL: cfg.QuestionBaseURL,
		APIKey:  cfg.QuestionAPIKey,
		Model:   cfg.QuestionModel,
	})
	questionSvc := service.NewQuestionService(
		questionProvider, txRunner, transcriptRepo, generationRepo)

	return &services{
		recordingRepo:    recordingRepo,
		chunkRepo:        chunkRepo,
		transcriptRepo:   transcriptRepo,
		recordingSvc:     recordingSvc,
		transcriptionSvc: transcriptionSvc,
		questionSvc:      questionSvc,
		pipeline:         &transcriptionPipeline{recordingSvc, transcriptionSvc},
	}, nil
}

// transcriptionPipeline joins the segmentation and transcription services
// into the single surface the background worker drives.
type transcriptionPipeline struct {
	*service.RecordingService
	*service.TranscriptionService
}

func runMigrations(databaseURL string) error {
	// golang-migrate wants a database/sql handle, not a pgx pool
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

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if upErr == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
