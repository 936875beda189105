package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/config"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/database"
)

// IngestCmd returns the ingest command: a one-shot pipeline run for a
// single video, useful without the HTTP server.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <video-url>",
		Short: "Ingest, download, segment, and transcribe one video",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().Bool("no-transcribe", false, "Stop after downloading and segmenting")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	deps, err := buildServices(ctx, cfg, pool)
	if err != nil {
		return err
	}

	rec, err := deps.recordingSvc.Ingest(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	log.Printf("ingested %s (%s)", rec.VideoID, rec.Title)

	if _, err := deps.recordingSvc.Download(ctx, rec.VideoID); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	log.Printf("downloaded audio for %s", rec.VideoID)

	chunks, err := deps.recordingSvc.PrepareChunks(ctx, rec.VideoID)
	if err != nil {
		return fmt.Errorf("segmentation failed: %w", err)
	}
	if len(chunks) > 0 {
		log.Printf("segmented %s into %d chunks", rec.VideoID, len(chunks))
	} else {
		log.Printf("%s fits under the chunk ceiling, no segmentation", rec.VideoID)
	}

	if noTranscribe, _ := cmd.Flags().GetBool("no-transcribe"); noTranscribe {
		return nil
	}

	var status string
	if len(chunks) > 0 {
		result, err := deps.transcriptionSvc.ProcessChunked(ctx, rec.VideoID)
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
		status = string(result.Status)
	} else {
		updated, err := deps.recordingSvc.Get(ctx, rec.VideoID)
		if err != nil {
			return err
		}
		result, err := deps.transcriptionSvc.ProcessWhole(ctx, rec.VideoID, updated.FilePath)
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
		status = string(result.Status)
	}

	log.Printf("transcription for %s finished: %s", rec.VideoID, status)
	return nil
}
