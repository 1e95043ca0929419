package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/corpora-ai/corpora/internal/jobs"
	"github.com/spf13/cobra"
)

// WatchCmd returns the watch command
func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a folder and ingest dropped documents",
		Long:  "Periodically sweep a directory and feed every file through the ingest pipeline; repeated sweeps are deduplicated by content hash",
		RunE:  runWatch,
	}

	cmd.Flags().String("dir", "", "Directory to watch (defaults to CORPORA_WATCH_DIR)")
	cmd.Flags().Duration("interval", 0, "Sweep interval (defaults to CORPORA_WATCH_INTERVAL)")
	cmd.Flags().String("owner", "", "Owner scope for ingested documents (required)")
	cmd.Flags().String("kind", "workspace", "Owner kind: workspace or organization")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ownerID, _ := cmd.Flags().GetString("owner")
	kindFlag, _ := cmd.Flags().GetString("kind")

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.cleanup()

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = p.cfg.WatchDir
	}
	if dir == "" {
		return fmt.Errorf("watch directory is required (--dir or CORPORA_WATCH_DIR)")
	}

	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = p.cfg.WatchInterval
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	sweeper := jobs.NewDirSweeper(dir, p.ingest, ownerID, domain.ParseOwnerKind(kindFlag))
	worker := jobs.NewWorker(sweeper, interval)

	go worker.Start(ctx)
	log.Printf("watching %s every %v for owner %s", dir, interval, ownerID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	worker.Stop()
	return nil
}
