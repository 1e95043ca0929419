package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/corpora-ai/corpora/internal/service"
)

// DocumentIngester is the slice of the ingestion service the sweeper needs.
type DocumentIngester interface {
	Ingest(ctx context.Context, doc domain.RawDocument) (*service.IngestResult, error)
}

// DirSweeper scans a watch directory and feeds every regular file through
// the ingest pipeline. Content-hash dedup makes repeated sweeps of the same
// folder idempotent, so files can stay in place between sweeps.
type DirSweeper struct {
	dir       string
	ingester  DocumentIngester
	ownerID   string
	ownerKind domain.OwnerKind
}

// NewDirSweeper creates a DirSweeper ingesting into the given owner scope.
func NewDirSweeper(dir string, ingester DocumentIngester, ownerID string, ownerKind domain.OwnerKind) *DirSweeper {
	return &DirSweeper{
		dir:       dir,
		ingester:  ingester,
		ownerID:   ownerID,
		ownerKind: ownerKind,
	}
}

// Sweep implements the Sweeper interface. Per-file failures are logged and
// skipped so one bad file cannot stall the folder.
func (s *DirSweeper) Sweep(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read watch dir: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		if err := s.sweepFile(ctx, entry.Name()); err != nil {
			log.Printf("sweep: skipping %s: %v", entry.Name(), err)
		}
	}

	return nil
}

func (s *DirSweeper) sweepFile(ctx context.Context, name string) error {
	path := filepath.Join(s.dir, name)
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(content) == 0 {
		return errors.New("empty file")
	}

	doc := domain.RawDocument{
		Content:   content,
		FileName:  name,
		MediaType: fileMediaType(name, content),
		Size:      int64(len(content)),
		OwnerID:   s.ownerID,
		OwnerKind: s.ownerKind,
	}

	result, err := s.ingester.Ingest(ctx, doc)
	if err != nil {
		return err
	}

	if result.Duplicate {
		return nil
	}

	log.Printf("sweep: ingested %s (%d chunks stored)", name, result.StoredCount)
	return nil
}

func fileMediaType(name string, content []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(content)
}
