package commands

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/spf13/cobra"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest one or more documents",
		Long:  "Validate, chunk, embed and store the given files under the owner scope",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().String("owner", "", "Owner scope for the documents (required)")
	cmd.Flags().String("kind", "workspace", "Owner kind: workspace or organization")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ownerID, _ := cmd.Flags().GetString("owner")
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind := domain.ParseOwnerKind(kindFlag)

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.cleanup()

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		name := filepath.Base(path)
		doc := domain.RawDocument{
			Content:   content,
			FileName:  name,
			MediaType: cliMediaType(name, content),
			Size:      int64(len(content)),
			OwnerID:   ownerID,
			OwnerKind: kind,
		}

		result, err := p.ingest.Ingest(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", name, err)
		}

		if result.Duplicate {
			fmt.Printf("%s: already ingested (fingerprint %s)\n", name, result.Fingerprint)
			continue
		}
		fmt.Printf("%s: stored %d/%d chunks (fingerprint %s)\n", name, result.StoredCount, result.ChunkCount, result.Fingerprint)
	}

	return nil
}

func cliMediaType(name string, content []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(content)
}
