package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// StatsCmd returns the stats command
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show document statistics for an owner scope",
		RunE:  runStats,
	}

	cmd.Flags().String("owner", "", "Owner scope (required)")
	cmd.Flags().Bool("json", false, "Output as JSON")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ownerID, _ := cmd.Flags().GetString("owner")
	asJSON, _ := cmd.Flags().GetBool("json")

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.cleanup()

	out, err := p.ingest.Stats(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tTYPE\tSIZE\tCHUNKS\tTOKENS\tFINGERPRINT")
	for _, d := range out.Documents {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", d.FileName, d.FileType, d.FileSize, d.ChunkCount, d.TokenCount, d.Fingerprint)
	}
	w.Flush()

	fmt.Printf("\n%d documents, %d chunks, ~%d tokens\n", out.DocumentCount, out.ChunkCount, out.TokenCount)
	return nil
}
